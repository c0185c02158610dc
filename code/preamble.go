package code

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonwraymond/rigorexec/integrity"
)

// SanityPackage is the import path of the native sanity helpers.
const SanityPackage = "rigorsanity"

// sanityPreamble binds the helpers under the names scripts use.
const sanityPreamble = `import "rigorsanity"

var validateInput = rigorsanity.ValidateInput
var checkRange = rigorsanity.CheckRange
`

var preambleNames = []string{"validateInput", "checkRange"}

// sanityNatives builds the helper package for one run. Warnings go to out so
// they interleave with the script's own output.
func sanityNatives(out io.Writer) map[string]any {
	return map[string]any{
		"ValidateInput": func(data any, name string) []float64 {
			if name == "" {
				name = "data"
			}
			if data == nil {
				panic(fmt.Sprintf("RIGOR: %s is nil, cannot analyze missing data", name))
			}
			values, ok := integrity.ToFloat64s(data)
			if !ok {
				panic(fmt.Sprintf("RIGOR: %s is not a numeric array (%T)", name, data))
			}
			r := integrity.Validate(name, values)
			if !r.Valid {
				panic("RIGOR: " + strings.Join(r.Issues, "; "))
			}
			for _, w := range r.Warnings {
				fmt.Fprintf(out, "WARNING: %s\n", w)
			}
			return values
		},
		"CheckRange": func(value float64, name string, lo, hi float64) float64 {
			if !(lo <= value && value <= hi) {
				fmt.Fprintf(out, "WARNING: %s=%.4g outside expected range [%g, %g]\n", name, value, lo, hi)
			}
			return value
		},
	}
}
