package integrity

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const (
	// MaxNaNFraction is the NaN share above which an array is invalid.
	MaxNaNFraction = 0.5

	smoothMinSamples = 1000
	smoothRatio      = 1e-4
)

// Stats summarises the finite values of an array.
type Stats struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	NValid int     `json:"n_valid"`
	NTotal int     `json:"n_total"`
}

// Report is the outcome of validating one named input.
type Report struct {
	Name     string   `json:"name"`
	Valid    bool     `json:"valid"`
	Issues   []string `json:"issues"`
	Warnings []string `json:"warnings"`
	Stats    *Stats   `json:"stats,omitempty"`
}

// Validate inspects values and returns a report. Stats are nil when no value
// is finite.
func Validate(name string, values []float64) Report {
	if name == "" {
		name = "data"
	}
	r := Report{Name: name}

	if len(values) == 0 {
		r.Issues = append(r.Issues, fmt.Sprintf("%s: empty array, no data to analyze", name))
		return r
	}

	var nan, inf, zero int
	finite := make([]float64, 0, len(values))
	for _, v := range values {
		switch {
		case math.IsNaN(v):
			nan++
		case math.IsInf(v, 0):
			inf++
		default:
			if v == 0 {
				zero++
			}
			finite = append(finite, v)
		}
	}

	if nan > 0 {
		pct := 100 * float64(nan) / float64(len(values))
		if float64(nan)/float64(len(values)) > MaxNaNFraction {
			r.Issues = append(r.Issues, fmt.Sprintf("%s: %.1f%% NaN values, data may be corrupted", name, pct))
		} else {
			r.Warnings = append(r.Warnings, fmt.Sprintf("%s: %.1f%% NaN values detected", name, pct))
		}
	}
	if inf > 0 {
		r.Issues = append(r.Issues, fmt.Sprintf("%s: %d Inf values detected, check instrument saturation", name, inf))
	}

	if len(finite) > 0 {
		if floats.Min(finite) == floats.Max(finite) {
			r.Issues = append(r.Issues, fmt.Sprintf("%s: zero variance, possible recording failure or disconnection", name))
		}
		if zero == len(values) {
			r.Issues = append(r.Issues, fmt.Sprintf("%s: all zeros, check instrument connection", name))
		}
		if smooth(finite) {
			r.Warnings = append(r.Warnings, fmt.Sprintf("%s: suspiciously smooth, real data typically has noise", name))
		}
		r.Stats = summarize(finite, len(values))
	}

	r.Valid = len(r.Issues) == 0
	return r
}

func summarize(finite []float64, total int) *Stats {
	mean, std := stat.PopMeanStdDev(finite, nil)
	return &Stats{
		Min:    floats.Min(finite),
		Max:    floats.Max(finite),
		Mean:   mean,
		Std:    std,
		NValid: len(finite),
		NTotal: total,
	}
}

func smooth(finite []float64) bool {
	if len(finite) <= smoothMinSamples {
		return false
	}
	diffs := make([]float64, len(finite)-1)
	for i := 1; i < len(finite); i++ {
		diffs[i-1] = finite[i] - finite[i-1]
	}
	_, sig := stat.PopMeanStdDev(finite, nil)
	_, noise := stat.PopMeanStdDev(diffs, nil)
	return noise/(sig+1e-10) < smoothRatio
}
