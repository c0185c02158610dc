package yaegi

import (
	"errors"
	"fmt"
	"go/scanner"
	"regexp"
	"strconv"

	"github.com/traefik/yaegi/interp"

	"github.com/jonwraymond/rigorexec/code"
	"github.com/jonwraymond/rigorexec/syntax"
)

// ErrDetached is wrapped by the CodeError returned for scripts that would
// run code on another goroutine. The interpreter recovers panics only on
// the goroutine that called Eval, so such code is never started.
var ErrDetached = errors.New("code outside the calling goroutine is not supported")

// posPattern matches the "line:col: message" prefix of interpreter errors,
// with or without a leading file name.
var posPattern = regexp.MustCompile(`(?:^|:)(\d+):(\d+): (.*)`)

// parseError reports the first positioned syntax error.
func parseError(err error) error {
	var list syntax.ErrorList
	if errors.As(err, &list) && len(list) > 0 {
		return &code.CodeError{
			Message: "syntax error: " + list[0].Msg,
			Line:    list[0].Line,
			Column:  list[0].Column,
			Err:     err,
		}
	}
	return &code.CodeError{Message: err.Error(), Err: err}
}

func detachedError(list syntax.ErrorList) error {
	first := list[0]
	return &code.CodeError{
		Message: fmt.Sprintf("%s: %v", first.Msg, ErrDetached),
		Line:    first.Line,
		Column:  first.Column,
		Err:     ErrDetached,
	}
}

// convertError turns an interpreter error into a CodeError in the script's
// own coordinates.
func convertError(err error, src string) error {
	if p, ok := asPanic(err); ok {
		return &code.CodeError{
			Message: fmt.Sprintf("panic: %v", p.Value),
			Trace:   string(p.Stack),
			Err:     err,
		}
	}

	_, _, shift := syntax.Wrap(src)

	var list scanner.ErrorList
	if errors.As(err, &list) && len(list) > 0 {
		line, col := list[0].Pos.Line, list[0].Pos.Column
		if line == 1 && col > shift {
			col -= shift
		}
		return &code.CodeError{Message: list[0].Msg, Line: line, Column: col, Err: err}
	}

	m := posPattern.FindStringSubmatch(err.Error())
	if m == nil {
		return &code.CodeError{Message: err.Error(), Err: err}
	}
	line, _ := strconv.Atoi(m[1])
	col, _ := strconv.Atoi(m[2])
	if line == 1 && col > shift {
		col -= shift
	}
	return &code.CodeError{Message: m[3], Line: line, Column: col, Err: err}
}

func asPanic(err error) (interp.Panic, bool) {
	var p interp.Panic
	if errors.As(err, &p) {
		return p, true
	}
	var pp *interp.Panic
	if errors.As(err, &pp) && pp != nil {
		return *pp, true
	}
	return interp.Panic{}, false
}
