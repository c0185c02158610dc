// Package syntax checks analysis scripts without running them.
//
// Scripts are Go source in one of three forms, chosen by the first token the
// same way the interpreter chooses: a complete program starting with
// "package", a run of top-level declarations, or bare statements.
package syntax

import (
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/scanner"
	"go/token"
	"strings"
)

// Form is the shape of a script.
type Form int

const (
	// Statements are evaluated as if they were the body of main.
	Statements Form = iota
	// Declarations are top-level declarations of package main.
	Declarations
	// Program is a complete source file.
	Program
)

func (f Form) String() string {
	switch f {
	case Program:
		return "program"
	case Declarations:
		return "declarations"
	default:
		return "statements"
	}
}

const (
	declPrefix = "package main;"
	stmtPrefix = "package main; func main() {"
)

// Classify returns the form of src based on its first token. Comments are
// skipped. Empty input is Statements.
func Classify(src string) Form {
	var s scanner.Scanner
	fset := token.NewFileSet()
	file := fset.AddFile("", fset.Base(), len(src))
	s.Init(file, []byte(src), nil, 0)
	_, tok, _ := s.Scan()
	switch tok {
	case token.PACKAGE:
		return Program
	case token.CONST, token.FUNC, token.IMPORT, token.TYPE, token.VAR:
		return Declarations
	default:
		return Statements
	}
}

// Wrap returns src as a complete file together with the number of bytes the
// wrapper adds to the start of line 1.
func Wrap(src string) (string, Form, int) {
	switch f := Classify(src); f {
	case Program:
		return src, f, 0
	case Declarations:
		return declPrefix + src, f, len(declPrefix)
	default:
		return stmtPrefix + src + "\n}", f, len(stmtPrefix)
	}
}

// Error is a positioned parse error in the caller's coordinates.
type Error struct {
	Line   int
	Column int
	Msg    string
}

func (e Error) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d, col %d: %s", e.Line, e.Column, e.Msg)
	}
	return e.Msg
}

// ErrorList collects every parse error in source order.
type ErrorList []Error

func (l ErrorList) Error() string {
	switch len(l) {
	case 0:
		return "no errors"
	case 1:
		return l[0].Error()
	}
	return fmt.Sprintf("%s (and %d more errors)", l[0].Error(), len(l)-1)
}

// Parse parses src in its classified form. A non-nil error is always an
// ErrorList.
//
// Errors the parser reports past the end of src, such as those caused by
// the closing brace Wrap appends, are folded into one error at the end of
// the last non-blank line and reported only when src has no other errors.
func Parse(src string) (*ast.File, *token.FileSet, error) {
	wrapped, _, shift := Wrap(src)
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, "script.go", wrapped, parser.AllErrors|parser.ParseComments)
	if err == nil {
		return f, fset, nil
	}
	var list scanner.ErrorList
	if !errors.As(err, &list) {
		return nil, fset, ErrorList{{Msg: err.Error()}}
	}
	lastLine, lastCol := end(src)
	out := make(ErrorList, 0, len(list))
	var trailing *Error
	for _, e := range list {
		if e.Pos.Line > lastLine {
			if trailing == nil {
				trailing = &Error{Line: lastLine, Column: lastCol, Msg: atEOF(e.Msg)}
			}
			continue
		}
		col := e.Pos.Column
		if e.Pos.Line == 1 && col > shift {
			col -= shift
		}
		out = append(out, Error{Line: e.Pos.Line, Column: col, Msg: e.Msg})
	}
	if len(out) == 0 && trailing != nil {
		out = append(out, *trailing)
	}
	return f, fset, out
}

// end returns the line of the last non-blank line of src and the column
// just past its last character.
func end(src string) (line, col int) {
	trimmed := strings.TrimRight(src, " \t\r\n")
	line = strings.Count(trimmed, "\n") + 1
	col = len(trimmed) - strings.LastIndex(trimmed, "\n")
	return line, col
}

// atEOF rewrites a parser message that names the wrapper's closing brace.
func atEOF(msg string) string {
	return strings.Replace(msg, "found '}'", "found 'EOF'", 1)
}

// position maps pos in a file parsed from Wrap(src) to src's coordinates.
func position(fset *token.FileSet, pos token.Pos, shift int) (line, col int) {
	p := fset.Position(pos)
	line, col = p.Line, p.Column
	if line == 1 && col > shift {
		col -= shift
	}
	return line, col
}

// Detached reports the places in f that start code outside the calling
// goroutine: go statements and time.AfterFunc calls. A panic there cannot
// be recovered by the caller. f and fset must come from Parse(src).
func Detached(f *ast.File, fset *token.FileSet, src string) ErrorList {
	if f == nil || fset == nil {
		return nil
	}
	_, _, shift := Wrap(src)
	var out ErrorList
	ast.Inspect(f, func(n ast.Node) bool {
		var msg string
		switch n := n.(type) {
		case *ast.GoStmt:
			msg = "go statement starts a goroutine"
		case *ast.CallExpr:
			if isSelector(n.Fun, "time", "AfterFunc") {
				msg = "time.AfterFunc runs its function on another goroutine"
			}
		}
		if msg != "" {
			line, col := position(fset, n.Pos(), shift)
			out = append(out, Error{Line: line, Column: col, Msg: msg})
		}
		return true
	})
	return out
}

func isSelector(e ast.Expr, pkg, name string) bool {
	sel, ok := e.(*ast.SelectorExpr)
	if !ok || sel.Sel.Name != name {
		return false
	}
	id, ok := sel.X.(*ast.Ident)
	return ok && id.Name == pkg
}

// Result is the outcome of Check.
type Result struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// Check parses and lints src. It never executes anything. Lint warnings are
// only reported for source that parses.
func Check(src string) Result {
	r := Result{Errors: []string{}, Warnings: []string{}}
	if strings.TrimSpace(src) == "" {
		r.Errors = append(r.Errors, "empty script")
		return r
	}
	f, _, err := Parse(src)
	if err != nil {
		var list ErrorList
		if errors.As(err, &list) {
			for _, e := range list {
				r.Errors = append(r.Errors, "syntax error: "+e.Error())
			}
		} else {
			r.Errors = append(r.Errors, err.Error())
		}
		return r
	}
	r.Warnings = append(r.Warnings, Lint(f)...)
	r.Valid = true
	return r
}
