package syntax

import (
	"fmt"
	"go/ast"
	"strconv"
)

var riskyImports = map[string]string{
	"os/exec":  "spawns external processes",
	"syscall":  "makes raw system calls",
	"unsafe":   "bypasses type safety",
	"net":      "opens network connections",
	"net/http": "performs network requests",
	"plugin":   "loads native code",
}

// riskyCalls is keyed by package name then selector.
var riskyCalls = map[string]map[string]string{
	"exec":    {"Command": "runs an external command", "CommandContext": "runs an external command"},
	"os":      {"StartProcess": "starts a process", "RemoveAll": "deletes a directory tree", "Exit": "terminates the host process"},
	"syscall": {"Exec": "replaces the process image", "ForkExec": "starts a process"},
	"time":    {"AfterFunc": "runs code on a goroutine the engine cannot recover"},
}

// Lint reports risky imports and calls in a parsed file.
func Lint(f *ast.File) []string {
	if f == nil {
		return nil
	}
	var warnings []string
	for _, imp := range f.Imports {
		path, err := strconv.Unquote(imp.Path.Value)
		if err != nil {
			continue
		}
		if why, ok := riskyImports[path]; ok {
			warnings = append(warnings, fmt.Sprintf("import %q %s", path, why))
		}
	}
	ast.Inspect(f, func(n ast.Node) bool {
		if _, ok := n.(*ast.GoStmt); ok {
			warnings = append(warnings, "go statement starts a goroutine the engine cannot recover; execute_code rejects it")
			return true
		}
		call, ok := n.(*ast.CallExpr)
		if !ok {
			return true
		}
		sel, ok := call.Fun.(*ast.SelectorExpr)
		if !ok {
			return true
		}
		pkg, ok := sel.X.(*ast.Ident)
		if !ok {
			return true
		}
		if why, ok := riskyCalls[pkg.Name][sel.Sel.Name]; ok {
			warnings = append(warnings, fmt.Sprintf("call to %s.%s %s", pkg.Name, sel.Sel.Name, why))
		}
		return true
	})
	return warnings
}
