package yaegi

import (
	"context"
	"fmt"
	"go/ast"
	"io"
	"reflect"
	"strconv"
	"strings"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"github.com/jonwraymond/rigorexec/code"
	"github.com/jonwraymond/rigorexec/figures"
	"github.com/jonwraymond/rigorexec/logging"
	"github.com/jonwraymond/rigorexec/syntax"
)

// bindingPackage carries caller bindings into the namespace.
const bindingPackage = "rigorenv"

// DefaultImports is the namespace imported before every statements or
// declarations script. Unavailable packages are skipped.
var DefaultImports = []string{
	"fmt",
	"math",
	"math/rand",
	"os",
	"path/filepath",
	"sort",
	"strconv",
	"strings",
	"time",
	"gonum.org/v1/gonum/floats",
	"gonum.org/v1/gonum/stat",
	"gonum.org/v1/plot",
	"gonum.org/v1/plot/plotter",
	"gonum.org/v1/plot/vg",
	PlotHelperPackage,
}

// Config configures an Engine.
type Config struct {
	// Imports replaces DefaultImports when non-nil.
	Imports []string

	// Logger receives debug traces for skipped imports.
	Logger logging.Logger
}

// Engine implements code.Engine with yaegi.
type Engine struct {
	imports []string
	logger  logging.Logger
}

var _ code.Engine = (*Engine)(nil)

// New creates a new Engine with the given configuration.
func New(cfg Config) *Engine {
	imports := cfg.Imports
	if imports == nil {
		imports = DefaultImports
	}
	return &Engine{
		imports: append([]string(nil), imports...),
		logger:  logging.OrNop(cfg.Logger),
	}
}

// Run implements code.Engine.
func (e *Engine) Run(ctx context.Context, prog code.Program) (code.Outcome, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return code.Outcome{}, err
	}

	stdout, stderr := prog.Stdout, prog.Stderr
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}
	reg := prog.Figures
	if reg == nil {
		reg = figures.NewRegistry()
	}

	file, fset, err := syntax.Parse(prog.Code)
	if err != nil {
		return code.Outcome{}, parseError(err)
	}
	if detached := syntax.Detached(file, fset, prog.Code); len(detached) > 0 {
		return code.Outcome{}, detachedError(detached)
	}
	form := syntax.Classify(prog.Code)

	i := interp.New(interp.Options{Stdout: stdout, Stderr: stderr})
	if err := i.Use(stdlib.Symbols); err != nil {
		return code.Outcome{}, fmt.Errorf("load stdlib symbols: %w", err)
	}
	if err := i.Use(numericSymbols()); err != nil {
		return code.Outcome{}, fmt.Errorf("load numeric symbols: %w", err)
	}
	if err := i.Use(plotHelperSymbols(reg)); err != nil {
		return code.Outcome{}, fmt.Errorf("load plot helper: %w", err)
	}
	if len(prog.Natives) > 0 {
		if err := i.Use(nativeSymbols(prog.Natives)); err != nil {
			return code.Outcome{}, fmt.Errorf("load native packages: %w", err)
		}
	}

	if form != syntax.Program {
		e.importNamespace(i, file)
	}
	if err := bind(i, prog.Bindings); err != nil {
		return code.Outcome{}, err
	}
	if prog.Preamble != "" {
		if _, err := i.Eval(prog.Preamble); err != nil {
			return code.Outcome{}, fmt.Errorf("evaluate preamble: %w", err)
		}
	}

	res, err := i.Eval(prog.Code + "\n")
	if err != nil {
		return code.Outcome{}, convertError(err, prog.Code)
	}

	globals := make(map[string]any)
	for name, v := range i.Globals() {
		if v.IsValid() && v.CanInterface() {
			globals[name] = v.Interface()
		}
	}
	out := code.Outcome{Globals: globals}
	if v, ok := globals["__out"]; ok {
		out.Value = v
	} else if endsWithExpr(file, form) && res.IsValid() && res.CanInterface() {
		out.Value = res.Interface()
	}
	return out, nil
}

// importNamespace imports each configured package the script does not
// import itself. Failures are logged and skipped.
func (e *Engine) importNamespace(i *interp.Interpreter, file *ast.File) {
	own := map[string]bool{}
	if file != nil {
		for _, imp := range file.Imports {
			if p, err := strconv.Unquote(imp.Path.Value); err == nil {
				own[p] = true
			}
		}
	}
	for _, path := range e.imports {
		if own[path] {
			continue
		}
		if _, err := i.Eval("import " + strconv.Quote(path)); err != nil {
			e.logger.Debug("namespace import skipped", "path", path, "error", err)
		}
	}
}

// bind declares each binding as a package-level variable initialised from
// an exported symbol. The last binding of a name wins.
func bind(i *interp.Interpreter, bindings []code.Binding) error {
	if len(bindings) == 0 {
		return nil
	}
	last := make(map[string]int, len(bindings))
	var order []string
	for idx, b := range bindings {
		if _, seen := last[b.Name]; !seen {
			order = append(order, b.Name)
		}
		last[b.Name] = idx
	}

	syms := map[string]reflect.Value{}
	var decls strings.Builder
	decls.WriteString("import " + strconv.Quote(bindingPackage) + "\n")
	for n, name := range order {
		v := bindings[last[name]].Value
		if v == nil {
			fmt.Fprintf(&decls, "var %s interface{}\n", name)
			continue
		}
		sym := fmt.Sprintf("V%d", n)
		cell := reflect.New(reflect.TypeOf(v)).Elem()
		cell.Set(reflect.ValueOf(v))
		syms[sym] = cell
		fmt.Fprintf(&decls, "var %s = %s.%s\n", name, bindingPackage, sym)
	}
	if err := i.Use(interp.Exports{bindingPackage + "/" + bindingPackage: syms}); err != nil {
		return fmt.Errorf("export bindings: %w", err)
	}
	if _, err := i.Eval(decls.String()); err != nil {
		return fmt.Errorf("declare bindings: %w", err)
	}
	return nil
}

// nativeSymbols converts native packages into interpreter exports keyed the
// way yaegi expects: "<import path>/<package name>".
func nativeSymbols(natives map[string]map[string]any) interp.Exports {
	exports := make(interp.Exports, len(natives))
	for path, syms := range natives {
		name := path[strings.LastIndex(path, "/")+1:]
		m := make(map[string]reflect.Value, len(syms))
		for sym, v := range syms {
			m[sym] = reflect.ValueOf(v)
		}
		exports[path+"/"+name] = m
	}
	return exports
}

func endsWithExpr(file *ast.File, form syntax.Form) bool {
	if file == nil || form != syntax.Statements {
		return false
	}
	for _, d := range file.Decls {
		fn, ok := d.(*ast.FuncDecl)
		if !ok || fn.Name.Name != "main" || fn.Body == nil || len(fn.Body.List) == 0 {
			continue
		}
		_, isExpr := fn.Body.List[len(fn.Body.List)-1].(*ast.ExprStmt)
		return isExpr
	}
	return false
}
