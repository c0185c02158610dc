package code

import (
	"errors"
	"fmt"

	"github.com/jonwraymond/rigorexec/archive"
	"github.com/jonwraymond/rigorexec/session"
	"github.com/jonwraymond/rigorexec/syntax"
)

// ValidateCode parses and lints code without running it.
func (e *Executor) ValidateCode(code string) ValidationResult {
	r := syntax.Check(code)
	return ValidationResult{Valid: r.Valid, Errors: r.Errors, Warnings: r.Warnings}
}

// RetrieveSessionLog returns the summary and entries of the context's log.
func (e *Executor) RetrieveSessionLog() session.Retrieval {
	return e.cfg.Context.Log().Retrieve()
}

// SaveReproducibleScript validates code and writes it under the context's
// output directory. An empty filename selects archive.DefaultExportName.
// Prior log entries are never concatenated; code is written as given.
func (e *Executor) SaveReproducibleScript(code, filename string) ExportResult {
	return e.SaveReproducibleScriptTo(code, filename, "")
}

// SaveReproducibleScriptTo is SaveReproducibleScript with an explicit
// output directory override.
func (e *Executor) SaveReproducibleScriptTo(code, filename, outputDir string) ExportResult {
	dir, err := e.resolveOutputDir(outputDir)
	if err != nil {
		return ExportResult{Message: fmt.Sprintf("Output directory unavailable: %v", err), cause: err}
	}
	if dir == "" {
		// Parse first so syntax problems are reported even without a dir.
		if _, _, perr := syntax.Parse(code); perr != nil {
			return syntaxFailure(perr)
		}
		return ExportResult{Message: "No output directory configured.", cause: ErrNoOutputDir}
	}

	path, err := e.cfg.Exporter.Export(dir, code, filename)
	if err != nil {
		var list syntax.ErrorList
		switch {
		case errors.As(err, &list):
			return syntaxFailure(err)
		case errors.Is(err, archive.ErrInvalidFilename):
			return ExportResult{Message: err.Error(), cause: err}
		default:
			e.cfg.Logger.Error("export failed", "dir", dir, "error", err)
			return ExportResult{Message: fmt.Sprintf("Failed to save script: %v", err), cause: err}
		}
	}

	e.cfg.Context.Log().MarkExported()
	e.cfg.Logger.Info("reproducible script saved", "path", path)
	return ExportResult{
		Success: true,
		Path:    path,
		Message: "Reproducible script saved to " + path,
	}
}

func syntaxFailure(err error) ExportResult {
	msg := "Script has a syntax error: " + err.Error()
	var list syntax.ErrorList
	if errors.As(err, &list) && len(list) > 0 {
		msg = fmt.Sprintf("Script has a syntax error at line %d: %s", list[0].Line, list[0].Msg)
	}
	return ExportResult{Message: msg, cause: fmt.Errorf("%w: %w", ErrExportSyntax, err)}
}
