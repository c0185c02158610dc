package toolset

import (
	"context"
	"sync"

	"github.com/jonwraymond/rigorexec/code"
	"github.com/jonwraymond/rigorexec/session"
)

// fakeOps records the calls the tools make.
type fakeOps struct {
	mu       sync.Mutex
	executed []code.ExecuteParams
	saved    [][3]string
	execRes  code.ExecuteResult
}

func (f *fakeOps) ExecuteCode(_ context.Context, p code.ExecuteParams) code.ExecuteResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.executed = append(f.executed, p)
	return f.execRes
}

func (f *fakeOps) ValidateCode(src string) code.ValidationResult {
	if src == "" {
		return code.ValidationResult{Errors: []string{"empty script"}, Warnings: []string{}}
	}
	return code.ValidationResult{Valid: true, Errors: []string{}, Warnings: []string{}}
}

func (f *fakeOps) RetrieveSessionLog() session.Retrieval {
	return session.Retrieval{Message: "No code has been executed yet in this session."}
}

func (f *fakeOps) SaveReproducibleScriptTo(src, filename, outputDir string) code.ExportResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, [3]string{src, filename, outputDir})
	return code.ExportResult{Success: true, Path: outputDir + "/" + filename}
}

func (f *fakeOps) lastExecuted() code.ExecuteParams {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.executed[len(f.executed)-1]
}
