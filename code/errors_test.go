package code

import (
	"errors"
	"fmt"
	"testing"
)

func TestCodeError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *CodeError
		want string
	}{
		{"message only", &CodeError{Message: "boom"}, "boom"},
		{"with position", &CodeError{Message: "undefined: x", Line: 3, Column: 5}, "undefined: x (line 3, col 5)"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("%s: Error() = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestCodeError_IsAndUnwrap(t *testing.T) {
	inner := errors.New("inner")
	err := fmt.Errorf("wrapped: %w", &CodeError{Message: "x", Err: inner})
	if !errors.Is(err, ErrCodeExecution) {
		t.Error("CodeError should match ErrCodeExecution")
	}
	if !errors.Is(err, inner) {
		t.Error("CodeError should unwrap to inner")
	}
	var ce *CodeError
	if !errors.As(err, &ce) || ce.Message != "x" {
		t.Errorf("errors.As failed: %v", ce)
	}
}

func TestCodeError_Summary(t *testing.T) {
	e := &CodeError{Message: "panic: bad", Trace: "goroutine 1\nmain.go:3"}
	if got := e.summary(); got != "panic: bad\ngoroutine 1\nmain.go:3" {
		t.Errorf("summary() = %q", got)
	}
}
