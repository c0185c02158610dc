package archive

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonwraymond/rigorexec/syntax"
)

// DefaultExportName is used when the caller gives no filename.
const DefaultExportName = "reproducible_analysis.go"

// ErrInvalidFilename is returned for names that are not a plain file name.
var ErrInvalidFilename = errors.New("invalid export filename")

// Exporter validates and writes the curated reproducible script.
type Exporter struct{}

// Export parses code and, if it is valid, writes it to <dir>/<filename>,
// replacing any existing file atomically. Nothing is written when parsing
// fails; the returned error then wraps a syntax.ErrorList.
func (Exporter) Export(dir, code, filename string) (string, error) {
	if filename == "" {
		filename = DefaultExportName
	}
	if err := checkFilename(filename); err != nil {
		return "", err
	}
	if _, _, err := syntax.Parse(code); err != nil {
		return "", err
	}
	if dir == "" {
		return "", ErrNoDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	dest := filepath.Join(dir, filename)
	tmp, err := os.CreateTemp(dir, "."+filename+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("export script: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.WriteString(code); err != nil {
		tmp.Close()
		return "", fmt.Errorf("export script: %w", err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return "", fmt.Errorf("export script: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("export script: %w", err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return "", fmt.Errorf("export script: %w", err)
	}
	return dest, nil
}

func checkFilename(name string) error {
	if name == "." || name == ".." || strings.ContainsAny(name, `/\`) || filepath.Base(name) != name {
		return fmt.Errorf("%w: %q must be a file name without directories", ErrInvalidFilename, name)
	}
	return nil
}
