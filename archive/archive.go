// Package archive persists analysis scripts.
//
// An [Archiver] stores every attempted snippet under <dir>/scripts for
// forensic traceability; files are never overwritten or deduplicated. An
// [Exporter] writes the one caller-curated reproducible script, replacing
// any previous file of the same name.
package archive

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jonwraymond/rigorexec/logging"
)

// ScriptsDir is the archive subdirectory under the output directory.
const ScriptsDir = "scripts"

// ErrNoDir is returned when no target directory is given.
var ErrNoDir = errors.New("no output directory configured")

// maxSuffix bounds collision retries within one second.
const maxSuffix = 1000

// Archiver writes one file per call named by timestamp and short content
// hash. The zero value is ready to use.
type Archiver struct {
	Now    func() time.Time
	Logger logging.Logger
}

// Save writes code to <dir>/scripts and returns the file path.
func (a Archiver) Save(dir, code string) (string, error) {
	if dir == "" {
		return "", ErrNoDir
	}
	scripts := filepath.Join(dir, ScriptsDir)
	if err := os.MkdirAll(scripts, 0o755); err != nil {
		return "", fmt.Errorf("create scripts dir: %w", err)
	}

	now := time.Now
	if a.Now != nil {
		now = a.Now
	}
	sum := sha256.Sum256([]byte(code))
	base := fmt.Sprintf("script_%s_%s", now().Format("20060102_150405"), hex.EncodeToString(sum[:])[:6])

	for i := 0; i < maxSuffix; i++ {
		name := base + ".go"
		if i > 0 {
			name = fmt.Sprintf("%s-%d.go", base, i)
		}
		path := filepath.Join(scripts, name)
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("archive script: %w", err)
		}
		if _, err := f.WriteString(code); err != nil {
			f.Close()
			return "", fmt.Errorf("archive script: %w", err)
		}
		if err := f.Close(); err != nil {
			return "", fmt.Errorf("archive script: %w", err)
		}
		logging.OrNop(a.Logger).Debug("script archived", "path", path)
		return path, nil
	}
	return "", fmt.Errorf("archive script: too many files named %s", base)
}
