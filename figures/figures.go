// Package figures collects plots produced by one script run and turns them
// into transport-ready PNG images.
package figures

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// Dir is the subdirectory figures are persisted to.
const Dir = "figures"

// Default render size.
const (
	DefaultWidth  = 6 * vg.Inch
	DefaultHeight = 4 * vg.Inch
)

// Figure is one captured plot.
type Figure struct {
	Number      int    `json:"figure_number"`
	ImageBase64 string `json:"image_base64"`
	Format      string `json:"format"`
	Path        string `json:"path,omitempty"`
}

// Registry holds the plots created during a single script run. Numbers
// start at 1 in registration order; registering the same plot twice keeps
// its first number.
type Registry struct {
	mu    sync.Mutex
	plots []*plot.Plot
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry { return &Registry{} }

// New creates a plot and registers it.
func (r *Registry) New() *plot.Plot {
	p := plot.New()
	r.Add(p)
	return p
}

// Add registers p and returns its figure number.
func (r *Registry) Add(p *plot.Plot) int {
	if p == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, q := range r.plots {
		if q == p {
			return i + 1
		}
	}
	r.plots = append(r.plots, p)
	return len(r.plots)
}

// Len returns the number of registered plots.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.plots)
}

// Drain returns all registered plots and empties the registry.
func (r *Registry) Drain() []*plot.Plot {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.plots
	r.plots = nil
	return out
}

// Render draws p as a PNG of the given size.
func Render(p *plot.Plot, w, h vg.Length) ([]byte, error) {
	if w <= 0 {
		w = DefaultWidth
	}
	if h <= 0 {
		h = DefaultHeight
	}
	c := vgimg.New(w, h)
	p.Draw(draw.New(c))
	var buf bytes.Buffer
	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// Options controls Capture.
type Options struct {
	// SaveDir persists each PNG under SaveDir/figures when non-empty.
	SaveDir string

	// Push receives every captured figure, for live display.
	Push func(Figure) error

	Width, Height vg.Length
	Now           func() time.Time
}

// Capture renders plots in order. A plot that fails to render is skipped;
// every failure (render, save or push) is joined into the returned error
// while the remaining plots are still processed.
func Capture(plots []*plot.Plot, opts Options) ([]Figure, error) {
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	var (
		out  []Figure
		errs []error
	)
	for i, p := range plots {
		num := i + 1
		img, err := render(p, opts.Width, opts.Height)
		if err != nil {
			errs = append(errs, fmt.Errorf("figure %d: %w", num, err))
			continue
		}
		fig := Figure{
			Number:      num,
			ImageBase64: base64.StdEncoding.EncodeToString(img),
			Format:      "png",
		}
		if opts.SaveDir != "" {
			path, err := save(opts.SaveDir, num, img, now())
			if err != nil {
				errs = append(errs, fmt.Errorf("figure %d: %w", num, err))
			}
			fig.Path = path
		}
		if opts.Push != nil {
			if err := opts.Push(fig); err != nil {
				errs = append(errs, fmt.Errorf("figure %d push: %w", num, err))
			}
		}
		out = append(out, fig)
	}
	return out, errors.Join(errs...)
}

func render(p *plot.Plot, w, h vg.Length) (img []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("render panicked: %v", r)
		}
	}()
	return Render(p, w, h)
}

// maxSuffix bounds the "-N" names tried when a figure name is taken.
const maxSuffix = 1000

// save writes figure_<n>_<timestamp>.png. An existing file is never
// overwritten; the next free "-N" suffix is used instead.
func save(dir string, num int, img []byte, at time.Time) (string, error) {
	target := filepath.Join(dir, Dir)
	if err := os.MkdirAll(target, 0o755); err != nil {
		return "", err
	}
	base := fmt.Sprintf("figure_%d_%s", num, at.Format("20060102_150405"))
	for i := 0; i < maxSuffix; i++ {
		name := base + ".png"
		if i > 0 {
			name = fmt.Sprintf("%s-%d.png", base, i)
		}
		path := filepath.Join(target, name)
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", err
		}
		if _, err := f.Write(img); err != nil {
			f.Close()
			return "", err
		}
		return path, f.Close()
	}
	return "", fmt.Errorf("too many figures named %s", base)
}
