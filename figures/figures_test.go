package figures

import (
	"bytes"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func linePlot(t *testing.T) *plot.Plot {
	t.Helper()
	p := plot.New()
	p.Title.Text = "trace"
	line, err := plotter.NewLine(plotter.XYs{{X: 0, Y: 0}, {X: 1, Y: 2}, {X: 2, Y: 1}})
	if err != nil {
		t.Fatal(err)
	}
	p.Add(line)
	return p
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	p := r.New()
	if n := r.Add(p); n != 1 {
		t.Errorf("re-adding returned %d, want 1", n)
	}
	if n := r.Add(plot.New()); n != 2 {
		t.Errorf("Add() = %d, want 2", n)
	}
	if r.Add(nil) != 0 {
		t.Error("nil plot registered")
	}
	if got := r.Drain(); len(got) != 2 {
		t.Errorf("Drain() len = %d", len(got))
	}
	if r.Len() != 0 {
		t.Error("registry not empty after Drain")
	}
}

func TestRender(t *testing.T) {
	img, err := Render(linePlot(t), 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(img, pngMagic) {
		t.Error("output is not a PNG")
	}
}

func TestCapture_SaveAndPush(t *testing.T) {
	dir := t.TempDir()
	at := time.Date(2026, 5, 6, 7, 8, 9, 0, time.UTC)
	var pushed []int
	figs, err := Capture([]*plot.Plot{linePlot(t), linePlot(t)}, Options{
		SaveDir: dir,
		Push:    func(f Figure) error { pushed = append(pushed, f.Number); return nil },
		Now:     func() time.Time { return at },
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(figs) != 2 || figs[0].Number != 1 || figs[1].Number != 2 {
		t.Fatalf("figures = %+v", figs)
	}
	raw, err := base64.StdEncoding.DecodeString(figs[0].ImageBase64)
	if err != nil || !bytes.HasPrefix(raw, pngMagic) {
		t.Errorf("figure 1 is not base64 PNG: %v", err)
	}
	want := filepath.Join(dir, Dir, "figure_1_20260506_070809.png")
	if figs[0].Path != want {
		t.Errorf("Path = %q, want %q", figs[0].Path, want)
	}
	if _, err := os.Stat(want); err != nil {
		t.Error(err)
	}
	if len(pushed) != 2 {
		t.Errorf("pushed = %v", pushed)
	}
}

func TestCapture_NeverOverwrites(t *testing.T) {
	dir := t.TempDir()
	at := time.Date(2026, 5, 6, 7, 8, 9, 0, time.UTC)
	existing := filepath.Join(dir, Dir, "figure_1_20260506_070809.png")
	if err := os.MkdirAll(filepath.Dir(existing), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(existing, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}
	figs, err := Capture([]*plot.Plot{linePlot(t)}, Options{SaveDir: dir, Now: func() time.Time { return at }})
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(dir, Dir, "figure_1_20260506_070809-1.png")
	if figs[0].Path != want {
		t.Errorf("Path = %q, want %q", figs[0].Path, want)
	}
	got, _ := os.ReadFile(existing)
	if string(got) != "old" {
		t.Error("existing figure overwritten")
	}
	saved, err := os.ReadFile(want)
	if err != nil || !bytes.HasPrefix(saved, pngMagic) {
		t.Errorf("suffixed figure not written: %v", err)
	}
}

func TestCapture_SameSecondRunsKeepEveryFigure(t *testing.T) {
	dir := t.TempDir()
	at := time.Date(2026, 5, 6, 7, 8, 9, 0, time.UTC)
	opts := Options{SaveDir: dir, Now: func() time.Time { return at }}

	seen := map[string]bool{}
	for run := 0; run < 3; run++ {
		figs, err := Capture([]*plot.Plot{linePlot(t)}, opts)
		if err != nil {
			t.Fatal(err)
		}
		if figs[0].Path == "" || seen[figs[0].Path] {
			t.Fatalf("run %d Path = %q", run, figs[0].Path)
		}
		seen[figs[0].Path] = true
	}
	entries, err := os.ReadDir(filepath.Join(dir, Dir))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 {
		t.Errorf("figure files = %d, want 3", len(entries))
	}
}

func TestCapture_PushErrorsJoined(t *testing.T) {
	boom := errors.New("socket closed")
	figs, err := Capture([]*plot.Plot{linePlot(t)}, Options{Push: func(Figure) error { return boom }})
	if !errors.Is(err, boom) {
		t.Errorf("error = %v, want %v", err, boom)
	}
	if len(figs) != 1 {
		t.Errorf("figures = %d, want 1 despite push failure", len(figs))
	}
}
