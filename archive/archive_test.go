package archive

import (
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"
)

func TestArchiver_SaveNeverDeduplicates(t *testing.T) {
	dir := t.TempDir()
	fixed := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	a := Archiver{Now: func() time.Time { return fixed }}

	p1, err := a.Save(dir, "x := 1")
	if err != nil {
		t.Fatal(err)
	}
	p2, err := a.Save(dir, "x := 1")
	if err != nil {
		t.Fatal(err)
	}
	if p1 == p2 {
		t.Fatalf("identical code archived to the same path %s", p1)
	}
	entries, err := os.ReadDir(filepath.Join(dir, ScriptsDir))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Errorf("archived files = %d, want 2", len(entries))
	}
	re := regexp.MustCompile(`^script_20260304_050607_[0-9a-f]{6}(-\d+)?\.go$`)
	for _, e := range entries {
		if !re.MatchString(e.Name()) {
			t.Errorf("unexpected name %q", e.Name())
		}
	}
	got, _ := os.ReadFile(p2)
	if string(got) != "x := 1" {
		t.Errorf("content = %q", got)
	}
}

func TestArchiver_NoDir(t *testing.T) {
	if _, err := (Archiver{}).Save("", "x"); !errors.Is(err, ErrNoDir) {
		t.Errorf("Save(\"\") error = %v", err)
	}
}
