package syntax

import (
	"errors"
	"strings"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		src  string
		want Form
	}{
		{"package main\nfunc main() {}", Program},
		{"// header\npackage main", Program},
		{`import "fmt"`, Declarations},
		{"func f() int { return 1 }", Declarations},
		{"var x = 1", Declarations},
		{"type T struct{}", Declarations},
		{"const c = 2", Declarations},
		{"x := 1", Statements},
		{`fmt.Println("hi")`, Statements},
		{"", Statements},
	}
	for _, tt := range tests {
		if got := Classify(tt.src); got != tt.want {
			t.Errorf("Classify(%q) = %s, want %s", tt.src, got, tt.want)
		}
	}
}

func TestParse_Valid(t *testing.T) {
	for _, src := range []string{
		"x := 1\ny := x + 1\n_ = y",
		"package main\n\nfunc main() {}\n",
		"func add(a, b int) int { return a + b }",
		"x := 3 // trailing comment",
	} {
		if _, _, err := Parse(src); err != nil {
			t.Errorf("Parse(%q) error = %v", src, err)
		}
	}
}

func TestParse_ErrorPosition(t *testing.T) {
	_, _, err := Parse("x := (1 + 2\ny := 3")
	var list ErrorList
	if !errors.As(err, &list) || len(list) == 0 {
		t.Fatalf("Parse() error = %v, want ErrorList", err)
	}
	if list[0].Line < 1 {
		t.Errorf("Line = %d", list[0].Line)
	}

	_, _, err = Parse("x := )")
	if !errors.As(err, &list) {
		t.Fatalf("err = %v", err)
	}
	if list[0].Line != 1 || list[0].Column != 6 {
		t.Errorf("position = %d:%d, want 1:6", list[0].Line, list[0].Column)
	}
}

func TestCheck(t *testing.T) {
	r := Check("fmt.Println((1)")
	if r.Valid || len(r.Errors) == 0 {
		t.Errorf("Check(unbalanced) = %+v", r)
	}

	r = Check("x := 1")
	if !r.Valid || len(r.Errors) != 0 || len(r.Warnings) != 0 {
		t.Errorf("Check(clean) = %+v", r)
	}

	r = Check("  ")
	if r.Valid {
		t.Error("empty script should be invalid")
	}
}

func TestCheck_Lint(t *testing.T) {
	src := `package main

import (
	"os"
	"os/exec"
)

func main() {
	exec.Command("ls").Run()
	os.RemoveAll("/tmp/x")
}
`
	r := Check(src)
	if !r.Valid {
		t.Fatalf("Errors = %v", r.Errors)
	}
	want := []string{`import "os/exec"`, "exec.Command", "os.RemoveAll"}
	for _, w := range want {
		found := false
		for _, got := range r.Warnings {
			if strings.Contains(got, w) {
				found = true
			}
		}
		if !found {
			t.Errorf("Warnings = %v, missing %q", r.Warnings, w)
		}
	}
}

func TestParse_ErrorAtEndOfScript(t *testing.T) {
	tests := []struct {
		src      string
		line     int
		column   int
		contains string
	}{
		{"a := 1\nb := (a +", 2, 10, "EOF"},
		{"x := (1 +", 1, 10, "EOF"},
		{"x := (1 +\n\n", 1, 10, "EOF"},
		{"if true {\n\tx := 1\n\t_ = x", 3, 7, "EOF"},
	}
	for _, tt := range tests {
		_, _, err := Parse(tt.src)
		var list ErrorList
		if !errors.As(err, &list) {
			t.Fatalf("Parse(%q) error = %v, want ErrorList", tt.src, err)
		}
		if len(list) != 1 {
			t.Errorf("Parse(%q) = %d errors, want 1: %v", tt.src, len(list), list)
		}
		got := list[0]
		if got.Line != tt.line || got.Column != tt.column {
			t.Errorf("Parse(%q) position = %d:%d, want %d:%d", tt.src, got.Line, got.Column, tt.line, tt.column)
		}
		if strings.Contains(got.Msg, "found '}'") || !strings.Contains(got.Msg, tt.contains) {
			t.Errorf("Parse(%q) message = %q", tt.src, got.Msg)
		}
	}
}

func TestCheck_ErrorsStayInsideScript(t *testing.T) {
	r := Check("a := 1\nb := (a +")
	if r.Valid {
		t.Fatal("Check() reported an unfinished expression as valid")
	}
	for _, e := range r.Errors {
		if strings.Contains(e, "line 3") || strings.Contains(e, "found '}'") {
			t.Errorf("error outside the script: %q", e)
		}
	}
}

func TestDetached(t *testing.T) {
	src := "done := make(chan bool)\ngo func() { done <- true }()\n<-done\ntime.AfterFunc(time.Second, func() {})"
	f, fset, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	got := Detached(f, fset, src)
	if len(got) != 2 {
		t.Fatalf("Detached() = %v, want 2 entries", got)
	}
	if got[0].Line != 2 || got[0].Column != 1 || !strings.Contains(got[0].Msg, "go statement") {
		t.Errorf("first = %+v", got[0])
	}
	if got[1].Line != 4 || !strings.Contains(got[1].Msg, "AfterFunc") {
		t.Errorf("second = %+v", got[1])
	}

	one := "go work()"
	f, fset, _ = Parse(one)
	if got := Detached(f, fset, one); len(got) != 1 || got[0].Column != 1 {
		t.Errorf("Detached(%q) = %v, want column 1", one, got)
	}

	clean := "x := 1\n_ = x"
	f, fset, _ = Parse(clean)
	if got := Detached(f, fset, clean); len(got) != 0 {
		t.Errorf("Detached(clean) = %v", got)
	}
}

func TestCheck_LintGoStatement(t *testing.T) {
	r := Check("go func() {}()")
	if !r.Valid {
		t.Fatalf("Errors = %v", r.Errors)
	}
	if len(r.Warnings) != 1 || !strings.Contains(r.Warnings[0], "go statement") {
		t.Errorf("Warnings = %v", r.Warnings)
	}
}
