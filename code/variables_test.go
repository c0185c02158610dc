package code

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestJSONValue(t *testing.T) {
	big2d := make([][]float64, 20)
	for i := range big2d {
		big2d[i] = make([]float64, 10)
	}
	type point struct{ X, Y int }
	x := 3

	tests := []struct {
		name string
		in   any
		want any
	}{
		{"nil", nil, nil},
		{"int", 7, int64(7)},
		{"uint", uint8(7), uint64(7)},
		{"float", 2.5, 2.5},
		{"nan", math.NaN(), "NaN"},
		{"inf", math.Inf(-1), "-Inf"},
		{"string", "s", "s"},
		{"bool", true, true},
		{"pointer", &x, int64(3)},
		{"small slice", []int{1, 2}, []any{int64(1), int64(2)}},
		{"large 2d", big2d, "<array shape=(20, 10) dtype=float64>"},
		{"map", map[string]float64{"a": 1}, map[string]any{"a": 1.0}},
		{"int keyed map", map[int]int{1: 1}, "map[int]int"},
		{"struct", point{1, 2}, "code.point"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, jsonValue(tt.in)); diff != "" {
				t.Errorf("jsonValue mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSnapshot(t *testing.T) {
	got := snapshot(map[string]any{
		"keep":   1,
		"_skip":  2,
		"hidden": 3,
		"fn":     func() {},
	}, map[string]bool{"hidden": true})
	want := map[string]any{"keep": int64(1)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestJSONValueSelfReference(t *testing.T) {
	m := map[string]any{"n": 1}
	m["self"] = m

	s := []any{1, nil}
	s[1] = s

	shared := []any{1}
	siblings := map[string]any{"a": shared, "b": shared}

	want := map[string]any{
		"map":      map[string]any{"n": int64(1), "self": cyclicValue},
		"slice":    []any{int64(1), cyclicValue},
		"siblings": map[string]any{"a": []any{int64(1)}, "b": []any{int64(1)}},
	}
	got := jsonValue(map[string]any{"map": m, "slice": s, "siblings": siblings})
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("jsonValue mismatch (-want +got):\n%s", diff)
	}
}

func TestJSONValueDepthLimit(t *testing.T) {
	var v any = 1
	for i := 0; i < maxValueDepth+10; i++ {
		v = map[string]any{"next": v}
	}
	got := jsonValue(v)
	for i := 0; i <= maxValueDepth; i++ {
		m, ok := got.(map[string]any)
		if !ok {
			t.Fatalf("level %d is %T, want map", i, got)
		}
		got = m["next"]
	}
	if got != deepValue {
		t.Errorf("value past the depth limit = %v, want %q", got, deepValue)
	}
}
