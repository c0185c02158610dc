package integrity

import (
	"fmt"
	"sort"
	"sync"
)

// Range is an inclusive [Lo, Hi] interval.
type Range struct {
	Lo float64 `json:"lo"`
	Hi float64 `json:"hi"`
}

// Contains reports whether v lies within the range.
func (r Range) Contains(v float64) bool { return r.Lo <= v && v <= r.Hi }

// BoundsResult is returned by Bounds.Check.
type BoundsResult struct {
	Parameter string  `json:"parameter"`
	Value     float64 `json:"value"`
	// Known is false when no range is registered for Parameter; Valid is
	// then meaningless.
	Known   bool   `json:"known"`
	Valid   bool   `json:"valid"`
	Range   *Range `json:"bounds,omitempty"`
	Warning string `json:"warning,omitempty"`
	Note    string `json:"note,omitempty"`
}

// Bounds checks measured values against expected ranges per parameter.
// Safe for concurrent use.
type Bounds struct {
	mu     sync.RWMutex
	ranges map[string]Range
}

// NewBounds creates a checker seeded with ranges.
func NewBounds(ranges map[string]Range) *Bounds {
	b := &Bounds{ranges: make(map[string]Range, len(ranges))}
	for k, v := range ranges {
		b.ranges[k] = v
	}
	return b
}

// Add registers or replaces the range for a parameter.
func (b *Bounds) Add(parameter string, lo, hi float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ranges == nil {
		b.ranges = make(map[string]Range)
	}
	b.ranges[parameter] = Range{Lo: lo, Hi: hi}
}

// Update merges ranges into the checker.
func (b *Bounds) Update(ranges map[string]Range) {
	for k, v := range ranges {
		b.Add(k, v.Lo, v.Hi)
	}
}

// Ranges returns a copy of all registered ranges.
func (b *Bounds) Ranges() map[string]Range {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[string]Range, len(b.ranges))
	for k, v := range b.ranges {
		out[k] = v
	}
	return out
}

// Check tests value against the range registered for parameter.
func (b *Bounds) Check(value float64, parameter string) BoundsResult {
	b.mu.RLock()
	r, ok := b.ranges[parameter]
	b.mu.RUnlock()

	res := BoundsResult{Parameter: parameter, Value: value}
	if !ok {
		res.Note = fmt.Sprintf("No bounds defined for '%s'", parameter)
		return res
	}
	res.Known = true
	res.Range = &r
	res.Valid = r.Contains(value)
	if !res.Valid {
		res.Warning = fmt.Sprintf(
			"Value %g for '%s' is outside expected range [%g, %g]. This may indicate an instrument issue, "+
				"analysis error, or genuinely unusual measurement. Investigate before proceeding.",
			value, parameter, r.Lo, r.Hi)
	}
	return res
}

// CheckMany checks every measurement, ordered by parameter name.
func (b *Bounds) CheckMany(measurements map[string]float64) []BoundsResult {
	names := make([]string, 0, len(measurements))
	for k := range measurements {
		names = append(names, k)
	}
	sort.Strings(names)
	out := make([]BoundsResult, 0, len(names))
	for _, k := range names {
		out = append(out, b.Check(measurements[k], k))
	}
	return out
}
