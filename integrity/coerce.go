package integrity

import (
	"reflect"
)

// MaxDepth bounds the nesting walked by ToFloat64s and Shape. Deeper or
// self-referencing values are rejected or truncated.
const MaxDepth = 32

// ToFloat64s flattens array-like numeric values into a float64 slice.
//
// Slices and arrays of any numeric kind are accepted, including nested ones
// and []any holding numbers (the shape produced by encoding/json). Scalars,
// strings, maps and mixed slices report ok=false.
func ToFloat64s(v any) (out []float64, ok bool) {
	if v == nil {
		return nil, false
	}
	if fs, isF := v.([]float64); isF {
		return fs, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8 {
		return nil, false
	}
	out = make([]float64, 0, rv.Len())
	if !flatten(rv, &out, 0) {
		return nil, false
	}
	return out, true
}

func flatten(rv reflect.Value, out *[]float64, depth int) bool {
	if depth > MaxDepth {
		return false
	}
	for rv.Kind() == reflect.Interface || rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return false
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		*out = append(*out, rv.Float())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		*out = append(*out, float64(rv.Int()))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		*out = append(*out, float64(rv.Uint()))
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			if !flatten(rv.Index(i), out, depth+1) {
				return false
			}
		}
	default:
		return false
	}
	return true
}

// Shape returns the dimensions of a (possibly nested) slice or array and the
// name of its innermost element type. Ragged inputs report the first row.
// At most MaxDepth dimensions are reported.
func Shape(v any) ([]int, string) {
	rv := reflect.ValueOf(v)
	var dims []int
	for rv.IsValid() && (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array) && len(dims) < MaxDepth {
		dims = append(dims, rv.Len())
		if rv.Len() == 0 {
			return dims, rv.Type().Elem().String()
		}
		rv = rv.Index(0)
		for rv.Kind() == reflect.Interface && !rv.IsNil() {
			rv = rv.Elem()
		}
	}
	if !rv.IsValid() {
		return dims, "invalid"
	}
	return dims, rv.Type().String()
}
