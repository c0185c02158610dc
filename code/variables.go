package code

import (
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/jonwraymond/rigorexec/integrity"
)

// maxInlineElements is the largest array reported element by element.
const maxInlineElements = 100

// snapshot selects the caller-visible globals. Underscore names, excluded
// names and functions are dropped.
func snapshot(globals map[string]any, exclude map[string]bool) map[string]any {
	out := make(map[string]any, len(globals))
	for name, v := range globals {
		if strings.HasPrefix(name, "_") || exclude[name] {
			continue
		}
		if v != nil && reflect.TypeOf(v).Kind() == reflect.Func {
			continue
		}
		out[name] = jsonValue(v)
	}
	return out
}

// maxValueDepth bounds how far nested script values are walked.
const maxValueDepth = 64

// Placeholders for values that cannot be walked to the end.
const (
	cyclicValue = "<cycle>"
	deepValue   = "<too deep>"
)

// jsonValue converts v into something encoding/json accepts. Large arrays
// become a shape summary and opaque values become their type name. Maps and
// slices that contain themselves are reported as cyclicValue.
func jsonValue(v any) any {
	w := &valueWalker{active: make(map[uintptr]bool)}
	return w.value(v, 0)
}

// valueWalker tracks the maps and slices on the current path.
type valueWalker struct {
	active map[uintptr]bool
}

func (w *valueWalker) value(v any, depth int) any {
	if v == nil {
		return nil
	}
	if depth > maxValueDepth {
		return deepValue
	}
	rv := reflect.ValueOf(v)
	for hops := 0; rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface; hops++ {
		if rv.IsNil() {
			return nil
		}
		if hops > maxValueDepth {
			return cyclicValue
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Bool:
		return rv.Bool()
	case reflect.String:
		return rv.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint()
	case reflect.Float32, reflect.Float64:
		return finite(rv.Float())
	case reflect.Slice, reflect.Array:
		if !rv.CanInterface() {
			return rv.Type().String()
		}
		if rv.Kind() == reflect.Slice {
			leave, cyclic := w.enter(rv.Pointer())
			if cyclic {
				return cyclicValue
			}
			defer leave()
		}
		dims, dtype := integrity.Shape(rv.Interface())
		if elements(dims) > maxInlineElements {
			return fmt.Sprintf("<array shape=%s dtype=%s>", shapeString(dims), dtype)
		}
		list := make([]any, rv.Len())
		for i := range list {
			list[i] = w.value(valueOf(rv.Index(i)), depth+1)
		}
		return list
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return rv.Type().String()
		}
		leave, cyclic := w.enter(rv.Pointer())
		if cyclic {
			return cyclicValue
		}
		defer leave()
		m := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			m[iter.Key().String()] = w.value(valueOf(iter.Value()), depth+1)
		}
		return m
	default:
		return rv.Type().String()
	}
}

// enter marks p as being walked. cyclic is true when p is already on the
// path. A zero pointer (nil or empty backing store) never cycles.
func (w *valueWalker) enter(p uintptr) (leave func(), cyclic bool) {
	if p == 0 {
		return func() {}, false
	}
	if w.active[p] {
		return nil, true
	}
	w.active[p] = true
	return func() { delete(w.active, p) }, false
}

func valueOf(rv reflect.Value) any {
	if !rv.IsValid() || !rv.CanInterface() {
		return nil
	}
	return rv.Interface()
}

func finite(f float64) any {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "+Inf"
	case math.IsInf(f, -1):
		return "-Inf"
	}
	return f
}

func elements(dims []int) int {
	n := 1
	for _, d := range dims {
		n *= d
	}
	return n
}

func shapeString(dims []int) string {
	parts := make([]string, len(dims))
	for i, d := range dims {
		parts[i] = fmt.Sprint(d)
	}
	if len(parts) == 1 {
		return "(" + parts[0] + ",)"
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
