package widget

import "fmt"

// Delta values arrive as decoded JSON (float64, string, nil, []any), but
// in-process callers (tests, widget code) pass native Go values. The
// converters below accept both.

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func asAnySlice(v any) ([]any, bool) {
	switch s := v.(type) {
	case []any:
		return s, true
	case []float64:
		out := make([]any, len(s))
		for i, f := range s {
			out[i] = f
		}
		return out, true
	case []string:
		out := make([]any, len(s))
		for i, str := range s {
			out[i] = str
		}
		return out, true
	}
	return nil, false
}

func asMargin(v any) (Margin, error) {
	if m, ok := v.(Margin); ok {
		return m, nil
	}
	s, ok := asAnySlice(v)
	if !ok || len(s) != 4 {
		return Margin{}, fmt.Errorf("want [left, top, right, bottom], got %T", v)
	}
	var m Margin
	for i, e := range s {
		f, ok := asFloat(e)
		if !ok {
			return Margin{}, fmt.Errorf("margin[%d]: not a number: %v", i, e)
		}
		m[i] = f
	}
	return m, nil
}

func asAlignment(v any) (Alignment, error) {
	if a, ok := v.(Alignment); ok {
		return a, nil
	}
	s, ok := asAnySlice(v)
	if !ok || len(s) != 2 {
		return Alignment{}, fmt.Errorf("want [x, y], got %T", v)
	}
	var a Alignment
	for i, e := range s {
		if e == nil {
			continue
		}
		if p, ok := e.(*float64); ok {
			a[i] = p
			continue
		}
		f, ok := asFloat(e)
		if !ok {
			return Alignment{}, fmt.Errorf("align[%d]: not null or a number: %v", i, e)
		}
		if f < 0 || f > 1 {
			return Alignment{}, fmt.Errorf("align[%d]: fraction %g outside [0,1]", i, f)
		}
		a[i] = &f
	}
	return a, nil
}

func asScroll(v any) (Scroll, error) {
	if s, ok := v.(Scroll); ok {
		return s, nil
	}
	raw, ok := asAnySlice(v)
	if !ok || len(raw) != 2 {
		return Scroll{}, fmt.Errorf("want [x, y], got %T", v)
	}
	var s Scroll
	for i, e := range raw {
		str, ok := e.(string)
		if !ok {
			return Scroll{}, fmt.Errorf("scroll[%d]: not a string: %v", i, e)
		}
		switch ScrollMode(str) {
		case ScrollNever, ScrollAuto, ScrollAlways:
			s[i] = ScrollMode(str)
		default:
			return Scroll{}, fmt.Errorf("scroll[%d]: unknown mode %q", i, str)
		}
	}
	return s, nil
}

func asFloatPair(v any) ([2]float64, error) {
	if p, ok := v.([2]float64); ok {
		return p, nil
	}
	s, ok := asAnySlice(v)
	if !ok || len(s) != 2 {
		return [2]float64{}, fmt.Errorf("want [w, h], got %T", v)
	}
	var p [2]float64
	for i, e := range s {
		f, ok := asFloat(e)
		if !ok {
			return [2]float64{}, fmt.Errorf("pair[%d]: not a number: %v", i, e)
		}
		p[i] = f
	}
	return p, nil
}

// ChildIDs converts a delta value into a desired child identity sequence.
// A nil value (JSON null) means "remove all children"; a key absent from the
// delta means "no change" and never reaches this function.
func ChildIDs(v any) ([]string, error) {
	if v == nil {
		return nil, nil
	}
	if ids, ok := v.([]string); ok {
		return ids, nil
	}
	s, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("want a list of identities, got %T", v)
	}
	ids := make([]string, len(s))
	for i, e := range s {
		id, ok := e.(string)
		if !ok {
			return nil, fmt.Errorf("child[%d]: not an identity: %v", i, e)
		}
		ids[i] = id
	}
	return ids, nil
}

// AsString converts a delta value to a string ("" when absent or not a
// string).
func AsString(v any) string {
	s, _ := v.(string)
	return s
}
