package schema

import (
	"fmt"
	"math"
	"strconv"
)

// Encode validates a typed value against the schema and returns its wire
// form. For valid values, Decode(Encode(v)) == v (the round-trip law).
func (s *Schema) Encode(v any) (any, error) {
	return s.encode(v, "")
}

func (s *Schema) encode(v any, path string) (any, error) {
	switch s.kind {
	case KindString, KindText:
		str, ok := v.(string)
		if !ok {
			return nil, encodeErr(path, s, v)
		}
		return str, nil

	case KindInt:
		switch n := v.(type) {
		case int:
			return int64(n), nil
		case int64:
			return n, nil
		case float64:
			if n != math.Trunc(n) || n < math.MinInt64 || n >= math.MaxInt64 {
				return nil, encodeErr(path, s, v)
			}
			return int64(n), nil
		default:
			return nil, encodeErr(path, s, v)
		}

	case KindFloat:
		switch n := v.(type) {
		case float64:
			return n, nil
		case int:
			return float64(n), nil
		case int64:
			return float64(n), nil
		default:
			return nil, encodeErr(path, s, v)
		}

	case KindBool:
		b, ok := v.(bool)
		if !ok {
			return nil, encodeErr(path, s, v)
		}
		return b, nil

	case KindStruct:
		obj, ok := v.(map[string]any)
		if !ok {
			return nil, encodeErr(path, s, v)
		}
		out := make(map[string]any, len(s.fields))
		for _, f := range s.fields {
			fieldPath := joinPath(path, f.name)
			fv, present := obj[f.name]
			if !present || fv == nil {
				if !f.IsOptional() {
					return nil, &EncodingError{Field: fieldPath, Reason: "required field is missing"}
				}
				continue
			}
			ev, err := f.schema.encode(fv, fieldPath)
			if err != nil {
				return nil, err
			}
			out[f.name] = ev
		}
		return out, nil

	case KindArray:
		items, ok := v.([]any)
		if !ok {
			return nil, encodeErr(path, s, v)
		}
		out := make([]any, len(items))
		for i, item := range items {
			ev, err := s.elem.encode(item, joinPath(path, strconv.Itoa(i)))
			if err != nil {
				return nil, err
			}
			out[i] = ev
		}
		return out, nil

	case KindOptional:
		if v == nil {
			return nil, nil
		}
		return s.elem.encode(v, path)

	case KindUnion:
		for _, m := range s.members {
			if ev, err := m.encode(v, path); err == nil {
				return ev, nil
			}
		}
		return nil, encodeErr(path, s, v)

	case KindFile:
		f, ok := v.(*FileValue)
		if !ok {
			return nil, encodeErr(path, s, v)
		}
		return f, nil

	default:
		return nil, encodeErr(path, s, v)
	}
}

// FormatScalar renders an encoded scalar as its string wire form, used for
// path, query, header, and url-encoded form values.
func FormatScalar(v any) (string, error) {
	switch n := v.(type) {
	case string:
		return n, nil
	case int64:
		return strconv.FormatInt(n, 10), nil
	case int:
		return strconv.Itoa(n), nil
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(n), nil
	default:
		return "", fmt.Errorf("not a scalar value: %T", v)
	}
}

func encodeErr(path string, s *Schema, v any) *EncodingError {
	return &EncodingError{Field: path, Reason: fmt.Sprintf("expected %s, got %T", s.expected(), v)}
}
