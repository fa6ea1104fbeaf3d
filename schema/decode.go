package schema

import (
	"math"
	"strconv"

	"github.com/go-playground/validator/v10"
)

// rules evaluates Field.Rule expressions. validator.Validate is safe for
// concurrent use.
var rules = validator.New(validator.WithRequiredStructEnabled())

// Decode validates raw against the schema and returns its typed form.
// Typed values use the canonical Go representations: string, int64,
// float64, bool, map[string]any, []any, *FileValue, and nil for absent
// optionals. Decode is pure: it never mutates raw.
func (s *Schema) Decode(raw any) (any, error) {
	return s.decode(raw, "")
}

func (s *Schema) decode(raw any, path string) (any, error) {
	switch s.kind {
	case KindString, KindText:
		v, ok := raw.(string)
		if !ok {
			return nil, typeErr(path, s, raw)
		}
		return v, nil

	case KindInt:
		return s.decodeInt(raw, path)

	case KindFloat:
		return s.decodeFloat(raw, path)

	case KindBool:
		if v, ok := raw.(bool); ok {
			return v, nil
		}
		if str, ok := raw.(string); ok && s.coerce {
			v, err := strconv.ParseBool(str)
			if err != nil {
				return nil, typeErr(path, s, raw)
			}
			return v, nil
		}
		return nil, typeErr(path, s, raw)

	case KindStruct:
		return s.decodeStruct(raw, path)

	case KindArray:
		items, ok := raw.([]any)
		if !ok {
			return nil, typeErr(path, s, raw)
		}
		out := make([]any, len(items))
		for i, item := range items {
			v, err := s.elem.decode(item, joinPath(path, strconv.Itoa(i)))
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil

	case KindOptional:
		if raw == nil {
			return nil, nil
		}
		return s.elem.decode(raw, path)

	case KindUnion:
		// Ordered: the first member that decodes wins.
		for _, m := range s.members {
			if v, err := m.decode(raw, path); err == nil {
				return v, nil
			}
		}
		return nil, typeErr(path, s, raw)

	case KindFile:
		v, ok := raw.(*FileValue)
		if !ok {
			return nil, typeErr(path, s, raw)
		}
		return v, nil

	default:
		return nil, typeErr(path, s, raw)
	}
}

func (s *Schema) decodeInt(raw any, path string) (any, error) {
	switch v := raw.(type) {
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case float64:
		// JSON numbers arrive as float64; accept only integral values that
		// fit in int64. float64(MaxInt64) rounds up to 2^63, so >= rejects it.
		if v != math.Trunc(v) || v < math.MinInt64 || v >= math.MaxInt64 {
			return nil, typeErr(path, s, raw)
		}
		return int64(v), nil
	case string:
		if !s.coerce {
			return nil, typeErr(path, s, raw)
		}
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, typeErr(path, s, raw)
		}
		return n, nil
	default:
		return nil, typeErr(path, s, raw)
	}
}

func (s *Schema) decodeFloat(raw any, path string) (any, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		if !s.coerce {
			return nil, typeErr(path, s, raw)
		}
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, typeErr(path, s, raw)
		}
		return n, nil
	default:
		return nil, typeErr(path, s, raw)
	}
}

func (s *Schema) decodeStruct(raw any, path string) (any, error) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, typeErr(path, s, raw)
	}

	out := make(map[string]any, len(s.fields))
	for _, f := range s.fields {
		fieldPath := joinPath(path, f.name)
		rv, present := obj[f.name]

		if !present || rv == nil {
			if !f.IsOptional() {
				return nil, missingErr(fieldPath, f.schema)
			}
			out[f.name] = nil
			continue
		}

		v, err := f.schema.decode(rv, fieldPath)
		if err != nil {
			return nil, err
		}

		if f.rule != "" {
			if err := rules.Var(v, f.rule); err != nil {
				return nil, &ValidationError{
					Field:    fieldPath,
					Expected: "value satisfying " + strconv.Quote(f.rule),
					Value:    v,
				}
			}
		}

		out[f.name] = v
	}

	// Unknown raw fields are ignored for forward compatibility.
	return out, nil
}
