package schema

import "fmt"

// ValidationError reports a raw value that failed to decode. Field is the
// dotted path of the offending field ("" for the top-level value) and
// Expected names the shape that was required.
type ValidationError struct {
	Field    string
	Expected string
	Value    any
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("expected %s, got %v", e.Expected, e.Value)
	}
	return fmt.Sprintf("field %q: expected %s, got %v", e.Field, e.Expected, e.Value)
}

// EncodingError reports a typed value that failed to encode back to wire
// form. This indicates a handler bug, not bad input.
type EncodingError struct {
	Field  string
	Reason string
}

func (e *EncodingError) Error() string {
	if e.Field == "" {
		return "encode: " + e.Reason
	}
	return fmt.Sprintf("encode field %q: %s", e.Field, e.Reason)
}

// missingErr builds the error for an absent required field.
func missingErr(path string, s *Schema) *ValidationError {
	return &ValidationError{Field: path, Expected: s.expected(), Value: "<missing>"}
}

func typeErr(path string, s *Schema, raw any) *ValidationError {
	return &ValidationError{Field: path, Expected: s.expected(), Value: raw}
}

func joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}
