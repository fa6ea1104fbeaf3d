// Package schema provides immutable, composable value schemas with
// bidirectional conversion: Decode turns raw wire values into typed Go
// values, Encode turns typed values back into wire form. Schemas describe
// primitives, structs, arrays, optionals, ordered unions, raw text, and
// uploaded files, and are safe for concurrent use once built.
package schema

import "strings"

// Kind identifies the shape a Schema accepts.
type Kind uint8

const (
	KindString Kind = iota
	KindInt
	KindFloat
	KindBool
	KindStruct
	KindArray
	KindOptional
	KindUnion
	KindFile
	KindText
)

// String returns the kind name, used in error messages and specs.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "integer"
	case KindFloat:
		return "number"
	case KindBool:
		return "boolean"
	case KindStruct:
		return "object"
	case KindArray:
		return "array"
	case KindOptional:
		return "optional"
	case KindUnion:
		return "union"
	case KindFile:
		return "file"
	case KindText:
		return "text"
	default:
		return "unknown"
	}
}

// Schema is an immutable description of an acceptable value shape.
// All builder methods return a modified copy.
type Schema struct {
	kind        Kind
	desc        string
	contentType string
	coerce      bool
	fields      []Field
	elem        *Schema
	members     []*Schema
}

// Field is one named member of a struct schema.
type Field struct {
	name     string
	schema   *Schema
	optional bool
	rule     string
	desc     string
}

// String returns a schema accepting string values.
func String() *Schema { return &Schema{kind: KindString} }

// Int returns a schema accepting integer values.
func Int() *Schema { return &Schema{kind: KindInt} }

// Float returns a schema accepting floating-point values.
func Float() *Schema { return &Schema{kind: KindFloat} }

// Bool returns a schema accepting boolean values.
func Bool() *Schema { return &Schema{kind: KindBool} }

// Text returns a schema for a raw text body with a custom content type.
func Text(contentType string) *Schema {
	return &Schema{kind: KindText, contentType: contentType}
}

// File returns a schema accepting an uploaded file part.
func File() *Schema { return &Schema{kind: KindFile} }

// Struct returns a schema accepting an object with the given fields.
// Required fields must be present in the raw value; unknown raw fields are
// ignored for forward compatibility.
func Struct(fields ...Field) *Schema {
	return &Schema{kind: KindStruct, fields: append([]Field(nil), fields...)}
}

// Array returns a schema accepting a sequence of elem values.
func Array(elem *Schema) *Schema {
	return &Schema{kind: KindArray, elem: elem}
}

// Optional returns a schema that also accepts an absent (nil) value.
func Optional(inner *Schema) *Schema {
	if inner.kind == KindOptional {
		return inner
	}
	return &Schema{kind: KindOptional, elem: inner}
}

// Union returns a schema accepting any of the member shapes. Decoding is
// ordered: the first member that decodes successfully wins, so ambiguous
// inputs resolve to the earliest match.
func Union(members ...*Schema) *Schema {
	return &Schema{kind: KindUnion, members: append([]*Schema(nil), members...)}
}

// Coerce marks a scalar schema as string-coercible: when the raw value is a
// string (path, query, header, or form sources) it is parsed into the target
// type. Parse failure is a validation error naming the expected type.
func Coerce(inner *Schema) *Schema {
	cp := *inner
	cp.coerce = true
	return &cp
}

// Describe returns a copy with a human-readable description, carried into
// generated documentation.
func (s *Schema) Describe(desc string) *Schema {
	cp := *s
	cp.desc = desc
	return &cp
}

// Kind reports the schema's shape kind.
func (s *Schema) Kind() Kind { return s.kind }

// Description returns the schema description, if any.
func (s *Schema) Description() string { return s.desc }

// ContentType returns the content type of a Text schema ("" otherwise).
func (s *Schema) ContentType() string { return s.contentType }

// Elem returns the element schema of an array or optional schema.
func (s *Schema) Elem() *Schema { return s.elem }

// Members returns the member schemas of a union schema.
func (s *Schema) Members() []*Schema { return s.members }

// Fields returns the declared fields of a struct schema.
func (s *Schema) Fields() []Field { return s.fields }

// FieldNamed returns the struct field with the given name.
func (s *Schema) FieldNamed(name string) (Field, bool) {
	for _, f := range s.fields {
		if f.name == name {
			return f, true
		}
	}
	return Field{}, false
}

// F declares a required struct field.
func F(name string, s *Schema) Field {
	return Field{name: name, schema: s}
}

// Optional marks the field as optional: absent raw values decode to nil.
func (f Field) Optional() Field {
	f.optional = true
	return f
}

// Rule attaches a validation rule expression (go-playground/validator
// syntax, e.g. "min=1,max=100") checked against the decoded value.
func (f Field) Rule(rule string) Field {
	f.rule = rule
	return f
}

// Describe attaches a description to the field.
func (f Field) Describe(desc string) Field {
	f.desc = desc
	return f
}

// Name returns the field name.
func (f Field) Name() string { return f.name }

// Schema returns the field's value schema.
func (f Field) Schema() *Schema { return f.schema }

// IsOptional reports whether the field may be absent.
func (f Field) IsOptional() bool { return f.optional || f.schema.kind == KindOptional }

// Description returns the field description, falling back to the schema's.
func (f Field) Description() string {
	if f.desc != "" {
		return f.desc
	}
	return f.schema.desc
}

// expected renders the shape name used in validation errors.
func (s *Schema) expected() string {
	switch s.kind {
	case KindUnion:
		names := make([]string, len(s.members))
		for i, m := range s.members {
			names[i] = m.expected()
		}
		return "one of " + strings.Join(names, ", ")
	case KindArray:
		return "array of " + s.elem.expected()
	case KindOptional:
		return "optional " + s.elem.expected()
	default:
		return s.kind.String()
	}
}
