package contract

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/contracthttp/contract/schema"
)

// OpenAPISpec is the top-level OpenAPI 3.1 document, generated entirely
// from an API descriptor.
type OpenAPISpec struct {
	OpenAPI string              `json:"openapi" yaml:"openapi"`
	Info    OpenAPIInfo         `json:"info" yaml:"info"`
	Tags    []OpenAPITag        `json:"tags,omitempty" yaml:"tags,omitempty"`
	Paths   map[string]PathItem `json:"paths" yaml:"paths"`
}

// OpenAPIInfo holds API metadata.
type OpenAPIInfo struct {
	Title   string `json:"title" yaml:"title"`
	Version string `json:"version" yaml:"version"`
}

// OpenAPITag names a declared group.
type OpenAPITag struct {
	Name string `json:"name" yaml:"name"`
}

// PathItem maps lowercase HTTP methods to operations.
type PathItem map[string]Operation

// Operation describes one declared endpoint.
type Operation struct {
	OperationID string        `json:"operationId" yaml:"operationId"`
	Description string        `json:"description,omitempty" yaml:"description,omitempty"`
	Tags        []string      `json:"tags,omitempty" yaml:"tags,omitempty"`
	Parameters  []Parameter   `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	RequestBody *RequestBody  `json:"requestBody,omitempty" yaml:"requestBody,omitempty"`
	Responses   OperationResp `json:"responses" yaml:"responses"`
}

// Parameter describes a path, query, or header parameter.
type Parameter struct {
	Name        string     `json:"name" yaml:"name"`
	In          string     `json:"in" yaml:"in"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
	Required    bool       `json:"required,omitempty" yaml:"required,omitempty"`
	Schema      JSONSchema `json:"schema" yaml:"schema"`
}

// RequestBody describes the declared payload.
type RequestBody struct {
	Required bool                `json:"required" yaml:"required"`
	Content  map[string]MediaObj `json:"content" yaml:"content"`
}

// MediaObj is a media type object with an optional schema.
type MediaObj struct {
	Schema *JSONSchema `json:"schema,omitempty" yaml:"schema,omitempty"`
}

// OperationResp maps status codes to response objects.
type OperationResp map[string]ResponseObj

// ResponseObj describes a single declared response.
type ResponseObj struct {
	Description string              `json:"description" yaml:"description"`
	Content     map[string]MediaObj `json:"content,omitempty" yaml:"content,omitempty"`
}

// JSONSchema is the JSON Schema subset the generator emits.
type JSONSchema struct {
	Type        string                `json:"type,omitempty" yaml:"type,omitempty"`
	Format      string                `json:"format,omitempty" yaml:"format,omitempty"`
	Description string                `json:"description,omitempty" yaml:"description,omitempty"`
	Properties  map[string]JSONSchema `json:"properties,omitempty" yaml:"properties,omitempty"`
	Required    []string              `json:"required,omitempty" yaml:"required,omitempty"`
	Items       *JSONSchema           `json:"items,omitempty" yaml:"items,omitempty"`
	AnyOf       []JSONSchema          `json:"anyOf,omitempty" yaml:"anyOf,omitempty"`
}

// Spec generates the OpenAPI document for the API. The descriptor is the
// single source of truth: the generator only reads it.
func Spec(api *API, version string) OpenAPISpec {
	spec := OpenAPISpec{
		OpenAPI: "3.1.0",
		Info:    OpenAPIInfo{Title: api.Name(), Version: version},
		Paths:   make(map[string]PathItem),
	}

	for _, g := range api.groups {
		spec.Tags = append(spec.Tags, OpenAPITag{Name: g.name})
		for _, ep := range g.endpoints {
			path := toOpenAPIPath(ep.path)
			if spec.Paths[path] == nil {
				spec.Paths[path] = make(PathItem)
			}
			spec.Paths[path][strings.ToLower(ep.method)] = buildOperation(g.name, ep)
		}
	}

	return spec
}

func buildOperation(group string, ep *Endpoint) Operation {
	op := Operation{
		OperationID: group + "." + ep.id,
		Description: ep.desc,
		Tags:        []string{group},
		Responses:   make(OperationResp),
	}

	op.Parameters = append(op.Parameters, schemaParams(ep.pathSchema, "path")...)
	op.Parameters = append(op.Parameters, schemaParams(ep.querySchema, "query")...)
	op.Parameters = append(op.Parameters, schemaParams(ep.headerSchema, "header")...)

	if ep.hasPayload {
		js := toJSONSchema(ep.payload)
		op.RequestBody = &RequestBody{
			Required: true,
			Content: map[string]MediaObj{
				ep.payloadEncoding.contentType(ep.payload): {Schema: &js},
			},
		}
	}

	for _, s := range ep.successes {
		op.Responses[strconv.Itoa(s.status)] = responseObj("Successful response", s.schema, s.encoding)
	}
	if len(ep.successes) == 0 {
		op.Responses["200"] = ResponseObj{Description: "Successful response"}
	}
	for _, e := range ep.errors {
		op.Responses[strconv.Itoa(e.status)] = responseObj("Error response", e.schema, EncodingJSON)
	}

	return op
}

func responseObj(desc string, s *schema.Schema, enc Encoding) ResponseObj {
	if s == nil {
		return ResponseObj{Description: desc}
	}
	js := toJSONSchema(s)
	return ResponseObj{
		Description: desc,
		Content:     map[string]MediaObj{enc.contentType(s): {Schema: &js}},
	}
}

func schemaParams(s *schema.Schema, in string) []Parameter {
	if s == nil || s.Kind() != schema.KindStruct {
		return nil
	}
	var params []Parameter
	for _, f := range s.Fields() {
		params = append(params, Parameter{
			Name:        f.Name(),
			In:          in,
			Description: f.Description(),
			Required:    in == "path" || !f.IsOptional(),
			Schema:      toJSONSchema(f.Schema()),
		})
	}
	return params
}

// toJSONSchema maps a schema tree to its JSON Schema rendering.
func toJSONSchema(s *schema.Schema) JSONSchema {
	js := JSONSchema{Description: s.Description()}

	switch s.Kind() {
	case schema.KindString:
		js.Type = "string"
	case schema.KindInt:
		js.Type = "integer"
	case schema.KindFloat:
		js.Type = "number"
	case schema.KindBool:
		js.Type = "boolean"
	case schema.KindText:
		js.Type = "string"
	case schema.KindFile:
		js.Type = "string"
		js.Format = "binary"
	case schema.KindArray:
		js.Type = "array"
		items := toJSONSchema(s.Elem())
		js.Items = &items
	case schema.KindOptional:
		inner := toJSONSchema(s.Elem())
		inner.Description = js.Description
		return inner
	case schema.KindUnion:
		for _, m := range s.Members() {
			js.AnyOf = append(js.AnyOf, toJSONSchema(m))
		}
	case schema.KindStruct:
		js.Type = "object"
		js.Properties = make(map[string]JSONSchema)
		for _, f := range s.Fields() {
			prop := toJSONSchema(f.Schema())
			if d := f.Description(); d != "" {
				prop.Description = d
			}
			js.Properties[f.Name()] = prop
			if !f.IsOptional() {
				js.Required = append(js.Required, f.Name())
			}
		}
	}

	return js
}

// toOpenAPIPath renders a path template in OpenAPI {name} style. The
// catch-all suffix is rendered as a {name} parameter (OpenAPI has no
// native catch-all).
func toOpenAPIPath(t *pathTemplate) string {
	var b strings.Builder
	for _, seg := range t.segments {
		b.WriteByte('/')
		if seg.param != "" {
			b.WriteString("{" + seg.param + "}")
		} else {
			b.WriteString(seg.literal)
		}
	}
	if t.hasCatchAll {
		name := t.catchAll
		if name == "" {
			name = "path"
		}
		b.WriteString("/{" + name + "}")
	}
	if b.Len() == 0 {
		return "/"
	}
	return b.String()
}

// ServeSpec mounts the OpenAPI document as JSON at pattern.
func (s *Server) ServeSpec(pattern, version string) {
	spec := Spec(s.dispatcher.api, version)
	s.mux.HandleFunc("GET "+pattern, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		//nolint:errcheck,errchkjson,gosec // best-effort after WriteHeader
		json.NewEncoder(w).Encode(spec)
	})
}

// ServeSpecYAML mounts the OpenAPI document as YAML at pattern.
func (s *Server) ServeSpecYAML(pattern, version string) {
	spec := Spec(s.dispatcher.api, version)
	s.mux.HandleFunc("GET "+pattern, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		//nolint:errcheck,gosec // best-effort after WriteHeader
		yaml.NewEncoder(w).Encode(spec)
	})
}

// WriteSpec writes the OpenAPI document as indented JSON.
func WriteSpec(w io.Writer, api *API, version string) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(Spec(api, version))
}
