package contract

import (
	"fmt"
	"net/http"

	"github.com/contracthttp/contract/schema"
)

// Encoding identifies how an endpoint's payload or response body travels on
// the wire.
type Encoding uint8

const (
	EncodingJSON Encoding = iota
	EncodingForm           // application/x-www-form-urlencoded
	EncodingMultipart      // multipart/form-data
	EncodingText           // raw text, content type from the schema
)

func (e Encoding) contentType(s *schema.Schema) string {
	switch e {
	case EncodingForm:
		return "application/x-www-form-urlencoded"
	case EncodingMultipart:
		return "multipart/form-data"
	case EncodingText:
		if s != nil && s.ContentType() != "" {
			return s.ContentType()
		}
		return "text/plain"
	default:
		return "application/json"
	}
}

// successSpec is one declared success response.
type successSpec struct {
	status   int
	schema   *schema.Schema
	encoding Encoding
}

// errorSpec is one declared error response.
type errorSpec struct {
	status int
	schema *schema.Schema
}

// Endpoint is an immutable declaration of one route: method, path template,
// and the schemas for its path, query, header, payload, and responses.
// Builder methods return a modified copy; a declaration mistake is recorded
// on the copy and surfaced when the endpoint is added to a group.
type Endpoint struct {
	id     string
	method string
	path   *pathTemplate
	desc   string

	pathSchema   *schema.Schema
	querySchema  *schema.Schema
	headerSchema *schema.Schema

	payload         *schema.Schema
	payloadEncoding Encoding
	hasPayload      bool

	successes []successSpec
	errors    []errorSpec

	err error
}

// NewEndpoint declares an endpoint with the given id (unique within its
// group), HTTP method, and path template.
func NewEndpoint(id, method, template string) *Endpoint {
	ep := &Endpoint{id: id, method: method}
	if id == "" {
		ep.err = fmt.Errorf("endpoint: id must not be empty")
		return ep
	}
	tmpl, err := parsePathTemplate(template)
	if err != nil {
		ep.err = fmt.Errorf("endpoint %q: %w", id, err)
		return ep
	}
	ep.path = tmpl
	return ep
}

func (e *Endpoint) clone() *Endpoint {
	cp := *e
	cp.successes = append([]successSpec(nil), e.successes...)
	cp.errors = append([]errorSpec(nil), e.errors...)
	return &cp
}

// WithPath attaches the schema for path parameters. Each template parameter
// must have a corresponding field; the invariant is checked at group add.
func (e *Endpoint) WithPath(s *schema.Schema) *Endpoint {
	cp := e.clone()
	cp.pathSchema = s
	return cp
}

// WithQuery attaches the schema for query string parameters.
func (e *Endpoint) WithQuery(s *schema.Schema) *Endpoint {
	cp := e.clone()
	cp.querySchema = s
	return cp
}

// WithHeaders attaches the schema for request headers. Field names are
// header names.
func (e *Endpoint) WithHeaders(s *schema.Schema) *Endpoint {
	cp := e.clone()
	cp.headerSchema = s
	return cp
}

// WithPayload attaches the request body schema and its wire encoding. An
// endpoint declares at most one payload.
func (e *Endpoint) WithPayload(enc Encoding, s *schema.Schema) *Endpoint {
	cp := e.clone()
	if cp.hasPayload {
		cp.fail(fmt.Errorf("endpoint %q: payload already declared", e.id))
		return cp
	}
	cp.payload = s
	cp.payloadEncoding = enc
	cp.hasPayload = true
	return cp
}

// SuccessOption configures a declared success response.
type SuccessOption func(*successSpec)

// WithStatus overrides the response status code (default 200).
func WithStatus(code int) SuccessOption {
	return func(s *successSpec) { s.status = code }
}

// WithEncoding sets the response body encoding (default JSON; Text schemas
// default to their own content type).
func WithEncoding(enc Encoding) SuccessOption {
	return func(s *successSpec) { s.encoding = enc }
}

// AddSuccess declares a success response. The first declaration is the
// primary one; additional declarations must carry distinct status codes.
func (e *Endpoint) AddSuccess(s *schema.Schema, opts ...SuccessOption) *Endpoint {
	cp := e.clone()
	spec := successSpec{status: http.StatusOK, schema: s}
	if s != nil && s.Kind() == schema.KindText {
		spec.encoding = EncodingText
	}
	for _, opt := range opts {
		opt(&spec)
	}
	for _, existing := range cp.successes {
		if existing.status == spec.status {
			cp.fail(fmt.Errorf("endpoint %q: success status %d already declared", e.id, spec.status))
			return cp
		}
	}
	cp.successes = append(cp.successes, spec)
	return cp
}

// AddError declares an application error response for the given status.
func (e *Endpoint) AddError(status int, s *schema.Schema) *Endpoint {
	cp := e.clone()
	for _, existing := range cp.errors {
		if existing.status == status {
			cp.fail(fmt.Errorf("endpoint %q: error status %d already declared", e.id, status))
			return cp
		}
	}
	cp.errors = append(cp.errors, errorSpec{status: status, schema: s})
	return cp
}

// Describe attaches a description, carried into generated documentation.
func (e *Endpoint) Describe(desc string) *Endpoint {
	cp := e.clone()
	cp.desc = desc
	return cp
}

// ID returns the endpoint id.
func (e *Endpoint) ID() string { return e.id }

// Method returns the HTTP method.
func (e *Endpoint) Method() string { return e.method }

// Path returns the raw path template.
func (e *Endpoint) Path() string {
	if e.path == nil {
		return ""
	}
	return e.path.raw
}

// fail records the first declaration error.
func (e *Endpoint) fail(err error) {
	if e.err == nil {
		e.err = err
	}
}

// primarySuccess returns the first declared success, defaulting to an
// untyped 200 when nothing was declared.
func (e *Endpoint) primarySuccess() successSpec {
	if len(e.successes) == 0 {
		return successSpec{status: http.StatusOK}
	}
	return e.successes[0]
}

// successFor returns the declared success response with the given status.
func (e *Endpoint) successFor(status int) (successSpec, bool) {
	for _, s := range e.successes {
		if s.status == status {
			return s, true
		}
	}
	return successSpec{}, false
}

// errorFor returns the declared error response with the given status.
func (e *Endpoint) errorFor(status int) (errorSpec, bool) {
	for _, s := range e.errors {
		if s.status == status {
			return s, true
		}
	}
	return errorSpec{}, false
}

// validate checks declaration invariants that span multiple builders.
func (e *Endpoint) validate() error {
	if e.err != nil {
		return e.err
	}
	for _, name := range e.path.params() {
		if e.pathSchema == nil {
			return fmt.Errorf("endpoint %q: path parameter %q has no field in the path schema", e.id, name)
		}
		if _, ok := e.pathSchema.FieldNamed(name); !ok {
			return fmt.Errorf("endpoint %q: path parameter %q has no field in the path schema", e.id, name)
		}
	}
	return nil
}
