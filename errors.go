package contract

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// DuplicateIDError reports two endpoints declared with the same id in one
// group. It surfaces at construction time, never at request time.
type DuplicateIDError struct {
	Group string
	ID    string
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("group %q: duplicate endpoint id %q", e.Group, e.ID)
}

// DuplicateHandlerError reports a second handler registered for the same
// endpoint.
type DuplicateHandlerError struct {
	Group string
	ID    string
}

func (e *DuplicateHandlerError) Error() string {
	return fmt.Sprintf("handler already registered for %s/%s", e.Group, e.ID)
}

// EndpointRef names one endpoint within an API.
type EndpointRef struct {
	Group    string
	Endpoint string
}

func (r EndpointRef) String() string { return r.Group + "/" + r.Endpoint }

// IncompleteAPIError reports declared endpoints with no registered handler.
// Build fails with the full list so nothing is discovered at request time.
type IncompleteAPIError struct {
	Missing []EndpointRef
}

func (e *IncompleteAPIError) Error() string {
	refs := make([]string, len(e.Missing))
	for i, m := range e.Missing {
		refs[i] = m.String()
	}
	sort.Strings(refs)
	return "missing handlers for: " + strings.Join(refs, ", ")
}

// NoRouteError reports a request that matched no declared endpoint.
type NoRouteError struct {
	Method string
	Path   string
}

func (e *NoRouteError) Error() string {
	return fmt.Sprintf("no route for %s %s", e.Method, e.Path)
}

// HandlerError is a declared application error returned by a handler. The
// dispatcher encodes Value against the error schema declared for Status;
// a status with no declared schema is treated as an unhandled fault.
type HandlerError struct {
	Status int
	Value  any
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("handler error: status %d", e.Status)
}

// Fail returns a HandlerError for a declared error status.
func Fail(status int, value any) *HandlerError {
	return &HandlerError{Status: status, Value: value}
}

// NetworkError is a client-side transport failure, distinct from schema
// validation failures.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("request to %s failed: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// UnexpectedStatusError is returned by the client when a response status
// matches no declared success or error response.
type UnexpectedStatusError struct {
	Status int
	Body   []byte
}

func (e *UnexpectedStatusError) Error() string {
	return fmt.Sprintf("undeclared response status %d", e.Status)
}

// Problem is an RFC 9457 problem details response body, used for every
// dispatcher-generated error.
type Problem struct {
	Type   string `json:"type,omitempty"`
	Title  string `json:"title,omitempty"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
	Field  string `json:"field,omitempty"`
}

func (p *Problem) Error() string {
	if p.Detail != "" {
		return p.Detail
	}
	return p.Title
}

// writeProblem writes a problem details response. Used for routing,
// validation, and fault outcomes; declared handler errors take the
// endpoint's own error schema instead.
func writeProblem(w http.ResponseWriter, p *Problem) {
	if p.Type == "" {
		p.Type = "about:blank"
	}
	if p.Title == "" {
		p.Title = http.StatusText(p.Status)
	}
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	//nolint:errcheck,errchkjson,gosec // best-effort after WriteHeader
	json.NewEncoder(w).Encode(p)
}
