package contract

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
)

// Input carries the decoded, typed inputs of one request. Maps are keyed by
// the declared field names; values use the schema package's canonical
// representations.
type Input struct {
	Path    map[string]any
	Query   map[string]any
	Header  map[string]any
	Payload any

	// Raw is the underlying request, set only on the server side. An
	// escape hatch; handlers normally need only the decoded fields.
	Raw *http.Request
}

// PathInt returns a path parameter decoded as an integer.
func (in *Input) PathInt(name string) int64 {
	v, _ := in.Path[name].(int64)
	return v
}

// PathString returns a path parameter decoded as a string.
func (in *Input) PathString(name string) string {
	v, _ := in.Path[name].(string)
	return v
}

// QueryString returns a query parameter and whether it was present.
func (in *Input) QueryString(name string) (string, bool) {
	v, ok := in.Query[name].(string)
	return v, ok
}

// QueryInt returns a query parameter decoded as an integer.
func (in *Input) QueryInt(name string) (int64, bool) {
	v, ok := in.Query[name].(int64)
	return v, ok
}

// PayloadMap returns the decoded payload as a field map (structured and
// form payloads).
func (in *Input) PayloadMap() map[string]any {
	v, _ := in.Payload.(map[string]any)
	return v
}

// HandlerFunc implements one endpoint. The returned value is encoded
// against the endpoint's primary success schema; wrap it in Reply to select
// a non-primary declared status. Declared application errors are returned
// with Fail; any other error is an unhandled fault.
type HandlerFunc func(ctx context.Context, in *Input) (any, error)

// Reply selects a declared success response by status code. Handlers for
// endpoints with a single success declaration return their value directly.
type Reply struct {
	Status int
	Value  any
}

type endpointKey struct {
	group string
	id    string
}

// Handlers accumulates the endpoint-to-handler mapping for an API. Each
// declared endpoint must receive exactly one handler before Build seals the
// table; every configuration mistake fails here, before serving starts.
type Handlers struct {
	api    *API
	table  map[endpointKey]HandlerFunc
	logger *slog.Logger
}

// HandlersOption configures the handler table.
type HandlersOption func(*Handlers)

// WithLogger sets the logger used for unhandled faults (default
// slog.Default).
func WithLogger(l *slog.Logger) HandlersOption {
	return func(h *Handlers) { h.logger = l }
}

// NewHandlers creates an empty handler table for the API.
func NewHandlers(api *API, opts ...HandlersOption) *Handlers {
	h := &Handlers{
		api:    api,
		table:  make(map[endpointKey]HandlerFunc),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register associates a handler with a declared endpoint. Registering an
// unknown endpoint, or the same endpoint twice, is an immediate error.
func (h *Handlers) Register(group, endpoint string, fn HandlerFunc) error {
	if h.api.err != nil {
		return h.api.err
	}
	if _, ok := h.api.endpoint(group, endpoint); !ok {
		return fmt.Errorf("no declared endpoint %s/%s", group, endpoint)
	}
	key := endpointKey{group: group, id: endpoint}
	if _, exists := h.table[key]; exists {
		return &DuplicateHandlerError{Group: group, ID: endpoint}
	}
	h.table[key] = fn
	return nil
}

// Build checks the table for completeness and returns the sealed
// dispatcher. A missing handler for any declared endpoint fails with an
// IncompleteAPIError listing every gap.
func (h *Handlers) Build() (*Dispatcher, error) {
	if err := h.api.Err(); err != nil {
		return nil, err
	}

	var missing []EndpointRef
	for _, g := range h.api.groups {
		for _, ep := range g.endpoints {
			if _, ok := h.table[endpointKey{group: g.name, id: ep.id}]; !ok {
				missing = append(missing, EndpointRef{Group: g.name, Endpoint: ep.id})
			}
		}
	}
	if len(missing) > 0 {
		return nil, &IncompleteAPIError{Missing: missing}
	}

	table := make(map[endpointKey]HandlerFunc, len(h.table))
	for k, v := range h.table {
		table[k] = v
	}
	return &Dispatcher{api: h.api, table: table, logger: h.logger}, nil
}
