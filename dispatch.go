package contract

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/contracthttp/contract/schema"
)

// Dispatcher is the sealed, request-ready dispatch table. It is immutable
// after Build and safe for unlimited concurrent use; each request runs on
// its own goroutine with the request context, so a client disconnect
// cancels the handler.
type Dispatcher struct {
	api    *API
	table  map[endpointKey]HandlerFunc
	logger *slog.Logger
}

// API returns the descriptor the dispatcher was built from.
func (d *Dispatcher) API() *API { return d.api }

// ServeHTTP implements http.Handler: match, decode, invoke, encode. Every
// per-request failure is converted to a response at this boundary; nothing
// a handler does can crash the serving process.
func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ep, group, params := d.match(r.Method, r.URL.Path)
	if ep == nil {
		writeProblem(w, &Problem{
			Status: http.StatusNotFound,
			Detail: (&NoRouteError{Method: r.Method, Path: r.URL.Path}).Error(),
		})
		return
	}

	recordRoute(r, group, ep.id)

	defer func() {
		if rec := recover(); rec != nil {
			d.logger.Error("panic in handler",
				"group", group,
				"endpoint", ep.id,
				"panic", rec,
				"stack", string(debug.Stack()),
			)
			writeProblem(w, &Problem{Status: http.StatusInternalServerError})
		}
	}()

	in, err := d.decodeInput(r, ep, params)
	if err != nil {
		d.writeValidationFailure(w, err)
		return
	}

	result, err := d.table[endpointKey{group: group, id: ep.id}](r.Context(), in)
	if err != nil {
		d.writeHandlerError(w, group, ep, err)
		return
	}

	spec := ep.primarySuccess()
	if reply, ok := result.(*Reply); ok {
		selected, declared := ep.successFor(reply.Status)
		if !declared {
			d.fault(w, group, ep.id, fmt.Errorf("reply status %d is not declared on %q", reply.Status, ep.id))
			return
		}
		spec = selected
		result = reply.Value
	}

	if err := writeBody(w, spec, result); err != nil {
		// Encoding failures are implementation bugs, not client errors.
		d.fault(w, group, ep.id, err)
	}
}

// match finds the first endpoint whose method and path template accept the
// request, walking groups and endpoints in declaration order.
func (d *Dispatcher) match(method, path string) (*Endpoint, string, map[string]string) {
	for _, g := range d.api.groups {
		for _, ep := range g.endpoints {
			if ep.method != method {
				continue
			}
			if binds, ok := ep.path.match(path); ok {
				return ep, g.name, binds
			}
		}
	}
	return nil, "", nil
}

// decodeInput runs the endpoint's schemas over the matched request. binds
// are the raw path parameter strings from match.
func (d *Dispatcher) decodeInput(r *http.Request, ep *Endpoint, binds map[string]string) (*Input, error) {
	in := &Input{Raw: r}

	if ep.pathSchema != nil {
		raw := make(map[string]any, len(binds))
		for name, v := range binds {
			raw[name] = v
		}
		decoded, err := ep.pathSchema.Decode(raw)
		if err != nil {
			return nil, err
		}
		in.Path = decoded.(map[string]any)
	}

	if ep.querySchema != nil {
		decoded, err := ep.querySchema.Decode(valuesToRaw(r.URL.Query(), ep.querySchema))
		if err != nil {
			return nil, err
		}
		in.Query = decoded.(map[string]any)
	}

	if ep.headerSchema != nil {
		raw := make(map[string]any)
		for _, f := range ep.headerSchema.Fields() {
			if v := r.Header.Get(f.Name()); v != "" {
				raw[f.Name()] = v
			}
		}
		decoded, err := ep.headerSchema.Decode(raw)
		if err != nil {
			return nil, err
		}
		in.Header = decoded.(map[string]any)
	}

	payload, err := decodePayload(r, ep)
	if err != nil {
		return nil, err
	}
	in.Payload = payload

	return in, nil
}

// writeValidationFailure maps a decode failure to a 400 problem response
// carrying the field-level detail.
func (d *Dispatcher) writeValidationFailure(w http.ResponseWriter, err error) {
	var verr *schema.ValidationError
	if errors.As(err, &verr) {
		writeProblem(w, &Problem{
			Status: http.StatusBadRequest,
			Title:  "Validation Failed",
			Detail: verr.Error(),
			Field:  verr.Field,
		})
		return
	}
	writeProblem(w, &Problem{Status: http.StatusBadRequest, Detail: err.Error()})
}

// writeHandlerError maps a handler error to a response: declared errors
// encode against their declared schema and status, anything else is an
// unhandled fault.
func (d *Dispatcher) writeHandlerError(w http.ResponseWriter, group string, ep *Endpoint, err error) {
	var herr *HandlerError
	if errors.As(err, &herr) {
		spec, declared := ep.errorFor(herr.Status)
		if !declared {
			d.fault(w, group, ep.id, err)
			return
		}
		if writeErr := writeBody(w, successSpec{status: spec.status, schema: spec.schema}, herr.Value); writeErr != nil {
			d.fault(w, group, ep.id, writeErr)
		}
		return
	}
	d.fault(w, group, ep.id, err)
}

// fault logs an undeclared failure and responds 500 without leaking
// internal detail.
func (d *Dispatcher) fault(w http.ResponseWriter, group, id string, err error) {
	d.logger.Error("unhandled fault",
		"group", group,
		"endpoint", id,
		"err", err,
	)
	writeProblem(w, &Problem{Status: http.StatusInternalServerError})
}
