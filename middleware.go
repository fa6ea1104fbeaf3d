package contract

import (
	"context"
	"log/slog"
	"net/http"
	"runtime/debug"
)

// Middleware is the standard signature, compatible with the wider Go
// middleware ecosystem.
type Middleware func(next http.Handler) http.Handler

// routeHolder lets middleware installed outside the dispatcher observe
// which declared endpoint a request matched. The holder is placed in the
// context before dispatch and filled in by the dispatcher.
type routeHolder struct {
	group    string
	endpoint string
}

type routeHolderKey struct{}

// recordRoute fills the holder, if one was installed upstream.
func recordRoute(r *http.Request, group, endpoint string) {
	if h, ok := r.Context().Value(routeHolderKey{}).(*routeHolder); ok {
		h.group = group
		h.endpoint = endpoint
	}
}

// withRouteHolder installs an empty holder on the request context. Stacked
// observation middleware shares a single holder.
func withRouteHolder(r *http.Request) (*http.Request, *routeHolder) {
	if h, ok := r.Context().Value(routeHolderKey{}).(*routeHolder); ok {
		return r, h
	}
	h := &routeHolder{}
	return r.WithContext(context.WithValue(r.Context(), routeHolderKey{}, h)), h
}

// Recovery returns middleware that converts panics into 500 problem
// responses. The dispatcher already recovers around handlers; this guards
// handlers mounted beside it and other middleware.
func Recovery(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("panic recovered",
						"panic", rec,
						"stack", string(debug.Stack()),
						"method", r.Method,
						"path", r.URL.Path,
					)
					writeProblem(w, &Problem{Status: http.StatusInternalServerError})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// MatchedRoute reports the declared endpoint a request resolved to. Valid
// after dispatch, inside middleware that installed observation (Logger,
// Metrics) or any handler context.
func MatchedRoute(ctx context.Context) (group, endpoint string, ok bool) {
	h, found := ctx.Value(routeHolderKey{}).(*routeHolder)
	if !found || h.endpoint == "" {
		return "", "", false
	}
	return h.group, h.endpoint, true
}
