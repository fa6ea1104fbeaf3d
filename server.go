package contract

import (
	"context"
	"net/http"
	"time"
)

// SpanStarter is a tracing hook for creating one span per request.
// Implement it with your preferred tracing backend.
type SpanStarter interface {
	StartSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, func())
}

// Server binds a sealed dispatcher to an HTTP listener, with a middleware
// chain and mount points for the generated spec, docs UI, and metrics.
// Handler execution is not bounded by default; wrap with Timeout to cap it.
type Server struct {
	dispatcher *Dispatcher
	mux        *http.ServeMux
	middleware []Middleware
	tracer     SpanStarter
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithTracer sets a tracing hook invoked once per request.
func WithTracer(s SpanStarter) ServerOption {
	return func(srv *Server) { srv.tracer = s }
}

// NewServer wraps a dispatcher. Every path not claimed by Handle falls
// through to the dispatcher's route matching.
func NewServer(d *Dispatcher, opts ...ServerOption) *Server {
	s := &Server{
		dispatcher: d,
		mux:        http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.mux.Handle("/", d)
	return s
}

// Use appends middleware, applied in the order added.
func (s *Server) Use(mw ...Middleware) {
	s.middleware = append(s.middleware, mw...)
}

// Handle mounts an extra handler (docs, metrics, health) beside the API.
func (s *Server) Handle(pattern string, h http.Handler) {
	s.mux.Handle(pattern, h)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	handler := http.Handler(s.mux)
	for i := len(s.middleware) - 1; i >= 0; i-- {
		handler = s.middleware[i](handler)
	}

	if s.tracer != nil {
		ctx, end := s.tracer.StartSpan(r.Context(), "http.request", map[string]string{
			"method": r.Method,
			"path":   r.URL.Path,
		})
		defer end()
		r = r.WithContext(ctx)
	}

	handler.ServeHTTP(w, r)
}

// Serve starts an HTTP server on addr. It blocks until the context is
// cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
