package infra

import (
	"context"
	"net/http"
	"time"
)

// HTTPServer wraps http.Server with the timeouts from Config so every entry
// point serves the API the same way.
type HTTPServer struct {
	server *http.Server
}

// NewHTTPServer builds the server for the configured port. The header read
// timeout is fixed; the rest comes from configuration.
func NewHTTPServer(cfg *Config, handler http.Handler) *HTTPServer {
	return &HTTPServer{server: &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadTimeout:       cfg.HTTPReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
	}}
}

// Start serves until Shutdown is called or the listener fails. It blocks, so
// callers run it on its own goroutine.
func (s *HTTPServer) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown drains in-flight requests within the context deadline.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
