package server

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// Server wraps an *http.Server to provide start/shutdown lifecycle.
type Server struct {
	httpServer *http.Server
}

// Centralized tuning knobs for the HTTP listener.
const (
	maxHeaderBytes    = 1 << 20 // 1 MB
	readHeaderTimeout = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
)

func newHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		MaxHeaderBytes:    maxHeaderBytes,
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}
}

// normalizeAddr accepts "8080" or ":8080" and returns a listen address.
// An empty port is passed through so callers keep the defaulting policy.
func normalizeAddr(port string) string {
	if port == "" {
		return ""
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

// Run starts the HTTP server on the given port using the provided handler.
func (s *Server) Run(port string, handler http.Handler) error {
	s.httpServer = newHTTPServer(normalizeAddr(port), handler)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server, allowing in-flight requests to complete.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
