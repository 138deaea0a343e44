// internal/monitoring/server.go
package monitoring

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

// NewRouter routes /metrics and /health
func NewRouter(metrics *MetricsManager, health *HealthManager) *mux.Router {
	r := mux.NewRouter()
	r.Handle("/metrics", metrics.MetricsHandler()).Methods(http.MethodGet)
	r.HandleFunc("/health", health.HealthHandler()).Methods(http.MethodGet)
	return r
}

// Server serves the monitoring endpoints until its context ends
type Server struct {
	server   *http.Server
	listener net.Listener
}

// Listen binds the address. Use ":0" for an ephemeral port.
func Listen(address string, handler http.Handler) (*Server, error) {
	ln, err := net.Listen("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", address, err)
	}
	return &Server{
		server: &http.Server{
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		listener: ln,
	}, nil
}

// Addr returns the bound address
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Serve blocks until ctx is done, then shuts the server down
func (s *Server) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.server.Serve(s.listener)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("metrics server shutdown: %w", err)
		}
		return nil
	}
}
