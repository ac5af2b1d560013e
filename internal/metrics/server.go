package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const readHeaderTimeout = 3 * time.Second

// Server serves /metrics for a Registry on its own bind address, exactly
// as DMRHub's CreateMetricsServer does for its metrics. The CLI does not
// create one when its metrics address is empty (§4.7); an empty addr
// passed here makes ListenAndServe fall back to ":http".
type Server struct {
	httpServer *http.Server
}

// NewServer builds a metrics HTTP server for reg. It does not start
// listening until Start is called.
func NewServer(addr string, reg *prometheus.Registry) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: readHeaderTimeout,
		},
	}
}

// Start runs the metrics server until it fails or Stop is called. It is
// meant to be launched in its own goroutine; ErrServerClosed is not an
// error from the caller's point of view.
func (s *Server) Start() error {
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Stop shuts the metrics server down.
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
