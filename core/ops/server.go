// Package ops serves liveness, readiness and Prometheus metrics next to the bot.
package ops

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/m3rciful/onboardbot/core/logger"
)

// Check reports whether a dependency is usable. A nil error means ready.
type Check func(ctx context.Context) error

// Options configure the listener.
type Options struct {
	Listen string
	// Checks are evaluated by /readyz; the map key names the dependency.
	Checks map[string]Check
	// Gatherer defaults to prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer
}

// Server is the ops HTTP listener.
type Server struct {
	srv *http.Server
	ln  net.Listener
}

// NewRouter builds the ops routes. Exposed for tests.
func NewRouter(opts Options) http.Handler {
	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/readyz", func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
		defer cancel()
		for name, check := range opts.Checks {
			if check == nil {
				continue
			}
			if err := check(ctx); err != nil {
				logger.Ops.Warn("readiness failed",
					slog.String("event", "ops.readyz"),
					slog.String("cause", name),
					slog.String("err", err.Error()),
				)
				http.Error(w, name+": unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return r
}

// Start binds the listener and serves in the background.
func Start(opts Options) (*Server, error) {
	ln, err := net.Listen("tcp", opts.Listen)
	if err != nil {
		return nil, err
	}
	s := &Server{
		srv: &http.Server{
			Handler:           NewRouter(opts),
			ReadHeaderTimeout: 5 * time.Second,
		},
		ln: ln,
	}
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Ops.Error("ops server stopped",
				slog.String("event", "ops.serve"),
				slog.String("err", err.Error()),
			)
		}
	}()
	logger.Ops.Info("ops listening",
		slog.String("event", "ops.listen"),
		slog.String("listen", ln.Addr().String()),
	)
	return s, nil
}

// Addr returns the bound address.
func (s *Server) Addr() string {
	return s.ln.Addr().String()
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}
