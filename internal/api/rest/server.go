package rest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/mindaccess/opendoor-backend/internal/infrastructure/config"
	"github.com/mindaccess/opendoor-backend/internal/service/accessdecision"
	"github.com/mindaccess/opendoor-backend/internal/service/capture"
)

// DatabasePinger reports record-store reachability.
type DatabasePinger interface {
	Ping(ctx context.Context) error
}

// RelayChecker reports relay-broker reachability.
type RelayChecker interface {
	Connected(ctx context.Context) bool
}

// Server exposes the operational HTTP surface: health, status, metrics, and
// the on-demand decision endpoints.
type Server struct {
	cfg        *config.Config
	engine     accessdecision.Service
	extractor  capture.Extractor
	db         DatabasePinger
	relay      RelayChecker
	zoneID     string
	logger     *zap.Logger
	httpServer *http.Server
	startTime  time.Time
}

// NewServer wires the handlers. extractor may be nil; the process-frame
// endpoint then reports the capability as unavailable.
func NewServer(
	cfg *config.Config,
	engine accessdecision.Service,
	extractor capture.Extractor,
	db DatabasePinger,
	relay RelayChecker,
	gatherer prometheus.Gatherer,
	logger *zap.Logger,
) *Server {
	s := &Server{
		cfg:       cfg,
		engine:    engine,
		extractor: extractor,
		db:        db,
		relay:     relay,
		zoneID:    cfg.Access.ZoneID,
		logger:    logger,
		startTime: time.Now(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /ping", s.handlePing)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("POST /api/v1/decide", s.handleDecide)
	mux.HandleFunc("POST /api/v1/process-frame", s.handleProcessFrame)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      requestLogger(logger)(mux),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return s
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("http server listening", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the routed handler for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}
