package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apihttp "github.com/GriffinCanCode/netinternals/internal/api/http"
	"github.com/GriffinCanCode/netinternals/internal/api/middleware"
	"github.com/GriffinCanCode/netinternals/internal/api/ws"
	"github.com/GriffinCanCode/netinternals/internal/domain/bridge"
	"github.com/GriffinCanCode/netinternals/internal/domain/events"
	"github.com/GriffinCanCode/netinternals/internal/domain/export"
	"github.com/GriffinCanCode/netinternals/internal/domain/views"
	"github.com/GriffinCanCode/netinternals/internal/infrastructure/config"
	"github.com/GriffinCanCode/netinternals/internal/infrastructure/logging"
	"github.com/GriffinCanCode/netinternals/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/netinternals/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/netinternals/internal/sink/natspub"
	"github.com/GriffinCanCode/netinternals/internal/transport/host"
)

// Server wraps the HTTP server and dependencies
type Server struct {
	config     *config.Config
	logger     *logging.Logger
	metrics    *monitoring.Metrics
	router     *gin.Engine
	httpServer *http.Server

	host       *host.Client
	supervisor *host.Supervisor
	bridge     *bridge.Bridge
	views      *views.MainView
	tracker    *events.Tracker

	natsConn *nats.Conn
	sink     *natspub.Sink
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	compression, err := export.ParseCompression(cfg.Export.Compression)
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	logger.Info("Initializing net-internals daemon",
		zap.String("port", cfg.Server.Port),
		zap.String("host_url", cfg.Host.URL),
		zap.String("platform", cfg.Host.Platform),
	)

	// Metrics first, every component below reports to them
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := monitoring.NewMetrics(registry)

	// Host link, bridge and the state built on it
	hostClient := host.New(host.Config{
		URL:              cfg.Host.URL,
		HandshakeTimeout: cfg.Host.HandshakeTimeout,
		WriteTimeout:     cfg.Host.WriteTimeout,
	}, logger)
	tracker := events.NewTracker(cfg.Events.Capacity)
	b := bridge.New(hostClient, bridge.Options{
		Platform: cfg.Host.Platform,
		Logger:   logger,
	}).WithMetrics(metrics).WithLogSink(tracker)
	mainView := views.New(b, logger)
	exporter := export.New(b, tracker, cfg.Export.Timeout, logger)
	mainView.SetPrivacyStripping(cfg.Export.PrivacyStripping)

	s := &Server{
		config:  cfg,
		logger:  logger,
		metrics: metrics,
		host:    hostClient,
		bridge:  b,
		views:   mainView,
		tracker: tracker,
	}
	s.supervisor = host.NewSupervisor(hostClient, host.SupervisorConfig{
		Breaker:   resilience.Settings{Threshold: 3, Cooldown: 30 * time.Second},
		OnConnect: s.onHostConnect,
	}, logger)

	// Optional NATS mirror
	if cfg.NATS.Enabled {
		natsCfg := natspub.Config{
			URL:          cfg.NATS.URL,
			Subject:      cfg.NATS.Subject,
			DrivePolling: cfg.NATS.DrivePolling,
		}
		conn, err := natspub.Connect(natsCfg)
		if err != nil {
			logger.Warn("NATS mirror disabled", zap.Error(err))
		} else {
			s.natsConn = conn
			s.sink = natspub.New(conn, natsCfg, logger)
			s.sink.Attach(b, tracker)
			logger.Info("Mirroring feeds to NATS",
				zap.String("url", cfg.NATS.URL),
				zap.String("subject", cfg.NATS.Subject),
			)
		}
	}

	// Create router
	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLog(logger))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.Server.AllowOrigins...)))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		rl := middleware.DefaultRateLimitConfig()
		rl.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
		rl.Burst = cfg.RateLimit.Burst
		router.Use(middleware.RateLimit(rl))
	}

	// Register routes
	handlers := apihttp.NewHandlers(apihttp.Deps{
		Bridge:   b,
		Views:    mainView,
		Tracker:  tracker,
		Exporter: exporter,
		Metrics:  metrics,
		Host:     hostClient,
		Export: apihttp.ExportSettings{
			Dir:         cfg.Export.Dir,
			Compression: compression,
		},
		Logger: logger,
	})
	handlers.Register(router)

	wsHandler := ws.NewHandler(b, tracker, metrics, logger)
	router.GET("/stream", wsHandler.HandleConnection)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	s.router = router
	s.httpServer = &http.Server{
		Addr:              cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server initialized successfully")
	return s, nil
}

// onHostConnect announces readiness. The first connection also selects the
// initial tab and starts polling; later ones only re-announce.
func (s *Server) onHostConnect(first bool) {
	if !first {
		if err := s.bridge.Send(bridge.CmdNotifyReady); err != nil {
			s.logger.Error("Failed to re-announce readiness", zap.Error(err))
		}
		return
	}

	if err := s.views.Start(s.config.Poll.InitialTab); err != nil {
		s.logger.Error("Failed to start views", zap.Error(err))
		return
	}
	if s.config.Poll.Interval != bridge.DefaultPollInterval {
		s.bridge.SetPollInterval(s.config.Poll.Interval)
	}
	s.logger.Info("Capturing",
		zap.String("tab", string(s.views.Selected())),
		zap.Duration("poll_interval", s.bridge.PollInterval()),
	)
}

// Router returns the HTTP handler, for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Run serves HTTP and keeps the host link up until ctx is done, then shuts
// the HTTP server down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	hostDone := make(chan struct{})
	go func() {
		defer close(hostDone)
		if err := s.supervisor.Run(ctx, s.bridge); err != nil {
			s.logger.Error("Host supervisor stopped", zap.Error(err))
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer stop()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("HTTP shutdown incomplete", zap.Error(err))
	}

	cancel()
	<-hostDone
	return runErr
}

// Close gracefully shuts down the server
func (s *Server) Close() error {
	s.logger.Info("Shutting down server...")

	s.bridge.SetPollInterval(0)

	if s.sink != nil {
		s.sink.Detach(s.bridge)
	}
	if s.natsConn != nil {
		if err := s.natsConn.Drain(); err != nil {
			s.logger.Warn("Failed to drain NATS connection", zap.Error(err))
		}
	}

	if err := s.host.Close(); err != nil {
		s.logger.Error("Failed to close host connection", zap.Error(err))
		return fmt.Errorf("failed to close host connection: %w", err)
	}

	// Sync logger before exit
	_ = s.logger.Sync()
	return nil
}
