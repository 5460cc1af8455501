package server

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apihttp "github.com/goofcode/just-start-server/internal/api/http"
	"github.com/goofcode/just-start-server/internal/api/middleware"
	"github.com/goofcode/just-start-server/internal/app"
	"github.com/goofcode/just-start-server/internal/infrastructure/config"
	"github.com/goofcode/just-start-server/internal/infrastructure/logging"
	"github.com/goofcode/just-start-server/internal/infrastructure/monitoring"
	"github.com/goofcode/just-start-server/internal/infrastructure/tracing"
	"github.com/goofcode/just-start-server/internal/kinds"
	"github.com/goofcode/just-start-server/internal/store"
	"github.com/goofcode/just-start-server/internal/ws"
)

// Server owns the HTTP control surface and the registry behind it.
type Server struct {
	cfg      *config.Config
	log      *logging.Logger
	registry *app.Registry
	httpSrv  *http.Server
}

// New assembles the service from configuration. The workspace root must be
// set; the store file lives relative to it.
func New(cfg *config.Config, log *logging.Logger) (*Server, error) {
	if cfg.Workspace.Root == "" {
		return nil, fmt.Errorf("workspace root is not configured")
	}

	st := store.NewFileStore(filepath.Join(cfg.Workspace.Root, cfg.Workspace.ConfigFile))
	metrics := monitoring.New()

	registry := app.NewRegistry(st, kinds.Default(kinds.Deps{Logger: log}), log)
	registry.SetObserver(metrics)
	registry.Initialize(cfg.Workspace.Root)

	// First reconciliation. Per-record failures are logged, not fatal:
	// the service still comes up with the surviving records.
	if err := registry.LoadFromConfigurations(false); err != nil {
		log.Warn("initial reconciliation reported record errors", zap.Error(err))
	}

	hub := ws.NewHub(log, metrics)
	handler := apihttp.NewHandler(registry, hub, metrics, log)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.RateLimit(cfg.RateLimit))
	router.Use(monitoring.Middleware(metrics))
	router.Use(tracing.Middleware(tracing.New(log)))

	handler.RegisterRoutes(router)
	router.GET("/stream", hub.HandleConnection)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	addr := cfg.Server.Host + ":" + cfg.Server.Port
	return &Server{
		cfg:      cfg,
		log:      log.Named("server"),
		registry: registry,
		httpSrv: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// Run serves until the listener fails or Shutdown is called.
func (s *Server) Run() error {
	s.log.Info("listening", zap.String("addr", s.httpSrv.Addr),
		zap.String("workspace", s.cfg.Workspace.Root))
	if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and disposes every cached handle so
// no managed process outlives the service.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpSrv.Shutdown(ctx)

	for _, a := range s.registry.GetApplications() {
		if derr := a.Dispose(); derr != nil {
			s.log.Warn("disposing on shutdown", zap.String("app_id", a.ID()), zap.Error(derr))
		}
	}
	s.registry.Reset()

	s.log.Info("shutdown complete")
	return err
}
