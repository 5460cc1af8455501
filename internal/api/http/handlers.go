// Package http implements the REST control surface over the application
// registry: listing, creation, lifecycle operations and reconciliation.
package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/goofcode/just-start-server/internal/app"
	"github.com/goofcode/just-start-server/internal/infrastructure/logging"
	"github.com/goofcode/just-start-server/internal/infrastructure/monitoring"
	"github.com/goofcode/just-start-server/internal/shared/apperr"
	"github.com/goofcode/just-start-server/internal/shared/types"
	"github.com/goofcode/just-start-server/internal/ws"
)

// Handler exposes the registry over HTTP. Lifecycle and registry mutations
// are serialized by mu; reads go straight to the registry's own lock.
type Handler struct {
	mu       sync.Mutex
	registry *app.Registry
	hub      *ws.Hub
	metrics  *monitoring.Metrics
	log      *logging.Logger
}

// NewHandler wires the control surface over the given registry.
func NewHandler(registry *app.Registry, hub *ws.Hub, metrics *monitoring.Metrics, log *logging.Logger) *Handler {
	return &Handler{
		registry: registry,
		hub:      hub,
		metrics:  metrics,
		log:      log.Named("api"),
	}
}

// RegisterRoutes attaches all control routes to the router group.
func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/health", h.Health)
	r.GET("/apps", h.ListApps)
	r.POST("/apps", h.CreateApp)
	r.DELETE("/apps/:id", h.RemoveApp)
	r.GET("/apps/:id", h.GetApp)
	r.GET("/apps/:id/version", h.AppVersion)
	r.POST("/apps/:id/deploy", h.lifecycle("deploy", app.Runnable.Deploy))
	r.POST("/apps/:id/start", h.lifecycle("start", app.Runnable.Start))
	r.POST("/apps/:id/stop", h.lifecycle("stop", app.Runnable.Stop))
	r.POST("/apps/:id/debug", h.lifecycle("debug", app.Runnable.Debug))
	r.POST("/reload", h.Reload)
}

// appView is the wire shape of one application.
type appView struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Type         types.Kind       `json:"type"`
	Status       types.Status     `json:"status"`
	AppPath      string           `json:"app_path"`
	Port         int              `json:"port,omitempty"`
	DebugSession string           `json:"debug_session,omitempty"`
	Properties   []types.Property `json:"properties"`
}

func view(h app.Runnable) appView {
	return appView{
		ID:           h.ID(),
		Name:         h.Name(),
		Type:         h.Type(),
		Status:       h.Status(),
		AppPath:      h.AppPath(),
		Port:         h.ServicePort(),
		DebugSession: h.DebugSessionName(),
		Properties:   h.Config().Clone().Properties,
	}
}

// Health reports service liveness and registry stats.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"stats":  h.registry.Stats(),
	})
}

// ListApps returns every cached application.
func (h *Handler) ListApps(c *gin.Context) {
	apps := h.registry.GetApplications()
	views := make([]appView, 0, len(apps))
	for _, a := range apps {
		views = append(views, view(a))
	}
	c.JSON(http.StatusOK, gin.H{"apps": views, "count": len(views)})
}

// GetApp returns one application by id.
func (h *Handler) GetApp(c *gin.Context) {
	a, ok := h.registry.GetApplication(c.Param("id"))
	if !ok {
		h.renderError(c, apperr.New(apperr.NotFound, c.Param("id")))
		return
	}
	c.JSON(http.StatusOK, view(a))
}

type createRequest struct {
	Type       types.Kind       `json:"type" binding:"required"`
	AppPath    string           `json:"app_path" binding:"required"`
	Properties []types.Property `json:"properties"`
}

// CreateApp constructs, initializes, persists and caches a new handle.
func (h *Handler) CreateApp(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	handle, err := h.registry.CreateApplication(req.Type, "")
	if err != nil {
		h.renderError(c, err)
		return
	}

	cfg := handle.Config().Clone()
	cfg.AppPath = req.AppPath
	for _, p := range req.Properties {
		if existing, ok := cfg.Property(p.Key); ok && existing.Changeable {
			cfg.SetProperty(p.Key, p.Value, true)
		}
	}
	handle.SetConfig(cfg)

	if err := handle.Init(); err != nil {
		h.renderError(c, err)
		return
	}

	if err := h.registry.Persist(handle); err != nil {
		h.renderError(c, err)
		return
	}
	h.registry.SetAppsToContainer(handle)

	h.log.Info("application created",
		zap.String("app_id", handle.ID()), zap.String("kind", string(handle.Type())))
	c.JSON(http.StatusCreated, view(handle))
}

// RemoveApp disposes the handle and detaches its persisted record.
func (h *Handler) RemoveApp(c *gin.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()

	appID := c.Param("id")
	a, ok := h.registry.GetApplication(appID)
	if !ok {
		h.renderError(c, apperr.New(apperr.NotFound, appID))
		return
	}

	if err := a.Dispose(); err != nil {
		h.renderError(c, err)
		return
	}
	if err := h.registry.Remove(appID); err != nil {
		h.renderError(c, err)
		return
	}

	h.log.Info("application removed", zap.String("app_id", appID))
	c.Status(http.StatusNoContent)
}

// AppVersion reports the installed or running version.
func (h *Handler) AppVersion(c *gin.Context) {
	a, ok := h.registry.GetApplication(c.Param("id"))
	if !ok {
		h.renderError(c, apperr.New(apperr.NotFound, c.Param("id")))
		return
	}

	version, err := a.FindVersion()
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": a.ID(), "version": version})
}

// Reload re-runs reconciliation against the persisted store. ?exactly=true
// clears the cache first.
func (h *Handler) Reload(c *gin.Context) {
	exactly, _ := strconv.ParseBool(c.DefaultQuery("exactly", "false"))

	h.mu.Lock()
	err := h.registry.LoadFromConfigurations(exactly)
	h.mu.Unlock()

	if err != nil {
		// Per-record failures: surviving records were still committed.
		c.JSON(http.StatusMultiStatus, gin.H{
			"stats": h.registry.Stats(),
			"error": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": h.registry.Stats()})
}

// lifecycle builds a handler running one Runnable operation under the
// lifecycle lock, streaming process output to the log hub.
func (h *Handler) lifecycle(name string, op func(app.Runnable, context.Context, app.LogSink) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		appID := c.Param("id")
		a, ok := h.registry.GetApplication(appID)
		if !ok {
			h.renderError(c, apperr.New(apperr.NotFound, appID))
			return
		}

		timer := monitoring.NewTimer(h.metrics, string(a.Type()), name)

		h.mu.Lock()
		err := op(a, c.Request.Context(), h.hub.Sink(appID))
		h.mu.Unlock()

		if err != nil {
			timer.Stop("error")
			h.log.Warn("lifecycle operation failed",
				zap.String("app_id", appID), zap.String("operation", name), zap.Error(err))
			h.renderError(c, err)
			return
		}

		timer.Stop("ok")
		c.JSON(http.StatusOK, view(a))
	}
}

// statusFor maps error codes onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case apperr.IsCode(err, apperr.NotFound),
		apperr.IsCode(err, apperr.NotFoundTargetDeploy):
		return http.StatusNotFound
	case apperr.IsCode(err, apperr.NoValidAppType),
		apperr.IsCode(err, apperr.NotMatchConfDeploy):
		return http.StatusBadRequest
	case apperr.IsCode(err, apperr.NotReady),
		apperr.IsCode(err, apperr.NotAvailablePort),
		apperr.IsCode(err, apperr.NotFoundWorkspace):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) renderError(c *gin.Context, err error) {
	body := gin.H{"error": err.Error()}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		body["code"] = ae.Code
	}
	c.JSON(statusFor(err), body)
}
