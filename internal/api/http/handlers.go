package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/netinternals/internal/domain/bridge"
	"github.com/GriffinCanCode/netinternals/internal/domain/events"
	"github.com/GriffinCanCode/netinternals/internal/domain/export"
	"github.com/GriffinCanCode/netinternals/internal/domain/views"
	"github.com/GriffinCanCode/netinternals/internal/infrastructure/logging"
	"github.com/GriffinCanCode/netinternals/internal/infrastructure/monitoring"
)

// Version is reported by the root endpoint.
const Version = "0.1.0"

// HostLink reports whether the host channel is up.
type HostLink interface {
	Connected() bool
}

// ExportSettings controls where and how dumps are written.
type ExportSettings struct {
	Dir         string
	Compression export.Compression
}

// Deps bundles what the handlers need.
type Deps struct {
	Bridge   *bridge.Bridge
	Views    *views.MainView
	Tracker  *events.Tracker
	Exporter *export.Exporter
	Metrics  *monitoring.Metrics
	Host     HostLink
	Export   ExportSettings
	Logger   *logging.Logger
}

// Handlers contains all HTTP handlers
type Handlers struct {
	bridge   *bridge.Bridge
	views    *views.MainView
	tracker  *events.Tracker
	exporter *export.Exporter
	metrics  *monitoring.Metrics
	host     HostLink
	export   ExportSettings
	logger   *logging.Logger
}

// NewHandlers creates a new handler set
func NewHandlers(d Deps) *Handlers {
	logger := d.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	if d.Export.Compression == "" {
		d.Export.Compression = export.CompressionNone
	}
	return &Handlers{
		bridge:   d.Bridge,
		views:    d.Views,
		tracker:  d.Tracker,
		exporter: d.Exporter,
		metrics:  d.Metrics,
		host:     d.Host,
		export:   d.Export,
		logger:   logger.For("api"),
	}
}

// Root handles health check
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "net-internals daemon",
		"version": Version,
	})
}

// Health handles detailed health check. The daemon is degraded while the
// host link is down and halted once capturing stopped.
func (h *Handlers) Health(c *gin.Context) {
	st := h.bridge.Status()
	connected := h.host != nil && h.host.Connected()

	status := "healthy"
	switch {
	case st.Disabled:
		status = "halted"
	case !connected:
		status = "degraded"
	}

	c.JSON(http.StatusOK, gin.H{
		"status": status,
		"host":   gin.H{"connected": connected},
		"bridge": st,
	})
}

// Status returns bridge, view and event store state together.
func (h *Handlers) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"bridge": h.bridge.Status(),
		"view":   h.views.Status(),
		"events": gin.H{
			"count":   h.tracker.Count(),
			"dropped": h.tracker.Dropped(),
		},
	})
}

// Constants returns the handshake dictionary, 404 before it arrives.
func (h *Handlers) Constants(c *gin.Context) {
	consts := h.bridge.Constants()
	if consts == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   export.ErrNoConstants.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, consts.Raw)
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, bridge.ErrUnknownCommand),
		errors.Is(err, bridge.ErrUnknownFeed),
		errors.Is(err, views.ErrUnknownTab):
		return http.StatusNotFound
	case errors.Is(err, bridge.ErrUnsupportedArity),
		errors.Is(err, views.ErrHiddenTab),
		errors.Is(err, export.ErrUnknownCompression):
		return http.StatusBadRequest
	case errors.Is(err, export.ErrNoConstants):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func fail(c *gin.Context, err error) {
	c.JSON(errorStatus(err), gin.H{
		"success": false,
		"error":   err.Error(),
	})
}
