package http

import "github.com/gin-gonic/gin"

// Register mounts every REST route on r. The Prometheus endpoint and the
// live stream are mounted by the server.
func (h *Handlers) Register(r gin.IRouter) {
	r.GET("/", h.Root)
	r.GET("/health", h.Health)
	r.GET("/status", h.Status)
	r.GET("/constants", h.Constants)

	// Feeds
	r.GET("/feeds", h.ListFeeds)
	r.GET("/feeds/:name", h.GetFeed)
	r.POST("/feeds/refresh", h.RefreshFeeds)
	r.GET("/poll-interval", h.GetPollInterval)
	r.PUT("/poll-interval", h.SetPollInterval)

	r.POST("/commands/:command", h.SendCommand)

	// Views
	r.GET("/views", h.ListViews)
	r.GET("/views/:id", h.GetView)
	r.POST("/views/select", h.SelectView)
	r.PUT("/privacy", h.SetPrivacy)
	r.POST("/capture/stop", h.StopCapture)

	// Events and dumps
	r.GET("/events", h.GetEvents)
	r.DELETE("/events", h.ClearEvents)
	r.POST("/events/load", h.LoadLog)
	r.GET("/snapshot", h.Snapshot)

	r.GET("/metrics/json", h.MetricsSummary)
}
