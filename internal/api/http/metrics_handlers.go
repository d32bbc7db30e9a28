package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// MetricsSummary returns running totals as JSON for dashboards that do not
// scrape Prometheus.
func (h *Handlers) MetricsSummary(c *gin.Context) {
	snap := h.metrics.GetSnapshot()
	st := h.bridge.Status()

	c.JSON(http.StatusOK, gin.H{
		"timestamp":      time.Now().UTC(),
		"uptime_seconds": h.metrics.UptimeDuration().Seconds(),
		"totals":         snap,
		"bridge": gin.H{
			"pending_messages": st.PendingMessages,
			"disabled":         st.Disabled,
			"poll_interval_ms": st.PollInterval.Milliseconds(),
		},
		"events": gin.H{
			"count":   h.tracker.Count(),
			"dropped": h.tracker.Dropped(),
		},
	})
}
