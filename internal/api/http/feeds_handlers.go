package http

import (
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/netinternals/internal/domain/bridge"
)

// ListFeeds lists every registered feed with its status.
func (h *Handlers) ListFeeds(c *gin.Context) {
	feeds := h.bridge.Feeds()
	out := make([]bridge.FeedStatus, 0, len(feeds))
	for _, f := range feeds {
		out = append(out, f.Status())
	}
	c.JSON(http.StatusOK, gin.H{
		"feeds": out,
		"count": len(out),
	})
}

// GetFeed returns one feed's last value and status.
func (h *Handlers) GetFeed(c *gin.Context) {
	feed, err := h.bridge.Feed(bridge.FeedName(c.Param("name")))
	if err != nil {
		fail(c, err)
		return
	}

	value, ok := feed.Value()
	c.JSON(http.StatusOK, gin.H{
		"status":    feed.Status(),
		"has_value": ok,
		"value":     value,
	})
}

// RefreshFeeds polls feeds. With "all" every feed is polled regardless of
// observers, otherwise only feeds someone is watching.
func (h *Handlers) RefreshFeeds(c *gin.Context) {
	var req struct {
		All bool `json:"all"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error":   "Invalid request: " + err.Error(),
			})
			return
		}
	}

	if req.All {
		h.bridge.UpdateAllInfo(nil)
	} else {
		h.bridge.CheckForUpdatedInfo(false)
	}
	c.JSON(http.StatusAccepted, gin.H{
		"success":  true,
		"disabled": h.bridge.IsDisabled(),
	})
}

// GetPollInterval returns the current poll interval.
func (h *Handlers) GetPollInterval(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"interval_ms": h.bridge.PollInterval().Milliseconds(),
	})
}

// maxIntervalMs is the largest interval a time.Duration can hold.
const maxIntervalMs = math.MaxInt64 / int64(time.Millisecond)

// SetPollInterval changes the poll interval; zero stops polling.
func (h *Handlers) SetPollInterval(c *gin.Context) {
	var req struct {
		IntervalMs *int64 `json:"interval_ms" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request: " + err.Error(),
		})
		return
	}
	if *req.IntervalMs < 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "interval_ms must not be negative",
		})
		return
	}
	if *req.IntervalMs > maxIntervalMs {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   fmt.Sprintf("interval_ms must not exceed %d", maxIntervalMs),
		})
		return
	}

	h.bridge.SetPollInterval(time.Duration(*req.IntervalMs) * time.Millisecond)
	h.logger.Info("Poll interval changed", zap.Int64("interval_ms", *req.IntervalMs))

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"interval_ms": h.bridge.PollInterval().Milliseconds(),
	})
}
