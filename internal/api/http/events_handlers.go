package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/netinternals/internal/domain/events"
	"github.com/GriffinCanCode/netinternals/internal/domain/export"
)

// maxLoadSize caps uploaded log dumps.
const maxLoadSize = 256 << 20

// GetEvents returns stored log entries, optionally only those after ?since.
func (h *Handlers) GetEvents(c *gin.Context) {
	var entries []events.Entry
	if s := c.Query("since"); s != "" {
		seq, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error":   "since must be a sequence number",
			})
			return
		}
		entries = h.tracker.Since(seq)
	} else {
		entries = h.tracker.Entries()
	}

	c.JSON(http.StatusOK, gin.H{
		"entries": entries,
		"count":   len(entries),
		"dropped": h.tracker.Dropped(),
	})
}

// ClearEvents deletes every stored log entry.
func (h *Handlers) ClearEvents(c *gin.Context) {
	h.tracker.Clear()
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// LoadLog replaces the stored entries with those of an uploaded dump and
// switches to viewing it. Capturing stops for good.
func (h *Handlers) LoadLog(c *gin.Context) {
	compression, err := export.ParseCompression(c.Query("compression"))
	if err != nil {
		fail(c, err)
		return
	}
	fileName := c.Query("file")

	dump, err := export.Decode(http.MaxBytesReader(c.Writer, c.Request.Body, maxLoadSize), compression)
	if err != nil {
		h.logger.Warn("Rejected log dump", zap.String("file", fileName), zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid log dump: " + err.Error(),
		})
		return
	}

	h.views.OnLoadLog(fileName)
	h.tracker.Clear()
	h.tracker.AddLogEntries(dump.Events)

	h.logger.Info("Loaded log dump",
		zap.String("file", fileName),
		zap.String("dump_id", dump.ID),
		zap.Int("events", len(dump.Events)),
	)

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"dump_id":       dump.ID,
		"events_loaded": len(dump.Events),
		"captured_at":   time.UnixMilli(dump.NumericDate).UTC(),
		"comments":      dump.UserComments,
		"status":        h.views.Status(),
	})
}
