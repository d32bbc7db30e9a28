package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/netinternals/internal/domain/views"
)

// ListViews lists every tab, hidden ones included.
func (h *Handlers) ListViews(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"views":    h.views.Tabs(),
		"selected": h.views.Selected(),
	})
}

// GetView returns one tab.
func (h *Handlers) GetView(c *gin.Context) {
	v, err := h.views.View(views.TabID(c.Param("id")))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// SelectView switches tabs, either by URL hash or by tab ID.
func (h *Handlers) SelectView(c *gin.Context) {
	var req struct {
		Hash   string            `json:"hash"`
		Tab    string            `json:"tab"`
		Params map[string]string `json:"params"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request: " + err.Error(),
		})
		return
	}

	switch {
	case req.Tab != "":
		if err := h.views.SelectTab(views.TabID(req.Tab), req.Params); err != nil {
			fail(c, err)
			return
		}
	case req.Hash != "":
		if !h.views.Navigate(req.Hash) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error":   "no visible tab for " + req.Hash,
			})
			return
		}
	default:
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "hash or tab is required",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"selected": h.views.Selected(),
		"params":   h.views.Params(),
	})
}

// StopCapture halts capturing for good.
func (h *Handlers) StopCapture(c *gin.Context) {
	h.views.StopCapturing()
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"status":  h.views.Status(),
	})
}

// SetPrivacy toggles cookie and credential stripping in dumps.
func (h *Handlers) SetPrivacy(c *gin.Context) {
	var req struct {
		Stripping *bool `json:"privacy_stripping" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request: " + err.Error(),
		})
		return
	}
	h.views.SetPrivacyStripping(*req.Stripping)
	c.JSON(http.StatusOK, gin.H{
		"success":           true,
		"privacy_stripping": h.views.PrivacyStripping(),
	})
}
