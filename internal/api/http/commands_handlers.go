package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/netinternals/internal/domain/bridge"
)

// SendCommand forwards a command to the host. The body carries the
// positional arguments: {"args": [...]}.
func (h *Handlers) SendCommand(c *gin.Context) {
	cmd, err := bridge.ParseCommand(c.Param("command"))
	if err != nil {
		fail(c, err)
		return
	}

	var req struct {
		Args []any `json:"args"`
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

	if err := h.bridge.Send(cmd, req.Args...); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success":  true,
		"command":  cmd,
		"disabled": h.bridge.IsDisabled(),
	})
}
