package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/netinternals/internal/domain/export"
)

var contentTypes = map[export.Compression]string{
	export.CompressionNone: "application/json",
	export.CompressionGzip: "application/gzip",
	export.CompressionZstd: "application/zstd",
}

// Snapshot builds a log dump. With ?save=true it is written to the export
// directory, otherwise it is streamed as an attachment.
func (h *Handlers) Snapshot(c *gin.Context) {
	compression := h.export.Compression
	if name, ok := c.GetQuery("compression"); ok {
		parsed, err := export.ParseCompression(name)
		if err != nil {
			fail(c, err)
			return
		}
		compression = parsed
	}
	save, _ := strconv.ParseBool(c.Query("save"))

	dump, err := h.exporter.Build(c.Request.Context(), export.Request{
		UserComments:     c.Query("comments"),
		PrivacyStripping: h.views.PrivacyStripping(),
	})
	if err != nil {
		fail(c, err)
		return
	}

	if save {
		path, err := dump.Save(h.export.Dir, compression)
		if err != nil {
			h.logger.Error("Failed to save log dump", zap.Error(err))
			fail(c, err)
			return
		}
		h.logger.Info("Saved log dump", zap.String("path", path), zap.Bool("partial", dump.Partial))
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"path":    path,
			"dump_id": dump.ID,
			"events":  len(dump.Events),
			"partial": dump.Partial,
		})
		return
	}

	fileName := "net-internals-" + dump.ShortID() + compression.Extension()
	c.Header("Content-Type", contentTypes[compression])
	c.Header("Content-Disposition", `attachment; filename="`+fileName+`"`)
	c.Status(http.StatusOK)
	if err := dump.Encode(c.Writer, compression); err != nil {
		h.logger.Error("Failed to stream log dump", zap.Error(err))
	}
}
