package handler

import (
	"errors"
	"mime"
	"net/http"
	"strconv"

	estimateapp "github.com/estimate/backend/internal/application/estimate"
	"github.com/estimate/backend/internal/infrastructure/printing"
	"github.com/estimate/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

const (
	exportFailedMessage  = "이미지 저장에 실패했습니다. 다시 시도해 주세요."
	exportTimeoutMessage = "이미지 생성 시간이 초과되었습니다. 다시 시도해 주세요."
)

// ExportHandler downloads the sheet as a PNG image
type ExportHandler struct {
	BaseHandler
	exports *estimateapp.ExportService
}

// NewExportHandler creates a new ExportHandler
func NewExportHandler(exports *estimateapp.ExportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// Export renders the sheet and sends it as an attachment named after the
// customer, or 견적서.png when the customer is blank.
// POST /api/v1/sheet/export
// GET  /export.png
func (h *ExportHandler) Export(c *gin.Context) {
	result, err := h.exports.Export(c.Request.Context())
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	c.Header("Content-Disposition", contentDisposition(result.FileName))
	c.Header("Cache-Control", "no-store")
	c.Header("X-Image-Width", strconv.Itoa(result.Width))
	c.Header("X-Image-Height", strconv.Itoa(result.Height))
	c.Data(http.StatusOK, "image/png", result.PNG)
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	var renderErr *printing.RenderError
	if errors.As(err, &renderErr) && renderErr.Code == printing.ErrCodeRenderTimeout {
		h.ErrorWithCode(c, dto.ErrCodeExportTimeout, exportTimeoutMessage)
		return
	}
	if errors.Is(err, estimateapp.ErrExportFailed) {
		h.ErrorWithCode(c, dto.ErrCodeExportFailed, exportFailedMessage)
		return
	}
	h.HandleError(c, err)
}

// contentDisposition builds an attachment header. Non-ASCII names are
// sent as an RFC 5987 filename* parameter.
func contentDisposition(fileName string) string {
	if v := mime.FormatMediaType("attachment", map[string]string{"filename": fileName}); v != "" {
		return v
	}
	return `attachment; filename="export.png"`
}
