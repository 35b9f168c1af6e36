package handler

import (
	"bytes"
	"net/http"

	estimateapp "github.com/estimate/backend/internal/application/estimate"
	"github.com/estimate/backend/internal/infrastructure/logger"
	"github.com/estimate/backend/internal/infrastructure/printing"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const htmlContentType = "text/html; charset=utf-8"

// PageHandler serves the HTML surface of the sheet
type PageHandler struct {
	BaseHandler
	service   *estimateapp.Service
	templates *printing.TemplateEngine
}

// NewPageHandler creates a new PageHandler
func NewPageHandler(service *estimateapp.Service, templates *printing.TemplateEngine) *PageHandler {
	return &PageHandler{
		service:   service,
		templates: templates,
	}
}

// Index renders the editable sheet page
// GET /
func (h *PageHandler) Index(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.templates.RenderPage(&buf, h.service.View(nil)); err != nil {
		h.renderFailed(c, "page", err)
		return
	}
	c.Data(http.StatusOK, htmlContentType, buf.Bytes())
}

// Table renders only the table body rows
// GET /sheet/table
func (h *PageHandler) Table(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.templates.RenderTable(&buf, h.service.View(nil)); err != nil {
		h.renderFailed(c, "table", err)
		return
	}
	c.Data(http.StatusOK, htmlContentType, buf.Bytes())
}

// Print renders the static sheet, the same markup that is captured on export
// GET /sheet/print
func (h *PageHandler) Print(c *gin.Context) {
	doc, err := h.templates.RenderDocument(h.service.View(nil).CaptureCopy())
	if err != nil {
		h.renderFailed(c, "document", err)
		return
	}
	c.Data(http.StatusOK, htmlContentType, []byte(doc))
}

func (h *PageHandler) renderFailed(c *gin.Context, what string, err error) {
	logger.FromContext(c.Request.Context()).Error("failed to render "+what, zap.Error(err))
	c.Data(http.StatusInternalServerError, htmlContentType, []byte("<!DOCTYPE html><p>견적서를 표시할 수 없습니다.</p>"))
}
