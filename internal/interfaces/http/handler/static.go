package handler

import (
	_ "embed"
	"net/http"

	"github.com/estimate/backend/internal/infrastructure/printing"
	"github.com/gin-gonic/gin"
)

//go:embed static/app.js
var appScript []byte

// StaticHandler serves the embedded script and stylesheet
type StaticHandler struct {
	stylesheet []byte
}

// NewStaticHandler creates a new StaticHandler
func NewStaticHandler() *StaticHandler {
	return &StaticHandler{stylesheet: printing.Stylesheet()}
}

// Script serves the page script
// GET /static/app.js
func (h *StaticHandler) Script(c *gin.Context) {
	c.Header("Cache-Control", "no-cache")
	c.Data(http.StatusOK, "text/javascript; charset=utf-8", appScript)
}

// Stylesheet serves the sheet stylesheet, shared with the export renderer
// GET /static/sheet.css
func (h *StaticHandler) Stylesheet(c *gin.Context) {
	c.Header("Cache-Control", "no-cache")
	c.Data(http.StatusOK, "text/css; charset=utf-8", h.stylesheet)
}
