package handler

import (
	"context"
	"net/http"
	"strings"
	"testing"

	estimateapp "github.com/estimate/backend/internal/application/estimate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPageApp(t *testing.T) *testApp {
	app := newTestApp(t)
	h := NewPageHandler(app.service, app.templates)
	app.engine.GET("/", h.Index)
	app.engine.GET("/sheet/table", h.Table)
	app.engine.GET("/sheet/print", h.Print)

	s := NewStaticHandler()
	app.engine.GET("/static/app.js", s.Script)
	app.engine.GET("/static/sheet.css", s.Stylesheet)
	return app
}

func TestPageHandler_Index(t *testing.T) {
	app := newPageApp(t)
	name := "<b>홍길동</b>"
	_, err := app.service.Dispatch(context.Background(), estimateapp.UpdateMetadataCommand{CustomerName: &name}, nil)
	require.NoError(t, err)

	w := app.do("GET", "/", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	body := w.Body.String()
	assert.Contains(t, body, `id="estimate-sheet"`)
	assert.Contains(t, body, `id="save-image-btn"`)
	assert.Contains(t, body, `/static/app.js`)
	assert.Contains(t, body, "&lt;b&gt;홍길동&lt;/b&gt;")
	assert.NotContains(t, body, "<b>홍길동</b>")
}

func TestPageHandler_Table(t *testing.T) {
	app := newPageApp(t)
	_, err := app.service.Dispatch(context.Background(), estimateapp.AddRowCommand{}, nil)
	require.NoError(t, err)

	w := app.do("GET", "/sheet/table", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, strings.Count(w.Body.String(), "<tr data-row-id="))
	assert.NotContains(t, w.Body.String(), "<html")
}

func TestPageHandler_Print(t *testing.T) {
	app := newPageApp(t)

	w := app.do("GET", "/sheet/print", nil)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `class="estimate-sheet capture"`)
	assert.NotContains(t, body, "<input")
	assert.NotContains(t, body, "<textarea")
}

func TestStaticHandler(t *testing.T) {
	app := newPageApp(t)

	w := app.do("GET", "/static/app.js", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/javascript; charset=utf-8", w.Header().Get("Content-Type"))
	script := w.Body.String()
	assert.Contains(t, script, "/sheet/items/apply-product")
	assert.Contains(t, script, "items.addEventListener('change'", "row edits are sent when committed")
	assert.NotContains(t, script, "items.addEventListener('input'")

	w = app.do("GET", "/static/sheet.css", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/css; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), ".estimate-sheet")
}
