package printing

import (
	"bytes"
	"errors"
	"html/template"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplateEngine_RenderPage(t *testing.T) {
	engine := newTestEngine(t)
	var buf bytes.Buffer

	require.NoError(t, engine.RenderPage(&buf, sampleSheet()))
	html := buf.String()

	assert.Contains(t, html, "<!DOCTYPE html>")
	assert.Contains(t, html, "<title>홍길동 - 견적서</title>")
	assert.Contains(t, html, `id="estimate-sheet"`)
	assert.Contains(t, html, `id="customer-name" class="meta-input" value="홍길동"`)
	assert.Contains(t, html, `data-index="1" data-field="price" value="2,000"`)
	assert.Contains(t, html, `<span id="total-amount">8,000</span>`)
	assert.Contains(t, html, "Widget (1,000원)")
	assert.Contains(t, html, `/static/app.js`)
	assert.NotContains(t, html, "autofocus")
}

func TestTemplateEngine_RenderTable(t *testing.T) {
	engine := newTestEngine(t)

	html, err := engine.RenderTableString(sampleSheet())
	require.NoError(t, err)

	assert.Equal(t, 2, strings.Count(html, "<tr "))
	assert.Contains(t, html, `<td class="col-no">1</td>`)
	assert.Contains(t, html, `<td class="col-amount">6,000</td>`)
	assert.Contains(t, html, `class="delete-item-btn" data-index="1"`)
	assert.NotContains(t, html, "<html")
}

func TestTemplateEngine_FocusAttributes(t *testing.T) {
	engine := newTestEngine(t)
	s := sampleSheet()
	s.Focus = &FocusTarget{Index: 1, Field: FieldQuantity, SelectionStart: intPtr(1), SelectionEnd: intPtr(1)}

	html, err := engine.RenderTableString(s)
	require.NoError(t, err)

	assert.Equal(t, 1, strings.Count(html, "autofocus"))
	assert.Contains(t, html, `data-index="1" data-field="qty" value="3" placeholder="0" autofocus data-focus="true" data-selection-start="1" data-selection-end="1"`)

	s.Focus = &FocusTarget{Index: 0, Field: FieldName}
	html, err = engine.RenderTableString(s)
	require.NoError(t, err)
	assert.Contains(t, html, `data-field="name" value="Widget" autofocus data-focus="true">`)
}

func TestTemplateEngine_EscapesUserText(t *testing.T) {
	engine := newTestEngine(t)
	s := sampleSheet()
	s.Rows[0].Name = `"><script>alert(1)</script>`
	s.Remarks = "<b>bold</b>"

	var buf bytes.Buffer
	require.NoError(t, engine.RenderPage(&buf, s))

	assert.NotContains(t, buf.String(), "<script>alert(1)</script>")
	assert.NotContains(t, buf.String(), "<b>bold</b>")
}

func TestTemplateEngine_SealImage(t *testing.T) {
	engine := newTestEngine(t)
	s := sampleSheet()

	s.Supplier.SealImage = "data:image/png;base64,iVBORw0KGgo="
	var buf bytes.Buffer
	require.NoError(t, engine.RenderPage(&buf, s))
	assert.Contains(t, buf.String(), `id="seal-image-display" class="seal" src="data:image/png;base64,iVBORw0KGgo="`)

	s.Supplier.SealImage = "javascript:alert(1)"
	buf.Reset()
	require.NoError(t, engine.RenderPage(&buf, s))
	assert.NotContains(t, buf.String(), "javascript:")
}

func TestTemplateEngine_RenderDocument_Static(t *testing.T) {
	engine := newTestEngine(t)
	s := sampleSheet()
	s.Focus = &FocusTarget{Index: 0, Field: FieldName}

	html, err := engine.RenderDocument(s.CaptureCopy())
	require.NoError(t, err)

	assert.Contains(t, html, "<style>")
	assert.Contains(t, html, ".estimate-sheet")
	assert.Contains(t, html, `class="estimate-sheet capture"`)
	assert.NotContains(t, html, "<input")
	assert.NotContains(t, html, "<textarea")
	assert.NotContains(t, html, "<button")
	assert.NotContains(t, html, "<script")
	assert.Contains(t, html, `<span class="item-name-input">Widget</span>`)
	assert.Contains(t, html, `<span class="remarks-input pre-wrap">납기 2주`)
	assert.Contains(t, html, `<th class="col-action print-hide"></th>`)
}

func TestTemplateEngine_RenderDocument_Interactive(t *testing.T) {
	engine := newTestEngine(t)

	html, err := engine.RenderDocument(sampleSheet())
	require.NoError(t, err)

	assert.Contains(t, html, "<input")
	assert.NotContains(t, html, "<script")
}

func TestTemplateEngine_RenderProductList(t *testing.T) {
	engine := newTestEngine(t)
	var buf bytes.Buffer

	require.NoError(t, engine.RenderProductList(&buf, []ProductLine{
		{Name: "A", Price: "1,500", Label: "A (1,500원)"},
		{Name: "B", Price: "10", Label: "B (10원)"},
	}))

	assert.Equal(t, 2, strings.Count(buf.String(), "<li "))
	assert.Contains(t, buf.String(), `data-name="B"`)

	buf.Reset()
	require.NoError(t, engine.RenderProductList(&buf, nil))
	assert.NotContains(t, buf.String(), "<li")
}

func TestTemplateEngine_NilSheet(t *testing.T) {
	engine := newTestEngine(t)

	err := engine.RenderTable(&bytes.Buffer{}, nil)

	var renderErr *RenderError
	require.True(t, errors.As(err, &renderErr))
	assert.Equal(t, ErrCodeInvalidSheet, renderErr.Code)
}

func TestTemplateEngine_WithTemplateFuncs(t *testing.T) {
	engine, err := NewTemplateEngine(WithTemplateFuncs(template.FuncMap{
		"documentTitle": func(*Sheet) string { return "custom" },
	}))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, engine.RenderPage(&buf, sampleSheet()))
	assert.Contains(t, buf.String(), "<title>custom</title>")
}

func TestDocumentTitle(t *testing.T) {
	assert.Equal(t, "견적서", documentTitle(nil))
	assert.Equal(t, "견적서", documentTitle(&Sheet{CustomerName: "  "}))
	assert.Equal(t, "ACME - 견적서", documentTitle(&Sheet{CustomerName: "ACME"}))
}

func TestRenderError(t *testing.T) {
	cause := errors.New("boom")
	err := NewRenderError(ErrCodeRenderFailed, "capture failed", cause)

	assert.Equal(t, "capture failed: boom", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "capture failed", NewRenderError(ErrCodeRenderFailed, "capture failed", nil).Error())
}
