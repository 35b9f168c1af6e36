package printing

import (
	"bytes"
	"embed"
	"html/template"
	"io"
	"maps"
	"strings"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed assets/sheet.css
var stylesheet []byte

// Template names
const (
	TemplatePage        = "page"
	TemplateSheetTable  = "sheet_table"
	TemplateProductList = "product_list"
	TemplateDocument    = "document"
)

const defaultDocumentTitle = "견적서"

// Stylesheet returns the sheet CSS shared by the page and the capture document
func Stylesheet() []byte {
	return stylesheet
}

// TemplateEngine renders the sheet templates embedded in the binary.
// Templates are parsed once; rendering is safe for concurrent use.
type TemplateEngine struct {
	funcMap   template.FuncMap
	templates *template.Template
}

// TemplateEngineOption configures the template engine
type TemplateEngineOption func(*TemplateEngine)

// WithTemplateFuncs adds or overrides template functions
func WithTemplateFuncs(funcs template.FuncMap) TemplateEngineOption {
	return func(e *TemplateEngine) {
		maps.Copy(e.funcMap, funcs)
	}
}

// NewTemplateEngine parses the embedded templates
func NewTemplateEngine(opts ...TemplateEngineOption) (*TemplateEngine, error) {
	e := &TemplateEngine{}

	e.funcMap = template.FuncMap{
		"sealURL":       sealURL,
		"focusOf":       focusOf,
		"documentTitle": documentTitle,
		"stylesheet":    func() template.CSS { return template.CSS(stylesheet) },
	}

	for _, opt := range opts {
		opt(e)
	}

	tmpl, err := template.New("estimate").Funcs(e.funcMap).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, NewRenderError(ErrCodeTemplateFailed, "failed to parse templates", err)
	}
	e.templates = tmpl

	return e, nil
}

// RenderPage writes the full interactive page
func (e *TemplateEngine) RenderPage(w io.Writer, sheet *Sheet) error {
	return e.execute(w, TemplatePage, sheet)
}

// RenderTable writes the table body rows only
func (e *TemplateEngine) RenderTable(w io.Writer, sheet *Sheet) error {
	return e.execute(w, TemplateSheetTable, sheet)
}

// RenderTableString renders the table body rows to a string
func (e *TemplateEngine) RenderTableString(sheet *Sheet) (string, error) {
	var buf bytes.Buffer
	if err := e.RenderTable(&buf, sheet); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderProductList writes the catalog list items
func (e *TemplateEngine) RenderProductList(w io.Writer, products []ProductLine) error {
	if products == nil {
		products = []ProductLine{}
	}
	return e.execute(w, TemplateProductList, products)
}

// RenderDocument renders a standalone document with the stylesheet inlined
// and no scripts. Pass sheet.CaptureCopy() for the static printable form.
func (e *TemplateEngine) RenderDocument(sheet *Sheet) (string, error) {
	var buf bytes.Buffer
	if err := e.execute(&buf, TemplateDocument, sheet); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (e *TemplateEngine) execute(w io.Writer, name string, data any) error {
	if sheet, ok := data.(*Sheet); ok && sheet == nil {
		return NewRenderError(ErrCodeInvalidSheet, "sheet is nil", nil)
	}
	if err := e.templates.ExecuteTemplate(w, name, data); err != nil {
		return NewRenderError(ErrCodeTemplateFailed, "failed to execute template "+name, err)
	}
	return nil
}

// sealURL only lets inline images through to src attributes
func sealURL(s string) template.URL {
	if !strings.HasPrefix(s, "data:image/") {
		return ""
	}
	return template.URL(s)
}

// focusHint carries the attributes the client uses to restore focus
type focusHint struct {
	Start, End       int
	HasStart, HasEnd bool
}

func focusOf(sheet *Sheet, index int, field string) *focusHint {
	if sheet == nil || !sheet.Interactive || !sheet.IsFocused(index, field) {
		return nil
	}
	hint := &focusHint{}
	if sheet.Focus.SelectionStart != nil {
		hint.Start, hint.HasStart = *sheet.Focus.SelectionStart, true
	}
	if sheet.Focus.SelectionEnd != nil {
		hint.End, hint.HasEnd = *sheet.Focus.SelectionEnd, true
	}
	return hint
}

func documentTitle(sheet *Sheet) string {
	if sheet == nil || strings.TrimSpace(sheet.CustomerName) == "" {
		return defaultDocumentTitle
	}
	return sheet.CustomerName + " - " + defaultDocumentTitle
}
