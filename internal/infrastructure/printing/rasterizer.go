package printing

import (
	"context"
	"time"
)

// DefaultScale is the device pixel ratio used for exported images
const DefaultScale = 2.0

// CaptureResult contains the output from rasterizing a sheet
type CaptureResult struct {
	// PNG is the encoded image
	PNG []byte
	// Width and Height are the pixel dimensions of the image
	Width  int
	Height int
	// RenderDuration is how long the rasterization took
	RenderDuration time.Duration
}

// SheetRasterizer renders a sheet view model to a PNG image
type SheetRasterizer interface {
	// Rasterize draws the sheet. Implementations render the static form of
	// the sheet regardless of its Interactive flag.
	Rasterize(ctx context.Context, sheet *Sheet) (*CaptureResult, error)
	// Close releases any resources held by the rasterizer
	Close() error
}

// RenderError represents an error during page rendering or rasterization
type RenderError struct {
	Code    string
	Message string
	Cause   error
}

func (e *RenderError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}

// Error codes for rendering failures
const (
	ErrCodeRenderTimeout   = "RENDER_TIMEOUT"
	ErrCodeRenderFailed    = "RENDER_FAILED"
	ErrCodeInvalidSheet    = "INVALID_SHEET"
	ErrCodeTemplateFailed  = "TEMPLATE_FAILED"
	ErrCodeFontUnavailable = "FONT_UNAVAILABLE"
	ErrCodeEncodeFailed    = "ENCODE_FAILED"
)

// NewRenderError creates a new RenderError
func NewRenderError(code, message string, cause error) *RenderError {
	return &RenderError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}
