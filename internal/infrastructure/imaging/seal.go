// Package imaging prepares uploaded seal (stamp) images for display on
// the estimate sheet.
package imaging

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	"image/png"
	"net/http"
	"runtime"
	"strings"

	_ "golang.org/x/image/bmp" // register BMP decoder
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff" // register TIFF decoder
	_ "golang.org/x/image/webp" // register WebP decoder
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultThreshold is the brightness above which a channel counts as white
	DefaultThreshold uint8 = 240

	// DefaultMaxBytes limits the size of an uploaded seal file
	DefaultMaxBytes int64 = 5 << 20

	// DefaultMaxPixels limits the decoded size of a seal image
	DefaultMaxPixels = 25_000_000

	// minBandRows keeps tiny images on a single goroutine
	minBandRows = 64
)

var (
	ErrEmptyImage       = errors.New("seal image is empty")
	ErrImageTooLarge    = errors.New("seal image is too large")
	ErrUnsupportedImage = errors.New("seal image format is not supported")
)

// SealProcessor turns uploaded image bytes into the data URI stored on the
// supplier profile. With background stripping enabled every near-white
// pixel becomes fully transparent and the result is re-encoded as PNG;
// otherwise the upload is stored unchanged.
type SealProcessor struct {
	stripWhiteBackground bool
	threshold            uint8
	maxBytes             int64
	maxPixels            int
	logger               *zap.Logger
}

// Option configures a SealProcessor
type Option func(*SealProcessor)

// WithStripWhiteBackground enables or disables the transparency pass
func WithStripWhiteBackground(enabled bool) Option {
	return func(p *SealProcessor) {
		p.stripWhiteBackground = enabled
	}
}

// WithThreshold sets the white threshold. A pixel is stripped when its
// red, green and blue channels are all strictly greater than it.
func WithThreshold(threshold uint8) Option {
	return func(p *SealProcessor) {
		p.threshold = threshold
	}
}

// WithMaxBytes sets the upload size limit
func WithMaxBytes(n int64) Option {
	return func(p *SealProcessor) {
		if n > 0 {
			p.maxBytes = n
		}
	}
}

// WithMaxPixels sets the decoded pixel count limit
func WithMaxPixels(n int) Option {
	return func(p *SealProcessor) {
		if n > 0 {
			p.maxPixels = n
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(p *SealProcessor) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewSealProcessor creates a processor. Background stripping is on by default.
func NewSealProcessor(opts ...Option) *SealProcessor {
	p := &SealProcessor{
		stripWhiteBackground: true,
		threshold:            DefaultThreshold,
		maxBytes:             DefaultMaxBytes,
		maxPixels:            DefaultMaxPixels,
		logger:               zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// StripsWhiteBackground reports whether the transparency pass is enabled
func (p *SealProcessor) StripsWhiteBackground() bool {
	return p.stripWhiteBackground
}

// Process validates the upload and returns the data URI to store
func (p *SealProcessor) Process(ctx context.Context, data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyImage
	}
	if int64(len(data)) > p.maxBytes {
		return "", fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrImageTooLarge, len(data), p.maxBytes)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return "", ErrEmptyImage
	}
	if cfg.Width*cfg.Height > p.maxPixels {
		return "", fmt.Errorf("%w: %dx%d pixels", ErrImageTooLarge, cfg.Width, cfg.Height)
	}

	if !p.stripWhiteBackground {
		mime := http.DetectContentType(data)
		if !strings.HasPrefix(mime, "image/") {
			mime = "image/" + format
		}
		p.logger.Debug("Storing seal image unmodified",
			zap.String("format", format),
			zap.String("mime", mime),
			zap.Int("bytes", len(data)),
		)
		return EncodeDataURI(mime, data), nil
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}

	out, err := StripWhiteBackground(ctx, src, p.threshold)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return "", fmt.Errorf("failed to encode seal image: %w", err)
	}

	p.logger.Debug("Seal image background stripped",
		zap.String("format", format),
		zap.Int("width", cfg.Width),
		zap.Int("height", cfg.Height),
		zap.Uint8("threshold", p.threshold),
		zap.Int("png_bytes", buf.Len()),
	)
	return EncodeDataURI("image/png", buf.Bytes()), nil
}

// StripWhiteBackground returns a non-premultiplied copy of src in which
// every pixel whose red, green and blue values all exceed threshold has
// alpha 0. Other pixels are copied unchanged. Rows are processed in
// parallel bands.
func StripWhiteBackground(ctx context.Context, src image.Image, threshold uint8) (*image.NRGBA, error) {
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)

	height := dst.Bounds().Dy()
	workers := runtime.GOMAXPROCS(0)
	bandRows := (height + workers - 1) / workers
	if bandRows < minBandRows {
		bandRows = minBandRows
	}

	g, gctx := errgroup.WithContext(ctx)
	for start := 0; start < height; start += bandRows {
		end := min(start+bandRows, height)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			stripRows(dst, start, end, threshold)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return dst, nil
}

func stripRows(img *image.NRGBA, startY, endY int, threshold uint8) {
	width := img.Bounds().Dx()
	for y := startY; y < endY; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+width*4]
		for i := 0; i < len(row); i += 4 {
			if row[i] > threshold && row[i+1] > threshold && row[i+2] > threshold {
				row[i+3] = 0
			}
		}
	}
}

// EncodeDataURI builds a base64 data URI
func EncodeDataURI(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodeDataURI splits a base64 data URI into its MIME type and payload
func DecodeDataURI(uri string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", nil, errors.New("not a data URI")
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, errors.New("malformed data URI")
	}
	mime, isBase64 := strings.CutSuffix(header, ";base64")
	if !isBase64 {
		return "", nil, errors.New("data URI is not base64 encoded")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("invalid data URI payload: %w", err)
	}
	return mime, data, nil
}

// DecodeDataURIImage decodes a data URI into an image
func DecodeDataURIImage(uri string) (image.Image, error) {
	_, data, err := DecodeDataURI(uri)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	return img, nil
}
