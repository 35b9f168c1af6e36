package estimate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/estimate/backend/internal/domain/estimate"
	"github.com/estimate/backend/internal/infrastructure/printing"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	tracerName           = "github.com/estimate/backend/internal/application/estimate"
	defaultExportTimeout = 30 * time.Second
	archiveTimeout       = 30 * time.Second
)

// ErrExportFailed wraps every failure to produce an export image
var ErrExportFailed = errors.New("export failed")

// StateSource provides a consistent copy of the working document
type StateSource interface {
	Snapshot() *estimate.State
}

// ExportArchive keeps a copy of exported images
type ExportArchive interface {
	Archive(ctx context.Context, fileName string, data []byte) (string, error)
}

// ExportResult is a rendered export ready to download
type ExportResult struct {
	FileName string
	PNG      []byte
	Width    int
	Height   int
}

// ExportService renders the sheet to a PNG image
type ExportService struct {
	source      StateSource
	rasterizer  printing.SheetRasterizer
	archive     ExportArchive
	timeout     time.Duration
	defaultName string
	tracer      trace.Tracer
	logger      *zap.Logger
	archiving   sync.WaitGroup
}

// ExportServiceOption configures the ExportService
type ExportServiceOption func(*ExportService)

// WithExportTimeout bounds a single rasterization
func WithExportTimeout(d time.Duration) ExportServiceOption {
	return func(s *ExportService) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithArchive uploads a copy of every export in the background
func WithArchive(a ExportArchive) ExportServiceOption {
	return func(s *ExportService) {
		s.archive = a
	}
}

// WithDefaultFileName names exports of sheets without a customer
func WithDefaultFileName(name string) ExportServiceOption {
	return func(s *ExportService) {
		if strings.TrimSpace(name) != "" {
			s.defaultName = name
		}
	}
}

// WithExportLogger sets the export logger
func WithExportLogger(l *zap.Logger) ExportServiceOption {
	return func(s *ExportService) {
		s.logger = l
	}
}

// WithTracer overrides the global tracer
func WithTracer(t trace.Tracer) ExportServiceOption {
	return func(s *ExportService) {
		s.tracer = t
	}
}

// NewExportService creates an ExportService
func NewExportService(source StateSource, rasterizer printing.SheetRasterizer, opts ...ExportServiceOption) *ExportService {
	s := &ExportService{
		source:      source,
		rasterizer:  rasterizer,
		timeout:     defaultExportTimeout,
		defaultName: estimate.DefaultDocumentName,
		tracer:      otel.Tracer(tracerName),
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Export renders the static sheet and returns the image with its file name
func (s *ExportService) Export(ctx context.Context) (*ExportResult, error) {
	ctx, span := s.tracer.Start(ctx, "estimate.export")
	defer span.End()

	state := s.source.Snapshot()
	meta := state.Metadata
	if strings.TrimSpace(meta.CustomerName) == "" {
		meta.CustomerName = s.defaultName
	}
	fileName := meta.ExportFileName()
	sheet := Render(state, nil).CaptureCopy()

	span.SetAttributes(
		attribute.Int("estimate.rows", len(sheet.Rows)),
		attribute.String("estimate.file_name", fileName),
	)

	renderCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	captured, err := s.rasterizer.Rasterize(renderCtx, sheet)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "rasterize failed")
		s.logger.Error("sheet export failed", zap.String("file_name", fileName), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrExportFailed, err)
	}

	span.SetAttributes(attribute.Int("estimate.png_bytes", len(captured.PNG)))

	if s.archive != nil {
		s.archiveAsync(ctx, fileName, captured.PNG)
	}

	return &ExportResult{
		FileName: fileName,
		PNG:      captured.PNG,
		Width:    captured.Width,
		Height:   captured.Height,
	}, nil
}

// archiveAsync uploads in the background. Upload failures only log.
func (s *ExportService) archiveAsync(ctx context.Context, fileName string, data []byte) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), archiveTimeout)
	s.archiving.Add(1)
	go func() {
		defer s.archiving.Done()
		defer cancel()
		key, err := s.archive.Archive(ctx, fileName, data)
		if err != nil {
			s.logger.Warn("failed to archive export", zap.String("file_name", fileName), zap.Error(err))
			return
		}
		s.logger.Info("export archived", zap.String("key", key))
	}()
}

// Close waits for pending archive uploads and releases the rasterizer
func (s *ExportService) Close() error {
	s.archiving.Wait()
	return s.rasterizer.Close()
}
