package estimate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/estimate/backend/internal/domain/catalog"
	"github.com/estimate/backend/internal/domain/estimate"
	"github.com/estimate/backend/internal/domain/partner"
	"github.com/estimate/backend/internal/infrastructure/logger"
	"github.com/estimate/backend/internal/infrastructure/printing"
	"go.uber.org/zap"
)

// SealProcessor turns an uploaded image into the data URI that is stored
type SealProcessor interface {
	Process(ctx context.Context, data []byte) (string, error)
}

// Result is the outcome of a dispatched command
type Result struct {
	// View is the sheet after the command
	View *printing.Sheet
	// Rerender is false when the client should keep its current DOM
	Rerender bool
}

// SupplierInput is the supplier form. SealUpload holds the raw bytes of a
// newly uploaded seal image, empty when none was chosen.
type SupplierInput struct {
	CompanyName   string
	ContactPerson string
	Phone         string
	SealUpload    []byte
}

// Service owns the working document. Commands run one at a time and every
// successful command is followed by a snapshot to the repository.
type Service struct {
	mu     sync.Mutex
	state  *estimate.State
	repo   estimate.StateRepository
	seal   SealProcessor
	logger *zap.Logger
}

// ServiceOption configures the Service
type ServiceOption func(*Service)

// WithLogger sets the service logger
func WithLogger(l *zap.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = l
	}
}

// NewService loads the persisted state and returns a ready service
func NewService(ctx context.Context, repo estimate.StateRepository, seal SealProcessor, opts ...ServiceOption) (*Service, error) {
	if repo == nil {
		return nil, errors.New("state repository is required")
	}
	if seal == nil {
		return nil, errors.New("seal processor is required")
	}

	s := &Service{
		repo:   repo,
		seal:   seal,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	state, err := repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load estimate state: %w", err)
	}
	s.state = state

	s.logger.Info("estimate state loaded",
		zap.Int("rows", state.Ledger.Len()),
		zap.Int("products", state.Catalog.Len()),
		zap.Bool("has_seal", state.Supplier.HasSeal()))

	return s, nil
}

// Dispatch applies a command, snapshots the state and renders the sheet.
// A failed command leaves the state untouched and is not snapshotted.
func (s *Service) Dispatch(ctx context.Context, cmd Command, focus *Focus) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := s.requestLogger(ctx).With(zap.String("command", cmd.Name()))

	rerender, err := cmd.Apply(s.state)
	if err != nil {
		log.Debug("command rejected", zap.Error(err))
		return nil, err
	}

	s.snapshot(ctx, log)

	return &Result{
		View:     Render(s.state, focus),
		Rerender: rerender,
	}, nil
}

// snapshot persists the state. Failures are logged and do not fail the
// command; the next successful snapshot writes everything again.
func (s *Service) snapshot(ctx context.Context, log *zap.Logger) {
	start := time.Now()
	if err := s.repo.Save(context.WithoutCancel(ctx), s.state); err != nil {
		log.Error("failed to snapshot estimate state", zap.Error(err))
		return
	}
	log.Debug("estimate state saved", zap.Duration("elapsed", time.Since(start)))
}

func (s *Service) requestLogger(ctx context.Context) *zap.Logger {
	log := s.logger
	if id := logger.GetRequestID(ctx); id != "" {
		log = log.With(zap.String("request_id", id))
	}
	return logger.WithTraceContext(ctx, log)
}

// View renders the current sheet
func (s *Service) View(focus *Focus) *printing.Sheet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Render(s.state, focus)
}

// Snapshot returns a copy of the state that is safe to read without the lock
func (s *Service) Snapshot() *estimate.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Supplier returns the current supplier profile
func (s *Service) Supplier() partner.SupplierProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Supplier
}

// Products returns the saved products in insertion order
func (s *Service) Products() []catalog.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Catalog.Products()
}

// SaveSupplier processes an uploaded seal, if any, and saves the supplier
// profile. The image is processed before the state lock is taken.
func (s *Service) SaveSupplier(ctx context.Context, input SupplierInput) (*Result, error) {
	cmd := SaveSupplierCommand{
		CompanyName:   input.CompanyName,
		ContactPerson: input.ContactPerson,
		Phone:         input.Phone,
	}
	if len(input.SealUpload) > 0 {
		uri, err := s.seal.Process(ctx, input.SealUpload)
		if err != nil {
			return nil, err
		}
		cmd.SealImage = &uri
	}
	return s.Dispatch(ctx, cmd, nil)
}

// PreviewSeal runs the seal processing without saving anything
func (s *Service) PreviewSeal(ctx context.Context, data []byte) (string, error) {
	return s.seal.Process(ctx, data)
}
