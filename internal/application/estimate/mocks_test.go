package estimate

import (
	"context"
	"time"

	"github.com/estimate/backend/internal/domain/estimate"
	"github.com/estimate/backend/internal/infrastructure/printing"
	"github.com/stretchr/testify/mock"
)

var testNow = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

// MockStateRepository is a mock implementation of estimate.StateRepository
type MockStateRepository struct {
	mock.Mock
	saved []*estimate.State
}

func (m *MockStateRepository) Load(ctx context.Context) (*estimate.State, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*estimate.State), args.Error(1)
}

func (m *MockStateRepository) Save(ctx context.Context, state *estimate.State) error {
	args := m.Called(ctx, state)
	m.saved = append(m.saved, state.Clone())
	return args.Error(0)
}

// MockSealProcessor is a mock implementation of SealProcessor
type MockSealProcessor struct {
	mock.Mock
}

func (m *MockSealProcessor) Process(ctx context.Context, data []byte) (string, error) {
	args := m.Called(ctx, data)
	return args.String(0), args.Error(1)
}

// MockRasterizer is a mock implementation of printing.SheetRasterizer
type MockRasterizer struct {
	mock.Mock
}

func (m *MockRasterizer) Rasterize(ctx context.Context, sheet *printing.Sheet) (*printing.CaptureResult, error) {
	args := m.Called(ctx, sheet)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*printing.CaptureResult), args.Error(1)
}

func (m *MockRasterizer) Close() error {
	return m.Called().Error(0)
}

// MockExportArchive is a mock implementation of ExportArchive
type MockExportArchive struct {
	mock.Mock
}

func (m *MockExportArchive) Archive(ctx context.Context, fileName string, data []byte) (string, error) {
	args := m.Called(ctx, fileName, data)
	return args.String(0), args.Error(1)
}

// stubSource returns a fixed state
type stubSource struct {
	state *estimate.State
}

func (s stubSource) Snapshot() *estimate.State {
	return s.state.Clone()
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }
