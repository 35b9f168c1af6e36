package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/estimate/backend/internal/domain/estimate"
	"github.com/estimate/backend/internal/domain/shared"
	"github.com/estimate/backend/internal/infrastructure/persistence/models"
	"go.uber.org/zap"
)

// StateRepository implements estimate.StateRepository on a key-value store.
// Each section is stored under its own key and loaded independently: a
// missing or unreadable section falls back to its default without
// affecting the others.
type StateRepository struct {
	store  shared.KeyValueStore
	logger *zap.Logger
	now    func() time.Time
}

// StateRepositoryOption configures a StateRepository
type StateRepositoryOption func(*StateRepository)

// WithRepositoryLogger sets the logger used for recovered load failures
func WithRepositoryLogger(logger *zap.Logger) StateRepositoryOption {
	return func(r *StateRepository) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithClock sets the clock used for the default issue date
func WithClock(now func() time.Time) StateRepositoryOption {
	return func(r *StateRepository) {
		if now != nil {
			r.now = now
		}
	}
}

// NewStateRepository creates a repository over store
func NewStateRepository(store shared.KeyValueStore, opts ...StateRepositoryOption) *StateRepository {
	r := &StateRepository{
		store:  store,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Load reads all four sections. Only store errors are returned; malformed
// data is logged and replaced by defaults.
func (r *StateRepository) Load(ctx context.Context) (*estimate.State, error) {
	state := estimate.DefaultState(r.now())

	var rec models.EstimateStateRecord
	found, err := r.readJSON(ctx, models.KeyEstimateState, &rec)
	if err != nil {
		return nil, err
	}
	if found {
		state.Ledger = rec.ApplyTo(&state.Metadata)
	}

	var supplier models.SupplierInfoRecord
	found, err = r.readJSON(ctx, models.KeySupplierInfo, &supplier)
	if err != nil {
		return nil, err
	}
	if found {
		state.Supplier = supplier.ToDomain()
	}

	seal, found, err := r.store.Get(ctx, models.KeySealImage)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", models.KeySealImage, err)
	}
	if found {
		state.Supplier.SealImage = seal
	}

	var products []models.ProductRecord
	found, err = r.readJSON(ctx, models.KeySavedProducts, &products)
	if err != nil {
		return nil, err
	}
	if found {
		state.Catalog = models.ProductsToDomain(products)
	}

	return state, nil
}

// Save writes every section. A failed key does not stop the remaining
// writes; all failures are returned together.
func (r *StateRepository) Save(ctx context.Context, state *estimate.State) error {
	var errs []error

	errs = append(errs, r.writeJSON(ctx, models.KeyEstimateState,
		models.NewEstimateStateRecord(state.Metadata, state.Ledger)))
	errs = append(errs, r.writeJSON(ctx, models.KeySupplierInfo,
		models.NewSupplierInfoRecord(state.Supplier)))

	if state.Supplier.HasSeal() {
		errs = append(errs, r.store.Set(ctx, models.KeySealImage, state.Supplier.SealImage))
	} else {
		errs = append(errs, r.store.Delete(ctx, models.KeySealImage))
	}

	errs = append(errs, r.writeJSON(ctx, models.KeySavedProducts,
		models.NewProductRecords(state.Catalog)))

	return errors.Join(errs...)
}

// readJSON decodes key into v. Undecodable data is reported as not found.
func (r *StateRepository) readJSON(ctx context.Context, key string, v any) (bool, error) {
	raw, found, err := r.store.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("failed to load %s: %w", key, err)
	}
	if !found || raw == "" {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		r.logger.Warn("Discarding malformed persisted section",
			zap.String("key", key),
			zap.Error(err),
		)
		return false, nil
	}
	return true, nil
}

func (r *StateRepository) writeJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := r.store.Set(ctx, key, string(data)); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}

// Ensure StateRepository implements estimate.StateRepository
var _ estimate.StateRepository = (*StateRepository)(nil)
