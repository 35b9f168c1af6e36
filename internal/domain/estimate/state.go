package estimate

import (
	"context"
	"time"

	"github.com/estimate/backend/internal/domain/catalog"
	"github.com/estimate/backend/internal/domain/partner"
)

// State is the whole working document: header, rows, supplier and the
// saved product catalog. It is owned by a single service and mutated one
// command at a time.
type State struct {
	Metadata Metadata
	Ledger   *Ledger
	Supplier partner.SupplierProfile
	Catalog  *catalog.Catalog
}

// DefaultState returns the state of a fresh store
func DefaultState(now time.Time) *State {
	return &State{
		Metadata: NewMetadata(now),
		Ledger:   NewLedger(),
		Catalog:  catalog.NewCatalog(),
	}
}

// Clone returns a deep copy safe to read outside the owner's lock
func (s *State) Clone() *State {
	return &State{
		Metadata: s.Metadata,
		Ledger:   s.Ledger.Clone(),
		Supplier: s.Supplier,
		Catalog:  s.Catalog.Clone(),
	}
}

// StateRepository loads and snapshots the working document
type StateRepository interface {
	// Load returns the persisted state. Sections that are missing or
	// unreadable come back with their defaults.
	Load(ctx context.Context) (*State, error)

	// Save writes every section of the state
	Save(ctx context.Context, state *State) error
}
