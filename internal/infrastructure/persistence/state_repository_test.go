package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/estimate/backend/internal/domain/estimate"
	"github.com/estimate/backend/internal/domain/shared/valueobject"
	"github.com/estimate/backend/internal/infrastructure/cache"
	"github.com/estimate/backend/internal/infrastructure/config"
	"github.com/estimate/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var fixedNow = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

func newTestRepository(t *testing.T) (*StateRepository, *cache.InMemoryKeyValueStore) {
	t.Helper()
	store := cache.NewInMemoryKeyValueStore()
	repo := NewStateRepository(store,
		WithRepositoryLogger(zaptest.NewLogger(t)),
		WithClock(func() time.Time { return fixedNow }),
	)
	return repo, store
}

func TestStateRepository_LoadEmptyStore(t *testing.T) {
	repo, _ := newTestRepository(t)

	state, err := repo.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "2026-05-01", state.Metadata.IssueDate)
	assert.Equal(t, 1, state.Ledger.Len())
	assert.False(t, state.Supplier.HasSeal())
	assert.Equal(t, 0, state.Catalog.Len())
}

func TestStateRepository_SaveLoadRoundTrip(t *testing.T) {
	repo, store := newTestRepository(t)
	ctx := context.Background()

	state := estimate.DefaultState(fixedNow)
	state.Metadata.CustomerName = "홍길동"
	state.Metadata.Remarks = "line 1\nline 2"
	require.NoError(t, state.Ledger.UpdateField(0, estimate.FieldName, "Pipe"))
	require.NoError(t, state.Ledger.UpdateField(0, estimate.FieldQuantity, "2"))
	require.NoError(t, state.Ledger.UpdateField(0, estimate.FieldPrice, "1,500"))
	state.Ledger.AddRow()
	seal := "data:image/png;base64,AAAA"
	state.Supplier.Save("Co", "Kim", "010", &seal)
	_, err := state.Catalog.Add("Widget", decimal.NewFromInt(1000))
	require.NoError(t, err)

	require.NoError(t, repo.Save(ctx, state))
	assert.Equal(t, 4, store.Size())

	loaded, err := repo.Load(ctx)
	require.NoError(t, err)

	assert.Equal(t, state.Metadata, loaded.Metadata)
	assert.Equal(t, state.Ledger.Items(), loaded.Ledger.Items())
	assert.Equal(t, state.Supplier, loaded.Supplier)
	assert.Equal(t, state.Catalog.Products(), loaded.Catalog.Products())
}

func TestStateRepository_StoredShape(t *testing.T) {
	repo, store := newTestRepository(t)
	ctx := context.Background()

	state := estimate.DefaultState(fixedNow)
	require.NoError(t, repo.Save(ctx, state))

	raw, ok, err := store.Get(ctx, models.KeyEstimateState)
	require.NoError(t, err)
	require.True(t, ok)

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	assert.Equal(t, "", doc["customerName"])
	assert.Equal(t, "2026-05-01", doc["issueDate"])
	items := doc["items"].([]any)
	require.Len(t, items, 1)
	item := items[0].(map[string]any)
	assert.Equal(t, "", item["qty"])
	assert.Equal(t, "", item["price"])

	_, ok, err = store.Get(ctx, models.KeySealImage)
	require.NoError(t, err)
	assert.False(t, ok, "seal key is only written when a seal exists")
}

func TestStateRepository_RemovedSealIsDeleted(t *testing.T) {
	repo, store := newTestRepository(t)
	ctx := context.Background()

	state := estimate.DefaultState(fixedNow)
	seal := "data:image/png;base64,AAAA"
	state.Supplier.Save("Co", "", "", &seal)
	require.NoError(t, repo.Save(ctx, state))

	state.Supplier.RemoveSeal()
	require.NoError(t, repo.Save(ctx, state))

	_, ok, _ := store.Get(ctx, models.KeySealImage)
	assert.False(t, ok)
}

func TestStateRepository_LoadsLooselyTypedRecords(t *testing.T) {
	repo, store := newTestRepository(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, models.KeyEstimateState,
		`{"customerName":"ACME","remarks":"","issueDate":"2024-01-02",`+
			`"items":[{"id":1717000000000,"name":"Bolt","qty":"3","price":2500},`+
			`{"id":1717000000001,"name":"","qty":"","price":""}]}`))
	require.NoError(t, store.Set(ctx, models.KeySupplierInfo,
		`{"company":"Co","contactPerson":"Lee","phone":"02-000"}`))
	require.NoError(t, store.Set(ctx, models.KeySavedProducts,
		`[{"name":"Bolt","price":2500},{"name":"Nut","price":100}]`))

	state, err := repo.Load(ctx)
	require.NoError(t, err)

	assert.Equal(t, "ACME", state.Metadata.CustomerName)
	assert.Equal(t, "2024-01-02", state.Metadata.IssueDate)
	items := state.Ledger.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "1717000000000", items[0].ID)
	assert.Equal(t, "3", items[0].Quantity)
	assert.True(t, items[0].UnitPrice.Equal(valueobject.NewNumber(decimal.NewFromInt(2500))))
	assert.True(t, items[1].IsBlank())
	assert.True(t, state.Ledger.Totals().GrandTotal.Equal(decimal.NewFromInt(7500)))
	assert.Equal(t, "Lee", state.Supplier.ContactPerson)
	assert.Equal(t, 2, state.Catalog.Len())
}

func TestStateRepository_PartialAndMalformedSections(t *testing.T) {
	t.Run("missing fields keep defaults", func(t *testing.T) {
		repo, store := newTestRepository(t)
		ctx := context.Background()
		require.NoError(t, store.Set(ctx, models.KeyEstimateState, `{"customerName":"Only name"}`))

		state, err := repo.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, "Only name", state.Metadata.CustomerName)
		assert.Equal(t, "2026-05-01", state.Metadata.IssueDate)
		assert.Equal(t, 1, state.Ledger.Len())
	})

	t.Run("empty items become one blank row", func(t *testing.T) {
		repo, store := newTestRepository(t)
		ctx := context.Background()
		require.NoError(t, store.Set(ctx, models.KeyEstimateState, `{"items":[]}`))

		state, err := repo.Load(ctx)
		require.NoError(t, err)
		require.Equal(t, 1, state.Ledger.Len())
		item, _ := state.Ledger.Item(0)
		assert.True(t, item.IsBlank())
	})

	t.Run("malformed section falls back without touching others", func(t *testing.T) {
		repo, store := newTestRepository(t)
		ctx := context.Background()
		require.NoError(t, store.Set(ctx, models.KeyEstimateState, `{"customerName":`))
		require.NoError(t, store.Set(ctx, models.KeySupplierInfo, `{"company":"Kept"}`))
		require.NoError(t, store.Set(ctx, models.KeySavedProducts, `"not a list"`))

		state, err := repo.Load(ctx)
		require.NoError(t, err)
		assert.Empty(t, state.Metadata.CustomerName)
		assert.Equal(t, 1, state.Ledger.Len())
		assert.Equal(t, "Kept", state.Supplier.CompanyName)
		assert.Equal(t, 0, state.Catalog.Len())
	})
}

// failingStore fails every operation
type failingStore struct{}

func (failingStore) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("store down")
}
func (failingStore) Set(context.Context, string, string) error { return errors.New("store down") }
func (failingStore) Delete(context.Context, string) error      { return errors.New("store down") }
func (failingStore) Close() error                              { return nil }

func TestStateRepository_StoreErrors(t *testing.T) {
	repo := NewStateRepository(&failingStore{})
	ctx := context.Background()

	_, err := repo.Load(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store down")

	err = repo.Save(ctx, estimate.DefaultState(fixedNow))
	require.Error(t, err)
	assert.Contains(t, err.Error(), models.KeyEstimateState)
	assert.Contains(t, err.Error(), models.KeySavedProducts)
}

func TestNewKeyValueStore(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		cfg := &config.Config{Storage: config.StorageConfig{Driver: config.StorageMemory}}
		store, err := NewKeyValueStore(cfg, zaptest.NewLogger(t))
		require.NoError(t, err)
		_, ok := store.(*cache.InMemoryKeyValueStore)
		assert.True(t, ok)
	})

	t.Run("sqlite", func(t *testing.T) {
		cfg := &config.Config{
			Log:     config.LogConfig{Level: "warn"},
			Storage: config.StorageConfig{Driver: config.StorageSQLite, SQLitePath: SQLiteMemoryPath},
		}
		store, err := NewKeyValueStore(cfg, zaptest.NewLogger(t))
		require.NoError(t, err)
		defer store.Close()
		_, ok := store.(*GormKeyValueStore)
		assert.True(t, ok)
	})

	t.Run("unknown driver", func(t *testing.T) {
		cfg := &config.Config{Storage: config.StorageConfig{Driver: "etcd"}}
		_, err := NewKeyValueStore(cfg, nil)
		assert.Error(t, err)
	})
}
