package shared

import "context"

// KeyValueStore is the flat string store the sheet state is snapshotted into.
// Each persisted section lives under its own key so a corrupt section never
// poisons the others.
type KeyValueStore interface {
	// Get returns the stored value and whether the key exists
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores value under key, replacing any previous value
	Set(ctx context.Context, key, value string) error

	// Delete removes key. Deleting a missing key is not an error
	Delete(ctx context.Context, key string) error

	// Close closes the store and releases resources
	Close() error
}
