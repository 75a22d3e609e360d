// Package store provides the key-value persistence boundary for SkyCast.
// Every component that needs state to survive a restart goes through the
// Store interface; callers never see the backing engine.
package store

import (
	"context"
	"errors"
)

// Keys owned by SkyCast. The saved-locations collection is written only by
// the location registry; recent searches only by the history service.
const (
	KeySavedLocations = "skycast:saved_locations"
	KeyRecentSearches = "skycast:recent_searches"
)

// ErrNotFound is returned by GetItem when the key has no value.
var ErrNotFound = errors.New("store: key not found")

// Store is a minimal get/set/remove key-value interface. Writes are atomic
// at single-key granularity; there are no cross-key transactions.
type Store interface {
	GetItem(ctx context.Context, key string) (string, error)
	SetItem(ctx context.Context, key, value string) error
	RemoveItem(ctx context.Context, key string) error
}
