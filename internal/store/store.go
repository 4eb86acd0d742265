// Package store is the key/value persistence used by the pantry, the weekly
// plan and the shopping list. Each feature owns one key and rewrites its whole
// collection on every change; the last write wins.
package store

import (
	"context"
	"encoding/json"
	"fmt"
)

// Keys owned by the list features.
const (
	KeyPantry   = "miam_pantry"
	KeyPlan     = "miam_plan"
	KeyShopping = "miam_shopping"
)

// Store is a flat namespace of string keys to JSON documents.
type Store interface {
	// Get returns the raw value and whether the key exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set replaces the value stored under key.
	Set(ctx context.Context, key string, value []byte) error
}

// Load decodes the value under key into dst. A missing key leaves dst
// untouched so the caller's zero value stands for an empty collection.
func Load[T any](ctx context.Context, s Store, key string, dst *T) error {
	raw, ok, err := s.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", key, err)
	}
	if !ok {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return nil
}

// Save encodes v as JSON and stores it under key.
func Save[T any](ctx context.Context, s Store, key string, v T) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	if err := s.Set(ctx, key, raw); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}
