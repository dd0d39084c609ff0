// Package storage defines the narrow key/value contract the progress and
// XP components persist through, plus shared helpers for its backends.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jayainhufs/coding-sam/internal/domain"
)

// ErrNotFound is returned by Get when the key has never been written.
var ErrNotFound = domain.ErrNotFound

// Callback receives the key and the value that was just written.
type Callback func(key string, value []byte)

// Store is a key/value store with synchronous change notification.
//
// Subscribers of a key are invoked in registration order after every
// successful Set of that key, on the writer's goroutine. Concurrent writers
// of the same key are last-write-wins.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Subscribe(key string, fn Callback) (cancel func())
}

// GetJSON loads key into v. It reports found=false, with a nil error, when
// the key is absent.
func GetJSON(ctx context.Context, s Store, key string, v any) (bool, error) {
	data, err := s.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("get %s: %w", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// SetJSON marshals v and stores it under key.
func SetJSON(ctx context.Context, s Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.Set(ctx, key, data); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}
