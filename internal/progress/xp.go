package progress

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jayainhufs/coding-sam/internal/storage"
)

// XP is the accumulated experience counter of one user. It only grows.
type XP struct {
	mu    sync.Mutex
	store storage.Store
}

// NewXP creates an XP counter over store.
func NewXP(store storage.Store) *XP {
	return &XP{store: store}
}

// Total returns the stored XP, 0 if nothing was stored yet.
func (x *XP) Total(ctx context.Context) (int, error) {
	var total int
	if _, err := storage.GetJSON(ctx, x.store, KeyXP, &total); err != nil {
		return 0, err
	}
	return max(0, total), nil
}

// Add adds delta and returns the new total. Negative deltas are clamped to
// 0 so XP is never decremented; subscribers are notified on every write.
func (x *XP) Add(ctx context.Context, delta int) (int, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	cur, err := x.Total(ctx)
	if err != nil {
		return 0, fmt.Errorf("read xp: %w", err)
	}

	next := cur + max(0, delta)
	if err := storage.SetJSON(ctx, x.store, KeyXP, next); err != nil {
		return 0, fmt.Errorf("write xp: %w", err)
	}

	slog.Debug("xp added", "delta", delta, "total", next)
	return next, nil
}

// Level returns the level for the current total.
func (x *XP) Level(ctx context.Context) (Level, error) {
	total, err := x.Total(ctx)
	if err != nil {
		return Level{}, err
	}
	return XPToLevel(total), nil
}

// OnChange calls fn with the new total after every write.
func (x *XP) OnChange(fn func(total int)) (cancel func()) {
	return x.store.Subscribe(KeyXP, func(_ string, value []byte) {
		var total int
		if err := json.Unmarshal(value, &total); err != nil {
			slog.Warn("ignoring malformed xp value", "error", err)
			return
		}
		fn(total)
	})
}
