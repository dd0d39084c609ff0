package storage

import (
	"context"
	"strings"
)

// Scoped prefixes every key of an underlying Store, giving each user an
// isolated keyspace on a shared backend. Callbacks receive unprefixed keys.
type Scoped struct {
	inner  Store
	prefix string
}

// NewScoped returns a view of inner whose keys live under "user:<id>/".
func NewScoped(inner Store, id string) *Scoped {
	return &Scoped{inner: inner, prefix: "user:" + id + "/"}
}

func (s *Scoped) Get(ctx context.Context, key string) ([]byte, error) {
	return s.inner.Get(ctx, s.prefix+key)
}

func (s *Scoped) Set(ctx context.Context, key string, value []byte) error {
	return s.inner.Set(ctx, s.prefix+key, value)
}

func (s *Scoped) Subscribe(key string, fn Callback) func() {
	return s.inner.Subscribe(s.prefix+key, func(k string, v []byte) {
		fn(strings.TrimPrefix(k, s.prefix), v)
	})
}

var _ Store = (*Scoped)(nil)
