package storage

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryStore_GetMissing(t *testing.T) {
	s := NewMemoryStore()
	if _, err := s.Get(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v; want ErrNotFound", err)
	}
}

func TestMemoryStore_SetNotifiesInOrder(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	var calls []string
	s.Subscribe("xp", func(key string, value []byte) {
		calls = append(calls, "first:"+string(value))
	})
	s.Subscribe("xp", func(key string, value []byte) {
		calls = append(calls, "second:"+string(value))
	})
	s.Subscribe("other", func(key string, value []byte) {
		calls = append(calls, "other")
	})

	if err := s.Set(ctx, "xp", []byte("42")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	want := []string{"first:42", "second:42"}
	if len(calls) != len(want) {
		t.Fatalf("calls = %v; want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("calls[%d] = %q; want %q", i, calls[i], want[i])
		}
	}
}

func TestMemoryStore_CallbackCanReadNewValue(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	var seen string
	s.Subscribe("k", func(key string, _ []byte) {
		v, err := s.Get(ctx, key)
		if err != nil {
			t.Errorf("Get() in callback error = %v", err)
			return
		}
		seen = string(v)
	})

	if err := s.Set(ctx, "k", []byte(`"v2"`)); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if seen != `"v2"` {
		t.Errorf("seen = %s; want \"v2\"", seen)
	}
}

func TestNotifier_Cancel(t *testing.T) {
	var n Notifier
	count := 0
	cancel := n.Subscribe("k", func(string, []byte) { count++ })

	n.Notify("k", nil)
	cancel()
	cancel()
	n.Notify("k", nil)

	if count != 1 {
		t.Errorf("count = %d; want 1", count)
	}
	if n.Count("k") != 0 {
		t.Errorf("Count() = %d; want 0", n.Count("k"))
	}
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	type rec struct {
		Attempts int `json:"attempts"`
	}

	var got rec
	found, err := GetJSON(ctx, s, "r", &got)
	if err != nil || found {
		t.Fatalf("GetJSON() on missing = (%v, %v); want (false, nil)", found, err)
	}

	if err := SetJSON(ctx, s, "r", rec{Attempts: 3}); err != nil {
		t.Fatalf("SetJSON() error = %v", err)
	}
	found, err = GetJSON(ctx, s, "r", &got)
	if err != nil || !found {
		t.Fatalf("GetJSON() = (%v, %v); want (true, nil)", found, err)
	}
	if got.Attempts != 3 {
		t.Errorf("Attempts = %d; want 3", got.Attempts)
	}
}

func TestScoped_IsolatesUsers(t *testing.T) {
	ctx := context.Background()
	base := NewMemoryStore()
	alice := NewScoped(base, "alice")
	bob := NewScoped(base, "bob")

	var notifiedKey string
	alice.Subscribe("xp", func(key string, _ []byte) { notifiedKey = key })

	if err := alice.Set(ctx, "xp", []byte("10")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if _, err := bob.Get(ctx, "xp"); !errors.Is(err, ErrNotFound) {
		t.Errorf("bob Get() error = %v; want ErrNotFound", err)
	}
	if notifiedKey != "xp" {
		t.Errorf("callback key = %q; want xp", notifiedKey)
	}
	if _, err := base.Get(ctx, "user:alice/xp"); err != nil {
		t.Errorf("base Get() error = %v", err)
	}
}
