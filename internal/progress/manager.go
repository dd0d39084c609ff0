package progress

import (
	"sync"
	"time"

	"github.com/jayainhufs/coding-sam/internal/storage"
)

// Manager hands out one Tracker per user, each over its own key namespace
// of the shared store. Trackers are cached so that concurrent requests of
// the same user serialize on the same lock.
type Manager struct {
	mu       sync.Mutex
	store    storage.Store
	loc      *time.Location
	now      func() time.Time
	trackers map[string]*Tracker
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithLocation sets the time zone used for streak day boundaries.
func WithLocation(loc *time.Location) ManagerOption {
	return func(m *Manager) { m.loc = loc }
}

// WithClock overrides the wall clock, mainly for tests.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) { m.now = now }
}

// NewManager creates a manager over store.
func NewManager(store storage.Store, opts ...ManagerOption) *Manager {
	m := &Manager{
		store:    store,
		loc:      time.Local,
		now:      time.Now,
		trackers: make(map[string]*Tracker),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// For returns the tracker of userID.
func (m *Manager) For(userID string) *Tracker {
	m.mu.Lock()
	defer m.mu.Unlock()

	if t, ok := m.trackers[userID]; ok {
		return t
	}
	t := NewTracker(storage.NewScoped(m.store, userID), m.loc, m.now)
	m.trackers[userID] = t
	return t
}
