package storage

import "sync"

// Notifier keeps per-key subscriber lists for Store implementations.
// The zero value is ready to use.
type Notifier struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[string][]subscription
}

type subscription struct {
	id uint64
	fn Callback
}

// Subscribe registers fn for key and returns a function that removes it.
// Calling cancel more than once is a no-op.
func (n *Notifier) Subscribe(key string, fn Callback) (cancel func()) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.subs == nil {
		n.subs = make(map[string][]subscription)
	}
	n.nextID++
	id := n.nextID
	n.subs[key] = append(n.subs[key], subscription{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() { n.remove(key, id) })
	}
}

func (n *Notifier) remove(key string, id uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()

	subs := n.subs[key]
	for i, s := range subs {
		if s.id == id {
			n.subs[key] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(n.subs[key]) == 0 {
		delete(n.subs, key)
	}
}

// Notify invokes every subscriber of key. The subscriber list is copied
// first so callbacks may read, write or unsubscribe.
func (n *Notifier) Notify(key string, value []byte) {
	n.mu.RLock()
	subs := make([]subscription, len(n.subs[key]))
	copy(subs, n.subs[key])
	n.mu.RUnlock()

	for _, s := range subs {
		s.fn(key, value)
	}
}

// Count returns the number of subscribers for key.
func (n *Notifier) Count(key string) int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.subs[key])
}
