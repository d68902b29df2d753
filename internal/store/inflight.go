package store

import "sync"

// Inflight marks conversations whose previous event is still being handled.
// It is a try-lock: a second event for a busy conversation is turned away
// instead of queued behind a slow collaborator call.
type Inflight struct {
	mu   sync.Mutex
	busy map[string]struct{}
}

func NewInflight() *Inflight {
	return &Inflight{busy: make(map[string]struct{})}
}

// TryAcquire marks conversationID busy. The returned release must be called
// exactly once when ok is true.
func (f *Inflight) TryAcquire(conversationID string) (release func(), ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, taken := f.busy[conversationID]; taken {
		return nil, false
	}
	f.busy[conversationID] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.busy, conversationID)
			f.mu.Unlock()
		})
	}, true
}

// Busy reports whether conversationID is currently held.
func (f *Inflight) Busy(conversationID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, taken := f.busy[conversationID]
	return taken
}
