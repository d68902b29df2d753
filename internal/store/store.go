package store

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/susu3304/sharetabbot/internal/split"
)

var ErrNotFound = errors.New("session not found")

// Store keeps one session per conversation.
type Store interface {
	Get(ctx context.Context, conversationID string) (*split.Session, error)
	Set(ctx context.Context, conversationID string, sess *split.Session) error
	Delete(ctx context.Context, conversationID string) error
	// Idle lists conversations not touched since cutoff.
	Idle(ctx context.Context, cutoff time.Time) ([]string, error)
}

// Memory is a process-local Store. Sessions are copied in and out so callers
// never share state with the map.
type Memory struct {
	mu       sync.RWMutex
	sessions map[string]*split.Session
	now      func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		sessions: make(map[string]*split.Session),
		now:      time.Now,
	}
}

func (m *Memory) Get(_ context.Context, conversationID string) (*split.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[conversationID]
	if !ok {
		return nil, ErrNotFound
	}
	return sess.Clone(), nil
}

func (m *Memory) Set(_ context.Context, conversationID string, sess *split.Session) error {
	c := sess.Clone()
	c.UpdatedAt = m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[conversationID] = c
	return nil
}

func (m *Memory) Delete(_ context.Context, conversationID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, conversationID)
	return nil
}

func (m *Memory) Idle(_ context.Context, cutoff time.Time) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var ids []string
	for id, sess := range m.sessions {
		if sess.UpdatedAt.Before(cutoff) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// Len reports the number of live sessions.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
