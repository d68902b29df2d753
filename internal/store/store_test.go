package store

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/susu3304/sharetabbot/internal/split"
)

func TestMemoryGetMissing(t *testing.T) {
	m := NewMemory()
	_, err := m.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemorySetGetDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	sess := &split.Session{Step: split.StepParticipants, Participants: []string{"A", "B"}}
	require.NoError(t, m.Set(ctx, "c1", sess))

	got, err := m.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, split.StepParticipants, got.Step)
	assert.Equal(t, []string{"A", "B"}, got.Participants)

	require.NoError(t, m.Delete(ctx, "c1"))
	_, err = m.Get(ctx, "c1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, m.Len())
}

func TestMemoryDoesNotAlias(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	sess := &split.Session{Participants: []string{"A", "B"}}
	require.NoError(t, m.Set(ctx, "c1", sess))
	sess.Participants[0] = "mutated"

	got, err := m.Get(ctx, "c1")
	require.NoError(t, err)
	got.Participants[1] = "mutated"

	again, err := m.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, again.Participants)
}

func TestMemoryIdle(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	m.now = func() time.Time { return base }
	require.NoError(t, m.Set(ctx, "old", split.NewSession(base)))
	m.now = func() time.Time { return base.Add(time.Hour) }
	require.NoError(t, m.Set(ctx, "fresh", split.NewSession(base)))

	ids, err := m.Idle(ctx, base.Add(30*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, []string{"old"}, ids)
}

func TestMemoryConcurrentConversations(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("c%d", i)
			name := fmt.Sprintf("p%d", i)
			_ = m.Set(ctx, id, &split.Session{Participants: []string{name, name + "x"}})
			got, err := m.Get(ctx, id)
			if assert.NoError(t, err) {
				assert.Equal(t, name, got.Participants[0])
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 50, m.Len())
}

func TestInflight(t *testing.T) {
	f := NewInflight()

	release, ok := f.TryAcquire("c1")
	require.True(t, ok)
	assert.True(t, f.Busy("c1"))

	_, ok = f.TryAcquire("c1")
	assert.False(t, ok, "second acquire must be rejected")

	other, ok := f.TryAcquire("c2")
	require.True(t, ok, "other conversations are independent")
	other()

	release()
	release()
	assert.False(t, f.Busy("c1"))

	again, ok := f.TryAcquire("c1")
	require.True(t, ok)
	again()
}
