// ABOUTME: Tests for the TTL session store.
// ABOUTME: Covers creation, append ordering, expiry, patches, and concurrent turns.

package session

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrCreate_FreshSession(t *testing.T) {
	s := NewStore(time.Minute, nil, nil)
	ctx := context.Background()

	sess := s.GetOrCreate(ctx, "conv-1")
	require.NotNil(t, sess)
	assert.Equal(t, "conv-1", sess.ID)
	assert.Empty(t, sess.Messages)
	assert.Equal(t, sess.CreatedAt, sess.LastActiveAt)
	assert.NotNil(t, sess.Context.Memory)
	assert.NotNil(t, sess.Context.Preferences)
}

func TestGetOrCreate_ReturnsSameSession(t *testing.T) {
	s := NewStore(time.Minute, nil, nil)
	ctx := context.Background()

	s.Append(ctx, "conv-1", NewMessage("hello", RoleUser))
	sess := s.GetOrCreate(ctx, "conv-1")
	require.Len(t, sess.Messages, 1)
	assert.Equal(t, "hello", sess.Messages[0].Content)
}

func TestAppend_PreservesOrder(t *testing.T) {
	s := NewStore(time.Minute, nil, nil)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		s.Append(ctx, "conv-1", NewMessage(fmt.Sprintf("msg-%d", i), RoleUser))
	}

	sess := s.GetOrCreate(ctx, "conv-1")
	require.Len(t, sess.Messages, 10)
	for i, msg := range sess.Messages {
		assert.Equal(t, fmt.Sprintf("msg-%d", i), msg.Content)
	}
}

func TestExpiry_DestroysSession(t *testing.T) {
	s := NewStore(30*time.Minute, nil, nil)
	ctx := context.Background()

	current := time.Now()
	s.now = func() time.Time { return current }

	s.Append(ctx, "conv-1", NewMessage("hello", RoleUser))
	s.ApplyContextPatch(ctx, "conv-1", map[string]any{"destination": "Paris"})

	// Advance past the TTL.
	current = current.Add(31 * time.Minute)

	sess := s.GetOrCreate(ctx, "conv-1")
	assert.Empty(t, sess.Messages, "expired session must look never-created")
	assert.Empty(t, sess.Context.Memory)
}

func TestExpiry_Idempotent(t *testing.T) {
	s := NewStore(30*time.Minute, nil, nil)
	ctx := context.Background()

	current := time.Now()
	s.now = func() time.Time { return current }

	s.GetOrCreate(ctx, "conv-1")
	current = current.Add(time.Hour)

	assert.Equal(t, 1, s.SweepExpired())
	assert.Equal(t, 0, s.SweepExpired())

	_, ok := s.Get(ctx, "conv-1")
	assert.False(t, ok)
}

func TestExpiry_ActivityKeepsAlive(t *testing.T) {
	s := NewStore(30*time.Minute, nil, nil)
	ctx := context.Background()

	current := time.Now()
	s.now = func() time.Time { return current }

	s.Append(ctx, "conv-1", NewMessage("hello", RoleUser))

	// Touch every 20 minutes; the session must survive well past one TTL.
	for i := 0; i < 4; i++ {
		current = current.Add(20 * time.Minute)
		s.Touch(ctx, "conv-1")
	}

	sess := s.GetOrCreate(ctx, "conv-1")
	assert.Len(t, sess.Messages, 1)
}

func TestGet_DoesNotCreate(t *testing.T) {
	s := NewStore(time.Minute, nil, nil)

	_, ok := s.Get(context.Background(), "unseen")
	assert.False(t, ok)
	assert.Equal(t, 0, s.Len())
}

func TestApplyContextPatch_Routing(t *testing.T) {
	s := NewStore(time.Minute, nil, nil)
	ctx := context.Background()

	s.GetOrCreate(ctx, "conv-1")
	s.ApplyContextPatch(ctx, "conv-1", map[string]any{
		"destination":       "Paris",
		"preference.budget": 2000.0,
		"last_intent":       "search_flights",
		"last_entities":     map[string]any{"city": "Paris"},
	})

	sess := s.GetOrCreate(ctx, "conv-1")
	assert.Equal(t, "Paris", sess.Context.Memory["destination"])
	assert.Equal(t, 2000.0, sess.Context.Preferences["budget"])
	assert.Equal(t, "search_flights", sess.Context.LastIntent)
	assert.Equal(t, "Paris", sess.Context.LastEntities["city"])
}

func TestApplyContextPatch_LastWriteWins(t *testing.T) {
	s := NewStore(time.Minute, nil, nil)
	ctx := context.Background()

	s.GetOrCreate(ctx, "conv-1")
	s.ApplyContextPatch(ctx, "conv-1", map[string]any{"destination": "Paris"})
	s.ApplyContextPatch(ctx, "conv-1", map[string]any{"destination": "Rome"})

	sess := s.GetOrCreate(ctx, "conv-1")
	assert.Equal(t, "Rome", sess.Context.Memory["destination"])
}

func TestRemove(t *testing.T) {
	s := NewStore(time.Minute, nil, nil)
	ctx := context.Background()

	s.Append(ctx, "conv-1", NewMessage("hello", RoleUser))
	s.Remove(ctx, "conv-1")

	_, ok := s.Get(ctx, "conv-1")
	assert.False(t, ok)
}

func TestSnapshot_CallerMutationIsolated(t *testing.T) {
	s := NewStore(time.Minute, nil, nil)
	ctx := context.Background()

	sess := s.GetOrCreate(ctx, "conv-1")
	sess.Context.Memory["rogue"] = true
	sess.Messages = append(sess.Messages, NewMessage("injected", RoleUser))

	fresh := s.GetOrCreate(ctx, "conv-1")
	assert.Empty(t, fresh.Messages)
	assert.NotContains(t, fresh.Context.Memory, "rogue")
}

func TestConcurrentAppends_NoneLost(t *testing.T) {
	s := NewStore(time.Minute, nil, nil)
	ctx := context.Background()

	const goroutines = 20
	const perGoroutine = 25

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				s.Append(ctx, "conv-1", NewMessage(fmt.Sprintf("g%d-m%d", g, i), RoleUser))
				s.ApplyContextPatch(ctx, "conv-1", map[string]any{fmt.Sprintf("key-%d", g): i})
			}
		}(g)
	}
	wg.Wait()

	sess := s.GetOrCreate(ctx, "conv-1")
	assert.Len(t, sess.Messages, goroutines*perGoroutine)
	assert.Len(t, sess.Context.Memory, goroutines)
}

func TestConcurrentDifferentIDs(t *testing.T) {
	s := NewStore(time.Minute, nil, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for g := 0; g < 10; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			id := fmt.Sprintf("conv-%d", g)
			for i := 0; i < 10; i++ {
				s.Append(ctx, id, NewMessage("m", RoleUser))
			}
		}(g)
	}
	wg.Wait()

	assert.Equal(t, 10, s.Len())
	for g := 0; g < 10; g++ {
		sess := s.GetOrCreate(ctx, fmt.Sprintf("conv-%d", g))
		assert.Len(t, sess.Messages, 10)
	}
}

// fakeRepo is an in-memory Repository for write-through tests.
type fakeRepo struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{sessions: make(map[string]*Session)}
}

func (r *fakeRepo) Load(ctx context.Context, id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return sess, nil
}

func (r *fakeRepo) Save(ctx context.Context, sess *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sess.ID] = sess
	return nil
}

func (r *fakeRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	return nil
}

func TestRepository_WriteThrough(t *testing.T) {
	repo := newFakeRepo()
	s := NewStore(time.Minute, repo, nil)
	ctx := context.Background()

	s.Append(ctx, "conv-1", NewMessage("hello", RoleUser))

	saved, err := repo.Load(ctx, "conv-1")
	require.NoError(t, err)
	assert.Len(t, saved.Messages, 1)
}

func TestRepository_RestoreOnMiss(t *testing.T) {
	repo := newFakeRepo()
	warm := NewStore(time.Minute, repo, nil)
	ctx := context.Background()

	warm.Append(ctx, "conv-1", NewMessage("hello", RoleUser))

	// A cold store (fresh process) restores from the repository.
	cold := NewStore(time.Minute, repo, nil)
	sess := cold.GetOrCreate(ctx, "conv-1")
	require.Len(t, sess.Messages, 1)
	assert.Equal(t, "hello", sess.Messages[0].Content)
}

func TestRepository_ExpiredRowIgnored(t *testing.T) {
	repo := newFakeRepo()
	ctx := context.Background()

	stale := newSession("conv-1", time.Now().Add(-2*time.Hour))
	stale.Messages = append(stale.Messages, NewMessage("old", RoleUser))
	require.NoError(t, repo.Save(ctx, stale))

	s := NewStore(30*time.Minute, repo, nil)
	sess := s.GetOrCreate(ctx, "conv-1")
	assert.Empty(t, sess.Messages, "expired durable row must not resurrect")

	_, err := repo.Load(ctx, "conv-1")
	assert.ErrorIs(t, err, ErrNotFound, "expired row is removed from the repository")
}
