// ABOUTME: In-memory session store with TTL expiry and lazy sweeping.
// ABOUTME: Optionally write-through to a durable repository; memory stays authoritative.

package session

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultTTL is the inactivity window after which a session is evicted.
const DefaultTTL = 30 * time.Minute

// Repository is the optional durable tier behind the store.
// Load returns ErrNotFound for unknown ids.
type Repository interface {
	Load(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, sess *Session) error
	Delete(ctx context.Context, id string) error
}

// Store maps conversation ids to live sessions. All operations are atomic
// with respect to each other for a given id: concurrent turns on the same
// conversation cannot corrupt message ordering or drop a context patch.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	repo     Repository // nil when running memory-only
	logger   *slog.Logger

	// now is swapped in tests to control expiry.
	now func() time.Time
}

// NewStore creates a session store with the given TTL.
// A nil repository keeps sessions purely in memory.
func NewStore(ttl time.Duration, repo Repository, logger *slog.Logger) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		repo:     repo,
		logger:   logger.With("component", "session"),
		now:      time.Now,
	}
}

// GetOrCreate returns the live session for id, creating one if the id is
// unseen or its previous session expired. Expiry is destructive: an expired
// id behaves exactly like a fresh one. Reads count as activity.
func (s *Store) GetOrCreate(ctx context.Context, id string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()

	sess, ok := s.sessions[id]
	if !ok {
		sess = s.loadOrNewLocked(ctx, id)
		s.sessions[id] = sess
	}
	sess.LastActiveAt = s.now().UTC()
	return sess.snapshot()
}

// Get returns the live session for id without creating one.
func (s *Store) Get(ctx context.Context, id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()

	sess, ok := s.sessions[id]
	if !ok {
		loaded := s.loadRepoLocked(ctx, id)
		if loaded == nil {
			return nil, false
		}
		s.sessions[id] = loaded
		sess = loaded
	}
	sess.LastActiveAt = s.now().UTC()
	return sess.snapshot(), true
}

// Touch refreshes the session's activity timestamp.
func (s *Store) Touch(ctx context.Context, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()

	if sess, ok := s.sessions[id]; ok {
		sess.LastActiveAt = s.now().UTC()
		s.persistLocked(ctx, sess)
	}
}

// Append adds a message to the session transcript, creating the session if
// needed, and refreshes activity.
func (s *Store) Append(ctx context.Context, id string, msg Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()

	sess, ok := s.sessions[id]
	if !ok {
		sess = s.loadOrNewLocked(ctx, id)
		s.sessions[id] = sess
	}
	sess.Messages = append(sess.Messages, msg)
	sess.LastActiveAt = s.now().UTC()
	s.persistLocked(ctx, sess)
}

// ApplyContextPatch merges key-value updates into the session context.
// Keys prefixed "preference." update the preferences map; the keys
// "last_intent" and "last_entities" update their dedicated fields;
// everything else lands in general memory. Last write wins per key.
func (s *Store) ApplyContextPatch(ctx context.Context, id string, patch map[string]any) {
	if len(patch) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()

	sess, ok := s.sessions[id]
	if !ok {
		return
	}

	for k, v := range patch {
		switch {
		case k == "last_intent":
			if intent, ok := v.(string); ok {
				sess.Context.LastIntent = intent
			}
		case k == "last_entities":
			if entities, ok := v.(map[string]any); ok {
				sess.Context.LastEntities = entities
			}
		case len(k) > 11 && k[:11] == "preference.":
			sess.Context.Preferences[k[11:]] = v
		default:
			sess.Context.Memory[k] = v
		}
	}
	sess.LastActiveAt = s.now().UTC()
	s.persistLocked(ctx, sess)
}

// Remove deletes the session, ending the conversation.
func (s *Store) Remove(ctx context.Context, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, id)
	if s.repo != nil {
		if err := s.repo.Delete(ctx, id); err != nil {
			s.logger.Error("failed to delete session from repository",
				"conversation_id", id,
				"error", err)
		}
	}
}

// SweepExpired evicts all sessions whose inactivity exceeds the TTL.
// It also runs lazily at the start of every store operation.
func (s *Store) SweepExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweepLocked()
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()
	return len(s.sessions)
}

// sweepLocked removes expired sessions. Must be called with mu held.
func (s *Store) sweepLocked() int {
	now := s.now()
	evicted := 0
	for id, sess := range s.sessions {
		if now.Sub(sess.LastActiveAt) >= s.ttl {
			delete(s.sessions, id)
			evicted++
		}
	}
	if evicted > 0 {
		s.logger.Debug("swept expired sessions", "evicted", evicted, "remaining", len(s.sessions))
	}
	return evicted
}

// loadOrNewLocked resolves a session from the repository or creates a fresh
// one. Must be called with mu held.
func (s *Store) loadOrNewLocked(ctx context.Context, id string) *Session {
	if loaded := s.loadRepoLocked(ctx, id); loaded != nil {
		return loaded
	}
	now := s.now().UTC()
	s.logger.Debug("session created", "conversation_id", id)
	return newSession(id, now)
}

// loadRepoLocked fetches a session from the durable tier, honoring TTL:
// a durable row whose lastActiveAt is past the TTL is treated as absent
// and removed, keeping expiry destructive across restarts.
func (s *Store) loadRepoLocked(ctx context.Context, id string) *Session {
	if s.repo == nil {
		return nil
	}

	sess, err := s.repo.Load(ctx, id)
	if err != nil {
		if err != ErrNotFound {
			s.logger.Error("failed to load session from repository",
				"conversation_id", id,
				"error", err)
		}
		return nil
	}

	if s.now().Sub(sess.LastActiveAt) >= s.ttl {
		if err := s.repo.Delete(ctx, id); err != nil {
			s.logger.Error("failed to delete expired session from repository",
				"conversation_id", id,
				"error", err)
		}
		return nil
	}

	s.logger.Debug("session restored from repository", "conversation_id", id)
	return sess
}

// persistLocked writes the session through to the durable tier.
// Persistence failures are logged, not fatal: memory is authoritative.
func (s *Store) persistLocked(ctx context.Context, sess *Session) {
	if s.repo == nil {
		return
	}
	if err := s.repo.Save(ctx, sess.snapshot()); err != nil {
		s.logger.Error("failed to persist session",
			"conversation_id", sess.ID,
			"error", err)
	}
}
