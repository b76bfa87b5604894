package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CookieName is the cookie carrying the session ID
const CookieName = "audit_session"

// Store keeps one session per client
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	logger   *zap.Logger
	now      func() time.Time
}

// NewStore creates an empty session store
func NewStore(logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		sessions: make(map[string]*Session),
		logger:   logger.With(zap.String("component", "sessions")),
		now:      time.Now,
	}
}

// Get returns the session for id, creating a new one when id is not a
// valid UUID or no longer known. created reports whether the caller must
// issue a new cookie.
func (st *Store) Get(id string) (sess *Session, created bool, err error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if _, parseErr := uuid.Parse(id); parseErr == nil {
		if sess, ok := st.sessions[id]; ok {
			return sess, false, nil
		}
	}

	sess, err = New(uuid.NewString())
	if err != nil {
		return nil, false, err
	}
	sess.now = st.now
	sess.touch()
	st.sessions[sess.ID()] = sess
	return sess, true, nil
}

// Len returns the number of live sessions
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// Sweep removes sessions idle for longer than ttl. Sessions with an
// audit in flight are kept.
func (st *Store) Sweep(ttl time.Duration) int {
	cutoff := st.now().Add(-ttl)

	st.mu.Lock()
	defer st.mu.Unlock()

	removed := 0
	for id, sess := range st.sessions {
		if sess.idleSince(cutoff) {
			delete(st.sessions, id)
			removed++
		}
	}
	return removed
}

// RunSweeper sweeps every interval until ctx is done
func (st *Store) RunSweeper(ctx context.Context, interval, ttl time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := st.Sweep(ttl); removed > 0 {
				st.logger.Debug("swept idle sessions", zap.Int("removed", removed))
			}
		}
	}
}
