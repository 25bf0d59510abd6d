package session

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pthm/geoform/lib/query"
	"github.com/sirupsen/logrus"
)

// Observer is told the number of live sessions whenever it changes.
type Observer interface {
	SessionsActive(n int)
}

// Store holds sessions by id and evicts the ones left idle.
type Store struct {
	api API

	mu       sync.Mutex
	sessions map[string]*Session
	closed   bool

	idleTTL      time.Duration
	cleanupEvery time.Duration
	queryOpts    []query.Option
	log          logrus.FieldLogger
	observer     Observer
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithIdleTTL sets how long a session may go unused before eviction.
func WithIdleTTL(d time.Duration) StoreOption {
	return func(s *Store) { s.idleTTL = d }
}

// WithCleanupEvery sets the janitor interval. Zero disables the janitor.
func WithCleanupEvery(d time.Duration) StoreOption {
	return func(s *Store) { s.cleanupEvery = d }
}

// WithQueryOptions passes options to every query a session creates.
func WithQueryOptions(opts ...query.Option) StoreOption {
	return func(s *Store) { s.queryOpts = append(s.queryOpts, opts...) }
}

// WithLogger sets the store's logger.
func WithLogger(log logrus.FieldLogger) StoreOption {
	return func(s *Store) {
		if log != nil {
			s.log = log
		}
	}
}

// WithObserver attaches a session count observer.
func WithObserver(o Observer) StoreOption {
	return func(s *Store) { s.observer = o }
}

// NewStore creates an empty store whose sessions load from api.
func NewStore(api API, opts ...StoreOption) *Store {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	s := &Store{
		api:          api,
		sessions:     make(map[string]*Session),
		idleTTL:      30 * time.Minute,
		cleanupEvery: 2 * time.Minute,
		log:          discard,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IdleTTL returns the eviction threshold.
func (s *Store) IdleTTL() time.Duration { return s.idleTTL }

// Create starts a new session with a fresh id. The country list begins
// loading immediately.
func (s *Store) Create() *Session {
	id := uuid.NewString()
	sess := newSession(id, s.api, s.queryOpts)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		sess.close()
		return sess
	}
	s.sessions[id] = sess
	n := len(s.sessions)
	s.mu.Unlock()

	s.log.WithField("session", id).Debug("session created")
	s.report(n)
	return sess
}

// Get returns the session for id and marks it as used.
func (s *Store) Get(id string) (*Session, bool) {
	if id == "" {
		return nil, false
	}
	s.mu.Lock()
	sess, ok := s.sessions[id]
	s.mu.Unlock()
	if ok {
		sess.touch(time.Now())
	}
	return sess, ok
}

// GetOrCreate returns the session for id, creating a new one when id is
// unknown. created reports whether a new session was made.
func (s *Store) GetOrCreate(id string) (sess *Session, created bool) {
	if sess, ok := s.Get(id); ok {
		return sess, false
	}
	return s.Create(), true
}

// Delete removes a session and stops its queries.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	n := len(s.sessions)
	s.mu.Unlock()

	if ok {
		sess.close()
		s.report(n)
	}
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Cleanup evicts sessions idle for longer than the TTL.
func (s *Store) Cleanup() {
	cutoff := time.Now().Add(-s.idleTTL)

	var evicted []*Session
	s.mu.Lock()
	for id, sess := range s.sessions {
		if sess.idleSince(cutoff) {
			delete(s.sessions, id)
			evicted = append(evicted, sess)
		}
	}
	n := len(s.sessions)
	s.mu.Unlock()

	if len(evicted) == 0 {
		return
	}
	for _, sess := range evicted {
		sess.close()
	}
	s.log.WithFields(logrus.Fields{"evicted": len(evicted), "remaining": n}).Debug("idle sessions evicted")
	s.report(n)
}

// StartJanitor evicts idle sessions periodically until ctx is done.
func (s *Store) StartJanitor(ctx context.Context) {
	if s.cleanupEvery <= 0 {
		return
	}

	t := time.NewTicker(s.cleanupEvery)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				s.Cleanup()
			}
		}
	}()
}

// Close stops every session. Sessions created afterwards are closed at once.
func (s *Store) Close() {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*Session)
	s.closed = true
	s.mu.Unlock()

	for _, sess := range sessions {
		sess.close()
	}
	s.report(0)
}

func (s *Store) report(n int) {
	if s.observer != nil {
		s.observer.SessionsActive(n)
	}
}
