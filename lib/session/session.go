// Package session keeps the per-browser state of the selection form: the
// current Selection and the two list queries that feed its fields.
package session

import (
	"sync"
	"time"

	"github.com/pthm/geoform"
	"github.com/pthm/geoform/lib/query"
)

// API is the remote data source a session loads its lists from.
type API interface {
	query.CountryLister
	query.StateLister
}

// Session is one form instance.
type Session struct {
	ID        string
	Countries *query.Countries
	States    *query.States

	mu        sync.Mutex
	selection geoform.Selection
	lastSeen  time.Time
}

func newSession(id string, api API, opts []query.Option) *Session {
	return &Session{
		ID:        id,
		Countries: query.NewCountries(api, opts...),
		States:    query.NewStates(api, opts...),
		lastSeen:  time.Now(),
	}
}

// Dispatch applies ev to the selection and returns the result. When the
// country changes the state query is re-keyed before the lock is released,
// so no reader sees the new country paired with the old state list.
func (s *Session) Dispatch(ev geoform.Event) geoform.Selection {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.selection
	s.selection = geoform.Reduce(prev, ev)
	if s.selection.CountryID != prev.CountryID {
		s.States.SetKey(s.selection.CountryID)
	}
	return s.selection
}

// Selection returns the current selection.
func (s *Session) Selection() geoform.Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince(cutoff time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen.Before(cutoff)
}

func (s *Session) close() {
	s.Countries.Close()
	s.States.Close()
}
