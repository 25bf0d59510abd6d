package components

import (
	"time"

	"github.com/pthm/geoform"
	"github.com/pthm/geoform/lib/session"
)

// Props are shared by every component on the form. Only the session id
// travels in the URL; the rest is hydrated from the session store.
type Props struct {
	SessionID string `msgpack:"s"`

	Session   *session.Session   `msgpack:"-"`
	Selection geoform.Selection  `msgpack:"-"`
	State     geoform.FetchState `msgpack:"-"`
}

// SessionStore resolves the session a request belongs to.
type SessionStore interface {
	Get(id string) (*session.Session, bool)
}

const (
	// EventCountryChanged is triggered after a country is selected.
	EventCountryChanged = "country:changed"
	// EventStateChanged is triggered after a state is selected.
	EventStateChanged = "state:changed"
)

const (
	defaultSettle = 250 * time.Millisecond
	defaultPoll   = 300 * time.Millisecond
)

type options struct {
	settle time.Duration
	poll   time.Duration
}

// Option configures the form components.
type Option func(*options)

// WithSettle sets how long a request waits for a loading query before
// rendering the loading placeholder.
func WithSettle(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.settle = d
		}
	}
}

// WithPoll sets the delay after which a loading placeholder re-requests its
// component.
func WithPoll(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.poll = d
		}
	}
}

func newOptions(opts []Option) options {
	o := options{settle: defaultSettle, poll: defaultPoll}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
