// Package query runs asynchronous list loads for the form fields.
//
// A Query owns exactly one FetchState. Every (re)start bumps a generation
// counter, cancels the previous fetch's context and tags the new fetch with
// the generation that started it. When a fetch returns, its result is applied
// only if its generation is still current; anything older is dropped. The
// displayed state therefore always reflects the most recently started fetch,
// whatever order the responses arrive in.
//
// Transitions are published by closing the channel returned from Changed, so
// any number of waiters can block on the next transition without polling.
package query

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/pthm/geoform"
	"github.com/sirupsen/logrus"
)

// Fetcher loads the list for key.
type Fetcher[K comparable] func(ctx context.Context, key K) ([]geoform.Option, error)

// Outcome labels a finished fetch.
type Outcome string

const (
	OutcomeLoaded    Outcome = "loaded"
	OutcomeFailed    Outcome = "failed"
	OutcomeDiscarded Outcome = "discarded"
)

// Observer is told about fetch lifecycles. Implementations must be safe for
// concurrent use.
type Observer interface {
	FetchStarted(query string)
	FetchFinished(query string, outcome Outcome, d time.Duration)
}

type nopObserver struct{}

func (nopObserver) FetchStarted(string)                         {}
func (nopObserver) FetchFinished(string, Outcome, time.Duration) {}

type config struct {
	log      logrus.FieldLogger
	observer Observer
	base     context.Context
}

// Option configures a Query.
type Option func(*config)

// WithLogger sets the logger for fetch diagnostics.
func WithLogger(log logrus.FieldLogger) Option {
	return func(c *config) {
		if log != nil {
			c.log = log
		}
	}
}

// WithObserver attaches a lifecycle observer.
func WithObserver(o Observer) Option {
	return func(c *config) {
		if o != nil {
			c.observer = o
		}
	}
}

// WithBaseContext sets the parent context of every fetch. Cancelling it
// cancels in-flight fetches.
func WithBaseContext(ctx context.Context) Option {
	return func(c *config) {
		if ctx != nil {
			c.base = ctx
		}
	}
}

// Query is an asynchronous list load parameterised by a key.
type Query[K comparable] struct {
	name     string
	fetch    Fetcher[K]
	valid    func(K) bool
	fallback string
	cfg      config

	mu      sync.Mutex
	key     K
	gen     uint64
	cancel  context.CancelFunc
	state   geoform.FetchState
	changed chan struct{}
	closed  bool
}

// New creates an idle query. Nothing is fetched until SetKey or Refetch.
//
// valid gates the key: an invalid key puts the query in the reset state
// without calling fetch. fallback is the error message used when a fetch
// fails without a usable error.
func New[K comparable](name string, fetch Fetcher[K], valid func(K) bool, fallback string, opts ...Option) *Query[K] {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	cfg := config{log: discard, observer: nopObserver{}, base: context.Background()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if valid == nil {
		valid = func(K) bool { return true }
	}
	return &Query[K]{
		name:     name,
		fetch:    fetch,
		valid:    valid,
		fallback: fallback,
		cfg:      cfg,
		changed:  make(chan struct{}),
	}
}

// Name returns the query's name.
func (q *Query[K]) Name() string {
	return q.name
}

// SetKey re-parameterises the query and restarts it.
func (q *Query[K]) SetKey(key K) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.key = key
	q.restartLocked()
}

// Refetch repeats the fetch for the current key. With an invalid key it
// restores the reset state.
func (q *Query[K]) Refetch() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.restartLocked()
}

// Key returns the current key.
func (q *Query[K]) Key() K {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.key
}

// Generation returns the number of restarts so far.
func (q *Query[K]) Generation() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.gen
}

// Snapshot returns a copy of the current state.
func (q *Query[K]) Snapshot() geoform.FetchState {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.state.Clone()
}

// Changed returns a channel closed on the next transition.
func (q *Query[K]) Changed() <-chan struct{} {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.changed
}

// Settle waits until the query is not loading, ctx is done or d elapses,
// then returns the state at that moment.
func (q *Query[K]) Settle(ctx context.Context, d time.Duration) geoform.FetchState {
	var timeout <-chan time.Time
	if d > 0 {
		t := time.NewTimer(d)
		defer t.Stop()
		timeout = t.C
	}

	for {
		q.mu.Lock()
		state, changed := q.state, q.changed
		if !state.Loading || d <= 0 {
			out := state.Clone()
			q.mu.Unlock()
			return out
		}
		q.mu.Unlock()

		select {
		case <-changed:
		case <-ctx.Done():
			return q.Snapshot()
		case <-timeout:
			return q.Snapshot()
		}
	}
}

// Close cancels any in-flight fetch. Later calls to SetKey and Refetch only
// record the key.
func (q *Query[K]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	q.gen++
	if q.cancel != nil {
		q.cancel()
		q.cancel = nil
	}
	q.state.Loading = false
	q.notifyLocked()
}

func (q *Query[K]) restartLocked() {
	if q.closed {
		return
	}
	if q.cancel != nil {
		q.cancel()
		q.cancel = nil
	}
	q.gen++

	if !q.valid(q.key) {
		q.state = geoform.FetchState{}
		q.notifyLocked()
		return
	}

	q.state.Loading = true
	q.state.Err = nil

	ctx, cancel := context.WithCancel(q.cfg.base)
	q.cancel = cancel
	q.cfg.observer.FetchStarted(q.name)
	go q.run(ctx, q.gen, q.key)

	q.notifyLocked()
}

func (q *Query[K]) run(ctx context.Context, gen uint64, key K) {
	start := time.Now()
	items, err := q.call(ctx, key)

	q.mu.Lock()
	defer q.mu.Unlock()

	log := q.cfg.log.WithFields(logrus.Fields{
		"query":      q.name,
		"key":        fmt.Sprint(key),
		"generation": gen,
	})

	if gen != q.gen {
		q.cfg.observer.FetchFinished(q.name, OutcomeDiscarded, time.Since(start))
		log.WithField("current", q.gen).Debug("discarding superseded fetch")
		return
	}

	if q.cancel != nil {
		q.cancel()
		q.cancel = nil
	}
	q.state.Loading = false
	if err == nil {
		q.state.Items = items
		q.state.Err = nil
		q.cfg.observer.FetchFinished(q.name, OutcomeLoaded, time.Since(start))
		log.WithField("count", len(items)).Debug("fetch loaded")
	} else {
		q.state.Items = nil
		q.state.Err = geoform.Info(err, q.fallback)
		q.cfg.observer.FetchFinished(q.name, OutcomeFailed, time.Since(start))
		if geoform.IsFetch(err) || geoform.IsInvalidArgument(err) {
			log.WithError(err).Warn("fetch failed")
		} else {
			log.WithError(err).Error("fetch failed")
		}
	}
	q.notifyLocked()
}

// opaqueFailure stands in for a panic value that is not an error. Its empty
// message makes the failure fall back to the query's fixed message.
type opaqueFailure struct{}

func (opaqueFailure) Error() string { return "" }

// call runs the fetcher and turns panics into failures.
func (q *Query[K]) call(ctx context.Context, key K) (items []geoform.Option, err error) {
	defer func() {
		if r := recover(); r != nil {
			items = nil
			if e, ok := r.(error); ok {
				err = e
			} else {
				err = opaqueFailure{}
			}
		}
	}()

	items, err = q.fetch(ctx, key)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []geoform.Option{}
	}
	return items, nil
}

func (q *Query[K]) notifyLocked() {
	close(q.changed)
	q.changed = make(chan struct{})
}
