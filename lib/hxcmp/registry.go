package hxcmp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"runtime/debug"
	"sync"

	"github.com/a-h/templ"
	"github.com/sirupsen/logrus"
)

// Registry manages component registration and routing.
type Registry struct {
	mu         sync.RWMutex
	mux        *http.ServeMux
	encoder    *Encoder
	components map[string]HXComponent
	log        logrus.FieldLogger
	observer   BoundaryObserver

	// OnError is called when a component request fails: bad props, unknown
	// action, hydration failure or an Err result. It is not called for
	// panics, which the component boundary answers with its fallback.
	OnError func(http.ResponseWriter, *http.Request, error)
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithLogger sets the logger for request failures and recovered panics.
func WithLogger(log logrus.FieldLogger) RegistryOption {
	return func(reg *Registry) {
		if log != nil {
			reg.log = log
		}
	}
}

// WithBoundaryObserver attaches an observer for recovered panics.
func WithBoundaryObserver(o BoundaryObserver) RegistryOption {
	return func(reg *Registry) { reg.observer = o }
}

// NewRegistry creates a new component registry with the given key.
func NewRegistry(key []byte, opts ...RegistryOption) *Registry {
	enc, err := NewEncoder(key)
	if err != nil {
		panic(fmt.Sprintf("hxcmp: failed to create encoder: %v", err))
	}

	discard := logrus.New()
	discard.SetOutput(io.Discard)

	reg := &Registry{
		mux:        http.NewServeMux(),
		encoder:    enc,
		components: make(map[string]HXComponent),
		log:        discard,
		OnError:    DefaultOnError,
	}
	for _, opt := range opts {
		opt(reg)
	}
	return reg
}

// DefaultOnError maps component errors onto plain HTTP errors.
func DefaultOnError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case IsNotFound(err):
		http.Error(w, "Not found", http.StatusNotFound)
	case errors.Is(err, ErrMethodNotAllowed):
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	case IsBadRequest(err):
		http.Error(w, "Bad request", http.StatusBadRequest)
	default:
		http.Error(w, "Internal error", http.StatusInternalServerError)
	}
}

// Encoder returns the registry's encoder.
func (reg *Registry) Encoder() *Encoder {
	return reg.encoder
}

// Add registers components with the registry. Components must embed
// *hxcmp.Component[P] and have been bound with Bind. Panics on a prefix
// collision.
func (reg *Registry) Add(components ...HXComponent) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	for _, comp := range components {
		a, ok := comp.(attachable)
		if !ok {
			panic(fmt.Sprintf("hxcmp: %T does not embed *hxcmp.Component[P]", comp))
		}
		prefix := comp.HXPrefix()
		if _, exists := reg.components[prefix]; exists {
			panic(fmt.Sprintf("hxcmp: prefix collision for %q", prefix))
		}
		a.attach(reg)
		reg.components[prefix] = comp
		reg.mux.HandleFunc(prefix+"/", comp.HXServeHTTP)
	}
}

// Len returns the number of registered components.
func (reg *Registry) Len() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return len(reg.components)
}

// Handler returns the HTTP handler for component routes.
// Mount this at "/_c/" in your application.
func (reg *Registry) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Mutating methods require the header HTMX sends; a cross-site form
		// cannot set it.
		if r.Method != http.MethodGet && r.Method != http.MethodHead && !IsHTMX(r) {
			http.Error(w, "Forbidden: HTMX request required", http.StatusForbidden)
			return
		}
		reg.mux.ServeHTTP(w, r)
	})
}

func (reg *Registry) fail(w http.ResponseWriter, r *http.Request, component string, err error) {
	entry := reg.log.WithFields(logrus.Fields{
		"component": component,
		"method":    r.Method,
		"path":      r.URL.Path,
	}).WithError(err)
	if IsNotFound(err) || IsBadRequest(err) || errors.Is(err, ErrMethodNotAllowed) {
		entry.Info("component request rejected")
	} else {
		entry.Error("component request failed")
	}
	reg.OnError(w, r, err)
}

// recoveredHTTP answers a request whose component panicked. The fallback is
// sent with 200 so HTMX swaps it in place of the component.
func (reg *Registry) recoveredHTTP(w http.ResponseWriter, r *http.Request, component, retryURL string, v any) error {
	h := w.Header()
	h.Del("HX-Trigger")
	h.Del("HX-Redirect")
	h.Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	return reg.recovered(r.Context(), w, component, retryURL, v)
}

// recovered logs a panic caught by a component boundary and writes the
// fallback view.
func (reg *Registry) recovered(ctx context.Context, w io.Writer, component, retryURL string, v any) error {
	reg.log.WithFields(logrus.Fields{
		"component": component,
		"panic":     fmt.Sprint(v),
		"stack":     string(debug.Stack()),
	}).Error("component panicked")
	if reg.observer != nil {
		reg.observer.Recovered(component)
	}
	return Fallback(component, PanicMessage(v), retryURL).Render(ctx, w)
}

// PanicMessage extracts a displayable message from a recovered value.
func PanicMessage(v any) string {
	switch e := v.(type) {
	case error:
		return e.Error()
	case string:
		return e
	}
	return "Unexpected error"
}

// Fallback is the view a component boundary renders in place of a
// component that panicked. The button re-requests only that component.
func Fallback(component, message, retryURL string) templ.Component {
	retry := NewAction(retryURL, http.MethodGet).TargetClosest(".hxcmp-boundary")
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w,
			`<div class="hxcmp-boundary" role="alert" data-component="%s">`+
				`<p class="hxcmp-boundary-title">Something went wrong</p>`+
				`<p class="hxcmp-boundary-description">An unexpected error occurred while loading this field</p>`+
				`<pre class="hxcmp-boundary-message">%s</pre>`+
				`<button type="button"%s>Try Again</button>`+
				`</div>`,
			templ.EscapeString(component), templ.EscapeString(message), retry)
		return err
	})
}
