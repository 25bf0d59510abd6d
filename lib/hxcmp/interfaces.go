package hxcmp

import (
	"context"
	"net/http"

	"github.com/a-h/templ"
)

// Hydrater is implemented by components to reconstruct rich objects from
// the IDs carried in props. It runs once per request, before any handler
// and before Render.
//
//	func (c *StateField) Hydrate(ctx context.Context, props *Props) error {
//	    sess, ok := c.store.Get(props.SessionID)
//	    if !ok {
//	        return hxcmp.ErrNotFound
//	    }
//	    props.Session = sess
//	    return nil
//	}
type Hydrater[P any] interface {
	Hydrate(ctx context.Context, props *P) error
}

// Renderer is implemented by components to produce templ output. It is
// called for GET requests and after handlers that return OK.
//
// Render receives hydrated props and should not mutate anything.
type Renderer[P any] interface {
	Render(ctx context.Context, props P) templ.Component
}

// Lifecycle is the pair of methods every component provides.
type Lifecycle[P any] interface {
	Hydrater[P]
	Renderer[P]
}

// HXComponent is what the registry routes to. Components get it by
// embedding *Component[P].
type HXComponent interface {
	HXPrefix() string
	HXServeHTTP(w http.ResponseWriter, r *http.Request)
}

// BoundaryObserver is told when a component boundary recovers a panic.
type BoundaryObserver interface {
	Recovered(component string)
}

// attachable is satisfied by anything embedding *Component[P]; the registry
// uses it to hand over the encoder and error handling.
type attachable interface {
	attach(reg *Registry)
}
