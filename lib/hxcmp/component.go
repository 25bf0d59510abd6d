package hxcmp

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/a-h/templ"
)

// Handler handles a named action. It receives hydrated props.
type Handler[P any] func(ctx context.Context, props P, r *http.Request) Result[P]

type actionDef[P any] struct {
	name    string
	method  string
	handler Handler[P]
}

// Component[P] is the base type embedded by user components.
// P is the Props type for this component.
//
// Components embed *Component[P] to gain action registration, URL generation,
// request dispatch and HTMX builders:
//
//	type StateField struct {
//	    *hxcmp.Component[Props]
//	    store *session.Store
//	}
//
//	func NewStateField(store *session.Store) *StateField {
//	    c := &StateField{
//	        Component: hxcmp.New[Props]("statefield"),
//	        store:     store,
//	    }
//	    c.Bind(c)
//	    c.Action("select", c.handleSelect)
//	    return c
//	}
//
// Each component instance receives a deterministic URL prefix based on its
// name and source location (file:line), ensuring uniqueness without manual
// coordination.
type Component[P any] struct {
	name      string
	prefix    string
	sensitive bool
	actions   map[string]*actionDef[P]
	impl      Lifecycle[P]
	reg       *Registry
}

// New creates a new component with the given name.
//
// By default, props are signed (visible in URLs but tamper-proof via HMAC).
// Call .Sensitive() to encrypt them.
func New[P any](name string) *Component[P] {
	prefix := "/_c/" + name + "-" + componentHash(name, 1)
	return &Component[P]{
		name:    name,
		prefix:  prefix,
		actions: make(map[string]*actionDef[P]),
	}
}

// Bind sets the value whose Hydrate and Render drive requests, normally the
// component that embeds c.
func (c *Component[P]) Bind(impl Lifecycle[P]) *Component[P] {
	c.impl = impl
	return c
}

// Sensitive marks the component as sensitive, enabling full encryption.
func (c *Component[P]) Sensitive() *Component[P] {
	c.sensitive = true
	return c
}

// Name returns the component's name.
func (c *Component[P]) Name() string {
	return c.name
}

// Prefix returns the component's URL prefix.
// All actions for this component are mounted under this prefix.
func (c *Component[P]) Prefix() string {
	return c.prefix
}

// HXPrefix implements HXComponent.
func (c *Component[P]) HXPrefix() string {
	return c.prefix
}

// IsSensitive returns whether the component uses encrypted props.
func (c *Component[P]) IsSensitive() bool {
	return c.sensitive
}

// Action registers a named action handler with default POST method.
//
// Actions use semantic names that describe intent (select, retry) rather
// than HTTP methods. Returns *ActionBuilder to override the method:
//
//	c.Action("select", c.handleSelect)
//	c.Action("peek", c.handlePeek).Method(http.MethodGet)
//
// Hydrate runs before the handler; Render runs after it returns OK.
func (c *Component[P]) Action(name string, handler Handler[P]) *ActionBuilder {
	def := &actionDef[P]{
		name:    name,
		method:  http.MethodPost,
		handler: handler,
	}
	c.actions[name] = def
	return &ActionBuilder{method: &def.method}
}

// Call returns an action builder that invokes the named action with props.
// Props travel in the query string for GET actions and in hx-vals otherwise.
func (c *Component[P]) Call(name string, props P) *Action {
	method := http.MethodPost
	if def, ok := c.actions[name]; ok {
		method = def.method
	}
	return c.newAction(c.prefix+"/"+name, method, props)
}

// Refresh returns an action builder for the default render (GET).
//
//	c.Refresh(props).OnEvent("country:changed").Attrs()
func (c *Component[P]) Refresh(props P) *Action {
	return c.newAction(c.prefix+"/", http.MethodGet, props)
}

// Lazy returns a placeholder that loads the component when it scrolls into
// view.
func (c *Component[P]) Lazy(props P, placeholder templ.Component) templ.Component {
	return lazyComponent(c.Refresh(props).OnIntersect(), placeholder)
}

// Defer returns a placeholder that loads the component once the page has
// loaded.
func (c *Component[P]) Defer(props P, placeholder templ.Component) templ.Component {
	return lazyComponent(c.Refresh(props).OnLoad(), placeholder)
}

// Inline hydrates and renders the component in place, for embedding in a
// page. A panic is contained by the same boundary that guards requests.
func (c *Component[P]) Inline(props P) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) (err error) {
		if c.reg == nil || c.impl == nil {
			return fmt.Errorf("hxcmp: component %q not registered", c.name)
		}
		var buf bytes.Buffer
		defer func() {
			if v := recover(); v != nil {
				err = c.reg.recovered(ctx, w, c.name, c.Refresh(props).URL(), v)
			}
		}()

		if err := c.impl.Hydrate(ctx, &props); err != nil {
			return fmt.Errorf("%w: %w", ErrHydrationFailed, err)
		}
		if err := c.impl.Render(ctx, props).Render(ctx, &buf); err != nil {
			return err
		}
		_, err = buf.WriteTo(w)
		return err
	})
}

// HXServeHTTP decodes props, hydrates them, routes to the render or the
// named action and writes the result. Output is buffered, so a panic at any
// stage is answered with the boundary fallback rather than partial HTML.
func (c *Component[P]) HXServeHTTP(w http.ResponseWriter, r *http.Request) {
	if c.reg == nil || c.impl == nil {
		http.Error(w, "component not registered", http.StatusInternalServerError)
		return
	}

	token := r.FormValue("p")
	retry := c.prefix + "/"
	if token != "" {
		retry += "?p=" + url.QueryEscape(token)
	}
	defer func() {
		if v := recover(); v != nil {
			_ = c.reg.recoveredHTTP(w, r, c.name, retry, v)
		}
	}()

	name := strings.Trim(strings.TrimPrefix(r.URL.Path, c.prefix), "/")
	var def *actionDef[P]
	if name == "" {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			c.reg.fail(w, r, c.name, ErrMethodNotAllowed)
			return
		}
	} else {
		d, ok := c.actions[name]
		if !ok {
			c.reg.fail(w, r, c.name, fmt.Errorf("%w: action %q", ErrNotFound, name))
			return
		}
		if r.Method != d.method {
			c.reg.fail(w, r, c.name, ErrMethodNotAllowed)
			return
		}
		def = d
	}

	var props P
	if token != "" {
		if err := c.reg.encoder.Decode(token, c.sensitive, &props); err != nil {
			c.reg.fail(w, r, c.name, wrapEncodingError(err))
			return
		}
	}

	ctx := r.Context()
	if err := c.impl.Hydrate(ctx, &props); err != nil {
		c.reg.fail(w, r, c.name, fmt.Errorf("%w: %w", ErrHydrationFailed, err))
		return
	}

	res := OK(props)
	if def != nil {
		res = def.handler(ctx, props, r)
	}
	c.write(w, r, res)
}

func (c *Component[P]) write(w http.ResponseWriter, r *http.Request, res Result[P]) {
	if res.err != nil {
		c.reg.fail(w, r, c.name, res.err)
		return
	}

	var buf bytes.Buffer
	if res.redirect == "" {
		if err := c.impl.Render(r.Context(), res.props).Render(r.Context(), &buf); err != nil {
			c.reg.fail(w, r, c.name, err)
			return
		}
	}

	h := w.Header()
	for k, v := range res.headers {
		h.Set(k, v)
	}
	if trigger := BuildTriggerHeader(res.trigger, res.triggerData); trigger != "" {
		h.Set("HX-Trigger", trigger)
	}
	status := res.status
	if status == 0 {
		status = http.StatusOK
	}

	if res.redirect != "" {
		h.Set("HX-Redirect", res.redirect)
		w.WriteHeader(status)
		return
	}

	h.Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (c *Component[P]) attach(reg *Registry) {
	if c.impl == nil {
		panic(fmt.Sprintf("hxcmp: component %q registered without Bind", c.name))
	}
	c.reg = reg
}

func (c *Component[P]) newAction(path, method string, props P) *Action {
	a := NewAction(path, method)
	if c.reg == nil {
		return a
	}
	encoded, err := c.reg.encoder.Encode(props, c.sensitive)
	if err != nil {
		c.reg.log.WithError(err).WithField("component", c.name).Error("encode props")
		return a
	}
	if method == http.MethodGet || method == "" {
		a.url = path + "?p=" + url.QueryEscape(encoded)
		return a
	}
	return a.Vals(map[string]any{"p": encoded})
}

// componentHash generates a deterministic hash based on component name and source location.
func componentHash(name string, skip int) string {
	_, file, line, ok := runtime.Caller(skip + 1)
	var input string
	if ok {
		// Base filename only, for portability across environments.
		input = fmt.Sprintf("%s:%d:%s", filepath.Base(file), line, name)
	} else {
		input = name
	}
	h := sha256.Sum256([]byte(input))
	return hex.EncodeToString(h[:4])
}

// lazyComponent wraps placeholder in an element that replaces itself with
// the response of a.
func lazyComponent(a *Action, placeholder templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, "<div"+a.render()+">"); err != nil {
			return err
		}
		if placeholder != nil {
			if err := placeholder.Render(ctx, w); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, "</div>")
		return err
	})
}
