package hxcmp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/a-h/templ"
)

type counterProps struct {
	Name  string
	Count int
	Panic bool

	Loaded bool `msgpack:"-"`
}

type counter struct {
	*Component[counterProps]
	hydrateErr error
}

func newCounter() *counter {
	c := &counter{Component: New[counterProps]("counter")}
	c.Bind(c)
	c.Action("increment", c.handleIncrement)
	c.Action("fail", func(ctx context.Context, props counterProps, r *http.Request) Result[counterProps] {
		return Err(props, BadInput("cannot fail %s", props.Name))
	})
	c.Action("boom", func(ctx context.Context, props counterProps, r *http.Request) Result[counterProps] {
		panic("kaboom")
	})
	c.Action("peek", func(ctx context.Context, props counterProps, r *http.Request) Result[counterProps] {
		return OK(props).Header("Cache-Control", "no-store")
	}).Method(http.MethodGet)
	c.Action("leave", func(ctx context.Context, props counterProps, r *http.Request) Result[counterProps] {
		return Redirect[counterProps]("/bye")
	})
	return c
}

func (c *counter) Hydrate(ctx context.Context, props *counterProps) error {
	if c.hydrateErr != nil {
		return c.hydrateErr
	}
	props.Loaded = true
	return nil
}

func (c *counter) Render(ctx context.Context, props counterProps) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if props.Panic {
			panic(errors.New("render exploded"))
		}
		_, err := fmt.Fprintf(w, `<div id="counter" data-loaded="%t">%s: %d</div>`,
			props.Loaded, templ.EscapeString(props.Name), props.Count)
		return err
	})
}

func (c *counter) handleIncrement(ctx context.Context, props counterProps, r *http.Request) Result[counterProps] {
	by := 1
	if raw := r.FormValue("by"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return Err(props, BadInput("by %q is not a number", raw))
		}
		by = n
	}
	props.Count += by
	return OK(props).Trigger("counter:changed", map[string]any{"count": props.Count})
}

type recoveries struct {
	mu    sync.Mutex
	names []string
}

func (r *recoveries) Recovered(component string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.names = append(r.names, component)
}

func (r *recoveries) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.names)
}

func registered(t *testing.T, opts ...RegistryOption) (*Registry, *counter) {
	t.Helper()
	reg := NewRegistry([]byte("test-key-with-enough-bytes-000000"), opts...)
	c := newCounter()
	reg.Add(c)
	return reg, c
}

func TestComponentRender(t *testing.T) {
	_, c := registered(t)
	props := counterProps{Name: "Ada", Count: 1}

	result, err := TestGet(c, c.Refresh(props).URL())
	if err != nil {
		t.Fatal(err)
	}
	if !result.IsOK() {
		t.Fatalf("status = %d, body = %s", result.StatusCode, result.HTML)
	}
	if !result.HTMLContainsAll("Ada: 1", `data-loaded="true"`) {
		t.Errorf("HTML = %s", result.HTML)
	}
	if got := result.GetHeader("Content-Type"); got != "text/html; charset=utf-8" {
		t.Errorf("Content-Type = %q", got)
	}
}

func TestComponentAction(t *testing.T) {
	_, c := registered(t)
	props := counterProps{Name: "Ada", Count: 1}

	result, err := TestInvoke(c, c.Call("increment", props), map[string]string{"by": "4"})
	if err != nil {
		t.Fatal(err)
	}
	if !result.IsOK() {
		t.Fatalf("status = %d, body = %s", result.StatusCode, result.HTML)
	}
	if !result.HTMLContains("Ada: 5") {
		t.Errorf("HTML = %s", result.HTML)
	}
	if !result.HasEvent("counter:changed") {
		t.Errorf("events = %v", result.TriggeredEvents)
	}
	if got := result.GetHeader("HX-Trigger"); got != `{"counter:changed":{"count":5}}` {
		t.Errorf("HX-Trigger = %q", got)
	}
}

func TestComponentGETAction(t *testing.T) {
	_, c := registered(t)
	a := c.Call("peek", counterProps{Name: "Ada"})
	if a.Method() != http.MethodGet || !strings.Contains(a.URL(), "?p=") {
		t.Fatalf("peek action = %s %s", a.Method(), a.URL())
	}

	result, err := TestInvoke(c, a, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !result.IsOK() || !result.HasHeader("Cache-Control", "no-store") {
		t.Errorf("status = %d, headers = %v", result.StatusCode, result.Headers)
	}
}

func TestComponentRedirect(t *testing.T) {
	_, c := registered(t)
	result, err := TestInvoke(c, c.Call("leave", counterProps{}), nil)
	if err != nil {
		t.Fatal(err)
	}
	if !result.RedirectedTo("/bye") || result.HTML != "" {
		t.Errorf("redirect = %q, body = %q", result.RedirectURL, result.HTML)
	}
}

func TestComponentErrors(t *testing.T) {
	_, c := registered(t)
	props := counterProps{Name: "Ada"}
	good := c.Call("increment", props)

	tests := []struct {
		name   string
		url    string
		method string
		form   map[string]string
		status int
	}{
		{"Err result", c.Prefix() + "/fail", http.MethodPost, c.Call("fail", props).Values(), http.StatusBadRequest},
		{"bad input", good.URL(), http.MethodPost, map[string]string{"p": good.Values()["p"], "by": "x"}, http.StatusBadRequest},
		{"unknown action", c.Prefix() + "/nope", http.MethodPost, nil, http.StatusNotFound},
		{"wrong method for action", good.URL(), http.MethodGet, nil, http.StatusMethodNotAllowed},
		{"post to render", c.Prefix() + "/", http.MethodPost, nil, http.StatusMethodNotAllowed},
		{"tampered props", good.URL(), http.MethodPost, map[string]string{"p": good.Values()["p"] + "x"}, http.StatusBadRequest},
		{"garbage props", c.Prefix() + "/?p=not-a-token", http.MethodGet, nil, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := TestAction(c, tt.url, tt.method, tt.form)
			if err != nil {
				t.Fatal(err)
			}
			if !result.HasStatus(tt.status) {
				t.Errorf("status = %d, want %d (body %q)", result.StatusCode, tt.status, result.HTML)
			}
		})
	}
}

func TestComponentHydrateError(t *testing.T) {
	_, c := registered(t)
	c.hydrateErr = fmt.Errorf("session %q: %w", "abc", ErrNotFound)

	var got error
	c.reg.OnError = func(w http.ResponseWriter, r *http.Request, err error) {
		got = err
		w.Header().Set("HX-Refresh", "true")
		w.WriteHeader(http.StatusNotFound)
	}

	result, err := TestGet(c, c.Refresh(counterProps{}).URL())
	if err != nil {
		t.Fatal(err)
	}
	if !errors.Is(got, ErrHydrationFailed) || !IsNotFound(got) {
		t.Errorf("OnError got %v", got)
	}
	if !result.HasHeader("HX-Refresh", "true") || !result.HasStatus(http.StatusNotFound) {
		t.Errorf("status = %d, headers = %v", result.StatusCode, result.Headers)
	}
}

func TestComponentBoundary(t *testing.T) {
	obs := &recoveries{}
	_, c := registered(t, WithBoundaryObserver(obs))

	tests := []struct {
		name    string
		action  *Action
		message string
	}{
		{"handler panic", c.Call("boom", counterProps{Name: "Ada"}), "kaboom"},
		{"render panic", c.Refresh(counterProps{Name: "Ada", Panic: true}), "render exploded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := TestInvoke(c, tt.action, nil)
			if err != nil {
				t.Fatal(err)
			}
			if !result.IsOK() {
				t.Fatalf("status = %d, want 200 so the fallback is swapped in", result.StatusCode)
			}
			if !result.HTMLContainsAll("Something went wrong", tt.message, "Try Again", `data-component="counter"`) {
				t.Errorf("HTML = %s", result.HTML)
			}
			if !result.HTMLContains(`hx-get="` + c.Prefix() + `/?p=`) {
				t.Errorf("retry does not re-request the component: %s", result.HTML)
			}
			if result.HTMLContains("Ada: ") {
				t.Errorf("partial component output leaked: %s", result.HTML)
			}
			if len(result.TriggeredEvents) != 0 {
				t.Errorf("events = %v, want none", result.TriggeredEvents)
			}
		})
	}
	if obs.count() != 2 {
		t.Errorf("recoveries = %d, want 2", obs.count())
	}
}

func TestComponentInline(t *testing.T) {
	obs := &recoveries{}
	_, c := registered(t, WithBoundaryObserver(obs))

	var buf strings.Builder
	if err := c.Inline(counterProps{Name: "Ada", Count: 2}).Render(context.Background(), &buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `data-loaded="true">Ada: 2`) {
		t.Errorf("Inline() = %s", buf.String())
	}

	buf.Reset()
	if err := c.Inline(counterProps{Name: "Ada", Panic: true}).Render(context.Background(), &buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "Something went wrong") || obs.count() != 1 {
		t.Errorf("Inline() panic fallback = %s", buf.String())
	}

	unregistered := newCounter()
	if err := unregistered.Inline(counterProps{}).Render(context.Background(), &buf); err == nil {
		t.Error("Inline() on an unregistered component succeeded")
	}
}

func TestComponentSensitive(t *testing.T) {
	reg := NewRegistry([]byte("another-key"))
	c := newCounter()
	c.Sensitive()
	reg.Add(c)

	plain := NewRegistry([]byte("another-key"))
	p := newCounter()
	p.Component = New[counterProps]("plain")
	p.Bind(p)
	plain.Add(p)

	secret := c.Refresh(counterProps{Name: "Ada"}).URL()
	signed := p.Refresh(counterProps{Name: "Ada"}).URL()
	if secret == signed {
		t.Error("sensitive props encoded like signed props")
	}

	result, err := TestGet(c, secret)
	if err != nil {
		t.Fatal(err)
	}
	if !result.HTMLContains("Ada: 0") {
		t.Errorf("HTML = %s", result.HTML)
	}
}

func TestLazyAndDefer(t *testing.T) {
	_, c := registered(t)
	placeholder := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, "<span>loading</span>")
		return err
	})

	tests := []struct {
		name    string
		comp    templ.Component
		trigger string
	}{
		{"Lazy", c.Lazy(counterProps{}, placeholder), `hx-trigger="intersect once"`},
		{"Defer", c.Defer(counterProps{}, placeholder), `hx-trigger="load"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf strings.Builder
			if err := tt.comp.Render(context.Background(), &buf); err != nil {
				t.Fatal(err)
			}
			html := buf.String()
			for _, want := range []string{`hx-get="` + c.Prefix() + `/?p=`, tt.trigger, "<span>loading</span>"} {
				if !strings.Contains(html, want) {
					t.Errorf("missing %q in %s", want, html)
				}
			}
		})
	}
}

func TestRegistryHandler(t *testing.T) {
	reg, c := registered(t)
	h := reg.Handler()
	a := c.Call("increment", counterProps{Name: "Ada"})

	post := func(hx bool) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, a.URL(), strings.NewReader("p="+a.Values()["p"]))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		if hx {
			req.Header.Set("HX-Request", "true")
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	if rec := post(false); rec.Code != http.StatusForbidden {
		t.Errorf("POST without HX-Request = %d, want 403", rec.Code)
	}
	if rec := post(true); rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Ada: 1") {
		t.Errorf("POST with HX-Request = %d %q", rec.Code, rec.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, c.Refresh(counterProps{Name: "Bo"}).URL(), nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("GET without HX-Request = %d, want 200", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/_c/unknown/", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown component = %d, want 404", rec.Code)
	}
}

func TestRegistryAddPanics(t *testing.T) {
	tests := []struct {
		name string
		add  func(reg *Registry)
	}{
		{"collision", func(reg *Registry) {
			reg.Add(newCounter())
			reg.Add(newCounter())
		}},
		{"not a component", func(reg *Registry) {
			reg.Add(&mockHXComponent{prefix: "/_c/mock"})
		}},
		{"unbound", func(reg *Registry) {
			reg.Add(&counter{Component: New[counterProps]("unbound")})
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("Add() did not panic")
				}
			}()
			tt.add(NewRegistry([]byte("k")))
		})
	}
}

func TestNewRegistryEmptyKeyPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("NewRegistry(nil) did not panic")
		}
	}()
	NewRegistry(nil)
}

func TestUnregisteredComponent(t *testing.T) {
	c := newCounter()
	rec := httptest.NewRecorder()
	c.HXServeHTTP(rec, httptest.NewRequest(http.MethodGet, c.Prefix()+"/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestPanicMessage(t *testing.T) {
	tests := []struct {
		v    any
		want string
	}{
		{errors.New("err"), "err"},
		{"text", "text"},
		{42, "Unexpected error"},
	}
	for _, tt := range tests {
		if got := PanicMessage(tt.v); got != tt.want {
			t.Errorf("PanicMessage(%v) = %q, want %q", tt.v, got, tt.want)
		}
	}
}

func TestFallbackEscapes(t *testing.T) {
	var buf strings.Builder
	if err := Fallback("x", `<script>alert("x")</script>`, "/_c/x/").Render(context.Background(), &buf); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "<script>") {
		t.Errorf("message not escaped: %s", buf.String())
	}
}
