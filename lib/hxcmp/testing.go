package hxcmp

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"

	"github.com/a-h/templ"
)

// TestResult holds the result of rendering a component for testing.
type TestResult struct {
	HTML            string
	StatusCode      int
	Headers         http.Header
	TriggeredEvents []string
	RedirectURL     string
}

// TestRender runs Hydrate and Render directly, bypassing props encoding and
// routing. For handlers and Result processing use TestAction, TestGet,
// TestPost or TestInvoke.
//
//	result, err := hxcmp.TestRender(comp, props)
//	if !result.HTMLContains("Select a country first") {
//	    t.Fatal("missing placeholder")
//	}
func TestRender[P any](comp Lifecycle[P], props P) (*TestResult, error) {
	return TestRenderWithContext(context.Background(), comp, props)
}

// TestRenderWithContext is TestRender with a caller-supplied context.
func TestRenderWithContext[P any](ctx context.Context, comp Lifecycle[P], props P) (*TestResult, error) {
	if err := comp.Hydrate(ctx, &props); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := comp.Render(ctx, props).Render(ctx, &buf); err != nil {
		return nil, err
	}

	return &TestResult{
		HTML:       buf.String(),
		StatusCode: http.StatusOK,
		Headers:    make(http.Header),
	}, nil
}

// TestAction sends a request through comp.HXServeHTTP and records the
// response. The HX-Request header is always set.
func TestAction(comp HXComponent, actionURL, method string, formData map[string]string) (*TestResult, error) {
	return TestActionWithContext(context.Background(), comp, actionURL, method, formData)
}

// TestActionWithContext is TestAction with a caller-supplied context.
func TestActionWithContext(ctx context.Context, comp HXComponent, actionURL, method string, formData map[string]string) (*TestResult, error) {
	form := url.Values{}
	for k, v := range formData {
		form.Set(k, v)
	}

	req := httptest.NewRequest(method, actionURL, strings.NewReader(form.Encode()))
	req = req.WithContext(ctx)
	if len(formData) > 0 {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	req.Header.Set("HX-Request", "true")

	rec := httptest.NewRecorder()
	comp.HXServeHTTP(rec, req)
	return newTestResult(rec), nil
}

// TestInvoke sends the request described by a, as built by Component.Call
// or Component.Refresh, merging formData with the action's hx-vals.
//
//	result, err := hxcmp.TestInvoke(field, field.Call("select", props), map[string]string{"id": "2"})
func TestInvoke(comp HXComponent, a *Action, formData map[string]string) (*TestResult, error) {
	data := a.Values()
	for k, v := range formData {
		data[k] = v
	}
	return TestAction(comp, a.URL(), a.Method(), data)
}

// TestGet simulates a GET request (render) against an HXComponent.
func TestGet(comp HXComponent, url string) (*TestResult, error) {
	return TestAction(comp, url, http.MethodGet, nil)
}

// TestPost simulates a POST request against an HXComponent.
func TestPost(comp HXComponent, url string, formData map[string]string) (*TestResult, error) {
	return TestAction(comp, url, http.MethodPost, formData)
}

func newTestResult(rec *httptest.ResponseRecorder) *TestResult {
	result := &TestResult{
		HTML:       rec.Body.String(),
		StatusCode: rec.Code,
		Headers:    rec.Header(),
	}
	if trigger := rec.Header().Get("HX-Trigger"); trigger != "" {
		result.TriggeredEvents = parseTriggerHeader(trigger)
	}
	result.RedirectURL = rec.Header().Get("HX-Redirect")
	return result
}

// HTMLContains checks if the HTML contains a substring.
func (r *TestResult) HTMLContains(substr string) bool {
	return strings.Contains(r.HTML, substr)
}

// HTMLContainsAll checks if the HTML contains all the given substrings.
func (r *TestResult) HTMLContainsAll(substrs ...string) bool {
	for _, s := range substrs {
		if !strings.Contains(r.HTML, s) {
			return false
		}
	}
	return true
}

// HTMLContainsAny checks if the HTML contains any of the given substrings.
func (r *TestResult) HTMLContainsAny(substrs ...string) bool {
	for _, s := range substrs {
		if strings.Contains(r.HTML, s) {
			return true
		}
	}
	return false
}

// HasEvent checks if an event whose name contains event was triggered.
func (r *TestResult) HasEvent(event string) bool {
	for _, e := range r.TriggeredEvents {
		if strings.Contains(e, event) {
			return true
		}
	}
	return false
}

// WasRedirected checks if the response was a redirect.
func (r *TestResult) WasRedirected() bool {
	return r.RedirectURL != ""
}

// RedirectedTo checks if the response was redirected to a specific URL.
func (r *TestResult) RedirectedTo(url string) bool {
	return r.RedirectURL == url
}

// IsOK checks if the status code is 200.
func (r *TestResult) IsOK() bool {
	return r.StatusCode == http.StatusOK
}

// HasStatus checks if the status code matches.
func (r *TestResult) HasStatus(code int) bool {
	return r.StatusCode == code
}

// HasHeader checks if a header is set with the given value.
func (r *TestResult) HasHeader(key, value string) bool {
	return r.Headers.Get(key) == value
}

// GetHeader returns the value of a header.
func (r *TestResult) GetHeader(key string) string {
	return r.Headers.Get(key)
}

// parseTriggerHeader returns the event names in an HX-Trigger value, which
// is either a comma-separated list or a JSON object keyed by event.
func parseTriggerHeader(trigger string) []string {
	trigger = strings.TrimSpace(trigger)
	if trigger == "" {
		return nil
	}

	if strings.HasPrefix(trigger, "{") {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal([]byte(trigger), &obj); err != nil {
			return nil
		}
		events := make([]string, 0, len(obj))
		for k := range obj {
			events = append(events, k)
		}
		sort.Strings(events)
		return events
	}

	parts := strings.Split(trigger, ",")
	events := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			events = append(events, p)
		}
	}
	return events
}

// MockHydrater wraps a component and replaces its hydration, for injecting
// test data without real dependencies.
type MockHydrater[P any] struct {
	Component    Lifecycle[P]
	HydrateFunc  func(ctx context.Context, props *P) error
	hydrateProps *P
}

// NewMockHydrater creates a MockHydrater that wraps a component.
func NewMockHydrater[P any](comp Lifecycle[P], hydrateFn func(ctx context.Context, props *P) error) *MockHydrater[P] {
	return &MockHydrater[P]{Component: comp, HydrateFunc: hydrateFn}
}

// Hydrate calls the custom hydrate function.
func (m *MockHydrater[P]) Hydrate(ctx context.Context, props *P) error {
	m.hydrateProps = props
	return m.HydrateFunc(ctx, props)
}

// Render delegates to the underlying component.
func (m *MockHydrater[P]) Render(ctx context.Context, props P) templ.Component {
	return m.Component.Render(ctx, props)
}

// LastHydratedProps returns the props from the last Hydrate call.
func (m *MockHydrater[P]) LastHydratedProps() *P {
	return m.hydrateProps
}
