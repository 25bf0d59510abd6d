package hxcmp

import (
	"net/http"
	"testing"
	"time"

	"github.com/a-h/templ"
	"github.com/google/go-cmp/cmp"
)

func TestActionAttrs(t *testing.T) {
	const u = "/_c/statefield-0a1b2c3d/"

	tests := []struct {
		name   string
		action *Action
		want   templ.Attributes
	}{
		{
			name:   "empty method is GET",
			action: NewAction(u, ""),
			want:   templ.Attributes{"hx-get": u, "hx-swap": "outerHTML"},
		},
		{
			name:   "select on change",
			action: NewAction(u+"select", http.MethodPost).OnChange().Target("#state-field"),
			want: templ.Attributes{
				"hx-post":    u + "select",
				"hx-swap":    "outerHTML",
				"hx-target":  "#state-field",
				"hx-trigger": "change",
			},
		},
		{
			name:   "listen for country change",
			action: NewAction(u, http.MethodGet).OnEvent("country:changed"),
			want: templ.Attributes{
				"hx-get":     u,
				"hx-swap":    "outerHTML",
				"hx-trigger": "country:changed from:body",
			},
		},
		{
			name:   "poll while loading",
			action: NewAction(u, http.MethodGet).OnLoadAfter(300 * time.Millisecond).TargetThis(),
			want: templ.Attributes{
				"hx-get":     u,
				"hx-swap":    "outerHTML",
				"hx-target":  "this",
				"hx-trigger": "load delay:300ms",
			},
		},
		{
			name: "every option",
			action: NewAction(u+"clear", http.MethodDelete).
				TargetClosest(".field").
				SwapInner().
				Every(5*time.Second).
				Confirm("Clear the selection?").
				Indicator("#spinner").
				Include("#country-select").
				PushURL().
				Vals(map[string]any{"id": 3}),
			want: templ.Attributes{
				"hx-delete":    u + "clear",
				"hx-swap":      "innerHTML",
				"hx-target":    "closest .field",
				"hx-trigger":   "every 5s",
				"hx-confirm":   "Clear the selection?",
				"hx-indicator": "#spinner",
				"hx-include":   "#country-select",
				"hx-push-url":  "true",
				"hx-vals":      `{"id":3}`,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, tt.action.Attrs()); diff != "" {
				t.Errorf("Attrs() (-want +got):\n%s", diff)
			}
		})
	}
}

func TestActionMethodAttr(t *testing.T) {
	for method, attr := range map[string]string{
		http.MethodGet:    "hx-get",
		http.MethodPost:   "hx-post",
		http.MethodPut:    "hx-put",
		http.MethodPatch:  "hx-patch",
		http.MethodDelete: "hx-delete",
	} {
		if _, ok := NewAction("/x", method).Attrs()[attr]; !ok {
			t.Errorf("%s: missing %s", method, attr)
		}
	}
}

func TestActionTargetsAndSwaps(t *testing.T) {
	targets := map[string]*Action{
		"next .hint":     NewAction("/x", "").TargetNext(".hint"),
		"previous label": NewAction("/x", "").TargetPrevious("label"),
		"find select":    NewAction("/x", "").TargetFind("select"),
	}
	for want, a := range targets {
		if got := a.Attrs()["hx-target"]; got != want {
			t.Errorf("hx-target = %v, want %q", got, want)
		}
	}

	swaps := map[SwapMode]*Action{
		SwapOuter:       NewAction("/x", "").SwapOuter(),
		SwapBeforeEnd:   NewAction("/x", "").SwapBeforeEnd(),
		SwapAfterEnd:    NewAction("/x", "").SwapAfterEnd(),
		SwapBeforeBegin: NewAction("/x", "").SwapBeforeBegin(),
		SwapAfterBegin:  NewAction("/x", "").SwapAfterBegin(),
		SwapDelete:      NewAction("/x", "").SwapDelete(),
		SwapNone:        NewAction("/x", "").SwapNone(),
	}
	for want, a := range swaps {
		if got := a.Attrs()["hx-swap"]; got != string(want) {
			t.Errorf("hx-swap = %v, want %q", got, want)
		}
	}
}

func TestActionTriggerVariants(t *testing.T) {
	tests := map[string]*Action{
		"load":           NewAction("/x", "").OnLoad(),
		"intersect once": NewAction("/x", "").OnIntersect(),
		"revealed":       NewAction("/x", "").OnRevealed(),
		"load delay:300ms, country:changed from:body": NewAction("/x", "").
			Trigger("load delay:300ms, country:changed from:body"),
	}
	for want, a := range tests {
		if got := a.Attrs()["hx-trigger"]; got != want {
			t.Errorf("hx-trigger = %v, want %q", got, want)
		}
	}
}

func TestActionAlsoOnEvent(t *testing.T) {
	tests := map[string]*Action{
		"country:changed from:body": NewAction("/x", "").AlsoOnEvent("country:changed"),
		"country:changed from:body, state:changed from:body": NewAction("/x", "").
			OnEvent("country:changed").
			AlsoOnEvent("state:changed"),
		"load delay:1500ms, country:changed from:body": NewAction("/x", "").
			OnLoadAfter(1500 * time.Millisecond).
			AlsoOnEvent("country:changed"),
	}
	for want, a := range tests {
		if got := a.Attrs()["hx-trigger"]; got != want {
			t.Errorf("hx-trigger = %v, want %q", got, want)
		}
	}
}

func TestActionAsLink(t *testing.T) {
	got := NewAction("/_c/summary-1/", http.MethodGet).AsLink()
	if diff := cmp.Diff(templ.Attributes{"href": "/_c/summary-1/"}, got); diff != "" {
		t.Errorf("AsLink() (-want +got):\n%s", diff)
	}
}

func TestActionValues(t *testing.T) {
	a := NewAction("/url", http.MethodPost).
		Vals(map[string]any{"p": "token"}).
		Vals(map[string]any{"id": 2})

	if diff := cmp.Diff(map[string]string{"p": "token", "id": "2"}, a.Values()); diff != "" {
		t.Errorf("Values() (-want +got):\n%s", diff)
	}
	if got := a.Attrs()["hx-vals"]; got != `{"id":2,"p":"token"}` {
		t.Errorf("hx-vals = %v", got)
	}
}

func TestActionString(t *testing.T) {
	a := NewAction(`/url?p=a&b`, http.MethodGet).
		OnLoadAfter(300 * time.Millisecond).
		Target("#state-field")

	want := ` hx-get="/url?p=a&amp;b" hx-swap="outerHTML" hx-target="#state-field" hx-trigger="load delay:300ms"`
	if got := a.String(); got != want {
		t.Errorf("String() =\n%s\nwant\n%s", got, want)
	}
}

func TestRenderAttrs(t *testing.T) {
	got := RenderAttrs(templ.Attributes{
		"disabled":   true,
		"hidden":     false,
		"data-label": `<b>"x"</b>`,
		"aria-label": "Loading",
	})
	want := ` aria-label="Loading" data-label="&lt;b&gt;&#34;x&#34;&lt;/b&gt;" disabled`
	if got != want {
		t.Errorf("RenderAttrs() =\n%s\nwant\n%s", got, want)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := map[time.Duration]string{
		300 * time.Millisecond:  "300ms",
		999 * time.Millisecond:  "999ms",
		time.Second:             "1s",
		1500 * time.Millisecond: "1500ms",
		2 * time.Second:         "2s",
		30 * time.Second:        "30s",
	}
	for d, want := range tests {
		if got := formatDuration(d); got != want {
			t.Errorf("formatDuration(%v) = %q, want %q", d, got, want)
		}
	}
}
