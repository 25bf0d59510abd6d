package hxcmp

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/a-h/templ"
)

// ActionBuilder configures action registration.
//
//	c.Action("select", handler)  // POST by default
//	c.Action("peek", handler).Method(http.MethodGet)
type ActionBuilder struct {
	method *string
}

// Method overrides the default POST method for an action.
func (ab *ActionBuilder) Method(m string) *ActionBuilder {
	*ab.method = m
	return ab
}

// Action builds the HTMX attributes for one request. Builders are returned
// by Component.Call and Component.Refresh, or made directly with NewAction:
//
//	c.Call("select", props).OnChange().Target("#state-field").Attrs()
type Action struct {
	url       string
	method    string
	target    string
	swap      SwapMode
	trigger   string
	confirm   string
	indicator string
	include   string
	pushURL   bool
	vals      map[string]any
}

// NewAction creates an action for url with the given HTTP method. An empty
// method means GET.
func NewAction(url, method string) *Action {
	if method == "" {
		method = http.MethodGet
	}
	return &Action{url: url, method: method, swap: SwapOuter}
}

// URL returns the request URL, including encoded props for GET actions.
func (a *Action) URL() string { return a.url }

// Method returns the HTTP method.
func (a *Action) Method() string { return a.method }

// Target sets hx-target to a CSS selector.
func (a *Action) Target(selector string) *Action {
	a.target = selector
	return a
}

// TargetThis targets the element carrying the attributes.
func (a *Action) TargetThis() *Action { return a.Target("this") }

// TargetClosest targets the closest ancestor matching selector.
func (a *Action) TargetClosest(selector string) *Action { return a.Target("closest " + selector) }

// TargetFind targets the first descendant matching selector.
func (a *Action) TargetFind(selector string) *Action { return a.Target("find " + selector) }

// TargetNext targets the next sibling matching selector.
func (a *Action) TargetNext(selector string) *Action { return a.Target("next " + selector) }

// TargetPrevious targets the previous sibling matching selector.
func (a *Action) TargetPrevious(selector string) *Action { return a.Target("previous " + selector) }

// Swap sets the swap strategy.
func (a *Action) Swap(mode SwapMode) *Action {
	a.swap = mode
	return a
}

func (a *Action) SwapOuter() *Action       { return a.Swap(SwapOuter) }
func (a *Action) SwapInner() *Action       { return a.Swap(SwapInner) }
func (a *Action) SwapBeforeEnd() *Action   { return a.Swap(SwapBeforeEnd) }
func (a *Action) SwapAfterEnd() *Action    { return a.Swap(SwapAfterEnd) }
func (a *Action) SwapBeforeBegin() *Action { return a.Swap(SwapBeforeBegin) }
func (a *Action) SwapAfterBegin() *Action  { return a.Swap(SwapAfterBegin) }
func (a *Action) SwapDelete() *Action      { return a.Swap(SwapDelete) }
func (a *Action) SwapNone() *Action        { return a.Swap(SwapNone) }

// Trigger sets a raw hx-trigger value.
func (a *Action) Trigger(spec string) *Action {
	a.trigger = spec
	return a
}

// Every polls at the given interval.
func (a *Action) Every(d time.Duration) *Action {
	return a.Trigger("every " + formatDuration(d))
}

// OnEvent fires when event reaches the body, wherever it was triggered.
// Pair it with Result.Trigger on the emitting side.
func (a *Action) OnEvent(event string) *Action {
	return a.Trigger(event + " from:body")
}

// AlsoOnEvent adds event, heard from the body, to the existing triggers.
//
//	c.Refresh(props).OnLoadAfter(300 * time.Millisecond).AlsoOnEvent("country:changed")
func (a *Action) AlsoOnEvent(event string) *Action {
	spec := event + " from:body"
	if a.trigger != "" {
		spec = a.trigger + ", " + spec
	}
	return a.Trigger(spec)
}

// OnLoad fires once the element is loaded.
func (a *Action) OnLoad() *Action { return a.Trigger("load") }

// OnLoadAfter fires d after the element is loaded.
func (a *Action) OnLoadAfter(d time.Duration) *Action {
	return a.Trigger("load delay:" + formatDuration(d))
}

// OnChange fires when the element's value changes.
func (a *Action) OnChange() *Action { return a.Trigger("change") }

// OnIntersect fires once the element enters the viewport.
func (a *Action) OnIntersect() *Action { return a.Trigger("intersect once") }

// OnRevealed fires when the element is scrolled into view.
func (a *Action) OnRevealed() *Action { return a.Trigger("revealed") }

// Confirm asks the user before sending the request.
func (a *Action) Confirm(message string) *Action {
	a.confirm = message
	return a
}

// Indicator sets the element shown while the request is in flight.
func (a *Action) Indicator(selector string) *Action {
	a.indicator = selector
	return a
}

// Include adds the values of the elements matching selector to the request.
func (a *Action) Include(selector string) *Action {
	a.include = selector
	return a
}

// PushURL pushes the request URL onto the browser history.
func (a *Action) PushURL() *Action {
	a.pushURL = true
	return a
}

// Vals merges extra parameters into hx-vals.
func (a *Action) Vals(vals map[string]any) *Action {
	if a.vals == nil {
		a.vals = make(map[string]any, len(vals))
	}
	for k, v := range vals {
		a.vals[k] = v
	}
	return a
}

// Values returns the hx-vals parameters as form values.
func (a *Action) Values() map[string]string {
	out := make(map[string]string, len(a.vals))
	for k, v := range a.vals {
		out[k] = fmt.Sprint(v)
	}
	return out
}

// Attrs returns the HTMX attributes for spreading onto an element.
func (a *Action) Attrs() templ.Attributes {
	attrs := templ.Attributes{}
	attrs[methodAttr(a.method)] = a.url
	if a.swap != "" {
		attrs["hx-swap"] = string(a.swap)
	}
	if a.target != "" {
		attrs["hx-target"] = a.target
	}
	if a.trigger != "" {
		attrs["hx-trigger"] = a.trigger
	}
	if a.confirm != "" {
		attrs["hx-confirm"] = a.confirm
	}
	if a.indicator != "" {
		attrs["hx-indicator"] = a.indicator
	}
	if a.include != "" {
		attrs["hx-include"] = a.include
	}
	if a.pushURL {
		attrs["hx-push-url"] = "true"
	}
	if len(a.vals) > 0 {
		data, _ := json.Marshal(a.vals)
		attrs["hx-vals"] = string(data)
	}
	return attrs
}

// AsLink returns a plain href for non-HTMX navigation.
func (a *Action) AsLink() templ.Attributes {
	return templ.Attributes{"href": a.url}
}

// String renders the attributes as HTML, sorted by name, with a leading
// space.
func (a *Action) String() string {
	return a.render()
}

func (a *Action) render() string {
	return RenderAttrs(a.Attrs())
}

// RenderAttrs renders attrs as escaped HTML attributes sorted by name. Each
// attribute is preceded by a space. Boolean true renders the bare name;
// false omits it.
func RenderAttrs(attrs templ.Attributes) string {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		switch v := attrs[k].(type) {
		case bool:
			if v {
				b.WriteString(" " + templ.EscapeString(k))
			}
		default:
			fmt.Fprintf(&b, ` %s="%s"`, templ.EscapeString(k), templ.EscapeString(fmt.Sprint(v)))
		}
	}
	return b.String()
}

func methodAttr(method string) string {
	switch method {
	case http.MethodPost:
		return "hx-post"
	case http.MethodPut:
		return "hx-put"
	case http.MethodPatch:
		return "hx-patch"
	case http.MethodDelete:
		return "hx-delete"
	}
	return "hx-get"
}

// formatDuration formats d for hx-trigger: whole seconds as "5s", anything
// else as milliseconds.
func formatDuration(d time.Duration) string {
	if d >= time.Second && d%time.Second == 0 {
		return fmt.Sprintf("%ds", d/time.Second)
	}
	return fmt.Sprintf("%dms", d.Milliseconds())
}
