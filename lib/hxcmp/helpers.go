package hxcmp

import (
	"encoding/json"
	"net/http"

	"github.com/a-h/templ"
)

// Render writes a templ component to the HTTP response.
//
// Use this for pages; component requests are rendered by the framework.
func Render(w http.ResponseWriter, r *http.Request, component templ.Component) error {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return component.Render(r.Context(), w)
}

// IsHTMX returns true if the request originated from HTMX.
func IsHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// TriggerName returns the name attribute of the element that triggered the
// request, or "" for non-HTMX requests.
func TriggerName(r *http.Request) string {
	return r.Header.Get("HX-Trigger-Name")
}

// BuildTriggerHeader builds an HX-Trigger header value.
//
//	"item-updated", nil          -> item-updated
//	"country:changed", {"id": 3} -> {"country:changed":{"id":3}}
//
// With data HTMX fires the event with evt.detail set to the data object.
func BuildTriggerHeader(trigger string, data map[string]any) string {
	if trigger == "" {
		return ""
	}
	if data == nil {
		return trigger
	}
	out, _ := json.Marshal(map[string]any{trigger: data})
	return string(out)
}
