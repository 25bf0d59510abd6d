// Package hxcmp is a small component runtime for server-rendered HTMX UIs
// built with templ.
//
// # Core Concepts
//
// Components embed *Component[P] where P is the Props type. Props are
// serialized into component URLs, so they should carry IDs and flags only;
// rich objects are attached during hydration and excluded from encoding
// with a `msgpack:"-"` tag.
//
//	type StateField struct {
//	    *hxcmp.Component[Props]
//	    store *session.Store
//	}
//
// A component implements Lifecycle[P]:
//   - Hydrate(ctx, *P) attaches rich objects to the decoded props
//   - Render(ctx, P) produces the templ.Component output
//
// and binds itself to its embedded Component with c.Bind(c).
//
// # Actions and Routing
//
// Actions are registered with semantic names:
//
//	c.Action("select", c.handleSelect)
//	c.Action("peek", c.handlePeek).Method(http.MethodGet)
//
// Each component is served under a prefix derived from its name and the
// source location of New. A request to prefix/ renders; prefix/<action>
// decodes props, hydrates, runs the handler and renders its Result.
//
// Templates request actions through builders:
//
//	c.Call("select", props).OnChange().Target("#state-field").Attrs()
//	c.Refresh(props).OnEvent("country:changed").Attrs()
//
// # Events
//
// Handlers broadcast events through the HX-Trigger header; other components
// subscribe with OnEvent and re-render:
//
//	return hxcmp.OK(props).Trigger("country:changed", map[string]any{"id": id})
//
// # Failure Handling
//
// Bad props, unknown actions, hydration failures and Err results go to
// Registry.OnError. A panic anywhere in a component request, or in
// Component.Inline during a page render, is contained by the component's
// boundary: the response is replaced by a fallback with a "Try Again"
// button that re-requests only that component, and the panic is logged.
//
// # Security Model
//
// Props are signed (HMAC, visible but tamper-proof) or, with .Sensitive(),
// encrypted with AES-GCM. Mutating methods require the HX-Request: true
// header, which cross-site forms cannot set.
package hxcmp
