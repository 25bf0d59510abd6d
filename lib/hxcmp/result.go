package hxcmp

// Result[P] is returned from action handlers to control rendering and side
// effects. The framework applies it after the handler returns:
//
//	// Success, render with the updated props
//	return hxcmp.OK(props)
//
//	// Failure, handled by Registry.OnError
//	return hxcmp.Err(props, hxcmp.BadInput("id %q is not a number", raw))
//
//	// Broadcast an event so other components refresh
//	return hxcmp.OK(props).Trigger("country:changed", map[string]any{"id": id})
type Result[P any] struct {
	props       P
	err         error
	redirect    string
	trigger     string
	triggerData map[string]any
	headers     map[string]string
	status      int
}

// OK creates a success result that will render with the given props.
func OK[P any](props P) Result[P] {
	return Result[P]{props: props}
}

// Err creates an error result that is passed to the registry's OnError.
func Err[P any](props P, err error) Result[P] {
	return Result[P]{props: props, err: err}
}

// Redirect creates a result that redirects via the HX-Redirect header.
func Redirect[P any](url string) Result[P] {
	return Result[P]{redirect: url}
}

// Trigger emits an event via the HX-Trigger header. Listeners subscribe with
// Action.OnEvent. With data the header carries a JSON object and HTMX
// exposes the data as the event detail.
func (r Result[P]) Trigger(event string, data ...map[string]any) Result[P] {
	r.trigger = event
	if len(data) > 0 {
		r.triggerData = data[0]
	}
	return r
}

// Header sets a custom response header.
func (r Result[P]) Header(key, value string) Result[P] {
	if r.headers == nil {
		r.headers = make(map[string]string)
	}
	r.headers[key] = value
	return r
}

// Status sets the HTTP status code. The default is 200.
func (r Result[P]) Status(code int) Result[P] {
	r.status = code
	return r
}

// GetProps returns the props from the result.
func (r Result[P]) GetProps() P { return r.props }

// GetErr returns the error from the result.
func (r Result[P]) GetErr() error { return r.err }

// GetRedirect returns the redirect URL.
func (r Result[P]) GetRedirect() string { return r.redirect }

// GetTrigger returns the trigger event name.
func (r Result[P]) GetTrigger() string { return r.trigger }

// GetTriggerData returns the trigger event data.
func (r Result[P]) GetTriggerData() map[string]any { return r.triggerData }

// GetHeaders returns the custom response headers.
func (r Result[P]) GetHeaders() map[string]string { return r.headers }

// GetStatus returns the HTTP status code (0 means not set, use default 200).
func (r Result[P]) GetStatus() int { return r.status }
