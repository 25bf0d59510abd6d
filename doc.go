// Package geoform holds the domain model of the cascading country/state
// selection form: the Option records served by the country API, the
// FetchState snapshots the fields render, the Selection owned by a form
// session and the error taxonomy shared by every layer.
//
// # Selection
//
// The form's selection is a small state machine driven by explicit events.
// Reduce is the only way a Selection changes:
//
//	sel = geoform.Reduce(sel, geoform.CountryChanged{ID: 1})
//	sel = geoform.Reduce(sel, geoform.StateChanged{ID: 4})
//
// CountryChanged always clears the state id, so any code path that moves the
// country gets the cascade for free.
//
// # Errors
//
// Three kinds of failure exist. ErrConfiguration is fatal at startup,
// ErrInvalidArgument marks a states request without a usable country id and
// ErrFetch covers transport, status and payload failures. Presentation only
// ever sees an ErrorInfo, built with MessageOf.
package geoform
