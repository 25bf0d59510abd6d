package components

import (
	"net/http"

	"github.com/pthm/geoform/lib/hxcmp"
	"github.com/pthm/geoform/lib/session"
	"github.com/sirupsen/logrus"
)

// Init creates the form components, registers them with reg and returns the
// page that embeds them. Call it once at startup before handling requests.
func Init(store *session.Store, reg *hxcmp.Registry, log logrus.FieldLogger, opts ...Option) *Form {
	if log == nil {
		log = logrus.StandardLogger()
	}
	f := &Form{
		store:   store,
		country: NewCountryField(store, log, opts...),
		state:   NewStateField(store, log, opts...),
		summary: NewSummary(store),
		log:     log,
	}
	reg.Add(f.country, f.state, f.summary)
	return f
}

// OnError extends next with session expiry handling: HTMX requests for an
// expired session reload the page, which mounts a fresh session.
func OnError(next func(http.ResponseWriter, *http.Request, error)) func(http.ResponseWriter, *http.Request, error) {
	if next == nil {
		next = hxcmp.DefaultOnError
	}
	return func(w http.ResponseWriter, r *http.Request, err error) {
		if hxcmp.IsNotFound(err) && hxcmp.IsHTMX(r) {
			w.Header().Set("HX-Refresh", "true")
		}
		next(w, r, err)
	}
}
