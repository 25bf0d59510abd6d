package components

import (
	"context"
	"io"
	"net/http"

	"github.com/a-h/templ"
	"github.com/pthm/geoform/lib/hxcmp"
	"github.com/pthm/geoform/lib/session"
	"github.com/sirupsen/logrus"
)

// CookieName holds the session id of a browser.
const CookieName = "geoform_session"

// HTMXScript is loaded by the page.
const HTMXScript = "https://unpkg.com/htmx.org@2.0.4"

// Form is the selection page. It mounts a session for the browser and
// embeds the fields.
type Form struct {
	store   *session.Store
	country *CountryField
	state   *StateField
	summary *Summary
	log     logrus.FieldLogger
}

// Mount returns the session named by the request cookie, creating one and
// setting the cookie when it is missing or expired.
func (f *Form) Mount(w http.ResponseWriter, r *http.Request) *session.Session {
	var id string
	if c, err := r.Cookie(CookieName); err == nil {
		id = c.Value
	}
	sess, created := f.store.GetOrCreate(id)
	if created {
		http.SetCookie(w, &http.Cookie{
			Name:     CookieName,
			Value:    sess.ID,
			Path:     "/",
			MaxAge:   int(f.store.IdleTTL().Seconds()),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
			Secure:   r.TLS != nil,
		})
	}
	return sess
}

// Page renders the whole document for sess.
func (f *Form) Page(sess *session.Session) templ.Component {
	props := Props{SessionID: sess.ID}
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`+
			`<meta name="viewport" content="width=device-width, initial-scale=1">`+
			`<title>Select Location</title>`+
			`<script src="`+HTMXScript+`"></script>`+
			`</head><body><main class="card">`+
			`<header><h1>Select Location</h1>`+
			`<p>Choose your country and state from the dropdowns below</p></header>`+
			`<form class="selection-form" onsubmit="return false">`); err != nil {
			return err
		}
		for _, c := range []templ.Component{
			f.country.Inline(props),
			f.state.Inline(props),
			f.summary.Inline(props),
		} {
			if err := c.Render(ctx, w); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</form></main></body></html>`)
		return err
	})
}

// ServeHTTP serves the page.
func (f *Form) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}
	sess := f.Mount(w, r)
	if err := hxcmp.Render(w, r, f.Page(sess)); err != nil {
		f.log.WithError(err).Error("render page")
	}
}
