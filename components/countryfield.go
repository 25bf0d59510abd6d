package components

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/a-h/templ"
	"github.com/pthm/geoform"
	"github.com/pthm/geoform/lib/hxcmp"
	"github.com/pthm/geoform/lib/session"
	"github.com/sirupsen/logrus"
)

const countryFieldID = "country-field"

// CountryField renders the country dropdown of a session.
type CountryField struct {
	*hxcmp.Component[Props]
	store SessionStore
	opts  options
	log   logrus.FieldLogger
}

func NewCountryField(store SessionStore, log logrus.FieldLogger, opts ...Option) *CountryField {
	c := &CountryField{
		Component: hxcmp.New[Props]("countryfield").Sensitive(),
		store:     store,
		opts:      newOptions(opts),
		log:       log,
	}
	c.Bind(c)

	c.Action("select", c.handleSelect)
	c.Action("retry", c.handleRetry)

	return c
}

func (c *CountryField) Hydrate(ctx context.Context, props *Props) error {
	sess, err := hydrateSession(c.store, props)
	if err != nil {
		return err
	}
	props.State = sess.Countries.Settle(ctx, c.opts.settle)
	return nil
}

func (c *CountryField) handleSelect(ctx context.Context, props Props, r *http.Request) hxcmp.Result[Props] {
	raw := strings.TrimSpace(r.FormValue("id"))
	if raw == "" {
		props.Selection = props.Session.Dispatch(geoform.Cleared{})
		c.log.WithField("session", props.SessionID).Debug("selection cleared")
		return hxcmp.OK(props).Trigger(EventCountryChanged, map[string]any{"id": 0})
	}
	id, err := parseID(raw)
	if err != nil {
		return hxcmp.Err(props, err)
	}
	props.Selection = props.Session.Dispatch(geoform.CountryChanged{ID: id})
	c.log.WithFields(logrus.Fields{
		"session":    props.SessionID,
		"country_id": id,
	}).Debug("country selected")

	return hxcmp.OK(props).Trigger(EventCountryChanged, map[string]any{"id": id})
}

func (c *CountryField) handleRetry(ctx context.Context, props Props, r *http.Request) hxcmp.Result[Props] {
	props.Session.Countries.Refetch()
	props.State = props.Session.Countries.Settle(ctx, c.opts.settle)
	return hxcmp.OK(props)
}

func (c *CountryField) Render(ctx context.Context, props Props) templ.Component {
	st := props.State
	var root *hxcmp.Action
	if st.Loading {
		root = c.Refresh(props).OnLoadAfter(c.opts.poll)
	}

	return markup(func(b *strings.Builder) {
		field(b, countryFieldID, root, func(b *strings.Builder) {
			switch {
			case st.Failed():
				label(b, "Country", "")
				errorDisplay(b, st.Err.Message, c.Call("retry", props).Target("#"+countryFieldID))
			case st.Loading:
				label(b, "Country", "")
				loading(b)
			default:
				label(b, "Country", "country-select")
				selectControl(b, selectConfig{
					id:          "country-select",
					placeholder: "Select a country",
					options:     st.Items,
					selected:    props.Selection.CountryID,
					action:      c.Call("select", props).OnChange().Target("#" + countryFieldID),
				})
				if len(st.Items) == 0 {
					b.WriteString(`<p class="empty">No countries found.</p>`)
				}
			}
		})
	})
}

// hydrateSession loads the session named by props, or reports ErrNotFound
// once it has expired.
func hydrateSession(store SessionStore, props *Props) (*session.Session, error) {
	sess, ok := store.Get(props.SessionID)
	if !ok {
		return nil, fmt.Errorf("%w: session %q", hxcmp.ErrNotFound, props.SessionID)
	}
	props.Session = sess
	props.Selection = sess.Selection()
	return sess, nil
}
