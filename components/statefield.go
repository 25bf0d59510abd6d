package components

import (
	"context"
	"net/http"
	"strings"

	"github.com/a-h/templ"
	"github.com/pthm/geoform"
	"github.com/pthm/geoform/lib/hxcmp"
	"github.com/sirupsen/logrus"
)

const stateFieldID = "state-field"

// StateField renders the state dropdown for the selected country. It
// re-renders itself whenever the country changes.
type StateField struct {
	*hxcmp.Component[Props]
	store SessionStore
	opts  options
	log   logrus.FieldLogger
}

func NewStateField(store SessionStore, log logrus.FieldLogger, opts ...Option) *StateField {
	c := &StateField{
		Component: hxcmp.New[Props]("statefield").Sensitive(),
		store:     store,
		opts:      newOptions(opts),
		log:       log,
	}
	c.Bind(c)

	c.Action("select", c.handleSelect)
	c.Action("retry", c.handleRetry)

	return c
}

func (c *StateField) Hydrate(ctx context.Context, props *Props) error {
	sess, err := hydrateSession(c.store, props)
	if err != nil {
		return err
	}
	props.State = sess.States.Settle(ctx, c.opts.settle)
	return nil
}

func (c *StateField) handleSelect(ctx context.Context, props Props, r *http.Request) hxcmp.Result[Props] {
	if !props.Selection.HasCountry() {
		return hxcmp.Err(props, hxcmp.BadInput("no country selected"))
	}
	id, err := parseID(r.FormValue("id"))
	if err != nil {
		return hxcmp.Err(props, err)
	}
	props.Selection = props.Session.Dispatch(geoform.StateChanged{ID: id})
	c.log.WithFields(logrus.Fields{
		"session":    props.SessionID,
		"country_id": props.Selection.CountryID,
		"state_id":   id,
	}).Debug("state selected")

	return hxcmp.OK(props).Trigger(EventStateChanged, map[string]any{"id": id})
}

func (c *StateField) handleRetry(ctx context.Context, props Props, r *http.Request) hxcmp.Result[Props] {
	props.Session.States.Refetch()
	props.State = props.Session.States.Settle(ctx, c.opts.settle)
	return hxcmp.OK(props)
}

func (c *StateField) Render(ctx context.Context, props Props) templ.Component {
	st := props.State
	hasCountry := props.Selection.HasCountry()

	root := c.Refresh(props).OnEvent(EventCountryChanged)
	if hasCountry && st.Loading {
		root = c.Refresh(props).OnLoadAfter(c.opts.poll).AlsoOnEvent(EventCountryChanged)
	}

	return markup(func(b *strings.Builder) {
		field(b, stateFieldID, root, func(b *strings.Builder) {
			switch {
			case !hasCountry:
				label(b, "State", "state-select")
				selectControl(b, selectConfig{
					id:          "state-select",
					placeholder: "Select a country first",
					disabled:    true,
				})
			case st.Failed():
				label(b, "State", "")
				errorDisplay(b, st.Err.Message, c.Call("retry", props).Target("#"+stateFieldID))
			case st.Loading:
				label(b, "State", "")
				loading(b)
			case len(st.Items) == 0:
				label(b, "State", "state-select")
				selectControl(b, selectConfig{
					id:          "state-select",
					placeholder: "No states available",
					disabled:    true,
				})
			default:
				label(b, "State", "state-select")
				selectControl(b, selectConfig{
					id:          "state-select",
					placeholder: "Select a state",
					options:     st.Items,
					selected:    props.Selection.StateID,
					action:      c.Call("select", props).OnChange().Target("#" + stateFieldID),
				})
			}
		})
	})
}
