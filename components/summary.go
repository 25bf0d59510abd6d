package components

import (
	"context"
	"strings"

	"github.com/a-h/templ"
	"github.com/pthm/geoform/lib/hxcmp"
)

// Summary shows the selected ids once both are present.
type Summary struct {
	*hxcmp.Component[Props]
	store SessionStore
}

func NewSummary(store SessionStore) *Summary {
	c := &Summary{
		Component: hxcmp.New[Props]("summary").Sensitive(),
		store:     store,
	}
	c.Bind(c)
	return c
}

func (c *Summary) Hydrate(ctx context.Context, props *Props) error {
	_, err := hydrateSession(c.store, props)
	return err
}

func (c *Summary) Render(ctx context.Context, props Props) templ.Component {
	root := c.Refresh(props).OnEvent(EventCountryChanged).AlsoOnEvent(EventStateChanged)
	return markup(func(b *strings.Builder) {
		b.WriteString(`<div id="selection-summary" class="summary"` + root.String() + `>`)
		if line, ok := props.Selection.Summary(); ok {
			summaryLine(b, line)
		}
		b.WriteString(`</div>`)
	})
}
