package components

import (
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/a-h/templ"
	"github.com/pthm/geoform"
	"github.com/pthm/geoform/lib/hxcmp"
)

// markup adapts a builder function to templ.Component.
func markup(build func(b *strings.Builder)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		build(&b)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

func esc(s string) string { return templ.EscapeString(s) }

// field wraps a form field. root carries the attributes that let the field
// re-request itself; it may be nil.
func field(b *strings.Builder, id string, root *hxcmp.Action, body func(b *strings.Builder)) {
	b.WriteString(`<div id="` + esc(id) + `" class="field"`)
	if root != nil {
		b.WriteString(root.String())
	}
	b.WriteString(">")
	body(b)
	b.WriteString("</div>")
}

func label(b *strings.Builder, text, forID string) {
	if forID == "" {
		b.WriteString(`<label>` + esc(text) + `</label>`)
		return
	}
	b.WriteString(`<label for="` + esc(forID) + `">` + esc(text) + `</label>`)
}

func loading(b *strings.Builder) {
	b.WriteString(`<div class="loading">`)
	b.WriteString(`<div data-testid="loading-skeleton" class="skeleton"></div>`)
	b.WriteString(`<div data-testid="loading-spinner" class="spinner" aria-label="Loading"></div>`)
	b.WriteString(`</div>`)
}

func errorDisplay(b *strings.Builder, message string, retry *hxcmp.Action) {
	b.WriteString(`<div class="error" role="alert"><span>` + esc(message) + `</span>`)
	if retry != nil {
		b.WriteString(`<button type="button" class="retry"` + retry.String() + `>Retry</button>`)
	}
	b.WriteString(`</div>`)
}

func summaryLine(b *strings.Builder, line string) {
	b.WriteString(`<p>Selected: ` + esc(line) + `</p>`)
}

type selectConfig struct {
	id          string
	placeholder string
	options     []geoform.Option
	selected    int
	disabled    bool
	action      *hxcmp.Action
}

func selectControl(b *strings.Builder, s selectConfig) {
	b.WriteString(`<select`)
	if s.id != "" {
		b.WriteString(` id="` + esc(s.id) + `"`)
	}
	b.WriteString(` name="id"`)
	if s.disabled {
		b.WriteString(` disabled`)
	}
	if s.action != nil && !s.disabled {
		b.WriteString(s.action.String())
	}
	b.WriteString(`>`)

	b.WriteString(`<option value=""`)
	if !s.disabled {
		// An enabled select never submits the placeholder.
		b.WriteString(` disabled hidden`)
	}
	if s.selected == 0 {
		b.WriteString(` selected`)
	}
	b.WriteString(`>` + esc(s.placeholder) + `</option>`)

	for _, o := range s.options {
		b.WriteString(`<option value="` + strconv.Itoa(o.ID) + `"`)
		if o.ID == s.selected {
			b.WriteString(` selected`)
		}
		b.WriteString(`>` + esc(o.Label) + `</option>`)
	}
	b.WriteString(`</select>`)
}

// parseID reads the selected option id from a select action.
func parseID(raw string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, hxcmp.BadInput("id %q is not a number", raw)
	}
	if id <= 0 {
		return 0, hxcmp.BadInput("id %d is not a valid option", id)
	}
	return id, nil
}
