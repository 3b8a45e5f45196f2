package render

import (
	"html"
	"io"
	"strings"
)

// Placeholder is the literal token engine.
type Placeholder struct {
	template string
	escape   bool
}

// NewPlaceholder returns a Placeholder engine for template.
func NewPlaceholder(template string, escape bool) *Placeholder {
	return &Placeholder{template: template, escape: escape}
}

// Token returns the literal token replaced for name.
func Token(name string) string {
	return "{{ " + name + " }}"
}

// Render writes the template with every known token replaced. Replacement is
// a single pass over the template, so values are never expanded again.
func (p *Placeholder) Render(w io.Writer, data Data) error {
	values := data.Values()
	pairs := make([]string, 0, 2*len(values))
	for name, value := range values {
		if p.escape {
			value = html.EscapeString(value)
		}
		pairs = append(pairs, Token(name), value)
	}
	_, err := strings.NewReplacer(pairs...).WriteString(w, p.template)
	return err
}
