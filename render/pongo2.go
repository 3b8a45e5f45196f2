package render

import (
	"fmt"
	"io"

	"github.com/flosch/pongo2/v6"
)

// Pongo2 is the Django-style template engine.
type Pongo2 struct {
	tpl *pongo2.Template
}

// NewPongo2 compiles template. Includes are resolved against baseDir, or the
// working directory when baseDir is empty.
func NewPongo2(template string, baseDir string) (*Pongo2, error) {
	loader, err := pongo2.NewLocalFileSystemLoader(baseDir)
	if err != nil {
		return nil, fmt.Errorf("render: create template loader: %w", err)
	}
	set := pongo2.NewSet("opentiny", loader)
	tpl, err := set.FromString(template)
	if err != nil {
		return nil, fmt.Errorf("render: parse template: %w", err)
	}
	return &Pongo2{tpl: tpl}, nil
}

// Render executes the template with the page values at the top level and the
// site vars also available as "vars".
func (p *Pongo2) Render(w io.Writer, data Data) error {
	ctx := pongo2.Context{}
	for name, value := range data.Values() {
		ctx[name] = value
	}
	vars := make(map[string]any, len(data.Vars))
	for k, v := range data.Vars {
		vars[k] = v
	}
	ctx["vars"] = vars
	if err := p.tpl.ExecuteWriter(ctx, w); err != nil {
		return fmt.Errorf("render: execute template: %w", err)
	}
	return nil
}
