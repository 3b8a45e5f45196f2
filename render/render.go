// Package render turns a page template and one link into an index.html.
//
// Two engines are available. The placeholder engine replaces the literal
// tokens "{{ title }}", "{{ heading }}", "{{ url }}", "{{ description }}" and
// "{{ image }}" (plus the site values listed in Names) and leaves everything
// else alone. The pongo2 engine treats the template as a Django-style
// template, for which the same tokens are ordinary variable tags.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/takumakei/opentiny-go/links"
	"github.com/takumakei/opentiny-go/siteconfig"
)

// Renderer renders one page.
type Renderer interface {
	Render(w io.Writer, data Data) error
}

// Data holds the values available to a page template.
type Data struct {
	Slug        string
	URL         string
	Title       string
	Description string
	Image       string
	ShortURL    string
	SiteName    string
	BaseURL     string
	Vars        map[string]string
}

// Names are the built-in value names, in the order they are documented.
var Names = []string{
	"title", "heading", "url", "description", "image",
	"slug", "short_url", "site_name", "base_url",
}

// Known returns the names a template can reference: Names plus the keys of
// vars. The values are empty.
func Known(vars map[string]string) map[string]string {
	known := make(map[string]string, len(Names)+len(vars))
	for k := range vars {
		known[k] = ""
	}
	for _, name := range Names {
		known[name] = ""
	}
	return known
}

// NewData combines a resolved link with the site settings.
func NewData(link links.Link, site siteconfig.Site) Data {
	return Data{
		Slug:        link.Slug,
		URL:         link.URL,
		Title:       link.Title,
		Description: link.Description,
		Image:       link.Image,
		ShortURL:    ShortURL(site.BaseURL, link.Slug),
		SiteName:    site.Name,
		BaseURL:     site.BaseURL,
		Vars:        site.Vars,
	}
}

// ShortURL joins base and slug into the public address of a page. An empty
// base yields a root relative path.
func ShortURL(base, slug string) string {
	return strings.TrimRight(base, "/") + "/" + slug + "/"
}

// Values flattens d into name/value pairs. Vars never shadow built-in names.
func (d Data) Values() map[string]string {
	values := make(map[string]string, len(Names)+len(d.Vars))
	for k, v := range d.Vars {
		values[k] = v
	}
	values["title"] = d.Title
	values["heading"] = d.Title
	values["url"] = d.URL
	values["description"] = d.Description
	values["image"] = d.Image
	values["slug"] = d.Slug
	values["short_url"] = d.ShortURL
	values["site_name"] = d.SiteName
	values["base_url"] = d.BaseURL
	return values
}

// Options configures New.
type Options struct {
	// Engine is one of siteconfig.EnginePlaceholder or siteconfig.EnginePongo2.
	Engine string

	// BaseDir resolves {% include %} and {% extends %} for the pongo2 engine.
	BaseDir string

	// Escape makes the placeholder engine HTML-escape substituted values. The
	// pongo2 engine always escapes.
	Escape bool
}

// New compiles template for the configured engine.
func New(template string, opts Options) (Renderer, error) {
	switch opts.Engine {
	case "", siteconfig.EnginePlaceholder:
		return NewPlaceholder(template, opts.Escape), nil
	case siteconfig.EnginePongo2:
		return NewPongo2(template, opts.BaseDir)
	}
	return nil, fmt.Errorf("render: unknown engine %q", opts.Engine)
}
