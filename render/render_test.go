package render_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/takumakei/opentiny-go/links"
	"github.com/takumakei/opentiny-go/render"
	"github.com/takumakei/opentiny-go/siteconfig"
)

const page = `<title>{{ title }}</title>
<h1>{{ heading }}</h1>
<a href="{{ url }}">{{ description }}</a>
<img src="{{ image }}">
<p>{{ short_url }} {{ twitter }} {{ unknown }} {{title}}</p>`

func sample() render.Data {
	link := links.Link{Slug: "gh", URL: "https://github.com/?a=1&b=2", Title: "Tom & Jerry"}.Resolve("/card.png")
	return render.NewData(link, siteconfig.Site{
		Name:    "OpenTiny",
		BaseURL: "https://go.example.com/",
		Vars:    map[string]string{"twitter": "@opentiny", "title": "shadowed"},
	})
}

func renderString(t *testing.T, r render.Renderer, data render.Data) string {
	t.Helper()
	buf := new(bytes.Buffer)
	require.NoError(t, r.Render(buf, data))
	return buf.String()
}

func TestPlaceholder_Render(t *testing.T) {
	got := renderString(t, render.NewPlaceholder(page, false), sample())
	want := `<title>Tom & Jerry</title>
<h1>Tom & Jerry</h1>
<a href="https://github.com/?a=1&b=2">gh</a>
<img src="/card.png">
<p>https://go.example.com/gh/ @opentiny {{ unknown }} {{title}}</p>`
	assert.Equal(t, want, got)
}

func TestPlaceholder_Escape(t *testing.T) {
	got := renderString(t, render.NewPlaceholder(`{{ title }}|{{ url }}`, true), sample())
	assert.Equal(t, `Tom &amp; Jerry|https://github.com/?a=1&amp;b=2`, got)
}

func TestPlaceholder_SinglePass(t *testing.T) {
	data := render.Data{Title: "{{ url }}", URL: "https://x"}
	got := renderString(t, render.NewPlaceholder(`{{ title }} {{ url }}`, false), data)
	assert.Equal(t, "{{ url }} https://x", got)
}

func TestPongo2_Render(t *testing.T) {
	r, err := render.NewPongo2(`{{ title }}|{{ url }}|{{ vars.twitter }}|{{ slug|upper }}`, "")
	require.NoError(t, err)
	got := renderString(t, r, sample())
	assert.Equal(t, `Tom &amp; Jerry|https://github.com/?a=1&amp;b=2|@opentiny|GH`, got)
}

func TestPongo2_Include(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "head.html"), []byte(`<title>{{ title }}</title>`), 0o644))

	r, err := render.NewPongo2(`{% include "head.html" %}<p>{{ site_name }}</p>`, dir)
	require.NoError(t, err)
	got := renderString(t, r, sample())
	assert.Equal(t, `<title>Tom &amp; Jerry</title><p>OpenTiny</p>`, got)
}

func TestPongo2_ParseError(t *testing.T) {
	_, err := render.NewPongo2(`{% if %}`, "")
	assert.Error(t, err)
}

func TestNew(t *testing.T) {
	r, err := render.New(page, render.Options{})
	require.NoError(t, err)
	assert.IsType(t, &render.Placeholder{}, r)

	r, err = render.New(page, render.Options{Engine: siteconfig.EnginePongo2})
	require.NoError(t, err)
	assert.IsType(t, &render.Pongo2{}, r)

	_, err = render.New(page, render.Options{Engine: "jinja"})
	assert.Error(t, err)
}

func TestShortURL(t *testing.T) {
	assert.Equal(t, "/gh/", render.ShortURL("", "gh"))
	assert.Equal(t, "https://x.dev/a/b/", render.ShortURL("https://x.dev///", "a/b"))
}

func TestSanitizer_Link(t *testing.T) {
	s := render.NewSanitizer([]string{"HTTPS"})

	got, err := s.Link(links.Link{
		Slug:        "x",
		URL:         "https://example.com",
		Title:       "<b>Bold</b> & co",
		Description: `<script>alert(1)</script>plain`,
		Image:       "/img.png",
	})
	require.NoError(t, err)
	assert.Equal(t, "Bold & co", got.Title)
	assert.Equal(t, "plain", got.Description)
	assert.Equal(t, "/img.png", got.Image)

	for _, bad := range []string{"javascript:alert(1)", "http://plain.example", "no-scheme"} {
		_, err := s.Link(links.Link{Slug: "x", URL: bad})
		assert.ErrorIs(t, err, render.ErrSchemeNotAllowed, bad)
	}

	_, err = s.Link(links.Link{Slug: "x", URL: "https://ok", Image: "data:image/png;base64,AAAA"})
	assert.ErrorIs(t, err, render.ErrSchemeNotAllowed)
}

func TestScan(t *testing.T) {
	tags, err := render.Scan(strings.NewReader(page))
	require.NoError(t, err)
	require.Len(t, tags, 9)

	assert.Equal(t, render.Tag{Line: 1, Text: "{{ title }}", Name: "title", Exact: true}, tags[0])
	assert.Equal(t, render.Tag{Line: 5, Text: "{{title}}", Name: "title", Exact: false}, tags[8])

	unmatched := render.Unmatched(tags, sample().Values())
	names := make([]string, 0, len(unmatched))
	for _, u := range unmatched {
		names = append(names, u.Text)
	}
	assert.Equal(t, []string{"{{ unknown }}", "{{title}}"}, names)
}

func TestKnown(t *testing.T) {
	known := render.Known(map[string]string{"twitter": "@opentiny", "title": "shadowed"})
	assert.Len(t, known, len(render.Names)+1)
	for _, name := range render.Names {
		assert.Contains(t, known, name)
	}
	assert.Contains(t, known, "twitter")
}
