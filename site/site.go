// Package site builds the static directory served by the hosting service:
// one <slug>/index.html per link plus the error page.
package site

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goaux/stacktrace/v2"
	"github.com/rs/zerolog"
	"github.com/takumakei/opentiny-go/links"
	"github.com/takumakei/opentiny-go/render"
	"github.com/takumakei/opentiny-go/siteconfig"
)

// ErrUnsafeOutput is returned when the output directory is one that must not
// be wiped: the filesystem root or the working directory (or a parent of it).
var ErrUnsafeOutput = errors.New("refusing to clean output directory")

// Builder writes a site into Output.
type Builder struct {
	Output    string
	ErrorPage string
	Site      siteconfig.Site
	Renderer  render.Renderer
	Logger    zerolog.Logger

	// Sanitizer is applied to every link when non-nil.
	Sanitizer *render.Sanitizer
}

// Page is a generated index.html.
type Page struct {
	Slug string `json:"slug"`
	URL  string `json:"url"`
	Path string `json:"path"`
}

// Skip is an entry that produced no page.
type Skip struct {
	Slug   string `json:"slug"`
	Reason string `json:"reason"`
}

// Report summarizes a build.
type Report struct {
	Output    string `json:"output"`
	ErrorPage bool   `json:"error_page"`
	Pages     []Page `json:"pages"`
	Skipped   []Skip `json:"skipped"`
}

// Build recreates the output directory and writes a page for every usable
// entry of set, in order. Unusable entries are logged and reported as
// skipped; they do not fail the build. Any I/O error does.
//
// Entries whose first path segment names a file Build writes into the output
// root (the error page, CNAME, .nojekyll, the manifest) are skipped.
func (b *Builder) Build(ctx context.Context, set links.Set) (Report, error) {
	report := Report{Output: b.Output}
	log := b.Logger

	if err := b.reset(); err != nil {
		return report, err
	}

	copied, err := b.copyErrorPage()
	if err != nil {
		return report, err
	}
	report.ErrorPage = copied

	reserved := b.reserved()
	for _, entry := range set {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if entry.Duplicate {
			log.Warn().Str("slug", entry.Slug).Msg("duplicate key, the last value wins")
		}
		page, err := b.buildPage(entry, reserved)
		if err != nil {
			var skip *skipError
			if errors.As(err, &skip) {
				log.Error().Str("slug", entry.Slug).Msg(skip.Error() + ", skipping this entry")
				report.Skipped = append(report.Skipped, Skip{Slug: entry.Slug, Reason: skip.Error()})
				continue
			}
			return report, err
		}
		log.Info().Str("path", page.Path).Msg("file created")
		report.Pages = append(report.Pages, page)
	}

	if err := b.writeExtras(report); err != nil {
		return report, err
	}
	return report, nil
}

type skipError struct{ err error }

func (e *skipError) Error() string { return e.err.Error() }
func (e *skipError) Unwrap() error { return e.err }

// reserved maps the names of the root files Build writes to the setting
// that asks for them.
func (b *Builder) reserved() map[string]string {
	names := make(map[string]string)
	if b.ErrorPage != "" {
		names[filepath.Base(b.ErrorPage)] = "the error page"
	}
	if b.Site.CNAME != "" {
		names["CNAME"] = "site.cname"
	}
	if b.Site.NoJekyll {
		names[".nojekyll"] = "site.nojekyll"
	}
	if b.Site.Manifest != "" {
		names[b.Site.Manifest] = "site.manifest"
	}
	return names
}

func (b *Builder) buildPage(entry links.Entry, reserved map[string]string) (Page, error) {
	if entry.Err != nil {
		return Page{}, &skipError{entry.Err}
	}
	if err := links.ValidateSlug(entry.Slug); err != nil {
		return Page{}, &skipError{err}
	}
	first, _, _ := strings.Cut(entry.Slug, "/")
	if owner, ok := reserved[first]; ok {
		return Page{}, &skipError{fmt.Errorf("%q is reserved for %s", first, owner)}
	}
	link := entry.Link
	if b.Sanitizer != nil {
		var err error
		if link, err = b.Sanitizer.Link(link); err != nil {
			return Page{}, &skipError{err}
		}
	}
	link = link.Resolve(b.Site.DefaultImage)

	dir := filepath.Join(b.Output, filepath.FromSlash(entry.Slug))
	if err := ensureDir(dir, b.Logger); err != nil {
		return Page{}, err
	}

	path := filepath.Join(dir, "index.html")
	if fi, err := os.Lstat(path); err == nil && !fi.Mode().IsRegular() {
		return Page{}, &skipError{fmt.Errorf("%s: not a regular file", path)}
	}

	buf := new(bytes.Buffer)
	if err := b.Renderer.Render(buf, render.NewData(link, b.Site)); err != nil {
		return Page{}, fmt.Errorf("%s: %w", entry.Slug, err)
	}
	if err := stacktrace.Trace(os.WriteFile(path, buf.Bytes(), 0o644)); err != nil {
		return Page{}, err
	}
	return Page{Slug: entry.Slug, URL: link.URL, Path: path}, nil
}

func (b *Builder) writeExtras(report Report) error {
	if b.Site.CNAME != "" {
		if err := b.writeFile("CNAME", []byte(b.Site.CNAME+"\n")); err != nil {
			return err
		}
	}
	if b.Site.NoJekyll {
		if err := b.writeFile(".nojekyll", nil); err != nil {
			return err
		}
	}
	if b.Site.Manifest != "" {
		data, err := Manifest(report)
		if err != nil {
			return err
		}
		if err := b.writeFile(b.Site.Manifest, data); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) writeFile(name string, data []byte) error {
	path := filepath.Join(b.Output, name)
	if err := stacktrace.Trace(os.WriteFile(path, data, 0o644)); err != nil {
		return err
	}
	b.Logger.Info().Str("path", path).Msg("file created")
	return nil
}

// Manifest encodes the slug to url mapping of the generated pages as an
// indented JSON object, in page order.
func Manifest(report Report) ([]byte, error) {
	buf := new(bytes.Buffer)
	buf.WriteString("{")
	for i, p := range report.Pages {
		if i > 0 {
			buf.WriteString(",")
		}
		key, err := json.Marshal(p.Slug)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(p.URL)
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(buf, "\n  %s: %s", key, value)
	}
	if len(report.Pages) > 0 {
		buf.WriteString("\n")
	}
	buf.WriteString("}\n")
	return buf.Bytes(), nil
}
