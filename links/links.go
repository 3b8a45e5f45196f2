// Package links decodes the link file: an ordered mapping of short slugs to
// destination URLs and the page metadata rendered for each of them.
//
// Both JSON and YAML documents are accepted. The order of the keys in the file
// is the order in which pages are generated.
//
//	{
//	  "gh":   {"url": "https://github.com", "title": "GitHub"},
//	  "docs": "https://example.com/docs"
//	}
//
// A bare string value is shorthand for {"url": "<string>"}.
package links

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goaux/stacktrace/v2"
)

var (
	// ErrInvalidDocument is returned when the link file cannot be decoded or its
	// top level value is not an object.
	ErrInvalidDocument = errors.New("not a valid link document")

	// ErrURLRequired marks an entry without a url.
	ErrURLRequired = errors.New("url is required")

	// ErrInvalidEntry marks an entry whose value is neither an object nor a
	// string.
	ErrInvalidEntry = errors.New("entry must be an object or a string")

	// ErrInvalidSlug is returned by ValidateSlug.
	ErrInvalidSlug = errors.New("invalid slug")
)

// Link is the metadata of one short link as written in the link file.
// Empty optional fields are filled in by Resolve.
type Link struct {
	Slug        string `json:"-"                     yaml:"-"`
	URL         string `json:"url"                   yaml:"url"`
	Title       string `json:"title,omitempty"       yaml:"title,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Image       string `json:"image,omitempty"       yaml:"image,omitempty"`
}

// Resolve returns a copy of l with the defaults applied: title and
// description fall back to the slug, image falls back to defaultImage.
func (l Link) Resolve(defaultImage string) Link {
	if l.Title == "" {
		l.Title = l.Slug
	}
	if l.Description == "" {
		l.Description = l.Slug
	}
	if l.Image == "" {
		l.Image = defaultImage
	}
	return l
}

// Entry is one key of the link file.
type Entry struct {
	Slug string
	Link Link

	// Err is non-nil when the value could not be used as a link. Such entries
	// are kept so that they can be reported and written back unchanged.
	Err error

	// Duplicate reports that the slug appeared more than once; the entry keeps
	// the position of the first occurrence and the value of the last one.
	Duplicate bool

	raw any
}

// OK reports whether the entry holds a usable link.
func (e Entry) OK() bool { return e.Err == nil }

// Set is the ordered content of a link file.
type Set []Entry

// Lookup returns the entry for slug.
func (s Set) Lookup(slug string) (Entry, bool) {
	for _, e := range s {
		if e.Slug == slug {
			return e, true
		}
	}
	return Entry{}, false
}

// Valid returns the number of usable entries.
func (s Set) Valid() int {
	n := 0
	for _, e := range s {
		if e.OK() {
			n++
		}
	}
	return n
}

// Upsert replaces the entry with the same slug in place, or appends a new one.
func (s Set) Upsert(link Link) Set {
	entry := Entry{Slug: link.Slug, Link: link}
	for i := range s {
		if s[i].Slug == link.Slug {
			s[i] = entry
			return s
		}
	}
	return append(s, entry)
}

// put applies the duplicate key rule while decoding.
func (s Set) put(index map[string]int, entry Entry) Set {
	if i, ok := index[entry.Slug]; ok {
		entry.Duplicate = true
		s[i] = entry
		return s
	}
	index[entry.Slug] = len(s)
	return append(s, entry)
}

// Format is the encoding of a link file.
type Format int

const (
	JSON Format = iota
	YAML
)

// FormatOf guesses the format from the file extension. Anything that is not
// .yaml or .yml is JSON.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML
	}
	return JSON
}

// Load reads the link file at path.
func Load(path string) (Set, error) {
	f, err := stacktrace.Trace2(os.Open(path))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	set, err := Parse(f, FormatOf(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return set, nil
}

// Parse decodes a link document in the given format.
func Parse(r io.Reader, format Format) (Set, error) {
	if format == YAML {
		return parseYAML(r)
	}
	return parseJSON(r)
}

// ValidateSlug checks that slug can be used as a path below the output
// directory: one or more "/" separated segments, none of them empty, "." or
// "..".
func ValidateSlug(slug string) error {
	switch {
	case slug == "":
		return fmt.Errorf("%w: empty", ErrInvalidSlug)
	case strings.ContainsAny(slug, "\\\x00"):
		return fmt.Errorf("%w %q: contains a backslash or NUL", ErrInvalidSlug, slug)
	case strings.HasPrefix(slug, "/"):
		return fmt.Errorf("%w %q: must be relative", ErrInvalidSlug, slug)
	}
	for _, seg := range strings.Split(slug, "/") {
		switch seg {
		case "", ".", "..":
			return fmt.Errorf("%w %q: bad path segment %q", ErrInvalidSlug, slug, seg)
		}
	}
	return nil
}
