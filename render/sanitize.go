package render

import (
	"errors"
	"fmt"
	"html"
	"net/url"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/takumakei/opentiny-go/links"
)

// ErrSchemeNotAllowed is returned by Sanitizer.Link for a destination whose
// scheme is not in the allow list.
var ErrSchemeNotAllowed = errors.New("url scheme not allowed")

// Sanitizer strips markup from the text fields of a link and restricts the
// schemes of its destination.
type Sanitizer struct {
	policy  *bluemonday.Policy
	schemes map[string]bool
}

// NewSanitizer returns a Sanitizer accepting destinations with the given
// schemes (case-insensitive).
func NewSanitizer(schemes []string) *Sanitizer {
	allowed := make(map[string]bool, len(schemes))
	for _, s := range schemes {
		allowed[strings.ToLower(strings.TrimSpace(s))] = true
	}
	return &Sanitizer{
		policy:  bluemonday.StrictPolicy(),
		schemes: allowed,
	}
}

// Text returns v without any markup, as plain unescaped text.
func (s *Sanitizer) Text(v string) string {
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(v)))
}

// Link sanitizes the title, description and image of l and checks the
// scheme of its url. An image may be a relative reference; if it has a
// scheme, it must be allowed too.
func (s *Sanitizer) Link(l links.Link) (links.Link, error) {
	if err := s.checkURL(l.URL, false); err != nil {
		return l, err
	}
	l.Title = s.Text(l.Title)
	l.Description = s.Text(l.Description)
	l.Image = s.Text(l.Image)
	if l.Image != "" {
		if err := s.checkURL(l.Image, true); err != nil {
			return l, fmt.Errorf("image: %w", err)
		}
	}
	return l, nil
}

func (s *Sanitizer) checkURL(raw string, relativeOK bool) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSchemeNotAllowed, err)
	}
	if u.Scheme == "" {
		if relativeOK {
			return nil
		}
		return fmt.Errorf("%w: %q has no scheme", ErrSchemeNotAllowed, raw)
	}
	if !s.schemes[strings.ToLower(u.Scheme)] {
		return fmt.Errorf("%w: %q", ErrSchemeNotAllowed, u.Scheme)
	}
	return nil
}
