package siteconfig

import (
	_ "embed"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema.json
var schemaJSON string

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// ValidateSettings validates raw config settings against the JSON schema.
func ValidateSettings(settings map[string]any) error {
	schemaLoader := gojsonschema.NewStringLoader(schemaJSON)
	documentLoader := gojsonschema.NewGoLoader(settings)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("validate config schema: %w", err)
	}
	if result.Valid() {
		return nil
	}

	errs := make([]string, 0, len(result.Errors()))
	for _, schemaErr := range result.Errors() {
		errs = append(errs, schemaErr.String())
	}
	sort.Strings(errs)

	return fmt.Errorf("%w: schema validation failed: %s", ErrInvalid, strings.Join(errs, "; "))
}

// Validate checks the constraints the schema cannot express.
func (c Config) Validate() error {
	switch c.Site.Engine {
	case EnginePlaceholder, EnginePongo2:
	default:
		return fmt.Errorf("%w: site.engine %q is not one of %q, %q", ErrInvalid, c.Site.Engine, EnginePlaceholder, EnginePongo2)
	}
	if c.Site.BaseURL != "" {
		u, err := url.Parse(c.Site.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%w: site.base_url %q must be an absolute url", ErrInvalid, c.Site.BaseURL)
		}
	}
	if c.Site.Sanitize && len(c.Site.AllowedSchemes) == 0 {
		return fmt.Errorf("%w: site.allowed_schemes must not be empty when site.sanitize is on", ErrInvalid)
	}
	if err := c.validateManifest(); err != nil {
		return err
	}
	if c.Publish.Timeout < 0 {
		return fmt.Errorf("%w: publish.timeout must not be negative", ErrInvalid)
	}
	return nil
}

// validateManifest requires site.manifest to be a plain file name that no
// other file of the output root uses.
func (c Config) validateManifest() error {
	m := c.Site.Manifest
	switch {
	case m == "":
		return nil
	case m == ".", m == "..", strings.ContainsAny(m, `/\`):
		return fmt.Errorf("%w: site.manifest %q must be a file name", ErrInvalid, m)
	case m == "CNAME", m == ".nojekyll":
		return fmt.Errorf("%w: site.manifest %q collides with the %s file", ErrInvalid, m, m)
	case c.Paths.ErrorPage != "" && m == filepath.Base(c.Paths.ErrorPage):
		return fmt.Errorf("%w: site.manifest %q collides with the error page", ErrInvalid, m)
	}
	return nil
}
