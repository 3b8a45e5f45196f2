package generator

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goaux/stacktrace/v2"
	"github.com/spf13/cobra"
	"github.com/takumakei/opentiny-go/links"
	"github.com/takumakei/opentiny-go/render"
	"github.com/takumakei/opentiny-go/siteconfig"
)

// errCheckFailed is returned by check when problems were found.
var errCheckFailed = errors.New("check failed")

func newCheckCommand(flags *flagsType) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the config file, the link file and the template without writing anything",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.load(cmd.Flags())
			if err != nil {
				return err
			}
			return check(cmd.OutOrStdout(), cfg)
		},
	}
}

func check(w io.Writer, cfg siteconfig.Config) error {
	problems := 0
	report := func(format string, args ...any) {
		problems++
		fmt.Fprintf(w, format+"\n", args...)
	}

	set, err := links.Load(cfg.Paths.JSONFile)
	if err != nil {
		return err
	}
	var sanitizer *render.Sanitizer
	if cfg.Site.Sanitize {
		sanitizer = render.NewSanitizer(cfg.Site.AllowedSchemes)
	}
	for _, e := range set {
		switch {
		case e.Err != nil:
			report("%s: %q: %v", cfg.Paths.JSONFile, e.Slug, e.Err)
			continue
		case e.Duplicate:
			report("%s: %q: duplicate key", cfg.Paths.JSONFile, e.Slug)
		}
		if err := links.ValidateSlug(e.Slug); err != nil {
			report("%s: %v", cfg.Paths.JSONFile, err)
		}
		if sanitizer != nil {
			if _, err := sanitizer.Link(e.Link); err != nil {
				report("%s: %q: %v", cfg.Paths.JSONFile, e.Slug, err)
			}
		}
	}

	tmpl, err := stacktrace.Trace2(os.ReadFile(cfg.Paths.Template))
	if err != nil {
		return err
	}
	switch cfg.Site.Engine {
	case siteconfig.EnginePongo2:
		if _, err := render.NewPongo2(string(tmpl), filepath.Dir(cfg.Paths.Template)); err != nil {
			report("%s: %v", cfg.Paths.Template, err)
		}
	default:
		tags, err := render.Scan(bytes.NewReader(tmpl))
		if err != nil {
			return err
		}
		unmatched := render.Unmatched(tags, render.Known(cfg.Site.Vars))
		for _, t := range unmatched {
			report("%s:%d: %s is not replaced", cfg.Paths.Template, t.Line, t.Text)
		}
		if len(unmatched) > 0 {
			tokens := make([]string, 0, len(render.Names))
			for _, name := range render.Names {
				tokens = append(tokens, render.Token(name))
			}
			fmt.Fprintf(w, "%s: known placeholders are %s\n", cfg.Paths.Template, strings.Join(tokens, ", "))
		}
	}

	if cfg.Paths.ErrorPage != "" {
		if _, err := os.Stat(cfg.Paths.ErrorPage); err != nil {
			fmt.Fprintf(w, "%s: warning: %v\n", cfg.Paths.ErrorPage, err)
		}
	}

	if problems > 0 {
		return fmt.Errorf("%w: %d problem(s)", errCheckFailed, problems)
	}
	fmt.Fprintf(w, "%s: %d link(s) ok\n", cfg.Paths.JSONFile, set.Valid())
	return nil
}
