// Package generator provides the opentiny command: it turns a link file into
// a static site of redirect pages and publishes it.
package generator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/glamour"
	"github.com/goaux/contextvalue"
	"github.com/goaux/stacktrace/v2"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/takumakei/opentiny-go/links"
	"github.com/takumakei/opentiny-go/logging"
	"github.com/takumakei/opentiny-go/render"
	"github.com/takumakei/opentiny-go/site"
	"github.com/takumakei/opentiny-go/siteconfig"
)

// Main runs the command and exits with status 1 on error.
func Main(ctx context.Context, config Config) {
	logging.Init(false)
	cmd := NewCommand(config)
	ctx = contextvalue.With(ctx, config.withDefaults())
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err.Error())
		os.Exit(1)
	}
}

// NewCommand builds the root command and its subcommands.
func NewCommand(config Config) *cobra.Command {
	cfg := config.withDefaults()
	flags := new(flagsType)

	cmd := &cobra.Command{
		Use:     cfg.Use,
		Short:   cfg.Short,
		Long:    renderUsage(cfg.Long),
		Version: cfg.Version,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerate(cmd, flags)
		},

		ValidArgsFunction: validArgs,

		SilenceErrors: true,
		SilenceUsage:  true,

		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			logging.InitWriter(cmd.ErrOrStderr(), flags.Debug)
		},
	}

	flags.register(cmd.PersistentFlags(), cfg)

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.MarkPersistentFlagFilename(flagInput, "json", "yaml", "yml")
	cmd.MarkPersistentFlagDirname(flagOutput)
	cmd.MarkPersistentFlagFilename(flagTemplate, "html", "htm")
	cmd.MarkPersistentFlagFilename(flagErrorPage, "html", "htm")
	cmd.MarkPersistentFlagFilename(flagConfigFile, "json")

	cmd.AddCommand(
		newAddCommand(flags),
		newCheckCommand(flags),
		newDeployCommand(flags),
	)
	return cmd
}

func renderUsage(usage string) string {
	if isTTY(os.Stdout) {
		r, err := glamour.NewTermRenderer(
			glamour.WithEnvironmentConfig(),
			glamour.WithWordWrap(100),
		)
		if err == nil { // if NO error
			if s, err := r.Render(usage); err == nil { // if NO error
				return s
			}
		}
	}
	return usage
}

func validArgs(_ *cobra.Command, args []string, toComplete string) ([]cobra.Completion, cobra.ShellCompDirective) {
	return nil, cobra.ShellCompDirectiveNoFileComp
}

func runGenerate(cmd *cobra.Command, flags *flagsType) error {
	cfg, err := flags.load(cmd.Flags())
	if err != nil {
		return err
	}
	report, err := generate(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	if flags.Print {
		return printReport(cmd.OutOrStdout(), report)
	}
	return nil
}

// generate reads every input before touching the output directory, so a
// broken link file or template leaves the previous site in place.
func generate(ctx context.Context, cfg siteconfig.Config) (site.Report, error) {
	set, err := links.Load(cfg.Paths.JSONFile)
	if err != nil {
		return site.Report{}, err
	}
	if logging.DebugEnabled() {
		if s, err := jsonify(set); err == nil { // if NO error
			log.Debug().Str("file", cfg.Paths.JSONFile).Msg("contents:\n" + s)
		}
	}

	tmpl, err := stacktrace.Trace2(os.ReadFile(cfg.Paths.Template))
	if err != nil {
		return site.Report{}, err
	}
	renderer, err := render.New(string(tmpl), render.Options{
		Engine:  cfg.Site.Engine,
		BaseDir: filepath.Dir(cfg.Paths.Template),
		Escape:  cfg.Site.Sanitize,
	})
	if err != nil {
		return site.Report{}, err
	}

	builder := &site.Builder{
		Output:    cfg.Paths.Output,
		ErrorPage: cfg.Paths.ErrorPage,
		Site:      cfg.Site,
		Renderer:  renderer,
		Logger:    log.Logger,
	}
	if cfg.Site.Sanitize {
		builder.Sanitizer = render.NewSanitizer(cfg.Site.AllowedSchemes)
	}
	report, err := builder.Build(ctx, set)
	if err != nil {
		return report, err
	}
	log.Info().
		Int("pages", len(report.Pages)).
		Int("skipped", len(report.Skipped)).
		Str("dir", report.Output).
		Msg("site generated")
	return report, nil
}

// jsonify renders the links the way they would be written back.
func jsonify(set links.Set) (string, error) {
	data, err := links.Marshal(set, links.JSON)
	return string(data), err
}

func isTTY(io any) bool {
	if f, ok := io.(*os.File); ok {
		return isatty.IsTerminal(f.Fd())
	}
	return false
}
