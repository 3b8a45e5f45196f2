package generator

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/goaux/contextvalue"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/takumakei/opentiny-go/pipeline"
	"github.com/takumakei/opentiny-go/publish"
	"github.com/takumakei/opentiny-go/site"
)

type deployFlags struct {
	Remote  string
	Branch  string
	Message string
	EnvFile string
	DryRun  bool
}

func newDeployCommand(flags *flagsType) *cobra.Command {
	var df deployFlags
	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Generate the site, then commit it to the hosting branch and push",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDeploy(cmd, flags, &df)
		},
	}
	fl := cmd.Flags()
	fl.SortFlags = false
	fl.StringVar(&df.Remote, "remote", "", "Remote `owner/repo`, url or path; overrides publish.remote")
	fl.StringVar(&df.Branch, "branch", "", "Hosting `branch`; overrides publish.branch")
	fl.StringVarP(&df.Message, "message", "m", "", "Commit `message`; overrides publish.message")
	fl.StringVar(&df.EnvFile, "env-file", "", "Dotenv `file` read for the token (default from the command config)")
	fl.BoolVar(&df.DryRun, "dry-run", false, "Commit but do not push")
	cmd.MarkFlagFilename("env-file")
	return cmd
}

func runDeploy(cmd *cobra.Command, flags *flagsType, df *deployFlags) error {
	config, ok := contextvalue.From[*Config](cmd.Context())
	if !ok {
		panic("never")
	}
	cfg, err := flags.load(cmd.Flags())
	if err != nil {
		return err
	}
	pc := cfg.Publish
	if df.Remote != "" {
		pc.Remote = df.Remote
	}
	if df.Branch != "" {
		pc.Branch = df.Branch
	}
	if df.Message != "" {
		pc.Message = df.Message
	}
	envFile := df.EnvFile
	if envFile == "" {
		envFile = config.DefaultEnvFile
	}
	token, err := publish.LoadToken(pc.TokenEnv, envFile)
	if err != nil {
		return err
	}
	if token == "" && !df.DryRun {
		log.Warn().Str("env", pc.TokenEnv).Msg("no token found, pushing without credentials")
	}

	pub := &publish.Publisher{
		Dir:       cfg.Paths.Output,
		Remote:    pc.Remote,
		Branch:    pc.Branch,
		UserName:  pc.UserName,
		UserEmail: pc.UserEmail,
		Token:     token,
		Timeout:   pc.Timeout,
		DryRun:    df.DryRun,
		Logger:    log.Logger,
	}
	defer pub.Close()

	var (
		report site.Report
		result publish.Result
	)
	err = pipeline.Run(cmd.Context(),
		pipeline.Step{Name: "generate", Run: func(ctx context.Context) (err error) {
			report, err = generate(ctx, cfg)
			return err
		}},
		pipeline.Step{Name: "stage", Run: func(ctx context.Context) error {
			pub.Message = commitMessage(pc.Message, len(report.Pages), config.Version)
			return pub.Stage(ctx)
		}},
		pipeline.Step{Name: "identity", Run: pub.Identity},
		pipeline.Step{Name: "publish", Run: func(ctx context.Context) (err error) {
			result, err = pub.Push(ctx)
			return err
		}},
	)
	if err != nil {
		return err
	}
	if flags.Print {
		if err := printReport(cmd.OutOrStdout(), report); err != nil {
			return err
		}
	}
	state := "pushed"
	if !result.Pushed {
		state = "committed (dry run)"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s to %s branch %s\n", state, result.Commit, result.Remote, result.Branch)
	return nil
}

// commitMessage expands "{{ count }}" and "{{ version }}" in message.
func commitMessage(message string, count int, version string) string {
	return strings.NewReplacer(
		"{{ count }}", strconv.Itoa(count),
		"{{ version }}", version,
	).Replace(message)
}
