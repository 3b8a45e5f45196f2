package generator

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/takumakei/opentiny-go/links"
)

type addFlags struct {
	Title       string
	Description string
	Image       string
	Force       bool
}

func newAddCommand(flags *flagsType) *cobra.Command {
	var af addFlags
	cmd := &cobra.Command{
		Use:   "add [slug [url]]",
		Short: "Add or replace a link in the link file, prompting for what is missing",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load(cmd.Flags())
			if err != nil {
				return err
			}
			link := links.Link{Title: af.Title, Description: af.Description, Image: af.Image}
			if len(args) > 0 {
				link.Slug = args[0]
			}
			if len(args) > 1 {
				link.URL = args[1]
			}
			return add(cmd, cfg.Paths.JSONFile, link, af.Force)
		},
	}
	fl := cmd.Flags()
	fl.SortFlags = false
	fl.StringVar(&af.Title, "title", "", "Page `title`, defaults to the slug")
	fl.StringVar(&af.Description, "description", "", "Page `description`, defaults to the slug")
	fl.StringVar(&af.Image, "image", "", "Preview `image` url")
	fl.BoolVarP(&af.Force, "force", "f", false, "Replace an existing slug without asking")
	return cmd
}

func add(cmd *cobra.Command, path string, link links.Link, force bool) error {
	set, err := links.Load(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	in, interactive := cmd.InOrStdin().(*os.File)
	interactive = interactive && isTTY(in)
	if link.Slug == "" || link.URL == "" {
		if !interactive {
			return errors.New("slug and url are required when stdin is not a terminal")
		}
		if err := prompt(surveyStdio(cmd, in), &link); err != nil {
			return err
		}
	}
	if err := validateLink(link); err != nil {
		return err
	}

	if _, exists := set.Lookup(link.Slug); exists && !force {
		if !interactive {
			return fmt.Errorf("%q already exists in %s, use --force to replace it", link.Slug, path)
		}
		replace := false
		q := &survey.Confirm{Message: fmt.Sprintf("Replace %q?", link.Slug)}
		if err := survey.AskOne(q, &replace, surveyStdio(cmd, in)); err != nil {
			return err
		}
		if !replace {
			return nil
		}
	}

	if err := links.Save(path, set.Upsert(link)); err != nil {
		return err
	}
	log.Info().Str("slug", link.Slug).Str("url", link.URL).Str("file", path).Msg("link saved")
	return nil
}

// surveyStdio makes survey read from in and write to the command's writers.
func surveyStdio(cmd *cobra.Command, in *os.File) survey.AskOpt {
	return survey.WithStdio(in, promptWriter(cmd.OutOrStdout()), cmd.ErrOrStderr())
}

// promptWriter adapts w to the writer survey needs. A w that is not a file
// borrows the terminal size of stdout.
func promptWriter(w io.Writer) terminal.FileWriter {
	if fw, ok := w.(terminal.FileWriter); ok {
		return fw
	}
	return fdWriter{Writer: w, fd: os.Stdout.Fd()}
}

type fdWriter struct {
	io.Writer
	fd uintptr
}

func (w fdWriter) Fd() uintptr { return w.fd }

func prompt(stdio survey.AskOpt, link *links.Link) error {
	var qs []*survey.Question
	if link.Slug == "" {
		qs = append(qs, &survey.Question{
			Name:     "slug",
			Prompt:   &survey.Input{Message: "Slug:", Help: "the path of the short link, e.g. gh or team/blog"},
			Validate: survey.ComposeValidators(survey.Required, validateSlugAnswer),
		})
	}
	if link.URL == "" {
		qs = append(qs, &survey.Question{
			Name:     "url",
			Prompt:   &survey.Input{Message: "Destination URL:"},
			Validate: survey.ComposeValidators(survey.Required, validateURLAnswer),
		})
	}
	if link.Title == "" {
		qs = append(qs, &survey.Question{
			Name:   "title",
			Prompt: &survey.Input{Message: "Title:", Help: "defaults to the slug"},
		})
	}
	if link.Description == "" {
		qs = append(qs, &survey.Question{
			Name:   "description",
			Prompt: &survey.Input{Message: "Description:", Help: "defaults to the slug"},
		})
	}
	if link.Image == "" {
		qs = append(qs, &survey.Question{
			Name:   "image",
			Prompt: &survey.Input{Message: "Image URL:", Help: "preview image, may be empty"},
		})
	}

	answers := struct {
		Slug        string `survey:"slug"`
		URL         string `survey:"url"`
		Title       string `survey:"title"`
		Description string `survey:"description"`
		Image       string `survey:"image"`
	}{link.Slug, link.URL, link.Title, link.Description, link.Image}
	if err := survey.Ask(qs, &answers, stdio); err != nil {
		return err
	}
	*link = links.Link{
		Slug:        answers.Slug,
		URL:         answers.URL,
		Title:       answers.Title,
		Description: answers.Description,
		Image:       answers.Image,
	}
	return nil
}

func validateLink(link links.Link) error {
	if err := links.ValidateSlug(link.Slug); err != nil {
		return err
	}
	return validateURL(link.URL)
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme == "" {
		return fmt.Errorf("%q is not an absolute url", raw)
	}
	return nil
}

func validateSlugAnswer(ans any) error {
	s, _ := ans.(string)
	return links.ValidateSlug(s)
}

func validateURLAnswer(ans any) error {
	s, _ := ans.(string)
	return validateURL(s)
}
