package generator

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/takumakei/opentiny-go/site"
)

// printReport writes the report as a markdown document, rendered for the
// terminal when w is one.
func printReport(w io.Writer, report site.Report) error {
	md := reportMarkdown(report)
	if isTTY(w) {
		r, err := glamour.NewTermRenderer(
			glamour.WithEnvironmentConfig(),
			glamour.WithWordWrap(120),
		)
		if err == nil { // if NO error
			if s, err := r.Render(md); err == nil { // if NO error
				md = s
			}
		}
	}
	_, err := io.WriteString(w, md)
	return err
}

func reportMarkdown(report site.Report) string {
	b := new(strings.Builder)
	fmt.Fprintf(b, "# %s\n\n", cell(report.Output))
	if report.ErrorPage {
		b.WriteString("Error page copied.\n\n")
	} else {
		b.WriteString("Error page not copied.\n\n")
	}

	fmt.Fprintf(b, "## Pages (%d)\n\n", len(report.Pages))
	if len(report.Pages) > 0 {
		b.WriteString("| Slug | URL | File |\n|---|---|---|\n")
		for _, p := range report.Pages {
			fmt.Fprintf(b, "| %s | %s | %s |\n", cell(p.Slug), cell(p.URL), cell(p.Path))
		}
		b.WriteString("\n")
	}

	if len(report.Skipped) > 0 {
		fmt.Fprintf(b, "## Skipped (%d)\n\n", len(report.Skipped))
		b.WriteString("| Slug | Reason |\n|---|---|\n")
		for _, s := range report.Skipped {
			fmt.Fprintf(b, "| %s | %s |\n", cell(s.Slug), cell(s.Reason))
		}
		b.WriteString("\n")
	}
	return b.String()
}

var cellReplacer = strings.NewReplacer("|", `\|`, "\n", " ")

func cell(s string) string {
	return cellReplacer.Replace(s)
}
