package generator

// Config describes the command built by Main. The Default fields are the
// defaults of the command line flags.
type Config struct {
	Use     string
	Short   string
	Long    string
	Version string

	DefaultInput     string
	DefaultOutput    string
	DefaultTemplate  string
	DefaultErrorPage string
	DefaultEnvFile   string
}

func (c *Config) withDefaults() *Config {
	out := *c
	if out.Use == "" {
		out.Use = "opentiny"
	}
	if out.DefaultInput == "" {
		out.DefaultInput = "url.json"
	}
	if out.DefaultOutput == "" {
		out.DefaultOutput = "_site"
	}
	if out.DefaultTemplate == "" {
		out.DefaultTemplate = "template.html"
	}
	if out.DefaultErrorPage == "" {
		out.DefaultErrorPage = "404.html"
	}
	if out.DefaultEnvFile == "" {
		out.DefaultEnvFile = ".env"
	}
	return &out
}
