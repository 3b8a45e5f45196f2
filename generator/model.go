package generator

import (
	"os"

	"github.com/spf13/pflag"
	"github.com/takumakei/opentiny-go/siteconfig"
)

// flagsType holds the flags shared by every command.
type flagsType struct {
	Input      string
	Output     string
	Template   string
	ErrorPage  string
	ConfigFile string
	Print      bool
	Debug      bool
}

// Flag names.
const (
	flagInput      = "json-file"
	flagOutput     = "parent-folder"
	flagTemplate   = "template-file"
	flagErrorPage  = "error-page"
	flagConfigFile = "config-file"
	flagPrint      = "print"
	flagDebug      = "debug"
)

func (f *flagsType) register(fl *pflag.FlagSet, config *Config) {
	fl.SortFlags = false
	fl.StringVarP(&f.Input, flagInput, "j", config.DefaultInput, "Input `url.json` (JSON or YAML)")
	fl.StringVarP(&f.Output, flagOutput, "o", config.DefaultOutput, "Output `directory`, removed and recreated")
	fl.StringVarP(&f.Template, flagTemplate, "t", config.DefaultTemplate, "Page `template.html`")
	fl.StringVar(&f.ErrorPage, flagErrorPage, config.DefaultErrorPage, "Error page `404.html` copied to the output")
	fl.StringVar(&f.ConfigFile, flagConfigFile, "", "Site `config.json`")
	fl.BoolVarP(&f.Print, flagPrint, "p", false, "Print details of the generated files")
	fl.BoolVar(&f.Debug, flagDebug, false, "Enable debug logging")
}

// load reads the config file and applies the path flags on top of it.
// Precedence, highest first: a flag given on the command line, the
// OPENTINY_* environment, the config file, the flag default.
func (f *flagsType) load(fl *pflag.FlagSet) (siteconfig.Config, error) {
	cfg, err := siteconfig.Load(f.ConfigFile)
	if err != nil {
		return cfg, err
	}
	override := func(name, key string, dst *string, value string) {
		if fl.Changed(name) {
			*dst = value
			return
		}
		if f.ConfigFile == "" {
			if _, ok := os.LookupEnv(siteconfig.EnvKey(key)); !ok {
				*dst = value
			}
		}
	}
	override(flagInput, "paths.json_file", &cfg.Paths.JSONFile, f.Input)
	override(flagOutput, "paths.output", &cfg.Paths.Output, f.Output)
	override(flagTemplate, "paths.template", &cfg.Paths.Template, f.Template)
	override(flagErrorPage, "paths.error_page", &cfg.Paths.ErrorPage, f.ErrorPage)
	return cfg, cfg.Validate()
}
