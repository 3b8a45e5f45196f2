// Package siteconfig provides loading of the site configuration file passed
// with --config-file.
package siteconfig

import "time"

// Engines understood by the render package.
const (
	EnginePlaceholder = "placeholder"
	EnginePongo2      = "pongo2"
)

// Config is the root configuration.
type Config struct {
	Site    Site    `json:"site"    mapstructure:"site"`
	Paths   Paths   `json:"paths"   mapstructure:"paths"`
	Publish Publish `json:"publish" mapstructure:"publish"`
}

// Site describes how pages are rendered.
type Site struct {
	Name           string            `json:"name,omitempty"            mapstructure:"name"`
	BaseURL        string            `json:"base_url,omitempty"        mapstructure:"base_url"`
	DefaultImage   string            `json:"default_image,omitempty"   mapstructure:"default_image"`
	Engine         string            `json:"engine"                    mapstructure:"engine"`
	Sanitize       bool              `json:"sanitize"                  mapstructure:"sanitize"`
	AllowedSchemes []string          `json:"allowed_schemes,omitempty" mapstructure:"allowed_schemes"`
	CNAME          string            `json:"cname,omitempty"           mapstructure:"cname"`
	NoJekyll       bool              `json:"nojekyll"                  mapstructure:"nojekyll"`
	Manifest       string            `json:"manifest,omitempty"        mapstructure:"manifest"`
	Vars           map[string]string `json:"vars,omitempty"            mapstructure:"vars"`
}

// Paths holds the file locations also settable from the command line.
type Paths struct {
	JSONFile  string `json:"json_file"  mapstructure:"json_file"`
	Output    string `json:"output"     mapstructure:"output"`
	Template  string `json:"template"   mapstructure:"template"`
	ErrorPage string `json:"error_page" mapstructure:"error_page"`
}

// Publish describes the deployment of the generated directory.
type Publish struct {
	Remote    string        `json:"remote,omitempty" mapstructure:"remote"`
	Branch    string        `json:"branch"           mapstructure:"branch"`
	UserName  string        `json:"user_name"        mapstructure:"user_name"`
	UserEmail string        `json:"user_email"       mapstructure:"user_email"`
	Message   string        `json:"message"          mapstructure:"message"`
	TokenEnv  string        `json:"token_env"        mapstructure:"token_env"`
	Timeout   time.Duration `json:"timeout"          mapstructure:"timeout"`
}

// Default returns the configuration used when no config file is given. Its
// paths are the defaults of the command line flags.
func Default() Config {
	return Config{
		Site: Site{
			Engine:         EnginePlaceholder,
			AllowedSchemes: []string{"http", "https"},
		},
		Paths: Paths{
			JSONFile:  "url.json",
			Output:    "_site",
			Template:  "template.html",
			ErrorPage: "404.html",
		},
		Publish: Publish{
			Branch:    "gh-pages",
			UserName:  "github-actions[bot]",
			UserEmail: "github-actions[bot]@users.noreply.github.com",
			Message:   "deploy: {{ count }} links",
			TokenEnv:  "GITHUB_TOKEN",
			Timeout:   2 * time.Minute,
		},
	}
}
