package siteconfig

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/goaux/stacktrace/v2"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes the environment variables overriding config keys, e.g.
// OPENTINY_SITE_BASE_URL for site.base_url.
const EnvPrefix = "OPENTINY"

// EnvKey returns the environment variable that overrides key, e.g.
// OPENTINY_PATHS_OUTPUT for paths.output.
func EnvKey(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// Load reads the JSON config file at path on top of Default. An empty path
// loads Default alone. In both cases the OPENTINY_* environment variables
// override the result.
//
// The file is validated against the embedded schema before it is decoded.
// Keys of site.vars are case-insensitive, reach templates lower-cased and
// may not contain a dot.
func Load(path string) (Config, error) {
	if path == "" {
		return decode(newViper())
	}

	data, err := stacktrace.Trace2(os.ReadFile(path))
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	var settings map[string]any
	if err := json.Unmarshal(data, &settings); err != nil {
		return Config{}, fmt.Errorf("%w: %s: %v", ErrInvalid, path, err)
	}
	if err := ValidateSettings(settings); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}

	v := newViper()
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg, err := decode(v)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("json")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	def := Default()
	v.SetDefault("site.name", def.Site.Name)
	v.SetDefault("site.base_url", def.Site.BaseURL)
	v.SetDefault("site.default_image", def.Site.DefaultImage)
	v.SetDefault("site.engine", def.Site.Engine)
	v.SetDefault("site.sanitize", def.Site.Sanitize)
	v.SetDefault("site.allowed_schemes", def.Site.AllowedSchemes)
	v.SetDefault("site.cname", def.Site.CNAME)
	v.SetDefault("site.nojekyll", def.Site.NoJekyll)
	v.SetDefault("site.manifest", def.Site.Manifest)
	v.SetDefault("paths.json_file", def.Paths.JSONFile)
	v.SetDefault("paths.output", def.Paths.Output)
	v.SetDefault("paths.template", def.Paths.Template)
	v.SetDefault("paths.error_page", def.Paths.ErrorPage)
	v.SetDefault("publish.remote", def.Publish.Remote)
	v.SetDefault("publish.branch", def.Publish.Branch)
	v.SetDefault("publish.user_name", def.Publish.UserName)
	v.SetDefault("publish.user_email", def.Publish.UserEmail)
	v.SetDefault("publish.message", def.Publish.Message)
	v.SetDefault("publish.token_env", def.Publish.TokenEnv)
	v.SetDefault("publish.timeout", def.Publish.Timeout.String())
	return v
}

func decode(v *viper.Viper) (Config, error) {
	var cfg Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
