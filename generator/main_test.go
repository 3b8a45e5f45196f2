package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goaux/contextvalue"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/takumakei/opentiny-go/execpipe"
	"github.com/takumakei/opentiny-go/links"
	"github.com/takumakei/opentiny-go/pipeline"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	config := Config{Use: "opentiny", Version: "v0.0.0-test"}
	cmd := NewCommand(config)
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs(args)
	ctx := contextvalue.With(context.Background(), config.withDefaults())
	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

func testdata(name string) string {
	abs, err := filepath.Abs(filepath.Join("testdata", name))
	if err != nil {
		panic(err)
	}
	return abs
}

func baseArgs(out string) []string {
	return []string{
		"-j", testdata("url.json"),
		"-o", out,
		"-t", testdata("template.html"),
		"--error-page", testdata("404.html"),
	}
}

func writeConfig(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestGenerate(t *testing.T) {
	out := filepath.Join(t.TempDir(), "_site")
	stdout, err := execute(t, append(baseArgs(out), "--print")...)
	require.NoError(t, err)

	page, err := os.ReadFile(filepath.Join(out, "gh", "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(page), "<title>GitHub</title>")
	assert.Contains(t, string(page), `content="0; url=https://github.com"`)
	assert.Contains(t, string(page), `content="Where the code lives"`)

	page, err = os.ReadFile(filepath.Join(out, "docs", "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(page), "<h1>docs</h1>")

	_, err = os.Stat(filepath.Join(out, "broken"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(out, "404.html"))
	assert.NoError(t, err)

	assert.Contains(t, stdout, "## Pages (2)")
	assert.Contains(t, stdout, "## Skipped (1)")
	assert.Contains(t, stdout, "| broken | url is required |")
}

func TestGenerate_Golden(t *testing.T) {
	out := filepath.Join(t.TempDir(), "_site")
	_, err := execute(t, baseArgs(out)...)
	require.NoError(t, err)
	got, err := os.ReadFile(filepath.Join(out, "gh", "index.html"))
	require.NoError(t, err)

	golden := testdata("gh.golden.html")
	if os.Getenv("UPDATE_GOLDENS") != "" {
		require.NoError(t, os.WriteFile(golden, got, 0o644))
		return
	}
	want, err := os.ReadFile(golden)
	require.NoError(t, err)
	if diff := cmp.Diff(string(want), string(got)); diff != "" {
		t.Errorf("gh/index.html mismatch (-want +got):\n%s", diff)
	}
}

func TestGenerate_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	fromConfig := filepath.Join(dir, "from-config")
	cfgPath := writeConfig(t, map[string]any{
		"site": map[string]any{
			"base_url":      "https://go.example.com",
			"default_image": "https://go.example.com/card.png",
			"engine":        "pongo2",
			"cname":         "go.example.com",
		},
		"paths": map[string]any{
			"json_file":  testdata("url.json"),
			"output":     fromConfig,
			"template":   testdata("template.html"),
			"error_page": testdata("404.html"),
		},
	})

	_, err := execute(t, "--config-file", cfgPath)
	require.NoError(t, err)
	page, err := os.ReadFile(filepath.Join(fromConfig, "docs", "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(page), `content="https://go.example.com/card.png"`)
	cname, err := os.ReadFile(filepath.Join(fromConfig, "CNAME"))
	require.NoError(t, err)
	assert.Equal(t, "go.example.com\n", string(cname))

	fromFlag := filepath.Join(dir, "from-flag")
	_, err = execute(t, "--config-file", cfgPath, "-o", fromFlag)
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(fromFlag, "gh", "index.html"))
	assert.NoError(t, err, "an explicit flag wins over the config file")
}

func TestGenerate_EnvOverridesFlagDefault(t *testing.T) {
	out := filepath.Join(t.TempDir(), "from-env")
	t.Setenv("OPENTINY_PATHS_OUTPUT", out)

	args := []string{
		"-j", testdata("url.json"),
		"-t", testdata("template.html"),
		"--error-page", testdata("404.html"),
	}
	_, err := execute(t, args...)
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(out, "gh", "index.html"))
	assert.NoError(t, err)

	fromFlag := filepath.Join(t.TempDir(), "from-flag")
	_, err = execute(t, append(args, "-o", fromFlag)...)
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(fromFlag, "gh", "index.html"))
	assert.NoError(t, err, "an explicit flag wins over the environment")
}

func TestGenerate_ManifestCollidesWithErrorPage(t *testing.T) {
	cfgPath := writeConfig(t, map[string]any{
		"site": map[string]any{"manifest": "404.html"},
	})
	args := append(baseArgs(filepath.Join(t.TempDir(), "_site")), "--config-file", cfgPath)
	_, err := execute(t, args...)
	assert.ErrorContains(t, err, "collides with the error page")
}

func TestGenerate_MissingInputKeepsOutput(t *testing.T) {
	out := filepath.Join(t.TempDir(), "_site")
	require.NoError(t, os.MkdirAll(filepath.Join(out, "previous"), 0o755))

	args := baseArgs(out)
	args[1] = filepath.Join(t.TempDir(), "missing.json")
	_, err := execute(t, args...)
	assert.ErrorIs(t, err, fs.ErrNotExist)

	_, err = os.Stat(filepath.Join(out, "previous"))
	assert.NoError(t, err)
}

func TestGenerate_InvalidJSON(t *testing.T) {
	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"a": `), 0o644))

	args := baseArgs(filepath.Join(t.TempDir(), "_site"))
	args[1] = bad
	_, err := execute(t, args...)
	assert.ErrorIs(t, err, links.ErrInvalidDocument)
}

func TestGenerate_RejectsArgs(t *testing.T) {
	_, err := execute(t, "unexpected")
	assert.Error(t, err)
}

func TestCheck(t *testing.T) {
	out := filepath.Join(t.TempDir(), "_site")
	stdout, err := execute(t, append([]string{"check"}, baseArgs(out)...)...)
	require.ErrorIs(t, err, errCheckFailed)
	assert.Contains(t, stdout, `"broken": url is required`)

	good := filepath.Join(t.TempDir(), "good.json")
	require.NoError(t, os.WriteFile(good, []byte(`{"gh": "https://github.com"}`), 0o644))
	args := append([]string{"check"}, baseArgs(out)...)
	args[2] = good
	stdout, err = execute(t, args...)
	require.NoError(t, err)
	assert.Contains(t, stdout, "1 link(s) ok")

	_, err = os.Stat(out)
	assert.True(t, os.IsNotExist(err), "check writes nothing")
}

func TestCheck_Template(t *testing.T) {
	good := filepath.Join(t.TempDir(), "good.json")
	require.NoError(t, os.WriteFile(good, []byte(`{"gh": "https://github.com"}`), 0o644))

	stdout, err := execute(t, "check", "-j", good, "-t", testdata("bad-template.html"), "--error-page", "")
	require.ErrorIs(t, err, errCheckFailed)
	assert.Contains(t, stdout, "bad-template.html:2: {{url}} is not replaced")
	assert.Contains(t, stdout, "bad-template.html:2: {{ destination }} is not replaced")
	assert.NotContains(t, stdout, "{{ title }} is not replaced")
	assert.Contains(t, stdout, "known placeholders are {{ title }}, {{ heading }}, {{ url }}")
}

func TestAdd(t *testing.T) {
	file := filepath.Join(t.TempDir(), "url.json")

	_, err := execute(t, "add", "-j", file, "gh", "https://github.com", "--title", "GitHub")
	require.NoError(t, err)
	_, err = execute(t, "add", "-j", file, "docs", "https://example.com/docs")
	require.NoError(t, err)

	_, err = execute(t, "add", "-j", file, "gh", "https://github.com/octo")
	assert.ErrorContains(t, err, "already exists")

	_, err = execute(t, "add", "-j", file, "gh", "https://github.com/octo", "--force")
	require.NoError(t, err)

	set, err := links.Load(file)
	require.NoError(t, err)
	require.Len(t, set, 2)
	assert.Equal(t, links.Link{Slug: "gh", URL: "https://github.com/octo"}, set[0].Link)
	assert.Equal(t, "docs", set[1].Slug)
}

func TestAdd_Errors(t *testing.T) {
	file := filepath.Join(t.TempDir(), "url.json")

	_, err := execute(t, "add", "-j", file, "gh")
	assert.ErrorContains(t, err, "stdin is not a terminal")

	_, err = execute(t, "add", "-j", file, "../gh", "https://github.com")
	assert.ErrorIs(t, err, links.ErrInvalidSlug)

	_, err = execute(t, "add", "-j", file, "gh", "github.com")
	assert.ErrorContains(t, err, "not an absolute url")

	_, err = os.Stat(file)
	assert.True(t, os.IsNotExist(err))
}

func TestPromptWriter(t *testing.T) {
	buf := new(bytes.Buffer)
	w := promptWriter(buf)
	_, err := io.WriteString(w, "Slug: ")
	require.NoError(t, err)
	assert.Equal(t, "Slug: ", buf.String())
	assert.Equal(t, os.Stdout.Fd(), w.Fd())

	assert.Same(t, os.Stderr, promptWriter(os.Stderr))
}

func TestDeploy(t *testing.T) {
	if err := execpipe.CheckPath("git"); err != nil {
		t.Skip("git not found")
	}
	ctx := context.Background()
	remote := t.TempDir()
	require.NoError(t, execpipe.Run(ctx, remote, nil, nil, "git", "init", "-q", "--bare"))

	out := filepath.Join(t.TempDir(), "_site")
	args := append([]string{"deploy", "--remote", remote, "--env-file", filepath.Join(t.TempDir(), "none.env")}, baseArgs(out)...)

	stdout, err := execute(t, append(args, "--dry-run")...)
	require.NoError(t, err)
	assert.Contains(t, stdout, "committed (dry run)")

	stdout, err = execute(t, args...)
	require.NoError(t, err)
	assert.Contains(t, stdout, "pushed ")

	msg, err := execpipe.Output(ctx, remote, "git", "log", "-1", "--format=%s|%an", "gh-pages")
	require.NoError(t, err)
	assert.Equal(t, "deploy: 2 links|github-actions[bot]", msg)
}

func TestDeploy_StopsAtFailedStep(t *testing.T) {
	out := filepath.Join(t.TempDir(), "_site")
	args := append([]string{"deploy", "--remote", t.TempDir()}, baseArgs(out)...)
	args[8] = filepath.Join(t.TempDir(), "missing.html")

	_, err := execute(t, args...)
	var stepErr *pipeline.StepError
	require.True(t, errors.As(err, &stepErr), "got %v", err)
	assert.Equal(t, "generate", stepErr.Step)
}

func TestCommitMessage(t *testing.T) {
	assert.Equal(t, "deploy: 3 links (v1.2.3)", commitMessage("deploy: {{ count }} links ({{ version }})", 3, "v1.2.3"))
}
