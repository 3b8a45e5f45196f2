package publish

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/joho/godotenv"
)

var reOwnerRepo = regexp.MustCompile(`^[A-Za-z0-9_.-]+/[A-Za-z0-9_.-]+$`)

// RemoteURL resolves the configured remote. "owner/repo" is a GitHub
// repository; http(s) URLs get the token as x-access-token credentials;
// anything else (ssh URLs, local paths) is used as is.
func RemoteURL(remote, token string) (string, error) {
	remote = strings.TrimSpace(remote)
	if remote == "" {
		return "", ErrNoRemote
	}
	if reOwnerRepo.MatchString(remote) {
		remote = "https://github.com/" + strings.TrimSuffix(remote, ".git") + ".git"
	}
	u, err := url.Parse(remote)
	if err != nil || (u.Scheme != "https" && u.Scheme != "http") {
		return remote, nil
	}
	if token != "" {
		u.User = url.UserPassword("x-access-token", token)
	}
	return u.String(), nil
}

// Redact replaces token in s by "***".
func Redact(s, token string) string {
	if token == "" {
		return s
	}
	s = strings.ReplaceAll(s, url.UserPassword("x-access-token", token).String(), "x-access-token:***")
	return strings.ReplaceAll(s, token, "***")
}

// LoadToken returns the value of the environment variable name after loading
// those of files that exist. Variables already set in the environment win
// over the files.
func LoadToken(name string, files ...string) (string, error) {
	if name == "" {
		return "", nil
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return "", fmt.Errorf("load %s: %w", f, err)
		}
	}
	return os.Getenv(name), nil
}
