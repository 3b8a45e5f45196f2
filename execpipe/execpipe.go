// Package execpipe runs external commands with their standard streams wired
// to the caller.
package execpipe

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/goaux/stacktrace/v2"
)

// CheckPath checks if the given executable exists in the system's PATH.
// It returns an error if the executable is not found, or nil if it is.
func CheckPath(executable string) error {
	_, err := stacktrace.Trace2(exec.LookPath(executable))
	return err
}

// Run executes name with args in dir, reading stdin from r and writing stdout
// to w. Either of r or w may be nil.
//
// A failed command yields an error that carries the command name, the
// underlying cause and the captured stderr. Arguments are not part of the
// message because they may hold credentials; wrap the error with Redact when
// the stderr itself may echo one.
func Run(ctx context.Context, dir string, w io.Writer, r io.Reader, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stdin = r
	if w != nil {
		cmd.Stdout = w
	}
	stderr := new(bytes.Buffer)
	cmd.Stderr = stderr
	if err := stacktrace.Trace(cmd.Run()); err != nil {
		return fmt.Errorf("error: %s, cause=%w, stderr=%q", name, err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// Output is like Run but returns stdout as a trimmed string.
func Output(ctx context.Context, dir string, name string, args ...string) (string, error) {
	out := new(bytes.Buffer)
	if err := Run(ctx, dir, out, nil, name, args...); err != nil {
		return "", err
	}
	return strings.TrimSpace(out.String()), nil
}

// Redact returns err with every occurrence of secret in its message replaced
// by "***". The returned error no longer unwraps to err.
func Redact(err error, secret string) error {
	if err == nil || secret == "" {
		return err
	}
	msg := err.Error()
	if !strings.Contains(msg, secret) {
		return err
	}
	return redacted(strings.ReplaceAll(msg, secret, "***"))
}

type redacted string

func (e redacted) Error() string { return string(e) }
