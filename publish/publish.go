// Package publish deploys a generated directory to a static host by
// committing it as the only commit of a branch and force pushing that branch,
// the way GitHub Pages deployments work.
package publish

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/goaux/stacktrace/v2"
	"github.com/rs/zerolog"
	"github.com/takumakei/opentiny-go/execpipe"
)

var (
	// ErrNoRemote is returned when no remote is configured.
	ErrNoRemote = errors.New("no remote configured")

	// ErrNotStaged is returned when Identity or Push run before Stage.
	ErrNotStaged = errors.New("work tree is not staged")
)

// Publisher holds the settings of one deployment. The zero value is not
// usable; Dir, Remote and Branch are required.
type Publisher struct {
	Dir       string
	Remote    string
	Branch    string
	UserName  string
	UserEmail string
	Message   string
	Token     string
	Timeout   time.Duration
	DryRun    bool
	Logger    zerolog.Logger

	work string
}

// Result describes a finished deployment.
type Result struct {
	Branch string
	Remote string
	Commit string
	Pushed bool
}

// Publish runs Stage, Identity and Push, and removes the work tree.
func (p *Publisher) Publish(ctx context.Context) (Result, error) {
	defer p.Close()
	if err := p.Stage(ctx); err != nil {
		return Result{}, err
	}
	if err := p.Identity(ctx); err != nil {
		return Result{}, err
	}
	return p.Push(ctx)
}

// Stage creates a temporary git work tree on an orphan branch and copies the
// content of Dir into it.
func (p *Publisher) Stage(ctx context.Context) error {
	fi, err := stacktrace.Trace2(os.Stat(p.Dir))
	if err != nil {
		return err
	}
	if !fi.IsDir() {
		return fmt.Errorf("publish: %s is not a directory", p.Dir)
	}
	if p.Branch == "" {
		return errors.New("publish: no branch configured")
	}
	if err := execpipe.CheckPath("git"); err != nil {
		return fmt.Errorf("publish: git was not found: %w", err)
	}

	work, err := stacktrace.Trace2(os.MkdirTemp("", "opentiny-publish-*"))
	if err != nil {
		return err
	}
	p.work = work
	if err := p.git(ctx, "init", "-q"); err != nil {
		return err
	}
	if err := p.git(ctx, "symbolic-ref", "HEAD", "refs/heads/"+p.Branch); err != nil {
		return err
	}
	n, err := copyTree(p.Dir, work)
	if err != nil {
		return err
	}
	p.Logger.Info().Str("dir", p.Dir).Str("branch", p.Branch).Int("files", n).Msg("work tree staged")
	return nil
}

// Identity sets the committer name and email of the work tree.
func (p *Publisher) Identity(ctx context.Context) error {
	if p.work == "" {
		return ErrNotStaged
	}
	if err := p.git(ctx, "config", "user.name", p.UserName); err != nil {
		return err
	}
	if err := p.git(ctx, "config", "user.email", p.UserEmail); err != nil {
		return err
	}
	p.Logger.Info().Str("name", p.UserName).Str("email", p.UserEmail).Msg("git identity configured")
	return nil
}

// Push commits the staged tree and force pushes it to Remote. With DryRun
// the commit is made but not pushed.
func (p *Publisher) Push(ctx context.Context) (Result, error) {
	if p.work == "" {
		return Result{}, ErrNotStaged
	}
	remote, err := RemoteURL(p.Remote, p.Token)
	if err != nil {
		return Result{}, err
	}
	res := Result{Branch: p.Branch, Remote: Redact(remote, p.Token)}

	if err := p.git(ctx, "add", "-A"); err != nil {
		return res, err
	}
	if err := p.git(ctx, "-c", "commit.gpgsign=false", "commit", "-q", "--allow-empty", "-m", p.Message); err != nil {
		return res, err
	}
	commit, err := execpipe.Output(ctx, p.work, "git", "rev-parse", "HEAD")
	if err != nil {
		return res, err
	}
	res.Commit = commit

	if p.DryRun {
		p.Logger.Info().Str("remote", res.Remote).Str("commit", commit).Msg("dry run, not pushing")
		return res, nil
	}
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}
	if err := p.git(ctx, "push", "--force", "-q", remote, "HEAD:refs/heads/"+p.Branch); err != nil {
		return res, err
	}
	res.Pushed = true
	p.Logger.Info().Str("remote", res.Remote).Str("branch", p.Branch).Str("commit", commit).Msg("published")
	return res, nil
}

// Close removes the work tree.
func (p *Publisher) Close() error {
	if p.work == "" {
		return nil
	}
	err := os.RemoveAll(p.work)
	p.work = ""
	return stacktrace.Trace(err)
}

func (p *Publisher) git(ctx context.Context, args ...string) error {
	return execpipe.Redact(execpipe.Run(ctx, p.work, nil, nil, "git", args...), p.Token)
}

// copyTree copies the regular files and directories below src into dst,
// skipping any .git directory. It returns the number of files copied.
func copyTree(src, dst string) (int, error) {
	n := 0
	err := filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		switch {
		case d.IsDir() && d.Name() == ".git":
			return filepath.SkipDir
		case d.IsDir():
			return os.MkdirAll(target, 0o755)
		case !d.Type().IsRegular():
			return nil
		}
		n++
		return copyFile(path, target)
	})
	return n, stacktrace.Trace(err)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	fi, err := in.Stat()
	if err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, fi.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
