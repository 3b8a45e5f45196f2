package site

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/goaux/stacktrace/v2"
	"github.com/rs/zerolog"
)

// reset removes the output directory if it exists and creates it again.
func (b *Builder) reset() error {
	if err := checkSafe(b.Output); err != nil {
		return err
	}
	_, err := os.Lstat(b.Output)
	switch {
	case err == nil:
		if err := stacktrace.Trace(os.RemoveAll(b.Output)); err != nil {
			return err
		}
		b.Logger.Info().Str("dir", b.Output).Msg("folder removed")
	case !errors.Is(err, fs.ErrNotExist):
		return stacktrace.Trace(err)
	}
	if err := stacktrace.Trace(os.MkdirAll(b.Output, 0o755)); err != nil {
		return err
	}
	b.Logger.Info().Str("dir", b.Output).Msg("folder created")
	return nil
}

func checkSafe(dir string) error {
	if strings.TrimSpace(dir) == "" {
		return fmt.Errorf("%w: empty path", ErrUnsafeOutput)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return stacktrace.Trace(err)
	}
	if abs == filepath.Dir(abs) {
		return fmt.Errorf("%w %q: filesystem root", ErrUnsafeOutput, dir)
	}
	wd, err := os.Getwd()
	if err != nil {
		return stacktrace.Trace(err)
	}
	rel, err := filepath.Rel(abs, wd)
	if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("%w %q: contains the working directory", ErrUnsafeOutput, dir)
	}
	return nil
}

// copyErrorPage copies the error page into the output root. A missing error
// page is only a warning.
func (b *Builder) copyErrorPage() (bool, error) {
	if b.ErrorPage == "" {
		b.Logger.Debug().Msg("no error page configured")
		return false, nil
	}
	src, err := os.Open(b.ErrorPage)
	if errors.Is(err, fs.ErrNotExist) {
		b.Logger.Warn().Str("file", b.ErrorPage).Msg("error page does not exist, it was not copied")
		return false, nil
	}
	if err != nil {
		return false, stacktrace.Trace(err)
	}
	defer src.Close()

	dst := filepath.Join(b.Output, filepath.Base(b.ErrorPage))
	out, err := stacktrace.Trace2(os.Create(dst))
	if err != nil {
		return false, err
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return false, stacktrace.Trace(err)
	}
	if err := out.Close(); err != nil {
		return false, stacktrace.Trace(err)
	}
	b.Logger.Info().Str("file", b.ErrorPage).Str("dir", b.Output).Msg("error page copied")
	return true, nil
}

// ensureDir creates the directory of a page. A path already taken by a file
// makes the entry unusable rather than failing the build.
func ensureDir(dir string, log zerolog.Logger) error {
	fi, err := os.Stat(dir)
	switch {
	case err == nil && fi.IsDir():
		log.Info().Str("dir", dir).Msg("folder already exists")
		return nil
	case err == nil, errors.Is(err, syscall.ENOTDIR):
		return &skipError{fmt.Errorf("%s: a file is in the way", dir)}
	case !errors.Is(err, fs.ErrNotExist):
		return stacktrace.Trace(err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		if errors.Is(err, fs.ErrExist) || errors.Is(err, syscall.ENOTDIR) {
			return &skipError{err}
		}
		return stacktrace.Trace(err)
	}
	log.Info().Str("dir", dir).Msg("folder created")
	return nil
}
