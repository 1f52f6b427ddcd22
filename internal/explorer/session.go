// Package explorer implements the file browser operations on top of a
// filesystem.FileSystem. All state lives in a Session.
package explorer

import (
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	perrors "github.com/jmgilman/go/errors"

	"github.com/stackvity/fexplore/internal/filesystem"
)

// Options tunes Session behaviour.
type Options struct {
	// FollowSymlinks lets Search descend into symlinked directories.
	FollowSymlinks bool
	// SyncProcessDir mirrors successful navigation with a process chdir.
	SyncProcessDir bool
	// StageMoves makes the copy fallback of Move write to a hidden staging
	// name first and rename it into place once complete.
	StageMoves bool
}

// Session holds the logical working directory and the dependencies every
// operation needs.
type Session struct {
	fs     filesystem.FileSystem
	logger *slog.Logger
	opts   Options
	cwd    string
}

// NewSession creates a session rooted at startDir. An empty startDir means
// the process working directory.
func NewSession(fsys filesystem.FileSystem, logger *slog.Logger, startDir string, opts Options) (*Session, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	wd, err := fsys.Getwd()
	if err != nil {
		return nil, perrors.Wrap(err, perrors.CodeExecutionFailed, "cannot determine working directory")
	}

	dir := wd
	if startDir != "" {
		dir = startDir
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(wd, dir)
		}
	}
	dir = filepath.Clean(dir)

	info, err := fsys.Stat(dir)
	if err != nil {
		return nil, fsError(err, "cannot open start directory", dir)
	}
	if !info.IsDir() {
		return nil, perrors.WithContext(perrors.New(perrors.CodeInvalidInput, "start path is not a directory"), "path", dir)
	}

	logger.Debug("Session started", "dir", dir)
	return &Session{fs: fsys, logger: logger, opts: opts, cwd: dir}, nil
}

// Cwd returns the current logical working directory.
func (s *Session) Cwd() string {
	return s.cwd
}

// resolve turns a user-supplied path into an absolute, cleaned path.
func (s *Session) resolve(p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(s.cwd, p)
}

// within reports whether p equals dir or lies beneath it.
func within(p, dir string) bool {
	if p == dir {
		return true
	}
	if !strings.HasSuffix(dir, string(filepath.Separator)) {
		dir += string(filepath.Separator)
	}
	return strings.HasPrefix(p, dir)
}

// guardWorkingDir rejects operations that would remove the working
// directory out from under the session.
func (s *Session) guardWorkingDir(p, op string) error {
	if within(s.cwd, p) {
		return perrors.WithContext(
			perrors.Newf(perrors.CodeInvalidInput, "cannot %s the working directory or one of its parents", op),
			"path", p)
	}
	return nil
}

func requireName(name, what string) error {
	if strings.TrimSpace(name) == "" {
		return perrors.Newf(perrors.CodeInvalidInput, "%s must not be empty", what)
	}
	return nil
}

// Navigate changes the working directory. path may be "..", absolute, or
// relative to the current directory. On failure the working directory is
// unchanged.
func (s *Session) Navigate(path string) (string, error) {
	if err := requireName(path, "path"); err != nil {
		return s.cwd, err
	}
	target := s.resolve(path)

	info, err := s.fs.Stat(target)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return s.cwd, perrors.WithContext(perrors.Wrap(err, perrors.CodeNotFound, "directory does not exist"), "path", target)
		}
		return s.cwd, fsError(err, "cannot open directory", target)
	}
	if !info.IsDir() {
		return s.cwd, perrors.WithContext(perrors.New(perrors.CodeInvalidInput, "not a directory"), "path", target)
	}

	s.cwd = target
	s.logger.Debug("Changed directory", "dir", target)

	if s.opts.SyncProcessDir {
		if err := s.fs.Chdir(target); err != nil {
			s.logger.Warn("Could not change process working directory", "dir", target, "error", err)
			return target, perrors.WithContext(
				perrors.Wrap(err, perrors.CodeExecutionFailed, "changed directory but could not sync process working directory"),
				"path", target)
		}
	}
	return target, nil
}
