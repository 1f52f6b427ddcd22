package explorer

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strings"

	perrors "github.com/jmgilman/go/errors"
)

// Confirmer asks the user a yes/no question.
type Confirmer interface {
	Confirm(prompt string) (bool, error)
}

// ConfirmFunc adapts a function to the Confirmer interface.
type ConfirmFunc func(prompt string) (bool, error)

func (f ConfirmFunc) Confirm(prompt string) (bool, error) {
	return f(prompt)
}

// AlwaysConfirm accepts every prompt without asking.
var AlwaysConfirm = ConfirmFunc(func(string) (bool, error) { return true, nil })

// PromptConfirmer writes the prompt to Out and reads one line from In.
// Only the exact answer "yes" confirms.
type PromptConfirmer struct {
	In  io.Reader
	Out io.Writer

	reader *bufio.Reader
}

func (p *PromptConfirmer) Confirm(prompt string) (bool, error) {
	if p.reader == nil {
		p.reader = bufio.NewReader(p.In)
	}
	if _, err := fmt.Fprint(p.Out, prompt); err != nil {
		return false, err
	}
	line, err := p.reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	return strings.TrimSpace(line) == "yes", nil
}

// Delete removes a file or directory. A non-empty directory is only removed,
// depth-first, after c confirms; a nil Confirmer declines.
func (s *Session) Delete(name string, c Confirmer) error {
	if err := requireName(name, "name"); err != nil {
		return err
	}
	p := s.resolve(name)

	info, err := s.fs.Lstat(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return perrors.WithContext(perrors.Wrap(err, perrors.CodeNotFound, "item does not exist"), "path", p)
		}
		return fsError(err, "cannot read item", p)
	}

	if !info.IsDir() {
		if err := s.fs.Remove(p); err != nil {
			return fsError(err, "cannot delete file", p)
		}
		s.logger.Info("Deleted file", "path", p)
		return nil
	}

	if err := s.guardWorkingDir(p, "delete"); err != nil {
		return err
	}

	removeErr := s.fs.Remove(p)
	if removeErr == nil {
		s.logger.Info("Deleted directory", "path", p)
		return nil
	}
	children, err := s.fs.ReadDir(p)
	if err != nil || len(children) == 0 {
		return fsError(removeErr, "cannot delete directory", p)
	}

	if c == nil {
		return ErrCancelled
	}
	ok, err := c.Confirm(fmt.Sprintf("Directory '%s' is not empty. Delete recursively? (yes/no): ", name))
	if err != nil {
		return perrors.Wrap(err, perrors.CodeExecutionFailed, "cannot read confirmation")
	}
	if !ok {
		s.logger.Info("Deletion cancelled", "path", p)
		return ErrCancelled
	}

	if err := s.removeTree(p); err != nil {
		return err
	}
	s.logger.Info("Deleted directory recursively", "path", p)
	return nil
}

// removeTree deletes dir and everything beneath it, children before their
// parent. It stops at the first failure.
func (s *Session) removeTree(dir string) error {
	removed := 0
	if err := s.removeTreeAt(dir, &removed); err != nil {
		if removed > 0 {
			return perrors.WithContext(
				perrors.Wrap(err, CodePartial, "directory only partially deleted"),
				"removed", removed)
		}
		return err
	}
	return nil
}

func (s *Session) removeTreeAt(dir string, removed *int) error {
	entries, err := s.fs.ReadDir(dir)
	if err != nil {
		return failedAt(err, "cannot read directory", dir)
	}
	for _, e := range entries {
		p := filepath.Join(dir, e.Name())
		// DirEntry.IsDir is false for symlinks, so links are removed, not followed.
		if e.IsDir() {
			if err := s.removeTreeAt(p, removed); err != nil {
				return err
			}
			continue
		}
		if err := s.fs.Remove(p); err != nil {
			return failedAt(err, "cannot delete file", p)
		}
		*removed++
	}
	if err := s.fs.Remove(dir); err != nil {
		return failedAt(err, "cannot delete directory", dir)
	}
	*removed++
	return nil
}

// discard removes a partially written item without reporting progress.
func (s *Session) discard(p string) error {
	info, err := s.fs.Lstat(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	if !info.IsDir() {
		return s.fs.Remove(p)
	}
	var n int
	return s.removeTreeAt(p, &n)
}
