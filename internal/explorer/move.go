package explorer

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	perrors "github.com/jmgilman/go/errors"
)

// MoveMethod records how a move was carried out.
type MoveMethod string

const (
	MoveRenamed MoveMethod = "rename"
	MoveCopied  MoveMethod = "copy"
)

// MoveResult describes a completed (or partially completed) move.
type MoveResult struct {
	Source      string
	Destination string
	IsDir       bool
	Method      MoveMethod
}

// Rename changes the name of an item within the working directory. It
// fails if newName already exists.
func (s *Session) Rename(oldName, newName string) (string, error) {
	if err := requireName(oldName, "current name"); err != nil {
		return "", err
	}
	if err := requireName(newName, "new name"); err != nil {
		return "", err
	}
	if strings.ContainsRune(newName, filepath.Separator) {
		return "", perrors.New(perrors.CodeInvalidInput, "new name must not contain a path separator")
	}
	oldPath, newPath := s.resolve(oldName), s.resolve(newName)

	if _, err := s.fs.Lstat(oldPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", perrors.WithContext(perrors.Wrap(err, perrors.CodeNotFound, "item does not exist"), "path", oldPath)
		}
		return "", fsError(err, "cannot read item", oldPath)
	}
	if err := s.guardWorkingDir(oldPath, "rename"); err != nil {
		return "", err
	}
	if _, err := s.fs.Lstat(newPath); err == nil {
		return "", perrors.WithContext(
			perrors.Newf(perrors.CodeAlreadyExists, "an item named '%s' already exists", newName),
			"path", newPath)
	}

	if err := s.fs.Rename(oldPath, newPath); err != nil {
		return "", fsError(err, "cannot rename item", oldPath)
	}
	s.logger.Info("Renamed", "from", oldPath, "to", newPath)
	return newPath, nil
}

// Move relocates src to dst. If dst is an existing directory the item moves
// into it. An atomic rename is tried first; if that fails the item is copied
// and the original removed. A copy that succeeds but whose source cannot be
// removed is reported with CodePartial.
func (s *Session) Move(src, dst string) (MoveResult, error) {
	if err := requireName(src, "source"); err != nil {
		return MoveResult{}, err
	}
	if err := requireName(dst, "destination"); err != nil {
		return MoveResult{}, err
	}
	srcPath, dstPath := s.resolve(src), s.resolve(dst)

	info, err := s.fs.Lstat(srcPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return MoveResult{}, perrors.WithContext(perrors.Wrap(err, perrors.CodeNotFound, "source does not exist"), "path", srcPath)
		}
		return MoveResult{}, fsError(err, "cannot read source", srcPath)
	}
	if err := s.guardWorkingDir(srcPath, "move"); err != nil {
		return MoveResult{}, err
	}

	if dinfo, err := s.fs.Stat(dstPath); err == nil {
		if !dinfo.IsDir() {
			return MoveResult{}, perrors.WithContext(
				perrors.New(perrors.CodeAlreadyExists, "destination already exists as a file"),
				"path", dstPath)
		}
		dstPath = filepath.Join(dstPath, filepath.Base(srcPath))
		if _, err := s.fs.Lstat(dstPath); err == nil {
			return MoveResult{}, perrors.WithContext(
				perrors.Newf(perrors.CodeAlreadyExists, "'%s' already exists in destination directory", filepath.Base(srcPath)),
				"path", dstPath)
		}
	}
	if info.IsDir() && within(dstPath, srcPath) {
		return MoveResult{}, perrors.WithContext(perrors.New(perrors.CodeInvalidInput, "cannot move a directory into itself"), "path", dstPath)
	}

	result := MoveResult{Source: srcPath, Destination: dstPath, IsDir: info.IsDir(), Method: MoveRenamed}
	renameErr := s.fs.Rename(srcPath, dstPath)
	if renameErr == nil {
		s.logger.Info("Moved", "from", srcPath, "to", dstPath, "method", result.Method)
		return result, nil
	}

	result.Method = MoveCopied
	s.logger.Info("Rename failed, falling back to copy and delete", "from", srcPath, "to", dstPath, "error", renameErr)

	if err := s.copyForMove(srcPath, dstPath, info); err != nil {
		return result, keepCode(err, "move failed while copying")
	}

	var removeErr error
	if info.IsDir() {
		removeErr = s.removeTree(srcPath)
	} else if err := s.fs.Remove(srcPath); err != nil {
		removeErr = failedAt(err, "cannot delete file", srcPath)
	}
	if removeErr != nil {
		s.logger.Warn("Copied but could not remove source", "from", srcPath, "to", dstPath, "error", removeErr)
		return result, perrors.WithContext(
			perrors.Wrap(removeErr, CodePartial, "copied but not removed"),
			"destination", dstPath)
	}

	s.logger.Info("Moved", "from", srcPath, "to", dstPath, "method", result.Method)
	return result, nil
}

// copyForMove copies src to dst. With staging enabled the copy is written
// to a hidden sibling of dst and renamed into place once complete, so a
// failure never leaves a partial item under the final name.
func (s *Session) copyForMove(src, dst string, info fs.FileInfo) error {
	if !s.opts.StageMoves {
		return s.copyEntry(src, dst, info)
	}

	staging := filepath.Join(filepath.Dir(dst), fmt.Sprintf(".%s.fexplore-%s", filepath.Base(dst), uuid.NewString()))
	s.logger.Debug("Staging move", "staging", staging)

	if err := s.copyEntry(src, staging, info); err != nil {
		if derr := s.discard(staging); derr != nil {
			return s.stagingLeft(err, staging, derr)
		}
		return perrors.Wrap(err, rootCode(err), "staged copy discarded")
	}
	if err := s.fs.Rename(staging, dst); err != nil {
		err = failedAt(err, "cannot move staged copy into place", dst)
		if derr := s.discard(staging); derr != nil {
			return s.stagingLeft(err, staging, derr)
		}
		return err
	}
	return nil
}

// stagingLeft reports a staged move that failed and could not be rolled back.
func (s *Session) stagingLeft(err error, staging string, discardErr error) error {
	s.logger.Warn("Could not clean up staging copy", "path", staging, "error", discardErr)
	return perrors.WithContext(perrors.Wrap(err, CodePartial, "staging copy left behind"), "staging", staging)
}
