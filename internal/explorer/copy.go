package explorer

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	perrors "github.com/jmgilman/go/errors"
)

// Copy duplicates src at dst. When dst is an existing directory the item is
// copied into it under its own name. Directories are copied recursively and
// the copy stops at the first failure. Permission bits are preserved and
// symlinks are recreated rather than followed. A relative link copied on
// its own is rewritten to point at the same item from its new directory.
func (s *Session) Copy(src, dst string) (string, error) {
	if err := requireName(src, "source"); err != nil {
		return "", err
	}
	if err := requireName(dst, "destination"); err != nil {
		return "", err
	}
	srcPath, dstPath := s.resolve(src), s.resolve(dst)

	info, err := s.fs.Lstat(srcPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", perrors.WithContext(perrors.Wrap(err, perrors.CodeNotFound, "source does not exist"), "path", srcPath)
		}
		return "", fsError(err, "cannot read source", srcPath)
	}

	if dinfo, err := s.fs.Stat(dstPath); err == nil {
		switch {
		case dinfo.IsDir():
			dstPath = filepath.Join(dstPath, filepath.Base(srcPath))
			if _, err := s.fs.Lstat(dstPath); err == nil {
				return "", perrors.WithContext(
					perrors.Newf(perrors.CodeAlreadyExists, "'%s' already exists in destination directory", filepath.Base(srcPath)),
					"path", dstPath)
			}
		case info.IsDir():
			return "", perrors.WithContext(perrors.New(perrors.CodeAlreadyExists, "destination exists and is not a directory"), "path", dstPath)
		case os.SameFile(info, dinfo) || srcPath == dstPath:
			return "", perrors.WithContext(perrors.New(perrors.CodeInvalidInput, "source and destination are the same file"), "path", dstPath)
		}
	}
	if info.IsDir() && within(dstPath, srcPath) {
		return "", perrors.WithContext(perrors.New(perrors.CodeInvalidInput, "cannot copy a directory into itself"), "path", dstPath)
	}

	if info.Mode()&fs.ModeSymlink != 0 {
		err = s.copyLink(srcPath, dstPath, true)
	} else {
		err = s.copyEntry(srcPath, dstPath, info)
	}
	if err != nil {
		return "", keepCode(err, "copy failed")
	}
	s.logger.Info("Copied", "from", srcPath, "to", dstPath)
	return dstPath, nil
}

// copyEntry copies one item of any supported type.
func (s *Session) copyEntry(src, dst string, info fs.FileInfo) error {
	switch {
	case info.Mode()&fs.ModeSymlink != 0:
		return s.copyLink(src, dst, false)
	case info.IsDir():
		return s.copyTree(src, dst)
	default:
		return s.copyFile(src, dst, info.Mode().Perm())
	}
}

// copyLink recreates the symlink src at dst. With rebase set, a relative
// target is rewritten relative to dst's directory.
func (s *Session) copyLink(src, dst string, rebase bool) error {
	target, err := s.fs.Readlink(src)
	if err != nil {
		return failedAt(err, "cannot read symlink", src)
	}
	if rebase && !filepath.IsAbs(target) {
		resolved := filepath.Join(filepath.Dir(src), target)
		if rel, err := filepath.Rel(filepath.Dir(dst), resolved); err == nil {
			target = rel
		} else {
			target = resolved
		}
		s.logger.Debug("Rebased symlink target", "path", dst, "target", target)
	}
	if err := s.fs.Symlink(target, dst); err != nil {
		return failedAt(err, "cannot create symlink", dst)
	}
	return nil
}

// copyFile streams src into dst, truncating dst, and applies perm exactly.
func (s *Session) copyFile(src, dst string, perm fs.FileMode) error {
	in, err := s.fs.Open(src)
	if err != nil {
		return failedAt(err, "cannot open source file", src)
	}
	defer in.Close()

	out, err := s.fs.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return failedAt(err, "cannot create destination file", dst)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return failedAt(err, "cannot copy file contents", dst)
	}
	if err := out.Close(); err != nil {
		return failedAt(err, "cannot write destination file", dst)
	}
	if err := s.fs.Chmod(dst, perm); err != nil {
		return failedAt(err, "cannot set permissions", dst)
	}
	return nil
}

// copyTree copies a directory in pre-order. Directory permissions are
// applied after their contents are written so read-only directories can
// still be filled.
func (s *Session) copyTree(src, dst string) error {
	type pendingDir struct {
		path string
		perm fs.FileMode
	}
	var dirs []pendingDir
	written := 0

	err := s.fs.WalkDir(src, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return failedAt(walkErr, "cannot read", p)
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return failedAt(err, "cannot resolve path", p)
		}
		target := filepath.Join(dst, rel)

		info, err := d.Info()
		if err != nil {
			return failedAt(err, "cannot read", p)
		}
		switch {
		case d.IsDir():
			if err := s.fs.Mkdir(target, info.Mode().Perm()|0700); err != nil {
				return failedAt(err, "cannot create directory", target)
			}
			dirs = append(dirs, pendingDir{target, info.Mode().Perm()})
		case d.Type()&fs.ModeSymlink != 0:
			if err := s.copyLink(p, target, false); err != nil {
				return err
			}
		case d.Type().IsRegular():
			if err := s.copyFile(p, target, info.Mode().Perm()); err != nil {
				return err
			}
		default:
			s.logger.Debug("Skipping special file", "path", p, "mode", info.Mode().String())
			return nil
		}
		written++
		return nil
	})
	if err != nil {
		if written > 0 {
			return perrors.WithContext(perrors.Wrap(err, CodePartial, "directory only partially copied"), "copied", written)
		}
		return err
	}

	for i := len(dirs) - 1; i >= 0; i-- {
		if err := s.fs.Chmod(dirs[i].path, dirs[i].perm); err != nil {
			return perrors.Wrap(failedAt(err, "cannot set permissions", dirs[i].path), CodePartial, "directory copied with wrong permissions")
		}
	}
	return nil
}
