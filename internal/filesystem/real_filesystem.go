package filesystem

import (
	"io/fs"
	"os"
	"path/filepath"
)

// RealFileSystem implements the FileSystem interface using the standard os package.
type RealFileSystem struct{}

// NewRealFileSystem creates a new instance of RealFileSystem.
func NewRealFileSystem() *RealFileSystem {
	return &RealFileSystem{}
}

func (rfs *RealFileSystem) Getwd() (string, error) {
	return os.Getwd()
}

func (rfs *RealFileSystem) Chdir(dir string) error {
	return os.Chdir(dir)
}

// Stat returns a FileInfo using os.Stat.
func (rfs *RealFileSystem) Stat(name string) (fs.FileInfo, error) {
	return os.Stat(name)
}

// Lstat returns a FileInfo using os.Lstat.
func (rfs *RealFileSystem) Lstat(name string) (fs.FileInfo, error) {
	return os.Lstat(name)
}

// ReadDir lists a directory using os.ReadDir.
func (rfs *RealFileSystem) ReadDir(name string) ([]fs.DirEntry, error) {
	return os.ReadDir(name)
}

func (rfs *RealFileSystem) Readlink(name string) (string, error) {
	return os.Readlink(name)
}

func (rfs *RealFileSystem) Symlink(oldname, newname string) error {
	return os.Symlink(oldname, newname)
}

// Open opens a file for reading using os.Open.
func (rfs *RealFileSystem) Open(name string) (File, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// OpenFile opens a file using os.OpenFile.
func (rfs *RealFileSystem) OpenFile(name string, flag int, perm fs.FileMode) (File, error) {
	f, err := os.OpenFile(name, flag, perm)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// ReadFile reads the named file using os.ReadFile.
func (rfs *RealFileSystem) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(name)
}

// Mkdir creates a directory using os.Mkdir.
func (rfs *RealFileSystem) Mkdir(name string, perm fs.FileMode) error {
	return os.Mkdir(name, perm)
}

func (rfs *RealFileSystem) Chmod(name string, mode fs.FileMode) error {
	return os.Chmod(name, mode)
}

// WalkDir walks the file tree using filepath.WalkDir.
func (rfs *RealFileSystem) WalkDir(root string, fn fs.WalkDirFunc) error {
	return filepath.WalkDir(root, fn)
}

// Remove removes the named file or directory using os.Remove.
func (rfs *RealFileSystem) Remove(name string) error {
	return os.Remove(name)
}

// Rename renames (moves) a file using os.Rename.
func (rfs *RealFileSystem) Rename(oldpath, newpath string) error {
	return os.Rename(oldpath, newpath)
}
