package filesystem

import (
	"io"
	"io/fs"
)

// File is the subset of *os.File used when streaming file contents.
type File interface {
	io.ReadWriteCloser
	Stat() (fs.FileInfo, error)
}

// FileSystem defines an interface for interacting with the filesystem.
// This allows for decoupling the explorer operations from the os package,
// facilitating testing and failure injection.
type FileSystem interface {
	// Getwd returns the process working directory.
	Getwd() (string, error)

	// Chdir changes the process working directory.
	Chdir(dir string) error

	// Stat returns a FileInfo describing the named file, following symlinks.
	Stat(name string) (fs.FileInfo, error)

	// Lstat returns a FileInfo describing the named file without following
	// a final symlink.
	Lstat(name string) (fs.FileInfo, error)

	// ReadDir reads the named directory, returning its entries sorted by name.
	ReadDir(name string) ([]fs.DirEntry, error)

	// Readlink returns the destination of the named symbolic link.
	Readlink(name string) (string, error)

	// Symlink creates newname as a symbolic link to oldname.
	Symlink(oldname, newname string) error

	// Open opens the named file for reading.
	Open(name string) (File, error)

	// OpenFile opens the named file with the given flags and permissions.
	OpenFile(name string, flag int, perm fs.FileMode) (File, error)

	// ReadFile reads the named file and returns the contents.
	ReadFile(name string) ([]byte, error)

	// Mkdir creates a single directory with the given permission bits
	// (before umask). It fails if the directory already exists.
	Mkdir(name string, perm fs.FileMode) error

	// Chmod changes the mode of the named file.
	Chmod(name string, mode fs.FileMode) error

	// WalkDir walks the file tree rooted at root, calling fn for each file or
	// directory in the tree, including root.
	WalkDir(root string, fn fs.WalkDirFunc) error

	// Remove removes the named file or (empty) directory.
	Remove(name string) error

	// Rename renames (moves) oldpath to newpath.
	// OS-specific restrictions may apply when oldpath and newpath are on
	// different filesystems.
	Rename(oldpath, newpath string) error
}
