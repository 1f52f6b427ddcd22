package explorer

import (
	"io/fs"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	perrors "github.com/jmgilman/go/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackvity/fexplore/internal/filesystem"
)

// --- Test Setup ---

func newRealSession(t *testing.T, opts Options) (*Session, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := NewSession(filesystem.NewRealFileSystem(), nil, dir, opts)
	require.NoError(t, err)
	return s, dir
}

func newMockSession(t *testing.T, opts Options) (*Session, *filesystem.MockFileSystem) {
	t.Helper()
	mfs := filesystem.NewMockFileSystem()
	mfs.AddDir("/work", time.Now())
	s, err := NewSession(mfs, nil, "/work", opts)
	require.NoError(t, err)
	return s, mfs
}

func writeFile(t *testing.T, path, content string, perm fs.FileMode) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), perm))
	require.NoError(t, os.Chmod(path, perm))
}

func assertCode(t *testing.T, err error, code perrors.ErrorCode) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, code, perrors.GetCode(err), "unexpected code for error: %v", err)
}

// --- NewSession ---

func TestNewSession(t *testing.T) {
	t.Run("DefaultsToProcessDir", func(t *testing.T) {
		mfs := filesystem.NewMockFileSystem()
		mfs.AddDir("/home/user", time.Now())
		mfs.SetCwd("/home/user")

		s, err := NewSession(mfs, nil, "", Options{})
		require.NoError(t, err)
		assert.Equal(t, "/home/user", s.Cwd())
	})

	t.Run("RelativeStartDir", func(t *testing.T) {
		mfs := filesystem.NewMockFileSystem()
		mfs.AddDir("/home/user/projects", time.Now())
		mfs.SetCwd("/home/user")

		s, err := NewSession(mfs, nil, "projects", Options{})
		require.NoError(t, err)
		assert.Equal(t, "/home/user/projects", s.Cwd())
	})

	t.Run("MissingStartDir", func(t *testing.T) {
		mfs := filesystem.NewMockFileSystem()
		_, err := NewSession(mfs, nil, "/nope", Options{})
		assertCode(t, err, perrors.CodeNotFound)
	})

	t.Run("StartDirIsFile", func(t *testing.T) {
		mfs := filesystem.NewMockFileSystem()
		mfs.AddFile("/file.txt", nil, time.Now())
		_, err := NewSession(mfs, nil, "/file.txt", Options{})
		assertCode(t, err, perrors.CodeInvalidInput)
	})
}

// --- Navigate ---

func TestNavigate(t *testing.T) {
	s, mfs := newMockSession(t, Options{})
	now := time.Now()
	mfs.AddDir("/work/a/b", now)
	mfs.AddFile("/work/notes.txt", nil, now)

	t.Run("Relative", func(t *testing.T) {
		got, err := s.Navigate("a")
		require.NoError(t, err)
		assert.Equal(t, "/work/a", got)
		assert.Equal(t, "/work/a", s.Cwd())
	})

	t.Run("Parent", func(t *testing.T) {
		got, err := s.Navigate("..")
		require.NoError(t, err)
		assert.Equal(t, "/work", got)
	})

	t.Run("Absolute", func(t *testing.T) {
		got, err := s.Navigate("/work/a/b")
		require.NoError(t, err)
		assert.Equal(t, "/work/a/b", got)
	})

	t.Run("ParentOfRootIsRoot", func(t *testing.T) {
		_, err := s.Navigate("/")
		require.NoError(t, err)
		got, err := s.Navigate("..")
		require.NoError(t, err)
		assert.Equal(t, "/", got)
	})

	t.Run("MissingLeavesCwdUnchanged", func(t *testing.T) {
		_, err := s.Navigate("/work")
		require.NoError(t, err)
		got, err := s.Navigate("ghost")
		assertCode(t, err, perrors.CodeNotFound)
		assert.Equal(t, "/work", got)
		assert.Equal(t, "/work", s.Cwd())
	})

	t.Run("FileIsRejected", func(t *testing.T) {
		_, err := s.Navigate("notes.txt")
		assertCode(t, err, perrors.CodeInvalidInput)
		assert.Equal(t, "/work", s.Cwd())
	})

	t.Run("Empty", func(t *testing.T) {
		_, err := s.Navigate("  ")
		assertCode(t, err, perrors.CodeInvalidInput)
	})
}

func TestNavigate_SyncProcessDir(t *testing.T) {
	s, mfs := newMockSession(t, Options{SyncProcessDir: true})
	mfs.AddDir("/work/sub", time.Now())

	got, err := s.Navigate("sub")
	require.NoError(t, err)
	assert.Equal(t, "/work/sub", got)
	wd, err := mfs.Getwd()
	require.NoError(t, err)
	assert.Equal(t, "/work/sub", wd)

	t.Run("ChdirFailureKeepsLogicalDir", func(t *testing.T) {
		mfs.AddDir("/work/locked", time.Now())
		mfs.On("Chdir", "/work/locked").Return(&fs.PathError{Op: "chdir", Path: "/work/locked", Err: syscall.EACCES})

		got, err := s.Navigate("/work/locked")
		assertCode(t, err, perrors.CodeExecutionFailed)
		assert.Equal(t, "/work/locked", got)
		assert.Equal(t, "/work/locked", s.Cwd())
		mfs.AssertExpectations(t)
	})
}

func TestWithin(t *testing.T) {
	assert.True(t, within("/a/b", "/a"))
	assert.True(t, within("/a", "/a"))
	assert.True(t, within("/a", "/"))
	assert.False(t, within("/ab", "/a"))
	assert.False(t, within("/a", "/a/b"))
}
