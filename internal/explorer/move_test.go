package explorer

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	perrors "github.com/jmgilman/go/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackvity/fexplore/internal/filesystem"
)

func TestRename(t *testing.T) {
	s, dir := newRealSession(t, Options{})
	writeFile(t, filepath.Join(dir, "old.txt"), "body", 0644)
	writeFile(t, filepath.Join(dir, "taken.txt"), "other", 0644)

	got, err := s.Rename("old.txt", "new.txt")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "new.txt"), got)
	assert.NoFileExists(t, filepath.Join(dir, "old.txt"))

	t.Run("Collision", func(t *testing.T) {
		_, err := s.Rename("new.txt", "taken.txt")
		assertCode(t, err, perrors.CodeAlreadyExists)
		data, _ := os.ReadFile(filepath.Join(dir, "taken.txt"))
		assert.Equal(t, "other", string(data))
		assert.FileExists(t, filepath.Join(dir, "new.txt"))
	})

	t.Run("Missing", func(t *testing.T) {
		_, err := s.Rename("ghost", "x")
		assertCode(t, err, perrors.CodeNotFound)
	})

	t.Run("SeparatorRejected", func(t *testing.T) {
		_, err := s.Rename("new.txt", "sub/new.txt")
		assertCode(t, err, perrors.CodeInvalidInput)
	})
}

func TestMove_RenamePath(t *testing.T) {
	s, dir := newRealSession(t, Options{})
	writeFile(t, filepath.Join(dir, "a.txt"), "a", 0644)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "dest"), 0755))

	res, err := s.Move("a.txt", "dest")
	require.NoError(t, err)
	assert.Equal(t, MoveRenamed, res.Method)
	assert.Equal(t, filepath.Join(dir, "dest", "a.txt"), res.Destination)
	assert.False(t, res.IsDir)
	assert.FileExists(t, res.Destination)
	assert.NoFileExists(t, filepath.Join(dir, "a.txt"))

	t.Run("ToNewName", func(t *testing.T) {
		res, err := s.Move("dest", "renamed")
		require.NoError(t, err)
		assert.True(t, res.IsDir)
		assert.FileExists(t, filepath.Join(dir, "renamed", "a.txt"))
	})
}

func TestMove_Rejections(t *testing.T) {
	s, mfs := newMockSession(t, Options{})
	now := time.Now()
	mfs.AddFile("/work/a.txt", []byte("a"), now)
	mfs.AddFile("/work/b.txt", []byte("b"), now)
	mfs.AddFile("/work/dest/a.txt", []byte("old"), now)
	mfs.AddDir("/work/tree/sub", now)

	t.Run("DestinationIsFile", func(t *testing.T) {
		_, err := s.Move("a.txt", "b.txt")
		assertCode(t, err, perrors.CodeAlreadyExists)
		content, _ := mfs.Content("/work/b.txt")
		assert.Equal(t, []byte("b"), content)
	})

	t.Run("NameTakenInDestination", func(t *testing.T) {
		_, err := s.Move("a.txt", "dest")
		assertCode(t, err, perrors.CodeAlreadyExists)
		content, _ := mfs.Content("/work/dest/a.txt")
		assert.Equal(t, []byte("old"), content)
	})

	t.Run("IntoOwnSubtree", func(t *testing.T) {
		_, err := s.Move("tree", "tree/sub")
		assertCode(t, err, perrors.CodeInvalidInput)
		assert.True(t, mfs.Exists("/work/tree/sub"))
	})

	t.Run("MissingSource", func(t *testing.T) {
		_, err := s.Move("ghost", "dest")
		assertCode(t, err, perrors.CodeNotFound)
	})

	t.Run("WorkingDirectory", func(t *testing.T) {
		_, err := s.Move(".", "/elsewhere")
		assertCode(t, err, perrors.CodeInvalidInput)
	})
}

func crossDevice(mfs *filesystem.MockFileSystem, path string) {
	mfs.SimulateRenameError(path, syscall.EXDEV)
}

func TestMove_CopyFallback(t *testing.T) {
	for _, staged := range []bool{false, true} {
		name := "Direct"
		if staged {
			name = "Staged"
		}
		t.Run(name, func(t *testing.T) {
			s, mfs := newMockSession(t, Options{StageMoves: staged})
			now := time.Now()
			mfs.AddFileMode("/work/tree/run.sh", []byte("#!"), 0755, now)
			mfs.AddFile("/work/tree/sub/doc.txt", []byte("doc"), now)
			mfs.AddDir("/mnt/other", now)
			crossDevice(mfs, "/work/tree")

			res, err := s.Move("tree", "/mnt/other")
			require.NoError(t, err)
			assert.Equal(t, MoveCopied, res.Method)
			assert.Equal(t, "/mnt/other/tree", res.Destination)
			mfs.AssertRenameCalled(t, "/work/tree")

			assert.False(t, mfs.Exists("/work/tree"))
			content, ok := mfs.Content("/mnt/other/tree/sub/doc.txt")
			require.True(t, ok)
			assert.Equal(t, []byte("doc"), content)
			info, err := mfs.Stat("/mnt/other/tree/run.sh")
			require.NoError(t, err)
			assert.Equal(t, fs.FileMode(0755), info.Mode().Perm())

			entries, err := mfs.ReadDir("/mnt/other")
			require.NoError(t, err)
			require.Len(t, entries, 1, "no staging leftovers expected")
		})
	}
}

func TestMove_CopyPhaseFailureKeepsSource(t *testing.T) {
	t.Run("Direct", func(t *testing.T) {
		s, mfs := newMockSession(t, Options{})
		now := time.Now()
		mfs.AddFile("/work/tree/a.txt", []byte("a"), now)
		mfs.AddFile("/work/tree/b.txt", []byte("b"), now)
		mfs.AddDir("/mnt", now)
		crossDevice(mfs, "/work/tree")
		mfs.SimulateReadError("/work/tree/b.txt", fs.ErrPermission)

		res, err := s.Move("tree", "/mnt")
		assertCode(t, err, CodePartial)
		assert.Equal(t, MoveCopied, res.Method)
		assert.True(t, mfs.Exists("/work/tree/a.txt"))
		assert.True(t, mfs.Exists("/work/tree/b.txt"))
		mfs.AssertRemoveNotCalled(t, "/work/tree/a.txt")
	})

	t.Run("StagedCleansUp", func(t *testing.T) {
		s, mfs := newMockSession(t, Options{StageMoves: true})
		now := time.Now()
		mfs.AddFile("/work/tree/a.txt", []byte("a"), now)
		mfs.AddFile("/work/tree/b.txt", []byte("b"), now)
		mfs.AddDir("/mnt", now)
		crossDevice(mfs, "/work/tree")
		mfs.SimulateReadError("/work/tree/b.txt", fs.ErrPermission)

		_, err := s.Move("tree", "/mnt")
		assertCode(t, err, perrors.CodeForbidden)
		assert.NotEqual(t, CodePartial, perrors.GetCode(err), "a discarded staging copy leaves nothing behind")
		p, ok := FailedPath(err)
		require.True(t, ok)
		assert.True(t, strings.HasSuffix(p, "b.txt"), p)
		assert.True(t, mfs.Exists("/work/tree/a.txt"))
		assert.False(t, mfs.Exists("/mnt/tree"))
		entries, err := mfs.ReadDir("/mnt")
		require.NoError(t, err)
		assert.Empty(t, entries, "staging copy must be discarded")
	})
}

func TestMove_CopiedButNotRemoved(t *testing.T) {
	s, mfs := newMockSession(t, Options{})
	now := time.Now()
	mfs.AddFile("/work/a.txt", []byte("a"), now)
	mfs.AddDir("/mnt", now)
	crossDevice(mfs, "/work/a.txt")
	mfs.SimulateRemoveError("/work/a.txt", fs.ErrPermission)

	res, err := s.Move("a.txt", "/mnt")
	assertCode(t, err, CodePartial)
	assert.Equal(t, "/mnt/a.txt", res.Destination)
	assert.Contains(t, Describe(err), "copied but not removed")

	content, ok := mfs.Content("/mnt/a.txt")
	require.True(t, ok)
	assert.Equal(t, []byte("a"), content)
	assert.True(t, mfs.Exists("/work/a.txt"))
}

func TestMove_StagingName(t *testing.T) {
	s, mfs := newMockSession(t, Options{StageMoves: true})
	now := time.Now()
	mfs.AddFile("/work/a.txt", []byte("a"), now)
	mfs.AddDir("/mnt", now)

	var staged string
	mfs.On("Rename", "/work/a.txt", "/mnt/a.txt").Return(&os.LinkError{Op: "rename", Old: "/work/a.txt", New: "/mnt/a.txt", Err: syscall.EXDEV})
	_, err := s.Move("a.txt", "/mnt")
	require.NoError(t, err)
	for _, c := range mfs.Calls {
		if c.Method == "Rename" {
			staged = c.Arguments.String(0)
		}
	}
	// The only recorded call is the expected one; the staging rename used a
	// hidden sibling that no longer exists.
	assert.Equal(t, "/work/a.txt", staged)
	entries, err := mfs.ReadDir("/mnt")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a.txt", entries[0].Name())
	assert.False(t, strings.HasPrefix(entries[0].Name(), "."))
}
