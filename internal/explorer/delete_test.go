package explorer

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	perrors "github.com/jmgilman/go/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateFile(t *testing.T) {
	s, dir := newRealSession(t, Options{})

	p, err := s.CreateFile("new.txt")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "new.txt"), p)
	info, err := os.Stat(p)
	require.NoError(t, err)
	assert.Zero(t, info.Size())

	t.Run("ExistingIsRejected", func(t *testing.T) {
		require.NoError(t, os.WriteFile(p, []byte("keep"), 0644))
		_, err := s.CreateFile("new.txt")
		assertCode(t, err, perrors.CodeAlreadyExists)
		data, _ := os.ReadFile(p)
		assert.Equal(t, "keep", string(data), "existing content must not be truncated")
	})

	t.Run("MissingParent", func(t *testing.T) {
		_, err := s.CreateFile("nope/new.txt")
		assertCode(t, err, perrors.CodeNotFound)
	})

	t.Run("EmptyName", func(t *testing.T) {
		_, err := s.CreateFile("")
		assertCode(t, err, perrors.CodeInvalidInput)
	})
}

func TestCreateDir(t *testing.T) {
	s, dir := newRealSession(t, Options{})

	_, err := s.CreateDir("docs")
	require.NoError(t, err)
	assert.DirExists(t, filepath.Join(dir, "docs"))

	_, err = s.CreateDir("docs")
	assertCode(t, err, perrors.CodeAlreadyExists)

	_, err = s.CreateDir("a/b")
	assertCode(t, err, perrors.CodeNotFound)

	t.Run("Mode0755", func(t *testing.T) {
		sm, mfs := newMockSession(t, Options{})
		_, err := sm.CreateDir("x")
		require.NoError(t, err)
		info, err := mfs.Stat("/work/x")
		require.NoError(t, err)
		assert.Equal(t, fs.FileMode(0755), info.Mode().Perm())
	})
}

func TestDelete_File(t *testing.T) {
	s, dir := newRealSession(t, Options{})
	writeFile(t, filepath.Join(dir, "gone.txt"), "x", 0644)

	require.NoError(t, s.Delete("gone.txt", nil))
	assert.NoFileExists(t, filepath.Join(dir, "gone.txt"))

	err := s.Delete("gone.txt", nil)
	assertCode(t, err, perrors.CodeNotFound)
}

func TestDelete_EmptyDirNeedsNoConfirmation(t *testing.T) {
	s, dir := newRealSession(t, Options{})
	require.NoError(t, os.Mkdir(filepath.Join(dir, "empty"), 0755))

	asked := false
	c := ConfirmFunc(func(string) (bool, error) { asked = true; return true, nil })
	require.NoError(t, s.Delete("empty", c))
	assert.False(t, asked)
	assert.NoDirExists(t, filepath.Join(dir, "empty"))
}

func TestDelete_NonEmptyDir(t *testing.T) {
	setup := func(t *testing.T) (*Session, string) {
		s, dir := newRealSession(t, Options{})
		writeFile(t, filepath.Join(dir, "tree", "a.txt"), "a", 0644)
		writeFile(t, filepath.Join(dir, "tree", "sub", "b.txt"), "b", 0644)
		require.NoError(t, os.Symlink("/", filepath.Join(dir, "tree", "sub", "root-link")))
		return s, dir
	}

	t.Run("Confirmed", func(t *testing.T) {
		s, dir := setup(t)
		var prompt string
		c := ConfirmFunc(func(p string) (bool, error) { prompt = p; return true, nil })

		require.NoError(t, s.Delete("tree", c))
		assert.Contains(t, prompt, "tree")
		assert.NoDirExists(t, filepath.Join(dir, "tree"))
	})

	t.Run("Declined", func(t *testing.T) {
		s, dir := setup(t)
		c := ConfirmFunc(func(string) (bool, error) { return false, nil })

		err := s.Delete("tree", c)
		assert.ErrorIs(t, err, ErrCancelled)
		assertCode(t, err, CodeCancelled)
		assert.FileExists(t, filepath.Join(dir, "tree", "a.txt"))
		assert.FileExists(t, filepath.Join(dir, "tree", "sub", "b.txt"))
	})

	t.Run("NilConfirmerDeclines", func(t *testing.T) {
		s, dir := setup(t)
		assert.ErrorIs(t, s.Delete("tree", nil), ErrCancelled)
		assert.DirExists(t, filepath.Join(dir, "tree"))
	})

	t.Run("ConfirmerError", func(t *testing.T) {
		s, _ := setup(t)
		c := ConfirmFunc(func(string) (bool, error) { return false, errors.New("stdin closed") })
		assertCode(t, s.Delete("tree", c), perrors.CodeExecutionFailed)
	})
}

func TestDelete_PartialFailure(t *testing.T) {
	s, mfs := newMockSession(t, Options{})
	now := time.Now()
	mfs.AddFile("/work/tree/a.txt", nil, now)
	mfs.AddFile("/work/tree/b/c.txt", nil, now)
	mfs.AddFile("/work/tree/d.txt", nil, now)
	mfs.SimulateRemoveError("/work/tree/b/c.txt", fs.ErrPermission)

	err := s.Delete("tree", AlwaysConfirm)
	assertCode(t, err, CodePartial)
	failed, ok := FailedPath(err)
	require.True(t, ok)
	assert.Equal(t, "/work/tree/b/c.txt", failed)

	// Depth-first in name order: a.txt went first, d.txt was never reached.
	assert.False(t, mfs.Exists("/work/tree/a.txt"))
	assert.True(t, mfs.Exists("/work/tree/d.txt"))
	mfs.AssertRemoveNotCalled(t, "/work/tree/d.txt")
}

func TestDelete_FirstRemovalFails(t *testing.T) {
	s, mfs := newMockSession(t, Options{})
	mfs.AddFile("/work/tree/a.txt", nil, time.Now())
	mfs.SimulateRemoveError("/work/tree/a.txt", fs.ErrPermission)

	err := s.Delete("tree", AlwaysConfirm)
	assertCode(t, err, perrors.CodeForbidden)
	assert.True(t, mfs.Exists("/work/tree"))
}

func TestDelete_WorkingDirectoryIsProtected(t *testing.T) {
	s, mfs := newMockSession(t, Options{})
	mfs.AddFile("/work/keep.txt", nil, time.Now())

	assertCode(t, s.Delete(".", AlwaysConfirm), perrors.CodeInvalidInput)
	assertCode(t, s.Delete("..", AlwaysConfirm), perrors.CodeInvalidInput)
	assert.True(t, mfs.Exists("/work/keep.txt"))
}

func TestPromptConfirmer(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"yes\n", true},
		{"  yes  \n", true},
		{"yes", true},
		{"y\n", false},
		{"YES\n", false},
		{"no\n", false},
		{"\n", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.input), func(t *testing.T) {
			var out bytes.Buffer
			c := &PromptConfirmer{In: strings.NewReader(tt.input), Out: &out}
			got, err := c.Confirm("Continue? ")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, "Continue? ", out.String())
		})
	}
}
