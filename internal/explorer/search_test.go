package explorer

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	perrors "github.com/jmgilman/go/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearch_SubstringPreOrder(t *testing.T) {
	s, mfs := newMockSession(t, Options{})
	now := time.Now()
	mfs.AddFile("/work/report.txt", nil, now)
	mfs.AddFile("/work/b/report-2.txt", nil, now)
	mfs.AddFile("/work/a/Report.txt", nil, now)
	mfs.AddFile("/work/a/deep/old-report", nil, now)
	mfs.AddDir("/work/reports", now)
	mfs.AddFile("/work/reports/x.txt", nil, now)

	res, err := s.Search("report", "", MatchSubstring)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"/work/a/deep/old-report",
		"/work/b/report-2.txt",
		"/work/report.txt",
		"/work/reports",
	}, res.Matches)
	assert.Equal(t, 4, res.Count())
	assert.Equal(t, "/work", res.Base)
}

func TestSearch_NoMatches(t *testing.T) {
	s, mfs := newMockSession(t, Options{})
	mfs.AddFile("/work/a.txt", nil, time.Now())

	res, err := s.Search("zzz", "", MatchSubstring)
	require.NoError(t, err)
	assert.Empty(t, res.Matches)
	assert.Zero(t, res.Count())
}

func TestSearch_Base(t *testing.T) {
	s, mfs := newMockSession(t, Options{})
	now := time.Now()
	mfs.AddFile("/work/x.go", nil, now)
	mfs.AddFile("/work/pkg/y.go", nil, now)

	res, err := s.Search(".go", "pkg", MatchSubstring)
	require.NoError(t, err)
	assert.Equal(t, []string{"/work/pkg/y.go"}, res.Matches)

	_, err = s.Search(".go", "missing", MatchSubstring)
	assertCode(t, err, perrors.CodeNotFound)

	_, err = s.Search(".go", "x.go", MatchSubstring)
	assertCode(t, err, perrors.CodeInvalidInput)

	_, err = s.Search("", "", MatchSubstring)
	assertCode(t, err, perrors.CodeInvalidInput)
}

func TestSearch_SkipsUnreadableDirectories(t *testing.T) {
	s, mfs := newMockSession(t, Options{})
	now := time.Now()
	mfs.AddFile("/work/locked/match.txt", nil, now)
	mfs.AddFile("/work/open/match.txt", nil, now)
	mfs.SimulateReadError("/work/locked", fs.ErrPermission)

	res, err := s.Search("match", "", MatchSubstring)
	require.NoError(t, err)
	assert.Equal(t, []string{"/work/open/match.txt"}, res.Matches)
}

func TestSearch_UnreadableBaseFails(t *testing.T) {
	s, mfs := newMockSession(t, Options{})
	mfs.AddFile("/work/match.txt", nil, time.Now())
	mfs.SimulateReadError("/work", fs.ErrPermission)

	res, err := s.Search("match", "", MatchSubstring)
	assertCode(t, err, perrors.CodeForbidden)
	assert.Empty(t, res.Matches)
	assert.Contains(t, err.Error(), "cannot read search base")
}

func TestSearch_Glob(t *testing.T) {
	s, mfs := newMockSession(t, Options{})
	now := time.Now()
	mfs.AddFile("/work/main.go", nil, now)
	mfs.AddFile("/work/internal/x/x.go", nil, now)
	mfs.AddFile("/work/internal/x/x_test.go", nil, now)
	mfs.AddFile("/work/README.md", nil, now)

	res, err := s.Search("*.go", "", MatchGlob)
	require.NoError(t, err)
	assert.Equal(t, []string{"/work/internal/x/x.go", "/work/internal/x/x_test.go", "/work/main.go"}, res.Matches)

	res, err = s.Search("internal/**/*_test.go", "", MatchGlob)
	require.NoError(t, err)
	assert.Equal(t, []string{"/work/internal/x/x_test.go"}, res.Matches)

	_, err = s.Search("[", "", MatchGlob)
	assertCode(t, err, perrors.CodeInvalidInput)
}

func TestSearch_Symlinks(t *testing.T) {
	s, dir := newRealSession(t, Options{})
	writeFile(t, filepath.Join(dir, "data", "needle.txt"), "", 0644)
	require.NoError(t, os.Symlink("data", filepath.Join(dir, "alias")))
	// Loop back to the search root.
	require.NoError(t, os.Symlink("..", filepath.Join(dir, "data", "up")))

	t.Run("NotFollowed", func(t *testing.T) {
		res, err := s.Search("needle", "", MatchSubstring)
		require.NoError(t, err)
		assert.Equal(t, []string{filepath.Join(dir, "data", "needle.txt")}, res.Matches)
	})

	t.Run("FollowedOnce", func(t *testing.T) {
		sf, err := NewSession(s.fs, nil, dir, Options{FollowSymlinks: true})
		require.NoError(t, err)
		res, err := sf.Search("needle", "", MatchSubstring)
		require.NoError(t, err)
		// alias resolves to data, which is entered through alias first;
		// the real data directory and the up loop are then skipped.
		assert.Equal(t, []string{filepath.Join(dir, "alias", "needle.txt")}, res.Matches)
	})
}
