package explorer

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	perrors "github.com/jmgilman/go/errors"
)

// MatchMode selects how Search compares names.
type MatchMode int

const (
	// MatchSubstring matches names containing the term, case-sensitively.
	MatchSubstring MatchMode = iota
	// MatchGlob matches the term as a doublestar pattern against the entry
	// name or its path relative to the search base.
	MatchGlob
)

func (m MatchMode) String() string {
	if m == MatchGlob {
		return "glob"
	}
	return "substring"
}

// SearchResult holds the matches of one search in traversal order.
type SearchResult struct {
	Term    string
	Base    string
	Mode    MatchMode
	Matches []string
}

// Count returns the number of matches.
func (r SearchResult) Count() int {
	return len(r.Matches)
}

type searcher struct {
	s       *Session
	base    string
	term    string
	mode    MatchMode
	visited []fs.FileInfo
	result  *SearchResult
}

// Search walks base (the working directory when empty) and collects every
// entry whose name matches term. Directories are visited in pre-order with
// children in name order. Unreadable directories below base are skipped,
// an unreadable base is an error. Symlinked
// directories are only entered when FollowSymlinks is set, and each
// directory is entered at most once.
func (s *Session) Search(term, base string, mode MatchMode) (SearchResult, error) {
	if term == "" {
		return SearchResult{}, perrors.New(perrors.CodeInvalidInput, "search term must not be empty")
	}
	root := s.cwd
	if base != "" {
		root = s.resolve(base)
	}
	if mode == MatchGlob && !doublestar.ValidatePattern(term) {
		return SearchResult{}, perrors.WithContext(perrors.New(perrors.CodeInvalidInput, "invalid glob pattern"), "pattern", term)
	}

	info, err := s.fs.Stat(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return SearchResult{}, perrors.WithContext(perrors.Wrap(err, perrors.CodeNotFound, "search base does not exist"), "path", root)
		}
		return SearchResult{}, fsError(err, "cannot open search base", root)
	}
	if !info.IsDir() {
		return SearchResult{}, perrors.WithContext(perrors.New(perrors.CodeInvalidInput, "search base is not a directory"), "path", root)
	}

	result := SearchResult{Term: term, Base: root, Mode: mode}
	w := &searcher{s: s, base: root, term: term, mode: mode, result: &result, visited: []fs.FileInfo{info}}
	if err := w.walk(root); err != nil {
		return SearchResult{}, fsError(err, "cannot read search base", root)
	}

	s.logger.Debug("Search finished", "term", term, "base", root, "matches", result.Count())
	return result, nil
}

func (w *searcher) walk(dir string) error {
	entries, err := w.s.fs.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		p := filepath.Join(dir, e.Name())
		if w.match(e.Name(), p) {
			w.result.Matches = append(w.result.Matches, p)
		}
		if !w.shouldDescend(p, e) {
			continue
		}
		if err := w.walk(p); err != nil {
			w.s.logger.Warn("Skipping unreadable directory", "path", p, "error", err)
		}
	}
	return nil
}

func (w *searcher) shouldDescend(p string, e fs.DirEntry) bool {
	isLink := e.Type()&fs.ModeSymlink != 0
	if !e.IsDir() && !isLink {
		return false
	}
	if isLink && !w.s.opts.FollowSymlinks {
		return false
	}
	if !w.s.opts.FollowSymlinks {
		return true
	}

	info, err := w.s.fs.Stat(p)
	if err != nil || !info.IsDir() {
		return false
	}
	for _, seen := range w.visited {
		if os.SameFile(seen, info) {
			w.s.logger.Debug("Skipping already visited directory", "path", p)
			return false
		}
	}
	w.visited = append(w.visited, info)
	return true
}

func (w *searcher) match(name, p string) bool {
	if w.mode == MatchSubstring {
		return strings.Contains(name, w.term)
	}
	if ok, _ := doublestar.Match(w.term, name); ok {
		return true
	}
	rel, err := filepath.Rel(w.base, p)
	if err != nil {
		return false
	}
	ok, _ := doublestar.Match(w.term, filepath.ToSlash(rel))
	return ok
}
