package explorer

import (
	"io/fs"
	"path/filepath"
	"sort"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/stackvity/fexplore/internal/filesystem"
)

// EntryType is the kind of a directory entry as seen without following links.
type EntryType string

const (
	EntryDir     EntryType = "dir"
	EntryFile    EntryType = "file"
	EntrySymlink EntryType = "symlink"
	EntryOther   EntryType = "other"
)

// Entry describes one item in a directory.
type Entry struct {
	Name string
	Path string
	Type EntryType
	// IsDir is true for directories and for symlinks that resolve to one.
	IsDir      bool
	Mode       fs.FileMode
	UID        uint32
	GID        uint32
	Owner      string
	Group      string
	Size       int64
	ModTime    time.Time
	Executable bool
	// LinkTarget is the raw symlink destination; empty for non-links.
	LinkTarget string
	// MIMEType is only populated by Info.
	MIMEType string
}

// SortEntries orders entries directories first, then by name.
func SortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].IsDir != entries[j].IsDir {
			return entries[i].IsDir
		}
		return entries[i].Name < entries[j].Name
	})
}

// List returns the entries of the working directory. Entries whose
// metadata cannot be read are skipped.
func (s *Session) List() ([]Entry, error) {
	des, err := s.fs.ReadDir(s.cwd)
	if err != nil {
		return nil, fsError(err, "cannot open directory", s.cwd)
	}

	entries := make([]Entry, 0, len(des))
	for _, de := range des {
		p := filepath.Join(s.cwd, de.Name())
		e, err := s.entryFor(p)
		if err != nil {
			s.logger.Debug("Skipping entry with unreadable metadata", "path", p, "error", err)
			continue
		}
		entries = append(entries, e)
	}
	SortEntries(entries)
	return entries, nil
}

func (s *Session) entryFor(p string) (Entry, error) {
	info, err := s.fs.Lstat(p)
	if err != nil {
		return Entry{}, err
	}

	e := Entry{
		Name:    filepath.Base(p),
		Path:    p,
		Mode:    info.Mode(),
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}
	if uid, gid, ok := filesystem.Ownership(info); ok {
		e.UID, e.GID = uid, gid
		e.Owner = filesystem.LookupOwner(uid)
		e.Group = filesystem.LookupGroup(gid)
	}

	effective := info
	switch {
	case info.Mode()&fs.ModeSymlink != 0:
		e.Type = EntrySymlink
		if target, err := s.fs.Readlink(p); err == nil {
			e.LinkTarget = target
		}
		// A broken link is listed as a non-directory.
		if ti, err := s.fs.Stat(p); err == nil {
			effective = ti
		}
	case info.IsDir():
		e.Type = EntryDir
	case info.Mode().IsRegular():
		e.Type = EntryFile
	default:
		e.Type = EntryOther
	}

	e.IsDir = effective.IsDir()
	e.Executable = !e.IsDir && effective.Mode().Perm()&0100 != 0
	return e, nil
}

// Lookup describes a single item without reading its contents.
func (s *Session) Lookup(name string) (Entry, error) {
	if err := requireName(name, "name"); err != nil {
		return Entry{}, err
	}
	p := s.resolve(name)
	e, err := s.entryFor(p)
	if err != nil {
		return Entry{}, fsError(err, "cannot read item", p)
	}
	return e, nil
}

// Info describes a single item. Regular files also get a sniffed MIME type.
func (s *Session) Info(name string) (Entry, error) {
	e, err := s.Lookup(name)
	if err != nil {
		return Entry{}, err
	}

	p := e.Path
	if e.Type == EntryFile || (e.Type == EntrySymlink && !e.IsDir) {
		f, err := s.fs.Open(p)
		if err != nil {
			s.logger.Debug("Cannot open file for type detection", "path", p, "error", err)
			return e, nil
		}
		defer f.Close()
		if mt, err := mimetype.DetectReader(f); err == nil {
			e.MIMEType = mt.String()
		}
	}
	return e, nil
}
