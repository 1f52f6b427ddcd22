package filesystem

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockFileSystem implements the FileSystem interface for testing purposes.
// It keeps an in-memory tree and uses testify/mock so tests can override
// individual calls with .On(...). Calls without a registered expectation
// fall through to the in-memory behaviour.
type MockFileSystem struct {
	mock.Mock
	mu    sync.RWMutex
	cwd   string
	nodes map[string]*mockNode

	statErrorPaths   map[string]error
	readErrorPaths   map[string]error
	writeErrorPaths  map[string]error
	renameErrorPaths map[string]error // keyed by oldpath
	removeErrorPaths map[string]error
	mkdirErrorPaths  map[string]error
	chmodErrorPaths  map[string]error
	walkError        error

	writeCalls  map[string]int
	removeCalls map[string]int
	renameCalls map[string]int
	mkdirCalls  map[string]int
}

type mockNode struct {
	mode    fs.FileMode
	content []byte
	target  string // symlink destination
	modTime time.Time
}

// NewMockFileSystem creates an empty mock filesystem containing only "/".
func NewMockFileSystem() *MockFileSystem {
	return &MockFileSystem{
		cwd: string(filepath.Separator),
		nodes: map[string]*mockNode{
			string(filepath.Separator): {mode: fs.ModeDir | 0755, modTime: time.Now()},
		},
		statErrorPaths:   make(map[string]error),
		readErrorPaths:   make(map[string]error),
		writeErrorPaths:  make(map[string]error),
		renameErrorPaths: make(map[string]error),
		removeErrorPaths: make(map[string]error),
		mkdirErrorPaths:  make(map[string]error),
		chmodErrorPaths:  make(map[string]error),
		writeCalls:       make(map[string]int),
		removeCalls:      make(map[string]int),
		renameCalls:      make(map[string]int),
		mkdirCalls:       make(map[string]int),
	}
}

// --- mockFileInfo / mockDirEntry ---

type mockFileInfo struct {
	name    string
	size    int64
	mode    fs.FileMode
	modTime time.Time
}

func (mfi *mockFileInfo) Name() string       { return mfi.name }
func (mfi *mockFileInfo) Size() int64        { return mfi.size }
func (mfi *mockFileInfo) Mode() fs.FileMode  { return mfi.mode }
func (mfi *mockFileInfo) ModTime() time.Time { return mfi.modTime }
func (mfi *mockFileInfo) IsDir() bool        { return mfi.mode.IsDir() }
func (mfi *mockFileInfo) Sys() interface{}   { return nil }

type mockDirEntry struct {
	fs.FileInfo
}

func (m *mockDirEntry) Type() fs.FileMode          { return m.Mode().Type() }
func (m *mockDirEntry) Info() (fs.FileInfo, error) { return m.FileInfo, nil }

func infoFor(path string, n *mockNode) fs.FileInfo {
	return &mockFileInfo{
		name:    filepath.Base(path),
		size:    int64(len(n.content)),
		mode:    n.mode,
		modTime: n.modTime,
	}
}

// --- Helper methods for setting up the mock state ---

func abs(path string) string {
	p, _ := filepath.Abs(path)
	return p
}

func pathErr(op, path string, err error) error {
	return &fs.PathError{Op: op, Path: path, Err: err}
}

// AddFile adds a regular file with mode 0644, creating missing parents.
func (mfs *MockFileSystem) AddFile(path string, content []byte, modTime time.Time) {
	mfs.AddFileMode(path, content, 0644, modTime)
}

// AddFileMode adds a regular file with the given permission bits.
func (mfs *MockFileSystem) AddFileMode(path string, content []byte, perm fs.FileMode, modTime time.Time) {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()
	p := abs(path)
	mfs.ensureParentsLocked(p)
	mfs.nodes[p] = &mockNode{mode: perm.Perm(), content: append([]byte(nil), content...), modTime: modTime}
}

// AddDir adds a directory entry, creating missing parents.
func (mfs *MockFileSystem) AddDir(path string, modTime time.Time) {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()
	p := abs(path)
	mfs.ensureParentsLocked(p)
	if _, exists := mfs.nodes[p]; !exists {
		mfs.nodes[p] = &mockNode{mode: fs.ModeDir | 0755, modTime: modTime}
	}
}

// AddSymlink adds a symbolic link at path pointing to target.
func (mfs *MockFileSystem) AddSymlink(path, target string) {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()
	p := abs(path)
	mfs.ensureParentsLocked(p)
	mfs.nodes[p] = &mockNode{mode: fs.ModeSymlink | 0777, target: target, modTime: time.Now()}
}

// SetCwd sets the directory reported by Getwd.
func (mfs *MockFileSystem) SetCwd(dir string) {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()
	mfs.cwd = abs(dir)
}

// Content returns the bytes stored for a regular file.
func (mfs *MockFileSystem) Content(path string) ([]byte, bool) {
	mfs.mu.RLock()
	defer mfs.mu.RUnlock()
	n, ok := mfs.nodes[abs(path)]
	if !ok || !n.mode.IsRegular() {
		return nil, false
	}
	return n.content, true
}

// Exists reports whether anything is stored at path.
func (mfs *MockFileSystem) Exists(path string) bool {
	mfs.mu.RLock()
	defer mfs.mu.RUnlock()
	_, ok := mfs.nodes[abs(path)]
	return ok
}

func (mfs *MockFileSystem) ensureParentsLocked(p string) {
	for dir := filepath.Dir(p); ; dir = filepath.Dir(dir) {
		if _, ok := mfs.nodes[dir]; !ok {
			mfs.nodes[dir] = &mockNode{mode: fs.ModeDir | 0755, modTime: time.Now()}
		}
		if dir == filepath.Dir(dir) {
			return
		}
	}
}

// SetWalkError sets a global error to be returned by WalkDir.
func (mfs *MockFileSystem) SetWalkError(err error) {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()
	mfs.walkError = err
}

// --- Helper methods for simulating errors ---

func (mfs *MockFileSystem) simulate(m map[string]error, path string, err error) {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()
	m[abs(path)] = err
}

func (mfs *MockFileSystem) SimulateStatError(path string, err error) {
	mfs.simulate(mfs.statErrorPaths, path, err)
}
func (mfs *MockFileSystem) SimulateReadError(path string, err error) {
	mfs.simulate(mfs.readErrorPaths, path, err)
}
func (mfs *MockFileSystem) SimulateWriteError(path string, err error) {
	mfs.simulate(mfs.writeErrorPaths, path, err)
}
func (mfs *MockFileSystem) SimulateRenameError(path string, err error) {
	mfs.simulate(mfs.renameErrorPaths, path, err)
}
func (mfs *MockFileSystem) SimulateRemoveError(path string, err error) {
	mfs.simulate(mfs.removeErrorPaths, path, err)
}
func (mfs *MockFileSystem) SimulateMkdirError(path string, err error) {
	mfs.simulate(mfs.mkdirErrorPaths, path, err)
}
func (mfs *MockFileSystem) SimulateChmodError(path string, err error) {
	mfs.simulate(mfs.chmodErrorPaths, path, err)
}

// --- Assert helpers ---

func (mfs *MockFileSystem) AssertWriteCalled(t *testing.T, path string) {
	t.Helper()
	mfs.mu.RLock()
	defer mfs.mu.RUnlock()
	assert.Greater(t, mfs.writeCalls[abs(path)], 0, "write was not called for %s", path)
}

func (mfs *MockFileSystem) AssertWriteNotCalled(t *testing.T, path string) {
	t.Helper()
	mfs.mu.RLock()
	defer mfs.mu.RUnlock()
	assert.Equal(t, 0, mfs.writeCalls[abs(path)], "write should not have been called for %s", path)
}

func (mfs *MockFileSystem) AssertRemoveCalled(t *testing.T, path string) {
	t.Helper()
	mfs.mu.RLock()
	defer mfs.mu.RUnlock()
	assert.Greater(t, mfs.removeCalls[abs(path)], 0, "Remove was not called for %s", path)
}

func (mfs *MockFileSystem) AssertRemoveNotCalled(t *testing.T, path string) {
	t.Helper()
	mfs.mu.RLock()
	defer mfs.mu.RUnlock()
	assert.Equal(t, 0, mfs.removeCalls[abs(path)], "Remove should not have been called for %s", path)
}

func (mfs *MockFileSystem) AssertRenameCalled(t *testing.T, oldpath string) {
	t.Helper()
	mfs.mu.RLock()
	defer mfs.mu.RUnlock()
	assert.Greater(t, mfs.renameCalls[abs(oldpath)], 0, "Rename was not called for %s", oldpath)
}

func (mfs *MockFileSystem) AssertMkdirNotCalled(t *testing.T, path string) {
	t.Helper()
	mfs.mu.RLock()
	defer mfs.mu.RUnlock()
	assert.Equal(t, 0, mfs.mkdirCalls[abs(path)], "Mkdir should not have been called for %s", path)
}

// record reports the call to testify when the test registered a matching
// expectation, returning the error it was told to return.
func (mfs *MockFileSystem) record(method string, arguments ...interface{}) error {
	for _, c := range mfs.ExpectedCalls {
		if c.Method != method {
			continue
		}
		if _, diffs := c.Arguments.Diff(arguments); diffs > 0 {
			continue
		}
		args := mfs.MethodCalled(method, arguments...)
		if len(args) == 0 {
			return nil
		}
		return args.Error(len(args) - 1)
	}
	return nil
}

// --- Implement FileSystem interface methods ---

func (mfs *MockFileSystem) Getwd() (string, error) {
	if err := mfs.record("Getwd"); err != nil {
		return "", err
	}
	mfs.mu.RLock()
	defer mfs.mu.RUnlock()
	return mfs.cwd, nil
}

func (mfs *MockFileSystem) Chdir(dir string) error {
	if err := mfs.record("Chdir", dir); err != nil {
		return err
	}
	mfs.mu.Lock()
	defer mfs.mu.Unlock()
	p := abs(dir)
	n, err := mfs.resolveLocked(p, 0)
	if err != nil {
		return pathErr("chdir", dir, err)
	}
	if !n.mode.IsDir() {
		return pathErr("chdir", dir, syscall.ENOTDIR)
	}
	mfs.cwd = p
	return nil
}

// resolveLocked follows symlinks at p.
func (mfs *MockFileSystem) resolveLocked(p string, depth int) (*mockNode, error) {
	n, ok := mfs.nodes[p]
	if !ok {
		return nil, fs.ErrNotExist
	}
	if n.mode&fs.ModeSymlink == 0 {
		return n, nil
	}
	if depth > 40 {
		return nil, syscall.ELOOP
	}
	target := n.target
	if !filepath.IsAbs(target) {
		target = filepath.Join(filepath.Dir(p), target)
	}
	return mfs.resolveLocked(filepath.Clean(target), depth+1)
}

// Stat returns info for the node at name, following symlinks.
func (mfs *MockFileSystem) Stat(name string) (fs.FileInfo, error) {
	if err := mfs.record("Stat", name); err != nil {
		return nil, err
	}
	mfs.mu.RLock()
	defer mfs.mu.RUnlock()
	p := abs(name)
	if err, ok := mfs.statErrorPaths[p]; ok {
		return nil, pathErr("stat", name, err)
	}
	n, err := mfs.resolveLocked(p, 0)
	if err != nil {
		return nil, pathErr("stat", name, err)
	}
	return infoFor(p, n), nil
}

// Lstat returns info for the node at name without following symlinks.
func (mfs *MockFileSystem) Lstat(name string) (fs.FileInfo, error) {
	if err := mfs.record("Lstat", name); err != nil {
		return nil, err
	}
	mfs.mu.RLock()
	defer mfs.mu.RUnlock()
	p := abs(name)
	if err, ok := mfs.statErrorPaths[p]; ok {
		return nil, pathErr("lstat", name, err)
	}
	n, ok := mfs.nodes[p]
	if !ok {
		return nil, pathErr("lstat", name, fs.ErrNotExist)
	}
	return infoFor(p, n), nil
}

func (mfs *MockFileSystem) childrenLocked(dir string) []string {
	var children []string
	for p := range mfs.nodes {
		if p != dir && filepath.Dir(p) == dir {
			children = append(children, p)
		}
	}
	sort.Strings(children)
	return children
}

// ReadDir lists the children of name in lexical order.
func (mfs *MockFileSystem) ReadDir(name string) ([]fs.DirEntry, error) {
	if err := mfs.record("ReadDir", name); err != nil {
		return nil, err
	}
	mfs.mu.RLock()
	defer mfs.mu.RUnlock()
	p := abs(name)
	if err, ok := mfs.readErrorPaths[p]; ok {
		return nil, pathErr("open", name, err)
	}
	n, err := mfs.resolveLocked(p, 0)
	if err != nil {
		return nil, pathErr("open", name, err)
	}
	if !n.mode.IsDir() {
		return nil, pathErr("readdirent", name, syscall.ENOTDIR)
	}
	// Children are keyed under the real directory, not the link.
	if real, ok := mfs.nodes[p]; ok && real.mode&fs.ModeSymlink != 0 {
		p = mfs.realPathLocked(p)
	}
	var entries []fs.DirEntry
	for _, c := range mfs.childrenLocked(p) {
		entries = append(entries, &mockDirEntry{infoFor(c, mfs.nodes[c])})
	}
	return entries, nil
}

func (mfs *MockFileSystem) realPathLocked(p string) string {
	for i := 0; i < 40; i++ {
		n, ok := mfs.nodes[p]
		if !ok || n.mode&fs.ModeSymlink == 0 {
			return p
		}
		target := n.target
		if !filepath.IsAbs(target) {
			target = filepath.Join(filepath.Dir(p), target)
		}
		p = filepath.Clean(target)
	}
	return p
}

func (mfs *MockFileSystem) Readlink(name string) (string, error) {
	if err := mfs.record("Readlink", name); err != nil {
		return "", err
	}
	mfs.mu.RLock()
	defer mfs.mu.RUnlock()
	n, ok := mfs.nodes[abs(name)]
	if !ok {
		return "", pathErr("readlink", name, fs.ErrNotExist)
	}
	if n.mode&fs.ModeSymlink == 0 {
		return "", pathErr("readlink", name, syscall.EINVAL)
	}
	return n.target, nil
}

func (mfs *MockFileSystem) Symlink(oldname, newname string) error {
	if err := mfs.record("Symlink", oldname, newname); err != nil {
		return err
	}
	mfs.mu.Lock()
	defer mfs.mu.Unlock()
	p := abs(newname)
	if err, ok := mfs.writeErrorPaths[p]; ok {
		return &os.LinkError{Op: "symlink", Old: oldname, New: newname, Err: err}
	}
	if _, exists := mfs.nodes[p]; exists {
		return &os.LinkError{Op: "symlink", Old: oldname, New: newname, Err: fs.ErrExist}
	}
	if parent, ok := mfs.nodes[filepath.Dir(p)]; !ok || !parent.mode.IsDir() {
		return &os.LinkError{Op: "symlink", Old: oldname, New: newname, Err: fs.ErrNotExist}
	}
	mfs.writeCalls[p]++
	mfs.nodes[p] = &mockNode{mode: fs.ModeSymlink | 0777, target: oldname, modTime: time.Now()}
	return nil
}

// mockFile is the handle returned by Open and OpenFile.
type mockFile struct {
	mfs      *MockFileSystem
	path     string
	reader   *bytes.Reader
	buf      *bytes.Buffer
	writable bool
	closed   bool
}

func (f *mockFile) Read(p []byte) (int, error) {
	if f.reader == nil {
		return 0, pathErr("read", f.path, fs.ErrPermission)
	}
	return f.reader.Read(p)
}

func (f *mockFile) Write(p []byte) (int, error) {
	if !f.writable {
		return 0, pathErr("write", f.path, fs.ErrPermission)
	}
	return f.buf.Write(p)
}

func (f *mockFile) Close() error {
	if f.closed {
		return fs.ErrClosed
	}
	f.closed = true
	if !f.writable {
		return nil
	}
	f.mfs.mu.Lock()
	defer f.mfs.mu.Unlock()
	if n, ok := f.mfs.nodes[f.path]; ok {
		n.content = append([]byte(nil), f.buf.Bytes()...)
		n.modTime = time.Now()
	}
	return nil
}

func (f *mockFile) Stat() (fs.FileInfo, error) {
	f.mfs.mu.RLock()
	defer f.mfs.mu.RUnlock()
	n, ok := f.mfs.nodes[f.path]
	if !ok {
		return nil, pathErr("stat", f.path, fs.ErrNotExist)
	}
	return infoFor(f.path, n), nil
}

// Open opens a regular file for reading.
func (mfs *MockFileSystem) Open(name string) (File, error) {
	return mfs.OpenFile(name, os.O_RDONLY, 0)
}

// OpenFile honours O_CREATE, O_EXCL, O_TRUNC and the access mode.
func (mfs *MockFileSystem) OpenFile(name string, flag int, perm fs.FileMode) (File, error) {
	if err := mfs.record("OpenFile", name, flag, perm); err != nil {
		return nil, err
	}
	mfs.mu.Lock()
	defer mfs.mu.Unlock()
	p := abs(name)
	writable := flag&(os.O_WRONLY|os.O_RDWR) != 0

	if err, ok := mfs.readErrorPaths[p]; ok && !writable {
		return nil, pathErr("open", name, err)
	}
	if writable {
		mfs.writeCalls[p]++
		if err, ok := mfs.writeErrorPaths[p]; ok {
			return nil, pathErr("open", name, err)
		}
	}

	n, exists := mfs.nodes[p]
	if exists && n.mode&fs.ModeSymlink != 0 {
		p = mfs.realPathLocked(p)
		n, exists = mfs.nodes[p]
	}
	switch {
	case exists && flag&os.O_CREATE != 0 && flag&os.O_EXCL != 0:
		return nil, pathErr("open", name, fs.ErrExist)
	case exists && n.mode.IsDir() && writable:
		return nil, pathErr("open", name, syscall.EISDIR)
	case !exists && flag&os.O_CREATE == 0:
		return nil, pathErr("open", name, fs.ErrNotExist)
	case !exists:
		parent, ok := mfs.nodes[filepath.Dir(p)]
		if !ok || !parent.mode.IsDir() {
			return nil, pathErr("open", name, fs.ErrNotExist)
		}
		n = &mockNode{mode: perm.Perm(), modTime: time.Now()}
		mfs.nodes[p] = n
	}

	f := &mockFile{mfs: mfs, path: p, writable: writable, buf: &bytes.Buffer{}}
	if writable {
		if flag&os.O_TRUNC == 0 {
			f.buf.Write(n.content)
		}
		if flag&os.O_RDWR != 0 {
			f.reader = bytes.NewReader(n.content)
		}
	} else {
		f.reader = bytes.NewReader(n.content)
	}
	return f, nil
}

// ReadFile returns the stored content of a regular file.
func (mfs *MockFileSystem) ReadFile(name string) ([]byte, error) {
	f, err := mfs.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// Mkdir creates a single directory; the parent must exist.
func (mfs *MockFileSystem) Mkdir(name string, perm fs.FileMode) error {
	if err := mfs.record("Mkdir", name, perm); err != nil {
		return err
	}
	mfs.mu.Lock()
	defer mfs.mu.Unlock()
	p := abs(name)
	mfs.mkdirCalls[p]++
	if err, ok := mfs.mkdirErrorPaths[p]; ok {
		return pathErr("mkdir", name, err)
	}
	if _, exists := mfs.nodes[p]; exists {
		return pathErr("mkdir", name, fs.ErrExist)
	}
	parent, err := mfs.resolveLocked(filepath.Dir(p), 0)
	if err != nil {
		return pathErr("mkdir", name, fs.ErrNotExist)
	}
	if !parent.mode.IsDir() {
		return pathErr("mkdir", name, syscall.ENOTDIR)
	}
	mfs.nodes[p] = &mockNode{mode: fs.ModeDir | perm.Perm(), modTime: time.Now()}
	return nil
}

// Chmod replaces the permission bits, keeping the type bits.
func (mfs *MockFileSystem) Chmod(name string, mode fs.FileMode) error {
	if err := mfs.record("Chmod", name, mode); err != nil {
		return err
	}
	mfs.mu.Lock()
	defer mfs.mu.Unlock()
	p := abs(name)
	if err, ok := mfs.chmodErrorPaths[p]; ok {
		return pathErr("chmod", name, err)
	}
	n, ok := mfs.nodes[p]
	if !ok {
		return pathErr("chmod", name, fs.ErrNotExist)
	}
	n.mode = n.mode.Type() | mode.Perm()
	return nil
}

// WalkDir walks the in-memory tree in lexical order like filepath.WalkDir.
func (mfs *MockFileSystem) WalkDir(root string, fn fs.WalkDirFunc) error {
	if err := mfs.record("WalkDir", root); err != nil {
		return err
	}
	mfs.mu.RLock()
	walkErr := mfs.walkError
	mfs.mu.RUnlock()
	if walkErr != nil {
		return walkErr
	}

	info, err := mfs.Lstat(root)
	if err != nil {
		err = fn(root, nil, err)
	} else {
		err = mfs.walk(root, &mockDirEntry{info}, fn)
	}
	if errors.Is(err, fs.SkipDir) || errors.Is(err, fs.SkipAll) {
		return nil
	}
	return err
}

func (mfs *MockFileSystem) walk(path string, d fs.DirEntry, fn fs.WalkDirFunc) error {
	if err := fn(path, d, nil); err != nil || !d.IsDir() {
		if errors.Is(err, fs.SkipDir) && d.IsDir() {
			return nil
		}
		return err
	}

	entries, err := mfs.ReadDir(path)
	if err != nil {
		if err = fn(path, d, err); err != nil {
			if errors.Is(err, fs.SkipDir) {
				return nil
			}
			return err
		}
	}
	for _, e := range entries {
		if err := mfs.walk(filepath.Join(path, e.Name()), e, fn); err != nil {
			if errors.Is(err, fs.SkipDir) {
				break
			}
			return err
		}
	}
	return nil
}

// Remove removes a file, symlink or empty directory.
func (mfs *MockFileSystem) Remove(name string) error {
	if err := mfs.record("Remove", name); err != nil {
		return err
	}
	mfs.mu.Lock()
	defer mfs.mu.Unlock()
	p := abs(name)
	mfs.removeCalls[p]++
	if err, ok := mfs.removeErrorPaths[p]; ok {
		return pathErr("remove", name, err)
	}
	n, ok := mfs.nodes[p]
	if !ok {
		return pathErr("remove", name, fs.ErrNotExist)
	}
	if n.mode.IsDir() && len(mfs.childrenLocked(p)) > 0 {
		return pathErr("remove", name, syscall.ENOTEMPTY)
	}
	delete(mfs.nodes, p)
	return nil
}

// Rename moves a node and, for directories, its whole subtree.
func (mfs *MockFileSystem) Rename(oldpath, newpath string) error {
	if err := mfs.record("Rename", oldpath, newpath); err != nil {
		return err
	}
	mfs.mu.Lock()
	defer mfs.mu.Unlock()
	oldP, newP := abs(oldpath), abs(newpath)
	mfs.renameCalls[oldP]++

	linkErr := func(err error) error {
		return &os.LinkError{Op: "rename", Old: oldpath, New: newpath, Err: err}
	}
	if err, ok := mfs.renameErrorPaths[oldP]; ok {
		return linkErr(err)
	}
	n, ok := mfs.nodes[oldP]
	if !ok {
		return linkErr(fs.ErrNotExist)
	}
	if parent, ok := mfs.nodes[filepath.Dir(newP)]; !ok || !parent.mode.IsDir() {
		return linkErr(fs.ErrNotExist)
	}
	if n.mode.IsDir() && strings.HasPrefix(newP+string(filepath.Separator), oldP+string(filepath.Separator)) && newP != oldP {
		return linkErr(syscall.EINVAL)
	}
	if existing, ok := mfs.nodes[newP]; ok && newP != oldP {
		if existing.mode.IsDir() {
			if !n.mode.IsDir() {
				return linkErr(syscall.EISDIR)
			}
			if len(mfs.childrenLocked(newP)) > 0 {
				return linkErr(syscall.ENOTEMPTY)
			}
		} else if n.mode.IsDir() {
			return linkErr(syscall.ENOTDIR)
		}
	}

	prefix := oldP + string(filepath.Separator)
	moved := make(map[string]*mockNode)
	for p, node := range mfs.nodes {
		if p == oldP {
			moved[newP] = node
			delete(mfs.nodes, p)
		} else if strings.HasPrefix(p, prefix) {
			moved[newP+string(filepath.Separator)+strings.TrimPrefix(p, prefix)] = node
			delete(mfs.nodes, p)
		}
	}
	for p, node := range moved {
		mfs.nodes[p] = node
	}
	return nil
}
