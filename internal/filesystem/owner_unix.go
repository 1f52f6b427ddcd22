//go:build unix

package filesystem

import (
	"io/fs"
	"os/user"
	"strconv"
	"syscall"
)

// Ownership extracts the numeric owner and group of a FileInfo produced by
// the os package. ok is false for infos without a syscall.Stat_t payload
// (for example those produced by MockFileSystem).
func Ownership(info fs.FileInfo) (uid, gid uint32, ok bool) {
	st, isStat := info.Sys().(*syscall.Stat_t)
	if !isStat || st == nil {
		return 0, 0, false
	}
	return st.Uid, st.Gid, true
}

// LookupOwner resolves a uid to a user name, falling back to the number.
func LookupOwner(uid uint32) string {
	id := strconv.FormatUint(uint64(uid), 10)
	if u, err := user.LookupId(id); err == nil {
		return u.Username
	}
	return id
}

// LookupGroup resolves a gid to a group name, falling back to the number.
func LookupGroup(gid uint32) string {
	id := strconv.FormatUint(uint64(gid), 10)
	if g, err := user.LookupGroupId(id); err == nil {
		return g.Name
	}
	return id
}
