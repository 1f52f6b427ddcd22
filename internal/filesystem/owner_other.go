//go:build !unix

package filesystem

import (
	"io/fs"
	"strconv"
)

// Ownership is not available on this platform.
func Ownership(info fs.FileInfo) (uid, gid uint32, ok bool) {
	return 0, 0, false
}

func LookupOwner(uid uint32) string {
	return strconv.FormatUint(uint64(uid), 10)
}

func LookupGroup(gid uint32) string {
	return strconv.FormatUint(uint64(gid), 10)
}
