//go:build !windows

package hardlink

import (
	"fmt"
	"io/fs"
	"syscall"
)

// LinkInfo returns the FileID and on-disk link count for an lstat'ed entry.
// The raw stat struct is used when the FileInfo carries one, otherwise the
// path is lstat'ed again.
func LinkInfo(fi fs.FileInfo, path string) (FileID, uint64, error) {
	if fi != nil {
		if stat, ok := fi.Sys().(*syscall.Stat_t); ok {
			return fromStat(stat), uint64(stat.Nlink), nil
		}
	}

	var stat syscall.Stat_t
	if err := syscall.Lstat(path, &stat); err != nil {
		return FileID{}, 0, fmt.Errorf("lstat file: %w", err)
	}

	return fromStat(&stat), uint64(stat.Nlink), nil
}

func fromStat(stat *syscall.Stat_t) FileID {
	return FileID{
		Device: uint64(stat.Dev), //nolint:gosec // device ids are non-negative
		Inode:  uint64(stat.Ino),
	}
}
