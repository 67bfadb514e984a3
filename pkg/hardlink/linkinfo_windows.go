//go:build windows

package hardlink

import (
	"fmt"
	"io/fs"
	"syscall"
)

// LinkInfo returns the FileID and link count for a file on Windows.
// Device is the volume serial number and Inode is (FileIndexHigh << 32) | FileIndexLow.
func LinkInfo(_ fs.FileInfo, path string) (FileID, uint64, error) {
	pathp, err := syscall.UTF16PtrFromString(path)
	if err != nil {
		return FileID{}, 0, fmt.Errorf("convert path to UTF16: %w", err)
	}

	// never follow reparse points, symlinks are not indexed
	attrs := uint32(syscall.FILE_FLAG_BACKUP_SEMANTICS | syscall.FILE_FLAG_OPEN_REPARSE_POINT)
	shareMode := uint32(syscall.FILE_SHARE_READ | syscall.FILE_SHARE_WRITE | syscall.FILE_SHARE_DELETE)

	h, err := syscall.CreateFile(pathp, 0, shareMode, nil, syscall.OPEN_EXISTING, attrs, 0)
	if err != nil {
		return FileID{}, 0, fmt.Errorf("open file: %w", err)
	}
	defer syscall.CloseHandle(h)

	var info syscall.ByHandleFileInformation
	if err := syscall.GetFileInformationByHandle(h, &info); err != nil {
		return FileID{}, 0, fmt.Errorf("get file info: %w", err)
	}

	return FileID{
		Device: uint64(info.VolumeSerialNumber),
		Inode:  (uint64(info.FileIndexHigh) << 32) | uint64(info.FileIndexLow),
	}, uint64(info.NumberOfLinks), nil
}
