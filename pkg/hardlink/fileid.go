package hardlink

import (
	"fmt"
)

// FileID identifies a physical file: the (device, inode) pair on unix,
// (volume serial, file index) on windows.
type FileID struct {
	Device uint64 `json:"device" yaml:"device"`
	Inode  uint64 `json:"inode" yaml:"inode"`
}

func (f FileID) String() string {
	return fmt.Sprintf("%d:%d", f.Device, f.Inode)
}

func (f FileID) IsZero() bool {
	return f.Device == 0 && f.Inode == 0
}

// Less orders by device, then inode.
func (f FileID) Less(other FileID) bool {
	if f.Device != other.Device {
		return f.Device < other.Device
	}
	return f.Inode < other.Inode
}

// Compare is Less in the shape slices.SortFunc expects.
func (f FileID) Compare(other FileID) int {
	switch {
	case f == other:
		return 0
	case f.Less(other):
		return -1
	default:
		return 1
	}
}
