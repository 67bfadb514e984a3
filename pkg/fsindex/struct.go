package fsindex

import (
	"time"

	"github.com/autobrr/arrmap/pkg/hardlink"
)

type RootKind string

const (
	RootTorrent RootKind = "torrent"
	RootLibrary RootKind = "library"
)

type Root struct {
	Path string   `json:"path" yaml:"path"`
	Kind RootKind `json:"kind" yaml:"kind"`
}

// FileRecord is one regular file seen during the walk. Two records are the same
// physical file iff their FileID matches.
type FileRecord struct {
	Path     string    `json:"path" yaml:"path"`
	Device   uint64    `json:"device" yaml:"device"`
	Inode    uint64    `json:"inode" yaml:"inode"`
	Nlink    uint64    `json:"nlink" yaml:"nlink"`
	Size     int64     `json:"size" yaml:"size"`
	ModTime  time.Time `json:"mtime" yaml:"mtime"`
	Root     string    `json:"root" yaml:"root"`
	RootKind RootKind  `json:"root_kind" yaml:"root_kind"`
}

func (r FileRecord) ID() hardlink.FileID {
	return hardlink.FileID{Device: r.Device, Inode: r.Inode}
}

type WarningKind string

const (
	WarnPermission  WarningKind = "permission_denied"
	WarnSymlink     WarningKind = "symlink"
	WarnMissingRoot WarningKind = "missing_root"
	WarnStat        WarningKind = "stat_failed"
)

type Warning struct {
	Kind    WarningKind `json:"kind" yaml:"kind"`
	Root    string      `json:"root" yaml:"root"`
	Path    string      `json:"path" yaml:"path"`
	Message string      `json:"message,omitempty" yaml:"message,omitempty"`
}

type RootStat struct {
	Root     Root          `json:"root" yaml:"root"`
	Files    int64         `json:"files" yaml:"files"`
	Bytes    int64         `json:"bytes" yaml:"bytes"`
	Duration time.Duration `json:"duration" yaml:"duration"`
	Skipped  bool          `json:"skipped" yaml:"skipped"`
}

type Result struct {
	Records  []FileRecord
	Warnings []Warning
	Roots    []RootStat
}
