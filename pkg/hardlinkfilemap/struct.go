package hardlinkfilemap

import (
	"github.com/sirupsen/logrus"

	"github.com/autobrr/arrmap/pkg/fsindex"
	"github.com/autobrr/arrmap/pkg/hardlink"
)

// Group is every indexed path that shares one FileID.
type Group struct {
	ID hardlink.FileID `json:"id" yaml:"id"`
	// Paths are the member paths, sorted.
	Paths []string `json:"paths" yaml:"paths"`
	// Records are ordered like Paths.
	Records []fsindex.FileRecord `json:"-" yaml:"-"`
	// Size is the logical size of the file, reported identically by every link.
	Size int64 `json:"size" yaml:"size"`
	// Nlink is the on-disk link count, which may exceed LinkCount when links
	// live outside the scanned roots.
	Nlink         uint64 `json:"nlink" yaml:"nlink"`
	LinkCount     int    `json:"link_count" yaml:"link_count"`
	AggregateSize int64  `json:"aggregate_size" yaml:"aggregate_size"`
	ExternalLinks uint64 `json:"external_links" yaml:"external_links"`
}

func (g Group) IsHardlinked() bool {
	return g.LinkCount > 1
}

func (g Group) HasPath(path string) bool {
	for _, p := range g.Paths {
		if p == path {
			return true
		}
	}
	return false
}

type HardlinkFileMap struct {
	// hardlinkFileMap maps FileID to the records that share that inode, keyed by path
	hardlinkFileMap map[hardlink.FileID]map[string]fsindex.FileRecord
	// pathIndex maps every member path back to its FileID
	pathIndex map[string]hardlink.FileID
	log       *logrus.Entry
}
