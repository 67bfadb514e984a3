package relationship

import (
	"github.com/autobrr/arrmap/pkg/hardlinkfilemap"
	"github.com/autobrr/arrmap/pkg/inventory"
)

// Ownership is a tuple attached to the group holding its path.
type Ownership struct {
	OwnerID string              `json:"owner_id" yaml:"owner_id"`
	Kind    inventory.OwnerKind `json:"kind" yaml:"kind"`
	Path    string              `json:"path" yaml:"path"`
	Source  string              `json:"source" yaml:"source"`
}

// Node is a hardlink group with the owners claiming any of its paths.
type Node struct {
	hardlinkfilemap.Group `yaml:",inline"`
	Owners                []Ownership `json:"owners" yaml:"owners"`
}

// OwnershipView is the set of owner ids of a node, split by kind.
type OwnershipView struct {
	Torrents []string `json:"torrents,omitempty" yaml:"torrents,omitempty"`
	Movies   []string `json:"movies,omitempty" yaml:"movies,omitempty"`
	Episodes []string `json:"episodes,omitempty" yaml:"episodes,omitempty"`
}

func (v OwnershipView) IsEmpty() bool {
	return len(v.Torrents) == 0 && len(v.Movies) == 0 && len(v.Episodes) == 0
}

func (v OwnershipView) Len() int {
	return len(v.Torrents) + len(v.Movies) + len(v.Episodes)
}

// MissingFile is a path a collaborator claims that the filesystem walk never saw.
type MissingFile struct {
	OwnerID string              `json:"owner_id" yaml:"owner_id"`
	Kind    inventory.OwnerKind `json:"kind" yaml:"kind"`
	Path    string              `json:"path" yaml:"path"`
	Source  string              `json:"source" yaml:"source"`
	// OutsideRoots is set when no scanned root contains Path, which usually means
	// a missing path mapping rather than a deleted file.
	OutsideRoots bool `json:"outside_roots" yaml:"outside_roots"`
}

type Graph struct {
	Nodes   []Node
	Missing []MissingFile
}
