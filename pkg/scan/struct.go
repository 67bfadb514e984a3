package scan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/autobrr/arrmap/pkg/classify"
	"github.com/autobrr/arrmap/pkg/expression"
	"github.com/autobrr/arrmap/pkg/fsindex"
	"github.com/autobrr/arrmap/pkg/inventory"
	"github.com/autobrr/arrmap/pkg/relationship"
)

// FilesystemService is the health entry name of the filesystem walk.
const FilesystemService = "filesystem"

var (
	ErrInvalidOptions = errors.New("invalid scan options")
	ErrAlreadyStarted = errors.New("scan already started")
	ErrCancelled      = fmt.Errorf("scan cancelled: %w", context.Canceled)
)

type Phase int32

const (
	PhaseIdle Phase = iota
	PhaseFetching
	PhaseMerging
	PhaseClassifying
	PhaseComplete
	PhaseCancelled
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseFetching:
		return "fetching"
	case PhaseMerging:
		return "merging"
	case PhaseClassifying:
		return "classifying"
	case PhaseComplete:
		return "complete"
	case PhaseCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("phase(%d)", int32(p))
	}
}

// Terminal reports whether no further transition can happen.
func (p Phase) Terminal() bool {
	return p == PhaseComplete || p == PhaseCancelled
}

// FileIndexer is satisfied by *fsindex.Indexer.
type FileIndexer interface {
	Index(ctx context.Context, roots []fsindex.Root) (*fsindex.Result, error)
}

type Options struct {
	Roots   []fsindex.Root
	Sources []inventory.Source
	// Disabled lists services that are not configured, by name.
	Disabled map[string]inventory.OwnerKind

	SourceTimeout     time.Duration
	FilesystemTimeout time.Duration

	Mapper  *inventory.PathMapper
	Mappers map[string]*inventory.PathMapper

	// Indexer defaults to fsindex.New(Workers).
	Indexer FileIndexer
	Workers int

	Ignore  []expression.CompiledExpression
	OnPhase func(Phase)
	Now     func() time.Time
	Log     *logrus.Entry
}

type OwnerCounts struct {
	Torrents int `json:"torrents" yaml:"torrents"`
	Movies   int `json:"movies" yaml:"movies"`
	Episodes int `json:"episodes" yaml:"episodes"`
}

type Stats struct {
	TotalFiles        int         `json:"total_files" yaml:"total_files"`
	TotalSize         int64       `json:"total_size" yaml:"total_size"`
	UniqueFiles       int         `json:"unique_files" yaml:"unique_files"`
	UniqueSize        int64       `json:"unique_size" yaml:"unique_size"`
	TorrentFiles      int         `json:"torrent_files" yaml:"torrent_files"`
	LibraryFiles      int         `json:"library_files" yaml:"library_files"`
	HardlinkGroups    int         `json:"hardlink_groups" yaml:"hardlink_groups"`
	Orphans           int         `json:"orphans" yaml:"orphans"`
	OrphanSize        int64       `json:"orphan_size" yaml:"orphan_size"`
	ReclaimableSize   int64       `json:"reclaimable_size" yaml:"reclaimable_size"`
	IgnoredOrphans    int         `json:"ignored_orphans" yaml:"ignored_orphans"`
	CrossSeedClusters int         `json:"cross_seed_clusters" yaml:"cross_seed_clusters"`
	MissingFiles      int         `json:"missing_files" yaml:"missing_files"`
	Owners            OwnerCounts `json:"owners" yaml:"owners"`
}

// Report is the result of one scan. It is never modified after Run returns it.
type Report struct {
	StartedAt      time.Time                   `json:"started_at" yaml:"started_at"`
	Duration       time.Duration               `json:"duration" yaml:"duration"`
	Roots          []fsindex.RootStat          `json:"roots" yaml:"roots"`
	HardlinkGroups []relationship.Node         `json:"hardlink_groups" yaml:"hardlink_groups"`
	Orphans        []classify.Orphan           `json:"orphans" yaml:"orphans"`
	CrossSeeds     []classify.CrossSeedCluster `json:"cross_seeds" yaml:"cross_seeds"`
	MissingFiles   []relationship.MissingFile  `json:"missing_files" yaml:"missing_files"`
	Services       []inventory.Health          `json:"services" yaml:"services"`
	Warnings       []fsindex.Warning           `json:"warnings" yaml:"warnings"`
	Stats          Stats                       `json:"stats" yaml:"stats"`
	Degraded       bool                        `json:"degraded" yaml:"degraded"`
}

// HardlinkedGroups returns the groups with more than one indexed path.
func (r *Report) HardlinkedGroups() []relationship.Node {
	var out []relationship.Node
	for _, n := range r.HardlinkGroups {
		if n.IsHardlinked() {
			out = append(out, n)
		}
	}
	return out
}

// Orphan returns the orphan that has path as a member.
func (r *Report) Orphan(path string) (classify.Orphan, bool) {
	for _, o := range r.Orphans {
		for _, p := range o.Paths {
			if p.Path == path {
				return o, true
			}
		}
	}
	return classify.Orphan{}, false
}

func (r *Report) Service(name string) (inventory.Health, bool) {
	for _, h := range r.Services {
		if h.Name == name {
			return h, true
		}
	}
	return inventory.Health{}, false
}

// ActiveOrphans are the orphans no ignore rule matched.
func (r *Report) ActiveOrphans() []classify.Orphan {
	var out []classify.Orphan
	for _, o := range r.Orphans {
		if !o.Ignored {
			out = append(out, o)
		}
	}
	return out
}
