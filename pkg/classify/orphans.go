package classify

import (
	"sort"
	"time"

	"github.com/autobrr/arrmap/pkg/expression"
	"github.com/autobrr/arrmap/pkg/fsindex"
	"github.com/autobrr/arrmap/pkg/hardlink"
	"github.com/autobrr/arrmap/pkg/logger"
	"github.com/autobrr/arrmap/pkg/relationship"
)

type OrphanPath struct {
	Path     string           `json:"path" yaml:"path"`
	Root     string           `json:"root" yaml:"root"`
	RootKind fsindex.RootKind `json:"root_kind" yaml:"root_kind"`
}

// Orphan is a physical file no torrent, movie or episode claims.
type Orphan struct {
	Group         hardlink.FileID `json:"group" yaml:"group"`
	Paths         []OrphanPath    `json:"paths" yaml:"paths"`
	Size          int64           `json:"size" yaml:"size"`
	Nlink         uint64          `json:"nlink" yaml:"nlink"`
	LinkCount     int             `json:"link_count" yaml:"link_count"`
	ExternalLinks uint64          `json:"external_links" yaml:"external_links"`
	// ReclaimableBytes is what unlinking every listed path would free. It is zero
	// when links outside the scanned roots keep the inode alive.
	ReclaimableBytes int64     `json:"reclaimable_bytes" yaml:"reclaimable_bytes"`
	ModTime          time.Time `json:"mtime" yaml:"mtime"`
	Ignored          bool      `json:"ignored,omitempty" yaml:"ignored,omitempty"`
	IgnoreReason     string    `json:"ignore_reason,omitempty" yaml:"ignore_reason,omitempty"`
}

func (o Orphan) FirstPath() string {
	if len(o.Paths) == 0 {
		return ""
	}
	return o.Paths[0].Path
}

// Orphans returns every node with an empty owner set. Ignore rules are tried
// against each member path and only annotate the result.
func Orphans(g *relationship.Graph, ignore []expression.CompiledExpression, now time.Time) []Orphan {
	log := logger.GetLogger("classify")

	var orphans []Orphan
	for _, n := range g.Nodes {
		if n.IsOwned() {
			continue
		}

		o := Orphan{
			Group:         n.ID,
			Paths:         make([]OrphanPath, 0, len(n.Records)),
			Size:          n.Size,
			Nlink:         n.Nlink,
			LinkCount:     n.LinkCount,
			ExternalLinks: n.ExternalLinks,
		}
		if n.ExternalLinks == 0 {
			o.ReclaimableBytes = n.Size
		}

		for _, r := range n.Records {
			o.Paths = append(o.Paths, OrphanPath{Path: r.Path, Root: r.Root, RootKind: r.RootKind})
			if r.ModTime.After(o.ModTime) {
				o.ModTime = r.ModTime
			}
		}

		if len(ignore) > 0 {
			for _, r := range n.Records {
				env := expression.NewOrphanEnv(r.Path, r.Root, string(r.RootKind), r.Size, r.ModTime, n.LinkCount, now)
				match, reason, err := expression.MatchAny(env, ignore)
				if err != nil {
					log.WithError(err).Warnf("Failed evaluating ignore rules for %s", r.Path)
					continue
				}
				if match {
					o.Ignored = true
					o.IgnoreReason = reason
					break
				}
			}
		}

		orphans = append(orphans, o)
	}

	sort.Slice(orphans, func(i, j int) bool {
		a, b := orphans[i].FirstPath(), orphans[j].FirstPath()
		if a != b {
			return a < b
		}
		return orphans[i].Group.Less(orphans[j].Group)
	})

	return orphans
}
