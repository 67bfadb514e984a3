package relationship

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/scylladb/go-set/strset"

	"github.com/autobrr/arrmap/pkg/hardlink"
	"github.com/autobrr/arrmap/pkg/hardlinkfilemap"
	"github.com/autobrr/arrmap/pkg/inventory"
)

var kindOrder = map[inventory.OwnerKind]int{
	inventory.KindTorrent: 0,
	inventory.KindMovie:   1,
	inventory.KindEpisode: 2,
}

// Build joins groups with ownership tuples on exact path equality. Tuples whose
// path is not a member of any group become MissingFile entries. The result does
// not depend on the order of groups or tuples.
func Build(groups []hardlinkfilemap.Group, tuples []inventory.OwnershipTuple, roots []string) *Graph {
	g := &Graph{Nodes: make([]Node, len(groups))}

	var (
		index     = make(map[hardlink.FileID]int, len(groups))
		pathIndex = make(map[string]hardlink.FileID)
	)

	sorted := make([]hardlinkfilemap.Group, len(groups))
	copy(sorted, groups)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID.Less(sorted[j].ID) })

	for i, grp := range sorted {
		g.Nodes[i] = Node{Group: grp}
		index[grp.ID] = i
		for _, p := range grp.Paths {
			pathIndex[p] = grp.ID
		}
	}

	attached := make(map[hardlink.FileID]map[Ownership]struct{})
	missing := make(map[MissingFile]struct{})

	for _, t := range tuples {
		id, ok := pathIndex[t.Path]
		if !ok {
			missing[MissingFile{
				OwnerID:      t.OwnerID,
				Kind:         t.Kind,
				Path:         t.Path,
				Source:       t.Source,
				OutsideRoots: !underAny(t.Path, roots),
			}] = struct{}{}
			continue
		}

		set, exists := attached[id]
		if !exists {
			set = make(map[Ownership]struct{}, 1)
			attached[id] = set
		}
		set[Ownership{OwnerID: t.OwnerID, Kind: t.Kind, Path: t.Path, Source: t.Source}] = struct{}{}
	}

	for id, set := range attached {
		owners := make([]Ownership, 0, len(set))
		for o := range set {
			owners = append(owners, o)
		}
		sortOwnerships(owners)
		g.Nodes[index[id]].Owners = owners
	}

	g.Missing = make([]MissingFile, 0, len(missing))
	for m := range missing {
		g.Missing = append(g.Missing, m)
	}
	sort.Slice(g.Missing, func(i, j int) bool {
		a, b := g.Missing[i], g.Missing[j]
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		if a.Kind != b.Kind {
			return kindOrder[a.Kind] < kindOrder[b.Kind]
		}
		if a.OwnerID != b.OwnerID {
			return a.OwnerID < b.OwnerID
		}
		return a.Source < b.Source
	})

	return g
}

func sortOwnerships(owners []Ownership) {
	sort.Slice(owners, func(i, j int) bool {
		a, b := owners[i], owners[j]
		if a.Kind != b.Kind {
			return kindOrder[a.Kind] < kindOrder[b.Kind]
		}
		if a.OwnerID != b.OwnerID {
			return a.OwnerID < b.OwnerID
		}
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		return a.Source < b.Source
	})
}

// View returns the distinct owner ids of the node by kind.
func (n Node) View() OwnershipView {
	sets := map[inventory.OwnerKind]*strset.Set{
		inventory.KindTorrent: strset.New(),
		inventory.KindMovie:   strset.New(),
		inventory.KindEpisode: strset.New(),
	}

	for _, o := range n.Owners {
		if s, ok := sets[o.Kind]; ok {
			s.Add(o.OwnerID)
		}
	}

	return OwnershipView{
		Torrents: sortedList(sets[inventory.KindTorrent]),
		Movies:   sortedList(sets[inventory.KindMovie]),
		Episodes: sortedList(sets[inventory.KindEpisode]),
	}
}

func (n Node) IsOwned() bool {
	return len(n.Owners) > 0
}

func sortedList(s *strset.Set) []string {
	if s.IsEmpty() {
		return nil
	}
	l := s.List()
	sort.Strings(l)
	return l
}

// underAny reports whether path sits at or below one of roots.
func underAny(path string, roots []string) bool {
	for _, r := range roots {
		r = filepath.Clean(r)
		if path == r || strings.HasPrefix(path, strings.TrimSuffix(r, string(filepath.Separator))+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
