package hardlinkfilemap

import (
	"slices"

	"github.com/autobrr/arrmap/pkg/fsindex"
	"github.com/autobrr/arrmap/pkg/hardlink"
	"github.com/autobrr/arrmap/pkg/logger"
)

func New(records []fsindex.FileRecord) *HardlinkFileMap {
	hfm := &HardlinkFileMap{
		hardlinkFileMap: make(map[hardlink.FileID]map[string]fsindex.FileRecord),
		pathIndex:       make(map[string]hardlink.FileID),
		log:             logger.GetLogger("hardlinkfilemap"),
	}

	for _, r := range records {
		hfm.Add(r)
	}

	return hfm
}

// Add inserts a record into the group keyed by its FileID. A path already present
// (overlapping roots) keeps the record from the most specific root so the result
// does not depend on insertion order.
func (t *HardlinkFileMap) Add(r fsindex.FileRecord) {
	id := r.ID()

	if prev, seen := t.pathIndex[r.Path]; seen && prev != id {
		// the path was replaced between stats of two overlapping roots
		t.log.Warnf("Path %q seen with two file ids (%s, %s), keeping the lower", r.Path, prev, id)
		if prev.Less(id) {
			return
		}
		t.remove(prev, r.Path)
	}

	members, exists := t.hardlinkFileMap[id]
	if !exists {
		// file id has not been seen before, create id entry
		members = make(map[string]fsindex.FileRecord, 1)
		t.hardlinkFileMap[id] = members
	}

	if existing, dup := members[r.Path]; dup && !preferRecord(r, existing) {
		return
	}

	members[r.Path] = r
	t.pathIndex[r.Path] = id
}

func (t *HardlinkFileMap) remove(id hardlink.FileID, path string) {
	members := t.hardlinkFileMap[id]
	delete(members, path)
	if len(members) == 0 {
		delete(t.hardlinkFileMap, id)
	}
	delete(t.pathIndex, path)
}

// preferRecord reports whether a should replace b for the same path.
func preferRecord(a, b fsindex.FileRecord) bool {
	if len(a.Root) != len(b.Root) {
		return len(a.Root) > len(b.Root)
	}
	return a.Root < b.Root
}

// Lookup returns the FileID of the group holding path.
func (t *HardlinkFileMap) Lookup(path string) (hardlink.FileID, bool) {
	id, ok := t.pathIndex[path]
	return id, ok
}

// Group builds the group for id.
func (t *HardlinkFileMap) Group(id hardlink.FileID) (Group, bool) {
	members, ok := t.hardlinkFileMap[id]
	if !ok {
		return Group{}, false
	}

	g := Group{
		ID:      id,
		Paths:   make([]string, 0, len(members)),
		Records: make([]fsindex.FileRecord, 0, len(members)),
	}

	for p := range members {
		g.Paths = append(g.Paths, p)
	}
	slices.Sort(g.Paths)

	for _, p := range g.Paths {
		r := members[p]
		g.Records = append(g.Records, r)
		if r.Size > g.Size {
			g.Size = r.Size
		}
		if r.Nlink > g.Nlink {
			g.Nlink = r.Nlink
		}
	}

	g.LinkCount = len(g.Paths)
	g.AggregateSize = g.Size * int64(g.LinkCount)
	if g.Nlink > uint64(g.LinkCount) {
		g.ExternalLinks = g.Nlink - uint64(g.LinkCount)
	}

	return g, true
}

// Groups returns every group sorted by FileID. Call it only once all records have
// been added, a group is not final before that.
func (t *HardlinkFileMap) Groups() []Group {
	ids := make([]hardlink.FileID, 0, len(t.hardlinkFileMap))
	for id := range t.hardlinkFileMap {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, hardlink.FileID.Compare)

	groups := make([]Group, 0, len(ids))
	for _, id := range ids {
		g, _ := t.Group(id)
		groups = append(groups, g)
	}

	return groups
}

// Length is the number of distinct physical files.
func (t *HardlinkFileMap) Length() int {
	return len(t.hardlinkFileMap)
}

// Paths is the number of indexed paths.
func (t *HardlinkFileMap) Paths() int {
	return len(t.pathIndex)
}
