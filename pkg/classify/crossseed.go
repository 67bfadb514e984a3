package classify

import (
	"sort"

	"github.com/scylladb/go-set/strset"

	"github.com/autobrr/arrmap/pkg/inventory"
	"github.com/autobrr/arrmap/pkg/relationship"
	"github.com/autobrr/arrmap/pkg/tracker"
)

// OwnerLookup resolves owner metadata, *inventory.Result satisfies it.
type OwnerLookup interface {
	Owner(kind inventory.OwnerKind, id string) (inventory.OwnerInfo, bool)
}

// CrossSeedCluster is a maximal set of torrents connected by shared files.
type CrossSeedCluster struct {
	Torrents    []string `json:"torrents" yaml:"torrents"`
	Names       []string `json:"names" yaml:"names"`
	Trackers    []string `json:"trackers,omitempty" yaml:"trackers,omitempty"`
	SharedPaths []string `json:"shared_paths" yaml:"shared_paths"`
	SharedSize  int64    `json:"shared_size" yaml:"shared_size"`
	Groups      int      `json:"groups" yaml:"groups"`
}

type unionFind struct {
	parent map[string]string
	rank   map[string]int
}

func newUnionFind() *unionFind {
	return &unionFind{parent: map[string]string{}, rank: map[string]int{}}
}

func (u *unionFind) add(x string) {
	if _, ok := u.parent[x]; !ok {
		u.parent[x] = x
	}
}

func (u *unionFind) find(x string) string {
	for u.parent[x] != x {
		u.parent[x] = u.parent[u.parent[x]]
		x = u.parent[x]
	}
	return x
}

func (u *unionFind) union(a, b string) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	switch {
	case u.rank[ra] < u.rank[rb]:
		u.parent[ra] = rb
	case u.rank[ra] > u.rank[rb]:
		u.parent[rb] = ra
	default:
		u.parent[rb] = ra
		u.rank[ra]++
	}
}

// CrossSeeds groups torrents that co-own at least one node into clusters and
// drops singletons. owners may be nil.
func CrossSeeds(g *relationship.Graph, owners OwnerLookup) []CrossSeedCluster {
	uf := newUnionFind()
	var shared []relationship.Node
	views := make([][]string, 0)

	for _, n := range g.Nodes {
		torrents := n.View().Torrents
		if len(torrents) == 0 {
			continue
		}
		for _, t := range torrents {
			uf.add(t)
			uf.union(torrents[0], t)
		}
		if len(torrents) > 1 {
			shared = append(shared, n)
			views = append(views, torrents)
		}
	}

	members := map[string][]string{}
	for t := range uf.parent {
		root := uf.find(t)
		members[root] = append(members[root], t)
	}

	byRoot := map[string]*CrossSeedCluster{}
	for root, ts := range members {
		if len(ts) < 2 {
			continue
		}
		sort.Strings(ts)
		byRoot[root] = &CrossSeedCluster{Torrents: ts}
	}

	paths := map[string]*strset.Set{}
	for i, n := range shared {
		root := uf.find(views[i][0])
		c := byRoot[root]
		c.SharedSize += n.Size
		c.Groups++
		if paths[root] == nil {
			paths[root] = strset.New()
		}
		paths[root].Add(n.Paths...)
	}

	clusters := make([]CrossSeedCluster, 0, len(byRoot))
	for root, c := range byRoot {
		c.SharedPaths = sortedSet(paths[root])

		domains := strset.New()
		for _, id := range c.Torrents {
			name := id
			if owners != nil {
				if info, ok := owners.Owner(inventory.KindTorrent, id); ok {
					if info.Title != "" {
						name = info.Title
					}
					domains.Add(tracker.Domains(info.Trackers)...)
				}
			}
			c.Names = append(c.Names, name)
		}
		c.Trackers = sortedSet(domains)

		clusters = append(clusters, *c)
	}

	sort.Slice(clusters, func(i, j int) bool {
		return clusters[i].Torrents[0] < clusters[j].Torrents[0]
	})

	return clusters
}

func sortedSet(s *strset.Set) []string {
	if s == nil || s.IsEmpty() {
		return nil
	}
	l := s.List()
	sort.Strings(l)
	return l
}
