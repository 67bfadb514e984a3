package scan

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autobrr/arrmap/pkg/fsindex"
	"github.com/autobrr/arrmap/pkg/hardlink"
	"github.com/autobrr/arrmap/pkg/inventory"
	"github.com/autobrr/arrmap/pkg/relationship"
)

type fakeIndexer struct {
	records []fsindex.FileRecord
	block   bool
}

func (f *fakeIndexer) Index(ctx context.Context, _ []fsindex.Root) (*fsindex.Result, error) {
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return &fsindex.Result{Records: f.records}, nil
}

type fakeSource struct {
	name   string
	kind   inventory.OwnerKind
	owners []inventory.Owner
	block  bool
}

func (f *fakeSource) Name() string              { return f.name }
func (f *fakeSource) Kind() inventory.OwnerKind { return f.kind }
func (f *fakeSource) Fetch(ctx context.Context) (*inventory.Listing, error) {
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return &inventory.Listing{Owners: f.owners}, nil
}

var roots = []fsindex.Root{
	{Path: "/lib", Kind: fsindex.RootLibrary},
	{Path: "/torrent", Kind: fsindex.RootTorrent},
	{Path: "/orphan", Kind: fsindex.RootTorrent},
}

func record(path, root string, kind fsindex.RootKind, ino uint64) fsindex.FileRecord {
	return fsindex.FileRecord{Path: path, Device: 1, Inode: ino, Nlink: 2, Size: 1000, Root: root, RootKind: kind}
}

func scenarioIndexer() *fakeIndexer {
	return &fakeIndexer{records: []fsindex.FileRecord{
		record("/lib/movie.mkv", "/lib", fsindex.RootLibrary, 5),
		record("/torrent/movie.mkv", "/torrent", fsindex.RootTorrent, 5),
		{Path: "/orphan/old.mkv", Device: 1, Inode: 9, Nlink: 1, Size: 300, Root: "/orphan", RootKind: fsindex.RootTorrent},
	}}
}

func torrentSource(owners ...inventory.Owner) *fakeSource {
	return &fakeSource{name: "qbittorrent", kind: inventory.KindTorrent, owners: owners}
}

func owner(id, path string) inventory.Owner {
	return inventory.Owner{ID: id, Title: id, Files: []inventory.File{{Path: path}}}
}

func run(t *testing.T, opt Options) *Report {
	t.Helper()
	s, err := New(opt)
	require.NoError(t, err)
	rep, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, PhaseComplete, s.Phase())
	return rep
}

func TestScan_HardlinkedMovieAndOrphan(t *testing.T) {
	rep := run(t, Options{
		Roots:   roots,
		Indexer: scenarioIndexer(),
		Sources: []inventory.Source{
			torrentSource(owner("T1", "/torrent/movie.mkv")),
			&fakeSource{name: "radarr", kind: inventory.KindMovie, owners: []inventory.Owner{owner("M1", "/lib/movie.mkv")}},
		},
		Disabled: map[string]inventory.OwnerKind{"sonarr": inventory.KindEpisode},
	})

	require.Len(t, rep.HardlinkGroups, 2)
	g5 := rep.HardlinkGroups[0]
	assert.Equal(t, hardlink.FileID{Device: 1, Inode: 5}, g5.ID)
	assert.Equal(t, relationship.OwnershipView{Torrents: []string{"T1"}, Movies: []string{"M1"}}, g5.View())

	g9 := rep.HardlinkGroups[1]
	assert.Equal(t, hardlink.FileID{Device: 1, Inode: 9}, g9.ID)
	assert.True(t, g9.View().IsEmpty())

	require.Len(t, rep.Orphans, 1)
	assert.Equal(t, "/orphan/old.mkv", rep.Orphans[0].FirstPath())
	assert.Equal(t, int64(300), rep.Orphans[0].ReclaimableBytes)
	assert.Empty(t, rep.CrossSeeds)
	assert.Empty(t, rep.MissingFiles)

	assert.False(t, rep.Degraded)
	sonarr, ok := rep.Service("sonarr")
	require.True(t, ok)
	assert.Equal(t, inventory.StatusDisabled, sonarr.Status)
	assert.Equal(t, FilesystemService, rep.Services[0].Name)

	assert.Len(t, rep.HardlinkedGroups(), 1)
	_, ok = rep.Orphan("/orphan/old.mkv")
	assert.True(t, ok)

	assert.Equal(t, 3, rep.Stats.TotalFiles)
	assert.Equal(t, 2, rep.Stats.UniqueFiles)
	assert.Equal(t, int64(1300), rep.Stats.UniqueSize)
	assert.Equal(t, int64(2300), rep.Stats.TotalSize)
	assert.Equal(t, 1, rep.Stats.HardlinkGroups)
	assert.Equal(t, 2, rep.Stats.TorrentFiles)
	assert.Equal(t, 1, rep.Stats.LibraryFiles)
	assert.Equal(t, OwnerCounts{Torrents: 1, Movies: 1}, rep.Stats.Owners)
}

func TestScan_CrossSeed(t *testing.T) {
	rep := run(t, Options{
		Roots: roots,
		Indexer: &fakeIndexer{records: []fsindex.FileRecord{
			record("/torrent/shared.mkv", "/torrent", fsindex.RootTorrent, 7),
		}},
		Sources: []inventory.Source{
			torrentSource(owner("T1", "/torrent/shared.mkv"), owner("T2", "/torrent/shared.mkv")),
		},
	})

	require.Len(t, rep.CrossSeeds, 1)
	assert.Equal(t, []string{"T1", "T2"}, rep.CrossSeeds[0].Torrents)
	assert.Equal(t, []string{"/torrent/shared.mkv"}, rep.CrossSeeds[0].SharedPaths)
	assert.Empty(t, rep.Orphans)
}

func TestScan_SourceTimeoutDegrades(t *testing.T) {
	rep := run(t, Options{
		Roots:         roots,
		Indexer:       scenarioIndexer(),
		SourceTimeout: 20 * time.Millisecond,
		Sources: []inventory.Source{
			torrentSource(owner("T1", "/torrent/movie.mkv")),
			&fakeSource{name: "radarr", kind: inventory.KindMovie, block: true},
		},
	})

	g5 := rep.HardlinkGroups[0]
	assert.Equal(t, relationship.OwnershipView{Torrents: []string{"T1"}}, g5.View())

	radarr, ok := rep.Service("radarr")
	require.True(t, ok)
	assert.Equal(t, inventory.StatusDegraded, radarr.Status)
	assert.True(t, rep.Degraded)
	assert.Len(t, rep.Orphans, 1)
}

func TestScan_FilesystemTimeoutDegrades(t *testing.T) {
	rep := run(t, Options{
		Roots:             roots,
		Indexer:           &fakeIndexer{block: true},
		FilesystemTimeout: 20 * time.Millisecond,
		Sources:           []inventory.Source{torrentSource(owner("T1", "/torrent/movie.mkv"))},
	})

	assert.Empty(t, rep.HardlinkGroups)
	require.Len(t, rep.MissingFiles, 1)
	assert.False(t, rep.MissingFiles[0].OutsideRoots)
	assert.Equal(t, inventory.StatusDegraded, rep.Services[0].Status)
	assert.True(t, rep.Degraded)
}

func TestScan_Cancelled(t *testing.T) {
	var (
		mu     sync.Mutex
		phases []Phase
	)

	s, err := New(Options{
		Roots:   roots,
		Indexer: &fakeIndexer{block: true},
		OnPhase: func(p Phase) {
			mu.Lock()
			phases = append(phases, p)
			mu.Unlock()
		},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	rep, err := s.Run(ctx)
	assert.Nil(t, rep)
	require.ErrorIs(t, err, ErrCancelled)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, PhaseCancelled, s.Phase())
	assert.Equal(t, []Phase{PhaseFetching, PhaseCancelled}, phases)
}

func TestScan_RunOnce(t *testing.T) {
	s, err := New(Options{Roots: roots, Indexer: scenarioIndexer()})
	require.NoError(t, err)

	_, err = s.Run(context.Background())
	require.NoError(t, err)

	_, err = s.Run(context.Background())
	require.ErrorIs(t, err, ErrAlreadyStarted)
}

func TestScan_Deterministic(t *testing.T) {
	opt := func() Options {
		return Options{
			Roots:   roots,
			Indexer: scenarioIndexer(),
			Sources: []inventory.Source{
				torrentSource(owner("T2", "/torrent/movie.mkv"), owner("T1", "/torrent/movie.mkv")),
			},
			Now: func() time.Time { return time.Unix(0, 0) },
		}
	}

	a, b := run(t, opt()), run(t, opt())
	for i := range a.Services {
		a.Services[i].Duration, b.Services[i].Duration = 0, 0
	}
	assert.Equal(t, a, b)
}

func TestNew_InvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		opt  Options
	}{
		{name: "no roots", opt: Options{}},
		{name: "relative root", opt: Options{Roots: []fsindex.Root{{Path: "media"}}}},
		{name: "negative timeout", opt: Options{Roots: roots, SourceTimeout: -time.Second}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.opt)
			require.ErrorIs(t, err, ErrInvalidOptions)
		})
	}
}

func TestPhase_String(t *testing.T) {
	assert.Equal(t, "classifying", PhaseClassifying.String())
	assert.True(t, PhaseCancelled.Terminal())
	assert.False(t, PhaseMerging.Terminal())
}
