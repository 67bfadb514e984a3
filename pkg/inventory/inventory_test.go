package inventory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	name  string
	kind  OwnerKind
	fetch func(ctx context.Context) (*Listing, error)
}

func (f *fakeSource) Name() string    { return f.name }
func (f *fakeSource) Kind() OwnerKind { return f.kind }
func (f *fakeSource) Fetch(ctx context.Context) (*Listing, error) {
	return f.fetch(ctx)
}

func static(l *Listing) func(context.Context) (*Listing, error) {
	return func(context.Context) (*Listing, error) { return l, nil }
}

func blocking(ctx context.Context) (*Listing, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestCollect(t *testing.T) {
	qbit := &fakeSource{name: "qbittorrent", kind: KindTorrent, fetch: static(&Listing{
		Owners: []Owner{
			{ID: "aaa", Title: "Movie.2020", BasePath: "/downloads", Trackers: []string{"tracker.one"}, Files: []File{
				{Path: "Movie.2020/movie.mkv", Size: 100},
				{Path: "Movie.2020/movie.mkv", Size: 100},
			}},
		},
	})}
	radarr := &fakeSource{name: "radarr", kind: KindMovie, fetch: static(&Listing{
		Owners: []Owner{
			{ID: "1", Title: "Movie (2020)", Files: []File{{Path: "/media/movies/Movie (2020)/movie.mkv"}}},
		},
	})}
	sonarr := &fakeSource{name: "sonarr", kind: KindEpisode, fetch: func(context.Context) (*Listing, error) {
		return nil, errors.New("401 unauthorized")
	}}

	mapper, err := NewPathMapper(map[string]string{
		"/downloads": "/data/torrents",
		"/media":     "/data/media",
	})
	require.NoError(t, err)

	res := Collect(context.Background(), []Source{sonarr, radarr, qbit}, Options{Timeout: time.Second, Mapper: mapper})

	assert.False(t, res.Cancelled)
	assert.Equal(t, []OwnershipTuple{
		{OwnerID: "1", Kind: KindMovie, Path: "/data/media/movies/Movie (2020)/movie.mkv", Source: "radarr"},
		{OwnerID: "aaa", Kind: KindTorrent, Path: "/data/torrents/Movie.2020/movie.mkv", Source: "qbittorrent"},
	}, res.Tuples)

	require.Len(t, res.Health, 3)
	assert.Equal(t, "qbittorrent", res.Health[0].Name)
	assert.Equal(t, StatusOK, res.Health[0].Status)
	assert.Equal(t, 2, res.Health[0].Tuples)
	assert.Equal(t, StatusOK, res.Health[1].Status)
	assert.Equal(t, "sonarr", res.Health[2].Name)
	assert.Equal(t, StatusFailed, res.Health[2].Status)
	assert.Contains(t, res.Health[2].Reason, "401")

	o, ok := res.Owner(KindTorrent, "aaa")
	require.True(t, ok)
	assert.Equal(t, []string{"tracker.one"}, o.Trackers)
}

func TestCollect_TimeoutDegradesToEmpty(t *testing.T) {
	slow := &fakeSource{name: "radarr", kind: KindMovie, fetch: blocking}
	fast := &fakeSource{name: "qbittorrent", kind: KindTorrent, fetch: static(&Listing{
		Owners: []Owner{{ID: "h", Files: []File{{Path: "/t/a"}}}},
	})}

	start := time.Now()
	res := Collect(context.Background(), []Source{slow, fast}, Options{Timeout: 20 * time.Millisecond})
	assert.Less(t, time.Since(start), 5*time.Second)

	assert.False(t, res.Cancelled)
	require.Len(t, res.Health, 2)
	assert.Equal(t, StatusOK, res.Health[0].Status)
	assert.Equal(t, StatusDegraded, res.Health[1].Status)
	assert.Contains(t, res.Health[1].Reason, "timed out")
	assert.Zero(t, res.Health[1].Tuples)
	assert.Len(t, res.Tuples, 1)
}

func TestCollect_TimeoutWithSourceIgnoringContext(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	stubborn := &fakeSource{name: "radarr", kind: KindMovie, fetch: func(context.Context) (*Listing, error) {
		<-release
		return &Listing{Owners: []Owner{{ID: "1", Files: []File{{Path: "/m/a.mkv"}}}}}, nil
	}}

	start := time.Now()
	res := Collect(context.Background(), []Source{stubborn}, Options{Timeout: 20 * time.Millisecond})
	assert.Less(t, time.Since(start), 5*time.Second)

	assert.False(t, res.Cancelled)
	require.Len(t, res.Health, 1)
	assert.Equal(t, StatusDegraded, res.Health[0].Status)
	assert.Contains(t, res.Health[0].Reason, "timed out")
	assert.Empty(t, res.Tuples)
	assert.Empty(t, res.Owners)
}

func TestCollect_LateSuccessCountsAsTimeout(t *testing.T) {
	late := &fakeSource{name: "sonarr", kind: KindEpisode, fetch: func(ctx context.Context) (*Listing, error) {
		<-ctx.Done()
		return &Listing{Owners: []Owner{{ID: "1", Files: []File{{Path: "/tv/a.mkv"}}}}}, nil
	}}

	res := Collect(context.Background(), []Source{late}, Options{Timeout: 20 * time.Millisecond})

	require.Len(t, res.Health, 1)
	assert.Equal(t, StatusDegraded, res.Health[0].Status)
	assert.Empty(t, res.Tuples)
}

func TestCollect_PartialListing(t *testing.T) {
	src := &fakeSource{name: "sonarr", kind: KindEpisode, fetch: static(&Listing{
		Owners: []Owner{
			{ID: "10", Files: []File{{Path: "/tv/Show/S01E01.mkv"}}},
			{ID: "11", Files: []File{{Path: "relative/S01E02.mkv"}}},
		},
		Problems: []string{"series 4: 500 internal server error"},
	})}

	res := Collect(context.Background(), []Source{src}, Options{})
	require.Len(t, res.Health, 1)
	assert.Equal(t, StatusDegraded, res.Health[0].Status)
	assert.Contains(t, res.Health[0].Reason, "series 4")
	assert.Contains(t, res.Health[0].Reason, "not absolute")
	assert.Equal(t, []OwnershipTuple{
		{OwnerID: "10", Kind: KindEpisode, Path: "/tv/Show/S01E01.mkv", Source: "sonarr"},
	}, res.Tuples)
}

func TestCollect_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	src := &fakeSource{name: "radarr", kind: KindMovie, fetch: func(ctx context.Context) (*Listing, error) {
		cancel()
		return blocking(ctx)
	}}

	res := Collect(ctx, []Source{src}, Options{Timeout: time.Minute})
	assert.True(t, res.Cancelled)
	assert.Empty(t, res.Health)
}

func TestCollect_PerSourceMapper(t *testing.T) {
	global, err := NewPathMapper(map[string]string{"/data": "/mnt/data"})
	require.NoError(t, err)
	override, err := Merge(map[string]string{"/data": "/mnt/data"}, map[string]string{"/data": "/srv/data"})
	require.NoError(t, err)

	src := func(name string) Source {
		return &fakeSource{name: name, kind: KindMovie, fetch: static(&Listing{
			Owners: []Owner{{ID: "1", Files: []File{{Path: "/data/x.mkv"}}}},
		})}
	}

	res := Collect(context.Background(), []Source{src("a"), src("b")}, Options{
		Mapper:  global,
		Mappers: map[string]*PathMapper{"b": override},
	})

	require.Len(t, res.Tuples, 2)
	assert.Equal(t, "/mnt/data/x.mkv", res.Tuples[0].Path)
	assert.Equal(t, "/srv/data/x.mkv", res.Tuples[1].Path)
}
