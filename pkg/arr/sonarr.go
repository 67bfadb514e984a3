package arr

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/autobrr/arrmap/pkg/config"
	"github.com/autobrr/arrmap/pkg/inventory"
	"github.com/autobrr/arrmap/pkg/logger"
)

const sonarrSeriesWorkers = 4

type sonarrSeries struct {
	ID               int    `json:"id"`
	Title            string `json:"title"`
	Path             string `json:"path"`
	EpisodeFileCount int    `json:"episodeFileCount"`
	Statistics       *struct {
		EpisodeFileCount int `json:"episodeFileCount"`
	} `json:"statistics"`
}

func (s sonarrSeries) fileCount() int {
	if s.Statistics != nil && s.Statistics.EpisodeFileCount > s.EpisodeFileCount {
		return s.Statistics.EpisodeFileCount
	}
	return s.EpisodeFileCount
}

type sonarrEpisodeFile struct {
	ID           int    `json:"id"`
	SeriesID     int    `json:"seriesId"`
	Path         string `json:"path"`
	RelativePath string `json:"relativePath"`
	Size         int64  `json:"size"`
}

type Sonarr struct {
	api *api
	log *logrus.Entry
}

func NewSonarr(cfg config.ArrConfig, retries int) *Sonarr {
	l := logger.GetLogger("sonarr-api")
	return &Sonarr{
		api: newAPI(cfg, retries, l),
		log: l,
	}
}

func (s *Sonarr) Name() string              { return "sonarr" }
func (s *Sonarr) Kind() inventory.OwnerKind { return inventory.KindEpisode }

// Fetch lists every episode file. A series whose files cannot be fetched makes the
// listing partial instead of failing it.
func (s *Sonarr) Fetch(ctx context.Context) (*inventory.Listing, error) {
	var series []sonarrSeries
	if err := s.api.get(ctx, "/api/v3/series", nil, &series); err != nil {
		return nil, fmt.Errorf("list series: %w", err)
	}

	var (
		mu      sync.Mutex
		listing = &inventory.Listing{}
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(sonarrSeriesWorkers)

	for _, sr := range series {
		if sr.fileCount() == 0 {
			continue
		}

		g.Go(func() error {
			owners, err := s.episodeFiles(gctx, sr)

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				s.log.WithError(err).Warnf("Failed retrieving episode files for %s", sr.Title)
				listing.Problems = append(listing.Problems, fmt.Sprintf("series %d: %v", sr.ID, err))
				return nil
			}

			listing.Owners = append(listing.Owners, owners...)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(listing.Owners, func(i, j int) bool {
		a, _ := strconv.Atoi(listing.Owners[i].ID)
		b, _ := strconv.Atoi(listing.Owners[j].ID)
		return a < b
	})
	sort.Strings(listing.Problems)

	s.log.Debugf("Retrieved %d series and %d episode files", len(series), len(listing.Owners))
	return listing, nil
}

func (s *Sonarr) episodeFiles(ctx context.Context, sr sonarrSeries) ([]inventory.Owner, error) {
	var files []sonarrEpisodeFile
	err := s.api.get(ctx, "/api/v3/episodefile", url.Values{
		"seriesId": []string{strconv.Itoa(sr.ID)},
	}, &files)
	if err != nil {
		return nil, err
	}

	owners := make([]inventory.Owner, 0, len(files))
	for _, f := range files {
		p := f.Path
		if p == "" {
			p = f.RelativePath
		}

		owners = append(owners, inventory.Owner{
			ID:       strconv.Itoa(f.ID),
			Title:    fmt.Sprintf("%s - %s", sr.Title, f.RelativePath),
			BasePath: sr.Path,
			Files:    []inventory.File{{Path: p, Size: f.Size}},
		})
	}

	return owners, nil
}
