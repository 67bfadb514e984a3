package arr

import (
	"context"
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/autobrr/arrmap/pkg/config"
	"github.com/autobrr/arrmap/pkg/inventory"
	"github.com/autobrr/arrmap/pkg/logger"
)

type radarrMovie struct {
	ID        int    `json:"id"`
	Title     string `json:"title"`
	Year      int    `json:"year"`
	Path      string `json:"path"`
	HasFile   bool   `json:"hasFile"`
	MovieFile *struct {
		ID           int    `json:"id"`
		Path         string `json:"path"`
		RelativePath string `json:"relativePath"`
		Size         int64  `json:"size"`
	} `json:"movieFile"`
}

type Radarr struct {
	api *api
	log *logrus.Entry
}

func NewRadarr(cfg config.ArrConfig, retries int) *Radarr {
	l := logger.GetLogger("radarr-api")
	return &Radarr{
		api: newAPI(cfg, retries, l),
		log: l,
	}
}

func (r *Radarr) Name() string              { return "radarr" }
func (r *Radarr) Kind() inventory.OwnerKind { return inventory.KindMovie }

// Fetch lists every movie that has a file on disk.
func (r *Radarr) Fetch(ctx context.Context) (*inventory.Listing, error) {
	var movies []radarrMovie
	if err := r.api.get(ctx, "/api/v3/movie", nil, &movies); err != nil {
		return nil, fmt.Errorf("list movies: %w", err)
	}

	listing := &inventory.Listing{}
	for _, m := range movies {
		if !m.HasFile || m.MovieFile == nil {
			continue
		}

		f := inventory.File{Path: m.MovieFile.Path, Size: m.MovieFile.Size}
		if f.Path == "" {
			f.Path = m.MovieFile.RelativePath
		}
		if f.Path == "" {
			listing.Problems = append(listing.Problems, fmt.Sprintf("movie %d has a file without a path", m.ID))
			continue
		}

		title := m.Title
		if m.Year > 0 {
			title = fmt.Sprintf("%s (%d)", m.Title, m.Year)
		}

		listing.Owners = append(listing.Owners, inventory.Owner{
			ID:       strconv.Itoa(m.ID),
			Title:    title,
			BasePath: m.Path,
			Files:    []inventory.File{f},
		})
	}

	r.log.Debugf("Retrieved %d movies, %d with files", len(movies), len(listing.Owners))
	return listing, nil
}
