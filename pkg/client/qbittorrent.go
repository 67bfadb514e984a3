package client

import (
	"context"
	"fmt"
	"sort"
	"sync"

	qbt "github.com/autobrr/go-qbittorrent"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/autobrr/arrmap/pkg/config"
	"github.com/autobrr/arrmap/pkg/inventory"
	"github.com/autobrr/arrmap/pkg/logger"
	"github.com/autobrr/arrmap/pkg/tracker"
)

const qbitFetchWorkers = 8

// qbitAPI is the part of the qBittorrent client the inventory needs.
type qbitAPI interface {
	LoginCtx(ctx context.Context) error
	GetTorrentsCtx(ctx context.Context, o qbt.TorrentFilterOptions) ([]qbt.Torrent, error)
	GetFilesInformationCtx(ctx context.Context, hash string) (*qbt.TorrentFiles, error)
	GetTorrentTrackersCtx(ctx context.Context, hash string) ([]qbt.TorrentTracker, error)
}

type QBittorrent struct {
	cfg     config.TorrentClientConfig
	retries int
	client  qbitAPI
	log     *logrus.Entry
}

func NewQBittorrent(cfg config.TorrentClientConfig, retries int) *QBittorrent {
	return &QBittorrent{
		cfg:     cfg,
		retries: retries,
		client: qbt.NewClient(qbt.Config{
			Host:      cfg.URL,
			Username:  cfg.User,
			Password:  cfg.Password,
			BasicUser: cfg.BasicUser,
			BasicPass: cfg.BasicPass,
			Timeout:   30,
		}),
		log: logger.GetLogger("qbittorrent"),
	}
}

func (c *QBittorrent) Name() string              { return config.TorrentClientQBittorrent }
func (c *QBittorrent) Type() string              { return config.TorrentClientQBittorrent }
func (c *QBittorrent) Kind() inventory.OwnerKind { return inventory.KindTorrent }

func (c *QBittorrent) Connect(ctx context.Context) error {
	if err := withRetry(ctx, c.retries, func() error { return c.client.LoginCtx(ctx) }); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	return nil
}

func (c *QBittorrent) GetTorrents(ctx context.Context) ([]Torrent, []string, error) {
	var list []qbt.Torrent
	err := withRetry(ctx, c.retries, func() error {
		var err error
		list, err = c.client.GetTorrentsCtx(ctx, qbt.TorrentFilterOptions{})
		return err
	})
	if err != nil {
		return nil, nil, fmt.Errorf("get torrents: %w", err)
	}

	c.log.Debugf("Retrieved %d torrents", len(list))

	var (
		mu       sync.Mutex
		problems []string
		torrents = make([]Torrent, len(list))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(qbitFetchWorkers)

	for i, t := range list {
		g.Go(func() error {
			tor, err := c.torrent(gctx, t)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				c.log.WithError(err).Warnf("Failed retrieving details for torrent %s", t.Name)
				mu.Lock()
				problems = append(problems, fmt.Sprintf("torrent %s: %v", t.Hash, err))
				mu.Unlock()
				return nil
			}
			torrents[i] = tor
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	// drop the torrents whose details failed
	out := torrents[:0]
	for _, t := range torrents {
		if t.Hash != "" {
			out = append(out, t)
		}
	}
	sort.Strings(problems)

	return out, problems, nil
}

func (c *QBittorrent) torrent(ctx context.Context, t qbt.Torrent) (Torrent, error) {
	var files *qbt.TorrentFiles
	err := withRetry(ctx, c.retries, func() error {
		var err error
		files, err = c.client.GetFilesInformationCtx(ctx, t.Hash)
		return err
	})
	if err != nil {
		return Torrent{}, fmt.Errorf("get files: %w", err)
	}

	var trackers []qbt.TorrentTracker
	err = withRetry(ctx, c.retries, func() error {
		var err error
		trackers, err = c.client.GetTorrentTrackersCtx(ctx, t.Hash)
		return err
	})
	if err != nil {
		return Torrent{}, fmt.Errorf("get trackers: %w", err)
	}

	tor := Torrent{
		Hash:     t.Hash,
		Name:     t.Name,
		SavePath: t.SavePath,
		Trackers: trackerURLs(trackers),
	}

	if files != nil {
		for _, f := range *files {
			tor.Files = append(tor.Files, inventory.File{Path: f.Name, Size: f.Size})
		}
	}

	return tor, nil
}

func trackerURLs(trackers []qbt.TorrentTracker) []string {
	urls := make([]string, 0, len(trackers))
	for _, tr := range trackers {
		// skip disabled trackers
		if tracker.IsPseudo(tr.Url) {
			continue
		}
		urls = append(urls, tr.Url)
	}
	return urls
}

func (c *QBittorrent) Fetch(ctx context.Context) (*inventory.Listing, error) {
	if err := c.Connect(ctx); err != nil {
		return nil, err
	}

	torrents, problems, err := c.GetTorrents(ctx)
	if err != nil {
		return nil, err
	}

	listing := &inventory.Listing{
		Owners:   make([]inventory.Owner, 0, len(torrents)),
		Problems: problems,
	}
	for _, t := range torrents {
		listing.Owners = append(listing.Owners, t.owner())
	}

	return listing, nil
}
