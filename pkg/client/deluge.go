package client

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/autobrr/go-deluge"
	"github.com/sirupsen/logrus"

	"github.com/autobrr/arrmap/pkg/config"
	"github.com/autobrr/arrmap/pkg/inventory"
	"github.com/autobrr/arrmap/pkg/logger"
)

// delugeAPI is the part of the Deluge rpc client the inventory needs.
type delugeAPI interface {
	Connect(ctx context.Context) error
	TorrentsStatus(ctx context.Context, state deluge.TorrentState, ids []string) (map[string]*deluge.TorrentStatus, error)
	Close() error
}

type Deluge struct {
	cfg     config.TorrentClientConfig
	retries int
	client  delugeAPI
	log     *logrus.Entry
}

func NewDeluge(cfg config.TorrentClientConfig, retries int) *Deluge {
	return &Deluge{
		cfg:     cfg,
		retries: retries,
		client: deluge.NewV2(deluge.Settings{
			Hostname:         cfg.Host,
			Port:             uint(cfg.Port),
			Login:            cfg.User,
			Password:         cfg.Password,
			ReadWriteTimeout: 30 * time.Second,
		}),
		log: logger.GetLogger("deluge"),
	}
}

func (c *Deluge) Name() string              { return config.TorrentClientDeluge }
func (c *Deluge) Type() string              { return config.TorrentClientDeluge }
func (c *Deluge) Kind() inventory.OwnerKind { return inventory.KindTorrent }

func (c *Deluge) Connect(ctx context.Context) error {
	if err := withRetry(ctx, c.retries, func() error { return c.client.Connect(ctx) }); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	return nil
}

func (c *Deluge) GetTorrents(ctx context.Context) ([]Torrent, error) {
	var status map[string]*deluge.TorrentStatus
	err := withRetry(ctx, c.retries, func() error {
		var err error
		status, err = c.client.TorrentsStatus(ctx, deluge.StateUnspecified, nil)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("get torrents status: %w", err)
	}

	c.log.Debugf("Retrieved %d torrents", len(status))

	torrents := make([]Torrent, 0, len(status))
	for hash, s := range status {
		if s == nil {
			continue
		}

		t := Torrent{
			Hash:     hash,
			Name:     s.Name,
			SavePath: s.DownloadLocation,
		}
		if s.TrackerHost != "" {
			t.Trackers = []string{s.TrackerHost}
		}
		for _, f := range s.Files {
			t.Files = append(t.Files, inventory.File{Path: f.Path, Size: f.Size})
		}

		torrents = append(torrents, t)
	}

	sort.Slice(torrents, func(i, j int) bool { return torrents[i].Hash < torrents[j].Hash })
	return torrents, nil
}

func (c *Deluge) Fetch(ctx context.Context) (*inventory.Listing, error) {
	if err := c.Connect(ctx); err != nil {
		return nil, err
	}
	defer func() {
		if err := c.client.Close(); err != nil {
			c.log.WithError(err).Debug("Failed closing deluge connection")
		}
	}()

	torrents, err := c.GetTorrents(ctx)
	if err != nil {
		return nil, err
	}

	listing := &inventory.Listing{Owners: make([]inventory.Owner, 0, len(torrents))}
	for _, t := range torrents {
		listing.Owners = append(listing.Owners, t.owner())
	}

	return listing, nil
}
