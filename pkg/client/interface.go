package client

import (
	"context"
	"strings"
	"time"

	"github.com/avast/retry-go"

	"github.com/autobrr/arrmap/pkg/config"
	"github.com/autobrr/arrmap/pkg/httputils"
	"github.com/autobrr/arrmap/pkg/inventory"
)

// Interface is a torrent client that can list its torrents as an inventory source.
type Interface interface {
	inventory.Source
	Type() string
	Connect(ctx context.Context) error
}

// Torrent is the client-neutral view of one torrent.
type Torrent struct {
	Hash     string
	Name     string
	SavePath string
	Trackers []string
	Files    []inventory.File
}

func (t Torrent) owner() inventory.Owner {
	return inventory.Owner{
		ID:       strings.ToLower(t.Hash),
		Title:    t.Name,
		BasePath: t.SavePath,
		Trackers: t.Trackers,
		Files:    t.Files,
	}
}

// NewClient returns the client for cfg.Type.
func NewClient(cfg config.TorrentClientConfig, retries int) (Interface, error) {
	switch strings.ToLower(cfg.Type) {
	case config.TorrentClientQBittorrent:
		return NewQBittorrent(cfg, retries), nil
	case config.TorrentClientDeluge:
		return NewDeluge(cfg, retries), nil
	default:
		return nil, ErrUnsupportedClient
	}
}

// withRetry runs fn up to retries+1 times, retrying only transient errors.
func withRetry(ctx context.Context, retries int, fn func() error) error {
	return retry.Do(fn,
		retry.Context(ctx),
		retry.Attempts(uint(retries)+1),
		retry.Delay(500*time.Millisecond),
		retry.MaxDelay(5*time.Second),
		retry.LastErrorOnly(true),
		retry.RetryIf(isRetryable),
	)
}

func isRetryable(err error) bool {
	if httputils.IsTransient(err) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, s := range []string{"connection reset", "connection refused", "broken pipe", "eof", "i/o timeout"} {
		if strings.Contains(msg, s) {
			return true
		}
	}

	return false
}
