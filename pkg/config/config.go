package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/pkg/errors"
)

const (
	EnvPrefix = "ARRMAP_"

	// keyDelim is not "." so path_mapping keys may contain dots.
	keyDelim = "::"

	TorrentClientQBittorrent = "qbittorrent"
	TorrentClientDeluge      = "deluge"
)

type Configuration struct {
	Roots         RootsConfig         `koanf:"roots" yaml:"roots"`
	PathMapping   map[string]string   `koanf:"path_mapping" yaml:"path_mapping,omitempty"`
	Timeouts      TimeoutsConfig      `koanf:"timeouts" yaml:"timeouts"`
	Retries       int                 `koanf:"retries" yaml:"retries"`
	Workers       int                 `koanf:"workers" yaml:"workers"`
	TorrentClient TorrentClientConfig `koanf:"torrent_client" yaml:"torrent_client"`
	Radarr        ArrConfig           `koanf:"radarr" yaml:"radarr"`
	Sonarr        ArrConfig           `koanf:"sonarr" yaml:"sonarr"`
	Orphan        OrphanConfig        `koanf:"orphan" yaml:"orphan"`
	Notifications NotificationsConfig `koanf:"notifications" yaml:"notifications"`
}

type RootsConfig struct {
	Torrent []string `koanf:"torrent" yaml:"torrent"`
	Library []string `koanf:"library" yaml:"library"`
}

type TimeoutsConfig struct {
	// Source bounds each collaborator fetch.
	Source time.Duration `koanf:"source" yaml:"source"`
	// Filesystem bounds the whole walk, 0 means no deadline.
	Filesystem time.Duration `koanf:"filesystem" yaml:"filesystem"`
}

type TorrentClientConfig struct {
	Type        string            `koanf:"type" yaml:"type"`
	Enabled     bool              `koanf:"enabled" yaml:"enabled"`
	URL         string            `koanf:"url" yaml:"url,omitempty"`
	Host        string            `koanf:"host" yaml:"host,omitempty"`
	Port        int               `koanf:"port" yaml:"port,omitempty"`
	User        string            `koanf:"user" yaml:"user,omitempty"`
	Password    string            `koanf:"password" yaml:"password,omitempty"`
	BasicUser   string            `koanf:"basic_user" yaml:"basic_user,omitempty"`
	BasicPass   string            `koanf:"basic_pass" yaml:"basic_pass,omitempty"`
	PathMapping map[string]string `koanf:"path_mapping" yaml:"path_mapping,omitempty"`
}

type ArrConfig struct {
	Enabled     bool              `koanf:"enabled" yaml:"enabled"`
	URL         string            `koanf:"url" yaml:"url"`
	APIKey      string            `koanf:"api_key" yaml:"api_key,omitempty"`
	PathMapping map[string]string `koanf:"path_mapping" yaml:"path_mapping,omitempty"`
}

type OrphanConfig struct {
	Ignore []string `koanf:"ignore" yaml:"ignore,omitempty"`
}

// DefaultOrphanIgnore annotates library sidecars, samples and files under 1 MB,
// which media managers routinely leave untracked. A configured orphan.ignore
// list replaces it; an empty list disables it.
var DefaultOrphanIgnore = []string{
	`RootKind == "library" && Ext in ["srt", "nfo", "png", "jpg", "txt", "srr"]`,
	`RootKind == "library" && Contains(lower(Name), "sample")`,
	`RootKind == "library" && Size < 1000000`,
}

var defaults = map[string]interface{}{
	"timeouts.source":     "30s",
	"timeouts.filesystem": "0s",
	"retries":             2,
	"torrent_client.type": TorrentClientQBittorrent,
	"torrent_client.url":  "http://localhost:8080",
	"torrent_client.host": "localhost",
	"torrent_client.port": 58846,
	"radarr.url":          "http://localhost:7878",
	"sonarr.url":          "http://localhost:8989",
	"orphan.ignore":       DefaultOrphanIgnore,
}

// Load reads defaults, then the yaml file at path (if any), then ARRMAP_ env
// vars, later sources overriding earlier ones. Nesting in env names uses "__",
// e.g. ARRMAP_RADARR__API_KEY.
func Load(path string) (*Configuration, error) {
	k := koanf.New(keyDelim)

	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return nil, errors.Wrap(err, "load defaults")
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, errors.Wrapf(err, "load config file %s", path)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, keyDelim, envKey), nil); err != nil {
		return nil, errors.Wrap(err, "load environment")
	}

	cfg := &Configuration{}
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}

	return cfg, nil
}

func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", keyDelim)
}

// GetDefaultConfigDirectory returns the working directory when it already holds
// filename, otherwise the per-user config directory for app.
func GetDefaultConfigDirectory(app, filename string) string {
	if wd, err := os.Getwd(); err == nil {
		if _, err := os.Stat(filepath.Join(wd, filename)); err == nil {
			return wd
		}
	}

	dir, err := os.UserConfigDir()
	if err != nil {
		return "."
	}

	return filepath.Join(dir, app)
}

// Redacted returns a copy safe to print.
func (c Configuration) Redacted() Configuration {
	c.TorrentClient.Password = mask(c.TorrentClient.Password)
	c.TorrentClient.BasicPass = mask(c.TorrentClient.BasicPass)
	c.Radarr.APIKey = mask(c.Radarr.APIKey)
	c.Sonarr.APIKey = mask(c.Sonarr.APIKey)
	c.Notifications.Service.Discord = mask(c.Notifications.Service.Discord)
	return c
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return "********"
}
