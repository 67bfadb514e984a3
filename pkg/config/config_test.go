package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
roots:
  torrent:
    - /data/torrents
  library:
    - /data/media
path_mapping:
  /downloads: /data/torrents
timeouts:
  source: 45s
torrent_client:
  type: qbittorrent
  enabled: true
  url: http://qbit:8080
  user: admin
  password: hunter2
radarr:
  enabled: true
  url: http://radarr:7878
  api_key: abc
orphan:
  ignore:
    - 'HasSuffix(Path, ".nfo")'
notifications:
  detailed: true
  service:
    discord: https://discord.com/api/webhooks/x
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func TestLoad(t *testing.T) {
	t.Setenv("ARRMAP_SONARR__API_KEY", "from-env")
	t.Setenv("ARRMAP_SONARR__ENABLED", "true")

	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, []string{"/data/torrents"}, cfg.Roots.Torrent)
	assert.Equal(t, []string{"/data/media"}, cfg.Roots.Library)
	assert.Equal(t, map[string]string{"/downloads": "/data/torrents"}, cfg.PathMapping)
	assert.Equal(t, 45*time.Second, cfg.Timeouts.Source)
	assert.Zero(t, cfg.Timeouts.Filesystem)
	assert.Equal(t, 2, cfg.Retries)
	assert.Equal(t, "http://qbit:8080", cfg.TorrentClient.URL)
	assert.Equal(t, 58846, cfg.TorrentClient.Port)
	assert.True(t, cfg.Radarr.Enabled)
	assert.Equal(t, "abc", cfg.Radarr.APIKey)
	assert.True(t, cfg.Sonarr.Enabled)
	assert.Equal(t, "from-env", cfg.Sonarr.APIKey)
	assert.Equal(t, "http://localhost:8989", cfg.Sonarr.URL)
	assert.Equal(t, []string{`HasSuffix(Path, ".nfo")`}, cfg.Orphan.Ignore)
	assert.True(t, cfg.Notifications.Detailed)
	require.NoError(t, cfg.Validate())
}

func TestLoad_DefaultOrphanIgnore(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{
			name:    "not configured",
			content: "roots:\n  library: [/data/media]\n",
			want:    DefaultOrphanIgnore,
		},
		{
			name:    "configured list replaces defaults",
			content: "roots:\n  library: [/data/media]\norphan:\n  ignore:\n    - 'Size < 10'\n",
			want:    []string{"Size < 10"},
		},
		{
			name:    "empty list disables defaults",
			content: "roots:\n  library: [/data/media]\norphan:\n  ignore: []\n",
			want:    []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, tt.content))
			require.NoError(t, err)
			assert.ElementsMatch(t, tt.want, cfg.Orphan.Ignore)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Configuration {
		return &Configuration{
			Roots:    RootsConfig{Torrent: []string{"/data/torrents"}},
			Timeouts: TimeoutsConfig{Source: time.Second},
			TorrentClient: TorrentClientConfig{
				Type: TorrentClientDeluge, Enabled: true, Host: "localhost", Port: 58846,
			},
		}
	}

	tests := []struct {
		name   string
		mutate func(c *Configuration)
		want   string
	}{
		{name: "valid", mutate: func(c *Configuration) {}},
		{name: "no roots", mutate: func(c *Configuration) { c.Roots = RootsConfig{} }, want: "no roots"},
		{name: "relative root", mutate: func(c *Configuration) { c.Roots.Library = []string{"media"} }, want: `root "media"`},
		{name: "negative timeout", mutate: func(c *Configuration) { c.Timeouts.Source = -time.Second }, want: "timeouts.source"},
		{name: "negative retries", mutate: func(c *Configuration) { c.Retries = -1 }, want: "retries"},
		{name: "relative mapping", mutate: func(c *Configuration) { c.PathMapping = map[string]string{"/a": "b"} }, want: "must map absolute paths"},
		{name: "unknown client", mutate: func(c *Configuration) { c.TorrentClient.Type = "transmission" }, want: "not supported"},
		{name: "disabled unknown client", mutate: func(c *Configuration) {
			c.TorrentClient.Type = "transmission"
			c.TorrentClient.Enabled = false
		}},
		{name: "qbit without url", mutate: func(c *Configuration) {
			c.TorrentClient.Type = TorrentClientQBittorrent
			c.TorrentClient.URL = ""
		}, want: "torrent_client.url"},
		{name: "radarr without key", mutate: func(c *Configuration) {
			c.Radarr = ArrConfig{Enabled: true, URL: "http://radarr:7878"}
		}, want: "radarr.api_key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.want == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrInvalid)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRedacted(t *testing.T) {
	c := Configuration{
		TorrentClient: TorrentClientConfig{Password: "secret"},
		Radarr:        ArrConfig{APIKey: "key"},
	}

	r := c.Redacted()
	assert.Equal(t, "********", r.TorrentClient.Password)
	assert.Equal(t, "********", r.Radarr.APIKey)
	assert.Empty(t, r.Sonarr.APIKey)
	assert.Equal(t, "secret", c.TorrentClient.Password)
}
