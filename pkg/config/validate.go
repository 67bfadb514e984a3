package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

var ErrInvalid = errors.New("invalid configuration")

// Validate reports every problem at once, wrapped in ErrInvalid.
func (c *Configuration) Validate() error {
	var problems []string
	add := func(format string, args ...interface{}) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if len(c.Roots.Torrent) == 0 && len(c.Roots.Library) == 0 {
		add("no roots configured")
	}
	for _, r := range append(append([]string{}, c.Roots.Torrent...), c.Roots.Library...) {
		if !filepath.IsAbs(r) {
			add("root %q is not absolute", r)
		}
	}

	validateMapping("path_mapping", c.PathMapping, add)

	if c.Timeouts.Source < 0 {
		add("timeouts.source must not be negative")
	}
	if c.Timeouts.Filesystem < 0 {
		add("timeouts.filesystem must not be negative")
	}
	if c.Retries < 0 {
		add("retries must not be negative")
	}
	if c.Workers < 0 {
		add("workers must not be negative")
	}

	if tc := c.TorrentClient; tc.Enabled {
		switch strings.ToLower(tc.Type) {
		case TorrentClientQBittorrent:
			if !validURL(tc.URL) {
				add("torrent_client.url %q is not a valid url", tc.URL)
			}
		case TorrentClientDeluge:
			if tc.Host == "" {
				add("torrent_client.host is required for deluge")
			}
			if tc.Port <= 0 || tc.Port > 65535 {
				add("torrent_client.port %d is out of range", tc.Port)
			}
		default:
			add("torrent_client.type %q is not supported", tc.Type)
		}
		validateMapping("torrent_client.path_mapping", tc.PathMapping, add)
	}

	for name, arr := range map[string]ArrConfig{"radarr": c.Radarr, "sonarr": c.Sonarr} {
		if !arr.Enabled {
			continue
		}
		if !validURL(arr.URL) {
			add("%s.url %q is not a valid url", name, arr.URL)
		}
		if arr.APIKey == "" {
			add("%s.api_key is required", name)
		}
		validateMapping(name+".path_mapping", arr.PathMapping, add)
	}

	if len(problems) == 0 {
		return nil
	}

	// map iteration above is unordered
	sort.Strings(problems)
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
}

func validateMapping(name string, m map[string]string, add func(string, ...interface{})) {
	for from, to := range m {
		if !filepath.IsAbs(from) || !filepath.IsAbs(to) {
			add("%s %q -> %q must map absolute paths", name, from, to)
		}
	}
}

func validURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
