package tracker

import (
	"net/url"
	"sort"
	"strings"

	"github.com/bobesa/go-domain-util/domainutil"
	"github.com/scylladb/go-set/strset"
)

// pseudoTrackers are the entries qBittorrent lists alongside real trackers.
var pseudoTrackers = map[string]struct{}{
	"[DHT]": {},
	"[LSD]": {},
	"[PeX]": {},
}

// IsPseudo reports whether u is a peer source rather than a tracker url.
func IsPseudo(u string) bool {
	if _, ok := pseudoTrackers[u]; ok {
		return true
	}
	return strings.HasPrefix(u, "**")
}

// Host returns the lower-cased host of an announce url, or of a bare host.
func Host(announce string) string {
	announce = strings.TrimSpace(announce)
	if announce == "" {
		return ""
	}

	if !strings.Contains(announce, "://") {
		announce = "http://" + announce
	}

	u, err := url.Parse(announce)
	if err != nil {
		return ""
	}

	return strings.ToLower(u.Hostname())
}

// Domain reduces an announce url to its registrable domain, so
// tracker.example.org and announce.example.org compare equal. Hosts without a
// public suffix (IPs, localhost) are returned as-is.
func Domain(announce string) string {
	host := Host(announce)
	if host == "" {
		return ""
	}

	if d := domainutil.Domain(host); d != "" {
		return strings.ToLower(d)
	}

	return host
}

// Domains maps announce urls to sorted, unique domains, skipping pseudo trackers.
func Domains(announces []string) []string {
	set := strset.NewWithSize(len(announces))
	for _, a := range announces {
		if IsPseudo(a) {
			continue
		}
		if d := Domain(a); d != "" {
			set.Add(d)
		}
	}

	out := set.List()
	sort.Strings(out)
	return out
}
