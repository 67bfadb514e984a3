package tracker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomain(t *testing.T) {
	tests := []struct {
		name     string
		announce string
		want     string
	}{
		{name: "https with passkey", announce: "https://tracker.example.org:443/abcdef/announce", want: "example.org"},
		{name: "udp", announce: "udp://open.tracker.example.com:1337/announce", want: "example.com"},
		{name: "bare host", announce: "landof.tv", want: "landof.tv"},
		{name: "upper case", announce: "HTTPS://Tracker.Example.ORG/announce", want: "example.org"},
		{name: "ip address", announce: "http://10.0.0.5:6969/announce", want: "10.0.0.5"},
		{name: "empty", announce: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Domain(tt.announce))
		})
	}
}

func TestDomains(t *testing.T) {
	got := Domains([]string{
		"** [DHT] **",
		"[PeX]",
		"https://a.example.org/announce",
		"https://b.example.org/announce",
		"https://tracker.other.net/announce",
	})
	assert.Equal(t, []string{"example.org", "other.net"}, got)
}

func TestIsPseudo(t *testing.T) {
	assert.True(t, IsPseudo("[DHT]"))
	assert.True(t, IsPseudo("** [LSD] **"))
	assert.False(t, IsPseudo("https://tracker.example.org/announce"))
}
