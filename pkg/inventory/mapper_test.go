//go:build !windows

package inventory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathMapper_Resolve(t *testing.T) {
	mapper, err := NewPathMapper(map[string]string{
		"/downloads":        "/data/torrents",
		"/downloads/movies": "/data/torrents/films",
		"/media/":           "/data/media",
	})
	require.NoError(t, err)

	tests := []struct {
		name    string
		base    string
		path    string
		want    string
		wantErr bool
	}{
		{name: "longest prefix wins", path: "/downloads/movies/a.mkv", want: "/data/torrents/films/a.mkv"},
		{name: "shorter prefix", path: "/downloads/tv/b.mkv", want: "/data/torrents/tv/b.mkv"},
		{name: "boundary only", path: "/downloadsX/c.mkv", want: "/downloadsX/c.mkv"},
		{name: "exact prefix", path: "/media", want: "/data/media"},
		{name: "trailing slash in rule", path: "/media/Movie/m.mkv", want: "/data/media/Movie/m.mkv"},
		{name: "relative joined onto base", base: "/downloads", path: "Show/S01/e.mkv", want: "/data/torrents/Show/S01/e.mkv"},
		{name: "cleaned", path: "/media//Movie/./x/../m.mkv", want: "/data/media/Movie/m.mkv"},
		{name: "case preserved", path: "/Downloads/A.MKV", want: "/Downloads/A.MKV"},
		{name: "unmapped passthrough", path: "/other/file", want: "/other/file"},
		{name: "relative without base", path: "a/b.mkv", wantErr: true},
		{name: "empty", path: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := mapper.Resolve(tt.base, tt.path)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewPathMapper_RejectsRelative(t *testing.T) {
	_, err := NewPathMapper(map[string]string{"media": "/data/media"})
	require.ErrorIs(t, err, ErrRelativePath)
}

func TestPathMapper_Nil(t *testing.T) {
	var mapper *PathMapper
	got, err := mapper.Resolve("/base", "x")
	require.NoError(t, err)
	assert.Equal(t, "/base/x", got)
	assert.Zero(t, mapper.Len())
}
