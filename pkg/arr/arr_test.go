package arr

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autobrr/arrmap/pkg/config"
	"github.com/autobrr/arrmap/pkg/httputils"
	"github.com/autobrr/arrmap/pkg/inventory"
)

func newServer(t *testing.T, routes map[string]func(w http.ResponseWriter, r *http.Request)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Api-Key") != "key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		key := r.URL.Path
		if r.URL.RawQuery != "" {
			key += "?" + r.URL.RawQuery
		}
		h, ok := routes[key]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		h(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func body(s string) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, s)
	}
}

func TestRadarr_Fetch(t *testing.T) {
	srv := newServer(t, map[string]func(w http.ResponseWriter, r *http.Request){
		"/api/v3/movie": body(`[
			{"id": 1, "title": "Movie", "year": 2020, "path": "/media/movies/Movie (2020)", "hasFile": true,
			 "movieFile": {"id": 11, "path": "/media/movies/Movie (2020)/movie.mkv", "relativePath": "movie.mkv", "size": 100}},
			{"id": 2, "title": "Wanted", "year": 2021, "path": "/media/movies/Wanted (2021)", "hasFile": false},
			{"id": 3, "title": "Relative", "path": "/media/movies/Relative", "hasFile": true,
			 "movieFile": {"id": 13, "relativePath": "relative.mkv", "size": 5}}
		]`),
	})

	r := NewRadarr(config.ArrConfig{URL: srv.URL + "/", APIKey: "key"}, 0)
	listing, err := r.Fetch(context.Background())
	require.NoError(t, err)

	assert.Empty(t, listing.Problems)
	assert.Equal(t, []inventory.Owner{
		{
			ID:       "1",
			Title:    "Movie (2020)",
			BasePath: "/media/movies/Movie (2020)",
			Files:    []inventory.File{{Path: "/media/movies/Movie (2020)/movie.mkv", Size: 100}},
		},
		{
			ID:       "3",
			Title:    "Relative",
			BasePath: "/media/movies/Relative",
			Files:    []inventory.File{{Path: "relative.mkv", Size: 5}},
		},
	}, listing.Owners)
}

func TestRadarr_Unauthorized(t *testing.T) {
	srv := newServer(t, nil)

	r := NewRadarr(config.ArrConfig{URL: srv.URL, APIKey: "wrong"}, 3)
	_, err := r.Fetch(context.Background())

	var apiErr *httputils.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}

func TestSonarr_Fetch(t *testing.T) {
	srv := newServer(t, map[string]func(w http.ResponseWriter, r *http.Request){
		"/api/v3/series": body(`[
			{"id": 1, "title": "Show", "path": "/media/tv/Show", "statistics": {"episodeFileCount": 2}},
			{"id": 2, "title": "Empty", "path": "/media/tv/Empty", "statistics": {"episodeFileCount": 0}},
			{"id": 3, "title": "Broken", "path": "/media/tv/Broken", "episodeFileCount": 1}
		]`),
		"/api/v3/episodefile?seriesId=1": body(`[
			{"id": 21, "seriesId": 1, "path": "/media/tv/Show/Season 01/S01E02.mkv", "relativePath": "Season 01/S01E02.mkv", "size": 20},
			{"id": 20, "seriesId": 1, "path": "/media/tv/Show/Season 01/S01E01.mkv", "relativePath": "Season 01/S01E01.mkv", "size": 10}
		]`),
		"/api/v3/episodefile?seriesId=3": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		},
	})

	s := NewSonarr(config.ArrConfig{URL: srv.URL, APIKey: "key"}, 0)
	listing, err := s.Fetch(context.Background())
	require.NoError(t, err)

	require.Len(t, listing.Problems, 1)
	assert.Contains(t, listing.Problems[0], "series 3")

	require.Len(t, listing.Owners, 2)
	assert.Equal(t, inventory.Owner{
		ID:       "20",
		Title:    "Show - Season 01/S01E01.mkv",
		BasePath: "/media/tv/Show",
		Files:    []inventory.File{{Path: "/media/tv/Show/Season 01/S01E01.mkv", Size: 10}},
	}, listing.Owners[0])
	assert.Equal(t, "21", listing.Owners[1].ID)
}
