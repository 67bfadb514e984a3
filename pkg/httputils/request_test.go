package httputils

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/ratelimit"
)

func newTestClient() *http.Client {
	return NewRetryableHttpClient(5*time.Second, ratelimit.NewUnlimited(), nil,
		WithRetries(3), WithBackoff(time.Millisecond, 2*time.Millisecond))
}

func TestMakeAPIRequest_Retries(t *testing.T) {
	tests := []struct {
		name         string
		statuses     []int
		wantAttempts int32
		wantStatus   int
	}{
		{name: "ok first time", statuses: []int{200}, wantAttempts: 1},
		{name: "503 then ok", statuses: []int{503, 503, 200}, wantAttempts: 3},
		{name: "429 then ok", statuses: []int{429, 200}, wantAttempts: 2},
		{name: "404 is not retried", statuses: []int{404}, wantAttempts: 1, wantStatus: 404},
		{name: "401 is not retried", statuses: []int{401}, wantAttempts: 1, wantStatus: 401},
		{name: "500 exhausts retries", statuses: []int{500, 500, 500, 500}, wantAttempts: 4, wantStatus: 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var attempts atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				n := attempts.Add(1)
				assert.Equal(t, "secret", r.Header.Get("X-Api-Key"))
				status := tt.statuses[min(int(n)-1, len(tt.statuses)-1)]
				w.WriteHeader(status)
				if status == 200 {
					fmt.Fprint(w, `{"id": 7}`)
				}
			}))
			defer srv.Close()

			var out struct {
				ID int `json:"id"`
			}
			err := MakeAPIRequest(context.Background(), newTestClient(), http.MethodGet, srv.URL, nil,
				map[string]string{"X-Api-Key": "secret"}, &out)

			assert.Equal(t, tt.wantAttempts, attempts.Load())
			if tt.wantStatus == 0 {
				require.NoError(t, err)
				assert.Equal(t, 7, out.ID)
				return
			}

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.wantStatus, apiErr.StatusCode)
		})
	}
}

func TestMakeAPIRequest_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := MakeAPIRequest(ctx, newTestClient(), http.MethodGet, srv.URL, nil, nil, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.False(t, IsTransient(err))
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "503", err: &APIError{StatusCode: 503}, want: true},
		{name: "429", err: &APIError{StatusCode: 429}, want: true},
		{name: "403", err: &APIError{StatusCode: 403}, want: false},
		{name: "wrapped 502", err: fmt.Errorf("list: %w", &APIError{StatusCode: 502}), want: true},
		{name: "url error", err: &url.Error{Op: "Get", URL: "http://x", Err: errors.New("connection refused")}, want: true},
		{name: "cancelled", err: context.Canceled, want: false},
		{name: "plain", err: errors.New("boom"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestURLWithQuery(t *testing.T) {
	got, err := URLWithQuery("http://radarr:7878/api/v3/moviefile?x=1", url.Values{"movieId": []string{"3"}})
	require.NoError(t, err)
	assert.Equal(t, "http://radarr:7878/api/v3/moviefile?movieId=3&x=1", got)
}
