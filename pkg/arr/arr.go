package arr

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"

	"github.com/autobrr/arrmap/pkg/config"
	"github.com/autobrr/arrmap/pkg/httputils"
)

const (
	requestTimeout    = 30 * time.Second
	requestsPerSecond = 2
)

type api struct {
	baseURL string
	http    *http.Client
	headers map[string]string
	log     *logrus.Entry
}

func newAPI(cfg config.ArrConfig, retries int, log *logrus.Entry) *api {
	return &api{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		http: httputils.NewRetryableHttpClient(requestTimeout, ratelimit.New(requestsPerSecond, ratelimit.WithoutSlack), log,
			httputils.WithRetries(retries)),
		headers: map[string]string{
			"Accept":    "application/json",
			"X-Api-Key": cfg.APIKey,
		},
		log: log,
	}
}

func (a *api) get(ctx context.Context, path string, query url.Values, out any) error {
	requestURL, err := httputils.URLWithQuery(a.baseURL+path, query)
	if err != nil {
		return fmt.Errorf("creating request URL: %w", err)
	}

	if err := httputils.MakeAPIRequest(ctx, a.http, http.MethodGet, requestURL, nil, a.headers, out); err != nil {
		return fmt.Errorf("making api request: %w", err)
	}

	return nil
}
