package radar

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

var (
	errServerError  = errors.New("server error")
	errUnexpected   = errors.New("unexpected status code")
	errNoHTTPClient = errors.New("http client not configured")
)

// rainMapHeaders is the fixed header set sent with every tile request.
var rainMapHeaders = map[string]string{
	"User-Agent": "Mozilla/5.0 (compatible; rain-radar-camera)",
	"Referer":    "https://www.nea.gov.sg/weather/rain-areas",
	"Accept":     "image/png,image/*;q=0.8",
}

// Fetcher retrieves the raw tile bytes for one bucket timestamp.
type Fetcher interface {
	FetchFrame(ctx context.Context, ts time.Time) ([]byte, error)
}

// HTTPFetcher fetches tiles from the NEA rain-area endpoint. All requests
// share one circuit breaker for the upstream host, so a flapping API fails
// fast instead of stacking up ten slow requests per cycle.
type HTTPFetcher struct {
	client    *http.Client
	urlPrefix string
	urlSuffix string
	circuit   *gobreaker.CircuitBreaker
}

// NewHTTPFetcher creates a fetcher on top of the shared outbound client.
func NewHTTPFetcher(client *http.Client) *HTTPFetcher {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "nea-rain-map",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &HTTPFetcher{
		client:    client,
		urlPrefix: rainMapURLPrefix,
		urlSuffix: rainMapURLSuffix,
		circuit:   cb,
	}
}

// FetchFrame issues one GET for the tile named by ts. There is no in-cycle
// retry: a failed bucket is simply absent until the next polling cycle
// re-requests the whole window.
func (f *HTTPFetcher) FetchFrame(ctx context.Context, ts time.Time) ([]byte, error) {
	if f.client == nil {
		return nil, errNoHTTPClient
	}

	url := f.urlPrefix + ts.In(sgTime).Format(frameTimeLayout) + f.urlSuffix

	result, err := f.circuit.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		for k, v := range rainMapHeaders {
			req.Header.Set(k, v)
		}

		resp, err := f.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			return nil, fmt.Errorf("%w: %d", errServerError, resp.StatusCode)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("%w: %d", errUnexpected, resp.StatusCode)
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		return body, nil
	})
	if err != nil {
		return nil, err
	}

	body, ok := result.([]byte)
	if !ok {
		return nil, fmt.Errorf("unexpected result type from circuit breaker")
	}
	return body, nil
}
