package pilot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultFetchTimeout is the default HTTP request timeout for imports.
	DefaultFetchTimeout = 30 * time.Second

	// DefaultMaxRetries is the default number of retry attempts.
	DefaultMaxRetries = 3

	// defaultBaseBackoff is the base delay for exponential backoff.
	defaultBaseBackoff = 500 * time.Millisecond

	// maxResponseBytes limits the response body to 10 MB.
	maxResponseBytes = 10 << 20
)

// FetchOption configures FetchCollection behavior.
type FetchOption func(*fetchConfig)

type fetchConfig struct {
	timeout     time.Duration
	maxRetries  int
	baseBackoff time.Duration
	client      *http.Client
}

func defaultFetchConfig() fetchConfig {
	return fetchConfig{
		timeout:     DefaultFetchTimeout,
		maxRetries:  DefaultMaxRetries,
		baseBackoff: defaultBaseBackoff,
	}
}

// WithTimeout sets the HTTP request timeout.
func WithTimeout(d time.Duration) FetchOption {
	return func(c *fetchConfig) {
		c.timeout = d
	}
}

// WithMaxRetries sets the maximum number of attempts.
func WithMaxRetries(n int) FetchOption {
	return func(c *fetchConfig) {
		c.maxRetries = n
	}
}

// WithBaseBackoff sets the base delay for exponential backoff between retries.
func WithBaseBackoff(d time.Duration) FetchOption {
	return func(c *fetchConfig) {
		c.baseBackoff = d
	}
}

// WithHTTPClient overrides the default HTTP client (useful for testing).
func WithHTTPClient(client *http.Client) FetchOption {
	return func(c *fetchConfig) {
		c.client = client
	}
}

// FetchCollection downloads a waypoint collection, either a store JSON
// document or a KML file. Transient failures are retried with exponential
// backoff; a body that does not parse is not retried.
func FetchCollection(ctx context.Context, url string, opts ...FetchOption) (*WaypointCollection, error) {
	if url == "" {
		return nil, fmt.Errorf("fetch waypoints: URL is empty")
	}

	cfg := defaultFetchConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.maxRetries < 1 {
		cfg.maxRetries = 1
	}

	client := cfg.client
	if client == nil {
		client = &http.Client{Timeout: cfg.timeout}
	}

	var lastErr error
	for attempt := range cfg.maxRetries {
		if attempt > 0 {
			backoff := cfg.baseBackoff * time.Duration(math.Pow(2, float64(attempt-1)))
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("fetch waypoints: %w", ctx.Err())
			case <-time.After(backoff):
			}
		}

		body, contentType, err := doFetch(ctx, client, url)
		if err != nil {
			lastErr = err
			continue
		}

		c, err := DecodeCollection(body, contentType)
		if err != nil {
			return nil, fmt.Errorf("fetch waypoints: %w", err)
		}
		return c, nil
	}

	return nil, fmt.Errorf("fetch waypoints: all %d attempts failed: %w", cfg.maxRetries, lastErr)
}

// DecodeCollection parses a store JSON document or, when the content type or
// the payload says so, a KML document.
func DecodeCollection(data []byte, contentType string) (*WaypointCollection, error) {
	trimmed := bytes.TrimSpace(data)
	if strings.Contains(contentType, "kml") || strings.Contains(contentType, "xml") || bytes.HasPrefix(trimmed, []byte("<")) {
		return ParseKML(trimmed)
	}

	c := &WaypointCollection{}
	if err := json.Unmarshal(trimmed, c); err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}
	for _, p := range c.Points {
		if err := ValidateCoordinates(p.Latitude, p.Longitude); err != nil {
			return nil, fmt.Errorf("point %q: %w", p.Name, err)
		}
	}
	for _, r := range c.Routes {
		for _, p := range r.Points {
			if err := ValidateCoordinates(p.Latitude, p.Longitude); err != nil {
				return nil, fmt.Errorf("route %q point %q: %w", r.Name, p.Name, err)
			}
		}
	}
	c.normalize()
	return c, nil
}

// Merge appends every point of other through AddPoint, so routes with the
// same name are extended and empty imported routes are dropped.
func (c *WaypointCollection) Merge(other *WaypointCollection) {
	for _, p := range other.Points {
		c.AddPoint(p.Name, "", p.Latitude, p.Longitude)
	}
	for _, r := range other.Routes {
		for _, p := range r.Points {
			c.AddPoint(p.Name, r.Name, p.Latitude, p.Longitude)
		}
	}
}

// doFetch performs a single HTTP GET and returns the body and content type.
func doFetch(ctx context.Context, client *http.Client, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json, application/vnd.google-earth.kml+xml")

	resp, err := client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("HTTP GET %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("HTTP GET %s: status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, "", fmt.Errorf("reading response from %s: %w", url, err)
	}

	return body, resp.Header.Get("Content-Type"), nil
}
