package request

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"warshipfetch/pkg/cache"
	"warshipfetch/pkg/tracker"
)

// DefaultTimeout bounds a single request, including reading the body.
const DefaultTimeout = 60 * time.Second

// maxErrorBody caps how much of a failed response is kept for the error message.
const maxErrorBody = 512

// StatusError is returned for responses outside the 2xx range.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("api error: status %d", e.Code)
	}
	return fmt.Sprintf("api error: status %d: %s", e.Code, e.Body)
}

// Options configures a Client.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	Logger    *slog.Logger // request log; slog.Default() if nil
}

// Client performs single-attempt HTTP requests with optional caching and tracking.
type Client struct {
	httpClient *http.Client
	cache      cache.Cacher
	tracker    *tracker.Tracker
	userAgent  string
	logger     *slog.Logger
}

// New creates a new Client. A nil cacher disables caching.
func New(c cache.Cacher, t *tracker.Tracker, opts Options) *Client {
	if c == nil {
		c = cache.Noop{}
	}
	if t == nil {
		t = tracker.New()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Client{
		httpClient: &http.Client{Timeout: opts.Timeout},
		cache:      c,
		tracker:    t,
		userAgent:  opts.UserAgent,
		logger:     opts.Logger,
	}
}

// ErrRejected wraps the error of a Validator that refused a response body.
var ErrRejected = errors.New("response rejected")

// Validator checks a response body before it is returned or cached.
type Validator func(body []byte) error

// GetWithHeaders performs a GET request with custom headers and optional caching.
// There is exactly one network attempt; failures are returned to the caller.
// When validate is non-nil, only bodies it accepts are cached, and a cached body it
// rejects counts as a miss.
func (c *Client) GetWithHeaders(ctx context.Context, u string, headers map[string]string, cacheKey string, validate Validator) ([]byte, error) {
	parsedURL, err := url.Parse(u)
	if err != nil {
		return nil, fmt.Errorf("invalid url: %w", err)
	}
	provider := normalizeProvider(parsedURL.Host)

	if cacheKey != "" {
		if val, hit := c.cache.GetCache(ctx, cacheKey); hit {
			if validate == nil || validate(val) == nil {
				c.tracker.TrackCacheHit(provider)
				c.logger.Debug("Cache Hit", "provider", provider, "key", cacheKey)
				return val, nil
			}
			c.logger.Debug("Cache entry rejected", "provider", provider, "key", cacheKey)
		}
		c.tracker.TrackCacheMiss(provider)
		c.logger.Debug("Cache Miss", "provider", provider, "key", cacheKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.applyHeaders(req, headers)

	body, err := c.execute(req)
	if err != nil {
		c.tracker.TrackAPIFailure(provider)
		return nil, err
	}
	if validate != nil {
		if err := validate(body); err != nil {
			c.tracker.TrackAPIFailure(provider)
			c.logger.Warn("Response rejected", "provider", provider, "bytes", len(body), "error", err)
			return nil, fmt.Errorf("%w: %w", ErrRejected, err)
		}
	}
	c.tracker.TrackAPISuccess(provider)

	if cacheKey != "" {
		if err := c.cache.SetCache(ctx, cacheKey, body); err != nil {
			c.logger.Error("Failed to cache response", "provider", provider, "key", cacheKey, "error", err)
		}
	}
	return body, nil
}

// applyHeaders sets caller headers and falls back to the client User-Agent.
func (c *Client) applyHeaders(req *http.Request, headers map[string]string) {
	uaSet := false
	for k, v := range headers {
		req.Header.Set(k, v)
		if http.CanonicalHeaderKey(k) == "User-Agent" {
			uaSet = true
		}
	}
	if !uaSet && c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
}

func (c *Client) execute(req *http.Request) ([]byte, error) {
	start := time.Now()
	c.logger.Info("Network Request", "method", req.Method, "host", req.URL.Host, "path", req.URL.Path)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Request failed", "host", req.URL.Host, "error", err, "elapsed", time.Since(start))
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.logger.Warn("Request rejected", "host", req.URL.Host, "status", resp.StatusCode, "elapsed", time.Since(start))
		return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read error: %w", err)
	}
	c.logger.Info("Network Response", "host", req.URL.Host, "status", resp.StatusCode, "bytes", len(body), "elapsed", time.Since(start))
	return body, nil
}

// IsTimeout reports whether err came from a client or context deadline.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne interface{ Timeout() bool }
	return errors.As(err, &ne) && ne.Timeout()
}

func normalizeProvider(host string) string {
	// Group all wikidata subdomains (www, query, etc.) into one "wikidata" provider
	if strings.HasSuffix(host, ".wikidata.org") || host == "wikidata.org" {
		return "wikidata"
	}
	if strings.HasSuffix(host, ".wikipedia.org") || host == "wikipedia.org" {
		return "wikipedia"
	}
	if strings.HasSuffix(host, ".wikimedia.org") || host == "wikimedia.org" {
		return "wikimedia"
	}
	return host
}
