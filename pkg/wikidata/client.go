package wikidata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"warshipfetch/pkg/cache"
	"warshipfetch/pkg/request"
)

const sparqlAccept = "application/sparql-results+json"

// Client handles SPARQL queries.
// Set CacheQueries to key responses by query text in the request client's cache.
type Client struct {
	request        *request.Client
	SPARQLEndpoint string
	CacheQueries   bool
	Logger         *slog.Logger
}

// NewClient creates a new Wikidata client.
func NewClient(r *request.Client, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		request:        r,
		SPARQLEndpoint: DefaultEndpoint,
		Logger:         logger,
	}
}

// QuerySPARQL executes a SPARQL query and decodes the JSON result set.
// Every failure is a *FetchError; nothing is retried.
func (c *Client) QuerySPARQL(ctx context.Context, query string) (*RawResultSet, error) {
	u, err := url.Parse(c.SPARQLEndpoint)
	if err != nil {
		return nil, c.fail(ErrNetwork, fmt.Errorf("invalid endpoint: %w", err))
	}

	q := u.Query()
	q.Set("query", query)
	q.Set("format", "json")
	u.RawQuery = q.Encode()

	headers := map[string]string{
		"Accept": sparqlAccept,
	}

	cacheKey := ""
	if c.CacheQueries {
		cacheKey = cache.Key("sparql", c.SPARQLEndpoint+"\n"+query)
	}

	var result RawResultSet
	var decodeErr error
	decode := func(body []byte) error {
		result = RawResultSet{}
		decodeErr = json.Unmarshal(body, &result)
		if decodeErr != nil {
			decodeErr = fmt.Errorf("failed to decode json: %w", decodeErr)
		} else if result.Results == nil {
			decodeErr = errors.New("response has no results object")
		}
		return decodeErr
	}

	if _, err := c.request.GetWithHeaders(ctx, u.String(), headers, cacheKey, decode); err != nil {
		var se *request.StatusError
		switch {
		case errors.Is(err, request.ErrRejected):
			return nil, c.fail(ErrParse, decodeErr)
		case errors.As(err, &se):
			return nil, c.fail(ErrStatus, err)
		case request.IsTimeout(err):
			return nil, c.fail(ErrTimeout, err)
		default:
			return nil, c.fail(ErrNetwork, err)
		}
	}

	c.Logger.Debug("SPARQL result decoded", "bindings", result.Len(), "vars", result.Head.Vars)
	return &result, nil
}

// fail builds the FetchError. The Reporter tells the user; the log keeps the detail.
func (c *Client) fail(kind, err error) error {
	c.Logger.Debug("SPARQL query failed", "endpoint", c.SPARQLEndpoint, "kind", kind, "error", err)
	return &FetchError{Endpoint: c.SPARQLEndpoint, Kind: kind, Err: err}
}

// Runner is the fixed fetch step: it owns the query parameters and announces itself
// before the request goes out.
type Runner struct {
	client   *Client
	params   QueryParams
	progress func()
}

// NewRunner creates a Runner. progress, if non-nil, is called once before each request.
func NewRunner(c *Client, params QueryParams, progress func()) *Runner {
	return &Runner{client: c, params: params, progress: progress}
}

// Fetch builds the query and runs it once.
func (r *Runner) Fetch(ctx context.Context) (*RawResultSet, error) {
	query, err := BuildQuery(r.params)
	if err != nil {
		return nil, err
	}
	if r.progress != nil {
		r.progress()
	}
	r.client.Logger.Info("Fetching warships", "endpoint", r.client.SPARQLEndpoint, "class", r.params.Class, "limit", r.params.Limit)
	return r.client.QuerySPARQL(ctx, query)
}
