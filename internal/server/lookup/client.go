// Package lookup talks to a BoardGameGeek XML API2 compatible metadata
// service: free-text search and per-game details.
package lookup

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/dmitrijs2005/playtracker/internal/common"
	"github.com/dmitrijs2005/playtracker/internal/logging"
	"github.com/dmitrijs2005/playtracker/internal/server/models"
)

const (
	// MinQueryLength is the shortest query sent to the service.
	MinQueryLength = 3
	DefaultLimit   = 10
)

// Doer is satisfied by *fasthttp.Client.
type Doer interface {
	DoDeadline(req *fasthttp.Request, resp *fasthttp.Response, deadline time.Time) error
}

// Cache stores details documents by external id.
type Cache interface {
	Get(ctx context.Context, externalID string) (*models.GameDetails, bool, error)
	Set(ctx context.Context, d *models.GameDetails) error
}

type Client struct {
	baseURL    string
	http       Doer
	timeout    time.Duration
	retryDelay time.Duration
	limit      int
	cache      Cache
	samples    []models.SearchResult
	log        logging.Logger
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithRetryDelay sets the pause before re-asking for a document the
// service is still processing.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Client) { c.retryDelay = d }
}

func WithLimit(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.limit = n
		}
	}
}

func WithDoer(d Doer) Option {
	return func(c *Client) { c.http = d }
}

func WithCache(cache Cache) Option {
	return func(c *Client) { c.cache = cache }
}

func WithSamples(s []models.SearchResult) Option {
	return func(c *Client) { c.samples = s }
}

func NewClient(baseURL string, log logging.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		http:       &fasthttp.Client{ReadTimeout: 10 * time.Second, WriteTimeout: 10 * time.Second, MaxConnsPerHost: 16},
		timeout:    5 * time.Second,
		retryDelay: time.Second,
		limit:      DefaultLimit,
		samples:    Samples(),
		log:        log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search returns at most limit games whose name matches query. Queries
// shorter than MinQueryLength return an empty list without any request.
// Failures never reach the caller: the embedded sample list is filtered
// instead and the degradation is logged. A cancelled ctx yields an empty
// list and is not treated as degradation.
func (c *Client) Search(ctx context.Context, query string) []models.SearchResult {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < MinQueryLength {
		return []models.SearchResult{}
	}

	results, err := c.search(ctx, query)
	if err != nil {
		if ctx.Err() != nil {
			c.log.Debug(ctx, "metadata search cancelled", "query", query)
			return []models.SearchResult{}
		}
		c.log.Warn(ctx, "metadata search degraded, using samples",
			"query", query, "degraded", true, "error", errors.Join(common.ErrLookupDegraded, err).Error())
		return c.truncate(FilterSamples(c.samples, query))
	}
	return c.truncate(results)
}

func (c *Client) search(ctx context.Context, query string) ([]models.SearchResult, error) {
	status, body, err := c.get(ctx, "/search", "query", query, "type", "boardgame")
	if err != nil {
		return nil, err
	}
	if status != fasthttp.StatusOK {
		return nil, fmt.Errorf("search: unexpected status %d", status)
	}
	return decodeSearch(body)
}

// GetDetails returns the full metadata document for externalID, or nil when
// the service cannot provide it. A "still processing" (202) answer is retried
// exactly once after the retry delay. Only context cancellation is reported
// as an error.
func (c *Client) GetDetails(ctx context.Context, externalID string) (*models.GameDetails, error) {
	if c.cache != nil {
		d, ok, err := c.cache.Get(ctx, externalID)
		if err != nil {
			c.log.Warn(ctx, "details cache read failed", "external_id", externalID, "error", err.Error())
		} else if ok {
			return d, nil
		}
	}

	d, err := c.details(ctx, externalID)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		c.log.Warn(ctx, "metadata details unavailable", "external_id", externalID, "error", err.Error())
		return nil, nil
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, d); err != nil {
			c.log.Warn(ctx, "details cache write failed", "external_id", externalID, "error", err.Error())
		}
	}
	return d, nil
}

func (c *Client) details(ctx context.Context, externalID string) (*models.GameDetails, error) {
	for attempt := 1; attempt <= 2; attempt++ {
		status, body, err := c.get(ctx, "/thing", "id", externalID, "stats", "1")
		if err != nil {
			return nil, err
		}

		switch status {
		case fasthttp.StatusOK:
			return decodeThing(body, externalID)
		case fasthttp.StatusAccepted:
			if attempt == 1 {
				c.log.Debug(ctx, "metadata still processing, retrying", "external_id", externalID)
				if err := sleepWithContext(ctx, c.retryDelay); err != nil {
					return nil, err
				}
				continue
			}
			return nil, errors.New("details: still processing after retry")
		default:
			return nil, fmt.Errorf("details: unexpected status %d", status)
		}
	}
	return nil, errors.New("details: unreachable")
}

// get performs one GET and copies out the status and body before the
// response is released.
func (c *Client) get(ctx context.Context, path string, query ...string) (int, []byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(fasthttp.MethodGet)
	req.SetRequestURI(c.baseURL + path)
	args := req.URI().QueryArgs()
	for i := 0; i+1 < len(query); i += 2 {
		args.Add(query[i], query[i+1])
	}

	if err := ctx.Err(); err != nil {
		return 0, nil, err
	}
	if err := c.http.DoDeadline(req, resp, c.deadline(ctx)); err != nil {
		return 0, nil, fmt.Errorf("request %s: %w", path, err)
	}

	body := append([]byte(nil), resp.Body()...)
	return resp.StatusCode(), body, nil
}

func (c *Client) deadline(ctx context.Context) time.Time {
	clientDL := time.Now().Add(c.timeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(clientDL) {
		return dl
	}
	return clientDL
}

func (c *Client) truncate(r []models.SearchResult) []models.SearchResult {
	if len(r) > c.limit {
		return r[:c.limit]
	}
	return r
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
