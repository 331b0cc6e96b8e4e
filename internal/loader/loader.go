// Package loader fetches catalog items from the storefront REST API.
//
// A newer fetch for a collection supersedes any fetch still in flight for
// it: the older request is cancelled and, should its response still arrive,
// it is discarded with ErrSuperseded. The latest filter's results always win.
package loader

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"storefront/internal/catalog"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// maxPages bounds FetchAll against an upstream that never reports an end.
const maxPages = 1000

// Request selects one page of a collection.
type Request struct {
	Page     int
	Limit    int
	Search   string
	Category string
}

// Batch is one fetched page.
type Batch struct {
	Items      []catalog.Item
	Page       int
	Limit      int
	Total      int
	Generation uint64
}

type listResponse struct {
	Data  []catalog.RawItem `json:"data"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
	Total int               `json:"total"`
}

// Loader fetches collections from a storefront API.
type Loader struct {
	baseURL *url.URL
	client  *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger

	mu      sync.Mutex
	gens    map[string]uint64
	cancels map[string]context.CancelFunc
}

// Option configures a Loader.
type Option func(*Loader)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(l *Loader) { l.client = c }
}

// WithRateLimit limits outbound requests to r per second with the given burst.
func WithRateLimit(r rate.Limit, burst int) Option {
	return func(l *Loader) { l.limiter = rate.NewLimiter(r, burst) }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Loader) { l.logger = logger }
}

// New creates a Loader for the API rooted at baseURL, e.g. http://localhost:8080.
func New(baseURL string, opts ...Option) (*Loader, error) {
	u, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base URL must include scheme and host: %q", baseURL)
	}

	l := &Loader{
		baseURL: u,
		client:  &http.Client{Timeout: 15 * time.Second},
		limiter: rate.NewLimiter(rate.Every(50*time.Millisecond), 5),
		logger:  zap.NewNop(),
		gens:    make(map[string]uint64),
		cancels: make(map[string]context.CancelFunc),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Fetch retrieves one page of collection, superseding any fetch in flight
// for the same collection.
func (l *Loader) Fetch(ctx context.Context, collection string, req Request) (*Batch, error) {
	ctx, gen, done := l.begin(ctx, collection)
	defer done()

	batch, err := l.fetchPage(ctx, collection, req)
	if !l.current(collection, gen) {
		return nil, ErrSuperseded
	}
	if err != nil {
		return nil, err
	}
	batch.Generation = gen
	return batch, nil
}

// FetchAll follows "load more" pagination from req.Page until the upstream
// runs out of items, returning everything in order. It is superseded like
// Fetch.
func (l *Loader) FetchAll(ctx context.Context, collection string, req Request) ([]catalog.Item, error) {
	ctx, gen, done := l.begin(ctx, collection)
	defer done()

	req.Page = max(req.Page, 1)
	var items []catalog.Item
	for n := 0; n < maxPages; n++ {
		batch, err := l.fetchPage(ctx, collection, req)
		if !l.current(collection, gen) {
			return nil, ErrSuperseded
		}
		if err != nil {
			return nil, err
		}
		items = append(items, batch.Items...)

		if len(batch.Items) == 0 || (batch.Limit > 0 && len(batch.Items) < batch.Limit) ||
			(batch.Total > 0 && len(items) >= batch.Total) {
			break
		}
		req.Page++
	}

	l.logger.Debug("collection loaded",
		zap.String("collection", collection), zap.Int("items", len(items)), zap.Uint64("generation", gen))
	return items, nil
}

// begin starts a new generation for collection and cancels the previous one.
func (l *Loader) begin(parent context.Context, collection string) (context.Context, uint64, func()) {
	ctx, cancel := context.WithCancel(parent)

	l.mu.Lock()
	if prev, ok := l.cancels[collection]; ok {
		prev()
	}
	l.gens[collection]++
	gen := l.gens[collection]
	l.cancels[collection] = cancel
	l.mu.Unlock()

	return ctx, gen, func() {
		l.mu.Lock()
		if l.gens[collection] == gen {
			delete(l.cancels, collection)
		}
		l.mu.Unlock()
		cancel()
	}
}

func (l *Loader) current(collection string, gen uint64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.gens[collection] == gen
}

func (l *Loader) fetchPage(ctx context.Context, collection string, req Request) (*Batch, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	endpoint := l.baseURL.JoinPath("api", "v1", collection)
	q := url.Values{}
	if req.Page > 0 {
		q.Set("page", strconv.Itoa(req.Page))
	}
	if req.Limit > 0 {
		q.Set("limit", strconv.Itoa(req.Limit))
	}
	if req.Search != "" {
		q.Set("search", req.Search)
	}
	if req.Category != "" && req.Category != catalog.CategoryAll {
		q.Set("category", req.Category)
	}
	endpoint.RawQuery = q.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := l.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", endpoint.Path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound{Collection: collection}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, ErrUpstream{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var payload listResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to decode %s page %d: %w", collection, req.Page, err)
	}

	items := catalog.NormalizeAll(payload.Data)
	for i := range items {
		if items[i].Collection == "" {
			items[i].Collection = collection
		}
	}
	return &Batch{
		Items: items,
		Page:  payload.Page,
		Limit: payload.Limit,
		Total: payload.Total,
	}, nil
}
