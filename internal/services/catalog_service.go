package services

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"storefront/internal/catalog"
	"storefront/internal/metrics"
	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/pkg/rabbitmq"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

// MaxListLimit caps the limit accepted by the raw listing.
const MaxListLimit = 100

// Catalog event types, used as the last segment of the routing key.
const (
	EventCreated = "created"
	EventUpdated = "updated"
	EventDeleted = "deleted"
)

// EventPublisher publishes catalog change events. *rabbitmq.Client satisfies it.
type EventPublisher interface {
	Publish(exchange, routingKey string, body []byte) error
}

// CatalogEvent announces a change to one item.
type CatalogEvent struct {
	Type       string    `json:"type"`
	Collection string    `json:"collection"`
	ItemID     string    `json:"itemId"`
	OccurredAt time.Time `json:"occurredAt"`
}

// ListRequest mirrors the upstream collection endpoint parameters.
type ListRequest struct {
	Page     int
	Limit    int
	Search   string
	Category string
}

// ListResult is one page of the raw listing.
type ListResult struct {
	Data  []catalog.Item `json:"data"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
	Total int            `json:"total"`
}

// ViewResult is one catalog view plus the canonical query that reproduces it.
type ViewResult struct {
	catalog.Window[catalog.Item]
	Query string `json:"query"`
}

// CatalogOptions configures a CatalogService. Zero values fall back to defaults.
type CatalogOptions struct {
	PageSize  int
	CacheSize int
	Publisher EventPublisher
	Metrics   *metrics.Metrics
	Logger    *zap.Logger
}

// CatalogService handles business logic for catalog items and views.
type CatalogService struct {
	repo      repositories.ItemRepository
	publisher EventPublisher
	cache     *lru.Cache[string, ViewResult]
	metrics   *metrics.Metrics
	logger    *zap.Logger
	pageSize  int

	mu          sync.Mutex
	generations map[string]uint64 // bumped on every change to a collection
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(repo repositories.ItemRepository, opts CatalogOptions) (*CatalogService, error) {
	if opts.PageSize < 1 {
		opts.PageSize = 12
	}
	if opts.CacheSize < 1 {
		opts.CacheSize = 256
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	cache, err := lru.New[string, ViewResult](opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create view cache: %w", err)
	}

	return &CatalogService{
		repo:      repo,
		publisher: opts.Publisher,
		cache:     cache,
		metrics:   opts.Metrics,
		logger:    opts.Logger,
		pageSize:  opts.PageSize,

		generations: make(map[string]uint64),
	}, nil
}

// PageSize is the fixed number of items per view page.
func (s *CatalogService) PageSize() int {
	return s.pageSize
}

// ListItems serves the raw collection listing: search and category only,
// in stored order.
func (s *CatalogService) ListItems(collection string, req ListRequest) (*ListResult, error) {
	items, err := s.loadItems(collection)
	if err != nil {
		return nil, err
	}

	limit := req.Limit
	if limit < 1 || limit > MaxListLimit {
		limit = s.pageSize
	}
	page := max(req.Page, 1)

	filters := catalog.DefaultFilters()
	filters.Query = req.Search
	if req.Category != "" {
		filters.Category = req.Category
	}

	w := catalog.Paginate(catalog.Filter(items, filters), page, limit)
	return &ListResult{
		Data:  w.Items,
		Page:  page,
		Limit: limit,
		Total: w.Total,
	}, nil
}

// View runs the filter/sort/paginate pipeline for state over a collection.
// Results are cached per canonical query until the collection changes.
func (s *CatalogService) View(collection string, state catalog.ViewState) (*ViewResult, error) {
	s.metrics.IncView(collection)

	query := catalog.EncodeQuery(state)
	key := cacheKey(collection, query)
	if cached, ok := s.cache.Get(key); ok {
		s.metrics.IncCache(true)
		return &cached, nil
	}
	s.metrics.IncCache(false)

	gen := s.generation(collection)
	start := time.Now()
	items, err := s.loadItems(collection)
	if err != nil {
		return nil, err
	}
	result := ViewResult{
		Window: catalog.Apply(items, state, s.pageSize),
		Query:  query,
	}
	s.metrics.ObserveView(time.Since(start))

	s.store(collection, gen, key, result)
	return &result, nil
}

// GetItem returns a single item.
func (s *CatalogService) GetItem(collection, id string) (*catalog.Item, error) {
	row, err := s.repo.GetByID(collection, id)
	if err != nil {
		return nil, err
	}
	item := row.ToCatalog()
	return &item, nil
}

// CreateItem stores a new item and announces it.
func (s *CatalogService) CreateItem(item *models.Item) error {
	if err := s.repo.Create(item); err != nil {
		return err
	}
	s.metrics.IncWrite(EventCreated)
	s.changed(EventCreated, item.Collection, item.ID)
	return nil
}

// UpdateItem replaces an existing item and announces it.
func (s *CatalogService) UpdateItem(item *models.Item) error {
	if err := s.repo.Update(item); err != nil {
		return err
	}
	s.metrics.IncWrite(EventUpdated)
	s.changed(EventUpdated, item.Collection, item.ID)
	return nil
}

// DeleteItem removes an item and announces it.
func (s *CatalogService) DeleteItem(collection, id string) error {
	if err := s.repo.Delete(collection, id); err != nil {
		return err
	}
	s.metrics.IncWrite(EventDeleted)
	s.changed(EventDeleted, collection, id)
	return nil
}

// Invalidate drops every cached view of collection.
func (s *CatalogService) Invalidate(collection string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generations[collection]++

	prefix := collection + "?"
	removed := 0
	for _, key := range s.cache.Keys() {
		if strings.HasPrefix(key, prefix) && s.cache.Remove(key) {
			removed++
		}
	}
	return removed
}

// HandleEvent applies a catalog event received from the broker, typically
// one written by another replica.
func (s *CatalogService) HandleEvent(body []byte) error {
	var event CatalogEvent
	if err := json.Unmarshal(body, &event); err != nil {
		s.metrics.IncEvent("consumed", "error")
		return fmt.Errorf("failed to decode catalog event: %w", err)
	}
	if !catalog.ValidCollection(event.Collection) {
		s.metrics.IncEvent("consumed", "error")
		return fmt.Errorf("catalog event for unknown collection %q", event.Collection)
	}

	removed := s.Invalidate(event.Collection)
	s.metrics.IncEvent("consumed", "ok")
	s.logger.Debug("catalog event applied",
		zap.String("type", event.Type),
		zap.String("collection", event.Collection),
		zap.String("item_id", event.ItemID),
		zap.Int("views_dropped", removed))
	return nil
}

func (s *CatalogService) loadItems(collection string) ([]catalog.Item, error) {
	rows, err := s.repo.GetAll(collection)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", collection, err)
	}
	items := make([]catalog.Item, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.ToCatalog())
	}
	return items, nil
}

// changed invalidates local views and publishes the event. Publishing is
// best effort: the write already succeeded.
func (s *CatalogService) changed(eventType, collection, id string) {
	s.Invalidate(collection)

	if s.publisher == nil {
		s.logger.Debug("event publisher not configured, skipping catalog event", zap.String("item_id", id))
		return
	}

	body, err := json.Marshal(CatalogEvent{
		Type:       eventType,
		Collection: collection,
		ItemID:     id,
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		s.logger.Error("failed to marshal catalog event", zap.Error(err))
		return
	}

	routingKey := "catalog.item." + eventType
	if err := s.publisher.Publish(rabbitmq.CatalogExchange, routingKey, body); err != nil {
		s.metrics.IncEvent("published", "error")
		s.logger.Warn("failed to publish catalog event",
			zap.String("routing_key", routingKey), zap.String("item_id", id), zap.Error(err))
		return
	}
	s.metrics.IncEvent("published", "ok")
}

// store caches result unless a write to collection landed since gen was
// read. The check and the insert happen under s.mu, which Invalidate also
// holds, so a stale view can never be added after its sweep.
func (s *CatalogService) store(collection string, gen uint64, key string, result ViewResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generations[collection] == gen {
		s.cache.Add(key, result)
	}
}

func (s *CatalogService) generation(collection string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generations[collection]
}

func cacheKey(collection, query string) string {
	return collection + "?" + query
}
