package catalog

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"midloop/content"
	"midloop/metrics"
)

// Service serves category items from the cache, loading on a miss.
type Service struct {
	loader  *Loader
	cache   *Cache
	logger  *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewService(loader *Loader, cache *Cache, logger *zap.Logger, m *metrics.Metrics) *Service {
	if cache == nil {
		cache = NewCache(DefaultTTL)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		loader:  loader,
		cache:   cache,
		logger:  logger.Named("catalog"),
		metrics: m,
		now:     time.Now,
	}
}

// Items returns a route's items. Load failures are logged and produce an
// empty list; only routes without a data file are errors.
func (s *Service) Items(ctx context.Context, r Route, refresh bool) ([]content.StandardItem, error) {
	if _, err := ConfigFor(r); err != nil {
		return nil, err
	}

	key := r.Key()
	if !refresh {
		if items, ok := s.cache.Get(key); ok {
			s.metrics.CacheLookup(true)
			return items, nil
		}
		s.metrics.CacheLookup(false)
	}

	start := s.now()
	items, err := s.loader.Load(ctx, r)
	s.metrics.LoadFinished(key, len(items), err, time.Since(start))
	if err != nil {
		s.logger.Warn("category unavailable", zap.String("route", key), zap.Error(err))
		return []content.StandardItem{}, nil
	}

	s.cache.Set(key, items)
	s.logger.Debug("category loaded", zap.String("route", key), zap.Int("items", len(items)))
	return items, nil
}

// LoadAll loads routes concurrently. One route failing leaves the others
// untouched; a failed route maps to an empty list.
func (s *Service) LoadAll(ctx context.Context, routes []Route) map[string][]content.StandardItem {
	var (
		mu  sync.Mutex
		out = make(map[string][]content.StandardItem, len(routes))
		g   errgroup.Group
	)
	g.SetLimit(4)

	for _, r := range routes {
		r := r
		g.Go(func() error {
			items, err := s.Items(ctx, r, false)
			if err != nil {
				s.logger.Warn("skipping route", zap.String("route", r.Key()), zap.Error(err))
				items = []content.StandardItem{}
			}
			mu.Lock()
			out[r.Key()] = items
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// Live returns every item currently published, across the searchable routes
// and the past-week list.
func (s *Service) Live(ctx context.Context) []content.StandardItem {
	routes := append([]Route{{Category: Movies, Sub: PastWeek}}, SearchRoutes...)
	loaded := s.LoadAll(ctx, routes)

	var all []content.StandardItem
	seen := make(map[string]bool)
	for _, r := range routes {
		for _, item := range loaded[r.Key()] {
			if seen[item.Key()] {
				continue
			}
			seen[item.Key()] = true
			all = append(all, item)
		}
	}
	return all
}

// Search preloads the searchable routes and matches query against them.
func (s *Service) Search(ctx context.Context, query string) []content.StandardItem {
	s.metrics.Searched()
	loaded := s.LoadAll(ctx, SearchRoutes)

	var pool []content.StandardItem
	for _, r := range SearchRoutes {
		pool = append(pool, loaded[r.Key()]...)
	}
	return Search(pool, query)
}

// Find looks an item up by type and id in the loaded data.
func (s *Service) Find(ctx context.Context, t content.ContentType, id string) (content.StandardItem, bool) {
	for _, item := range s.Live(ctx) {
		if item.Type() == t && item.ID == id {
			return item, true
		}
	}
	return content.StandardItem{}, false
}

func (s *Service) Invalidate(routes ...Route) {
	keys := make([]string, 0, len(routes))
	for _, r := range routes {
		keys = append(keys, r.Key())
	}
	s.cache.Invalidate(keys...)
}

// InvalidateFile drops the cache entries backed by a data file.
func (s *Service) InvalidateFile(file string) {
	routes := RoutesForFile(file)
	if len(routes) == 0 {
		return
	}
	s.Invalidate(routes...)
	s.logger.Info("data file changed", zap.String("file", file), zap.Int("routes", len(routes)))
}

// Refresh drops the whole cache and reloads every data route.
func (s *Service) Refresh(ctx context.Context) map[string][]content.StandardItem {
	s.cache.Clear()
	var routes []Route
	for _, r := range Routes {
		if _, err := ConfigFor(r); err == nil {
			routes = append(routes, r)
		}
	}
	return s.LoadAll(ctx, routes)
}

// LoadedAt reports when a route was last loaded.
func (s *Service) LoadedAt(r Route) (time.Time, bool) {
	return s.cache.LoadedAt(r.Key())
}
