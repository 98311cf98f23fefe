package catalog

import (
	"context"
	"sync"
	"time"

	"midloop/content"
)

// SearchDebounce is the quiet period before a query runs.
const SearchDebounce = 300 * time.Millisecond

type pendingSearch struct {
	timer      *time.Timer
	superseded chan struct{}
}

// Searcher debounces searches per key, typically one key per client. Only
// the last query in a burst runs.
type Searcher struct {
	service  *Service
	duration time.Duration

	mu      sync.Mutex
	pending map[string]*pendingSearch
}

func NewSearcher(service *Service, duration time.Duration) *Searcher {
	if duration <= 0 {
		duration = SearchDebounce
	}
	return &Searcher{
		service:  service,
		duration: duration,
		pending:  make(map[string]*pendingSearch),
	}
}

// Debounce schedules query for key, replacing any pending query for the
// same key. fn receives the results once the key has been quiet long enough.
func (s *Searcher) Debounce(ctx context.Context, key, query string, fn func([]content.StandardItem)) {
	s.schedule(ctx, key, query, fn)
}

func (s *Searcher) schedule(ctx context.Context, key, query string, fn func([]content.StandardItem)) <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.pending[key]; ok {
		p.timer.Stop()
		close(p.superseded)
	}

	p := &pendingSearch{superseded: make(chan struct{})}
	p.timer = time.AfterFunc(s.duration, func() {
		s.mu.Lock()
		if s.pending[key] != p {
			s.mu.Unlock()
			return
		}
		delete(s.pending, key)
		s.mu.Unlock()

		if ctx.Err() != nil {
			return
		}
		fn(s.service.Search(ctx, query))
	})
	s.pending[key] = p
	return p.superseded
}

// Query runs a debounced search and waits for it. A newer query for the same
// key replaces this one, which then returns ok=false.
func (s *Searcher) Query(ctx context.Context, key, query string) ([]content.StandardItem, bool) {
	done := make(chan []content.StandardItem, 1)
	superseded := s.schedule(ctx, key, query, func(items []content.StandardItem) { done <- items })

	select {
	case items := <-done:
		return items, true
	case <-superseded:
		return nil, false
	case <-ctx.Done():
		return nil, false
	}
}

// Cancel drops every pending query.
func (s *Searcher) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, p := range s.pending {
		p.timer.Stop()
		close(p.superseded)
		delete(s.pending, k)
	}
}
