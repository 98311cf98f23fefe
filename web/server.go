// Package web serves the card grid, detail panels, bookmarks and the JSON API.
package web

import (
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"io/fs"
	"mime"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"midloop/bookmark"
	"midloop/catalog"
	"midloop/content"
	"midloop/metrics"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Options tunes a Server. The zero value is usable.
type Options struct {
	// RefreshInterval is the minimum spacing of manual refreshes.
	RefreshInterval time.Duration
	SearchDebounce  time.Duration
	Now             func() time.Time
	Location        *time.Location
	Metrics         *metrics.Metrics
}

type Server struct {
	catalog   *catalog.Service
	bookmarks *bookmark.Manager
	searcher  *catalog.Searcher
	metrics   *metrics.Metrics
	logger    *zap.Logger
	limiter   *rate.Limiter
	tmpl      *template.Template
	now       func() time.Time
	loc       *time.Location
}

func NewServer(cat *catalog.Service, bm *bookmark.Manager, logger *zap.Logger, opts Options) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = time.Minute
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}

	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	return &Server{
		catalog:   cat,
		bookmarks: bm,
		searcher:  catalog.NewSearcher(cat, opts.SearchDebounce),
		metrics:   opts.Metrics,
		logger:    logger.Named("web"),
		limiter:   rate.NewLimiter(rate.Every(opts.RefreshInterval), 1),
		tmpl:      tmpl,
		now:       opts.Now,
		loc:       opts.Location,
	}, nil
}

// Close cancels pending debounced searches.
func (s *Server) Close() {
	s.searcher.Cancel()
}

// Routes builds the HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})

	static, _ := fs.Sub(staticFS, "static")
	r.Handle("/static/*", http.StripPrefix("/static", http.FileServer(http.FS(static))))
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/items/{category}", s.handleAPIItems)
		r.Get("/items/{category}/{sub}", s.handleAPIItems)
		r.Get("/search", s.handleAPISearch)
		r.Get("/bookmarks", s.handleAPIBookmarks)
		r.Post("/bookmarks", s.handleToggleBookmark)
		r.Post("/refresh", s.handleRefresh)
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/"+catalog.DefaultRoute.Key(), http.StatusFound)
	})
	r.Get("/search", s.handleSearchPage)
	r.Get("/item/{type}/{id}", s.handleDetail)
	r.Get("/{category}", s.handleCategory)
	r.Get("/{category}/{sub}", s.handleCategory)

	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("took", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}

func routeFromRequest(r *http.Request) catalog.Route {
	path := chi.URLParam(r, "category")
	if sub := chi.URLParam(r, "sub"); sub != "" {
		path += "/" + sub
	}
	return catalog.ResolveRoute(path)
}

// today is "now" in the configured calendar.
func (s *Server) today() time.Time {
	return s.now().In(s.loc)
}

// items returns a route's items, bookmarks included. Viewing bookmarks
// refreshes their snapshots from live data first.
func (s *Server) items(r *http.Request, route catalog.Route) ([]content.StandardItem, error) {
	if route.Category != catalog.Bookmarks {
		return s.catalog.Items(r.Context(), route, false)
	}
	if _, err := s.bookmarks.Refresh(r.Context(), s.catalog.Live(r.Context())); err != nil {
		s.logger.Warn("failed to refresh bookmarks", zap.Error(err))
	}
	return s.bookmarks.List()
}

func (s *Server) bookmarkKeys() map[string]bool {
	keys, err := s.bookmarks.Keys()
	if err != nil {
		s.logger.Warn("failed to read bookmarks", zap.Error(err))
		return map[string]bool{}
	}
	return keys
}

func (s *Server) handleCategory(w http.ResponseWriter, r *http.Request) {
	route := routeFromRequest(r)
	filter := catalog.ParseDateFilter(r.URL.Query().Get("filter"))

	items, err := s.items(r, route)
	if err != nil {
		s.serverError(w, err)
		return
	}
	now := s.today()
	items = catalog.Filter(items, filter, now)

	page := Page{
		Title:   pageTitle(route),
		Nav:     navLinks(route),
		Filters: filterLinks(route, filter),
		Cards:   newCards(items, s.bookmarkKeys(), now),
		Empty:   emptyMessage(route, filter),
	}
	if route.Category == catalog.Bookmarks {
		page.Scope = string(catalog.Bookmarks)
	}
	if at, ok := s.catalog.LoadedAt(route); ok {
		page.Refreshed = humanize.Time(at)
	}
	s.render(w, "grid.html", page)
}

func pageTitle(route catalog.Route) string {
	if route.Category == catalog.Bookmarks {
		return "Bookmarks"
	}
	cfg, err := catalog.ConfigFor(route)
	if err != nil {
		return navLabels[route.Key()]
	}
	return cfg.Title
}

func emptyMessage(route catalog.Route, filter catalog.DateFilter) string {
	switch {
	case route.Category == catalog.Bookmarks:
		return "No bookmarks yet."
	case filter != catalog.FilterAll:
		return "Nothing matches this filter."
	default:
		return "Coming soon"
	}
}

// handleSearchPage searches the catalog, or only bookmarks when the search
// was made from the bookmarks view.
func (s *Server) handleSearchPage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	scope := r.URL.Query().Get("scope")

	page := Page{Title: "Search", Empty: "No results.", Query: q}
	var results []content.StandardItem
	if scope == string(catalog.Bookmarks) {
		var err error
		if results, err = s.bookmarks.Search(q); err != nil {
			s.serverError(w, err)
			return
		}
		page.Title = "Search Bookmarks"
		page.Scope = scope
		page.Nav = navLinks(catalog.Route{Category: catalog.Bookmarks})
	} else {
		results = s.catalog.Search(r.Context(), q)
		page.Nav = navLinks(catalog.Route{})
	}
	page.Cards = newCards(results, s.bookmarkKeys(), s.today())
	s.render(w, "grid.html", page)
}

func (s *Server) handleDetail(w http.ResponseWriter, r *http.Request) {
	t := content.ContentType(chi.URLParam(r, "type"))
	id := chi.URLParam(r, "id")

	item, ok, err := s.lookup(r, t, id)
	if err != nil {
		s.serverError(w, err)
		return
	}
	if !ok {
		http.NotFound(w, r)
		return
	}

	data := struct {
		Page   Page
		Detail Detail
	}{
		Page:   Page{Title: item.Title, Nav: navLinks(catalog.Route{})},
		Detail: newDetail(item, s.bookmarkKeys(), s.today()),
	}
	s.render(w, "detail.html", data)
}

// lookup finds an item in live data, falling back to its bookmark snapshot.
func (s *Server) lookup(r *http.Request, t content.ContentType, id string) (content.StandardItem, bool, error) {
	if item, ok := s.catalog.Find(r.Context(), t, id); ok {
		return item, true, nil
	}
	return s.bookmarks.Get(t, id)
}

type itemsResponse struct {
	Route    string                 `json:"route"`
	Filter   string                 `json:"filter"`
	Items    []content.StandardItem `json:"items"`
	LoadedAt *time.Time             `json:"loadedAt,omitempty"`
}

func (s *Server) handleAPIItems(w http.ResponseWriter, r *http.Request) {
	route := routeFromRequest(r)
	filter := catalog.ParseDateFilter(r.URL.Query().Get("filter"))

	items, err := s.items(r, route)
	if err != nil {
		s.serverError(w, err)
		return
	}

	resp := itemsResponse{
		Route:  route.Key(),
		Filter: string(filter),
		Items:  catalog.Filter(items, filter, s.today()),
	}
	if at, ok := s.catalog.LoadedAt(route); ok {
		resp.LoadedAt = &at
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAPISearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	client := r.URL.Query().Get("client")
	if client == "" {
		client = r.RemoteAddr
	}

	results, ok := s.searcher.Query(r.Context(), client, q)
	if !ok {
		// superseded by a newer query from the same client
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"query": q, "items": results})
}

func (s *Server) handleAPIBookmarks(w http.ResponseWriter, r *http.Request) {
	items, err := s.bookmarks.List()
	if err != nil {
		s.serverError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

type toggleRequest struct {
	Type content.ContentType `json:"type"`
	ID   string              `json:"id"`
}

// decodeToggle reads a toggle from a JSON body or from the detail page form.
func decodeToggle(r *http.Request) (toggleRequest, bool, error) {
	var req toggleRequest
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "application/x-www-form-urlencoded" {
		if err := r.ParseForm(); err != nil {
			return req, true, err
		}
		req.Type = content.ContentType(r.PostForm.Get("type"))
		req.ID = r.PostForm.Get("id")
		return req, true, nil
	}
	return req, false, json.NewDecoder(r.Body).Decode(&req)
}

func (s *Server) handleToggleBookmark(w http.ResponseWriter, r *http.Request) {
	req, fromForm, err := decodeToggle(r)
	if err != nil || req.Type == "" || req.ID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "type and id are required"})
		return
	}

	item, ok, err := s.lookup(r, req.Type, req.ID)
	if err != nil {
		s.serverError(w, err)
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "item not found"})
		return
	}

	bookmarked, err := s.bookmarks.Toggle(item)
	if err != nil {
		s.serverError(w, err)
		return
	}
	if fromForm {
		http.Redirect(w, r, detailURL(item), http.StatusSeeOther)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"key": item.Key(), "bookmarked": bookmarked})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if !s.limiter.Allow() {
		w.Header().Set("Retry-After", "60")
		writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "refresh rate limited"})
		return
	}

	loaded := s.catalog.Refresh(r.Context())
	counts := make(map[string]int, len(loaded))
	for route, items := range loaded {
		counts[route] = len(items)
	}
	s.logger.Info("manual refresh", zap.Any("items", counts))
	writeJSON(w, http.StatusOK, map[string]any{"routes": counts})
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.ExecuteTemplate(w, name, data); err != nil {
		s.logger.Error("template exec error", zap.String("template", name), zap.Error(err))
	}
}

func (s *Server) serverError(w http.ResponseWriter, err error) {
	if errors.Is(err, catalog.ErrUnknownCategory) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	s.logger.Error("request failed", zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
