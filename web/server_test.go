package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"midloop/bookmark"
	"midloop/catalog"
	"midloop/content"
	"midloop/metrics"
	"midloop/scraper"
	"midloop/storage"
)

var testNow = time.Date(2025, 3, 8, 12, 0, 0, 0, time.UTC)

var testFiles = map[string]string{
	"data_movies.json": `[
		{"id": 1, "title": "Dune", "digital_release_date": "2025-03-08", "vote_average": 8.2,
		 "genre_ids": [878], "imdb_id": "tt15239678", "runtime": 166, "original_language": "fr"},
		{"id": 2, "title": "<script>alert(1)</script>", "digital_release_date": "2025-03-11"},
		{"id": 3, "title": "Old News", "digital_release_date": "2025-01-02"}
	]`,
	"data_tv_shows.json": `[{"id": 7, "name": "Foundation", "first_air_date": "2025-03-20", "genre_ids": [10765]}]`,
	"data_games.json": `[{"slug": "hades-ii", "name": "Hades II", "genres": ["Roguelike"],
		"steam_url": "javascript:alert(1)", "platforms": ["PC", {"name": "Switch"}]}]`,
}

type fixture struct {
	srv    *Server
	router http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dataDir := t.TempDir()
	for name, body := range testFiles {
		require.NoError(t, os.WriteFile(filepath.Join(dataDir, name), []byte(body), 0o644))
	}

	store := storage.NewSQLiteStorage(t.TempDir(), nil)
	require.NoError(t, store.Initialize())
	t.Cleanup(func() { store.Close() })

	m := metrics.New()
	normalizer := &content.Normalizer{Now: func() time.Time { return testNow }}
	svc := catalog.NewService(catalog.NewLoader(scraper.NewDirSource(dataDir), normalizer, nil), catalog.NewCache(time.Minute), nil, m)
	bm := bookmark.NewManager(store, nil, m)

	srv, err := NewServer(svc, bm, nil, Options{
		SearchDebounce: time.Millisecond,
		Now:            func() time.Time { return testNow },
		Metrics:        m,
	})
	require.NoError(t, err)
	t.Cleanup(srv.Close)

	return &fixture{srv: srv, router: srv.Routes()}
}

func (f *fixture) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestRootRedirectsToMovies(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/movies", rec.Header().Get("Location"))
}

func TestCategoryPage(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/movies", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "Upcoming Movies")
	assert.Contains(t, body, "Out Today!")
	assert.Contains(t, body, "8.2/10")
	assert.Contains(t, body, "Science Fiction")
	assert.Contains(t, body, "3 days to go")
	assert.Contains(t, body, "&lt;script&gt;alert(1)&lt;/script&gt;")
	assert.NotContains(t, body, "<script>alert(1)</script>")
	assert.Contains(t, body, "Updated ")
}

func TestUnknownCategoryFallsBackToMovies(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/anime", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Upcoming Movies")
}

func TestStubbedCategoryIsComingSoon(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/books", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Coming soon")
}

func TestDateFilter(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/api/items/movies?filter=released", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Route  string                 `json:"route"`
		Filter string                 `json:"filter"`
		Items  []content.StandardItem `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "movies", resp.Route)
	assert.Equal(t, "released", resp.Filter)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "Old News", resp.Items[0].Title)
}

func TestDetailPage(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/item/movie/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "2h 46m")
	assert.Contains(t, body, "French")
	assert.Contains(t, body, `href="https://www.imdb.com/title/tt15239678/"`)

	rec = f.do(t, http.MethodGet, "/item/game/hades-ii", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body = rec.Body.String()
	assert.Contains(t, body, "PC, Switch")
	assert.NotContains(t, body, "javascript:")

	rec = f.do(t, http.MethodGet, "/item/movie/404", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBookmarkFlow(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/bookmarks", `{"type": "game", "id": "hades-ii"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"key": "game:hades-ii", "bookmarked": true}`, rec.Body.String())

	rec = f.do(t, http.MethodGet, "/api/bookmarks", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Hades II")

	rec = f.do(t, http.MethodGet, "/bookmarks", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Hades II")
	assert.Contains(t, rec.Body.String(), "Bookmarked")

	rec = f.do(t, http.MethodPost, "/api/bookmarks", `{"type": "game", "id": "hades-ii"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"key": "game:hades-ii", "bookmarked": false}`, rec.Body.String())

	rec = f.do(t, http.MethodGet, "/bookmarks", "")
	assert.Contains(t, rec.Body.String(), "No bookmarks yet.")

	rec = f.do(t, http.MethodPost, "/api/bookmarks", `{"type": "game"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/bookmarks", `{"type": "game", "id": "missing"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSearchAPI(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/api/search?q=rogue&client=test", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Query string                 `json:"query"`
		Items []content.StandardItem `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "Hades II", resp.Items[0].Title)

	rec = f.do(t, http.MethodGet, "/search?q=dune", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Dune")
}

func TestRefreshIsRateLimited(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/refresh", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"movies":3`)

	rec = f.do(t, http.MethodPost, "/api/refresh", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestStaticMetricsAndHealth(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/static/placeholder.svg", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<svg")

	f.do(t, http.MethodGet, "/movies", "")
	rec = f.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `midloop_category_loads_total{category="movies",result="ok"} 1`)

	rec = f.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, "ok", rec.Body.String())
}

func TestGenresAreEscapedOnce(t *testing.T) {
	f := newFixture(t)

	for _, target := range []string{"/tv-shows", "/item/tv-show/7"} {
		rec := f.do(t, http.MethodGet, target, "")
		require.Equal(t, http.StatusOK, rec.Code, target)
		body := rec.Body.String()
		assert.Contains(t, body, "Sci-Fi &amp; Fantasy", target)
		assert.NotContains(t, body, "&amp;amp;", target)
	}
}

func TestBookmarkFormOnDetailPage(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/item/game/hades-ii", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `name="type" value="game"`)
	assert.Contains(t, rec.Body.String(), `name="id" value="hades-ii"`)

	form := url.Values{"type": {"game"}, "id": {"hades-ii"}}
	req := httptest.NewRequest(http.MethodPost, "/api/bookmarks", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec = httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/item/game/hades-ii", rec.Header().Get("Location"))

	rec = f.do(t, http.MethodGet, "/item/game/hades-ii", "")
	assert.Contains(t, rec.Body.String(), "Remove Bookmark")

	req = httptest.NewRequest(http.MethodPost, "/api/bookmarks", strings.NewReader("type=game"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec = httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchWithinBookmarks(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/bookmarks", `{"type": "movie", "id": "1"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/bookmarks", "")
	assert.Contains(t, rec.Body.String(), `name="scope" value="bookmarks"`)

	rec = f.do(t, http.MethodGet, "/search?scope=bookmarks&q=dune", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Search Bookmarks")
	assert.Contains(t, rec.Body.String(), "Dune")

	rec = f.do(t, http.MethodGet, "/search?scope=bookmarks&q=hades", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "Hades II")
	assert.Contains(t, rec.Body.String(), "No results.")
}
