// Package catalog loads, caches, filters and searches the category data files.
package catalog

import (
	"errors"
	"strings"

	"midloop/content"
)

// ErrUnknownCategory is returned for routes that have no data file.
var ErrUnknownCategory = errors.New("unknown category")

type Category string

const (
	Movies    Category = "movies"
	TVShows   Category = "tv-shows"
	Games     Category = "games"
	Books     Category = "books"
	Music     Category = "music"
	Bookmarks Category = "bookmarks"
)

// PastWeek is the movies subcategory of recent releases.
const PastWeek = "past-week"

// Route is a category with an optional subcategory.
type Route struct {
	Category Category
	Sub      string
}

// Key is the cache key, "category" or "category/sub".
func (r Route) Key() string {
	if r.Sub == "" {
		return string(r.Category)
	}
	return string(r.Category) + "/" + r.Sub
}

func (r Route) String() string { return r.Key() }

// Config says where a route's data lives and which adapter reads it.
// Books and music have no adapter yet.
type Config struct {
	File    string
	Type    content.ContentType
	Title   string
	Stubbed bool
}

var configs = map[string]Config{
	"movies":           {File: "data_movies.json", Type: content.TypeMovie, Title: "Upcoming Movies"},
	"movies/past-week": {File: "data_movies_past_week.json", Type: content.TypeMovie, Title: "Released This Past Week"},
	"tv-shows":         {File: "data_tv_shows.json", Type: content.TypeTVShow, Title: "Upcoming TV Shows"},
	"games":            {File: "data_games.json", Type: content.TypeGame, Title: "Upcoming Games"},
	"books":            {File: "data_books.json", Title: "Books", Stubbed: true},
	"music":            {File: "data_music.json", Title: "Music", Stubbed: true},
}

// Routes lists every route, bookmarks last, in navigation order.
var Routes = []Route{
	{Category: Movies},
	{Category: Movies, Sub: PastWeek},
	{Category: TVShows},
	{Category: Games},
	{Category: Books},
	{Category: Music},
	{Category: Bookmarks},
}

// SearchRoutes are the routes preloaded for search.
var SearchRoutes = []Route{
	{Category: Movies},
	{Category: TVShows},
	{Category: Games},
}

// DefaultRoute is where unknown paths land.
var DefaultRoute = Route{Category: Movies}

// ResolveRoute maps "#/tv-shows", "/movies/past-week" or "games" to a known
// route. Anything unrecognised falls back to movies.
func ResolveRoute(path string) Route {
	path = strings.TrimPrefix(path, "#")
	path = strings.Trim(path, "/")
	if path == "" {
		return DefaultRoute
	}
	if path == string(Bookmarks) {
		return Route{Category: Bookmarks}
	}

	cat, sub, _ := strings.Cut(path, "/")
	r := Route{Category: Category(cat), Sub: sub}
	if _, ok := configs[r.Key()]; !ok {
		return DefaultRoute
	}
	return r
}

// ConfigFor returns the data config of a route.
func ConfigFor(r Route) (Config, error) {
	cfg, ok := configs[r.Key()]
	if !ok {
		return Config{}, ErrUnknownCategory
	}
	return cfg, nil
}

// RoutesForFile returns the routes backed by a data file name.
func RoutesForFile(file string) []Route {
	var out []Route
	for _, r := range Routes {
		if cfg, ok := configs[r.Key()]; ok && cfg.File == file {
			out = append(out, r)
		}
	}
	return out
}
