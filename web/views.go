package web

import (
	"fmt"
	"html/template"
	"net/url"
	"time"

	"midloop/catalog"
	"midloop/content"
	"midloop/format"
	"midloop/sanitize"
)

// Card is what the grid shows for one item. Genres is already escaped.
type Card struct {
	Key         string
	Type        string
	ID          string
	Title       string
	Poster      string
	Date        format.DateStatus
	Badge       string
	Countdown   string
	Rating      string
	Genres      template.HTML
	Bookmarked  bool
	DetailURL   string
	Description string
}

func newCard(item content.StandardItem, bookmarked map[string]bool, now time.Time) Card {
	status := format.CardDateStatus(item.ReleaseDate, now)
	card := Card{
		Key:         item.Key(),
		Type:        string(item.Type()),
		ID:          item.ID,
		Title:       item.Title,
		Poster:      sanitize.URL(item.Poster),
		Date:        status,
		Badge:       format.ReleaseBadgeText(string(item.Type()), status.IsToday),
		Rating:      format.RatingDisplay(item.Rating, item.RatingMax),
		Genres:      template.HTML(format.ArrayDisplay(item.Genres, "")),
		Bookmarked:  bookmarked[item.Key()],
		DetailURL:   detailURL(item),
		Description: item.Description,
	}
	if cd := content.CountdownStatus(item.ReleaseDate, now); cd.IsCountdown {
		if *cd.DaysUntil == 1 {
			card.Countdown = "1 day to go"
		} else {
			card.Countdown = fmt.Sprintf("%d days to go", *cd.DaysUntil)
		}
	}
	if card.Poster == "" {
		card.Poster = content.PlaceholderPoster
	}
	return card
}

func detailURL(item content.StandardItem) string {
	return "/item/" + url.PathEscape(string(item.Type())) + "/" + url.PathEscape(item.ID)
}

func newCards(items []content.StandardItem, bookmarked map[string]bool, now time.Time) []Card {
	cards := make([]Card, 0, len(items))
	for _, item := range items {
		cards = append(cards, newCard(item, bookmarked, now))
	}
	return cards
}

// DetailRow is a detail line ready for the template. Link rows carry
// pre-sanitized markup; every other value is escaped on output.
type DetailRow struct {
	Label string
	Text  string
	HTML  template.HTML
}

// Detail is the detail panel of one item.
type Detail struct {
	Card
	ReleaseDate string
	Rows        []DetailRow
}

func newDetail(item content.StandardItem, bookmarked map[string]bool, now time.Time) Detail {
	d := Detail{
		Card:        newCard(item, bookmarked, now),
		ReleaseDate: format.DateDisplay(item.ReleaseDate, format.DateLong),
	}
	for _, row := range content.Details(item) {
		r := DetailRow{Label: row.Label}
		if row.IsHTML {
			r.HTML = template.HTML(row.Value)
		} else {
			r.Text = row.Value
		}
		d.Rows = append(d.Rows, r)
	}
	return d
}

// NavLink is one entry of the category navigation.
type NavLink struct {
	Label  string
	Href   string
	Active bool
}

var navLabels = map[string]string{
	"movies":           "Movies",
	"movies/past-week": "Past Week",
	"tv-shows":         "TV Shows",
	"games":            "Games",
	"books":            "Books",
	"music":            "Music",
	"bookmarks":        "Bookmarks",
}

func navLinks(active catalog.Route) []NavLink {
	links := make([]NavLink, 0, len(catalog.Routes))
	for _, r := range catalog.Routes {
		links = append(links, NavLink{
			Label:  navLabels[r.Key()],
			Href:   "/" + r.Key(),
			Active: r == active,
		})
	}
	return links
}

// FilterLink is one date filter option.
type FilterLink struct {
	Label  string
	Href   string
	Active bool
}

var filterLabels = []struct {
	f     catalog.DateFilter
	label string
}{
	{catalog.FilterAll, "All"},
	{catalog.FilterUpcoming, "Upcoming"},
	{catalog.FilterReleased, "Released"},
	{catalog.FilterThisWeek, "This Week"},
}

func filterLinks(r catalog.Route, active catalog.DateFilter) []FilterLink {
	links := make([]FilterLink, 0, len(filterLabels))
	for _, fl := range filterLabels {
		href := "/" + r.Key()
		if fl.f != catalog.FilterAll {
			href += "?filter=" + string(fl.f)
		}
		links = append(links, FilterLink{Label: fl.label, Href: href, Active: fl.f == active})
	}
	return links
}

// Page is the data every grid page renders with.
type Page struct {
	Title     string
	Nav       []NavLink
	Filters   []FilterLink
	Cards     []Card
	Empty     string
	Refreshed string
	Query     string
	// Scope limits the header search, e.g. to bookmarks.
	Scope string
}
