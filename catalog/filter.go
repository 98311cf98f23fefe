package catalog

import (
	"strings"
	"time"

	"midloop/content"
	"midloop/format"
)

type DateFilter string

const (
	FilterAll      DateFilter = "all"
	FilterUpcoming DateFilter = "upcoming"
	FilterReleased DateFilter = "released"
	FilterThisWeek DateFilter = "this-week"
)

// ParseDateFilter reads a query value; unknown values mean all.
func ParseDateFilter(s string) DateFilter {
	switch f := DateFilter(strings.ToLower(strings.TrimSpace(s))); f {
	case FilterUpcoming, FilterReleased, FilterThisWeek:
		return f
	default:
		return FilterAll
	}
}

// Filter keeps the items matching f relative to the calendar day of now.
// Undated items count as upcoming.
func Filter(items []content.StandardItem, f DateFilter, now time.Time) []content.StandardItem {
	if f == FilterAll || f == "" {
		return items
	}

	out := make([]content.StandardItem, 0, len(items))
	for _, item := range items {
		status := format.CardDateStatus(item.ReleaseDate, now)
		var keep bool
		switch f {
		case FilterUpcoming:
			keep = !status.IsAlreadyOut
		case FilterReleased:
			keep = status.IsAlreadyOut
		case FilterThisWeek:
			keep = status.IsToday || content.CountdownStatus(item.ReleaseDate, now).IsCountdown
		}
		if keep {
			out = append(out, item)
		}
	}
	return out
}

// Search matches query case-insensitively against titles and genres.
// A blank query matches nothing.
func Search(items []content.StandardItem, query string) []content.StandardItem {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return []content.StandardItem{}
	}

	out := []content.StandardItem{}
	for _, item := range items {
		if matches(item, q) {
			out = append(out, item)
		}
	}
	return out
}

func matches(item content.StandardItem, q string) bool {
	if strings.Contains(strings.ToLower(item.Title), q) {
		return true
	}
	for _, g := range item.Genres {
		if strings.Contains(strings.ToLower(g), q) {
			return true
		}
	}
	return false
}
