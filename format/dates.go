package format

import (
	"strings"
	"time"
)

// DateLayout selects how DateDisplay renders a date.
type DateLayout string

const (
	DateShort DateLayout = "short"
	DateLong  DateLayout = "long"
	DateFull  DateLayout = "full"
)

// ComingSoon is the placeholder for unknown release dates.
const ComingSoon = "Coming soon"

// ISOLayout matches the millisecond-precision UTC timestamps stored on items.
const ISOLayout = "2006-01-02T15:04:05.000Z07:00"

var dateLayouts = map[DateLayout]string{
	DateShort: "Jan 2, 2006",
	DateLong:  "January 2, 2006",
	DateFull:  "Monday, January 2, 2006",
}

// parse layouts, tried in order. Timestamps without a zone are read as UTC.
var parseLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseDate reads the date strings found in source data and on stored items.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range parseLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// DaysUntil counts calendar days from now's day, read in now's location, to
// the release day of t. A release day is the UTC date of t: stored dates are
// UTC midnights and DateDisplay renders them in UTC.
func DaysUntil(t, now time.Time) int {
	t = t.UTC()
	release := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return int(release.Sub(today).Hours() / 24)
}

// DateDisplay renders an en-US date. Nil and unparseable dates are "Coming soon".
func DateDisplay(date *string, layout DateLayout) string {
	if date == nil {
		return ComingSoon
	}
	t, ok := ParseDate(*date)
	if !ok {
		return ComingSoon
	}

	l, ok := dateLayouts[layout]
	if !ok {
		l = dateLayouts[DateShort]
	}
	return t.UTC().Format(l)
}

// DateStatus is what a card needs to label its release date.
type DateStatus struct {
	DisplayDate  string `json:"displayDate"`
	IsToday      bool   `json:"isToday"`
	IsAlreadyOut bool   `json:"isAlreadyOut"`
}

// CardDateStatus compares date against the calendar day of now.
func CardDateStatus(date *string, now time.Time) DateStatus {
	if date == nil {
		return DateStatus{DisplayDate: ComingSoon}
	}
	t, ok := ParseDate(*date)
	if !ok {
		return DateStatus{DisplayDate: ComingSoon}
	}

	days := DaysUntil(t, now)
	return DateStatus{
		DisplayDate:  DateDisplay(date, DateShort),
		IsToday:      days == 0,
		IsAlreadyOut: days < 0,
	}
}

// ReleaseBadgeText is the banner shown on cards releasing today.
func ReleaseBadgeText(contentType string, isToday bool) string {
	if !isToday {
		return ""
	}
	switch contentType {
	case "tv-show":
		return "New Episode Today!"
	case "movie":
		return "Out Today!"
	default:
		return ""
	}
}
