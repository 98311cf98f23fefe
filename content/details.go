package content

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"midloop/format"
	"midloop/sanitize"
)

// DetailRow is one labelled line of an item's detail panel. Value is plain
// text unless IsHTML is set, in which case it is a prebuilt anchor whose
// href has already been through sanitize.URL.
type DetailRow struct {
	Label  string `json:"label"`
	Value  string `json:"value"`
	IsHTML bool   `json:"isHtml,omitempty"`
}

// Details renders the type-specific rows of an item's detail panel.
func Details(item StandardItem) []DetailRow {
	if item.Metadata == nil {
		return nil
	}
	return item.Metadata.details()
}

func (m *MovieMetadata) details() []DetailRow {
	var rows []DetailRow
	if m.Runtime != nil && *m.Runtime > 0 {
		rows = append(rows, DetailRow{Label: "Runtime", Value: format.RuntimeDisplay(m.Runtime)})
	}
	if m.Budget != nil && *m.Budget > 0 {
		rows = append(rows, DetailRow{Label: "Budget", Value: format.CurrencyDisplay(m.Budget)})
	}
	if m.Revenue != nil && *m.Revenue > 0 {
		rows = append(rows, DetailRow{Label: "Revenue", Value: format.CurrencyDisplay(m.Revenue)})
	}
	if m.OriginalLanguage != nil && !strings.EqualFold(*m.OriginalLanguage, "en") {
		rows = append(rows, DetailRow{Label: "Original Language", Value: languageName(*m.OriginalLanguage)})
	}
	if row, ok := imdbRow(m.IMDbID); ok {
		rows = append(rows, row)
	}
	return rows
}

func (m *TVShowMetadata) details() []DetailRow {
	var rows []DetailRow
	if m.Seasons != nil && *m.Seasons > 0 {
		rows = append(rows, DetailRow{Label: "Seasons", Value: strconv.Itoa(*m.Seasons)})
	}
	if m.Episodes != nil && *m.Episodes > 0 {
		rows = append(rows, DetailRow{Label: "Episodes", Value: strconv.Itoa(*m.Episodes)})
	}
	if row, ok := listRow("Networks", m.Networks); ok {
		rows = append(rows, row)
	}
	if m.Status != nil && *m.Status != "" {
		rows = append(rows, DetailRow{Label: "Status", Value: *m.Status})
	}
	if m.NextEpisodeDate != nil {
		rows = append(rows, DetailRow{Label: "Next Episode", Value: format.DateDisplay(m.NextEpisodeDate, format.DateLong)})
	}
	if row, ok := listRow("Created By", m.Creators); ok {
		rows = append(rows, row)
	}
	if row, ok := imdbRow(m.IMDbID); ok {
		rows = append(rows, row)
	}
	return rows
}

func (m *GameMetadata) details() []DetailRow {
	var rows []DetailRow
	for _, l := range []struct {
		label string
		names NameList
	}{
		{"Platforms", m.Platforms},
		{"Developers", m.Developers},
		{"Publishers", m.Publishers},
		{"Game Modes", m.GameModes},
	} {
		if row, ok := listRow(l.label, l.names); ok {
			rows = append(rows, row)
		}
	}
	if row, ok := linkRow("Steam", m.SteamURL, "View on Steam"); ok {
		rows = append(rows, row)
	}
	if row, ok := linkRow("Epic Games", m.EpicURL, "View on Epic Games Store"); ok {
		rows = append(rows, row)
	}
	return rows
}

func listRow(label string, names NameList) (DetailRow, bool) {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, n)
		}
	}
	if len(out) == 0 {
		return DetailRow{}, false
	}
	return DetailRow{Label: label, Value: strings.Join(out, ", ")}, true
}

func imdbRow(id *string) (DetailRow, bool) {
	if id == nil || *id == "" {
		return DetailRow{}, false
	}
	u := "https://www.imdb.com/title/" + *id + "/"
	return linkRow("IMDb", &u, "View on IMDb")
}

func linkRow(label string, rawURL *string, text string) (DetailRow, bool) {
	if rawURL == nil {
		return DetailRow{}, false
	}
	href := sanitize.URL(*rawURL)
	if href == "" {
		return DetailRow{}, false
	}
	anchor := fmt.Sprintf(`<a href="%s" target="_blank" rel="noopener noreferrer">%s</a>`,
		sanitize.Attr(href), sanitize.HTML(text))
	return DetailRow{Label: label, Value: anchor, IsHTML: true}, true
}

// languageName turns an ISO 639 code into an English display name.
func languageName(code string) string {
	tag, err := language.Parse(code)
	if err != nil {
		return strings.ToUpper(code)
	}
	if name := display.English.Languages().Name(tag); name != "" {
		return name
	}
	return strings.ToUpper(code)
}
