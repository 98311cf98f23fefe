package content

import (
	"encoding/json"
	"math"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/spf13/cast"
	"go.uber.org/zap"

	"midloop/format"
)

const (
	// TMDBImageBaseURL prefixes relative TMDB poster paths.
	TMDBImageBaseURL = "https://image.tmdb.org/t/p/w500"
	// PlaceholderPoster is served when a record has no usable poster.
	PlaceholderPoster = "/static/placeholder.svg"
)

// PosterOptions controls NormalizePosterURL.
type PosterOptions struct {
	BaseURL     string
	Placeholder string
	IsFullURL   bool
}

// NormalizePosterURL resolves a poster path against opts.BaseURL. Missing
// paths and the bare placeholder filename resolve to the placeholder.
func NormalizePosterURL(p string, opts PosterOptions) string {
	placeholder := opts.Placeholder
	if placeholder == "" {
		placeholder = PlaceholderPoster
	}

	p = strings.TrimSpace(p)
	if p == "" || p == placeholder || p == path.Base(placeholder) {
		return placeholder
	}

	lower := strings.ToLower(p)
	if opts.IsFullURL || strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return p
	}
	return opts.BaseURL + p
}

// NormalizeStoreURL keeps well-formed absolute URLs and drops everything else.
func NormalizeStoreURL(v any, platform string) *string {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" || ((u.Scheme == "http" || u.Scheme == "https") && u.Host == "") {
		logger().Warn("invalid store URL", zap.String("platform", platform), zap.String("url", s))
		return nil
	}
	return &s
}

// NormalizeGenres turns the genre field of a record into names. The first
// element decides the shape: numeric IDs are looked up in genreMap, strings
// pass through and objects contribute their "name".
func NormalizeGenres(input any, genreMap map[int]string) []string {
	list, ok := asList(input)
	if !ok || len(list) == 0 {
		return []string{}
	}

	out := []string{}
	switch first := list[0].(type) {
	case float64, int, int64, json.Number:
		if genreMap == nil {
			logger().Warn("numeric genre IDs without a genre map", zap.Any("genres", input))
			return out
		}
		for _, v := range list {
			if !isNumber(v) {
				continue
			}
			id, err := cast.ToIntE(v)
			if err != nil {
				continue
			}
			if name, ok := genreMap[id]; ok {
				out = append(out, name)
			}
		}
	case string:
		for _, v := range list {
			if s, ok := v.(string); ok && s != "" {
				out = append(out, s)
			}
		}
	case map[string]any:
		if _, hasName := first["name"]; !hasName {
			logger().Warn("unrecognized genre object shape", zap.Any("genres", input))
			return out
		}
		for _, v := range list {
			if e, ok := decodeStringOrNamed(v, "name"); ok && e.Named && e.Value != "" {
				out = append(out, e.Value)
			}
		}
	default:
		logger().Warn("unrecognized genre format", zap.Any("genres", input))
	}
	return out
}

// NormalizeReleaseDate returns an ISO-8601 UTC timestamp for a date string,
// a time.Time or a Unix-seconds number. Missing and invalid input is nil.
func NormalizeReleaseDate(input any) *string {
	var t time.Time
	switch v := input.(type) {
	case nil:
		return nil
	case string:
		if strings.TrimSpace(v) == "" {
			return nil
		}
		parsed, ok := format.ParseDate(v)
		if !ok {
			logger().Warn("invalid release date", zap.String("date", v))
			return nil
		}
		t = parsed
	case time.Time:
		if v.IsZero() {
			return nil
		}
		t = v
	case *string:
		if v == nil {
			return nil
		}
		return NormalizeReleaseDate(*v)
	case bool:
		if !v {
			return nil
		}
		logger().Warn("invalid release date", zap.Bool("date", v))
		return nil
	default:
		if !isNumber(v) {
			logger().Warn("invalid release date", zap.Any("date", v))
			return nil
		}
		secs, err := cast.ToFloat64E(v)
		if err != nil || math.IsNaN(secs) || math.IsInf(secs, 0) {
			logger().Warn("invalid release date", zap.Any("date", v))
			return nil
		}
		if secs == 0 {
			return nil
		}
		whole, frac := math.Modf(secs)
		t = time.Unix(int64(whole), int64(frac*1e9))
	}

	s := t.UTC().Format(format.ISOLayout)
	return &s
}

// TVShowDisplayDate picks the date shown for a show: once the first air date
// has passed, an upcoming next episode takes over.
func TVShowDisplayDate(firstAirDate, nextEpisodeDate *string, now time.Time) *string {
	if firstAirDate == nil || strings.TrimSpace(*firstAirDate) == "" {
		return nextEpisodeDate
	}

	first, ok := format.ParseDate(*firstAirDate)
	if !ok {
		return firstAirDate
	}

	if format.DaysUntil(first, now) < 0 && nextEpisodeDate != nil {
		return nextEpisodeDate
	}
	return firstAirDate
}

// NormalizeRating parses a rating and checks it against [0, scale].
// Scale conversion for display is left to the format package.
func NormalizeRating(raw any, scale float64) *float64 {
	if raw == nil {
		return nil
	}
	if _, isBool := raw.(bool); isBool {
		return nil
	}
	if s, isString := raw.(string); isString && strings.TrimSpace(s) == "" {
		return nil
	}

	v, err := cast.ToFloat64E(raw)
	if err != nil || math.IsNaN(v) {
		return nil
	}
	if v < 0 || v > scale {
		logger().Warn("rating out of range", zap.Float64("rating", v), zap.Float64("scale", scale))
		return nil
	}
	return &v
}

// NormalizeArray returns the string entries of input. With extractProperty
// set, object entries contribute that property instead of being dropped.
func NormalizeArray(input any, extractProperty string) []string {
	list, ok := asList(input)
	if !ok || len(list) == 0 {
		return []string{}
	}

	out := make([]string, 0, len(list))
	for _, v := range list {
		e, ok := decodeStringOrNamed(v, extractProperty)
		if !ok || e.Value == "" {
			continue
		}
		out = append(out, e.Value)
	}
	return out
}

// Countdown reports how far away a release is.
type Countdown struct {
	DaysUntil   *int `json:"daysUntil"`
	IsCountdown bool `json:"isCountdown"`
}

// CountdownStatus counts whole days from today to releaseDate. Releases one
// to seven days out are in countdown.
func CountdownStatus(releaseDate *string, now time.Time) Countdown {
	if releaseDate == nil {
		return Countdown{}
	}
	release, ok := format.ParseDate(*releaseDate)
	if !ok {
		return Countdown{}
	}

	days := format.DaysUntil(release, now)
	return Countdown{
		DaysUntil:   &days,
		IsCountdown: days >= 1 && days <= 7,
	}
}

// CommonFieldsConfig names the source fields ExtractCommonFields reads.
type CommonFieldsConfig struct {
	IDField            string
	TitleFields        []string
	DescriptionField   string
	DefaultDescription string
	PosterField        string
	Poster             PosterOptions
}

// CommonFields are the fields every StandardItem shares.
type CommonFields struct {
	ID          string
	Title       string
	Description string
	Poster      string
}

// DefaultTitle is used when a record has no title.
const DefaultTitle = "Untitled"

// ExtractCommonFields reads id, title, description and poster from raw.
func ExtractCommonFields(raw Record, cfg CommonFieldsConfig) CommonFields {
	idField := cfg.IDField
	if idField == "" {
		idField = "id"
	}
	titleFields := cfg.TitleFields
	if len(titleFields) == 0 {
		titleFields = []string{"title"}
	}
	descField := cfg.DescriptionField
	if descField == "" {
		descField = "overview"
	}
	posterField := cfg.PosterField
	if posterField == "" {
		posterField = "poster_path"
	}

	title := raw.First(titleFields...)
	if title == "" {
		title = DefaultTitle
	}
	desc := raw.String(descField)
	if strings.TrimSpace(desc) == "" {
		desc = cfg.DefaultDescription
	}

	return CommonFields{
		ID:          raw.String(idField),
		Title:       title,
		Description: desc,
		Poster:      NormalizePosterURL(raw.String(posterField), cfg.Poster),
	}
}

func asList(v any) ([]any, bool) {
	switch l := v.(type) {
	case []any:
		return l, true
	case []string:
		out := make([]any, len(l))
		for i, s := range l {
			out[i] = s
		}
		return out, true
	case []int:
		out := make([]any, len(l))
		for i, n := range l {
			out[i] = n
		}
		return out, true
	case []map[string]any:
		out := make([]any, len(l))
		for i, m := range l {
			out[i] = m
		}
		return out, true
	default:
		return nil, false
	}
}

func isNumber(v any) bool {
	switch v.(type) {
	case float64, float32, int, int32, int64, json.Number:
		return true
	default:
		return false
	}
}
