package content

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	noOverview = "No overview available."
	noSummary  = "No summary available."
)

// Normalizer maps raw source records onto StandardItems.
// The zero value is ready to use.
type Normalizer struct {
	// Strict turns schema validation failures into errors instead of log lines.
	Strict bool
	// Now supplies "today" for date policies. Defaults to time.Now.
	Now func() time.Time
	// Logger receives validation output. Defaults to zap.L().
	Logger *zap.Logger
	// Schemas overrides the metadata schemas checked after mapping.
	Schemas SchemaSet
}

var defaultNormalizer = &Normalizer{}

// NormalizeMovie maps a TMDB-style movie record.
func NormalizeMovie(raw Record) (StandardItem, error) { return defaultNormalizer.Movie(raw) }

// NormalizeTVShow maps a TMDB-style TV record.
func NormalizeTVShow(raw Record) (StandardItem, error) { return defaultNormalizer.TVShow(raw) }

// NormalizeGame maps an IGDB-style game record.
func NormalizeGame(raw Record) (StandardItem, error) { return defaultNormalizer.Game(raw) }

// Normalize dispatches to the adapter for t.
func (n *Normalizer) Normalize(t ContentType, raw Record) (StandardItem, error) {
	switch t {
	case TypeMovie:
		return n.Movie(raw)
	case TypeTVShow:
		return n.TVShow(raw)
	case TypeGame:
		return n.Game(raw)
	default:
		return StandardItem{}, fmt.Errorf("no adapter for content type %q", t)
	}
}

// Movie maps a movie record. The digital release date is the primary date;
// release_date is kept as the theatrical date.
func (n *Normalizer) Movie(raw Record) (StandardItem, error) {
	if raw == nil {
		return StandardItem{}, fmt.Errorf("movie: %w", ErrMalformedRecord)
	}

	common := ExtractCommonFields(raw, CommonFieldsConfig{
		DefaultDescription: noOverview,
		Poster:             PosterOptions{BaseURL: TMDBImageBaseURL},
	})

	meta := &MovieMetadata{
		IMDbID:                raw.StringPtr("imdb_id"),
		Runtime:               raw.Int("runtime"),
		OriginalTitle:         raw.StringPtr("original_title"),
		OriginalLanguage:      raw.StringPtr("original_language"),
		ProductionCompanies:   passthrough(raw.Raw("production_companies")),
		Budget:                raw.Int64("budget"),
		Revenue:               raw.Int64("revenue"),
		TheatricalReleaseDate: NormalizeReleaseDate(raw.Raw("release_date")),
	}

	item := StandardItem{
		ID:          common.ID,
		Title:       common.Title,
		Description: common.Description,
		Poster:      common.Poster,
		ReleaseDate: NormalizeReleaseDate(raw.Raw("digital_release_date")),
		Rating:      NormalizeRating(raw.Raw("vote_average"), 10),
		RatingMax:   10,
		Genres:      NormalizeGenres(raw.Raw("genre_ids"), MovieGenres),
		Metadata:    meta,
	}
	return n.finish(item)
}

// TVShow maps a TV record. Shows that already premiered display their next
// episode date when one is known.
func (n *Normalizer) TVShow(raw Record) (StandardItem, error) {
	if raw == nil {
		return StandardItem{}, fmt.Errorf("tv show: %w", ErrMalformedRecord)
	}

	common := ExtractCommonFields(raw, CommonFieldsConfig{
		TitleFields:        []string{"title", "name"},
		DefaultDescription: noOverview,
		Poster:             PosterOptions{BaseURL: TMDBImageBaseURL},
	})

	firstAir := raw.StringPtr("first_air_date")
	if firstAir == nil {
		firstAir = raw.StringPtr("digital_release_date")
	}
	nextEpisode := raw.StringPtr("next_episode_date")

	meta := &TVShowMetadata{
		IMDbID:          raw.StringPtr("imdb_id"),
		Seasons:         raw.Int("number_of_seasons"),
		Episodes:        raw.Int("number_of_episodes"),
		Networks:        NormalizeArray(raw.Raw("networks"), "name"),
		Status:          raw.StringPtr("release_status"),
		NextEpisodeDate: NormalizeReleaseDate(raw.Raw("next_episode_date")),
		Creators:        NormalizeArray(raw.Raw("created_by"), "name"),
	}

	item := StandardItem{
		ID:          common.ID,
		Title:       common.Title,
		Description: common.Description,
		Poster:      common.Poster,
		ReleaseDate: NormalizeReleaseDate(TVShowDisplayDate(firstAir, nextEpisode, n.now())),
		Rating:      NormalizeRating(raw.Raw("vote_average"), 10),
		RatingMax:   10,
		Genres:      NormalizeGenres(raw.Raw("genre_ids"), TVGenres),
		Metadata:    meta,
	}
	return n.finish(item)
}

// Game maps an IGDB-style record: slug IDs, full poster URLs, Unix-seconds
// release dates and a 0-100 rating.
func (n *Normalizer) Game(raw Record) (StandardItem, error) {
	if raw == nil {
		return StandardItem{}, fmt.Errorf("game: %w", ErrMalformedRecord)
	}

	common := ExtractCommonFields(raw, CommonFieldsConfig{
		IDField:            "slug",
		TitleFields:        []string{"name"},
		DescriptionField:   "summary",
		DefaultDescription: noSummary,
		Poster:             PosterOptions{IsFullURL: true},
	})

	meta := &GameMetadata{
		SteamURL:   NormalizeStoreURL(raw.Raw("steam_url"), "Steam"),
		EpicURL:    NormalizeStoreURL(raw.Raw("epic_url"), "Epic"),
		Platforms:  NormalizeArray(raw.Raw("platforms"), "name"),
		Developers: NormalizeArray(raw.Raw("developers"), "name"),
		Publishers: NormalizeArray(raw.Raw("publishers"), "name"),
		GameModes:  NormalizeArray(raw.Raw("game_modes"), "name"),
	}

	item := StandardItem{
		ID:          common.ID,
		Title:       common.Title,
		Description: common.Description,
		Poster:      common.Poster,
		ReleaseDate: NormalizeReleaseDate(raw.Raw("first_release_date")),
		Rating:      NormalizeRating(raw.Raw("total_rating"), 100),
		RatingMax:   100,
		Genres:      NormalizeGenres(raw.Raw("genres"), nil),
		Metadata:    meta,
	}
	return n.finish(item)
}

// finish validates the metadata and applies the strictness policy.
func (n *Normalizer) finish(item StandardItem) (StandardItem, error) {
	fields, err := metadataFields(item.Metadata)
	if err != nil {
		return StandardItem{}, fmt.Errorf("failed to inspect %s metadata: %w", item.Type(), err)
	}

	schemas := n.Schemas
	if schemas == nil {
		schemas = Schemas
	}
	res := schemas.Validate(fields, item.Type())
	if len(res.Errors) > 0 || len(res.Warnings) > 0 {
		n.logger().Warn("metadata validation",
			zap.String("id", item.ID),
			zap.String("type", string(item.Type())),
			zap.Strings("errors", res.Errors),
			zap.Strings("warnings", res.Warnings))
	}
	if n.Strict && !res.IsValid {
		return StandardItem{}, fmt.Errorf("%s %q: %w: %s", item.Type(), item.ID, ErrInvalidMetadata, strings.Join(res.Errors, "; "))
	}
	return item, nil
}

func (n *Normalizer) now() time.Time {
	if n.Now != nil {
		return n.Now()
	}
	return time.Now()
}

func (n *Normalizer) logger() *zap.Logger {
	if n.Logger != nil {
		return n.Logger
	}
	return logger()
}

func passthrough(v any) []any {
	list, ok := asList(v)
	if !ok {
		return nil
	}
	return list
}
