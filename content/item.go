package content

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ContentType tags which adapter produced an item.
type ContentType string

const (
	TypeMovie  ContentType = "movie"
	TypeTVShow ContentType = "tv-show"
	TypeGame   ContentType = "game"
)

var (
	// ErrMalformedRecord is returned when a raw record is not a JSON object.
	ErrMalformedRecord = errors.New("malformed record")
	// ErrInvalidMetadata is returned by a strict Normalizer when schema validation fails.
	ErrInvalidMetadata = errors.New("invalid metadata")
)

// StandardItem is the normalized shape every content type is mapped to.
type StandardItem struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Poster      string   `json:"poster"`
	ReleaseDate *string  `json:"releaseDate"`
	Rating      *float64 `json:"rating"`
	RatingMax   int      `json:"ratingMax"`
	Genres      []string `json:"genres"`
	Metadata    Metadata `json:"metadata"`
}

// Type returns the item's metadata type, or "" when metadata is missing.
func (i StandardItem) Type() ContentType {
	if i.Metadata == nil {
		return ""
	}
	return i.Metadata.Type()
}

// Key identifies an item across categories.
func (i StandardItem) Key() string {
	return string(i.Type()) + ":" + i.ID
}

// Metadata is the type-specific part of an item. The set of implementations
// is closed: MovieMetadata, TVShowMetadata and GameMetadata.
type Metadata interface {
	Type() ContentType
	details() []DetailRow
}

// MovieMetadata carries movie-only fields.
type MovieMetadata struct {
	IMDbID                *string `json:"imdbId"`
	Runtime               *int    `json:"runtime"`
	OriginalTitle         *string `json:"originalTitle"`
	OriginalLanguage      *string `json:"originalLanguage"`
	ProductionCompanies   []any   `json:"productionCompanies"`
	Budget                *int64  `json:"budget"`
	Revenue               *int64  `json:"revenue"`
	TheatricalReleaseDate *string `json:"theatricalReleaseDate"`
}

func (*MovieMetadata) Type() ContentType { return TypeMovie }

// TVShowMetadata carries TV-only fields.
type TVShowMetadata struct {
	IMDbID          *string  `json:"imdbId"`
	Seasons         *int     `json:"seasons"`
	Episodes        *int     `json:"episodes"`
	Networks        NameList `json:"networks"`
	Status          *string  `json:"status"`
	NextEpisodeDate *string  `json:"nextEpisodeDate"`
	Creators        NameList `json:"creators"`
}

func (*TVShowMetadata) Type() ContentType { return TypeTVShow }

// GameMetadata carries game-only fields.
type GameMetadata struct {
	SteamURL   *string  `json:"steamUrl"`
	EpicURL    *string  `json:"epicUrl"`
	Platforms  NameList `json:"platforms"`
	Developers NameList `json:"developers"`
	Publishers NameList `json:"publishers"`
	GameModes  NameList `json:"gameModes"`
}

func (*GameMetadata) Type() ContentType { return TypeGame }

// MarshalJSON writes the metadata variant with its "type" discriminator.
func (i StandardItem) MarshalJSON() ([]byte, error) {
	type plain StandardItem
	meta, err := marshalMetadata(i.Metadata)
	if err != nil {
		return nil, err
	}
	return json.Marshal(struct {
		plain
		Metadata json.RawMessage `json:"metadata"`
	}{plain: plain(i), Metadata: meta})
}

// UnmarshalJSON reads an item, picking the metadata variant from its "type".
func (i *StandardItem) UnmarshalJSON(data []byte) error {
	type plain StandardItem
	aux := struct {
		*plain
		Metadata json.RawMessage `json:"metadata"`
	}{plain: (*plain)(i)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	meta, err := unmarshalMetadata(aux.Metadata)
	if err != nil {
		return err
	}
	i.Metadata = meta
	if i.Genres == nil {
		i.Genres = []string{}
	}
	return nil
}

func marshalMetadata(m Metadata) (json.RawMessage, error) {
	if m == nil {
		return json.RawMessage("null"), nil
	}
	body, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	typ, _ := json.Marshal(m.Type())
	fields["type"] = typ
	return json.Marshal(fields)
}

func unmarshalMetadata(data json.RawMessage) (Metadata, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}

	var head struct {
		Type ContentType `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, err
	}

	var m Metadata
	switch head.Type {
	case TypeMovie:
		m = &MovieMetadata{}
	case TypeTVShow:
		m = &TVShowMetadata{}
	case TypeGame:
		m = &GameMetadata{}
	default:
		return nil, fmt.Errorf("unknown metadata type %q", head.Type)
	}
	if err := json.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("failed to decode %s metadata: %w", head.Type, err)
	}
	return m, nil
}

// metadataFields flattens metadata into the field map schema validation reads.
func metadataFields(m Metadata) (map[string]any, error) {
	raw, err := marshalMetadata(m)
	if err != nil {
		return nil, err
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}
