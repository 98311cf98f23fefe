package content

import (
	"fmt"
	"sort"
)

// Schema lists the metadata fields a content type is expected to carry.
type Schema struct {
	Type        ContentType
	Required    []string
	Optional    []string
	Description string
}

// SchemaSet maps content types to their schema.
type SchemaSet map[ContentType]Schema

// Schemas are the metadata schemas used by the adapters.
var Schemas = SchemaSet{
	TypeMovie: {
		Type:     TypeMovie,
		Required: []string{"type"},
		Optional: []string{
			"imdbId", "runtime", "originalTitle", "originalLanguage",
			"productionCompanies", "budget", "revenue", "theatricalReleaseDate",
		},
		Description: "Feature films from TMDB",
	},
	TypeTVShow: {
		Type:     TypeTVShow,
		Required: []string{"type"},
		Optional: []string{
			"imdbId", "seasons", "episodes", "networks", "status",
			"nextEpisodeDate", "creators",
		},
		Description: "Television series from TMDB",
	},
	TypeGame: {
		Type:     TypeGame,
		Required: []string{"type"},
		Optional: []string{
			"steamUrl", "epicUrl", "platforms", "developers", "publishers", "gameModes",
		},
		Description: "Video games from IGDB",
	},
}

// ValidationResult is the outcome of checking metadata against a schema.
type ValidationResult struct {
	IsValid  bool     `json:"isValid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// ValidateMetadata checks fields against the default schemas.
func ValidateMetadata(fields map[string]any, t ContentType) ValidationResult {
	return Schemas.Validate(fields, t)
}

// Validate reports missing required fields as errors and unknown fields as
// warnings. A nil value counts as missing.
func (s SchemaSet) Validate(fields map[string]any, t ContentType) ValidationResult {
	res := ValidationResult{Errors: []string{}, Warnings: []string{}}

	schema, ok := s[t]
	if !ok {
		res.Errors = append(res.Errors, fmt.Sprintf("unknown content type %q", t))
		return res
	}
	if fields == nil {
		res.Errors = append(res.Errors, "metadata is missing")
		return res
	}

	known := make(map[string]bool, len(schema.Required)+len(schema.Optional))
	for _, f := range schema.Required {
		known[f] = true
		if v, present := fields[f]; !present || v == nil {
			res.Errors = append(res.Errors, fmt.Sprintf("missing required field %q", f))
		}
	}
	for _, f := range schema.Optional {
		known[f] = true
	}

	extra := make([]string, 0)
	for f := range fields {
		if !known[f] {
			extra = append(extra, f)
		}
	}
	sort.Strings(extra)
	for _, f := range extra {
		res.Warnings = append(res.Warnings, fmt.Sprintf("unexpected field %q", f))
	}

	res.IsValid = len(res.Errors) == 0
	return res
}
