package content

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStandardItemJSON(t *testing.T) {
	item, err := NormalizeGame(Record{
		"slug": "hades-2", "name": "Hades II", "total_rating": 90.0,
		"platforms": []any{"PC"}, "genres": []any{"Roguelike"},
	})
	require.NoError(t, err)

	body, err := json.Marshal(item)
	require.NoError(t, err)

	var generic map[string]any
	require.NoError(t, json.Unmarshal(body, &generic))
	meta := generic["metadata"].(map[string]any)
	assert.Equal(t, "game", meta["type"])
	assert.Equal(t, "hades-2", generic["id"])
	assert.Equal(t, 100.0, generic["ratingMax"])

	var back StandardItem
	require.NoError(t, json.Unmarshal(body, &back))
	if diff := cmp.Diff(item, back); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestStandardItemJSONAcceptsNamedObjects(t *testing.T) {
	snapshot := `{
		"id": "1399", "title": "Dragons", "description": "", "poster": "/static/placeholder.svg",
		"releaseDate": null, "rating": null, "ratingMax": 10, "genres": null,
		"metadata": {"type": "tv-show", "networks": [{"id": 49, "name": "HBO"}, "Max"], "creators": null}
	}`

	var item StandardItem
	require.NoError(t, json.Unmarshal([]byte(snapshot), &item))
	assert.Equal(t, TypeTVShow, item.Type())
	assert.Equal(t, []string{}, item.Genres)
	assert.Equal(t, NameList{"HBO", "Max"}, item.Metadata.(*TVShowMetadata).Networks)
	assert.Equal(t, "tv-show:1399", item.Key())
}

func TestStandardItemJSONRejectsUnknownType(t *testing.T) {
	var item StandardItem
	err := json.Unmarshal([]byte(`{"id":"1","metadata":{"type":"album"}}`), &item)
	assert.Error(t, err)
}
