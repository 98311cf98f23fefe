package metrics

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecording(t *testing.T) {
	m := New()

	m.CacheLookup(true)
	m.CacheLookup(false)
	m.CacheLookup(false)
	m.LoadFinished("movies", 12, nil, 20*time.Millisecond)
	m.LoadFinished("books", 0, errors.New("404"), time.Millisecond)
	m.BookmarkToggled(true)
	m.Searched()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.loads.WithLabelValues("books", "error")))
	assert.Equal(t, 12.0, testutil.ToFloat64(m.items.WithLabelValues("movies")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.bookmarkToggles.WithLabelValues("add")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.searches))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.CacheLookup(true)
		m.LoadFinished("movies", 1, nil, time.Second)
		m.BookmarkToggled(false)
		m.Searched()
	})
}

func TestHandler(t *testing.T) {
	m := New()
	m.Searched()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "midloop_searches_total 1")
}
