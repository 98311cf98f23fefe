package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastBackOff() backoff.BackOff {
	return backoff.NewConstantBackOff(time.Millisecond)
}

func TestHTTPSourceCacheBusts(t *testing.T) {
	var gotPath, gotT string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotT = r.URL.Query().Get("t")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":1}]`))
	}))
	defer srv.Close()

	clock := func() time.Time { return time.UnixMilli(1741737600123) }
	src := NewHTTPSource(srv.URL+"/", nil, WithClock(clock), WithBackOff(fastBackOff))

	data, err := src.Fetch(context.Background(), "data_movies.json")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":1}]`, string(data))
	assert.Equal(t, "/data_movies.json", gotPath)
	assert.Equal(t, "1741737600123", gotT)
}

func TestHTTPSourceRetriesServerErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	src := NewHTTPSource(srv.URL, nil, WithBackOff(fastBackOff), WithMaxRetries(5))
	data, err := src.Fetch(context.Background(), "data_games.json")
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
	assert.Equal(t, int32(3), hits.Load())
}

func TestHTTPSourceGivesUp(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	src := NewHTTPSource(srv.URL, nil, WithBackOff(fastBackOff), WithMaxRetries(2))
	_, err := src.Fetch(context.Background(), "data_games.json")
	require.Error(t, err)
	assert.Equal(t, int32(3), hits.Load())
}

func TestHTTPSourceNotFoundIsPermanent(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	src := NewHTTPSource(srv.URL, nil, WithBackOff(fastBackOff))
	_, err := src.Fetch(context.Background(), "data_books.json")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, int32(1), hits.Load())
}

func TestHTTPSourceCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewHTTPSource(srv.URL, nil).Fetch(ctx, "data_movies.json")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDirSource(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data_movies.json"), []byte(`[]`), 0o644))

	src := NewDirSource(dir)
	data, err := src.Fetch(context.Background(), "data_movies.json")
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))

	_, err = src.Fetch(context.Background(), "data_music.json")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = src.Fetch(context.Background(), "../data_movies.json")
	require.NoError(t, err, "paths are confined to the data directory")
}
