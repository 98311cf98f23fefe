// Package scraper fetches the published category data files.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gocolly/colly"
	"go.uber.org/zap"
)

const (
	defaultTimeout    = 30 * time.Second
	defaultMaxRetries = 3
	maxBodySize       = 64 << 20
)

// ErrNotFound is returned when the data file does not exist upstream.
var ErrNotFound = errors.New("data file not found")

// HTTPSource fetches data files from a base URL. Every request carries a
// ?t= timestamp so intermediate caches never serve a stale file.
type HTTPSource struct {
	baseURL    string
	logger     *zap.Logger
	timeout    time.Duration
	maxRetries uint64
	now        func() time.Time
	newBackOff func() backoff.BackOff
}

type Option func(*HTTPSource)

func WithTimeout(d time.Duration) Option {
	return func(s *HTTPSource) { s.timeout = d }
}

func WithMaxRetries(n uint64) Option {
	return func(s *HTTPSource) { s.maxRetries = n }
}

// WithBackOff sets the retry policy used for each fetch.
func WithBackOff(fn func() backoff.BackOff) Option {
	return func(s *HTTPSource) { s.newBackOff = fn }
}

func WithClock(now func() time.Time) Option {
	return func(s *HTTPSource) { s.now = now }
}

func NewHTTPSource(baseURL string, logger *zap.Logger, opts ...Option) *HTTPSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &HTTPSource{
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     logger.Named("scraper"),
		timeout:    defaultTimeout,
		maxRetries: defaultMaxRetries,
		now:        time.Now,
		newBackOff: func() backoff.BackOff { return backoff.NewExponentialBackOff() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fetch downloads one data file, retrying transient failures.
func (s *HTTPSource) Fetch(ctx context.Context, file string) ([]byte, error) {
	var body []byte
	attempt := 0

	op := func() error {
		attempt++
		if err := ctx.Err(); err != nil {
			return backoff.Permanent(err)
		}
		data, err := s.visit(s.fileURL(file))
		if err != nil {
			return err
		}
		body = data
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(s.newBackOff(), s.maxRetries), ctx)
	notify := func(err error, wait time.Duration) {
		s.logger.Warn("fetch failed, retrying",
			zap.String("file", file),
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(err))
	}

	if err := backoff.RetryNotify(op, policy, notify); err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", file, err)
	}
	s.logger.Debug("fetched data file", zap.String("file", file), zap.Int("bytes", len(body)))
	return body, nil
}

func (s *HTTPSource) fileURL(file string) string {
	q := url.Values{}
	q.Set("t", strconv.FormatInt(s.now().UnixMilli(), 10))
	return s.baseURL + "/" + url.PathEscape(file) + "?" + q.Encode()
}

// visit runs one collector request. 404s are permanent; everything else
// is left to the retry policy.
func (s *HTTPSource) visit(target string) ([]byte, error) {
	c := colly.NewCollector(
		colly.MaxBodySize(maxBodySize),
		colly.AllowURLRevisit(),
	)
	c.SetRequestTimeout(s.timeout)

	var (
		body    []byte
		failure error
	)

	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", "application/json")
		s.logger.Debug("visiting", zap.String("url", r.URL.String()))
	})

	c.OnResponse(func(r *colly.Response) {
		body = r.Body
	})

	c.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode == http.StatusNotFound {
			failure = backoff.Permanent(ErrNotFound)
			return
		}
		if r != nil && r.StatusCode != 0 {
			failure = fmt.Errorf("unexpected status %d: %w", r.StatusCode, err)
			return
		}
		failure = err
	})

	if err := c.Visit(target); err != nil && failure == nil {
		failure = err
	}
	if failure != nil {
		return nil, failure
	}
	return body, nil
}

// DirSource reads data files from a local directory.
type DirSource struct {
	Dir string
}

func NewDirSource(dir string) *DirSource {
	return &DirSource{Dir: dir}
}

func (d *DirSource) Fetch(ctx context.Context, file string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(d.Dir, filepath.Base(file)))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", file, ErrNotFound)
	}
	return data, err
}
