package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"midloop/content"
)

// Source fetches a named data file.
type Source interface {
	Fetch(ctx context.Context, file string) ([]byte, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, file string) ([]byte, error)

func (f SourceFunc) Fetch(ctx context.Context, file string) ([]byte, error) { return f(ctx, file) }

// ErrStubbed marks categories that have no adapter yet.
var ErrStubbed = errors.New("category has no adapter")

// Loader fetches a data file and normalizes every record in it.
type Loader struct {
	source     Source
	normalizer *content.Normalizer
	logger     *zap.Logger
}

func NewLoader(source Source, normalizer *content.Normalizer, logger *zap.Logger) *Loader {
	if normalizer == nil {
		normalizer = &content.Normalizer{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{source: source, normalizer: normalizer, logger: logger}
}

// Load returns the normalized items of a route. A record that cannot be
// normalized aborts the whole load.
func (l *Loader) Load(ctx context.Context, r Route) ([]content.StandardItem, error) {
	cfg, err := ConfigFor(r)
	if err != nil {
		return nil, err
	}

	data, err := l.source.Fetch(ctx, cfg.File)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", cfg.File, err)
	}
	if cfg.Stubbed {
		return nil, fmt.Errorf("%s: %w", r, ErrStubbed)
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode %s: %w", cfg.File, err)
	}

	items := make([]content.StandardItem, 0, len(raw))
	for i, msg := range raw {
		var rec content.Record
		if err := json.Unmarshal(msg, &rec); err != nil {
			err = fmt.Errorf("%w: %v", content.ErrMalformedRecord, err)
			l.logBroken(r, i, msg, err)
			return nil, fmt.Errorf("%s record %d: %w", r, i, err)
		}
		item, err := l.normalizer.Normalize(cfg.Type, rec)
		if err != nil {
			l.logBroken(r, i, msg, err)
			return nil, fmt.Errorf("%s record %d: %w", r, i, err)
		}
		items = append(items, item)
	}
	return items, nil
}

func (l *Loader) logBroken(r Route, index int, raw json.RawMessage, err error) {
	l.logger.Error("failed to normalize record",
		zap.String("route", r.Key()),
		zap.Int("index", index),
		zap.ByteString("raw", raw),
		zap.Error(err))
}
