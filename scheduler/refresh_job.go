package scheduler

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"midloop/content"
)

// Catalog is the part of the catalog service the refresh job drives.
type Catalog interface {
	Refresh(ctx context.Context) map[string][]content.StandardItem
	Live(ctx context.Context) []content.StandardItem
}

// Bookmarks is the part of the bookmark manager the refresh job drives.
type Bookmarks interface {
	Refresh(ctx context.Context, live []content.StandardItem) (int, error)
	Keys() (map[string]bool, error)
}

// Notifier sends the release digest.
type Notifier interface {
	NotifyReleases(items []content.StandardItem, bookmarked map[string]bool, now time.Time) error
}

// RefreshJob reloads every category, refreshes bookmark snapshots from the
// new data and mails the weekly release digest.
type RefreshJob struct {
	catalog   Catalog
	bookmarks Bookmarks
	notifier  Notifier
	logger    *zap.Logger
	now       func() time.Time
}

// NewRefreshJob creates the job. notifier may be nil to disable the digest.
func NewRefreshJob(catalog Catalog, bookmarks Bookmarks, notifier Notifier, logger *zap.Logger, now func() time.Time) *RefreshJob {
	if logger == nil {
		logger = zap.NewNop()
	}
	if now == nil {
		now = time.Now
	}
	if notifier == nil {
		logger.Info("email notifications disabled: missing configuration")
	}
	return &RefreshJob{
		catalog:   catalog,
		bookmarks: bookmarks,
		notifier:  notifier,
		logger:    logger.Named("refresh"),
		now:       now,
	}
}

// Name returns the name of the job
func (j *RefreshJob) Name() string {
	return "catalog_refresh"
}

// Run executes the job
func (j *RefreshJob) Run(ctx context.Context) error {
	loaded := j.catalog.Refresh(ctx)
	total := 0
	for route, items := range loaded {
		total += len(items)
		j.logger.Debug("route reloaded", zap.String("route", route), zap.Int("items", len(items)))
	}
	j.logger.Info("catalog reloaded", zap.Int("routes", len(loaded)), zap.Int("items", total))

	if err := ctx.Err(); err != nil {
		return err
	}

	live := j.catalog.Live(ctx)
	updated, err := j.bookmarks.Refresh(ctx, live)
	if err != nil {
		return fmt.Errorf("failed to refresh bookmarks: %w", err)
	}
	j.logger.Info("bookmarks refreshed", zap.Int("updated", updated))

	if j.notifier == nil {
		return nil
	}

	keys, err := j.bookmarks.Keys()
	if err != nil {
		j.logger.Warn("could not read bookmarks for digest", zap.Error(err))
	}
	if err := j.notifier.NotifyReleases(live, keys, j.now()); err != nil {
		// a failed digest does not fail the refresh
		j.logger.Error("failed to send release digest", zap.Error(err))
	}
	return nil
}
