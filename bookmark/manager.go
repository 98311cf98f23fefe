// Package bookmark keeps user bookmarks as full item snapshots so the
// bookmarks view renders without fetching, and refreshes them from live data.
package bookmark

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"midloop/content"
	"midloop/metrics"
	"midloop/storage"
)

// ErrNotFound is returned when a bookmark does not exist.
var ErrNotFound = storage.ErrNotFound

// StorageKey names the exported bookmark document, kept from the browser era.
const StorageKey = "midloop_bookmarks"

// Store is the persistence the manager needs.
type Store interface {
	SaveBookmark(item content.StandardItem) error
	GetBookmark(itemType content.ContentType, id string) (storage.Bookmark, error)
	DeleteBookmark(itemType content.ContentType, id string) error
	GetAllBookmarks() ([]storage.Bookmark, error)
	GetBookmarksByType(itemType content.ContentType) ([]storage.Bookmark, error)
	SearchBookmarks(title string) ([]storage.Bookmark, error)
}

type Manager struct {
	store   Store
	logger  *zap.Logger
	metrics *metrics.Metrics
}

func NewManager(store Store, logger *zap.Logger, m *metrics.Metrics) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{store: store, logger: logger.Named("bookmarks"), metrics: m}
}

// Toggle bookmarks item, or removes the bookmark if it exists.
// It reports whether the item is bookmarked afterwards.
func (m *Manager) Toggle(item content.StandardItem) (bool, error) {
	if item.Metadata == nil || item.ID == "" {
		return false, fmt.Errorf("toggle bookmark: %w", content.ErrMalformedRecord)
	}

	bookmarked, err := m.IsBookmarked(item.Type(), item.ID)
	if err != nil {
		return false, err
	}

	if bookmarked {
		if err := m.store.DeleteBookmark(item.Type(), item.ID); err != nil {
			return true, fmt.Errorf("failed to remove bookmark %s: %w", item.Key(), err)
		}
		m.metrics.BookmarkToggled(false)
		m.logger.Debug("bookmark removed", zap.String("key", item.Key()))
		return false, nil
	}

	if err := m.store.SaveBookmark(item); err != nil {
		return false, fmt.Errorf("failed to add bookmark %s: %w", item.Key(), err)
	}
	m.metrics.BookmarkToggled(true)
	m.logger.Debug("bookmark added", zap.String("key", item.Key()))
	return true, nil
}

func (m *Manager) IsBookmarked(itemType content.ContentType, id string) (bool, error) {
	_, err := m.store.GetBookmark(itemType, id)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, storage.ErrNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("failed to look up bookmark: %w", err)
	}
}

// Get returns the stored snapshot of a bookmarked item.
func (m *Manager) Get(itemType content.ContentType, id string) (content.StandardItem, bool, error) {
	b, err := m.store.GetBookmark(itemType, id)
	switch {
	case err == nil:
		return b.Item, true, nil
	case errors.Is(err, storage.ErrNotFound):
		return content.StandardItem{}, false, nil
	default:
		return content.StandardItem{}, false, fmt.Errorf("failed to look up bookmark: %w", err)
	}
}

// Remove deletes a bookmark. Removing a missing bookmark is not an error.
func (m *Manager) Remove(itemType content.ContentType, id string) error {
	err := m.store.DeleteBookmark(itemType, id)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("failed to remove bookmark: %w", err)
	}
	if err == nil {
		m.metrics.BookmarkToggled(false)
	}
	return nil
}

// List returns bookmarked items, newest first.
func (m *Manager) List() ([]content.StandardItem, error) {
	bookmarks, err := m.store.GetAllBookmarks()
	if err != nil {
		return nil, err
	}
	return snapshots(bookmarks), nil
}

// ListByType returns the bookmarks of one content type, newest first.
func (m *Manager) ListByType(itemType content.ContentType) ([]content.StandardItem, error) {
	bookmarks, err := m.store.GetBookmarksByType(itemType)
	if err != nil {
		return nil, err
	}
	return snapshots(bookmarks), nil
}

// Search matches bookmarked titles. A blank query matches nothing.
func (m *Manager) Search(query string) ([]content.StandardItem, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []content.StandardItem{}, nil
	}
	bookmarks, err := m.store.SearchBookmarks(query)
	if err != nil {
		return nil, err
	}
	m.metrics.Searched()
	return snapshots(bookmarks), nil
}

func snapshots(bookmarks []storage.Bookmark) []content.StandardItem {
	items := make([]content.StandardItem, 0, len(bookmarks))
	for _, b := range bookmarks {
		items = append(items, b.Item)
	}
	return items
}

// Keys returns the set of bookmarked item keys.
func (m *Manager) Keys() (map[string]bool, error) {
	items, err := m.List()
	if err != nil {
		return nil, err
	}
	keys := make(map[string]bool, len(items))
	for _, item := range items {
		keys[item.Key()] = true
	}
	return keys, nil
}

// Refresh replaces stored snapshots with the matching live items.
// Bookmarks with no live counterpart are left as they are.
func (m *Manager) Refresh(ctx context.Context, live []content.StandardItem) (int, error) {
	byKey := make(map[string]content.StandardItem, len(live))
	for _, item := range live {
		byKey[item.Key()] = item
	}

	bookmarks, err := m.store.GetAllBookmarks()
	if err != nil {
		return 0, err
	}

	updated := 0
	for _, b := range bookmarks {
		if err := ctx.Err(); err != nil {
			return updated, err
		}
		fresh, ok := byKey[b.Item.Key()]
		if !ok || sameSnapshot(b.Item, fresh) {
			continue
		}
		if err := m.store.SaveBookmark(fresh); err != nil {
			return updated, fmt.Errorf("failed to refresh bookmark %s: %w", fresh.Key(), err)
		}
		updated++
	}

	if updated > 0 {
		m.logger.Info("bookmarks refreshed from live data", zap.Int("updated", updated))
	}
	return updated, nil
}

// Export writes every bookmark as a JSON array of items.
func (m *Manager) Export(w io.Writer) error {
	items, err := m.List()
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(items)
}

// Import reads a JSON array of items and bookmarks each one. Entries that
// cannot be decoded are logged and skipped.
func (m *Manager) Import(r io.Reader) (int, error) {
	var entries []json.RawMessage
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return 0, fmt.Errorf("failed to decode %s: %w", StorageKey, err)
	}

	imported := 0
	for i, raw := range entries {
		var probe struct {
			Metadata map[string]any `json:"metadata"`
		}
		if err := json.Unmarshal(raw, &probe); err == nil && probe.Metadata != nil {
			typ, _ := probe.Metadata["type"].(string)
			res := content.ValidateMetadata(probe.Metadata, content.ContentType(typ))
			if len(res.Errors) > 0 || len(res.Warnings) > 0 {
				m.logger.Warn("imported bookmark metadata",
					zap.Int("index", i),
					zap.Strings("errors", res.Errors),
					zap.Strings("warnings", res.Warnings))
			}
		}

		var item content.StandardItem
		if err := json.Unmarshal(raw, &item); err != nil || item.Metadata == nil || item.ID == "" {
			m.logger.Warn("skipping bookmark entry", zap.Int("index", i), zap.Error(err))
			continue
		}
		if err := m.store.SaveBookmark(item); err != nil {
			return imported, fmt.Errorf("failed to import bookmark %s: %w", item.Key(), err)
		}
		imported++
	}
	return imported, nil
}

func sameSnapshot(a, b content.StandardItem) bool {
	aj, errA := json.Marshal(a)
	bj, errB := json.Marshal(b)
	return errA == nil && errB == nil && string(aj) == string(bj)
}
