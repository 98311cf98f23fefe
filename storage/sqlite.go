package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"midloop/content"
)

type SQLiteStorage struct {
	db       *sql.DB
	dbPath   string
	dataPath string
	logger   *zap.Logger
}

func NewSQLiteStorage(dataPath string, logger *zap.Logger) *SQLiteStorage {
	if logger == nil {
		logger = zap.NewNop()
	}
	dbPath := filepath.Join(dataPath, "midloop.db")
	return &SQLiteStorage{
		dbPath:   dbPath,
		dataPath: dataPath,
		logger:   logger.Named("storage"),
	}
}

// dsn makes concurrent writers wait on the lock instead of failing with
// SQLITE_BUSY.
func (s *SQLiteStorage) dsn() string {
	return s.dbPath + "?_busy_timeout=5000"
}

func (s *SQLiteStorage) Initialize() error {
	// Create data directory if it doesn't exist
	if err := os.MkdirAll(s.dataPath, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := sql.Open("sqlite3", s.dsn())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	s.db = db

	migrationManager := NewMigrationManager(s.db, s.logger)
	if err := migrationManager.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize migrations: %w", err)
	}

	if err := migrationManager.Up(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	s.logger.Info("SQLite database initialized", zap.String("path", s.dbPath))
	return nil
}

// SaveBookmark stores a snapshot of item, keeping the original created_at
// when the bookmark already exists.
func (s *SQLiteStorage) SaveBookmark(item content.StandardItem) error {
	snapshot, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to encode bookmark %s: %w", item.Key(), err)
	}

	query := `
	INSERT INTO bookmarks (item_type, item_id, title, snapshot, release_date, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	ON CONFLICT (item_type, item_id) DO UPDATE SET
		title = excluded.title,
		snapshot = excluded.snapshot,
		release_date = excluded.release_date,
		updated_at = CURRENT_TIMESTAMP
	`
	if _, err := s.db.Exec(query, item.Type(), item.ID, item.Title, string(snapshot), item.ReleaseDate); err != nil {
		return fmt.Errorf("failed to save bookmark %s: %w", item.Key(), err)
	}
	return nil
}

func (s *SQLiteStorage) GetBookmark(itemType content.ContentType, id string) (Bookmark, error) {
	row := s.db.QueryRow(`
	SELECT snapshot, created_at, updated_at
	FROM bookmarks
	WHERE item_type = ? AND item_id = ?
	`, itemType, id)

	b, err := scanBookmark(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Bookmark{}, ErrNotFound
	}
	return b, err
}

func (s *SQLiteStorage) DeleteBookmark(itemType content.ContentType, id string) error {
	res, err := s.db.Exec(`DELETE FROM bookmarks WHERE item_type = ? AND item_id = ?`, itemType, id)
	if err != nil {
		return fmt.Errorf("failed to delete bookmark: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete bookmark: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStorage) GetAllBookmarks() ([]Bookmark, error) {
	return s.queryBookmarks(`
	SELECT snapshot, created_at, updated_at
	FROM bookmarks
	ORDER BY created_at DESC, rowid DESC
	`)
}

func (s *SQLiteStorage) GetBookmarksByType(itemType content.ContentType) ([]Bookmark, error) {
	return s.queryBookmarks(`
	SELECT snapshot, created_at, updated_at
	FROM bookmarks
	WHERE item_type = ?
	ORDER BY created_at DESC, rowid DESC
	`, itemType)
}

// SearchBookmarks matches title as a case-insensitive substring. LIKE
// wildcards in title match literally.
func (s *SQLiteStorage) SearchBookmarks(title string) ([]Bookmark, error) {
	return s.queryBookmarks(`
	SELECT snapshot, created_at, updated_at
	FROM bookmarks
	WHERE title LIKE ? ESCAPE '\'
	ORDER BY created_at DESC, rowid DESC
	`, "%"+likeEscaper.Replace(title)+"%")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

func (s *SQLiteStorage) queryBookmarks(query string, args ...any) ([]Bookmark, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookmarks: %w", err)
	}
	defer rows.Close()

	bookmarks := []Bookmark{}
	for rows.Next() {
		b, err := scanBookmark(rows)
		if err != nil {
			return nil, err
		}
		bookmarks = append(bookmarks, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read bookmarks: %w", err)
	}
	return bookmarks, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBookmark(row scanner) (Bookmark, error) {
	var (
		b        Bookmark
		snapshot string
	)
	if err := row.Scan(&snapshot, &b.CreatedAt, &b.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Bookmark{}, err
		}
		return Bookmark{}, fmt.Errorf("failed to scan bookmark: %w", err)
	}
	if err := json.Unmarshal([]byte(snapshot), &b.Item); err != nil {
		return Bookmark{}, fmt.Errorf("failed to decode bookmark snapshot: %w", err)
	}
	return b, nil
}

func (s *SQLiteStorage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStorage) GetDB() (*sql.DB, error) {
	if s.db == nil {
		db, err := sql.Open("sqlite3", s.dsn())
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		s.db = db
	}
	return s.db, nil
}

// GetStats counts bookmarks in total and per content type.
func (s *SQLiteStorage) GetStats() (map[string]int, error) {
	stats := map[string]int{"total": 0}
	for _, t := range []content.ContentType{content.TypeMovie, content.TypeTVShow, content.TypeGame} {
		stats[string(t)] = 0
	}

	rows, err := s.db.Query(`SELECT item_type, COUNT(*) FROM bookmarks GROUP BY item_type`)
	if err != nil {
		return nil, fmt.Errorf("failed to get bookmark counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			itemType string
			count    int
		)
		if err := rows.Scan(&itemType, &count); err != nil {
			return nil, fmt.Errorf("failed to scan bookmark count: %w", err)
		}
		stats[itemType] = count
		stats["total"] += count
	}
	return stats, rows.Err()
}

// Migration management methods
func (s *SQLiteStorage) GetMigrationManager() *MigrationManager {
	return NewMigrationManager(s.db, s.logger)
}

func (s *SQLiteStorage) GetDatabaseVersion() (int64, error) {
	migrationManager := s.GetMigrationManager()
	if err := migrationManager.Initialize(); err != nil {
		return 0, err
	}
	return migrationManager.Version()
}

func (s *SQLiteStorage) RunMigrations() error {
	migrationManager := s.GetMigrationManager()
	if err := migrationManager.Initialize(); err != nil {
		return err
	}
	return migrationManager.Up()
}

func (s *SQLiteStorage) RollbackMigration() error {
	migrationManager := s.GetMigrationManager()
	if err := migrationManager.Initialize(); err != nil {
		return err
	}
	return migrationManager.Down()
}

func (s *SQLiteStorage) ResetDatabase() error {
	migrationManager := s.GetMigrationManager()
	if err := migrationManager.Initialize(); err != nil {
		return err
	}
	return migrationManager.Reset()
}
