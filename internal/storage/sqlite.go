package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"vaultview/internal/catalog"
	_ "modernc.org/sqlite"
)

// MemoryPath keeps the catalog in a private in-memory database.
const MemoryPath = ":memory:"

type SQLiteStorage struct {
	db *sql.DB
}

func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	dsn := dbPath
	if dbPath != MemoryPath && !strings.HasPrefix(dbPath, "file:") {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
		dsn = dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	// One connection: an in-memory database lives and dies with it.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &SQLiteStorage{db: db}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

func (s *SQLiteStorage) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS media_items (
		id TEXT PRIMARY KEY,
		position INTEGER NOT NULL,
		name TEXT NOT NULL,
		url TEXT NOT NULL,
		type TEXT NOT NULL,
		format TEXT NOT NULL DEFAULT '',
		subtitle_url TEXT NOT NULL DEFAULT '',
		size TEXT NOT NULL DEFAULT '',
		artist TEXT NOT NULL DEFAULT '',
		album TEXT NOT NULL DEFAULT '',
		imported_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS media_mirrors (
		media_id TEXT NOT NULL REFERENCES media_items(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		url TEXT NOT NULL,
		PRIMARY KEY (media_id, position)
	);

	CREATE TABLE IF NOT EXISTS media_categories (
		media_id TEXT NOT NULL REFERENCES media_items(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		category TEXT NOT NULL,
		PRIMARY KEY (media_id, position)
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_media_position ON media_items(position);
	CREATE INDEX IF NOT EXISTS idx_categories_category ON media_categories(category);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// SaveCatalog replaces the stored catalog with items, keeping their order.
func (s *SQLiteStorage) SaveCatalog(items []catalog.MediaItem) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"media_mirrors", "media_categories", "media_items"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	itemStmt, err := tx.Prepare(`
		INSERT INTO media_items (
			id, position, name, url, type, format, subtitle_url, size, artist, album, imported_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer itemStmt.Close()

	mirrorStmt, err := tx.Prepare("INSERT INTO media_mirrors (media_id, position, url) VALUES (?, ?, ?)")
	if err != nil {
		return err
	}
	defer mirrorStmt.Close()

	categoryStmt, err := tx.Prepare("INSERT INTO media_categories (media_id, position, category) VALUES (?, ?, ?)")
	if err != nil {
		return err
	}
	defer categoryStmt.Close()

	now := time.Now()
	for pos, m := range items {
		if _, err := itemStmt.Exec(
			m.ID, pos, m.Name, m.URL, string(m.Type), m.Format,
			m.SubtitleURL, m.Size, m.Artist, m.Album, now,
		); err != nil {
			return fmt.Errorf("insert %s: %w", m.ID, err)
		}
		for i, url := range m.Mirrors {
			if _, err := mirrorStmt.Exec(m.ID, i, url); err != nil {
				return fmt.Errorf("insert mirror of %s: %w", m.ID, err)
			}
		}
		for i, c := range m.Categories {
			if _, err := categoryStmt.Exec(m.ID, i, string(c)); err != nil {
				return fmt.Errorf("insert category of %s: %w", m.ID, err)
			}
		}
	}

	return tx.Commit()
}

// LoadCatalog returns every stored item in catalog order.
func (s *SQLiteStorage) LoadCatalog() ([]catalog.MediaItem, error) {
	rows, err := s.db.Query(`
		SELECT id, name, url, type, format, subtitle_url, size, artist, album
		FROM media_items ORDER BY position
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []catalog.MediaItem
	index := make(map[string]int)
	for rows.Next() {
		var m catalog.MediaItem
		var mediaType string
		if err := rows.Scan(
			&m.ID, &m.Name, &m.URL, &mediaType, &m.Format,
			&m.SubtitleURL, &m.Size, &m.Artist, &m.Album,
		); err != nil {
			return nil, err
		}
		m.Type = catalog.MediaType(mediaType)
		index[m.ID] = len(items)
		items = append(items, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	mirrors, err := s.db.Query("SELECT media_id, url FROM media_mirrors ORDER BY media_id, position")
	if err != nil {
		return nil, err
	}
	defer mirrors.Close()

	for mirrors.Next() {
		var id, url string
		if err := mirrors.Scan(&id, &url); err != nil {
			return nil, err
		}
		if i, ok := index[id]; ok {
			items[i].Mirrors = append(items[i].Mirrors, url)
		}
	}
	if err := mirrors.Err(); err != nil {
		return nil, err
	}

	categories, err := s.db.Query("SELECT media_id, category FROM media_categories ORDER BY media_id, position")
	if err != nil {
		return nil, err
	}
	defer categories.Close()

	for categories.Next() {
		var id, category string
		if err := categories.Scan(&id, &category); err != nil {
			return nil, err
		}
		if i, ok := index[id]; ok {
			items[i].Categories = append(items[i].Categories, catalog.Category(category))
		}
	}

	return items, categories.Err()
}

func (s *SQLiteStorage) CountItems() (int, error) {
	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM media_items").Scan(&n)
	return n, err
}

// CountByCategory returns how many stored items carry each category.
func (s *SQLiteStorage) CountByCategory() (map[catalog.Category]int, error) {
	rows, err := s.db.Query("SELECT category, COUNT(DISTINCT media_id) FROM media_categories GROUP BY category")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[catalog.Category]int)
	for rows.Next() {
		var category string
		var n int
		if err := rows.Scan(&category, &n); err != nil {
			return nil, err
		}
		counts[catalog.Category(category)] = n
	}
	return counts, rows.Err()
}
