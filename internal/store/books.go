package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jpcarver/versecache/internal/domain"
)

type bookRow struct {
	Language string    `db:"language"`
	Data     []byte    `db:"data"`
	CachedAt time.Time `db:"cached_at"`
}

// PutBookSet replaces the language's book list wholesale. The mapping is
// stored as one JSON document; there is no field-by-field merge.
func (db *DB) PutBookSet(set domain.BookSet) error {
	data, err := json.Marshal(set.Books)
	if err != nil {
		return fmt.Errorf("marshal book set %s: %w", set.Language, err)
	}

	_, err = db.Exec(`
		INSERT INTO books (language, data, cached_at) VALUES (?, ?, ?)
		ON CONFLICT(language) DO UPDATE SET data = excluded.data, cached_at = excluded.cached_at
	`, set.Language, data, set.CachedAt)
	if err != nil {
		return fmt.Errorf("upsert book set %s: %w", set.Language, err)
	}
	return nil
}

// GetBookSet returns the language's book list, or (nil, nil) when absent.
func (db *DB) GetBookSet(language string) (*domain.BookSet, error) {
	var row bookRow
	err := db.Get(&row, "SELECT language, data, cached_at FROM books WHERE language = ?", language)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select book set %s: %w", language, err)
	}

	set := domain.BookSet{
		Language: row.Language,
		CachedAt: row.CachedAt,
		Books:    make(map[int]domain.BookEntry),
	}
	if err := json.Unmarshal(row.Data, &set.Books); err != nil {
		return nil, fmt.Errorf("unmarshal book set %s: %w", language, err)
	}
	return &set, nil
}

func (db *DB) CountBooks() (int, error) {
	var n int
	if err := db.Get(&n, "SELECT COUNT(*) FROM books"); err != nil {
		return 0, fmt.Errorf("count books: %w", err)
	}
	return n, nil
}

// AllBookSets returns every cached book list. Used only for diagnostics.
func (db *DB) AllBookSets() ([]domain.BookSet, error) {
	var rows []bookRow
	if err := db.Select(&rows, "SELECT language, data, cached_at FROM books ORDER BY language"); err != nil {
		return nil, fmt.Errorf("select all book sets: %w", err)
	}

	sets := make([]domain.BookSet, 0, len(rows))
	for _, row := range rows {
		set := domain.BookSet{
			Language: row.Language,
			CachedAt: row.CachedAt,
			Books:    make(map[int]domain.BookEntry),
		}
		if err := json.Unmarshal(row.Data, &set.Books); err != nil {
			return nil, fmt.Errorf("unmarshal book set %s: %w", row.Language, err)
		}
		sets = append(sets, set)
	}
	return sets, nil
}
