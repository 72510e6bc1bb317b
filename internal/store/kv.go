package store

import (
	"database/sql"
	"errors"
	"time"
)

// GetCache reads a generic cache entry. A missing or expired key reads as
// (nil, nil); expired rows are deleted on the way out.
func (db *DB) GetCache(key string) ([]byte, error) {
	type cacheRow struct {
		ExpiresAt sql.NullTime `db:"expires_at"`
		Data      []byte       `db:"data"`
	}

	var row cacheRow
	err := db.Get(&row, "SELECT data, expires_at FROM kv_cache WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if row.ExpiresAt.Valid && time.Now().After(row.ExpiresAt.Time) {
		_, _ = db.Exec("DELETE FROM kv_cache WHERE key = ?", key)
		return nil, nil
	}

	return row.Data, nil
}

// SetCache upserts a generic cache entry. A non-positive ttl stores the entry
// without expiry.
func (db *DB) SetCache(key string, data []byte, ttl time.Duration) error {
	var expiresAt *time.Time
	if ttl > 0 {
		t := time.Now().Add(ttl)
		expiresAt = &t
	}

	_, err := db.Exec(`
		INSERT INTO kv_cache (key, data, expires_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET data = excluded.data, expires_at = excluded.expires_at
	`, key, data, expiresAt)
	return err
}

// ClearCache drops every generic cache entry. Callers that need age tracking
// store a timestamp inside the payload; the table itself only knows expiry.
func (db *DB) ClearCache() error {
	_, err := db.Exec("DELETE FROM kv_cache")
	return err
}

// SweepExpiredCache deletes rows past their expiry and reports how many went.
func (db *DB) SweepExpiredCache() (int64, error) {
	res, err := db.Exec("DELETE FROM kv_cache WHERE expires_at IS NOT NULL AND expires_at < ?", time.Now())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
