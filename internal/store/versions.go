package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jpcarver/versecache/internal/domain"
)

// UpsertVersions writes one row per version, last-write wins on table_name.
func (db *DB) UpsertVersions(versions []domain.Version) error {
	if len(versions) == 0 {
		return nil
	}

	tx, err := db.Beginx()
	if err != nil {
		return fmt.Errorf("begin version upsert: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	const query = `INSERT INTO versions (
		table_name, language, language_name, type, name, short_name, publisher, info_url, rank, cached_at
	) VALUES (
		:table_name, :language, :language_name, :type, :name, :short_name, :publisher, :info_url, :rank, :cached_at
	)
	ON CONFLICT(table_name) DO UPDATE SET
		language = excluded.language,
		language_name = excluded.language_name,
		type = excluded.type,
		name = excluded.name,
		short_name = excluded.short_name,
		publisher = excluded.publisher,
		info_url = excluded.info_url,
		rank = excluded.rank,
		cached_at = excluded.cached_at`

	for _, v := range versions {
		if _, err := tx.NamedExec(query, v); err != nil {
			return fmt.Errorf("upsert version %s: %w", v.TableName, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit version upsert: %w", err)
	}
	return nil
}

// GetVersion reads one version by its content-table identifier.
func (db *DB) GetVersion(tableName string) (*domain.Version, error) {
	var v domain.Version
	err := db.Get(&v, "SELECT * FROM versions WHERE table_name = ?", tableName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select version %s: %w", tableName, err)
	}
	return &v, nil
}

// AllVersions returns every cached version ordered by rank.
func (db *DB) AllVersions() ([]domain.Version, error) {
	var versions []domain.Version
	if err := db.Select(&versions, "SELECT * FROM versions ORDER BY rank ASC, table_name ASC"); err != nil {
		return nil, fmt.Errorf("select all versions: %w", err)
	}
	return versions, nil
}

func (db *DB) CountVersions() (int, error) {
	var n int
	if err := db.Get(&n, "SELECT COUNT(*) FROM versions"); err != nil {
		return 0, fmt.Errorf("count versions: %w", err)
	}
	return n, nil
}
