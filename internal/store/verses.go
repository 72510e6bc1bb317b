package store

import (
	"fmt"

	"github.com/jpcarver/versecache/internal/domain"
)

// UpsertVerses writes the batch in one transaction. Writes are last-write
// wins on the (version_table, verse_id) key.
func (db *DB) UpsertVerses(verses []domain.Verse) error {
	if len(verses) == 0 {
		return nil
	}

	tx, err := db.Beginx()
	if err != nil {
		return fmt.Errorf("begin verse upsert: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	const query = `INSERT INTO verses (
		version_table, verse_id, book_number, chapter, verse, text, commentary, bookmark, cached_at
	) VALUES (
		:version_table, :verse_id, :book_number, :chapter, :verse, :text, :commentary, :bookmark, :cached_at
	)
	ON CONFLICT(version_table, verse_id) DO UPDATE SET
		book_number = excluded.book_number,
		chapter = excluded.chapter,
		verse = excluded.verse,
		text = excluded.text,
		commentary = excluded.commentary,
		bookmark = excluded.bookmark,
		cached_at = excluded.cached_at`

	for _, v := range verses {
		if _, err := tx.NamedExec(query, v); err != nil {
			return fmt.Errorf("upsert verse %s/%s: %w", v.VersionTable, v.VerseID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit verse upsert: %w", err)
	}
	return nil
}

// VersesInRange returns the verses of one version whose ids fall inside the
// inclusive [lo, hi] bound, in ascending verse-id order. Ids are fixed width,
// so ascending id order is ascending verse order.
func (db *DB) VersesInRange(versionTable, lo, hi string) ([]domain.Verse, error) {
	var verses []domain.Verse
	err := db.Select(&verses, `
		SELECT * FROM verses
		WHERE version_table = ? AND verse_id >= ? AND verse_id <= ?
		ORDER BY verse_id ASC`,
		versionTable, lo, hi)
	if err != nil {
		return nil, fmt.Errorf("select verses %s [%s, %s]: %w", versionTable, lo, hi, err)
	}
	return verses, nil
}

// GetVerse reads a single verse by key.
func (db *DB) GetVerse(versionTable, verseID string) (*domain.Verse, error) {
	var v domain.Verse
	err := db.Get(&v, "SELECT * FROM verses WHERE version_table = ? AND verse_id = ?", versionTable, verseID)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (db *DB) CountVerses() (int, error) {
	var n int
	if err := db.Get(&n, "SELECT COUNT(*) FROM verses"); err != nil {
		return 0, fmt.Errorf("count verses: %w", err)
	}
	return n, nil
}

// AllVerses returns every cached verse. Used only for diagnostics.
func (db *DB) AllVerses() ([]domain.Verse, error) {
	var verses []domain.Verse
	if err := db.Select(&verses, "SELECT * FROM verses ORDER BY version_table, verse_id"); err != nil {
		return nil, fmt.Errorf("select all verses: %w", err)
	}
	return verses, nil
}
