package domain

import (
	"database/sql"
	"encoding/json"
	"time"
)

// NullString is sql.NullString with a flat wire shape: a string when set,
// null when not, never the {String, Valid} struct form.
type NullString struct {
	sql.NullString
}

func NullStringOf(s string) NullString {
	return NullString{sql.NullString{String: s, Valid: true}}
}

func (s NullString) MarshalJSON() ([]byte, error) {
	if !s.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(s.String)
}

func (s *NullString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = NullString{}
		return nil
	}
	var v string
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*s = NullStringOf(v)
	return nil
}

// TranslationType distinguishes plain-text versions from versions carrying
// original-language (Strong's) tags.
type TranslationType string

const (
	TranslationBible        TranslationType = "Bible"
	TranslationBibleStrongs TranslationType = "Bible with Strongs"
)

// Verse is a single cached verse, keyed by (VersionTable, VerseID).
type Verse struct {
	VersionTable string     `json:"version_table" db:"version_table"`
	VerseID      string     `json:"verse_id" db:"verse_id"`
	BookNumber   int        `json:"book_number" db:"book_number"`
	Chapter      int        `json:"chapter" db:"chapter"`
	Verse        int        `json:"verse" db:"verse"`
	Text         string     `json:"text" db:"text"`
	Commentary   NullString `json:"commentary" db:"commentary"`
	Bookmark     NullString `json:"bookmark" db:"bookmark"`
	CachedAt     time.Time  `json:"cached_at" db:"cached_at"`
}

// BookEntry describes one book of one language's book list.
type BookEntry struct {
	BookNumber int    `json:"book_number"`
	Title      string `json:"title"`
	ShortTitle string `json:"short_title"`
	Genre      string `json:"genre"`
	Chapters   int    `json:"chapters"`
}

// BookSet is a language's full book list, replaced wholesale on every write.
type BookSet struct {
	Language string            `json:"language"`
	Books    map[int]BookEntry `json:"books"`
	CachedAt time.Time         `json:"cached_at"`
}

// Version is cached translation metadata, keyed by the opaque content-table
// identifier of the translation.
type Version struct {
	TableName    string          `json:"table_name" db:"table_name"`
	Language     string          `json:"language" db:"language"`
	LanguageName string          `json:"language_name" db:"language_name"`
	Type         TranslationType `json:"type" db:"type"`
	Name         string          `json:"name" db:"name"`
	ShortName    string          `json:"short_name" db:"short_name"`
	Publisher    string          `json:"publisher" db:"publisher"`
	InfoURL      string          `json:"info_url" db:"info_url"`
	Rank         int             `json:"rank" db:"rank"`
	CachedAt     time.Time       `json:"cached_at" db:"cached_at"`
}

// Expired reports whether the record's last write is older than ttl.
func (v Version) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(v.CachedAt) > ttl
}

// Abbreviation maps a citation abbreviation to a book number in one language.
type Abbreviation struct {
	BookNumber   int    `json:"book_number"`
	Abbreviation string `json:"abbreviation"`
	Language     string `json:"language"`
}

// CrossReference links a verse to a related verse range.
type CrossReference struct {
	VerseID     string `json:"verse_id"`
	RefVerseID  string `json:"ref_verse_id"`
	RefEndVerse string `json:"ref_end_verse,omitempty"`
	Votes       int    `json:"votes"`
}

// Reference is a resolved citation found in free text.
type Reference struct {
	BookNumber int      `json:"book_number"`
	Chapter    int      `json:"chapter"`
	Verse      int      `json:"verse"`
	Languages  []string `json:"languages"`
}

// CacheStats summarizes cache contents for diagnostics.
type CacheStats struct {
	VerseCount    int    `json:"verse_count"`
	BookCount     int    `json:"book_count"`
	VersionCount  int    `json:"version_count"`
	ApproxBytes   int64  `json:"approx_bytes"`
	Degraded      bool   `json:"degraded"`
	DegradedCause string `json:"degraded_cause,omitempty"`
}
