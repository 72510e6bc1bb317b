package store

// migration is one additive schema revision. Revisions are applied in order
// and recorded in schema_migrations; existing rows are never rewritten.
type migration struct {
	Version     int
	Description string
	SQL         string
}

const migrationsTable = `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version INTEGER PRIMARY KEY,
	description TEXT NOT NULL,
	applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
`

var migrations = []migration{
	{
		Version:     1,
		Description: "initial tables",
		SQL: `
CREATE TABLE IF NOT EXISTS verses (
	version_table TEXT NOT NULL,
	verse_id TEXT NOT NULL,
	book_number INTEGER NOT NULL,
	chapter INTEGER NOT NULL,
	verse INTEGER NOT NULL,
	text TEXT NOT NULL,
	commentary TEXT,
	cached_at DATETIME NOT NULL,
	PRIMARY KEY (version_table, verse_id)
);

CREATE INDEX IF NOT EXISTS idx_verses_book_chapter ON verses(version_table, book_number, chapter);

CREATE TABLE IF NOT EXISTS books (
	language TEXT PRIMARY KEY,
	data TEXT NOT NULL,
	cached_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS versions (
	table_name TEXT PRIMARY KEY,
	language TEXT NOT NULL,
	language_name TEXT NOT NULL DEFAULT '',
	type TEXT NOT NULL DEFAULT 'Bible',
	name TEXT NOT NULL DEFAULT '',
	short_name TEXT NOT NULL DEFAULT '',
	publisher TEXT NOT NULL DEFAULT '',
	info_url TEXT NOT NULL DEFAULT '',
	rank INTEGER NOT NULL DEFAULT 0,
	cached_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_versions_language ON versions(language);

CREATE TABLE IF NOT EXISTS kv_cache (
	key TEXT PRIMARY KEY,
	data BLOB,
	expires_at DATETIME
);
`,
	},
	{
		Version:     2,
		Description: "verse bookmarks",
		SQL:         `ALTER TABLE verses ADD COLUMN bookmark TEXT;`,
	},
}
