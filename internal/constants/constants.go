// Package constants contains application-wide constants to avoid magic numbers and strings.
package constants

import "time"

// Application defaults
const (
	DefaultPort       = "8090"
	DefaultDBPath     = "versecache.db"
	DefaultBackendURL = "http://127.0.0.1:8080/wp-admin/admin-ajax.php"
	DefaultLanguage   = "en"
)

// Cache policy
const (
	// VersionTTL is the fine-grained freshness window for version metadata.
	// Reads never block on it; UpdateExpiredVersions enforces it out of band.
	VersionTTL = 1 * time.Hour

	// MetadataTolerance is the coarse pre-check the annotator applies to
	// books, abbreviations and versions before doing any matching work.
	// Deliberately distinct from VersionTTL.
	MetadataTolerance = 24 * time.Hour

	// KVCacheTTL bounds rows in the generic key-value cache table
	// (abbreviations, cross-references).
	KVCacheTTL = 24 * time.Hour
)

// Scripture bounds. MaxChapters and MaxVerses are sanity heuristics sized to
// the Psalms (150 chapters, Psalm 119's 176 verses), used to reject false
// positives when scanning free text and to bound chapter probes. They are
// tunable, not canonical facts.
const (
	MaxChapters = 150
	MaxVerses   = 176

	MinBookNumber = 1
	MaxBookNumber = 66
)

// Verse-id digit widths (book-chapter-verse, zero padded).
const (
	BookDigits    = 2
	ChapterDigits = 3
	VerseDigits   = 3
)

// Network timeouts
const (
	// InteractiveTimeout bounds chapter/version/abbreviation fetches that a
	// waiting caller depends on.
	InteractiveTimeout = 10 * time.Second

	// BulkTimeout bounds import-sized calls (multi-book verse ranges).
	BulkTimeout = 5 * time.Minute

	DefaultRetryCount = 3
	DefaultRetryBase  = 1 * time.Second

	// MinRequestInterval spaces requests to the upstream backend.
	MinRequestInterval = 200 * time.Millisecond
)

// Maintenance
const (
	DefaultSweepInterval = 15 * time.Minute
)

// Database tables
const (
	VersesTable   = "verses"
	BooksTable    = "books"
	VersionsTable = "versions"
	KVCacheTable  = "kv_cache"
)

// Translation types
const (
	TypeBible        = "Bible"
	TypeBibleStrongs = "Bible with Strongs"
)

// Genre/testament classification
const (
	GenreOldTestament = "OT"
	GenreNewTestament = "NT"
)
