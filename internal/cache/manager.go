// Package cache is the policy layer over the persistent store: it decides
// what is fresh, what must be fetched, and how seed data is loaded on first
// run. It is the only writer of the store's tables.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"golang.org/x/text/language"

	"github.com/jpcarver/versecache/internal/backend"
	"github.com/jpcarver/versecache/internal/constants"
	"github.com/jpcarver/versecache/internal/domain"
	"github.com/jpcarver/versecache/internal/logger"
	"github.com/jpcarver/versecache/internal/store"
)

// State is the manager lifecycle.
type State int

const (
	StateUninitialized State = iota
	StateInitializing
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

type Manager struct {
	dbPath  string
	locales []string
	api     backend.API
	log     *logger.Logger

	mu       sync.Mutex
	state    State
	db       *store.DB
	initDone chan struct{}
	initErr  error

	// now is swappable for expiry tests.
	now func() time.Time
}

func NewManager(dbPath string, locales []string, api backend.API, log *logger.Logger) *Manager {
	if log == nil {
		log = logger.Default()
	}
	return &Manager{
		dbPath:  dbPath,
		locales: locales,
		api:     api,
		log:     log.WithComponent("cache"),
		now:     time.Now,
	}
}

// State reports the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Close releases the underlying database.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.db == nil {
		return nil
	}
	err := m.db.Close()
	m.db = nil
	m.state = StateUninitialized
	return err
}

// Initialize opens the store and seeds it when empty. It is safe to call
// redundantly and concurrently: while an attempt is in flight every caller
// awaits that same attempt, so at most one bootstrap executes. A failed
// attempt leaves the manager in StateFailed; a later call retries.
func (m *Manager) Initialize(ctx context.Context) error {
	m.mu.Lock()
	switch m.state {
	case StateReady:
		m.mu.Unlock()
		return nil
	case StateInitializing:
		done := m.initDone
		m.mu.Unlock()
		select {
		case <-done:
			m.mu.Lock()
			defer m.mu.Unlock()
			return m.initErr
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	m.state = StateInitializing
	done := make(chan struct{})
	m.initDone = done
	m.mu.Unlock()

	err := m.bootstrap()

	m.mu.Lock()
	m.initErr = err
	if err != nil {
		m.state = StateFailed
	} else {
		m.state = StateReady
	}
	close(done)
	m.mu.Unlock()
	return err
}

// bootstrap opens the database and loads seed data if either the verse or
// the book table is empty. Partial seeding is treated as failure so the
// manager never reports Ready over a half-loaded store.
func (m *Manager) bootstrap() error {
	db := m.storeHandle()
	if db == nil {
		opened, err := store.Open(m.dbPath)
		if err != nil {
			return err
		}
		m.mu.Lock()
		m.db = opened
		m.mu.Unlock()
		db = opened
	}

	verseCount, err := db.CountVerses()
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	bookCount, err := db.CountBooks()
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	if verseCount > 0 && bookCount > 0 {
		return nil
	}

	now := m.now()
	if err := db.PutBookSet(seedBookSet(now)); err != nil {
		return fmt.Errorf("seed books: %w", err)
	}
	if err := db.UpsertVerses(seedVerses(SeedEnglishTable, seedEnglishVerses, now)); err != nil {
		return fmt.Errorf("seed verses: %w", err)
	}
	if wantsChineseSeed(m.locales) {
		if err := db.UpsertVerses(seedVerses(SeedChineseTable, seedChineseVerses, now)); err != nil {
			return fmt.Errorf("seed verses: %w", err)
		}
	}

	m.log.Info("seeded empty cache",
		"books", len(seedBooks),
		"sample_chapter", fmt.Sprintf("%d:%d", seedBook, seedChapter),
		"chinese", wantsChineseSeed(m.locales))
	return nil
}

func (m *Manager) storeHandle() *store.DB {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.db
}

// ready returns the store or ErrStorageUnavailable when the manager never
// reached Ready. Read paths turn that into a miss instead.
func (m *Manager) ready() (*store.DB, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateReady || m.db == nil {
		return nil, fmt.Errorf("%w: cache manager is %s", domain.ErrStorageUnavailable, m.state)
	}
	return m.db, nil
}

// CacheVerses validates and writes a batch of verses for one version table,
// deriving verse ids where absent and stamping the write time. Returns the
// number of records written.
func (m *Manager) CacheVerses(verses []domain.Verse, versionTable string) (int, error) {
	if verses == nil {
		return 0, fmt.Errorf("%w: verses must be a sequence", domain.ErrInvalidArgument)
	}
	if versionTable == "" {
		return 0, fmt.Errorf("%w: empty version table", domain.ErrInvalidArgument)
	}

	db, err := m.ready()
	if err != nil {
		return 0, err
	}

	now := m.now()
	records := make([]domain.Verse, 0, len(verses))
	for _, v := range verses {
		v.VersionTable = versionTable
		if v.VerseID == "" {
			v.VerseID = domain.MakeVerseID(v.BookNumber, v.Chapter, v.Verse)
		}
		v.CachedAt = now
		records = append(records, v)
	}

	if err := db.UpsertVerses(records); err != nil {
		return 0, err
	}
	return len(records), nil
}

// GetVerses reads cached verses for one chapter. With a verse range it probes
// exactly that range; otherwise it probes verses 1 through the corpus-wide
// upper bound. An empty result is the miss signal, not an error.
func (m *Manager) GetVerses(versionTable string, book, chapter, verseStart, verseEnd int) ([]domain.Verse, error) {
	if versionTable == "" {
		return nil, fmt.Errorf("%w: empty version table", domain.ErrInvalidArgument)
	}

	db, err := m.ready()
	if err != nil {
		// Network-only mode: report a miss so consumers fall through.
		return []domain.Verse{}, nil
	}

	from, to := 1, constants.MaxVerses
	if verseStart > 0 {
		from = verseStart
		to = verseStart
		if verseEnd >= verseStart {
			to = verseEnd
		}
	}

	lo, hi := domain.ChapterIDRange(book, chapter, from, to)
	verses, err := db.VersesInRange(versionTable, lo, hi)
	if err != nil {
		return nil, err
	}
	if verses == nil {
		verses = []domain.Verse{}
	}
	return verses, nil
}

// CacheBooks wholesale-replaces one language's book list from a sequence of
// entries.
func (m *Manager) CacheBooks(entries []domain.BookEntry, languageCode string) error {
	if entries == nil {
		return fmt.Errorf("%w: entries must be a sequence", domain.ErrInvalidArgument)
	}
	books := make(map[int]domain.BookEntry, len(entries))
	for _, e := range entries {
		books[e.BookNumber] = e
	}
	return m.CacheBookMap(books, languageCode)
}

// CacheBookMap is the mapping-shaped variant of CacheBooks.
func (m *Manager) CacheBookMap(books map[int]domain.BookEntry, languageCode string) error {
	if languageCode == "" {
		return fmt.Errorf("%w: empty language code", domain.ErrInvalidArgument)
	}
	if books == nil {
		return fmt.Errorf("%w: books must be a mapping", domain.ErrInvalidArgument)
	}

	db, err := m.ready()
	if err != nil {
		return err
	}
	return db.PutBookSet(domain.BookSet{
		Language: languageCode,
		Books:    books,
		CachedAt: m.now(),
	})
}

// GetCachedBooks returns the cached book mapping for a language, or an empty
// mapping when absent. It never fetches; that is the consumer's job.
func (m *Manager) GetCachedBooks(languageCode string) (map[int]domain.BookEntry, error) {
	db, err := m.ready()
	if err != nil {
		return map[int]domain.BookEntry{}, nil
	}

	set, err := db.GetBookSet(languageCode)
	if err != nil {
		return nil, err
	}
	if set == nil {
		return map[int]domain.BookEntry{}, nil
	}
	return set.Books, nil
}

// CachedBooksAge reports when a language's book list was last written. The
// second return is false when nothing is cached.
func (m *Manager) CachedBooksAge(languageCode string) (time.Time, bool) {
	db, err := m.ready()
	if err != nil {
		return time.Time{}, false
	}
	set, err := db.GetBookSet(languageCode)
	if err != nil || set == nil {
		return time.Time{}, false
	}
	return set.CachedAt, true
}

// CacheVersions upserts version metadata records, stamping the write time.
func (m *Manager) CacheVersions(versions []domain.Version) error {
	if versions == nil {
		return fmt.Errorf("%w: versions must be a sequence", domain.ErrInvalidArgument)
	}

	db, err := m.ready()
	if err != nil {
		return err
	}

	now := m.now()
	records := make([]domain.Version, 0, len(versions))
	for _, v := range versions {
		if v.TableName == "" {
			return fmt.Errorf("%w: version missing table name", domain.ErrInvalidArgument)
		}
		v.CachedAt = now
		records = append(records, v)
	}
	return db.UpsertVersions(records)
}

// GetVersions reads all cached versions and applies optional language and
// type filters. Expiry is deliberately not enforced here so reads never
// block on the network; UpdateExpiredVersions handles staleness.
func (m *Manager) GetVersions(languages []string, types []string) ([]domain.Version, error) {
	db, err := m.ready()
	if err != nil {
		return []domain.Version{}, nil
	}

	all, err := db.AllVersions()
	if err != nil {
		return nil, err
	}

	langSet := make(map[string]bool, len(languages))
	for _, l := range languages {
		langSet[normalizeLang(l)] = true
	}
	typeSet := make(map[string]bool, len(types))
	for _, t := range types {
		typeSet[t] = true
	}

	out := make([]domain.Version, 0, len(all))
	for _, v := range all {
		if len(langSet) > 0 && !langSet[normalizeLang(v.Language)] {
			continue
		}
		if len(typeSet) > 0 && !typeSet[string(v.Type)] {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

// VersionsFresh reports whether any version metadata exists and the newest
// record is younger than tolerance. Consumers use it as a coarse pre-check
// before relying on cached versions.
func (m *Manager) VersionsFresh(tolerance time.Duration) bool {
	versions, err := m.GetVersions(nil, nil)
	if err != nil || len(versions) == 0 {
		return false
	}
	newest := versions[0].CachedAt
	for _, v := range versions[1:] {
		if v.CachedAt.After(newest) {
			newest = v.CachedAt
		}
	}
	return m.now().Sub(newest) <= tolerance
}

// UpdateExpiredVersions re-fetches every version record older than the TTL.
// Refreshes are independent: one failure is logged and the rest proceed.
// Returns the number of records refreshed.
func (m *Manager) UpdateExpiredVersions(ctx context.Context) int {
	db, err := m.ready()
	if err != nil {
		return 0
	}

	all, err := db.AllVersions()
	if err != nil {
		m.log.Error("expired-version scan failed", "error", err)
		return 0
	}

	now := m.now()
	refreshed := 0
	for _, stale := range all {
		if !stale.Expired(now, constants.VersionTTL) {
			continue
		}

		fetched, err := m.api.GetVersions(ctx, stale.Language, nil)
		if err != nil {
			m.log.Warn("version refresh failed", "version_table", stale.TableName, "error", err)
			continue
		}

		for _, v := range fetched {
			if v.TableName != stale.TableName {
				continue
			}
			v.CachedAt = m.now()
			if err := db.UpsertVersions([]domain.Version{v}); err != nil {
				m.log.Warn("version re-cache failed", "version_table", v.TableName, "error", err)
				break
			}
			refreshed++
			break
		}
	}
	return refreshed
}

// Stats summarizes cache contents for diagnostics. It never fails: on any
// internal error it returns a zeroed result flagged as degraded.
func (m *Manager) Stats() domain.CacheStats {
	db, err := m.ready()
	if err != nil {
		return domain.CacheStats{Degraded: true, DegradedCause: err.Error()}
	}

	stats := domain.CacheStats{}
	degrade := func(err error) domain.CacheStats {
		return domain.CacheStats{Degraded: true, DegradedCause: err.Error()}
	}

	if stats.VerseCount, err = db.CountVerses(); err != nil {
		return degrade(err)
	}
	if stats.BookCount, err = db.CountBooks(); err != nil {
		return degrade(err)
	}
	if stats.VersionCount, err = db.CountVersions(); err != nil {
		return degrade(err)
	}

	verses, err := db.AllVerses()
	if err != nil {
		return degrade(err)
	}
	books, err := db.AllBookSets()
	if err != nil {
		return degrade(err)
	}
	versions, err := db.AllVersions()
	if err != nil {
		return degrade(err)
	}
	for _, table := range []any{verses, books, versions} {
		data, err := json.Marshal(table)
		if err != nil {
			return degrade(err)
		}
		stats.ApproxBytes += int64(len(data))
	}
	return stats
}

// GetKV and SetKV expose the generic TTL cache table to consumers, keeping
// the manager the single writer of the store.
func (m *Manager) GetKV(key string) ([]byte, error) {
	db, err := m.ready()
	if err != nil {
		return nil, nil
	}
	return db.GetCache(key)
}

func (m *Manager) SetKV(key string, data []byte, ttl time.Duration) error {
	db, err := m.ready()
	if err != nil {
		return err
	}
	return db.SetCache(key, data, ttl)
}

// SweepKV removes expired generic cache rows.
func (m *Manager) SweepKV() (int64, error) {
	db, err := m.ready()
	if err != nil {
		return 0, nil
	}
	return db.SweepExpiredCache()
}

func normalizeLang(code string) string {
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	return tag.String()
}
