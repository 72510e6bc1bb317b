// Package annotate finds scripture citations in free text, resolves them
// against cached abbreviation and book data, and assembles popover content on
// demand. It is a passive enhancement layer: it degrades to doing nothing
// rather than surfacing failures to the page it decorates.
package annotate

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"slices"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jpcarver/versecache/internal/backend"
	"github.com/jpcarver/versecache/internal/cache"
	"github.com/jpcarver/versecache/internal/constants"
	"github.com/jpcarver/versecache/internal/domain"
	"github.com/jpcarver/versecache/internal/logger"
)

const abbreviationsKey = "abbreviations"

// Config controls where the annotator runs at all.
type Config struct {
	// Disabled switches the annotator off globally.
	Disabled bool
	// SkipPages lists page identifiers to leave untouched.
	SkipPages []string
	// Languages are the candidate languages for resolving citations.
	Languages []string
}

// Annotation is one recognized citation inside the scanned text.
type Annotation struct {
	ID        string           `json:"id"`
	Reference domain.Reference `json:"reference"`
	Matched   string           `json:"matched"`
	Start     int              `json:"start"`
	End       int              `json:"end"`
}

// Popover is the content shown for a clicked annotation. Fields may be
// partially filled when the network is unavailable.
type Popover struct {
	Reference    domain.Reference   `json:"reference"`
	VersionTable string             `json:"version_table,omitempty"`
	VersionName  string             `json:"version_name,omitempty"`
	Verses       []domain.Verse     `json:"verses"`
	Prev         *domain.ChapterRef `json:"prev,omitempty"`
	Next         *domain.ChapterRef `json:"next,omitempty"`
}

type Annotator struct {
	cfg     Config
	manager *cache.Manager
	api     backend.API
	log     *logger.Logger

	// mu guards the matcher state: Prepare rebuilds it while Scan reads it,
	// and one annotator is shared across request goroutines.
	mu      sync.RWMutex
	matcher *regexp.Regexp
	byAbbr  map[string]domain.Abbreviation
}

func New(cfg Config, manager *cache.Manager, api backend.API, log *logger.Logger) *Annotator {
	if log == nil {
		log = logger.Default()
	}
	if len(cfg.Languages) == 0 {
		cfg.Languages = []string{constants.DefaultLanguage}
	}
	return &Annotator{
		cfg:     cfg,
		manager: manager,
		api:     api,
		log:     log.WithComponent("annotate"),
	}
}

// Enabled reports whether the annotator should touch the given page.
func (a *Annotator) Enabled(pageID string) bool {
	if a.cfg.Disabled {
		return false
	}
	return !slices.Contains(a.cfg.SkipPages, pageID)
}

// abbreviationEnvelope wraps the cached abbreviation table with its fetch
// time; the KV table only knows expiry, not age.
type abbreviationEnvelope struct {
	FetchedAt     time.Time             `json:"fetched_at"`
	Abbreviations []domain.Abbreviation `json:"abbreviations"`
}

// Prepare makes the annotator operational: the cache manager is initialized,
// the abbreviation table is present and younger than the metadata tolerance,
// and version metadata passes the same coarse pre-check. This component only
// needs a working version per language, not the freshest one, so its
// tolerance is deliberately wider than the manager's own version TTL.
func (a *Annotator) Prepare(ctx context.Context) error {
	if err := a.manager.Initialize(ctx); err != nil {
		// Storage-only failure: continue network-only.
		a.log.Warn("cache unavailable, annotating network-only", "error", err)
	}

	abbrs, err := a.ensureAbbreviations(ctx)
	if err != nil {
		return err
	}
	a.buildMatcher(abbrs)

	if !a.manager.VersionsFresh(constants.MetadataTolerance) {
		a.refreshVersions(ctx)
	}
	a.ensureBooks(ctx)
	return nil
}

func (a *Annotator) ensureAbbreviations(ctx context.Context) ([]domain.Abbreviation, error) {
	key := abbreviationsKey + ":" + strings.Join(a.cfg.Languages, ",")

	if data, err := a.manager.GetKV(key); err == nil && data != nil {
		var env abbreviationEnvelope
		if err := json.Unmarshal(data, &env); err == nil &&
			time.Since(env.FetchedAt) <= constants.MetadataTolerance &&
			len(env.Abbreviations) > 0 {
			return env.Abbreviations, nil
		}
	}

	abbrs, err := a.api.GetAbbreviations(ctx, a.cfg.Languages)
	if err != nil {
		return nil, fmt.Errorf("fetch abbreviations: %w", err)
	}

	env := abbreviationEnvelope{FetchedAt: time.Now(), Abbreviations: abbrs}
	if data, err := json.Marshal(env); err == nil {
		if err := a.manager.SetKV(key, data, constants.KVCacheTTL); err != nil {
			a.log.Warn("abbreviation cache write failed", "error", err)
		}
	}
	return abbrs, nil
}

func (a *Annotator) refreshVersions(ctx context.Context) {
	for _, lang := range a.cfg.Languages {
		versions, err := a.api.GetVersions(ctx, lang, nil)
		if err != nil {
			a.log.Warn("version pre-fetch failed", "language", lang, "error", err)
			continue
		}
		if len(versions) == 0 {
			continue
		}
		if err := a.manager.CacheVersions(versions); err != nil {
			a.log.Warn("version cache write failed", "language", lang, "error", err)
		}
	}
}

func (a *Annotator) ensureBooks(ctx context.Context) {
	var missing []string
	for _, lang := range a.cfg.Languages {
		if at, ok := a.manager.CachedBooksAge(lang); ok && time.Since(at) <= constants.MetadataTolerance {
			continue
		}
		missing = append(missing, lang)
	}
	if len(missing) == 0 {
		return
	}

	sets, err := a.api.GetBooks(ctx, missing)
	if err != nil {
		a.log.Warn("book pre-fetch failed", "languages", missing, "error", err)
		return
	}
	for lang, books := range sets {
		if err := a.manager.CacheBookMap(books, lang); err != nil {
			a.log.Warn("book cache write failed", "language", lang, "error", err)
		}
	}
}

// buildMatcher compiles the citation pattern. Abbreviations are alternated
// longest-first so a short abbreviation never shadows a longer one sharing
// its prefix (Ps vs Psa).
func (a *Annotator) buildMatcher(abbrs []domain.Abbreviation) {
	if len(abbrs) == 0 {
		a.mu.Lock()
		a.matcher = nil
		a.byAbbr = nil
		a.mu.Unlock()
		return
	}

	byAbbr := make(map[string]domain.Abbreviation, len(abbrs))
	names := make([]string, 0, len(abbrs))
	for _, ab := range abbrs {
		if _, dup := byAbbr[ab.Abbreviation]; dup {
			continue
		}
		byAbbr[ab.Abbreviation] = ab
		names = append(names, ab.Abbreviation)
	}

	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) > len(names[j])
		}
		return names[i] < names[j]
	})
	for i, n := range names {
		names[i] = regexp.QuoteMeta(n)
	}
	matcher := regexp.MustCompile(`\b(` + strings.Join(names, "|") + `)\.?\s*(\d{1,3}):(\d{1,3})`)

	a.mu.Lock()
	a.matcher = matcher
	a.byAbbr = byAbbr
	a.mu.Unlock()
}

// Scan finds citations in text. It returns nil without scanning when the
// page is opted out or the matcher could not be built.
func (a *Annotator) Scan(pageID, text string) []Annotation {
	a.mu.RLock()
	matcher, byAbbr := a.matcher, a.byAbbr
	a.mu.RUnlock()

	if !a.Enabled(pageID) || matcher == nil {
		return nil
	}

	var out []Annotation
	for _, idx := range matcher.FindAllStringSubmatchIndex(text, -1) {
		abbr := text[idx[2]:idx[3]]
		chapter, _ := strconv.Atoi(text[idx[4]:idx[5]])
		verse, _ := strconv.Atoi(text[idx[6]:idx[7]])

		ab, ok := byAbbr[abbr]
		if !ok {
			continue
		}
		if chapter < 1 || chapter > constants.MaxChapters || verse < 1 || verse > constants.MaxVerses {
			continue
		}

		out = append(out, Annotation{
			ID: uuid.NewString(),
			Reference: domain.Reference{
				BookNumber: ab.BookNumber,
				Chapter:    chapter,
				Verse:      verse,
				Languages:  a.cfg.Languages,
			},
			Matched: text[idx[0]:idx[1]],
			Start:   idx[0],
			End:     idx[1],
		})
	}
	return out
}

// Resolve assembles popover content for a citation: a version for the
// candidate languages, the chapter text, and prev/next navigation. Network
// failures leave the popover partially filled and are only logged.
func (a *Annotator) Resolve(ctx context.Context, ref domain.Reference) (*Popover, error) {
	if ref.BookNumber < constants.MinBookNumber || ref.Chapter < 1 {
		return nil, fmt.Errorf("%w: bad reference %d:%d", domain.ErrInvalidArgument, ref.BookNumber, ref.Chapter)
	}

	pop := &Popover{Reference: ref, Verses: []domain.Verse{}}

	version := a.resolveVersion(ctx, ref.Languages)
	if version == nil {
		a.log.WithRef(ref.BookNumber, ref.Chapter, ref.Verse).Warn("no version for languages", "languages", ref.Languages)
		return pop, nil
	}
	pop.VersionTable = version.TableName
	pop.VersionName = version.ShortName

	verses, err := a.manager.GetVerses(version.TableName, ref.BookNumber, ref.Chapter, 0, 0)
	if err != nil {
		a.log.Error("chapter cache read failed", "error", err)
		verses = nil
	}
	if len(verses) == 0 {
		fetched, err := a.api.GetChapter(ctx, version.TableName, ref.BookNumber, ref.Chapter, 0, 0)
		if err != nil {
			a.log.WithRef(ref.BookNumber, ref.Chapter, ref.Verse).Warn("chapter fetch failed", "error", err)
		} else {
			if _, err := a.manager.CacheVerses(fetched, version.TableName); err != nil {
				a.log.Warn("chapter cache write failed", "error", err)
			}
			verses = fetched
		}
	}
	pop.Verses = verses

	books, err := a.manager.GetCachedBooks(version.Language)
	if err == nil {
		pop.Prev, pop.Next = domain.Neighbors(books, ref.BookNumber, ref.Chapter)
	}

	return pop, nil
}

// resolveVersion picks the best-ranked cached version for the candidate
// languages, falling back to a fetch-then-cache when nothing is cached.
func (a *Annotator) resolveVersion(ctx context.Context, languages []string) *domain.Version {
	versions, err := a.manager.GetVersions(languages, nil)
	if err == nil && len(versions) > 0 {
		return &versions[0]
	}

	for _, lang := range languages {
		fetched, err := a.api.GetVersions(ctx, lang, nil)
		if err != nil || len(fetched) == 0 {
			continue
		}
		if err := a.manager.CacheVersions(fetched); err != nil {
			a.log.Warn("version cache write failed", "language", lang, "error", err)
		}
		return &fetched[0]
	}
	return nil
}
