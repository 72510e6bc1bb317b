// Package reader drives the chapter-reading surface: book/chapter/version
// selection, single and dual-version display, and chapter paging. The cache
// manager is its primary data source; the network is the fallback.
package reader

import (
	"context"
	"fmt"

	"github.com/jpcarver/versecache/internal/backend"
	"github.com/jpcarver/versecache/internal/cache"
	"github.com/jpcarver/versecache/internal/domain"
	"github.com/jpcarver/versecache/internal/logger"
)

// Chapter is one rendered chapter load. Secondary carries the dual-version
// pane; on a cache hit it is primed from the same data so toggling display
// modes needs no further fetch.
type Chapter struct {
	VersionTable   string             `json:"version_table"`
	SecondaryTable string             `json:"secondary_table,omitempty"`
	BookNumber     int                `json:"book_number"`
	BookTitle      string             `json:"book_title,omitempty"`
	Chapter        int                `json:"chapter"`
	Verses         []domain.Verse     `json:"verses"`
	Secondary      []domain.Verse     `json:"secondary,omitempty"`
	Prev           *domain.ChapterRef `json:"prev,omitempty"`
	Next           *domain.ChapterRef `json:"next,omitempty"`
	FromCache      bool               `json:"from_cache"`
}

type Controller struct {
	manager *cache.Manager
	api     backend.API
	log     *logger.Logger
}

func New(manager *cache.Manager, api backend.API, log *logger.Logger) *Controller {
	if log == nil {
		log = logger.Default()
	}
	return &Controller{
		manager: manager,
		api:     api,
		log:     log.WithComponent("reader"),
	}
}

// Request addresses one chapter load.
type Request struct {
	VersionTable   string
	SecondaryTable string // optional second version for dual display
	Language       string // language of the book metadata used for titles/paging
	BookNumber     int
	Chapter        int
	VerseStart     int
	VerseEnd       int
}

// LoadChapter renders one chapter, cache first. A cache miss fetches exactly
// one chapter from the network and caches it for next time. Unlike the
// annotator, explicit loads propagate network failures so the surface can
// offer a retry.
func (c *Controller) LoadChapter(ctx context.Context, req Request) (*Chapter, error) {
	if req.VersionTable == "" {
		return nil, fmt.Errorf("%w: empty version table", domain.ErrInvalidArgument)
	}
	if req.BookNumber < 1 || req.Chapter < 1 {
		return nil, fmt.Errorf("%w: bad chapter address %d:%d", domain.ErrInvalidArgument, req.BookNumber, req.Chapter)
	}
	if err := c.manager.Initialize(ctx); err != nil {
		c.log.Warn("cache unavailable, loading network-only", "error", err)
	}

	out := &Chapter{
		VersionTable: req.VersionTable,
		BookNumber:   req.BookNumber,
		Chapter:      req.Chapter,
	}

	verses, err := c.manager.GetVerses(req.VersionTable, req.BookNumber, req.Chapter, req.VerseStart, req.VerseEnd)
	if err != nil {
		return nil, err
	}

	if len(verses) > 0 {
		out.Verses = verses
		out.FromCache = true
	} else {
		fetched, err := c.api.GetChapter(ctx, req.VersionTable, req.BookNumber, req.Chapter, req.VerseStart, req.VerseEnd)
		if err != nil {
			return nil, fmt.Errorf("load chapter %d:%d: %w", req.BookNumber, req.Chapter, err)
		}
		if _, err := c.manager.CacheVerses(fetched, req.VersionTable); err != nil {
			// A failed write-back still renders; next load fetches again.
			c.log.Warn("chapter cache write failed", "error", err)
		}
		out.Verses = fetched
	}

	if req.SecondaryTable != "" {
		c.loadSecondary(ctx, req, out)
	}

	c.decorate(req, out)
	return out, nil
}

// loadSecondary fills the dual-version pane. On a primary cache hit the
// secondary very likely is cached too (both were written by the same earlier
// load), so this follows the same cache-then-network path but degrades to an
// empty pane rather than failing the whole load.
func (c *Controller) loadSecondary(ctx context.Context, req Request, out *Chapter) {
	out.SecondaryTable = req.SecondaryTable

	verses, err := c.manager.GetVerses(req.SecondaryTable, req.BookNumber, req.Chapter, req.VerseStart, req.VerseEnd)
	if err == nil && len(verses) > 0 {
		out.Secondary = verses
		return
	}

	fetched, err := c.api.GetChapter(ctx, req.SecondaryTable, req.BookNumber, req.Chapter, req.VerseStart, req.VerseEnd)
	if err != nil {
		c.log.Warn("secondary chapter fetch failed", "version_table", req.SecondaryTable, "error", err)
		return
	}
	if _, err := c.manager.CacheVerses(fetched, req.SecondaryTable); err != nil {
		c.log.Warn("secondary chapter cache write failed", "error", err)
	}
	out.Secondary = fetched
}

// decorate adds the book title and prev/next paging from cached book
// metadata. Absent metadata degrades paging to a no-op.
func (c *Controller) decorate(req Request, out *Chapter) {
	lang := req.Language
	if lang == "" {
		lang = "en"
	}
	books, err := c.manager.GetCachedBooks(lang)
	if err != nil || len(books) == 0 {
		return
	}
	if entry, ok := books[req.BookNumber]; ok {
		out.BookTitle = entry.Title
	}
	out.Prev, out.Next = domain.Neighbors(books, req.BookNumber, req.Chapter)
}

// ResolveBookNumber maps a book title or short title in the given language to
// its book number using cached metadata only.
func (c *Controller) ResolveBookNumber(language, key string) (int, bool) {
	books, err := c.manager.GetCachedBooks(language)
	if err != nil {
		return 0, false
	}
	for n, b := range books {
		if b.Title == key || b.ShortTitle == key {
			return n, true
		}
	}
	return 0, false
}
