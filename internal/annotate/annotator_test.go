package annotate

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/jpcarver/versecache/internal/cache"
	"github.com/jpcarver/versecache/internal/domain"
)

type fakeBackend struct {
	mu sync.Mutex

	abbreviations []domain.Abbreviation
	versions      []domain.Version
	chapters      map[string][]domain.Verse // key: table/book/chapter

	chapterCalls int
	failNetwork  bool
}

func chapterKey(table string, book, chapter int) string {
	return domain.MakeVerseID(book, chapter, 0) + table
}

func (f *fakeBackend) GetVersions(ctx context.Context, language string, types []string) ([]domain.Version, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNetwork {
		return nil, domain.ErrNetwork
	}
	var out []domain.Version
	for _, v := range f.versions {
		if language == "" || v.Language == language {
			out = append(out, v)
		}
	}
	return out, nil
}

func (f *fakeBackend) GetBooks(ctx context.Context, languages []string) (map[string]map[int]domain.BookEntry, error) {
	if f.failNetwork {
		return nil, domain.ErrNetwork
	}
	return map[string]map[int]domain.BookEntry{}, nil
}

func (f *fakeBackend) GetChapter(ctx context.Context, versionTable string, book, chapter, verseStart, verseEnd int) ([]domain.Verse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chapterCalls++
	if f.failNetwork {
		return nil, domain.ErrNetwork
	}
	return f.chapters[chapterKey(versionTable, book, chapter)], nil
}

func (f *fakeBackend) GetAbbreviations(ctx context.Context, languages []string) ([]domain.Abbreviation, error) {
	if f.failNetwork {
		return nil, domain.ErrNetwork
	}
	return f.abbreviations, nil
}

func (f *fakeBackend) GetCrossReferences(ctx context.Context, verseIDs []string, tableName string) ([]domain.CrossReference, error) {
	return nil, domain.ErrNetwork
}

func newTestAnnotator(t *testing.T, cfg Config) (*Annotator, *fakeBackend, *cache.Manager) {
	t.Helper()
	api := &fakeBackend{
		abbreviations: []domain.Abbreviation{
			{BookNumber: 19, Abbreviation: "Ps", Language: "en"},
			{BookNumber: 19, Abbreviation: "Psa", Language: "en"},
			{BookNumber: 43, Abbreviation: "John", Language: "en"},
		},
		versions: []domain.Version{
			{TableName: "kjv", Language: "en", Type: domain.TranslationBible, ShortName: "KJV", Rank: 1},
		},
		chapters: make(map[string][]domain.Verse),
	}
	m := cache.NewManager(filepath.Join(t.TempDir(), "cache.db"), []string{"en"}, api, nil)
	t.Cleanup(func() { m.Close() })

	if cfg.Languages == nil {
		cfg.Languages = []string{"en"}
	}
	a := New(cfg, m, api, nil)
	return a, api, m
}

func TestEnabled(t *testing.T) {
	a, _, _ := newTestAnnotator(t, Config{SkipPages: []string{"checkout"}})

	if !a.Enabled("article") {
		t.Error("Expected annotator enabled on ordinary page")
	}
	if a.Enabled("checkout") {
		t.Error("Expected annotator disabled on opted-out page")
	}

	off, _, _ := newTestAnnotator(t, Config{Disabled: true})
	if off.Enabled("article") {
		t.Error("Expected globally disabled annotator to skip everything")
	}
}

func TestScanMatchesCitations(t *testing.T) {
	a, _, _ := newTestAnnotator(t, Config{})
	if err := a.Prepare(context.Background()); err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}

	text := "Compare Ps 117:1 with John 3:16, and see Psa 23:1 as well."
	anns := a.Scan("article", text)
	if len(anns) != 3 {
		t.Fatalf("Expected 3 annotations, got %d: %+v", len(anns), anns)
	}

	if anns[0].Reference.BookNumber != 19 || anns[0].Reference.Chapter != 117 || anns[0].Reference.Verse != 1 {
		t.Errorf("Unexpected first reference: %+v", anns[0].Reference)
	}
	if anns[1].Reference.BookNumber != 43 {
		t.Errorf("Unexpected second reference: %+v", anns[1].Reference)
	}
	// Longest-first: "Psa 23:1" must resolve via Psa, not stop at Ps.
	if anns[2].Matched != "Psa 23:1" {
		t.Errorf("Expected longest abbreviation to win, matched %q", anns[2].Matched)
	}
	if anns[0].ID == "" || anns[0].ID == anns[1].ID {
		t.Error("Expected distinct non-empty annotation ids")
	}
}

func TestScanRejectsImplausibleBounds(t *testing.T) {
	a, _, _ := newTestAnnotator(t, Config{})
	if err := a.Prepare(context.Background()); err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}

	anns := a.Scan("article", "Ps 151:1 and Ps 119:177 and Ps 0:1 are all implausible")
	if len(anns) != 0 {
		t.Errorf("Expected bounds to reject all matches, got %+v", anns)
	}
}

func TestPrepareAndScanConcurrently(t *testing.T) {
	// One annotator serves every request goroutine, and each request runs
	// Prepare before Scan, so matcher rebuilds must not race with reads.
	// Run with -race.
	a, _, _ := newTestAnnotator(t, Config{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 5; j++ {
				if err := a.Prepare(context.Background()); err != nil {
					t.Errorf("Prepare failed: %v", err)
					return
				}
				if anns := a.Scan("article", "Ps 117:1 and John 3:16"); len(anns) != 2 {
					t.Errorf("Expected 2 annotations, got %d", len(anns))
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestScanSkipsOptedOutPage(t *testing.T) {
	a, _, _ := newTestAnnotator(t, Config{SkipPages: []string{"checkout"}})
	if err := a.Prepare(context.Background()); err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}

	if anns := a.Scan("checkout", "Ps 117:1"); anns != nil {
		t.Errorf("Expected nil annotations on opted-out page, got %+v", anns)
	}
}

func TestPrepareCachesAbbreviations(t *testing.T) {
	a, _, m := newTestAnnotator(t, Config{})
	if err := a.Prepare(context.Background()); err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}

	data, err := m.GetKV("abbreviations:en")
	if err != nil || data == nil {
		t.Errorf("Expected abbreviations cached in KV table, got data=%v err=%v", data, err)
	}

	// Second prepare runs entirely from cache even if the network is down.
	a2 := New(Config{Languages: []string{"en"}}, m, &fakeBackend{failNetwork: true}, nil)
	if err := a2.Prepare(context.Background()); err != nil {
		t.Fatalf("Prepare from cache failed: %v", err)
	}
	if anns := a2.Scan("article", "Ps 117:1"); len(anns) != 1 {
		t.Errorf("Expected cached abbreviations to drive matching, got %+v", anns)
	}
}

func TestResolveColdThenWarm(t *testing.T) {
	a, api, _ := newTestAnnotator(t, Config{})
	if err := a.Prepare(context.Background()); err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}

	api.mu.Lock()
	api.chapters[chapterKey("kjv", 43, 3)] = []domain.Verse{
		{VerseID: "43003016", BookNumber: 43, Chapter: 3, Verse: 16, Text: "For God so loved the world"},
	}
	api.mu.Unlock()

	ref := domain.Reference{BookNumber: 43, Chapter: 3, Verse: 16, Languages: []string{"en"}}

	// Cold: chapter comes from the network and is cached on the way out.
	pop, err := a.Resolve(context.Background(), ref)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if pop.VersionTable != "kjv" {
		t.Errorf("Expected kjv version, got %q", pop.VersionTable)
	}
	if len(pop.Verses) != 1 {
		t.Fatalf("Expected 1 verse, got %d", len(pop.Verses))
	}
	if api.chapterCalls != 1 {
		t.Errorf("Expected 1 network chapter fetch, got %d", api.chapterCalls)
	}

	// Warm: same reference served from cache, no new fetch.
	pop, err = a.Resolve(context.Background(), ref)
	if err != nil {
		t.Fatalf("Second resolve failed: %v", err)
	}
	if len(pop.Verses) != 1 {
		t.Fatalf("Expected cached verse, got %d", len(pop.Verses))
	}
	if api.chapterCalls != 1 {
		t.Errorf("Expected no second network fetch, got %d", api.chapterCalls)
	}
}

func TestResolveDegradesSilently(t *testing.T) {
	a, api, _ := newTestAnnotator(t, Config{})
	if err := a.Prepare(context.Background()); err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}

	api.mu.Lock()
	api.failNetwork = true
	api.mu.Unlock()

	// Uncached chapter, dead network: partial popover, no error.
	pop, err := a.Resolve(context.Background(), domain.Reference{BookNumber: 43, Chapter: 4, Verse: 1, Languages: []string{"en"}})
	if err != nil {
		t.Fatalf("Expected silent degradation, got error: %v", err)
	}
	if len(pop.Verses) != 0 {
		t.Errorf("Expected empty verses under network failure, got %d", len(pop.Verses))
	}

	if _, err := a.Resolve(context.Background(), domain.Reference{BookNumber: 0, Chapter: 0}); err == nil {
		t.Error("Expected error for invalid reference")
	}
}

func TestResolveNavigationFromSeededBooks(t *testing.T) {
	a, api, _ := newTestAnnotator(t, Config{})
	if err := a.Prepare(context.Background()); err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}

	api.mu.Lock()
	api.chapters[chapterKey("kjv", 19, 117)] = []domain.Verse{
		{BookNumber: 19, Chapter: 117, Verse: 1, Text: "O praise the LORD"},
	}
	api.mu.Unlock()

	pop, err := a.Resolve(context.Background(), domain.Reference{BookNumber: 19, Chapter: 117, Verse: 1, Languages: []string{"en"}})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if pop.Prev == nil || pop.Prev.Chapter != 116 {
		t.Errorf("Expected prev chapter 116 from seeded book metadata, got %+v", pop.Prev)
	}
	if pop.Next == nil || pop.Next.Chapter != 118 {
		t.Errorf("Expected next chapter 118, got %+v", pop.Next)
	}
}
