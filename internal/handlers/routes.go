package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/jpcarver/versecache/internal/constants"
	"github.com/jpcarver/versecache/internal/domain"
	"github.com/jpcarver/versecache/internal/reader"
)

func (h *Handler) GetVersions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	languages := q["lang"]
	types := q["type"]

	versions, err := h.Manager.GetVersions(languages, types)
	if err != nil {
		h.writeError(w, err)
		return
	}

	// Empty cache falls through to the upstream once, then serves the cached
	// copy on later requests. Each requested language is fetched separately;
	// the upstream filters one language per call.
	if len(versions) == 0 {
		fetchLangs := languages
		if len(fetchLangs) == 0 {
			fetchLangs = []string{""}
		}
		for _, lang := range fetchLangs {
			fetched, err := h.API.GetVersions(r.Context(), lang, types)
			if err != nil {
				h.writeError(w, err)
				return
			}
			if len(fetched) == 0 {
				continue
			}
			if err := h.Manager.CacheVersions(fetched); err != nil {
				h.Logger.Warn("version cache write failed", "error", err)
			}
			versions = append(versions, fetched...)
		}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"versions": versions})
}

func (h *Handler) GetBooks(w http.ResponseWriter, r *http.Request) {
	lang := r.URL.Query().Get("lang")
	if lang == "" {
		lang = constants.DefaultLanguage
	}

	books, err := h.Manager.GetCachedBooks(lang)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if len(books) == 0 {
		byLang, err := h.API.GetBooks(r.Context(), []string{lang})
		if err != nil {
			h.writeError(w, err)
			return
		}
		books = byLang[lang]
		if len(books) > 0 {
			if err := h.Manager.CacheBookMap(books, lang); err != nil {
				h.Logger.Warn("book cache write failed", "error", err)
			}
		}
	}

	// Stable order for consumers that render a picker.
	numbers := make([]int, 0, len(books))
	for n := range books {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)
	ordered := make([]domain.BookEntry, 0, len(numbers))
	for _, n := range numbers {
		ordered = append(ordered, books[n])
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"language": lang, "books": ordered})
}

func (h *Handler) GetChapter(w http.ResponseWriter, r *http.Request) {
	book, err1 := strconv.Atoi(chi.URLParam(r, "book"))
	chapter, err2 := strconv.Atoi(chi.URLParam(r, "chapter"))
	if err1 != nil || err2 != nil {
		h.writeError(w, fmt.Errorf("%w: book and chapter must be numeric", domain.ErrInvalidArgument))
		return
	}

	q := r.URL.Query()
	verseStart, _ := strconv.Atoi(q.Get("verse_start"))
	verseEnd, _ := strconv.Atoi(q.Get("verse_end"))

	ch, err := h.Reader.LoadChapter(r.Context(), reader.Request{
		VersionTable:   chi.URLParam(r, "table"),
		SecondaryTable: q.Get("dual"),
		Language:       q.Get("lang"),
		BookNumber:     book,
		Chapter:        chapter,
		VerseStart:     verseStart,
		VerseEnd:       verseEnd,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, ch)
}

type annotateRequest struct {
	PageID string `json:"page_id" validate:"required"`
	Text   string `json:"text" validate:"required"`
}

func (h *Handler) Annotate(w http.ResponseWriter, r *http.Request) {
	var req annotateRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	if !h.Annotator.Enabled(req.PageID) {
		h.writeJSON(w, http.StatusOK, map[string]interface{}{"enabled": false})
		return
	}
	if err := h.Annotator.Prepare(r.Context()); err != nil {
		h.writeError(w, err)
		return
	}

	annotations := h.Annotator.Scan(req.PageID, req.Text)
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"enabled":     true,
		"annotations": annotations,
	})
}

type popoverRequest struct {
	BookNumber int      `json:"book_number" validate:"required,min=1,max=66"`
	Chapter    int      `json:"chapter" validate:"required,min=1"`
	Verse      int      `json:"verse" validate:"min=0"`
	Languages  []string `json:"languages"`
}

// Popover resolves a scanned reference to its verse text. The client posts
// the reference fields back rather than an annotation id; nothing is stored
// between scan and resolve.
func (h *Handler) Popover(w http.ResponseWriter, r *http.Request) {
	var req popoverRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	pop, err := h.Annotator.Resolve(r.Context(), domain.Reference{
		BookNumber: req.BookNumber,
		Chapter:    req.Chapter,
		Verse:      req.Verse,
		Languages:  req.Languages,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, pop)
}

func (h *Handler) CrossReferences(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	verseIDs := q["verse_id"]
	table := q.Get("table")
	if len(verseIDs) == 0 || table == "" {
		h.writeError(w, fmt.Errorf("%w: verse_id and table are required", domain.ErrInvalidArgument))
		return
	}

	key := "xrefs:" + table + ":" + strings.Join(verseIDs, ",")
	if data, err := h.Manager.GetKV(key); err == nil && data != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
		return
	}

	refs, err := h.API.GetCrossReferences(r.Context(), verseIDs, table)
	if err != nil {
		h.writeError(w, err)
		return
	}

	body := map[string]interface{}{"cross_references": refs}
	h.writeJSON(w, http.StatusOK, body)

	if payload, err := json.Marshal(body); err == nil {
		if err := h.Manager.SetKV(key, payload, constants.KVCacheTTL); err != nil {
			h.Logger.Warn("cross-reference cache write failed", "error", err)
		}
	}
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.Manager.Stats())
}

// CacheRefresh runs one maintenance pass on demand.
func (h *Handler) CacheRefresh(w http.ResponseWriter, r *http.Request) {
	refreshed := h.Manager.UpdateExpiredVersions(r.Context())
	swept, err := h.Manager.SweepKV()
	if err != nil {
		h.Logger.Warn("kv sweep failed", "error", err)
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"versions_refreshed": refreshed,
		"kv_swept":           swept,
	})
}
