package backend

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jpcarver/versecache/internal/domain"
)

func newTestServer(t *testing.T, handler func(action string, r *http.Request, w http.ResponseWriter)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm failed: %v", err)
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		handler(r.FormValue("action"), r, w)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGetVersions(t *testing.T) {
	srv := newTestServer(t, func(action string, r *http.Request, w http.ResponseWriter) {
		if action != "vc_get_versions" {
			t.Errorf("Unexpected action %q", action)
		}
		if r.FormValue("token") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.FormValue("language") != "en" {
			t.Errorf("Expected language filter en, got %q", r.FormValue("language"))
		}
		w.Header().Set("Content-Type", "application/json")
		// Rank arrives as a string on some upstream code paths.
		w.Write([]byte(`{"versions":[
			{"table_name":"kjv","language":"en","type":"Bible","name":"King James Version","short_name":"KJV","rank":"1"},
			{"table_name":"","language":"en"},
			{"table_name":"web","language":"en","type":"","name":"World English Bible","short_name":"WEB","rank":2}
		]}`))
	})

	c := NewClient(srv.URL, "secret", nil)
	versions, err := c.GetVersions(context.Background(), "en", nil)
	if err != nil {
		t.Fatalf("GetVersions failed: %v", err)
	}
	if len(versions) != 2 {
		t.Fatalf("Expected 2 versions (malformed row dropped), got %d", len(versions))
	}
	if versions[0].TableName != "kjv" || versions[0].Rank != 1 {
		t.Errorf("Unexpected first version: %+v", versions[0])
	}
	if versions[1].Type != domain.TranslationBible {
		t.Errorf("Expected empty type to default to Bible, got %q", versions[1].Type)
	}
	if versions[0].CachedAt.IsZero() {
		t.Error("Expected CachedAt to be stamped")
	}
}

func TestGetVersionsUnauthorized(t *testing.T) {
	srv := newTestServer(t, func(action string, r *http.Request, w http.ResponseWriter) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	c := NewClient(srv.URL, "wrong", nil)
	_, err := c.GetVersions(context.Background(), "", nil)
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("Expected ErrUnauthorized, got %v", err)
	}
}

func TestGetBooks(t *testing.T) {
	srv := newTestServer(t, func(action string, r *http.Request, w http.ResponseWriter) {
		if action != "vc_get_books" {
			t.Errorf("Unexpected action %q", action)
		}
		langs := r.Form["languages[]"]
		if len(langs) != 2 || langs[0] != "en" || langs[1] != "zh-TW" {
			t.Errorf("Unexpected languages %v", langs)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"en": {"1": {"book_number":1,"title":"Genesis","short_title":"Gen","genre":"OT","chapters":50}},
			"zh-TW": {"1": {"book_number":"1","title":"創世記","short_title":"創","genre":"OT","chapters":"50"}}
		}`))
	})

	c := NewClient(srv.URL, "secret", nil)
	books, err := c.GetBooks(context.Background(), []string{"en", "zh-TW"})
	if err != nil {
		t.Fatalf("GetBooks failed: %v", err)
	}
	if len(books) != 2 {
		t.Fatalf("Expected 2 languages, got %d", len(books))
	}
	if books["en"][1].Title != "Genesis" {
		t.Errorf("Unexpected en book: %+v", books["en"][1])
	}
	if books["zh-TW"][1].Chapters != 50 {
		t.Errorf("Expected string-typed chapters to normalize, got %+v", books["zh-TW"][1])
	}
}

func TestGetChapter(t *testing.T) {
	srv := newTestServer(t, func(action string, r *http.Request, w http.ResponseWriter) {
		if action != "vc_get_verses" {
			t.Errorf("Unexpected action %q", action)
		}
		if r.FormValue("version_table") != "kjv" {
			t.Errorf("Unexpected version_table %q", r.FormValue("version_table"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"version1":{"verses":[
			{"book_number":19,"chapter":117,"verse":1,"verse_text":"O praise the LORD, all ye nations"},
			{"verse_id":"19117002","book_number":"19","chapter":"117","verse":"2","verse_text":"For his merciful kindness is great","commentary":"note"}
		]}}`))
	})

	c := NewClient(srv.URL, "secret", nil)
	verses, err := c.GetChapter(context.Background(), "kjv", 19, 117, 0, 0)
	if err != nil {
		t.Fatalf("GetChapter failed: %v", err)
	}
	if len(verses) != 2 {
		t.Fatalf("Expected 2 verses, got %d", len(verses))
	}
	if verses[0].VerseID != "19117001" {
		t.Errorf("Expected derived verse id 19117001, got %q", verses[0].VerseID)
	}
	if verses[1].VerseID != "19117002" || !verses[1].Commentary.Valid {
		t.Errorf("Unexpected second verse: %+v", verses[1])
	}

	if _, err := c.GetChapter(context.Background(), "", 19, 117, 0, 0); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument for empty table, got %v", err)
	}
}

func TestGetAbbreviations(t *testing.T) {
	srv := newTestServer(t, func(action string, r *http.Request, w http.ResponseWriter) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"abbreviations":[
			{"book_number":19,"abbreviation":"Ps","language":"en"},
			{"book_number":0,"abbreviation":"","language":"en"},
			{"book_number":"43","abbreviation":"John","language":"en"}
		]}`))
	})

	c := NewClient(srv.URL, "secret", nil)
	abbrs, err := c.GetAbbreviations(context.Background(), []string{"en"})
	if err != nil {
		t.Fatalf("GetAbbreviations failed: %v", err)
	}
	if len(abbrs) != 2 {
		t.Fatalf("Expected 2 abbreviations (malformed dropped), got %d", len(abbrs))
	}
	if abbrs[1].BookNumber != 43 {
		t.Errorf("Expected string-typed book_number to normalize, got %+v", abbrs[1])
	}
}

func TestGetCrossReferences(t *testing.T) {
	srv := newTestServer(t, func(action string, r *http.Request, w http.ResponseWriter) {
		if action != "vc_get_cross_references" {
			t.Errorf("Unexpected action %q", action)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"cross_references":[
			{"verse_id":"19117001","ref_verse_id":"45015011","votes":12}
		]}`))
	})

	c := NewClient(srv.URL, "secret", nil)
	refs, err := c.GetCrossReferences(context.Background(), []string{"19117001"}, "cross_references")
	if err != nil {
		t.Fatalf("GetCrossReferences failed: %v", err)
	}
	if len(refs) != 1 || refs[0].RefVerseID != "45015011" || refs[0].Votes != 12 {
		t.Errorf("Unexpected refs: %+v", refs)
	}
}

func TestCallNetworkError(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", "secret", nil)
	_, err := c.GetVersions(context.Background(), "", nil)
	if !errors.Is(err, domain.ErrNetwork) && !errors.Is(err, domain.ErrNetworkTimeout) {
		t.Errorf("Expected a network-class error, got %v", err)
	}
}
