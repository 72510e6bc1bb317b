package backend

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jpcarver/versecache/internal/domain"
)

// The upstream serves loosely typed JSON: numbers arrive as numbers or as
// strings depending on the producing code path. DTOs absorb that at the
// boundary and normalize into domain types; rows that cannot be normalized
// are rejected, not passed through.

type versionPayload struct {
	TableName    string      `json:"table_name"`
	Language     string      `json:"language"`
	LanguageName string      `json:"language_name"`
	Type         string      `json:"type"`
	Name         string      `json:"name"`
	ShortName    string      `json:"short_name"`
	Publisher    string      `json:"publisher"`
	InfoURL      string      `json:"info_url"`
	Rank         json.Number `json:"rank"`
}

func (p versionPayload) normalize(now time.Time) (domain.Version, error) {
	if strings.TrimSpace(p.TableName) == "" {
		return domain.Version{}, fmt.Errorf("version payload missing table_name")
	}
	rank, _ := p.Rank.Int64()
	typ := domain.TranslationType(p.Type)
	if typ == "" {
		typ = domain.TranslationBible
	}
	return domain.Version{
		TableName:    p.TableName,
		Language:     p.Language,
		LanguageName: p.LanguageName,
		Type:         typ,
		Name:         p.Name,
		ShortName:    p.ShortName,
		Publisher:    p.Publisher,
		InfoURL:      p.InfoURL,
		Rank:         int(rank),
		CachedAt:     now,
	}, nil
}

type versionsResponse struct {
	Versions []versionPayload `json:"versions"`
}

type bookPayload struct {
	BookNumber json.Number `json:"book_number"`
	Title      string      `json:"title"`
	ShortTitle string      `json:"short_title"`
	Genre      string      `json:"genre"`
	Chapters   json.Number `json:"chapters"`
}

func (p bookPayload) normalize() (domain.BookEntry, error) {
	n, err := p.BookNumber.Int64()
	if err != nil || n < 1 {
		return domain.BookEntry{}, fmt.Errorf("book payload: bad book_number %q", p.BookNumber)
	}
	chapters, _ := p.Chapters.Int64()
	return domain.BookEntry{
		BookNumber: int(n),
		Title:      p.Title,
		ShortTitle: p.ShortTitle,
		Genre:      p.Genre,
		Chapters:   int(chapters),
	}, nil
}

type versePayload struct {
	VerseID    string      `json:"verse_id"`
	BookNumber json.Number `json:"book_number"`
	Chapter    json.Number `json:"chapter"`
	Verse      json.Number `json:"verse"`
	Text       string      `json:"verse_text"`
	Commentary string      `json:"commentary"`
}

type chapterResponse struct {
	Version1 struct {
		Verses []versePayload `json:"verses"`
	} `json:"version1"`
	Version2 *struct {
		Verses []versePayload `json:"verses"`
	} `json:"version2"`
	Navigation map[string]json.Number `json:"navigation"`
}

type abbreviationPayload struct {
	BookNumber   json.Number `json:"book_number"`
	Abbreviation string      `json:"abbreviation"`
	Language     string      `json:"language"`
}

type abbreviationsResponse struct {
	Abbreviations []abbreviationPayload `json:"abbreviations"`
}

type crossReferencePayload struct {
	VerseID     string      `json:"verse_id"`
	RefVerseID  string      `json:"ref_verse_id"`
	RefEndVerse string      `json:"ref_end_verse"`
	Votes       json.Number `json:"votes"`
}

type crossReferencesResponse struct {
	CrossReferences []crossReferencePayload `json:"cross_references"`
}
