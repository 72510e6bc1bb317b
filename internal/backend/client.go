// Package backend talks to the upstream scripture API: a single HTTP+JSON
// endpoint dispatched on an action parameter, authenticated by a token the
// host deployment supplies.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jpcarver/versecache/internal/constants"
	"github.com/jpcarver/versecache/internal/domain"
	"github.com/jpcarver/versecache/internal/httpclient"
	"github.com/jpcarver/versecache/internal/logger"
)

// Actions understood by the upstream dispatcher.
const (
	actionGetVersions        = "vc_get_versions"
	actionGetBooks           = "vc_get_books"
	actionGetVerses          = "vc_get_verses"
	actionGetAbbreviations   = "vc_get_abbreviations"
	actionGetCrossReferences = "vc_get_cross_references"
)

// API is the slice of the backend the cache layer consumes.
type API interface {
	GetVersions(ctx context.Context, language string, types []string) ([]domain.Version, error)
	GetBooks(ctx context.Context, languages []string) (map[string]map[int]domain.BookEntry, error)
	GetChapter(ctx context.Context, versionTable string, book, chapter, verseStart, verseEnd int) ([]domain.Verse, error)
	GetAbbreviations(ctx context.Context, languages []string) ([]domain.Abbreviation, error)
	GetCrossReferences(ctx context.Context, verseIDs []string, tableName string) ([]domain.CrossReference, error)
}

type Client struct {
	interactive *httpclient.Client
	bulk        *httpclient.Client
	baseURL     string
	token       string
	log         *logger.Logger
}

var _ API = (*Client)(nil)

func NewClient(baseURL, token string, log *logger.Logger) *Client {
	if log == nil {
		log = logger.Default()
	}
	return &Client{
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		token:       token,
		interactive: httpclient.New(nil, constants.MinRequestInterval),
		bulk: httpclient.New(&http.Client{
			Timeout: constants.BulkTimeout,
		}, constants.MinRequestInterval),
		log: log.WithComponent("backend"),
	}
}

// GetVersions fetches version metadata, optionally filtered by language and
// translation types.
func (c *Client) GetVersions(ctx context.Context, language string, types []string) ([]domain.Version, error) {
	form := url.Values{}
	if language != "" {
		form.Set("language", language)
	}
	for _, t := range types {
		form.Add("types[]", t)
	}

	var resp versionsResponse
	if err := c.call(ctx, c.interactive, actionGetVersions, form, &resp); err != nil {
		return nil, err
	}

	now := time.Now()
	versions := make([]domain.Version, 0, len(resp.Versions))
	for _, p := range resp.Versions {
		v, err := p.normalize(now)
		if err != nil {
			c.log.Warn("dropping malformed version payload", "error", err)
			continue
		}
		versions = append(versions, v)
	}
	return versions, nil
}

// GetBooks fetches book lists keyed by language.
func (c *Client) GetBooks(ctx context.Context, languages []string) (map[string]map[int]domain.BookEntry, error) {
	form := url.Values{}
	for _, l := range languages {
		form.Add("languages[]", l)
	}

	var resp map[string]map[string]bookPayload
	if err := c.call(ctx, c.interactive, actionGetBooks, form, &resp); err != nil {
		return nil, err
	}

	out := make(map[string]map[int]domain.BookEntry, len(resp))
	for lang, payload := range resp {
		books := make(map[int]domain.BookEntry, len(payload))
		for _, p := range payload {
			entry, err := p.normalize()
			if err != nil {
				c.log.Warn("dropping malformed book payload", "language", lang, "error", err)
				continue
			}
			books[entry.BookNumber] = entry
		}
		out[lang] = books
	}
	return out, nil
}

// GetChapter fetches one chapter (or a verse range within it) for one
// version. A zero verseStart/verseEnd means the whole chapter.
func (c *Client) GetChapter(ctx context.Context, versionTable string, book, chapter, verseStart, verseEnd int) ([]domain.Verse, error) {
	if versionTable == "" {
		return nil, fmt.Errorf("%w: empty version table", domain.ErrInvalidArgument)
	}

	form := url.Values{}
	form.Set("version_table", versionTable)
	form.Set("book_number_range", strconv.Itoa(book))
	form.Set("chapter_number_range", strconv.Itoa(chapter))
	if verseStart > 0 && verseEnd > 0 {
		form.Set("verse_number_range", fmt.Sprintf("%d-%d", verseStart, verseEnd))
	}

	var resp chapterResponse
	if err := c.call(ctx, c.interactive, actionGetVerses, form, &resp); err != nil {
		return nil, err
	}

	now := time.Now()
	verses := make([]domain.Verse, 0, len(resp.Version1.Verses))
	for _, p := range resp.Version1.Verses {
		v, err := normalizeVerse(p, versionTable, now)
		if err != nil {
			c.log.Warn("dropping malformed verse payload", "version_table", versionTable, "error", err)
			continue
		}
		verses = append(verses, v)
	}
	return verses, nil
}

// GetAbbreviations fetches the citation abbreviation table.
func (c *Client) GetAbbreviations(ctx context.Context, languages []string) ([]domain.Abbreviation, error) {
	form := url.Values{}
	for _, l := range languages {
		form.Add("languages[]", l)
	}

	var resp abbreviationsResponse
	if err := c.call(ctx, c.interactive, actionGetAbbreviations, form, &resp); err != nil {
		return nil, err
	}

	abbrs := make([]domain.Abbreviation, 0, len(resp.Abbreviations))
	for _, p := range resp.Abbreviations {
		n, err := p.BookNumber.Int64()
		if err != nil || n < 1 || p.Abbreviation == "" {
			c.log.Warn("dropping malformed abbreviation payload", "abbreviation", p.Abbreviation)
			continue
		}
		abbrs = append(abbrs, domain.Abbreviation{
			BookNumber:   int(n),
			Abbreviation: p.Abbreviation,
			Language:     p.Language,
		})
	}
	return abbrs, nil
}

// GetCrossReferences fetches cross references for explicit verse ids. This is
// an import-sized call site, so it runs on the bulk client.
func (c *Client) GetCrossReferences(ctx context.Context, verseIDs []string, tableName string) ([]domain.CrossReference, error) {
	form := url.Values{}
	for _, id := range verseIDs {
		form.Add("verse_ids[]", id)
	}
	form.Set("table_name", tableName)

	var resp crossReferencesResponse
	if err := c.call(ctx, c.bulk, actionGetCrossReferences, form, &resp); err != nil {
		return nil, err
	}

	refs := make([]domain.CrossReference, 0, len(resp.CrossReferences))
	for _, p := range resp.CrossReferences {
		votes, _ := p.Votes.Int64()
		refs = append(refs, domain.CrossReference{
			VerseID:     p.VerseID,
			RefVerseID:  p.RefVerseID,
			RefEndVerse: p.RefEndVerse,
			Votes:       int(votes),
		})
	}
	return refs, nil
}

// call performs one action request and decodes the JSON response. Transport
// and auth failures map onto the shared error taxonomy; the cache is never
// touched on any failure path.
func (c *Client) call(ctx context.Context, hc *httpclient.Client, action string, form url.Values, out any) (err error) {
	form.Set("action", action)
	form.Set("token", c.token)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("%w: build request: %v", domain.ErrNetwork, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Auth-Token", c.token)

	resp, err := hc.Do(ctx, req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) || isTimeout(err) {
			return fmt.Errorf("%w: %s: %v", domain.ErrNetworkTimeout, action, err)
		}
		return fmt.Errorf("%w: %s: %v", domain.ErrNetwork, action, err)
	}
	defer resp.Body.Close() //nolint:errcheck // deferred cleanup

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %s", domain.ErrUnauthorized, action)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %s: status %d: %s", domain.ErrNetwork, action, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("%w: %s: decode response: %v", domain.ErrNetwork, action, err)
	}
	return nil
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}

func normalizeVerse(p versePayload, versionTable string, now time.Time) (domain.Verse, error) {
	book, err := p.BookNumber.Int64()
	if err != nil {
		return domain.Verse{}, fmt.Errorf("bad book_number %q", p.BookNumber)
	}
	chapter, err := p.Chapter.Int64()
	if err != nil {
		return domain.Verse{}, fmt.Errorf("bad chapter %q", p.Chapter)
	}
	verse, err := p.Verse.Int64()
	if err != nil {
		return domain.Verse{}, fmt.Errorf("bad verse %q", p.Verse)
	}

	id := p.VerseID
	if id == "" {
		id = domain.MakeVerseID(int(book), int(chapter), int(verse))
	}

	v := domain.Verse{
		VersionTable: versionTable,
		VerseID:      id,
		BookNumber:   int(book),
		Chapter:      int(chapter),
		Verse:        int(verse),
		Text:         p.Text,
		CachedAt:     now,
	}
	if p.Commentary != "" {
		v.Commentary = domain.NullStringOf(p.Commentary)
	}
	return v, nil
}
