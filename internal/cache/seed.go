package cache

import (
	"time"

	"golang.org/x/text/language"

	"github.com/jpcarver/versecache/internal/constants"
	"github.com/jpcarver/versecache/internal/domain"
)

// Seed version tables. These name real upstream content tables so seeded
// verses stay addressable once the network is reachable.
const (
	SeedEnglishTable = "kjv"
	SeedChineseTable = "cuv"
)

// seedChapter is the sample chapter loaded on first run: Psalm 117, the
// shortest chapter in the corpus, so the reader has something to show before
// any network round-trip completes.
const (
	seedBook    = 19
	seedChapter = 117
)

var seedEnglishVerses = []string{
	"O praise the LORD, all ye nations: praise him, all ye people.",
	"For his merciful kindness is great toward us: and the truth of the LORD endureth for ever. Praise ye the LORD.",
}

var seedChineseVerses = []string{
	"萬國啊，你們都當讚美耶和華！萬民哪，你們都當頌讚他！",
	"因為他向我們大施慈愛；耶和華的誠實存到永遠。你們要讚美耶和華！",
}

// seedBooks is the full English book list: number, title, short title,
// testament, chapter count.
var seedBooks = []domain.BookEntry{
	{BookNumber: 1, Title: "Genesis", ShortTitle: "Gen", Genre: constants.GenreOldTestament, Chapters: 50},
	{BookNumber: 2, Title: "Exodus", ShortTitle: "Exod", Genre: constants.GenreOldTestament, Chapters: 40},
	{BookNumber: 3, Title: "Leviticus", ShortTitle: "Lev", Genre: constants.GenreOldTestament, Chapters: 27},
	{BookNumber: 4, Title: "Numbers", ShortTitle: "Num", Genre: constants.GenreOldTestament, Chapters: 36},
	{BookNumber: 5, Title: "Deuteronomy", ShortTitle: "Deut", Genre: constants.GenreOldTestament, Chapters: 34},
	{BookNumber: 6, Title: "Joshua", ShortTitle: "Josh", Genre: constants.GenreOldTestament, Chapters: 24},
	{BookNumber: 7, Title: "Judges", ShortTitle: "Judg", Genre: constants.GenreOldTestament, Chapters: 21},
	{BookNumber: 8, Title: "Ruth", ShortTitle: "Ruth", Genre: constants.GenreOldTestament, Chapters: 4},
	{BookNumber: 9, Title: "1 Samuel", ShortTitle: "1Sam", Genre: constants.GenreOldTestament, Chapters: 31},
	{BookNumber: 10, Title: "2 Samuel", ShortTitle: "2Sam", Genre: constants.GenreOldTestament, Chapters: 24},
	{BookNumber: 11, Title: "1 Kings", ShortTitle: "1Kgs", Genre: constants.GenreOldTestament, Chapters: 22},
	{BookNumber: 12, Title: "2 Kings", ShortTitle: "2Kgs", Genre: constants.GenreOldTestament, Chapters: 25},
	{BookNumber: 13, Title: "1 Chronicles", ShortTitle: "1Chr", Genre: constants.GenreOldTestament, Chapters: 29},
	{BookNumber: 14, Title: "2 Chronicles", ShortTitle: "2Chr", Genre: constants.GenreOldTestament, Chapters: 36},
	{BookNumber: 15, Title: "Ezra", ShortTitle: "Ezra", Genre: constants.GenreOldTestament, Chapters: 10},
	{BookNumber: 16, Title: "Nehemiah", ShortTitle: "Neh", Genre: constants.GenreOldTestament, Chapters: 13},
	{BookNumber: 17, Title: "Esther", ShortTitle: "Esth", Genre: constants.GenreOldTestament, Chapters: 10},
	{BookNumber: 18, Title: "Job", ShortTitle: "Job", Genre: constants.GenreOldTestament, Chapters: 42},
	{BookNumber: 19, Title: "Psalms", ShortTitle: "Ps", Genre: constants.GenreOldTestament, Chapters: 150},
	{BookNumber: 20, Title: "Proverbs", ShortTitle: "Prov", Genre: constants.GenreOldTestament, Chapters: 31},
	{BookNumber: 21, Title: "Ecclesiastes", ShortTitle: "Eccl", Genre: constants.GenreOldTestament, Chapters: 12},
	{BookNumber: 22, Title: "Song of Solomon", ShortTitle: "Song", Genre: constants.GenreOldTestament, Chapters: 8},
	{BookNumber: 23, Title: "Isaiah", ShortTitle: "Isa", Genre: constants.GenreOldTestament, Chapters: 66},
	{BookNumber: 24, Title: "Jeremiah", ShortTitle: "Jer", Genre: constants.GenreOldTestament, Chapters: 52},
	{BookNumber: 25, Title: "Lamentations", ShortTitle: "Lam", Genre: constants.GenreOldTestament, Chapters: 5},
	{BookNumber: 26, Title: "Ezekiel", ShortTitle: "Ezek", Genre: constants.GenreOldTestament, Chapters: 48},
	{BookNumber: 27, Title: "Daniel", ShortTitle: "Dan", Genre: constants.GenreOldTestament, Chapters: 12},
	{BookNumber: 28, Title: "Hosea", ShortTitle: "Hos", Genre: constants.GenreOldTestament, Chapters: 14},
	{BookNumber: 29, Title: "Joel", ShortTitle: "Joel", Genre: constants.GenreOldTestament, Chapters: 3},
	{BookNumber: 30, Title: "Amos", ShortTitle: "Amos", Genre: constants.GenreOldTestament, Chapters: 9},
	{BookNumber: 31, Title: "Obadiah", ShortTitle: "Obad", Genre: constants.GenreOldTestament, Chapters: 1},
	{BookNumber: 32, Title: "Jonah", ShortTitle: "Jonah", Genre: constants.GenreOldTestament, Chapters: 4},
	{BookNumber: 33, Title: "Micah", ShortTitle: "Mic", Genre: constants.GenreOldTestament, Chapters: 7},
	{BookNumber: 34, Title: "Nahum", ShortTitle: "Nah", Genre: constants.GenreOldTestament, Chapters: 3},
	{BookNumber: 35, Title: "Habakkuk", ShortTitle: "Hab", Genre: constants.GenreOldTestament, Chapters: 3},
	{BookNumber: 36, Title: "Zephaniah", ShortTitle: "Zeph", Genre: constants.GenreOldTestament, Chapters: 3},
	{BookNumber: 37, Title: "Haggai", ShortTitle: "Hag", Genre: constants.GenreOldTestament, Chapters: 2},
	{BookNumber: 38, Title: "Zechariah", ShortTitle: "Zech", Genre: constants.GenreOldTestament, Chapters: 14},
	{BookNumber: 39, Title: "Malachi", ShortTitle: "Mal", Genre: constants.GenreOldTestament, Chapters: 4},
	{BookNumber: 40, Title: "Matthew", ShortTitle: "Matt", Genre: constants.GenreNewTestament, Chapters: 28},
	{BookNumber: 41, Title: "Mark", ShortTitle: "Mark", Genre: constants.GenreNewTestament, Chapters: 16},
	{BookNumber: 42, Title: "Luke", ShortTitle: "Luke", Genre: constants.GenreNewTestament, Chapters: 24},
	{BookNumber: 43, Title: "John", ShortTitle: "John", Genre: constants.GenreNewTestament, Chapters: 21},
	{BookNumber: 44, Title: "Acts", ShortTitle: "Acts", Genre: constants.GenreNewTestament, Chapters: 28},
	{BookNumber: 45, Title: "Romans", ShortTitle: "Rom", Genre: constants.GenreNewTestament, Chapters: 16},
	{BookNumber: 46, Title: "1 Corinthians", ShortTitle: "1Cor", Genre: constants.GenreNewTestament, Chapters: 16},
	{BookNumber: 47, Title: "2 Corinthians", ShortTitle: "2Cor", Genre: constants.GenreNewTestament, Chapters: 13},
	{BookNumber: 48, Title: "Galatians", ShortTitle: "Gal", Genre: constants.GenreNewTestament, Chapters: 6},
	{BookNumber: 49, Title: "Ephesians", ShortTitle: "Eph", Genre: constants.GenreNewTestament, Chapters: 6},
	{BookNumber: 50, Title: "Philippians", ShortTitle: "Phil", Genre: constants.GenreNewTestament, Chapters: 4},
	{BookNumber: 51, Title: "Colossians", ShortTitle: "Col", Genre: constants.GenreNewTestament, Chapters: 4},
	{BookNumber: 52, Title: "1 Thessalonians", ShortTitle: "1Thess", Genre: constants.GenreNewTestament, Chapters: 5},
	{BookNumber: 53, Title: "2 Thessalonians", ShortTitle: "2Thess", Genre: constants.GenreNewTestament, Chapters: 3},
	{BookNumber: 54, Title: "1 Timothy", ShortTitle: "1Tim", Genre: constants.GenreNewTestament, Chapters: 6},
	{BookNumber: 55, Title: "2 Timothy", ShortTitle: "2Tim", Genre: constants.GenreNewTestament, Chapters: 4},
	{BookNumber: 56, Title: "Titus", ShortTitle: "Titus", Genre: constants.GenreNewTestament, Chapters: 3},
	{BookNumber: 57, Title: "Philemon", ShortTitle: "Phlm", Genre: constants.GenreNewTestament, Chapters: 1},
	{BookNumber: 58, Title: "Hebrews", ShortTitle: "Heb", Genre: constants.GenreNewTestament, Chapters: 13},
	{BookNumber: 59, Title: "James", ShortTitle: "Jas", Genre: constants.GenreNewTestament, Chapters: 5},
	{BookNumber: 60, Title: "1 Peter", ShortTitle: "1Pet", Genre: constants.GenreNewTestament, Chapters: 5},
	{BookNumber: 61, Title: "2 Peter", ShortTitle: "2Pet", Genre: constants.GenreNewTestament, Chapters: 3},
	{BookNumber: 62, Title: "1 John", ShortTitle: "1John", Genre: constants.GenreNewTestament, Chapters: 5},
	{BookNumber: 63, Title: "2 John", ShortTitle: "2John", Genre: constants.GenreNewTestament, Chapters: 1},
	{BookNumber: 64, Title: "3 John", ShortTitle: "3John", Genre: constants.GenreNewTestament, Chapters: 1},
	{BookNumber: 65, Title: "Jude", ShortTitle: "Jude", Genre: constants.GenreNewTestament, Chapters: 1},
	{BookNumber: 66, Title: "Revelation", ShortTitle: "Rev", Genre: constants.GenreNewTestament, Chapters: 22},
}

func seedBookSet(now time.Time) domain.BookSet {
	books := make(map[int]domain.BookEntry, len(seedBooks))
	for _, b := range seedBooks {
		books[b.BookNumber] = b
	}
	return domain.BookSet{Language: "en", Books: books, CachedAt: now}
}

func seedVerses(versionTable string, texts []string, now time.Time) []domain.Verse {
	verses := make([]domain.Verse, 0, len(texts))
	for i, text := range texts {
		verses = append(verses, domain.Verse{
			VersionTable: versionTable,
			VerseID:      domain.MakeVerseID(seedBook, seedChapter, i+1),
			BookNumber:   seedBook,
			Chapter:      seedChapter,
			Verse:        i + 1,
			Text:         text,
			CachedAt:     now,
		})
	}
	return verses
}

// wantsChineseSeed reports whether any configured locale resolves to
// Traditional Chinese, in which case the sample chapter is also seeded from
// the CUV text.
func wantsChineseSeed(locales []string) bool {
	matcher := language.NewMatcher([]language.Tag{
		language.English,
		language.TraditionalChinese,
	})
	for _, l := range locales {
		tag, err := language.Parse(l)
		if err != nil {
			continue
		}
		if _, idx, conf := matcher.Match(tag); idx == 1 && conf >= language.High {
			return true
		}
	}
	return false
}
