package domain

import (
	"fmt"
	"strconv"
)

// MakeVerseID builds the fixed-width verse identifier: two digits of book
// number, three of chapter, three of verse. Zero padding keeps ids lexically
// sortable, so ascending verse-id order is ascending verse order.
func MakeVerseID(book, chapter, verse int) string {
	return fmt.Sprintf("%02d%03d%03d", book, chapter, verse)
}

// ChapterIDRange returns the inclusive verse-id bounds covering verses
// [from, to] of one chapter.
func ChapterIDRange(book, chapter, from, to int) (string, string) {
	return MakeVerseID(book, chapter, from), MakeVerseID(book, chapter, to)
}

// ParseVerseID splits a verse id back into book, chapter and verse numbers.
func ParseVerseID(id string) (book, chapter, verse int, err error) {
	if len(id) != 8 {
		return 0, 0, 0, fmt.Errorf("verse id %q: want 8 digits", id)
	}
	book, err = strconv.Atoi(id[:2])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("verse id %q: bad book: %w", id, err)
	}
	chapter, err = strconv.Atoi(id[2:5])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("verse id %q: bad chapter: %w", id, err)
	}
	verse, err = strconv.Atoi(id[5:8])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("verse id %q: bad verse: %w", id, err)
	}
	return book, chapter, verse, nil
}
