package domain

// ChapterRef addresses one chapter of one book.
type ChapterRef struct {
	BookNumber int `json:"book_number"`
	Chapter    int `json:"chapter"`
}

// Neighbors computes the previous and next chapter for paging, crossing book
// boundaries using the cached chapter counts. When the needed book metadata
// is not cached the corresponding direction is nil and paging is a no-op.
func Neighbors(books map[int]BookEntry, book, chapter int) (prev, next *ChapterRef) {
	current, ok := books[book]
	if !ok {
		return nil, nil
	}

	switch {
	case chapter > 1:
		prev = &ChapterRef{BookNumber: book, Chapter: chapter - 1}
	default:
		if before, ok := books[book-1]; ok && before.Chapters > 0 {
			prev = &ChapterRef{BookNumber: book - 1, Chapter: before.Chapters}
		}
	}

	switch {
	case chapter < current.Chapters:
		next = &ChapterRef{BookNumber: book, Chapter: chapter + 1}
	default:
		if _, ok := books[book+1]; ok {
			next = &ChapterRef{BookNumber: book + 1, Chapter: 1}
		}
	}

	return prev, next
}
