package domain

import "testing"

func TestNeighbors(t *testing.T) {
	books := map[int]BookEntry{
		18: {BookNumber: 18, Title: "Job", Chapters: 42},
		19: {BookNumber: 19, Title: "Psalms", Chapters: 150},
		20: {BookNumber: 20, Title: "Proverbs", Chapters: 31},
	}

	tests := []struct {
		name          string
		book, chapter int
		wantPrev      *ChapterRef
		wantNext      *ChapterRef
	}{
		{"mid book", 19, 117, &ChapterRef{19, 116}, &ChapterRef{19, 118}},
		{"first chapter crosses back", 19, 1, &ChapterRef{18, 42}, &ChapterRef{19, 2}},
		{"last chapter crosses forward", 19, 150, &ChapterRef{19, 149}, &ChapterRef{20, 1}},
		{"missing previous book", 18, 1, nil, &ChapterRef{18, 2}},
		{"missing next book", 20, 31, &ChapterRef{20, 30}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prev, next := Neighbors(books, tt.book, tt.chapter)
			if !refEqual(prev, tt.wantPrev) {
				t.Errorf("prev = %+v, want %+v", prev, tt.wantPrev)
			}
			if !refEqual(next, tt.wantNext) {
				t.Errorf("next = %+v, want %+v", next, tt.wantNext)
			}
		})
	}
}

func TestNeighborsWithoutMetadata(t *testing.T) {
	prev, next := Neighbors(map[int]BookEntry{}, 19, 117)
	if prev != nil || next != nil {
		t.Errorf("Expected no-op navigation without metadata, got %+v and %+v", prev, next)
	}
}

func refEqual(a, b *ChapterRef) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
