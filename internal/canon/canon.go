// Package canon provides the ordered book/chapter catalog used for
// sequential (flow-mode) traversal.
package canon

import "fmt"

// Book holds metadata for a single book of the canon.
type Book struct {
	ID       string // stable identifier, e.g. "genesis"
	Name     string // display name, e.g. "Genesis"
	Order    int    // 1-based canonical position
	Chapters int    // number of chapters in the book
}

// ChapterRef identifies one chapter of one book.
type ChapterRef struct {
	BookID  string
	Chapter int
}

// String returns a reference like "genesis 3" for error messages.
func (r ChapterRef) String() string {
	return fmt.Sprintf("%s %d", r.BookID, r.Chapter)
}

// IsZero returns true if the reference is unset.
func (r ChapterRef) IsZero() bool {
	return r.BookID == "" && r.Chapter == 0
}

// Index is an ordered, read-only catalog of books.
type Index struct {
	books []Book
	byID  map[string]int // book ID -> slice index
}

// NewIndex builds an index from books in canonical order.
func NewIndex(books []Book) *Index {
	idx := &Index{
		books: make([]Book, len(books)),
		byID:  make(map[string]int, len(books)),
	}
	copy(idx.books, books)
	for i, b := range idx.books {
		idx.byID[b.ID] = i
	}
	return idx
}

// Books returns all books in canonical order.
func (idx *Index) Books() []Book {
	result := make([]Book, len(idx.books))
	copy(result, idx.books)
	return result
}

// Len returns the number of books in the index.
func (idx *Index) Len() int {
	return len(idx.books)
}

// Book looks up a book by ID.
func (idx *Index) Book(id string) (Book, bool) {
	i, ok := idx.byID[id]
	if !ok {
		return Book{}, false
	}
	return idx.books[i], true
}

// Contains reports whether ref names an existing book and chapter.
func (idx *Index) Contains(ref ChapterRef) bool {
	b, ok := idx.Book(ref.BookID)
	if !ok {
		return false
	}
	return ref.Chapter >= 1 && ref.Chapter <= b.Chapters
}

// Next returns the chapter following ref in canonical order.
// The last chapter of a book is followed by chapter 1 of the next book.
// Returns false at the last chapter of the last book.
func (idx *Index) Next(ref ChapterRef) (ChapterRef, bool) {
	i, ok := idx.byID[ref.BookID]
	if !ok {
		return ChapterRef{}, false
	}
	b := idx.books[i]
	if ref.Chapter < 1 || ref.Chapter > b.Chapters {
		return ChapterRef{}, false
	}
	if ref.Chapter < b.Chapters {
		return ChapterRef{BookID: b.ID, Chapter: ref.Chapter + 1}, true
	}
	if i+1 < len(idx.books) {
		return ChapterRef{BookID: idx.books[i+1].ID, Chapter: 1}, true
	}
	return ChapterRef{}, false
}

// Previous returns the chapter preceding ref in canonical order.
// Chapter 1 of a book is preceded by the last chapter of the previous
// book. Returns false at chapter 1 of the first book.
func (idx *Index) Previous(ref ChapterRef) (ChapterRef, bool) {
	i, ok := idx.byID[ref.BookID]
	if !ok {
		return ChapterRef{}, false
	}
	b := idx.books[i]
	if ref.Chapter < 1 || ref.Chapter > b.Chapters {
		return ChapterRef{}, false
	}
	if ref.Chapter > 1 {
		return ChapterRef{BookID: b.ID, Chapter: ref.Chapter - 1}, true
	}
	if i > 0 {
		prev := idx.books[i-1]
		return ChapterRef{BookID: prev.ID, Chapter: prev.Chapters}, true
	}
	return ChapterRef{}, false
}
