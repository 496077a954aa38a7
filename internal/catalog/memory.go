package catalog

import (
	"fmt"

	"github.com/lectioapp/lectio/internal/canon"
)

// Memory is an in-memory Provider, used for tests and demo seeding.
type Memory struct {
	chapters map[string]*ChapterAudio
	index    *canon.Index
}

// NewMemory creates an empty in-memory catalog over the given canon.
// A nil index falls back to the default canon.
func NewMemory(index *canon.Index) *Memory {
	if index == nil {
		index = canon.Default()
	}
	return &Memory{
		chapters: make(map[string]*ChapterAudio),
		index:    index,
	}
}

// Put registers audio for a chapter, replacing any existing entry.
func (m *Memory) Put(ca *ChapterAudio) {
	m.chapters[chapterKey(ca.Ref.BookID, ca.Ref.Chapter)] = ca
}

// ChapterAudio implements Provider.
func (m *Memory) ChapterAudio(bookID string, chapter int) (*ChapterAudio, error) {
	ca, ok := m.chapters[chapterKey(bookID, chapter)]
	if !ok {
		return nil, fmt.Errorf("%s %d: %w", bookID, chapter, ErrNotFound)
	}
	return ca, nil
}

// Canon implements Provider.
func (m *Memory) Canon() (*canon.Index, error) {
	return m.index, nil
}

func chapterKey(bookID string, chapter int) string {
	return fmt.Sprintf("%s/%d", bookID, chapter)
}
