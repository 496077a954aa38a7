// Package queue holds the user-curated list of playable items,
// independent of the canonical chapter ordering.
package queue

import (
	"time"

	"github.com/lectioapp/lectio/internal/canon"
)

// Kind classifies a queue item.
type Kind int

const (
	// KindChapter plays one whole chapter.
	KindChapter Kind = iota
	// KindPassage plays a verse range within a chapter.
	KindPassage
	// KindPlaylist marks an item that came from a named playlist.
	KindPlaylist
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindChapter:
		return "chapter"
	case KindPassage:
		return "passage"
	case KindPlaylist:
		return "playlist"
	default:
		return "unknown"
	}
}

// Item is one playable entry. FromVerse/ToVerse bound playback for
// passage items; zero means unbounded.
type Item struct {
	Kind      Kind
	Ref       canon.ChapterRef
	FromVerse int
	ToVerse   int
	Playlist  string // source playlist name for KindPlaylist items
	AddedAt   time.Time
}

// Queue is an ordered item list with a current-position pointer.
// currentIndex is -1 when no item is current; the queue is then
// inactive regardless of length.
type Queue struct {
	items        []Item
	currentIndex int
}

// New creates an empty queue.
func New() *Queue {
	return &Queue{currentIndex: -1}
}

// Items returns a copy of all items in order.
func (q *Queue) Items() []Item {
	result := make([]Item, len(q.items))
	copy(result, q.items)
	return result
}

// Len returns the number of items.
func (q *Queue) Len() int {
	return len(q.items)
}

// IsEmpty returns true if the queue has no items.
func (q *Queue) IsEmpty() bool {
	return len(q.items) == 0
}

// CurrentIndex returns the current position (-1 if none).
func (q *Queue) CurrentIndex() int {
	return q.currentIndex
}

// Current returns the current item, or nil if the queue is inactive.
func (q *Queue) Current() *Item {
	if q.currentIndex < 0 || q.currentIndex >= len(q.items) {
		return nil
	}
	item := q.items[q.currentIndex]
	return &item
}

// HasNext returns true if there is an item after the current one.
func (q *Queue) HasNext() bool {
	if len(q.items) == 0 {
		return false
	}
	return q.currentIndex < len(q.items)-1
}

// HasPrevious returns true if there is an item before the current one.
func (q *Queue) HasPrevious() bool {
	return q.currentIndex > 0
}

// Next advances to the next item and returns it. With no current item
// it starts at the first. Returns nil if there is nothing to advance to.
func (q *Queue) Next() *Item {
	if !q.HasNext() {
		return nil
	}
	q.currentIndex++
	return q.Current()
}

// Previous moves back one item and returns it.
func (q *Queue) Previous() *Item {
	if !q.HasPrevious() {
		return nil
	}
	q.currentIndex--
	return q.Current()
}

// JumpTo sets the current position and returns the item there, or nil
// if the index is invalid.
func (q *Queue) JumpTo(index int) *Item {
	if index < 0 || index >= len(q.items) {
		return nil
	}
	q.currentIndex = index
	return q.Current()
}

// AddBack appends items. Adding to an empty queue makes the first
// added item current, activating the queue.
func (q *Queue) AddBack(items ...Item) {
	if len(items) == 0 {
		return
	}
	wasEmpty := len(q.items) == 0
	q.items = append(q.items, items...)
	if wasEmpty {
		q.currentIndex = 0
	}
}

// AddFront inserts items immediately after the current item so they
// play next. On an empty queue it behaves like AddBack.
func (q *Queue) AddFront(items ...Item) {
	if len(items) == 0 {
		return
	}
	if len(q.items) == 0 {
		q.items = append(q.items, items...)
		q.currentIndex = 0
		return
	}
	at := q.currentIndex + 1
	if q.currentIndex < 0 {
		at = 0
	}
	q.items = append(q.items[:at], append(append([]Item{}, items...), q.items[at:]...)...)
}

// Remove deletes the item at index. An item removed at or before the
// current position decrements the pointer so it keeps naming the same
// logical item; removing the last remaining item deactivates the queue.
func (q *Queue) Remove(index int) bool {
	if index < 0 || index >= len(q.items) {
		return false
	}
	q.items = append(q.items[:index], q.items[index+1:]...)
	if len(q.items) == 0 {
		q.currentIndex = -1
		return true
	}
	if index <= q.currentIndex {
		q.currentIndex--
	}
	return true
}

// Reorder moves the item at from to position to, adjusting the current
// pointer to follow the item it names.
func (q *Queue) Reorder(from, to int) bool {
	if from < 0 || from >= len(q.items) || to < 0 || to >= len(q.items) {
		return false
	}
	if from == to {
		return true
	}
	item := q.items[from]
	q.items = append(q.items[:from], q.items[from+1:]...)
	q.items = append(q.items[:to], append([]Item{item}, q.items[to:]...)...)

	switch {
	case q.currentIndex == from:
		q.currentIndex = to
	case from < q.currentIndex && q.currentIndex <= to:
		q.currentIndex--
	case to <= q.currentIndex && q.currentIndex < from:
		q.currentIndex++
	}
	return true
}

// Clear removes all items and deactivates the queue.
func (q *Queue) Clear() {
	q.items = nil
	q.currentIndex = -1
}
