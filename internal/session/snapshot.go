package session

import (
	"time"

	"github.com/lectioapp/lectio/internal/canon"
	"github.com/lectioapp/lectio/internal/queue"
)

// Snapshot is the read-only state exposed to the presentation layer.
// It is a copy: mutating it has no effect on the session.
type Snapshot struct {
	Status Status
	Mode   Mode

	Ref      canon.ChapterRef
	BookName string

	Position time.Duration
	Duration time.Duration
	Rate     float64
	Volume   float64
	Muted    bool

	Verse         int
	TotalVerses   int
	VerseProgress float64

	CanPreviousVerse   bool
	CanNextVerse       bool
	CanPreviousChapter bool
	CanNextChapter     bool

	QueueLength int
	QueueIndex  int

	Err error
}

// Snapshot returns the current session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Status:      s.status,
		Mode:        s.modeLocked(),
		Position:    s.position,
		Duration:    s.duration,
		Rate:        s.rate,
		Volume:      s.volume,
		Muted:       s.muted,
		Verse:       s.verseNum,
		QueueLength: s.queue.Len(),
		QueueIndex:  s.queue.CurrentIndex(),
		Err:         s.lastErr,
	}

	if s.chapter != nil {
		snap.Ref = s.chapter.Ref
		snap.TotalVerses = s.chapter.TotalVerses
		if b, ok := s.canonIdx.Book(s.chapter.Ref.BookID); ok {
			snap.BookName = b.Name
		}
	}

	if s.timeline != nil && s.verseNum > 0 {
		_, snap.VerseProgress = s.timeline.Progress(s.position)
		snap.CanPreviousVerse = !s.timeline.IsFirst(s.verseNum)
		snap.CanNextVerse = !s.timeline.IsLast(s.verseNum)
	}

	snap.CanPreviousChapter, snap.CanNextChapter = s.chapterBoundsLocked()

	return snap
}

// QueueItems returns a copy of the queue contents.
func (s *Session) QueueItems() []queue.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.Items()
}

// modeLocked derives the traversal policy from queue occupancy. It is
// evaluated per command; the queue drains as items finish, so a cached
// mode would go stale mid-session.
func (s *Session) modeLocked() Mode {
	if s.queue.Current() != nil {
		return ModeQueue
	}
	return ModeFlow
}

// chapterBoundsLocked computes chapter navigability for the active
// mode: queue adjacency in queue mode, canon adjacency in flow mode.
func (s *Session) chapterBoundsLocked() (canPrev, canNext bool) {
	if s.modeLocked() == ModeQueue {
		canNext = s.queue.HasNext() || !s.fromQueue
		return s.queue.HasPrevious(), canNext
	}
	if s.chapter == nil {
		return false, false
	}
	_, canPrev = s.canonIdx.Previous(s.chapter.Ref)
	_, canNext = s.canonIdx.Next(s.chapter.Ref)
	return canPrev, canNext
}
