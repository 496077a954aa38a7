package session

import (
	"fmt"
	"time"

	"github.com/lectioapp/lectio/internal/canon"
	"github.com/lectioapp/lectio/internal/errmsg"
	"github.com/lectioapp/lectio/internal/queue"
	"github.com/lectioapp/lectio/internal/verse"
)

// NextVerse seeks to the start of the following verse. At the last
// verse it is an idempotent no-op returning the current verse, unless
// the queue holds a next item, in which case it advances the queue.
func (s *Session) NextVerse() (verse.Timestamp, error) {
	s.mu.Lock()
	if s.timeline == nil {
		err := s.commandErrLocked(errmsg.OpVerseJump, fmt.Errorf("no chapter loaded"))
		s.mu.Unlock()
		return verse.Timestamp{}, err
	}
	cur := s.timeline.At(s.position)
	if !s.timeline.IsLast(cur.Number) {
		next, nerr := s.timeline.ForNumber(cur.Number + 1)
		if nerr != nil {
			err := s.commandErrLocked(errmsg.OpVerseJump, nerr)
			s.mu.Unlock()
			return verse.Timestamp{}, err
		}
		if err := s.seekLocked(next.Start); err != nil {
			s.mu.Unlock()
			return verse.Timestamp{}, err
		}
		s.mu.Unlock()
		return next, nil
	}

	if s.modeLocked() == ModeQueue {
		if item, ok := s.advanceQueueLocked(); ok {
			resume := s.status.IsPlaying()
			s.mu.Unlock()
			s.emitQueue()
			if err := s.playItem(item, resume); err != nil {
				return verse.Timestamp{}, err
			}
			return s.currentVerseTimestamp()
		}
	}

	s.mu.Unlock()
	return cur, nil
}

// advanceQueueLocked picks the next item to play: the current item if
// it has not started yet, otherwise the following one. The pointer
// moves only in the latter case.
func (s *Session) advanceQueueLocked() (queue.Item, bool) {
	if !s.fromQueue {
		if cur := s.queue.Current(); cur != nil {
			return *cur, true
		}
	}
	if s.queue.HasNext() {
		return *s.queue.Next(), true
	}
	return queue.Item{}, false
}

// PreviousVerse seeks to the start of the preceding verse. At the
// first verse it is an idempotent no-op, unless the queue holds a
// previous item.
func (s *Session) PreviousVerse() (verse.Timestamp, error) {
	s.mu.Lock()
	if s.timeline == nil {
		err := s.commandErrLocked(errmsg.OpVerseJump, fmt.Errorf("no chapter loaded"))
		s.mu.Unlock()
		return verse.Timestamp{}, err
	}
	cur := s.timeline.At(s.position)
	if !s.timeline.IsFirst(cur.Number) {
		prev, perr := s.timeline.ForNumber(cur.Number - 1)
		if perr != nil {
			err := s.commandErrLocked(errmsg.OpVerseJump, perr)
			s.mu.Unlock()
			return verse.Timestamp{}, err
		}
		if err := s.seekLocked(prev.Start); err != nil {
			s.mu.Unlock()
			return verse.Timestamp{}, err
		}
		s.mu.Unlock()
		return prev, nil
	}

	if s.modeLocked() == ModeQueue && s.queue.HasPrevious() {
		item := *s.queue.Previous()
		resume := s.status.IsPlaying()
		s.mu.Unlock()
		s.emitQueue()
		if err := s.playItem(item, resume); err != nil {
			return verse.Timestamp{}, err
		}
		return s.currentVerseTimestamp()
	}

	s.mu.Unlock()
	return cur, nil
}

// GoToVerse seeks to the start of verse n. The argument is validated
// against the chapter before any transport interaction.
func (s *Session) GoToVerse(n int) (verse.Timestamp, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timeline == nil {
		return verse.Timestamp{}, s.commandErrLocked(errmsg.OpVerseJump, fmt.Errorf("no chapter loaded"))
	}
	total := s.timeline.Len()
	if n < 1 || n > total {
		return verse.Timestamp{}, s.commandErrLocked(errmsg.OpVerseJump,
			fmt.Errorf("verse %d out of range 1..%d", n, total))
	}
	ts, err := s.timeline.ForNumber(n)
	if err != nil {
		return verse.Timestamp{}, s.commandErrLocked(errmsg.OpVerseJump, err)
	}
	if err := s.seekLocked(ts.Start); err != nil {
		return verse.Timestamp{}, err
	}
	return ts, nil
}

// NextChapter advances to the adjacent chapter: the next queue item in
// queue mode, the canonical successor in flow mode. The dispatch is
// recomputed on every call.
func (s *Session) NextChapter() error {
	s.mu.Lock()
	if s.modeLocked() == ModeQueue {
		item, ok := s.advanceQueueLocked()
		if !ok {
			err := s.commandErrLocked(errmsg.OpChapterAdvance, fmt.Errorf("no next item in queue"))
			s.mu.Unlock()
			return err
		}
		resume := s.status.IsPlaying()
		s.mu.Unlock()
		s.emitQueue()
		return s.playItem(item, resume)
	}

	if s.chapter == nil {
		err := s.commandErrLocked(errmsg.OpChapterAdvance, fmt.Errorf("no chapter loaded"))
		s.mu.Unlock()
		return err
	}
	ref, ok := s.canonIdx.Next(s.chapter.Ref)
	if !ok {
		err := s.commandErrLocked(errmsg.OpChapterAdvance,
			fmt.Errorf("no chapter after %s", s.chapter.Ref))
		s.mu.Unlock()
		return err
	}
	resume := s.status.IsPlaying()
	s.mu.Unlock()
	return s.loadAndStart(ref, 1, 0, resume)
}

// PreviousChapter is the mirror of NextChapter.
func (s *Session) PreviousChapter() error {
	s.mu.Lock()
	if s.modeLocked() == ModeQueue {
		if !s.queue.HasPrevious() {
			err := s.commandErrLocked(errmsg.OpChapterPrevious, fmt.Errorf("no previous item in queue"))
			s.mu.Unlock()
			return err
		}
		item := *s.queue.Previous()
		resume := s.status.IsPlaying()
		s.mu.Unlock()
		s.emitQueue()
		return s.playItem(item, resume)
	}

	if s.chapter == nil {
		err := s.commandErrLocked(errmsg.OpChapterPrevious, fmt.Errorf("no chapter loaded"))
		s.mu.Unlock()
		return err
	}
	ref, ok := s.canonIdx.Previous(s.chapter.Ref)
	if !ok {
		err := s.commandErrLocked(errmsg.OpChapterPrevious,
			fmt.Errorf("no chapter before %s", s.chapter.Ref))
		s.mu.Unlock()
		return err
	}
	resume := s.status.IsPlaying()
	s.mu.Unlock()
	return s.loadAndStart(ref, 1, 0, resume)
}

// handleCompletion fires when the transport reaches the end of the
// sound (or a passage bound). It behaves exactly like an explicit
// "next" command: queue-aware when the queue is active, flow-aware
// otherwise, and Completed when nothing follows.
func (s *Session) handleCompletion(gen uint64) {
	s.mu.Lock()
	if s.superseded(gen) {
		s.mu.Unlock()
		return
	}

	if s.modeLocked() == ModeQueue {
		if item, ok := s.advanceQueueLocked(); ok {
			s.mu.Unlock()
			s.emitQueue()
			_ = s.playItem(item, true)
			return
		}
		// Queue fully consumed. The watcher that called us is about
		// to return, so Play has to start a fresh one.
		s.queue.Clear()
		_, _ = s.tr.Pause()
		s.setStatusLocked(StatusCompleted)
		s.watchStop = nil
		s.mu.Unlock()
		s.emitQueue()
		return
	}

	if s.chapter != nil {
		if ref, ok := s.canonIdx.Next(s.chapter.Ref); ok {
			s.mu.Unlock()
			_ = s.loadAndStart(ref, 1, 0, true)
			return
		}
	}
	_, _ = s.tr.Pause()
	s.setStatusLocked(StatusCompleted)
	s.watchStop = nil
	s.mu.Unlock()
}

// playItem loads a queue item and positions playback at its first
// verse (or FromVerse for passages).
func (s *Session) playItem(item queue.Item, resume bool) error {
	from := item.FromVerse
	if from < 1 {
		from = 1
	}
	if err := s.loadAndStart(item.Ref, from, item.ToVerse, resume); err != nil {
		return err
	}
	s.mu.Lock()
	if s.chapter != nil && s.chapter.Ref == item.Ref {
		s.fromQueue = true
	}
	s.mu.Unlock()
	return nil
}

// loadAndStart loads a chapter, applies verse bounds and optionally
// resumes playback. Called without s.mu held.
func (s *Session) loadAndStart(ref canon.ChapterRef, fromVerse, toVerse int, resume bool) error {
	if err := s.LoadChapter(ref.BookID, ref.Chapter); err != nil {
		return err
	}

	s.mu.Lock()
	if s.timeline == nil {
		// Superseded by a newer load; nothing more to do here.
		s.mu.Unlock()
		return nil
	}
	if toVerse > 0 {
		ts, err := s.timeline.ForNumber(toVerse)
		if err != nil {
			e := s.commandErrLocked(errmsg.OpVerseJump, err)
			s.mu.Unlock()
			return e
		}
		s.boundEnd = ts.End
	}
	if fromVerse > 1 {
		ts, err := s.timeline.ForNumber(fromVerse)
		if err != nil {
			e := s.commandErrLocked(errmsg.OpVerseJump, err)
			s.mu.Unlock()
			return e
		}
		if err := s.seekLocked(ts.Start); err != nil {
			s.mu.Unlock()
			return err
		}
	}
	s.mu.Unlock()

	if resume {
		return s.Play()
	}
	return nil
}

// currentVerseTimestamp reads the verse at the current position.
func (s *Session) currentVerseTimestamp() (verse.Timestamp, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timeline == nil {
		return verse.Timestamp{}, fmt.Errorf("no chapter loaded")
	}
	return s.timeline.At(s.position), nil
}

// EnqueueChapter appends a whole chapter to the queue.
func (s *Session) EnqueueChapter(ref canon.ChapterRef) error {
	return s.enqueue(queue.Item{Kind: queue.KindChapter, Ref: ref}, false)
}

// EnqueueChapterNext inserts a chapter so it plays next.
func (s *Session) EnqueueChapterNext(ref canon.ChapterRef) error {
	return s.enqueue(queue.Item{Kind: queue.KindChapter, Ref: ref}, true)
}

// EnqueuePassage appends a verse range of a chapter.
func (s *Session) EnqueuePassage(ref canon.ChapterRef, fromVerse, toVerse int) error {
	if fromVerse < 1 || toVerse < fromVerse {
		return s.queueErr(errmsg.OpQueueAdd,
			fmt.Errorf("invalid verse range %d..%d", fromVerse, toVerse))
	}
	return s.enqueue(queue.Item{
		Kind:      queue.KindPassage,
		Ref:       ref,
		FromVerse: fromVerse,
		ToVerse:   toVerse,
	}, false)
}

// EnqueuePlaylist appends a named sequence of chapters.
func (s *Session) EnqueuePlaylist(name string, refs ...canon.ChapterRef) error {
	items := make([]queue.Item, 0, len(refs))
	now := time.Now()
	for _, ref := range refs {
		if !s.canonIdx.Contains(ref) {
			return s.queueErr(errmsg.OpQueueAdd, fmt.Errorf("unknown chapter %s", ref))
		}
		items = append(items, queue.Item{
			Kind:     queue.KindPlaylist,
			Ref:      ref,
			Playlist: name,
			AddedAt:  now,
		})
	}
	if len(items) == 0 {
		return nil
	}
	s.mu.Lock()
	s.queue.AddBack(items...)
	s.mu.Unlock()
	s.emitQueue()
	return nil
}

func (s *Session) enqueue(item queue.Item, front bool) error {
	if !s.canonIdx.Contains(item.Ref) {
		return s.queueErr(errmsg.OpQueueAdd, fmt.Errorf("unknown chapter %s", item.Ref))
	}
	item.AddedAt = time.Now()
	s.mu.Lock()
	if front {
		s.queue.AddFront(item)
	} else {
		s.queue.AddBack(item)
	}
	s.mu.Unlock()
	s.emitQueue()
	return nil
}

// RemoveQueueItem removes the item at index.
func (s *Session) RemoveQueueItem(index int) error {
	s.mu.Lock()
	ok := s.queue.Remove(index)
	s.mu.Unlock()
	if !ok {
		return s.queueErr(errmsg.OpQueueRemove, fmt.Errorf("no queue item at index %d", index))
	}
	s.emitQueue()
	return nil
}

// ReorderQueue moves the item at from to position to.
func (s *Session) ReorderQueue(from, to int) error {
	s.mu.Lock()
	ok := s.queue.Reorder(from, to)
	s.mu.Unlock()
	if !ok {
		return s.queueErr(errmsg.OpQueueReorder, fmt.Errorf("invalid move %d -> %d", from, to))
	}
	s.emitQueue()
	return nil
}

// ClearQueue empties the queue; the session falls back to flow mode on
// the next command.
func (s *Session) ClearQueue() {
	s.mu.Lock()
	s.queue.Clear()
	s.mu.Unlock()
	s.emitQueue()
}

func (s *Session) queueErr(op errmsg.Op, err error) error {
	s.mu.Lock()
	e := s.commandErrLocked(op, err)
	s.mu.Unlock()
	return e
}
