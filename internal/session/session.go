// Package session is the playback engine: it owns the transport
// handle, maps its position onto verses, and dispatches navigation
// between the canonical chapter ordering and the user queue.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/lectioapp/lectio/internal/canon"
	"github.com/lectioapp/lectio/internal/catalog"
	"github.com/lectioapp/lectio/internal/errmsg"
	"github.com/lectioapp/lectio/internal/queue"
	"github.com/lectioapp/lectio/internal/transport"
	"github.com/lectioapp/lectio/internal/verse"
)

const (
	// positionPollInterval is the watcher cadence.
	positionPollInterval = 200 * time.Millisecond

	// positionEmitThreshold suppresses position events for smaller
	// movements, so subscribers are not flooded on every tick.
	positionEmitThreshold = 100 * time.Millisecond
)

// Session is a single playback session. All commands are serialized;
// the position watcher is the only background activity and is torn
// down on every chapter load.
type Session struct {
	mu sync.Mutex

	provider catalog.Provider
	tr       transport.Interface
	queue    *queue.Queue
	canonIdx *canon.Index

	status   Status
	chapter  *catalog.ChapterAudio
	timeline *verse.Timeline
	position time.Duration
	duration time.Duration
	rate     float64
	volume   float64
	muted    bool
	verseNum int // 0 when no verse is highlighted
	lastErr  error

	// boundEnd ends playback early for passage queue items; zero
	// means play to the end of the chapter.
	boundEnd time.Duration

	// fromQueue marks the installed chapter as the queue's current
	// item. When false while the queue is active, the current item is
	// still pending and plays before the pointer advances.
	fromQueue bool

	// loadGen invalidates superseded loads and stale watchers.
	loadGen   uint64
	loadMu    sync.Mutex // serializes transport load/unload pairs
	watchStop chan struct{}

	lastEmitted time.Duration

	subs   []*Subscription
	subsMu sync.RWMutex
	closed bool
}

// New creates a session over a content provider and a transport. The
// canonical book ordering is read from the provider once, up front.
func New(provider catalog.Provider, tr transport.Interface) (*Session, error) {
	idx, err := provider.Canon()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errmsg.OpCanonLoad, err)
	}
	return &Session{
		provider: provider,
		tr:       tr,
		queue:    queue.New(),
		canonIdx: idx,
		status:   StatusIdle,
		rate:     1.0,
		volume:   1.0,
	}, nil
}

// Canon returns the canonical book index in use.
func (s *Session) Canon() *canon.Index {
	return s.canonIdx
}

// Subscribe creates a new event subscription.
func (s *Session) Subscribe() *Subscription {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	sub := newSubscription()
	s.subs = append(s.subs, sub)
	return sub
}

// Close tears the session down: the watcher stops, the transport is
// released and subscribers see their Done channel close.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.loadGen++
	s.stopWatcherLocked()
	s.mu.Unlock()

	s.tr.Unload()

	s.subsMu.Lock()
	for _, sub := range s.subs {
		sub.close()
	}
	s.subs = nil
	s.subsMu.Unlock()

	return nil
}

// LoadChapter resolves a chapter through the provider, swaps it into
// the transport and restarts the position watcher. A LoadChapter that
// is superseded by a newer one discards its result silently.
func (s *Session) LoadChapter(bookID string, chapter int) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return fmt.Errorf("session closed")
	}
	s.loadGen++
	gen := s.loadGen
	s.stopWatcherLocked()
	s.boundEnd = 0
	s.setStatusLocked(StatusLoading)
	s.mu.Unlock()

	ca, err := s.provider.ChapterAudio(bookID, chapter)
	if err != nil {
		return s.failLoad(gen, errmsg.OpChapterLoad, err)
	}
	tl, err := ca.Timeline()
	if err != nil {
		return s.failLoad(gen, errmsg.OpChapterLoad,
			fmt.Errorf("%s %d: %w", bookID, chapter, err))
	}

	s.loadMu.Lock()
	s.mu.Lock()
	stale := s.superseded(gen)
	s.mu.Unlock()
	if stale {
		s.loadMu.Unlock()
		return nil
	}
	s.tr.Unload() // best-effort; never blocks the new load
	res := s.tr.Load(ca.Track)
	if res.Err != nil || !res.Loaded {
		s.loadMu.Unlock()
		loadErr := res.Err
		if loadErr == nil {
			loadErr = fmt.Errorf("transport did not load %s", ca.Ref)
		}
		return s.failLoad(gen, errmsg.OpChapterLoad, loadErr)
	}
	// Re-apply session-level rate and volume to the fresh handle. A
	// failed setting does not fail the load, but it is reported.
	if _, err := s.tr.SetRate(s.currentRate()); err != nil {
		s.emitError(ErrorEvent{Op: errmsg.OpPlaybackRate, Err: err})
	}
	if _, err := s.tr.SetVolume(s.currentVolume()); err != nil {
		s.emitError(ErrorEvent{Op: errmsg.OpPlaybackVolume, Err: err})
	}
	if _, err := s.tr.SetMuted(s.currentMuted()); err != nil {
		s.emitError(ErrorEvent{Op: errmsg.OpPlaybackVolume, Err: err})
	}

	s.mu.Lock()
	if s.superseded(gen) {
		// A newer load owns the session now; release our handle.
		s.mu.Unlock()
		s.tr.Unload()
		s.loadMu.Unlock()
		return nil
	}
	s.chapter = ca
	s.timeline = tl
	s.fromQueue = false
	s.duration = res.Duration
	s.position = 0
	s.lastEmitted = 0
	s.verseNum = 1
	s.lastErr = nil
	s.setStatusLocked(StatusReady)

	s.startWatcherLocked()
	s.mu.Unlock()
	s.loadMu.Unlock()

	s.emitChapter(ChapterChange{Ref: ca.Ref, TotalVerses: ca.TotalVerses, Duration: res.Duration})
	if first, err := tl.ForNumber(1); err == nil {
		s.emitVerse(VerseChange{Verse: first, Progress: 0})
	}
	return nil
}

// superseded reports whether gen is no longer the active load.
// Callers must hold s.mu.
func (s *Session) superseded(gen uint64) bool {
	return s.loadGen != gen || s.closed
}

func (s *Session) failLoad(gen uint64, op errmsg.Op, err error) error {
	s.mu.Lock()
	if s.superseded(gen) {
		s.mu.Unlock()
		return nil
	}
	s.lastErr = err
	s.setStatusLocked(StatusError)
	s.mu.Unlock()

	s.emitError(ErrorEvent{Op: op, Err: err})
	return fmt.Errorf("%s: %w", op, err)
}

func (s *Session) currentRate() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rate
}

func (s *Session) currentVolume() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

func (s *Session) currentMuted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.muted
}

// startWatcherLocked spawns a watcher for the currently loaded chapter.
// Callers hold s.mu and must have stopped any previous watcher.
func (s *Session) startWatcherLocked() {
	stop := make(chan struct{})
	s.watchStop = stop
	go s.watch(s.loadGen, stop, s.tr.Finished())
}

func (s *Session) stopWatcherLocked() {
	if s.watchStop != nil {
		close(s.watchStop)
		s.watchStop = nil
	}
}

// watch polls the transport for position updates until stopped or the
// sound finishes. gen ties it to one loaded chapter: a watcher that
// outlives its chapter must never mutate state for the next one.
func (s *Session) watch(gen uint64, stop <-chan struct{}, finished <-chan struct{}) {
	ticker := time.NewTicker(positionPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-finished:
			s.handleCompletion(gen)
			return
		case <-ticker.C:
			if done := s.tick(gen); done {
				s.handleCompletion(gen)
				return
			}
		}
	}
}

// tick ingests one transport status sample. Returns true when a
// passage bound has been crossed, which counts as completion.
func (s *Session) tick(gen uint64) bool {
	st := s.tr.Status()

	s.mu.Lock()
	if s.superseded(gen) || s.timeline == nil {
		s.mu.Unlock()
		return false
	}
	if !st.Loaded {
		s.mu.Unlock()
		return false
	}

	s.position = st.Position
	if st.Duration > 0 {
		s.duration = st.Duration
	}

	// Buffering is a sub-state of playing.
	if st.Buffering && s.status == StatusPlaying {
		s.setStatusLocked(StatusBuffering)
	} else if !st.Buffering && s.status == StatusBuffering {
		s.setStatusLocked(StatusPlaying)
	}

	// Position only moves during playback; seeks while paused update
	// verse state on their own path.
	if !s.status.IsPlaying() {
		s.mu.Unlock()
		return false
	}

	if s.boundEnd > 0 && st.Position >= s.boundEnd {
		s.mu.Unlock()
		return true
	}

	v, progress := s.timeline.Progress(st.Position)
	verseChanged := v.Number != s.verseNum
	s.verseNum = v.Number

	delta := st.Position - s.lastEmitted
	if delta < 0 {
		delta = -delta
	}
	positionMoved := delta >= positionEmitThreshold
	if positionMoved {
		s.lastEmitted = st.Position
	}
	s.mu.Unlock()

	if verseChanged {
		s.emitVerse(VerseChange{Verse: v, Progress: progress})
	}
	if positionMoved {
		s.emitPosition(PositionChange{Position: st.Position})
	}
	return false
}

// setStatusLocked changes status and emits the transition. Must be
// called with s.mu held.
func (s *Session) setStatusLocked(next Status) {
	if s.status == next {
		return
	}
	prev := s.status
	s.status = next
	s.emitStatus(StatusChange{Previous: prev, Current: next})
}

func (s *Session) emitStatus(e StatusChange) {
	s.subsMu.RLock()
	defer s.subsMu.RUnlock()
	for _, sub := range s.subs {
		sub.sendStatus(e)
	}
}

func (s *Session) emitChapter(e ChapterChange) {
	s.subsMu.RLock()
	defer s.subsMu.RUnlock()
	for _, sub := range s.subs {
		sub.sendChapter(e)
	}
}

func (s *Session) emitVerse(e VerseChange) {
	s.subsMu.RLock()
	defer s.subsMu.RUnlock()
	for _, sub := range s.subs {
		sub.sendVerse(e)
	}
}

func (s *Session) emitPosition(e PositionChange) {
	s.subsMu.RLock()
	defer s.subsMu.RUnlock()
	for _, sub := range s.subs {
		sub.sendPosition(e)
	}
}

func (s *Session) emitQueue() {
	s.mu.Lock()
	e := QueueChange{Items: s.queue.Items(), Index: s.queue.CurrentIndex()}
	s.mu.Unlock()

	s.subsMu.RLock()
	defer s.subsMu.RUnlock()
	for _, sub := range s.subs {
		sub.sendQueue(e)
	}
}

func (s *Session) emitError(e ErrorEvent) {
	s.subsMu.RLock()
	defer s.subsMu.RUnlock()
	for _, sub := range s.subs {
		sub.sendError(e)
	}
}
