package session

import (
	"fmt"
	"time"

	"github.com/lectioapp/lectio/internal/errmsg"
	"github.com/lectioapp/lectio/internal/transport"
)

// Play starts or resumes playback of the loaded chapter.
func (s *Session) Play() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.status.IsLoaded() {
		return s.commandErrLocked(errmsg.OpPlaybackStart, fmt.Errorf("no chapter loaded"))
	}
	st, err := s.tr.Play()
	if err != nil {
		return s.transportErrLocked(errmsg.OpPlaybackStart, st, err)
	}
	s.position = st.Position
	s.setStatusLocked(StatusPlaying)
	// Completion parks the session without a watcher; playing again
	// needs one to track position and the next completion.
	if s.watchStop == nil && s.timeline != nil {
		s.startWatcherLocked()
	}
	return nil
}

// Pause pauses playback, keeping position.
func (s *Session) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.status.IsLoaded() {
		return s.commandErrLocked(errmsg.OpPlaybackPause, fmt.Errorf("no chapter loaded"))
	}
	st, err := s.tr.Pause()
	if err != nil {
		return s.transportErrLocked(errmsg.OpPlaybackPause, st, err)
	}
	s.position = st.Position
	s.setStatusLocked(StatusPaused)
	return nil
}

// Toggle switches between playing and paused.
func (s *Session) Toggle() error {
	s.mu.Lock()
	playing := s.status.IsPlaying()
	s.mu.Unlock()
	if playing {
		return s.Pause()
	}
	return s.Play()
}

// Stop halts playback, rewinds to the chapter start and clears the
// verse highlight.
func (s *Session) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.status.IsLoaded() {
		return s.commandErrLocked(errmsg.OpPlaybackStop, fmt.Errorf("no chapter loaded"))
	}
	st, err := s.tr.Stop()
	if err != nil {
		return s.transportErrLocked(errmsg.OpPlaybackStop, st, err)
	}
	s.position = 0
	s.lastEmitted = 0
	s.verseNum = 0
	s.setStatusLocked(StatusReady)
	return nil
}

// SeekTo moves to an absolute position, clamped by the transport to
// the sound's real duration.
func (s *Session) SeekTo(pos time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seekLocked(pos)
}

// SkipForward jumps ahead by delta (default 10s).
func (s *Session) SkipForward(delta time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := transport.SkipForward(s.tr, delta)
	if err != nil {
		return s.transportErrLocked(errmsg.OpPlaybackSeek, st, err)
	}
	s.afterSeekLocked(st.Position)
	return nil
}

// SkipBackward jumps back by delta (default 10s).
func (s *Session) SkipBackward(delta time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := transport.SkipBackward(s.tr, delta)
	if err != nil {
		return s.transportErrLocked(errmsg.OpPlaybackSeek, st, err)
	}
	s.afterSeekLocked(st.Position)
	return nil
}

// SetPlaybackRate sets the playback speed, clamped to [0.5, 2.0].
func (s *Session) SetPlaybackRate(rate float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.tr.SetRate(rate)
	if err != nil {
		return s.transportErrLocked(errmsg.OpPlaybackRate, st, err)
	}
	s.rate = transport.ClampRate(rate)
	return nil
}

// SetVolume sets the output level, clamped to [0.0, 1.0].
func (s *Session) SetVolume(level float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.tr.SetVolume(level)
	if err != nil {
		return s.transportErrLocked(errmsg.OpPlaybackVolume, st, err)
	}
	s.volume = transport.ClampVolume(level)
	return nil
}

// SetMuted mutes or unmutes without losing the stored level.
func (s *Session) SetMuted(muted bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.tr.SetMuted(muted)
	if err != nil {
		return s.transportErrLocked(errmsg.OpPlaybackVolume, st, err)
	}
	s.muted = muted
	return nil
}

// ClearError clears the stored error. An errored session returns to
// Ready if a chapter is still loaded, otherwise to Idle.
func (s *Session) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = nil
	if s.status != StatusError {
		return
	}
	if s.timeline != nil {
		s.setStatusLocked(StatusReady)
	} else {
		s.setStatusLocked(StatusIdle)
	}
}

// seekLocked forwards a seek to the transport and updates derived
// state. Must be called with s.mu held.
func (s *Session) seekLocked(pos time.Duration) error {
	st, err := s.tr.SeekTo(pos)
	if err != nil {
		return s.transportErrLocked(errmsg.OpPlaybackSeek, st, err)
	}
	s.afterSeekLocked(st.Position)
	return nil
}

// afterSeekLocked updates position and verse state after a successful
// seek and emits the corresponding events.
func (s *Session) afterSeekLocked(pos time.Duration) {
	s.position = pos
	s.lastEmitted = pos
	var change *VerseChange
	if s.timeline != nil {
		v, progress := s.timeline.Progress(pos)
		if v.Number != s.verseNum {
			s.verseNum = v.Number
			change = &VerseChange{Verse: v, Progress: progress}
		}
	}
	if change != nil {
		s.emitVerse(*change)
	}
	s.emitPosition(PositionChange{Position: pos})
}

// transportErrLocked records a transport failure. Position and
// duration keep their last-good values so the UI can still show where
// playback stopped.
func (s *Session) transportErrLocked(op errmsg.Op, _ transport.Status, err error) error {
	s.lastErr = err
	s.setStatusLocked(StatusError)
	s.emitError(ErrorEvent{Op: op, Err: err})
	return fmt.Errorf("%s: %w", op, err)
}

// commandErrLocked rejects a command without touching transport state.
func (s *Session) commandErrLocked(op errmsg.Op, err error) error {
	s.lastErr = err
	s.emitError(ErrorEvent{Op: op, Err: err})
	return fmt.Errorf("%s: %w", op, err)
}
