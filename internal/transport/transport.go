// Package transport wraps a single audio output handle behind uniform
// playback primitives.
package transport

import (
	"errors"
	"time"

	"github.com/lectioapp/lectio/internal/catalog"
)

// ErrNoSound is returned by commands that require a loaded sound.
var ErrNoSound = errors.New("no sound loaded")

// Rate and volume bounds enforced by all implementations.
const (
	MinRate   = 0.5
	MaxRate   = 2.0
	MinVolume = 0.0
	MaxVolume = 1.0
)

// DefaultSkipDelta is the skip distance used when none is given.
const DefaultSkipDelta = 10 * time.Second

// Status is the normalized transport status record. The zero value is
// the "unloaded" status.
type Status struct {
	Loaded    bool
	Playing   bool
	Buffering bool
	Position  time.Duration
	Duration  time.Duration
	Rate      float64
	Volume    float64
	Muted     bool
}

// LoadResult reports the outcome of loading a track. Load failures are
// carried here rather than returned, so callers can render a retry
// affordance without special-casing.
type LoadResult struct {
	Loaded   bool
	Duration time.Duration
	Err      error
}

// Interface is the transport contract. Implementations are not
// reentrant-safe across commands; callers must finish one command
// before issuing the next.
type Interface interface {
	// Load prepares a track for playback without starting it.
	// Any previously loaded sound is released first.
	Load(track catalog.AudioTrack) LoadResult

	Play() (Status, error)
	Pause() (Status, error)

	// Stop pauses and rewinds to the start.
	Stop() (Status, error)

	// SeekTo clamps pos to [0, duration] using the live status
	// duration, then seeks.
	SeekTo(pos time.Duration) (Status, error)

	// SetRate clamps to [MinRate, MaxRate] with pitch correction.
	SetRate(rate float64) (Status, error)

	// SetVolume clamps to [MinVolume, MaxVolume].
	SetVolume(level float64) (Status, error)

	SetMuted(muted bool) (Status, error)

	// Status never fails; it returns the zero status when nothing is
	// loaded or the underlying query cannot be served.
	Status() Status

	// Unload releases the current sound. It never fails: cleanup
	// problems must not block teardown.
	Unload()

	// Finished yields once per loaded sound, when playback reaches
	// the end. The channel is replaced on every Load.
	Finished() <-chan struct{}
}

// SkipForward seeks delta ahead of the current position, clamped to the
// sound's duration. A non-positive delta uses DefaultSkipDelta.
// Defined purely in terms of Status and SeekTo.
func SkipForward(t Interface, delta time.Duration) (Status, error) {
	if delta <= 0 {
		delta = DefaultSkipDelta
	}
	st := t.Status()
	if !st.Loaded {
		return st, ErrNoSound
	}
	return t.SeekTo(st.Position + delta)
}

// SkipBackward seeks delta behind the current position, clamped to 0.
func SkipBackward(t Interface, delta time.Duration) (Status, error) {
	if delta <= 0 {
		delta = DefaultSkipDelta
	}
	st := t.Status()
	if !st.Loaded {
		return st, ErrNoSound
	}
	return t.SeekTo(st.Position - delta)
}

// ClampRate clamps a playback rate to the supported range.
func ClampRate(rate float64) float64 {
	if rate < MinRate {
		return MinRate
	}
	if rate > MaxRate {
		return MaxRate
	}
	return rate
}

// ClampVolume clamps a volume level to the supported range.
func ClampVolume(level float64) float64 {
	if level < MinVolume {
		return MinVolume
	}
	if level > MaxVolume {
		return MaxVolume
	}
	return level
}
