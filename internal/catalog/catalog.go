// Package catalog resolves book/chapter references to narrated audio
// tracks and their verse timings.
package catalog

import (
	"errors"
	"time"

	"github.com/lectioapp/lectio/internal/canon"
	"github.com/lectioapp/lectio/internal/verse"
)

// ErrNotFound is returned when no audio exists for a chapter.
var ErrNotFound = errors.New("chapter audio not found")

// AudioTrack describes one chapter's audio source.
// Immutable once loaded. LocalPath takes priority over SourceURL when
// present, so downloaded content plays without a network.
type AudioTrack struct {
	ID        string
	Ref       canon.ChapterRef
	SourceURL string
	LocalPath string
	Duration  time.Duration
	Quality   string // e.g. "high", "low"
	Format    string // e.g. "mp3", "flac"
}

// URI returns the playable source, preferring the local copy.
func (t AudioTrack) URI() string {
	if t.LocalPath != "" {
		return t.LocalPath
	}
	return t.SourceURL
}

// ChapterAudio bundles a track with its verse timings.
type ChapterAudio struct {
	Track       AudioTrack
	Verses      []verse.Timestamp
	TotalVerses int
	Ref         canon.ChapterRef
}

// Timeline builds the verse timeline for this chapter, validating the
// timestamp invariants.
func (c *ChapterAudio) Timeline() (*verse.Timeline, error) {
	return verse.NewTimeline(c.Verses)
}

// Provider resolves chapter references to audio and supplies the
// canonical book ordering.
type Provider interface {
	// ChapterAudio returns the audio for one chapter, or ErrNotFound.
	ChapterAudio(bookID string, chapter int) (*ChapterAudio, error)

	// Canon returns the ordered book catalog.
	Canon() (*canon.Index, error)
}
