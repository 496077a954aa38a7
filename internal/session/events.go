package session

import (
	"time"

	"github.com/lectioapp/lectio/internal/canon"
	"github.com/lectioapp/lectio/internal/errmsg"
	"github.com/lectioapp/lectio/internal/queue"
	"github.com/lectioapp/lectio/internal/verse"
)

// StatusChange is emitted when the session status changes.
type StatusChange struct {
	Previous Status
	Current  Status
}

// ChapterChange is emitted when a new chapter is installed.
//
// Emitted only after a successful load: a superseded or failed
// LoadChapter never fires it, so subscribers can key side effects
// (highlight reset, prefetch of the following chapter) off this event
// without guarding against stale loads themselves.
type ChapterChange struct {
	Ref         canon.ChapterRef
	TotalVerses int
	Duration    time.Duration
}

// VerseChange is emitted when the resolved verse changes, whether from
// playback progress or explicit navigation.
type VerseChange struct {
	Verse    verse.Timestamp
	Progress float64
}

// PositionChange is emitted on seeks and on playback progress, rate
// limited by the position threshold.
type PositionChange struct {
	Position time.Duration
}

// QueueChange is emitted when queue contents or position change.
type QueueChange struct {
	Items []queue.Item
	Index int
}

// ErrorEvent is emitted when a command or the position watcher fails.
type ErrorEvent struct {
	Op  errmsg.Op
	Err error
}
