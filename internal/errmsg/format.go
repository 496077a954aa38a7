// Package errmsg provides consistent error formatting for user-facing messages.
package errmsg

import "fmt"

// Op represents an operation that can fail.
type Op string

// Operation constants - grouped by domain.
const (
	// Catalog operations
	OpCatalogOpen  Op = "open audio catalog"
	OpChapterLoad  Op = "load chapter audio"
	OpCanonLoad    Op = "load book catalog"
	OpChapterStore Op = "store chapter audio"

	// Playback operations
	OpPlaybackStart  Op = "start playback"
	OpPlaybackPause  Op = "pause playback"
	OpPlaybackStop   Op = "stop playback"
	OpPlaybackSeek   Op = "seek"
	OpPlaybackRate   Op = "set playback rate"
	OpPlaybackVolume Op = "set volume"

	// Navigation operations
	OpVerseJump       Op = "jump to verse"
	OpChapterAdvance  Op = "advance chapter"
	OpChapterPrevious Op = "go to previous chapter"

	// Queue operations
	OpQueueAdd     Op = "add to queue"
	OpQueueRemove  Op = "remove from queue"
	OpQueueReorder Op = "reorder queue"

	// Initialization
	OpInitialize Op = "initialize player"
)

// Format creates a user-friendly error message.
func Format(op Op, err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Failed to %s: %v", op, err)
}

// FormatWith creates an error message with additional context.
func FormatWith(op Op, context string, err error) string {
	if err == nil {
		return ""
	}
	if context == "" {
		return Format(op, err)
	}
	return fmt.Sprintf("Failed to %s '%s': %v", op, context, err)
}
