package session

// Status represents the session state machine.
//
// The machine has the following transitions:
//
//	┌──────┐  LoadChapter  ┌─────────┐   ok    ┌───────┐
//	│ Idle │ ─────────────▶│ Loading │ ───────▶│ Ready │
//	└──────┘               └─────────┘         └───────┘
//	                            │                 │ ▲
//	                       fail │            play │ │ stop
//	                            ▼                 ▼ │
//	                       ┌───────┐         ┌─────────┐
//	                       │ Error │         │ Playing │⇄ Buffering
//	                       └───────┘         └─────────┘
//	                                           │     ▲
//	                                     pause │     │ play
//	                                           ▼     │
//	                                         ┌────────┐
//	                                         │ Paused │
//	                                         └────────┘
//
// Error and Completed are reachable from any active state and stay put
// until ClearError or the next LoadChapter.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusReady
	StatusPlaying
	StatusBuffering
	StatusPaused
	StatusCompleted
	StatusError
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "Idle"
	case StatusLoading:
		return "Loading"
	case StatusReady:
		return "Ready"
	case StatusPlaying:
		return "Playing"
	case StatusBuffering:
		return "Buffering"
	case StatusPaused:
		return "Paused"
	case StatusCompleted:
		return "Completed"
	case StatusError:
		return "Error"
	default:
		return "Unknown"
	}
}

// IsLoaded returns true if a chapter is installed and navigable.
func (s Status) IsLoaded() bool {
	switch s {
	case StatusReady, StatusPlaying, StatusBuffering, StatusPaused, StatusCompleted:
		return true
	default:
		return false
	}
}

// IsPlaying returns true if audio is advancing (or stalled buffering).
func (s Status) IsPlaying() bool {
	return s == StatusPlaying || s == StatusBuffering
}

// Mode is the traversal policy in effect for a command. It is derived
// from queue occupancy on every call, never cached.
type Mode int

const (
	// ModeFlow walks the canonical book/chapter ordering.
	ModeFlow Mode = iota
	// ModeQueue walks the user-curated queue.
	ModeQueue
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeFlow:
		return "Flow"
	case ModeQueue:
		return "Queue"
	default:
		return "Unknown"
	}
}
