package transport

import (
	"sync"
	"time"

	"github.com/lectioapp/lectio/internal/catalog"
)

// Mock is a test double for the transport. Safe for concurrent use so
// tests can mutate it while a position watcher polls.
type Mock struct {
	mu         sync.Mutex
	status     Status
	loadErr    error
	cmdErr     error
	loadCalls  []catalog.AudioTrack
	seekCalls  []time.Duration
	unloads    int
	finishedCh chan struct{}
}

// NewMock creates a mock transport in the unloaded state.
func NewMock() *Mock {
	return &Mock{
		status:     Status{Rate: 1.0, Volume: 1.0},
		finishedCh: make(chan struct{}, 1),
	}
}

func (m *Mock) Load(track catalog.AudioTrack) LoadResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadCalls = append(m.loadCalls, track)
	if m.loadErr != nil {
		return LoadResult{Err: m.loadErr}
	}
	m.finishedCh = make(chan struct{}, 1)
	m.status.Loaded = true
	m.status.Playing = false
	m.status.Position = 0
	m.status.Duration = track.Duration
	return LoadResult{Loaded: true, Duration: track.Duration}
}

func (m *Mock) Play() (Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.status.Loaded {
		return m.status, ErrNoSound
	}
	if m.cmdErr != nil {
		return m.status, m.cmdErr
	}
	m.status.Playing = true
	return m.status, nil
}

func (m *Mock) Pause() (Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.status.Loaded {
		return m.status, ErrNoSound
	}
	if m.cmdErr != nil {
		return m.status, m.cmdErr
	}
	m.status.Playing = false
	return m.status, nil
}

func (m *Mock) Stop() (Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.status.Loaded {
		return m.status, ErrNoSound
	}
	if m.cmdErr != nil {
		return m.status, m.cmdErr
	}
	m.status.Playing = false
	m.status.Position = 0
	return m.status, nil
}

func (m *Mock) SeekTo(pos time.Duration) (Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.status.Loaded {
		return m.status, ErrNoSound
	}
	if m.cmdErr != nil {
		return m.status, m.cmdErr
	}
	m.seekCalls = append(m.seekCalls, pos)
	if pos < 0 {
		pos = 0
	}
	if pos > m.status.Duration {
		pos = m.status.Duration
	}
	m.status.Position = pos
	return m.status, nil
}

func (m *Mock) SetRate(rate float64) (Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cmdErr != nil {
		return m.status, m.cmdErr
	}
	m.status.Rate = ClampRate(rate)
	return m.status, nil
}

func (m *Mock) SetVolume(level float64) (Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cmdErr != nil {
		return m.status, m.cmdErr
	}
	m.status.Volume = ClampVolume(level)
	return m.status, nil
}

func (m *Mock) SetMuted(muted bool) (Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cmdErr != nil {
		return m.status, m.cmdErr
	}
	m.status.Muted = muted
	return m.status, nil
}

func (m *Mock) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.status.Loaded {
		return Status{}
	}
	return m.status
}

func (m *Mock) Unload() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unloads++
	m.status = Status{Rate: m.status.Rate, Volume: m.status.Volume}
}

func (m *Mock) Finished() <-chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.finishedCh
}

// Test helpers

func (m *Mock) SetPosition(pos time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status.Position = pos
}

func (m *Mock) SetDuration(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status.Duration = d
}

func (m *Mock) SetBuffering(b bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status.Buffering = b
}

func (m *Mock) SetLoadError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadErr = err
}

func (m *Mock) SetCommandError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cmdErr = err
}

func (m *Mock) LoadCalls() []catalog.AudioTrack {
	m.mu.Lock()
	defer m.mu.Unlock()
	calls := make([]catalog.AudioTrack, len(m.loadCalls))
	copy(calls, m.loadCalls)
	return calls
}

func (m *Mock) SeekCalls() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	calls := make([]time.Duration, len(m.seekCalls))
	copy(calls, m.seekCalls)
	return calls
}

func (m *Mock) UnloadCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.unloads
}

// SimulateFinished signals end of playback for the loaded sound.
func (m *Mock) SimulateFinished() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status.Position = m.status.Duration
	m.status.Playing = false
	select {
	case m.finishedCh <- struct{}{}:
	default:
	}
}

// Verify Mock implements Interface at compile time.
var _ Interface = (*Mock)(nil)
