package session

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/lectioapp/lectio/internal/canon"
	"github.com/lectioapp/lectio/internal/catalog"
	"github.com/lectioapp/lectio/internal/transport"
	"github.com/lectioapp/lectio/internal/verse"
)

func seedChapter(m *catalog.Memory, bookID string, chapter int) {
	ref := canon.ChapterRef{BookID: bookID, Chapter: chapter}
	m.Put(&catalog.ChapterAudio{
		Track: catalog.AudioTrack{
			ID:        ref.String(),
			Ref:       ref,
			LocalPath: "/audio/" + ref.String() + ".mp3",
			Duration:  50 * time.Second,
			Quality:   "high",
			Format:    "mp3",
		},
		Verses: []verse.Timestamp{
			{Number: 1, Start: 0, End: 15 * time.Second},
			{Number: 2, Start: 15 * time.Second, End: 35 * time.Second},
			{Number: 3, Start: 35 * time.Second, End: 50 * time.Second},
		},
		TotalVerses: 3,
		Ref:         ref,
	})
}

func newTestSession(t *testing.T, chapters ...canon.ChapterRef) (*Session, *transport.Mock) {
	t.Helper()
	m := catalog.NewMemory(nil)
	for _, ref := range chapters {
		seedChapter(m, ref.BookID, ref.Chapter)
	}
	tr := transport.NewMock()
	s, err := New(m, tr)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, tr
}

func loadGenesis1(t *testing.T, s *Session) {
	t.Helper()
	if err := s.LoadChapter("genesis", 1); err != nil {
		t.Fatalf("LoadChapter() error = %v", err)
	}
}

// waitFor polls cond until it holds or the deadline passes. Used for
// behavior driven by the position watcher goroutine.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func gen(ch int) canon.ChapterRef {
	return canon.ChapterRef{BookID: "genesis", Chapter: ch}
}

func TestNew_InitialSnapshot(t *testing.T) {
	s, _ := newTestSession(t)

	snap := s.Snapshot()

	if snap.Status != StatusIdle {
		t.Errorf("Status = %v, want Idle", snap.Status)
	}
	if snap.Mode != ModeFlow {
		t.Errorf("Mode = %v, want Flow", snap.Mode)
	}
	if snap.Rate != 1.0 || snap.Volume != 1.0 {
		t.Errorf("Rate = %v, Volume = %v, want 1.0, 1.0", snap.Rate, snap.Volume)
	}
}

func TestLoadChapter_Success(t *testing.T) {
	s, tr := newTestSession(t, gen(1))

	loadGenesis1(t, s)

	snap := s.Snapshot()
	if snap.Status != StatusReady {
		t.Errorf("Status = %v, want Ready", snap.Status)
	}
	if snap.Ref != gen(1) {
		t.Errorf("Ref = %v, want genesis 1", snap.Ref)
	}
	if snap.TotalVerses != 3 {
		t.Errorf("TotalVerses = %d, want 3", snap.TotalVerses)
	}
	if snap.Verse != 1 {
		t.Errorf("Verse = %d, want 1", snap.Verse)
	}
	if snap.CanPreviousVerse {
		t.Error("CanPreviousVerse should be false at verse 1")
	}
	if !snap.CanNextVerse {
		t.Error("CanNextVerse should be true with 3 verses")
	}
	if snap.BookName != "Genesis" {
		t.Errorf("BookName = %q, want Genesis", snap.BookName)
	}
	if len(tr.LoadCalls()) != 1 {
		t.Errorf("transport loads = %d, want 1", len(tr.LoadCalls()))
	}
}

func TestLoadChapter_UnloadsPrevious(t *testing.T) {
	s, tr := newTestSession(t, gen(1), gen(2))

	loadGenesis1(t, s)
	if err := s.LoadChapter("genesis", 2); err != nil {
		t.Fatalf("LoadChapter() error = %v", err)
	}

	if tr.UnloadCount() < 2 {
		t.Errorf("unloads = %d, want at least 2 (one per load)", tr.UnloadCount())
	}
	if s.Snapshot().Ref != gen(2) {
		t.Errorf("Ref = %v, want genesis 2", s.Snapshot().Ref)
	}
}

func TestLoadChapter_NotFound(t *testing.T) {
	s, tr := newTestSession(t) // empty catalog

	err := s.LoadChapter("genesis", 1)

	if !errors.Is(err, catalog.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
	snap := s.Snapshot()
	if snap.Status != StatusError {
		t.Errorf("Status = %v, want Error", snap.Status)
	}
	if snap.Err == nil {
		t.Error("Err should be stored on the snapshot")
	}
	if len(tr.LoadCalls()) != 0 {
		t.Error("transport should not be loaded on a missing chapter")
	}
}

func TestLoadChapter_TransportFailure(t *testing.T) {
	s, tr := newTestSession(t, gen(1))
	loadErr := errors.New("codec not supported")
	tr.SetLoadError(loadErr)

	err := s.LoadChapter("genesis", 1)

	if !errors.Is(err, loadErr) {
		t.Fatalf("error = %v, want wrapped load error", err)
	}
	if s.Snapshot().Status != StatusError {
		t.Errorf("Status = %v, want Error", s.Snapshot().Status)
	}

	// Retry works once the transport recovers.
	tr.SetLoadError(nil)
	if err := s.LoadChapter("genesis", 1); err != nil {
		t.Fatalf("retry error = %v", err)
	}
	if s.Snapshot().Status != StatusReady {
		t.Errorf("Status after retry = %v, want Ready", s.Snapshot().Status)
	}
}

func TestLoadChapter_SettingsFailureReported(t *testing.T) {
	s, tr := newTestSession(t, gen(1))
	sub := s.Subscribe()
	cmdErr := errors.New("device busy")
	tr.SetCommandError(cmdErr)

	// Re-applying rate and volume on the fresh handle fails, but the
	// load itself still completes.
	if err := s.LoadChapter("genesis", 1); err != nil {
		t.Fatalf("LoadChapter() error = %v", err)
	}
	if got := s.Snapshot().Status; got != StatusReady {
		t.Fatalf("Status = %v, want Ready", got)
	}

	select {
	case ev := <-sub.Error:
		if !errors.Is(ev.Err, cmdErr) {
			t.Errorf("ErrorEvent.Err = %v, want %v", ev.Err, cmdErr)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no error event for failed settings re-apply")
	}
}

func TestLoadChapter_Concurrent(t *testing.T) {
	s, _ := newTestSession(t, gen(1), gen(2), gen(3))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = s.LoadChapter("genesis", 1+(n+j)%3)
			}
		}(i)
	}
	wg.Wait()

	snap := s.Snapshot()
	if snap.Status != StatusReady {
		t.Errorf("Status = %v, want Ready after concurrent loads", snap.Status)
	}
	if snap.Ref.BookID != "genesis" {
		t.Errorf("Ref = %v, want a genesis chapter", snap.Ref)
	}
}

func TestPlayPauseStop(t *testing.T) {
	s, _ := newTestSession(t, gen(1))
	loadGenesis1(t, s)

	if err := s.Play(); err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	if s.Snapshot().Status != StatusPlaying {
		t.Errorf("Status = %v, want Playing", s.Snapshot().Status)
	}

	if err := s.Pause(); err != nil {
		t.Fatalf("Pause() error = %v", err)
	}
	if s.Snapshot().Status != StatusPaused {
		t.Errorf("Status = %v, want Paused", s.Snapshot().Status)
	}

	if err := s.SeekTo(20 * time.Second); err != nil {
		t.Fatalf("SeekTo() error = %v", err)
	}
	if err := s.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	snap := s.Snapshot()
	if snap.Status != StatusReady {
		t.Errorf("Status = %v, want Ready", snap.Status)
	}
	if snap.Position != 0 {
		t.Errorf("Position = %v, want 0", snap.Position)
	}
	if snap.Verse != 0 {
		t.Errorf("Verse = %d, want 0 (highlight cleared)", snap.Verse)
	}
}

func TestPlay_NothingLoaded(t *testing.T) {
	s, _ := newTestSession(t)

	if err := s.Play(); err == nil {
		t.Fatal("Play() without a chapter should fail")
	}
	// Command rejection does not move the session into Error status.
	if s.Snapshot().Status != StatusIdle {
		t.Errorf("Status = %v, want Idle", s.Snapshot().Status)
	}
}

func TestTransportFailure_RetainsPosition(t *testing.T) {
	s, tr := newTestSession(t, gen(1))
	loadGenesis1(t, s)
	if err := s.SeekTo(20 * time.Second); err != nil {
		t.Fatalf("SeekTo() error = %v", err)
	}

	cmdErr := errors.New("device output unavailable")
	tr.SetCommandError(cmdErr)

	err := s.Play()
	if !errors.Is(err, cmdErr) {
		t.Fatalf("error = %v, want wrapped transport error", err)
	}

	snap := s.Snapshot()
	if snap.Status != StatusError {
		t.Errorf("Status = %v, want Error", snap.Status)
	}
	if snap.Position != 20*time.Second {
		t.Errorf("Position = %v, want 20s (last good retained)", snap.Position)
	}
	if snap.Duration != 50*time.Second {
		t.Errorf("Duration = %v, want 50s (last good retained)", snap.Duration)
	}
}

func TestClearError(t *testing.T) {
	s, tr := newTestSession(t, gen(1))
	loadGenesis1(t, s)
	tr.SetCommandError(errors.New("boom"))
	_ = s.Play()
	tr.SetCommandError(nil)

	s.ClearError()

	snap := s.Snapshot()
	if snap.Err != nil {
		t.Errorf("Err = %v, want nil", snap.Err)
	}
	if snap.Status != StatusReady {
		t.Errorf("Status = %v, want Ready (chapter still loaded)", snap.Status)
	}
}

func TestSkipForward_Scenario(t *testing.T) {
	s, tr := newTestSession(t, gen(1))
	loadGenesis1(t, s)
	tr.SetDuration(300 * time.Second)
	tr.SetPosition(30 * time.Second)

	if err := s.SkipForward(0); err != nil {
		t.Fatalf("SkipForward() error = %v", err)
	}
	if got := s.Snapshot().Position; got != 40*time.Second {
		t.Errorf("Position = %v, want 40s", got)
	}

	tr.SetPosition(295 * time.Second)
	if err := s.SkipForward(0); err != nil {
		t.Fatalf("SkipForward() near end error = %v", err)
	}
	if got := s.Snapshot().Position; got != 300*time.Second {
		t.Errorf("Position = %v, want 300s (clamped)", got)
	}
}

func TestSetPlaybackRate_Clamped(t *testing.T) {
	s, _ := newTestSession(t, gen(1))
	loadGenesis1(t, s)

	tests := []struct {
		rate float64
		want float64
	}{
		{3.5, 2.0},
		{0.1, 0.5},
		{1.25, 1.25},
	}
	for _, tt := range tests {
		if err := s.SetPlaybackRate(tt.rate); err != nil {
			t.Fatalf("SetPlaybackRate(%v) error = %v", tt.rate, err)
		}
		if got := s.Snapshot().Rate; got != tt.want {
			t.Errorf("Rate after SetPlaybackRate(%v) = %v, want %v", tt.rate, got, tt.want)
		}
	}
}

func TestSetVolume_Clamped(t *testing.T) {
	s, _ := newTestSession(t, gen(1))
	loadGenesis1(t, s)

	if err := s.SetVolume(1.8); err != nil {
		t.Fatalf("SetVolume() error = %v", err)
	}
	if got := s.Snapshot().Volume; got != 1.0 {
		t.Errorf("Volume = %v, want 1.0", got)
	}

	if err := s.SetVolume(-0.2); err != nil {
		t.Fatalf("SetVolume() error = %v", err)
	}
	if got := s.Snapshot().Volume; got != 0.0 {
		t.Errorf("Volume = %v, want 0.0", got)
	}
}

func TestSetMuted(t *testing.T) {
	s, _ := newTestSession(t, gen(1))
	loadGenesis1(t, s)

	if err := s.SetMuted(true); err != nil {
		t.Fatalf("SetMuted() error = %v", err)
	}
	if !s.Snapshot().Muted {
		t.Error("Muted should be true")
	}
	if err := s.SetMuted(false); err != nil {
		t.Fatalf("SetMuted() error = %v", err)
	}
	if s.Snapshot().Muted {
		t.Error("Muted should be false")
	}
}

func TestSessionSettings_SurviveChapterChange(t *testing.T) {
	s, _ := newTestSession(t, gen(1), gen(2))
	loadGenesis1(t, s)
	if err := s.SetPlaybackRate(1.5); err != nil {
		t.Fatal(err)
	}
	if err := s.SetVolume(0.3); err != nil {
		t.Fatal(err)
	}

	if err := s.LoadChapter("genesis", 2); err != nil {
		t.Fatalf("LoadChapter() error = %v", err)
	}

	snap := s.Snapshot()
	if snap.Rate != 1.5 {
		t.Errorf("Rate = %v, want 1.5", snap.Rate)
	}
	if snap.Volume != 0.3 {
		t.Errorf("Volume = %v, want 0.3", snap.Volume)
	}
}

func TestClose_Idempotent(t *testing.T) {
	s, _ := newTestSession(t, gen(1))
	loadGenesis1(t, s)

	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}

	if err := s.LoadChapter("genesis", 1); err == nil {
		t.Error("LoadChapter() after Close should fail")
	} else if !strings.Contains(err.Error(), "closed") {
		t.Errorf("error = %v, want mention of closed session", err)
	}
}
