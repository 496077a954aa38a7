package catalog

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/lectioapp/lectio/internal/canon"
	"github.com/lectioapp/lectio/internal/verse"
)

func testChapter(bookID string, chapter int) *ChapterAudio {
	ref := canon.ChapterRef{BookID: bookID, Chapter: chapter}
	return &ChapterAudio{
		Track: AudioTrack{
			ID:        bookID + "-1-high",
			Ref:       ref,
			SourceURL: "https://audio.example.com/" + bookID + "/1.mp3",
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
	}
}

func TestAudioTrack_URI_PrefersLocal(t *testing.T) {
	track := AudioTrack{SourceURL: "https://example.com/a.mp3"}
	if track.URI() != "https://example.com/a.mp3" {
		t.Errorf("URI() = %q, want source URL", track.URI())
	}

	track.LocalPath = "/data/a.mp3"
	if track.URI() != "/data/a.mp3" {
		t.Errorf("URI() = %q, want local path", track.URI())
	}
}

func TestMemory_PutAndGet(t *testing.T) {
	m := NewMemory(nil)
	m.Put(testChapter("genesis", 1))

	ca, err := m.ChapterAudio("genesis", 1)
	if err != nil {
		t.Fatalf("ChapterAudio() error = %v", err)
	}
	if ca.TotalVerses != 3 {
		t.Errorf("TotalVerses = %d, want 3", ca.TotalVerses)
	}
}

func TestMemory_NotFound(t *testing.T) {
	m := NewMemory(nil)

	_, err := m.ChapterAudio("genesis", 1)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestMemory_Canon(t *testing.T) {
	m := NewMemory(nil)

	idx, err := m.Canon()
	if err != nil {
		t.Fatalf("Canon() error = %v", err)
	}
	if idx.Len() != 66 {
		t.Errorf("Len() = %d, want 66 (default canon)", idx.Len())
	}
}

func openTestSQLite(t *testing.T) *SQLite {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLite_ChapterRoundTrip(t *testing.T) {
	s := openTestSQLite(t)

	want := testChapter("genesis", 1)
	want.Track.LocalPath = "/data/genesis/1.mp3"
	if err := s.PutChapter(want); err != nil {
		t.Fatalf("PutChapter() error = %v", err)
	}

	got, err := s.ChapterAudio("genesis", 1)
	if err != nil {
		t.Fatalf("ChapterAudio() error = %v", err)
	}
	if got.Track.ID != want.Track.ID {
		t.Errorf("Track.ID = %q, want %q", got.Track.ID, want.Track.ID)
	}
	if got.Track.LocalPath != want.Track.LocalPath {
		t.Errorf("LocalPath = %q, want %q", got.Track.LocalPath, want.Track.LocalPath)
	}
	if got.Track.Duration != 50*time.Second {
		t.Errorf("Duration = %v, want 50s", got.Track.Duration)
	}
	if got.TotalVerses != 3 {
		t.Fatalf("TotalVerses = %d, want 3", got.TotalVerses)
	}
	if got.Verses[1].Start != 15*time.Second || got.Verses[1].End != 35*time.Second {
		t.Errorf("verse 2 interval = [%v, %v], want [15s, 35s]",
			got.Verses[1].Start, got.Verses[1].End)
	}
}

func TestSQLite_PreferQuality(t *testing.T) {
	s := openTestSQLite(t)

	high := testChapter("genesis", 1)
	if err := s.PutChapter(high); err != nil {
		t.Fatalf("PutChapter() error = %v", err)
	}
	low := testChapter("genesis", 1)
	low.Track.ID = "genesis-1-low"
	low.Track.Quality = "low"
	if err := s.PutChapter(low); err != nil {
		t.Fatalf("PutChapter() error = %v", err)
	}

	s.PreferQuality("low")
	got, err := s.ChapterAudio("genesis", 1)
	if err != nil {
		t.Fatalf("ChapterAudio() error = %v", err)
	}
	if got.Track.Quality != "low" {
		t.Errorf("Quality = %q, want %q", got.Track.Quality, "low")
	}

	// Unset preference falls back to the first variant by name.
	s.PreferQuality("")
	got, err = s.ChapterAudio("genesis", 1)
	if err != nil {
		t.Fatalf("ChapterAudio() error = %v", err)
	}
	if got.Track.Quality != "high" {
		t.Errorf("Quality = %q, want %q", got.Track.Quality, "high")
	}
}

func TestSQLite_PutChapter_RejectsInvalidTimings(t *testing.T) {
	s := openTestSQLite(t)

	ca := testChapter("genesis", 1)
	ca.Verses[1].Start = 20 * time.Second // gap after verse 1

	if err := s.PutChapter(ca); err == nil {
		t.Error("PutChapter() should reject non-contiguous timings")
	}
}

func TestSQLite_NotFound(t *testing.T) {
	s := openTestSQLite(t)

	_, err := s.ChapterAudio("genesis", 1)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestSQLite_Canon(t *testing.T) {
	s := openTestSQLite(t)

	// Empty books table falls back to the default canon
	idx, err := s.Canon()
	if err != nil {
		t.Fatalf("Canon() error = %v", err)
	}
	if idx.Len() != 66 {
		t.Errorf("Len() = %d, want 66", idx.Len())
	}

	// Stored books win over the default
	if err := s.PutBooks([]canon.Book{
		{ID: "genesis", Name: "Genesis", Order: 1, Chapters: 50},
		{ID: "exodus", Name: "Exodus", Order: 2, Chapters: 40},
	}); err != nil {
		t.Fatalf("PutBooks() error = %v", err)
	}

	idx, err = s.Canon()
	if err != nil {
		t.Fatalf("Canon() error = %v", err)
	}
	if idx.Len() != 2 {
		t.Errorf("Len() = %d, want 2", idx.Len())
	}
}
