package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadManifest(t *testing.T) {
	content := `[[books]]
id = "genesis"
name = "Genesis"
order = 1
chapters = 50

[[chapters]]
book = "genesis"
chapter = 1
audio = "/audio/genesis-001.mp3"
quality = "high"
format = "mp3"
duration = 50.0

[[chapters.verses]]
number = 1
start = 0.0
end = 15.0
text = "In the beginning"

[[chapters.verses]]
number = 2
start = 15.0
end = 35.0
`
	path := filepath.Join(t.TempDir(), "manifest.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	m, err := loadManifest(path)
	if err != nil {
		t.Fatalf("loadManifest() error = %v", err)
	}

	if len(m.Books) != 1 || m.Books[0].ID != "genesis" || m.Books[0].Chapters != 50 {
		t.Errorf("books = %+v, want one genesis entry", m.Books)
	}
	if len(m.Chapters) != 1 {
		t.Fatalf("chapters = %d, want 1", len(m.Chapters))
	}

	ca, err := m.Chapters[0].toChapterAudio()
	if err != nil {
		t.Fatalf("toChapterAudio() error = %v", err)
	}
	if ca.Ref.BookID != "genesis" || ca.Ref.Chapter != 1 {
		t.Errorf("Ref = %v, want genesis 1", ca.Ref)
	}
	if ca.Track.LocalPath != "/audio/genesis-001.mp3" {
		t.Errorf("LocalPath = %q", ca.Track.LocalPath)
	}
	if ca.Track.Duration != 50*time.Second {
		t.Errorf("Duration = %v, want 50s", ca.Track.Duration)
	}
	if len(ca.Verses) != 2 {
		t.Fatalf("verses = %d, want 2", len(ca.Verses))
	}
	if ca.Verses[1].Start != 15*time.Second || ca.Verses[1].End != 35*time.Second {
		t.Errorf("verse 2 = %v..%v, want 15s..35s", ca.Verses[1].Start, ca.Verses[1].End)
	}
	if ca.TotalVerses != 2 {
		t.Errorf("TotalVerses = %d, want 2", ca.TotalVerses)
	}
}

func TestToChapterAudio_Validation(t *testing.T) {
	tests := []struct {
		name  string
		entry ChapterEntry
	}{
		{"missing book", ChapterEntry{Chapter: 1, Audio: "/a.mp3"}},
		{"zero chapter", ChapterEntry{Book: "genesis", Audio: "/a.mp3"}},
		{"no source", ChapterEntry{Book: "genesis", Chapter: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.entry.toChapterAudio(); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestToChapterAudio_DefaultsQuality(t *testing.T) {
	entry := ChapterEntry{Book: "genesis", Chapter: 1, URL: "https://example.org/gen1.mp3"}

	ca, err := entry.toChapterAudio()
	if err != nil {
		t.Fatalf("toChapterAudio() error = %v", err)
	}
	if ca.Track.Quality != "high" {
		t.Errorf("Quality = %q, want high", ca.Track.Quality)
	}
	if ca.Track.URI() != "https://example.org/gen1.mp3" {
		t.Errorf("URI = %q", ca.Track.URI())
	}
}
