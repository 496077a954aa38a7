package errmsg

import (
	"errors"
	"testing"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		op       Op
		err      error
		expected string
	}{
		{
			name:     "nil error returns empty string",
			op:       OpChapterLoad,
			err:      nil,
			expected: "",
		},
		{
			name:     "chapter load operation",
			op:       OpChapterLoad,
			err:      errors.New("chapter audio not found"),
			expected: "Failed to load chapter audio: chapter audio not found",
		},
		{
			name:     "playback operation",
			op:       OpPlaybackStart,
			err:      errors.New("no audio device"),
			expected: "Failed to start playback: no audio device",
		},
		{
			name:     "verse navigation operation",
			op:       OpVerseJump,
			err:      errors.New("verse 10 out of range 1..5"),
			expected: "Failed to jump to verse: verse 10 out of range 1..5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Format(tt.op, tt.err)
			if result != tt.expected {
				t.Errorf("Format(%q, %v) = %q, want %q", tt.op, tt.err, result, tt.expected)
			}
		})
	}
}

func TestFormatWith(t *testing.T) {
	err := errors.New("decode failed")

	got := FormatWith(OpChapterLoad, "genesis 1", err)
	want := "Failed to load chapter audio 'genesis 1': decode failed"
	if got != want {
		t.Errorf("FormatWith() = %q, want %q", got, want)
	}

	if FormatWith(OpChapterLoad, "genesis 1", nil) != "" {
		t.Error("FormatWith with nil error should return empty string")
	}

	// Empty context falls back to Format
	if got := FormatWith(OpChapterLoad, "", err); got != Format(OpChapterLoad, err) {
		t.Errorf("FormatWith with empty context = %q", got)
	}
}
