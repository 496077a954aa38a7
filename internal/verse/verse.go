// Package verse resolves between transport positions and verse numbers
// for one chapter of narrated audio.
package verse

import (
	"fmt"
	"sort"
	"time"
)

// Timestamp is a single verse's time interval within a chapter.
// Intervals are chapter-relative, contiguous and non-overlapping.
type Timestamp struct {
	Number int
	Start  time.Duration
	End    time.Duration
	Text   string
}

// Duration returns the length of the verse interval.
func (ts Timestamp) Duration() time.Duration {
	return ts.End - ts.Start
}

// Timeline resolves positions to verses for one chapter.
// It is stateless and must be rebuilt whenever the chapter changes.
type Timeline struct {
	verses []Timestamp
}

// NewTimeline validates verse intervals and builds a timeline.
// The verses must number 1..n exactly once, sorted ascending, with
// End > Start and no gaps or overlaps between consecutive intervals.
func NewTimeline(verses []Timestamp) (*Timeline, error) {
	if len(verses) == 0 {
		return nil, fmt.Errorf("verse timeline: no verse timestamps")
	}

	sorted := make([]Timestamp, len(verses))
	copy(sorted, verses)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Number < sorted[j].Number
	})

	for i, v := range sorted {
		if v.Number != i+1 {
			return nil, fmt.Errorf("verse timeline: expected verse %d, got %d", i+1, v.Number)
		}
		if v.End <= v.Start {
			return nil, fmt.Errorf("verse %d: end %v not after start %v", v.Number, v.End, v.Start)
		}
		if i > 0 && v.Start != sorted[i-1].End {
			return nil, fmt.Errorf("verse %d: starts at %v, previous verse ends at %v",
				v.Number, v.Start, sorted[i-1].End)
		}
	}

	return &Timeline{verses: sorted}, nil
}

// Len returns the number of verses.
func (tl *Timeline) Len() int {
	return len(tl.verses)
}

// Verses returns a copy of all verse timestamps in order.
func (tl *Timeline) Verses() []Timestamp {
	result := make([]Timestamp, len(tl.verses))
	copy(result, tl.verses)
	return result
}

// At returns the verse whose [Start, End) interval contains pos.
// Positions before the first verse resolve to the first verse, and
// positions at or past the last verse's end resolve to the last verse,
// so clock drift near the chapter edges never fails the lookup.
func (tl *Timeline) At(pos time.Duration) Timestamp {
	i := sort.Search(len(tl.verses), func(i int) bool {
		return tl.verses[i].End > pos
	})
	if i >= len(tl.verses) {
		return tl.verses[len(tl.verses)-1]
	}
	return tl.verses[i]
}

// ForNumber returns the timestamp for verse n.
func (tl *Timeline) ForNumber(n int) (Timestamp, error) {
	if n < 1 || n > len(tl.verses) {
		return Timestamp{}, fmt.Errorf("verse %d out of range 1..%d", n, len(tl.verses))
	}
	return tl.verses[n-1], nil
}

// IsFirst reports whether n is the first verse.
func (tl *Timeline) IsFirst(n int) bool {
	return n == 1
}

// IsLast reports whether n is the last verse.
func (tl *Timeline) IsLast(n int) bool {
	return n == len(tl.verses)
}

// Progress resolves pos to a verse and the fraction of that verse
// already played, clamped to [0, 1].
func (tl *Timeline) Progress(pos time.Duration) (Timestamp, float64) {
	v := tl.At(pos)
	d := v.Duration()
	if d <= 0 {
		return v, 0
	}
	frac := float64(pos-v.Start) / float64(d)
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	return v, frac
}
