package main

import (
	"fmt"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/lectioapp/lectio/internal/canon"
	"github.com/lectioapp/lectio/internal/catalog"
	"github.com/lectioapp/lectio/internal/db"
	"github.com/lectioapp/lectio/internal/verse"
)

// Manifest describes books and chapter audio to import. Durations are
// given in seconds.
type Manifest struct {
	Books    []BookEntry    `koanf:"books"`
	Chapters []ChapterEntry `koanf:"chapters"`
}

type BookEntry struct {
	ID       string `koanf:"id"`
	Name     string `koanf:"name"`
	Order    int    `koanf:"order"`
	Chapters int    `koanf:"chapters"`
}

type ChapterEntry struct {
	Book     string       `koanf:"book"`
	Chapter  int          `koanf:"chapter"`
	Audio    string       `koanf:"audio"` // local file path
	URL      string       `koanf:"url"`   // remote source
	Quality  string       `koanf:"quality"`
	Format   string       `koanf:"format"`
	Duration float64      `koanf:"duration"`
	Verses   []VerseEntry `koanf:"verses"`
}

type VerseEntry struct {
	Number int     `koanf:"number"`
	Start  float64 `koanf:"start"`
	End    float64 `koanf:"end"`
	Text   string  `koanf:"text"`
}

func loadManifest(path string) (*Manifest, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
		return nil, err
	}

	var m Manifest
	if err := k.Unmarshal("", &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (c *ChapterEntry) toChapterAudio() (*catalog.ChapterAudio, error) {
	if c.Book == "" || c.Chapter < 1 {
		return nil, fmt.Errorf("chapter entry needs book and chapter, got %q %d", c.Book, c.Chapter)
	}
	if c.Audio == "" && c.URL == "" {
		return nil, fmt.Errorf("%s %d: no audio source", c.Book, c.Chapter)
	}

	ref := canon.ChapterRef{BookID: c.Book, Chapter: c.Chapter}
	quality := c.Quality
	if quality == "" {
		quality = "high"
	}

	verses := make([]verse.Timestamp, 0, len(c.Verses))
	for _, v := range c.Verses {
		verses = append(verses, verse.Timestamp{
			Number: v.Number,
			Start:  db.SecondsToDuration(v.Start),
			End:    db.SecondsToDuration(v.End),
			Text:   v.Text,
		})
	}

	return &catalog.ChapterAudio{
		Track: catalog.AudioTrack{
			ID:        fmt.Sprintf("%s/%d/%s", c.Book, c.Chapter, quality),
			Ref:       ref,
			SourceURL: c.URL,
			LocalPath: c.Audio,
			Duration:  db.SecondsToDuration(c.Duration),
			Quality:   quality,
			Format:    c.Format,
		},
		Verses:      verses,
		TotalVerses: len(verses),
		Ref:         ref,
	}, nil
}
