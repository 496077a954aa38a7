package state

import (
	"database/sql"
	"errors"
	"time"

	"github.com/lectioapp/lectio/internal/canon"
	dbutil "github.com/lectioapp/lectio/internal/db"
)

// Resume is the last listening position.
type Resume struct {
	Ref      canon.ChapterRef
	Position time.Duration
	Verse    int
}

func getResume(db *sql.DB) (*Resume, error) {
	row := db.QueryRow(`
		SELECT book_id, chapter, position_seconds, verse
		FROM resume_state WHERE id = 1
	`)

	var r Resume
	var seconds float64
	err := row.Scan(&r.Ref.BookID, &r.Ref.Chapter, &seconds, &r.Verse)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil //nolint:nilnil // no saved state is valid on first run
	}
	if err != nil {
		return nil, err
	}
	r.Position = dbutil.SecondsToDuration(seconds)

	return &r, nil
}

func saveResume(db *sql.DB, r Resume) error {
	_, err := db.Exec(`
		INSERT INTO resume_state (id, book_id, chapter, position_seconds, verse)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			book_id = excluded.book_id,
			chapter = excluded.chapter,
			position_seconds = excluded.position_seconds,
			verse = excluded.verse
	`, r.Ref.BookID, r.Ref.Chapter, dbutil.DurationToSeconds(r.Position), r.Verse)

	return err
}
