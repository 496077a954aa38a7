package catalog

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/lectioapp/lectio/internal/canon"
	"github.com/lectioapp/lectio/internal/db"
	"github.com/lectioapp/lectio/internal/verse"
)

const (
	appName    = "lectio"
	dbFileName = "catalog.db"
)

// SQLite is a Provider backed by a local SQLite database.
type SQLite struct {
	db      *sql.DB
	quality string
}

// PreferQuality selects which track variant ChapterAudio returns when a
// chapter has several. Unknown or empty values fall back to the first
// variant by quality name.
func (s *SQLite) PreferQuality(quality string) {
	s.quality = quality
}

// OpenSQLite opens the catalog at path. An empty path uses the default
// XDG data location. The schema is created if missing.
func OpenSQLite(path string) (*SQLite, error) {
	if path == "" {
		var err error
		path, err = xdg.DataFile(filepath.Join(appName, dbFileName))
		if err != nil {
			return nil, err
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if err := initSchema(sqlDB); err != nil {
		sqlDB.Close()
		return nil, err
	}

	return &SQLite{db: sqlDB}, nil
}

// Close releases the database handle.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// DB exposes the underlying handle for tooling.
func (s *SQLite) DB() *sql.DB {
	return s.db
}

func initSchema(sqlDB *sql.DB) error {
	_, err := sqlDB.Exec(`
		CREATE TABLE IF NOT EXISTS books (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			position INTEGER NOT NULL UNIQUE,
			chapters INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS tracks (
			id TEXT PRIMARY KEY,
			book_id TEXT NOT NULL REFERENCES books(id),
			chapter INTEGER NOT NULL,
			source_url TEXT,
			local_path TEXT,
			duration_seconds REAL NOT NULL,
			quality TEXT NOT NULL DEFAULT 'high',
			format TEXT NOT NULL DEFAULT 'mp3',
			UNIQUE(book_id, chapter, quality)
		);

		CREATE INDEX IF NOT EXISTS idx_tracks_chapter ON tracks(book_id, chapter);

		CREATE TABLE IF NOT EXISTS verse_timings (
			track_id TEXT NOT NULL REFERENCES tracks(id) ON DELETE CASCADE,
			number INTEGER NOT NULL,
			start_seconds REAL NOT NULL,
			end_seconds REAL NOT NULL,
			text TEXT,
			PRIMARY KEY (track_id, number)
		);
	`)
	return err
}

// PutBooks stores the canonical book catalog, replacing existing rows.
func (s *SQLite) PutBooks(books []canon.Book) error {
	return db.WithTx(s.db, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM books`); err != nil {
			return err
		}
		for _, b := range books {
			_, err := tx.Exec(
				`INSERT INTO books (id, name, position, chapters) VALUES (?, ?, ?, ?)`,
				b.ID, b.Name, b.Order, b.Chapters,
			)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// PutChapter stores a chapter's track and verse timings, replacing any
// existing entry for the same track ID.
func (s *SQLite) PutChapter(ca *ChapterAudio) error {
	if _, err := ca.Timeline(); err != nil {
		return fmt.Errorf("store %s: %w", ca.Ref, err)
	}
	return db.WithTx(s.db, func(tx *sql.Tx) error {
		t := ca.Track
		_, err := tx.Exec(`
			INSERT OR REPLACE INTO tracks
				(id, book_id, chapter, source_url, local_path, duration_seconds, quality, format)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			t.ID, ca.Ref.BookID, ca.Ref.Chapter, t.SourceURL, t.LocalPath,
			db.DurationToSeconds(t.Duration), t.Quality, t.Format,
		)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(`DELETE FROM verse_timings WHERE track_id = ?`, t.ID); err != nil {
			return err
		}
		for _, v := range ca.Verses {
			_, err := tx.Exec(`
				INSERT INTO verse_timings (track_id, number, start_seconds, end_seconds, text)
				VALUES (?, ?, ?, ?, ?)`,
				t.ID, v.Number, db.DurationToSeconds(v.Start), db.DurationToSeconds(v.End), v.Text,
			)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// ChapterAudio implements Provider.
func (s *SQLite) ChapterAudio(bookID string, chapter int) (*ChapterAudio, error) {
	row := s.db.QueryRow(`
		SELECT id, source_url, local_path, duration_seconds, quality, format
		FROM tracks
		WHERE book_id = ? AND chapter = ?
		ORDER BY CASE WHEN quality = ? THEN 0 ELSE 1 END, quality
		LIMIT 1`,
		bookID, chapter, s.quality,
	)

	ref := canon.ChapterRef{BookID: bookID, Chapter: chapter}
	track := AudioTrack{Ref: ref}
	var sourceURL, localPath sql.NullString
	var durationSeconds float64
	err := row.Scan(&track.ID, &sourceURL, &localPath, &durationSeconds, &track.Quality, &track.Format)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", ref, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	track.SourceURL = db.NullStringValue(sourceURL)
	track.LocalPath = db.NullStringValue(localPath)
	track.Duration = db.SecondsToDuration(durationSeconds)

	verses, err := s.loadVerses(track.ID)
	if err != nil {
		return nil, err
	}

	return &ChapterAudio{
		Track:       track,
		Verses:      verses,
		TotalVerses: len(verses),
		Ref:         ref,
	}, nil
}

func (s *SQLite) loadVerses(trackID string) ([]verse.Timestamp, error) {
	rows, err := s.db.Query(`
		SELECT number, start_seconds, end_seconds, text
		FROM verse_timings
		WHERE track_id = ?
		ORDER BY number`,
		trackID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var verses []verse.Timestamp
	for rows.Next() {
		var v verse.Timestamp
		var start, end float64
		var text sql.NullString
		if err := rows.Scan(&v.Number, &start, &end, &text); err != nil {
			return nil, err
		}
		v.Start = db.SecondsToDuration(start)
		v.End = db.SecondsToDuration(end)
		v.Text = db.NullStringValue(text)
		verses = append(verses, v)
	}
	return verses, rows.Err()
}

// Canon implements Provider. Falls back to the default canon when the
// books table is empty.
func (s *SQLite) Canon() (*canon.Index, error) {
	rows, err := s.db.Query(`SELECT id, name, position, chapters FROM books ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var books []canon.Book
	for rows.Next() {
		var b canon.Book
		if err := rows.Scan(&b.ID, &b.Name, &b.Order, &b.Chapters); err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(books) == 0 {
		return canon.Default(), nil
	}
	return canon.NewIndex(books), nil
}
