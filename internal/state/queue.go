package state

import (
	"database/sql"
	"errors"

	"github.com/lectioapp/lectio/internal/canon"
	dbutil "github.com/lectioapp/lectio/internal/db"
	"github.com/lectioapp/lectio/internal/queue"
)

// QueueState is the saved queue contents.
type QueueState struct {
	CurrentIndex int
	Items        []queue.Item
}

// GetQueue returns the saved queue.
func (m *Manager) GetQueue() (*QueueState, error) {
	var currentIndex int
	row := m.db.QueryRow(`SELECT current_index FROM queue_state WHERE id = 1`)
	err := row.Scan(&currentIndex)
	if errors.Is(err, sql.ErrNoRows) {
		return &QueueState{CurrentIndex: -1}, nil
	}
	if err != nil {
		return nil, err
	}

	rows, err := m.db.Query(`
		SELECT kind, book_id, chapter, from_verse, to_verse, playlist
		FROM queue_items
		ORDER BY position
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []queue.Item
	for rows.Next() {
		var it queue.Item
		var kind int
		var ref canon.ChapterRef
		var playlist sql.NullString

		err := rows.Scan(&kind, &ref.BookID, &ref.Chapter, &it.FromVerse, &it.ToVerse, &playlist)
		if err != nil {
			return nil, err
		}

		it.Kind = queue.Kind(kind)
		it.Ref = ref
		it.Playlist = dbutil.NullStringValue(playlist)
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &QueueState{CurrentIndex: currentIndex, Items: items}, nil
}

// SaveQueue replaces the saved queue with the given state.
func (m *Manager) SaveQueue(state QueueState) error {
	return dbutil.WithTx(m.db, func(tx *sql.Tx) error {
		_, err := tx.Exec(`DELETE FROM queue_items`)
		if err != nil {
			return err
		}

		_, err = tx.Exec(`
			INSERT INTO queue_state (id, current_index)
			VALUES (1, ?)
			ON CONFLICT(id) DO UPDATE SET
				current_index = excluded.current_index
		`, state.CurrentIndex)
		if err != nil {
			return err
		}

		stmt, err := tx.Prepare(`
			INSERT INTO queue_items (position, kind, book_id, chapter, from_verse, to_verse, playlist)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i, it := range state.Items {
			var playlist any
			if it.Playlist != "" {
				playlist = it.Playlist
			}
			_, err = stmt.Exec(i, int(it.Kind), it.Ref.BookID, it.Ref.Chapter, it.FromVerse, it.ToVerse, playlist)
			if err != nil {
				return err
			}
		}
		return nil
	})
}
