package state

import "database/sql"

// PlaybackState represents the saved transport settings.
type PlaybackState struct {
	Volume float64
	Muted  bool
	Rate   float64
}

// GetPlayback returns the saved transport settings.
func (m *Manager) GetPlayback() (*PlaybackState, error) {
	var s PlaybackState

	row := m.db.QueryRow(`SELECT volume, muted, rate FROM playback_state WHERE id = 1`)
	err := row.Scan(&s.Volume, &s.Muted, &s.Rate)
	if err == sql.ErrNoRows {
		return &PlaybackState{Volume: 1.0, Rate: 1.0}, nil
	}
	if err != nil {
		return nil, err
	}

	return &s, nil
}

// SavePlayback persists the transport settings to the database.
func (m *Manager) SavePlayback(s PlaybackState) error {
	_, err := m.db.Exec(`
		INSERT INTO playback_state (id, volume, muted, rate)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			volume = excluded.volume,
			muted = excluded.muted,
			rate = excluded.rate
	`, s.Volume, s.Muted, s.Rate)
	return err
}
