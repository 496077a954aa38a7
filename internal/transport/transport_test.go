package transport

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lectioapp/lectio/internal/catalog"
)

func loadedMock(t *testing.T, duration time.Duration) *Mock {
	t.Helper()
	m := NewMock()
	res := m.Load(catalog.AudioTrack{ID: "genesis-1", Duration: duration})
	require.True(t, res.Loaded)
	return m
}

func TestMock_StatusUnloaded(t *testing.T) {
	m := NewMock()

	st := m.Status()

	assert.Equal(t, Status{}, st, "unloaded transport reports zero status")
}

func TestMock_SeekTo_Clamps(t *testing.T) {
	m := loadedMock(t, 300*time.Second)

	tests := []struct {
		seek time.Duration
		want time.Duration
	}{
		{-5 * time.Second, 0},
		{0, 0},
		{150 * time.Second, 150 * time.Second},
		{300 * time.Second, 300 * time.Second},
		{900 * time.Second, 300 * time.Second},
	}
	for _, tt := range tests {
		st, err := m.SeekTo(tt.seek)
		require.NoError(t, err)
		assert.Equal(t, tt.want, st.Position, "SeekTo(%v)", tt.seek)
	}
}

func TestSkipForward(t *testing.T) {
	m := loadedMock(t, 300*time.Second)
	m.SetPosition(30 * time.Second)

	st, err := SkipForward(m, 0) // default delta

	require.NoError(t, err)
	assert.Equal(t, 40*time.Second, st.Position)
}

func TestSkipForward_ClampsAtEnd(t *testing.T) {
	m := loadedMock(t, 300*time.Second)
	m.SetPosition(295 * time.Second)

	st, err := SkipForward(m, 0)

	require.NoError(t, err)
	assert.Equal(t, 300*time.Second, st.Position)
}

func TestSkipBackward_ClampsAtStart(t *testing.T) {
	m := loadedMock(t, 300*time.Second)
	m.SetPosition(4 * time.Second)

	st, err := SkipBackward(m, 0)

	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), st.Position)
}

func TestSkip_Unloaded(t *testing.T) {
	m := NewMock()

	_, err := SkipForward(m, 0)
	assert.ErrorIs(t, err, ErrNoSound)

	_, err = SkipBackward(m, 0)
	assert.ErrorIs(t, err, ErrNoSound)
}

func TestSetRate_Clamps(t *testing.T) {
	m := loadedMock(t, time.Minute)

	tests := []struct {
		rate float64
		want float64
	}{
		{0.1, 0.5},
		{0.5, 0.5},
		{1.0, 1.0},
		{1.75, 1.75},
		{2.0, 2.0},
		{9.9, 2.0},
		{-3, 0.5},
	}
	for _, tt := range tests {
		st, err := m.SetRate(tt.rate)
		require.NoError(t, err)
		assert.Equal(t, tt.want, st.Rate, "SetRate(%v)", tt.rate)
	}
}

func TestSetVolume_Clamps(t *testing.T) {
	m := loadedMock(t, time.Minute)

	tests := []struct {
		level float64
		want  float64
	}{
		{-0.5, 0.0},
		{0.0, 0.0},
		{0.4, 0.4},
		{1.0, 1.0},
		{1.5, 1.0},
	}
	for _, tt := range tests {
		st, err := m.SetVolume(tt.level)
		require.NoError(t, err)
		assert.Equal(t, tt.want, st.Volume, "SetVolume(%v)", tt.level)
	}
}

func TestMock_LoadFailure(t *testing.T) {
	m := NewMock()
	loadErr := errors.New("codec not supported")
	m.SetLoadError(loadErr)

	res := m.Load(catalog.AudioTrack{ID: "genesis-1"})

	assert.False(t, res.Loaded)
	assert.ErrorIs(t, res.Err, loadErr)
	assert.Equal(t, Status{}, m.Status(), "failed load leaves transport unloaded")
}

func TestMock_StopRewinds(t *testing.T) {
	m := loadedMock(t, time.Minute)
	_, err := m.Play()
	require.NoError(t, err)
	m.SetPosition(30 * time.Second)

	st, err := m.Stop()

	require.NoError(t, err)
	assert.False(t, st.Playing)
	assert.Equal(t, time.Duration(0), st.Position)
}

func TestMock_UnloadNeverFails(t *testing.T) {
	m := NewMock()

	// Unload on an unloaded transport is a no-op, not a panic.
	m.Unload()
	m.Unload()

	assert.Equal(t, 2, m.UnloadCount())
}

func TestLevelToVolume(t *testing.T) {
	assert.Equal(t, 0.0, levelToVolume(1.0))
	assert.Equal(t, -1.0, levelToVolume(0.5))
	assert.Equal(t, -2.0, levelToVolume(0.25))
	assert.Equal(t, -10.0, levelToVolume(0))
	assert.Equal(t, -10.0, levelToVolume(-1))
	assert.Equal(t, 0.0, levelToVolume(2))
}
