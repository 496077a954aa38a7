package transport

import (
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/wav"

	"github.com/lectioapp/lectio/internal/catalog"
)

const resampleQuality = 4

var (
	speakerOnce sync.Once
	speakerRate beep.SampleRate
	speakerErr  error
)

// Player is the beep-backed transport. It owns one sound at a time:
// a decoded streamer wrapped in pause control, rate resampling and a
// volume effect, in that order.
type Player struct {
	mu sync.Mutex

	loaded    bool
	streamer  beep.StreamSeekCloser
	format    beep.Format
	ctrl      *beep.Ctrl
	resampler *beep.Resampler
	volume    *effects.Volume
	file      *os.File
	tmpPath   string // non-empty when the source was downloaded

	playing  bool
	rate     float64
	level    float64
	muted    bool
	duration time.Duration
	finished chan struct{}
}

// NewPlayer creates an unloaded player with rate 1.0 and full volume.
func NewPlayer() *Player {
	return &Player{
		rate:     1.0,
		level:    1.0,
		finished: make(chan struct{}),
	}
}

// Load implements Interface. The previous sound is released first.
// Remote sources are fetched to a temp file before decoding, since
// seeking requires random access.
func (p *Player) Load(track catalog.AudioTrack) LoadResult {
	p.Unload()

	p.mu.Lock()
	defer p.mu.Unlock()

	path := track.URI()
	if path == "" {
		return LoadResult{Err: fmt.Errorf("track %s has no source", track.ID)}
	}

	var tmpPath string
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		var err error
		tmpPath, err = fetchToTemp(path)
		if err != nil {
			return LoadResult{Err: err}
		}
		path = tmpPath
	}

	f, err := os.Open(path)
	if err != nil {
		removeTemp(tmpPath)
		return LoadResult{Err: err}
	}

	streamer, format, err := decode(f, track.Format, path)
	if err != nil {
		f.Close()
		removeTemp(tmpPath)
		return LoadResult{Err: err}
	}

	speakerOnce.Do(func() {
		speakerRate = format.SampleRate
		speakerErr = speaker.Init(speakerRate, speakerRate.N(time.Second/10))
	})
	if speakerErr != nil {
		streamer.Close()
		f.Close()
		removeTemp(tmpPath)
		return LoadResult{Err: speakerErr}
	}

	p.file = f
	p.tmpPath = tmpPath
	p.streamer = streamer
	p.format = format
	p.duration = format.SampleRate.D(streamer.Len())

	p.ctrl = &beep.Ctrl{Streamer: streamer, Paused: true}
	p.resampler = beep.ResampleRatio(resampleQuality, p.ratio(), p.ctrl)
	p.volume = &effects.Volume{
		Streamer: p.resampler,
		Base:     2,
		Volume:   levelToVolume(p.level),
		Silent:   p.muted || p.level <= 0,
	}

	p.finished = make(chan struct{})
	finished := p.finished
	p.loaded = true
	p.playing = false

	speaker.Play(beep.Seq(p.volume, beep.Callback(func() {
		close(finished)
	})))

	return LoadResult{Loaded: true, Duration: p.duration}
}

// ratio maps the source sample rate and playback rate onto the speaker
// rate. Called with p.mu held.
func (p *Player) ratio() float64 {
	if speakerRate == 0 {
		return p.rate
	}
	return float64(p.format.SampleRate) / float64(speakerRate) * p.rate
}

func decode(f *os.File, format, path string) (beep.StreamSeekCloser, beep.Format, error) {
	if format == "" {
		format = strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	}
	switch format {
	case "mp3":
		return mp3.Decode(f)
	case "flac":
		return flac.Decode(f)
	case "wav":
		return wav.Decode(f)
	default:
		return nil, beep.Format{}, fmt.Errorf("unsupported format: %s", format)
	}
}

func fetchToTemp(url string) (string, error) {
	resp, err := http.Get(url)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch %s: %s", url, resp.Status)
	}

	tmp, err := os.CreateTemp("", "lectio-*"+filepath.Ext(url))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}

func removeTemp(path string) {
	if path != "" {
		_ = os.Remove(path)
	}
}

// Play implements Interface.
func (p *Player) Play() (Status, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.loaded {
		return p.statusLocked(), ErrNoSound
	}
	speaker.Lock()
	p.ctrl.Paused = false
	speaker.Unlock()
	p.playing = true
	return p.statusLocked(), nil
}

// Pause implements Interface.
func (p *Player) Pause() (Status, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.loaded {
		return p.statusLocked(), ErrNoSound
	}
	speaker.Lock()
	p.ctrl.Paused = true
	speaker.Unlock()
	p.playing = false
	return p.statusLocked(), nil
}

// Stop pauses and rewinds to the start of the sound.
func (p *Player) Stop() (Status, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.loaded {
		return p.statusLocked(), ErrNoSound
	}
	speaker.Lock()
	p.ctrl.Paused = true
	err := p.streamer.Seek(0)
	speaker.Unlock()
	p.playing = false
	if err != nil {
		return p.statusLocked(), err
	}
	return p.statusLocked(), nil
}

// SeekTo implements Interface. The target is clamped against the
// decoder's reported length, not the nominal track metadata.
func (p *Player) SeekTo(pos time.Duration) (Status, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.loaded {
		return p.statusLocked(), ErrNoSound
	}

	n := p.format.SampleRate.N(pos)
	n = max(n, 0)
	if maxN := p.streamer.Len(); n > maxN {
		n = maxN
	}

	speaker.Lock()
	err := p.streamer.Seek(n)
	speaker.Unlock()
	if err != nil {
		return p.statusLocked(), err
	}
	return p.statusLocked(), nil
}

// SetRate implements Interface. The resampler preserves pitch while
// changing speed.
func (p *Player) SetRate(rate float64) (Status, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rate = ClampRate(rate)
	if p.loaded {
		speaker.Lock()
		p.resampler.SetRatio(p.ratio())
		speaker.Unlock()
	}
	return p.statusLocked(), nil
}

// SetVolume implements Interface.
func (p *Player) SetVolume(level float64) (Status, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.level = ClampVolume(level)
	if p.loaded {
		speaker.Lock()
		p.volume.Volume = levelToVolume(p.level)
		p.volume.Silent = p.muted || p.level <= 0
		speaker.Unlock()
	}
	return p.statusLocked(), nil
}

// SetMuted implements Interface. Unmuting restores the stored level.
func (p *Player) SetMuted(muted bool) (Status, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.muted = muted
	if p.loaded {
		speaker.Lock()
		p.volume.Silent = muted || p.level <= 0
		speaker.Unlock()
	}
	return p.statusLocked(), nil
}

// Status implements Interface. It never fails; an unloaded player
// reports the zero status.
func (p *Player) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.statusLocked()
}

func (p *Player) statusLocked() Status {
	if !p.loaded {
		return Status{}
	}
	speaker.Lock()
	pos := p.format.SampleRate.D(p.streamer.Position())
	speaker.Unlock()
	return Status{
		Loaded:   true,
		Playing:  p.playing,
		Position: pos,
		Duration: p.duration,
		Rate:     p.rate,
		Volume:   p.level,
		Muted:    p.muted,
	}
}

// Unload releases the current sound. Failures are swallowed: a failed
// cleanup must not block loading the next chapter or teardown.
func (p *Player) Unload() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.loaded {
		return
	}

	speaker.Clear()

	if p.streamer != nil {
		_ = p.streamer.Close()
		p.streamer = nil
	}
	if p.file != nil {
		_ = p.file.Close()
		p.file = nil
	}
	removeTemp(p.tmpPath)
	p.tmpPath = ""

	p.ctrl = nil
	p.resampler = nil
	p.volume = nil
	p.loaded = false
	p.playing = false
	p.duration = 0
}

// Finished implements Interface.
func (p *Player) Finished() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.finished
}

// levelToVolume converts a 0.0-1.0 level to the volume effect's
// logarithmic scale: 1.0 -> 0, 0.5 -> -1, 0.25 -> -2.
func levelToVolume(level float64) float64 {
	if level <= 0 {
		return -10
	}
	if level >= 1 {
		return 0
	}
	return math.Log2(level)
}

// Verify Player implements Interface at compile time.
var _ Interface = (*Player)(nil)
