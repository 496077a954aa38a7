package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lectioapp/lectio/internal/catalog"
	"github.com/lectioapp/lectio/internal/config"
	"github.com/lectioapp/lectio/internal/errmsg"
	"github.com/lectioapp/lectio/internal/queue"
	"github.com/lectioapp/lectio/internal/session"
	"github.com/lectioapp/lectio/internal/state"
	"github.com/lectioapp/lectio/internal/transport"
)

var (
	barStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240"))

	titleStyle = lipgloss.NewStyle().Bold(true)
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
)

type tickMsg time.Time

type model struct {
	sess     *session.Session
	store    *catalog.SQLite
	stateMgr *state.Manager
	cfg      *config.Config
	width    int
	height   int
	message  string
}

func initialModel() (model, error) {
	cfg, err := config.Load()
	if err != nil {
		return model{}, err
	}

	store, err := catalog.OpenSQLite(cfg.CatalogPath)
	if err != nil {
		return model{}, errors.New(errmsg.Format(errmsg.OpCatalogOpen, err))
	}
	store.PreferQuality(cfg.Quality)

	stateMgr, err := state.Open()
	if err != nil {
		store.Close()
		return model{}, errors.New(errmsg.Format(errmsg.OpInitialize, err))
	}

	sess, err := session.New(store, transport.NewPlayer())
	if err != nil {
		stateMgr.Close()
		store.Close()
		return model{}, err
	}

	// Saved transport settings win over the config defaults.
	volume, rate, muted := cfg.Playback.Volume, cfg.Playback.Rate, false
	if pb, err := stateMgr.GetPlayback(); err == nil && pb != nil {
		volume, rate, muted = pb.Volume, pb.Rate, pb.Muted
	}
	if err := sess.SetVolume(volume); err == nil {
		_ = sess.SetPlaybackRate(rate)
		_ = sess.SetMuted(muted)
	}

	if qs, err := stateMgr.GetQueue(); err == nil && qs != nil {
		restoreQueue(sess, qs.Items)
	}

	m := model{sess: sess, store: store, stateMgr: stateMgr, cfg: cfg}

	// Start position: saved resume state, then the configured start
	// chapter. A missing chapter is not fatal, the catalog may simply
	// not hold it yet.
	startBook, startChapter := cfg.Start.Book, cfg.Start.Chapter
	var resumePos time.Duration
	if r, err := stateMgr.GetResume(); err == nil && r != nil {
		startBook, startChapter = r.Ref.BookID, r.Ref.Chapter
		resumePos = r.Position
	}
	if err := sess.LoadChapter(startBook, startChapter); err != nil {
		m.message = err.Error()
	} else {
		if resumePos > 0 {
			_ = sess.SeekTo(resumePos)
		}
		if cfg.Playback.Autoplay {
			_ = sess.Play()
		}
	}

	return m, nil
}

// restoreQueue re-enqueues saved items. The pointer restarts at the
// first item; part-played queues resume from their head.
func restoreQueue(sess *session.Session, items []queue.Item) {
	for _, it := range items {
		switch it.Kind {
		case queue.KindPassage:
			_ = sess.EnqueuePassage(it.Ref, it.FromVerse, it.ToVerse)
		case queue.KindPlaylist:
			_ = sess.EnqueuePlaylist(it.Playlist, it.Ref)
		default:
			_ = sess.EnqueueChapter(it.Ref)
		}
	}
}

func (m model) saveState() {
	snap := m.sess.Snapshot()
	if snap.TotalVerses > 0 {
		m.stateMgr.SaveResume(state.Resume{
			Ref:      snap.Ref,
			Position: snap.Position,
			Verse:    snap.Verse,
		})
	}
	_ = m.stateMgr.SavePlayback(state.PlaybackState{
		Volume: snap.Volume,
		Muted:  snap.Muted,
		Rate:   snap.Rate,
	})
	_ = m.stateMgr.SaveQueue(state.QueueState{
		CurrentIndex: snap.QueueIndex,
		Items:        m.sess.QueueItems(),
	})
}

func (m model) Init() tea.Cmd {
	return tickCmd()
}

func (m model) skipDelta() time.Duration {
	return time.Duration(m.cfg.Playback.SkipSeconds) * time.Second
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		m.message = ""
		switch msg.String() {
		case "q", "ctrl+c":
			m.saveState()
			m.sess.Close()
			m.stateMgr.Close()
			m.store.Close()
			return m, tea.Quit
		case " ":
			m.report(m.sess.Toggle())
		case "s":
			m.report(m.sess.Stop())
		case "j", "down":
			_, err := m.sess.NextVerse()
			m.report(err)
		case "k", "up":
			_, err := m.sess.PreviousVerse()
			m.report(err)
		case "J", "n":
			m.report(m.sess.NextChapter())
		case "K", "p":
			m.report(m.sess.PreviousChapter())
		case "l", "right":
			m.report(m.sess.SkipForward(m.skipDelta()))
		case "h", "left":
			m.report(m.sess.SkipBackward(m.skipDelta()))
		case "+", "=":
			m.report(m.sess.SetVolume(m.sess.Snapshot().Volume + 0.05))
		case "-":
			m.report(m.sess.SetVolume(m.sess.Snapshot().Volume - 0.05))
		case "m":
			m.report(m.sess.SetMuted(!m.sess.Snapshot().Muted))
		case ">":
			m.report(m.sess.SetPlaybackRate(m.sess.Snapshot().Rate + 0.25))
		case "<":
			m.report(m.sess.SetPlaybackRate(m.sess.Snapshot().Rate - 0.25))
		case "e":
			m.sess.ClearError()
		}

	case tickMsg:
		// Keep the resume point fresh while listening; the manager
		// debounces the actual writes.
		if snap := m.sess.Snapshot(); snap.Status == session.StatusPlaying {
			m.stateMgr.SaveResume(state.Resume{
				Ref:      snap.Ref,
				Position: snap.Position,
				Verse:    snap.Verse,
			})
		}
		return m, tickCmd()
	}

	return m, nil
}

// report surfaces a command error in the message line. Most commands
// already record the error in the session; the message is just the
// immediate feedback.
func (m *model) report(err error) {
	if err != nil {
		m.message = err.Error()
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func statusGlyph(s session.Status) string {
	switch s {
	case session.StatusPlaying:
		return "▶"
	case session.StatusBuffering:
		return "◌"
	case session.StatusPaused:
		return "⏸"
	case session.StatusLoading:
		return "…"
	case session.StatusCompleted:
		return "✓"
	case session.StatusError:
		return "!"
	default:
		return "■"
	}
}

func (m model) View() string {
	snap := m.sess.Snapshot()

	var b strings.Builder

	header := titleStyle.Render("lectio")
	if snap.BookName != "" {
		header += "  " + fmt.Sprintf("%s %d", snap.BookName, snap.Ref.Chapter)
	}
	if snap.Mode == session.ModeQueue {
		header += dimStyle.Render(fmt.Sprintf("  [queue %d/%d]", snap.QueueIndex+1, snap.QueueLength))
	}
	b.WriteString(header + "\n\n")

	if snap.TotalVerses > 0 {
		verseLine := fmt.Sprintf("verse %d / %d", snap.Verse, snap.TotalVerses)
		if snap.Verse > 0 {
			verseLine += dimStyle.Render(fmt.Sprintf("  %3.0f%%", snap.VerseProgress*100))
		}
		b.WriteString(verseLine + "\n")
	}

	status := fmt.Sprintf(" %s  %s / %s", statusGlyph(snap.Status),
		formatDuration(snap.Position), formatDuration(snap.Duration))
	extras := fmt.Sprintf("%.2fx  vol %3.0f%%", snap.Rate, snap.Volume*100)
	if snap.Muted {
		extras += "  muted"
	}

	innerWidth := m.width - 2
	if innerWidth < 0 {
		innerWidth = 0
	}
	padding := innerWidth - lipgloss.Width(status) - lipgloss.Width(extras) - 1
	if padding < 0 {
		padding = 0
	}
	bar := status + strings.Repeat(" ", padding) + extras + " "
	b.WriteString(barStyle.Width(innerWidth).Render(bar) + "\n")

	if m.message != "" {
		b.WriteString(errStyle.Render(m.message) + "\n")
	} else if snap.Err != nil {
		b.WriteString(errStyle.Render(snap.Err.Error()) + "\n")
	}

	b.WriteString(dimStyle.Render("space play/pause  j/k verse  n/p chapter  h/l skip  +/- vol  q quit"))

	return b.String()
}

func formatDuration(d time.Duration) string {
	mins := int(d.Minutes())
	secs := int(d.Seconds()) % 60
	return fmt.Sprintf("%d:%02d", mins, secs)
}

func main() {
	m, err := initialModel()
	if err != nil {
		fmt.Printf("Error initializing: %v\n", err)
		os.Exit(1)
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Error running program: %v\n", err)
		os.Exit(1)
	}
}
