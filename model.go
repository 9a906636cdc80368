package main

import (
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/robmorgan/euclid/control"
	"github.com/robmorgan/euclid/utils"
)

// refreshRate is how often the UI redraws from the sequencer status.
const refreshRate = 25 * time.Millisecond

// sequencerView is the part of the system the UI talks to. Both methods are safe from the UI
// goroutine.
type sequencerView interface {
	Enqueue(ev control.Event) bool
	Status() status
}

type model struct {
	seq      sequencerView
	spinner  spinner.Model
	progress progress.Model
	palette  []colorful.Color
	status   status
	quitting bool
}

func newModel(seq sequencerView, channels int) model {
	s := spinner.New()
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("63"))

	return model{
		seq:     seq,
		spinner: s,
		progress: progress.New(
			progress.WithDefaultGradient(),
			progress.WithWidth(32),
			progress.WithoutPercentage(),
		),
		palette: utils.ChannelPalette(channels),
		status:  seq.Status(),
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(tickCmd(), m.spinner.Tick)
}

type tickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(refreshRate, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
