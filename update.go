package main

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/robmorgan/euclid/control"
)

// keyEvents maps keys to the control events they send.
var keyEvents = map[string]control.Event{
	"up":    {Kind: control.Hits, Value: 1},
	"down":  {Kind: control.Hits, Value: -1},
	"right": {Kind: control.Offset, Value: -1},
	"left":  {Kind: control.Offset, Value: 1},
	"]":     {Kind: control.Length, Value: 1},
	"[":     {Kind: control.Length, Value: -1},
	"=":     {Kind: control.Tempo, Value: 1},
	"-":     {Kind: control.Tempo, Value: -1},
	"+":     {Kind: control.Tempo, Value: 10},
	"_":     {Kind: control.Tempo, Value: -10},
	" ":     {Kind: control.PlayPause},
	"r":     {Kind: control.Randomize},
	"x":     {Kind: control.ResetPattern},
	"c":     {Kind: control.ClockPulse},
	"n":     {Kind: control.SequenceSchedule, Value: 1},
	"p":     {Kind: control.SequenceSchedule, Value: -1},
	"s":     {Kind: control.SequenceSave},
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg.String())
	case tickMsg:
		m.status = m.seq.Status()
		return m, tickCmd()
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m model) handleKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "ctrl+c", "q":
		m.quitting = true
		return m, tea.Quit
	case "tab":
		on := 0
		if !m.status.SequenceMode {
			on = 1
		}
		m.seq.Enqueue(control.Event{Kind: control.SequenceMode, Value: on})
		return m, nil
	}

	if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
		m.seq.Enqueue(control.Event{Kind: control.SelectChannel, Value: int(key[0] - '1')})
		return m, nil
	}
	if ev, ok := keyEvents[key]; ok {
		m.seq.Enqueue(ev)
	}
	return m, nil
}
