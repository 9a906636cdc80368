package main

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/robmorgan/euclid/control"
	"github.com/robmorgan/euclid/rhythm"
	"github.com/robmorgan/euclid/sequencer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSequencer struct {
	events []control.Event
	status status
}

func (f *fakeSequencer) Enqueue(ev control.Event) bool {
	f.events = append(f.events, ev)
	return true
}

func (f *fakeSequencer) Status() status {
	return f.status
}

func TestKeysSendControlEvents(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		key      tea.KeyMsg
		expected control.Event
	}{
		{tea.KeyMsg{Type: tea.KeyUp}, control.Event{Kind: control.Hits, Value: 1}},
		{tea.KeyMsg{Type: tea.KeyLeft}, control.Event{Kind: control.Offset, Value: 1}},
		{tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}, control.Event{Kind: control.PlayPause}},
		{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'3'}}, control.Event{Kind: control.SelectChannel, Value: 2}},
		{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'['}}, control.Event{Kind: control.Length, Value: -1}},
		{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'n'}}, control.Event{Kind: control.SequenceSchedule, Value: 1}},
		{tea.KeyMsg{Type: tea.KeyTab}, control.Event{Kind: control.SequenceMode, Value: 1}},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.key.String(), func(t *testing.T) {
			t.Parallel()

			seq := &fakeSequencer{}
			m := newModel(seq, 4)
			_, cmd := m.Update(testCase.key)
			assert.Nil(t, cmd)
			require.Len(t, seq.events, 1)
			assert.Equal(t, testCase.expected, seq.events[0])
		})
	}
}

func TestTabLeavesSequenceMode(t *testing.T) {
	t.Parallel()

	seq := &fakeSequencer{status: status{SequenceMode: true}}
	m := newModel(seq, 4)
	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, []control.Event{{Kind: control.SequenceMode, Value: 0}}, seq.events)
}

func TestUnknownKeyIsIgnored(t *testing.T) {
	t.Parallel()

	seq := &fakeSequencer{}
	m := newModel(seq, 4)
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'z'}})
	assert.Empty(t, seq.events)
}

func TestQuit(t *testing.T) {
	t.Parallel()

	m := newModel(&fakeSequencer{}, 4)
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.True(t, updated.(model).quitting)
}

func TestTickRefreshesStatus(t *testing.T) {
	t.Parallel()

	seq := &fakeSequencer{}
	m := newModel(seq, 4)

	seq.status = status{Tempo: 133}
	updated, cmd := m.Update(tickMsg(time.Now()))
	assert.NotNil(t, cmd)
	assert.Equal(t, 133, updated.(model).status.Tempo)
}

func TestView(t *testing.T) {
	t.Parallel()

	seq := &fakeSequencer{status: status{
		Tempo:   128,
		Step:    4,
		Playing: true,
		Active:  1,
		Channels: []channelStatus{
			{State: sequencer.DefaultChannelState()},
			{State: sequencer.ChannelState{RhythmIndex: 4, Length: 16}, Pattern: rhythm.Euclid(4)},
		},
		Selected:      0,
		Pending:       3,
		SwitchPending: true,
		Panel:         0x1111,
	}}
	view := newModel(seq, 2).View()

	assert.Contains(t, view, "BPM: 128")
	assert.Contains(t, view, "hits  4")
	assert.Contains(t, view, "sequence: 1 -> 4")
	assert.True(t, strings.Contains(view, "●○○○●"))
}

func TestRenderLEDs(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "●○○○○○○○○○○○○○○● ●", renderLEDs(0x8001, true))
	assert.Equal(t, "○○○○○○○○○○○○○○○○ ○", renderLEDs(0, false))
}
