package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/robmorgan/euclid/rhythm"
)

var (
	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("63"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Margin(1, 0)
	dimStyle     = helpStyle.Copy().UnsetMargins()
	headStyle    = lipgloss.NewStyle().Bold(true).Reverse(true)
	activeStyle  = lipgloss.NewStyle().Bold(true)
	appStyle     = lipgloss.NewStyle().Margin(1, 2, 0, 2)
)

func (m model) View() string {
	st := m.status
	var s strings.Builder

	transport := "stopped"
	if st.Playing {
		transport = spinnerStyle.Render(m.spinner.View()) + " playing"
	}
	source := "internal"
	if st.External {
		source = "external"
	}
	fmt.Fprintf(&s, "BPM: %d  %s  clock: %s  step: %2d\n", st.Tempo, transport, source, st.Step)
	s.WriteString(m.progress.ViewAs(float64(st.Step+1)/float64(rhythm.StepCount)) + "\n\n")

	for ch, c := range st.Channels {
		marker := "  "
		label := fmt.Sprintf("ch%-2d", ch+1)
		if ch == st.Active {
			marker = "> "
			label = activeStyle.Render(label)
		}
		s.WriteString(marker + label + " " + m.renderPattern(ch, c.Pattern, st.Step))
		fmt.Fprintf(&s, "  hits %2d  offset %2d  length %2d\n",
			c.State.RhythmIndex, c.State.Offset, c.State.Length)
	}

	seq := fmt.Sprintf("sequence: %d", st.Selected+1)
	if st.SwitchPending && st.Pending != st.Selected {
		seq += fmt.Sprintf(" -> %d", st.Pending+1)
	}
	if st.SequenceMode {
		seq += "  [sequence mode]"
	}
	if st.Saving {
		seq += "  saving..."
	}
	s.WriteString("\n" + seq + "\n\n")

	s.WriteString(dimStyle.Render("leds ") + renderLEDs(st.Panel, st.TempoLED) + "\n")
	s.WriteString(dimStyle.Render("strip") + " " + renderPixels(st.Pixels) + "\n")

	s.WriteString(helpStyle.Render("(1-9) channel  (up/down) hits  (left/right) offset  ([,]) length\n" +
		"(-,=) BPM -/+  (space) play/pause  (r)andomize  (x) reset  (c)lock pulse\n" +
		"(tab) sequence mode  (n/p) next/prev sequence  (s)ave  (q)uit"))

	if m.quitting {
		s.WriteString("\n")
	}
	return appStyle.Render(s.String())
}

func (m model) renderPattern(ch int, p rhythm.Pattern, step int) string {
	color := lipgloss.Color("255")
	if ch < len(m.palette) {
		color = lipgloss.Color(m.palette[ch].Hex())
	}
	hit := lipgloss.NewStyle().Foreground(color)

	var b strings.Builder
	for i := 0; i < rhythm.StepCount; i++ {
		cell := dimStyle.Render("·")
		if p.Hit(i) {
			cell = hit.Render("■")
		}
		if i == step {
			cell = headStyle.Render(cell)
		}
		b.WriteString(cell)
	}
	return b.String()
}

func renderLEDs(word uint16, tempo bool) string {
	var b strings.Builder
	for i := 0; i < rhythm.StepCount; i++ {
		if word&(1<<uint(i)) != 0 {
			b.WriteString("●")
		} else {
			b.WriteString("○")
		}
	}
	if tempo {
		b.WriteString(" ●")
	} else {
		b.WriteString(" ○")
	}
	return b.String()
}

func renderPixels(hex []string) string {
	var b strings.Builder
	for _, h := range hex {
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(h)).Render("█"))
	}
	return b.String()
}
