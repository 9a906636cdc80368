package rhythm

import "fmt"

// Snapshot is a read-only copy of the clock's timing state.
type Snapshot struct {
	// Tempo in beats per minute.
	Tempo int

	// StepsPerBeat is the number of steps per quarter note.
	StepsPerBeat int

	// BeatMillis is the length of one step in milliseconds.
	BeatMillis uint32

	// LastBeat is the scheduled time of the most recent step.
	LastBeat Tick

	// Step is the index of the most recent step.
	Step int

	State State

	// External is true while the clock follows external pulses.
	External bool
}

// BeatWithinBar returns the 1-based quarter note of the current step.
func (s Snapshot) BeatWithinBar() int {
	return s.Step/s.StepsPerBeat + 1
}

// IsDownBeat reports whether the current step starts a quarter note.
func (s Snapshot) IsDownBeat() bool {
	return s.Step%s.StepsPerBeat == 0
}

// Marker returns the position as "beat.step", both 1-based.
func (s Snapshot) Marker() string {
	return fmt.Sprintf("%d.%d", s.BeatWithinBar(), s.Step%s.StepsPerBeat+1)
}

// NextBeat returns the tick at which the next step is due on the internal clock.
func (s Snapshot) NextBeat() Tick {
	return s.LastBeat + Tick(s.BeatMillis)
}
