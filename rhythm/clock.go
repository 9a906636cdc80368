package rhythm

import (
	"errors"
	"fmt"

	"github.com/robmorgan/euclid/event"
	"github.com/robmorgan/euclid/logger"
	"github.com/sirupsen/logrus"
)

const (
	// StepsPerBeat is the number of sequencer steps per quarter note.
	StepsPerBeat = 4

	// fallbackBeats is how many beat intervals may pass without an external pulse before
	// the clock reverts to its internal tempo.
	fallbackBeats = 4
)

// ErrInvalidTempo is returned for a tempo that does not produce a positive step interval.
var ErrInvalidTempo = errors.New("invalid tempo")

// State is the transport state of the clock.
type State int

const (
	Stopped State = iota
	Playing
)

func (s State) String() string {
	if s == Playing {
		return "playing"
	}
	return "stopped"
}

// Clock decides when the sequencer advances. It is polled with Update from the driving loop and
// calls its step callback once per step boundary.
//
// The next boundary is scheduled from the ideal time of the previous one rather than the time
// Update happened to observe it, so lateness is not accumulated from step to step.
type Clock struct {
	bus    *event.Bus
	ticks  TickSource
	onStep func(step int)

	stepCount  int
	state      State
	tempo      int
	beatMillis uint32
	lastBeat   Tick
	step       int
	external   bool
}

// NewClock creates a stopped clock at bpm. onStep is called with the new step index on every
// step boundary.
func NewClock(bus *event.Bus, ticks TickSource, bpm int, onStep func(step int)) (*Clock, error) {
	c := &Clock{
		bus:       bus,
		ticks:     ticks,
		onStep:    onStep,
		stepCount: StepCount,
		step:      StepCount - 1,
	}
	if err := c.SetTempo(bpm); err != nil {
		return nil, err
	}
	return c, nil
}

// stepMillis returns the length of one step in milliseconds at bpm.
func stepMillis(bpm int) uint32 {
	return uint32(60000 / (StepsPerBeat * bpm))
}

// SetTempo sets a new tempo and recomputes the step interval. It may be called in any state.
func (c *Clock) SetTempo(bpm int) error {
	if bpm <= 0 || stepMillis(bpm) == 0 {
		return fmt.Errorf("%w: %d bpm", ErrInvalidTempo, bpm)
	}

	c.tempo = bpm
	c.beatMillis = stepMillis(bpm)
	c.bus.TempoChanged.Emit(bpm)
	return nil
}

// Tempo returns the tempo in beats per minute.
func (c *Clock) Tempo() int {
	return c.tempo
}

// BeatMillis returns the length of one step in milliseconds.
func (c *Clock) BeatMillis() uint32 {
	return c.beatMillis
}

// Playing reports whether the clock is running.
func (c *Clock) Playing() bool {
	return c.state == Playing
}

// Step returns the index of the step that fired last.
func (c *Clock) Step() int {
	return c.step
}

// Play starts the clock so that the next Update fires a step straight away.
func (c *Clock) Play() {
	c.lastBeat = c.ticks.Now() - Tick(c.beatMillis)
	c.state = Playing
}

// Pause stops the clock and keeps the current step.
func (c *Clock) Pause() {
	c.state = Stopped
}

// Stop stops the clock and rewinds it so the next Play starts at step 0.
func (c *Clock) Stop() {
	c.state = Stopped
	c.step = c.stepCount - 1
	c.lastBeat = 0
}

// TogglePlayPause switches between Play and Pause.
func (c *Clock) TogglePlayPause() {
	log := logger.GetProjectLogger()
	if c.Playing() {
		log.Info("Sequencer paused")
		c.Pause()
		return
	}
	log.Info("Sequencer playing")
	c.Play()
}

// Update advances the clock to now. It must be called regularly and never blocks.
func (c *Clock) Update(now Tick) {
	if c.state != Playing {
		return
	}

	delta := int64(Diff(now, c.lastBeat))
	beat := int64(c.beatMillis)
	if delta < beat {
		return
	}

	if !c.external {
		c.trigger(now, delta)
		return
	}

	if delta > fallbackBeats*beat {
		c.external = false
		logger.GetProjectLogger().WithFields(logrus.Fields{
			"elapsed_ms": delta,
			"step":       c.step,
		}).Info("No external clock pulses, reverting to internal clock")
	}
}

// TriggerNext advances exactly one step on an external clock pulse and marks the clock as
// externally driven.
func (c *Clock) TriggerNext(now Tick) {
	c.external = true
	c.trigger(now, int64(c.beatMillis))
}

// trigger fires the next step. delta is the time since the last scheduled boundary; any overshoot
// past one interval is carried into the next boundary.
func (c *Clock) trigger(now Tick, delta int64) {
	if c.state != Playing {
		return
	}

	c.step = (c.step + 1) % c.stepCount
	if c.onStep != nil {
		c.onStep(c.step)
	}

	beat := int64(c.beatMillis)
	overshoot := delta - beat
	if overshoot >= beat {
		// more than a whole step late: re-anchor instead of firing the missed steps back to back
		logger.GetProjectLogger().WithFields(logrus.Fields{
			"late_ms": overshoot,
			"step":    c.step,
		}).Debug("Dropping late steps")
		overshoot = 0
	}
	c.lastBeat = now - Tick(overshoot)
}

// Snapshot captures the clock's current timing state.
func (c *Clock) Snapshot() Snapshot {
	return Snapshot{
		Tempo:        c.tempo,
		StepsPerBeat: StepsPerBeat,
		BeatMillis:   c.beatMillis,
		LastBeat:     c.lastBeat,
		Step:         c.step,
		State:        c.state,
		External:     c.external,
	}
}
