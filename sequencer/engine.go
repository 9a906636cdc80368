package sequencer

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/robmorgan/euclid/event"
	"github.com/robmorgan/euclid/logger"
	"github.com/robmorgan/euclid/rhythm"
	"github.com/robmorgan/euclid/utils"
	"github.com/sirupsen/logrus"
)

const (
	// MaxChannels is the number of MIDI channels available to map sequencer channels onto.
	MaxChannels = 16

	// noteLength is the gate of every note in steps: a note started at step s is released at s+2.
	noteLength = 2
)

// ErrInvalidChannel is returned when a channel index is outside the engine.
var ErrInvalidChannel = errors.New("invalid channel")

// Engine owns the rhythm state of every channel and turns it into triggers on each step.
type Engine struct {
	bus      *event.Bus
	states   []ChannelState
	patterns []rhythm.Pattern
	pitches  []uint8
	active   int
	stepHook func(step int)
	rand     *rand.Rand
}

// Option configures an Engine.
type Option func(*Engine)

// WithPitches sets the note pitch of each channel. By default a channel plays the pitch equal to
// its index.
func WithPitches(pitches []uint8) Option {
	return func(e *Engine) {
		e.pitches = append([]uint8(nil), pitches...)
	}
}

// WithRand sets the random source used by Randomize.
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) {
		e.rand = r
	}
}

// NewEngine creates an engine with channels channels, all in the default state.
func NewEngine(bus *event.Bus, channels int, opts ...Option) (*Engine, error) {
	if channels < 1 || channels > MaxChannels {
		return nil, fmt.Errorf("%w: channel count %d not in 1..%d", ErrInvalidChannel, channels, MaxChannels)
	}

	e := &Engine{
		bus:      bus,
		states:   make([]ChannelState, channels),
		patterns: make([]rhythm.Pattern, channels),
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.pitches == nil {
		e.pitches = make([]uint8, channels)
		for ch := range e.pitches {
			e.pitches[ch] = uint8(ch)
		}
	}
	if len(e.pitches) != channels {
		return nil, fmt.Errorf("got %d pitches for %d channels", len(e.pitches), channels)
	}
	if e.rand == nil {
		e.rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	for ch := range e.states {
		e.states[ch] = DefaultChannelState()
		e.patterns[ch] = e.states[ch].Pattern()
	}
	return e, nil
}

// Channels returns the number of channels.
func (e *Engine) Channels() int {
	return len(e.states)
}

func (e *Engine) checkChannel(ch int) error {
	if ch < 0 || ch >= len(e.states) {
		return fmt.Errorf("%w: %d not in 0..%d", ErrInvalidChannel, ch, len(e.states)-1)
	}
	return nil
}

// recomputePattern rebuilds the live pattern of ch from its state and publishes it when ch is the
// active channel.
func (e *Engine) recomputePattern(ch int) {
	e.patterns[ch] = e.states[ch].Pattern()
	if ch == e.active {
		e.bus.PatternChanged.Emit(uint16(e.patterns[ch]))
	}
}

func (e *Engine) logChange(ch int, what string) {
	s := e.states[ch]
	logger.GetProjectLogger().WithFields(logrus.Fields{
		"channel": ch,
		"hits":    s.RhythmIndex,
		"offset":  s.Offset,
		"length":  s.Length,
		"pattern": e.patterns[ch].String(),
	}).Debug(what)
}

// UpdateHits moves the channel's rhythm index by delta, clamped to 0..16 hits.
func (e *Engine) UpdateHits(ch, delta int) error {
	if err := e.checkChannel(ch); err != nil {
		return err
	}

	s := &e.states[ch]
	s.RhythmIndex = utils.Clamp(s.RhythmIndex+delta, 0, rhythm.MaxHits)
	e.recomputePattern(ch)
	e.logChange(ch, "Hits updated")
	return nil
}

// UpdateOffset moves the channel's rotation. Turning the control up rotates the pattern towards
// earlier steps, so the offset decreases by delta and wraps around the cycle.
func (e *Engine) UpdateOffset(ch, delta int) error {
	if err := e.checkChannel(ch); err != nil {
		return err
	}

	s := &e.states[ch]
	s.Offset = utils.Mod(s.Offset-delta, rhythm.StepCount)
	e.recomputePattern(ch)
	e.logChange(ch, "Offset updated")
	return nil
}

// UpdateLength moves the channel's length by delta, clamped to 0..16 steps.
func (e *Engine) UpdateLength(ch, delta int) error {
	if err := e.checkChannel(ch); err != nil {
		return err
	}

	s := &e.states[ch]
	s.Length = utils.Clamp(s.Length+delta, 0, rhythm.StepCount)
	e.recomputePattern(ch)
	e.logChange(ch, "Length updated")
	return nil
}

// SetActiveChannel selects the channel whose pattern changes are published, and republishes its
// current pattern.
func (e *Engine) SetActiveChannel(ch int) error {
	if err := e.checkChannel(ch); err != nil {
		return err
	}

	e.active = ch
	e.recomputePattern(ch)
	return nil
}

// ActiveChannel returns the channel whose pattern changes are published.
func (e *Engine) ActiveChannel() int {
	return e.active
}

// Randomize redraws every channel. Lengths are drawn from the upper half of the cycle.
func (e *Engine) Randomize() {
	half := rhythm.StepCount / 2
	for ch := range e.states {
		e.states[ch] = ChannelState{
			RhythmIndex: e.rand.Intn(rhythm.MaxHits + 1),
			Offset:      e.rand.Intn(rhythm.StepCount),
			Length:      half + e.rand.Intn(rhythm.StepCount-half+1),
		}
		e.recomputePattern(ch)
	}
	logger.GetProjectLogger().Debugf("Patterns randomized\n%s", e)
}

// Reset returns every channel to the default state.
func (e *Engine) Reset() {
	for ch := range e.states {
		e.states[ch] = DefaultChannelState()
		e.recomputePattern(ch)
	}
	logger.GetProjectLogger().Debug("Patterns reset")
}

// State returns the rhythm parameters of ch.
func (e *Engine) State(ch int) (ChannelState, error) {
	if err := e.checkChannel(ch); err != nil {
		return ChannelState{}, err
	}
	return e.states[ch], nil
}

// States returns a copy of every channel's parameters.
func (e *Engine) States() []ChannelState {
	return append([]ChannelState(nil), e.states...)
}

// SetStates replaces every channel's parameters. Values are clamped into range; channels missing
// from states return to the default state and extra entries are ignored.
func (e *Engine) SetStates(states []ChannelState) {
	for ch := range e.states {
		if ch < len(states) {
			e.states[ch] = states[ch].Clamped()
		} else {
			e.states[ch] = DefaultChannelState()
		}
		e.recomputePattern(ch)
	}
}

// Pattern returns the live pattern of ch.
func (e *Engine) Pattern(ch int) (rhythm.Pattern, error) {
	if err := e.checkChannel(ch); err != nil {
		return 0, err
	}
	return e.patterns[ch], nil
}

// Patterns returns a copy of every live pattern.
func (e *Engine) Patterns() []rhythm.Pattern {
	return append([]rhythm.Pattern(nil), e.patterns...)
}

// SetStepHook installs a function called at the start of every step, before any pattern is read.
func (e *Engine) SetStepHook(fn func(step int)) {
	e.stepHook = fn
}

// OnBeat plays step: it publishes the step, the per-channel trigger vector and the note events.
//
// A channel's note is released two steps after it started, so the note-off for step is decided by
// the hit at step-2.
func (e *Engine) OnBeat(step int) {
	if e.stepHook != nil {
		e.stepHook(step)
	}

	e.bus.ActiveStep.Emit(step)

	released := utils.Mod(step-noteLength, rhythm.StepCount)
	triggers := make([]bool, len(e.patterns))
	notes := make([]event.NoteEvent, 0, len(e.patterns))
	for ch, p := range e.patterns {
		hit := p.Hit(step)
		triggers[ch] = hit

		if p.Hit(released) {
			notes = append(notes, event.NoteEvent{Channel: uint8(ch), Pitch: e.pitches[ch], Velocity: event.VelocityOff})
		}
		if hit {
			notes = append(notes, event.NoteEvent{Channel: uint8(ch), Pitch: e.pitches[ch], Velocity: event.VelocityOn})
		}
	}

	e.bus.AudioTriggers.Emit(triggers)
	e.bus.NoteEvents.Emit(notes)
}

func (e *Engine) String() string {
	lines := make([]string, len(e.patterns))
	for ch, p := range e.patterns {
		lines[ch] = fmt.Sprintf("ch: %d pattern: %s", ch, p)
	}
	return strings.Join(lines, "\n")
}
