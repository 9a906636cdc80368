// Package control maps discrete input events onto the sequencer's mutators.
package control

import (
	"fmt"

	"github.com/robmorgan/euclid/bank"
	"github.com/robmorgan/euclid/event"
	"github.com/robmorgan/euclid/logger"
	"github.com/robmorgan/euclid/rhythm"
	"github.com/robmorgan/euclid/sequencer"
	"github.com/robmorgan/euclid/utils"
	"github.com/sirupsen/logrus"
)

// Kind identifies an input event.
type Kind int

const (
	// Hits, Offset and Length carry a delta for the active channel.
	Hits Kind = iota
	Offset
	Length
	// SelectChannel carries a channel index.
	SelectChannel
	// Tempo carries a bpm delta.
	Tempo
	PlayPause
	Randomize
	ResetPattern
	// ClockPulse is one external clock pulse.
	ClockPulse
	// SequenceSchedule carries a slot delta.
	SequenceSchedule
	SequenceSave
	// SequenceMode carries 1 while the sequence button is held and 0 when released.
	SequenceMode
)

var kindNames = map[Kind]string{
	Hits:             "hits",
	Offset:           "offset",
	Length:           "length",
	SelectChannel:    "select-channel",
	Tempo:            "tempo",
	PlayPause:        "play-pause",
	Randomize:        "randomize",
	ResetPattern:     "reset-pattern",
	ClockPulse:       "clock-pulse",
	SequenceSchedule: "sequence-schedule",
	SequenceSave:     "sequence-save",
	SequenceMode:     "sequence-mode",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Event is one input: a kind and an optional integer payload.
type Event struct {
	Kind  Kind
	Value int
}

// TempoRange bounds tempo changes made through Tempo events.
type TempoRange struct {
	Min int
	Max int
}

// Dispatcher applies input events to the clock, engine and bank. Dispatch must be called from the
// driving loop; other goroutines hand events over with Enqueue.
type Dispatcher struct {
	bus    *event.Bus
	clock  *rhythm.Clock
	engine *sequencer.Engine
	bank   *bank.Bank
	ticks  rhythm.TickSource
	tempo  TempoRange
	queue  chan Event
}

// NewDispatcher creates a dispatcher with room for queueLen events from other goroutines.
func NewDispatcher(bus *event.Bus, clock *rhythm.Clock, engine *sequencer.Engine, b *bank.Bank, ticks rhythm.TickSource, tempo TempoRange, queueLen int) *Dispatcher {
	return &Dispatcher{
		bus:    bus,
		clock:  clock,
		engine: engine,
		bank:   b,
		ticks:  ticks,
		tempo:  tempo,
		queue:  make(chan Event, queueLen),
	}
}

// Dispatch applies ev. Deltas are clamped by the mutators; an invalid channel index is rejected.
func (d *Dispatcher) Dispatch(ev Event) error {
	logger.GetProjectLogger().WithFields(logrus.Fields{
		"kind":  ev.Kind.String(),
		"value": ev.Value,
	}).Debug("Control event")

	active := d.engine.ActiveChannel()
	switch ev.Kind {
	case Hits:
		return d.engine.UpdateHits(active, ev.Value)
	case Offset:
		return d.engine.UpdateOffset(active, ev.Value)
	case Length:
		return d.engine.UpdateLength(active, ev.Value)
	case SelectChannel:
		return d.engine.SetActiveChannel(ev.Value)
	case Tempo:
		bpm := utils.Clamp(d.clock.Tempo()+ev.Value, d.tempo.Min, d.tempo.Max)
		return d.clock.SetTempo(bpm)
	case PlayPause:
		d.clock.TogglePlayPause()
	case Randomize:
		d.engine.Randomize()
	case ResetPattern:
		d.engine.Reset()
	case ClockPulse:
		d.clock.TriggerNext(d.ticks.Now())
	case SequenceSchedule:
		return d.bank.Schedule(ev.Value)
	case SequenceSave:
		return d.bank.SaveSelected()
	case SequenceMode:
		d.bus.SequenceMode.Emit(ev.Value != 0)
	default:
		return fmt.Errorf("unknown control event %s", ev.Kind)
	}
	return nil
}

// Enqueue hands ev to the driving loop. It never blocks; it returns false when the queue is full
// and the event was dropped.
func (d *Dispatcher) Enqueue(ev Event) bool {
	select {
	case d.queue <- ev:
		return true
	default:
		logger.GetProjectLogger().WithField("kind", ev.Kind.String()).Warn("Control queue full, dropping event")
		return false
	}
}

// Drain dispatches every queued event without blocking. Errors are logged, not returned, so one
// bad event does not hold up the rest.
func (d *Dispatcher) Drain() int {
	n := 0
	for {
		select {
		case ev := <-d.queue:
			n++
			if err := d.Dispatch(ev); err != nil {
				logger.GetProjectLogger().WithError(err).WithField("kind", ev.Kind.String()).Warn("Control event rejected")
			}
		default:
			return n
		}
	}
}
