// Package midiout sends the sequencer's note events as MIDI messages.
package midiout

import (
	"io"

	"github.com/robmorgan/euclid/event"
	"github.com/robmorgan/euclid/logger"
	"github.com/sirupsen/logrus"
	"gitlab.com/gomidi/midi/v2"
)

// Sender delivers one MIDI message.
type Sender func(msg midi.Message) error

// WriterSender sends raw MIDI bytes to w, e.g. a serial port wired to a DIN socket.
func WriterSender(w io.Writer) Sender {
	return func(msg midi.Message) error {
		_, err := w.Write(msg.Bytes())
		return err
	}
}

// Message converts a note event to a MIDI message on the MIDI channel numbered like the sequencer
// channel. A zero velocity becomes a Note Off.
func Message(ev event.NoteEvent) midi.Message {
	ch := ev.Channel & 0x0F
	if ev.IsNoteOn() {
		return midi.NoteOn(ch, ev.Pitch, ev.Velocity)
	}
	return midi.NoteOff(ch, ev.Pitch)
}

// Output forwards every NoteEvents batch on a bus to a sender.
type Output struct {
	send   Sender
	failed int
}

// New creates an output registered on bus.
func New(bus *event.Bus, send Sender) *Output {
	o := &Output{send: send}
	bus.NoteEvents.Register(o.handle)
	return o
}

func (o *Output) handle(notes []event.NoteEvent) {
	for _, ev := range notes {
		if err := o.send(Message(ev)); err != nil {
			o.failed++
			logger.GetProjectLogger().WithFields(logrus.Fields{
				"channel": ev.Channel,
				"pitch":   ev.Pitch,
			}).WithError(err).Warn("Could not send MIDI message")
		}
	}
}

// Failed returns how many messages could not be sent.
func (o *Output) Failed() int {
	return o.failed
}
