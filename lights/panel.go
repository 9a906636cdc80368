// Package lights renders sequencer state onto LEDs and DMX fixtures.
package lights

import (
	"io"

	"github.com/robmorgan/euclid/event"
	"github.com/robmorgan/euclid/logger"
	"github.com/robmorgan/euclid/rhythm"
)

const allLEDs uint16 = 0xFFFF

// Panel tracks the 16 step LEDs and the tempo LED. The LEDs sit behind two chained shift registers,
// so a frame is two bytes, high byte first.
type Panel struct {
	pattern uint16
	step    int
	slot    int
	seqMode bool
	saving  bool
	out     io.Writer
	last    [2]byte
	flushed bool
}

// NewPanel creates a panel following bus. out receives a frame whenever the LEDs change; it may be
// nil.
func NewPanel(bus *event.Bus, out io.Writer) *Panel {
	p := &Panel{step: -1, out: out}

	bus.PatternChanged.Register(func(pattern uint16) {
		p.pattern = pattern
		p.flush()
	})
	bus.ActiveStep.Register(func(step int) {
		p.step = step
		p.flush()
	})
	bus.SequenceSelected.Register(func(slot int) {
		p.slot = slot
		p.flush()
	})
	bus.SequenceMode.Register(func(on bool) {
		p.seqMode = on
		p.flush()
	})
	bus.SequenceSaving.Register(func(on bool) {
		p.saving = on
		p.flush()
	})
	return p
}

// SetOutput directs frames to out and writes the current frame.
func (p *Panel) SetOutput(out io.Writer) {
	p.out = out
	p.flushed = false
	p.flush()
}

// Word returns the 16 step LEDs, bit i lighting step i. While saving every LED is lit; in sequence
// mode only the selected slot is lit; otherwise the active channel's pattern is shown with the
// play head added.
func (p *Panel) Word() uint16 {
	switch {
	case p.saving:
		return allLEDs
	case p.seqMode:
		return 1 << uint(p.slot)
	}

	word := p.pattern
	if p.step >= 0 {
		word |= 1 << uint(p.step)
	}
	return word
}

// Bytes returns the shift-register frame for Word.
func (p *Panel) Bytes() [2]byte {
	w := p.Word()
	return [2]byte{byte(w >> 8), byte(w)}
}

// TempoLED reports whether the tempo LED is lit: on the first step of every beat.
func (p *Panel) TempoLED() bool {
	return p.step >= 0 && p.step%rhythm.StepsPerBeat == 0
}

func (p *Panel) flush() {
	if p.out == nil {
		return
	}

	frame := p.Bytes()
	if p.flushed && frame == p.last {
		return
	}
	if _, err := p.out.Write(frame[:]); err != nil {
		logger.GetProjectLogger().WithError(err).Warn("Could not write LED panel frame")
		return
	}
	p.last = frame
	p.flushed = true
}
