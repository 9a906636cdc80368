package oscbridge

import (
	"github.com/hypebeast/go-osc/osc"
	"github.com/robmorgan/euclid/event"
	"github.com/robmorgan/euclid/logger"
	"k8s.io/utils/clock"
)

// Sender sends one OSC packet. *osc.Client satisfies it.
type Sender interface {
	Send(packet osc.Packet) error
}

// Output mirrors the sequencer's events to an OSC receiver.
type Output struct {
	client Sender
	clock  clock.PassiveClock
}

// NewClient creates a UDP OSC client.
func NewClient(host string, port int) *osc.Client {
	return osc.NewClient(host, port)
}

// NewOutput registers on every topic of bus and forwards each event to client. Note batches go
// out as one bundle stamped with clk's time.
func NewOutput(bus *event.Bus, client Sender, clk clock.PassiveClock) *Output {
	o := &Output{client: client, clock: clk}

	bus.TempoChanged.Register(func(bpm int) {
		o.send(Prefix+"/tempo", int32(bpm))
	})
	bus.ActiveStep.Register(func(step int) {
		o.send(Prefix+"/step", int32(step))
	})
	bus.PatternChanged.Register(func(pattern uint16) {
		o.send(Prefix+"/pattern", int32(pattern))
	})
	bus.AudioTriggers.Register(func(triggers []bool) {
		args := make([]interface{}, len(triggers))
		for i, hit := range triggers {
			args[i] = hit
		}
		o.send(Prefix+"/triggers", args...)
	})
	bus.NoteEvents.Register(func(notes []event.NoteEvent) {
		if len(notes) == 0 {
			return
		}
		bundle := osc.NewBundle(o.clock.Now())
		for _, n := range notes {
			bundle.Append(osc.NewMessage(Prefix+"/note", int32(n.Channel), int32(n.Pitch), int32(n.Velocity)))
		}
		o.sendPacket(bundle)
	})
	bus.SequenceSelected.Register(func(slot int) {
		o.send(Prefix+"/sequence/selected", int32(slot))
	})
	bus.SequenceSaving.Register(func(saving bool) {
		o.send(Prefix+"/sequence/saving", saving)
	})
	bus.SequenceMode.Register(func(on bool) {
		o.send(Prefix+"/sequence/mode", on)
	})
	return o
}

func (o *Output) send(address string, args ...interface{}) {
	o.sendPacket(osc.NewMessage(address, args...))
}

func (o *Output) sendPacket(packet osc.Packet) {
	if err := o.client.Send(packet); err != nil {
		logger.GetProjectLogger().WithError(err).Debug("Could not send OSC packet")
	}
}
