// Package oscbridge connects the sequencer to OSC: control messages and external clock pulses come
// in, sequencer events go out.
package oscbridge

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/hypebeast/go-osc/osc"
	"github.com/robmorgan/euclid/control"
	"github.com/robmorgan/euclid/logger"
	"github.com/sirupsen/logrus"
)

// Prefix is the root of every OSC address the sequencer handles.
const Prefix = "/euclid"

// inputs maps control addresses to event kinds. Kinds whose value is a delta or an index require an
// argument.
var inputs = map[string]struct {
	kind   control.Kind
	hasArg bool
}{
	Prefix + "/hits":              {control.Hits, true},
	Prefix + "/offset":            {control.Offset, true},
	Prefix + "/length":            {control.Length, true},
	Prefix + "/channel":           {control.SelectChannel, true},
	Prefix + "/tempo":             {control.Tempo, true},
	Prefix + "/play":              {control.PlayPause, false},
	Prefix + "/randomize":         {control.Randomize, false},
	Prefix + "/reset":             {control.ResetPattern, false},
	Prefix + "/clock":             {control.ClockPulse, false},
	Prefix + "/sequence/schedule": {control.SequenceSchedule, true},
	Prefix + "/sequence/save":     {control.SequenceSave, false},
	Prefix + "/sequence/mode":     {control.SequenceMode, true},
}

// Enqueuer hands events to the driving loop.
type Enqueuer interface {
	Enqueue(ev control.Event) bool
}

// Input is an osc.Dispatcher that turns OSC messages into control events. It runs on the OSC
// server's goroutine and only ever enqueues.
type Input struct {
	queue Enqueuer
}

// NewInput creates an input feeding queue.
func NewInput(queue Enqueuer) *Input {
	return &Input{queue: queue}
}

// Dispatch implements osc.Dispatcher.
func (in *Input) Dispatch(packet osc.Packet) {
	switch packet := packet.(type) {
	case *osc.Message:
		in.handle(packet)
	case *osc.Bundle:
		for _, msg := range packet.Messages {
			in.handle(msg)
		}
		for _, b := range packet.Bundles {
			in.Dispatch(b)
		}
	}
}

func (in *Input) handle(msg *osc.Message) {
	log := logger.GetProjectLogger()

	ev, err := Decode(msg)
	if err != nil {
		log.WithField("address", msg.Address).WithError(err).Debug("Ignoring OSC message")
		return
	}
	in.queue.Enqueue(ev)
}

// Decode converts one OSC message into a control event.
func Decode(msg *osc.Message) (control.Event, error) {
	in, ok := inputs[msg.Address]
	if !ok {
		return control.Event{}, fmt.Errorf("unknown address %s", msg.Address)
	}

	ev := control.Event{Kind: in.kind}
	if len(msg.Arguments) == 0 {
		if in.hasArg {
			return control.Event{}, fmt.Errorf("%s needs an argument", msg.Address)
		}
		return ev, nil
	}

	v, err := intArg(msg.Arguments[0])
	if err != nil {
		return control.Event{}, fmt.Errorf("%s: %w", msg.Address, err)
	}
	ev.Value = v
	return ev, nil
}

func intArg(arg interface{}) (int, error) {
	switch v := arg.(type) {
	case int32:
		return int(v), nil
	case int64:
		return int(v), nil
	case float32:
		return int(v), nil
	case float64:
		return int(v), nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	}
	return 0, fmt.Errorf("unsupported argument type %T", arg)
}

// Serve listens for OSC packets on addr until ctx is done.
func Serve(ctx context.Context, addr string, in *Input) error {
	conn, err := net.ListenPacket("udp", addr)
	if err != nil {
		return fmt.Errorf("listening for OSC on %s: %w", addr, err)
	}
	return ServeConn(ctx, conn, in)
}

// ServeConn serves OSC packets from conn until ctx is done, then closes conn.
func ServeConn(ctx context.Context, conn net.PacketConn, in *Input) error {
	log := logger.GetProjectLogger()
	log.WithFields(logrus.Fields{
		"addr": conn.LocalAddr().String(),
	}).Info("Listening for OSC")

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	server := &osc.Server{Dispatcher: in}
	err := server.Serve(conn)
	if ctx.Err() != nil {
		log.Info("OSC input shutdown")
		return nil
	}
	if err != nil && !errors.Is(err, net.ErrClosed) {
		return fmt.Errorf("serving OSC: %w", err)
	}
	return nil
}
