package oscbridge

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/hypebeast/go-osc/osc"
	"github.com/robmorgan/euclid/control"
	"github.com/robmorgan/euclid/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	testingclock "k8s.io/utils/clock/testing"
)

type recordingQueue struct {
	mu     sync.Mutex
	events []control.Event
}

func (q *recordingQueue) Enqueue(ev control.Event) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.events = append(q.events, ev)
	return true
}

func (q *recordingQueue) snapshot() []control.Event {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]control.Event(nil), q.events...)
}

func TestDecode(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		msg      *osc.Message
		expected control.Event
	}{
		{"hits int32", osc.NewMessage("/euclid/hits", int32(-2)), control.Event{Kind: control.Hits, Value: -2}},
		{"tempo float", osc.NewMessage("/euclid/tempo", float32(5.0)), control.Event{Kind: control.Tempo, Value: 5}},
		{"channel int64", osc.NewMessage("/euclid/channel", int64(3)), control.Event{Kind: control.SelectChannel, Value: 3}},
		{"mode bool", osc.NewMessage("/euclid/sequence/mode", true), control.Event{Kind: control.SequenceMode, Value: 1}},
		{"play no arg", osc.NewMessage("/euclid/play"), control.Event{Kind: control.PlayPause}},
		{"clock pulse", osc.NewMessage("/euclid/clock"), control.Event{Kind: control.ClockPulse}},
		{"save", osc.NewMessage("/euclid/sequence/save"), control.Event{Kind: control.SequenceSave}},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			ev, err := Decode(testCase.msg)
			require.NoError(t, err)
			assert.Equal(t, testCase.expected, ev)
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	t.Parallel()

	_, err := Decode(osc.NewMessage("/euclid/unknown", int32(1)))
	require.Error(t, err)
	_, err = Decode(osc.NewMessage("/euclid/offset"))
	require.Error(t, err)
	_, err = Decode(osc.NewMessage("/euclid/offset", "left"))
	require.Error(t, err)
}

func TestInputDispatchesBundles(t *testing.T) {
	t.Parallel()

	q := &recordingQueue{}
	in := NewInput(q)

	inner := osc.NewBundle(time.Unix(0, 0))
	require.NoError(t, inner.Append(osc.NewMessage("/euclid/reset")))
	outer := osc.NewBundle(time.Unix(0, 0))
	require.NoError(t, outer.Append(osc.NewMessage("/euclid/length", int32(-1))))
	require.NoError(t, outer.Append(osc.NewMessage("/not/ours")))
	require.NoError(t, outer.Append(inner))

	in.Dispatch(outer)
	in.Dispatch(osc.NewMessage("/euclid/randomize"))

	assert.Equal(t, []control.Event{
		{Kind: control.Length, Value: -1},
		{Kind: control.ResetPattern},
		{Kind: control.Randomize},
	}, q.snapshot())
}

func TestServeConn(t *testing.T) {
	t.Parallel()

	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)

	q := &recordingQueue{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- ServeConn(ctx, conn, NewInput(q))
	}()

	port := conn.LocalAddr().(*net.UDPAddr).Port
	client := osc.NewClient("127.0.0.1", port)
	require.Eventually(t, func() bool {
		_ = client.Send(osc.NewMessage("/euclid/clock"))
		return len(q.snapshot()) > 0
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, control.ClockPulse, q.snapshot()[0].Kind)

	cancel()
	require.NoError(t, <-done)
}

type recordingSender struct {
	packets []osc.Packet
	err     error
}

func (s *recordingSender) Send(packet osc.Packet) error {
	s.packets = append(s.packets, packet)
	return s.err
}

func (s *recordingSender) messages() []*osc.Message {
	var out []*osc.Message
	for _, p := range s.packets {
		if msg, ok := p.(*osc.Message); ok {
			out = append(out, msg)
		}
	}
	return out
}

func TestOutputMirrorsEvents(t *testing.T) {
	t.Parallel()

	bus := event.NewBus()
	sender := &recordingSender{}
	clk := testingclock.NewFakePassiveClock(time.Unix(42, 0))
	NewOutput(bus, sender, clk)

	bus.TempoChanged.Emit(128)
	bus.ActiveStep.Emit(3)
	bus.PatternChanged.Emit(0x0421)
	bus.AudioTriggers.Emit([]bool{true, false})
	bus.SequenceSelected.Emit(2)
	bus.SequenceSaving.Emit(true)
	bus.SequenceMode.Emit(false)

	msgs := sender.messages()
	require.Len(t, msgs, 7)
	assert.Equal(t, "/euclid/tempo", msgs[0].Address)
	assert.Equal(t, []interface{}{int32(128)}, msgs[0].Arguments)
	assert.Equal(t, []interface{}{int32(3)}, msgs[1].Arguments)
	assert.Equal(t, []interface{}{int32(0x0421)}, msgs[2].Arguments)
	assert.Equal(t, []interface{}{true, false}, msgs[3].Arguments)
	assert.Equal(t, "/euclid/sequence/selected", msgs[4].Address)
	assert.Equal(t, []interface{}{true}, msgs[5].Arguments)
	assert.Equal(t, []interface{}{false}, msgs[6].Arguments)
}

func TestOutputBundlesNotes(t *testing.T) {
	t.Parallel()

	bus := event.NewBus()
	sender := &recordingSender{err: errors.New("no route")}
	clk := testingclock.NewFakePassiveClock(time.Unix(42, 0))
	NewOutput(bus, sender, clk)

	bus.NoteEvents.Emit(nil)
	assert.Empty(t, sender.packets)

	bus.NoteEvents.Emit([]event.NoteEvent{
		{Channel: 0, Pitch: 36, Velocity: event.VelocityOff},
		{Channel: 1, Pitch: 38, Velocity: event.VelocityOn},
	})
	require.Len(t, sender.packets, 1)
	bundle, ok := sender.packets[0].(*osc.Bundle)
	require.True(t, ok)
	require.Len(t, bundle.Messages, 2)
	assert.Equal(t, []interface{}{int32(1), int32(38), int32(127)}, bundle.Messages[1].Arguments)
}
