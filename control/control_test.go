package control

import (
	"math/rand"
	"testing"

	"github.com/robmorgan/euclid/bank"
	"github.com/robmorgan/euclid/event"
	"github.com/robmorgan/euclid/rhythm"
	"github.com/robmorgan/euclid/sequencer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type manualTicks struct {
	now rhythm.Tick
}

func (m *manualTicks) Now() rhythm.Tick {
	return m.now
}

type fixture struct {
	bus        *event.Bus
	ticks      *manualTicks
	clock      *rhythm.Clock
	engine     *sequencer.Engine
	bank       *bank.Bank
	dispatcher *Dispatcher
}

func newFixture(t *testing.T, queueLen int) *fixture {
	t.Helper()

	bus := event.NewBus()
	ticks := &manualTicks{}
	engine, err := sequencer.NewEngine(bus, 4, sequencer.WithRand(rand.New(rand.NewSource(3))))
	require.NoError(t, err)
	clock, err := rhythm.NewClock(bus, ticks, 120, engine.OnBeat)
	require.NoError(t, err)
	b := bank.New(bus, engine, clock, bank.NewMemoryStore(nil))
	require.NoError(t, b.Boot())

	return &fixture{
		bus:        bus,
		ticks:      ticks,
		clock:      clock,
		engine:     engine,
		bank:       b,
		dispatcher: NewDispatcher(bus, clock, engine, b, ticks, TempoRange{Min: 30, Max: 300}, queueLen),
	}
}

func TestChannelEventsApplyToActiveChannel(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 1)
	d := f.dispatcher

	require.NoError(t, d.Dispatch(Event{Kind: SelectChannel, Value: 2}))
	require.NoError(t, d.Dispatch(Event{Kind: Hits, Value: 4}))
	require.NoError(t, d.Dispatch(Event{Kind: Offset, Value: 1}))
	require.NoError(t, d.Dispatch(Event{Kind: Length, Value: -8}))

	st, err := f.engine.State(2)
	require.NoError(t, err)
	assert.Equal(t, sequencer.ChannelState{RhythmIndex: 4, Offset: 15, Length: 8}, st)

	untouched, err := f.engine.State(0)
	require.NoError(t, err)
	assert.Equal(t, sequencer.DefaultChannelState(), untouched)
}

func TestSelectInvalidChannel(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 1)
	err := f.dispatcher.Dispatch(Event{Kind: SelectChannel, Value: 9})
	require.ErrorIs(t, err, sequencer.ErrInvalidChannel)
	assert.Equal(t, 0, f.engine.ActiveChannel())
}

func TestTempoIsClamped(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		deltas   []int
		expected int
	}{
		{"up", []int{5}, 125},
		{"down", []int{-20}, 100},
		{"above max", []int{1000}, 300},
		{"below min", []int{-1000}, 30},
		{"back from max", []int{1000, -10}, 290},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t, 1)
			var seen []int
			f.bus.TempoChanged.Register(func(bpm int) { seen = append(seen, bpm) })

			for _, delta := range testCase.deltas {
				require.NoError(t, f.dispatcher.Dispatch(Event{Kind: Tempo, Value: delta}))
			}
			assert.Equal(t, testCase.expected, f.clock.Tempo())
			assert.Len(t, seen, len(testCase.deltas))
		})
	}
}

func TestPlayPauseAndClockPulse(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 1)
	d := f.dispatcher

	var steps []int
	f.bus.ActiveStep.Register(func(step int) { steps = append(steps, step) })

	require.NoError(t, d.Dispatch(Event{Kind: PlayPause}))
	assert.True(t, f.clock.Playing())

	f.ticks.now = 10
	require.NoError(t, d.Dispatch(Event{Kind: ClockPulse}))
	f.ticks.now = 20
	require.NoError(t, d.Dispatch(Event{Kind: ClockPulse}))
	assert.Equal(t, []int{0, 1}, steps)
	assert.True(t, f.clock.Snapshot().External)

	require.NoError(t, d.Dispatch(Event{Kind: PlayPause}))
	assert.False(t, f.clock.Playing())

	require.NoError(t, d.Dispatch(Event{Kind: ClockPulse}))
	assert.Equal(t, []int{0, 1}, steps)
}

func TestRandomizeAndReset(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 1)
	d := f.dispatcher

	require.NoError(t, d.Dispatch(Event{Kind: Randomize}))
	for _, st := range f.engine.States() {
		assert.GreaterOrEqual(t, st.Length, 8)
	}

	require.NoError(t, d.Dispatch(Event{Kind: ResetPattern}))
	for _, st := range f.engine.States() {
		assert.Equal(t, sequencer.DefaultChannelState(), st)
	}
}

func TestSequenceEvents(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 1)
	d := f.dispatcher

	var modes []bool
	f.bus.SequenceMode.Register(func(on bool) { modes = append(modes, on) })
	var selected []int
	f.bus.SequenceSelected.Register(func(slot int) { selected = append(selected, slot) })

	require.NoError(t, d.Dispatch(Event{Kind: SequenceMode, Value: 1}))
	require.NoError(t, d.Dispatch(Event{Kind: Hits, Value: 6}))
	require.NoError(t, d.Dispatch(Event{Kind: SequenceSchedule, Value: -1}))
	require.NoError(t, d.Dispatch(Event{Kind: SequenceSave}))
	require.NoError(t, d.Dispatch(Event{Kind: SequenceMode, Value: 0}))

	assert.Equal(t, []bool{true, false}, modes)
	assert.Equal(t, []int{15}, selected)

	// slot 15 was empty, so scheduling it while stopped reset the engine before the save
	slot, err := f.bank.Slot(15)
	require.NoError(t, err)
	require.Len(t, slot, 4)
	assert.Equal(t, sequencer.DefaultChannelState(), slot[0])
}

func TestEnqueueAndDrain(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 2)
	d := f.dispatcher

	assert.True(t, d.Enqueue(Event{Kind: Hits, Value: 2}))
	assert.True(t, d.Enqueue(Event{Kind: SelectChannel, Value: 99}))
	assert.False(t, d.Enqueue(Event{Kind: Hits, Value: 1}))

	assert.Equal(t, 2, d.Drain())
	assert.Equal(t, 0, d.Drain())

	st, err := f.engine.State(0)
	require.NoError(t, err)
	assert.Equal(t, 2, st.RhythmIndex)
}

func TestUnknownKind(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 1)
	require.Error(t, f.dispatcher.Dispatch(Event{Kind: Kind(99)}))
	assert.Equal(t, "kind(99)", Kind(99).String())
	assert.Equal(t, "clock-pulse", ClockPulse.String())
}
