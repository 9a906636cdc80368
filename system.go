package main

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/faiface/beep"
	"github.com/nickysemenza/gola"
	"github.com/robmorgan/euclid/audio"
	"github.com/robmorgan/euclid/bank"
	"github.com/robmorgan/euclid/config"
	"github.com/robmorgan/euclid/control"
	"github.com/robmorgan/euclid/event"
	"github.com/robmorgan/euclid/lights"
	"github.com/robmorgan/euclid/logger"
	"github.com/robmorgan/euclid/midiout"
	"github.com/robmorgan/euclid/oscbridge"
	"github.com/robmorgan/euclid/rhythm"
	"github.com/robmorgan/euclid/sequencer"
	"github.com/robmorgan/euclid/serialport"
	"k8s.io/utils/clock"
)

// channelStatus is one row of the status view.
type channelStatus struct {
	State   sequencer.ChannelState
	Pattern rhythm.Pattern
}

// status is a copy of everything the UI shows, safe to hand to another goroutine.
type status struct {
	Tempo         int
	Step          int
	Playing       bool
	External      bool
	Active        int
	Channels      []channelStatus
	Selected      int
	Pending       int
	SwitchPending bool
	SequenceMode  bool
	Saving        bool
	Panel         uint16
	TempoLED      bool
	Pixels        []string
}

// system wires the sequencer core to its inputs and outputs. Everything except Enqueue and Status
// must be called from the goroutine driving Poll.
type system struct {
	cfg   config.EuclidConfig
	clk   clock.WithTicker
	bus   *event.Bus
	ticks *rhythm.ClockTicks

	clock    *rhythm.Clock
	engine   *sequencer.Engine
	bank     *bank.Bank
	dispatch *control.Dispatcher

	panel   *lights.Panel
	pixels  *lights.Pixels
	dmx     *lights.DMXState
	flasher *lights.Flasher
	sampler *audio.Sampler

	seqMode bool
	saving  bool
	dirty   bool

	statusLock sync.Mutex
	status     status

	closers []io.Closer
}

// newSystem builds the sequencer core over store and boots the sequence bank. No hardware is
// opened until attachOutputs.
func newSystem(cfg config.EuclidConfig, clk clock.WithTicker, store bank.Store) (*system, error) {
	s := &system{
		cfg:   cfg,
		clk:   clk,
		bus:   event.NewBus(),
		ticks: rhythm.NewClockTicks(clk),
		dirty: true,
	}

	var opts []sequencer.Option
	if len(cfg.Pitches) > 0 {
		opts = append(opts, sequencer.WithPitches(cfg.Pitches))
	}
	engine, err := sequencer.NewEngine(s.bus, cfg.Channels, opts...)
	if err != nil {
		return nil, err
	}
	s.engine = engine

	s.clock, err = rhythm.NewClock(s.bus, s.ticks, cfg.Tempo, engine.OnBeat)
	if err != nil {
		return nil, err
	}

	s.bank = bank.New(s.bus, engine, s.clock, store)
	s.dispatch = control.NewDispatcher(s.bus, s.clock, engine, s.bank, s.ticks,
		control.TempoRange{Min: cfg.MinTempo, Max: cfg.MaxTempo}, cfg.OSC.QueueLength)

	s.panel = lights.NewPanel(s.bus, nil)
	s.pixels = lights.NewPixels(s.bus, lights.NewPalette(cfg.Colors))
	s.dmx = lights.NewDMXState()
	s.flasher = lights.NewFlasher(s.bus, clk, cfg, s.dmx)

	s.bus.SequenceMode.Register(func(on bool) { s.seqMode = on })
	s.bus.SequenceSaving.Register(func(on bool) { s.saving = on })
	s.watch()

	if err := s.bank.Boot(); err != nil {
		return nil, fmt.Errorf("booting sequence bank: %w", err)
	}
	s.refresh()
	return s, nil
}

// watch marks the status stale whenever the core publishes anything.
func (s *system) watch() {
	touch := func() { s.dirty = true }
	s.bus.TempoChanged.Register(func(int) { touch() })
	s.bus.ActiveStep.Register(func(int) { touch() })
	s.bus.PatternChanged.Register(func(uint16) { touch() })
	s.bus.SequenceSelected.Register(func(int) { touch() })
	s.bus.SequenceSaving.Register(func(bool) { touch() })
	s.bus.SequenceMode.Register(func(bool) { touch() })
}

// attachOutputs opens every output and input enabled in the config. Workers started here stop
// when ctx is done and are tracked by wg.
func (s *system) attachOutputs(ctx context.Context, wg *sync.WaitGroup) error {
	log := logger.GetProjectLogger()

	if s.cfg.MIDI.Enabled {
		port, err := serialport.Open(s.cfg.MIDI.Port, serialport.MIDIBaudRate)
		if err != nil {
			return err
		}
		s.closers = append(s.closers, port)
		midiout.New(s.bus, midiout.WriterSender(port))
	}

	if s.cfg.Panel.Port != "" {
		port, err := serialport.Open(s.cfg.Panel.Port, s.cfg.Panel.Baud)
		if err != nil {
			return err
		}
		s.closers = append(s.closers, port)
		s.panel.SetOutput(port)
	}

	if s.cfg.OSC.SendHost != "" {
		oscbridge.NewOutput(s.bus, oscbridge.NewClient(s.cfg.OSC.SendHost, s.cfg.OSC.SendPort), s.clk)
	}
	if s.cfg.OSC.ListenAddr != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := oscbridge.Serve(ctx, s.cfg.OSC.ListenAddr, oscbridge.NewInput(s.dispatch)); err != nil {
				log.WithError(err).Error("OSC input stopped")
			}
		}()
	}

	if s.cfg.DMX.Enabled {
		log.Info("Connecting to OLA...")
		client, err := gola.New(s.cfg.DMX.OLAHost)
		if err != nil {
			log.Errorf("could not connect to OLA: %v", err)
		} else {
			wg.Add(1)
			go lights.SendDMXWorker(ctx, client, s.clk, s.cfg.DMX.Refresh, s.dmx, wg)
		}
	}

	if s.cfg.Audio.Enabled {
		if err := s.attachAudio(); err != nil {
			return err
		}
	}
	return nil
}

func (s *system) attachAudio() error {
	format := beep.Format{SampleRate: beep.SampleRate(s.cfg.Audio.SampleRate), NumChannels: 2, Precision: 2}
	s.sampler = audio.NewSampler(s.bus, format, s.cfg.Channels, audio.SpeakerLock{})

	for ch, path := range s.cfg.Audio.Samples {
		if path == "" {
			continue
		}
		buf, err := audio.LoadWav(path, format)
		if err != nil {
			return err
		}
		if err := s.sampler.SetSample(ch, buf); err != nil {
			return err
		}
	}
	return audio.StartSpeaker(format, s.sampler.Output(s.cfg.Audio.Volume))
}

// Enqueue hands an input event to the polling goroutine. Safe from any goroutine.
func (s *system) Enqueue(ev control.Event) bool {
	return s.dispatch.Enqueue(ev)
}

// Poll runs one iteration of the sequencer: pending inputs, then the clock, then the lights.
func (s *system) Poll() {
	if s.dispatch.Drain() > 0 {
		s.dirty = true
	}
	s.clock.Update(s.ticks.Now())

	if err := s.flasher.Render(); err != nil {
		logger.GetProjectLogger().WithError(err).Warn("Could not render DMX")
	}
	if s.dirty {
		s.refresh()
	}
}

func (s *system) refresh() {
	snap := s.clock.Snapshot()
	pending, switching := s.bank.Pending()

	st := status{
		Tempo:         snap.Tempo,
		Step:          snap.Step,
		Playing:       snap.State == rhythm.Playing,
		External:      snap.External,
		Active:        s.engine.ActiveChannel(),
		Selected:      s.bank.Selected(),
		Pending:       pending,
		SwitchPending: switching,
		SequenceMode:  s.seqMode,
		Saving:        s.saving,
		Panel:         s.panel.Word(),
		TempoLED:      s.panel.TempoLED(),
		Pixels:        s.pixels.Hex(),
	}
	patterns := s.engine.Patterns()
	for ch, state := range s.engine.States() {
		st.Channels = append(st.Channels, channelStatus{State: state, Pattern: patterns[ch]})
	}

	s.statusLock.Lock()
	s.status = st
	s.statusLock.Unlock()
	s.dirty = false
}

// Status returns the latest status. Safe from any goroutine.
func (s *system) Status() status {
	s.statusLock.Lock()
	defer s.statusLock.Unlock()
	return s.status
}

// Close releases every opened device.
func (s *system) Close() {
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			logger.GetProjectLogger().WithError(err).Warn("Could not close output")
		}
	}
	s.closers = nil
}
