package lights

import (
	"time"

	"github.com/fogleman/ease"
	"github.com/robmorgan/euclid/config"
	"github.com/robmorgan/euclid/event"
	"github.com/robmorgan/euclid/utils"
	"k8s.io/utils/clock"
)

// Flasher flashes the fixtures patched to a channel each time the channel triggers, fading them
// out over the decay time.
type Flasher struct {
	clock   clock.PassiveClock
	decay   time.Duration
	patch   [][]config.PatchedFixture
	started []time.Time
	state   *DMXState
}

// NewFlasher creates a flasher for the fixtures patched in cfg, writing into state.
func NewFlasher(bus *event.Bus, clk clock.PassiveClock, cfg config.EuclidConfig, state *DMXState) *Flasher {
	f := &Flasher{
		clock:   clk,
		decay:   cfg.DMX.Decay,
		patch:   make([][]config.PatchedFixture, cfg.Channels),
		started: make([]time.Time, cfg.Channels),
		state:   state,
	}
	for ch := range f.patch {
		f.patch[ch] = cfg.PatchFor(ch)
	}

	bus.AudioTriggers.Register(func(triggers []bool) {
		now := f.clock.Now()
		for ch, hit := range triggers {
			if hit && ch < len(f.started) {
				f.started[ch] = now
			}
		}
	})
	return f
}

// Level returns the current intensity of channel ch, from 1 right after a trigger down to 0 once
// the decay has elapsed.
func (f *Flasher) Level(ch int) float64 {
	if ch < 0 || ch >= len(f.started) || f.started[ch].IsZero() || f.decay <= 0 {
		return 0
	}

	elapsed := f.clock.Since(f.started[ch])
	if elapsed >= f.decay {
		return 0
	}
	return 1 - ease.OutQuad(float64(elapsed)/float64(f.decay))
}

// Render writes every patched fixture's current level into the DMX state.
func (f *Flasher) Render() error {
	var ops []dmxOperation
	for ch, fixtures := range f.patch {
		value := utils.LevelToDMX(f.Level(ch))
		for _, fx := range fixtures {
			for _, addr := range fx.Addresses() {
				ops = append(ops, dmxOperation{universe: fx.Universe, channel: addr, value: value})
			}
		}
	}
	return f.state.set(ops...)
}
