package bank

import (
	"errors"
	"fmt"

	"github.com/robmorgan/euclid/event"
	"github.com/robmorgan/euclid/logger"
	"github.com/robmorgan/euclid/sequencer"
	"github.com/robmorgan/euclid/utils"
	"github.com/sirupsen/logrus"
)

// MaxSequences is the number of slots in the bank.
const MaxSequences = 16

// ErrInvalidSlot is returned for a slot index outside the bank.
var ErrInvalidSlot = errors.New("invalid sequence slot")

// Transport is the part of the clock the bank needs to hold playback while saving.
type Transport interface {
	Playing() bool
	Play()
	Pause()
}

// Bank is a fixed set of saved sequences. It reads and writes the engine's channel state only
// inside Save and Load.
//
// While playing, a scheduled sequence is switched in at the start of the next cycle, so the new
// sequence plays from its first step.
type Bank struct {
	bus       *event.Bus
	engine    *sequencer.Engine
	transport Transport
	store     Store

	slots         [MaxSequences]Slot
	selected      int
	pending       int
	switchPending bool
}

// New creates a bank over engine and installs its step hook on the engine. Call Boot before use.
func New(bus *event.Bus, engine *sequencer.Engine, transport Transport, store Store) *Bank {
	b := &Bank{
		bus:       bus,
		engine:    engine,
		transport: transport,
		store:     store,
	}
	engine.SetStepHook(b.onStep)
	return b
}

func checkSlot(index int) error {
	if index < 0 || index >= MaxSequences {
		return fmt.Errorf("%w: %d not in 0..%d", ErrInvalidSlot, index, MaxSequences-1)
	}
	return nil
}

// Boot reads the store and loads slot 0. A missing or unreadable store is replaced by a new one
// holding the engine's current state in slot 0.
func (b *Bank) Boot() error {
	log := logger.GetProjectLogger()

	data, err := b.store.Read()
	if errors.Is(err, ErrStoreNotFound) {
		log.Info("No sequence store found, initializing a new one")
		return b.initialize()
	}
	if err != nil {
		return fmt.Errorf("reading sequence store: %w", err)
	}

	slots, err := decodeSlots(data)
	if err != nil {
		log.WithError(err).Warn("Sequence store is corrupt, overwriting it with defaults")
		return b.initialize()
	}

	b.slots = slots
	return b.Load(0)
}

func (b *Bank) initialize() error {
	b.slots = [MaxSequences]Slot{}
	b.slots[0] = Slot(b.engine.States())
	if err := b.persist(); err != nil {
		return fmt.Errorf("initializing sequence store: %w", err)
	}
	return b.Load(0)
}

func (b *Bank) persist() error {
	data, err := encodeSlots(b.slots)
	if err != nil {
		return err
	}
	return b.store.Write(data)
}

// Save captures the engine's channel state into slot index and writes the whole bank. Playback is
// paused for the duration of the write.
func (b *Bank) Save(index int) error {
	if err := checkSlot(index); err != nil {
		return err
	}

	wasPlaying := b.transport.Playing()
	if wasPlaying {
		b.transport.Pause()
	}
	b.bus.SequenceSaving.Emit(true)

	previous := b.slots[index]
	b.slots[index] = Slot(b.engine.States())
	err := b.persist()
	if err != nil {
		// keep the bank in step with what is on disk
		b.slots[index] = previous
	}

	b.bus.SequenceSaving.Emit(false)
	if wasPlaying {
		b.transport.Play()
	}

	if err != nil {
		return fmt.Errorf("saving sequence %d: %w", index, err)
	}
	logger.GetProjectLogger().WithField("slot", index).Info("Sequence saved")
	return nil
}

// SaveSelected saves into the slot most recently selected.
func (b *Bank) SaveSelected() error {
	return b.Save(b.pending)
}

// Schedule moves the selection by delta slots, wrapping around the bank.
func (b *Bank) Schedule(delta int) error {
	return b.ScheduleIndex(b.pending + delta)
}

// ScheduleIndex selects slot index, wrapping around the bank. When stopped the slot is loaded
// immediately; when playing it is loaded at the next step 0.
func (b *Bank) ScheduleIndex(index int) error {
	b.pending = utils.Mod(index, MaxSequences)
	b.switchPending = true
	b.bus.SequenceSelected.Emit(b.pending)

	if !b.transport.Playing() {
		return b.Load(b.pending)
	}
	return nil
}

// Load replaces every channel's state with slot index. An empty slot resets every channel to the
// default state.
func (b *Bank) Load(index int) error {
	if err := checkSlot(index); err != nil {
		return err
	}

	slot := b.slots[index]
	if slot.Empty() {
		b.engine.Reset()
	} else {
		b.engine.SetStates(slot)
	}

	b.selected = index
	b.pending = index
	b.switchPending = false

	logger.GetProjectLogger().WithFields(logrus.Fields{
		"slot":  index,
		"empty": slot.Empty(),
	}).Info("Sequence loaded")
	return nil
}

func (b *Bank) onStep(step int) {
	if step != 0 || !b.switchPending {
		return
	}
	if err := b.Load(b.pending); err != nil {
		logger.GetProjectLogger().WithError(err).Error("Could not switch sequence")
	}
}

// Selected returns the slot currently loaded into the engine.
func (b *Bank) Selected() int {
	return b.selected
}

// Pending returns the slot that will be loaded at the next cycle, and whether a switch is waiting.
func (b *Bank) Pending() (int, bool) {
	return b.pending, b.switchPending
}

// Slot returns a copy of slot index.
func (b *Bank) Slot(index int) (Slot, error) {
	if err := checkSlot(index); err != nil {
		return nil, err
	}
	if b.slots[index].Empty() {
		return nil, nil
	}
	return append(Slot{}, b.slots[index]...), nil
}
