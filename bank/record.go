package bank

import (
	"encoding/json"
	"fmt"

	"github.com/robmorgan/euclid/sequencer"
)

// Slot is one saved snapshot of every channel's rhythm parameters. A nil Slot is an empty slot.
type Slot []sequencer.ChannelState

// Empty reports whether nothing has been saved into the slot.
func (s Slot) Empty() bool {
	return s == nil
}

// slotRecord is the persisted form of a slot: three parallel arrays, one entry per channel.
type slotRecord struct {
	Hits    []int `json:"hits"`
	Offsets []int `json:"offsets"`
	Lengths []int `json:"lengths"`
}

// encodeSlots writes the bank as a JSON array with one entry per slot; empty slots are null.
func encodeSlots(slots [MaxSequences]Slot) ([]byte, error) {
	records := make([]*slotRecord, MaxSequences)
	for i, slot := range slots {
		if slot.Empty() {
			continue
		}

		r := &slotRecord{
			Hits:    make([]int, len(slot)),
			Offsets: make([]int, len(slot)),
			Lengths: make([]int, len(slot)),
		}
		for ch, s := range slot {
			r.Hits[ch] = s.RhythmIndex
			r.Offsets[ch] = s.Offset
			r.Lengths[ch] = s.Length
		}
		records[i] = r
	}
	return json.Marshal(records)
}

func decodeSlots(data []byte) ([MaxSequences]Slot, error) {
	var slots [MaxSequences]Slot

	var records []*slotRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return slots, fmt.Errorf("decoding sequence store: %w", err)
	}
	if len(records) > MaxSequences {
		return slots, fmt.Errorf("sequence store holds %d slots, at most %d allowed", len(records), MaxSequences)
	}

	for i, r := range records {
		if r == nil {
			continue
		}
		if len(r.Hits) != len(r.Offsets) || len(r.Hits) != len(r.Lengths) {
			return slots, fmt.Errorf("sequence %d: mismatched array lengths %d/%d/%d", i, len(r.Hits), len(r.Offsets), len(r.Lengths))
		}

		slot := make(Slot, len(r.Hits))
		for ch := range slot {
			slot[ch] = sequencer.ChannelState{
				RhythmIndex: r.Hits[ch],
				Offset:      r.Offsets[ch],
				Length:      r.Lengths[ch],
			}
		}
		slots[i] = slot
	}
	return slots, nil
}
