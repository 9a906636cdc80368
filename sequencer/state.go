package sequencer

import (
	"github.com/robmorgan/euclid/rhythm"
	"github.com/robmorgan/euclid/utils"
)

// ChannelState holds the rhythm parameters of one channel.
type ChannelState struct {
	// RhythmIndex selects the canonical pattern with that many hits.
	RhythmIndex int

	// Offset rotates the pattern by this many steps.
	Offset int

	// Length truncates the pattern; steps at or after Length never fire.
	Length int
}

// DefaultChannelState is an all-rest pattern spanning the whole cycle.
func DefaultChannelState() ChannelState {
	return ChannelState{Length: rhythm.StepCount}
}

// Clamped returns s with every field held inside its valid range.
func (s ChannelState) Clamped() ChannelState {
	return ChannelState{
		RhythmIndex: utils.Clamp(s.RhythmIndex, 0, rhythm.MaxHits),
		Offset:      utils.Clamp(s.Offset, 0, rhythm.StepCount),
		Length:      utils.Clamp(s.Length, 0, rhythm.StepCount),
	}
}

// Pattern derives the live pattern: the canonical pattern is truncated to Length, then rotated
// by Offset.
func (s ChannelState) Pattern() rhythm.Pattern {
	return rhythm.Rotate(rhythm.Shrink(rhythm.Euclid(s.RhythmIndex), s.Length), s.Offset)
}
