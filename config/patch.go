package config

import "fmt"

// PatchedFixture stores config info for a dmx fixture flashed by a sequencer channel
type PatchedFixture struct {
	Name     string `yaml:"name"`
	Channel  int    `yaml:"channel"`
	Address  int    `yaml:"address"`
	Universe int    `yaml:"universe"`
	// Width is the number of consecutive DMX channels set to the flash level, e.g. 1 for a
	// dimmer or 4 for an RGBW par at full white.
	Width int `yaml:"width"`
}

const maxAddress = 512

func (f PatchedFixture) validate(channels int) error {
	if f.Channel < 0 || f.Channel >= channels {
		return fmt.Errorf("%w: fixture %q patched to channel %d", ErrInvalidConfig, f.Name, f.Channel)
	}
	width := f.Width
	if width < 1 {
		width = 1
	}
	if f.Address < 1 || f.Address+width-1 > maxAddress {
		return fmt.Errorf("%w: fixture %q address %d width %d outside 1..%d", ErrInvalidConfig, f.Name, f.Address, width, maxAddress)
	}
	return nil
}

// Addresses returns the DMX channels the fixture occupies.
func (f PatchedFixture) Addresses() []int {
	width := f.Width
	if width < 1 {
		width = 1
	}
	out := make([]int, width)
	for i := range out {
		out[i] = f.Address + i
	}
	return out
}
