package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/robmorgan/euclid/logger"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned by Validate for a configuration the sequencer cannot run with.
var ErrInvalidConfig = errors.New("invalid config")

const maxChannels = 16

// EuclidConfig represents options that configure the global behavior of the program
type EuclidConfig struct {
	// Project logger
	Logger *logrus.Logger `yaml:"-"`

	LogLevel string `yaml:"log_level"`
	// LogFile receives log output when set. The TUI always logs to a file.
	LogFile string `yaml:"log_file"`

	// Channels is the number of sequencer channels.
	Channels int `yaml:"channels"`
	// Tempo is the tempo at boot, in beats per minute.
	Tempo    int `yaml:"tempo"`
	MinTempo int `yaml:"min_tempo"`
	MaxTempo int `yaml:"max_tempo"`

	// Pitches is the MIDI note of each channel. Empty means channel index.
	Pitches []uint8 `yaml:"pitches"`

	// StorePath is the file holding the sequence bank.
	StorePath string `yaml:"store_path"`

	// PollInterval is how often the headless loop polls the clock.
	PollInterval time.Duration `yaml:"poll_interval"`

	MIDI   MIDIConfig  `yaml:"midi"`
	OSC    OSCConfig   `yaml:"osc"`
	DMX    DMXConfig   `yaml:"dmx"`
	Audio  AudioConfig `yaml:"audio"`
	Colors ColorConfig `yaml:"colors"`
	Panel  PanelConfig `yaml:"panel"`
}

// MIDIConfig configures the DIN-MIDI output.
type MIDIConfig struct {
	Enabled bool   `yaml:"enabled"`
	Port    string `yaml:"port"`
}

// OSCConfig configures the OSC control input and event output.
type OSCConfig struct {
	// ListenAddr is the host:port to receive control messages on. Empty disables input.
	ListenAddr string `yaml:"listen_addr"`
	// SendHost and SendPort receive sequencer events. An empty host disables output.
	SendHost string `yaml:"send_host"`
	SendPort int    `yaml:"send_port"`
	// QueueLength bounds the number of control events waiting for the loop.
	QueueLength int `yaml:"queue_length"`
}

// DMXConfig configures the fixture flashes sent through OLA.
type DMXConfig struct {
	Enabled bool   `yaml:"enabled"`
	OLAHost string `yaml:"ola_host"`
	// Refresh is the interval between frames sent to OLA.
	Refresh time.Duration `yaml:"refresh"`
	// Decay is how long a flash takes to fade out.
	Decay time.Duration `yaml:"decay"`
	// Patch maps sequencer channels onto fixtures.
	Patch []PatchedFixture `yaml:"patch"`
}

// AudioConfig configures the sample player.
type AudioConfig struct {
	Enabled    bool    `yaml:"enabled"`
	SampleRate int     `yaml:"sample_rate"`
	Volume     float64 `yaml:"volume"`
	// Samples holds one wav file per channel.
	Samples []string `yaml:"samples"`
}

// ColorConfig holds the pixel strip colours as hex strings or colour names.
type ColorConfig struct {
	Step string `yaml:"step"`
	Head string `yaml:"head"`
	Bar  string `yaml:"bar"`
	Off  string `yaml:"off"`
}

// PanelConfig configures the step-LED shift register output.
type PanelConfig struct {
	// Port is a serial device the two panel bytes are written to. Empty disables it.
	Port string `yaml:"port"`
	Baud int    `yaml:"baud"`
}

// NewEuclidConfig creates a new EuclidConfig object with reasonable defaults for real usage
func NewEuclidConfig() EuclidConfig {
	return EuclidConfig{
		Logger:       logger.GetProjectLogger(),
		LogLevel:     "info",
		Channels:     4,
		Tempo:        120,
		MinTempo:     30,
		MaxTempo:     300,
		StorePath:    "sequences.json",
		PollInterval: time.Millisecond,
		OSC: OSCConfig{
			SendPort:    9000,
			QueueLength: 64,
		},
		DMX: DMXConfig{
			OLAHost: "localhost:9010",
			Refresh: 25 * time.Millisecond,
			Decay:   200 * time.Millisecond,
		},
		Audio: AudioConfig{
			SampleRate: 44100,
			Volume:     1,
		},
		Colors: ColorConfig{
			Step: "#ff8000",
			Head: "white",
			Bar:  "#0040ff",
			Off:  "black",
		},
		Panel: PanelConfig{
			Baud: 115200,
		},
	}
}

// LoadFile reads a YAML config file over the defaults and validates the result.
func LoadFile(path string) (EuclidConfig, error) {
	cfg := NewEuclidConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the config for values the sequencer cannot run with.
func (c EuclidConfig) Validate() error {
	if c.Channels < 1 || c.Channels > maxChannels {
		return fmt.Errorf("%w: channels %d not in 1..%d", ErrInvalidConfig, c.Channels, maxChannels)
	}
	if c.MinTempo <= 0 || c.MaxTempo < c.MinTempo {
		return fmt.Errorf("%w: tempo range %d..%d", ErrInvalidConfig, c.MinTempo, c.MaxTempo)
	}
	if c.Tempo < c.MinTempo || c.Tempo > c.MaxTempo {
		return fmt.Errorf("%w: tempo %d not in %d..%d", ErrInvalidConfig, c.Tempo, c.MinTempo, c.MaxTempo)
	}
	if len(c.Pitches) != 0 && len(c.Pitches) != c.Channels {
		return fmt.Errorf("%w: %d pitches for %d channels", ErrInvalidConfig, len(c.Pitches), c.Channels)
	}
	if c.StorePath == "" {
		return fmt.Errorf("%w: empty store path", ErrInvalidConfig)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("%w: poll interval must be positive", ErrInvalidConfig)
	}
	if c.OSC.QueueLength < 1 {
		return fmt.Errorf("%w: control queue length must be positive", ErrInvalidConfig)
	}
	if c.Audio.Enabled && len(c.Audio.Samples) > c.Channels {
		return fmt.Errorf("%w: %d samples for %d channels", ErrInvalidConfig, len(c.Audio.Samples), c.Channels)
	}
	for _, f := range c.DMX.Patch {
		if err := f.validate(c.Channels); err != nil {
			return err
		}
	}
	return nil
}

// PatchFor returns the fixtures patched to sequencer channel ch.
func (c EuclidConfig) PatchFor(ch int) []PatchedFixture {
	var out []PatchedFixture
	for _, f := range c.DMX.Patch {
		if f.Channel == ch {
			out = append(out, f)
		}
	}
	return out
}
