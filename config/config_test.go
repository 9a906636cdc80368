package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsAreValid(t *testing.T) {
	t.Parallel()

	cfg := NewEuclidConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 4, cfg.Channels)
	assert.Equal(t, 120, cfg.Tempo)
	assert.Equal(t, "sequences.json", cfg.StorePath)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name   string
		modify func(*EuclidConfig)
	}{
		{"no channels", func(c *EuclidConfig) { c.Channels = 0 }},
		{"too many channels", func(c *EuclidConfig) { c.Channels = 17 }},
		{"zero min tempo", func(c *EuclidConfig) { c.MinTempo = 0 }},
		{"inverted tempo range", func(c *EuclidConfig) { c.MinTempo, c.MaxTempo = 200, 100 }},
		{"tempo above range", func(c *EuclidConfig) { c.Tempo = 301 }},
		{"wrong pitch count", func(c *EuclidConfig) { c.Pitches = []uint8{36, 38} }},
		{"empty store path", func(c *EuclidConfig) { c.StorePath = "" }},
		{"zero poll interval", func(c *EuclidConfig) { c.PollInterval = 0 }},
		{"no control queue", func(c *EuclidConfig) { c.OSC.QueueLength = 0 }},
		{"too many samples", func(c *EuclidConfig) {
			c.Audio.Enabled = true
			c.Audio.Samples = []string{"a", "b", "c", "d", "e"}
		}},
		{"fixture on missing channel", func(c *EuclidConfig) {
			c.DMX.Patch = []PatchedFixture{{Name: "par", Channel: 4, Address: 1}}
		}},
		{"fixture past end of universe", func(c *EuclidConfig) {
			c.DMX.Patch = []PatchedFixture{{Name: "par", Channel: 0, Address: 510, Width: 4}}
		}},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			cfg := NewEuclidConfig()
			testCase.modify(&cfg)
			require.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "euclid.yaml")
	data := `
channels: 2
tempo: 96
pitches: [36, 38]
poll_interval: 2ms
osc:
  listen_addr: "127.0.0.1:8765"
dmx:
  enabled: true
  decay: 150ms
  patch:
    - name: kick_par
      channel: 0
      address: 10
      universe: 1
      width: 4
colors:
  head: "#112233"
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Channels)
	assert.Equal(t, 96, cfg.Tempo)
	assert.Equal(t, []uint8{36, 38}, cfg.Pitches)
	assert.Equal(t, 2*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, "127.0.0.1:8765", cfg.OSC.ListenAddr)
	assert.Equal(t, 150*time.Millisecond, cfg.DMX.Decay)
	assert.Equal(t, "#112233", cfg.Colors.Head)

	// untouched keys keep their defaults
	assert.Equal(t, 300, cfg.MaxTempo)
	assert.Equal(t, "white", NewEuclidConfig().Colors.Head)
	assert.Equal(t, "#0040ff", cfg.Colors.Bar)
	assert.Equal(t, 64, cfg.OSC.QueueLength)

	require.Len(t, cfg.PatchFor(0), 1)
	assert.Equal(t, []int{10, 11, 12, 13}, cfg.PatchFor(0)[0].Addresses())
	assert.Empty(t, cfg.PatchFor(1))
}

func TestLoadFileErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	_, err := LoadFile(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("channels: [oops"), 0o644))
	_, err = LoadFile(bad)
	require.Error(t, err)

	invalid := filepath.Join(dir, "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("channels: 40\n"), 0o644))
	_, err = LoadFile(invalid)
	require.ErrorIs(t, err, ErrInvalidConfig)
}
