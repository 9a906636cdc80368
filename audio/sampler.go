// Package audio plays one sample per sequencer channel on the channel's triggers.
package audio

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/effects"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/wav"
	"github.com/robmorgan/euclid/event"
	"github.com/robmorgan/euclid/logger"
	"github.com/sirupsen/logrus"
)

// ErrInvalidChannel is returned when a sample is assigned to a channel the sampler does not have.
var ErrInvalidChannel = errors.New("invalid audio channel")

// resampleQuality is passed to beep.Resample when a sample's rate differs from the output rate.
const resampleQuality = 4

// Sampler is a beep.Streamer mixing one voice per channel. A channel that triggers restarts its
// sample from the beginning; a channel that does not trigger on a step is silenced, so a voice
// never rings past its step.
type Sampler struct {
	lock    sync.Locker
	format  beep.Format
	samples []*beep.Buffer
	voices  []beep.StreamSeeker
}

// NewSampler creates a silent sampler with channels voices. lock guards the voices against the
// goroutine pulling audio; pass SpeakerLock when the sampler plays through the speaker.
func NewSampler(bus *event.Bus, format beep.Format, channels int, lock sync.Locker) *Sampler {
	s := &Sampler{
		lock:    lock,
		format:  format,
		samples: make([]*beep.Buffer, channels),
		voices:  make([]beep.StreamSeeker, channels),
	}
	bus.AudioTriggers.Register(s.trigger)
	return s
}

// SetSample assigns buf to channel ch. A nil buffer silences the channel.
func (s *Sampler) SetSample(ch int, buf *beep.Buffer) error {
	if ch < 0 || ch >= len(s.samples) {
		return fmt.Errorf("%w: %d", ErrInvalidChannel, ch)
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	s.samples[ch] = buf
	s.voices[ch] = nil
	return nil
}

func (s *Sampler) trigger(triggers []bool) {
	s.lock.Lock()
	defer s.lock.Unlock()

	for ch := range s.voices {
		buf := s.samples[ch]
		if ch < len(triggers) && triggers[ch] && buf != nil {
			s.voices[ch] = buf.Streamer(0, buf.Len())
			continue
		}
		s.voices[ch] = nil
	}
}

// Playing reports whether channel ch's voice is sounding.
func (s *Sampler) Playing(ch int) bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	return ch >= 0 && ch < len(s.voices) && s.voices[ch] != nil
}

// Stream mixes every sounding voice into samples. It never runs out, filling silence when no
// voice is sounding. It must be called with the lock held, which the speaker does.
func (s *Sampler) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		samples[i] = [2]float64{}
	}

	tmp := make([][2]float64, len(samples))
	for ch, voice := range s.voices {
		if voice == nil {
			continue
		}

		got, more := voice.Stream(tmp)
		for i := 0; i < got; i++ {
			samples[i][0] += tmp[i][0]
			samples[i][1] += tmp[i][1]
		}
		if !more || got < len(samples) {
			s.voices[ch] = nil
		}
	}
	return len(samples), true
}

// Err always returns nil; a voice that fails simply stops.
func (s *Sampler) Err() error {
	return nil
}

// Output wraps the sampler with a linear volume, 1 being unchanged.
func (s *Sampler) Output(volume float64) beep.Streamer {
	return &effects.Gain{Streamer: s, Gain: volume - 1}
}

// LoadWav decodes a wav file into memory, resampled to format's rate.
func LoadWav(path string, format beep.Format) (*beep.Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening sample %s: %w", path, err)
	}

	streamer, fileFormat, err := wav.Decode(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("decoding sample %s: %w", path, err)
	}
	defer streamer.Close()

	var src beep.Streamer = streamer
	if fileFormat.SampleRate != format.SampleRate {
		src = beep.Resample(resampleQuality, fileFormat.SampleRate, format.SampleRate, streamer)
	}

	buf := beep.NewBuffer(format)
	buf.Append(src)

	logger.GetProjectLogger().WithFields(logrus.Fields{
		"path":    path,
		"samples": buf.Len(),
		"rate":    fileFormat.SampleRate,
	}).Debug("Sample loaded")
	return buf, nil
}

// SpeakerLock locks the speaker, for use as a Sampler lock.
type SpeakerLock struct{}

func (SpeakerLock) Lock()   { speaker.Lock() }
func (SpeakerLock) Unlock() { speaker.Unlock() }

// StartSpeaker opens the default audio device and starts playing out.
func StartSpeaker(format beep.Format, out beep.Streamer) error {
	if err := speaker.Init(format.SampleRate, format.SampleRate.N(time.Second/30)); err != nil {
		return fmt.Errorf("initializing speaker: %w", err)
	}
	speaker.Play(out)
	return nil
}
