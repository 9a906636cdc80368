package lights

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robmorgan/euclid/logger"
	"github.com/sirupsen/logrus"
	"k8s.io/utils/clock"
)

const universeSize = 512

// DMXState holds the DMX512 values for each universe
type DMXState struct {
	universes map[int][]byte
	lock      sync.Mutex
}

type dmxOperation struct {
	universe, channel int
	value             byte
}

// NewDMXState returns an empty DMX state.
func NewDMXState() *DMXState {
	return &DMXState{universes: make(map[int][]byte)}
}

// Value returns the current value of a channel, numbered from 1.
func (s *DMXState) Value(universe, channel int) byte {
	s.lock.Lock()
	defer s.lock.Unlock()

	u := s.universes[universe]
	if u == nil || channel < 1 || channel > universeSize {
		return 0
	}
	return u[channel-1]
}

func (s *DMXState) set(ops ...dmxOperation) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	for _, op := range ops {
		if op.channel < 1 || op.channel > universeSize {
			return fmt.Errorf("dmx channel (%d) not in range, op=%v", op.channel, op)
		}

		s.initializeUniverse(op.universe)
		s.universes[op.universe][op.channel-1] = op.value
	}
	return nil
}

func (s *DMXState) initializeUniverse(universe int) {
	if s.universes[universe] == nil {
		s.universes[universe] = make([]byte, universeSize)
	}
}

// Frames returns a copy of every universe.
func (s *DMXState) Frames() map[int][]byte {
	s.lock.Lock()
	defer s.lock.Unlock()

	out := make(map[int][]byte, len(s.universes))
	for k, v := range s.universes {
		out[k] = append([]byte(nil), v...)
	}
	return out
}

// OLAClient is the interface for communicating with OLA
type OLAClient interface {
	SendDmx(universe int, values []byte) (status bool, err error)
	Close()
}

// SendDMXWorker sends OLA the current DMX state across all universes every tick until ctx is done.
func SendDMXWorker(ctx context.Context, client OLAClient, clk clock.WithTicker, tick time.Duration, state *DMXState, wg *sync.WaitGroup) error {
	defer wg.Done()
	defer client.Close()

	log := logger.GetProjectLogger()
	t := clk.NewTicker(tick)
	defer t.Stop()
	log.WithField("tick", tick).Info("DMX worker started")

	for {
		select {
		case <-ctx.Done():
			log.Info("DMX worker shutdown")
			return ctx.Err()
		case <-t.C():
			for universe, values := range state.Frames() {
				if _, err := client.SendDmx(universe, values); err != nil {
					log.WithFields(logrus.Fields{
						"universe": universe,
					}).WithError(err).Warn("Could not send DMX")
				}
			}
		}
	}
}
