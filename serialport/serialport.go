// Package serialport opens the serial devices the sequencer writes to: DIN-MIDI and the LED panel.
package serialport

import (
	"fmt"

	"github.com/robmorgan/euclid/logger"
	"github.com/sirupsen/logrus"
	"go.bug.st/serial"
)

// MIDIBaudRate is the DIN-MIDI line rate.
const MIDIBaudRate = 31250

// Port wraps a go.bug.st/serial port as an io.WriteCloser.
type Port struct {
	name string
	port serial.Port
}

// Open opens the named serial device at the given baud rate.
func Open(name string, baud int) (*Port, error) {
	p, err := serial.Open(name, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("opening serial port %s: %w", name, err)
	}

	logger.GetProjectLogger().WithFields(logrus.Fields{
		"device": name,
		"baud":   baud,
	}).Info("Serial port opened")
	return &Port{name: name, port: p}, nil
}

func (p *Port) Write(data []byte) (int, error) {
	n, err := p.port.Write(data)
	if err != nil {
		return n, fmt.Errorf("writing to %s: %w", p.name, err)
	}
	return n, nil
}

// Close closes the underlying serial port.
func (p *Port) Close() error {
	logger.GetProjectLogger().WithField("device", p.name).Info("Closing serial port")
	return p.port.Close()
}
