// Package serialdev implements the device-facing channel over a local
// serial port.
package serialdev

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.bug.st/serial"

	"github.com/mimocad/fpbridge/internal/relay"
)

const (
	DefaultBaudRate    = 57600
	DefaultReadTimeout = 10 * time.Millisecond
)

// Config holds the port settings. The sensor speaks 8-N-1 at 57600 baud
// by default.
type Config struct {
	Name        string
	BaudRate    int
	ReadTimeout time.Duration
}

// Port is a relay.DeviceChannel over a serial line.
type Port struct {
	port serial.Port
}

// Open opens and configures the port. The read timeout doubles as the
// relay's polling interval.
func Open(cfg Config) (*Port, error) {
	if cfg.BaudRate <= 0 {
		cfg.BaudRate = DefaultBaudRate
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = DefaultReadTimeout
	}

	mode := &serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	p, err := serial.Open(cfg.Name, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", cfg.Name, err)
	}
	if err := p.SetReadTimeout(cfg.ReadTimeout); err != nil {
		p.Close()
		return nil, fmt.Errorf("set read timeout: %w", err)
	}
	return &Port{port: p}, nil
}

// Receive reads whatever bytes are pending, up to the read timeout.
// The serial library cannot report a break condition on read (the line
// discipline absorbs it), so this driver never produces
// relay.ErrLineBreak; an idle or broken line shows up as the timeout. A
// port that reports closed maps to relay.ErrClosed.
func (p *Port) Receive(_ context.Context, buf []byte) (int, error) {
	n, err := p.port.Read(buf)
	if err != nil {
		var pe *serial.PortError
		if errors.As(err, &pe) && pe.Code() == serial.PortClosed {
			return 0, fmt.Errorf("%w: serial port closed", relay.ErrClosed)
		}
		return 0, fmt.Errorf("serial read: %w", err)
	}
	if n == 0 {
		// The driver signals an expired read timeout as a zero-byte
		// read with a nil error.
		return 0, relay.ErrTimeout
	}
	return n, nil
}

func (p *Port) Send(_ context.Context, b []byte) error {
	if _, err := p.port.Write(b); err != nil {
		return fmt.Errorf("serial write: %w", err)
	}
	return nil
}

func (p *Port) Close() error {
	return p.port.Close()
}
