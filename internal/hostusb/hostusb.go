// Package hostusb implements the host-facing channel over a raw
// bulk-endpoint USB device.
package hostusb

import (
	"context"
	"fmt"
	"time"

	"github.com/karalabe/usb"

	"github.com/mimocad/fpbridge/internal/relay"
)

const DefaultPollInterval = 500 * time.Millisecond

// Channel is a relay.HostChannel backed by karalabe/usb. WaitReady
// polls enumeration until a device matching VendorID/ProductID appears;
// a failed bulk read ends the session and the next WaitReady reopens.
type Channel struct {
	VendorID     uint16
	ProductID    uint16
	PollInterval time.Duration // enumeration interval while waiting

	dev usb.Device
}

func (c *Channel) WaitReady(ctx context.Context) error {
	// Drop any handle left over from the previous session. Closing it
	// also unblocks a reader still parked in a bulk read.
	if c.dev != nil {
		c.dev.Close()
		c.dev = nil
	}

	interval := c.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	for {
		infos, err := usb.Enumerate(c.VendorID, c.ProductID)
		if err != nil {
			return fmt.Errorf("usb enumerate: %w", err)
		}
		if len(infos) > 0 {
			dev, err := infos[0].Open()
			if err != nil {
				return fmt.Errorf("open device (VID:0x%04X PID:0x%04X): %w", c.VendorID, c.ProductID, err)
			}
			c.dev = dev
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}

// Receive blocks on the bulk IN endpoint. karalabe/usb surfaces no
// recoverable read errors: a failed read means the device left the bus,
// so every read error is classed relay.ErrClosed and the supervisor's
// next WaitReady reopens the handle. A transport able to distinguish a
// transient stall must keep it out of the ErrClosed class.
func (c *Channel) Receive(_ context.Context, buf []byte) (int, error) {
	if c.dev == nil {
		return 0, relay.ErrClosed
	}
	n, err := c.dev.Read(buf)
	if err != nil {
		return 0, fmt.Errorf("%w: usb read: %v", relay.ErrClosed, err)
	}
	return n, nil
}

func (c *Channel) Send(_ context.Context, b []byte) error {
	if c.dev == nil {
		return relay.ErrClosed
	}
	if _, err := c.dev.Write(b); err != nil {
		return fmt.Errorf("usb write: %w", err)
	}
	return nil
}

func (c *Channel) Close() error {
	if c.dev == nil {
		return nil
	}
	err := c.dev.Close()
	c.dev = nil
	return err
}
