// Package hosthid implements the host-facing channel over HID reports,
// for sensors bridged behind a HID function instead of raw bulk
// endpoints.
package hosthid

import (
	"context"
	"fmt"
	"time"

	usbhid "rafaelmartins.com/p/usbhid"

	"github.com/mimocad/fpbridge/internal/relay"
)

const DefaultPollInterval = 500 * time.Millisecond

// Channel is a relay.HostChannel backed by usbhid. Each host message
// travels as one output/input report.
type Channel struct {
	VendorID     uint16
	ProductID    uint16
	ReportID     byte          // output report id (default 1)
	PollInterval time.Duration // enumeration interval while waiting

	dev *usbhid.Device
}

func (c *Channel) WaitReady(ctx context.Context) error {
	if c.dev != nil {
		c.dev.Close()
		c.dev = nil
	}

	interval := c.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	for {
		dev, err := usbhid.Get(func(d *usbhid.Device) bool {
			return d.VendorId() == c.VendorID && d.ProductId() == c.ProductID
		}, true, false)
		if err == nil {
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

// Receive blocks for one input report. usbhid reports no recoverable
// read errors: a failed read means the device is gone, so every read
// error is classed relay.ErrClosed and the supervisor's next WaitReady
// reopens the device.
func (c *Channel) Receive(_ context.Context, buf []byte) (int, error) {
	if c.dev == nil {
		return 0, relay.ErrClosed
	}
	_, data, err := c.dev.GetInputReport()
	if err != nil {
		return 0, fmt.Errorf("%w: hid read: %v", relay.ErrClosed, err)
	}
	return copy(buf, data), nil
}

func (c *Channel) Send(_ context.Context, b []byte) error {
	if c.dev == nil {
		return relay.ErrClosed
	}
	rid := c.ReportID
	if rid == 0 {
		rid = 1
	}
	if err := c.dev.SetOutputReport(rid, b); err != nil {
		return fmt.Errorf("hid write: %w", err)
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
