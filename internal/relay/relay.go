// Package relay bridges a host-facing bulk-transfer channel and a
// device-facing serial byte stream. Host messages pass through verbatim;
// device bytes are accumulated and forwarded one complete frame at a
// time.
package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mimocad/fpbridge/internal/dump"
	"github.com/mimocad/fpbridge/internal/frame"
)

var (
	// ErrClosed reports that a channel's endpoint is gone. From the host
	// side it ends the current session.
	ErrClosed = errors.New("channel closed")

	// ErrTimeout reports that a device read's polling interval elapsed
	// with no bytes. Expected and frequent.
	ErrTimeout = errors.New("read timeout")

	// ErrLineBreak reports a serial break condition. Benign. Only
	// drivers able to observe a break produce it; the stock serial
	// driver absorbs breaks into its read timeout.
	ErrLineBreak = errors.New("line break")
)

// HostChannel is the bulk-transfer side facing the controlling
// application. Receive blocks without a timeout until one complete
// message arrives. Send must not retain b after it returns.
type HostChannel interface {
	// WaitReady blocks until the endpoint is connected and enabled.
	WaitReady(ctx context.Context) error
	Receive(ctx context.Context, buf []byte) (int, error)
	Send(ctx context.Context, b []byte) error
}

// DeviceChannel is the serial byte-stream side facing the sensor.
// Receive returns ErrTimeout when its polling interval elapses with no
// bytes and ErrLineBreak for a break condition. Send must not retain b
// after it returns.
type DeviceChannel interface {
	Receive(ctx context.Context, buf []byte) (int, error)
	Send(ctx context.Context, b []byte) error
}

const (
	DefaultBufferCap   = 256
	DefaultMTU         = 256
	DefaultReadTimeout = 10 * time.Millisecond
)

// Config holds the fixed per-session parameters. The device channel's
// polling interval is a driver setting, not relay state.
type Config struct {
	// Address is the module address completed frames must carry.
	Address frame.Address
	// BufferCap bounds the accumulation buffer (default 256).
	BufferCap int
	// MTU is the largest single host message (default 256).
	MTU int
}

func (c Config) withDefaults() Config {
	if c.BufferCap <= 0 {
		c.BufferCap = DefaultBufferCap
	}
	if c.MTU <= 0 {
		c.MTU = DefaultMTU
	}
	return c
}

// Bridge supervises relay sessions over one host/device channel pair.
type Bridge struct {
	Host   HostChannel
	Device DeviceChannel
	Config Config
}

// Run waits for the host endpoint to come up, relays with a fresh
// accumulation buffer until the session ends, and repeats. It returns
// when ctx is cancelled or the host channel can no longer become ready.
func (b *Bridge) Run(ctx context.Context) error {
	cfg := b.Config.withDefaults()
	for {
		if err := b.Host.WaitReady(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("wait for host: %w", err)
		}
		slog.Info("host connected", slog.String("address", cfg.Address.String()))

		err := b.relay(ctx, cfg)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		slog.Info("session ended", slog.Any("reason", err))
	}
}

type readResult struct {
	data []byte
	err  error
}

// relay runs one session. It is the sole owner of the accumulation
// buffer; the fan-in goroutines own only their scratch read buffers.
func (b *Bridge) relay(ctx context.Context, cfg Config) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	hostCh := readLoop(ctx, cfg.MTU, b.Host.Receive)
	devCh := readLoop(ctx, cfg.BufferCap, b.Device.Receive)

	acc := make([]byte, 0, cfg.BufferCap)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case res, ok := <-hostCh:
			if !ok {
				return ErrClosed
			}
			if err := b.forwardHost(ctx, res); err != nil {
				return err
			}
		case res, ok := <-devCh:
			if !ok {
				return ErrClosed
			}
			acc = b.collectDevice(ctx, acc, res, cfg)
		}
	}
}

// readLoop turns a blocking Receive into a stream of results. The
// channel's capacity of one keeps a completed read buffered when the
// other branch wins the select, so losing the race never drops bytes.
func readLoop(ctx context.Context, bufSize int, recv func(context.Context, []byte) (int, error)) <-chan readResult {
	out := make(chan readResult, 1)
	go func() {
		defer close(out)
		for {
			buf := make([]byte, bufSize)
			n, err := recv(ctx, buf)
			if ctx.Err() != nil {
				return
			}
			res := readResult{err: err}
			if err == nil {
				res.data = buf[:n]
			}
			select {
			case out <- res:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// forwardHost passes one host message to the device verbatim. Only a
// closed host endpoint ends the session.
func (b *Bridge) forwardHost(ctx context.Context, res readResult) error {
	if res.err != nil {
		if errors.Is(res.err, ErrClosed) {
			return res.err
		}
		slog.Error("host read failed", slog.Any("error", res.err))
		return nil
	}

	slog.Info("host -> device", slog.String("bytes", dump.Format(res.data)))
	if err := b.Device.Send(ctx, res.data); err != nil {
		slog.Error("device write failed", slog.Any("error", err))
	}
	return nil
}

// collectDevice appends freshly-arrived device bytes and drains every
// complete frame from the front of the buffer. It returns the remaining
// buffer.
func (b *Bridge) collectDevice(ctx context.Context, acc []byte, res readResult, cfg Config) []byte {
	if res.err != nil {
		switch {
		case errors.Is(res.err, ErrTimeout):
			// Polled frequently; no data is the common case.
		case errors.Is(res.err, ErrLineBreak):
			// Normal for serial operation.
		default:
			slog.Error("device read failed", slog.Any("error", res.err))
		}
		return acc
	}

	if len(acc)+len(res.data) > cfg.BufferCap {
		slog.Warn("accumulation buffer overflow, resetting",
			slog.Int("buffered", len(acc)),
			slog.Int("incoming", len(res.data)),
			slog.Int("capacity", cfg.BufferCap))
		return acc[:0]
	}
	acc = append(acc, res.data...)

	for len(acc) > 0 {
		n, err := frame.Detect(acc, cfg.Address)
		if errors.Is(err, frame.ErrIncomplete) {
			return acc
		}
		if err != nil {
			// A torn stream cannot resynchronize mid-frame; drop it so
			// the next response can be detected cleanly.
			slog.Warn("dropping unparseable buffer",
				slog.Any("error", err),
				slog.String("bytes", dump.Format(acc)))
			return acc[:0]
		}

		slog.Info("device -> host", slog.String("bytes", dump.Format(acc[:n])))
		if err := b.Host.Send(ctx, acc[:n]); err != nil {
			slog.Error("host write failed", slog.Any("error", err))
		}

		// Slide the leftover bytes down to the front.
		rest := copy(acc, acc[n:])
		acc = acc[:rest]
	}
	return acc
}
