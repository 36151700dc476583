package relay

import (
	"context"
	"sync"
	"time"
)

// MemHost is an in-memory HostChannel fed and drained by tests and
// examples.
type MemHost struct {
	In  chan []byte // messages delivered to Receive
	Out chan []byte // messages collected from Send

	closed    chan struct{}
	closeOnce sync.Once
}

func NewMemHost() *MemHost {
	return &MemHost{
		In:     make(chan []byte, 8),
		Out:    make(chan []byte, 8),
		closed: make(chan struct{}),
	}
}

// Close simulates the host endpoint going away.
func (h *MemHost) Close() {
	h.closeOnce.Do(func() { close(h.closed) })
}

func (h *MemHost) WaitReady(ctx context.Context) error {
	select {
	case <-h.closed:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

func (h *MemHost) Receive(ctx context.Context, buf []byte) (int, error) {
	select {
	case <-h.closed:
		return 0, ErrClosed
	case <-ctx.Done():
		return 0, ctx.Err()
	case msg := <-h.In:
		return copy(buf, msg), nil
	}
}

func (h *MemHost) Send(_ context.Context, b []byte) error {
	out := make([]byte, len(b))
	copy(out, b)
	select {
	case <-h.closed:
		return ErrClosed
	case h.Out <- out:
		return nil
	}
}

// MemDevice is an in-memory DeviceChannel with the polling behavior of
// a serial driver: reads time out when no bytes are pending.
type MemDevice struct {
	In      chan []byte // byte chunks delivered to Receive
	Out     chan []byte // writes collected from Send
	Timeout time.Duration
}

func NewMemDevice() *MemDevice {
	return &MemDevice{
		In:      make(chan []byte, 8),
		Out:     make(chan []byte, 8),
		Timeout: DefaultReadTimeout,
	}
}

func (d *MemDevice) Receive(ctx context.Context, buf []byte) (int, error) {
	t := time.NewTimer(d.Timeout)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case <-t.C:
		return 0, ErrTimeout
	case chunk := <-d.In:
		return copy(buf, chunk), nil
	}
}

func (d *MemDevice) Send(_ context.Context, b []byte) error {
	out := make([]byte, len(b))
	copy(out, b)
	d.Out <- out
	return nil
}
