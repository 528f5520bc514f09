package hdmi

import (
	"context"
	"sync/atomic"
	"time"
)

// FramePeriod is the nominal duration of one frame at the supported timing.
const FramePeriod = 16683 * time.Microsecond

// A wait that outlives a whole frame by a comfortable margin means the device
// has stopped raising interrupts, it is not a timing race.
const vblankTimeout = 20 * time.Millisecond

// frameCond wakes all waiters once per frame. It is the only structure
// shared between the interrupt delivery context and ordinary goroutines:
// Signal never blocks and wakes every waiter, since each waiter must
// re-evaluate its predicate itself.
//
// There is no lost-wakeup window: a waiter obtains the channel with Wait
// before checking its predicate, so a Signal racing the check still closes
// the channel the waiter will block on.
type frameCond struct {
	ch atomic.Pointer[chan struct{}]
}

func newFrameCond() *frameCond {
	c := &frameCond{}
	ch := make(chan struct{})
	c.ch.Store(&ch)
	return c
}

// Signal wakes all current waiters. Safe to call concurrently with Wait, but
// not with another Signal.
func (c *frameCond) Signal() {
	next := make(chan struct{})
	close(*c.ch.Swap(&next))
}

// Wait returns a channel that is closed by the next Signal.
func (c *frameCond) Wait() <-chan struct{} {
	return *c.ch.Load()
}

// WaitVBlank blocks until the device is in vertical blanking. If it already
// is when called, WaitVBlank returns immediately without waiting for a frame
// boundary; callers pacing against the boundary itself must track
// [Coord.Frame] across calls to [Device.Position] instead.
//
// It returns ctx.Err() if ctx is cancelled and ErrNoVBlank if no vertical
// blank is observed for well over one frame period. The latter never happens
// on working hardware and indicates a stalled or misprogrammed device.
func (d *Device) WaitVBlank(ctx context.Context) error {
	d.assertInit()

	timeout := time.NewTimer(vblankTimeout)
	defer timeout.Stop()
	for {
		// Register with the wait queue before checking the predicate.
		frame := d.vblank.Wait()

		pos, err := d.Position()
		if err != nil {
			return err
		}
		if pos.VBlank() {
			return nil
		}

		// Wakeups only say that a frame boundary passed, not that this
		// waiter's predicate holds now. Re-check after every one.
		select {
		case <-frame:
		case <-ctx.Done():
			return ctx.Err()
		case <-timeout.C:
			return ErrNoVBlank
		}
	}
}
