package hdmi

import (
	"log"

	"github.com/clktmr/hdmidev/debug"
)

// serviceInterrupt handles one assertion of the device's interrupt line. It
// reports false if the device has nothing pending, which the platform needs
// to share the line with other interrupt sources.
//
// It runs on the platform's interrupt delivery context and must not block.
// It may be called before attach has finished or after a halt, since a
// shared line can be asserted by another source at any time; until the
// device's own interrupts are enabled it will always take the not-mine path.
func (d *Device) serviceInterrupt() bool {
	debug.Assert(d.regs != nil, "isr before registers mapped")

	if d.regs.ctrl.Load()&ctrlInterrupt == 0 {
		return false
	}

	// The device claims an enabled interrupt is pending, so the status
	// register must name at least one cause. Anything else means the
	// hardware is in an impossible state.
	cause := d.regs.isr.Load()
	if cause == 0 {
		panic("hdmi: interrupt pending but no cause set")
	}
	if cause != intrFrame {
		d.warnOnce.Do(func() {
			log.Printf("hdmi: unexpected interrupt cause %#x", uint32(cause))
		})
	}

	// Wake waiters before acknowledging. Acknowledging first would open a
	// window where a new frame's interrupt replaces this one with the
	// wakeup still owed.
	d.vblank.Signal()

	// Acknowledge exactly the causes read above.
	d.regs.isr.Store(cause)
	return true
}
