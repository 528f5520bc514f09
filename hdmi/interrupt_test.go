package hdmi_test

import (
	"testing"

	"github.com/clktmr/hdmidev/hdmi"
)

func snapshotRegs(t *testing.T, win interface{ Load(int) uint32 }) [hdmi.RegsLen / 4]uint32 {
	t.Helper()
	var s [hdmi.RegsLen / 4]uint32
	for i := range s {
		s[i] = win.Load(i * 4)
	}
	return s
}

func TestInterruptNotMine(t *testing.T) {
	p, d := attach(t)
	defer d.Detach()

	// Another source asserts the shared line while this device has
	// nothing pending: the handler must decline without side effects.
	before := snapshotRegs(t, p.Window())
	if p.Interrupt() {
		t.Error("handler claimed an interrupt that isn't pending")
	}
	if after := snapshotRegs(t, p.Window()); after != before {
		t.Errorf("registers modified: before %x, after %x", before, after)
	}
}

func TestInterruptFrame(t *testing.T) {
	p, d := attach(t)
	defer d.Detach()

	if !p.FrameInterrupt() {
		t.Error("per-frame interrupt not handled")
	}
}

func TestInterruptUnexpectedCause(t *testing.T) {
	p, d := attach(t)
	defer d.Detach()

	// An unexpected but non-zero cause is an anomaly, but must still be
	// serviced and acknowledged to avoid an interrupt storm.
	if !p.Raise(1 << 0) {
		t.Error("unexpected cause not serviced")
	}
}

func TestInterruptNoCauseFatal(t *testing.T) {
	p, d := attach(t)
	defer d.Detach()

	defer func() {
		if recover() == nil {
			t.Error("pending interrupt without cause did not panic")
		}
	}()
	p.Raise(0)
}
