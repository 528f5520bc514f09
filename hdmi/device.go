// Package hdmi drives the hdmi-cmd-gen display peripheral: a fixed-function
// scanout engine that reads a 640x480 truecolor pixel buffer from bus memory
// and outputs it over HDMI, raising one interrupt per frame.
//
// The package owns the device's register block and scanout buffer and
// exposes the two things a consumer needs to draw tear-free: the current
// scan position ([Device.Position]) and a blocking wait for vertical
// blanking ([Device.WaitVBlank]). Pixels are written through
// [Device.Image], [Device.Draw] or [Device.WriteAt].
//
// Bus-level resources come from a [Platform]: package uio implements it for
// real hardware, package hdmitest for simulated devices.
package hdmi

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/clktmr/hdmidev/mmio"
)

var (
	// ErrNoVBlank is returned by WaitVBlank when the device stopped
	// raising frame interrupts. It indicates a hardware or driver
	// malfunction, not a timing race.
	ErrNoVBlank = errors.New("hdmi: no vertical blank within frame period")
	// ErrNoPosition is returned by Position when the device never
	// presents a valid scan coordinate.
	ErrNoPosition = errors.New("hdmi: scan position unavailable")
)

// Platform grants a device instance its bus-level resources. All three
// acquisitions may fail; Attach maps such failures to a full rollback.
type Platform interface {
	// MapRegisters maps the device's register block, exactly [RegsLen]
	// bytes of device memory.
	MapRegisters() (Registers, error)
	// AllocBuffer allocates size bytes the device can scan out. The
	// memory must be contiguous from the device's point of view and
	// reachable through a 32-bit bus address; the CPU-side mapping is
	// expected to be write combined.
	AllocBuffer(size int) (Buffer, error)
	// RequestIRQ installs isr as handler for the device's interrupt
	// line. The line may be shared: isr reports whether the interrupt
	// was this device's. isr is invoked from a dedicated delivery
	// context and must not block.
	RequestIRQ(isr func() bool) (IRQ, error)
}

// Registers is a mapped register block. Closing it unmaps the block.
type Registers interface {
	io.Closer
	Window() *mmio.Window
}

// Buffer is memory shared between the CPU and the device. The two address
// forms need not be numerically equal, but must refer to the same physical
// memory.
type Buffer interface {
	io.Closer
	// Bytes returns the CPU's view of the memory. Writes may be buffered
	// and coalesced before they become visible to the device.
	Bytes() []byte
	// BusAddr returns the address the device uses for the memory.
	BusAddr() uint32
}

// IRQ is an installed interrupt handler. Closing it uninstalls the handler.
type IRQ interface {
	io.Closer
}

const paletteLen = 16

// Device is the handle for one attached display peripheral. It is created
// only by [Attach] and destroyed only by [Detach]; there is no observable
// in-between. Operating on a handle that was never fully attached or was
// already detached is a bug in the caller and panics.
//
// Device is safe for concurrent use. No method blocks except WaitVBlank.
type Device struct {
	platform Platform

	regsMap Registers
	regs    *registers
	buf     Buffer
	irq     IRQ

	// Color registers of the truecolor pipeline. Bookkeeping only, the
	// scanout engine itself reads full 32-bit pixels.
	palette []uint32
	mtx     sync.Mutex // guards palette

	vblank   *frameCond
	warnOnce sync.Once

	attached atomic.Bool
}

// Attach brings up the display peripheral on p and returns its handle.
//
// The bring-up order matters: map registers, allocate the scanout buffer,
// allocate the palette, install the interrupt handler, program the buffer
// address, enable interrupts, start the device. The buffer address is
// programmed exactly once, before interrupts are armed, so the device never
// scans an unprogrammed or stale address.
//
// If any step fails, everything acquired by the preceding steps is released
// again and the failing step's error is returned; a half-attached device is
// never observable.
func Attach(p Platform, o *Opts) (dev *Device, err error) {
	var opts Opts
	if o != nil {
		opts = *o
	}
	if err := opts.Check(); err != nil {
		return nil, err
	}

	d := &Device{platform: p, vblank: newFrameCond()}

	var acquired []io.Closer
	defer func() {
		if err == nil {
			return
		}
		// Unwind in reverse acquisition order.
		for i := len(acquired) - 1; i >= 0; i-- {
			acquired[i].Close()
		}
	}()

	d.regsMap, err = p.MapRegisters()
	if err != nil {
		return nil, fmt.Errorf("hdmi: map registers: %w", err)
	}
	acquired = append(acquired, d.regsMap)
	d.regs, err = newRegisters(d.regsMap.Window())
	if err != nil {
		return nil, err
	}

	d.buf, err = p.AllocBuffer(BufferLen)
	if err != nil {
		return nil, fmt.Errorf("hdmi: allocate buffer: %w", err)
	}
	acquired = append(acquired, d.buf)
	if len(d.buf.Bytes()) < BufferLen {
		return nil, fmt.Errorf("hdmi: platform returned %d byte buffer, want %d",
			len(d.buf.Bytes()), BufferLen)
	}

	d.palette = make([]uint32, paletteLen)

	d.irq, err = p.RequestIRQ(d.serviceInterrupt)
	if err != nil {
		return nil, fmt.Errorf("hdmi: request interrupt: %w", err)
	}
	acquired = append(acquired, d.irq)

	// Tell the device the buffer address.
	d.regs.buf.Store(d.buf.BusAddr())
	// Enable interrupts.
	d.regs.gie.Store(1)
	d.regs.ier.Store(intrFrame)
	// Start the device.
	d.regs.ctrl.Store(ctrlStart | ctrlAutoRestart)

	d.attached.Store(true)
	return d, nil
}

// Detach stops the device and releases all its resources in reverse
// acquisition order. The handle must not be used afterwards.
//
// The device keeps the stale buffer address in its register; the next attach
// treats it as garbage and programs a freshly allocated buffer.
func (d *Device) Detach() error {
	d.assertInit()

	// First and foremost, stop the device.
	d.regs.ctrl.Store(0)
	// Disable both interrupt enables for the next owner.
	d.regs.gie.Store(0)
	d.regs.ier.Store(0)

	d.attached.Store(false)
	return errors.Join(d.irq.Close(), d.buf.Close(), d.regsMap.Close())
}

// assertInit panics if d is not a fully attached handle. A violation is a
// bug in the caller, not a runtime condition to recover from.
func (d *Device) assertInit() {
	if d == nil || !d.attached.Load() {
		panic("hdmi: device not attached")
	}
}
