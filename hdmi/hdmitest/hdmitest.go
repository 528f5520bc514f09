// Package hdmitest provides a simulated display peripheral for tests.
//
// The simulated register block is plain memory: every register reads back
// exactly what was last stored, and side effects the real device would apply
// (write-one-to-clear, coordinate sampling) are applied by the test through
// the injection methods instead. Interrupts are delivered synchronously on
// the caller's goroutine, which stands in for the platform's interrupt
// delivery context.
package hdmitest

import (
	"errors"
	"sync"

	"github.com/clktmr/hdmidev/hdmi"
	"github.com/clktmr/hdmidev/mmio"
)

// Register offsets and bits of the simulated device. Kept in sync with the
// hardware's datasheet values, which the hdmi package programs against.
const (
	regCtrl      = 0x00
	regGIE       = 0x04
	regIER       = 0x08
	regISR       = 0x0c
	regBuf       = 0x10
	regCoordData = 0x18
	regCoordCtrl = 0x1c

	ctrlInterrupt = 1 << 9
	coordValid    = 1 << 0

	// FrameIRQ is the per-frame interrupt cause bit.
	FrameIRQ = 1 << 1
)

// Platform simulates the bus-level resources of one display peripheral. It
// implements [hdmi.Platform].
//
// The exported error fields inject failures into the corresponding attach
// step. Live resource accounting allows rollback tests to assert that a
// failed or finished attach leaks nothing.
type Platform struct {
	MapErr   error // returned by MapRegisters
	AllocErr error // returned by AllocBuffer
	IRQErr   error // returned by RequestIRQ

	win *mmio.Window
	isr func() bool

	mu       sync.Mutex
	liveRegs int
	liveBufs int
	liveIRQs int
	nextBus  uint32
}

// New returns a simulated platform with an all-zero register block.
func New() *Platform {
	return &Platform{
		win:     mmio.NewWindow(make([]byte, hdmi.RegsLen)),
		nextBus: 0x1000_0000,
	}
}

// Window returns the simulated register block for assertions and low-level
// manipulation.
func (p *Platform) Window() *mmio.Window { return p.win }

// Live returns the number of currently held platform resources. It is zero
// before the first attach, after a failed attach and after detach.
func (p *Platform) Live() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.liveRegs + p.liveBufs + p.liveIRQs
}

func (p *Platform) MapRegisters() (hdmi.Registers, error) {
	if p.MapErr != nil {
		return nil, p.MapErr
	}
	p.mu.Lock()
	p.liveRegs++
	p.mu.Unlock()
	return &mapping{p}, nil
}

func (p *Platform) AllocBuffer(size int) (hdmi.Buffer, error) {
	if p.AllocErr != nil {
		return nil, p.AllocErr
	}
	p.mu.Lock()
	bus := p.nextBus
	p.nextBus += uint32(size)
	p.liveBufs++
	p.mu.Unlock()
	return &buffer{p: p, mem: make([]byte, size), bus: bus}, nil
}

func (p *Platform) RequestIRQ(isr func() bool) (hdmi.IRQ, error) {
	if p.IRQErr != nil {
		return nil, p.IRQErr
	}
	p.mu.Lock()
	if p.isr != nil {
		p.mu.Unlock()
		return nil, errors.New("hdmitest: interrupt line already requested")
	}
	p.isr = isr
	p.liveIRQs++
	p.mu.Unlock()
	return &irqline{p}, nil
}

// SetCoord presents (frame, y, x) as the device's current scan position and
// marks it valid.
func (p *Platform) SetCoord(frame, y, x uint16) {
	word := uint32(frame&0xfff)<<20 | uint32(y&0x3ff)<<10 | uint32(x&0x3ff)
	p.win.Store(regCoordData, word)
	p.win.Store(regCoordCtrl, coordValid)
}

// ClearCoordValid withholds the coordinate valid bit, simulating a device
// that never finishes a coordinate sample.
func (p *Platform) ClearCoordValid() {
	p.win.Store(regCoordCtrl, 0)
}

// Interrupt asserts the interrupt line without any device state change, as
// another source sharing the line would. It reports the handler's claim.
func (p *Platform) Interrupt() bool {
	p.mu.Lock()
	isr := p.isr
	p.mu.Unlock()
	if isr == nil {
		return false
	}
	return isr()
}

// Raise marks the interrupt causes in mask pending, asserts the line and
// afterwards applies the handler's write-one-to-clear acknowledge. It
// reports the handler's claim.
func (p *Platform) Raise(mask uint32) bool {
	p.win.Store(regISR, mask)
	p.win.Store(regCtrl, p.win.Load(regCtrl)|ctrlInterrupt)
	handled := p.Interrupt()

	// The real status register clears the bits written back by the
	// handler; in plain memory the write-back left them set again.
	if handled {
		p.win.Store(regISR, 0)
		p.win.Store(regCtrl, p.win.Load(regCtrl)&^uint32(ctrlInterrupt))
	}
	return handled
}

// FrameInterrupt delivers one per-frame interrupt.
func (p *Platform) FrameInterrupt() bool {
	return p.Raise(FrameIRQ)
}

// BufAddr returns the bus address the driver programmed into the device.
func (p *Platform) BufAddr() uint32 { return p.win.Load(regBuf) }

// Running reports whether the device was started.
func (p *Platform) Running() bool { return p.win.Load(regCtrl)&0x1 != 0 }

// IRQEnabled reports whether both interrupt enable paths are armed for the
// per-frame interrupt.
func (p *Platform) IRQEnabled() bool {
	return p.win.Load(regGIE)&0x1 != 0 && p.win.Load(regIER)&FrameIRQ != 0
}

type mapping struct{ p *Platform }

func (m *mapping) Window() *mmio.Window { return m.p.win }

func (m *mapping) Close() error {
	m.p.mu.Lock()
	defer m.p.mu.Unlock()
	m.p.liveRegs--
	return nil
}

type buffer struct {
	p   *Platform
	mem []byte
	bus uint32
}

func (b *buffer) Bytes() []byte   { return b.mem }
func (b *buffer) BusAddr() uint32 { return b.bus }

func (b *buffer) Close() error {
	b.p.mu.Lock()
	defer b.p.mu.Unlock()
	b.p.liveBufs--
	return nil
}

type irqline struct{ p *Platform }

func (i *irqline) Close() error {
	i.p.mu.Lock()
	defer i.p.mu.Unlock()
	i.p.isr = nil
	i.p.liveIRQs--
	return nil
}
