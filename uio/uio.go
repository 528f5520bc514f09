// Package uio attaches the display peripheral through the Linux userspace
// I/O framework (uio_pdrv_genirq).
//
// The device tree entry for the peripheral must bind it to the uio driver
// with its register block as memory map 0 and its interrupt as the UIO
// interrupt. The kernel then exposes it as /dev/uioN: mmap of page 0 yields
// the register window and every blocking read completes once per interrupt.
package uio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"golang.org/x/sys/unix"
	"periph.io/x/host/v3/pmem"

	"github.com/clktmr/hdmidev/hdmi"
	"github.com/clktmr/hdmidev/mmio"
)

var _ hdmi.Platform = (*Platform)(nil)

// Platform provides the display peripheral's bus resources from one
// /dev/uioN device. It implements [hdmi.Platform].
type Platform struct {
	f *os.File

	mu      sync.Mutex
	irqBusy bool
}

// Open opens the uio device at path, e.g. "/dev/uio0".
func Open(path string) (*Platform, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("uio: %w", err)
	}
	return &Platform{f: f}, nil
}

// Close releases the uio device. It must not be called while a device is
// still attached through this platform.
func (p *Platform) Close() error { return p.f.Close() }

// MapRegisters maps UIO memory region 0, the device's register block. The
// kernel maps it uncached, so loads and stores observe the device's real
// state.
func (p *Platform) MapRegisters() (hdmi.Registers, error) {
	mem, err := p.mmap(0, os.Getpagesize())
	if err != nil {
		return nil, fmt.Errorf("uio: mmap registers: %w", err)
	}
	return &mapping{mem: mem, win: mmio.NewWindow(mem[:hdmi.RegsLen])}, nil
}

// AllocBuffer allocates physically contiguous, locked memory for the
// scanout buffer. The peripheral sits behind no IOMMU, so the bus address is
// the physical address and the allocation itself must be contiguous.
func (p *Platform) AllocBuffer(size int) (hdmi.Buffer, error) {
	pagesize := os.Getpagesize()
	m, err := pmem.Alloc((size + pagesize - 1) &^ (pagesize - 1))
	if err != nil {
		return nil, fmt.Errorf("uio: allocate scanout memory: %w", err)
	}
	phys := m.PhysAddr()
	if phys == 0 || phys+uint64(size) > 1<<32 {
		m.Close()
		return nil, fmt.Errorf("uio: buffer at %#x not reachable through a 32-bit bus address", phys)
	}
	return &buffer{m: m, size: size}, nil
}

// RequestIRQ starts forwarding the device's interrupts to isr. UIO masks
// the line after every event; it is unmasked again once isr returns.
func (p *Platform) RequestIRQ(isr func() bool) (hdmi.IRQ, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.irqBusy {
		return nil, errors.New("uio: interrupt line already requested")
	}
	if err := p.irqcontrol(1); err != nil {
		return nil, fmt.Errorf("uio: unmask interrupt: %w", err)
	}
	p.irqBusy = true

	i := &irqline{p: p, done: make(chan struct{})}
	go i.loop(isr)
	return i, nil
}

// irqcontrol writes the uio_pdrv_genirq interrupt control word: 1 unmasks
// the line, 0 masks it.
func (p *Platform) irqcontrol(v uint32) error {
	var buf [4]byte
	binary.NativeEndian.PutUint32(buf[:], v)
	_, err := p.f.Write(buf[:])
	return err
}

// mmap maps UIO memory region off without putting the file descriptor into
// blocking mode, which would stall the interrupt reader's use of the
// runtime poller.
func (p *Platform) mmap(region int, size int) (mem []byte, err error) {
	rc, err := p.f.SyscallConn()
	if err != nil {
		return nil, err
	}
	var mmapErr error
	err = rc.Control(func(fd uintptr) {
		off := int64(region) * int64(os.Getpagesize())
		mem, mmapErr = unix.Mmap(int(fd), off, size,
			unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	})
	if err == nil {
		err = mmapErr
	}
	return mem, err
}

type mapping struct {
	mem []byte
	win *mmio.Window
}

func (m *mapping) Window() *mmio.Window { return m.win }
func (m *mapping) Close() error         { return unix.Munmap(m.mem) }

type buffer struct {
	m    *pmem.MemAlloc
	size int
}

func (b *buffer) Bytes() []byte   { return b.m.Bytes()[:b.size] }
func (b *buffer) BusAddr() uint32 { return uint32(b.m.PhysAddr()) }
func (b *buffer) Close() error    { return b.m.Close() }

type irqline struct {
	p    *Platform
	done chan struct{}
}

// loop runs on a dedicated goroutine, the interrupt delivery context. Each
// read returns the interrupt event counter, which is only consumed to learn
// that the line fired.
func (i *irqline) loop(isr func() bool) {
	defer close(i.done)
	var count [4]byte
	for {
		if _, err := i.p.f.Read(count[:]); err != nil {
			// Deadline or closed file: the handler was uninstalled.
			return
		}
		isr()
		if err := i.p.irqcontrol(1); err != nil {
			return
		}
	}
}

// Close uninstalls the handler: it kicks the reader off the descriptor,
// waits for it to exit and leaves the line masked.
func (i *irqline) Close() error {
	i.p.f.SetReadDeadline(time.Now())
	<-i.done
	i.p.f.SetReadDeadline(time.Time{})

	err := i.p.irqcontrol(0)

	i.p.mu.Lock()
	i.p.irqBusy = false
	i.p.mu.Unlock()
	return err
}
