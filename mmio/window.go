package mmio

import (
	"fmt"
	"unsafe"
)

// Window is a word-addressed view of a mapped register block. All accesses
// are checked against the block's bounds and alignment. Passing an unaligned
// or out-of-range offset is a bug in the caller and panics, it's never
// reported as an error.
type Window struct {
	mem []byte
}

// NewWindow returns a Window over mem. The slice must be non-empty, its
// length a multiple of four and its start address word aligned. Mappings
// returned by mmap always satisfy this.
func NewWindow(mem []byte) *Window {
	if len(mem) == 0 || len(mem)%4 != 0 {
		panic("mmio: window length not a multiple of four")
	}
	if uintptr(unsafe.Pointer(unsafe.SliceData(mem)))%4 != 0 {
		panic("mmio: window base not word aligned")
	}
	return &Window{mem: mem}
}

// Len returns the length of the register block in bytes.
func (w *Window) Len() int { return len(w.mem) }

// U32 returns the register at byte offset off.
func (w *Window) U32(off int) *U32 {
	w.check(off)
	return (*U32)(unsafe.Pointer(&w.mem[off]))
}

// Reg returns the register at byte offset off in w, typed as T.
func Reg[T ~uint32](w *Window, off int) *R32[T] {
	w.check(off)
	return (*R32[T])(unsafe.Pointer(&w.mem[off]))
}

// Load returns the value of the register at byte offset off.
func (w *Window) Load(off int) uint32 { return w.U32(off).Load() }

// Store writes v to the register at byte offset off.
func (w *Window) Store(off int, v uint32) { w.U32(off).Store(v) }

func (w *Window) check(off int) {
	if off < 0 || off >= len(w.mem) {
		panic(fmt.Sprintf("mmio: register offset %#x out of range", off))
	}
	if off%4 != 0 {
		panic(fmt.Sprintf("mmio: register offset %#x unaligned", off))
	}
}
