// Package mmio provides typed access to memory mapped device registers.
//
// A register is always accessed as a whole 32-bit word with a single atomic
// load or store, which is what device registers require: no tearing, no
// read-modify-write invented by the compiler. Whether the access reaches the
// device uncached is a property of the mapping itself and must be guaranteed
// by whoever created it, e.g. an UIO mapping or a simulated block in tests.
package mmio

import (
	"sync/atomic"
)

// U32 is a single 32-bit register.
type U32 struct {
	r uint32
}

// Load returns the current value of the register.
func (r *U32) Load() uint32 { return atomic.LoadUint32(&r.r) }

// Store writes v to the register.
func (r *U32) Store(v uint32) { atomic.StoreUint32(&r.r, v) }

// R32 is a 32-bit register holding a value of type T, usually a flags type.
type R32[T ~uint32] struct {
	r uint32
}

// Load returns the current value of the register.
func (r *R32[T]) Load() T { return T(atomic.LoadUint32(&r.r)) }

// Store writes v to the register.
func (r *R32[T]) Store(v T) { atomic.StoreUint32(&r.r, uint32(v)) }

// SetBits sets all bits in the register that are set in mask. Note that this
// is implemented as a load followed by a store, not as an atomic
// read-modify-write.
func (r *R32[T]) SetBits(mask T) { r.Store(r.Load() | mask) }

// ClearBits clears all bits in the register that are set in mask.
func (r *R32[T]) ClearBits(mask T) { r.Store(r.Load() &^ mask) }
