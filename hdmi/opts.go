package hdmi

import (
	"errors"
	"fmt"
)

// Opts proposes a display configuration. The hardware supports exactly one
// timing mode; a proposal that doesn't match it is rejected, never silently
// coerced. The zero value selects the supported mode.
type Opts struct {
	W, H int // visible resolution; 0 means 640, 480

	// Virtual buffer resolution. May be proposed smaller than the
	// visible resolution and is then rounded up to it; larger values
	// would imply panning and are rejected.
	VirtualW, VirtualH int

	BitsPerPixel int  // 0 means 32
	Interlaced   bool // must be false

	// Panning offsets into the virtual buffer. The engine always scans
	// from the buffer start, so both must be zero.
	PanX, PanY int
}

// Check validates o against the supported mode and fills in defaults. An
// undersized virtual resolution is rounded up to the physical one; any other
// mismatch is an error.
func (o *Opts) Check() error {
	if o.W == 0 {
		o.W = Width
	}
	if o.H == 0 {
		o.H = Height
	}
	if o.BitsPerPixel == 0 {
		o.BitsPerPixel = 32
	}

	if o.W != Width || o.H != Height {
		return fmt.Errorf("hdmi: unsupported resolution %dx%d, only %dx%d",
			o.W, o.H, Width, Height)
	}
	if o.BitsPerPixel != 32 {
		return fmt.Errorf("hdmi: unsupported depth %d bpp, only 32", o.BitsPerPixel)
	}
	if o.Interlaced {
		return errors.New("hdmi: interlaced output not supported")
	}
	if o.PanX != 0 || o.PanY != 0 {
		return errors.New("hdmi: panning not supported")
	}

	if o.VirtualW < o.W {
		o.VirtualW = o.W
	}
	if o.VirtualH < o.H {
		o.VirtualH = o.H
	}
	if o.VirtualW != o.W || o.VirtualH != o.H {
		return fmt.Errorf("hdmi: unsupported virtual resolution %dx%d",
			o.VirtualW, o.VirtualH)
	}
	return nil
}
