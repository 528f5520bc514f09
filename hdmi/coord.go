package hdmi

// The device generates exactly one timing: 640x480 at 60Hz, 32 bits per
// pixel, non-interlaced. The blanking thresholds below are constants of that
// mode, not derived from generic timing parameters.
const (
	Width  = 640
	Height = 480

	// BufferLen is the size of the scanout buffer in bytes.
	BufferLen = Width * Height * 4

	vblankLines = 45  // rows 0..44 are vertical blanking
	hblankDots  = 160 // columns 0..159 are horizontal blanking
	vsyncStart  = 10  // rows 10 and 11 are the vertical sync pulse
	vsyncEnd    = 12
)

// Coord is a snapshot of the device's current position in the scanout
// raster. It is decoded from a single register read and never cached.
type Coord struct {
	Frame uint16 // frame counter, 12 bits, wraps
	Y     uint16 // row, counted from the start of vertical blanking
	X     uint16 // column, counted from the start of horizontal blanking
}

// The coordinate word packs the frame counter in bits 31:20, the row in
// 19:10 and the column in 9:0.
func decodeCoord(v uint32) Coord {
	return Coord{
		Frame: uint16(v >> 20),
		Y:     uint16(v>>10) & 0x3ff,
		X:     uint16(v) & 0x3ff,
	}
}

// VBlank reports whether c lies in the vertical blanking interval, i.e.
// whether pixel memory can be updated without tearing the current frame.
func (c Coord) VBlank() bool { return c.Y < vblankLines }

// HBlank reports whether c lies in the horizontal blanking interval.
func (c Coord) HBlank() bool { return c.X < hblankDots }

// VSync reports whether c lies in the vertical sync pulse.
func (c Coord) VSync() bool { return c.Y >= vsyncStart && c.Y < vsyncEnd }

// The device updates the coordinate within a handful of bus cycles, so the
// valid bit is polled in a tight spin. The bound only exists to turn a dead
// device into a diagnosable error instead of a hang.
const coordPollMax = 1 << 16

// Position returns the device's current scan position. It returns
// ErrNoPosition if the device never presents a valid coordinate, which means
// the hardware has failed.
func (d *Device) Position() (Coord, error) {
	d.assertInit()
	for i := 0; i < coordPollMax; i++ {
		if d.regs.coordCtrl.Load()&coordValid != 0 {
			return decodeCoord(d.regs.coordData.Load()), nil
		}
	}
	return Coord{}, ErrNoPosition
}
