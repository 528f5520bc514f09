package hdmi

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"

	"periph.io/x/conn/v3/display"

	"github.com/clktmr/hdmidev/bgra"
)

// Device exposes the scanout buffer as a pixel device: raw byte access via
// io.ReaderAt/io.WriterAt, image access via Image, and the
// display.Drawer surface.
var (
	_ io.ReaderAt    = (*Device)(nil)
	_ io.WriterAt    = (*Device)(nil)
	_ display.Drawer = (*Device)(nil)
)

var ErrOffsetOutOfRange = errors.New("hdmi: offset out of range")

// Size returns the size of the scanout buffer in bytes.
func (d *Device) Size() int { return BufferLen }

// ReadAt reads from the scanout buffer at byte offset off. Note that the
// buffer is write-combined memory: reading back one's own writes is allowed
// but slow and should be avoided in a drawing loop.
func (d *Device) ReadAt(p []byte, off int64) (n int, err error) {
	d.assertInit()
	if off < 0 || off > BufferLen {
		return 0, ErrOffsetOutOfRange
	}
	n = copy(p, d.buf.Bytes()[off:BufferLen])
	if n < len(p) {
		err = io.EOF
	}
	return
}

// WriteAt writes to the scanout buffer at byte offset off. The device picks
// up the pixels on its next pass; synchronize with [Device.WaitVBlank] to
// avoid tearing.
func (d *Device) WriteAt(p []byte, off int64) (n int, err error) {
	d.assertInit()
	if off < 0 || off > BufferLen {
		return 0, ErrOffsetOutOfRange
	}
	n = copy(d.buf.Bytes()[off:BufferLen], p)
	if n < len(p) {
		err = io.ErrShortWrite
	}
	return
}

// Image returns the scanout buffer as a drawable image. The returned image
// shares its pixels with the device: everything drawn to it is scanned out
// on the following frame.
func (d *Device) Image() *bgra.Image {
	d.assertInit()
	return bgra.NewWithPix(d.buf.Bytes(), image.Rect(0, 0, Width, Height))
}

func (d *Device) ColorModel() color.Model { return color.RGBAModel }

func (d *Device) Bounds() image.Rectangle { return image.Rect(0, 0, Width, Height) }

// Draw draws src onto the scanout buffer, converting to the device's pixel
// format as needed.
func (d *Device) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	draw.Draw(d.Image(), r, src, sp, draw.Src)
	return nil
}

// Halt stops scanout but keeps all resources attached. The display goes
// blank and frame interrupts stop, so a concurrent WaitVBlank will report
// ErrNoVBlank. Use [Device.Detach] to release the device.
func (d *Device) Halt() error {
	d.assertInit()
	d.regs.ctrl.Store(0)
	return nil
}

func (d *Device) String() string {
	return fmt.Sprintf("hdmi.Device{%dx%d}", Width, Height)
}

// SetColorRegister sets one of the 16 color registers that the truecolor
// pipeline keeps for palette compatibility. Components are 16-bit as used by
// framebuffer color maps and are rounded to 8 bit.
func (d *Device) SetColorRegister(reg int, r, g, b, a uint16) error {
	d.assertInit()
	if reg < 0 || reg >= paletteLen {
		return fmt.Errorf("hdmi: color register %d out of range", reg)
	}
	d.mtx.Lock()
	defer d.mtx.Unlock()
	d.palette[reg] = bgra.Pack(color.RGBA{
		R: cvtColor(r), G: cvtColor(g), B: cvtColor(b), A: cvtColor(a),
	})
	return nil
}

// Palette returns a copy of the color registers, packed like the pixels in
// the scanout buffer.
func (d *Device) Palette() [paletteLen]uint32 {
	d.assertInit()
	d.mtx.Lock()
	defer d.mtx.Unlock()
	var p [paletteLen]uint32
	copy(p[:], d.palette)
	return p
}

// cvtColor rounds a 16-bit color component to 8 bit.
func cvtColor(x uint16) uint8 {
	return uint8(min((uint32(x)+0x80)>>8, 0xff))
}
