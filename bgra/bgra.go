// Package bgra implements the pixel format scanned out by the display
// hardware: 32 bits per pixel, packed, with blue in the lowest byte, then
// green, red and alpha. This is ARGB32 as seen by a little-endian CPU.
package bgra

import (
	"image"
	"image/color"
)

// Image is an in-memory image whose At method returns color.RGBA values but
// whose backing store uses the device's BGRA byte order. It implements
// draw.Image and can therefore be used with everything in image/draw.
type Image struct {
	// Pix holds the image's pixels in B, G, R, A order. The pixel at
	// (x, y) starts at Pix[(y-Rect.Min.Y)*Stride + (x-Rect.Min.X)*4].
	Pix []byte
	// Stride is the Pix stride (in bytes) between vertically adjacent
	// pixels.
	Stride int
	// Rect is the image's bounds.
	Rect image.Rectangle
}

// New returns a new Image with the given bounds.
func New(r image.Rectangle) *Image {
	return &Image{
		Pix:    make([]byte, 4*r.Dx()*r.Dy()),
		Stride: 4 * r.Dx(),
		Rect:   r,
	}
}

// NewWithPix returns an Image with the given bounds over an existing pixel
// buffer, e.g. the mapped scanout buffer. len(pix) must be at least
// 4*r.Dx()*r.Dy().
func NewWithPix(pix []byte, r image.Rectangle) *Image {
	return &Image{
		Pix:    pix[:4*r.Dx()*r.Dy()],
		Stride: 4 * r.Dx(),
		Rect:   r,
	}
}

func (p *Image) ColorModel() color.Model { return color.RGBAModel }

func (p *Image) Bounds() image.Rectangle { return p.Rect }

func (p *Image) At(x, y int) color.Color { return p.RGBAAt(x, y) }

func (p *Image) RGBAAt(x, y int) color.RGBA {
	if !(image.Point{x, y}.In(p.Rect)) {
		return color.RGBA{}
	}
	i := p.PixOffset(x, y)
	return color.RGBA{R: p.Pix[i+2], G: p.Pix[i+1], B: p.Pix[i+0], A: p.Pix[i+3]}
}

func (p *Image) Set(x, y int, c color.Color) {
	if !(image.Point{x, y}.In(p.Rect)) {
		return
	}
	i := p.PixOffset(x, y)
	col := color.RGBAModel.Convert(c).(color.RGBA)
	p.Pix[i+0] = col.B
	p.Pix[i+1] = col.G
	p.Pix[i+2] = col.R
	p.Pix[i+3] = col.A
}

func (p *Image) SetRGBA(x, y int, c color.RGBA) {
	if !(image.Point{x, y}.In(p.Rect)) {
		return
	}
	i := p.PixOffset(x, y)
	p.Pix[i+0] = c.B
	p.Pix[i+1] = c.G
	p.Pix[i+2] = c.R
	p.Pix[i+3] = c.A
}

// PixOffset returns the index of the first element of Pix that corresponds to
// the pixel at (x, y).
func (p *Image) PixOffset(x, y int) int {
	return (y-p.Rect.Min.Y)*p.Stride + (x-p.Rect.Min.X)*4
}

// SubImage returns an image representing the portion of the image p visible
// through r. The returned value shares pixels with the original image.
func (p *Image) SubImage(r image.Rectangle) image.Image {
	r = r.Intersect(p.Rect)
	if r.Empty() {
		return &Image{}
	}
	return &Image{
		Pix:    p.Pix[p.PixOffset(r.Min.X, r.Min.Y):],
		Stride: p.Stride,
		Rect:   r,
	}
}

// Pack returns c packed the way both the pixel buffer and the device's color
// registers expect it: alpha in bits 31:24, red in 23:16, green in 15:8 and
// blue in 7:0.
func Pack(c color.RGBA) uint32 {
	return uint32(c.A)<<24 | uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
}
