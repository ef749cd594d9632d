package milk

import (
	"fmt"
	"image"
	"image/color"
)

// RGB is a packed 24-bit image: Width*Height pixels of R,G,B bytes, row-major,
// with no row padding. It implements image.Image so it can be handed straight
// to the standard encoders.
type RGB struct {
	Pix    []uint8
	Width  int
	Height int
}

// NewRGB allocates a black image. Negative dimensions are treated as zero.
func NewRGB(width, height int) *RGB {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &RGB{Pix: make([]uint8, width*height*3), Width: width, Height: height}
}

// FromPix wraps pix without copying. It fails if the length does not match
// the dimensions.
func FromPix(pix []uint8, width, height int) (*RGB, error) {
	if width < 0 || height < 0 {
		return nil, fmt.Errorf("invalid dimensions %dx%d", width, height)
	}
	if len(pix) != width*height*3 {
		return nil, fmt.Errorf("pixel buffer length %d does not match %dx%d", len(pix), width, height)
	}
	return &RGB{Pix: pix, Width: width, Height: height}, nil
}

// FromImage converts any image.Image into a new RGB buffer. Alpha is dropped
// without compositing: non-premultiplied color values are kept as-is, including
// the color stored under fully transparent pixels. A nil image, typed or not,
// yields nil.
func FromImage(src image.Image) *RGB {
	if isNilImage(src) {
		return nil
	}
	b := src.Bounds()
	out := NewRGB(b.Dx(), b.Dy())
	switch s := src.(type) {
	case *RGB:
		copy(out.Pix, s.Pix)
		return out
	case *image.NRGBA:
		copyRGBA4(out, s.Pix, s.Stride, s.PixOffset(b.Min.X, b.Min.Y))
		return out
	case *image.NRGBA64:
		copyNRGBA64(out, s.Pix, s.Stride, s.PixOffset(b.Min.X, b.Min.Y))
		return out
	case *image.RGBA:
		if s.Opaque() {
			copyRGBA4(out, s.Pix, s.Stride, s.PixOffset(b.Min.X, b.Min.Y))
			return out
		}
	}
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			var r, g, bl uint8
			switch c := src.At(x, y).(type) {
			case color.NRGBA:
				r, g, bl = c.R, c.G, c.B
			case color.NRGBA64:
				r, g, bl = uint8(c.R>>8), uint8(c.G>>8), uint8(c.B>>8)
			default:
				n := color.NRGBAModel.Convert(c).(color.NRGBA)
				r, g, bl = n.R, n.G, n.B
			}
			out.Pix[i+0] = r
			out.Pix[i+1] = g
			out.Pix[i+2] = bl
			i += 3
		}
	}
	return out
}

func isNilImage(src image.Image) bool {
	switch s := src.(type) {
	case nil:
		return true
	case *RGB:
		return s == nil
	case *image.NRGBA:
		return s == nil
	case *image.NRGBA64:
		return s == nil
	case *image.RGBA:
		return s == nil
	}
	return false
}

// copyRGBA4 packs 4-byte pixels starting at off into dst.
func copyRGBA4(dst *RGB, pix []uint8, stride, off int) {
	i := 0
	for y := 0; y < dst.Height; y++ {
		row := pix[off+y*stride:]
		for x := 0; x < dst.Width; x++ {
			dst.Pix[i+0] = row[x*4+0]
			dst.Pix[i+1] = row[x*4+1]
			dst.Pix[i+2] = row[x*4+2]
			i += 3
		}
	}
}

// copyNRGBA64 packs the high byte of each 16-bit channel starting at off into dst.
func copyNRGBA64(dst *RGB, pix []uint8, stride, off int) {
	i := 0
	for y := 0; y < dst.Height; y++ {
		row := pix[off+y*stride:]
		for x := 0; x < dst.Width; x++ {
			dst.Pix[i+0] = row[x*8+0]
			dst.Pix[i+1] = row[x*8+2]
			dst.Pix[i+2] = row[x*8+4]
			i += 3
		}
	}
}

// Clone returns a deep copy.
func (m *RGB) Clone() *RGB {
	if m == nil {
		return nil
	}
	out := &RGB{Pix: make([]uint8, len(m.Pix)), Width: m.Width, Height: m.Height}
	copy(out.Pix, m.Pix)
	return out
}

func (m *RGB) stride() int { return m.Width * 3 }

// valid reports whether Pix holds exactly Width*Height packed pixels.
func (m *RGB) valid() bool {
	return m != nil && m.Width >= 0 && m.Height >= 0 && len(m.Pix) == m.Width*m.Height*3
}

// Row returns the bytes of row y, aliasing Pix.
func (m *RGB) Row(y int) []uint8 {
	s := m.stride()
	return m.Pix[y*s : (y+1)*s]
}

// PixOffset returns the index of the first byte of pixel (x, y).
func (m *RGB) PixOffset(x, y int) int {
	return y*m.stride() + x*3
}

func (m *RGB) ColorModel() color.Model { return color.RGBAModel }

func (m *RGB) Bounds() image.Rectangle { return image.Rect(0, 0, m.Width, m.Height) }

func (m *RGB) At(x, y int) color.Color { return m.RGBAAt(x, y) }

// RGBAAt returns the opaque color at (x, y), or transparent black outside the bounds.
func (m *RGB) RGBAAt(x, y int) color.RGBA {
	if !(image.Point{x, y}.In(m.Bounds())) {
		return color.RGBA{}
	}
	i := m.PixOffset(x, y)
	return color.RGBA{m.Pix[i+0], m.Pix[i+1], m.Pix[i+2], 0xff}
}

// SetRGB writes the color at (x, y); out-of-bounds writes are ignored.
func (m *RGB) SetRGB(x, y int, c color.RGBA) {
	if !(image.Point{x, y}.In(m.Bounds())) {
		return
	}
	i := m.PixOffset(x, y)
	m.Pix[i+0] = c.R
	m.Pix[i+1] = c.G
	m.Pix[i+2] = c.B
}

// Opaque is always true; RGB has no alpha channel.
func (m *RGB) Opaque() bool { return true }

// NRGBA expands the buffer to an opaque *image.NRGBA, which the standard
// encoders handle on their fast paths.
func (m *RGB) NRGBA() *image.NRGBA {
	out := image.NewNRGBA(m.Bounds())
	j := 0
	for i := 0; i+2 < len(m.Pix); i += 3 {
		out.Pix[j+0] = m.Pix[i+0]
		out.Pix[j+1] = m.Pix[i+1]
		out.Pix[j+2] = m.Pix[i+2]
		out.Pix[j+3] = 0xff
		j += 4
	}
	return out
}
