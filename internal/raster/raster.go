package raster

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// Color is a single 8-bit-per-channel RGB pixel. There is no alpha.
type Color struct {
	R, G, B uint8
}

var (
	Black = Color{0, 0, 0}
	White = Color{255, 255, 255}
)

// Image is a width×height grid of pixels stored row-major.
// A zero width or height is the empty image, which codecs return
// when nothing could be loaded.
type Image struct {
	width  int
	height int
	pixels []Color
}

// RowRangeError reports access to a row or column outside the image.
type RowRangeError struct {
	Index int
	Limit int
}

func (e *RowRangeError) Error() string {
	return fmt.Sprintf("raster: index %d out of range [0, %d)", e.Index, e.Limit)
}

// New allocates a width×height image with every pixel set to fill.
func New(width, height int, fill Color) *Image {
	if width < 0 || height < 0 {
		panic(fmt.Sprintf("raster: negative dimensions %dx%d", width, height))
	}
	px := make([]Color, width*height)
	for i := range px {
		px[i] = fill
	}
	return &Image{width: width, height: height, pixels: px}
}

func (m *Image) Width() int  { return m.width }
func (m *Image) Height() int { return m.height }

// Empty reports whether the image has no pixels.
// A nil image is empty.
func (m *Image) Empty() bool {
	return m == nil || m.width == 0 || m.height == 0
}

// Row returns row y as a slice aliasing the image. It panics with a
// *RowRangeError when y is outside [0, Height).
func (m *Image) Row(y int) []Color {
	if y < 0 || y >= m.height {
		panic(&RowRangeError{Index: y, Limit: m.height})
	}
	off := y * m.width
	return m.pixels[off : off+m.width : off+m.width]
}

// At returns the pixel at (x, y).
func (m *Image) At(x, y int) Color {
	row := m.Row(y)
	if x < 0 || x >= m.width {
		panic(&RowRangeError{Index: x, Limit: m.width})
	}
	return row[x]
}

// Set overwrites the pixel at (x, y).
func (m *Image) Set(x, y int, c Color) {
	row := m.Row(y)
	if x < 0 || x >= m.width {
		panic(&RowRangeError{Index: x, Limit: m.width})
	}
	row[x] = c
}

// Equal reports whether both images have the same size and pixels.
func (m *Image) Equal(o *Image) bool {
	if m.Empty() || o.Empty() {
		return m.Empty() && o.Empty()
	}
	if m.width != o.width || m.height != o.height {
		return false
	}
	for i := range m.pixels {
		if m.pixels[i] != o.pixels[i] {
			return false
		}
	}
	return true
}

// NRGBA converts the image to an opaque *image.NRGBA.
func (m *Image) NRGBA() *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, m.width, m.height))
	for y := 0; y < m.height; y++ {
		row := m.Row(y)
		dst := out.Pix[y*out.Stride : y*out.Stride+m.width*4]
		for x, c := range row {
			dst[x*4+0] = c.R
			dst[x*4+1] = c.G
			dst[x*4+2] = c.B
			dst[x*4+3] = 0xff
		}
	}
	return out
}

// FromImage copies any image.Image into an Image. Alpha is dropped
// without compositing; transparent pixels keep their color channels.
func FromImage(src image.Image) *Image {
	b := src.Bounds()
	if b.Empty() {
		return New(0, 0, Black)
	}

	// imaging.Clone normalizes every source model into non-premultiplied
	// NRGBA with bounds starting at (0, 0).
	n := imaging.Clone(src)
	w, h := n.Rect.Dx(), n.Rect.Dy()
	out := New(w, h, Black)
	for y := 0; y < h; y++ {
		row := out.Row(y)
		srcRow := n.Pix[y*n.Stride : y*n.Stride+w*4]
		for x := range row {
			row[x] = Color{R: srcRow[x*4+0], G: srcRow[x*4+1], B: srcRow[x*4+2]}
		}
	}
	return out
}
