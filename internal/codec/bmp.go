package codec

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/AnyUserName/imgconv/internal/raster"
)

// BMP layout constants for the only variant written: 24-bit, uncompressed,
// BITMAPINFOHEADER.
const (
	bmpFileHeaderLen = 14
	bmpInfoHeaderLen = 40
	BMPHeaderLen     = bmpFileHeaderLen + bmpInfoHeaderLen

	bmpPlanes       = 1
	bmpBitsPerPixel = 24
	bmpCompression  = 0
	bmpDPI          = 11811 // pixels per meter, ≈300 DPI
	bmpColorsUsed   = 0
	bmpColorsImport = 0x1000000
)

// MaxPixels bounds width*height accepted by the decoders, so that a
// hostile header cannot force an enormous allocation.
const MaxPixels = 1 << 28

// BMPFileHeader is the 14-byte BITMAPFILEHEADER.
type BMPFileHeader struct {
	Magic      [2]byte
	Size       uint32
	Reserved   uint32
	DataOffset uint32
}

// BMPInfoHeader is the 40-byte BITMAPINFOHEADER.
type BMPInfoHeader struct {
	HeaderSize      uint32
	Width           int32
	Height          int32
	Planes          uint16
	BitsPerPixel    uint16
	Compression     uint32
	DataSize        uint32
	XPixelsPerMeter int32
	YPixelsPerMeter int32
	ColorsUsed      int32
	ColorsImportant int32
}

// BMPStride returns the byte length of one 24-bit row padded to 4 bytes.
func BMPStride(width int) int {
	return 4 * ((width*3 + 3) / 4)
}

func newBMPHeaders(width, height int) (BMPFileHeader, BMPInfoHeader) {
	data := uint32(BMPStride(width) * height)
	fh := BMPFileHeader{
		Magic:      [2]byte{'B', 'M'},
		Size:       BMPHeaderLen + data,
		DataOffset: BMPHeaderLen,
	}
	ih := BMPInfoHeader{
		HeaderSize:      bmpInfoHeaderLen,
		Width:           int32(width),
		Height:          int32(height),
		Planes:          bmpPlanes,
		BitsPerPixel:    bmpBitsPerPixel,
		Compression:     bmpCompression,
		DataSize:        data,
		XPixelsPerMeter: bmpDPI,
		YPixelsPerMeter: bmpDPI,
		ColorsUsed:      bmpColorsUsed,
		ColorsImportant: bmpColorsImport,
	}
	return fh, ih
}

// marshalBMPHeaders writes both headers at fixed offsets, little-endian.
func marshalBMPHeaders(fh BMPFileHeader, ih BMPInfoHeader) [BMPHeaderLen]byte {
	var b [BMPHeaderLen]byte
	le := binary.LittleEndian

	b[0], b[1] = fh.Magic[0], fh.Magic[1]
	le.PutUint32(b[2:6], fh.Size)
	le.PutUint32(b[6:10], fh.Reserved)
	le.PutUint32(b[10:14], fh.DataOffset)

	le.PutUint32(b[14:18], ih.HeaderSize)
	le.PutUint32(b[18:22], uint32(ih.Width))
	le.PutUint32(b[22:26], uint32(ih.Height))
	le.PutUint16(b[26:28], ih.Planes)
	le.PutUint16(b[28:30], ih.BitsPerPixel)
	le.PutUint32(b[30:34], ih.Compression)
	le.PutUint32(b[34:38], ih.DataSize)
	le.PutUint32(b[38:42], uint32(ih.XPixelsPerMeter))
	le.PutUint32(b[42:46], uint32(ih.YPixelsPerMeter))
	le.PutUint32(b[46:50], uint32(ih.ColorsUsed))
	le.PutUint32(b[50:54], uint32(ih.ColorsImportant))
	return b
}

func unmarshalBMPHeaders(b *[BMPHeaderLen]byte) (BMPFileHeader, BMPInfoHeader) {
	le := binary.LittleEndian
	fh := BMPFileHeader{
		Magic:      [2]byte{b[0], b[1]},
		Size:       le.Uint32(b[2:6]),
		Reserved:   le.Uint32(b[6:10]),
		DataOffset: le.Uint32(b[10:14]),
	}
	ih := BMPInfoHeader{
		HeaderSize:      le.Uint32(b[14:18]),
		Width:           int32(le.Uint32(b[18:22])),
		Height:          int32(le.Uint32(b[22:26])),
		Planes:          le.Uint16(b[26:28]),
		BitsPerPixel:    le.Uint16(b[28:30]),
		Compression:     le.Uint32(b[30:34]),
		DataSize:        le.Uint32(b[34:38]),
		XPixelsPerMeter: int32(le.Uint32(b[38:42])),
		YPixelsPerMeter: int32(le.Uint32(b[42:46])),
		ColorsUsed:      int32(le.Uint32(b[46:50])),
		ColorsImportant: int32(le.Uint32(b[50:54])),
	}
	return fh, ih
}

// EncodeBMP writes img as an uncompressed 24-bit bottom-up BMP.
func EncodeBMP(w io.Writer, img *raster.Image) error {
	width, height := 0, 0
	if img != nil {
		width, height = img.Width(), img.Height()
	}
	if int64(width)*int64(height) > MaxPixels {
		return fmt.Errorf("%w: %dx%d exceeds pixel limit", ErrUnsupported, width, height)
	}

	hdr := marshalBMPHeaders(newBMPHeaders(width, height))
	if _, err := w.Write(hdr[:]); err != nil {
		return fmt.Errorf("write bmp header: %w", err)
	}

	// Allocated once and zeroed, so the padding tail of every row is 0.
	buf := make([]byte, BMPStride(width))
	for y := height - 1; y >= 0; y-- {
		for x, c := range img.Row(y) {
			buf[x*3+0] = c.B
			buf[x*3+1] = c.G
			buf[x*3+2] = c.R
		}
		if _, err := w.Write(buf); err != nil {
			return fmt.Errorf("write bmp row %d: %w", y, err)
		}
	}
	return nil
}

// ReadBMPHeader reads and validates the 54-byte header pair.
func ReadBMPHeader(r io.Reader) (BMPFileHeader, BMPInfoHeader, error) {
	var b [BMPHeaderLen]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return BMPFileHeader{}, BMPInfoHeader{}, truncated(err, "bmp header")
	}
	fh, ih := unmarshalBMPHeaders(&b)
	return fh, ih, validateBMPHeaders(fh, ih)
}

func validateBMPHeaders(fh BMPFileHeader, ih BMPInfoHeader) error {
	switch {
	case fh.Magic != [2]byte{'B', 'M'}:
		return fmt.Errorf("%w: bad bmp signature %q", ErrFormat, fh.Magic[:])
	case ih.HeaderSize < bmpInfoHeaderLen:
		return fmt.Errorf("%w: bmp info header size %d", ErrUnsupported, ih.HeaderSize)
	case fh.DataOffset < BMPHeaderLen:
		return fmt.Errorf("%w: bmp data offset %d inside header", ErrFormat, fh.DataOffset)
	case ih.Planes != bmpPlanes:
		return fmt.Errorf("%w: bmp planes %d", ErrFormat, ih.Planes)
	case ih.BitsPerPixel != bmpBitsPerPixel:
		return fmt.Errorf("%w: bmp %d bits per pixel", ErrUnsupported, ih.BitsPerPixel)
	case ih.Compression != bmpCompression:
		return fmt.Errorf("%w: bmp compression %d", ErrUnsupported, ih.Compression)
	case ih.Width < 0:
		return fmt.Errorf("%w: negative bmp width %d", ErrFormat, ih.Width)
	case ih.Height == -1<<31:
		return fmt.Errorf("%w: bmp height %d", ErrFormat, ih.Height)
	}
	h := int64(ih.Height)
	if h < 0 {
		h = -h
	}
	if int64(ih.Width)*h > MaxPixels {
		return fmt.Errorf("%w: %dx%d exceeds pixel limit", ErrUnsupported, ih.Width, h)
	}
	return nil
}

// DecodeBMP reads an uncompressed 24-bit BMP. Rows are bottom-up unless
// the height is negative. The stride is recomputed from the width; the
// data size field is ignored.
func DecodeBMP(r io.Reader) (*raster.Image, error) {
	fh, ih, err := ReadBMPHeader(r)
	if err != nil {
		return nil, err
	}
	if gap := int64(fh.DataOffset) - BMPHeaderLen; gap > 0 {
		if _, err := io.CopyN(io.Discard, r, gap); err != nil {
			return nil, truncated(err, "bmp header gap")
		}
	}

	width := int(ih.Width)
	height := int(ih.Height)
	topDown := height < 0
	if topDown {
		height = -height
	}

	img := raster.New(width, height, raster.Black)
	if img.Empty() {
		return img, nil
	}

	buf := make([]byte, BMPStride(width))
	for i := 0; i < height; i++ {
		y := height - 1 - i
		if topDown {
			y = i
		}
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, truncated(err, fmt.Sprintf("bmp row %d", y))
		}
		row := img.Row(y)
		for x := range row {
			row[x] = raster.Color{B: buf[x*3+0], G: buf[x*3+1], R: buf[x*3+2]}
		}
	}
	return img, nil
}

// LoadBMP decodes the BMP file at path.
func LoadBMP(path string) (*raster.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	img, err := DecodeBMP(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

// SaveBMP encodes img into a new file at path.
func SaveBMP(path string, img *raster.Image) error {
	return writeFile(path, func(w io.Writer) error { return EncodeBMP(w, img) })
}

// writeFile creates path, runs encode against a buffered writer and
// reports the first error among encode, flush and close. A failed encode
// may leave a partial file behind.
func writeFile(path string, encode func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()

	bw := bufio.NewWriter(f)
	if err := encode(bw); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
