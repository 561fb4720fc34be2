package codec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/AnyUserName/imgconv/internal/raster"
	"golang.org/x/image/bmp"
)

// patternImg fills an image with a deterministic, position-dependent pattern.
func patternImg(w, h int) *raster.Image {
	img := raster.New(w, h, raster.Black)
	for y := 0; y < h; y++ {
		row := img.Row(y)
		for x := range row {
			row[x] = raster.Color{R: uint8(x * 37), G: uint8(y * 59), B: uint8(x*y + 7)}
		}
	}
	return img
}

func encodeBMP(t *testing.T, img *raster.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := EncodeBMP(&buf, img); err != nil {
		t.Fatalf("EncodeBMP: %v", err)
	}
	return buf.Bytes()
}

func TestBMPStride(t *testing.T) {
	tests := []struct{ width, want int }{
		{0, 0},
		{1, 4},
		{2, 8},
		{3, 12},
		{4, 12},
		{5, 16},
		{100, 300},
		{101, 304},
	}
	for _, tt := range tests {
		if got := BMPStride(tt.width); got != tt.want {
			t.Errorf("BMPStride(%d): got %d, want %d", tt.width, got, tt.want)
		}
	}
}

func TestEncodeBMP_HeaderFields(t *testing.T) {
	data := encodeBMP(t, patternImg(5, 3))
	le := binary.LittleEndian

	if string(data[0:2]) != "BM" {
		t.Errorf("magic: got %q", data[0:2])
	}
	checks := []struct {
		name string
		got  uint32
		want uint32
	}{
		{"file size", le.Uint32(data[2:6]), 54 + 16*3},
		{"reserved", le.Uint32(data[6:10]), 0},
		{"data offset", le.Uint32(data[10:14]), 54},
		{"info size", le.Uint32(data[14:18]), 40},
		{"width", le.Uint32(data[18:22]), 5},
		{"height", le.Uint32(data[22:26]), 3},
		{"planes", uint32(le.Uint16(data[26:28])), 1},
		{"bpp", uint32(le.Uint16(data[28:30])), 24},
		{"compression", le.Uint32(data[30:34]), 0},
		{"data size", le.Uint32(data[34:38]), 16 * 3},
		{"x dpi", le.Uint32(data[38:42]), 11811},
		{"y dpi", le.Uint32(data[42:46]), 11811},
		{"colors used", le.Uint32(data[46:50]), 0},
		{"colors important", le.Uint32(data[50:54]), 0x1000000},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s: got %d, want %d", c.name, c.got, c.want)
		}
	}
}

func TestEncodeBMP_FileLength(t *testing.T) {
	for _, sz := range [][2]int{{1, 1}, {2, 2}, {3, 7}, {4, 4}, {5, 1}, {17, 9}} {
		w, h := sz[0], sz[1]
		data := encodeBMP(t, patternImg(w, h))
		if want := 54 + BMPStride(w)*h; len(data) != want {
			t.Errorf("%dx%d: length got %d, want %d", w, h, len(data), want)
		}
	}
}

func TestEncodeBMP_WhiteTwoByTwo(t *testing.T) {
	img := raster.New(2, 2, raster.White)
	data := encodeBMP(t, img)
	if len(data) != 70 {
		t.Fatalf("length: got %d, want 70", len(data))
	}

	// Each row: 6 bytes of 0xFF followed by 2 zero padding bytes.
	wantRow := []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0, 0}
	for r := 0; r < 2; r++ {
		row := data[54+r*8 : 54+(r+1)*8]
		if !bytes.Equal(row, wantRow) {
			t.Errorf("row %d: got % x, want % x", r, row, wantRow)
		}
	}

	back, err := DecodeBMP(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("DecodeBMP: %v", err)
	}
	if !back.Equal(img) {
		t.Error("decoded image differs from white 2x2")
	}
}

func TestEncodeBMP_ChannelOrder(t *testing.T) {
	img := raster.New(1, 1, raster.Color{R: 0xff})
	data := encodeBMP(t, img)
	if got := data[54:57]; !bytes.Equal(got, []byte{0x00, 0x00, 0xff}) {
		t.Errorf("red pixel bytes: got % x, want 00 00 ff", got)
	}
	if got := data[57]; got != 0 {
		t.Errorf("padding byte: got %#x, want 0", got)
	}
}

func TestEncodeBMP_BottomUp(t *testing.T) {
	img := raster.New(1, 3, raster.Black)
	img.Set(0, 0, raster.Color{R: 1}) // top
	img.Set(0, 1, raster.Color{R: 2})
	img.Set(0, 2, raster.Color{R: 3}) // bottom

	data := encodeBMP(t, img)
	stride := BMPStride(1)
	for i, wantR := range []byte{3, 2, 1} {
		off := 54 + i*stride
		if got := data[off+2]; got != wantR {
			t.Errorf("stored row %d red: got %d, want %d", i, got, wantR)
		}
	}
}

func TestBMP_Roundtrip(t *testing.T) {
	for _, sz := range [][2]int{{1, 1}, {2, 3}, {3, 2}, {4, 4}, {5, 5}, {13, 7}, {64, 1}} {
		img := patternImg(sz[0], sz[1])
		back, err := DecodeBMP(bytes.NewReader(encodeBMP(t, img)))
		if err != nil {
			t.Fatalf("%dx%d: DecodeBMP: %v", sz[0], sz[1], err)
		}
		if !back.Equal(img) {
			t.Errorf("%dx%d: roundtrip mismatch", sz[0], sz[1])
		}
	}
}

func TestEncodeBMP_ReadableByXImage(t *testing.T) {
	img := patternImg(7, 5)
	m, err := bmp.Decode(bytes.NewReader(encodeBMP(t, img)))
	if err != nil {
		t.Fatalf("x/image/bmp.Decode: %v", err)
	}
	if got := raster.FromImage(m); !got.Equal(img) {
		t.Error("x/image/bmp decoded different pixels")
	}
}

func TestDecodeBMP_Truncated(t *testing.T) {
	data := encodeBMP(t, patternImg(3, 3))
	for _, n := range []int{0, 1, 10, 53, 54, 55, len(data) - 1} {
		r := &countingReader{r: bytes.NewReader(data[:n])}
		_, err := DecodeBMP(r)
		if !errors.Is(err, ErrTruncated) {
			t.Errorf("len %d: got %v, want ErrTruncated", n, err)
		}
		if !errors.Is(err, ErrFormat) {
			t.Errorf("len %d: ErrTruncated should also match ErrFormat", n)
		}
		if r.n > n {
			t.Errorf("len %d: read %d bytes", n, r.n)
		}
	}
}

func TestDecodeBMP_IgnoresDataSizeField(t *testing.T) {
	img := patternImg(3, 2)
	data := encodeBMP(t, img)
	binary.LittleEndian.PutUint32(data[34:38], 1)

	back, err := DecodeBMP(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("DecodeBMP: %v", err)
	}
	if !back.Equal(img) {
		t.Error("pixels differ after corrupting data size field")
	}
}

func TestDecodeBMP_TopDown(t *testing.T) {
	img := patternImg(3, 4)
	data := encodeBMP(t, img)

	// Rewrite as top-down: negate height and reverse row order.
	stride := BMPStride(3)
	binary.LittleEndian.PutUint32(data[22:26], negU32(-4))
	rows := data[54:]
	flipped := make([]byte, len(rows))
	for i := 0; i < 4; i++ {
		copy(flipped[i*stride:], rows[(3-i)*stride:(4-i)*stride])
	}
	copy(rows, flipped)

	back, err := DecodeBMP(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("DecodeBMP: %v", err)
	}
	if !back.Equal(img) {
		t.Error("top-down decode mismatch")
	}
}

func TestDecodeBMP_SkipsHeaderGap(t *testing.T) {
	img := patternImg(2, 2)
	data := encodeBMP(t, img)

	gap := []byte{0xde, 0xad, 0xbe, 0xef}
	withGap := append(append(append([]byte{}, data[:54]...), gap...), data[54:]...)
	binary.LittleEndian.PutUint32(withGap[10:14], 54+uint32(len(gap)))

	back, err := DecodeBMP(bytes.NewReader(withGap))
	if err != nil {
		t.Fatalf("DecodeBMP: %v", err)
	}
	if !back.Equal(img) {
		t.Error("decode with header gap mismatch")
	}
}

func TestDecodeBMP_InvalidHeaders(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(b []byte)
		want   error
	}{
		{"magic", func(b []byte) { b[0] = 'X' }, ErrFormat},
		{"planes", func(b []byte) { binary.LittleEndian.PutUint16(b[26:28], 2) }, ErrFormat},
		{"bpp 32", func(b []byte) { binary.LittleEndian.PutUint16(b[28:30], 32) }, ErrUnsupported},
		{"rle", func(b []byte) { binary.LittleEndian.PutUint32(b[30:34], 1) }, ErrUnsupported},
		{"info size", func(b []byte) { binary.LittleEndian.PutUint32(b[14:18], 12) }, ErrUnsupported},
		{"offset", func(b []byte) { binary.LittleEndian.PutUint32(b[10:14], 10) }, ErrFormat},
		{"negative width", func(b []byte) { binary.LittleEndian.PutUint32(b[18:22], negU32(-2)) }, ErrFormat},
		{"huge", func(b []byte) {
			binary.LittleEndian.PutUint32(b[18:22], 1<<20)
			binary.LittleEndian.PutUint32(b[22:26], 1<<20)
		}, ErrUnsupported},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := encodeBMP(t, patternImg(2, 2))
			tt.mutate(data)
			_, err := DecodeBMP(bytes.NewReader(data))
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDecodeBMP_ZeroSizeIsEmpty(t *testing.T) {
	data := encodeBMP(t, raster.New(0, 0, raster.Black))
	if len(data) != 54 {
		t.Fatalf("empty image length: got %d, want 54", len(data))
	}
	img, err := DecodeBMP(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("DecodeBMP: %v", err)
	}
	if !img.Empty() {
		t.Error("expected empty image")
	}
}

func TestEncodeBMP_WriteFailure(t *testing.T) {
	for _, limit := range []int{0, 10, 54, 60} {
		err := EncodeBMP(&failingWriter{limit: limit}, patternImg(4, 4))
		if !errors.Is(err, errWriteFailed) {
			t.Errorf("limit %d: got %v, want errWriteFailed", limit, err)
		}
	}
}

func TestSaveLoadBMP_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.bmp")
	img := patternImg(6, 3)
	if err := SaveBMP(path, img); err != nil {
		t.Fatalf("SaveBMP: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if want := int64(54 + BMPStride(6)*3); info.Size() != want {
		t.Errorf("file size: got %d, want %d", info.Size(), want)
	}

	back, err := LoadBMP(path)
	if err != nil {
		t.Fatalf("LoadBMP: %v", err)
	}
	if !back.Equal(img) {
		t.Error("file roundtrip mismatch")
	}
}

func TestLoadBMP_Missing(t *testing.T) {
	_, err := LoadBMP(filepath.Join(t.TempDir(), "nope.bmp"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("got %v, want os.ErrNotExist", err)
	}
}

func TestSaveBMP_BadDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "out.bmp")
	if err := SaveBMP(path, patternImg(1, 1)); err == nil {
		t.Error("expected error writing into a missing directory")
	}
}

// negU32 reinterprets a signed header field as its on-disk uint32.
func negU32(v int32) uint32 { return uint32(v) }

var errWriteFailed = errors.New("write failed")

// failingWriter accepts limit bytes, then fails.
type failingWriter struct {
	limit int
	n     int
}

func (w *failingWriter) Write(p []byte) (int, error) {
	if w.n+len(p) > w.limit {
		k := w.limit - w.n
		w.n = w.limit
		return k, errWriteFailed
	}
	w.n += len(p)
	return len(p), nil
}

// countingReader records how many bytes were consumed.
type countingReader struct {
	r io.Reader
	n int
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += n
	return n, err
}

func BenchmarkEncodeBMP(b *testing.B) {
	img := patternImg(512, 512)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = EncodeBMP(io.Discard, img)
	}
}

func BenchmarkDecodeBMP(b *testing.B) {
	var buf bytes.Buffer
	_ = EncodeBMP(&buf, patternImg(512, 512))
	data := buf.Bytes()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = DecodeBMP(bytes.NewReader(data))
	}
}
