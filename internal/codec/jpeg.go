package codec

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/AnyUserName/imgconv/internal/raster"
	"github.com/disintegration/imaging"
)

// DefaultJPEGQuality is used when no quality, or an out-of-range one, is set.
const DefaultJPEGQuality = 95

// EncodeJPEG writes img as a baseline JPEG at the given quality (1-100).
func EncodeJPEG(w io.Writer, img *raster.Image, quality int) error {
	if img.Empty() {
		return fmt.Errorf("%w: jpeg cannot hold an empty image", ErrUnsupported)
	}
	if quality <= 0 || quality > 100 {
		quality = DefaultJPEGQuality
	}
	if err := imaging.Encode(w, img.NRGBA(), imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return fmt.Errorf("jpeg encode: %w", err)
	}
	return nil
}

// DecodeJPEG reads a JPEG, applying any EXIF orientation.
func DecodeJPEG(r io.Reader) (*raster.Image, error) {
	src, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: jpeg decode: %w", ErrFormat, err)
	}
	return raster.FromImage(src), nil
}

// LoadJPEG decodes the JPEG file at path.
func LoadJPEG(path string) (*raster.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	img, err := DecodeJPEG(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

// SaveJPEG encodes img into a new file at path.
func SaveJPEG(path string, img *raster.Image, quality int) error {
	return writeFile(path, func(w io.Writer) error { return EncodeJPEG(w, img, quality) })
}
