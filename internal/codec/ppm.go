package codec

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	pnm "github.com/jbuchbinder/gopnm"

	"github.com/AnyUserName/imgconv/internal/raster"
)

const ppmMaxVal = 255

// EncodePPM writes img as a binary (P6) PPM with maxval 255.
func EncodePPM(w io.Writer, img *raster.Image) error {
	if img == nil {
		img = raster.New(0, 0, raster.Black)
	}
	if err := pnm.Encode(w, img.NRGBA(), pnm.PPM); err != nil {
		return fmt.Errorf("write ppm: %w", err)
	}
	return nil
}

// maxPPMHeader bounds the header, comments included.
const maxPPMHeader = 1 << 14

// DecodePPM reads a binary (P6) PPM. Samples with a maxval below 255
// are scaled up to the full 8-bit range.
func DecodePPM(r io.Reader) (*raster.Image, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(2)
	if err != nil {
		return nil, truncated(err, "ppm magic")
	}
	if string(magic) != "P6" {
		return nil, fmt.Errorf("%w: bad ppm signature %q", ErrFormat, magic)
	}

	head, cfg, err := readPPMHeader(br)
	if err != nil {
		return nil, err
	}
	if err := checkPPMConfig(cfg); err != nil {
		return nil, err
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return raster.New(cfg.Width, cfg.Height, raster.Black), nil
	}

	// pnm reads a '#' in the first raster byte as a comment, so a
	// stand-in is decoded and the real byte restored afterwards.
	var lead [1]byte
	if _, err := io.ReadFull(br, lead[:]); err != nil {
		return nil, truncated(err, "ppm raster")
	}
	stand := lead
	if stand[0] == '#' {
		stand[0] = 0
	}

	m, err := pnm.Decode(io.MultiReader(bytes.NewReader(head), bytes.NewReader(stand[:]), br))
	if err != nil {
		return nil, truncated(err, "ppm raster")
	}
	img := raster.FromImage(m)
	img.Row(0)[0].R = lead[0]
	if cfg.Maxval != ppmMaxVal {
		for y := 0; y < img.Height(); y++ {
			row := img.Row(y)
			for x, c := range row {
				row[x] = raster.Color{
					R: scalePPM(c.R, cfg.Maxval),
					G: scalePPM(c.G, cfg.Maxval),
					B: scalePPM(c.B, cfg.Maxval),
				}
			}
		}
	}
	return img, nil
}

// readPPMHeader consumes the header up to and including the single
// whitespace byte after maxval. The end is the shortest prefix that
// pnm parses completely; the raster is left unread in br.
func readPPMHeader(br *bufio.Reader) ([]byte, pnm.PNMConfig, error) {
	head := make([]byte, 0, 32)
	for len(head) < maxPPMHeader {
		c, err := br.ReadByte()
		if err != nil {
			if _, perr := parsePPMHeader(head, "\n1 1 1\n0"); perr == nil {
				return nil, pnm.PNMConfig{}, truncated(err, "ppm header")
			}
			_, perr := parsePPMHeader(head, "")
			return nil, pnm.PNMConfig{}, fmt.Errorf("%w: %v", ErrFormat, perr)
		}
		head = append(head, c)

		k := len(head) - 1
		if k == 0 || !isPPMSpace(c) || head[k-1] < '0' || head[k-1] > '9' {
			continue
		}
		if cfg, err := parsePPMHeader(head[:k], "\n0"); err == nil {
			return head, cfg, nil
		}
	}
	return nil, pnm.PNMConfig{}, fmt.Errorf("%w: ppm header longer than %d bytes", ErrFormat, maxPPMHeader)
}

func parsePPMHeader(head []byte, tail string) (pnm.PNMConfig, error) {
	r := io.MultiReader(bytes.NewReader(head), strings.NewReader(tail))
	return pnm.DecodeConfigPNM(bufio.NewReader(r))
}

func checkPPMConfig(cfg pnm.PNMConfig) error {
	switch {
	case cfg.Width < 0 || cfg.Height < 0:
		return fmt.Errorf("%w: ppm size %dx%d", ErrFormat, cfg.Width, cfg.Height)
	case cfg.Maxval > ppmMaxVal:
		return fmt.Errorf("%w: ppm maxval %d", ErrUnsupported, cfg.Maxval)
	case cfg.Width > MaxPixels || cfg.Height > MaxPixels,
		int64(cfg.Width)*int64(cfg.Height) > MaxPixels:
		return fmt.Errorf("%w: %dx%d exceeds pixel limit", ErrUnsupported, cfg.Width, cfg.Height)
	}
	return nil
}

func isPPMSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}

func scalePPM(v byte, maxVal int) uint8 {
	if int(v) >= maxVal {
		return 255
	}
	return uint8((int(v)*255 + maxVal/2) / maxVal)
}

// LoadPPM decodes the PPM file at path.
func LoadPPM(path string) (*raster.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	img, err := DecodePPM(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

// SavePPM encodes img into a new file at path.
func SavePPM(path string, img *raster.Image) error {
	return writeFile(path, func(w io.Writer) error { return EncodePPM(w, img) })
}
