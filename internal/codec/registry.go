package codec

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/AnyUserName/imgconv/internal/raster"
)

// Format identifies an on-disk image encoding.
type Format int

const (
	Unknown Format = iota
	PPM
	JPEG
	BMP
)

func (f Format) String() string {
	switch f {
	case PPM:
		return "ppm"
	case JPEG:
		return "jpeg"
	case BMP:
		return "bmp"
	}
	return "unknown"
}

// Classify maps a path to a format by its extension. The match is
// case-sensitive: "photo.JPG" is Unknown. A leading dot in the file name
// does not start an extension, so ".bmp" is Unknown too.
func Classify(path string) Format {
	base := filepath.Base(path)
	if len(base) > 0 && base[0] == '.' {
		base = base[1:]
	}
	switch filepath.Ext(base) {
	case ".jpg", ".jpeg":
		return JPEG
	case ".ppm":
		return PPM
	case ".bmp":
		return BMP
	}
	return Unknown
}

// Codec is the load/save capability pair for one format.
// Load returns an error (never a partial image) on failure.
type Codec struct {
	Format Format
	Load   func(path string) (*raster.Image, error)
	Save   func(path string, img *raster.Image) error
}

// Options tunes codecs that take encoder parameters.
type Options struct {
	JPEGQuality int // 1-100, 0 = DefaultJPEGQuality
}

// Registry holds one codec per known format. It is read-only after
// NewRegistry returns and safe for concurrent use.
type Registry struct {
	codecs map[Format]Codec
}

// NewRegistry builds the codec table.
func NewRegistry(opts Options) *Registry {
	saveJPEG := func(path string, img *raster.Image) error {
		return SaveJPEG(path, img, opts.JPEGQuality)
	}
	return &Registry{
		codecs: map[Format]Codec{
			BMP:  {Format: BMP, Load: LoadBMP, Save: SaveBMP},
			PPM:  {Format: PPM, Load: LoadPPM, Save: SavePPM},
			JPEG: {Format: JPEG, Load: LoadJPEG, Save: saveJPEG},
		},
	}
}

// Lookup returns the codec for path's extension. ok is false when the
// extension is not recognized.
func (r *Registry) Lookup(path string) (c Codec, ok bool) {
	c, ok = r.codecs[Classify(path)]
	return c, ok
}

// Formats returns the supported formats in a stable order.
func (r *Registry) Formats() []Format {
	var result []Format
	for _, f := range []Format{BMP, PPM, JPEG} {
		if _, ok := r.codecs[f]; ok {
			result = append(result, f)
		}
	}
	return result
}

// String returns a summary of registered codecs.
func (r *Registry) String() string {
	var names []string
	for _, f := range r.Formats() {
		names = append(names, f.String())
	}
	if len(names) == 0 {
		return "no codecs registered"
	}
	return fmt.Sprintf("codecs: %s", strings.Join(names, ", "))
}
