package convert

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/AnyUserName/imgconv/internal/codec"
	"github.com/AnyUserName/imgconv/internal/hasher"
	"github.com/AnyUserName/imgconv/internal/raster"
)

// Config holds all parameters for one conversion.
type Config struct {
	InputPath  string
	OutputPath string

	// JPEGQuality is passed to the JPEG encoder; 0 selects its default.
	JPEGQuality int

	// Verbose enables trace lines on Log (os.Stderr when nil).
	Verbose bool
	Log     io.Writer
}

// Result summarizes a successful conversion.
type Result struct {
	InputFormat  codec.Format
	OutputFormat codec.Format
	Width        int
	Height       int
	InputSize    int64
	OutputSize   int64
	PixelDigest  string
	Elapsed      time.Duration
}

// Converter runs load-then-save conversions against a codec registry.
type Converter struct {
	cfg      Config
	registry *codec.Registry
}

// New creates a configured converter.
func New(cfg Config) *Converter {
	if cfg.Log == nil {
		cfg.Log = os.Stderr
	}
	return &Converter{
		cfg:      cfg,
		registry: codec.NewRegistry(codec.Options{JPEGQuality: cfg.JPEGQuality}),
	}
}

// Run converts cfg.InputPath into cfg.OutputPath. It stops at the first
// failure and returns one of UnsupportedFormatError, LoadError or
// SaveError. Nothing is retried.
func (c *Converter) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	c.logf("%s", c.registry.String())

	// Step 1: Resolve both codecs before touching the file system.
	in, ok := c.registry.Lookup(c.cfg.InputPath)
	if !ok {
		return nil, &UnsupportedFormatError{Role: RoleInput, Path: c.cfg.InputPath}
	}
	out, ok := c.registry.Lookup(c.cfg.OutputPath)
	if !ok {
		return nil, &UnsupportedFormatError{Role: RoleOutput, Path: c.cfg.OutputPath}
	}
	c.logf("input:  %s (%s)", c.cfg.InputPath, in.Format)
	c.logf("output: %s (%s)", c.cfg.OutputPath, out.Format)

	// Step 2: Load.
	if err := ctx.Err(); err != nil {
		return nil, &LoadError{Path: c.cfg.InputPath, Err: err}
	}
	img, err := in.Load(c.cfg.InputPath)
	if err != nil {
		return nil, &LoadError{Path: c.cfg.InputPath, Err: err}
	}
	if img.Empty() {
		return nil, &LoadError{Path: c.cfg.InputPath, Err: fmt.Errorf("%s: %w", c.cfg.InputPath, ErrEmptyImage)}
	}
	digest := hasher.PixelDigest(img)
	c.logf("loaded %dx%d, pixels xxh64=%s", img.Width(), img.Height(), digest)

	// Step 3: Save.
	if err := ctx.Err(); err != nil {
		return nil, &SaveError{Path: c.cfg.OutputPath, Err: err}
	}
	if err := out.Save(c.cfg.OutputPath, img); err != nil {
		return nil, &SaveError{Path: c.cfg.OutputPath, Err: err}
	}

	res := &Result{
		InputFormat:  in.Format,
		OutputFormat: out.Format,
		Width:        img.Width(),
		Height:       img.Height(),
		InputSize:    fileSize(c.cfg.InputPath),
		OutputSize:   fileSize(c.cfg.OutputPath),
		PixelDigest:  digest,
		Elapsed:      time.Since(start),
	}
	c.logf("wrote %d bytes in %s", res.OutputSize, res.Elapsed.Round(time.Microsecond))
	return res, nil
}

// Load decodes path with the codec its extension selects. It applies the
// same failure taxonomy as Run.
func (c *Converter) Load(path string) (*raster.Image, codec.Format, error) {
	in, ok := c.registry.Lookup(path)
	if !ok {
		return nil, codec.Unknown, &UnsupportedFormatError{Role: RoleInput, Path: path}
	}
	img, err := in.Load(path)
	if err != nil {
		return nil, in.Format, &LoadError{Path: path, Err: err}
	}
	if img.Empty() {
		return nil, in.Format, &LoadError{Path: path, Err: fmt.Errorf("%s: %w", path, ErrEmptyImage)}
	}
	return img, in.Format, nil
}

// logf prints a trace line only when Verbose is set.
func (c *Converter) logf(format string, args ...any) {
	if c.cfg.Verbose {
		fmt.Fprintf(c.cfg.Log, "[imgconv] "+format+"\n", args...)
	}
}

func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}
