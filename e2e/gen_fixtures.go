//go:build ignore

// gen_fixtures creates small test images for the E2E smoke test.
// Usage: go run gen_fixtures.go <output_dir>
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/AnyUserName/imgconv/internal/codec"
	"github.com/AnyUserName/imgconv/internal/raster"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: gen_fixtures <output_dir>")
		os.Exit(1)
	}
	dir := os.Args[1]
	if err := os.MkdirAll(dir, 0o755); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	fixtures := []struct {
		name string
		img  *raster.Image
		save func(string, *raster.Image) error
	}{
		{"white_2x2.bmp", raster.New(2, 2, raster.White), codec.SaveBMP},
		// Odd widths exercise every padding length (1, 2 and 3 bytes).
		{"gradient_5x3.bmp", gradient(5, 3), codec.SaveBMP},
		{"gradient_6x4.bmp", gradient(6, 4), codec.SaveBMP},
		{"gradient_7x5.bmp", gradient(7, 5), codec.SaveBMP},
		{"gradient_400x225.ppm", gradient(400, 225), codec.SavePPM},
		{"bordered_200x150.ppm", solidWithBorder(200, 150, 60), codec.SavePPM},
		{"banner_400x225.jpg", gradient(400, 225), func(p string, m *raster.Image) error {
			return codec.SaveJPEG(p, m, codec.DefaultJPEGQuality)
		}},
	}
	for _, f := range fixtures {
		if err := f.save(filepath.Join(dir, f.name), f.img); err != nil {
			fmt.Fprintf(os.Stderr, "[gen_fixtures] %s: %v\n", f.name, err)
			os.Exit(1)
		}
	}

	fmt.Fprintf(os.Stderr, "[gen_fixtures] created %d fixtures in %s\n", len(fixtures), dir)
}

func gradient(w, h int) *raster.Image {
	img := raster.New(w, h, raster.Black)
	for y := 0; y < h; y++ {
		row := img.Row(y)
		for x := range row {
			row[x] = raster.Color{
				R: uint8(x * 255 / w),
				G: uint8(y * 255 / h),
				B: 128,
			}
		}
	}
	return img
}

func solidWithBorder(w, h int, base uint8) *raster.Image {
	img := raster.New(w, h, raster.White)
	for y := 4; y < h-4; y++ {
		row := img.Row(y)
		for x := 4; x < w-4; x++ {
			row[x] = raster.Color{R: base, G: base + 40, B: base + 80}
		}
	}
	return img
}
