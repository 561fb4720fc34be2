package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/AnyUserName/imgconv/internal/codec"
	"github.com/AnyUserName/imgconv/internal/convert"
	"github.com/AnyUserName/imgconv/internal/hasher"
	"github.com/AnyUserName/imgconv/internal/raster"
	"github.com/spf13/cobra"
	"golang.org/x/image/bmp"
)

var inspectVerify bool

var inspectCmd = &cobra.Command{
	Use:   "inspect <image_path>",
	Short: "Print dimensions, pixel digest and (for BMP) the raw header fields",
	Long: `Decodes an image with the same codecs used for conversion and prints
its dimensions and pixel digest. For BMP files the 54-byte header is
printed field by field together with the computed row stride and the
expected vs. actual file size.

With --verify, BMP files are also decoded by golang.org/x/image/bmp and
the two pixel digests must match.`,
	Args: exactArgs(1),
	RunE: runInspect,
}

func init() {
	inspectCmd.Flags().BoolVar(&inspectVerify, "verify", false, "cross-check BMP decoding against golang.org/x/image/bmp")
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	path := args[0]
	w := cmd.OutOrStdout()

	c := convert.New(convert.Config{Verbose: verbose, Log: cmd.ErrOrStderr()})
	img, format, err := c.Load(path)
	if err != nil {
		return err
	}

	info, err := os.Stat(path)
	if err != nil {
		return &convert.LoadError{Path: path, Err: err}
	}
	digest := hasher.PixelDigest(img)

	fmt.Fprintln(w)
	fmt.Fprintf(w, "  File:         %s\n", path)
	fmt.Fprintf(w, "  Format:       %s\n", format)
	fmt.Fprintf(w, "  Size:         %s\n", formatBytes(info.Size()))
	fmt.Fprintf(w, "  Dimensions:   %dx%d\n", img.Width(), img.Height())
	fmt.Fprintf(w, "  Pixel digest: %s\n", digest)

	if format != codec.BMP {
		fmt.Fprintln(w)
		return nil
	}

	fh, ih, err := readHeader(path)
	if err != nil {
		return &convert.LoadError{Path: path, Err: err}
	}
	printBMPHeader(w, fh, ih, info.Size())

	if inspectVerify {
		ref, err := decodeReference(path)
		if err != nil {
			return &convert.LoadError{Path: path, Err: fmt.Errorf("reference decode: %w", err)}
		}
		refDigest := hasher.PixelDigest(ref)
		if refDigest != digest {
			return &convert.LoadError{Path: path, Err: fmt.Errorf(
				"%w: pixel digest %s differs from reference decoder %s", codec.ErrFormat, digest, refDigest)}
		}
		fmt.Fprintln(w, "  ✓ matches golang.org/x/image/bmp")
	}
	fmt.Fprintln(w)
	return nil
}

func readHeader(path string) (codec.BMPFileHeader, codec.BMPInfoHeader, error) {
	f, err := os.Open(path)
	if err != nil {
		return codec.BMPFileHeader{}, codec.BMPInfoHeader{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return codec.ReadBMPHeader(f)
}

func decodeReference(path string) (*raster.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	m, err := bmp.Decode(bufio.NewReader(f))
	if err != nil {
		return nil, err
	}
	return raster.FromImage(m), nil
}

func printBMPHeader(w io.Writer, fh codec.BMPFileHeader, ih codec.BMPInfoHeader, actual int64) {
	height := int(ih.Height)
	if height < 0 {
		height = -height
	}
	stride := codec.BMPStride(int(ih.Width))
	expected := int64(fh.DataOffset) + int64(stride*height)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "  BMP file header:")
	fmt.Fprintf(w, "    signature     %q\n", fh.Magic[:])
	fmt.Fprintf(w, "    file size     %d\n", fh.Size)
	fmt.Fprintf(w, "    reserved      %d\n", fh.Reserved)
	fmt.Fprintf(w, "    data offset   %d\n", fh.DataOffset)
	fmt.Fprintln(w, "  BMP info header:")
	fmt.Fprintf(w, "    header size   %d\n", ih.HeaderSize)
	fmt.Fprintf(w, "    width         %d\n", ih.Width)
	fmt.Fprintf(w, "    height        %d\n", ih.Height)
	fmt.Fprintf(w, "    planes        %d\n", ih.Planes)
	fmt.Fprintf(w, "    bits/pixel    %d\n", ih.BitsPerPixel)
	fmt.Fprintf(w, "    compression   %d\n", ih.Compression)
	fmt.Fprintf(w, "    data size     %d\n", ih.DataSize)
	fmt.Fprintf(w, "    x px/meter    %d\n", ih.XPixelsPerMeter)
	fmt.Fprintf(w, "    y px/meter    %d\n", ih.YPixelsPerMeter)
	fmt.Fprintf(w, "    colors used   %d\n", ih.ColorsUsed)
	fmt.Fprintf(w, "    colors import %#x\n", ih.ColorsImportant)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Row stride:   %d bytes\n", stride)
	fmt.Fprintf(w, "  Expected:     %d bytes\n", expected)
	if actual != expected {
		fmt.Fprintf(w, "  ⚠ actual size %d differs from expected %d\n", actual, expected)
	}
}

func formatBytes(b int64) string {
	switch {
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}
