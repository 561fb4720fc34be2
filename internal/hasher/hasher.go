package hasher

import (
	"encoding/binary"
	"encoding/hex"
	"io"

	"github.com/AnyUserName/imgconv/internal/raster"
	"github.com/cespare/xxhash/v2"
)

// PixelDigest computes the xxHash64 of an image's dimensions followed by
// its RGB bytes in row-major order, as a 16-char hex string. The digest
// depends only on pixels, so the same image stored as BMP, PPM or in
// memory hashes identically.
func PixelDigest(img *raster.Image) string {
	h := xxhash.New()
	var dims [8]byte
	if !img.Empty() {
		binary.BigEndian.PutUint32(dims[0:4], uint32(img.Width()))
		binary.BigEndian.PutUint32(dims[4:8], uint32(img.Height()))
	}
	h.Write(dims[:])

	if !img.Empty() {
		buf := make([]byte, img.Width()*3)
		for y := 0; y < img.Height(); y++ {
			for x, c := range img.Row(y) {
				buf[x*3+0] = c.R
				buf[x*3+1] = c.G
				buf[x*3+2] = c.B
			}
			h.Write(buf)
		}
	}
	return hexDigest(h.Sum64())
}

// ContentHashReader streams r through xxHash64 and returns the digest as
// hex truncated to hexLen characters (0 = full 16).
func ContentHashReader(r io.Reader, hexLen int) (string, error) {
	h := xxhash.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return truncate(hexDigest(h.Sum64()), hexLen), nil
}

func hexDigest(v uint64) string {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return hex.EncodeToString(b[:])
}

func truncate(full string, hexLen int) string {
	if hexLen > 0 && hexLen < len(full) {
		return full[:hexLen]
	}
	return full
}
