package report

// Report describes one conversion run. Written by --report.
type Report struct {
	Version     int      `json:"version"`
	GeneratedAt string   `json:"generated_at"`
	Input       FileInfo `json:"input"`
	Output      FileInfo `json:"output"`
	Image       Image    `json:"image"`
	ElapsedMS   int64    `json:"elapsed_ms"`
}

// FileInfo holds metadata about one side of the conversion.
type FileInfo struct {
	Path   string `json:"path"`
	Format string `json:"format"`         // "bmp", "ppm", "jpeg"
	Size   int64  `json:"size"`           // bytes on disk
	Hash   string `json:"hash,omitempty"` // xxhash64 of the file bytes
}

// Image describes the decoded pixel buffer.
type Image struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	PixelDigest string `json:"pixel_digest"` // xxhash64 of dimensions + RGB bytes
}

// SupportedReportVersion is the current schema version.
const SupportedReportVersion = 1
