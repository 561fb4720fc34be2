package convert

import (
	"errors"
	"fmt"
)

// Process exit codes, one per failure kind.
const (
	ExitOK           = 0
	ExitUsage        = 1
	ExitInputFormat  = 2
	ExitOutputFormat = 3
	ExitLoad         = 4
	ExitSave         = 5
)

// ErrEmptyImage is the cause of a LoadError when the codec produced
// an image with no pixels.
var ErrEmptyImage = errors.New("decoded image is empty")

// Role tells which side of the conversion a path belongs to.
type Role string

const (
	RoleInput  Role = "input"
	RoleOutput Role = "output"
)

// UsageError reports wrong command-line arity or flags.
type UsageError struct {
	Msg string
}

func (e *UsageError) Error() string { return e.Msg }

// UnsupportedFormatError reports a path whose extension maps to no codec.
type UnsupportedFormatError struct {
	Role Role
	Path string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unknown format of the %s file %q", e.Role, e.Path)
}

// LoadError wraps any failure reading or decoding the input.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string { return fmt.Sprintf("loading failed: %v", e.Err) }
func (e *LoadError) Unwrap() error { return e.Err }

// SaveError wraps any failure encoding or writing the output.
type SaveError struct {
	Path string
	Err  error
}

func (e *SaveError) Error() string { return fmt.Sprintf("saving failed: %v", e.Err) }
func (e *SaveError) Unwrap() error { return e.Err }

// ExitCode maps an error returned by Run (or a UsageError) to the
// process exit status. Unrecognized errors count as usage errors.
func ExitCode(err error) int {
	var (
		format *UnsupportedFormatError
		load   *LoadError
		save   *SaveError
	)
	switch {
	case err == nil:
		return ExitOK
	case errors.As(err, &format):
		if format.Role == RoleOutput {
			return ExitOutputFormat
		}
		return ExitInputFormat
	case errors.As(err, &load):
		return ExitLoad
	case errors.As(err, &save):
		return ExitSave
	}
	return ExitUsage
}
