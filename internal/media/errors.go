package media

import (
	"errors"
	"fmt"
)

// Sentinel errors for the failure classes of the delivery pipeline. Every
// error returned across a package boundary wraps exactly one of them so that
// callers can classify failures with errors.Is.
var (
	ErrSourceOpen             = errors.New("media: cannot open source")
	ErrStreamNotFound         = errors.New("media: no matching stream")
	ErrDecode                 = errors.New("media: decode failed")
	ErrUnsupportedPixelFormat = errors.New("media: unsupported pixel format")
	ErrGPUDevice              = errors.New("media: gpu device unavailable")
	ErrSurfaceAcquire         = errors.New("media: surface image unavailable")
)

// SourceError records which path failed to open and why.
type SourceError struct {
	Path string
	Err  error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("media: open %s: %v", e.Path, e.Err)
}

func (e *SourceError) Unwrap() []error {
	return []error{ErrSourceOpen, e.Err}
}

// UnsupportedPixelFormatError is returned for frames whose format is neither
// packed RGBA nor one of the planar YUV families. It is fatal for the frame.
type UnsupportedPixelFormatError struct {
	Format PixelFormat
}

func (e *UnsupportedPixelFormatError) Error() string {
	return fmt.Sprintf("media: unsupported pixel format %s", e.Format)
}

func (e *UnsupportedPixelFormatError) Unwrap() error {
	return ErrUnsupportedPixelFormat
}
