package gpu

import (
	"fmt"
	"log/slog"

	"github.com/zsiec/reel/internal/media"
)

// Context is the device and queue shared by the presenter, the texture cache
// and the GPU converter. It is created once per window and must only be used
// from the goroutine that owns the window.
type Context struct {
	Device Device
	Queue  Queue
	log    *slog.Logger
}

// NewContext requests a device compatible with surface. Failures wrap
// media.ErrGPUDevice. If log is nil, slog.Default() is used.
func NewContext(inst Instance, surface Surface, log *slog.Logger) (*Context, error) {
	if log == nil {
		log = slog.Default()
	}
	dev, err := inst.RequestDevice(surface)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", media.ErrGPUDevice, err)
	}
	return &Context{
		Device: dev,
		Queue:  dev.Queue(),
		log:    log.With("component", "gpu"),
	}, nil
}

// WriteTexture uploads a width×height image with the given row pitch. The
// texture must have exactly those dimensions.
func (c *Context) WriteTexture(tex Texture, data []byte, pitch, width, height int) error {
	if tex.Width() != width || tex.Height() != height {
		return fmt.Errorf("gpu: upload %dx%d into %dx%d texture %q",
			width, height, tex.Width(), tex.Height(), tex.Label())
	}
	if need := pitch*(height-1) + width*tex.Format().BytesPerPixel(); len(data) < need {
		return fmt.Errorf("gpu: upload needs %d bytes, have %d", need, len(data))
	}
	return c.Queue.WriteTexture(tex, data, pitch, width, height)
}

// Close destroys the device.
func (c *Context) Close() {
	c.Device.Destroy()
}
