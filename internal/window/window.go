// Package window defines what reel needs from a windowing layer: a GPU
// surface to present into, a redraw loop on one goroutine, and a way for
// other goroutines to ask for a redraw.
package window

//go:generate mockgen -source=window.go -destination=mocks/mock_window.go -package=mock_window

import (
	"context"
	"errors"

	"github.com/zsiec/reel/internal/gpu"
)

// ErrQuit may be returned by Handler.Redraw to end Run without an error.
var ErrQuit = errors.New("window: quit")

// Notifier asks the window for a redraw. It never blocks and may be called
// from any goroutine; requests made before the next redraw coalesce.
type Notifier interface {
	RequestRedraw()
}

// Handler receives window events on the window's goroutine.
type Handler interface {
	// Resized is called with the surface size in pixels before the first
	// Redraw and after every size change.
	Resized(width, height int) error
	// Redraw is called after a redraw request or a resize.
	Redraw() error
	// Closed is called once, when Run is about to return.
	Closed()
}

// Window is a presentation target with its own event loop.
type Window interface {
	// Instance returns a GPU instance able to drive Surface.
	Instance() gpu.Instance
	Surface() gpu.Surface
	Notifier() Notifier
	// Run delivers events to h until the user closes the window, ctx is
	// done, or a Handler method fails. ErrQuit from the handler is not
	// reported.
	Run(ctx context.Context, h Handler) error
}

// Signal is a coalescing Notifier backed by a one-slot channel.
type Signal struct {
	ch chan struct{}
}

// NewSignal returns a Signal with no pending request.
func NewSignal() *Signal {
	return &Signal{ch: make(chan struct{}, 1)}
}

// RequestRedraw implements Notifier.
func (s *Signal) RequestRedraw() {
	select {
	case s.ch <- struct{}{}:
	default:
	}
}

// C receives once per batch of requests.
func (s *Signal) C() <-chan struct{} {
	return s.ch
}
