package player

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/zsiec/reel/internal/pipeline"
	"github.com/zsiec/reel/internal/render"
	"github.com/zsiec/reel/internal/window"
)

// handler adapts the render driver to window events.
type handler struct {
	driver    *render.Driver
	pipeline  *pipeline.Pipeline
	notifier  window.Notifier
	done      *atomic.Bool
	exitOnEnd bool
	log       *slog.Logger
}

func (h *handler) Resized(width, height int) error {
	return h.driver.Resize(width, height)
}

// Redraw presents the next frame. Once the pipeline has finished it keeps
// asking for redraws until the frame queue is drained, and with exitOnEnd
// then ends the window loop.
func (h *handler) Redraw() error {
	if err := h.driver.Redraw(); err != nil {
		return err
	}
	if !h.done.Load() {
		return nil
	}
	if !h.driver.Stats().InputClosed {
		h.notifier.RequestRedraw()
		return nil
	}
	if h.exitOnEnd {
		return window.ErrQuit
	}
	return nil
}

func (h *handler) Closed() {
	h.log.Debug("window closed")
}

// Status implements term.StatusReporter.
func (h *handler) Status() string {
	ps := h.pipeline.Stats()
	rs := h.driver.Stats()
	state := "playing"
	if rs.InputClosed {
		state = "ended"
	}
	return fmt.Sprintf("%s  frame %d  pts %d  decoded %d  queue %d/%d",
		state, rs.Frames, rs.LastPTS, ps.FramesDecoded,
		ps.PacketQueueDepth, ps.FrameQueueDepth)
}
