// Package pipeline moves one video stream from a source to the render
// driver: a packet pump, a decode stage and a convert stage, each on its own
// goroutine, connected by bounded queues that block instead of dropping.
// Termination flows downstream by queue closure; every stage closes its
// output queue on every exit path.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zsiec/reel/internal/convert"
	"github.com/zsiec/reel/internal/media"
	"github.com/zsiec/reel/internal/queue"
	"github.com/zsiec/reel/internal/source"
	"github.com/zsiec/reel/internal/window"
)

// Mode selects where planar frames are converted.
type Mode int

const (
	// ModeCPU converts planar frames to RGBA on the convert stage.
	ModeCPU Mode = iota
	// ModeGPU forwards planar frames; the render driver converts them on
	// the GPU.
	ModeGPU
)

func (m Mode) String() string {
	if m == ModeGPU {
		return "gpu"
	}
	return "cpu"
}

// ParseMode accepts "cpu" and "gpu".
func ParseMode(s string) (Mode, error) {
	switch s {
	case "cpu", "":
		return ModeCPU, nil
	case "gpu":
		return ModeGPU, nil
	}
	return ModeCPU, fmt.Errorf("pipeline: unknown convert mode %q", s)
}

// Config wires a Pipeline.
type Config struct {
	Source  source.Source
	Decoder source.Decoder
	// Stream is the selected stream; packets of other streams are skipped.
	Stream media.StreamInfo
	Mode   Mode
	// PacketQueueSize defaults to media.PacketQueueSize.
	PacketQueueSize int
	// Notifier, when set, is asked for a redraw after every delivered frame.
	Notifier window.Notifier
	Log      *slog.Logger
}

// Stats is a point-in-time snapshot of the pipeline counters.
type Stats struct {
	PacketsRead      int64
	PacketsSkipped   int64
	FramesDecoded    int64
	FramesDiscarded  int64
	FramesDelivered  int64
	LastPTS          int64
	PacketQueueDepth int
	FrameQueueDepth  int
}

// Pipeline owns its source and decoder and closes both when Run returns.
type Pipeline struct {
	log      *slog.Logger
	src      source.Source
	dec      source.Decoder
	stream   media.StreamInfo
	mode     Mode
	notifier window.Notifier
	cpu      convert.CPU

	packets *queue.Queue[*media.Packet]
	raw     *queue.Queue[*media.Frame]
	frames  *queue.Queue[*media.Frame]

	packetsRead     atomic.Int64
	packetsSkipped  atomic.Int64
	framesDecoded   atomic.Int64
	framesDiscarded atomic.Int64
	framesDelivered atomic.Int64
	lastPTS         atomic.Int64
}

// New creates a pipeline. Nothing runs until Run.
func New(cfg Config) *Pipeline {
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}
	size := cfg.PacketQueueSize
	if size <= 0 {
		size = media.PacketQueueSize
	}
	return &Pipeline{
		log:      log.With("component", "pipeline", "stream", cfg.Stream.Index),
		src:      cfg.Source,
		dec:      cfg.Decoder,
		stream:   cfg.Stream,
		mode:     cfg.Mode,
		notifier: cfg.Notifier,
		packets:  queue.New[*media.Packet](size),
		raw:      queue.New[*media.Frame](media.FrameQueueSize),
		frames:   queue.New[*media.Frame](media.FrameQueueSize),
	}
}

// Frames is the output queue: packed RGBA frames in ModeCPU, RGBA or planar
// frames in ModeGPU. It is closed when the pipeline stops.
func (p *Pipeline) Frames() *queue.Queue[*media.Frame] {
	return p.frames
}

// Stats returns a snapshot of the pipeline counters.
func (p *Pipeline) Stats() Stats {
	return Stats{
		PacketsRead:      p.packetsRead.Load(),
		PacketsSkipped:   p.packetsSkipped.Load(),
		FramesDecoded:    p.framesDecoded.Load(),
		FramesDiscarded:  p.framesDiscarded.Load(),
		FramesDelivered:  p.framesDelivered.Load(),
		LastPTS:          p.lastPTS.Load(),
		PacketQueueDepth: p.packets.Len(),
		FrameQueueDepth:  p.frames.Len(),
	}
}

// Run starts the three stages and blocks until all of them have stopped.
// Reaching the end of the source is not an error. Cancelling ctx stops the
// stages and closes the source to unblock a pending read; Run then returns
// nil. A stage failure stops the others and is returned.
func (p *Pipeline) Run(ctx context.Context) error {
	start := time.Now()
	defer p.closeAll()

	g, gctx := errgroup.WithContext(ctx)
	stop := context.AfterFunc(gctx, func() {
		if err := p.src.Close(); err != nil {
			p.log.Debug("source close", "error", err)
		}
	})
	defer stop()

	g.Go(func() error { return p.pump(gctx) })
	g.Go(func() error { return p.decode(gctx) })
	g.Go(func() error { return p.convert(gctx) })

	err := g.Wait()
	if err != nil && ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		err = nil
	}

	s := p.Stats()
	attrs := []any{
		"packets_read", s.PacketsRead,
		"packets_skipped", s.PacketsSkipped,
		"frames_decoded", s.FramesDecoded,
		"frames_discarded", s.FramesDiscarded,
		"frames_delivered", s.FramesDelivered,
		"elapsed", time.Since(start).Round(time.Millisecond),
	}
	if err != nil {
		p.log.Error("pipeline failed", append(attrs, "error", err)...)
		return err
	}
	p.log.Info("pipeline finished", attrs...)
	return nil
}

func (p *Pipeline) closeAll() {
	p.packets.Close()
	p.raw.Close()
	p.frames.Close()
	if err := p.dec.Close(); err != nil {
		p.log.Debug("decoder close", "error", err)
	}
	if err := p.src.Close(); err != nil {
		p.log.Debug("source close", "error", err)
	}
}

// pump reads packets of the selected stream into the packet queue.
func (p *Pipeline) pump(ctx context.Context) error {
	defer p.packets.Close()
	for {
		pkt, err := p.src.ReadPacket()
		if errors.Is(err, io.EOF) {
			p.log.Debug("source drained", "packets", p.packetsRead.Load())
			return nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("reading packet: %w", err)
		}
		p.packetsRead.Add(1)
		if pkt.StreamIndex != p.stream.Index {
			p.packetsSkipped.Add(1)
			continue
		}
		if err := p.packets.Push(ctx, pkt); err != nil {
			return err
		}
	}
}

// decode feeds packets to the decoder and forwards every non-empty frame.
// When the packet queue closes the decoder is flushed and drained.
func (p *Pipeline) decode(ctx context.Context) error {
	defer p.raw.Close()
	for {
		pkt, err := p.packets.Pop(ctx)
		if errors.Is(err, queue.ErrClosed) {
			if err := p.dec.Flush(); err != nil {
				return decodeError(err)
			}
			return p.receive(ctx)
		}
		if err != nil {
			return err
		}
		if err := p.dec.Send(pkt); err != nil {
			return decodeError(err)
		}
		if err := p.receive(ctx); err != nil {
			return err
		}
	}
}

func (p *Pipeline) receive(ctx context.Context) error {
	for {
		f, err := p.dec.Receive()
		if errors.Is(err, source.ErrWouldBlock) || errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return decodeError(err)
		}
		if f.Empty() {
			p.framesDiscarded.Add(1)
			p.log.Debug("discarding empty frame", "pts", f.PTS, "width", f.Width, "height", f.Height)
			continue
		}
		p.framesDecoded.Add(1)
		if err := p.raw.Push(ctx, f); err != nil {
			return err
		}
	}
}

// convert makes frames presentable for the configured mode and hands them to
// the render driver.
func (p *Pipeline) convert(ctx context.Context) error {
	defer p.frames.Close()
	for {
		f, err := p.raw.Pop(ctx)
		if errors.Is(err, queue.ErrClosed) {
			return nil
		}
		if err != nil {
			return err
		}

		kind, err := convert.Classify(f.Format)
		if err != nil {
			return fmt.Errorf("frame pts=%d: %w", f.PTS, err)
		}
		out := f
		if kind == convert.Planar && p.mode == ModeCPU {
			if out, err = p.cpu.Convert(f); err != nil {
				return fmt.Errorf("frame pts=%d: %w", f.PTS, err)
			}
		}

		if err := p.frames.Push(ctx, out); err != nil {
			return err
		}
		p.framesDelivered.Add(1)
		p.lastPTS.Store(out.PTS)
		if p.notifier != nil {
			p.notifier.RequestRedraw()
		}
	}
}

func decodeError(err error) error {
	if errors.Is(err, media.ErrDecode) {
		return err
	}
	return fmt.Errorf("%w: %w", media.ErrDecode, err)
}
