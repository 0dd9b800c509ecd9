// Package player wires a media source through the frame pipeline to a
// window: source → pipeline → render driver → presenter.
package player

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zsiec/reel/internal/convert"
	"github.com/zsiec/reel/internal/gpu"
	"github.com/zsiec/reel/internal/media"
	"github.com/zsiec/reel/internal/pipeline"
	"github.com/zsiec/reel/internal/present"
	"github.com/zsiec/reel/internal/render"
	"github.com/zsiec/reel/internal/source"
	"github.com/zsiec/reel/internal/texture"
	"github.com/zsiec/reel/internal/window"
)

// Config describes one playback.
type Config struct {
	Path    string
	Window  window.Window
	Backend *source.Backend
	Mode    pipeline.Mode
	// PacketQueueSize defaults to media.PacketQueueSize.
	PacketQueueSize int
	Background      color.Color
	// ExitOnEnd ends playback once the last frame has been shown. Otherwise
	// the last frame stays up until the window is closed.
	ExitOnEnd bool
	Log       *slog.Logger
}

// Result summarizes a finished playback.
type Result struct {
	Pipeline pipeline.Stats
	Render   render.Stats
	Elapsed  time.Duration
}

// Player plays one source into one window.
type Player struct {
	cfg Config
	log *slog.Logger

	mu        sync.Mutex
	presenter *present.Presenter
	done      atomic.Bool
}

// New validates cfg and returns a player. Nothing is opened until Run.
func New(cfg Config) (*Player, error) {
	if cfg.Path == "" {
		return nil, errors.New("player: no source path")
	}
	if cfg.Window == nil {
		return nil, errors.New("player: no window")
	}
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}
	if cfg.Backend == nil {
		cfg.Backend = NewBackend(log)
	}
	if cfg.Background == nil {
		cfg.Background = color.Black
	}
	return &Player{cfg: cfg, log: log.With("component", "player")}, nil
}

// SetBackground changes the letterbox color and asks for a redraw. It may
// be called from any goroutine, before or during Run.
func (p *Player) SetBackground(c color.Color) {
	p.mu.Lock()
	p.cfg.Background = c
	pres := p.presenter
	p.mu.Unlock()
	if pres != nil {
		pres.SetBackground(c)
		p.cfg.Window.Notifier().RequestRedraw()
	}
}

// Run opens the source, plays it and releases everything before
// returning. It returns when the window closes, ctx is done, the stream
// ends with ExitOnEnd set, or a stage fails.
func (p *Player) Run(ctx context.Context) (Result, error) {
	start := time.Now()
	b := p.cfg.Backend
	b.Init()

	src, err := b.Open(ctx, p.cfg.Path)
	if err != nil {
		return Result{}, err
	}
	info, err := src.BestStream(media.MediaTypeVideo)
	if err != nil {
		src.Close()
		return Result{}, fmt.Errorf("%s: %w", p.cfg.Path, err)
	}
	dec, err := b.NewDecoder(info)
	if err != nil {
		src.Close()
		return Result{}, err
	}
	p.log.Info("source opened", "path", p.cfg.Path, "format", src.Format(),
		"stream", info.Index, "codec", info.Codec, "width", info.Width, "height", info.Height)

	w := p.cfg.Window
	gctx, err := gpu.NewContext(w.Instance(), w.Surface(), p.log)
	if err != nil {
		dec.Close()
		src.Close()
		return Result{}, err
	}
	defer gctx.Close()

	stack, err := p.build(gctx)
	if err != nil {
		dec.Close()
		src.Close()
		return Result{}, err
	}
	defer stack.close()

	pl := pipeline.New(pipeline.Config{
		Source:          src,
		Decoder:         dec,
		Stream:          info,
		Mode:            p.cfg.Mode,
		PacketQueueSize: p.cfg.PacketQueueSize,
		Notifier:        w.Notifier(),
		Log:             p.log,
	})
	driver := render.New(gctx, render.Config{
		Frames:    pl.Frames(),
		Cache:     stack.cache,
		Presenter: stack.presenter,
		Converter: stack.converter,
		Log:       p.log,
	})
	defer driver.Close()

	h := &handler{
		driver:    driver,
		pipeline:  pl,
		notifier:  w.Notifier(),
		done:      &p.done,
		exitOnEnd: p.cfg.ExitOnEnd,
		log:       p.log,
	}

	g, runCtx := errgroup.WithContext(ctx)
	plCtx, cancelPipeline := context.WithCancel(runCtx)
	defer cancelPipeline()

	g.Go(func() error {
		err := pl.Run(plCtx)
		p.done.Store(true)
		w.Notifier().RequestRedraw()
		return err
	})
	g.Go(func() error {
		defer cancelPipeline()
		return w.Run(runCtx, h)
	})
	err = g.Wait()

	res := Result{Pipeline: pl.Stats(), Render: driver.Stats(), Elapsed: time.Since(start)}
	p.log.Info("playback finished",
		"frames_shown", res.Render.Frames,
		"frames_decoded", res.Pipeline.FramesDecoded,
		"redraws", res.Render.Redraws,
		"elapsed", res.Elapsed.Round(time.Millisecond))
	return res, err
}

type stack struct {
	presenter *present.Presenter
	cache     *texture.Cache
	converter render.Converter
	closeGPU  func()
}

func (s *stack) close() {
	if s.closeGPU != nil {
		s.closeGPU()
	}
	s.presenter.Close()
}

func (p *Player) build(gctx *gpu.Context) (*stack, error) {
	pres, err := present.New(gctx, p.cfg.Window.Surface(), p.log)
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	pres.SetBackground(p.cfg.Background)
	p.presenter = pres
	p.mu.Unlock()

	s := &stack{presenter: pres}
	usage := gpu.TextureUsageTextureBinding | gpu.TextureUsageCopyDst
	if p.cfg.Mode == pipeline.ModeGPU {
		conv, err := convert.NewGPU(gctx, p.log)
		if err != nil {
			pres.Close()
			return nil, err
		}
		s.converter = conv
		s.closeGPU = conv.Close
		usage = convert.TargetUsage
	}
	s.cache = texture.NewCache(gctx, usage, p.log)
	return s, nil
}
