package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/zsiec/reel/internal/config"
	"github.com/zsiec/reel/internal/media"
	"github.com/zsiec/reel/internal/pipeline"
	"github.com/zsiec/reel/internal/player"
	"github.com/zsiec/reel/internal/source"
	"github.com/zsiec/reel/internal/window"
	"github.com/zsiec/reel/internal/window/headless"
	"github.com/zsiec/reel/internal/window/term"
)

func addPlayFlags(cmd *cobra.Command) {
	d := config.Default()
	f := cmd.Flags()
	f.String("display", d.Display.Mode, "display: terminal or headless")
	f.Int("width", d.Display.Width, "headless surface width")
	f.Int("height", d.Display.Height, "headless surface height")
	f.String("background", d.Display.Background, "letterbox color as #rrggbb")
	f.String("snapshot", d.Display.Snapshot, "headless only: write the last presented image to this PNG")
	f.String("convert", d.Pipeline.Convert, "planar conversion path: cpu or gpu")
	f.Int("queue-size", d.Pipeline.PacketQueueSize, "packet queue capacity")
}

func (a *app) runPlay(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return errMissingPath
	}
	path := args[0]
	if !source.IsURL(path) {
		if _, err := os.Stat(path); err != nil {
			return &media.SourceError{Path: path, Err: err}
		}
	}

	cfg := a.config.Config()
	mode, err := pipeline.ParseMode(cfg.Pipeline.Convert)
	if err != nil {
		return err
	}
	bg, err := config.ParseColor(cfg.Display.Background)
	if err != nil {
		return err
	}

	var win window.Window
	exitOnEnd := false
	switch cfg.Display.Mode {
	case config.DisplayHeadless:
		win = headless.New(headless.Config{
			Width:    cfg.Display.Width,
			Height:   cfg.Display.Height,
			Snapshot: cfg.Display.Snapshot,
			Log:      a.log,
		})
		exitOnEnd = true
	default:
		win = term.New(term.Config{Title: "reel " + path, Log: a.log})
	}

	p, err := player.New(player.Config{
		Path:            path,
		Window:          win,
		Mode:            mode,
		PacketQueueSize: cfg.Pipeline.PacketQueueSize,
		Background:      bg,
		ExitOnEnd:       exitOnEnd,
		Log:             a.log,
	})
	if err != nil {
		return err
	}

	a.config.OnChange(func(c *config.Config) {
		bg, err := config.ParseColor(c.Display.Background)
		if err != nil {
			return
		}
		p.SetBackground(bg)
	})
	a.config.Watch()

	_, err = p.Run(cmd.Context())
	return err
}
