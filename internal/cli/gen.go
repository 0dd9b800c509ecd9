package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zsiec/reel/internal/config"
	"github.com/zsiec/reel/internal/media"
	"github.com/zsiec/reel/internal/testsrc"
)

func newGenCommand(a *app) *cobra.Command {
	var (
		width, height, frames, rate int
		format, pattern, fill       string
	)
	cmd := &cobra.Command{
		Use:   "gen <out.y4m>",
		Short: "Write a synthetic YUV4MPEG2 clip",
		Long: `Write a synthetic raw video clip: scrolling color bars or a solid color,
in any planar YUV format. The result plays with 'reel <out.y4m>'.`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			pf, err := media.ParsePixelFormat(format)
			if err != nil {
				return err
			}
			pat, err := testsrc.ParsePattern(pattern)
			if err != nil {
				return err
			}
			c, err := config.ParseColor(fill)
			if err != nil {
				return err
			}

			f, err := os.Create(args[0])
			if err != nil {
				return err
			}
			err = testsrc.Write(f, testsrc.Options{
				Width: width, Height: height, Frames: frames,
				Format: pf, Pattern: pat, Color: c,
				RateNum: rate, RateDen: 1,
			})
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				os.Remove(args[0])
				return fmt.Errorf("gen: %w", err)
			}
			a.log.Info("clip written", "path", args[0], "format", pf,
				"width", width, "height", height, "frames", frames, "pattern", pat)
			return nil
		},
	}
	f := cmd.Flags()
	f.IntVar(&width, "width", 320, "frame width")
	f.IntVar(&height, "height", 180, "frame height")
	f.IntVar(&frames, "frames", 100, "number of frames")
	f.IntVar(&rate, "rate", 25, "frames per second")
	f.StringVar(&format, "format", "yuv420p", "planar pixel format, e.g. yuv420p, yuvj444p, yuv410p")
	f.StringVar(&pattern, "pattern", "bars", "bars or solid")
	f.StringVar(&fill, "color", "#0000ff", "solid pattern color")
	return cmd
}
