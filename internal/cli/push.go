package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/zsiec/reel/internal/source/mpegts"
	"github.com/zsiec/reel/internal/source/srt"
)

func newPushCommand(a *app) *cobra.Command {
	var (
		rate float64
		loop bool
	)
	cmd := &cobra.Command{
		Use:   "push <file.ts> <srt-url>",
		Short: "Send a transport stream file to an SRT listener",
		Long: `Send a transport stream file to an SRT listener in real time, e.g. to a
'reel srt://:6000?mode=listener' running elsewhere. The send rate follows the
file's timestamps unless --rate is given.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := srt.ParseLocation(args[1])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if rate <= 0 {
				rate, err = fileRate(ctx, args[0])
				if err != nil {
					return err
				}
			}

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			conn, err := srt.DialPublisher(ctx, loc)
			if err != nil {
				return err
			}
			defer conn.Close()
			a.log.Info("pushing", "file", args[0], "address", loc.Address,
				"stream_id", loc.StreamID, "bytes_per_sec", int64(rate))

			var total int64
			for pass := 1; ; pass++ {
				n, err := srt.Send(ctx, conn, f, rate)
				total += n
				if err != nil {
					if errors.Is(err, context.Canceled) {
						break
					}
					return err
				}
				if !loop {
					break
				}
				a.log.Debug("restarting file", "pass", pass, "bytes", total)
				if _, err := f.Seek(0, io.SeekStart); err != nil {
					return err
				}
			}
			a.log.Info("push finished", "bytes", total)
			return nil
		},
	}
	cmd.Flags().Float64Var(&rate, "rate", 0, "bytes per second (0 derives the rate from timestamps)")
	cmd.Flags().BoolVar(&loop, "loop", false, "repeat the file until interrupted")
	return cmd
}

// fileRate returns the byte rate that sends path in the time spanned by its
// presentation timestamps.
func fileRate(ctx context.Context, path string) (float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		return 0, err
	}

	src, err := mpegts.NewSource(ctx, f, nil)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", path, err)
	}
	first, last := int64(mpegts.NoPTS), int64(mpegts.NoPTS)
	for {
		pkt, err := src.ReadPacket()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, err
		}
		if pkt.PTS == mpegts.NoPTS {
			continue
		}
		if first == mpegts.NoPTS || pkt.PTS < first {
			first = pkt.PTS
		}
		if pkt.PTS > last {
			last = pkt.PTS
		}
	}
	if last <= first {
		return 0, fmt.Errorf("%s: no timestamps to derive a rate from, use --rate", path)
	}
	seconds := float64(last-first) / 90000
	return float64(fi.Size()) / seconds, nil
}
