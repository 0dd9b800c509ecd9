package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/zsiec/reel/internal/media"
	"github.com/zsiec/reel/internal/player"
	"github.com/zsiec/reel/internal/source"
	"github.com/zsiec/reel/internal/source/h264"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	subtleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	videoStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	markStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
)

func newProbeCommand(a *app) *cobra.Command {
	var scan int
	cmd := &cobra.Command{
		Use:   "probe <path>",
		Short: "List the streams of a source",
		Long: `Open a source and list its container format and streams. The stream
reel would play is marked with *. With --scan, the first packets of every
H.264 stream are inspected for picture size, profile, keyframes and
closed captions.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b := player.NewBackend(a.log)
			b.Init()
			src, err := b.Open(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer src.Close()
			out := renderProbe(args[0], src)
			if scan > 0 {
				sums, err := scanH264(src, scan)
				if err != nil {
					return err
				}
				out += renderScan(src.Streams(), sums)
			}
			_, err = fmt.Fprint(a.stdout, out)
			return err
		},
	}
	cmd.Flags().IntVar(&scan, "scan", 0, "inspect up to this many packets of H.264 streams")
	return cmd
}

func renderProbe(path string, src source.Source) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n", titleStyle.Render(path), subtleStyle.Render(src.Format()))

	best, err := src.BestStream(media.MediaTypeVideo)
	hasVideo := err == nil
	for _, s := range src.Streams() {
		mark := " "
		if hasVideo && s.Index == best.Index {
			mark = markStyle.Render("*")
		}
		line := s.String()
		if s.Type == media.MediaTypeVideo {
			line = videoStyle.Render(line)
		}
		fmt.Fprintf(&b, "%s %s\n", mark, line)
	}
	if !hasVideo {
		msg := "no video stream"
		if !errors.Is(err, media.ErrStreamNotFound) {
			msg = err.Error()
		}
		fmt.Fprintf(&b, "%s\n", subtleStyle.Render(msg))
	}
	return b.String()
}

// scanH264 reads up to limit packets and summarizes those of H.264 streams,
// keyed by stream index.
func scanH264(src source.Source, limit int) (map[int]h264.Summary, error) {
	scanners := make(map[int]*h264.Scanner)
	for _, s := range src.Streams() {
		if s.Codec == "h264" {
			scanners[s.Index] = h264.NewScanner()
		}
	}
	if len(scanners) == 0 {
		return nil, nil
	}
	for range limit {
		pkt, err := src.ReadPacket()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if sc := scanners[pkt.StreamIndex]; sc != nil {
			sc.Add(pkt.Data)
		}
	}
	sums := make(map[int]h264.Summary, len(scanners))
	for idx, sc := range scanners {
		sums[idx] = sc.Summary()
	}
	return sums, nil
}

func renderScan(streams []media.StreamInfo, sums map[int]h264.Summary) string {
	var b strings.Builder
	for _, s := range streams {
		sum, ok := sums[s.Index]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "  #%d %s\n", s.Index, sum)
		for ch := 1; ch <= 4; ch++ {
			if text := sum.Captions[ch]; text != "" {
				fmt.Fprintf(&b, "     CC%d %s\n", ch, subtleStyle.Render(fmt.Sprintf("%q", text)))
			}
		}
	}
	return b.String()
}
