package player

import (
	"log/slog"

	"github.com/zsiec/reel/internal/source"
	"github.com/zsiec/reel/internal/source/mpegts"
	"github.com/zsiec/reel/internal/source/rawvideo"
	"github.com/zsiec/reel/internal/source/srt"
	"github.com/zsiec/reel/internal/source/y4m"
)

// NewBackend returns a media backend with every container and codec reel
// ships: y4m and MPEG-TS files, MPEG-TS over SRT, and raw video. The
// backend still needs Init.
func NewBackend(log *slog.Logger) *source.Backend {
	b := source.NewBackend(log,
		srt.Opener{Log: log},
		y4m.Opener{Log: log},
		mpegts.Opener{Log: log},
	)
	b.RegisterDecoder(rawvideo.Codec, rawvideo.New)
	return b
}
