// Package source defines the media source and decoder interfaces consumed by
// the delivery pipeline, and the Backend that opens sources and creates
// decoders. Container and codec implementations live in sub-packages and are
// registered with a Backend explicitly.
package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/zsiec/reel/internal/media"
)

// ErrWouldBlock is returned by Decoder.Receive when the decoder needs more
// input before it can produce another frame.
var ErrWouldBlock = errors.New("source: decoder needs more input")

// Source is an opened container. ReadPacket returns io.EOF once the
// container is exhausted; any other error is an I/O failure.
type Source interface {
	Format() string
	Streams() []media.StreamInfo
	BestStream(t media.MediaType) (media.StreamInfo, error)
	ReadPacket() (*media.Packet, error)
	Close() error
}

// Decoder turns packets of one stream into frames. After Send, Receive is
// called until it returns ErrWouldBlock. After Flush, Receive drains pending
// frames and then returns io.EOF.
type Decoder interface {
	Send(pkt *media.Packet) error
	Receive() (*media.Frame, error)
	Flush() error
	Close() error
}

// Opener opens one kind of source. Probe is given the path and up to
// ProbeSize leading bytes of the file (nil for non-file locations).
type Opener interface {
	Name() string
	Probe(path string, header []byte) bool
	Open(ctx context.Context, path string) (Source, error)
}

// DecoderFactory creates a decoder for a stream whose codec it handles.
type DecoderFactory func(info media.StreamInfo) (Decoder, error)

// BestStreamOf picks the first stream of type t, preferring streams whose
// dimensions are known. It implements Source.BestStream for containers that
// have no better heuristic.
func BestStreamOf(streams []media.StreamInfo, t media.MediaType) (media.StreamInfo, error) {
	best := -1
	for i, s := range streams {
		if s.Type != t {
			continue
		}
		if best < 0 || (streams[best].Width == 0 && s.Width > 0) {
			best = i
		}
	}
	if best < 0 {
		return media.StreamInfo{}, fmt.Errorf("%w: no %s stream", media.ErrStreamNotFound, t)
	}
	return streams[best], nil
}
