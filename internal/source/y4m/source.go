package y4m

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/zsiec/reel/internal/media"
	"github.com/zsiec/reel/internal/source"
	"github.com/zsiec/reel/internal/source/rawvideo"
)

// Opener opens .y4m files, or any file starting with the YUV4MPEG2
// signature.
type Opener struct {
	Log *slog.Logger
}

// Name implements source.Opener.
func (Opener) Name() string { return "yuv4mpegpipe" }

// Probe implements source.Opener.
func (Opener) Probe(path string, header []byte) bool {
	if bytes.HasPrefix(header, []byte(signature)) {
		return true
	}
	return header != nil && strings.EqualFold(filepath.Ext(path), ".y4m")
}

// Open implements source.Opener.
func (o Opener) Open(_ context.Context, path string) (source.Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	src, err := NewSource(f, o.Log)
	if err != nil {
		f.Close()
		return nil, err
	}
	return src, nil
}

// Source reads frames from a y4m stream. Every packet carries one frame in
// rawvideo layout and belongs to stream 0.
type Source struct {
	log       *slog.Logger
	r         *bufio.Reader
	closer    io.Closer
	closeOnce sync.Once
	closeErr  error
	header    Header
	frameSize int
	frames    int64
}

// NewSource reads the stream header from r. If r is an io.Closer, Close
// closes it. If log is nil, slog.Default() is used.
func NewSource(r io.Reader, log *slog.Logger) (*Source, error) {
	if log == nil {
		log = slog.Default()
	}
	br := bufio.NewReaderSize(r, 1<<16)
	line, err := readLine(br)
	if err != nil {
		return nil, fmt.Errorf("y4m: read header: %w", err)
	}
	h, err := ParseHeader(line)
	if err != nil {
		return nil, err
	}
	size, err := rawvideo.FrameSize(h.Format, h.Width, h.Height)
	if err != nil {
		return nil, err
	}

	s := &Source{
		log:       log.With("component", "y4m"),
		r:         br,
		header:    h,
		frameSize: size,
	}
	if c, ok := r.(io.Closer); ok {
		s.closer = c
	}
	s.log.Debug("stream header", "width", h.Width, "height", h.Height, "format", h.Format,
		"rate", fmt.Sprintf("%d/%d", h.RateNum, h.RateDen))
	return s, nil
}

// Header returns the parsed stream header.
func (s *Source) Header() Header { return s.header }

// Format implements source.Source.
func (s *Source) Format() string { return "yuv4mpegpipe" }

// Streams implements source.Source.
func (s *Source) Streams() []media.StreamInfo {
	return []media.StreamInfo{s.stream()}
}

func (s *Source) stream() media.StreamInfo {
	return media.StreamInfo{
		Index:  0,
		Type:   media.MediaTypeVideo,
		Codec:  rawvideo.Codec,
		Format: s.header.Format,
		Width:  s.header.Width,
		Height: s.header.Height,
	}
}

// BestStream implements source.Source.
func (s *Source) BestStream(t media.MediaType) (media.StreamInfo, error) {
	return source.BestStreamOf(s.Streams(), t)
}

// ReadPacket returns the next frame as a packet, or io.EOF after the last
// complete frame. A truncated final frame is reported as an error.
func (s *Source) ReadPacket() (*media.Packet, error) {
	line, err := readLine(s.r)
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) == 0 {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("y4m: read frame marker: %w", err)
	}
	if !bytes.HasPrefix(line, []byte(frameMarker)) {
		return nil, fmt.Errorf("y4m: frame %d: expected %s marker", s.frames, frameMarker)
	}

	data := make([]byte, s.frameSize)
	if _, err := io.ReadFull(s.r, data); err != nil {
		return nil, fmt.Errorf("y4m: frame %d truncated: %w", s.frames, err)
	}
	pkt := &media.Packet{StreamIndex: 0, PTS: s.frames, Data: data}
	s.frames++
	return pkt, nil
}

// Close closes the underlying reader if it is closable. Later calls return
// the first result.
func (s *Source) Close() error {
	s.closeOnce.Do(func() {
		if s.closer != nil {
			s.closeErr = s.closer.Close()
		}
	})
	return s.closeErr
}

// readLine reads one '\n'-terminated line without the terminator.
func readLine(r *bufio.Reader) ([]byte, error) {
	var line []byte
	for {
		chunk, err := r.ReadSlice('\n')
		line = append(line, chunk...)
		if len(line) > maxLineLen {
			return nil, fmt.Errorf("y4m: line exceeds %d bytes", maxLineLen)
		}
		if err == nil {
			return line[:len(line)-1], nil
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		return line, err
	}
}
