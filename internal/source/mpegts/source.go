// Package mpegts reads MPEG transport streams: it follows the PAT and PMT to
// enumerate elementary streams and hands out one packet per reassembled PES
// payload. It does not decode any codec.
package mpegts

import (
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
)

// FormatName is the container name reported by Source.Format.
const FormatName = "mpegts"

// maxProbeUnits bounds how many payload units are read while looking for
// the first PMT.
const maxProbeUnits = 4096

// ErrNoProgram is returned when the stream ends or the probe budget runs
// out before a program map is found.
var ErrNoProgram = errors.New("mpegts: no program map found")

type codec struct {
	name string
	kind media.MediaType
}

var streamTypes = map[uint8]codec{
	0x01: {"mpeg1video", media.MediaTypeVideo},
	0x02: {"mpeg2video", media.MediaTypeVideo},
	0x10: {"mpeg4", media.MediaTypeVideo},
	0x1b: {"h264", media.MediaTypeVideo},
	0x24: {"hevc", media.MediaTypeVideo},
	0x03: {"mp2", media.MediaTypeAudio},
	0x04: {"mp2", media.MediaTypeAudio},
	0x0f: {"aac", media.MediaTypeAudio},
	0x11: {"aac_latm", media.MediaTypeAudio},
	0x81: {"ac3", media.MediaTypeAudio},
	0x87: {"eac3", media.MediaTypeAudio},
	0x06: {"private", media.MediaTypeData},
	0x15: {"timed_id3", media.MediaTypeData},
	0x86: {"scte_35", media.MediaTypeData},
}

// Opener opens local transport stream files.
type Opener struct {
	Log *slog.Logger
}

// Name implements source.Opener.
func (Opener) Name() string { return FormatName }

// Probe accepts files whose first two packets start with the sync byte, or
// with a transport stream extension.
func (Opener) Probe(path string, header []byte) bool {
	if header == nil {
		return false
	}
	if len(header) > packetSize && header[0] == syncByte && header[packetSize] == syncByte {
		return true
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ts", ".m2ts", ".mts":
		return true
	}
	return false
}

// Open implements source.Opener.
func (o Opener) Open(ctx context.Context, path string) (source.Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	src, err := NewSource(ctx, f, o.Log)
	if err != nil {
		f.Close()
		return nil, err
	}
	return src, nil
}

// Stats counts transport-level anomalies seen so far.
type Stats struct {
	Packets         int64
	Corrupt         int64
	Discontinuities int64
	BadSections     int64
	Unmapped        int64
}

// Source is a transport stream source. Streams are numbered in PMT order.
// ReadPacket and Close may be called from different goroutines; Close
// unblocks a pending read by closing the underlying reader.
type Source struct {
	log    *slog.Logger
	d      *demuxer
	closer io.Closer

	mu       sync.Mutex
	streams  []media.StreamInfo
	byPID    map[uint16]int
	held     []unit
	unmapped int64

	closeOnce sync.Once
	closeErr  error
}

// NewSource reads r until the first PMT so that Streams is populated. PES
// units seen before it are kept and delivered by ReadPacket. If r is an
// io.Closer, Close closes it. If log is nil, slog.Default() is used.
func NewSource(ctx context.Context, r io.Reader, log *slog.Logger) (*Source, error) {
	if log == nil {
		log = slog.Default()
	}
	s := &Source{
		log:   log.With("component", "mpegts"),
		d:     newDemuxer(ctx, r),
		byPID: make(map[uint16]int),
	}
	if c, ok := r.(io.Closer); ok {
		s.closer = c
	}

	for i := 0; i < maxProbeUnits; i++ {
		u, err := s.d.next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("mpegts: probing: %w", err)
		}
		if u.isPMT {
			s.addStreams(u.streams)
			s.log.Debug("program map", "streams", len(s.streams))
			return s, nil
		}
		if u.pes != nil {
			s.held = append(s.held, u)
		}
	}
	return nil, ErrNoProgram
}

func (s *Source) addStreams(es []elementary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range es {
		if _, ok := s.byPID[e.pid]; ok {
			continue
		}
		c, ok := streamTypes[e.streamType]
		if !ok {
			c = codec{name: fmt.Sprintf("stream_type_0x%02x", e.streamType), kind: media.MediaTypeUnknown}
		}
		idx := len(s.streams)
		s.byPID[e.pid] = idx
		s.streams = append(s.streams, media.StreamInfo{Index: idx, Type: c.kind, Codec: c.name})
	}
}

// Format implements source.Source.
func (s *Source) Format() string { return FormatName }

// Streams implements source.Source.
func (s *Source) Streams() []media.StreamInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]media.StreamInfo(nil), s.streams...)
}

// BestStream implements source.Source.
func (s *Source) BestStream(t media.MediaType) (media.StreamInfo, error) {
	return source.BestStreamOf(s.Streams(), t)
}

// ReadPacket returns the payload of the next PES packet of any mapped
// stream. PTS is in 90 kHz units, or NoPTS.
func (s *Source) ReadPacket() (*media.Packet, error) {
	for {
		u, err := s.nextUnit()
		if err != nil {
			return nil, err
		}
		if u.isPMT {
			s.addStreams(u.streams)
			continue
		}
		if u.pes == nil {
			continue
		}
		s.mu.Lock()
		idx, ok := s.byPID[u.pid]
		if !ok {
			s.unmapped++
		}
		s.mu.Unlock()
		if !ok {
			continue
		}
		return &media.Packet{StreamIndex: idx, PTS: u.pes.pts, Data: u.pes.data}, nil
	}
}

func (s *Source) nextUnit() (unit, error) {
	if len(s.held) > 0 {
		u := s.held[0]
		s.held = s.held[1:]
		return u, nil
	}
	u, err := s.d.next()
	if err != nil && !errors.Is(err, io.EOF) {
		return u, fmt.Errorf("mpegts: %w", err)
	}
	return u, err
}

// Stats returns the transport counters. It must not race with ReadPacket.
func (s *Source) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		Packets:         s.d.stats.packets,
		Corrupt:         s.d.stats.corrupt,
		Discontinuities: s.d.stats.discontinuities,
		BadSections:     s.d.stats.badSections,
		Unmapped:        s.unmapped,
	}
}

// Close closes the underlying reader if it is closable.
func (s *Source) Close() error {
	s.closeOnce.Do(func() {
		if s.closer != nil {
			s.closeErr = s.closer.Close()
		}
	})
	return s.closeErr
}
