package mpegts

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/zsiec/reel/internal/media"
)

const (
	videoPID = 0x100
	audioPID = 0x101
)

func muxStream(t *testing.T, build func(m *Muxer)) []byte {
	t.Helper()
	var buf bytes.Buffer
	m := NewMuxer(&buf,
		MuxStream{PID: videoPID, StreamType: 0x1b},
		MuxStream{PID: audioPID, StreamType: 0x0f},
	)
	build(m)
	return buf.Bytes()
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
}

func payload(n int, seed byte) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = seed + byte(i)
	}
	return b
}

func TestParsePacket(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	m := NewMuxer(&buf)
	must(t, m.writePayload(0x1abc, []byte{1, 2, 3}))

	p, err := parsePacket(buf.Bytes())
	if err != nil {
		t.Fatalf("parsePacket: %v", err)
	}
	if p.pid != 0x1abc || !p.unitStart || !p.hasPayload || p.cc != 0 {
		t.Errorf("header: got %+v", p.header)
	}
	if !bytes.Equal(p.payload, []byte{1, 2, 3}) {
		t.Errorf("payload: got %v, want [1 2 3]", p.payload)
	}

	if _, err := parsePacket(buf.Bytes()[:100]); err == nil {
		t.Error("short packet accepted")
	}
	bad := append([]byte(nil), buf.Bytes()...)
	bad[0] = 0x48
	if _, err := parsePacket(bad); err == nil {
		t.Error("bad sync byte accepted")
	}
}

func TestTimestampRoundTrip(t *testing.T) {
	t.Parallel()

	for _, pts := range []int64{0, 1, 90000, 1<<32 + 12345, 1<<33 - 1} {
		var buf bytes.Buffer
		m := NewMuxer(&buf, MuxStream{PID: videoPID, StreamType: 0x1b})
		must(t, m.WritePES(videoPID, pts, []byte{9}))
		p, err := parsePacket(buf.Bytes()[:packetSize])
		if err != nil {
			t.Fatal(err)
		}
		got, err := parsePES(p.payload)
		if err != nil {
			t.Fatalf("parsePES: %v", err)
		}
		if got.pts != pts || got.dts != pts {
			t.Errorf("pts %d: got pts %d dts %d", pts, got.pts, got.dts)
		}
	}
}

func TestSourceEnumeratesStreams(t *testing.T) {
	t.Parallel()

	data := muxStream(t, func(m *Muxer) {
		must(t, m.WriteTables())
	})
	src, err := NewSource(context.Background(), bytes.NewReader(data), nil)
	if err != nil {
		t.Fatalf("NewSource: %v", err)
	}
	streams := src.Streams()
	if len(streams) != 2 {
		t.Fatalf("got %d streams, want 2", len(streams))
	}
	if s := streams[0]; s.Index != 0 || s.Type != media.MediaTypeVideo || s.Codec != "h264" {
		t.Errorf("stream 0: got %v", s)
	}
	if s := streams[1]; s.Index != 1 || s.Type != media.MediaTypeAudio || s.Codec != "aac" {
		t.Errorf("stream 1: got %v", s)
	}
	best, err := src.BestStream(media.MediaTypeVideo)
	if err != nil || best.Index != 0 {
		t.Errorf("BestStream: got %v, %v", best, err)
	}
	if _, err := src.BestStream(media.MediaTypeSubtitle); !errors.Is(err, media.ErrStreamNotFound) {
		t.Errorf("subtitle: got %v, want ErrStreamNotFound", err)
	}
	if src.Format() != FormatName {
		t.Errorf("format: got %q", src.Format())
	}
}

func TestSourceReadsPackets(t *testing.T) {
	t.Parallel()

	big := payload(1000, 7)
	data := muxStream(t, func(m *Muxer) {
		must(t, m.WriteTables())
		must(t, m.WritePES(videoPID, 3000, big))
		must(t, m.WritePES(audioPID, 3100, []byte("aac frame")))
		must(t, m.WritePES(videoPID, 6000, []byte{1, 2}))
		must(t, m.WritePES(videoPID, -1, []byte{3}))
	})
	src, err := NewSource(context.Background(), bytes.NewReader(data), nil)
	if err != nil {
		t.Fatalf("NewSource: %v", err)
	}

	type want struct {
		stream int
		pts    int64
		data   []byte
	}
	// Units complete at the next unit start on their PID; the rest drain at
	// end of stream, lowest PID first.
	var got []want
	for {
		pkt, err := src.ReadPacket()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("ReadPacket: %v", err)
		}
		got = append(got, want{pkt.StreamIndex, pkt.PTS, pkt.Data})
	}
	if len(got) != 4 {
		t.Fatalf("got %d packets, want 4", len(got))
	}
	byPTS := map[int64]want{}
	for _, g := range got {
		byPTS[g.pts] = g
	}
	if g := byPTS[3000]; g.stream != 0 || !bytes.Equal(g.data, big) {
		t.Errorf("first video packet: stream %d, %d bytes", g.stream, len(g.data))
	}
	if g := byPTS[3100]; g.stream != 1 || string(g.data) != "aac frame" {
		t.Errorf("audio packet: stream %d, data %q", g.stream, g.data)
	}
	if g := byPTS[NoPTS]; g.stream != 0 || !bytes.Equal(g.data, []byte{3}) {
		t.Errorf("untimed packet: %+v", g)
	}

	// Video packets keep their relative order.
	var video []int64
	for _, g := range got {
		if g.stream == 0 {
			video = append(video, g.pts)
		}
	}
	if len(video) != 3 || video[0] != 3000 || video[1] != 6000 || video[2] != NoPTS {
		t.Errorf("video order: got %v", video)
	}
}

func TestSourceKeepsPESBeforePMT(t *testing.T) {
	t.Parallel()

	data := muxStream(t, func(m *Muxer) {
		must(t, m.WritePES(videoPID, 1, []byte{1}))
		must(t, m.WritePES(videoPID, 2, []byte{2}))
		must(t, m.WriteTables())
	})
	src, err := NewSource(context.Background(), bytes.NewReader(data), nil)
	if err != nil {
		t.Fatalf("NewSource: %v", err)
	}
	pkt, err := src.ReadPacket()
	if err != nil {
		t.Fatalf("ReadPacket: %v", err)
	}
	if pkt.PTS != 1 || pkt.StreamIndex != 0 {
		t.Errorf("got pts %d stream %d, want pts 1 stream 0", pkt.PTS, pkt.StreamIndex)
	}
}

func TestSourceWithoutProgram(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	m := NewMuxer(&buf, MuxStream{PID: videoPID, StreamType: 0x1b})
	must(t, m.WritePES(videoPID, 1, []byte{1}))
	if _, err := NewSource(context.Background(), &buf, nil); !errors.Is(err, ErrNoProgram) {
		t.Errorf("got %v, want ErrNoProgram", err)
	}
}

func TestSourceDropsUnitOnDiscontinuity(t *testing.T) {
	t.Parallel()

	data := muxStream(t, func(m *Muxer) {
		must(t, m.WriteTables())
		must(t, m.WritePES(videoPID, 100, payload(400, 0)))
		must(t, m.WritePES(videoPID, 200, []byte{2}))
	})
	// Drop the middle packet of the first video PES. PAT and PMT are
	// packets 0 and 1.
	cut := append([]byte(nil), data[:3*packetSize]...)
	cut = append(cut, data[4*packetSize:]...)

	src, err := NewSource(context.Background(), bytes.NewReader(cut), nil)
	if err != nil {
		t.Fatalf("NewSource: %v", err)
	}
	var pts []int64
	for {
		pkt, err := src.ReadPacket()
		if err != nil {
			break
		}
		pts = append(pts, pkt.PTS)
	}
	if len(pts) != 1 || pts[0] != 200 {
		t.Errorf("got pts %v, want only 200", pts)
	}
	if got := src.Stats().Discontinuities; got != 1 {
		t.Errorf("discontinuities: got %d, want 1", got)
	}
}

func TestSourceSkipsCorruptPacketsAndBadCRC(t *testing.T) {
	t.Parallel()

	data := muxStream(t, func(m *Muxer) {
		must(t, m.WriteTables())
		must(t, m.WriteTables())
		must(t, m.WritePES(videoPID, 5, []byte{5}))
	})
	corrupt := append([]byte(nil), data...)
	corrupt[2*packetSize] = 0x00    // second PAT loses sync
	corrupt[4*packetSize-1] ^= 0xff // second PMT fails its CRC

	src, err := NewSource(context.Background(), bytes.NewReader(corrupt), nil)
	if err != nil {
		t.Fatalf("NewSource: %v", err)
	}
	var n int
	for {
		if _, err := src.ReadPacket(); err != nil {
			if !errors.Is(err, io.EOF) {
				t.Fatalf("ReadPacket: %v", err)
			}
			break
		}
		n++
	}
	if n != 1 {
		t.Errorf("got %d packets, want 1", n)
	}
	if len(src.Streams()) != 2 {
		t.Errorf("got %d streams, want 2", len(src.Streams()))
	}
	if s := src.Stats(); s.Corrupt != 1 || s.BadSections != 1 || s.Packets != 5 {
		t.Errorf("stats: got %+v, want 5 packets, 1 corrupt, 1 bad section", s)
	}
}

func TestSourceHonorsContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	data := muxStream(t, func(m *Muxer) { must(t, m.WriteTables()) })
	if _, err := NewSource(ctx, bytes.NewReader(data), nil); !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}

type closeCounter struct {
	io.Reader
	n int
}

func (c *closeCounter) Close() error { c.n++; return nil }

func TestSourceCloseOnce(t *testing.T) {
	t.Parallel()

	r := &closeCounter{Reader: bytes.NewReader(muxStream(t, func(m *Muxer) { must(t, m.WriteTables()) }))}
	src, err := NewSource(context.Background(), r, nil)
	if err != nil {
		t.Fatal(err)
	}
	src.Close()
	src.Close()
	if r.n != 1 {
		t.Errorf("underlying Close called %d times, want 1", r.n)
	}
}

func TestProbe(t *testing.T) {
	t.Parallel()

	data := muxStream(t, func(m *Muxer) { must(t, m.WriteTables()) })
	o := Opener{}
	if !o.Probe("capture.bin", data) {
		t.Error("sync bytes not recognized")
	}
	if !o.Probe("clip.M2TS", []byte{0}) {
		t.Error("extension not recognized")
	}
	if o.Probe("clip.y4m", []byte("YUV4MPEG2")) {
		t.Error("y4m claimed")
	}
	if o.Probe("srt://host:9000", nil) {
		t.Error("URL claimed")
	}
}
