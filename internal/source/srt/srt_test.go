package srt

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/zsiec/reel/internal/media"
	"github.com/zsiec/reel/internal/source/mpegts"
)

func TestParseLocation(t *testing.T) {
	t.Parallel()

	loc, err := ParseLocation("srt://10.0.0.5:9000?streamid=live/cam1")
	if err != nil {
		t.Fatalf("ParseLocation: %v", err)
	}
	if loc.Address != "10.0.0.5:9000" || loc.StreamID != "live/cam1" {
		t.Errorf("got %+v", loc)
	}

	if loc.Listen {
		t.Error("caller location marked as listener")
	}

	loc, err = ParseLocation("srt://:6000?mode=listener&streamid=live/in")
	if err != nil {
		t.Fatalf("ParseLocation listener: %v", err)
	}
	if !loc.Listen || loc.Address != ":6000" || loc.StreamID != "live/in" {
		t.Errorf("listener: got %+v", loc)
	}

	for _, bad := range []string{
		"udp://host:1", "srt://host", "srt://:9000", "srt://%zz",
		"srt://host:1?mode=rendezvous", "srt://?mode=listener",
	} {
		if _, err := ParseLocation(bad); err == nil {
			t.Errorf("%q: expected error", bad)
		}
	}
}

func TestStreamIDMatches(t *testing.T) {
	t.Parallel()

	tests := []struct {
		want, got string
		ok        bool
	}{
		{"", "live/a", true},
		{"", "", false},
		{"live/a", "live/a", true},
		{"live/a", "/live/a", true},
		{"/live/a", "live/a", true},
		{"live/a", "live/b", false},
	}
	for _, tt := range tests {
		if got := streamIDMatches(tt.want, tt.got); got != tt.ok {
			t.Errorf("streamIDMatches(%q, %q) = %v, want %v", tt.want, tt.got, got, tt.ok)
		}
	}
}

func TestProbe(t *testing.T) {
	t.Parallel()

	if !(Opener{}).Probe("SRT://host:9000", nil) {
		t.Error("srt URL not recognized")
	}
	if (Opener{}).Probe("clip.ts", []byte{0x47}) {
		t.Error("local file claimed")
	}
}

// chunked hands out data in SRT-sized messages that do not line up with
// transport packets.
type chunked struct {
	data   []byte
	closed bool
}

func (c *chunked) Read(p []byte) (int, error) {
	if len(c.data) == 0 {
		return 0, io.EOF
	}
	n := copy(p[:min(len(p), 1000)], c.data)
	c.data = c.data[n:]
	return n, nil
}

func (c *chunked) Close() error {
	c.closed = true
	return nil
}

func stream(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	m := mpegts.NewMuxer(&buf, mpegts.MuxStream{PID: 0x100, StreamType: 0x1b})
	if err := m.WriteTables(); err != nil {
		t.Fatal(err)
	}
	for i := int64(0); i < 3; i++ {
		if err := m.WritePES(0x100, i*3000, bytes.Repeat([]byte{byte(i)}, 500)); err != nil {
			t.Fatal(err)
		}
	}
	return buf.Bytes()
}

func TestOpenReadsTransportStream(t *testing.T) {
	t.Parallel()

	conn := &chunked{data: stream(t)}
	var dialed Location
	o := Opener{Dial: func(loc Location) (io.ReadCloser, error) {
		dialed = loc
		return conn, nil
	}}

	src, err := o.Open(context.Background(), "srt://relay:7001?streamid=live/x")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if dialed.StreamID != "live/x" {
		t.Errorf("dialed %+v", dialed)
	}
	if src.Format() != FormatName {
		t.Errorf("format: got %q", src.Format())
	}
	info, err := src.BestStream(media.MediaTypeVideo)
	if err != nil || info.Codec != "h264" {
		t.Fatalf("BestStream: got %v, %v", info, err)
	}

	var n int
	for {
		pkt, err := src.ReadPacket()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("ReadPacket: %v", err)
		}
		if len(pkt.Data) != 500 || pkt.PTS != int64(n)*3000 {
			t.Errorf("packet %d: %d bytes, pts %d", n, len(pkt.Data), pkt.PTS)
		}
		n++
	}
	if n != 3 {
		t.Errorf("got %d packets, want 3", n)
	}
	if err := src.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
	if !conn.closed {
		t.Error("connection not closed")
	}
}

func TestOpenListenerAcceptsPublisher(t *testing.T) {
	t.Parallel()

	conn := &chunked{data: stream(t)}
	o := Opener{
		Dial: func(Location) (io.ReadCloser, error) {
			t.Error("listener location dialed")
			return nil, errors.New("unexpected dial")
		},
		Accept: func(_ context.Context, loc Location) (io.ReadCloser, error) {
			if loc.Address != ":6000" {
				t.Errorf("listening on %q", loc.Address)
			}
			return conn, nil
		},
	}
	src, err := o.Open(context.Background(), "srt://:6000?mode=listener")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer src.Close()
	if len(src.Streams()) != 1 {
		t.Errorf("got %d streams, want 1", len(src.Streams()))
	}
	if !src.(*Source).Location().Listen {
		t.Error("location lost listener mode")
	}
}

func TestOpenWrapsDialError(t *testing.T) {
	t.Parallel()

	refused := errors.New("connection rejected")
	o := Opener{Dial: func(Location) (io.ReadCloser, error) { return nil, refused }}
	if _, err := o.Open(context.Background(), "srt://relay:7001"); !errors.Is(err, refused) {
		t.Errorf("got %v, want dial error", err)
	}
}

func TestOpenAbandonsDialOnCancel(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	conn := &chunked{}
	o := Opener{Dial: func(Location) (io.ReadCloser, error) {
		<-release
		return conn, nil
	}}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := o.Open(ctx, "srt://relay:7001"); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("got %v, want deadline exceeded", err)
	}
	close(release)
}

func TestOpenClosesConnWithoutProgram(t *testing.T) {
	t.Parallel()

	conn := &chunked{data: bytes.Repeat([]byte{0x47}, 188)}
	o := Opener{Dial: func(Location) (io.ReadCloser, error) { return conn, nil }}
	if _, err := o.Open(context.Background(), "srt://relay:7001"); !errors.Is(err, mpegts.ErrNoProgram) {
		t.Errorf("got %v, want ErrNoProgram", err)
	}
	if !conn.closed {
		t.Error("connection left open")
	}
}

type recorder struct {
	bytes.Buffer
	writes int
}

func (r *recorder) Write(p []byte) (int, error) {
	r.writes++
	return r.Buffer.Write(p)
}

func TestSendChunksAndPaces(t *testing.T) {
	t.Parallel()

	data := stream(t)
	var w recorder
	start := time.Now()
	// The first chunk is due 50ms after the start.
	n, err := Send(context.Background(), &w, bytes.NewReader(data), float64(chunkSize)*20)
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if n != int64(len(data)) || !bytes.Equal(w.Bytes(), data) {
		t.Errorf("sent %d of %d bytes", n, len(data))
	}
	if want := (len(data) + chunkSize - 1) / chunkSize; w.writes != want {
		t.Errorf("got %d writes, want %d", w.writes, want)
	}
	if d := time.Since(start); d < 40*time.Millisecond {
		t.Errorf("finished in %s, want at least 50ms", d)
	}
}

func TestSendStopsOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	data := bytes.Repeat([]byte{0x47}, chunkSize*100)
	// One chunk per second would take far longer than the deadline.
	if _, err := Send(ctx, io.Discard, bytes.NewReader(data), chunkSize); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("got %v, want deadline exceeded", err)
	}
}

func TestDialPublisherRejectsListener(t *testing.T) {
	t.Parallel()

	if _, err := DialPublisher(context.Background(), Location{Address: ":6000", Listen: true}); err == nil {
		t.Error("expected error")
	}
}

type closeErrConn struct {
	io.ReadWriter
	err error
}

func (c closeErrConn) Close() error { return c.err }

func TestConnCloseReportsError(t *testing.T) {
	t.Parallel()

	errClose := errors.New("close failed")
	listenerClosed := false
	c := &srtConn{
		conn:          closeErrConn{ReadWriter: &bytes.Buffer{}, err: errClose},
		closeListener: func() { listenerClosed = true },
	}
	if err := c.Close(); !errors.Is(err, errClose) {
		t.Errorf("Close: got %v, want %v", err, errClose)
	}
	if !listenerClosed {
		t.Error("listener not closed after connection close error")
	}

	c = &srtConn{conn: closeErrConn{ReadWriter: &bytes.Buffer{}}}
	if err := c.Close(); err != nil {
		t.Errorf("Close: got %v, want nil", err)
	}
}
