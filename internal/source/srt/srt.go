// Package srt receives an MPEG transport stream over SRT and exposes it as a
// source. Locations have the form srt://host:port?streamid=live/key, which
// dials a remote listener, or srt://:port?mode=listener, which waits for one
// publisher to connect.
package srt

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"time"

	srtgo "github.com/zsiec/srtgo"

	"github.com/zsiec/reel/internal/source"
	"github.com/zsiec/reel/internal/source/mpegts"
)

const (
	// readBufferSize holds ten standard SRT payloads of seven TS packets.
	readBufferSize = 1316 * 10

	// latencyNs is the SRT receive latency (120ms).
	latencyNs = 120_000_000

	dialTimeout = 10 * time.Second
)

// Location is a parsed srt:// URL.
type Location struct {
	Address  string
	StreamID string
	// Listen is set for mode=listener.
	Listen bool
}

// ParseLocation parses an srt:// URL.
func ParseLocation(raw string) (Location, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Location{}, err
	}
	if u.Scheme != "srt" {
		return Location{}, fmt.Errorf("srt: unsupported scheme %q", u.Scheme)
	}
	q := u.Query()
	loc := Location{Address: u.Host, StreamID: q.Get("streamid")}
	switch q.Get("mode") {
	case "", "caller":
	case "listener":
		loc.Listen = true
	default:
		return Location{}, fmt.Errorf("srt: unsupported mode %q", q.Get("mode"))
	}
	if u.Port() == "" || (!loc.Listen && u.Hostname() == "") {
		return Location{}, fmt.Errorf("srt: %q needs host:port", raw)
	}
	return loc, nil
}

// DialFunc connects to loc and returns the byte stream.
type DialFunc func(loc Location) (io.ReadCloser, error)

// AcceptFunc listens on loc and returns the first accepted publisher. It
// must give up when ctx is done.
type AcceptFunc func(ctx context.Context, loc Location) (io.ReadCloser, error)

// Opener opens srt:// locations.
type Opener struct {
	Log *slog.Logger
	// Dial defaults to an srtgo caller connection.
	Dial DialFunc
	// Accept defaults to an srtgo listener.
	Accept AcceptFunc
}

// Name implements source.Opener.
func (Opener) Name() string { return "srt" }

// Probe implements source.Opener.
func (Opener) Probe(path string, _ []byte) bool {
	return strings.HasPrefix(strings.ToLower(path), "srt://")
}

// Open connects and reads until the first program map. A dial is
// abandoned after ten seconds or when ctx is done; a listener waits until a
// publisher connects or ctx is done.
func (o Opener) Open(ctx context.Context, path string) (source.Source, error) {
	log := o.Log
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "srt")

	loc, err := ParseLocation(path)
	if err != nil {
		return nil, err
	}
	var conn io.ReadCloser
	if loc.Listen {
		accept := o.Accept
		if accept == nil {
			accept = func(ctx context.Context, loc Location) (io.ReadCloser, error) {
				return acceptSRT(ctx, loc, log)
			}
		}
		log.Info("waiting for publisher", "address", loc.Address, "stream_id", loc.StreamID)
		conn, err = accept(ctx, loc)
	} else {
		dial := o.Dial
		if dial == nil {
			dial = dialSRT
		}
		log.Info("dialing", "address", loc.Address, "stream_id", loc.StreamID)
		conn, err = dialWithTimeout(ctx, dial, loc)
	}
	if err != nil {
		return nil, err
	}
	log.Info("connected", "address", loc.Address)

	src, err := mpegts.NewSource(ctx, bufferedConn(conn), log)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return &Source{Source: src, loc: loc}, nil
}

// Source is a transport stream source over SRT.
type Source struct {
	*mpegts.Source
	loc Location
}

// FormatName is the container name reported by Source.Format.
const FormatName = "mpegts over srt"

// Format implements source.Source.
func (s *Source) Format() string { return FormatName }

// Location returns the dialed location.
func (s *Source) Location() Location { return s.loc }

func dialWithTimeout(ctx context.Context, dial DialFunc, loc Location) (io.ReadCloser, error) {
	type result struct {
		conn io.ReadCloser
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		conn, err := dial(loc)
		ch <- result{conn, err}
	}()

	timer := time.NewTimer(dialTimeout)
	defer timer.Stop()

	abandon := func() {
		go func() {
			if res := <-ch; res.conn != nil {
				res.conn.Close()
			}
		}()
	}
	select {
	case res := <-ch:
		if res.err != nil {
			return nil, fmt.Errorf("srt: dial %s: %w", loc.Address, res.err)
		}
		return res.conn, nil
	case <-timer.C:
		abandon()
		return nil, fmt.Errorf("srt: dial %s timed out after %s", loc.Address, dialTimeout)
	case <-ctx.Done():
		abandon()
		return nil, ctx.Err()
	}
}

func dialSRT(loc Location) (io.ReadCloser, error) {
	cfg := srtgo.DefaultConfig()
	cfg.Latency = latencyNs
	if loc.StreamID != "" {
		cfg.StreamID = loc.StreamID
	}
	conn, err := srtgo.Dial(loc.Address, cfg)
	if err != nil {
		return nil, err
	}
	return &srtConn{conn: conn}, nil
}

// acceptSRT listens on loc.Address and returns the first publisher whose
// stream id matches loc.StreamID, or any publisher with a stream id when
// loc.StreamID is empty. The listener stays open until the connection is
// closed.
func acceptSRT(ctx context.Context, loc Location, log *slog.Logger) (io.ReadCloser, error) {
	cfg := srtgo.DefaultConfig()
	cfg.Latency = latencyNs

	l, err := srtgo.Listen(loc.Address, cfg)
	if err != nil {
		return nil, fmt.Errorf("srt: listen on %s: %w", loc.Address, err)
	}
	l.SetAcceptRejectFunc(func(req srtgo.ConnRequest) srtgo.RejectReason {
		if !streamIDMatches(loc.StreamID, req.StreamID) {
			log.Debug("publisher rejected", "stream_id", req.StreamID)
			return srtgo.RejPeer
		}
		return 0
	})

	stop := context.AfterFunc(ctx, func() { l.Close() })
	conn, err := l.Accept()
	stop()
	if err != nil {
		l.Close()
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("srt: accept on %s: %w", loc.Address, err)
	}
	if ctx.Err() != nil {
		conn.Close()
		l.Close()
		return nil, ctx.Err()
	}
	log.Info("publisher connected", "remote", conn.RemoteAddr(), "stream_id", conn.StreamID())
	return &srtConn{conn: conn, closeListener: func() { l.Close() }}, nil
}

// streamIDMatches compares stream ids ignoring a leading slash. An empty
// want accepts any non-empty id.
func streamIDMatches(want, got string) bool {
	got = strings.TrimPrefix(got, "/")
	if want == "" {
		return got != ""
	}
	return got == strings.TrimPrefix(want, "/")
}

// srtConn is one SRT connection, plus the listener that accepted it when
// the source runs in listener mode.
type srtConn struct {
	conn          io.ReadWriteCloser
	closeListener func()
}

func (c *srtConn) Read(p []byte) (int, error)  { return c.conn.Read(p) }
func (c *srtConn) Write(p []byte) (int, error) { return c.conn.Write(p) }

func (c *srtConn) Close() error {
	err := c.conn.Close()
	if c.closeListener != nil {
		c.closeListener()
	}
	return err
}

// bufferedConn reads whole SRT messages into a buffer so that the demuxer's
// fixed-size reads never split a message read.
func bufferedConn(rc io.ReadCloser) io.ReadCloser {
	return &buffered{rc: rc, buf: make([]byte, 0, readBufferSize)}
}

type buffered struct {
	rc  io.ReadCloser
	buf []byte
	off int
}

func (b *buffered) Read(p []byte) (int, error) {
	if b.off == len(b.buf) {
		n, err := b.rc.Read(b.buf[:cap(b.buf)])
		b.buf, b.off = b.buf[:n], 0
		if n == 0 {
			if err == nil {
				err = io.ErrNoProgress
			}
			return 0, err
		}
	}
	n := copy(p, b.buf[b.off:])
	b.off += n
	return n, nil
}

func (b *buffered) Close() error { return b.rc.Close() }
