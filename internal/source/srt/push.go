package srt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// chunkSize is one SRT payload: seven transport packets.
const chunkSize = 188 * 7

// DialPublisher connects to the remote listener at loc for sending.
func DialPublisher(ctx context.Context, loc Location) (io.WriteCloser, error) {
	if loc.Listen {
		return nil, errors.New("srt: cannot publish to a listener location")
	}
	conn, err := dialWithTimeout(ctx, dialSRT, loc)
	if err != nil {
		return nil, err
	}
	return conn.(io.WriteCloser), nil
}

// Send copies r to w in SRT-sized chunks until r is exhausted. With
// bytesPerSec > 0 the writes are paced against a single clock so that the
// stream arrives at that rate.
func Send(ctx context.Context, w io.Writer, r io.Reader, bytesPerSec float64) (int64, error) {
	buf := make([]byte, chunkSize)
	start := time.Now()
	var sent int64
	for {
		if err := ctx.Err(); err != nil {
			return sent, err
		}
		n, err := io.ReadFull(r, buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return sent, fmt.Errorf("srt: send: %w", werr)
			}
			sent += int64(n)
		}
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return sent, nil
		}
		if err != nil {
			return sent, err
		}

		if bytesPerSec <= 0 {
			continue
		}
		due := time.Duration(float64(sent) / bytesPerSec * float64(time.Second))
		if wait := due - time.Since(start); wait > 0 {
			t := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				t.Stop()
				return sent, ctx.Err()
			case <-t.C:
			}
		}
	}
}
