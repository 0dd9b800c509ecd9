package mpegts

import (
	"fmt"
	"io"

	"github.com/zsiec/reel/internal/media"
)

// PMTPID is the PID the Muxer carries its program map on.
const PMTPID = 0x1000

// MuxStream is one elementary stream written by a Muxer.
type MuxStream struct {
	PID        uint16
	StreamType uint8
}

// Muxer writes a single-program transport stream. It is the inverse of
// Source and is used to produce test streams.
type Muxer struct {
	w       io.Writer
	streams []MuxStream
	cc      map[uint16]uint8
	pkt     [packetSize]byte
}

// NewMuxer creates a muxer for streams. Nothing is written until
// WriteTables or WritePES.
func NewMuxer(w io.Writer, streams ...MuxStream) *Muxer {
	return &Muxer{w: w, streams: streams, cc: make(map[uint16]uint8)}
}

// WriteTables writes a PAT and a PMT.
func (m *Muxer) WriteTables() error {
	pat := []byte{0x00, 0x01, 0xe0 | PMTPID>>8, PMTPID & 0xff}
	if err := m.writeSection(pidPAT, tablePAT, 1, pat); err != nil {
		return err
	}
	var pmt []byte
	pcr := uint16(pidNull)
	if len(m.streams) > 0 {
		pcr = m.streams[0].PID
	}
	pmt = append(pmt, 0xe0|byte(pcr>>8), byte(pcr), 0xf0, 0x00)
	for _, s := range m.streams {
		pmt = append(pmt, s.StreamType, 0xe0|byte(s.PID>>8), byte(s.PID), 0xf0, 0x00)
	}
	return m.writeSection(PMTPID, tablePMT, 1, pmt)
}

func (m *Muxer) writeSection(pid uint16, table byte, idExt uint16, body []byte) error {
	n := 5 + len(body) + 4
	s := []byte{table, 0xb0 | byte(n>>8)&0x0f, byte(n), byte(idExt >> 8), byte(idExt), 0xc1, 0x00, 0x00}
	s = append(s, body...)
	crc := crc32MPEG(s)
	s = append(s, byte(crc>>24), byte(crc>>16), byte(crc>>8), byte(crc))
	return m.writePayload(pid, append([]byte{0x00}, s...))
}

// WritePES writes data as one PES packet on pid. A negative pts omits the
// timestamp.
func (m *Muxer) WritePES(pid uint16, pts int64, data []byte) error {
	id := byte(0xbd)
	for _, s := range m.streams {
		if s.PID != pid {
			continue
		}
		switch streamTypes[s.StreamType].kind {
		case media.MediaTypeVideo:
			id = 0xe0
		case media.MediaTypeAudio:
			id = 0xc0
		}
	}

	hdr := []byte{0x00, 0x00, 0x01, id, 0, 0, 0x80, 0x00, 0x00}
	if pts >= 0 {
		hdr[7] = 0x80
		hdr[8] = 5
		hdr = append(hdr,
			0x21|byte(pts>>29)&0x0e,
			byte(pts>>22),
			0x01|byte(pts>>14)&0xfe,
			byte(pts>>7),
			0x01|byte(pts<<1)&0xfe,
		)
	}
	if n := len(hdr) - 6 + len(data); id != 0xe0 {
		if n > 0xffff {
			return fmt.Errorf("mpegts: PES payload of %d bytes needs a video stream id", len(data))
		}
		hdr[4], hdr[5] = byte(n>>8), byte(n)
	}
	return m.writePayload(pid, append(hdr, data...))
}

// writePayload splits b over as many packets as needed, padding the last
// one with adaptation field stuffing.
func (m *Muxer) writePayload(pid uint16, b []byte) error {
	start := true
	for len(b) > 0 {
		p := m.pkt[:]
		p[0] = syncByte
		p[1] = byte(pid>>8) & 0x1f
		if start {
			p[1] |= 0x40
		}
		p[2] = byte(pid)
		cc := m.cc[pid]
		m.cc[pid] = (cc + 1) & 0x0f

		n := min(len(b), packetSize-4)
		if n == packetSize-4 {
			p[3] = 0x10 | cc
			copy(p[4:], b[:n])
		} else {
			p[3] = 0x30 | cc
			af := packetSize - 5 - n
			p[4] = byte(af)
			if af > 0 {
				p[5] = 0x00
				for i := 6; i < 5+af; i++ {
					p[i] = 0xff
				}
			}
			copy(p[5+af:], b[:n])
		}
		if _, err := m.w.Write(p); err != nil {
			return err
		}
		b = b[n:]
		start = false
	}
	return nil
}
