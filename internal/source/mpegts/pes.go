package mpegts

import "fmt"

// NoPTS marks a packet whose PES header carried no presentation timestamp.
const NoPTS int64 = -1

type pes struct {
	streamID uint8
	pts      int64
	dts      int64
	data     []byte
}

func isPES(b []byte) bool {
	return len(b) >= 3 && b[0] == 0 && b[1] == 0 && b[2] == 1
}

// hasOptionalHeader is false for the stream ids that carry their data
// directly after the packet length.
func hasOptionalHeader(id uint8) bool {
	switch id {
	case 0xbc, 0xbe, 0xbf, 0xf0, 0xf1, 0xf2, 0xf8, 0xff:
		return false
	}
	return true
}

func parsePES(b []byte) (pes, error) {
	p := pes{pts: NoPTS, dts: NoPTS}
	if len(b) < 6 || !isPES(b) {
		return p, fmt.Errorf("mpegts: not a PES packet (%d bytes)", len(b))
	}
	p.streamID = b[3]
	end := len(b)
	if n := int(b[4])<<8 | int(b[5]); n > 0 && 6+n < end {
		end = 6 + n
	}

	if !hasOptionalHeader(p.streamID) {
		p.data = b[6:end]
		return p, nil
	}
	if len(b) < 9 {
		return p, fmt.Errorf("mpegts: PES header truncated")
	}
	flags := b[7] >> 6
	start := min(9+int(b[8]), end)
	if flags&0x2 != 0 && len(b) >= 14 {
		p.pts = timestamp(b[9:14])
		p.dts = p.pts
	}
	if flags == 0x3 && len(b) >= 19 {
		p.dts = timestamp(b[14:19])
	}
	p.data = b[start:end]
	return p, nil
}

// timestamp decodes a 33-bit 90 kHz PTS or DTS field.
func timestamp(b []byte) int64 {
	return int64(b[0]>>1&0x07)<<30 |
		int64(b[1])<<22 |
		int64(b[2]>>1)<<15 |
		int64(b[3])<<7 |
		int64(b[4]>>1)
}
