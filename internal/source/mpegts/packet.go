package mpegts

import (
	"errors"
	"fmt"
)

const (
	packetSize = 188
	syncByte   = 0x47
	pidPAT     = 0x0000
	pidNull    = 0x1FFF
)

var errCRC = errors.New("mpegts: section CRC32 mismatch")

type header struct {
	pid           uint16
	cc            uint8
	unitStart     bool
	hasPayload    bool
	transportErr  bool
	discontinuity bool
}

// tsPacket is one 188-byte transport packet with its payload copied out of
// the read buffer.
type tsPacket struct {
	header
	payload []byte
}

func parsePacket(buf []byte) (tsPacket, error) {
	var p tsPacket
	if len(buf) != packetSize {
		return p, fmt.Errorf("mpegts: packet is %d bytes, want %d", len(buf), packetSize)
	}
	if buf[0] != syncByte {
		return p, fmt.Errorf("mpegts: bad sync byte 0x%02x", buf[0])
	}
	p.transportErr = buf[1]&0x80 != 0
	p.unitStart = buf[1]&0x40 != 0
	p.pid = uint16(buf[1]&0x1f)<<8 | uint16(buf[2])
	hasAdaptation := buf[3]&0x20 != 0
	p.hasPayload = buf[3]&0x10 != 0
	p.cc = buf[3] & 0x0f

	off := 4
	if hasAdaptation {
		n := int(buf[off])
		if n > 0 {
			p.discontinuity = buf[off+1]&0x80 != 0
		}
		off = min(off+1+n, packetSize)
	}
	if p.hasPayload && off < packetSize {
		p.payload = append([]byte(nil), buf[off:]...)
	}
	return p, nil
}

// MPEG-2 CRC32, polynomial 0x04C11DB7, no reflection.
var crcTable = func() (t [256]uint32) {
	for i := range t {
		c := uint32(i) << 24
		for j := 0; j < 8; j++ {
			if c&0x80000000 != 0 {
				c = c<<1 ^ 0x04c11db7
			} else {
				c <<= 1
			}
		}
		t[i] = c
	}
	return t
}()

func crc32MPEG(b []byte) uint32 {
	c := uint32(0xffffffff)
	for _, v := range b {
		c = c<<8 ^ crcTable[byte(c>>24)^v]
	}
	return c
}
