package mpegts

import "fmt"

const (
	tablePAT = 0x00
	tablePMT = 0x02
)

type program struct {
	number uint16
	pmtPID uint16
}

type elementary struct {
	pid        uint16
	streamType uint8
}

// section is one complete long-form PSI section, table_id through CRC.
type section []byte

func (s section) tableID() byte { return s[0] }

// splitSections walks the sections in a PSI payload, starting after the
// pointer field and stopping at stuffing. Sections with a bad CRC are
// reported as errors; the caller drops the whole payload.
func splitSections(payload []byte) ([]section, error) {
	if len(payload) < 1 {
		return nil, fmt.Errorf("mpegts: empty PSI payload")
	}
	off := 1 + int(payload[0])
	if off >= len(payload) {
		return nil, fmt.Errorf("mpegts: PSI pointer field %d out of range", payload[0])
	}
	var out []section
	for off+3 <= len(payload) {
		if payload[off] == 0xff || payload[off+1]&0x80 == 0 {
			break
		}
		end := off + 3 + (int(payload[off+1]&0x0f)<<8 | int(payload[off+2]))
		if end > len(payload) {
			break
		}
		s := section(payload[off:end])
		if len(s) < 12 {
			return out, fmt.Errorf("mpegts: section 0x%02x too short", s.tableID())
		}
		if crc32MPEG(s) != 0 {
			return out, fmt.Errorf("table 0x%02x: %w", s.tableID(), errCRC)
		}
		out = append(out, s)
		off = end
	}
	return out, nil
}

// sectionsComplete reports whether every section started in payload has
// all of its bytes.
func sectionsComplete(payload []byte) bool {
	if len(payload) < 1 {
		return false
	}
	off := 1 + int(payload[0])
	for off < len(payload) {
		if payload[off] == 0xff {
			return true
		}
		if off+3 > len(payload) {
			return false
		}
		if payload[off+1]&0x80 == 0 {
			return true
		}
		off += 3 + (int(payload[off+1]&0x0f)<<8 | int(payload[off+2]))
		if off > len(payload) {
			return false
		}
	}
	return off == len(payload)
}

// entries is the section body between the fixed 8-byte header and the CRC.
func (s section) entries() []byte {
	return s[8 : len(s)-4]
}

func parsePAT(s section) []program {
	var out []program
	b := s.entries()
	for i := 0; i+4 <= len(b); i += 4 {
		num := uint16(b[i])<<8 | uint16(b[i+1])
		if num == 0 {
			continue // network PID
		}
		out = append(out, program{number: num, pmtPID: uint16(b[i+2]&0x1f)<<8 | uint16(b[i+3])})
	}
	return out
}

func parsePMT(s section) ([]elementary, error) {
	b := s.entries()
	if len(b) < 4 {
		return nil, fmt.Errorf("mpegts: PMT body is %d bytes", len(b))
	}
	off := 4 + (int(b[2]&0x0f)<<8 | int(b[3]))
	var out []elementary
	for off+5 <= len(b) {
		out = append(out, elementary{
			streamType: b[off],
			pid:        uint16(b[off+1]&0x1f)<<8 | uint16(b[off+2]),
		})
		off += 5 + (int(b[off+3]&0x0f)<<8 | int(b[off+4]))
	}
	return out, nil
}
