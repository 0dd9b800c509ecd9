// Package h264 inspects H.264 Annex B elementary streams without decoding
// them: it splits access units into NAL units, reads the sequence parameter
// set for picture size and profile, and detects embedded closed captions.
// reel has no H.264 decoder; probe uses this package to describe such streams.
package h264

import (
	"errors"
	"fmt"
)

// NAL unit types.
const (
	NALTypeSlice      = 1
	NALTypeIDR        = 5
	NALTypeSEI        = 6
	NALTypeSPS        = 7
	NALTypePPS        = 8
	NALTypeAUD        = 9
	NALTypeFillerData = 12
)

var errShort = errors.New("h264: parameter set too short")

// SPS holds the fields of a sequence parameter set that describe the picture.
type SPS struct {
	Width       int
	Height      int
	Profile     byte
	Constraints byte
	Level       byte
	ChromaIDC   uint
}

// Codec returns the RFC 6381 codec string, e.g. "avc1.64001F".
func (s SPS) Codec() string {
	return fmt.Sprintf("avc1.%02X%02X%02X", s.Profile, s.Constraints, s.Level)
}

// ProfileName returns the common name of the profile, or its number.
func (s SPS) ProfileName() string {
	switch s.Profile {
	case 66:
		return "baseline"
	case 77:
		return "main"
	case 88:
		return "extended"
	case 100:
		return "high"
	case 110:
		return "high10"
	case 122:
		return "high422"
	case 244:
		return "high444"
	}
	return fmt.Sprintf("profile %d", s.Profile)
}

// LevelName formats the level as major.minor, e.g. "3.1".
func (s SPS) LevelName() string {
	return fmt.Sprintf("%d.%d", s.Level/10, s.Level%10)
}

// NALUnit is one NAL unit with its header byte and without start code.
type NALUnit struct {
	Type byte
	Data []byte
}

// ParseAnnexB splits an Annex B byte stream into NAL units. Both 3-byte and
// 4-byte start codes are recognized; bytes before the first start code are
// ignored.
func ParseAnnexB(data []byte) []NALUnit {
	if len(data) < 4 {
		return nil
	}
	type span struct{ scStart, dataStart int }
	var starts []span
	n := len(data)
	for i := 0; i < n-2; {
		if data[i] == 0 && data[i+1] == 0 {
			if i < n-3 && data[i+2] == 0 && data[i+3] == 1 {
				starts = append(starts, span{i, i + 4})
				i += 4
				continue
			}
			if data[i+2] == 1 {
				starts = append(starts, span{i, i + 3})
				i += 3
				continue
			}
		}
		i++
	}

	var units []NALUnit
	for k, s := range starts {
		end := n
		if k+1 < len(starts) {
			end = starts[k+1].scStart
		}
		// Trailing zero bytes belong to the next start code.
		for end > s.dataStart && data[end-1] == 0 {
			end--
		}
		if end <= s.dataStart {
			continue
		}
		nal := data[s.dataStart:end]
		units = append(units, NALUnit{Type: nal[0] & 0x1f, Data: nal})
	}
	return units
}

// IsKeyframe reports whether the NAL type is an IDR slice.
func IsKeyframe(nalType byte) bool {
	return nalType == NALTypeIDR
}

// ParseSPS parses an SPS NAL unit (header byte included, no start code).
// Width and Height are the cropped display size.
func ParseSPS(nal []byte) (SPS, error) {
	if len(nal) < 4 {
		return SPS{}, errShort
	}
	if t := nal[0] & 0x1f; t != NALTypeSPS {
		return SPS{}, fmt.Errorf("h264: NAL type %d is not an SPS", t)
	}
	br := &bitReader{data: unescape(nal[1:])}

	profile := br.bits(8)
	constraints := br.bits(8)
	level := br.bits(8)
	br.ue() // seq_parameter_set_id

	chroma := uint(1)
	separatePlanes := false
	if hasChromaInfo(profile) {
		chroma = br.ue()
		if chroma == 3 {
			separatePlanes = br.bits(1) == 1
		}
		br.ue()    // bit_depth_luma_minus8
		br.ue()    // bit_depth_chroma_minus8
		br.bits(1) // qpprime_y_zero_transform_bypass_flag
		if br.bits(1) == 1 {
			lists := 8
			if chroma == 3 {
				lists = 12
			}
			for i := 0; i < lists; i++ {
				if br.bits(1) == 0 {
					continue
				}
				size := 16
				if i >= 6 {
					size = 64
				}
				br.skipScalingList(size)
			}
		}
	}

	br.ue() // log2_max_frame_num_minus4
	switch br.ue() {
	case 0:
		br.ue()
	case 1:
		br.bits(1)
		br.se()
		br.se()
		for i, n := uint(0), br.ue(); i < n && br.err == nil; i++ {
			br.se()
		}
	}
	br.ue()    // max_num_ref_frames
	br.bits(1) // gaps_in_frame_num_value_allowed_flag

	widthMbs := br.ue() + 1
	heightUnits := br.ue() + 1
	frameMbsOnly := br.bits(1)
	if frameMbsOnly == 0 {
		br.bits(1) // mb_adaptive_frame_field_flag
	}
	br.bits(1) // direct_8x8_inference_flag

	var cropL, cropR, cropT, cropB uint
	if br.bits(1) == 1 {
		cropL, cropR, cropT, cropB = br.ue(), br.ue(), br.ue(), br.ue()
	}
	if br.err != nil {
		return SPS{}, br.err
	}

	arrayType := chroma
	if separatePlanes {
		arrayType = 0
	}
	subW, subH := uint(2), uint(2)
	switch arrayType {
	case 0, 3:
		subW, subH = 1, 1
	case 2:
		subW, subH = 2, 1
	}
	cropX := subW
	cropY := subH * (2 - frameMbsOnly)

	width := int(widthMbs*16) - int(cropX*(cropL+cropR))
	height := int(heightUnits*16*(2-frameMbsOnly)) - int(cropY*(cropT+cropB))
	if width <= 0 || height <= 0 {
		return SPS{}, fmt.Errorf("h264: cropping leaves %dx%d picture", width, height)
	}
	return SPS{
		Width:       width,
		Height:      height,
		Profile:     byte(profile),
		Constraints: byte(constraints),
		Level:       byte(level),
		ChromaIDC:   chroma,
	}, nil
}

func hasChromaInfo(profile uint) bool {
	switch profile {
	case 100, 110, 122, 244, 44, 83, 86, 118, 128, 138, 139, 134:
		return true
	}
	return false
}

// unescape removes emulation prevention bytes (00 00 03 -> 00 00).
func unescape(data []byte) []byte {
	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		if i+2 < len(data) && data[i] == 0 && data[i+1] == 0 && data[i+2] == 3 &&
			(i+3 >= len(data) || data[i+3] <= 3) {
			out = append(out, 0, 0)
			i += 2
			continue
		}
		out = append(out, data[i])
	}
	return out
}

// bitReader reads big-endian bit fields. The first read past the end sets
// err; later reads return zero.
type bitReader struct {
	data []byte
	pos  int
	bit  int
	err  error
}

func (br *bitReader) bits(n int) uint {
	var v uint
	for i := 0; i < n; i++ {
		if br.err != nil {
			return 0
		}
		if br.pos >= len(br.data) {
			br.err = errShort
			return 0
		}
		v = v<<1 | uint(br.data[br.pos]>>(7-br.bit)&1)
		br.bit++
		if br.bit == 8 {
			br.bit = 0
			br.pos++
		}
	}
	return v
}

func (br *bitReader) ue() uint {
	zeros := 0
	for br.bits(1) == 0 {
		if br.err != nil {
			return 0
		}
		zeros++
		if zeros > 31 {
			br.err = errShort
			return 0
		}
	}
	if zeros == 0 {
		return 0
	}
	return 1<<zeros - 1 + br.bits(zeros)
}

func (br *bitReader) se() int {
	v := br.ue()
	if v%2 == 0 {
		return -int(v / 2)
	}
	return int((v + 1) / 2)
}

func (br *bitReader) skipScalingList(size int) {
	last, next := 8, 8
	for j := 0; j < size && br.err == nil; j++ {
		if next != 0 {
			next = (last + br.se() + 256) % 256
		}
		if next != 0 {
			last = next
		}
	}
}
