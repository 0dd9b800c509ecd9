package h264

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/zsiec/ccx"
)

// Summary describes the access units a Scanner has seen.
type Summary struct {
	SPS         *SPS
	AccessUnits int
	Keyframes   int
	// CaptionChannels lists the CEA-608 channels (1-4) carrying data.
	CaptionChannels []int
	// DTVCC reports CEA-708 service data.
	DTVCC bool
	// Captions holds the first decoded CEA-608 text per channel.
	Captions map[int]string
}

func (s Summary) String() string {
	var parts []string
	if s.SPS != nil {
		parts = append(parts, fmt.Sprintf("%dx%d %s %s %s",
			s.SPS.Width, s.SPS.Height, s.SPS.ProfileName(), s.SPS.LevelName(), s.SPS.Codec()))
	} else {
		parts = append(parts, "no SPS")
	}
	parts = append(parts, fmt.Sprintf("%d frames", s.AccessUnits), fmt.Sprintf("%d keyframes", s.Keyframes))
	var cc []string
	for _, ch := range s.CaptionChannels {
		cc = append(cc, fmt.Sprintf("CC%d", ch))
	}
	if s.DTVCC {
		cc = append(cc, "708")
	}
	if len(cc) > 0 {
		parts = append(parts, "captions "+strings.Join(cc, " "))
	}
	return strings.Join(parts, ", ")
}

// Scanner accumulates a Summary over consecutive access units of one stream.
// It is not safe for concurrent use.
type Scanner struct {
	sum      Summary
	channels map[int]bool
	decoders map[int]*ccx.CEA608Decoder
}

func NewScanner() *Scanner {
	return &Scanner{
		channels: make(map[int]bool),
		decoders: make(map[int]*ccx.CEA608Decoder),
		sum:      Summary{Captions: make(map[int]string)},
	}
}

// Add inspects one Annex B access unit.
func (s *Scanner) Add(au []byte) {
	nalus := ParseAnnexB(au)
	if len(nalus) == 0 {
		return
	}
	s.sum.AccessUnits++
	key := false
	for _, n := range nalus {
		switch n.Type {
		case NALTypeIDR:
			key = true
		case NALTypeSPS:
			if sps, err := ParseSPS(n.Data); err == nil {
				s.sum.SPS = &sps
			}
		case NALTypeSEI:
			s.captions(n.Data)
		}
	}
	if key {
		s.sum.Keyframes++
	}
}

func (s *Scanner) captions(sei []byte) {
	cd := ccx.ExtractCaptions(sei)
	if cd == nil {
		return
	}
	for _, pair := range cd.CC608Pairs {
		s.channels[pair.Channel] = true
		if _, done := s.sum.Captions[pair.Channel]; done {
			continue
		}
		dec := s.decoders[pair.Channel]
		if dec == nil {
			dec = ccx.NewCEA608Decoder()
			s.decoders[pair.Channel] = dec
		}
		if text := dec.Decode(pair.Data[0], pair.Data[1]); text != "" {
			s.sum.Captions[pair.Channel] = text
		}
	}
	if len(cd.DTVCC) > 0 {
		s.sum.DTVCC = true
	}
}

// Summary returns what has been seen so far.
func (s *Scanner) Summary() Summary {
	sum := s.sum
	sum.Captions = maps.Clone(s.sum.Captions)
	sum.CaptionChannels = nil
	for ch := range s.channels {
		sum.CaptionChannels = append(sum.CaptionChannels, ch)
	}
	slices.Sort(sum.CaptionChannels)
	return sum
}
