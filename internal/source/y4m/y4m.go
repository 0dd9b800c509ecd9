// Package y4m reads and writes YUV4MPEG2 streams: a one-line text header
// followed by "FRAME" markers, each introducing one uncompressed planar
// frame. A y4m file is a single rawvideo stream.
package y4m

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/zsiec/reel/internal/media"
)

const (
	signature   = "YUV4MPEG2"
	frameMarker = "FRAME"
	// maxLineLen bounds header and frame-marker lines so a corrupt file
	// cannot make the reader buffer unbounded text.
	maxLineLen = 4096
)

// Header holds the stream parameters of a y4m file.
type Header struct {
	Width     int
	Height    int
	RateNum   int
	RateDen   int
	Format    media.PixelFormat
	Interlace byte
}

// chromaTags maps y4m C-tags to chroma layouts. "mono" is mapped separately.
var chromaTags = map[string]media.ChromaLayout{
	"420jpeg":  {HDiv: 2, VDiv: 2},
	"420paldv": {HDiv: 2, VDiv: 2},
	"420mpeg2": {HDiv: 2, VDiv: 2},
	"420":      {HDiv: 2, VDiv: 2},
	"422":      {HDiv: 2, VDiv: 1},
	"444":      {HDiv: 1, VDiv: 1},
	"411":      {HDiv: 4, VDiv: 1},
	"440":      {HDiv: 1, VDiv: 2},
	"410":      {HDiv: 4, VDiv: 2},
}

// ParseHeader parses the header line (without its trailing newline).
func ParseHeader(line []byte) (Header, error) {
	fields := strings.Fields(string(line))
	if len(fields) == 0 || fields[0] != signature {
		return Header{}, fmt.Errorf("y4m: missing %s signature", signature)
	}

	h := Header{RateNum: 25, RateDen: 1, Interlace: 'p'}
	chroma := "420jpeg"
	fullRange := false

	for _, f := range fields[1:] {
		tag, val := f[0], f[1:]
		switch tag {
		case 'W':
			n, err := strconv.Atoi(val)
			if err != nil {
				return Header{}, fmt.Errorf("y4m: bad width %q", val)
			}
			h.Width = n
		case 'H':
			n, err := strconv.Atoi(val)
			if err != nil {
				return Header{}, fmt.Errorf("y4m: bad height %q", val)
			}
			h.Height = n
		case 'F':
			num, den, ok := parseRatio(val)
			if !ok || den == 0 {
				return Header{}, fmt.Errorf("y4m: bad frame rate %q", val)
			}
			h.RateNum, h.RateDen = num, den
		case 'I':
			if len(val) > 0 {
				h.Interlace = val[0]
			}
		case 'C':
			chroma = val
		case 'X':
			if strings.EqualFold(val, "COLORRANGE=FULL") {
				fullRange = true
			}
		}
	}

	if h.Width <= 0 || h.Height <= 0 {
		return Header{}, fmt.Errorf("y4m: invalid frame size %dx%d", h.Width, h.Height)
	}
	if h.Width > media.MaxDimension || h.Height > media.MaxDimension {
		return Header{}, fmt.Errorf("y4m: frame size %dx%d exceeds %d", h.Width, h.Height, media.MaxDimension)
	}

	if chroma == "mono" {
		h.Format = media.PixelFormatGray8
		return h, nil
	}
	layout, ok := chromaTags[chroma]
	if !ok {
		return Header{}, fmt.Errorf("y4m: unsupported colorspace C%s", chroma)
	}
	format, ok := media.PlanarFormat(layout, fullRange)
	if !ok {
		// 4:1:0 has no full-range variant; keep the samples as they are.
		format, _ = media.PlanarFormat(layout, false)
	}
	h.Format = format
	return h, nil
}

// Marshal renders h as a header line including the trailing newline.
func (h Header) Marshal() []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "%s W%d H%d F%d:%d I%c A1:1", signature, h.Width, h.Height, h.RateNum, h.RateDen, h.Interlace)
	if h.Format == media.PixelFormatGray8 {
		b.WriteString(" Cmono")
	} else if c, ok := h.Format.Chroma(); ok {
		tag := c.Name()
		if tag == "420" {
			tag = "420jpeg"
		}
		b.WriteString(" C" + tag)
		if h.Format.FullRange() {
			b.WriteString(" XCOLORRANGE=FULL")
		}
	}
	b.WriteByte('\n')
	return b.Bytes()
}

func parseRatio(s string) (int, int, bool) {
	num, den, ok := strings.Cut(s, ":")
	if !ok {
		return 0, 0, false
	}
	n, err1 := strconv.Atoi(num)
	d, err2 := strconv.Atoi(den)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return n, d, true
}
