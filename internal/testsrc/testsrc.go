// Package testsrc generates synthetic raw video for exercising the player
// without real media.
package testsrc

import (
	"fmt"
	"image/color"
	"io"
	"strings"

	"github.com/zsiec/reel/internal/convert"
	"github.com/zsiec/reel/internal/media"
	"github.com/zsiec/reel/internal/source/y4m"
)

// Pattern selects what the frames show.
type Pattern int

const (
	// PatternBars is eight vertical color bars scrolling left one step per
	// frame.
	PatternBars Pattern = iota
	// PatternSolid fills every frame with one color.
	PatternSolid
)

func (p Pattern) String() string {
	switch p {
	case PatternBars:
		return "bars"
	case PatternSolid:
		return "solid"
	}
	return fmt.Sprintf("pattern(%d)", int(p))
}

// ParsePattern parses "bars" or "solid".
func ParsePattern(s string) (Pattern, error) {
	switch strings.ToLower(s) {
	case "bars":
		return PatternBars, nil
	case "solid":
		return PatternSolid, nil
	}
	return 0, fmt.Errorf("testsrc: unknown pattern %q", s)
}

// Bars are the colors of PatternBars, left to right.
var Bars = []color.RGBA{
	{255, 255, 255, 255},
	{255, 255, 0, 255},
	{0, 255, 255, 255},
	{0, 255, 0, 255},
	{255, 0, 255, 255},
	{255, 0, 0, 255},
	{0, 0, 255, 255},
	{0, 0, 0, 255},
}

// Options describes a clip.
type Options struct {
	Width, Height int
	Frames        int
	Format        media.PixelFormat
	Pattern       Pattern
	// Color is the PatternSolid fill.
	Color            color.RGBA
	RateNum, RateDen int
}

// Frame renders frame n of the clip.
func (o Options) Frame(n int) (*media.Frame, error) {
	if o.Pattern == PatternSolid {
		f, err := convert.SolidFrame(o.Format, o.Width, o.Height, o.Color)
		if err != nil {
			return nil, err
		}
		f.PTS = int64(n)
		return f, nil
	}

	if !o.Format.Planar() && o.Format != media.PixelFormatGray8 {
		return nil, &media.UnsupportedPixelFormatError{Format: o.Format}
	}
	f, err := media.NewFrame(o.Format, o.Width, o.Height)
	if err != nil {
		return nil, err
	}
	f.PTS = int64(n)

	barWidth := max(o.Width/len(Bars), 1)
	shift := n * max(barWidth/8, 1)
	barAt := func(x int) color.RGBA {
		return Bars[((x+shift)/barWidth)%len(Bars)]
	}

	full := o.Format.FullRange()
	hdiv := 1
	if c, ok := o.Format.Chroma(); ok {
		hdiv = c.HDiv
	}
	for i := range f.Planes {
		pw, ph := f.PlaneSize(i)
		p := f.Planes[i]
		row := make([]byte, pw)
		for x := range row {
			sx := x
			if i > 0 {
				sx = x * hdiv
			}
			y, cb, cr := convert.RGBToYUV(barAt(sx), full)
			switch i {
			case 0:
				row[x] = y
			case 1:
				row[x] = cb
			default:
				row[x] = cr
			}
		}
		for r := 0; r < ph; r++ {
			copy(p.Data[r*p.Stride:], row)
		}
	}
	return f, nil
}

// Write encodes the clip as YUV4MPEG2.
func Write(w io.Writer, o Options) error {
	if o.Frames < 1 {
		return fmt.Errorf("testsrc: frame count must be positive, got %d", o.Frames)
	}
	yw, err := y4m.NewWriter(w, y4m.Header{
		Width:   o.Width,
		Height:  o.Height,
		Format:  o.Format,
		RateNum: o.RateNum,
		RateDen: o.RateDen,
	})
	if err != nil {
		return err
	}
	for n := 0; n < o.Frames; n++ {
		f, err := o.Frame(n)
		if err != nil {
			return err
		}
		if err := yw.WriteFrame(f); err != nil {
			return fmt.Errorf("testsrc: frame %d: %w", n, err)
		}
	}
	return nil
}
