package convert

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"

	"github.com/zsiec/reel/internal/media"
)

var subsampleRatios = map[media.ChromaLayout]image.YCbCrSubsampleRatio{
	{HDiv: 1, VDiv: 1}: image.YCbCrSubsampleRatio444,
	{HDiv: 2, VDiv: 1}: image.YCbCrSubsampleRatio422,
	{HDiv: 2, VDiv: 2}: image.YCbCrSubsampleRatio420,
	{HDiv: 1, VDiv: 2}: image.YCbCrSubsampleRatio440,
	{HDiv: 4, VDiv: 1}: image.YCbCrSubsampleRatio411,
	{HDiv: 4, VDiv: 2}: image.YCbCrSubsampleRatio410,
}

// CPU converts planar YUV frames to packed RGBA on the calling goroutine. The
// output keeps the input's dimensions; only the pixel layout changes. The
// zero value is ready to use.
type CPU struct{}

// Convert returns src unchanged when it is already RGBA, and a newly
// allocated RGBA frame otherwise.
func (CPU) Convert(src *media.Frame) (*media.Frame, error) {
	kind, err := Classify(src.Format)
	if err != nil {
		return nil, err
	}
	if kind == Presentable {
		return src, nil
	}
	if err := src.Validate(); err != nil {
		return nil, fmt.Errorf("convert: %w", err)
	}

	ycc := toYCbCr(src)
	dst := image.NewRGBA(image.Rect(0, 0, src.Width, src.Height))
	draw.Copy(dst, image.Point{}, ycc, ycc.Bounds(), draw.Src, nil)

	return &media.Frame{
		Format: media.PixelFormatRGBA,
		Width:  src.Width,
		Height: src.Height,
		Planes: []media.Plane{{Stride: dst.Stride, Data: dst.Pix}},
		PTS:    src.PTS,
	}, nil
}

// toYCbCr wraps a planar frame as an image.YCbCr. Full-range frames whose
// chroma planes share a stride are wrapped without copying; anything else is
// copied, expanding studio-range samples on the way.
func toYCbCr(f *media.Frame) *image.YCbCr {
	chroma, _ := f.Format.Chroma()
	ratio := subsampleRatios[chroma]
	rect := image.Rect(0, 0, f.Width, f.Height)

	if f.Format.FullRange() && f.Planes[1].Stride == f.Planes[2].Stride {
		return &image.YCbCr{
			Y:              f.Planes[0].Data,
			Cb:             f.Planes[1].Data,
			Cr:             f.Planes[2].Data,
			YStride:        f.Planes[0].Stride,
			CStride:        f.Planes[1].Stride,
			SubsampleRatio: ratio,
			Rect:           rect,
		}
	}

	lumaLUT, chromaLUT := &identity, &identity
	if !f.Format.FullRange() {
		lumaLUT, chromaLUT = &lumaToFull, &chromaToFull
	}

	img := image.NewYCbCr(rect, ratio)
	copyPlane(img.Y, img.YStride, f.Planes[0], f.Width, f.Height, lumaLUT)
	cw, ch := f.PlaneSize(1)
	copyPlane(img.Cb, img.CStride, f.Planes[1], cw, ch, chromaLUT)
	copyPlane(img.Cr, img.CStride, f.Planes[2], cw, ch, chromaLUT)
	return img
}

func copyPlane(dst []byte, dstStride int, src media.Plane, width, height int, lut *[256]uint8) {
	for y := 0; y < height; y++ {
		d := dst[y*dstStride : y*dstStride+width]
		s := src.Data[y*src.Stride : y*src.Stride+width]
		for x, v := range s {
			d[x] = lut[v]
		}
	}
}
