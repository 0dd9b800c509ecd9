package present

// Size is a width and height in pixels.
type Size struct {
	Width  int
	Height int
}

// Rect is a viewport rectangle in surface pixels.
type Rect struct {
	X, Y          float32
	Width, Height float32
}

// Viewport fits src inside dst without changing its aspect ratio and centers
// it. A wider source is letterboxed (full width, bars top and bottom), a
// taller one is pillarboxed (full height, bars left and right), and an equal
// aspect fills dst exactly. Degenerate sizes yield the full destination.
func Viewport(src, dst Size) Rect {
	full := Rect{Width: float32(dst.Width), Height: float32(dst.Height)}
	if src.Width <= 0 || src.Height <= 0 || dst.Width <= 0 || dst.Height <= 0 {
		return full
	}

	// Compare sw/sh with dw/dh exactly by cross-multiplying.
	lhs, rhs := src.Width*dst.Height, dst.Width*src.Height
	srcAspect := float32(src.Width) / float32(src.Height)
	switch {
	case lhs > rhs:
		h := float32(dst.Width) / srcAspect
		return Rect{Y: (float32(dst.Height) - h) / 2, Width: float32(dst.Width), Height: h}
	case lhs < rhs:
		w := float32(dst.Height) * srcAspect
		return Rect{X: (float32(dst.Width) - w) / 2, Width: w, Height: float32(dst.Height)}
	}
	return full
}
