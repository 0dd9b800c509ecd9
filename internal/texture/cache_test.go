package texture

import (
	"testing"

	"github.com/zsiec/reel/internal/gpu"
	"github.com/zsiec/reel/internal/gpu/soft"
)

func newCache(t *testing.T) (*Cache, *soft.Device) {
	t.Helper()
	ctx, err := gpu.NewContext(soft.Instance{}, soft.NewSurface(), nil)
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}
	return NewCache(ctx, gpu.TextureUsageTextureBinding|gpu.TextureUsageCopyDst, nil), ctx.Device.(*soft.Device)
}

func TestEnsureReturnsSameTexture(t *testing.T) {
	t.Parallel()

	c, dev := newCache(t)
	a, err := c.Ensure(64, 48)
	if err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	b, err := c.Ensure(64, 48)
	if err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	if a != b {
		t.Error("second Ensure with equal size allocated a new texture")
	}
	if got := dev.Stats().TexturesCreated; got != 1 {
		t.Errorf("textures created: got %d, want 1", got)
	}
	if a.Width() != 64 || a.Height() != 48 {
		t.Errorf("size: got %dx%d, want 64x48", a.Width(), a.Height())
	}
	if !a.Usage().Has(gpu.TextureUsageCopyDst) {
		t.Errorf("usage %b lacks copy-dst", a.Usage())
	}
}

func TestEnsureReleasesOnResize(t *testing.T) {
	t.Parallel()

	c, dev := newCache(t)
	a, _ := c.Ensure(64, 48)
	b, err := c.Ensure(32, 48)
	if err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	if a == b {
		t.Fatal("resize returned the old texture")
	}
	if !a.(*soft.Texture).Destroyed() {
		t.Error("old texture not destroyed")
	}
	if b.Width() != 32 || b.Height() != 48 {
		t.Errorf("size: got %dx%d, want 32x48", b.Width(), b.Height())
	}

	s := dev.Stats()
	if s.TexturesDestroyed != 1 || s.TexturesLive != 1 {
		t.Errorf("device stats: got %+v, want exactly one release and one live texture", s)
	}
	if cs := c.Stats(); cs.Allocations != 2 || cs.Releases != 1 {
		t.Errorf("cache stats: got %+v, want 2 allocations, 1 release", cs)
	}
	if c.Current() != b {
		t.Error("Current is not the latest texture")
	}
}

func TestEnsureHeightChange(t *testing.T) {
	t.Parallel()

	c, _ := newCache(t)
	a, _ := c.Ensure(10, 10)
	b, _ := c.Ensure(10, 11)
	if a == b {
		t.Error("height change kept the old texture")
	}
}

func TestEnsureRejectsEmpty(t *testing.T) {
	t.Parallel()

	c, _ := newCache(t)
	if _, err := c.Ensure(0, 10); err == nil {
		t.Error("zero width accepted")
	}
	if c.Current() != nil {
		t.Error("failed Ensure left a texture")
	}
}

func TestRelease(t *testing.T) {
	t.Parallel()

	c, dev := newCache(t)
	c.Release()
	if _, err := c.Ensure(4, 4); err != nil {
		t.Fatal(err)
	}
	c.Release()
	c.Release()
	if c.Current() != nil {
		t.Error("Current after Release is not nil")
	}
	if got := dev.Stats().TexturesLive; got != 0 {
		t.Errorf("live textures: got %d, want 0", got)
	}
	if got := c.Stats().Releases; got != 1 {
		t.Errorf("releases: got %d, want 1", got)
	}
}
