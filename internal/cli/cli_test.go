package cli

import (
	"bytes"
	"context"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zsiec/reel/internal/source/mpegts"
)

// run executes reel with an isolated configuration environment.
func run(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code = Execute(context.Background(), "test", args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("DEBUG", "")
}

func TestVersion(t *testing.T) {
	isolate(t)
	code, out, _ := run(t, "version")
	assert.Equal(t, 0, code)
	assert.Equal(t, "reel test\n", out)
}

func TestMissingPathExitsNonZero(t *testing.T) {
	isolate(t)
	code, _, errOut := run(t)
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "missing media path")
	assert.Equal(t, 1, strings.Count(errOut, "level=ERROR"))
}

func TestNonexistentPathExitsNonZero(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "nope.y4m")
	code, _, errOut := run(t, "--display", "headless", path)
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "nope.y4m")
	assert.Equal(t, 1, strings.Count(errOut, "level=ERROR"))
}

func TestInvalidFlagValueExitsNonZero(t *testing.T) {
	isolate(t)
	code, _, errOut := run(t, "--convert", "opencl", "clip.y4m")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "pipeline.convert")
}

func TestGenProbeAndPlayHeadless(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	clip := filepath.Join(dir, "blue.y4m")
	snap := filepath.Join(dir, "last.png")

	code, _, errOut := run(t, "gen", clip,
		"--width", "64", "--height", "64", "--frames", "3",
		"--pattern", "solid", "--color", "#0000ff", "--format", "yuv420p")
	require.Equal(t, 0, code, errOut)

	code, out, errOut := run(t, "probe", clip)
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "yuv4mpegpipe")
	assert.Contains(t, out, "#0 video rawvideo 64x64 yuv420p")
	assert.Contains(t, out, "*")

	for _, mode := range []string{"cpu", "gpu"} {
		t.Run(mode, func(t *testing.T) {
			require.NoError(t, os.RemoveAll(snap))
			code, _, errOut := run(t, clip,
				"--display", "headless", "--width", "128", "--height", "64",
				"--background", "#ff0000", "--snapshot", snap, "--convert", mode)
			require.Equal(t, 0, code, errOut)

			f, err := os.Open(snap)
			require.NoError(t, err)
			defer f.Close()
			img, err := png.Decode(f)
			require.NoError(t, err)
			assert.Equal(t, 128, img.Bounds().Dx())
			assert.Equal(t, 64, img.Bounds().Dy())

			r, g, b, _ := img.At(64, 32).RGBA()
			assert.InDelta(t, 0, r>>8, 2)
			assert.InDelta(t, 0, g>>8, 2)
			assert.InDelta(t, 255, b>>8, 2)
			r, _, b, _ = img.At(8, 32).RGBA()
			assert.InDelta(t, 255, r>>8, 2)
			assert.InDelta(t, 0, b>>8, 2)
		})
	}
}

func TestGenRejectsBadOptions(t *testing.T) {
	isolate(t)
	out := filepath.Join(t.TempDir(), "bad.y4m")
	code, _, errOut := run(t, "gen", out, "--format", "rgba")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "unsupported pixel format")
	assert.NoFileExists(t, out)

	code, _, _ = run(t, "gen", out, "--pattern", "noise")
	assert.Equal(t, 1, code)
}

func TestProbeTransportStream(t *testing.T) {
	isolate(t)
	var buf bytes.Buffer
	m := mpegts.NewMuxer(&buf,
		mpegts.MuxStream{PID: 0x100, StreamType: 0x1b},
		mpegts.MuxStream{PID: 0x101, StreamType: 0x0f},
	)
	require.NoError(t, m.WriteTables())
	path := filepath.Join(t.TempDir(), "clip.ts")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	code, out, errOut := run(t, "probe", path)
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "mpegts")
	assert.Contains(t, out, "#0 video h264")
	assert.Contains(t, out, "#1 audio aac")
}

func TestProbeScansH264(t *testing.T) {
	isolate(t)
	sps := []byte{
		0x67, 0x64, 0x00, 0x1f, 0xac, 0xd9, 0x40, 0x50,
		0x05, 0xbb, 0xff, 0x00, 0x03, 0x00, 0x04, 0x6a,
		0x02, 0x02, 0x02, 0x80, 0x00, 0x01, 0xf4, 0x80,
		0x00, 0x5d, 0xc0, 0x07, 0x8c, 0x18, 0xcb,
	}
	idr := append(append([]byte{0, 0, 0, 1}, sps...), 0, 0, 0, 1, 0x65, 0x88, 0x84, 0x21)
	slice := []byte{0, 0, 0, 1, 0x41, 0x9a, 0x02}

	var buf bytes.Buffer
	m := mpegts.NewMuxer(&buf, mpegts.MuxStream{PID: 0x100, StreamType: 0x1b})
	require.NoError(t, m.WriteTables())
	require.NoError(t, m.WritePES(0x100, 0, idr))
	require.NoError(t, m.WritePES(0x100, 3000, slice))
	require.NoError(t, m.WritePES(0x100, 6000, slice))
	path := filepath.Join(t.TempDir(), "clip.ts")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	code, out, errOut := run(t, "probe", "--scan", "10", path)
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "#0 1280x720 high 3.1 avc1.64001F")
	assert.Contains(t, out, "3 frames, 1 keyframes")

	code, out, _ = run(t, "probe", path)
	require.Equal(t, 0, code)
	assert.NotContains(t, out, "1280x720")
}

func TestConfigPrintsEffectiveYAML(t *testing.T) {
	isolate(t)
	t.Setenv("REEL_PIPELINE_CONVERT", "gpu")
	code, out, errOut := run(t, "config", "--log-format", "json")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "convert: gpu")
	assert.Contains(t, out, "format: json")
	assert.NotContains(t, out, "# loaded from")
}

func TestConfigFileFlag(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("display:\n  width: 1280\n"), 0o644))

	code, out, errOut := run(t, "config", "--config", path)
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "# loaded from "+path)
	assert.Contains(t, out, "width: 1280")
}

func TestConfigPaths(t *testing.T) {
	isolate(t)
	code, out, _ := run(t, "config", "paths")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "config.yaml")
	assert.Contains(t, out, "reel.yaml")
}

func TestFileRate(t *testing.T) {
	isolate(t)
	var buf bytes.Buffer
	m := mpegts.NewMuxer(&buf, mpegts.MuxStream{PID: 0x100, StreamType: 0x1b})
	require.NoError(t, m.WriteTables())
	for i := int64(0); i <= 10; i++ {
		require.NoError(t, m.WritePES(0x100, i*9000, []byte{byte(i)}))
	}
	path := filepath.Join(t.TempDir(), "clip.ts")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	// Timestamps span one second.
	rate, err := fileRate(context.Background(), path)
	require.NoError(t, err)
	assert.InDelta(t, float64(buf.Len()), rate, 1)
}

func TestPushRejectsListenerTarget(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "clip.ts")
	require.NoError(t, os.WriteFile(path, nil, 0o644))
	code, _, errOut := run(t, "push", path, "srt://:6000?mode=listener", "--rate", "1000")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "listener")
}
