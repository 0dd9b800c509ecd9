package term

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/mock/gomock"

	"github.com/zsiec/reel/internal/gpu"
	"github.com/zsiec/reel/internal/window"
	mock_window "github.com/zsiec/reel/internal/window/mocks"
)

func TestPixelSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		cols, rows int
		w, h       int
	}{
		{80, 24, 80, 46},
		{1, 1, 1, 1},
		{0, 0, 1, 1},
		{200, 51, 200, 100},
	}
	for _, tt := range tests {
		w, h := PixelSize(tt.cols, tt.rows)
		if w != tt.w || h != tt.h {
			t.Errorf("PixelSize(%d, %d): got %dx%d, want %dx%d", tt.cols, tt.rows, w, h, tt.w, tt.h)
		}
	}
}

func TestModelResizeRedraws(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	h := mock_window.NewMockHandler(ctrl)
	m := newModel(New(Config{}), h)

	gomock.InOrder(
		h.EXPECT().Resized(40, 18).Return(nil),
		h.EXPECT().Redraw().Return(nil),
		h.EXPECT().Redraw().Return(nil),
	)
	if _, cmd := m.Update(tea.WindowSizeMsg{Width: 40, Height: 10}); cmd != nil {
		t.Error("resize returned a command")
	}
	m.Update(redrawMsg{})
}

func TestModelQuitsOnKey(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	m := newModel(New(Config{}), mock_window.NewMockHandler(ctrl))
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("q did not quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q command is not tea.Quit")
	}
}

func TestModelRecordsRedrawError(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	h := mock_window.NewMockHandler(ctrl)
	m := newModel(New(Config{}), h)
	boom := errors.New("boom")

	h.EXPECT().Redraw().Return(boom)
	if _, cmd := m.Update(redrawMsg{}); cmd == nil {
		t.Fatal("failed redraw did not quit")
	}
	if !errors.Is(m.err, boom) {
		t.Errorf("err: got %v, want %v", m.err, boom)
	}

	h.EXPECT().Redraw().Return(window.ErrQuit)
	m.err = nil
	m.Update(redrawMsg{})
	if m.err != nil {
		t.Errorf("ErrQuit recorded as error: %v", m.err)
	}
}

type statusHandler struct {
	*mock_window.MockHandler
}

func (statusHandler) Status() string { return "frame 7" }

func TestViewRendersHalfBlocks(t *testing.T) {
	t.Parallel()

	w := New(Config{Title: "clip"})
	dev, err := w.Instance().RequestDevice(w.Surface())
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Surface().Configure(dev, gpu.SurfaceConfiguration{
		Format: gpu.TextureFormatRGBA8Unorm, Width: 5, Height: 3,
	}); err != nil {
		t.Fatal(err)
	}
	st, err := w.Surface().CurrentTexture()
	if err != nil {
		t.Fatal(err)
	}
	if err := st.Present(); err != nil {
		t.Fatal(err)
	}

	ctrl := gomock.NewController(t)
	m := newModel(w, statusHandler{mock_window.NewMockHandler(ctrl)})
	view := m.View()
	lines := strings.Split(view, "\n")
	if len(lines) != 3 {
		t.Fatalf("lines: got %d, want 2 picture rows and a status line", len(lines))
	}
	for i, line := range lines[:2] {
		if n := strings.Count(line, halfBlock); n != 5 {
			t.Errorf("row %d: got %d cells, want 5", i, n)
		}
	}
	if !strings.Contains(lines[2], "clip · frame 7") {
		t.Errorf("status: got %q", lines[2])
	}
}
