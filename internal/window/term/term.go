// Package term shows the presented surface in a terminal using half-block
// characters: every cell carries two vertically stacked pixels, the upper
// one as the foreground color and the lower one as the background.
package term

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/zsiec/reel/internal/gpu"
	"github.com/zsiec/reel/internal/gpu/soft"
	"github.com/zsiec/reel/internal/window"
)

const (
	halfBlock = "▀"
	maxStyles = 4096
)

// StatusReporter may be implemented by a window.Handler to fill the status
// line below the picture.
type StatusReporter interface {
	Status() string
}

// Config configures the terminal window. Input and Output default to the
// process TTY.
type Config struct {
	Title  string
	Input  io.Reader
	Output io.Writer
	Log    *slog.Logger
}

// Window implements window.Window on a terminal.
type Window struct {
	cfg     Config
	surface *soft.Surface
	signal  *window.Signal
	log     *slog.Logger
}

// New returns a terminal window.
func New(cfg Config) *Window {
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}
	if cfg.Title == "" {
		cfg.Title = "reel"
	}
	return &Window{
		cfg:     cfg,
		surface: soft.NewSurface(),
		signal:  window.NewSignal(),
		log:     log.With("component", "term"),
	}
}

func (w *Window) Instance() gpu.Instance    { return soft.Instance{} }
func (w *Window) Surface() gpu.Surface      { return w.surface }
func (w *Window) Notifier() window.Notifier { return w.signal }

// Run implements window.Window. It takes over the terminal's alternate
// screen until q, esc or ctrl+c is pressed or ctx is done.
func (w *Window) Run(ctx context.Context, h window.Handler) error {
	m := newModel(w, h)
	opts := []tea.ProgramOption{tea.WithContext(ctx), tea.WithAltScreen()}
	if w.cfg.Input != nil {
		opts = append(opts, tea.WithInput(w.cfg.Input))
	}
	if w.cfg.Output != nil {
		opts = append(opts, tea.WithOutput(w.cfg.Output))
	}
	p := tea.NewProgram(m, opts...)

	fwdCtx, stop := context.WithCancel(ctx)
	defer stop()
	go func() {
		for {
			select {
			case <-fwdCtx.Done():
				return
			case <-w.signal.C():
				p.Send(redrawMsg{})
			}
		}
	}()

	_, err := p.Run()
	stop()
	h.Closed()
	if m.err != nil {
		return m.err
	}
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("term: %w", err)
	}
	return nil
}

type redrawMsg struct{}

type model struct {
	w          *Window
	h          window.Handler
	cols, rows int
	err        error
	styles     map[[2]uint32]lipgloss.Style
	status     lipgloss.Style
}

func newModel(w *Window, h window.Handler) *model {
	return &model{
		w:      w,
		h:      h,
		styles: make(map[[2]uint32]lipgloss.Style),
		status: lipgloss.NewStyle().Faint(true),
	}
}

// Init implements tea.Model.
func (m *model) Init() tea.Cmd {
	return tea.SetWindowTitle(m.w.cfg.Title)
}

// Update implements tea.Model.
func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.cols, m.rows = msg.Width, msg.Height
		width, height := PixelSize(msg.Width, msg.Height)
		if err := m.h.Resized(width, height); err != nil {
			m.err = err
			return m, tea.Quit
		}
		return m, m.redraw()

	case redrawMsg:
		return m, m.redraw()

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m *model) redraw() tea.Cmd {
	err := m.h.Redraw()
	if err == nil {
		return nil
	}
	if !errors.Is(err, window.ErrQuit) {
		m.err = err
	}
	return tea.Quit
}

// View implements tea.Model.
func (m *model) View() string {
	var b strings.Builder
	if img := m.w.surface.Frame(); img != nil {
		m.render(&b, img)
	}
	line := m.w.cfg.Title + " · q to quit"
	if r, ok := m.h.(StatusReporter); ok {
		line = m.w.cfg.Title + " · " + r.Status() + " · q to quit"
	}
	b.WriteString(m.status.Render(line))
	return b.String()
}

func (m *model) render(b *strings.Builder, img *image.RGBA) {
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y += 2 {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			top := packRGB(img, x, y)
			bottom := top
			if y+1 < bounds.Max.Y {
				bottom = packRGB(img, x, y+1)
			}
			b.WriteString(m.style(top, bottom).Render(halfBlock))
		}
		b.WriteByte('\n')
	}
}

func (m *model) style(fg, bg uint32) lipgloss.Style {
	key := [2]uint32{fg, bg}
	s, ok := m.styles[key]
	if !ok {
		if len(m.styles) >= maxStyles {
			clear(m.styles)
		}
		s = lipgloss.NewStyle().
			Foreground(lipgloss.Color(fmt.Sprintf("#%06x", fg))).
			Background(lipgloss.Color(fmt.Sprintf("#%06x", bg)))
		m.styles[key] = s
	}
	return s
}

func packRGB(img *image.RGBA, x, y int) uint32 {
	c := img.RGBAAt(x, y)
	return uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
}

// PixelSize returns the surface size that fills a cols×rows terminal, one
// row being reserved for the status line.
func PixelSize(cols, rows int) (width, height int) {
	return max(cols, 1), max((rows-1)*2, 1)
}
