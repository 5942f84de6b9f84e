package hud

import (
	"image"
	"image/color"
	"strings"
	"sync"

	"minemap/engine/raster"

	"tinygo.org/x/tinyfont/proggy"
	"tinygo.org/x/tinyterm"
)

// DefaultConsoleLines is how many log lines a console keeps.
const DefaultConsoleLines = 64

var consoleBG = color.RGBA{A: 0xc0}

// Console is a hal.Logger that keeps the most recent lines and can render them
// through a tinyterm terminal at the bottom of the frame. Writes are safe from
// any goroutine; Draw runs on the frame loop.
type Console struct {
	mu    sync.Mutex
	lines []string
	max   int

	// Rows is the height of the console in text rows.
	Rows int
}

func NewConsole(maxLines int) *Console {
	if maxLines <= 0 {
		maxLines = DefaultConsoleLines
	}
	return &Console{max: maxLines, Rows: 8}
}

func (c *Console) WriteLineString(s string) {
	// The terminal parses escape sequences; keep log text literal.
	s = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return ' '
		}
		return r
	}, s)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = append(c.lines, s)
	if over := len(c.lines) - c.max; over > 0 {
		c.lines = append(c.lines[:0], c.lines[over:]...)
	}
}

func (c *Console) WriteLineBytes(b []byte) { c.WriteLineString(string(b)) }

// Lines returns a copy of the kept lines, oldest first.
func (c *Console) Lines() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.lines...)
}

// Tail returns at most n of the newest lines, oldest first.
func (c *Console) Tail(n int) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n <= 0 {
		return nil
	}
	if n > len(c.lines) {
		n = len(c.lines)
	}
	return append([]string(nil), c.lines[len(c.lines)-n:]...)
}

// Draw renders the newest lines into a panel along the bottom of t.
func (c *Console) Draw(t *raster.RGBATarget) {
	if t == nil || c.Rows <= 0 {
		return
	}
	h := c.Rows*lineHeight + padding
	if h > t.H {
		h = t.H
	}
	d := NewDisplay(t, image.Rect(0, t.H-h, t.W, t.H))
	w, dh := d.Size()
	if w <= 0 || dh < lineHeight {
		return
	}
	_ = d.FillRectangle(0, 0, w, dh, consoleBG)

	term := tinyterm.NewTerminal(d)
	term.Configure(&tinyterm.Config{
		Font:              &proggy.TinySZ8pt7b,
		FontHeight:        lineHeight,
		FontOffset:        lineOffset,
		UseSoftwareScroll: true,
	})

	lines := c.Tail(int(dh) / lineHeight)
	for i, l := range lines {
		if i > 0 {
			_, _ = term.Write([]byte{'\n'})
		}
		_, _ = term.Write([]byte(l))
	}
}

var _ tinyterm.Displayer = (*Display)(nil)
