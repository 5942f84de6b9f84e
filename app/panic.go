package app

import (
	"fmt"
	"image"
	"image/color"
	"runtime/debug"
	"strings"
	"time"
	"unicode/utf8"

	"minemap/engine/hud"
	"minemap/engine/raster"
	"minemap/hal"

	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/proggy"
)

// failure is what the viewer shows once rendering has stopped for good.
type failure struct {
	title string
	lines []string
}

func newFailure(title string, err error, stack []byte) *failure {
	f := &failure{title: title}
	if err != nil {
		f.lines = append(f.lines, err.Error())
	}
	if len(stack) > 0 {
		f.lines = append(f.lines, "stack:")
		for _, line := range strings.Split(string(stack), "\n") {
			if line == "" {
				continue
			}
			f.lines = append(f.lines, strings.ReplaceAll(line, "\t", "  "))
		}
	}
	return f
}

// log writes the failure one line at a time.
func (f *failure) log(l hal.Logger) {
	hal.Logf(l, "app: %s", f.title)
	for _, line := range f.lines {
		hal.Logf(l, "app:   %s", line)
	}
}

// draw paints the failure screen over t, wrapping long lines.
func (f *failure) draw(t *raster.RGBATarget) {
	if t == nil || t.W <= 0 || t.H <= 0 {
		return
	}
	t.Clear(raster.RGB(0xff, 0xff, 0xff))

	font := &proggy.TinySZ8pt7b
	const fontHeight, fontOffset = 10, 8
	_, outboxWidth := tinyfont.LineWidth(font, "0")
	fontWidth := int16(outboxWidth)
	if fontWidth <= 0 {
		return
	}
	d := hud.NewDisplay(t, image.Rect(0, 0, t.W, t.H))
	cols := int16(t.W) / fontWidth
	if cols <= 0 {
		cols = 1
	}

	fg := color.RGBA{A: 255}
	y := int16(0)
	for i, line := range append([]string{f.title}, f.lines...) {
		if i == 0 {
			fg = color.RGBA{R: 0xb0, A: 255}
		} else {
			fg = color.RGBA{A: 255}
		}
		for len(line) > 0 {
			if int(y)+fontHeight > t.H {
				return
			}
			chunk, rest := takeRunes(line, cols)
			drawTextLine(d, font, fontWidth, fontOffset, 0, y, chunk, fg)
			y += fontHeight
			line = strings.TrimLeft(rest, " ")
		}
	}
}

func drawTextLine(
	d *hud.Display,
	font tinyfont.Fonter,
	fontWidth, fontOffset int16,
	x0, y0 int16,
	s string,
	fg color.RGBA,
) {
	var drawX = x0
	for _, r := range s {
		tinyfont.DrawChar(d, font, drawX, y0+fontOffset, r, fg)
		drawX += fontWidth
	}
}

func takeRunes(s string, n int16) (prefix, rest string) {
	if n <= 0 || s == "" {
		return "", s
	}
	if int64(len(s)) <= int64(n) {
		return s, ""
	}
	var i int
	var count int16
	for i < len(s) && count < n {
		_, size := utf8.DecodeRuneInString(s[i:])
		if size <= 0 {
			break
		}
		i += size
		count++
	}
	if i >= len(s) {
		return s, ""
	}
	return s[:i], s[i:]
}

// recoveringFrames turns a panic inside a frame callback into onPanic instead
// of taking the host down.
type recoveringFrames struct {
	hal.Frames
	onPanic func(v any, stack []byte)
}

func (f recoveringFrames) RequestFrame(fn func(now time.Duration)) {
	f.Frames.RequestFrame(func(now time.Duration) {
		defer func() {
			if v := recover(); v != nil {
				f.onPanic(v, debug.Stack())
			}
		}()
		fn(now)
	})
}

func panicError(v any) error {
	if err, ok := v.(error); ok {
		return fmt.Errorf("panic: %w", err)
	}
	return fmt.Errorf("panic: %v", v)
}
