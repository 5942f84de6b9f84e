package hal

import (
	"fmt"
	"io"
	"os"
	"sync"
)

type hostHAL struct {
	logger *hostLogger
	surf   *hostSurface
	in     *hostInput
	frames *hostFrames
}

// New returns a host HAL with a w×h surface. Logs go to stderr.
func New(w, h int) HAL {
	return newHost(w, h, os.Stderr)
}

func newHost(w, h int, logw io.Writer) *hostHAL {
	return &hostHAL{
		logger: &hostLogger{w: logw},
		surf:   newHostSurface(w, h),
		in:     newHostInput(),
		frames: newHostFrames(),
	}
}

func (h *hostHAL) Logger() Logger   { return h.logger }
func (h *hostHAL) Surface() Surface { return h.surf }
func (h *hostHAL) Input() Input     { return h.in }
func (h *hostHAL) Frames() Frames   { return h.frames }

// NewLogger returns a Logger writing one line per call to w. It is safe for
// concurrent use.
func NewLogger(w io.Writer) Logger {
	return &hostLogger{w: w}
}

type hostLogger struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *hostLogger) WriteLineString(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.w, s)
}

func (l *hostLogger) WriteLineBytes(b []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.w.Write(b)
	l.w.Write([]byte{'\n'})
}

// MultiLogger duplicates every line to each non-nil logger.
func MultiLogger(ls ...Logger) Logger {
	out := make(multiLogger, 0, len(ls))
	for _, l := range ls {
		if l != nil {
			out = append(out, l)
		}
	}
	return out
}

type multiLogger []Logger

func (m multiLogger) WriteLineString(s string) {
	for _, l := range m {
		l.WriteLineString(s)
	}
}

func (m multiLogger) WriteLineBytes(b []byte) {
	for _, l := range m {
		l.WriteLineBytes(b)
	}
}

// Logf formats a line and writes it to l. A nil logger drops the line.
func Logf(l Logger, format string, args ...any) {
	if l == nil {
		return
	}
	l.WriteLineString(fmt.Sprintf(format, args...))
}
