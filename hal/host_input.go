package hal

import (
	"sync"
	"sync/atomic"
)

type hostInput struct {
	keys  chan KeyEvent
	mouse chan MouseMotion

	captured    atomic.Bool
	wantCapture atomic.Bool
	wantRelease atomic.Bool

	lastX, lastY int
	hasLast      bool

	// overflow holds the latest state of keys that did not fit in the
	// channel, oldest key first. A full channel never loses a release.
	mu       sync.Mutex
	overflow []KeyEvent
}

func newHostInput() *hostInput {
	return &hostInput{
		keys:  make(chan KeyEvent, 64),
		mouse: make(chan MouseMotion, 64),
	}
}

func (in *hostInput) Keyboard() <-chan KeyEvent { return in.keys }
func (in *hostInput) Mouse() <-chan MouseMotion { return in.mouse }
func (in *hostInput) Captured() bool            { return in.captured.Load() }

// RequestCapture asks the window to grab the pointer on its next update.
func (in *hostInput) RequestCapture() {
	in.wantRelease.Store(false)
	in.wantCapture.Store(true)
}

func (in *hostInput) ReleaseCapture() {
	in.wantCapture.Store(false)
	in.wantRelease.Store(true)
}

func (in *hostInput) emitKey(code KeyCode, press bool) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.flushLocked()

	ev := KeyEvent{Code: code, Press: press}
	if len(in.overflow) == 0 {
		select {
		case in.keys <- ev:
			return
		default:
		}
	}
	for i := range in.overflow {
		if in.overflow[i].Code == code {
			in.overflow[i].Press = press
			return
		}
	}
	in.overflow = append(in.overflow, ev)
}

// flush moves held-back key states into the channel as room frees up.
func (in *hostInput) flush() {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.flushLocked()
}

func (in *hostInput) flushLocked() {
	n := 0
send:
	for n < len(in.overflow) {
		select {
		case in.keys <- in.overflow[n]:
			n++
		default:
			break send
		}
	}
	in.overflow = append(in.overflow[:0], in.overflow[n:]...)
}

func (in *hostInput) emitMotion(dx, dy float32) {
	if dx == 0 && dy == 0 {
		return
	}
	select {
	case in.mouse <- MouseMotion{DX: dx, DY: dy}:
	default:
	}
}

// track turns absolute cursor positions into relative motion. The first
// position after a capture change only seeds the tracker.
func (in *hostInput) track(x, y int) {
	if !in.hasLast {
		in.lastX, in.lastY, in.hasLast = x, y, true
		return
	}
	dx, dy := x-in.lastX, y-in.lastY
	in.lastX, in.lastY = x, y
	in.emitMotion(float32(dx), float32(dy))
}
