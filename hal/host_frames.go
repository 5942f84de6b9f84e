package hal

import (
	"sync"
	"time"
)

type hostFrames struct {
	mu      sync.Mutex
	pending []func(time.Duration)
	start   time.Time
}

func newHostFrames() *hostFrames {
	return &hostFrames{start: time.Now()}
}

func (f *hostFrames) RequestFrame(fn func(now time.Duration)) {
	if fn == nil {
		return
	}
	f.mu.Lock()
	f.pending = append(f.pending, fn)
	f.mu.Unlock()
}

// fire runs the callbacks requested before this call. Callbacks requested while
// firing wait for the next frame.
func (f *hostFrames) fire(now time.Duration) int {
	f.mu.Lock()
	run := f.pending
	f.pending = nil
	f.mu.Unlock()

	for _, fn := range run {
		fn(now)
	}
	return len(run)
}

func (f *hostFrames) since() time.Duration { return time.Since(f.start) }
