package hal

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestRunHeadlessStopsAfterTicks(t *testing.T) {
	var log bytes.Buffer
	var steps, frames int
	var last time.Duration
	var surfW, surfH int

	cfg := HeadlessConfig{Hz: 1000, Ticks: 5, Width: 40, Height: 30, Log: &log}
	err := RunHeadless(context.Background(), cfg, func(h HAL) func() error {
		surfW, surfH = h.Surface().Size()
		h.Logger().WriteLineString("app: ready")

		var next func(time.Duration)
		next = func(now time.Duration) {
			if now < last {
				t.Errorf("timestamp went backwards: %v < %v", now, last)
			}
			last = now
			frames++
			h.Frames().RequestFrame(next)
		}
		h.Frames().RequestFrame(next)
		return func() error {
			steps++
			return nil
		}
	})
	if err != nil {
		t.Fatalf("RunHeadless: %v", err)
	}
	if steps != 5 || frames != 5 {
		t.Fatalf("steps=%d frames=%d, want 5 each", steps, frames)
	}
	if surfW != 40 || surfH != 30 {
		t.Fatalf("surface %dx%d", surfW, surfH)
	}
	if !strings.Contains(log.String(), "app: ready") {
		t.Fatalf("log = %q", log.String())
	}
}

func TestRunHeadlessStepError(t *testing.T) {
	boom := errors.New("boom")
	err := RunHeadless(context.Background(), HeadlessConfig{Hz: 1000, Log: &bytes.Buffer{}}, func(HAL) func() error {
		return func() error { return boom }
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
}

func TestRunHeadlessCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := RunHeadless(ctx, HeadlessConfig{Hz: 1, Log: &bytes.Buffer{}}, func(HAL) func() error { return nil })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
}

func TestFramesFireOnce(t *testing.T) {
	f := newHostFrames()
	n := 0
	f.RequestFrame(func(time.Duration) { n++ })
	f.RequestFrame(nil)
	if got := f.fire(0); got != 1 {
		t.Fatalf("fired %d", got)
	}
	f.fire(time.Millisecond)
	if n != 1 {
		t.Fatalf("callback ran %d times", n)
	}
}

func TestSurfaceResize(t *testing.T) {
	s := newHostSurface(4, 2)
	if len(s.Pixels()) != 4*2*4 {
		t.Fatalf("len = %d", len(s.Pixels()))
	}
	if s.resize(4, 2) {
		t.Fatalf("same-size resize reallocated")
	}
	if !s.resize(8, 3) || len(s.Pixels()) != 8*3*4 {
		t.Fatalf("resize did not reallocate")
	}
	if w, h := s.Size(); w != 8 || h != 3 {
		t.Fatalf("size %dx%d", w, h)
	}
}

func TestInputTracksRelativeMotion(t *testing.T) {
	in := newHostInput()
	in.track(10, 10)
	in.track(13, 8)
	in.track(13, 8)
	select {
	case m := <-in.Mouse():
		if m.DX != 3 || m.DY != -2 {
			t.Fatalf("motion = %+v", m)
		}
	default:
		t.Fatalf("no motion emitted")
	}
	select {
	case m := <-in.Mouse():
		t.Fatalf("unexpected motion %+v", m)
	default:
	}
}

func TestMultiLogger(t *testing.T) {
	var a, b bytes.Buffer
	l := MultiLogger(NewLogger(&a), nil, NewLogger(&b))
	Logf(l, "chunk: %d blocks", 3)
	l.WriteLineBytes([]byte("x"))
	if a.String() != "chunk: 3 blocks\nx\n" || a.String() != b.String() {
		t.Fatalf("a=%q b=%q", a.String(), b.String())
	}
}

func TestFullKeyChannelKeepsLatestState(t *testing.T) {
	in := newHostInput()
	for i := 0; i < cap(in.keys); i++ {
		in.emitKey(KeySpace, i%2 == 0)
	}
	in.emitKey(KeyW, true)
	in.emitKey(KeyA, true)
	in.emitKey(KeyW, false)

	for i := 0; i < cap(in.keys); i++ {
		<-in.keys
	}
	in.flush()

	var got []KeyEvent
	for len(in.keys) > 0 {
		got = append(got, <-in.keys)
	}
	want := []KeyEvent{{Code: KeyW, Press: false}, {Code: KeyA, Press: true}}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("after drain got %+v, want %+v", got, want)
	}
	if len(in.overflow) != 0 {
		t.Fatalf("overflow not emptied: %+v", in.overflow)
	}
}
