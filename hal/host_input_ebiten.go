//go:build cgo

package hal

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

var hostKeyMap = []struct {
	key  ebiten.Key
	code KeyCode
}{
	{ebiten.KeyW, KeyW},
	{ebiten.KeyA, KeyA},
	{ebiten.KeyS, KeyS},
	{ebiten.KeyD, KeyD},
	{ebiten.KeyR, KeyR},
	{ebiten.KeySpace, KeySpace},
	{ebiten.KeyArrowUp, KeyUp},
	{ebiten.KeyArrowDown, KeyDown},
	{ebiten.KeyArrowLeft, KeyLeft},
	{ebiten.KeyArrowRight, KeyRight},
	{ebiten.KeyEnter, KeyEnter},
	{ebiten.KeyEscape, KeyEscape},
	{ebiten.KeyF1, KeyF1},
	{ebiten.KeyF2, KeyF2},
	{ebiten.KeyF3, KeyF3},
}

func (in *hostInput) poll() {
	in.flush()
	for _, m := range hostKeyMap {
		if inpututil.IsKeyJustPressed(m.key) {
			in.emitKey(m.code, true)
		}
		if inpututil.IsKeyJustReleased(m.key) {
			in.emitKey(m.code, false)
		}
	}

	// Click to grab the pointer, Escape to let it go.
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) && !in.captured.Load() {
		in.RequestCapture()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		in.ReleaseCapture()
	}
	in.applyCapture()

	if in.captured.Load() {
		in.track(ebiten.CursorPosition())
	}
}

func (in *hostInput) applyCapture() {
	if in.wantCapture.Swap(false) {
		ebiten.SetCursorMode(ebiten.CursorModeCaptured)
		in.hasLast = false
	}
	if in.wantRelease.Swap(false) {
		ebiten.SetCursorMode(ebiten.CursorModeVisible)
		in.hasLast = false
	}
	// The platform may refuse or drop the grab (e.g. on focus loss).
	in.captured.Store(ebiten.CursorMode() == ebiten.CursorModeCaptured)
}
