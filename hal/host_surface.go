package hal

import "sync"

type hostSurface struct {
	mu     sync.Mutex
	width  int
	height int
	pix    []byte
}

func newHostSurface(width, height int) *hostSurface {
	s := &hostSurface{}
	s.resize(width, height)
	return s
}

func (s *hostSurface) Size() (w, h int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width, s.height
}

func (s *hostSurface) Pixels() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pix
}

// resize reallocates the buffer when the size changes. Old contents are lost.
func (s *hostSurface) resize(width, height int) bool {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if width == s.width && height == s.height && s.pix != nil {
		return false
	}
	s.width, s.height = width, height
	s.pix = make([]byte, width*height*4)
	return true
}
