package hal

// WindowConfig controls the desktop window runner.
type WindowConfig struct {
	Title  string
	Width  int // window size in screen pixels
	Height int
	// Scale is the number of screen pixels per surface pixel.
	Scale int
	TPS   int
}

func (c WindowConfig) withDefaults() WindowConfig {
	if c.Width <= 0 {
		c.Width = 960
	}
	if c.Height <= 0 {
		c.Height = 600
	}
	if c.Scale <= 0 {
		c.Scale = 1
	}
	if c.TPS <= 0 {
		c.TPS = 60
	}
	return c
}
