package browser

import "time"

// SessionOptions configures the shared browsing session.
type SessionOptions struct {
	// Endpoint is a remote Chromium DevTools endpoint (ws:// or http://).
	// When empty a local Chromium is launched.
	Endpoint string

	// Headless controls whether a locally launched browser shows a window
	Headless bool

	// Viewport sets the viewport of every page
	Viewport *Viewport

	// UserAgent overrides the browser's user agent when set
	UserAgent string

	// Timeout is the default timeout for page operations
	Timeout time.Duration

	// ConnectTimeout bounds connecting to a remote endpoint
	ConnectTimeout time.Duration

	// MaxPages caps concurrently open pages
	MaxPages int
}

// Viewport represents the browser viewport dimensions.
type Viewport struct {
	Width  int
	Height int
}

// Default values for session options
const (
	DefaultTimeout        = 30 * time.Second
	DefaultConnectTimeout = 30 * time.Second
	DefaultViewportWidth  = 1280
	DefaultViewportHeight = 720
	DefaultMaxPages       = 4
)

func (o SessionOptions) withDefaults() SessionOptions {
	if o.Viewport == nil {
		o.Viewport = &Viewport{Width: DefaultViewportWidth, Height: DefaultViewportHeight}
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.ConnectTimeout <= 0 {
		o.ConnectTimeout = DefaultConnectTimeout
	}
	if o.MaxPages <= 0 {
		o.MaxPages = DefaultMaxPages
	}
	return o
}

// milliseconds converts a duration to the float milliseconds Playwright expects.
func milliseconds(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
