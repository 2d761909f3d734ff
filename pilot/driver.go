package pilot

import (
	"context"
	"image"
	"time"
)

// Driver is the automation boundary to the browser hosting the map canvas.
// Every call blocks until the browser answers or ctx is done.
type Driver interface {
	// CaptureScreen returns a screenshot of the canvas at device resolution.
	CaptureScreen(ctx context.Context) (image.Image, error)

	// ExecuteScript calls fn with the canvas element as `this`. Arguments are
	// passed as JSON values.
	ExecuteScript(ctx context.Context, fn string, args ...any) error

	// ClickAt clicks relative to the canvas center.
	ClickAt(ctx context.Context, loc ControlLocation) error

	// WaitUntil polls a page expression until it is truthy or timeout elapses.
	WaitUntil(ctx context.Context, predicate string, timeout time.Duration) error

	// CanvasGeometry reads the canvas box in logical pixels.
	CanvasGeometry(ctx context.Context) (CanvasGeometry, error)
}

// Browser is a Driver that owns a browser process
type Browser interface {
	Driver
	Close() error
}

// Launcher starts a browser on the configured application
type Launcher func(ctx context.Context, cfg AppConfig) (Browser, error)
