package pilot

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"sync"
)

// ErrOffline is returned by operations that need a running browser
var ErrOffline = errors.New("session offline")

// SessionState is either Offline or Online
type SessionState interface {
	isSessionState()
}

// Offline means no browser is attached
type Offline struct{}

// Online means a browser is attached and the map has finished loading.
// Controls were located against Geometry and are stale once it changes.
type Online struct {
	Geometry CanvasGeometry
	Controls *Controls
}

func (Offline) isSessionState() {}
func (Online) isSessionState()  {}

// Fresh reports whether cached controls still apply to the live geometry
func (o Online) Fresh(g CanvasGeometry) bool {
	return o.Controls != nil && o.Geometry == g
}

// Session drives one browser tab showing the map application. Calls are
// serialized; the TUI may issue them from command goroutines.
type Session struct {
	cfg     *Config
	launch  Launcher
	locator *Locator

	mu      sync.Mutex
	browser Browser
	state   SessionState
}

// NewSession creates an offline session
func NewSession(cfg *Config, launch Launcher) (*Session, error) {
	loc, err := NewLocator(cfg.Locator)
	if err != nil {
		return nil, err
	}
	return &Session{
		cfg:     cfg,
		launch:  launch,
		locator: loc,
		state:   Offline{},
	}, nil
}

// State returns the current session state
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// IsOnline reports whether a browser is attached
func (s *Session) IsOnline() bool {
	_, ok := s.State().(Online)
	return ok
}

// Connect launches the browser, waits for the map to load and focuses the
// canvas. Connecting an online session is a no-op.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.state.(Online); ok {
		return nil
	}

	b, err := s.launch(ctx, s.cfg.App)
	if err != nil {
		return fmt.Errorf("launching browser: %w", err)
	}

	if err := b.WaitUntil(ctx, s.cfg.App.LoadPredicate, s.cfg.App.LoadTimeout); err != nil {
		_ = b.Close()
		return fmt.Errorf("waiting for %s to load: %w", s.cfg.App.URL, err)
	}

	if err := b.ClickAt(ctx, ControlLocation{}); err != nil {
		_ = b.Close()
		return fmt.Errorf("focusing canvas: %w", err)
	}

	g, err := b.CanvasGeometry(ctx)
	if err != nil {
		_ = b.Close()
		return err
	}

	s.browser = b
	s.state = Online{Geometry: g}
	log.Printf("Session online: canvas %.0fx%.0f", g.Width, g.Height)
	return nil
}

// Disconnect closes the browser. Disconnecting an offline session is a no-op.
func (s *Session) Disconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.browser == nil {
		return nil
	}
	err := s.browser.Close()
	s.browser = nil
	s.state = Offline{}
	log.Println("Session offline")
	return err
}

// capture takes a screenshot and reads the geometry it belongs to. Callers
// hold s.mu.
func (s *Session) capture(ctx context.Context) (*Raster, CanvasGeometry, error) {
	if s.browser == nil {
		return nil, CanvasGeometry{}, ErrOffline
	}

	g, err := s.browser.CanvasGeometry(ctx)
	if err != nil {
		return nil, CanvasGeometry{}, err
	}
	img, err := s.browser.CaptureScreen(ctx)
	if err != nil {
		return nil, CanvasGeometry{}, err
	}
	return NewRaster(img), g, nil
}

// locateSidebar captures and finds the sidebar toggle, caching the result
func (s *Session) locateSidebar(ctx context.Context) (ControlLocation, bool, error) {
	r, g, err := s.capture(ctx)
	if err != nil {
		return ControlLocation{}, false, err
	}
	loc, isOpen, err := s.locator.LocateSidebarToggle(r, g)
	if err != nil {
		return ControlLocation{}, false, err
	}

	controls := &Controls{Sidebar: loc, SidebarOpen: isOpen}
	if prev, ok := s.state.(Online); ok && prev.Controls != nil {
		if prev.Fresh(g) {
			controls.HideGlyph = prev.Controls.HideGlyph
			controls.ResultsIcon = prev.Controls.ResultsIcon
		} else {
			log.Printf("Canvas is now %.0fx%.0f, discarding cached controls", g.Width, g.Height)
		}
	}
	s.state = Online{Geometry: g, Controls: controls}
	return loc, isOpen, nil
}

// UpdateOptions selects the optional steps of UpdateMap
type UpdateOptions struct {
	// HidePrevious clicks the hide glyph of the previously loaded file first
	HidePrevious bool
	// VerifyIngest locates the results icon after the drop
	VerifyIngest bool
}

// UpdateReport describes what UpdateMap did
type UpdateReport struct {
	FileName       string
	Bytes          int
	SidebarWasOpen bool
	Sidebar        ControlLocation
	HideGlyph      *ControlLocation
	ResultsIcon    *ControlLocation
}

// UpdateMap drops a compiled KML document onto the map. The sidebar is
// opened if needed, the file is dropped, and the sidebar is toggled closed.
// Every locate works on a fresh screenshot and failures are not retried.
func (s *Session) UpdateMap(ctx context.Context, kml []byte, opts UpdateOptions) (*UpdateReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.browser == nil {
		return nil, ErrOffline
	}

	report := &UpdateReport{FileName: s.cfg.Store.KMLFileName(), Bytes: len(kml)}

	loc, isOpen, err := s.locateSidebar(ctx)
	if err != nil {
		return nil, err
	}
	report.SidebarWasOpen = isOpen

	if !isOpen {
		if err := s.browser.ClickAt(ctx, loc); err != nil {
			return nil, fmt.Errorf("opening sidebar: %w", err)
		}
	}

	if opts.HidePrevious {
		r, g, err := s.capture(ctx)
		if err != nil {
			return nil, err
		}
		hide, err := s.locator.LocateHideGlyph(r, g)
		if err != nil {
			return nil, err
		}
		if err := s.browser.ClickAt(ctx, hide); err != nil {
			return nil, fmt.Errorf("hiding previous file: %w", err)
		}
		report.HideGlyph = &hide
	}

	if err := InjectFile(ctx, s.browser, report.FileName, kml); err != nil {
		return nil, err
	}

	if opts.VerifyIngest {
		r, g, err := s.capture(ctx)
		if err != nil {
			return nil, err
		}
		icon, err := s.locator.LocateResultsIcon(r, g)
		if err != nil {
			return nil, fmt.Errorf("file not ingested: %w", err)
		}
		report.ResultsIcon = &icon
	}

	if !isOpen {
		// The toggle moves when the sidebar opens.
		loc, _, err = s.locateSidebar(ctx)
		if err != nil {
			return nil, err
		}
	}

	if err := s.browser.ClickAt(ctx, loc); err != nil {
		return nil, fmt.Errorf("closing sidebar: %w", err)
	}
	if online, ok := s.state.(Online); ok && online.Controls != nil {
		online.Controls.SidebarOpen = false
		if report.HideGlyph != nil {
			online.Controls.HideGlyph = report.HideGlyph
		}
		if report.ResultsIcon != nil {
			online.Controls.ResultsIcon = report.ResultsIcon
		}
	}
	report.Sidebar = loc

	log.Printf("Dropped %s (%d bytes) onto the map", report.FileName, report.Bytes)
	return report, nil
}

// Calibration is the result of locating every control on one screenshot
type Calibration struct {
	Geometry CanvasGeometry
	Raster   *Raster
	Controls Controls
	Markers  []Marker
	Errors   map[string]error
}

// Calibrate captures the canvas and runs every locator once, collecting
// failures instead of stopping at the first one.
func (s *Session) Calibrate(ctx context.Context) (*Calibration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, g, err := s.capture(ctx)
	if err != nil {
		return nil, err
	}
	return CalibrateRaster(s.locator, r, g), nil
}

// CalibrateRaster runs every locator against r
func CalibrateRaster(l *Locator, r *Raster, g CanvasGeometry) *Calibration {
	cal := &Calibration{Geometry: g, Raster: r, Errors: map[string]error{}}

	if pt, isOpen, err := l.SidebarToggle(r); err != nil {
		cal.Errors["sidebar"] = err
	} else {
		cal.Controls.Sidebar = g.ToOffset(r, pt)
		cal.Controls.SidebarOpen = isOpen
		cal.Markers = append(cal.Markers, marker("sidebar", pt))
	}

	if pt, err := l.HideGlyph(r); err != nil {
		cal.Errors["hideGlyph"] = err
	} else {
		loc := g.ToOffset(r, pt)
		cal.Controls.HideGlyph = &loc
		cal.Markers = append(cal.Markers, marker("hide", pt))
	}

	if pt, err := l.ResultsIcon(r); err != nil {
		cal.Errors["resultsIcon"] = err
	} else {
		loc := g.ToOffset(r, pt)
		cal.Controls.ResultsIcon = &loc
		cal.Markers = append(cal.Markers, marker("results", pt))
	}

	return cal
}

func marker(label string, pt image.Point) Marker {
	return Marker{Label: fmt.Sprintf("%s %d,%d", label, pt.X, pt.Y), At: pt}
}
