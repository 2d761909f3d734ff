package pilot

import (
	"fmt"
	"image"
	"math"
)

// Locator finds UI affordances of the mapping application in a screenshot.
// All colors and offsets come from LocatorConfig.
type Locator struct {
	cfg          LocatorConfig
	sidebar      RGB
	hideBoundary RGB
	hideGlyph    RGB
	divider      RGB
	panel        RGB
	icon         RGB
}

// NewLocator parses the configured colors
func NewLocator(cfg LocatorConfig) (*Locator, error) {
	parsed := make([]RGB, 0, 6)
	for _, hex := range []string{
		cfg.Sidebar.Color,
		cfg.HideGlyph.BoundaryColor,
		cfg.HideGlyph.GlyphColor,
		cfg.ResultsIcon.DividerColor,
		cfg.ResultsIcon.PanelColor,
		cfg.ResultsIcon.IconColor,
	} {
		c, err := ParseHexColor(hex)
		if err != nil {
			return nil, fmt.Errorf("locator config: %w", err)
		}
		parsed = append(parsed, c)
	}

	return &Locator{
		cfg:          cfg,
		sidebar:      parsed[0],
		hideBoundary: parsed[1],
		hideGlyph:    parsed[2],
		divider:      parsed[3],
		panel:        parsed[4],
		icon:         parsed[5],
	}, nil
}

// SidebarToggle finds the sidebar toggle in raster coordinates. The scan runs
// along the row halfway down the area below the top bar, over the left half of
// the image. isOpen is true when the toggle sits right of the collapsed-icon
// zone, which has the same width as the top bar is tall.
func (l *Locator) SidebarToggle(r *Raster) (pt image.Point, isOpen bool, err error) {
	top := l.cfg.TopBarHeight
	row := int(math.Round(float64(r.Height()-top)/2 + float64(top)))

	pt, err = r.Find(Scan{
		Start:     image.Pt(0, row),
		Dir:       Right,
		Limit:     r.Width() / 2,
		Color:     l.sidebar,
		Tolerance: l.cfg.Sidebar.Tolerance,
	})
	if err != nil {
		return image.Point{}, false, fmt.Errorf("sidebar toggle: %w", err)
	}
	// A hit on the canvas edge is page chrome, not the toggle.
	if pt.X == 0 {
		return image.Point{}, false, fmt.Errorf("sidebar toggle: match at column 0: %w", ErrControlNotFound)
	}

	return pt, pt.X > top, nil
}

// HideGlyph finds the "hide route" glyph. The glyph row varies, so the walk
// first goes down a fixed column to a dark boundary and then right along that
// row to the glyph's white edge; the configured offset lands on its center.
func (l *Locator) HideGlyph(r *Raster) (image.Point, error) {
	cfg := l.cfg.HideGlyph

	boundary, err := r.Find(Scan{
		Start:     image.Pt(cfg.Column, cfg.SeedRow),
		Dir:       Down,
		Color:     l.hideBoundary,
		Tolerance: cfg.BoundaryTolerance,
	})
	if err != nil {
		return image.Point{}, fmt.Errorf("hide glyph: boundary row: %w", err)
	}

	edge, err := r.Find(Scan{
		Start:     boundary,
		Dir:       Right,
		Color:     l.hideGlyph,
		Tolerance: cfg.GlyphTolerance,
	})
	if err != nil {
		return image.Point{}, fmt.Errorf("hide glyph: white edge: %w", err)
	}

	center := image.Pt(edge.X-cfg.ColumnOffset, edge.Y)
	if !r.Contains(center) {
		return image.Point{}, fmt.Errorf("hide glyph: center %v outside raster: %w", center, ErrControlNotFound)
	}
	return center, nil
}

// ResultsIcon finds the results-panel icon: down the vertical centerline to the
// gray divider band, left along the band to the panel background, then
// diagonally down-right to the icon color.
func (l *Locator) ResultsIcon(r *Raster) (image.Point, error) {
	cfg := l.cfg.ResultsIcon

	band, err := r.Find(Scan{
		Start:     image.Pt(r.Width()/2, l.cfg.TopBarHeight),
		Dir:       Down,
		Color:     l.divider,
		Tolerance: cfg.DividerTolerance,
	})
	if err != nil {
		return image.Point{}, fmt.Errorf("results icon: divider band: %w", err)
	}

	edge, err := r.Find(Scan{
		Start:     band,
		Dir:       Left,
		Color:     l.panel,
		Tolerance: cfg.PanelTolerance,
	})
	if err != nil {
		return image.Point{}, fmt.Errorf("results icon: band edge: %w", err)
	}

	icon, err := r.Find(Scan{
		Start:     edge,
		Dir:       DownRight,
		Step:      cfg.Step,
		Color:     l.icon,
		Tolerance: cfg.IconTolerance,
	})
	if err != nil {
		return image.Point{}, fmt.Errorf("results icon: icon: %w", err)
	}
	return icon, nil
}

// ToOffset converts a raster position into a click offset from the canvas
// center. The raster may be captured at a different device pixel ratio than the
// canvas box, so each axis is scaled independently.
func (g CanvasGeometry) ToOffset(r *Raster, p image.Point) ControlLocation {
	col := int(math.Round(float64(p.X) * g.Width / float64(r.Width())))
	row := int(math.Round(float64(p.Y) * g.Height / float64(r.Height())))

	return ControlLocation{
		ColumnOffset: col - int(g.Width)/2,
		RowOffset:    row - int(g.Height)/2,
	}
}

// Controls are the located affordances for one capture
type Controls struct {
	Sidebar     ControlLocation  `json:"sidebar"`
	SidebarOpen bool             `json:"sidebarOpen"`
	HideGlyph   *ControlLocation `json:"hideGlyph,omitempty"`
	ResultsIcon *ControlLocation `json:"resultsIcon,omitempty"`
}

// LocateSidebarToggle returns the sidebar toggle as a canvas click offset
func (l *Locator) LocateSidebarToggle(r *Raster, g CanvasGeometry) (ControlLocation, bool, error) {
	pt, isOpen, err := l.SidebarToggle(r)
	if err != nil {
		return ControlLocation{}, false, err
	}
	return g.ToOffset(r, pt), isOpen, nil
}

// LocateHideGlyph returns the hide glyph as a canvas click offset
func (l *Locator) LocateHideGlyph(r *Raster, g CanvasGeometry) (ControlLocation, error) {
	pt, err := l.HideGlyph(r)
	if err != nil {
		return ControlLocation{}, err
	}
	return g.ToOffset(r, pt), nil
}

// LocateResultsIcon returns the results icon as a canvas click offset
func (l *Locator) LocateResultsIcon(r *Raster, g CanvasGeometry) (ControlLocation, error) {
	pt, err := l.ResultsIcon(r)
	if err != nil {
		return ControlLocation{}, err
	}
	return g.ToOffset(r, pt), nil
}
