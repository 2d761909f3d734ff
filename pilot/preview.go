package pilot

import (
	"image/color"
	"image/png"
	"io"
	"math"

	"github.com/paulmach/orb"
	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/rasterizer"
	"github.com/tdewolff/canvas/renderers/svg"
)

// RouteLineRGBA is RouteLineColor converted from aabbggrr
var RouteLineRGBA = color.RGBA{R: 0xA6, G: 0xE7, B: 0xFE, A: 0xFF}

var pointRGBA = color.RGBA{R: 0xD9, G: 0x30, B: 0x25, A: 0xFF}

// PreviewRenderer draws a collection as a flat vector map. Longitude is scaled
// by the cosine of the mid latitude so short routes keep their shape.
type PreviewRenderer struct {
	Width       float64           // Drawing width in millimeters
	Height      float64           // Drawing height in millimeters
	Padding     float64           // Margin in millimeters
	PointRadius float64           // Point marker radius in millimeters
	LineWidth   float64           // Route stroke width in millimeters
	GridStep    float64           // Graticule spacing in degrees; 0 disables
	Resolution  canvas.Resolution // Resolution for PNG output
}

// NewPreviewRenderer returns a renderer with A5-landscape defaults
func NewPreviewRenderer() *PreviewRenderer {
	return &PreviewRenderer{
		Width:       210,
		Height:      148,
		Padding:     10,
		PointRadius: 1.5,
		LineWidth:   1,
		GridStep:    0,
		Resolution:  canvas.DPI(150),
	}
}

// canvasRenderer is implemented by both the svg and rasterizer renderers
type canvasRenderer interface {
	RenderPath(path *canvas.Path, style canvas.Style, m canvas.Matrix)
}

// RenderToSVG writes the preview as SVG
func (r *PreviewRenderer) RenderToSVG(w io.Writer, c *WaypointCollection) error {
	svgRenderer := svg.New(w, r.Width, r.Height, nil)
	r.render(svgRenderer, c)
	return svgRenderer.Close()
}

// RenderToPNG writes the preview as PNG
func (r *PreviewRenderer) RenderToPNG(w io.Writer, c *WaypointCollection) error {
	rast := rasterizer.New(r.Width, r.Height, r.Resolution, canvas.DefaultColorSpace)
	r.render(rast, c)
	return png.Encode(w, rast)
}

// projection maps lon/lat into drawing millimeters
type projection struct {
	bound   orb.Bound
	lonFact float64
	scale   float64
	offX    float64
	offY    float64
}

func (r *PreviewRenderer) project(b orb.Bound) projection {
	mid := (b.Min.Lat() + b.Max.Lat()) / 2
	p := projection{bound: b, lonFact: math.Cos(mid * math.Pi / 180)}

	spanX := (b.Max.Lon() - b.Min.Lon()) * p.lonFact
	spanY := b.Max.Lat() - b.Min.Lat()
	availX := r.Width - 2*r.Padding
	availY := r.Height - 2*r.Padding

	switch {
	case spanX == 0 && spanY == 0:
		p.scale = 1
	case spanX == 0:
		p.scale = availY / spanY
	case spanY == 0:
		p.scale = availX / spanX
	default:
		p.scale = math.Min(availX/spanX, availY/spanY)
	}

	// Center the drawing in the available area.
	p.offX = r.Padding + (availX-spanX*p.scale)/2
	p.offY = r.Padding + (availY-spanY*p.scale)/2
	return p
}

func (p projection) toCanvas(pt orb.Point) (float64, float64) {
	x := (pt.Lon()-p.bound.Min.Lon())*p.lonFact*p.scale + p.offX
	y := (pt.Lat()-p.bound.Min.Lat())*p.scale + p.offY
	return x, y
}

func (r *PreviewRenderer) render(renderer canvasRenderer, c *WaypointCollection) {
	bgStyle := canvas.DefaultStyle
	bgStyle.Fill = canvas.Paint{Color: canvas.White}
	renderer.RenderPath(canvas.Rectangle(r.Width, r.Height), bgStyle, canvas.Identity)

	b, ok := c.Bound()
	if !ok {
		return
	}
	proj := r.project(b)

	if r.GridStep > 0 {
		r.renderGrid(renderer, proj)
	}

	routeStyle := canvas.DefaultStyle
	routeStyle.Fill = canvas.Paint{Color: canvas.Transparent}
	routeStyle.Stroke = canvas.Paint{Color: RouteLineRGBA}
	routeStyle.StrokeWidth = r.LineWidth

	vertexStyle := canvas.DefaultStyle
	vertexStyle.Fill = canvas.Paint{Color: RouteLineRGBA}

	for _, route := range c.Routes {
		ls := route.LineString()
		path := &canvas.Path{}
		for i, pt := range ls {
			x, y := proj.toCanvas(pt)
			if i == 0 {
				path.MoveTo(x, y)
			} else {
				path.LineTo(x, y)
			}
		}
		if len(ls) > 1 {
			renderer.RenderPath(path, routeStyle, canvas.Identity)
		}
		for _, pt := range ls {
			x, y := proj.toCanvas(pt)
			renderer.RenderPath(canvas.Circle(r.LineWidth).Translate(x, y), vertexStyle, canvas.Identity)
		}
	}

	pointStyle := canvas.DefaultStyle
	pointStyle.Fill = canvas.Paint{Color: pointRGBA}
	pointStyle.Stroke = canvas.Paint{Color: canvas.Black}
	pointStyle.StrokeWidth = 0.3

	for _, p := range c.Points {
		x, y := proj.toCanvas(p.orbPoint())
		renderer.RenderPath(canvas.Circle(r.PointRadius).Translate(x, y), pointStyle, canvas.Identity)
	}
}

func (r *PreviewRenderer) renderGrid(renderer canvasRenderer, proj projection) {
	gridStyle := canvas.DefaultStyle
	gridStyle.Fill = canvas.Paint{Color: canvas.Transparent}
	gridStyle.Stroke = canvas.Paint{Color: canvas.Gray}
	gridStyle.StrokeWidth = 0.2
	gridStyle.Dashes = []float64{1.0, 1.0}

	b := proj.bound
	for lon := math.Ceil(b.Min.Lon()/r.GridStep) * r.GridStep; lon <= b.Max.Lon(); lon += r.GridStep {
		x1, y1 := proj.toCanvas(orb.Point{lon, b.Min.Lat()})
		x2, y2 := proj.toCanvas(orb.Point{lon, b.Max.Lat()})
		line := &canvas.Path{}
		line.MoveTo(x1, y1)
		line.LineTo(x2, y2)
		renderer.RenderPath(line, gridStyle, canvas.Identity)
	}
	for lat := math.Ceil(b.Min.Lat()/r.GridStep) * r.GridStep; lat <= b.Max.Lat(); lat += r.GridStep {
		x1, y1 := proj.toCanvas(orb.Point{b.Min.Lon(), lat})
		x2, y2 := proj.toCanvas(orb.Point{b.Max.Lon(), lat})
		line := &canvas.Path{}
		line.MoveTo(x1, y1)
		line.LineTo(x2, y2)
		renderer.RenderPath(line, gridStyle, canvas.Identity)
	}
}
