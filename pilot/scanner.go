package pilot

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"golang.org/x/image/draw"
)

// RGB is an opaque 8-bit color sample
type RGB struct {
	R, G, B uint8
}

// Distance returns the Manhattan distance between two colors (0..765)
func (c RGB) Distance(o RGB) int {
	return absDiff(c.R, o.R) + absDiff(c.G, o.G) + absDiff(c.B, o.B)
}

// Near reports whether o is strictly closer than tolerance to c
func (c RGB) Near(o RGB, tolerance int) bool {
	return c.Distance(o) < tolerance
}

// RGBA converts to an opaque color.RGBA
func (c RGB) RGBA() color.RGBA {
	return color.RGBA{c.R, c.G, c.B, 255}
}

func (c RGB) String() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

func absDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}

// ParseHexColor parses a color string like "#46474A" or "46474A"
func ParseHexColor(hex string) (RGB, error) {
	s := strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(s) != 6 {
		return RGB{}, fmt.Errorf("invalid color %q: want #RRGGBB", hex)
	}

	var c RGB
	if _, err := fmt.Sscanf(s, "%02x%02x%02x", &c.R, &c.G, &c.B); err != nil {
		return RGB{}, fmt.Errorf("invalid color %q: %w", hex, err)
	}
	return c, nil
}

// Raster is a captured screenshot normalized to RGBA with a zero origin
type Raster struct {
	img *image.RGBA
}

// NewRaster copies src into a zero-origin RGBA buffer
func NewRaster(src image.Image) *Raster {
	if rgba, ok := src.(*image.RGBA); ok && rgba.Bounds().Min == (image.Point{}) {
		return &Raster{img: rgba}
	}
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return &Raster{img: dst}
}

// Width in raster pixels
func (r *Raster) Width() int { return r.img.Bounds().Dx() }

// Height in raster pixels
func (r *Raster) Height() int { return r.img.Bounds().Dy() }

// Image exposes the underlying buffer
func (r *Raster) Image() *image.RGBA { return r.img }

// At returns the pixel at (x, y); alpha is ignored
func (r *Raster) At(x, y int) RGB {
	i := r.img.PixOffset(x, y)
	p := r.img.Pix[i : i+3 : i+3]
	return RGB{p[0], p[1], p[2]}
}

// Contains reports whether (x, y) lies inside the raster
func (r *Raster) Contains(p image.Point) bool {
	return p.In(r.img.Bounds())
}

// Direction is a unit walk vector in raster space
type Direction struct {
	DX, DY int
}

var (
	Right     = Direction{DX: 1}
	Left      = Direction{DX: -1}
	Down      = Direction{DY: 1}
	DownRight = Direction{DX: 1, DY: 1}
)

// Scan parameterizes a single linear pixel walk
type Scan struct {
	Start     image.Point
	Dir       Direction
	Step      int // pixels per step, 1 or 2; 0 means 1
	Limit     int // maximum number of samples; 0 walks to the raster edge
	Color     RGB
	Tolerance int
}

// Find walks the raster from s.Start and returns the first sampled position
// whose color is within tolerance of s.Color. The walk stops at the raster edge
// or after s.Limit samples and then fails with ErrControlNotFound.
func (r *Raster) Find(s Scan) (image.Point, error) {
	step := s.Step
	if step <= 0 {
		step = 1
	}
	if s.Dir == (Direction{}) {
		return image.Point{}, fmt.Errorf("scan from %v: zero direction", s.Start)
	}

	p := s.Start
	for n := 0; s.Limit == 0 || n < s.Limit; n++ {
		if !r.Contains(p) {
			break
		}
		if r.At(p.X, p.Y).Near(s.Color, s.Tolerance) {
			return p, nil
		}
		p = p.Add(image.Pt(s.Dir.DX*step, s.Dir.DY*step))
	}

	return image.Point{}, fmt.Errorf("no pixel near %s from %v: %w", s.Color, s.Start, ErrControlNotFound)
}
