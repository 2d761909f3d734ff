package pilot

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// DecodeScreenshot decodes a PNG screenshot
func DecodeScreenshot(r io.Reader) (image.Image, error) {
	img, err := png.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decoding screenshot: %w", err)
	}
	return img, nil
}

// Marker labels a located position on a calibration snapshot
type Marker struct {
	Label string
	At    image.Point
}

var (
	markerColor = color.RGBA{255, 0, 255, 255}
	labelColor  = color.RGBA{255, 255, 0, 255}
)

// Annotate returns a copy of the raster with a ring and label at each marker
func Annotate(r *Raster, markers []Marker) *image.RGBA {
	src := r.Image()
	out := image.NewRGBA(src.Bounds())
	draw.Draw(out, out.Bounds(), src, image.Point{}, draw.Src)

	for _, m := range markers {
		drawRing(out, m.At.X, m.At.Y, 8, markerColor)
		drawText(out, m.At.X+12, m.At.Y+4, m.Label, labelColor)
	}
	return out
}

// ScaleToCanvas resamples a device-resolution capture to the logical canvas size
func ScaleToCanvas(img image.Image, g CanvasGeometry) *image.RGBA {
	w, h := int(g.Width), int(g.Height)
	if w <= 0 || h <= 0 {
		w, h = img.Bounds().Dx(), img.Bounds().Dy()
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

// WritePNG encodes img as PNG
func WritePNG(w io.Writer, img image.Image) error {
	return png.Encode(w, img)
}

func drawRing(img *image.RGBA, cx, cy, radius int, c color.RGBA) {
	inner := (radius - 2) * (radius - 2)
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			d := dx*dx + dy*dy
			if d <= radius*radius && d >= inner {
				px, py := cx+dx, cy+dy
				if image.Pt(px, py).In(img.Bounds()) {
					img.SetRGBA(px, py, c)
				}
			}
		}
	}
	for i := -2; i <= 2; i++ {
		if image.Pt(cx+i, cy).In(img.Bounds()) {
			img.SetRGBA(cx+i, cy, c)
		}
		if image.Pt(cx, cy+i).In(img.Bounds()) {
			img.SetRGBA(cx, cy+i, c)
		}
	}
}

func drawText(img *image.RGBA, x, y int, text string, c color.RGBA) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}
