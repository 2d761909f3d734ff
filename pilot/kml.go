package pilot

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

const (
	kmlNamespace = "http://www.opengis.net/kml/2.2"

	// RouteLineColor is the aabbggrr color of every route line
	RouteLineColor = "FFFEE7A6"
	// RouteLineWidth is the stroke width of every route line
	RouteLineWidth = 4
)

// CompileKML renders the collection as a KML 2.2 document: one Point
// placemark per free point in store order, then one LineString placemark per
// route. Identical collections produce identical bytes.
func CompileKML(c *WaypointCollection) ([]byte, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("kml")
	root.CreateAttr("xmlns", kmlNamespace)
	document := root.CreateElement("Document")

	for _, p := range c.Points {
		pm := document.CreateElement("Placemark")
		pm.CreateElement("name").SetText(p.Name)
		pm.CreateElement("Point").CreateElement("coordinates").SetText(kmlCoordinate(p))
	}

	for _, r := range c.Routes {
		pm := document.CreateElement("Placemark")
		pm.CreateElement("name").SetText(r.Name)

		line := pm.CreateElement("Style").CreateElement("LineStyle")
		line.CreateElement("color").SetText(RouteLineColor)
		line.CreateElement("width").SetText(strconv.Itoa(RouteLineWidth))

		coords := make([]string, len(r.Points))
		for i, p := range r.Points {
			coords[i] = kmlCoordinate(p)
		}
		pm.CreateElement("LineString").CreateElement("coordinates").SetText(strings.Join(coords, " "))
	}

	doc.Indent(2)
	out, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("writing KML: %w", err)
	}
	return out, nil
}

// WriteKML compiles c into path
func WriteKML(path string, c *WaypointCollection) error {
	data, err := CompileKML(c)
	if err != nil {
		return err
	}
	return writeFileAtomic(path, data)
}

// kmlCoordinate formats a point in KML's longitude,latitude order
func kmlCoordinate(p Point) string {
	return strconv.FormatFloat(p.Longitude, 'f', -1, 64) + "," + strconv.FormatFloat(p.Latitude, 'f', -1, 64)
}

// ParseKML reads Point and LineString placemarks back into a collection.
// Other geometry is ignored; route vertex names are not carried by KML and
// come back empty.
func ParseKML(data []byte) (*WaypointCollection, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("parsing KML: %w", err)
	}

	c := &WaypointCollection{}
	for _, pm := range doc.FindElements("//Placemark") {
		name := ""
		if el := pm.SelectElement("name"); el != nil {
			name = strings.TrimSpace(el.Text())
		}

		if el := pm.FindElement("Point/coordinates"); el != nil {
			pts, err := parseKMLCoordinates(el.Text())
			if err != nil {
				return nil, fmt.Errorf("placemark %q: %w", name, err)
			}
			if len(pts) > 0 {
				pts[0].Name = name
				c.Points = append(c.Points, pts[0])
			}
			continue
		}

		if el := pm.FindElement("LineString/coordinates"); el != nil {
			pts, err := parseKMLCoordinates(el.Text())
			if err != nil {
				return nil, fmt.Errorf("placemark %q: %w", name, err)
			}
			if len(pts) > 0 {
				c.Routes = append(c.Routes, Route{Name: name, Points: pts})
			}
		}
	}

	c.normalize()
	return c, nil
}

func parseKMLCoordinates(text string) ([]Point, error) {
	var pts []Point
	for _, tuple := range strings.Fields(text) {
		parts := strings.Split(tuple, ",")
		if len(parts) < 2 {
			return nil, fmt.Errorf("%w: coordinate %q", ErrValidation, tuple)
		}
		lat, lon, err := ParseCoordinates(parts[1], parts[0])
		if err != nil {
			return nil, err
		}
		pts = append(pts, Point{Latitude: lat, Longitude: lon})
	}
	return pts, nil
}
