package pilot

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/geojson"
)

// Feature kinds stored in the "kind" property
const (
	KindPoint = "point"
	KindRoute = "route"
)

func (p Point) orbPoint() orb.Point {
	return orb.Point{p.Longitude, p.Latitude}
}

// LineString returns the route's vertices in order
func (r Route) LineString() orb.LineString {
	ls := make(orb.LineString, len(r.Points))
	for i, p := range r.Points {
		ls[i] = p.orbPoint()
	}
	return ls
}

// Length returns the route's great-circle length in meters
func (r Route) Length() float64 {
	return geo.Length(r.LineString())
}

// Bound returns the bounding box of every stored point. ok is false for an
// empty collection.
func (c *WaypointCollection) Bound() (b orb.Bound, ok bool) {
	var mp orb.MultiPoint
	for _, p := range c.Points {
		mp = append(mp, p.orbPoint())
	}
	for _, r := range c.Routes {
		for _, p := range r.Points {
			mp = append(mp, p.orbPoint())
		}
	}
	if len(mp) == 0 {
		return orb.Bound{}, false
	}
	return mp.Bound(), true
}

// FeatureCollection converts the collection to GeoJSON in the same order as
// the KML output. A route with one vertex becomes a Point feature since a
// GeoJSON LineString needs two.
func (c *WaypointCollection) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	for _, p := range c.Points {
		f := geojson.NewFeature(p.orbPoint())
		f.Properties["name"] = p.Name
		f.Properties["kind"] = KindPoint
		fc.Append(f)
	}

	for _, r := range c.Routes {
		var f *geojson.Feature
		if len(r.Points) == 1 {
			f = geojson.NewFeature(r.Points[0].orbPoint())
		} else {
			f = geojson.NewFeature(r.LineString())
		}
		f.Properties["name"] = r.Name
		f.Properties["kind"] = KindRoute
		f.Properties["lengthMeters"] = r.Length()

		names := make([]string, len(r.Points))
		for i, p := range r.Points {
			names[i] = p.Name
		}
		f.Properties["pointNames"] = names
		fc.Append(f)
	}

	return fc
}

// CompileGeoJSON renders the collection as a GeoJSON FeatureCollection
func CompileGeoJSON(c *WaypointCollection) ([]byte, error) {
	data, err := c.FeatureCollection().MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("marshaling GeoJSON: %w", err)
	}
	return data, nil
}
