package pilot

import (
	"encoding/json"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeatureCollection_OrderAndKinds(t *testing.T) {
	fc := sampleCollection().FeatureCollection()
	require.Len(t, fc.Features, 5)

	for i, want := range []string{"A", "B", "A", "R1", "R2"} {
		assert.Equal(t, want, fc.Features[i].Properties["name"])
	}
	assert.Equal(t, KindPoint, fc.Features[0].Properties["kind"])
	assert.Equal(t, KindRoute, fc.Features[3].Properties["kind"])

	assert.Equal(t, orb.Point{2, 1}, fc.Features[0].Geometry)
	assert.Equal(t, orb.LineString{{20, 10}, {21, 11}, {22, 12}}, fc.Features[3].Geometry)
	assert.Equal(t, orb.Point{-2, -1}, fc.Features[4].Geometry, "single-vertex route")
}

func TestCompileGeoJSON(t *testing.T) {
	data, err := CompileGeoJSON(&WaypointCollection{
		Points: []Point{{Name: "A", Latitude: 1, Longitude: 2}},
	})
	require.NoError(t, err)

	fc, err := geojson.UnmarshalFeatureCollection(data)
	require.NoError(t, err)
	require.Len(t, fc.Features, 1)
	assert.Equal(t, orb.Point{2, 1}, fc.Features[0].Geometry)
}

func TestCompileGeoJSON_Empty(t *testing.T) {
	data, err := CompileGeoJSON(&WaypointCollection{})
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "FeatureCollection", raw["type"])
	assert.Empty(t, raw["features"])
}

func TestRoute_Length(t *testing.T) {
	// One degree of latitude is roughly 111 km.
	r := Route{Points: []Point{{Latitude: 0, Longitude: 0}, {Latitude: 1, Longitude: 0}}}
	assert.InDelta(t, 111_195, r.Length(), 500)

	assert.Equal(t, 0.0, Route{Points: []Point{{Latitude: 5, Longitude: 5}}}.Length())
}

func TestCollection_Bound(t *testing.T) {
	_, ok := (&WaypointCollection{}).Bound()
	assert.False(t, ok)

	b, ok := sampleCollection().Bound()
	require.True(t, ok)
	assert.Equal(t, orb.Point{-2, -1}, b.Min)
	assert.Equal(t, orb.Point{22, 12}, b.Max)
}
