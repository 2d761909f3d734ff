package pilot

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

func tempStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "waypoints.json"))
}

func seedStore(t *testing.T, s *Store, c *WaypointCollection) {
	t.Helper()
	require.NoError(t, s.Save(c))
}

func loadStore(t *testing.T, s *Store) *WaypointCollection {
	t.Helper()
	c, err := s.Load()
	require.NoError(t, err)
	return c
}

func sampleCollection() *WaypointCollection {
	return &WaypointCollection{
		Points: []Point{
			{Name: "A", Latitude: 1, Longitude: 2},
			{Name: "B", Latitude: 3, Longitude: 4},
			{Name: "A", Latitude: 5, Longitude: 6},
		},
		Routes: []Route{
			{Name: "R1", Points: []Point{
				{Name: "x", Latitude: 10, Longitude: 20},
				{Name: "y", Latitude: 11, Longitude: 21},
				{Name: "x", Latitude: 12, Longitude: 22},
			}},
			{Name: "R2", Points: []Point{{Name: "only", Latitude: -1, Longitude: -2}}},
		},
	}
}

// ---------------------------------------------------------------------------
// Load / Save
// ---------------------------------------------------------------------------

func TestStore_LoadMissingFileIsEmpty(t *testing.T) {
	c := loadStore(t, tempStore(t))
	assert.Empty(t, c.Points)
	assert.Empty(t, c.Routes)
	assert.NotNil(t, c.Points)
	assert.NotNil(t, c.Routes)
}

func TestStore_SaveWritesBothArrays(t *testing.T) {
	s := tempStore(t)
	seedStore(t, s, &WaypointCollection{})

	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.JSONEq(t, `[]`, string(raw["points"]))
	assert.JSONEq(t, `[]`, string(raw["routes"]))
}

func TestStore_FileFormat(t *testing.T) {
	s := tempStore(t)
	require.NoError(t, s.AddPoint("A", "", 1, 2))
	require.NoError(t, s.AddPoint("B", "R1", 3, 4))

	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"points": [{"name": "A", "latitude": 1, "longitude": 2}],
		"routes": [{"name": "R1", "points": [{"name": "B", "latitude": 3, "longitude": 4}]}]
	}`, string(data))
}

func TestStore_LoadCorruptFile(t *testing.T) {
	s := tempStore(t)
	require.NoError(t, os.WriteFile(s.Path(), []byte("{not json"), 0644))

	_, err := s.Load()
	assert.Error(t, err)

	_, _, err = s.RemovePoint("", "")
	assert.Error(t, err, "I/O failures are the only error returns")
}

func TestStore_SaveLeavesNoTempFiles(t *testing.T) {
	s := tempStore(t)
	seedStore(t, s, sampleCollection())

	entries, err := os.ReadDir(filepath.Dir(s.Path()))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "waypoints.json", entries[0].Name())
}

// ---------------------------------------------------------------------------
// AddPoint
// ---------------------------------------------------------------------------

func TestStore_AddPointScenario(t *testing.T) {
	s := tempStore(t)
	seedStore(t, s, &WaypointCollection{Points: []Point{{Name: "A", Latitude: 1, Longitude: 2}}})

	require.NoError(t, s.AddPoint("B", "R1", 3, 4))

	assert.Equal(t, &WaypointCollection{
		Points: []Point{{Name: "A", Latitude: 1, Longitude: 2}},
		Routes: []Route{{Name: "R1", Points: []Point{{Name: "B", Latitude: 3, Longitude: 4}}}},
	}, loadStore(t, s))
}

func TestCollection_AddPointAppendsToExistingRoute(t *testing.T) {
	c := sampleCollection()
	c.AddPoint("z", "R2", 7, 8)

	route, ok := c.FindRoute("R2")
	require.True(t, ok)
	assert.Equal(t, []Point{
		{Name: "only", Latitude: -1, Longitude: -2},
		{Name: "z", Latitude: 7, Longitude: 8},
	}, route.Points)
	assert.Len(t, c.Routes, 2)
}

func TestCollection_AddPointDoesNotValidate(t *testing.T) {
	c := &WaypointCollection{}
	c.AddPoint("far", "", 500, -900)
	assert.Equal(t, Point{Name: "far", Latitude: 500, Longitude: -900}, c.Points[0])
}

// ---------------------------------------------------------------------------
// RemovePoint
// ---------------------------------------------------------------------------

func TestCollection_RemovePoint(t *testing.T) {
	tests := []struct {
		name    string
		point   string
		route   string
		removed Point
		check   func(t *testing.T, c *WaypointCollection)
	}{
		{
			name:    "empty name removes last free point",
			removed: Point{Name: "A", Latitude: 5, Longitude: 6},
			check: func(t *testing.T, c *WaypointCollection) {
				assert.Equal(t, []string{"A", "B"}, pointNames(c.Points))
			},
		},
		{
			name:    "name removes most recent match",
			point:   "A",
			removed: Point{Name: "A", Latitude: 5, Longitude: 6},
			check: func(t *testing.T, c *WaypointCollection) {
				assert.Equal(t, Point{Name: "A", Latitude: 1, Longitude: 2}, c.Points[0])
				assert.Len(t, c.Points, 2)
			},
		},
		{
			name:    "name in route removes most recent match",
			point:   "x",
			route:   "R1",
			removed: Point{Name: "x", Latitude: 12, Longitude: 22},
			check: func(t *testing.T, c *WaypointCollection) {
				r, _ := c.FindRoute("R1")
				assert.Equal(t, []string{"x", "y"}, pointNames(r.Points))
				assert.Equal(t, 10.0, r.Points[0].Latitude)
			},
		},
		{
			name:    "emptied route is deleted",
			route:   "R2",
			removed: Point{Name: "only", Latitude: -1, Longitude: -2},
			check: func(t *testing.T, c *WaypointCollection) {
				_, ok := c.FindRoute("R2")
				assert.False(t, ok)
				assert.Len(t, c.Routes, 1)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := sampleCollection()
			removed, err := c.RemovePoint(tt.point, tt.route)
			require.NoError(t, err)
			assert.Equal(t, tt.removed, removed)
			tt.check(t, c)
		})
	}
}

func TestCollection_FreeListSurvivesEmptying(t *testing.T) {
	c := &WaypointCollection{Points: []Point{{Name: "A"}}}
	_, err := c.RemovePoint("", "")
	require.NoError(t, err)

	assert.NotNil(t, c.Points)
	assert.Empty(t, c.Points)

	_, err = c.RemovePoint("", "")
	assert.ErrorIs(t, err, ErrEntryNotFound)
}

func TestStore_RemovePointMessages(t *testing.T) {
	s := tempStore(t)
	seedStore(t, s, sampleCollection())

	ok, routeMsg, err := s.RemovePoint("x", "nope")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Contains(t, routeMsg, "route not found")

	ok, nameMsg, err := s.RemovePoint("ghost", "")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Contains(t, nameMsg, `no point named "ghost"`)

	empty := tempStore(t)
	ok, emptyMsg, err := empty.RemovePoint("", "")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Contains(t, emptyMsg, "nothing to remove")

	assert.NotEqual(t, routeMsg, nameMsg)
	assert.NotEqual(t, nameMsg, emptyMsg)

	ok, msg, err := s.RemovePoint("B", "")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Contains(t, msg, `"B"`)
}

func TestStore_RemoveFromMissingRouteLeavesFileUntouched(t *testing.T) {
	s := tempStore(t)
	seedStore(t, s, sampleCollection())
	before, err := os.ReadFile(s.Path())
	require.NoError(t, err)

	ok, _, err := s.RemovePoint("", "missing")
	require.NoError(t, err)
	require.False(t, ok)

	after, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestStore_AddThenRemoveRestoresState(t *testing.T) {
	cases := []struct {
		name  string
		route string
	}{
		{"A", ""},
		{"", ""},
		{"x", "R1"},
		{"new", "R9"},
		{"", "R2"},
	}

	for _, tc := range cases {
		t.Run(tc.name+"@"+tc.route, func(t *testing.T) {
			s := tempStore(t)
			seedStore(t, s, sampleCollection())
			before := loadStore(t, s)

			require.NoError(t, s.AddPoint(tc.name, tc.route, 45.5, -122.25))
			ok, msg, err := s.RemovePoint(tc.name, tc.route)
			require.NoError(t, err)
			require.True(t, ok, msg)

			assert.Equal(t, before, loadStore(t, s))
		})
	}
}

func pointNames(pts []Point) []string {
	names := make([]string, len(pts))
	for i, p := range pts {
		names[i] = p.Name
	}
	return names
}
