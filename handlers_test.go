package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kwv/nautilus/pilot"
)

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

// populatedStore returns a store holding one free point and a two-point route
func populatedStore(t *testing.T) *pilot.Store {
	t.Helper()
	store := pilot.NewStore(filepath.Join(t.TempDir(), "waypoints.json"))
	c := &pilot.WaypointCollection{}
	c.AddPoint("Lighthouse", "", 48.3583, -4.7710)
	c.AddPoint("Start", "Approach", 48.36, -4.76)
	c.AddPoint("End", "Approach", 48.37, -4.75)
	require.NoError(t, store.Save(c))
	return store
}

func emptyStore(t *testing.T) *pilot.Store {
	return pilot.NewStore(filepath.Join(t.TempDir(), "waypoints.json"))
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// ---------------------------------------------------------------------------
// /health
// ---------------------------------------------------------------------------

func TestHealth(t *testing.T) {
	h := newHTTPServer(populatedStore(t), pilot.NewPreviewRenderer())
	rec := get(t, h, "/health")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body struct {
		Status string `json:"status"`
		Points int    `json:"points"`
		Routes int    `json:"routes"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, 3, body.Points)
	assert.Equal(t, 1, body.Routes)
}

func TestHealth_CorruptStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "waypoints.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0644))

	h := newHTTPServer(pilot.NewStore(path), pilot.NewPreviewRenderer())
	rec := get(t, h, "/health")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"degraded"`)
}

// ---------------------------------------------------------------------------
// exports
// ---------------------------------------------------------------------------

func TestWaypointsJSON(t *testing.T) {
	h := newHTTPServer(populatedStore(t), pilot.NewPreviewRenderer())
	rec := get(t, h, "/waypoints.json")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))

	var c pilot.WaypointCollection
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &c))
	assert.Len(t, c.Points, 1)
	require.Len(t, c.Routes, 1)
	assert.Equal(t, "Approach", c.Routes[0].Name)
}

func TestWaypointsKML(t *testing.T) {
	h := newHTTPServer(populatedStore(t), pilot.NewPreviewRenderer())
	rec := get(t, h, "/waypoints.kml")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/vnd.google-earth.kml+xml", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.Contains(t, body, "<kml")
	assert.Contains(t, body, "<name>Lighthouse</name>")
	assert.Contains(t, body, "<LineString>")
}

func TestWaypointsGeoJSON(t *testing.T) {
	h := newHTTPServer(populatedStore(t), pilot.NewPreviewRenderer())
	rec := get(t, h, "/waypoints.geojson")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/geo+json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `"FeatureCollection"`)
}

func TestExports_EmptyStore(t *testing.T) {
	h := newHTTPServer(emptyStore(t), pilot.NewPreviewRenderer())

	rec := get(t, h, "/waypoints.json")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"points":[],"routes":[]}`, rec.Body.String())

	rec = get(t, h, "/waypoints.kml")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<Document")
}

func TestExports_CorruptStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "waypoints.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0644))
	h := newHTTPServer(pilot.NewStore(path), pilot.NewPreviewRenderer())

	for _, p := range []string{"/waypoints.json", "/waypoints.kml", "/waypoints.geojson", "/preview.svg"} {
		rec := get(t, h, p)
		assert.Equal(t, http.StatusInternalServerError, rec.Code, p)
	}
}

func TestExports_MethodNotAllowed(t *testing.T) {
	h := newHTTPServer(populatedStore(t), pilot.NewPreviewRenderer())

	req := httptest.NewRequest(http.MethodPost, "/waypoints.json", strings.NewReader("{}"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

// ---------------------------------------------------------------------------
// previews
// ---------------------------------------------------------------------------

func TestPreviewSVG(t *testing.T) {
	h := newHTTPServer(populatedStore(t), pilot.NewPreviewRenderer())
	rec := get(t, h, "/preview.svg")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<svg")
}

func TestPreviewPNG(t *testing.T) {
	h := newHTTPServer(populatedStore(t), pilot.NewPreviewRenderer())
	rec := get(t, h, "/preview.png")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "\x89PNG"))
}

func TestPreview_EmptyStore(t *testing.T) {
	h := newHTTPServer(emptyStore(t), pilot.NewPreviewRenderer())

	for _, p := range []string{"/preview.svg", "/preview.png"} {
		rec := get(t, h, p)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, p)
	}
}
