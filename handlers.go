package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/kwv/nautilus/pilot"
)

// newHTTPServer creates an HTTP server with all endpoints
func newHTTPServer(store *pilot.Store, renderer *pilot.PreviewRenderer) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		log.Printf("[HTTP] /health request from %s", r.RemoteAddr)
		w.Header().Set("Content-Type", "application/json")

		status := struct {
			Status    string    `json:"status"`
			Timestamp time.Time `json:"timestamp"`
			Points    int       `json:"points"`
			Routes    int       `json:"routes"`
		}{
			Status:    "ok",
			Timestamp: time.Now(),
		}
		if c, err := store.Load(); err != nil {
			status.Status = "degraded"
		} else {
			status.Points = c.Len()
			status.Routes = len(c.Routes)
		}
		if err := json.NewEncoder(w).Encode(status); err != nil {
			log.Printf("Error encoding health status: %v", err)
		}
	})

	mux.HandleFunc("/waypoints.json", func(w http.ResponseWriter, r *http.Request) {
		c, ok := loadForRequest(w, r, store)
		if !ok {
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-cache")
		if err := json.NewEncoder(w).Encode(c); err != nil {
			log.Printf("Error encoding waypoints: %v", err)
		}
	})

	mux.HandleFunc("/waypoints.kml", func(w http.ResponseWriter, r *http.Request) {
		c, ok := loadForRequest(w, r, store)
		if !ok {
			return
		}
		data, err := pilot.CompileKML(c)
		if err != nil {
			log.Printf("Error compiling KML: %v", err)
			http.Error(w, "Failed to compile KML", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/vnd.google-earth.kml+xml")
		w.Header().Set("Cache-Control", "no-cache")
		if _, err := w.Write(data); err != nil {
			log.Printf("Error writing KML: %v", err)
		}
	})

	mux.HandleFunc("/waypoints.geojson", func(w http.ResponseWriter, r *http.Request) {
		c, ok := loadForRequest(w, r, store)
		if !ok {
			return
		}
		data, err := pilot.CompileGeoJSON(c)
		if err != nil {
			log.Printf("Error compiling GeoJSON: %v", err)
			http.Error(w, "Failed to compile GeoJSON", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/geo+json")
		w.Header().Set("Cache-Control", "no-cache")
		if _, err := w.Write(data); err != nil {
			log.Printf("Error writing GeoJSON: %v", err)
		}
	})

	mux.HandleFunc("/preview.svg", func(w http.ResponseWriter, r *http.Request) {
		servePreview(w, r, store, "image/svg+xml", renderer.RenderToSVG)
	})

	mux.HandleFunc("/preview.png", func(w http.ResponseWriter, r *http.Request) {
		servePreview(w, r, store, "image/png", renderer.RenderToPNG)
	})

	return mux
}

// loadForRequest reads the store for a GET request and writes the error
// response itself when that fails.
func loadForRequest(w http.ResponseWriter, r *http.Request, store *pilot.Store) (*pilot.WaypointCollection, bool) {
	log.Printf("[HTTP] %s request from %s", r.URL.Path, r.RemoteAddr)
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return nil, false
	}
	c, err := store.Load()
	if err != nil {
		log.Printf("Error loading store: %v", err)
		http.Error(w, "Failed to load waypoints", http.StatusInternalServerError)
		return nil, false
	}
	return c, true
}

func servePreview(w http.ResponseWriter, r *http.Request, store *pilot.Store, contentType string,
	render func(w io.Writer, c *pilot.WaypointCollection) error) {
	c, ok := loadForRequest(w, r, store)
	if !ok {
		return
	}
	if c.Len() == 0 {
		http.Error(w, "No waypoints available", http.StatusServiceUnavailable)
		return
	}

	// Buffered so a render failure can still set the status code.
	var buf bytes.Buffer
	if err := render(&buf, c); err != nil {
		log.Printf("Error rendering preview: %v", err)
		http.Error(w, "Failed to render preview", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "no-cache")
	if _, err := w.Write(buf.Bytes()); err != nil {
		log.Printf("Error writing preview: %v", err)
	}
}
