package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kwv/nautilus/pilot"
)

// connectWait bounds how long one-shot commands wait for the broker
const connectWait = 5 * time.Second

// App encapsulates the application state and dependencies
type App struct {
	Config     *pilot.Config
	Store      *pilot.Store
	Session    *pilot.Session
	MQTTClient *pilot.MQTTClient
	Publisher  *pilot.Publisher

	ConfigFile string
}

// loadApp reads the configuration and wires the store, the browser session
// and, when a broker is configured, the MQTT feed.
func loadApp(configPath string) (*App, error) {
	return newApp(configPath, pilot.LaunchChrome)
}

func newApp(configPath string, launch pilot.Launcher) (*App, error) {
	config, err := pilot.LoadConfigOrDefault(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w (looked at %s)", err, configPath)
	}

	session, err := pilot.NewSession(config, launch)
	if err != nil {
		return nil, err
	}

	return &App{
		Config:     config,
		Store:      pilot.NewStore(config.Store.Path),
		Session:    session,
		ConfigFile: configPath,
	}, nil
}

// StartMQTT connects the waypoint feed if a broker is configured
func (a *App) StartMQTT() error {
	mqttClient, err := pilot.InitMQTT(a.Config)
	if err != nil {
		return fmt.Errorf("failed to initialize MQTT: %w", err)
	}
	if mqttClient == nil {
		return nil
	}
	a.MQTTClient = mqttClient
	a.Publisher = pilot.NewConfiguredPublisher(mqttClient.GetClient(), a.Config)
	return nil
}

// Close releases the browser and the broker connection
func (a *App) Close() {
	if err := a.Session.Disconnect(); err != nil {
		log.Printf("Warning: closing browser: %v", err)
	}
	if a.MQTTClient != nil {
		a.MQTTClient.Disconnect()
	}
}

// AddPoint validates the typed coordinates and appends a point to the store
func (a *App) AddPoint(name, route, latText, lonText string) (string, error) {
	lat, lon, err := pilot.ParseCoordinates(latText, lonText)
	if err != nil {
		return "", err
	}
	if err := a.Store.AddPoint(name, route, lat, lon); err != nil {
		return "", err
	}
	if err := a.afterChange(); err != nil {
		return "", err
	}

	msg := fmt.Sprintf("added %q (%g, %g)", name, lat, lon)
	if route != "" {
		msg += fmt.Sprintf(" to route %q", route)
	}
	return msg, nil
}

// RemovePoint removes a point from the store. Not-found outcomes come back
// as ok=false with a message.
func (a *App) RemovePoint(name, route string) (bool, string, error) {
	ok, msg, err := a.Store.RemovePoint(name, route)
	if err != nil || !ok {
		return ok, msg, err
	}
	return ok, msg, a.afterChange()
}

// afterChange rewrites the exchange file and republishes the feed
func (a *App) afterChange() error {
	c, err := a.Store.Load()
	if err != nil {
		return err
	}

	if a.Config.Store.KMLPath != "" {
		if err := pilot.WriteKML(a.Config.Store.KMLPath, c); err != nil {
			return err
		}
	}

	if a.Publisher.Enabled() {
		if err := a.Publisher.PublishCollection(c); err != nil {
			log.Printf("Warning: failed to publish waypoints: %v", err)
		}
	}
	return nil
}

// Connect brings the browser session online
func (a *App) Connect(ctx context.Context) error {
	if err := a.Session.Connect(ctx); err != nil {
		a.publishStatus(false, err.Error())
		return err
	}
	a.publishStatus(true, "")
	return nil
}

// IsOnline reports whether the browser session is up
func (a *App) IsOnline() bool {
	return a.Session.IsOnline()
}

// Disconnect takes the browser session offline
func (a *App) Disconnect() error {
	err := a.Session.Disconnect()
	a.publishStatus(false, "")
	return err
}

func (a *App) publishStatus(online bool, message string) {
	if !a.Publisher.Enabled() {
		return
	}
	if err := a.Publisher.PublishStatus(online, message); err != nil {
		log.Printf("Warning: failed to publish status: %v", err)
	}
}

// Push compiles the store and drops it onto the map
func (a *App) Push(ctx context.Context, opts pilot.UpdateOptions) (*pilot.UpdateReport, error) {
	c, err := a.Store.Load()
	if err != nil {
		return nil, err
	}
	kml, err := pilot.CompileKML(c)
	if err != nil {
		return nil, err
	}
	if a.Config.Store.KMLPath != "" {
		if err := pilot.WriteKML(a.Config.Store.KMLPath, c); err != nil {
			return nil, err
		}
	}
	return a.Session.UpdateMap(ctx, kml, opts)
}

// RunServe starts the HTTP server and the MQTT feed and blocks until interrupted
func (a *App) RunServe() error {
	fmt.Println("Starting nautilus service...")

	if err := a.StartMQTT(); err != nil {
		return err
	}

	if c, err := a.Store.Load(); err != nil {
		log.Printf("Warning: Failed to load store %s: %v", a.Store.Path(), err)
	} else {
		log.Printf("Loaded %d waypoints in %d routes from %s", c.Len(), len(c.Routes), a.Store.Path())
		if a.MQTTClient != nil && a.MQTTClient.WaitConnected(connectWait) {
			if err := a.Publisher.PublishCollection(c); err != nil {
				log.Printf("Warning: failed to publish waypoints: %v", err)
			}
		}
	}

	port := a.Config.HTTP.Port
	httpServer := newHTTPServer(a.Store, pilot.NewPreviewRenderer())
	go func() {
		addr := fmt.Sprintf("0.0.0.0:%d", port)
		log.Printf("[HTTP] Starting server on %s", addr)
		if err := http.ListenAndServe(addr, httpServer); err != nil {
			log.Fatalf("[HTTP] Server error: %v", err)
		}
		log.Printf("[HTTP] Server stopped unexpectedly")
	}()

	fmt.Println("\nService Running")
	fmt.Println("===============")

	if a.Publisher.Enabled() {
		fmt.Println("\nMQTT:")
		fmt.Printf("  Connected: %v\n", a.MQTTClient.IsConnected())
		fmt.Printf("  Waypoints: %s\n", a.Publisher.Topic("waypoints"))
		fmt.Printf("  KML:       %s\n", a.Publisher.Topic("kml"))
	}

	fmt.Printf("\nHTTP endpoints (port %d):\n", port)
	fmt.Println("  GET /health            - Health check")
	fmt.Println("  GET /waypoints.json    - Store contents")
	fmt.Println("  GET /waypoints.kml     - Compiled KML")
	fmt.Println("  GET /waypoints.geojson - GeoJSON feature collection")
	fmt.Println("  GET /preview.svg       - Vector preview")
	fmt.Println("  GET /preview.png       - Raster preview")

	fmt.Println("\nPress Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan

	fmt.Println("\nShutting down service...")
	if a.MQTTClient != nil {
		a.MQTTClient.Disconnect()
	}
	fmt.Println("Service stopped")
	return nil
}
