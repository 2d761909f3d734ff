package pilot

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is where the CLI looks for configuration by default
const DefaultConfigPath = "config.yaml"

// DefaultConfig returns the configuration matching the layout the locator
// constants were measured against.
func DefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			URL:            "https://earth.google.com/web",
			CanvasSelector: "#earth-canvas",
			LoadPredicate:  `window.location.href.indexOf("@") !== -1`,
			LoadTimeout:    30 * time.Second,
			ProfileDir:     "Local",
			WindowWidth:    1280,
			WindowHeight:   800,
		},
		Store: StoreConfig{
			Path:    "waypoints.json",
			KMLPath: "waypoints.kml",
		},
		Locator: LocatorConfig{
			TopBarHeight: 72,
			Sidebar: SidebarConfig{
				Color:     "#464744",
				Tolerance: 5,
			},
			HideGlyph: HideGlyphConfig{
				Column:            24,
				SeedRow:           72,
				BoundaryColor:     "#202124",
				BoundaryTolerance: 10,
				GlyphColor:        "#FFFFFF",
				GlyphTolerance:    10,
				ColumnOffset:      32,
			},
			ResultsIcon: ResultsIconConfig{
				DividerColor:     "#5F6368",
				DividerTolerance: 10,
				PanelColor:       "#202124",
				PanelTolerance:   10,
				IconColor:        "#8AB4F8",
				IconTolerance:    10,
				Step:             2,
			},
		},
		MQTT: MQTTConfig{
			PublishPrefix: "nautilus",
			ClientID:      "nautilus",
			Retain:        true,
		},
		HTTP: HTTPConfig{
			Port: 8080,
		},
	}
}

// LoadConfig loads the configuration from a YAML file. Keys absent from the
// file keep their DefaultConfig values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// LoadConfigOrDefault loads path if it exists and falls back to DefaultConfig otherwise
func LoadConfigOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	return LoadConfig(path)
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(path string, config *Config) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("marshaling config YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// Validate checks required fields and that every locator color parses
func (c *Config) Validate() error {
	if c.App.URL == "" {
		return fmt.Errorf("app.url is required")
	}
	if c.App.CanvasSelector == "" {
		return fmt.Errorf("app.canvasSelector is required")
	}
	if c.Store.Path == "" {
		return fmt.Errorf("store.path is required")
	}
	if c.MQTT.QoS > 2 {
		return fmt.Errorf("mqtt.qos must be 0, 1 or 2, got %d", c.MQTT.QoS)
	}
	if c.Locator.TopBarHeight < 0 {
		return fmt.Errorf("locator.topBarHeight must not be negative")
	}

	colors := map[string]string{
		"locator.sidebar.color":            c.Locator.Sidebar.Color,
		"locator.hideGlyph.boundaryColor":  c.Locator.HideGlyph.BoundaryColor,
		"locator.hideGlyph.glyphColor":     c.Locator.HideGlyph.GlyphColor,
		"locator.resultsIcon.dividerColor": c.Locator.ResultsIcon.DividerColor,
		"locator.resultsIcon.panelColor":   c.Locator.ResultsIcon.PanelColor,
		"locator.resultsIcon.iconColor":    c.Locator.ResultsIcon.IconColor,
	}
	for key, hex := range colors {
		if _, err := ParseHexColor(hex); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}

	tolerances := map[string]int{
		"locator.sidebar.tolerance":            c.Locator.Sidebar.Tolerance,
		"locator.hideGlyph.boundaryTolerance":  c.Locator.HideGlyph.BoundaryTolerance,
		"locator.hideGlyph.glyphTolerance":     c.Locator.HideGlyph.GlyphTolerance,
		"locator.resultsIcon.dividerTolerance": c.Locator.ResultsIcon.DividerTolerance,
		"locator.resultsIcon.panelTolerance":   c.Locator.ResultsIcon.PanelTolerance,
		"locator.resultsIcon.iconTolerance":    c.Locator.ResultsIcon.IconTolerance,
	}
	for key, tol := range tolerances {
		if tol <= 0 || tol > 3*255 {
			return fmt.Errorf("%s must be in (0, 765], got %d", key, tol)
		}
	}

	if step := c.Locator.ResultsIcon.Step; step != 1 && step != 2 {
		return fmt.Errorf("locator.resultsIcon.step must be 1 or 2, got %d", step)
	}

	return nil
}

// KMLFileName is the name the synthetic drop gives the exchange file
func (s StoreConfig) KMLFileName() string {
	if s.KMLName != "" {
		return s.KMLName
	}
	if s.KMLPath != "" {
		return filepath.Base(s.KMLPath)
	}
	return "waypoints.kml"
}
