package pilot

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write config fixture: %v", err)
	}
	return path
}

// ---------------------------------------------------------------------------
// LoadConfig
// ---------------------------------------------------------------------------

func TestLoadConfig_NotExists(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error for missing config file, got nil")
	}
}

func TestLoadConfig_PartialKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `app:
  headless: true
  loadTimeout: 45s
store:
  path: /tmp/boat.json
locator:
  sidebar:
    tolerance: 12
mqtt:
  broker: tcp://localhost:1883
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.True(t, cfg.App.Headless)
	assert.Equal(t, 45*time.Second, cfg.App.LoadTimeout)
	assert.Equal(t, "#earth-canvas", cfg.App.CanvasSelector)
	assert.Equal(t, "/tmp/boat.json", cfg.Store.Path)
	assert.Equal(t, "waypoints.kml", cfg.Store.KMLPath)
	assert.Equal(t, 12, cfg.Locator.Sidebar.Tolerance)
	assert.Equal(t, "#464744", cfg.Locator.Sidebar.Color)
	assert.Equal(t, 32, cfg.Locator.HideGlyph.ColumnOffset)
	assert.Equal(t, "tcp://localhost:1883", cfg.MQTT.Broker)
	assert.True(t, cfg.MQTT.Retain)
	assert.Equal(t, byte(0), cfg.MQTT.QoS)
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "app: [unterminated")
	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfig_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"bad color", "locator:\n  sidebar:\n    color: gray\n", "locator.sidebar.color"},
		{"zero tolerance", "locator:\n  resultsIcon:\n    iconTolerance: 0\n", "iconTolerance"},
		{"bad step", "locator:\n  resultsIcon:\n    step: 3\n", "step"},
		{"empty url", "app:\n  url: \"\"\n", "app.url"},
		{"negative top bar", "locator:\n  topBarHeight: -1\n", "topBarHeight"},
		{"qos out of range", "mqtt:\n  qos: 3\n", "mqtt.qos"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadConfigOrDefault(t *testing.T) {
	cfg, err := LoadConfigOrDefault(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestDefaultConfig_Valid(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}

// ---------------------------------------------------------------------------
// SaveConfig
// ---------------------------------------------------------------------------

func TestSaveConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := DefaultConfig()
	cfg.Store.KMLName = "route.kml"
	cfg.Locator.HideGlyph.ColumnOffset = 28

	require.NoError(t, SaveConfig(path, cfg))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestKMLFileName(t *testing.T) {
	assert.Equal(t, "custom.kml", StoreConfig{KMLName: "custom.kml", KMLPath: "/x/y.kml"}.KMLFileName())
	assert.Equal(t, "y.kml", StoreConfig{KMLPath: "/x/y.kml"}.KMLFileName())
	assert.Equal(t, "waypoints.kml", StoreConfig{}.KMLFileName())
}
