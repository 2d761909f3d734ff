package pilot

import "time"

// Point is a named geographic position in decimal degrees
type Point struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Route is a named, ordered sequence of points. A stored route is never empty.
type Route struct {
	Name   string  `json:"name"`
	Points []Point `json:"points"`
}

// WaypointCollection is the persisted aggregate of free points and routes
type WaypointCollection struct {
	Points []Point `json:"points"`
	Routes []Route `json:"routes"`
}

// ControlLocation is a click target relative to the canvas center, in logical
// canvas pixels. It is only meaningful for the geometry it was computed from.
type ControlLocation struct {
	ColumnOffset int `json:"columnOffset"`
	RowOffset    int `json:"rowOffset"`
}

// CanvasGeometry is the logical box of the target canvas as reported by the page
type CanvasGeometry struct {
	Left   float64 `json:"x"`
	Top    float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Config represents the full configuration file
type Config struct {
	App     AppConfig     `yaml:"app" json:"app"`
	Store   StoreConfig   `yaml:"store" json:"store"`
	Locator LocatorConfig `yaml:"locator" json:"locator"`
	MQTT    MQTTConfig    `yaml:"mqtt" json:"mqtt"`
	HTTP    HTTPConfig    `yaml:"http" json:"http"`
}

// AppConfig describes the remote mapping application and the browser hosting it
type AppConfig struct {
	URL            string        `yaml:"url" json:"url"`
	CanvasSelector string        `yaml:"canvasSelector" json:"canvasSelector"`
	LoadPredicate  string        `yaml:"loadPredicate" json:"loadPredicate"`
	LoadTimeout    time.Duration `yaml:"loadTimeout" json:"loadTimeout"`
	ProfileDir     string        `yaml:"profileDir" json:"profileDir"`
	Headless       bool          `yaml:"headless" json:"headless"`
	WindowWidth    int           `yaml:"windowWidth" json:"windowWidth"`
	WindowHeight   int           `yaml:"windowHeight" json:"windowHeight"`
}

// StoreConfig holds the waypoint store and exchange file locations
type StoreConfig struct {
	Path    string `yaml:"path" json:"path"`
	KMLPath string `yaml:"kmlPath" json:"kmlPath"`
	KMLName string `yaml:"kmlName,omitempty" json:"kmlName,omitempty"` // File name the dropped file carries; defaults to base of KMLPath
}

// LocatorConfig holds the empirically tuned colors and offsets used to find
// controls in a screenshot. Colors are "#RRGGBB".
type LocatorConfig struct {
	TopBarHeight int               `yaml:"topBarHeight" json:"topBarHeight"`
	Sidebar      SidebarConfig     `yaml:"sidebar" json:"sidebar"`
	HideGlyph    HideGlyphConfig   `yaml:"hideGlyph" json:"hideGlyph"`
	ResultsIcon  ResultsIconConfig `yaml:"resultsIcon" json:"resultsIcon"`
}

// SidebarConfig describes the sidebar toggle's resting color
type SidebarConfig struct {
	Color     string `yaml:"color" json:"color"`
	Tolerance int    `yaml:"tolerance" json:"tolerance"`
}

// HideGlyphConfig describes the two-stage edge walk to the "hide route" glyph
type HideGlyphConfig struct {
	Column            int    `yaml:"column" json:"column"`
	SeedRow           int    `yaml:"seedRow" json:"seedRow"`
	BoundaryColor     string `yaml:"boundaryColor" json:"boundaryColor"`
	BoundaryTolerance int    `yaml:"boundaryTolerance" json:"boundaryTolerance"`
	GlyphColor        string `yaml:"glyphColor" json:"glyphColor"`
	GlyphTolerance    int    `yaml:"glyphTolerance" json:"glyphTolerance"`
	ColumnOffset      int    `yaml:"columnOffset" json:"columnOffset"`
}

// ResultsIconConfig describes the three-stage walk to the results-panel icon
type ResultsIconConfig struct {
	DividerColor     string `yaml:"dividerColor" json:"dividerColor"`
	DividerTolerance int    `yaml:"dividerTolerance" json:"dividerTolerance"`
	PanelColor       string `yaml:"panelColor" json:"panelColor"`
	PanelTolerance   int    `yaml:"panelTolerance" json:"panelTolerance"`
	IconColor        string `yaml:"iconColor" json:"iconColor"`
	IconTolerance    int    `yaml:"iconTolerance" json:"iconTolerance"`
	Step             int    `yaml:"step" json:"step"` // 1 or 2
}

// MQTTConfig holds MQTT connection settings for the waypoint feed
type MQTTConfig struct {
	Broker        string `yaml:"broker,omitempty" json:"broker,omitempty"`
	PublishPrefix string `yaml:"publishPrefix" json:"publishPrefix"`
	ClientID      string `yaml:"clientId" json:"clientId"`
	Username      string `yaml:"username,omitempty" json:"username,omitempty"`
	Password      string `yaml:"password,omitempty" json:"password,omitempty"`
	QoS           byte   `yaml:"qos" json:"qos"`
	Retain        bool   `yaml:"retain" json:"retain"`
}

// HTTPConfig holds the local HTTP server settings
type HTTPConfig struct {
	Port int `yaml:"port" json:"port"`
}
