package pilot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// AddPoint appends a point to the free list, or to the named route when route
// is non-empty. A missing route is created.
func (c *WaypointCollection) AddPoint(name, route string, lat, lon float64) {
	p := Point{Name: name, Latitude: lat, Longitude: lon}

	if route == "" {
		c.Points = append(c.Points, p)
		return
	}

	if i := c.routeIndex(route); i >= 0 {
		c.Routes[i].Points = append(c.Routes[i].Points, p)
		return
	}
	c.Routes = append(c.Routes, Route{Name: route, Points: []Point{p}})
}

// RemovePoint removes the most recently added point called name from the free
// list or the named route. An empty name removes the last point. A route left
// empty is dropped; the free list is kept even when empty.
func (c *WaypointCollection) RemovePoint(name, route string) (Point, error) {
	list := &c.Points
	ri := -1
	if route != "" {
		ri = c.routeIndex(route)
		if ri < 0 {
			return Point{}, fmt.Errorf("%w: %q", ErrRouteNotFound, route)
		}
		list = &c.Routes[ri].Points
	}

	i := len(*list) - 1
	if name != "" {
		for ; i >= 0; i-- {
			if (*list)[i].Name == name {
				break
			}
		}
		if i < 0 {
			return Point{}, fmt.Errorf("%w: no point named %q%s", ErrEntryNotFound, name, inRoute(route))
		}
	} else if i < 0 {
		return Point{}, fmt.Errorf("%w: nothing to remove%s", ErrEntryNotFound, inRoute(route))
	}

	removed := (*list)[i]
	*list = append((*list)[:i], (*list)[i+1:]...)

	if ri >= 0 && len(c.Routes[ri].Points) == 0 {
		c.Routes = append(c.Routes[:ri], c.Routes[ri+1:]...)
	}
	return removed, nil
}

// FindRoute returns the named route
func (c *WaypointCollection) FindRoute(name string) (Route, bool) {
	if i := c.routeIndex(name); i >= 0 {
		return c.Routes[i], true
	}
	return Route{}, false
}

// Len returns the total number of points, free and routed
func (c *WaypointCollection) Len() int {
	n := len(c.Points)
	for _, r := range c.Routes {
		n += len(r.Points)
	}
	return n
}

func (c *WaypointCollection) routeIndex(name string) int {
	for i, r := range c.Routes {
		if r.Name == name {
			return i
		}
	}
	return -1
}

func inRoute(route string) string {
	if route == "" {
		return ""
	}
	return fmt.Sprintf(" in route %q", route)
}

// normalize replaces nil slices so the file always carries both arrays
func (c *WaypointCollection) normalize() {
	if c.Points == nil {
		c.Points = []Point{}
	}
	if c.Routes == nil {
		c.Routes = []Route{}
	}
	for i := range c.Routes {
		if c.Routes[i].Points == nil {
			c.Routes[i].Points = []Point{}
		}
	}
}

// Store persists a WaypointCollection as a single JSON document. Every
// mutation reads the whole file and rewrites it. There is no locking; two
// processes mutating the same file race and the last writer wins.
type Store struct {
	path string
}

// NewStore returns a store backed by path
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file
func (s *Store) Path() string {
	return s.path
}

// Load reads the collection. A missing file is an empty collection.
func (s *Store) Load() (*WaypointCollection, error) {
	c := &WaypointCollection{}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			c.normalize()
			return c, nil
		}
		return nil, fmt.Errorf("reading waypoint store: %w", err)
	}

	if err := json.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parsing waypoint store %s: %w", s.path, err)
	}
	c.normalize()
	return c, nil
}

// Save replaces the file contents with c
func (s *Store) Save(c *WaypointCollection) error {
	c.normalize()

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling waypoints: %w", err)
	}

	return writeFileAtomic(s.path, data)
}

// AddPoint loads, appends and saves
func (s *Store) AddPoint(name, route string, lat, lon float64) error {
	c, err := s.Load()
	if err != nil {
		return err
	}
	c.AddPoint(name, route, lat, lon)
	return s.Save(c)
}

// RemovePoint loads, removes and saves. Not-found outcomes are reported
// through ok and msg; err is set only when the file cannot be read or written.
func (s *Store) RemovePoint(name, route string) (ok bool, msg string, err error) {
	c, err := s.Load()
	if err != nil {
		return false, "", err
	}

	removed, rerr := c.RemovePoint(name, route)
	if rerr != nil {
		return false, rerr.Error(), nil
	}

	if err := s.Save(c); err != nil {
		return false, "", err
	}
	return true, fmt.Sprintf("removed %s%s", describePoint(removed), inRoute(route)), nil
}

func describePoint(p Point) string {
	if p.Name == "" {
		return fmt.Sprintf("unnamed point (%g, %g)", p.Latitude, p.Longitude)
	}
	return fmt.Sprintf("%q (%g, %g)", p.Name, p.Latitude, p.Longitude)
}

// writeFileAtomic writes via a temp file in the same directory and renames it
// over path, so a crash never leaves a truncated store behind.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", tmp.Name(), err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("setting permissions on %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}
