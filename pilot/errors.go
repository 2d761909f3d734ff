package pilot

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	// ErrControlNotFound means a pixel scan exhausted its bound without a match.
	// It signals a UI or theme mismatch and is never transient.
	ErrControlNotFound = errors.New("control not found")

	// ErrRouteNotFound means a named route targeted for removal does not exist
	ErrRouteNotFound = errors.New("route not found")

	// ErrEntryNotFound means the targeted list has no matching (or no) entry
	ErrEntryNotFound = errors.New("entry not found")

	// ErrValidation means caller-supplied input is out of range or malformed
	ErrValidation = errors.New("invalid input")
)

// ValidateCoordinates checks latitude and longitude ranges.
// The store does not validate; callers run this before AddPoint.
func ValidateCoordinates(lat, lon float64) error {
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return fmt.Errorf("%w: latitude %v outside [-90, 90]", ErrValidation, lat)
	}
	if math.IsNaN(lon) || lon < -180 || lon > 180 {
		return fmt.Errorf("%w: longitude %v outside [-180, 180]", ErrValidation, lon)
	}
	return nil
}

// ParseCoordinates parses and validates a latitude/longitude pair typed by the operator
func ParseCoordinates(latText, lonText string) (float64, float64, error) {
	lat, err := strconv.ParseFloat(strings.TrimSpace(latText), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: latitude %q is not a number", ErrValidation, latText)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(lonText), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: longitude %q is not a number", ErrValidation, lonText)
	}
	if err := ValidateCoordinates(lat, lon); err != nil {
		return 0, 0, err
	}
	return lat, lon, nil
}
