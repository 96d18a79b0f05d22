/*
Copyright © 2026 the wavemesh authors.
This file is part of wavemesh.

wavemesh is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

wavemesh is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with wavemesh.  If not, see <http://www.gnu.org/licenses/>.
*/

package wavemesh

import (
	"fmt"
	"math"

	"github.com/ctessum/geom"
)

// ConfigError is a fatal configuration problem, detected before any
// grid computation begins.
type ConfigError struct {
	Field   string
	Problem string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("wavemesh: invalid configuration %s: %s", e.Field, e.Problem)
}

// BlackSeaMode specifies how the Black Sea basin is treated when
// deriving the grid mask.
type BlackSeaMode int

const (
	// BlackSeaDisconnected masks out the Black Sea entirely.
	BlackSeaDisconnected BlackSeaMode = iota
	// BlackSeaDetached keeps the Black Sea active as a basin separate
	// from the world ocean.
	BlackSeaDetached
	// BlackSeaConnected leaves the Bosporus connection open so the
	// Black Sea joins the world ocean during flood fill.
	BlackSeaConnected
)

// ParseBlackSeaMode converts a configuration string to a BlackSeaMode.
func ParseBlackSeaMode(s string) (BlackSeaMode, error) {
	switch s {
	case "disconnected", "":
		return BlackSeaDisconnected, nil
	case "detached":
		return BlackSeaDetached, nil
	case "connected":
		return BlackSeaConnected, nil
	}
	return 0, &ConfigError{Field: "BlackSeaMode",
		Problem: fmt.Sprintf("must be disconnected, detached, or connected; got %q", s)}
}

// ScalingBand scales permissible spacing within a latitude band.
// Bands are half-open intervals [Lower, Upper), except the final band
// of a set, which is closed on both ends.
type ScalingBand struct {
	Lower, Upper float64
	Factor       float64
}

// SpacingConfig holds the parameters controlling one sizing-function
// computation. It is constructed once at startup and never mutated
// during a run.
type SpacingConfig struct {
	HMax float64 // global maximum spacing [km]
	HMin float64 // global minimum spacing [km]
	HShr float64 // target spacing at the shoreline [km]
	NWav float64 // cells per wavelength for wave-resolving spacing
	DhDx float64 // maximum relative spacing gradient [1/km]

	// WavePeriod is the representative wave period used in the
	// shallow-water dispersion relation [s].
	WavePeriod float64

	// ShorelineFalloffFactor sets the width of the shoreline band:
	// the shoreline spacing term ramps from HShr to unconstrained over
	// a distance of ShorelineFalloffFactor*HShr kilometers.
	ShorelineFalloffFactor float64

	// MinDepth and MinCoastDist classify coastal points in the grid
	// mask: a water point is coastal when its depth is shallower than
	// MinDepth [m] or it lies within MinCoastDist [km] of the coast.
	MinDepth     float64
	MinCoastDist float64

	// LatitudeBands must partition [-90, 90] with no gaps or overlaps,
	// in ascending order.
	LatitudeBands []ScalingBand

	BlackSea BlackSeaMode

	// Output grid geometry: a regular lon/lat grid with Nx×Ny samples,
	// lower-left sample at (Xo, Yo), spaced Dx×Dy degrees.
	Xo, Yo float64
	Dx, Dy float64
	Nx, Ny int
}

// Check validates the configuration, filling in defaults where a zero
// value has a sensible one. It must be called before the configuration
// is used; every later accessor assumes a checked configuration.
func (c *SpacingConfig) Check() error {
	if c.HMin <= 0 {
		return &ConfigError{Field: "HMin", Problem: "must be positive"}
	}
	if c.HMax < c.HMin {
		return &ConfigError{Field: "HMax",
			Problem: fmt.Sprintf("must be ≥ HMin; got HMax=%g HMin=%g", c.HMax, c.HMin)}
	}
	if c.HShr <= 0 {
		return &ConfigError{Field: "HShr", Problem: "must be positive"}
	}
	if c.NWav <= 0 {
		return &ConfigError{Field: "NWav", Problem: "must be positive"}
	}
	if c.DhDx <= 0 {
		return &ConfigError{Field: "DhDx", Problem: "must be positive"}
	}
	if c.WavePeriod == 0 {
		c.WavePeriod = 12.5
	}
	if c.WavePeriod < 0 {
		return &ConfigError{Field: "WavePeriod", Problem: "must be positive"}
	}
	if c.ShorelineFalloffFactor == 0 {
		c.ShorelineFalloffFactor = 20
	}
	if c.ShorelineFalloffFactor < 0 {
		return &ConfigError{Field: "ShorelineFalloffFactor", Problem: "must be positive"}
	}
	if c.MinDepth == 0 {
		c.MinDepth = 80
	}
	if c.MinCoastDist == 0 {
		c.MinCoastDist = 50
	}
	if c.Nx <= 0 || c.Ny <= 0 {
		return &ConfigError{Field: "Nx/Ny", Problem: "grid dimensions must be positive"}
	}
	if c.Dx <= 0 || c.Dy <= 0 {
		return &ConfigError{Field: "Dx/Dy", Problem: "grid resolution must be positive"}
	}
	if len(c.LatitudeBands) == 0 {
		c.LatitudeBands = []ScalingBand{{Lower: -90, Upper: 90, Factor: 1}}
	}
	return c.checkBands()
}

// checkBands verifies that the latitude bands partition [-90, 90].
func (c *SpacingConfig) checkBands() error {
	const tol = 1.e-9
	prev := -90.
	for i, b := range c.LatitudeBands {
		if b.Upper <= b.Lower {
			return &ConfigError{Field: "LatitudeBands",
				Problem: fmt.Sprintf("band %d is empty or inverted: [%g, %g]", i, b.Lower, b.Upper)}
		}
		if math.Abs(b.Lower-prev) > tol {
			return &ConfigError{Field: "LatitudeBands",
				Problem: fmt.Sprintf("band %d begins at %g but the previous band ends at %g", i, b.Lower, prev)}
		}
		if b.Factor <= 0 {
			return &ConfigError{Field: "LatitudeBands",
				Problem: fmt.Sprintf("band %d has non-positive scale factor %g", i, b.Factor)}
		}
		prev = b.Upper
	}
	if math.Abs(prev-90) > tol {
		return &ConfigError{Field: "LatitudeBands",
			Problem: fmt.Sprintf("bands end at %g; they must cover latitude up to 90", prev)}
	}
	return nil
}

// ScaleForLatitude returns the spacing scale factor for lat. The
// latitude bands are half-open [lower, upper), except the last band,
// which also contains its upper bound. lat outside [-90, 90] is an error.
func (c *SpacingConfig) ScaleForLatitude(lat float64) (float64, error) {
	if lat < -90 || lat > 90 {
		return 0, fmt.Errorf("wavemesh: latitude %g outside [-90, 90]", lat)
	}
	for i, b := range c.LatitudeBands {
		if lat >= b.Lower && (lat < b.Upper || (i == len(c.LatitudeBands)-1 && lat <= b.Upper)) {
			return b.Factor, nil
		}
	}
	// Unreachable for a checked configuration.
	return 0, fmt.Errorf("wavemesh: no latitude band contains %g", lat)
}

// Bounds returns the geographic extent of the output grid.
func (c *SpacingConfig) Bounds() *geom.Bounds {
	return &geom.Bounds{
		Min: geom.Point{X: c.Xo, Y: c.Yo},
		Max: geom.Point{
			X: c.Xo + c.Dx*float64(c.Nx-1),
			Y: c.Yo + c.Dy*float64(c.Ny-1),
		},
	}
}

// clamp limits v to [c.HMin, c.HMax].
func (c *SpacingConfig) clamp(v float64) float64 {
	if v < c.HMin {
		return c.HMin
	}
	if v > c.HMax {
		return c.HMax
	}
	return v
}

// wrapLongitude wraps lon to [-180, 180).
func wrapLongitude(lon float64) float64 {
	lon = math.Mod(lon+180, 360)
	if lon < 0 {
		lon += 360
	}
	return lon - 180
}

// clampLatitude limits lat to [-90, 90].
func clampLatitude(lat float64) float64 {
	if lat < -90 {
		return -90
	}
	if lat > 90 {
		return 90
	}
	return lat
}
