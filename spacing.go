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
	"errors"
	"math"
)

// gravity is the gravitational acceleration [m/s²].
const gravity = 9.80665

// ConstraintLayer is one source of spacing constraints. Layers are
// read-only after construction and are queried concurrently by the
// compositor.
type ConstraintLayer interface {
	// Name identifies the layer in log and error messages.
	Name() string
	// SpacingAt returns the spacing constraint [km] at (lon, lat).
	// constrained is false where the layer places no constraint, in
	// which case the point is excluded from the compositor's minimum.
	SpacingAt(lon, lat float64) (h float64, constrained bool, err error)
}

// waveSpacing converts a water depth [m] into the cell size [km]
// needed to resolve shallow-water waves with NWav cells per
// wavelength. In the shallow limit the wavelength is T·√(g·depth).
// Non-positive depths (land) return an unconstrained result.
func (c *SpacingConfig) waveSpacing(depth float64) (h float64, constrained bool) {
	if depth <= 0 {
		return 0, false
	}
	wavelength := c.WavePeriod * math.Sqrt(gravity*depth) // m
	return wavelength / c.NWav / 1000, true
}

// shorelineSpacing converts a distance to the coast [km] into the
// shoreline-proximity spacing term [km]: HShr exactly at the
// coastline, ramping linearly toward scale·HMax over the falloff
// distance ShorelineFalloffFactor·HShr. The ramp stays constrained
// until it meets the HMax open-ocean fallback, so a band factor below
// 1 hands off to the fallback without a step, and the term is
// monotonic in distance.
func (c *SpacingConfig) shorelineSpacing(dist, scale float64) (h float64, constrained bool) {
	falloff := c.ShorelineFalloffFactor * c.HShr
	rise := c.HMax*scale - c.HShr
	if rise < 0 {
		rise = 0
	}
	h = c.HShr + rise*dist/falloff
	if h >= c.HMax {
		return 0, false
	}
	return h, true
}

// waveLayer constrains spacing by the local wavelength.
type waveLayer struct {
	config *SpacingConfig
	raster *BathymetryRaster
}

// WaveLayer returns the wave-resolution constraint layer over raster.
// Samples outside the raster extent and land samples are unconstrained.
func (c *SpacingConfig) WaveLayer(raster *BathymetryRaster) ConstraintLayer {
	return &waveLayer{config: c, raster: raster}
}

func (l *waveLayer) Name() string { return "wave resolution" }

func (l *waveLayer) SpacingAt(lon, lat float64) (float64, bool, error) {
	depth, water, err := l.raster.DepthAt(lon, lat)
	if err != nil {
		var oob *OutOfBoundsError
		if errors.As(err, &oob) {
			// The raster need not cover the whole output grid; the
			// HMax floor still bounds uncovered samples.
			return 0, false, nil
		}
		return 0, false, err
	}
	if !water {
		return 0, false, nil
	}
	h, constrained := l.config.waveSpacing(depth)
	if !constrained {
		return 0, false, nil
	}
	scale, err := l.config.ScaleForLatitude(clampLatitude(lat))
	if err != nil {
		return 0, false, err
	}
	return l.config.clamp(h * scale), true, nil
}

// shorelineLayer constrains spacing by proximity to the coast.
type shorelineLayer struct {
	config    *SpacingConfig
	coastline *Coastline
}

// ShorelineLayer returns the shoreline-proximity constraint layer over
// coastline.
func (c *SpacingConfig) ShorelineLayer(coastline *Coastline) ConstraintLayer {
	return &shorelineLayer{config: c, coastline: coastline}
}

func (l *shorelineLayer) Name() string { return "shoreline proximity" }

func (l *shorelineLayer) SpacingAt(lon, lat float64) (float64, bool, error) {
	dist, err := l.coastline.DistanceToCoast(lon, lat)
	if err != nil {
		return 0, false, err
	}
	scale, err := l.config.ScaleForLatitude(clampLatitude(lat))
	if err != nil {
		return 0, false, err
	}
	// The latitude factor scales the open-ocean end of the ramp only:
	// the value at the coastline itself stays exactly HShr.
	h, constrained := l.config.shorelineSpacing(dist, scale)
	if !constrained {
		return 0, false, nil
	}
	return l.config.clamp(h), true, nil
}
