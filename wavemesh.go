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

// Package wavemesh computes mesh sizing functions for unstructured
// ocean and wave model grids. It converts bathymetry, coastline geometry,
// latitude, and user-defined refinement regions into a single smoothly
// varying scalar resolution field that a downstream triangular mesh
// generator consumes to choose element sizes.
package wavemesh

import "fmt"

// Version gives the version number.
const Version = "0.3.1"

// Field holds the state of one sizing-function computation.
// The inputs (configuration, bathymetry, coastline, regions) are read-only
// once loaded; the grid is built layer by layer and finalized by the
// gradient limiter.
type Field struct {
	Config    *SpacingConfig
	Raster    *BathymetryRaster
	Coastline *Coastline
	Regions   *RegionOverlay
	Mask      *GridMask

	// Grid holds the composited spacing values. It is nil until Build
	// has been called.
	Grid *SpacingGrid

	// LimitReport holds the result of the gradient-limiting pass.
	LimitReport *LimitResult
}

// Build computes the sizing function: it composites the constraint
// layers onto the output grid, derives the land/water mask, and runs the
// gradient limiter. Progress messages are sent to c if it is not nil.
func (f *Field) Build(c chan string) error {
	if f.Config == nil {
		return &ConfigError{Field: "Config", Problem: "no configuration supplied"}
	}
	layers := []ConstraintLayer{}
	if f.Raster != nil {
		layers = append(layers, f.Config.WaveLayer(f.Raster))
	}
	if f.Coastline != nil {
		layers = append(layers, f.Config.ShorelineLayer(f.Coastline))
	}
	if f.Regions != nil {
		layers = append(layers, f.Regions)
	}
	if c != nil {
		c <- fmt.Sprintf("Compositing %d constraint layers.\n", len(layers))
	}
	grid, err := Compose(f.Config, layers, c)
	if err != nil {
		return fmt.Errorf("wavemesh: while compositing constraint layers: %v", err)
	}
	if f.Raster != nil {
		mask, err := DeriveMask(f.Config, f.Raster, f.Coastline, c)
		if err != nil {
			return fmt.Errorf("wavemesh: while deriving grid mask: %v", err)
		}
		f.Mask = mask
	}
	if c != nil {
		c <- "Limiting spacing gradients.\n"
	}
	res := LimitGradient(grid, f.Config.DhDx)
	f.LimitReport = res
	if !res.Converged && c != nil {
		c <- fmt.Sprintf("Warning: gradient limiter did not converge "+
			"within %d passes; returning best-effort field.\n", res.Passes)
	}
	grid.finalize()
	f.Grid = grid
	return nil
}
