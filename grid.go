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

	"github.com/ctessum/sparse"
	"gonum.org/v1/gonum/floats"
)

// SpacingGrid is the scalar spacing field over a regular lon/lat grid.
// Sample (j, i) sits at longitude Xo+i·Dx, latitude Yo+j·Dy. The grid
// is built layer by layer by the compositor and becomes immutable once
// the gradient limiter finalizes it.
type SpacingGrid struct {
	Xo, Yo float64
	Dx, Dy float64
	Nx, Ny int

	data      *sparse.DenseArray // shape [Ny, Nx]
	finalized bool
}

// NewSpacingGrid creates a zero-valued grid with the geometry given in
// config.
func NewSpacingGrid(config *SpacingConfig) *SpacingGrid {
	return &SpacingGrid{
		Xo: config.Xo, Yo: config.Yo,
		Dx: config.Dx, Dy: config.Dy,
		Nx: config.Nx, Ny: config.Ny,
		data: sparse.ZerosDense(config.Ny, config.Nx),
	}
}

// LonLat returns the geographic location of sample (j, i).
func (g *SpacingGrid) LonLat(j, i int) (lon, lat float64) {
	return g.Xo + g.Dx*float64(i), g.Yo + g.Dy*float64(j)
}

// Index returns the sample indices nearest to (lon, lat), or an
// OutOfBoundsError if the point lies outside the grid. Longitude is
// measured eastward from Xo, so grids crossing the antimeridian index
// correctly, and on a global grid the column index wraps.
func (g *SpacingGrid) Index(lon, lat float64) (j, i int, err error) {
	dlon := math.Mod(lon-g.Xo, 360)
	if dlon < 0 {
		dlon += 360
	}
	i = int(math.Round(dlon / g.Dx))
	if i == g.Nx && g.Dx*float64(g.Nx) >= 360-1.e-6 {
		i = 0
	}
	j = int(math.Round((clampLatitude(lat) - g.Yo) / g.Dy))
	if i < 0 || i >= g.Nx || j < 0 || j >= g.Ny {
		return 0, 0, &OutOfBoundsError{Lon: lon, Lat: lat}
	}
	return j, i, nil
}

// At returns the spacing [km] at sample (j, i).
func (g *SpacingGrid) At(j, i int) float64 { return g.data.Get(j, i) }

// set assigns a spacing value; it panics on a finalized grid, which
// would be a compositor or limiter bug.
func (g *SpacingGrid) set(v float64, j, i int) {
	if g.finalized {
		panic("wavemesh: write to a finalized spacing grid")
	}
	g.data.Set(v, j, i)
}

func (g *SpacingGrid) finalize() { g.finalized = true }

// Finalized reports whether the grid has been handed off to consumers
// and is immutable.
func (g *SpacingGrid) Finalized() bool { return g.finalized }

// Range returns the smallest and largest spacing values on the grid.
func (g *SpacingGrid) Range() (min, max float64) {
	return floats.Min(g.data.Elements), floats.Max(g.data.Elements)
}

// Values returns a copy of the spacing values with shape [Ny, Nx], so
// consumers cannot alter the finalized field.
func (g *SpacingGrid) Values() *sparse.DenseArray { return g.data.Copy() }

// cellDx returns the east-west distance [km] between horizontally
// adjacent samples in row j, shrinking toward the poles.
func (g *SpacingGrid) cellDx(j int) float64 {
	_, lat := g.LonLat(j, 0)
	cosLat := math.Abs(math.Cos(lat * math.Pi / 180))
	if cosLat < 1.e-6 {
		cosLat = 1.e-6
	}
	return g.Dx * cosLat * kmPerDegree
}

// cellDy returns the north-south distance [km] between vertically
// adjacent samples.
func (g *SpacingGrid) cellDy() float64 { return g.Dy * kmPerDegree }

// copyGeometry returns an empty grid with the same geometry as g.
func (g *SpacingGrid) copyGeometry() *SpacingGrid {
	return &SpacingGrid{
		Xo: g.Xo, Yo: g.Yo, Dx: g.Dx, Dy: g.Dy, Nx: g.Nx, Ny: g.Ny,
		data: sparse.ZerosDense(g.Ny, g.Nx),
	}
}

func (g *SpacingGrid) String() string {
	min, max := g.Range()
	return fmt.Sprintf("wavemesh grid %d×%d at (%g, %g), spacing %.3g–%.3g km",
		g.Nx, g.Ny, g.Xo, g.Yo, min, max)
}
