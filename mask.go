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
	"fmt"

	"github.com/ctessum/sparse"
)

// MaskStatus classifies one grid sample for the wave model.
type MaskStatus int

const (
	// MaskLand marks dry samples.
	MaskLand MaskStatus = iota
	// MaskWater marks active open-water samples.
	MaskWater
	// MaskCoastal marks active samples that are shallow or near the
	// coast, where the wave model applies its coastal physics.
	MaskCoastal
	// MaskExcluded marks wet samples removed from the computation,
	// such as isolated inland water or a disconnected Black Sea.
	MaskExcluded
)

// Basin identifiers recorded for active samples.
const (
	basinNone     = 0
	basinWorld    = 1
	basinBlackSea = 2
)

// GridMask classifies every sample of the output grid as land, open
// water, coastal, or excluded, and records which basin each active
// sample belongs to.
type GridMask struct {
	Xo, Yo float64
	Dx, Dy float64
	Nx, Ny int

	status *sparse.DenseArrayInt
	basin  *sparse.DenseArrayInt
}

// Status returns the classification of sample (j, i).
func (m *GridMask) Status(j, i int) MaskStatus { return MaskStatus(m.status.Get(j, i)) }

// Basin returns the basin identifier of sample (j, i): 0 for inactive
// samples, 1 for the world ocean, 2 for a detached Black Sea.
func (m *GridMask) Basin(j, i int) int { return m.basin.Get(j, i) }

// Active reports whether sample (j, i) participates in the wave
// computation.
func (m *GridMask) Active(j, i int) bool {
	s := m.Status(j, i)
	return s == MaskWater || s == MaskCoastal
}

// blackSeaBounds is the search window used to seed and classify the
// Black Sea basin.
var blackSeaBounds = struct{ minLon, maxLon, minLat, maxLat float64 }{26, 42, 40, 48}

// DeriveMask classifies every output-grid sample: land from the
// raster, coastal where the water is shallower than MinDepth or nearer
// to the coast than MinCoastDist, open water elsewhere. Isolated water
// bodies not connected to the world ocean are excluded, and the Black
// Sea is handled according to config.BlackSea. coastline may be nil,
// in which case only the depth criterion classifies coastal samples.
func DeriveMask(config *SpacingConfig, raster *BathymetryRaster, coastline *Coastline, c chan string) (*GridMask, error) {
	m := &GridMask{
		Xo: config.Xo, Yo: config.Yo,
		Dx: config.Dx, Dy: config.Dy,
		Nx: config.Nx, Ny: config.Ny,
		status: sparse.ZerosDenseInt(config.Ny, config.Nx),
		basin:  sparse.ZerosDenseInt(config.Ny, config.Nx),
	}
	for j := 0; j < m.Ny; j++ {
		for i := 0; i < m.Nx; i++ {
			lon := m.Xo + m.Dx*float64(i)
			lat := m.Yo + m.Dy*float64(j)
			depth, water, err := raster.DepthAt(lon, lat)
			if err != nil {
				var oob *OutOfBoundsError
				if errors.As(err, &oob) {
					// Samples beyond the raster are treated as land.
					continue
				}
				return nil, fmt.Errorf("wavemesh: while sampling depth for the grid mask: %v", err)
			}
			if !water {
				continue
			}
			status := MaskWater
			if depth < config.MinDepth {
				status = MaskCoastal
			} else if coastline != nil {
				dist, err := coastline.DistanceToCoast(lon, lat)
				if err != nil {
					return nil, fmt.Errorf("wavemesh: while computing coastal distance for the grid mask: %v", err)
				}
				if dist < config.MinCoastDist {
					status = MaskCoastal
				}
			}
			m.status.Set(int(status), j, i)
		}
	}
	m.applyConnectivity(config.BlackSea)
	if c != nil {
		var land, water, coastal, excluded int
		for j := 0; j < m.Ny; j++ {
			for i := 0; i < m.Nx; i++ {
				switch m.Status(j, i) {
				case MaskLand:
					land++
				case MaskWater:
					water++
				case MaskCoastal:
					coastal++
				case MaskExcluded:
					excluded++
				}
			}
		}
		c <- fmt.Sprintf("Grid mask: %d land, %d water, %d coastal, %d excluded samples.\n",
			land, water, coastal, excluded)
	}
	return m, nil
}

// ApplyMaskFile overrides the derived classification with a WAVEWATCH
// III MAPSTA status array of shape [Ny, Nx]: 0 marks land and values
// above 100 mark excluded points; other values keep the derived
// classification.
func (m *GridMask) ApplyMaskFile(mapsta *sparse.DenseArrayInt) error {
	if len(mapsta.Shape) != 2 || mapsta.Shape[0] != m.Ny || mapsta.Shape[1] != m.Nx {
		return fmt.Errorf("wavemesh: mask file shape %v does not match the %d×%d grid",
			mapsta.Shape, m.Nx, m.Ny)
	}
	for j := 0; j < m.Ny; j++ {
		for i := 0; i < m.Nx; i++ {
			// Overrides are written through Elements because the sparse
			// Set methods skip zero values, and MaskLand and basinNone
			// are both zero codes.
			switch v := mapsta.Get(j, i); {
			case v == 0:
				m.status.Elements[m.status.Index1d(j, i)] = int(MaskLand)
				m.basin.Elements[m.basin.Index1d(j, i)] = basinNone
			case v > 100:
				m.status.Elements[m.status.Index1d(j, i)] = int(MaskExcluded)
				m.basin.Elements[m.basin.Index1d(j, i)] = basinNone
			}
		}
	}
	return nil
}

// applyConnectivity assigns basins by flood fill and excludes wet
// samples not connected to the world ocean. The world ocean is the
// largest connected wet component; the Black Sea component, identified
// by its seed window, follows mode: excluded when disconnected, kept
// as basin 2 when detached, and merged into basin 1 when connected.
func (m *GridMask) applyConnectivity(mode BlackSeaMode) {
	comp := sparse.ZerosDenseInt(m.Ny, m.Nx)
	sizes := []int{0} // component 0 is unused
	for j := 0; j < m.Ny; j++ {
		for i := 0; i < m.Nx; i++ {
			if m.Active(j, i) && comp.Get(j, i) == 0 {
				id := len(sizes)
				sizes = append(sizes, m.floodFill(comp, j, i, id))
			}
		}
	}
	if len(sizes) <= 1 {
		return
	}
	world := 1
	for id, n := range sizes {
		if id > 0 && n > sizes[world] {
			world = id
		}
	}
	blackSea := m.blackSeaComponent(comp, world)

	for j := 0; j < m.Ny; j++ {
		for i := 0; i < m.Nx; i++ {
			id := comp.Get(j, i)
			switch {
			case id == 0:
			case id == world:
				m.basin.Set(basinWorld, j, i)
			case id == blackSea && mode == BlackSeaDetached:
				m.basin.Set(basinBlackSea, j, i)
			case id == blackSea && mode == BlackSeaConnected:
				m.basin.Set(basinWorld, j, i)
			default:
				// Disconnected Black Sea and isolated inland water.
				m.status.Set(int(MaskExcluded), j, i)
			}
		}
	}
}

// blackSeaComponent returns the component id of the largest wet
// component inside the Black Sea window that is not the world ocean,
// or 0 if there is none (the strait resolved as open water).
func (m *GridMask) blackSeaComponent(comp *sparse.DenseArrayInt, world int) int {
	counts := map[int]int{}
	for j := 0; j < m.Ny; j++ {
		lat := m.Yo + m.Dy*float64(j)
		if lat < blackSeaBounds.minLat || lat > blackSeaBounds.maxLat {
			continue
		}
		for i := 0; i < m.Nx; i++ {
			lon := wrapLongitude(m.Xo + m.Dx*float64(i))
			if lon < blackSeaBounds.minLon || lon > blackSeaBounds.maxLon {
				continue
			}
			if id := comp.Get(j, i); id != 0 && id != world {
				counts[id]++
			}
		}
	}
	best, bestN := 0, 0
	for id, n := range counts {
		if n > bestN {
			best, bestN = id, n
		}
	}
	return best
}

// floodFill labels the wet component containing (j, i) with id and
// returns its size. Columns wrap when the grid spans all longitudes.
func (m *GridMask) floodFill(comp *sparse.DenseArrayInt, j, i, id int) int {
	wrap := m.Dx*float64(m.Nx) >= 360-1.e-6
	type cell struct{ j, i int }
	queue := []cell{{j, i}}
	comp.Set(id, j, i)
	n := 0
	for len(queue) > 0 {
		p := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		n++
		for _, d := range [4]cell{{p.j, p.i - 1}, {p.j, p.i + 1}, {p.j - 1, p.i}, {p.j + 1, p.i}} {
			if d.j < 0 || d.j >= m.Ny {
				continue
			}
			if d.i < 0 || d.i >= m.Nx {
				if !wrap {
					continue
				}
				d.i = (d.i + m.Nx) % m.Nx
			}
			if m.Active(d.j, d.i) && comp.Get(d.j, d.i) == 0 {
				comp.Set(id, d.j, d.i)
				queue = append(queue, d)
			}
		}
	}
	return n
}
