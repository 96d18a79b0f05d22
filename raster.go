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
	"sync"

	"github.com/ctessum/sparse"
	"github.com/golang/groupcache/lru"
)

// OutOfBoundsError is returned by queries outside the covered extent
// of a raster. Callers may recover by clamping the query location or
// supplying a fallback value.
type OutOfBoundsError struct {
	Lon, Lat float64
}

func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("wavemesh: point (%g, %g) is outside the raster extent", e.Lon, e.Lat)
}

// rasterSource supplies blocks of elevation values from a backing
// store. Row and column indices follow the raster convention: row 0 is
// the southernmost row, column 0 the westernmost column, and values are
// elevations in meters (negative below sea level).
type rasterSource interface {
	// readBlock reads the nj×ni block with lower-left corner (j0, i0)
	// into a row-major array of shape [nj, ni].
	readBlock(j0, i0, nj, ni int) (*sparse.DenseArray, error)
	// noData reports the sentinel marking missing cells.
	noData() float64
}

// blockSize is the edge length of cached raster blocks. 256×256
// float64 blocks are 512 kB each, so the default cache of 64 blocks
// bounds resident raster memory at 32 MB regardless of raster size.
const blockSize = 256

// defaultCacheBlocks is the default number of raster blocks held in
// memory at once.
const defaultCacheBlocks = 64

// BathymetryRaster is a read-only regular lon/lat grid of depth
// values with bounded-extent block caching, so global 30–60 arc-second
// bathymetry can be queried without residing fully in memory.
type BathymetryRaster struct {
	xo, yo float64 // coordinates of the lower-left sample center
	dx, dy float64 // degrees
	nx, ny int

	// global is true when the raster wraps the full 360° of longitude,
	// in which case column indices wrap instead of going out of bounds.
	global bool

	source rasterSource

	mx    sync.Mutex
	cache *lru.Cache
}

// NewBathymetryRaster creates a raster over the given geometry backed
// by source. cacheBlocks bounds the number of raster blocks held in
// memory; if it is ≤ 0 a default is used.
func NewBathymetryRaster(source rasterSource, xo, yo, dx, dy float64, nx, ny, cacheBlocks int) (*BathymetryRaster, error) {
	if nx <= 0 || ny <= 0 {
		return nil, fmt.Errorf("wavemesh: raster dimensions must be positive; got %d×%d", nx, ny)
	}
	if dx <= 0 || dy <= 0 {
		return nil, fmt.Errorf("wavemesh: raster resolution must be positive; got %g×%g", dx, dy)
	}
	if cacheBlocks <= 0 {
		cacheBlocks = defaultCacheBlocks
	}
	const tol = 1.e-6
	return &BathymetryRaster{
		xo: xo, yo: yo, dx: dx, dy: dy, nx: nx, ny: ny,
		global: dx*float64(nx) >= 360-tol,
		source: source,
		cache:  lru.New(cacheBlocks),
	}, nil
}

// Extent returns the covered extent as (minLon, minLat, maxLon, maxLat),
// measured between outermost sample centers.
func (r *BathymetryRaster) Extent() (minLon, minLat, maxLon, maxLat float64) {
	return r.xo, r.yo, r.xo + r.dx*float64(r.nx-1), r.yo + r.dy*float64(r.ny-1)
}

// block returns the cached raster block containing (j, i), reading it
// from the source on a miss.
func (r *BathymetryRaster) block(j, i int) (*sparse.DenseArray, error) {
	bj, bi := j/blockSize, i/blockSize
	key := bj*((r.nx+blockSize-1)/blockSize) + bi

	r.mx.Lock()
	defer r.mx.Unlock()
	if v, ok := r.cache.Get(key); ok {
		return v.(*sparse.DenseArray), nil
	}
	j0, i0 := bj*blockSize, bi*blockSize
	nj, ni := blockSize, blockSize
	if j0+nj > r.ny {
		nj = r.ny - j0
	}
	if i0+ni > r.nx {
		ni = r.nx - i0
	}
	b, err := r.source.readBlock(j0, i0, nj, ni)
	if err != nil {
		return nil, fmt.Errorf("wavemesh: while reading raster block (%d, %d): %v", bj, bi, err)
	}
	r.cache.Add(key, b)
	return b, nil
}

// elevAt returns the elevation at sample (j, i) [m].
func (r *BathymetryRaster) elevAt(j, i int) (float64, error) {
	b, err := r.block(j, i)
	if err != nil {
		return 0, err
	}
	return b.Get(j%blockSize, i%blockSize), nil
}

// DepthAt returns the bilinearly interpolated water depth [m, positive
// down] at (lon, lat). water is false for land or missing-data cells;
// such cells do not constrain the spacing field. Queries outside the
// raster extent return an OutOfBoundsError.
func (r *BathymetryRaster) DepthAt(lon, lat float64) (depth float64, water bool, err error) {
	lon = wrapLongitude(lon)
	lat = clampLatitude(lat)

	fi := (lon - r.xo) / r.dx
	fj := (lat - r.yo) / r.dy
	if r.global {
		// Queries between the last column and the wrapped first column
		// are in bounds; fractional indices land in [0, nx).
		fi = math.Mod(fi+float64(r.nx), float64(r.nx))
	} else if fi < 0 || fi > float64(r.nx-1) {
		return 0, false, &OutOfBoundsError{Lon: lon, Lat: lat}
	}
	if fj < 0 || fj > float64(r.ny-1) {
		return 0, false, &OutOfBoundsError{Lon: lon, Lat: lat}
	}

	i0 := int(fi)
	j0 := int(fj)
	if i0 > r.nx-2 && !r.global {
		i0 = r.nx - 2
	}
	if j0 > r.ny-2 {
		j0 = r.ny - 2
	}
	i1 := i0 + 1
	if r.global && i1 == r.nx {
		i1 = 0
	}
	wx := fi - float64(i0)
	wy := fj - float64(j0)

	nodata := r.source.noData()
	var sum, wsum float64
	corners := [4]struct {
		j, i int
		w    float64
	}{
		{j0, i0, (1 - wx) * (1 - wy)},
		{j0, i1, wx * (1 - wy)},
		{j0 + 1, i0, (1 - wx) * wy},
		{j0 + 1, i1, wx * wy},
	}
	for _, c := range corners {
		e, err := r.elevAt(c.j, c.i)
		if err != nil {
			return 0, false, err
		}
		// Land and missing cells are excluded from the interpolation
		// so shoreline-adjacent depths are not dragged toward zero by
		// dry neighbors.
		if math.IsNaN(e) || e == nodata || e >= 0 {
			continue
		}
		sum += e * c.w
		wsum += c.w
	}
	if wsum == 0 {
		return 0, false, nil // land
	}
	return -sum / wsum, true, nil
}

// memoryRaster is a rasterSource holding its elevations in memory.
// It backs small rasters and tests; file-backed rasters use cdfRaster.
type memoryRaster struct {
	data   *sparse.DenseArray // shape [ny, nx]
	nodata float64
}

func (m *memoryRaster) readBlock(j0, i0, nj, ni int) (*sparse.DenseArray, error) {
	b := sparse.ZerosDense(nj, ni)
	for j := 0; j < nj; j++ {
		for i := 0; i < ni; i++ {
			b.Set(m.data.Get(j0+j, i0+i), j, i)
		}
	}
	return b, nil
}

func (m *memoryRaster) noData() float64 { return m.nodata }

// NewMemoryRaster creates a raster backed by an in-memory elevation
// array of shape [ny, nx]. nodata marks missing cells.
func NewMemoryRaster(elev *sparse.DenseArray, nodata, xo, yo, dx, dy float64) (*BathymetryRaster, error) {
	if len(elev.Shape) != 2 {
		return nil, fmt.Errorf("wavemesh: elevation array must be 2-dimensional; got %d dimensions", len(elev.Shape))
	}
	return NewBathymetryRaster(&memoryRaster{data: elev, nodata: nodata},
		xo, yo, dx, dy, elev.Shape[1], elev.Shape[0], 0)
}
