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
	"math"
	"testing"

	"github.com/ctessum/sparse"
)

const testNoData = -9999.

// rampRaster returns a 4×4 raster at the origin whose elevation is
// -(100 + 10·i + 20·j), so bilinear interpolation has a known answer.
func rampRaster(t *testing.T) *BathymetryRaster {
	elev := sparse.ZerosDense(4, 4)
	for j := 0; j < 4; j++ {
		for i := 0; i < 4; i++ {
			elev.Set(-(100 + 10*float64(i) + 20*float64(j)), j, i)
		}
	}
	r, err := NewMemoryRaster(elev, testNoData, 0, 0, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func TestDepthAtBilinear(t *testing.T) {
	r := rampRaster(t)
	tests := []struct {
		lon, lat float64
		want     float64
	}{
		{0, 0, 100},     // exactly on a sample
		{1, 2, 150},     // exactly on a sample
		{0.5, 0, 105},   // halfway along a row
		{0, 0.5, 110},   // halfway along a column
		{0.5, 0.5, 115}, // cell center
		{3, 3, 190},     // far corner
	}
	for _, test := range tests {
		d, water, err := r.DepthAt(test.lon, test.lat)
		if err != nil {
			t.Fatalf("DepthAt(%g, %g): %v", test.lon, test.lat, err)
		}
		if !water {
			t.Fatalf("DepthAt(%g, %g) reported land", test.lon, test.lat)
		}
		if math.Abs(d-test.want) > 1.e-9 {
			t.Errorf("DepthAt(%g, %g) = %g; want %g", test.lon, test.lat, d, test.want)
		}
	}
}

func TestDepthAtExcludesDryCorners(t *testing.T) {
	elev := sparse.ZerosDense(2, 2)
	elev.Set(-100, 0, 0)
	elev.Set(50, 0, 1) // dry
	elev.Set(-100, 1, 0)
	elev.Set(math.NaN(), 1, 1) // missing
	r, err := NewMemoryRaster(elev, testNoData, 0, 0, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	// Dry and missing corners drop out of the weighting, so the
	// interpolated depth stays at the wet value.
	d, water, err := r.DepthAt(0.5, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	if !water {
		t.Fatal("cell with wet corners reported land")
	}
	if math.Abs(d-100) > 1.e-9 {
		t.Errorf("depth with dry corners = %g; want 100", d)
	}
}

func TestDepthAtNoDataSentinel(t *testing.T) {
	elev := sparse.ZerosDense(2, 2)
	elev.Set(testNoData, 0, 0)
	elev.Set(testNoData, 0, 1)
	elev.Set(-60, 1, 0)
	elev.Set(-60, 1, 1)
	r, err := NewMemoryRaster(elev, testNoData, 0, 0, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	d, water, err := r.DepthAt(0.5, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	if !water || math.Abs(d-60) > 1.e-9 {
		t.Errorf("depth beside sentinel cells = %g, %v; want 60, true", d, water)
	}
}

func TestDepthAtLand(t *testing.T) {
	elev := sparse.ZerosDense(2, 2)
	for i := range elev.Elements {
		elev.Elements[i] = 200 // all dry
	}
	r, err := NewMemoryRaster(elev, testNoData, 0, 0, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	_, water, err := r.DepthAt(0.5, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	if water {
		t.Error("all-dry cell reported water")
	}
}

func TestDepthAtOutOfBounds(t *testing.T) {
	r := rampRaster(t)
	for _, p := range [][2]float64{{-1, 0}, {0, -1}, {5, 0}, {0, 5}} {
		_, _, err := r.DepthAt(p[0], p[1])
		if _, ok := err.(*OutOfBoundsError); !ok {
			t.Errorf("DepthAt(%g, %g) error = %v; want an OutOfBoundsError", p[0], p[1], err)
		}
	}
}

func TestDepthAtGlobalWrap(t *testing.T) {
	elev := sparse.ZerosDense(3, 360)
	for i := range elev.Elements {
		elev.Elements[i] = -200
	}
	r, err := NewMemoryRaster(elev, testNoData, 0, -1, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	// Between the last column (359°E) and the first (0°E = 360°E).
	d, water, err := r.DepthAt(-0.5, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !water || math.Abs(d-200) > 1.e-9 {
		t.Errorf("wrapped depth = %g, %v; want 200, true", d, water)
	}
}

// countingSource wraps a rasterSource and counts block reads.
type countingSource struct {
	rasterSource
	reads int
}

func (s *countingSource) readBlock(j0, i0, nj, ni int) (*sparse.DenseArray, error) {
	s.reads++
	return s.rasterSource.readBlock(j0, i0, nj, ni)
}

func TestRasterBlockCache(t *testing.T) {
	elev := sparse.ZerosDense(10, 10)
	for i := range elev.Elements {
		elev.Elements[i] = -100
	}
	src := &countingSource{rasterSource: &memoryRaster{data: elev, nodata: testNoData}}
	r, err := NewBathymetryRaster(src, 0, 0, 1, 1, 10, 10, 4)
	if err != nil {
		t.Fatal(err)
	}
	for k := 0; k < 5; k++ {
		if _, _, err := r.DepthAt(4.5, 4.5); err != nil {
			t.Fatal(err)
		}
	}
	// The whole raster fits in one block, so repeated queries hit the
	// cache after the first read.
	if src.reads != 1 {
		t.Errorf("source was read %d times; want 1", src.reads)
	}
}

func TestNewBathymetryRasterValidation(t *testing.T) {
	src := &memoryRaster{data: sparse.ZerosDense(1, 1), nodata: testNoData}
	if _, err := NewBathymetryRaster(src, 0, 0, 1, 1, 0, 5, 0); err == nil {
		t.Error("zero nx should fail")
	}
	if _, err := NewBathymetryRaster(src, 0, 0, -1, 1, 5, 5, 0); err == nil {
		t.Error("negative dx should fail")
	}
}
