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
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ctessum/cdf"
	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	"github.com/ctessum/sparse"
	goshp "github.com/jonas-p/go-shp"
)

// wgs84Proj4 is the spatial reference written alongside output
// shapefiles.
const wgs84Proj4 = `GEOGCS["GCS_WGS_1984",DATUM["D_WGS_1984",SPHEROID["WGS_1984",6378137,298.257223563]],PRIMEM["Greenwich",0],UNIT["Degree",0.017453292519943295]]`

// cdfRaster is a rasterSource backed by a NetCDF file. Block reads
// share the file handle, so they are serialized by a mutex; the
// BathymetryRaster cache in front of it keeps contention low.
type cdfRaster struct {
	f       *os.File
	cf      *cdf.File
	varName string
	nodata  float64
	nx      int
	mx      sync.Mutex
}

func (r *cdfRaster) noData() float64 { return r.nodata }

func (r *cdfRaster) readBlock(j0, i0, nj, ni int) (*sparse.DenseArray, error) {
	r.mx.Lock()
	defer r.mx.Unlock()
	rr := r.cf.Reader(r.varName, []int{j0, i0}, []int{j0 + nj, i0 + ni})
	buf := rr.Zero(nj * ni)
	if _, err := rr.Read(buf); err != nil && err != io.EOF {
		return nil, err
	}
	b := sparse.ZerosDense(nj, ni)
	switch v := buf.(type) {
	case []float64:
		copy(b.Elements, v)
	case []float32:
		for i, e := range v {
			b.Elements[i] = float64(e)
		}
	case []int32:
		for i, e := range v {
			b.Elements[i] = float64(e)
		}
	case []int16:
		for i, e := range v {
			b.Elements[i] = float64(e)
		}
	default:
		return nil, fmt.Errorf("unsupported data type %T for variable %s", buf, r.varName)
	}
	return b, nil
}

// Close releases the bathymetry file handle.
func (r *cdfRaster) Close() error { return r.f.Close() }

// coordAxis reads a 1-D coordinate variable and returns its origin and
// (uniform) step.
func coordAxis(cf *cdf.File, name string) (origin, step float64, n int, err error) {
	lengths := cf.Header.Lengths(name)
	if len(lengths) != 1 {
		return 0, 0, 0, fmt.Errorf("coordinate variable %s is not 1-dimensional", name)
	}
	n = lengths[0]
	if n < 2 {
		return 0, 0, 0, fmt.Errorf("coordinate variable %s has fewer than 2 values", name)
	}
	rr := cf.Reader(name, nil, nil)
	buf := rr.Zero(n)
	if _, err := rr.Read(buf); err != nil && err != io.EOF {
		return 0, 0, 0, err
	}
	var vals []float64
	switch v := buf.(type) {
	case []float64:
		vals = v
	case []float32:
		vals = make([]float64, n)
		for i, e := range v {
			vals[i] = float64(e)
		}
	default:
		return 0, 0, 0, fmt.Errorf("unsupported data type %T for coordinate %s", buf, name)
	}
	return vals[0], (vals[n-1] - vals[0]) / float64(n-1), n, nil
}

// findVariable returns the first of names present in the file.
func findVariable(cf *cdf.File, names ...string) (string, error) {
	have := map[string]bool{}
	for _, v := range cf.Header.Variables() {
		have[v] = true
	}
	for _, name := range names {
		if have[name] {
			return name, nil
		}
	}
	return "", fmt.Errorf("none of the variables %v are present; file has %v", names, cf.Header.Variables())
}

// LoadBathymetry opens a NetCDF bathymetry file and returns a
// block-cached raster over its elevation variable (negative below sea
// level). The returned closer releases the file handle and must be
// held open for the lifetime of the raster. cacheBlocks ≤ 0 selects
// the default cache size.
func LoadBathymetry(filename string, cacheBlocks int) (*BathymetryRaster, io.Closer, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, nil, fmt.Errorf("wavemesh: while opening bathymetry file: %v", err)
	}
	cf, err := cdf.Open(f)
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("wavemesh: while reading bathymetry file %s: %v", filename, err)
	}
	lonName, err := findVariable(cf, "lon", "longitude", "x")
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("wavemesh: bathymetry file %s: %v", filename, err)
	}
	latName, err := findVariable(cf, "lat", "latitude", "y")
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("wavemesh: bathymetry file %s: %v", filename, err)
	}
	elevName, err := findVariable(cf, "z", "elevation", "Band1", "topo")
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("wavemesh: bathymetry file %s: %v", filename, err)
	}
	xo, dx, nx, err := coordAxis(cf, lonName)
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("wavemesh: bathymetry file %s: %v", filename, err)
	}
	yo, dy, ny, err := coordAxis(cf, latName)
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("wavemesh: bathymetry file %s: %v", filename, err)
	}
	nodata := math.NaN()
	if a := cf.Header.GetAttribute(elevName, "_FillValue"); a != nil {
		switch v := a.(type) {
		case []float64:
			nodata = v[0]
		case []float32:
			nodata = float64(v[0])
		}
	}
	source := &cdfRaster{f: f, cf: cf, varName: elevName, nodata: nodata, nx: nx}
	r, err := NewBathymetryRaster(source, xo, yo, dx, dy, nx, ny, cacheBlocks)
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return r, source, nil
}

// shapeRow is the archetype for decoding coastline shapefile rows.
type shapeRow struct {
	geom.Geom
}

// ReadCoastlineShapefiles indexes the polylines and polygon rings in
// the given shapefiles as coastline segments. Status messages are sent
// to c if it is not nil.
func ReadCoastlineShapefiles(c chan string, filenames ...string) (*Coastline, error) {
	coast := NewCoastline()
	for _, fname := range filenames {
		if c != nil {
			c <- fmt.Sprintf("Loading coastline shapefile: %s.\n", fname)
		}
		fname = strings.TrimSuffix(fname, ".shp")
		f, err := shp.NewDecoder(fname + ".shp")
		if err != nil {
			return nil, fmt.Errorf("wavemesh: while opening coastline shapefile %s: %v", fname, err)
		}
		for {
			var row shapeRow
			if ok := f.DecodeRow(&row); !ok {
				break
			}
			addCoastGeometry(coast, row.Geom)
		}
		f.Close()
		if err := f.Error(); err != nil {
			return nil, fmt.Errorf("wavemesh: while reading coastline shapefile %s: %v", fname, err)
		}
	}
	if coast.Len() == 0 {
		return nil, fmt.Errorf("wavemesh: no coastline segments found in %v", filenames)
	}
	return coast, nil
}

// addCoastGeometry indexes the segments of any linear or polygonal
// geometry.
func addCoastGeometry(coast *Coastline, g geom.Geom) {
	switch t := g.(type) {
	case geom.LineString:
		coast.Add([]geom.Point(t))
	case geom.MultiLineString:
		for _, l := range t {
			coast.Add([]geom.Point(l))
		}
	case geom.Polygon:
		for _, ring := range t {
			coast.Add(closeRing(ring))
		}
	case geom.MultiPolygon:
		for _, p := range t {
			for _, ring := range p {
				coast.Add(closeRing(ring))
			}
		}
	}
}

// closeRing appends the first vertex to the end of a ring if the ring
// is not already closed.
func closeRing(ring []geom.Point) []geom.Point {
	if len(ring) > 1 && ring[0] != ring[len(ring)-1] {
		return append(append([]geom.Point{}, ring...), ring[0])
	}
	return ring
}

// RegionFile references one polygon refinement shapefile together
// with its target spacing and tie-break priority.
type RegionFile struct {
	Path     string
	Spacing  float64 // target spacing [km]
	Priority int
}

// ReadRegionShapefiles loads polygon refinement regions into overlay.
// A malformed file or ring is reported to c and skipped unless strict
// is true, in which case it is a fatal ConfigError.
func ReadRegionShapefiles(overlay *RegionOverlay, files []RegionFile, strict bool, c chan string) error {
	report := func(fname string, err error) error {
		if strict {
			return &ConfigError{Field: "RefinementRegions",
				Problem: fmt.Sprintf("%s: %v", fname, err)}
		}
		if c != nil {
			c <- fmt.Sprintf("Warning: skipping refinement region %s: %v\n", fname, err)
		}
		return nil
	}
	for _, rf := range files {
		fname := strings.TrimSuffix(rf.Path, ".shp")
		f, err := shp.NewDecoder(fname + ".shp")
		if err != nil {
			if err := report(fname, err); err != nil {
				return err
			}
			continue
		}
		for {
			var row shapeRow
			if ok := f.DecodeRow(&row); !ok {
				break
			}
			for _, poly := range regionPolygons(row.Geom) {
				r, err := NewPolygonRegion(poly, rf.Spacing)
				if err != nil {
					if err := report(fname, err); err != nil {
						f.Close()
						return err
					}
					continue
				}
				overlay.Add(r, rf.Priority)
			}
		}
		f.Close()
		if err := f.Error(); err != nil {
			if err := report(fname, err); err != nil {
				return err
			}
		}
	}
	return nil
}

// regionPolygons extracts the polygons from a decoded shapefile
// geometry.
func regionPolygons(g geom.Geom) []geom.Polygon {
	switch t := g.(type) {
	case geom.Polygon:
		return []geom.Polygon{t}
	case geom.MultiPolygon:
		return []geom.Polygon(t)
	}
	return nil
}

// WriteGridShapefile writes the finalized grid as a point shapefile
// with spacing, mask status, and basin attributes. mask may be nil.
func WriteGridShapefile(grid *SpacingGrid, mask *GridMask, filename string) error {
	fileBase := strings.TrimSuffix(filename, filepath.Ext(filename))
	fields := []goshp.Field{
		goshp.FloatField("spacing", 14, 8),
		goshp.NumberField("status", 4),
		goshp.NumberField("basin", 4),
	}
	shape, err := shp.NewEncoderFromFields(fileBase+".shp", goshp.POINT, fields...)
	if err != nil {
		return fmt.Errorf("wavemesh: while creating output shapefile: %v", err)
	}
	for j := 0; j < grid.Ny; j++ {
		for i := 0; i < grid.Nx; i++ {
			lon, lat := grid.LonLat(j, i)
			status, basin := int(MaskWater), basinWorld
			if mask != nil {
				status, basin = int(mask.Status(j, i)), mask.Basin(j, i)
			}
			err := shape.EncodeFields(geom.Point{X: lon, Y: lat}, grid.At(j, i), status, basin)
			if err != nil {
				shape.Close()
				return fmt.Errorf("wavemesh: while writing output shapefile: %v", err)
			}
		}
	}
	shape.Close()

	f, err := os.Create(fileBase + ".prj")
	if err != nil {
		return fmt.Errorf("wavemesh: while creating output prj file: %v", err)
	}
	fmt.Fprint(f, wgs84Proj4)
	return f.Close()
}

// WriteWW3Spacing writes the grid in the WAVEWATCH III text layout:
// a header with the grid geometry followed by spacing values in
// kilometers, one row per line from north to south.
func WriteWW3Spacing(grid *SpacingGrid, w io.Writer) error {
	_, err := fmt.Fprintf(w, "%d %d\n%.6f %.6f %.6f %.6f\n",
		grid.Nx, grid.Ny, grid.Xo, grid.Yo, grid.Dx, grid.Dy)
	if err != nil {
		return fmt.Errorf("wavemesh: while writing spacing header: %v", err)
	}
	for j := grid.Ny - 1; j >= 0; j-- {
		for i := 0; i < grid.Nx; i++ {
			sep := " "
			if i == 0 {
				sep = ""
			}
			if _, err := fmt.Fprintf(w, "%s%10.4f", sep, grid.At(j, i)); err != nil {
				return fmt.Errorf("wavemesh: while writing spacing row %d: %v", j, err)
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return fmt.Errorf("wavemesh: while writing spacing row %d: %v", j, err)
		}
	}
	return nil
}

// WriteWW3Mask writes the mask status codes in the WAVEWATCH III text
// layout, one row per line from north to south: 0 land, 1 water,
// 2 coastal, 3 excluded.
func WriteWW3Mask(mask *GridMask, w io.Writer) error {
	for j := mask.Ny - 1; j >= 0; j-- {
		for i := 0; i < mask.Nx; i++ {
			sep := " "
			if i == 0 {
				sep = ""
			}
			if _, err := fmt.Fprintf(w, "%s%d", sep, mask.Status(j, i)); err != nil {
				return fmt.Errorf("wavemesh: while writing mask row %d: %v", j, err)
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return fmt.Errorf("wavemesh: while writing mask row %d: %v", j, err)
		}
	}
	return nil
}

// ReadMaskFile reads a MAPSTA-style status variable of shape
// [Ny, Nx] from a NetCDF mask file.
func ReadMaskFile(filename string) (*sparse.DenseArrayInt, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("wavemesh: while opening mask file: %v", err)
	}
	defer f.Close()
	cf, err := cdf.Open(f)
	if err != nil {
		return nil, fmt.Errorf("wavemesh: while reading mask file %s: %v", filename, err)
	}
	varName, err := findVariable(cf, "MAPSTA", "mapsta", "mask")
	if err != nil {
		return nil, fmt.Errorf("wavemesh: mask file %s: %v", filename, err)
	}
	lengths := cf.Header.Lengths(varName)
	if len(lengths) != 2 {
		return nil, fmt.Errorf("wavemesh: mask variable %s in %s is not 2-dimensional", varName, filename)
	}
	n := lengths[0] * lengths[1]
	rr := cf.Reader(varName, nil, nil)
	buf := rr.Zero(n)
	if _, err := rr.Read(buf); err != nil && err != io.EOF {
		return nil, fmt.Errorf("wavemesh: while reading mask variable %s: %v", varName, err)
	}
	out := sparse.ZerosDenseInt(lengths[0], lengths[1])
	switch v := buf.(type) {
	case []int32:
		for i, e := range v {
			out.Elements[i] = int(e)
		}
	case []int16:
		for i, e := range v {
			out.Elements[i] = int(e)
		}
	case []float64:
		for i, e := range v {
			out.Elements[i] = int(e)
		}
	case []float32:
		for i, e := range v {
			out.Elements[i] = int(e)
		}
	default:
		return nil, fmt.Errorf("wavemesh: unsupported data type %T for mask variable %s", buf, varName)
	}
	return out, nil
}
