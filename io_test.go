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
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	"github.com/ctessum/sparse"
)

func TestWriteWW3Spacing(t *testing.T) {
	cfg := &SpacingConfig{
		HMax: 100, HMin: 1, HShr: 4, NWav: 100, DhDx: 0.15,
		Xo: 0, Yo: 0, Dx: 1, Dy: 1, Nx: 2, Ny: 2,
	}
	g := NewSpacingGrid(cfg)
	g.set(1.5, 0, 0)
	g.set(2, 0, 1)
	g.set(3, 1, 0)
	g.set(4, 1, 1)

	var buf bytes.Buffer
	if err := WriteWW3Spacing(g, &buf); err != nil {
		t.Fatal(err)
	}
	want := "2 2\n" +
		"0.000000 0.000000 1.000000 1.000000\n" +
		"    3.0000     4.0000\n" +
		"    1.5000     2.0000\n"
	if got := buf.String(); got != want {
		t.Errorf("spacing output = %q; want %q", got, want)
	}
}

func TestWriteWW3Mask(t *testing.T) {
	m := &GridMask{
		Nx: 3, Ny: 2,
		status: sparse.ZerosDenseInt(2, 3),
		basin:  sparse.ZerosDenseInt(2, 3),
	}
	m.status.Set(int(MaskWater), 0, 0)
	m.status.Set(int(MaskCoastal), 0, 1)
	m.status.Set(int(MaskExcluded), 1, 2)

	var buf bytes.Buffer
	if err := WriteWW3Mask(m, &buf); err != nil {
		t.Fatal(err)
	}
	want := "0 0 3\n1 2 0\n"
	if got := buf.String(); got != want {
		t.Errorf("mask output = %q; want %q", got, want)
	}
}

func TestWriteGridShapefile(t *testing.T) {
	cfg := &SpacingConfig{
		HMax: 100, HMin: 1, HShr: 4, NWav: 100, DhDx: 0.15,
		Xo: 10, Yo: 20, Dx: 1, Dy: 1, Nx: 2, Ny: 2,
	}
	g := NewSpacingGrid(cfg)
	for j := 0; j < 2; j++ {
		for i := 0; i < 2; i++ {
			g.set(float64(10+j*2+i), j, i)
		}
	}

	dir := t.TempDir()
	fname := filepath.Join(dir, "out.shp")
	if err := WriteGridShapefile(g, nil, fname); err != nil {
		t.Fatal(err)
	}

	prj, err := os.ReadFile(filepath.Join(dir, "out.prj"))
	if err != nil {
		t.Fatal(err)
	}
	if string(prj) != wgs84Proj4 {
		t.Error("prj file does not hold the WGS84 reference")
	}

	d, err := shp.NewDecoder(fname)
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()
	var rows []geom.Geom
	for {
		var row shapeRow
		if ok := d.DecodeRow(&row); !ok {
			break
		}
		rows = append(rows, row.Geom)
	}
	if err := d.Error(); err != nil {
		t.Fatal(err)
	}
	if len(rows) != 4 {
		t.Fatalf("decoded %d rows; want 4", len(rows))
	}
	if p, ok := rows[0].(geom.Point); !ok || p.X != 10 || p.Y != 20 {
		t.Errorf("first point = %v; want (10, 20)", rows[0])
	}
}

func TestCloseRing(t *testing.T) {
	open := []geom.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}}
	closed := closeRing(open)
	if len(closed) != 4 || closed[3] != open[0] {
		t.Errorf("closeRing did not close the ring: %v", closed)
	}
	if got := closeRing(closed); len(got) != 4 {
		t.Errorf("closeRing re-closed a closed ring: %v", got)
	}
}

func TestAddCoastGeometry(t *testing.T) {
	tests := []struct {
		name string
		g    geom.Geom
		want int
	}{
		{"line string", geom.LineString{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0}}, 2},
		{"multi line string", geom.MultiLineString{
			{{X: 0, Y: 0}, {X: 1, Y: 0}},
			{{X: 5, Y: 5}, {X: 6, Y: 5}},
		}, 2},
		{"open polygon ring", geom.Polygon{{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}}}, 3},
		{"multi polygon", geom.MultiPolygon{
			{{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 0}}},
		}, 3},
		{"point is ignored", geom.Point{X: 0, Y: 0}, 0},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			coast := NewCoastline()
			addCoastGeometry(coast, test.g)
			if coast.Len() != test.want {
				t.Errorf("indexed %d segments; want %d", coast.Len(), test.want)
			}
		})
	}
}

func TestRegionPolygons(t *testing.T) {
	poly := square(0, 0, 1, 1)
	if got := regionPolygons(poly); len(got) != 1 {
		t.Errorf("polygon yielded %d polygons; want 1", len(got))
	}
	mp := geom.MultiPolygon{square(0, 0, 1, 1), square(2, 2, 3, 3)}
	if got := regionPolygons(mp); len(got) != 2 {
		t.Errorf("multipolygon yielded %d polygons; want 2", len(got))
	}
	if got := regionPolygons(geom.Point{}); got != nil {
		t.Errorf("point yielded %v; want nil", got)
	}
}
