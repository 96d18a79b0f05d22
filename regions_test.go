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
	"testing"

	"github.com/ctessum/geom"
)

func square(minLon, minLat, maxLon, maxLat float64) geom.Polygon {
	return geom.Polygon{{
		{X: minLon, Y: minLat},
		{X: maxLon, Y: minLat},
		{X: maxLon, Y: maxLat},
		{X: minLon, Y: maxLat},
		{X: minLon, Y: minLat},
	}}
}

func TestWindowRegion(t *testing.T) {
	w, err := NewWindowRegion(10, 20, -5, 5, 3)
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		lon, lat float64
		want     bool
	}{
		{15, 0, true},
		{10, -5, true}, // boundary points are inside
		{20, 5, true},
		{9.99, 0, false},
		{15, 6, false},
	}
	for _, test := range tests {
		if got := w.Contains(test.lon, test.lat); got != test.want {
			t.Errorf("window.Contains(%g, %g) = %v; want %v", test.lon, test.lat, got, test.want)
		}
	}
	if w.TargetSpacing() != 3 {
		t.Errorf("TargetSpacing = %g; want 3", w.TargetSpacing())
	}
	if _, err := NewWindowRegion(20, 10, -5, 5, 3); err == nil {
		t.Error("inverted window should fail")
	}
	if _, err := NewWindowRegion(10, 20, -5, 5, 0); err == nil {
		t.Error("non-positive target should fail")
	}
}

func TestPolygonRegion(t *testing.T) {
	r, err := NewPolygonRegion(square(0, 0, 10, 10), 2)
	if err != nil {
		t.Fatal(err)
	}
	if !r.Contains(5, 5) {
		t.Error("point inside the polygon reported outside")
	}
	if !r.Contains(0, 5) {
		t.Error("boundary point reported outside")
	}
	if r.Contains(11, 5) {
		t.Error("point outside the polygon reported inside")
	}

	// Regions spanning the antimeridian are rejected.
	if _, err := NewPolygonRegion(square(-170, 0, 170, 10), 2); err == nil {
		t.Error("antimeridian-spanning polygon should be rejected")
	}
}

func TestOverlayResolution(t *testing.T) {
	overlay := NewRegionOverlay()

	w1, _ := NewWindowRegion(0, 10, 0, 10, 8)
	w2, _ := NewWindowRegion(5, 15, 5, 15, 3)
	overlay.Add(w1, 0)
	overlay.Add(w2, 0)

	// A point inside exactly one region gets that region's target.
	if h, ok := overlay.OverrideAt(2, 2); !ok || h != 8 {
		t.Errorf("OverrideAt(2, 2) = %g, %v; want 8, true", h, ok)
	}
	// A point inside two regions gets the minimum target.
	if h, ok := overlay.OverrideAt(7, 7); !ok || h != 3 {
		t.Errorf("OverrideAt(7, 7) = %g, %v; want 3, true", h, ok)
	}
	// A point inside no region is unconstrained.
	if _, ok := overlay.OverrideAt(50, 50); ok {
		t.Error("OverrideAt outside all regions should report no override")
	}
}

func TestOverlayTieBreaks(t *testing.T) {
	// Equal targets: explicit priority wins.
	overlay := NewRegionOverlay()
	a, _ := NewWindowRegion(0, 10, 0, 10, 5)
	b, _ := NewWindowRegion(0, 10, 0, 10, 5)
	overlay.Add(a, 2)
	overlay.Add(b, 1)
	eA := &overlayEntry{region: a, priority: 2, order: 0}
	eB := &overlayEntry{region: b, priority: 1, order: 1}
	if !less(eB, eA) {
		t.Error("lower priority value should win the tie")
	}

	// Equal targets and priorities: first-listed wins.
	eC := &overlayEntry{region: a, priority: 1, order: 0}
	eD := &overlayEntry{region: b, priority: 1, order: 1}
	if !less(eC, eD) {
		t.Error("first-listed region should win the tie")
	}

	// The resolved override is still the shared target.
	if h, ok := overlay.OverrideAt(5, 5); !ok || h != 5 {
		t.Errorf("OverrideAt(5, 5) = %g, %v; want 5, true", h, ok)
	}
}

func TestOverlayAsConstraintLayer(t *testing.T) {
	overlay := NewRegionOverlay()
	w, _ := NewWindowRegion(0, 10, 0, 10, 5)
	overlay.Add(w, 0)
	var layer ConstraintLayer = overlay
	h, constrained, err := layer.SpacingAt(5, 5)
	if err != nil {
		t.Fatal(err)
	}
	if !constrained || h != 5 {
		t.Errorf("SpacingAt(5, 5) = %g, %v; want 5, true", h, constrained)
	}
}
