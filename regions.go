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

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/index/rtree"
)

// RefinementRegion is a localized minimum-spacing override: a polygon
// or an axis-aligned window carrying a target spacing. Implementations
// are read-only after construction.
type RefinementRegion interface {
	// Contains reports whether (lon, lat) lies inside the region.
	// Points on the boundary are inside.
	Contains(lon, lat float64) bool
	// TargetSpacing returns the region's target spacing [km].
	TargetSpacing() float64
	// Bounds returns the region's bounding box for spatial indexing.
	Bounds() *geom.Bounds
}

// PolygonRegion is a refinement region bounded by polygon rings.
type PolygonRegion struct {
	poly   geom.Polygon
	target float64
}

// NewPolygonRegion creates a refinement region from a closed polygon
// with the given target spacing [km].
func NewPolygonRegion(poly geom.Polygon, target float64) (*PolygonRegion, error) {
	if target <= 0 {
		return nil, fmt.Errorf("wavemesh: polygon region target spacing must be positive; got %g", target)
	}
	b := poly.Bounds()
	if b.Max.X-b.Min.X > 180 {
		// Rings spanning more than half the globe almost certainly
		// cross the antimeridian, which the even-odd test cannot
		// handle; the caller must split such regions beforehand.
		return nil, fmt.Errorf("wavemesh: polygon region spans %g degrees of longitude; "+
			"regions crossing the antimeridian must be split at ±180", b.Max.X-b.Min.X)
	}
	return &PolygonRegion{poly: poly, target: target}, nil
}

// Contains reports whether (lon, lat) is inside the polygon by the
// even-odd rule; boundary points are inside.
func (r *PolygonRegion) Contains(lon, lat float64) bool {
	p := geom.Point{X: wrapLongitude(lon), Y: clampLatitude(lat)}
	return p.Within(r.poly) != geom.Outside
}

// TargetSpacing returns the region's target spacing [km].
func (r *PolygonRegion) TargetSpacing() float64 { return r.target }

// Bounds returns the polygon's bounding box.
func (r *PolygonRegion) Bounds() *geom.Bounds { return r.poly.Bounds() }

// WindowRegion is an axis-aligned lon/lat window refinement region.
type WindowRegion struct {
	MinLon, MaxLon float64
	MinLat, MaxLat float64
	target         float64
}

// NewWindowRegion creates a window refinement region with the given
// target spacing [km].
func NewWindowRegion(minLon, maxLon, minLat, maxLat, target float64) (*WindowRegion, error) {
	if target <= 0 {
		return nil, fmt.Errorf("wavemesh: window region target spacing must be positive; got %g", target)
	}
	if maxLon <= minLon || maxLat <= minLat {
		return nil, fmt.Errorf("wavemesh: empty window region [%g, %g]×[%g, %g]",
			minLon, maxLon, minLat, maxLat)
	}
	return &WindowRegion{
		MinLon: minLon, MaxLon: maxLon,
		MinLat: minLat, MaxLat: maxLat,
		target: target,
	}, nil
}

// Contains reports whether (lon, lat) is inside the window; boundary
// points are inside.
func (r *WindowRegion) Contains(lon, lat float64) bool {
	lon = wrapLongitude(lon)
	lat = clampLatitude(lat)
	return lon >= r.MinLon && lon <= r.MaxLon && lat >= r.MinLat && lat <= r.MaxLat
}

// TargetSpacing returns the region's target spacing [km].
func (r *WindowRegion) TargetSpacing() float64 { return r.target }

// Bounds returns the window's bounding box.
func (r *WindowRegion) Bounds() *geom.Bounds {
	return &geom.Bounds{
		Min: geom.Point{X: r.MinLon, Y: r.MinLat},
		Max: geom.Point{X: r.MaxLon, Y: r.MaxLat},
	}
}

// overlayEntry is one indexed region together with its resolution
// metadata. The embedded geometry is the region's bounding rectangle,
// which is all the spatial index consults.
type overlayEntry struct {
	geom.Geom
	region   RefinementRegion
	priority int
	order    int
}

// boundsPolygon converts a bounding box to a rectangular polygon.
func boundsPolygon(b *geom.Bounds) geom.Polygon {
	return geom.Polygon{{
		b.Min,
		{X: b.Max.X, Y: b.Min.Y},
		b.Max,
		{X: b.Min.X, Y: b.Max.Y},
	}}
}

// RegionOverlay resolves spacing overrides from a set of refinement
// regions. Where several regions contain a point, the minimum target
// spacing wins; ties are broken by explicit priority (lower wins) and
// then by the order regions were added (first wins), giving a single
// deterministic total order. The overlay is read-only after
// construction and safe for concurrent queries.
type RegionOverlay struct {
	index *rtree.Rtree
	n     int
}

// NewRegionOverlay creates an empty overlay.
func NewRegionOverlay() *RegionOverlay {
	return &RegionOverlay{index: rtree.NewTree(25, 50)}
}

// Add indexes a region. priority breaks ties between regions with
// equal target spacing; lower values win and 0 is an acceptable
// default, leaving resolution to insertion order.
func (o *RegionOverlay) Add(r RefinementRegion, priority int) {
	o.index.Insert(&overlayEntry{
		Geom:     boundsPolygon(r.Bounds()),
		region:   r,
		priority: priority,
		order:    o.n,
	})
	o.n++
}

// Len returns the number of indexed regions.
func (o *RegionOverlay) Len() int { return o.n }

// OverrideAt returns the spacing override [km] at (lon, lat), or
// ok=false if no region contains the point.
func (o *RegionOverlay) OverrideAt(lon, lat float64) (h float64, ok bool) {
	p := geom.Point{X: wrapLongitude(lon), Y: clampLatitude(lat)}
	var best *overlayEntry
	for _, ei := range o.index.SearchIntersect(p.Bounds()) {
		e := ei.(*overlayEntry)
		if !e.region.Contains(lon, lat) {
			continue
		}
		if best == nil || less(e, best) {
			best = e
		}
	}
	if best == nil {
		return 0, false
	}
	return best.region.TargetSpacing(), true
}

// less orders overlay entries: most refined first, then by explicit
// priority, then by insertion order.
func less(a, b *overlayEntry) bool {
	if a.region.TargetSpacing() != b.region.TargetSpacing() {
		return a.region.TargetSpacing() < b.region.TargetSpacing()
	}
	if a.priority != b.priority {
		return a.priority < b.priority
	}
	return a.order < b.order
}

// Name implements ConstraintLayer.
func (o *RegionOverlay) Name() string { return "regional refinement" }

// SpacingAt implements ConstraintLayer: the override target where one
// applies, unconstrained elsewhere.
func (o *RegionOverlay) SpacingAt(lon, lat float64) (float64, bool, error) {
	h, ok := o.OverrideAt(lon, lat)
	return h, ok, nil
}
