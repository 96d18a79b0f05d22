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

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/index/rtree"
)

// kmPerDegree is the meridional length of one degree of latitude.
const kmPerDegree = 111.195

// coastSegment is one coastline edge held in the spatial index. The
// embedded geometry is the two-vertex line from a to b.
type coastSegment struct {
	geom.Geom
	a, b geom.Point
}

// Coastline answers distance-to-coast queries against a set of
// shoreline polylines. It is read-only after construction and safe for
// concurrent use.
type Coastline struct {
	index *rtree.Rtree
	n     int
}

// NewCoastline creates an empty coastline set.
func NewCoastline() *Coastline {
	return &Coastline{index: rtree.NewTree(25, 50)}
}

// Add indexes the segments of one polyline. Closed rings should repeat
// their first vertex at the end; open segments are accepted as-is.
func (c *Coastline) Add(line []geom.Point) {
	for i := 0; i < len(line)-1; i++ {
		c.index.Insert(&coastSegment{
			Geom: geom.LineString{line[i], line[i+1]},
			a:    line[i],
			b:    line[i+1],
		})
		c.n++
	}
}

// Len returns the number of indexed segments.
func (c *Coastline) Len() int { return c.n }

// DistanceToCoast returns the great-circle distance [km] from
// (lon, lat) to the nearest coastline segment. Longitude is wrapped
// modulo 360 and latitude clamped to [-90, 90] before the query, so
// antimeridian and polar queries are well defined. Points on the
// coastline return 0. Querying an empty coastline is an error.
func (c *Coastline) DistanceToCoast(lon, lat float64) (float64, error) {
	if c.n == 0 {
		return 0, fmt.Errorf("wavemesh: distance query against an empty coastline")
	}
	lon = wrapLongitude(lon)
	lat = clampLatitude(lat)
	p := geom.Point{X: lon, Y: lat}

	// Expand the search box until it contains at least one segment,
	// then re-search once with a box guaranteed to contain every
	// segment that could be nearer than the best hit so far.
	best := math.Inf(1)
	for radius := 0.5; ; radius *= 4 {
		if d := c.nearestInBoxes(p, radius); d < best {
			best = d
		}
		if !math.IsInf(best, 1) || radius > 360 {
			break
		}
	}
	if math.IsInf(best, 1) {
		return 0, fmt.Errorf("wavemesh: no coastline segment found near (%g, %g)", lon, lat)
	}
	if d := c.nearestInBoxes(p, best/kmPerDegree+1.e-9); d < best {
		best = d
	}
	return best, nil
}

// nearestInBoxes returns the distance [km] to the nearest indexed
// segment within radius degrees of latitude of p, or +Inf if the boxes
// are empty.
func (c *Coastline) nearestInBoxes(p geom.Point, radius float64) float64 {
	best := math.Inf(1)
	for _, b := range searchBoxes(p, radius) {
		for _, s := range c.index.SearchIntersect(b) {
			if d := segmentDistance(p, s.(*coastSegment)); d < best {
				best = d
			}
		}
	}
	return best
}

// searchBoxes returns bounding boxes around p wide enough to contain
// every point within radius degrees of latitude, accounting for
// longitude convergence toward the poles. A box reaching past ±180 is
// duplicated shifted by 360°, since the index stores plain longitudes
// and a single box cannot see across the antimeridian seam.
func searchBoxes(p geom.Point, radius float64) []*geom.Bounds {
	cosLat := math.Cos(p.Y * math.Pi / 180)
	if cosLat < 0.01 {
		cosLat = 0.01
	}
	b := &geom.Bounds{
		Min: geom.Point{X: p.X - radius/cosLat, Y: p.Y - radius},
		Max: geom.Point{X: p.X + radius/cosLat, Y: p.Y + radius},
	}
	boxes := []*geom.Bounds{b}
	if b.Min.X < -180 {
		boxes = append(boxes, &geom.Bounds{
			Min: geom.Point{X: b.Min.X + 360, Y: b.Min.Y},
			Max: geom.Point{X: b.Max.X + 360, Y: b.Max.Y},
		})
	}
	if b.Max.X > 180 {
		boxes = append(boxes, &geom.Bounds{
			Min: geom.Point{X: b.Min.X - 360, Y: b.Min.Y},
			Max: geom.Point{X: b.Max.X - 360, Y: b.Max.Y},
		})
	}
	return boxes
}

// segmentDistance returns the distance [km] from p to segment s using
// a local equirectangular projection centered on p. Longitude offsets
// are wrapped into [-180, 180] so segments across the antimeridian
// measure correctly.
func segmentDistance(p geom.Point, s *coastSegment) float64 {
	cosLat := math.Cos(p.Y * math.Pi / 180)
	ax := wrapLongitude(s.a.X-p.X) * cosLat * kmPerDegree
	ay := (s.a.Y - p.Y) * kmPerDegree
	bx := wrapLongitude(s.b.X-p.X) * cosLat * kmPerDegree
	by := (s.b.Y - p.Y) * kmPerDegree

	dx, dy := bx-ax, by-ay
	segLen2 := dx*dx + dy*dy
	if segLen2 == 0 {
		return math.Hypot(ax, ay)
	}
	// Parameter of the projection of the origin onto the segment.
	t := -(ax*dx + ay*dy) / segLen2
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return math.Hypot(ax+t*dx, ay+t*dy)
}
