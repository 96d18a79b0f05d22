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

import "container/heap"

// limitTol is the tolerance used when comparing spacing values during
// gradient limiting, so re-applying the limiter to an already-limited
// grid is a no-op.
const limitTol = 1.e-12

// LimitResult reports the outcome of a gradient-limiting pass.
type LimitResult struct {
	// Converged is false if the relaxation hit its iteration cap; the
	// grid then holds a best-effort result.
	Converged bool
	// Passes counts queue pops performed.
	Passes int
	// Lowered counts lowering relaxations applied.
	Lowered int
}

// LimitGradient enforces the relative gradient bound
// |h(p)-h(q)| ≤ maxRate·d(p,q)·min(h(p), h(q)) between all pairs of
// adjacent samples, modifying grid in place. Spacing values are only
// ever lowered, so every other field invariant is preserved.
//
// The bound is enforced as a shortest-path relaxation: cells are
// popped from a priority queue in order of increasing spacing (the
// lowest-spacing cells are the seeds of the wavefront) and each
// neighbor q of a popped cell p is capped at h(p)·(1+maxRate·d(p,q)).
// Because pops are monotone in h, one sweep of the queue establishes
// the bound everywhere, and re-applying the limiter changes nothing.
func LimitGradient(grid *SpacingGrid, maxRate float64) *LimitResult {
	res := &LimitResult{Converged: true}
	if maxRate <= 0 || grid.Nx*grid.Ny == 0 {
		return res
	}

	// Pops are bounded by the initial heap plus one push per
	// successful relaxation; the cap is only a guard against a
	// comparison-tolerance cycle.
	maxPasses := 32 * grid.Nx * grid.Ny

	q := make(limitQueue, 0, grid.Nx*grid.Ny)
	for j := 0; j < grid.Ny; j++ {
		for i := 0; i < grid.Nx; i++ {
			q = append(q, limitItem{j: j, i: i, h: grid.At(j, i)})
		}
	}
	heap.Init(&q)

	wrap := grid.Dx*float64(grid.Nx) >= 360-1.e-6
	dy := grid.cellDy()

	for q.Len() > 0 {
		it := heap.Pop(&q).(limitItem)
		if it.h > grid.At(it.j, it.i)+limitTol {
			continue // stale entry; the cell was lowered after this push
		}
		res.Passes++
		if res.Passes > maxPasses {
			res.Converged = false
			break
		}
		h := grid.At(it.j, it.i)
		dx := grid.cellDx(it.j)

		type neighbor struct {
			j, i int
			d    float64
		}
		neighbors := [4]neighbor{
			{it.j, it.i - 1, dx},
			{it.j, it.i + 1, dx},
			{it.j - 1, it.i, dy},
			{it.j + 1, it.i, dy},
		}
		for _, n := range neighbors {
			if n.j < 0 || n.j >= grid.Ny {
				continue
			}
			if n.i < 0 || n.i >= grid.Nx {
				if !wrap {
					continue
				}
				n.i = (n.i + grid.Nx) % grid.Nx
			}
			allowed := h * (1 + maxRate*n.d)
			if grid.At(n.j, n.i) > allowed+limitTol {
				grid.set(allowed, n.j, n.i)
				res.Lowered++
				heap.Push(&q, limitItem{j: n.j, i: n.i, h: allowed})
			}
		}
	}
	return res
}

type limitItem struct {
	j, i int
	h    float64
}

type limitQueue []limitItem

func (q limitQueue) Len() int            { return len(q) }
func (q limitQueue) Less(a, b int) bool  { return q[a].h < q[b].h }
func (q limitQueue) Swap(a, b int)       { q[a], q[b] = q[b], q[a] }
func (q *limitQueue) Push(x interface{}) { *q = append(*q, x.(limitItem)) }
func (q *limitQueue) Pop() interface{} {
	old := *q
	n := len(old)
	it := old[n-1]
	*q = old[:n-1]
	return it
}
