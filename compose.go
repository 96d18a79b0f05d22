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
	"runtime"
	"sync"
)

// EmptyConstraintError indicates that no constraint layer and no
// global fallback bounded the spacing at some sample. It signals a
// compositor bug or a pathological configuration and is fatal.
type EmptyConstraintError struct {
	Lon, Lat float64
}

func (e *EmptyConstraintError) Error() string {
	return fmt.Sprintf("wavemesh: no spacing constraint at (%g, %g)", e.Lon, e.Lat)
}

// Compose builds the spacing grid by evaluating every constraint layer
// at every sample and taking the pointwise minimum of the constrained
// values, falling back to HMax where no layer constrains a sample, and
// clamping to [HMin, HMax]. Samples are independent, so rows are
// computed on parallel workers; layers must therefore be safe for
// concurrent reads. Progress messages are sent to c if it is not nil.
func Compose(config *SpacingConfig, layers []ConstraintLayer, c chan string) (*SpacingGrid, error) {
	grid := NewSpacingGrid(config)

	nprocs := runtime.GOMAXPROCS(0)
	var wg sync.WaitGroup
	errs := make([]error, nprocs)
	wg.Add(nprocs)
	for pp := 0; pp < nprocs; pp++ {
		go func(pp int) {
			defer wg.Done()
			for j := pp; j < grid.Ny; j += nprocs {
				for i := 0; i < grid.Nx; i++ {
					lon, lat := grid.LonLat(j, i)
					h, err := composeSample(config, layers, lon, lat)
					if err != nil {
						errs[pp] = err
						return
					}
					grid.set(h, j, i)
				}
			}
		}(pp)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	if c != nil {
		min, max := grid.Range()
		c <- fmt.Sprintf("Composited %d×%d samples; spacing %.3g–%.3g km.\n",
			grid.Nx, grid.Ny, min, max)
	}
	return grid, nil
}

// composeSample evaluates the constraint layers at one sample and
// returns the most restrictive spacing, clamped to [HMin, HMax].
func composeSample(config *SpacingConfig, layers []ConstraintLayer, lon, lat float64) (float64, error) {
	h, any := 0., false
	for _, l := range layers {
		v, constrained, err := l.SpacingAt(lon, lat)
		if err != nil {
			return 0, fmt.Errorf("wavemesh: while evaluating %s layer at (%g, %g): %v",
				l.Name(), lon, lat, err)
		}
		if !constrained {
			continue
		}
		if !any || v < h {
			h, any = v, true
		}
	}
	if !any {
		if config.HMax <= 0 {
			return 0, &EmptyConstraintError{Lon: lon, Lat: lat}
		}
		h = config.HMax
	}
	return config.clamp(h), nil
}
