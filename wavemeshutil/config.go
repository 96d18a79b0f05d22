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

package wavemeshutil

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/lnashier/viper"
	"github.com/oceanmodeling/wavemesh"
	"github.com/spf13/cast"
)

// SpacingConfig assembles and validates the sizing-function
// configuration from cfg. It fails before any grid computation if the
// configuration is structurally invalid.
func SpacingConfig(cfg *viper.Viper) (*wavemesh.SpacingConfig, error) {
	mode, err := wavemesh.ParseBlackSeaMode(cfg.GetString("BlackSeaMode"))
	if err != nil {
		return nil, err
	}
	c := &wavemesh.SpacingConfig{
		HMax:                   cfg.GetFloat64("HMax"),
		HMin:                   cfg.GetFloat64("HMin"),
		HShr:                   cfg.GetFloat64("HShr"),
		NWav:                   cfg.GetFloat64("NWav"),
		DhDx:                   cfg.GetFloat64("DhDx"),
		WavePeriod:             cfg.GetFloat64("WavePeriod"),
		ShorelineFalloffFactor: cfg.GetFloat64("ShorelineFalloffFactor"),
		MinDepth:               cfg.GetFloat64("MinDepth"),
		MinCoastDist:           cfg.GetFloat64("MinCoastDist"),
		BlackSea:               mode,
		Xo:                     cfg.GetFloat64("Grid.Xo"),
		Yo:                     cfg.GetFloat64("Grid.Yo"),
		Dx:                     cfg.GetFloat64("Grid.Dx"),
		Dy:                     cfg.GetFloat64("Grid.Dy"),
		Nx:                     cfg.GetInt("Grid.Nx"),
		Ny:                     cfg.GetInt("Grid.Ny"),
	}
	bands, err := latitudeBands(cfg.Get("LatitudeBands"))
	if err != nil {
		return nil, err
	}
	c.LatitudeBands = bands
	if err := c.Check(); err != nil {
		return nil, err
	}
	return c, nil
}

// latitudeBands converts the LatitudeBands configuration entry, a list
// of [lower, upper, factor] triples, into scaling bands.
func latitudeBands(v interface{}) ([]wavemesh.ScalingBand, error) {
	if v == nil {
		return nil, nil
	}
	rows, err := cast.ToSliceE(v)
	if err != nil {
		return nil, fmt.Errorf("wavemesh: LatitudeBands must be a list of [lower, upper, factor] triples: %v", err)
	}
	bands := make([]wavemesh.ScalingBand, len(rows))
	for i, row := range rows {
		vals, err := cast.ToSliceE(row)
		if err != nil || len(vals) != 3 {
			return nil, fmt.Errorf("wavemesh: LatitudeBands entry %d must be a [lower, upper, factor] triple", i)
		}
		lower, err1 := cast.ToFloat64E(vals[0])
		upper, err2 := cast.ToFloat64E(vals[1])
		factor, err3 := cast.ToFloat64E(vals[2])
		if err1 != nil || err2 != nil || err3 != nil {
			return nil, fmt.Errorf("wavemesh: LatitudeBands entry %d contains a non-numeric value", i)
		}
		bands[i] = wavemesh.ScalingBand{Lower: lower, Upper: upper, Factor: factor}
	}
	return bands, nil
}

// Regions builds the refinement-region overlay from the
// RefinementRegions configuration entry. Each entry is either a
// polygon file reference {Path, Spacing, Priority} or a window
// {MinLon, MaxLon, MinLat, MaxLat, HShr, Priority}. Messages about
// skipped regions go to c.
func Regions(cfg *viper.Viper, strict bool, c chan string) (*wavemesh.RegionOverlay, error) {
	overlay := wavemesh.NewRegionOverlay()
	v := cfg.Get("RefinementRegions")
	if v == nil {
		return overlay, nil
	}
	rows, err := cast.ToSliceE(v)
	if err != nil {
		return nil, fmt.Errorf("wavemesh: RefinementRegions must be a list of tables: %v", err)
	}
	var files []wavemesh.RegionFile
	for i, row := range rows {
		entry, err := cast.ToStringMapE(row)
		if err != nil {
			return nil, fmt.Errorf("wavemesh: RefinementRegions entry %d must be a table: %v", i, err)
		}
		if path := cast.ToString(entry["Path"]); path != "" {
			files = append(files, wavemesh.RegionFile{
				Path:     os.ExpandEnv(path),
				Spacing:  cast.ToFloat64(entry["Spacing"]),
				Priority: cast.ToInt(entry["Priority"]),
			})
			continue
		}
		w, err := wavemesh.NewWindowRegion(
			cast.ToFloat64(entry["MinLon"]), cast.ToFloat64(entry["MaxLon"]),
			cast.ToFloat64(entry["MinLat"]), cast.ToFloat64(entry["MaxLat"]),
			cast.ToFloat64(entry["HShr"]))
		if err != nil {
			if strict {
				return nil, fmt.Errorf("wavemesh: RefinementRegions entry %d: %v", i, err)
			}
			if c != nil {
				c <- fmt.Sprintf("Warning: skipping refinement window %d: %v\n", i, err)
			}
			continue
		}
		overlay.Add(w, cast.ToInt(entry["Priority"]))
	}
	if err := wavemesh.ReadRegionShapefiles(overlay, files, strict, c); err != nil {
		return nil, err
	}
	return overlay, nil
}

// checkOutputFile verifies that the output file location is writable
// and expands environment variables in it.
func checkOutputFile(f string) (string, error) {
	if f == "" {
		return "", fmt.Errorf(`wavemesh: an output file must be specified (for example: OutputFile="spacing.shp")`)
	}
	f = os.ExpandEnv(f)
	if _, err := os.Stat(filepath.Dir(f)); err != nil {
		return f, fmt.Errorf("wavemesh: the OutputFile directory doesn't exist: %v", err)
	}
	return f, nil
}

// expandStringSlice expands the environment variables in a slice of
// strings.
func expandStringSlice(s []string) []string {
	for i := 0; i < len(s); i++ {
		s[i] = os.ExpandEnv(s[i])
	}
	return s
}
