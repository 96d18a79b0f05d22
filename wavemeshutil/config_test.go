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
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lnashier/viper"
)

func testViper() *viper.Viper {
	cfg := viper.New()
	cfg.Set("HMax", 100.)
	cfg.Set("HMin", 1.)
	cfg.Set("HShr", 4.)
	cfg.Set("NWav", 100.)
	cfg.Set("DhDx", 0.15)
	cfg.Set("Grid.Xo", 0.)
	cfg.Set("Grid.Yo", 0.)
	cfg.Set("Grid.Dx", 1.)
	cfg.Set("Grid.Dy", 1.)
	cfg.Set("Grid.Nx", 10)
	cfg.Set("Grid.Ny", 10)
	return cfg
}

func TestSpacingConfig(t *testing.T) {
	cfg := testViper()
	c, err := SpacingConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if c.HMax != 100 || c.HShr != 4 || c.Nx != 10 {
		t.Errorf("unexpected configuration: %+v", c)
	}
	// Check has filled the defaults.
	if c.WavePeriod != 12.5 {
		t.Errorf("WavePeriod = %g; want the default 12.5", c.WavePeriod)
	}
	if len(c.LatitudeBands) != 1 {
		t.Errorf("LatitudeBands has %d bands; want the default single band", len(c.LatitudeBands))
	}
}

func TestSpacingConfigInvalid(t *testing.T) {
	cfg := testViper()
	cfg.Set("HMin", 500.)
	if _, err := SpacingConfig(cfg); err == nil {
		t.Error("HMin above HMax should fail")
	}

	cfg = testViper()
	cfg.Set("BlackSeaMode", "open")
	if _, err := SpacingConfig(cfg); err == nil {
		t.Error("an unknown BlackSeaMode should fail")
	}
}

func TestSpacingConfigBands(t *testing.T) {
	cfg := testViper()
	cfg.Set("LatitudeBands", []interface{}{
		[]interface{}{-90., -60., 2.},
		[]interface{}{-60., 60., 1.},
		[]interface{}{60., 90., 2.},
	})
	c, err := SpacingConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(c.LatitudeBands) != 3 {
		t.Fatalf("parsed %d bands; want 3", len(c.LatitudeBands))
	}
	if b := c.LatitudeBands[0]; b.Lower != -90 || b.Upper != -60 || b.Factor != 2 {
		t.Errorf("first band = %+v", b)
	}
}

func TestLatitudeBandsErrors(t *testing.T) {
	if bands, err := latitudeBands(nil); err != nil || bands != nil {
		t.Errorf("latitudeBands(nil) = %v, %v; want nil, nil", bands, err)
	}
	if _, err := latitudeBands("not a list"); err == nil {
		t.Error("a scalar should fail")
	}
	if _, err := latitudeBands([]interface{}{[]interface{}{-90., 90.}}); err == nil {
		t.Error("a two-element entry should fail")
	}
	if _, err := latitudeBands([]interface{}{[]interface{}{-90., 90., "wide"}}); err == nil {
		t.Error("a non-numeric factor should fail")
	}
}

func TestRegionsWindows(t *testing.T) {
	cfg := viper.New()
	cfg.Set("RefinementRegions", []interface{}{
		map[string]interface{}{
			"MinLon": 10., "MaxLon": 20., "MinLat": 0., "MaxLat": 10.,
			"HShr": 3., "Priority": 1,
		},
	})
	overlay, err := Regions(cfg, true, nil)
	if err != nil {
		t.Fatal(err)
	}
	if h, ok := overlay.OverrideAt(15, 5); !ok || h != 3 {
		t.Errorf("OverrideAt(15, 5) = %g, %v; want 3, true", h, ok)
	}
	if _, ok := overlay.OverrideAt(50, 50); ok {
		t.Error("a point outside the window should be unconstrained")
	}
}

func TestRegionsFromTOMLFile(t *testing.T) {
	// Region keys must survive the round trip through an actual
	// configuration file in the documented casing.
	path := filepath.Join(t.TempDir(), "wavemesh.toml")
	toml := `[[RefinementRegions]]
MinLon = 10.0
MaxLon = 20.0
MinLat = 0.0
MaxLat = 10.0
HShr = 3.0
Priority = 1
`
	if err := os.WriteFile(path, []byte(toml), 0644); err != nil {
		t.Fatal(err)
	}
	cfg := viper.New()
	cfg.SetConfigFile(path)
	if err := cfg.ReadInConfig(); err != nil {
		t.Fatal(err)
	}
	overlay, err := Regions(cfg, true, nil)
	if err != nil {
		t.Fatal(err)
	}
	if h, ok := overlay.OverrideAt(15, 5); !ok || h != 3 {
		t.Errorf("OverrideAt(15, 5) = %g, %v; want 3, true", h, ok)
	}
}

func TestRegionsEmpty(t *testing.T) {
	overlay, err := Regions(viper.New(), true, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := overlay.OverrideAt(0, 0); ok {
		t.Error("an empty overlay should constrain nothing")
	}
}

func TestRegionsStrict(t *testing.T) {
	cfg := viper.New()
	// An inverted window is invalid.
	cfg.Set("RefinementRegions", []interface{}{
		map[string]interface{}{
			"MinLon": 20., "MaxLon": 10., "MinLat": 0., "MaxLat": 10., "HShr": 3.,
		},
	})
	if _, err := Regions(cfg, true, nil); err == nil {
		t.Error("an invalid window should fail in strict mode")
	}

	c := make(chan string, 1)
	overlay, err := Regions(cfg, false, c)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := overlay.OverrideAt(15, 5); ok {
		t.Error("the skipped window should not constrain anything")
	}
	select {
	case msg := <-c:
		if !strings.Contains(msg, "skipping") {
			t.Errorf("unexpected warning: %q", msg)
		}
	default:
		t.Error("skipping a window should emit a warning")
	}
}

func TestCheckOutputFile(t *testing.T) {
	if _, err := checkOutputFile(""); err == nil {
		t.Error("an empty output file should fail")
	}
	if _, err := checkOutputFile("/no/such/directory/out.shp"); err == nil {
		t.Error("a missing output directory should fail")
	}
	dir := t.TempDir()
	f, err := checkOutputFile(filepath.Join(dir, "out.shp"))
	if err != nil {
		t.Fatal(err)
	}
	if f != filepath.Join(dir, "out.shp") {
		t.Errorf("output file = %q", f)
	}
	t.Setenv("WAVEMESH_TEST_OUTDIR", dir)
	f, err = checkOutputFile("$WAVEMESH_TEST_OUTDIR/out.shp")
	if err != nil {
		t.Fatal(err)
	}
	if f != dir+"/out.shp" {
		t.Errorf("expanded output file = %q", f)
	}
}

func TestExpandStringSlice(t *testing.T) {
	t.Setenv("WAVEMESH_TEST_COAST", "/data/coast")
	got := expandStringSlice([]string{"$WAVEMESH_TEST_COAST/a.shp", "b.shp"})
	if got[0] != "/data/coast/a.shp" || got[1] != "b.shp" {
		t.Errorf("expanded slice = %v", got)
	}
}
