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

// Package wavemeshutil holds the configuration surface and command
// tree for the wavemesh command-line tool.
package wavemeshutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lnashier/viper"
	"github.com/oceanmodeling/wavemesh"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var log = logrus.New()

var options []struct {
	name, usage string
	defaultVal  interface{}
	flagsets    []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to wavemesh.
	options = []struct {
		name, usage string
		defaultVal  interface{}
		flagsets    []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "HMax",
			usage: `
              HMax is the global maximum mesh spacing [km].`,
			defaultVal: 100.0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), maskCmd.Flags()},
		},
		{
			name: "HMin",
			usage: `
              HMin is the global minimum mesh spacing [km].`,
			defaultVal: 1.0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), maskCmd.Flags()},
		},
		{
			name: "HShr",
			usage: `
              HShr is the target mesh spacing at the shoreline [km].`,
			defaultVal: 4.0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), maskCmd.Flags()},
		},
		{
			name: "NWav",
			usage: `
              NWav is the number of mesh cells per wavelength for
              wave-resolving spacing.`,
			defaultVal: 100.0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), maskCmd.Flags()},
		},
		{
			name: "DhDx",
			usage: `
              DhDx is the maximum relative spacing gradient between
              neighboring samples [1/km].`,
			defaultVal: 0.15,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), maskCmd.Flags()},
		},
		{
			name: "WavePeriod",
			usage: `
              WavePeriod is the representative wave period used in the
              shallow-water dispersion relation [s].`,
			defaultVal: 12.5,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "ShorelineFalloffFactor",
			usage: `
              ShorelineFalloffFactor sets the width of the shoreline
              refinement band in multiples of HShr.`,
			defaultVal: 20.0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "MinDepth",
			usage: `
              MinDepth classifies grid-mask points: water shallower than
              MinDepth [m] is coastal.`,
			defaultVal: 80.0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), maskCmd.Flags()},
		},
		{
			name: "MinCoastDist",
			usage: `
              MinCoastDist classifies grid-mask points: water within
              MinCoastDist [km] of the coast is coastal.`,
			defaultVal: 50.0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), maskCmd.Flags()},
		},
		{
			name: "BlackSeaMode",
			usage: `
              BlackSeaMode selects the Black Sea connectivity treatment:
              disconnected, detached, or connected.`,
			defaultVal: "disconnected",
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), maskCmd.Flags()},
		},
		{
			name: "BathymetryFile",
			usage: `
              BathymetryFile is the path to the NetCDF bathymetry raster.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), maskCmd.Flags()},
		},
		{
			name: "CoastlineFiles",
			usage: `
              CoastlineFiles lists the shoreline shapefiles used for
              distance-to-coast queries.`,
			defaultVal: []string{},
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), maskCmd.Flags()},
		},
		{
			name: "MaskFile",
			usage: `
              MaskFile is an optional NetCDF MAPSTA-style status file
              overriding the derived land/sea mask.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), maskCmd.Flags()},
		},
		{
			name: "StrictRegions",
			usage: `
              StrictRegions makes malformed refinement-region files fatal
              instead of skipping them with a warning.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "OutputFile",
			usage: `
              OutputFile is the path where the finalized spacing field is
              written. A .shp extension selects a point shapefile; any
              other extension selects the WAVEWATCH III text layout.`,
			defaultVal: "spacing.shp",
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), maskCmd.Flags()},
		},
		{
			name: "Grid.Xo",
			usage: `
              Grid.Xo is the longitude of the lower-left output sample.`,
			defaultVal: -180.0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), maskCmd.Flags()},
		},
		{
			name: "Grid.Yo",
			usage: `
              Grid.Yo is the latitude of the lower-left output sample.`,
			defaultVal: -80.0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), maskCmd.Flags()},
		},
		{
			name: "Grid.Dx",
			usage: `
              Grid.Dx is the output sample spacing in longitude [degrees].`,
			defaultVal: 0.5,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), maskCmd.Flags()},
		},
		{
			name: "Grid.Dy",
			usage: `
              Grid.Dy is the output sample spacing in latitude [degrees].`,
			defaultVal: 0.5,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), maskCmd.Flags()},
		},
		{
			name: "Grid.Nx",
			usage: `
              Grid.Nx is the number of output samples in longitude.`,
			defaultVal: 720,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), maskCmd.Flags()},
		},
		{
			name: "Grid.Ny",
			usage: `
              Grid.Ny is the number of output samples in latitude.`,
			defaultVal: 321,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), maskCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("WAVEMESH")

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch v := option.defaultVal.(type) {
			case string:
				set.String(option.name, v, option.usage)
			case []string:
				set.StringSlice(option.name, v, option.usage)
			case bool:
				set.Bool(option.name, v, option.usage)
			case int:
				set.Int(option.name, v, option.usage)
			case float64:
				set.Float64(option.name, v, option.usage)
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(runCmd)
	Root.AddCommand(maskCmd)
}

// outChan returns a channel that logs status messages.
func outChan() chan string {
	c := make(chan string)
	go func() {
		for msg := range c {
			log.Info(strings.TrimSuffix(msg, "\n"))
		}
	}()
	return c
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("wavemesh: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "wavemesh",
	Short: "A mesh sizing-function generator for ocean wave models.",
	Long: `wavemesh computes the scalar mesh-spacing field that drives
unstructured triangular mesh generation for ocean and wave models.
It merges bathymetry-derived wave resolution, shoreline proximity,
latitude scaling, and regional refinement constraints into one smooth
field bounded by a maximum relative gradient.

Configuration can be changed by using a configuration file (and providing
the path to the file using the --config flag), by using command-line
arguments, or by setting environment variables in the format
'WAVEMESH_var' where 'var' is the name of the variable to be set.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of wavemesh.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("wavemesh v%s\n", wavemesh.Version)
	},
	DisableAutoGenTag: true,
}

// runCmd computes the spacing field and writes it to the output file.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Compute the mesh spacing field.",
	Long: `run loads the bathymetry, coastline, and refinement regions
specified in the configuration, composites the spacing constraints onto
the output grid, limits the spacing gradient, and writes the finalized
field.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := outChan()
		defer close(c)

		field, closer, err := loadField(c)
		if err != nil {
			return err
		}
		if closer != nil {
			defer closer.Close()
		}
		outputFile, err := checkOutputFile(Cfg.GetString("OutputFile"))
		if err != nil {
			return err
		}
		if err := field.Build(c); err != nil {
			return err
		}
		return writeOutputs(field, outputFile)
	},
	DisableAutoGenTag: true,
}

// maskCmd derives and writes the grid mask without compositing the
// spacing field.
var maskCmd = &cobra.Command{
	Use:   "mask",
	Short: "Derive the land/sea grid mask.",
	Long: `mask classifies every output grid sample as land, open water,
coastal, or excluded, applying the configured Black Sea connectivity
mode and optional mask file, and writes the result as WAVEWATCH III
status codes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := outChan()
		defer close(c)

		field, closer, err := loadField(c)
		if err != nil {
			return err
		}
		if closer != nil {
			defer closer.Close()
		}
		if field.Raster == nil {
			return &wavemesh.ConfigError{Field: "BathymetryFile",
				Problem: "a bathymetry raster is required to derive the grid mask"}
		}
		outputFile, err := checkOutputFile(Cfg.GetString("OutputFile"))
		if err != nil {
			return err
		}
		mask, err := wavemesh.DeriveMask(field.Config, field.Raster, field.Coastline, c)
		if err != nil {
			return err
		}
		if err := applyMaskFile(mask); err != nil {
			return err
		}
		w, err := os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("wavemesh: while creating mask output file: %v", err)
		}
		defer w.Close()
		return wavemesh.WriteWW3Mask(mask, w)
	},
	DisableAutoGenTag: true,
}

// loadField assembles the read-only inputs of a sizing-function
// computation from the configuration.
func loadField(c chan string) (*wavemesh.Field, interface{ Close() error }, error) {
	config, err := SpacingConfig(Cfg)
	if err != nil {
		return nil, nil, err
	}
	field := &wavemesh.Field{Config: config}

	var closer interface{ Close() error }
	if fname := os.ExpandEnv(Cfg.GetString("BathymetryFile")); fname != "" {
		raster, cl, err := wavemesh.LoadBathymetry(fname, 0)
		if err != nil {
			return nil, nil, err
		}
		field.Raster, closer = raster, cl
	}
	if files := expandStringSlice(Cfg.GetStringSlice("CoastlineFiles")); len(files) > 0 {
		coast, err := wavemesh.ReadCoastlineShapefiles(c, files...)
		if err != nil {
			return nil, closer, err
		}
		field.Coastline = coast
	}
	regions, err := Regions(Cfg, Cfg.GetBool("StrictRegions"), c)
	if err != nil {
		return nil, closer, err
	}
	if regions.Len() > 0 {
		field.Regions = regions
	}
	return field, closer, nil
}

// applyMaskFile overrides mask with the configured MAPSTA file, if
// one is given.
func applyMaskFile(mask *wavemesh.GridMask) error {
	fname := os.ExpandEnv(Cfg.GetString("MaskFile"))
	if fname == "" {
		return nil
	}
	mapsta, err := wavemesh.ReadMaskFile(fname)
	if err != nil {
		return err
	}
	return mask.ApplyMaskFile(mapsta)
}

// writeOutputs writes the finalized field in the format selected by
// the output file extension, plus the mask alongside when one was
// derived.
func writeOutputs(field *wavemesh.Field, outputFile string) error {
	if field.Mask != nil {
		if err := applyMaskFile(field.Mask); err != nil {
			return err
		}
	}
	if filepath.Ext(outputFile) == ".shp" {
		if err := wavemesh.WriteGridShapefile(field.Grid, field.Mask, outputFile); err != nil {
			return err
		}
	} else {
		w, err := os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("wavemesh: while creating output file: %v", err)
		}
		if err := wavemesh.WriteWW3Spacing(field.Grid, w); err != nil {
			w.Close()
			return err
		}
		if err := w.Close(); err != nil {
			return err
		}
	}
	if field.Mask != nil {
		base := strings.TrimSuffix(outputFile, filepath.Ext(outputFile))
		w, err := os.Create(base + ".mask")
		if err != nil {
			return fmt.Errorf("wavemesh: while creating mask file: %v", err)
		}
		defer w.Close()
		return wavemesh.WriteWW3Mask(field.Mask, w)
	}
	return nil
}
