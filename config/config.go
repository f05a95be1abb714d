// Package config loads the simulation settings from an ini file.
package config

import (
	"errors"
	"fmt"

	"gopkg.in/ini.v1"

	"ns3d/fluid"
)

// ErrUnsupportedSolver rejects solver kinds accepted in files for
// compatibility but not implemented by this build.
var ErrUnsupportedSolver = errors.New("config: solver not implemented")

// SolverKind names the time integrator. Only ADI is implemented; the
// other names are accepted in files for compatibility and rejected at
// validation.
type SolverKind string

const (
	SolverADI      SolverKind = "ADI"
	SolverExplicit SolverKind = "Explicit"
	SolverStable   SolverKind = "Stable"
)

// GeometryKind selects the input geometry format.
type GeometryKind string

const (
	GeomShape3D GeometryKind = "shape3d"
	GeomShape2D GeometryKind = "shape2d"
	GeomNetCDF  GeometryKind = "netcdf"
)

type Grid struct {
	Dx, Dy, Dz float64
	Depth      float64 // extrusion depth of the 2D variant, metres
	BaseT      float64
	Align      bool
	Geometry   GeometryKind
	InitVelX   float64 // valve inflow of the bathymetry variant
	InitVelY   float64
	InitVelZ   float64
}

type Fluid struct {
	Medium string // preset name; overrides the raw properties when set

	Viscosity, Density float64
	RSpecific, K, Cv   float64
	Normalized         bool
	Re, Pr, Lambda     float64
}

type Solver struct {
	ID           SolverKind
	NumGlobal    int
	NumLocal     int
	Transpose    bool
	Decompose    bool
	ErrThreshold float64
}

type Run struct {
	Cycles        int
	CalcSubframes int
	OutSubframes  int
}

type Output struct {
	Dimx, Dimy, Dimz int
	Path             string
}

type Server struct {
	Enabled bool
	Addr    string
}

type Config struct {
	Grid   Grid
	Fluid  Fluid
	Solver Solver
	Run    Run
	Output Output
	Server Server
}

// Load reads path and validates the result.
func Load(path string) (*Config, error) {
	file, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg := fromFile(file)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fromFile(file *ini.File) *Config {
	return &Config{
		Grid: Grid{
			Dx:       file.Section("grid").Key("dx").MustFloat64(-1),
			Dy:       file.Section("grid").Key("dy").MustFloat64(-1),
			Dz:       file.Section("grid").Key("dz").MustFloat64(-1),
			Depth:    file.Section("grid").Key("depth").MustFloat64(0),
			BaseT:    file.Section("grid").Key("baseT").MustFloat64(300.0),
			Align:    file.Section("grid").Key("align").MustBool(false),
			Geometry: GeometryKind(file.Section("grid").Key("geometry").MustString(string(GeomShape3D))),
			InitVelX: file.Section("grid").Key("init_vel_x").MustFloat64(0),
			InitVelY: file.Section("grid").Key("init_vel_y").MustFloat64(0),
			InitVelZ: file.Section("grid").Key("init_vel_z").MustFloat64(0),
		},
		Fluid: Fluid{
			Medium:     file.Section("fluid").Key("medium").MustString(""),
			Viscosity:  file.Section("fluid").Key("viscosity").MustFloat64(0.05),
			Density:    file.Section("fluid").Key("density").MustFloat64(1000.0),
			RSpecific:  file.Section("fluid").Key("R_specific").MustFloat64(461.495),
			K:          file.Section("fluid").Key("k").MustFloat64(0.6),
			Cv:         file.Section("fluid").Key("cv").MustFloat64(4200.0),
			Normalized: file.Section("fluid").Key("normalized").MustBool(false),
			Re:         file.Section("fluid").Key("Re").MustFloat64(100.0),
			Pr:         file.Section("fluid").Key("Pr").MustFloat64(0.7),
			Lambda:     file.Section("fluid").Key("lambda").MustFloat64(1.4),
		},
		Solver: Solver{
			ID:           SolverKind(file.Section("solver").Key("solverID").MustString(string(SolverADI))),
			NumGlobal:    file.Section("solver").Key("num_global").MustInt(2),
			NumLocal:     file.Section("solver").Key("num_local").MustInt(1),
			Transpose:    file.Section("solver").Key("transpose").MustBool(false),
			Decompose:    file.Section("solver").Key("decompose").MustBool(false),
			ErrThreshold: file.Section("solver").Key("err_threshold").MustFloat64(0.1),
		},
		Run: Run{
			Cycles:        file.Section("run").Key("cycles").MustInt(1),
			CalcSubframes: file.Section("run").Key("calc_subframes").MustInt(50),
			OutSubframes:  file.Section("run").Key("out_subframes").MustInt(10),
		},
		Output: Output{
			Dimx: file.Section("output").Key("outdimx").MustInt(50),
			Dimy: file.Section("output").Key("outdimy").MustInt(50),
			Dimz: file.Section("output").Key("outdimz").MustInt(50),
			Path: file.Section("output").Key("path").MustString("result.dat"),
		},
		Server: Server{
			Enabled: file.Section("server").Key("enabled").MustBool(false),
			Addr:    file.Section("server").Key("addr").MustString(":9000"),
		},
	}
}

func (c *Config) validate() error {
	if c.Grid.Dx <= 0 || c.Grid.Dy <= 0 || c.Grid.Dz <= 0 {
		return fmt.Errorf("config: grid spacing must be set: dx=%g dy=%g dz=%g",
			c.Grid.Dx, c.Grid.Dy, c.Grid.Dz)
	}
	switch c.Grid.Geometry {
	case GeomShape3D, GeomNetCDF:
	case GeomShape2D:
		if c.Grid.Depth <= 0 {
			return fmt.Errorf("config: 2D geometry needs a positive depth")
		}
	default:
		return fmt.Errorf("config: unknown geometry %q", c.Grid.Geometry)
	}
	switch c.Solver.ID {
	case SolverADI:
	case SolverExplicit, SolverStable:
		return fmt.Errorf("%w: %q, use %q", ErrUnsupportedSolver, c.Solver.ID, SolverADI)
	default:
		return fmt.Errorf("config: unknown solver %q", c.Solver.ID)
	}
	if c.Solver.NumGlobal < 1 || c.Solver.NumLocal < 1 {
		return fmt.Errorf("config: iteration counts must be positive: num_global=%d num_local=%d",
			c.Solver.NumGlobal, c.Solver.NumLocal)
	}
	if c.Run.CalcSubframes < 1 || c.Run.OutSubframes < 1 {
		return fmt.Errorf("config: subframe counts must be positive")
	}
	if c.Output.Dimx < 1 || c.Output.Dimy < 1 || c.Output.Dimz < 1 {
		return fmt.Errorf("config: output dimensions must be positive")
	}
	return nil
}

// Params derives the solver coefficients from the fluid section.
func (c *Config) Params() (fluid.Params, error) {
	if c.Fluid.Normalized {
		return fluid.NewNormalizedParams(c.Fluid.Re, c.Fluid.Pr, c.Fluid.Lambda), nil
	}
	if c.Fluid.Medium != "" {
		m, ok := fluid.MediumByName(c.Fluid.Medium)
		if !ok {
			return fluid.Params{}, fmt.Errorf("config: unknown medium %q", c.Fluid.Medium)
		}
		return m.Params(), nil
	}
	return fluid.NewParams(c.Fluid.Viscosity, c.Fluid.Density, c.Fluid.RSpecific, c.Fluid.K, c.Fluid.Cv), nil
}
