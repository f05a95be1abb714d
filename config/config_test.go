package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.ini")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
[grid]
dx = 0.01
dy = 0.01
dz = 0.01
`))
	require.NoError(t, err)

	assert.Equal(t, GeomShape3D, cfg.Grid.Geometry)
	assert.Equal(t, 300.0, cfg.Grid.BaseT)
	assert.False(t, cfg.Grid.Align)

	assert.Equal(t, SolverADI, cfg.Solver.ID)
	assert.Equal(t, 2, cfg.Solver.NumGlobal)
	assert.Equal(t, 1, cfg.Solver.NumLocal)
	assert.Equal(t, 0.1, cfg.Solver.ErrThreshold)

	assert.Equal(t, 1, cfg.Run.Cycles)
	assert.Equal(t, 50, cfg.Run.CalcSubframes)
	assert.Equal(t, 10, cfg.Run.OutSubframes)

	assert.Equal(t, 50, cfg.Output.Dimx)
	assert.Equal(t, "result.dat", cfg.Output.Path)

	assert.False(t, cfg.Server.Enabled)
	assert.Equal(t, ":9000", cfg.Server.Addr)
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
[grid]
dx = 0.25
dy = 0.25
dz = 0.5
geometry = shape2d
depth = 2.0
align = true

[solver]
num_global = 4
transpose = true

[run]
cycles = 3

[server]
enabled = true
addr = :8080
`))
	require.NoError(t, err)

	assert.Equal(t, GeomShape2D, cfg.Grid.Geometry)
	assert.Equal(t, 2.0, cfg.Grid.Depth)
	assert.True(t, cfg.Grid.Align)
	assert.Equal(t, 4, cfg.Solver.NumGlobal)
	assert.True(t, cfg.Solver.Transpose)
	assert.Equal(t, 3, cfg.Run.Cycles)
	assert.True(t, cfg.Server.Enabled)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestLoadValidation(t *testing.T) {
	cases := []struct {
		name, body, want string
	}{
		{
			name: "missing spacing",
			body: "[grid]\ndx = 0.1\n",
			want: "spacing",
		},
		{
			name: "2d without depth",
			body: "[grid]\ndx = 1\ndy = 1\ndz = 1\ngeometry = shape2d\n",
			want: "depth",
		},
		{
			name: "unknown geometry",
			body: "[grid]\ndx = 1\ndy = 1\ndz = 1\ngeometry = voxels\n",
			want: "geometry",
		},
		{
			name: "unimplemented solver",
			body: "[grid]\ndx = 1\ndy = 1\ndz = 1\n[solver]\nsolverID = Stable\n",
			want: "not implemented",
		},
		{
			name: "unknown solver",
			body: "[grid]\ndx = 1\ndy = 1\ndz = 1\n[solver]\nsolverID = RK4\n",
			want: "unknown solver",
		},
		{
			name: "bad iterations",
			body: "[grid]\ndx = 1\ndy = 1\ndz = 1\n[solver]\nnum_global = 0\n",
			want: "iteration",
		},
		{
			name: "bad output dims",
			body: "[grid]\ndx = 1\ndy = 1\ndz = 1\n[output]\noutdimx = 0\n",
			want: "output dimensions",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestParamsPhysical(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
[grid]
dx = 1
dy = 1
dz = 1

[fluid]
viscosity = 0.05
density = 1000
R_specific = 461.495
k = 0.6
cv = 4200
`))
	require.NoError(t, err)

	p, err := cfg.Params()
	require.NoError(t, err)
	assert.InDelta(t, 0.05/1000, p.VVis, 1e-15)
	assert.InDelta(t, 0.6/(4200*1000), p.TVis, 1e-15)
	assert.InDelta(t, 461.495, p.VT, 1e-12)
	assert.InDelta(t, 0.05/(1000*4200), p.TPhi, 1e-15)
}

func TestParamsNormalized(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
[grid]
dx = 1
dy = 1
dz = 1

[fluid]
normalized = true
Re = 50
Pr = 2
lambda = 1.4
`))
	require.NoError(t, err)

	p, err := cfg.Params()
	require.NoError(t, err)
	assert.InDelta(t, 1.0/50, p.VVis, 1e-15)
	assert.InDelta(t, 1.0/100, p.TVis, 1e-15)
	assert.InDelta(t, 1.4, p.VT, 1e-15)
	assert.InDelta(t, 1.4/100, p.TPhi, 1e-15)
}

func TestParamsMedium(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
[grid]
dx = 1
dy = 1
dz = 1

[fluid]
medium = water
`))
	require.NoError(t, err)
	p, err := cfg.Params()
	require.NoError(t, err)
	assert.Greater(t, p.VVis, 0.0)

	cfg.Fluid.Medium = "plasma"
	_, err = cfg.Params()
	assert.Error(t, err)
}
