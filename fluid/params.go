// Package fluid defines the physical constants consumed by the solver.
package fluid

// Params carries the four coefficients the ADI sweeps need: kinematic
// viscosity for momentum, thermal diffusivity for energy, the buoyancy
// coupling for the axis-aligned momentum equation and the dissipation
// coupling for the energy equation.
type Params struct {
	VVis float64 // velocity viscosity
	TVis float64 // thermal diffusivity
	VT   float64 // thermal buoyancy coefficient
	TPhi float64 // dissipation coefficient
}

// NewParams derives the coefficients from physical media properties.
func NewParams(viscosity, density, rSpecific, k, cv float64) Params {
	return Params{
		VVis: viscosity / density,
		TVis: k / (cv * density),
		VT:   rSpecific,
		TPhi: viscosity / (density * cv),
	}
}

// NewNormalizedParams derives the coefficients from the dimensionless
// (Re, Pr, lambda) triple.
func NewNormalizedParams(re, pr, lambda float64) Params {
	return Params{
		VVis: 1 / re,
		TVis: 1 / (re * pr),
		VT:   lambda,
		TPhi: lambda / (re * pr),
	}
}
