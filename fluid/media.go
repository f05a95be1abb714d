package fluid

// Medium tabulates the raw material properties of a working fluid.
type Medium struct {
	Name      string
	Viscosity float64 // dynamic viscosity, Pa*s
	Density   float64 // kg/m^3
	RSpecific float64 // specific gas constant, J/(kg*K)
	K         float64 // thermal conductivity, W/(m*K)
	Cv        float64 // specific heat capacity, J/(kg*K)
}

// Properties of the supported media. Water is the default medium of the
// simulator; air is kept for gas test cases.
var media = map[string]Medium{
	"water": {
		Name:      "water",
		Viscosity: 0.05,
		Density:   1000.0,
		RSpecific: 461.495,
		K:         0.6,
		Cv:        4200.0,
	},
	"air": {
		Name:      "air",
		Viscosity: 1.8e-5,
		Density:   1.204,
		RSpecific: 287.058,
		K:         0.026,
		Cv:        717.0,
	},
}

// MediumByName returns a tabulated medium; ok is false for unknown names.
func MediumByName(name string) (Medium, bool) {
	m, ok := media[name]
	return m, ok
}

// Params converts the raw properties into solver coefficients.
func (m Medium) Params() Params {
	return NewParams(m.Viscosity, m.Density, m.RSpecific, m.K, m.Cv)
}
