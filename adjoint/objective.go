package adjoint

import "fmt"

// Objective selects the engineering functional the adjoint is solved
// for. Each kind carries its force-projection formula, its restart file
// suffix and, where it applies, a far-field correction.
type Objective uint8

const (
	DRAG_COEFFICIENT Objective = iota
	LIFT_COEFFICIENT
	SIDEFORCE_COEFFICIENT
	PRESSURE_COEFFICIENT
	MOMENT_X_COEFFICIENT
	MOMENT_Y_COEFFICIENT
	MOMENT_Z_COEFFICIENT
	EFFICIENCY
	EQUIVALENT_AREA
	NEARFIELD_PRESSURE
	FORCE_X_COEFFICIENT
	FORCE_Y_COEFFICIENT
	FORCE_Z_COEFFICIENT
	THRUST_COEFFICIENT
	TORQUE_COEFFICIENT
	FIGURE_OF_MERIT
	FREE_SURFACE
	NOISE
)

var ObjectiveNames = map[string]Objective{
	"DRAG":               DRAG_COEFFICIENT,
	"LIFT":               LIFT_COEFFICIENT,
	"SIDEFORCE":          SIDEFORCE_COEFFICIENT,
	"PRESSURE":           PRESSURE_COEFFICIENT,
	"MOMENT_X":           MOMENT_X_COEFFICIENT,
	"MOMENT_Y":           MOMENT_Y_COEFFICIENT,
	"MOMENT_Z":           MOMENT_Z_COEFFICIENT,
	"EFFICIENCY":         EFFICIENCY,
	"EQUIVALENT_AREA":    EQUIVALENT_AREA,
	"NEARFIELD_PRESSURE": NEARFIELD_PRESSURE,
	"FORCE_X":            FORCE_X_COEFFICIENT,
	"FORCE_Y":            FORCE_Y_COEFFICIENT,
	"FORCE_Z":            FORCE_Z_COEFFICIENT,
	"THRUST":             THRUST_COEFFICIENT,
	"TORQUE":             TORQUE_COEFFICIENT,
	"FIGURE_OF_MERIT":    FIGURE_OF_MERIT,
	"FREE_SURFACE":       FREE_SURFACE,
	"NOISE":              NOISE,
}

// Suffix replaces the last four characters of the flow restart filename
// to form the adjoint restart filename.
var objectiveSuffix = [...]string{
	DRAG_COEFFICIENT:      "_cd.dat",
	LIFT_COEFFICIENT:      "_cl.dat",
	SIDEFORCE_COEFFICIENT: "_csf.dat",
	PRESSURE_COEFFICIENT:  "_cp.dat",
	MOMENT_X_COEFFICIENT:  "_cmx.dat",
	MOMENT_Y_COEFFICIENT:  "_cmy.dat",
	MOMENT_Z_COEFFICIENT:  "_cmz.dat",
	EFFICIENCY:            "_eff.dat",
	EQUIVALENT_AREA:       "_ea.dat",
	NEARFIELD_PRESSURE:    "_nfp.dat",
	FORCE_X_COEFFICIENT:   "_cfx.dat",
	FORCE_Y_COEFFICIENT:   "_cfy.dat",
	FORCE_Z_COEFFICIENT:   "_cfz.dat",
	THRUST_COEFFICIENT:    "_ct.dat",
	TORQUE_COEFFICIENT:    "_cq.dat",
	FIGURE_OF_MERIT:       "_merit.dat",
	FREE_SURFACE:          "_fs.dat",
	NOISE:                 "_fwh.dat",
}

func (o Objective) Suffix() string { return objectiveSuffix[o] }

func (o Objective) Print() (name string) {
	for n, v := range ObjectiveNames {
		if v == o {
			name = n
		}
	}
	return
}

func NewObjective(label string) Objective {
	o, ok := ObjectiveNames[label]
	if !ok {
		panic(fmt.Errorf("unknown objective function %q", label))
	}
	return o
}

// IsForce reports whether the functional is a surface force or moment
// integral; these carry a pressure source on solid walls in the
// discrete adjoint.
func (o Objective) IsForce() bool {
	switch o {
	case DRAG_COEFFICIENT, LIFT_COEFFICIENT, SIDEFORCE_COEFFICIENT,
		MOMENT_X_COEFFICIENT, MOMENT_Y_COEFFICIENT, MOMENT_Z_COEFFICIENT,
		EFFICIENCY, FORCE_X_COEFFICIENT, FORCE_Y_COEFFICIENT,
		FORCE_Z_COEFFICIENT, THRUST_COEFFICIENT, TORQUE_COEFFICIENT,
		FIGURE_OF_MERIT:
		return true
	}
	return false
}

// ThreeDOnly reports the functionals that have no 2D definition;
// requesting one on a 2D mesh is fatal.
func (o Objective) ThreeDOnly() bool {
	switch o {
	case SIDEFORCE_COEFFICIENT, MOMENT_X_COEFFICIENT, MOMENT_Y_COEFFICIENT,
		FORCE_Z_COEFFICIENT, THRUST_COEFFICIENT, FIGURE_OF_MERIT:
		return true
	}
	return false
}
