package cmd

import (
	"testing"

	"github.com/magiconair/properties/assert"

	"github.com/AcademicHacker/SU2/InputParameters"
	"github.com/AcademicHacker/SU2/adjoint"
)

func TestAdjointInput(t *testing.T) {
	var (
		err error
	)
	fileInput := []byte(`
Title: Nozzle drag adjoint
Objective: DRAG
Scheme: JST
TimeInt: EULER-IMPLICIT
CFL: 4.
Mach: 0.8
Alpha: 1.25
MaxIterations: 250
ConvergenceTol: 1.e-8
FlowRestart: solution_flow.dat
Inlets:
  inflow:
    Kind: TOTAL-CONDITIONS
    PTotal: 1.02828
    TTotal: 1.00804
    FlowDir: [1., 0., 0.]
Outlets:
  outflow:
    PExit: 0.9
`)
	var input InputParameters.AdjointParameters
	if err = input.Parse(fileInput); err != nil {
		panic(err)
	}
	// Check the inflow stagnation state
	assert.Equal(t, input.Inlets["inflow"].PTotal, 1.02828)
	// Check the outflow back pressure
	assert.Equal(t, input.Outlets["outflow"].PExit, 0.9)
	input.Print()
	assert.Equal(t, input.CFL, 4.)

	par := solverParams(&input)
	assert.Equal(t, par.Objective, adjoint.DRAG_COEFFICIENT)
	assert.Equal(t, par.TimeInt, adjoint.EULER_IMPLICIT)
	assert.Equal(t, par.Inlets["inflow"].Kind, adjoint.TOTAL_CONDITIONS)
	assert.Equal(t, par.Outlets["outflow"].PExit, 0.9)
	// The file left the dissipation constants off, the defaults stand
	assert.Equal(t, par.Kappa4, 0.02)
}
