package adjoint

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObjectiveNames(t *testing.T) {
	assert.Equal(t, DRAG_COEFFICIENT, NewObjective("DRAG"))
	assert.Equal(t, EQUIVALENT_AREA, NewObjective("EQUIVALENT_AREA"))
	assert.Panics(t, func() { NewObjective("SPLINE_DRAG") })
	assert.Equal(t, "DRAG", DRAG_COEFFICIENT.Print())
}

func TestObjectiveClasses(t *testing.T) {
	assert.True(t, DRAG_COEFFICIENT.IsForce())
	assert.True(t, EFFICIENCY.IsForce())
	assert.False(t, EQUIVALENT_AREA.IsForce())
	assert.False(t, NEARFIELD_PRESSURE.IsForce())

	assert.True(t, MOMENT_X_COEFFICIENT.ThreeDOnly())
	assert.True(t, SIDEFORCE_COEFFICIENT.ThreeDOnly())
	assert.False(t, MOMENT_Z_COEFFICIENT.ThreeDOnly())
	assert.False(t, DRAG_COEFFICIENT.ThreeDOnly())
}
