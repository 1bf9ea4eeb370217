package main

import (
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDcMatchesAcAnglesLosslessLine(t *testing.T) {
	// lossless line and a small purely active load: the linearization
	// error vanishes and both solvers agree on the angle
	g := NewGridModel()
	g.set_sn_mva(100.)
	g.set_init_vm_pu(1.)
	g.init_bus([]float64{138., 138.})
	g.init_powerlines([]float64{0.}, []float64{0.1}, []complex128{0}, []int{0}, []int{1})
	g.init_trafo(nil, nil, nil, nil, nil, nil, nil, nil, nil)
	g.init_shunt(nil, nil, nil)
	g.init_loads([]float64{1.}, []float64{0.}, []int{1})
	g.init_generators([]float64{0.}, []float64{1.}, []float64{-999.}, []float64{999.}, []int{0})
	g.init_sgens(nil, nil, nil, nil, nil, nil, nil)
	g.init_storages(nil, nil, nil)
	require.NoError(t, g.add_gen_slackbus(0))

	v_ac, err := g.ac_pf(g.get_flat_start(), 20, 1e-12)
	require.NoError(t, err)
	v_dc, err := g.dc_pf(g.get_flat_start(), 20, 1e-12)
	require.NoError(t, err)

	assert.InDelta(t, cmplx.Phase(v_ac[1]), cmplx.Phase(v_dc[1]), 1e-6)
	// B = 1/x = 10, P = 0.01 pu: theta = -1e-3 rad
	assert.InDelta(t, -1e-3, cmplx.Phase(v_dc[1]), 1e-9)
}

func TestDcMagnitudes(t *testing.T) {
	// 4 buses: slack, a pv generator, a bare pq load bus, and one
	// deactivated bus
	g := NewGridModel()
	g.set_sn_mva(100.)
	g.set_init_vm_pu(1.)
	g.init_bus([]float64{138., 138., 138., 138.})
	g.init_powerlines(
		[]float64{0.01, 0.01}, []float64{0.1, 0.1}, []complex128{0, 0},
		[]int{0, 1}, []int{1, 2})
	g.init_trafo(nil, nil, nil, nil, nil, nil, nil, nil, nil)
	g.init_shunt(nil, nil, nil)
	g.init_loads([]float64{20.}, []float64{5.}, []int{2})
	g.init_generators(
		[]float64{0., 10.}, []float64{1.03, 1.05},
		[]float64{-999., -999.}, []float64{999., 999.},
		[]int{0, 1})
	g.init_sgens(nil, nil, nil, nil, nil, nil, nil)
	g.init_storages(nil, nil, nil)
	require.NoError(t, g.add_gen_slackbus(0))
	g.deactivate_bus(3)

	v, err := g.dc_pf(g.get_flat_start(), 10, 1e-8)
	require.NoError(t, err)
	require.Len(t, v, 4)

	assert.InDelta(t, 1.03, cmplx.Abs(v[0]), 1e-12) // slack setpoint
	assert.InDelta(t, 1.05, cmplx.Abs(v[1]), 1e-12) // pv setpoint
	assert.InDelta(t, 1.00, cmplx.Abs(v[2]), 1e-12) // pq flat
	assert.Zero(t, v[3])                            // deactivated
}

func TestDcSlackAngleFromVinit(t *testing.T) {
	g := make_two_bus_grid(50., 20., 1.02)

	v_init := g.get_flat_start()
	shift := 0.1
	v_init[0] = cmplx.Rect(1., shift)

	v, err := g.dc_pf(v_init, 10, 1e-8)
	require.NoError(t, err)

	// every angle is measured from the slack angle of Vinit
	assert.InDelta(t, shift, cmplx.Phase(v[0]), 1e-12)
	// P = 0.5 pu over b = 1/x = 10: -0.05 rad relative to the slack
	assert.InDelta(t, shift-0.05, cmplx.Phase(v[1]), 1e-12)
}

func TestDcIslanded(t *testing.T) {
	g := NewGridModel()
	g.set_sn_mva(100.)
	g.set_init_vm_pu(1.)
	g.init_bus([]float64{138., 138., 138.})
	g.init_powerlines([]float64{0.01}, []float64{0.1}, []complex128{0}, []int{0}, []int{1})
	g.init_trafo(nil, nil, nil, nil, nil, nil, nil, nil, nil)
	g.init_shunt(nil, nil, nil)
	g.init_loads([]float64{50.}, []float64{20.}, []int{1})
	g.init_generators([]float64{0.}, []float64{1.02}, []float64{-999.}, []float64{999.}, []int{0})
	g.init_sgens(nil, nil, nil, nil, nil, nil, nil)
	g.init_storages(nil, nil, nil)
	require.NoError(t, g.add_gen_slackbus(0))

	v, err := g.dc_pf(g.get_flat_start(), 10, 1e-8)
	assert.ErrorIs(t, err, ErrDcSingular)
	assert.Len(t, v, 0)
}

func TestDcShuntAndLoadGoToSbus(t *testing.T) {
	// in dc the shunt active power adds to the load of its bus
	g := make_two_bus_grid(50., 0., 1.0)
	g.init_shunt([]float64{10.}, []float64{0.}, []int{1})

	v, err := g.dc_pf(g.get_flat_start(), 10, 1e-8)
	require.NoError(t, err)

	// P = 0.6 pu over b = 1/x = 10
	assert.InDelta(t, -0.06, cmplx.Phase(v[1]), 1e-12)
}
