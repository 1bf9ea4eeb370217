package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 14-bus reference case on a 100 MVA base. Every substation carries two
// busbars: ext bus s (busbar 1) and ext bus s + 14 (busbar 2). The load
// of substation 4 is modelled as two halves so the substation can be
// split. The three ratio branches are transformers with the off-nominal
// ratio coming from a -1 tap.
func make_case14_grid() *GridModel {
	const n_sub = 14

	g := NewGridModel()
	g.set_sn_mva(100.)
	g.set_init_vm_pu(1.06)

	bus_vn_kv := make([]float64, 2*n_sub)
	for i := range bus_vn_kv {
		bus_vn_kv[i] = 135.
	}
	g.init_bus(bus_vn_kv)

	line_from := []int{0, 0, 1, 1, 1, 2, 3, 5, 5, 5, 6, 6, 8, 8, 9, 11, 12}
	line_to := []int{1, 4, 2, 3, 4, 3, 4, 10, 11, 12, 7, 8, 9, 13, 10, 12, 13}
	line_r := []float64{
		0.01938, 0.05403, 0.04699, 0.05811, 0.05695, 0.06701, 0.01335,
		0.09498, 0.12291, 0.06615, 0., 0., 0.03181, 0.12711, 0.08205,
		0.22092, 0.17093,
	}
	line_x := []float64{
		0.05917, 0.22304, 0.19797, 0.17632, 0.17388, 0.17103, 0.04211,
		0.19890, 0.25581, 0.13027, 0.17615, 0.11001, 0.08450, 0.27038,
		0.19207, 0.19988, 0.34802,
	}
	line_h := []complex128{
		complex(0., 0.0528), complex(0., 0.0492), complex(0., 0.0438),
		complex(0., 0.0340), complex(0., 0.0346), complex(0., 0.0128),
		0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}
	g.init_powerlines(line_r, line_x, line_h, line_from, line_to)

	// ratios 0.978, 0.969, 0.932, tap on the hv side
	g.init_trafo(
		[]float64{0., 0., 0.},
		[]float64{0.20912, 0.55618, 0.25202},
		[]complex128{0, 0, 0},
		[]float64{2.2, 3.1, 6.8},
		[]float64{-1., -1., -1.},
		[]float64{0., 0., 0.},
		[]bool{true, true, true},
		[]int{3, 3, 4},
		[]int{6, 8, 5},
	)

	g.init_shunt([]float64{0.}, []float64{-19.}, []int{8})

	load_bus := []int{1, 2, 3, 4, 4, 5, 8, 9, 10, 11, 12, 13}
	load_p := []float64{21.7, 94.2, 47.8, 3.8, 3.8, 11.2, 29.5, 9.0, 3.5, 6.1, 13.5, 14.9}
	load_q := []float64{12.7, 19.0, -3.9, 0.8, 0.8, 7.5, 16.6, 5.8, 1.8, 1.6, 5.8, 5.0}
	g.init_loads(load_p, load_q, load_bus)

	g.init_generators(
		[]float64{0., 40., 0., 0., 0.},
		[]float64{1.06, 1.045, 1.01, 1.07, 1.09},
		[]float64{-999., -40., 0., -6., -6.},
		[]float64{999., 50., 40., 24., 24.},
		[]int{0, 1, 2, 5, 7},
	)
	g.init_sgens(nil, nil, nil, nil, nil, nil, nil)
	g.init_storages(nil, nil, nil)
	if err := g.add_gen_slackbus(0); err != nil {
		panic(err)
	}

	// topology vector layout: loads, gens, line or ends, line ex ends,
	// trafo hv ends, trafo lv ends
	g.set_n_sub(n_sub)
	pos := 0
	seq := func(n int) []int {
		res := make([]int, n)
		for i := range res {
			res[i] = pos
			pos++
		}
		return res
	}
	g.set_load_pos_topo_vect(seq(len(load_bus)))
	g.set_gen_pos_topo_vect(seq(5))
	g.set_line_or_pos_topo_vect(seq(len(line_from)))
	g.set_line_ex_pos_topo_vect(seq(len(line_to)))
	g.set_trafo_hv_pos_topo_vect(seq(3))
	g.set_trafo_lv_pos_topo_vect(seq(3))
	g.set_storage_pos_topo_vect(nil)

	g.set_load_to_subid(load_bus)
	g.set_gen_to_subid([]int{0, 1, 2, 5, 7})
	g.set_line_or_to_subid(line_from)
	g.set_line_ex_to_subid(line_to)
	g.set_trafo_hv_to_subid([]int{3, 3, 4})
	g.set_trafo_lv_to_subid([]int{6, 8, 5})
	g.set_storage_to_subid(nil)

	return g
}

// length of the topology vector of the case14 fixture
const case14_topo_vect_size = 12 + 5 + 17 + 17 + 3 + 3

// leave only the first busbar of every substation in service
func deactivate_second_busbars(g *GridModel) {
	active := make([][2]bool, 14)
	for i := range active {
		active[i] = [2]bool{true, false}
	}
	g.update_bus_status(14, active)
}

func TestCase14Converges(t *testing.T) {
	g := make_case14_grid()
	deactivate_second_busbars(g)

	v, err := g.ac_pf(g.get_flat_start(), 10, 1e-8)
	require.NoError(t, err)
	assert.True(t, g.is_converged())
	assert.LessOrEqual(t, g.get_nb_iter(), 6)
	assert.Equal(t, 14, g.nb_bus())

	// connected buses solved, second busbars at zero
	for bus_id := 0; bus_id < 14; bus_id++ {
		assert.NotZero(t, v[bus_id])
		assert.Zero(t, v[bus_id+14])
	}
}

func TestSubstationSplit(t *testing.T) {
	g := make_case14_grid()
	deactivate_second_busbars(g)

	_, err := g.ac_pf(g.get_flat_start(), 10, 1e-8)
	require.NoError(t, err)
	p_ref, _, _ := g.get_loads_res()
	var total_ref float64
	for _, p := range p_ref {
		total_ref += p
	}
	assert.InDelta(t, 259.0, total_ref, 1e-9)

	// bring busbar 2 of substation 4 into service
	active := make([][2]bool, 14)
	for i := range active {
		active[i] = [2]bool{true, false}
	}
	active[4] = [2]bool{true, true}
	g.update_bus_status(14, active)

	// move half of the substation load and the 0-4 line there
	has_changed := make([]bool, case14_topo_vect_size)
	new_values := make([]int, case14_topo_vect_size)
	load2_pos := g.load_pos_topo_vect[4]
	line1_ex_pos := g.line_ex_pos_topo_vect[1]
	has_changed[load2_pos] = true
	new_values[load2_pos] = 2
	has_changed[line1_ex_pos] = true
	new_values[line1_ex_pos] = 2
	g.update_topo(has_changed, new_values)

	assert.Equal(t, 18, g.get_bus_load(4))
	assert.Equal(t, 18, g.get_bus_powerline_ex(1))
	assert.Equal(t, 15, g.nb_bus())

	v, err := g.ac_pf(g.get_flat_start(), 10, 1e-8)
	require.NoError(t, err)
	assert.True(t, g.is_converged())
	assert.LessOrEqual(t, g.get_nb_iter(), 6)
	assert.NotZero(t, v[18])

	// the split moved load around without changing the total
	p_split, _, _ := g.get_loads_res()
	var total_split float64
	for _, p := range p_split {
		total_split += p
	}
	assert.InDelta(t, total_ref, total_split, 1e-9)
}

func TestUpdateTopoDisconnects(t *testing.T) {
	g := make_case14_grid()
	deactivate_second_busbars(g)

	// value <= 0 at the position of load 8 (bus 10) disconnects it
	has_changed := make([]bool, case14_topo_vect_size)
	new_values := make([]int, case14_topo_vect_size)
	pos := g.load_pos_topo_vect[8]
	has_changed[pos] = true
	new_values[pos] = -1
	g.update_topo(has_changed, new_values)

	assert.False(t, g.get_loads_status()[8])

	_, err := g.ac_pf(g.get_flat_start(), 10, 1e-8)
	require.NoError(t, err)
	p, _, _ := g.get_loads_res()
	assert.Zero(t, p[8])
}

func TestUpdateContinuousValues(t *testing.T) {
	g := make_case14_grid()
	deactivate_second_busbars(g)

	_, err := g.ac_pf(g.get_flat_start(), 10, 1e-8)
	require.NoError(t, err)
	p_gen_ref, _, _ := g.get_gen_res()
	slack_p_ref := p_gen_ref[0]

	// raise one load through the masked update, leave the others alone
	has_changed := make([]bool, 12)
	new_values := make([]float64, 12)
	has_changed[0] = true
	new_values[0] = 42.
	g.update_loads_p(has_changed, new_values)

	_, err = g.ac_pf(g.get_flat_start(), 10, 1e-8)
	require.NoError(t, err)
	p, _, _ := g.get_loads_res()
	assert.Equal(t, 42., p[0])
	assert.Equal(t, 94.2, p[1])

	// the slack picks up the extra demand
	p_gen, _, _ := g.get_gen_res()
	assert.Greater(t, p_gen[0], slack_p_ref+15.)
}
