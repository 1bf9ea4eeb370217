package main

// Vectorized update API used by the training environment. Each original
// bus represents a substation with two busbars: the ext bus `sub_id`
// (busbar 1) and the ext bus `sub_id + n_sub` (busbar 2). The topology
// vector indexes every element end; the `*_pos_topo_vect` tables give
// the position of each element in that vector and `*_to_subid` its
// substation.

func (g *GridModel) set_n_sub(n_sub int) { g.n_sub = n_sub }

func (g *GridModel) set_load_pos_topo_vect(v []int)     { g.load_pos_topo_vect = append([]int(nil), v...) }
func (g *GridModel) set_gen_pos_topo_vect(v []int)      { g.gen_pos_topo_vect = append([]int(nil), v...) }
func (g *GridModel) set_line_or_pos_topo_vect(v []int)  { g.line_or_pos_topo_vect = append([]int(nil), v...) }
func (g *GridModel) set_line_ex_pos_topo_vect(v []int)  { g.line_ex_pos_topo_vect = append([]int(nil), v...) }
func (g *GridModel) set_trafo_hv_pos_topo_vect(v []int) { g.trafo_hv_pos_topo_vect = append([]int(nil), v...) }
func (g *GridModel) set_trafo_lv_pos_topo_vect(v []int) { g.trafo_lv_pos_topo_vect = append([]int(nil), v...) }
func (g *GridModel) set_storage_pos_topo_vect(v []int)  { g.storage_pos_topo_vect = append([]int(nil), v...) }

func (g *GridModel) set_load_to_subid(v []int)     { g.load_to_subid = append([]int(nil), v...) }
func (g *GridModel) set_gen_to_subid(v []int)      { g.gen_to_subid = append([]int(nil), v...) }
func (g *GridModel) set_line_or_to_subid(v []int)  { g.line_or_to_subid = append([]int(nil), v...) }
func (g *GridModel) set_line_ex_to_subid(v []int)  { g.line_ex_to_subid = append([]int(nil), v...) }
func (g *GridModel) set_trafo_hv_to_subid(v []int) { g.trafo_hv_to_subid = append([]int(nil), v...) }
func (g *GridModel) set_trafo_lv_to_subid(v []int) { g.trafo_lv_to_subid = append([]int(nil), v...) }
func (g *GridModel) set_storage_to_subid(v []int)  { g.storage_to_subid = append([]int(nil), v...) }

// toggle both busbars of every substation: row i of active drives the
// ext buses i (busbar 1) and i + nb_bus_before (busbar 2)
func (g *GridModel) update_bus_status(nb_bus_before int, active [][2]bool) {
	for bus_id := 0; bus_id < len(active); bus_id++ {
		if active[bus_id][0] {
			g.reactivate_bus(bus_id)
		} else {
			g.deactivate_bus(bus_id)
		}
		if active[bus_id][1] {
			g.reactivate_bus(bus_id + nb_bus_before)
		} else {
			g.deactivate_bus(bus_id + nb_bus_before)
		}
	}
}

// apply a masked scalar update through the given per-element setter
func (g *GridModel) update_continuous_values(
	has_changed []bool,
	new_values []float64,
	fun func(el_id int, value float64),
) {
	for el_id := 0; el_id < len(has_changed); el_id++ {
		if has_changed[el_id] {
			fun(el_id, new_values[el_id])
		}
	}
}

func (g *GridModel) update_gens_p(has_changed []bool, new_values []float64) {
	g.update_continuous_values(has_changed, new_values, g.change_p_gen)
}

func (g *GridModel) update_gens_v(has_changed []bool, new_values []float64) {
	g.update_continuous_values(has_changed, new_values, g.change_v_gen)
}

func (g *GridModel) update_loads_p(has_changed []bool, new_values []float64) {
	g.update_continuous_values(has_changed, new_values, g.change_p_load)
}

func (g *GridModel) update_loads_q(has_changed []bool, new_values []float64) {
	g.update_continuous_values(has_changed, new_values, g.change_q_load)
}

func (g *GridModel) update_storages_p(has_changed []bool, new_values []float64) {
	g.update_continuous_values(has_changed, new_values, g.change_p_storage)
}

/*
Apply one element family of a topology vector update.

	Args:
		has_changed / new_values: indexed by topology-vector position
		vect_pos: position of each element of the family in the vector
		vect_subid: substation of each element of the family
		fun_react / fun_change / fun_deact: family operations

A value > 0 reconnects the element end: 1 on busbar 1 (ext bus
sub_id), 2 on busbar 2 (ext bus sub_id + n_sub). A value <= 0
disconnects the element.
*/
func (g *GridModel) update_topo_generic(
	has_changed []bool,
	new_values []int,
	vect_pos []int,
	vect_subid []int,
	fun_react func(el_id int),
	fun_change func(el_id int, new_bus int),
	fun_deact func(el_id int),
) {
	for el_id := 0; el_id < len(vect_pos); el_id++ {
		el_pos := vect_pos[el_id]
		if !has_changed[el_pos] {
			continue
		}
		new_bus := new_values[el_pos]
		if new_bus > 0 {
			init_bus_ext := vect_subid[el_id]
			new_bus_backend := init_bus_ext
			if new_bus != 1 {
				new_bus_backend = init_bus_ext + g.n_sub
			}
			fun_react(el_id)
			fun_change(el_id, new_bus_backend)
		} else {
			fun_deact(el_id)
		}
	}
}

// apply a full topology vector update to every element family. When a
// powerline or a trafo is disconnected, both of its ends are.
func (g *GridModel) update_topo(has_changed []bool, new_values []int) {
	g.update_topo_generic(has_changed, new_values,
		g.load_pos_topo_vect, g.load_to_subid,
		g.reactivate_load, g.change_bus_load, g.deactivate_load)
	g.update_topo_generic(has_changed, new_values,
		g.gen_pos_topo_vect, g.gen_to_subid,
		g.reactivate_gen, g.change_bus_gen, g.deactivate_gen)
	g.update_topo_generic(has_changed, new_values,
		g.line_or_pos_topo_vect, g.line_or_to_subid,
		g.reactivate_powerline, g.change_bus_powerline_or, g.deactivate_powerline)
	g.update_topo_generic(has_changed, new_values,
		g.line_ex_pos_topo_vect, g.line_ex_to_subid,
		g.reactivate_powerline, g.change_bus_powerline_ex, g.deactivate_powerline)
	g.update_topo_generic(has_changed, new_values,
		g.trafo_hv_pos_topo_vect, g.trafo_hv_to_subid,
		g.reactivate_trafo, g.change_bus_trafo_hv, g.deactivate_trafo)
	g.update_topo_generic(has_changed, new_values,
		g.trafo_lv_pos_topo_vect, g.trafo_lv_to_subid,
		g.reactivate_trafo, g.change_bus_trafo_lv, g.deactivate_trafo)
	g.update_topo_generic(has_changed, new_values,
		g.storage_pos_topo_vect, g.storage_to_subid,
		g.reactivate_storage, g.change_bus_storage, g.deactivate_storage)
}
