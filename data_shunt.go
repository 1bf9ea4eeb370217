package main

import "math/cmplx"

// Collection of the shunts of the grid. A shunt consumes P + jQ at
// 1 pu voltage (positive Q is inductive); it is a constant admittance
// stamped on the diagonal of Ybus with the sign
// y_shunt = -(P + jQ) / sn_mva.
type DataShunt struct {
	// active power at 1 pu, MW, [nb_shunt]
	p_mw []float64
	// reactive power at 1 pu, MVAr, [nb_shunt]
	q_mvar []float64
	// bus id (ext), [nb_shunt]
	bus_id []int
	// connection status, [nb_shunt]
	status []bool

	// results: MW, MVAr, kV, [nb_shunt]
	res_p []float64
	res_q []float64
	res_v []float64
}

// serialized content of the shunt collection
type ShuntState struct {
	PMw    []float64 `json:"p_mw"`
	QMvar  []float64 `json:"q_mvar"`
	BusID  []int     `json:"bus_id"`
	Status []bool    `json:"status"`
}

func (ds *DataShunt) init(shunt_p_mw []float64, shunt_q_mvar []float64, shunt_bus_id []int) {
	nb_shunt := len(shunt_p_mw)
	ds.p_mw = append([]float64(nil), shunt_p_mw...)
	ds.q_mvar = append([]float64(nil), shunt_q_mvar...)
	ds.bus_id = append([]int(nil), shunt_bus_id...)
	ds.status = make([]bool, nb_shunt)
	for i := range ds.status {
		ds.status[i] = true
	}
	ds.reset_results()
}

func (ds *DataShunt) nb() int { return len(ds.p_mw) }

func (ds *DataShunt) deactivate(shunt_id int, need_reset *bool) {
	_deactivate(shunt_id, ds.status, need_reset)
}

func (ds *DataShunt) reactivate(shunt_id int, need_reset *bool) {
	_reactivate(shunt_id, ds.status, need_reset)
}

func (ds *DataShunt) change_bus(shunt_id int, new_bus_id int, need_reset *bool, nb_bus int) {
	_change_bus(shunt_id, new_bus_id, ds.bus_id, need_reset, nb_bus)
}

func (ds *DataShunt) change_p(shunt_id int, new_p float64, need_reset *bool) {
	if ds.p_mw[shunt_id] != new_p {
		*need_reset = true
	}
	ds.p_mw[shunt_id] = new_p
}

func (ds *DataShunt) change_q(shunt_id int, new_q float64, need_reset *bool) {
	if ds.q_mvar[shunt_id] != new_q {
		*need_reset = true
	}
	ds.q_mvar[shunt_id] = new_q
}

func (ds *DataShunt) get_bus(shunt_id int) int { return ds.bus_id[shunt_id] }
func (ds *DataShunt) get_status() []bool       { return ds.status }

func (ds *DataShunt) fillYbus(triplets *[]triplet, ac bool, id_ext_to_solver []int, sn_mva float64) error {
	if !ac {
		// for the dc approximation the shunt active power goes to Sbus
		return nil
	}
	for shunt_id := 0; shunt_id < ds.nb(); shunt_id++ {
		if !ds.status[shunt_id] {
			continue
		}
		bus_solver, err := _solver_bus_id(ds.bus_id[shunt_id], id_ext_to_solver, "shunt")
		if err != nil {
			return err
		}
		y := -complex(ds.p_mw[shunt_id], ds.q_mvar[shunt_id]) / complex(sn_mva, 0.)
		*triplets = append(*triplets, triplet{bus_solver, bus_solver, y})
	}
	return nil
}

func (ds *DataShunt) fillSbus(res []complex128, ac bool, id_ext_to_solver []int, sn_mva float64) error {
	if ac {
		// in ac the shunt is in Ybus
		return nil
	}
	for shunt_id := 0; shunt_id < ds.nb(); shunt_id++ {
		if !ds.status[shunt_id] {
			continue
		}
		bus_solver, err := _solver_bus_id(ds.bus_id[shunt_id], id_ext_to_solver, "shunt")
		if err != nil {
			return err
		}
		res[bus_solver] -= complex(ds.p_mw[shunt_id]/sn_mva, 0.)
	}
	return nil
}

// shunts do not control any voltage
func (ds *DataShunt) fillpv(bus_pv *[]int, has_bus_been_added []bool, slack_bus_id_solver int, id_ext_to_solver []int) {
}

func (ds *DataShunt) compute_results(
	V []complex128,
	id_ext_to_solver []int,
	bus_vn_kv []float64,
	sn_mva float64,
) {
	for shunt_id := 0; shunt_id < ds.nb(); shunt_id++ {
		if !ds.status[shunt_id] {
			ds.res_p[shunt_id] = 0.
			ds.res_q[shunt_id] = 0.
			ds.res_v[shunt_id] = 0.
			continue
		}
		bus_ext := ds.bus_id[shunt_id]
		vm := cmplx.Abs(V[id_ext_to_solver[bus_ext]])
		// constant admittance: consumption scales with vm^2
		ds.res_p[shunt_id] = ds.p_mw[shunt_id] * vm * vm
		ds.res_q[shunt_id] = ds.q_mvar[shunt_id] * vm * vm
		ds.res_v[shunt_id] = vm * bus_vn_kv[bus_ext]
	}
}

func (ds *DataShunt) reset_results() {
	nb_shunt := ds.nb()
	ds.res_p = make([]float64, nb_shunt)
	ds.res_q = make([]float64, nb_shunt)
	ds.res_v = make([]float64, nb_shunt)
}

// active power taken from the given bus by the shunts, MW
func (ds *DataShunt) get_p_slack(slack_bus_ext_id int) float64 {
	res := 0.
	for shunt_id := 0; shunt_id < ds.nb(); shunt_id++ {
		if ds.status[shunt_id] && ds.bus_id[shunt_id] == slack_bus_ext_id {
			res += ds.res_p[shunt_id]
		}
	}
	return res
}

// reactive power taken from each bus by the shunts, MVAr, [nb_bus]
func (ds *DataShunt) get_q(q_by_bus []float64) {
	for shunt_id := 0; shunt_id < ds.nb(); shunt_id++ {
		if ds.status[shunt_id] {
			q_by_bus[ds.bus_id[shunt_id]] += ds.res_q[shunt_id]
		}
	}
}

func (ds *DataShunt) get_res() ([]float64, []float64, []float64) {
	return ds.res_p, ds.res_q, ds.res_v
}

func (ds *DataShunt) get_state() ShuntState {
	return ShuntState{
		PMw:    append([]float64(nil), ds.p_mw...),
		QMvar:  append([]float64(nil), ds.q_mvar...),
		BusID:  append([]int(nil), ds.bus_id...),
		Status: append([]bool(nil), ds.status...),
	}
}

func (ds *DataShunt) set_state(state ShuntState) {
	ds.init(state.PMw, state.QMvar, state.BusID)
	copy(ds.status, state.Status)
}
