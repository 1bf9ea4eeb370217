package main

import "math/cmplx"

// Collection of the loads of the grid. A load is a constant power
// consumption: it subtracts P + jQ from the injection of its bus.
type DataLoad struct {
	// active power demand, MW, [nb_load]
	p_mw []float64
	// reactive power demand, MVAr, [nb_load]
	q_mvar []float64
	// bus id (ext), [nb_load]
	bus_id []int
	// connection status, [nb_load]
	status []bool

	// results: MW, MVAr, kV, [nb_load]
	res_p []float64
	res_q []float64
	res_v []float64
}

// serialized content of the load collection
type LoadState struct {
	PMw    []float64 `json:"p_mw"`
	QMvar  []float64 `json:"q_mvar"`
	BusID  []int     `json:"bus_id"`
	Status []bool    `json:"status"`
}

func (dl *DataLoad) init(loads_p []float64, loads_q []float64, loads_bus_id []int) {
	nb_load := len(loads_p)
	dl.p_mw = append([]float64(nil), loads_p...)
	dl.q_mvar = append([]float64(nil), loads_q...)
	dl.bus_id = append([]int(nil), loads_bus_id...)
	dl.status = make([]bool, nb_load)
	for i := range dl.status {
		dl.status[i] = true
	}
	dl.reset_results()
}

func (dl *DataLoad) nb() int { return len(dl.p_mw) }

func (dl *DataLoad) deactivate(load_id int, need_reset *bool) {
	_deactivate(load_id, dl.status, need_reset)
}

func (dl *DataLoad) reactivate(load_id int, need_reset *bool) {
	_reactivate(load_id, dl.status, need_reset)
}

func (dl *DataLoad) change_bus(load_id int, new_bus_id int, need_reset *bool, nb_bus int) {
	_change_bus(load_id, new_bus_id, dl.bus_id, need_reset, nb_bus)
}

func (dl *DataLoad) change_p(load_id int, new_p float64, need_reset *bool) {
	if dl.p_mw[load_id] != new_p {
		*need_reset = true
	}
	dl.p_mw[load_id] = new_p
}

func (dl *DataLoad) change_q(load_id int, new_q float64, need_reset *bool) {
	if dl.q_mvar[load_id] != new_q {
		*need_reset = true
	}
	dl.q_mvar[load_id] = new_q
}

func (dl *DataLoad) get_bus(load_id int) int { return dl.bus_id[load_id] }
func (dl *DataLoad) get_status() []bool      { return dl.status }

// loads do not change the admittance matrix
func (dl *DataLoad) fillYbus(triplets *[]triplet, ac bool, id_ext_to_solver []int) error {
	return nil
}

func (dl *DataLoad) fillSbus(res []complex128, ac bool, id_ext_to_solver []int, sn_mva float64) error {
	for load_id := 0; load_id < dl.nb(); load_id++ {
		if !dl.status[load_id] {
			continue
		}
		bus_solver, err := _solver_bus_id(dl.bus_id[load_id], id_ext_to_solver, "load")
		if err != nil {
			return err
		}
		if ac {
			res[bus_solver] -= complex(dl.p_mw[load_id]/sn_mva, dl.q_mvar[load_id]/sn_mva)
		} else {
			res[bus_solver] -= complex(dl.p_mw[load_id]/sn_mva, 0.)
		}
	}
	return nil
}

// loads do not control any voltage
func (dl *DataLoad) fillpv(bus_pv *[]int, has_bus_been_added []bool, slack_bus_id_solver int, id_ext_to_solver []int) {
}

func (dl *DataLoad) compute_results(
	V []complex128,
	id_ext_to_solver []int,
	bus_vn_kv []float64,
	sn_mva float64,
) {
	for load_id := 0; load_id < dl.nb(); load_id++ {
		if !dl.status[load_id] {
			dl.res_p[load_id] = 0.
			dl.res_q[load_id] = 0.
			dl.res_v[load_id] = 0.
			continue
		}
		bus_ext := dl.bus_id[load_id]
		vm := cmplx.Abs(V[id_ext_to_solver[bus_ext]])
		dl.res_p[load_id] = dl.p_mw[load_id]
		dl.res_q[load_id] = dl.q_mvar[load_id]
		dl.res_v[load_id] = vm * bus_vn_kv[bus_ext]
	}
}

func (dl *DataLoad) reset_results() {
	nb_load := dl.nb()
	dl.res_p = make([]float64, nb_load)
	dl.res_q = make([]float64, nb_load)
	dl.res_v = make([]float64, nb_load)
}

// active power taken from the given bus by the loads, MW
func (dl *DataLoad) get_p_slack(slack_bus_ext_id int) float64 {
	res := 0.
	for load_id := 0; load_id < dl.nb(); load_id++ {
		if dl.status[load_id] && dl.bus_id[load_id] == slack_bus_ext_id {
			res += dl.res_p[load_id]
		}
	}
	return res
}

// reactive power taken from each bus by the loads, MVAr, [nb_bus]
func (dl *DataLoad) get_q(q_by_bus []float64) {
	for load_id := 0; load_id < dl.nb(); load_id++ {
		if dl.status[load_id] {
			q_by_bus[dl.bus_id[load_id]] += dl.res_q[load_id]
		}
	}
}

func (dl *DataLoad) get_res() ([]float64, []float64, []float64) {
	return dl.res_p, dl.res_q, dl.res_v
}

func (dl *DataLoad) get_state() LoadState {
	return LoadState{
		PMw:    append([]float64(nil), dl.p_mw...),
		QMvar:  append([]float64(nil), dl.q_mvar...),
		BusID:  append([]int(nil), dl.bus_id...),
		Status: append([]bool(nil), dl.status...),
	}
}

func (dl *DataLoad) set_state(state LoadState) {
	dl.init(state.PMw, state.QMvar, state.BusID)
	copy(dl.status, state.Status)
}
