package main

import "math/cmplx"

// Collection of the static generators of the grid. A static generator
// injects a constant P + jQ at its bus: it is a load with the opposite
// sign. Its limits are carried but never enforced by the solver.
type DataSGen struct {
	// active power injection, MW, [nb_sgen]
	p_mw []float64
	// reactive power injection, MVAr, [nb_sgen]
	q_mvar []float64
	// limits, MW / MVAr, [nb_sgen]
	p_min []float64
	p_max []float64
	q_min []float64
	q_max []float64
	// bus id (ext), [nb_sgen]
	bus_id []int
	// connection status, [nb_sgen]
	status []bool

	// results: MW, MVAr, kV, [nb_sgen]
	res_p []float64
	res_q []float64
	res_v []float64
}

// serialized content of the static generator collection
type SGenState struct {
	PMw    []float64 `json:"p_mw"`
	QMvar  []float64 `json:"q_mvar"`
	PMin   []float64 `json:"p_min"`
	PMax   []float64 `json:"p_max"`
	QMin   []float64 `json:"q_min"`
	QMax   []float64 `json:"q_max"`
	BusID  []int     `json:"bus_id"`
	Status []bool    `json:"status"`
}

func (ds *DataSGen) init(
	sgen_p []float64,
	sgen_q []float64,
	sgen_pmin []float64,
	sgen_pmax []float64,
	sgen_qmin []float64,
	sgen_qmax []float64,
	sgen_bus_id []int,
) {
	nb_sgen := len(sgen_p)
	ds.p_mw = append([]float64(nil), sgen_p...)
	ds.q_mvar = append([]float64(nil), sgen_q...)
	ds.p_min = append([]float64(nil), sgen_pmin...)
	ds.p_max = append([]float64(nil), sgen_pmax...)
	ds.q_min = append([]float64(nil), sgen_qmin...)
	ds.q_max = append([]float64(nil), sgen_qmax...)
	ds.bus_id = append([]int(nil), sgen_bus_id...)
	ds.status = make([]bool, nb_sgen)
	for i := range ds.status {
		ds.status[i] = true
	}
	ds.reset_results()
}

func (ds *DataSGen) nb() int { return len(ds.p_mw) }

func (ds *DataSGen) deactivate(sgen_id int, need_reset *bool) {
	_deactivate(sgen_id, ds.status, need_reset)
}

func (ds *DataSGen) reactivate(sgen_id int, need_reset *bool) {
	_reactivate(sgen_id, ds.status, need_reset)
}

func (ds *DataSGen) change_bus(sgen_id int, new_bus_id int, need_reset *bool, nb_bus int) {
	_change_bus(sgen_id, new_bus_id, ds.bus_id, need_reset, nb_bus)
}

func (ds *DataSGen) change_p(sgen_id int, new_p float64, need_reset *bool) {
	if ds.p_mw[sgen_id] != new_p {
		*need_reset = true
	}
	ds.p_mw[sgen_id] = new_p
}

func (ds *DataSGen) change_q(sgen_id int, new_q float64, need_reset *bool) {
	if ds.q_mvar[sgen_id] != new_q {
		*need_reset = true
	}
	ds.q_mvar[sgen_id] = new_q
}

func (ds *DataSGen) get_bus(sgen_id int) int { return ds.bus_id[sgen_id] }
func (ds *DataSGen) get_status() []bool      { return ds.status }

// static generators do not change the admittance matrix
func (ds *DataSGen) fillYbus(triplets *[]triplet, ac bool, id_ext_to_solver []int) error {
	return nil
}

func (ds *DataSGen) fillSbus(res []complex128, ac bool, id_ext_to_solver []int, sn_mva float64) error {
	for sgen_id := 0; sgen_id < ds.nb(); sgen_id++ {
		if !ds.status[sgen_id] {
			continue
		}
		bus_solver, err := _solver_bus_id(ds.bus_id[sgen_id], id_ext_to_solver, "static generator")
		if err != nil {
			return err
		}
		if ac {
			res[bus_solver] += complex(ds.p_mw[sgen_id]/sn_mva, ds.q_mvar[sgen_id]/sn_mva)
		} else {
			res[bus_solver] += complex(ds.p_mw[sgen_id]/sn_mva, 0.)
		}
	}
	return nil
}

// static generators do not control any voltage
func (ds *DataSGen) fillpv(bus_pv *[]int, has_bus_been_added []bool, slack_bus_id_solver int, id_ext_to_solver []int) {
}

func (ds *DataSGen) compute_results(
	V []complex128,
	id_ext_to_solver []int,
	bus_vn_kv []float64,
	sn_mva float64,
) {
	for sgen_id := 0; sgen_id < ds.nb(); sgen_id++ {
		if !ds.status[sgen_id] {
			ds.res_p[sgen_id] = 0.
			ds.res_q[sgen_id] = 0.
			ds.res_v[sgen_id] = 0.
			continue
		}
		bus_ext := ds.bus_id[sgen_id]
		vm := cmplx.Abs(V[id_ext_to_solver[bus_ext]])
		ds.res_p[sgen_id] = ds.p_mw[sgen_id]
		ds.res_q[sgen_id] = ds.q_mvar[sgen_id]
		ds.res_v[sgen_id] = vm * bus_vn_kv[bus_ext]
	}
}

func (ds *DataSGen) reset_results() {
	nb_sgen := ds.nb()
	ds.res_p = make([]float64, nb_sgen)
	ds.res_q = make([]float64, nb_sgen)
	ds.res_v = make([]float64, nb_sgen)
}

// active power taken from the given bus: a static generator injects,
// so its contribution is negative
func (ds *DataSGen) get_p_slack(slack_bus_ext_id int) float64 {
	res := 0.
	for sgen_id := 0; sgen_id < ds.nb(); sgen_id++ {
		if ds.status[sgen_id] && ds.bus_id[sgen_id] == slack_bus_ext_id {
			res -= ds.res_p[sgen_id]
		}
	}
	return res
}

// reactive power taken from each bus: injections count negative
func (ds *DataSGen) get_q(q_by_bus []float64) {
	for sgen_id := 0; sgen_id < ds.nb(); sgen_id++ {
		if ds.status[sgen_id] {
			q_by_bus[ds.bus_id[sgen_id]] -= ds.res_q[sgen_id]
		}
	}
}

func (ds *DataSGen) get_res() ([]float64, []float64, []float64) {
	return ds.res_p, ds.res_q, ds.res_v
}

func (ds *DataSGen) get_state() SGenState {
	return SGenState{
		PMw:    append([]float64(nil), ds.p_mw...),
		QMvar:  append([]float64(nil), ds.q_mvar...),
		PMin:   append([]float64(nil), ds.p_min...),
		PMax:   append([]float64(nil), ds.p_max...),
		QMin:   append([]float64(nil), ds.q_min...),
		QMax:   append([]float64(nil), ds.q_max...),
		BusID:  append([]int(nil), ds.bus_id...),
		Status: append([]bool(nil), ds.status...),
	}
}

func (ds *DataSGen) set_state(state SGenState) {
	ds.init(state.PMw, state.QMvar, state.PMin, state.PMax, state.QMin, state.QMax, state.BusID)
	copy(ds.status, state.Status)
}
