package main

import "math/cmplx"

// Collection of the storage units of the grid. Positive P means the
// unit is discharging, an injection into its bus. Storages stay active
// at P = 0: setting the power to zero never toggles the status.
type DataStorage struct {
	// active power, MW (positive = discharging), [nb_storage]
	p_mw []float64
	// reactive power, MVAr, [nb_storage]
	q_mvar []float64
	// bus id (ext), [nb_storage]
	bus_id []int
	// connection status, [nb_storage]
	status []bool

	// results: MW, MVAr, kV, [nb_storage]
	res_p []float64
	res_q []float64
	res_v []float64
}

// serialized content of the storage collection
type StorageState struct {
	PMw    []float64 `json:"p_mw"`
	QMvar  []float64 `json:"q_mvar"`
	BusID  []int     `json:"bus_id"`
	Status []bool    `json:"status"`
}

func (ds *DataStorage) init(storages_p []float64, storages_q []float64, storages_bus_id []int) {
	nb_storage := len(storages_p)
	ds.p_mw = append([]float64(nil), storages_p...)
	ds.q_mvar = append([]float64(nil), storages_q...)
	ds.bus_id = append([]int(nil), storages_bus_id...)
	ds.status = make([]bool, nb_storage)
	for i := range ds.status {
		ds.status[i] = true
	}
	ds.reset_results()
}

func (ds *DataStorage) nb() int { return len(ds.p_mw) }

func (ds *DataStorage) deactivate(storage_id int, need_reset *bool) {
	_deactivate(storage_id, ds.status, need_reset)
}

func (ds *DataStorage) reactivate(storage_id int, need_reset *bool) {
	_reactivate(storage_id, ds.status, need_reset)
}

func (ds *DataStorage) change_bus(storage_id int, new_bus_id int, need_reset *bool, nb_bus int) {
	_change_bus(storage_id, new_bus_id, ds.bus_id, need_reset, nb_bus)
}

func (ds *DataStorage) change_p(storage_id int, new_p float64, need_reset *bool) {
	if ds.p_mw[storage_id] != new_p {
		*need_reset = true
	}
	ds.p_mw[storage_id] = new_p
}

func (ds *DataStorage) change_q(storage_id int, new_q float64, need_reset *bool) {
	if ds.q_mvar[storage_id] != new_q {
		*need_reset = true
	}
	ds.q_mvar[storage_id] = new_q
}

func (ds *DataStorage) get_bus(storage_id int) int { return ds.bus_id[storage_id] }
func (ds *DataStorage) get_status() []bool         { return ds.status }

// storages do not change the admittance matrix
func (ds *DataStorage) fillYbus(triplets *[]triplet, ac bool, id_ext_to_solver []int) error {
	return nil
}

func (ds *DataStorage) fillSbus(res []complex128, ac bool, id_ext_to_solver []int, sn_mva float64) error {
	for storage_id := 0; storage_id < ds.nb(); storage_id++ {
		if !ds.status[storage_id] {
			continue
		}
		bus_solver, err := _solver_bus_id(ds.bus_id[storage_id], id_ext_to_solver, "storage")
		if err != nil {
			return err
		}
		if ac {
			res[bus_solver] += complex(ds.p_mw[storage_id]/sn_mva, ds.q_mvar[storage_id]/sn_mva)
		} else {
			res[bus_solver] += complex(ds.p_mw[storage_id]/sn_mva, 0.)
		}
	}
	return nil
}

// storages do not control any voltage
func (ds *DataStorage) fillpv(bus_pv *[]int, has_bus_been_added []bool, slack_bus_id_solver int, id_ext_to_solver []int) {
}

func (ds *DataStorage) compute_results(
	V []complex128,
	id_ext_to_solver []int,
	bus_vn_kv []float64,
	sn_mva float64,
) {
	for storage_id := 0; storage_id < ds.nb(); storage_id++ {
		if !ds.status[storage_id] {
			ds.res_p[storage_id] = 0.
			ds.res_q[storage_id] = 0.
			ds.res_v[storage_id] = 0.
			continue
		}
		bus_ext := ds.bus_id[storage_id]
		vm := cmplx.Abs(V[id_ext_to_solver[bus_ext]])
		ds.res_p[storage_id] = ds.p_mw[storage_id]
		ds.res_q[storage_id] = ds.q_mvar[storage_id]
		ds.res_v[storage_id] = vm * bus_vn_kv[bus_ext]
	}
}

func (ds *DataStorage) reset_results() {
	nb_storage := ds.nb()
	ds.res_p = make([]float64, nb_storage)
	ds.res_q = make([]float64, nb_storage)
	ds.res_v = make([]float64, nb_storage)
}

// active power taken from the given bus: a discharging storage injects,
// so its contribution is negative
func (ds *DataStorage) get_p_slack(slack_bus_ext_id int) float64 {
	res := 0.
	for storage_id := 0; storage_id < ds.nb(); storage_id++ {
		if ds.status[storage_id] && ds.bus_id[storage_id] == slack_bus_ext_id {
			res -= ds.res_p[storage_id]
		}
	}
	return res
}

// reactive power taken from each bus: injections count negative
func (ds *DataStorage) get_q(q_by_bus []float64) {
	for storage_id := 0; storage_id < ds.nb(); storage_id++ {
		if ds.status[storage_id] {
			q_by_bus[ds.bus_id[storage_id]] -= ds.res_q[storage_id]
		}
	}
}

func (ds *DataStorage) get_res() ([]float64, []float64, []float64) {
	return ds.res_p, ds.res_q, ds.res_v
}

func (ds *DataStorage) get_state() StorageState {
	return StorageState{
		PMw:    append([]float64(nil), ds.p_mw...),
		QMvar:  append([]float64(nil), ds.q_mvar...),
		BusID:  append([]int(nil), ds.bus_id...),
		Status: append([]bool(nil), ds.status...),
	}
}

func (ds *DataStorage) set_state(state StorageState) {
	ds.init(state.PMw, state.QMvar, state.BusID)
	copy(ds.status, state.Status)
}
