package main

import (
	"fmt"
	"math/cmplx"
)

// Collection of the voltage controlled generators of the grid. A
// generator imposes its active power setpoint and the voltage magnitude
// of its bus (PV bus). Its reactive output is recovered after the solve
// as the residual needed to balance the bus; the q limits are reported
// but never enforced during the iteration.
type DataGen struct {
	// active power setpoint, MW, [nb_gen]
	p_mw []float64
	// voltage magnitude setpoint, pu, [nb_gen]
	vm_pu []float64
	// reactive limits, MVAr, [nb_gen]
	min_q []float64
	max_q []float64
	// bus id (ext), [nb_gen]
	bus_id []int
	// connection status, [nb_gen]
	status []bool

	// number of generators connected to each bus, [nb_bus]
	total_gen_per_bus []int
	// sum of the q-limit spread of the generators at each bus, MVAr, [nb_bus]
	total_q_spread_per_bus []float64

	// results: MW, MVAr, kV, [nb_gen]
	res_p []float64
	res_q []float64
	res_v []float64
	// true when the recovered q hit a limit, [nb_gen]
	q_limited []bool
}

// serialized content of the generator collection
type GenState struct {
	PMw    []float64 `json:"p_mw"`
	VmPu   []float64 `json:"vm_pu"`
	MinQ   []float64 `json:"min_q"`
	MaxQ   []float64 `json:"max_q"`
	BusID  []int     `json:"bus_id"`
	Status []bool    `json:"status"`
}

func (dg *DataGen) init(
	generators_p []float64,
	generators_v []float64,
	generators_min_q []float64,
	generators_max_q []float64,
	generators_bus_id []int,
) {
	nb_gen := len(generators_p)
	dg.p_mw = append([]float64(nil), generators_p...)
	dg.vm_pu = append([]float64(nil), generators_v...)
	dg.min_q = append([]float64(nil), generators_min_q...)
	dg.max_q = append([]float64(nil), generators_max_q...)
	dg.bus_id = append([]int(nil), generators_bus_id...)
	dg.status = make([]bool, nb_gen)
	for i := range dg.status {
		dg.status[i] = true
	}
	dg.reset_results()
}

func (dg *DataGen) nb() int { return len(dg.p_mw) }

func (dg *DataGen) deactivate(gen_id int, need_reset *bool) {
	_deactivate(gen_id, dg.status, need_reset)
}

func (dg *DataGen) reactivate(gen_id int, need_reset *bool) {
	_reactivate(gen_id, dg.status, need_reset)
}

func (dg *DataGen) change_bus(gen_id int, new_bus_id int, need_reset *bool, nb_bus int) {
	_change_bus(gen_id, new_bus_id, dg.bus_id, need_reset, nb_bus)
}

func (dg *DataGen) change_p(gen_id int, new_p float64, need_reset *bool) {
	if dg.p_mw[gen_id] != new_p {
		*need_reset = true
	}
	dg.p_mw[gen_id] = new_p
}

func (dg *DataGen) change_v(gen_id int, new_v_pu float64, need_reset *bool) {
	if dg.vm_pu[gen_id] != new_v_pu {
		*need_reset = true
	}
	dg.vm_pu[gen_id] = new_v_pu
}

func (dg *DataGen) get_bus(gen_id int) int { return dg.bus_id[gen_id] }
func (dg *DataGen) get_status() []bool     { return dg.status }

// bus (ext id) of the designated slack generator. The generator must
// exist and be active.
func (dg *DataGen) get_slack_bus_id(gen_slackbus int) (int, error) {
	if gen_slackbus < 0 || gen_slackbus >= dg.nb() {
		return 0, fmt.Errorf("generator id %d: %w", gen_slackbus, ErrSlackInvalid)
	}
	if !dg.status[gen_slackbus] {
		return 0, fmt.Errorf("generator id %d is deactivated: %w", gen_slackbus, ErrSlackInvalid)
	}
	return dg.bus_id[gen_slackbus], nil
}

// generators do not change the admittance matrix
func (dg *DataGen) fillYbus(triplets *[]triplet, ac bool, id_ext_to_solver []int) error {
	return nil
}

// only the active power setpoint is injected; the reactive output is an
// unknown of the powerflow
func (dg *DataGen) fillSbus(res []complex128, ac bool, id_ext_to_solver []int, sn_mva float64) error {
	for gen_id := 0; gen_id < dg.nb(); gen_id++ {
		if !dg.status[gen_id] {
			continue
		}
		bus_solver, err := _solver_bus_id(dg.bus_id[gen_id], id_ext_to_solver, "generator")
		if err != nil {
			return err
		}
		res[bus_solver] += complex(dg.p_mw[gen_id]/sn_mva, 0.)
	}
	return nil
}

// mark the buses hosting at least one active generator as PV, except
// the slack bus
func (dg *DataGen) fillpv(bus_pv *[]int, has_bus_been_added []bool, slack_bus_id_solver int, id_ext_to_solver []int) {
	for gen_id := 0; gen_id < dg.nb(); gen_id++ {
		if !dg.status[gen_id] {
			continue
		}
		bus_solver := id_ext_to_solver[dg.bus_id[gen_id]]
		if bus_solver == _deactivated_bus_id {
			continue // caught by fillYbus / fillSbus
		}
		if bus_solver == slack_bus_id_solver {
			continue
		}
		if has_bus_been_added[bus_solver] {
			continue
		}
		*bus_pv = append(*bus_pv, bus_solver)
		has_bus_been_added[bus_solver] = true
	}
}

// book-keeping needed to split the recovered reactive power between the
// generators of one bus
func (dg *DataGen) init_q_vector(nb_bus int) {
	dg.total_gen_per_bus = make([]int, nb_bus)
	dg.total_q_spread_per_bus = make([]float64, nb_bus)
	for gen_id := 0; gen_id < dg.nb(); gen_id++ {
		if !dg.status[gen_id] {
			continue
		}
		bus := dg.bus_id[gen_id]
		dg.total_gen_per_bus[bus]++
		dg.total_q_spread_per_bus[bus] += dg.max_q[gen_id] - dg.min_q[gen_id]
	}
}

// impose the voltage magnitude setpoints on the initial solver voltage,
// keeping the angles
func (dg *DataGen) set_vm(V []complex128, id_ext_to_solver []int) {
	for gen_id := 0; gen_id < dg.nb(); gen_id++ {
		if !dg.status[gen_id] {
			continue
		}
		bus_solver := id_ext_to_solver[dg.bus_id[gen_id]]
		if bus_solver == _deactivated_bus_id {
			continue
		}
		vm := cmplx.Abs(V[bus_solver])
		if vm == 0. {
			V[bus_solver] = complex(dg.vm_pu[gen_id], 0.)
		} else {
			V[bus_solver] *= complex(dg.vm_pu[gen_id]/vm, 0.)
		}
	}
}

// voltage magnitudes of the dc approximation: the setpoint on every bus
// hosting an active generator, [nb_bus ext]
func (dg *DataGen) get_vm_for_dc(Vm []float64) {
	for gen_id := 0; gen_id < dg.nb(); gen_id++ {
		if !dg.status[gen_id] {
			continue
		}
		Vm[dg.bus_id[gen_id]] = dg.vm_pu[gen_id]
	}
}

func (dg *DataGen) compute_results(
	V []complex128,
	id_ext_to_solver []int,
	bus_vn_kv []float64,
	sn_mva float64,
) {
	for gen_id := 0; gen_id < dg.nb(); gen_id++ {
		if !dg.status[gen_id] {
			dg.res_p[gen_id] = 0.
			dg.res_q[gen_id] = 0.
			dg.res_v[gen_id] = 0.
			dg.q_limited[gen_id] = false
			continue
		}
		bus_ext := dg.bus_id[gen_id]
		dg.res_p[gen_id] = dg.p_mw[gen_id]
		dg.res_v[gen_id] = dg.vm_pu[gen_id] * bus_vn_kv[bus_ext]
	}
}

func (dg *DataGen) reset_results() {
	nb_gen := dg.nb()
	dg.res_p = make([]float64, nb_gen)
	dg.res_q = make([]float64, nb_gen)
	dg.res_v = make([]float64, nb_gen)
	dg.q_limited = make([]bool, nb_gen)
}

// the slack generator absorbs the active power residual of its bus
// (losses plus the imbalance against the loads)
func (dg *DataGen) set_p_slack(gen_slackbus int, p_slack float64) {
	dg.res_p[gen_slackbus] = p_slack
}

/*
Assign the recovered reactive power to the generators.

q_by_bus holds, for each ext bus, the reactive power taken from the bus
by every other element (branches, loads, shunts, injections counted
negative). The generators of a bus must supply that amount. A single
generator takes it all; several generators split it proportionally to
their q-limit spread (equal shares when every spread is zero). The
reported value is clamped to [min_q, max_q] and the clamping is flagged.
*/
func (dg *DataGen) set_q(q_by_bus []float64) {
	for gen_id := 0; gen_id < dg.nb(); gen_id++ {
		if !dg.status[gen_id] {
			dg.res_q[gen_id] = 0.
			dg.q_limited[gen_id] = false
			continue
		}
		bus := dg.bus_id[gen_id]
		q_needed := q_by_bus[bus]

		var share float64
		if dg.total_gen_per_bus[bus] <= 1 {
			share = q_needed
		} else if dg.total_q_spread_per_bus[bus] > 0. {
			spread := dg.max_q[gen_id] - dg.min_q[gen_id]
			share = q_needed * spread / dg.total_q_spread_per_bus[bus]
		} else {
			share = q_needed / float64(dg.total_gen_per_bus[bus])
		}

		dg.q_limited[gen_id] = false
		if share > dg.max_q[gen_id] {
			share = dg.max_q[gen_id]
			dg.q_limited[gen_id] = true
		} else if share < dg.min_q[gen_id] {
			share = dg.min_q[gen_id]
			dg.q_limited[gen_id] = true
		}
		dg.res_q[gen_id] = share
	}
}

// total reactive capability of the active generators of each bus,
// MVAr, [nb_bus]
func (dg *DataGen) get_q_limits(q_min_by_bus []float64, q_max_by_bus []float64) {
	for gen_id := 0; gen_id < dg.nb(); gen_id++ {
		if !dg.status[gen_id] {
			continue
		}
		bus := dg.bus_id[gen_id]
		q_min_by_bus[bus] += dg.min_q[gen_id]
		q_max_by_bus[bus] += dg.max_q[gen_id]
	}
}

func (dg *DataGen) get_res() ([]float64, []float64, []float64) {
	return dg.res_p, dg.res_q, dg.res_v
}

func (dg *DataGen) get_q_limited() []bool { return dg.q_limited }

func (dg *DataGen) get_state() GenState {
	return GenState{
		PMw:    append([]float64(nil), dg.p_mw...),
		VmPu:   append([]float64(nil), dg.vm_pu...),
		MinQ:   append([]float64(nil), dg.min_q...),
		MaxQ:   append([]float64(nil), dg.max_q...),
		BusID:  append([]int(nil), dg.bus_id...),
		Status: append([]bool(nil), dg.status...),
	}
}

func (dg *DataGen) set_state(state GenState) {
	dg.init(state.PMw, state.VmPu, state.MinQ, state.MaxQ, state.BusID)
	copy(dg.status, state.Status)
}
