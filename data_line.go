package main

import (
	"math/cmplx"
)

// Collection of the powerlines of the grid. A powerline is a standard
// pi model: series impedance r + jx and the total line charging h split
// half at each end. All parameters are pu on the system base.
type DataLine struct {
	// series resistance, pu, [nb_line]
	branch_r []float64
	// series reactance, pu, [nb_line]
	branch_x []float64
	// total charging susceptance (complex), pu, [nb_line]
	branch_h []complex128
	// origin bus id (ext), [nb_line]
	bus_or_id []int
	// extremity bus id (ext), [nb_line]
	bus_ex_id []int
	// connection status, [nb_line]
	status []bool

	// results at the origin side: MW, MVAr, kV, kA, [nb_line]
	res_p_or []float64
	res_q_or []float64
	res_v_or []float64
	res_a_or []float64
	// results at the extremity side: MW, MVAr, kV, kA, [nb_line]
	res_p_ex []float64
	res_q_ex []float64
	res_v_ex []float64
	res_a_ex []float64
}

// serialized content of the powerline collection
type LineState struct {
	BranchR []float64 `json:"branch_r"`
	BranchX []float64 `json:"branch_x"`
	BranchHRe []float64 `json:"branch_h_re"`
	BranchHIm []float64 `json:"branch_h_im"`
	BusOrID []int  `json:"bus_or_id"`
	BusExID []int  `json:"bus_ex_id"`
	Status  []bool `json:"status"`
}

func (dl *DataLine) init(
	branch_r []float64,
	branch_x []float64,
	branch_h []complex128,
	branch_from_id []int,
	branch_to_id []int,
) {
	nb_line := len(branch_r)
	dl.branch_r = append([]float64(nil), branch_r...)
	dl.branch_x = append([]float64(nil), branch_x...)
	dl.branch_h = append([]complex128(nil), branch_h...)
	dl.bus_or_id = append([]int(nil), branch_from_id...)
	dl.bus_ex_id = append([]int(nil), branch_to_id...)
	dl.status = make([]bool, nb_line)
	for i := range dl.status {
		dl.status[i] = true
	}
	dl.reset_results()
}

func (dl *DataLine) nb() int { return len(dl.branch_r) }

func (dl *DataLine) deactivate(line_id int, need_reset *bool) {
	_deactivate(line_id, dl.status, need_reset)
}

func (dl *DataLine) reactivate(line_id int, need_reset *bool) {
	_reactivate(line_id, dl.status, need_reset)
}

func (dl *DataLine) change_bus_or(line_id int, new_bus_id int, need_reset *bool, nb_bus int) {
	_change_bus(line_id, new_bus_id, dl.bus_or_id, need_reset, nb_bus)
}

func (dl *DataLine) change_bus_ex(line_id int, new_bus_id int, need_reset *bool, nb_bus int) {
	_change_bus(line_id, new_bus_id, dl.bus_ex_id, need_reset, nb_bus)
}

func (dl *DataLine) get_bus_or(line_id int) int { return dl.bus_or_id[line_id] }
func (dl *DataLine) get_bus_ex(line_id int) int { return dl.bus_ex_id[line_id] }
func (dl *DataLine) get_status() []bool         { return dl.status }

// admittance terms of the pi model of one powerline. For the dc
// approximation only the series susceptance 1 / x is kept, as a real
// number, so that the real part of Ybus is the dc matrix.
func (dl *DataLine) _y_terms(line_id int, ac bool) (y_or_or, y_or_ex, y_ex_or, y_ex_ex complex128) {
	if ac {
		ys := 1. / complex(dl.branch_r[line_id], dl.branch_x[line_id])
		h_half := dl.branch_h[line_id] * 0.5
		y_or_or = ys + h_half
		y_ex_ex = ys + h_half
		y_or_ex = -ys
		y_ex_or = -ys
		return
	}
	b := complex(1./dl.branch_x[line_id], 0.)
	y_or_or = b
	y_ex_ex = b
	y_or_ex = -b
	y_ex_or = -b
	return
}

func (dl *DataLine) fillYbus(triplets *[]triplet, ac bool, id_ext_to_solver []int) error {
	for line_id := 0; line_id < dl.nb(); line_id++ {
		if !dl.status[line_id] {
			continue
		}
		bus_or, err := _solver_bus_id(dl.bus_or_id[line_id], id_ext_to_solver, "powerline (or side)")
		if err != nil {
			return err
		}
		bus_ex, err := _solver_bus_id(dl.bus_ex_id[line_id], id_ext_to_solver, "powerline (ex side)")
		if err != nil {
			return err
		}
		y_or_or, y_or_ex, y_ex_or, y_ex_ex := dl._y_terms(line_id, ac)
		*triplets = append(*triplets,
			triplet{bus_or, bus_or, y_or_or},
			triplet{bus_or, bus_ex, y_or_ex},
			triplet{bus_ex, bus_or, y_ex_or},
			triplet{bus_ex, bus_ex, y_ex_ex},
		)
	}
	return nil
}

// powerlines do not inject any power
func (dl *DataLine) fillSbus(res []complex128, ac bool, id_ext_to_solver []int, sn_mva float64) error {
	return nil
}

// powerlines do not control any voltage
func (dl *DataLine) fillpv(bus_pv *[]int, has_bus_been_added []bool, slack_bus_id_solver int, id_ext_to_solver []int) {
}

func (dl *DataLine) compute_results(
	V []complex128,
	id_ext_to_solver []int,
	bus_vn_kv []float64,
	sn_mva float64,
) {
	for line_id := 0; line_id < dl.nb(); line_id++ {
		if !dl.status[line_id] {
			dl.res_p_or[line_id] = 0.
			dl.res_q_or[line_id] = 0.
			dl.res_v_or[line_id] = 0.
			dl.res_a_or[line_id] = 0.
			dl.res_p_ex[line_id] = 0.
			dl.res_q_ex[line_id] = 0.
			dl.res_v_ex[line_id] = 0.
			dl.res_a_ex[line_id] = 0.
			continue
		}
		bus_or_ext := dl.bus_or_id[line_id]
		bus_ex_ext := dl.bus_ex_id[line_id]
		e_or := V[id_ext_to_solver[bus_or_ext]]
		e_ex := V[id_ext_to_solver[bus_ex_ext]]

		y_or_or, y_or_ex, y_ex_or, y_ex_ex := dl._y_terms(line_id, true)
		i_or := y_or_or*e_or + y_or_ex*e_ex
		i_ex := y_ex_or*e_or + y_ex_ex*e_ex
		s_or := e_or * cmplx.Conj(i_or) * complex(sn_mva, 0.)
		s_ex := e_ex * cmplx.Conj(i_ex) * complex(sn_mva, 0.)

		vm_or := cmplx.Abs(e_or)
		vm_ex := cmplx.Abs(e_ex)
		dl.res_p_or[line_id] = real(s_or)
		dl.res_q_or[line_id] = imag(s_or)
		dl.res_v_or[line_id] = vm_or * bus_vn_kv[bus_or_ext]
		dl.res_a_or[line_id] = _get_amps(real(s_or), imag(s_or), vm_or, bus_vn_kv[bus_or_ext])
		dl.res_p_ex[line_id] = real(s_ex)
		dl.res_q_ex[line_id] = imag(s_ex)
		dl.res_v_ex[line_id] = vm_ex * bus_vn_kv[bus_ex_ext]
		dl.res_a_ex[line_id] = _get_amps(real(s_ex), imag(s_ex), vm_ex, bus_vn_kv[bus_ex_ext])
	}
}

func (dl *DataLine) reset_results() {
	nb_line := dl.nb()
	dl.res_p_or = make([]float64, nb_line)
	dl.res_q_or = make([]float64, nb_line)
	dl.res_v_or = make([]float64, nb_line)
	dl.res_a_or = make([]float64, nb_line)
	dl.res_p_ex = make([]float64, nb_line)
	dl.res_q_ex = make([]float64, nb_line)
	dl.res_v_ex = make([]float64, nb_line)
	dl.res_a_ex = make([]float64, nb_line)
}

// active power taken from the given bus by the powerlines, MW
func (dl *DataLine) get_p_slack(slack_bus_ext_id int) float64 {
	res := 0.
	for line_id := 0; line_id < dl.nb(); line_id++ {
		if !dl.status[line_id] {
			continue
		}
		if dl.bus_or_id[line_id] == slack_bus_ext_id {
			res += dl.res_p_or[line_id]
		}
		if dl.bus_ex_id[line_id] == slack_bus_ext_id {
			res += dl.res_p_ex[line_id]
		}
	}
	return res
}

// reactive power taken from each bus by the powerlines, MVAr, [nb_bus]
func (dl *DataLine) get_q(q_by_bus []float64) {
	for line_id := 0; line_id < dl.nb(); line_id++ {
		if !dl.status[line_id] {
			continue
		}
		q_by_bus[dl.bus_or_id[line_id]] += dl.res_q_or[line_id]
		q_by_bus[dl.bus_ex_id[line_id]] += dl.res_q_ex[line_id]
	}
}

func (dl *DataLine) get_lineor_res() ([]float64, []float64, []float64, []float64) {
	return dl.res_p_or, dl.res_q_or, dl.res_v_or, dl.res_a_or
}

func (dl *DataLine) get_lineex_res() ([]float64, []float64, []float64, []float64) {
	return dl.res_p_ex, dl.res_q_ex, dl.res_v_ex, dl.res_a_ex
}

func (dl *DataLine) get_state() LineState {
	h_re := make([]float64, dl.nb())
	h_im := make([]float64, dl.nb())
	for i, h := range dl.branch_h {
		h_re[i] = real(h)
		h_im[i] = imag(h)
	}
	return LineState{
		BranchR:   append([]float64(nil), dl.branch_r...),
		BranchX:   append([]float64(nil), dl.branch_x...),
		BranchHRe: h_re,
		BranchHIm: h_im,
		BusOrID:   append([]int(nil), dl.bus_or_id...),
		BusExID:   append([]int(nil), dl.bus_ex_id...),
		Status:    append([]bool(nil), dl.status...),
	}
}

func (dl *DataLine) set_state(state LineState) {
	h := make([]complex128, len(state.BranchHRe))
	for i := range h {
		h[i] = complex(state.BranchHRe[i], state.BranchHIm[i])
	}
	dl.init(state.BranchR, state.BranchX, h, state.BusOrID, state.BusExID)
	copy(dl.status, state.Status)
}
