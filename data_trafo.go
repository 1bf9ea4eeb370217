package main

import (
	"math"
	"math/cmplx"
)

// Collection of the transformers of the grid. A transformer is a pi
// model with an off-nominal complex ratio t = N . e^{j shift} placed on
// its tap side (hv or lv). N is derived from the tap position:
// N = 1 + tap_pos * tap_step_pct / 100.
type DataTrafo struct {
	// series resistance, pu, [nb_trafo]
	r []float64
	// series reactance, pu, [nb_trafo]
	x []float64
	// magnetizing admittance (complex), pu, [nb_trafo]
	b []complex128
	// tap step, percent of the nominal ratio per tap, [nb_trafo]
	tap_step_pct []float64
	// current tap position, [nb_trafo]
	tap_pos []float64
	// phase shift, degree, [nb_trafo]
	shift_degree []float64
	// true when the tap changer sits on the hv side, [nb_trafo]
	tap_hv []bool
	// high voltage bus id (ext), [nb_trafo]
	bus_hv_id []int
	// low voltage bus id (ext), [nb_trafo]
	bus_lv_id []int
	// connection status, [nb_trafo]
	status []bool

	// results at the hv side: MW, MVAr, kV, kA, [nb_trafo]
	res_p_hv []float64
	res_q_hv []float64
	res_v_hv []float64
	res_a_hv []float64
	// results at the lv side: MW, MVAr, kV, kA, [nb_trafo]
	res_p_lv []float64
	res_q_lv []float64
	res_v_lv []float64
	res_a_lv []float64
}

// serialized content of the transformer collection
type TrafoState struct {
	R           []float64 `json:"r"`
	X           []float64 `json:"x"`
	BRe         []float64 `json:"b_re"`
	BIm         []float64 `json:"b_im"`
	TapStepPct  []float64 `json:"tap_step_pct"`
	TapPos      []float64 `json:"tap_pos"`
	ShiftDegree []float64 `json:"shift_degree"`
	TapHv       []bool    `json:"tap_hv"`
	BusHvID     []int     `json:"bus_hv_id"`
	BusLvID     []int     `json:"bus_lv_id"`
	Status      []bool    `json:"status"`
}

func (dt *DataTrafo) init(
	trafo_r []float64,
	trafo_x []float64,
	trafo_b []complex128,
	trafo_tap_step_pct []float64,
	trafo_tap_pos []float64,
	trafo_shift_degree []float64,
	trafo_tap_hv []bool,
	trafo_hv_id []int,
	trafo_lv_id []int,
) {
	nb_trafo := len(trafo_r)
	dt.r = append([]float64(nil), trafo_r...)
	dt.x = append([]float64(nil), trafo_x...)
	dt.b = append([]complex128(nil), trafo_b...)
	dt.tap_step_pct = append([]float64(nil), trafo_tap_step_pct...)
	dt.tap_pos = append([]float64(nil), trafo_tap_pos...)
	dt.shift_degree = append([]float64(nil), trafo_shift_degree...)
	dt.tap_hv = append([]bool(nil), trafo_tap_hv...)
	dt.bus_hv_id = append([]int(nil), trafo_hv_id...)
	dt.bus_lv_id = append([]int(nil), trafo_lv_id...)
	dt.status = make([]bool, nb_trafo)
	for i := range dt.status {
		dt.status[i] = true
	}
	dt.reset_results()
}

func (dt *DataTrafo) nb() int { return len(dt.r) }

func (dt *DataTrafo) deactivate(trafo_id int, need_reset *bool) {
	_deactivate(trafo_id, dt.status, need_reset)
}

func (dt *DataTrafo) reactivate(trafo_id int, need_reset *bool) {
	_reactivate(trafo_id, dt.status, need_reset)
}

func (dt *DataTrafo) change_bus_hv(trafo_id int, new_bus_id int, need_reset *bool, nb_bus int) {
	_change_bus(trafo_id, new_bus_id, dt.bus_hv_id, need_reset, nb_bus)
}

func (dt *DataTrafo) change_bus_lv(trafo_id int, new_bus_id int, need_reset *bool, nb_bus int) {
	_change_bus(trafo_id, new_bus_id, dt.bus_lv_id, need_reset, nb_bus)
}

func (dt *DataTrafo) get_bus_hv(trafo_id int) int { return dt.bus_hv_id[trafo_id] }
func (dt *DataTrafo) get_bus_lv(trafo_id int) int { return dt.bus_lv_id[trafo_id] }
func (dt *DataTrafo) get_status() []bool          { return dt.status }

// effective turns ratio of one transformer
func (dt *DataTrafo) _ratio(trafo_id int) float64 {
	return 1. + dt.tap_pos[trafo_id]*dt.tap_step_pct[trafo_id]/100.
}

// admittance terms of the pi model of one transformer. The complex
// ratio multiplies the tap-side voltage, which makes Ybus asymmetric
// whenever the phase shift is not zero.
func (dt *DataTrafo) _y_terms(trafo_id int, ac bool) (y_hv_hv, y_hv_lv, y_lv_hv, y_lv_lv complex128) {
	ratio := dt._ratio(trafo_id)
	if !ac {
		// susceptance only, scaled by the real ratio
		b := complex(1./(dt.x[trafo_id]*ratio), 0.)
		y_hv_hv = b
		y_lv_lv = b
		y_hv_lv = -b
		y_lv_hv = -b
		return
	}
	ys := 1. / complex(dt.r[trafo_id], dt.x[trafo_id])
	h_half := dt.b[trafo_id] * 0.5
	shift := dt.shift_degree[trafo_id] * math.Pi / 180.
	t := cmplx.Rect(ratio, shift)
	tt := complex(ratio*ratio, 0.)

	if dt.tap_hv[trafo_id] {
		y_hv_hv = (ys + h_half) / tt
		y_hv_lv = -ys / cmplx.Conj(t)
		y_lv_hv = -ys / t
		y_lv_lv = ys + h_half
	} else {
		y_hv_hv = ys + h_half
		y_hv_lv = -ys / t
		y_lv_hv = -ys / cmplx.Conj(t)
		y_lv_lv = (ys + h_half) / tt
	}
	return
}

func (dt *DataTrafo) fillYbus(triplets *[]triplet, ac bool, id_ext_to_solver []int) error {
	for trafo_id := 0; trafo_id < dt.nb(); trafo_id++ {
		if !dt.status[trafo_id] {
			continue
		}
		bus_hv, err := _solver_bus_id(dt.bus_hv_id[trafo_id], id_ext_to_solver, "trafo (hv side)")
		if err != nil {
			return err
		}
		bus_lv, err := _solver_bus_id(dt.bus_lv_id[trafo_id], id_ext_to_solver, "trafo (lv side)")
		if err != nil {
			return err
		}
		y_hv_hv, y_hv_lv, y_lv_hv, y_lv_lv := dt._y_terms(trafo_id, ac)
		*triplets = append(*triplets,
			triplet{bus_hv, bus_hv, y_hv_hv},
			triplet{bus_hv, bus_lv, y_hv_lv},
			triplet{bus_lv, bus_hv, y_lv_hv},
			triplet{bus_lv, bus_lv, y_lv_lv},
		)
	}
	return nil
}

// transformers do not inject any power
func (dt *DataTrafo) fillSbus(res []complex128, ac bool, id_ext_to_solver []int, sn_mva float64) error {
	return nil
}

// transformers do not control any voltage
func (dt *DataTrafo) fillpv(bus_pv *[]int, has_bus_been_added []bool, slack_bus_id_solver int, id_ext_to_solver []int) {
}

func (dt *DataTrafo) compute_results(
	V []complex128,
	id_ext_to_solver []int,
	bus_vn_kv []float64,
	sn_mva float64,
) {
	for trafo_id := 0; trafo_id < dt.nb(); trafo_id++ {
		if !dt.status[trafo_id] {
			dt.res_p_hv[trafo_id] = 0.
			dt.res_q_hv[trafo_id] = 0.
			dt.res_v_hv[trafo_id] = 0.
			dt.res_a_hv[trafo_id] = 0.
			dt.res_p_lv[trafo_id] = 0.
			dt.res_q_lv[trafo_id] = 0.
			dt.res_v_lv[trafo_id] = 0.
			dt.res_a_lv[trafo_id] = 0.
			continue
		}
		bus_hv_ext := dt.bus_hv_id[trafo_id]
		bus_lv_ext := dt.bus_lv_id[trafo_id]
		e_hv := V[id_ext_to_solver[bus_hv_ext]]
		e_lv := V[id_ext_to_solver[bus_lv_ext]]

		y_hv_hv, y_hv_lv, y_lv_hv, y_lv_lv := dt._y_terms(trafo_id, true)
		i_hv := y_hv_hv*e_hv + y_hv_lv*e_lv
		i_lv := y_lv_hv*e_hv + y_lv_lv*e_lv
		s_hv := e_hv * cmplx.Conj(i_hv) * complex(sn_mva, 0.)
		s_lv := e_lv * cmplx.Conj(i_lv) * complex(sn_mva, 0.)

		vm_hv := cmplx.Abs(e_hv)
		vm_lv := cmplx.Abs(e_lv)
		dt.res_p_hv[trafo_id] = real(s_hv)
		dt.res_q_hv[trafo_id] = imag(s_hv)
		dt.res_v_hv[trafo_id] = vm_hv * bus_vn_kv[bus_hv_ext]
		dt.res_a_hv[trafo_id] = _get_amps(real(s_hv), imag(s_hv), vm_hv, bus_vn_kv[bus_hv_ext])
		dt.res_p_lv[trafo_id] = real(s_lv)
		dt.res_q_lv[trafo_id] = imag(s_lv)
		dt.res_v_lv[trafo_id] = vm_lv * bus_vn_kv[bus_lv_ext]
		dt.res_a_lv[trafo_id] = _get_amps(real(s_lv), imag(s_lv), vm_lv, bus_vn_kv[bus_lv_ext])
	}
}

func (dt *DataTrafo) reset_results() {
	nb_trafo := dt.nb()
	dt.res_p_hv = make([]float64, nb_trafo)
	dt.res_q_hv = make([]float64, nb_trafo)
	dt.res_v_hv = make([]float64, nb_trafo)
	dt.res_a_hv = make([]float64, nb_trafo)
	dt.res_p_lv = make([]float64, nb_trafo)
	dt.res_q_lv = make([]float64, nb_trafo)
	dt.res_v_lv = make([]float64, nb_trafo)
	dt.res_a_lv = make([]float64, nb_trafo)
}

// active power taken from the given bus by the transformers, MW
func (dt *DataTrafo) get_p_slack(slack_bus_ext_id int) float64 {
	res := 0.
	for trafo_id := 0; trafo_id < dt.nb(); trafo_id++ {
		if !dt.status[trafo_id] {
			continue
		}
		if dt.bus_hv_id[trafo_id] == slack_bus_ext_id {
			res += dt.res_p_hv[trafo_id]
		}
		if dt.bus_lv_id[trafo_id] == slack_bus_ext_id {
			res += dt.res_p_lv[trafo_id]
		}
	}
	return res
}

// reactive power taken from each bus by the transformers, MVAr, [nb_bus]
func (dt *DataTrafo) get_q(q_by_bus []float64) {
	for trafo_id := 0; trafo_id < dt.nb(); trafo_id++ {
		if !dt.status[trafo_id] {
			continue
		}
		q_by_bus[dt.bus_hv_id[trafo_id]] += dt.res_q_hv[trafo_id]
		q_by_bus[dt.bus_lv_id[trafo_id]] += dt.res_q_lv[trafo_id]
	}
}

func (dt *DataTrafo) get_res_hv() ([]float64, []float64, []float64, []float64) {
	return dt.res_p_hv, dt.res_q_hv, dt.res_v_hv, dt.res_a_hv
}

func (dt *DataTrafo) get_res_lv() ([]float64, []float64, []float64, []float64) {
	return dt.res_p_lv, dt.res_q_lv, dt.res_v_lv, dt.res_a_lv
}

func (dt *DataTrafo) get_state() TrafoState {
	b_re := make([]float64, dt.nb())
	b_im := make([]float64, dt.nb())
	for i, b := range dt.b {
		b_re[i] = real(b)
		b_im[i] = imag(b)
	}
	return TrafoState{
		R:           append([]float64(nil), dt.r...),
		X:           append([]float64(nil), dt.x...),
		BRe:         b_re,
		BIm:         b_im,
		TapStepPct:  append([]float64(nil), dt.tap_step_pct...),
		TapPos:      append([]float64(nil), dt.tap_pos...),
		ShiftDegree: append([]float64(nil), dt.shift_degree...),
		TapHv:       append([]bool(nil), dt.tap_hv...),
		BusHvID:     append([]int(nil), dt.bus_hv_id...),
		BusLvID:     append([]int(nil), dt.bus_lv_id...),
		Status:      append([]bool(nil), dt.status...),
	}
}

func (dt *DataTrafo) set_state(state TrafoState) {
	b := make([]complex128, len(state.BRe))
	for i := range b {
		b[i] = complex(state.BRe[i], state.BIm[i])
	}
	dt.init(state.R, state.X, b, state.TapStepPct, state.TapPos, state.ShiftDegree,
		state.TapHv, state.BusHvID, state.BusLvID)
	copy(dt.status, state.Status)
}
