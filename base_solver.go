package main

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"
)

// State shared by the powerflow solvers. The iterate (V, Va, Vm) and
// the last Jacobian persist across solves so a warm start is possible;
// reset() clears them.
type SolverState struct {
	// complex voltage iterate, solver ids, [nb_bus_solver]
	V []complex128
	// voltage angles, rad, [nb_bus_solver]
	Va []float64
	// voltage magnitudes, pu, [nb_bus_solver]
	Vm []float64
	// last factorized Jacobian (nil before the first ac solve)
	J *mat.Dense

	nr_iter          int
	converged        bool
	timer_total_s    float64
	last_solve_error error
}

func (s *SolverState) reset() {
	s.V = nil
	s.Va = nil
	s.Vm = nil
	s.J = nil
	s.nr_iter = 0
	s.converged = false
	s.timer_total_s = 0.
	s.last_solve_error = nil
}

func (s *SolverState) get_V() []complex128 { return s.V }
func (s *SolverState) get_Va() []float64   { return s.Va }
func (s *SolverState) get_Vm() []float64   { return s.Vm }
func (s *SolverState) get_J() *mat.Dense   { return s.J }

func (s *SolverState) get_nb_iter() int { return s.nr_iter }
func (s *SolverState) get_computation_time() float64 {
	return s.timer_total_s
}
func (s *SolverState) is_converged() bool { return s.converged }

// store the polar decomposition of the iterate
func (s *SolverState) set_V(V []complex128) {
	s.V = V
	s.Va = make([]float64, len(V))
	s.Vm = make([]float64, len(V))
	for i, v := range V {
		s.Va[i] = cmplx.Phase(v)
		s.Vm[i] = cmplx.Abs(v)
	}
}

/*
Complex powerflow mismatch.

	Args:
		Ybus: nodal admittance matrix, [nb_bus, nb_bus]
		V: voltage iterate, [nb_bus]
		Sbus: injection target, pu, [nb_bus]

	Returns:
		V . conj(Ybus . V) - Sbus, [nb_bus]
*/
func _evaluate_mismatch(Ybus *YBus, V []complex128, Sbus []complex128) []complex128 {
	yv := Ybus.mul_vec(V)
	mis := make([]complex128, len(V))
	for i := range V {
		mis[i] = V[i]*cmplx.Conj(yv[i]) - Sbus[i]
	}
	return mis
}

// real mismatch vector: active part on pv and pq buses, reactive part
// on pq buses, [n_pv + 2 n_pq]
func _evaluate_fx(mis []complex128, pv []int, pq []int) []float64 {
	fx := make([]float64, len(pv)+2*len(pq))
	k := 0
	for _, bus := range pv {
		fx[k] = real(mis[bus])
		k++
	}
	for _, bus := range pq {
		fx[k] = real(mis[bus])
		k++
	}
	for _, bus := range pq {
		fx[k] = imag(mis[bus])
		k++
	}
	return fx
}

// infinity norm
func _norm_inf(fx []float64) float64 {
	res := 0.
	for _, v := range fx {
		if a := math.Abs(v); a > res {
			res = a
		}
	}
	return res
}
