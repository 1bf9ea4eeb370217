package main

import "gonum.org/v1/gonum/mat"

// SolverType selects the powerflow algorithm
type SolverType int

const (
	SolverNewtonRaphson SolverType = iota
	SolverDC
)

func available_solvers() []SolverType {
	return []SolverType{SolverNewtonRaphson, SolverDC}
}

// ChooseSolver hides which concrete solver runs behind one interface,
// so the grid model can switch between ac and dc without touching its
// own flow.
type ChooseSolver struct {
	_type SolverType
	nr    NewtonRaphsonSolver
	dc    DcSolver
}

func (cs *ChooseSolver) get_type() SolverType { return cs._type }

func (cs *ChooseSolver) change_solver(t SolverType) {
	if t == cs._type {
		return
	}
	cs.reset()
	cs._type = t
}

func (cs *ChooseSolver) reset() {
	cs.nr.reset()
	cs.dc.reset()
}

func (cs *ChooseSolver) _state() *SolverState {
	if cs._type == SolverDC {
		return &cs.dc.SolverState
	}
	return &cs.nr.SolverState
}

func (cs *ChooseSolver) compute_pf(
	Ybus *YBus,
	V []complex128,
	Sbus []complex128,
	pv []int,
	pq []int,
	max_iter int,
	tol float64,
) (bool, error) {
	if cs._type == SolverDC {
		return cs.dc.compute_pf(Ybus, V, Sbus, pv, pq, max_iter, tol)
	}
	return cs.nr.compute_pf(Ybus, V, Sbus, pv, pq, max_iter, tol)
}

func (cs *ChooseSolver) get_V() []complex128 { return cs._state().get_V() }
func (cs *ChooseSolver) get_Va() []float64   { return cs._state().get_Va() }
func (cs *ChooseSolver) get_Vm() []float64   { return cs._state().get_Vm() }
func (cs *ChooseSolver) get_J() *mat.Dense   { return cs._state().get_J() }
func (cs *ChooseSolver) get_nb_iter() int    { return cs._state().get_nb_iter() }
func (cs *ChooseSolver) is_converged() bool  { return cs._state().is_converged() }
func (cs *ChooseSolver) get_computation_time() float64 {
	return cs._state().get_computation_time()
}
