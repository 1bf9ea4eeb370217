package main

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"
)

// Newton-Raphson powerflow in polar coordinates. Each iteration builds
// the mismatch vector, fills the four-block Jacobian restricted to the
// pv / pq buses, factorizes it (LU) and applies the correction to the
// angles and magnitudes.
type NewtonRaphsonSolver struct {
	SolverState
}

/*
Run the Newton-Raphson iteration.

	Args:
		Ybus: nodal admittance matrix, solver ids, [nb_bus, nb_bus]
		V: initial voltage, solver ids, [nb_bus]
		Sbus: injection target, pu, [nb_bus]
		pv: pv bus ids (solver), ordered
		pq: pq bus ids (solver), ordered
		max_iter: iteration cap
		tol: infinity-norm tolerance on the real mismatch, pu

	Returns:
		true when the mismatch dropped below tol; the iterate stays
		available through the state either way
*/
func (s *NewtonRaphsonSolver) compute_pf(
	Ybus *YBus,
	V []complex128,
	Sbus []complex128,
	pv []int,
	pq []int,
	max_iter int,
	tol float64,
) (bool, error) {
	start := time.Now()
	defer func() {
		s.timer_total_s = time.Since(start).Seconds()
	}()

	s.set_V(append([]complex128(nil), V...))
	s.nr_iter = 0
	s.converged = false
	s.last_solve_error = nil

	n_pv := len(pv)
	n_pq := len(pq)
	n_unknown := n_pv + 2*n_pq

	// position of each pv/pq bus in the unknown vector
	pvpq := make([]int, 0, n_pv+n_pq)
	pvpq = append(pvpq, pv...)
	pvpq = append(pvpq, pq...)
	pvpq_pos := make([]int, Ybus.nb())
	for i := range pvpq_pos {
		pvpq_pos[i] = -1
	}
	for pos, bus := range pvpq {
		pvpq_pos[bus] = pos
	}
	pq_pos := make([]int, Ybus.nb())
	for i := range pq_pos {
		pq_pos[i] = -1
	}
	for pos, bus := range pq {
		pq_pos[bus] = pos
	}

	for {
		mis := _evaluate_mismatch(Ybus, s.V, Sbus)
		fx := _evaluate_fx(mis, pv, pq)
		if _norm_inf(fx) < tol {
			s.converged = true
			return true, nil
		}
		if s.nr_iter >= max_iter {
			s.last_solve_error = fmt.Errorf("%d iterations: %w", s.nr_iter, ErrMaxIterExceeded)
			return false, s.last_solve_error
		}

		j := s._fill_jacobian(Ybus, mis, Sbus, pvpq, pvpq_pos, pq, pq_pos)
		s.J = j

		// solve J . dx = -fx
		rhs := mat.NewVecDense(n_unknown, nil)
		for i, v := range fx {
			rhs.SetVec(i, -v)
		}
		var dx mat.VecDense
		if err := dx.SolveVec(j, rhs); err != nil {
			s.last_solve_error = fmt.Errorf("newton raphson iteration %d: %w", s.nr_iter, ErrJacobianSingular)
			return false, s.last_solve_error
		}

		// apply the correction and rebuild V = Vm . e^{j Va}
		for pos, bus := range pvpq {
			s.Va[bus] += dx.AtVec(pos)
		}
		for pos, bus := range pq {
			s.Vm[bus] += dx.AtVec(n_pv + n_pq + pos)
		}
		for i := range s.V {
			s.V[i] = complex(s.Vm[i]*math.Cos(s.Va[i]), s.Vm[i]*math.Sin(s.Va[i]))
		}
		s.nr_iter++
	}
}

/*
Four-block Jacobian of the polar powerflow equations,

	J = | dP/dVa  dP/dVm |
	    | dQ/dVa  dQ/dVm |

with the angle columns on pv and pq buses and the magnitude columns on
pq buses only. Uses the closed-form derivatives; the calculated P and Q
are recovered from the mismatch (mis = S_calc - Sbus).
*/
func (s *NewtonRaphsonSolver) _fill_jacobian(
	Ybus *YBus,
	mis []complex128,
	Sbus []complex128,
	pvpq []int,
	pvpq_pos []int,
	pq []int,
	pq_pos []int,
) *mat.Dense {
	n_pvpq := len(pvpq)
	n_pq := len(pq)
	n := n_pvpq + n_pq
	j := mat.NewDense(n, n, nil)

	for row_pos, bus_i := range pvpq {
		vm_i := s.Vm[bus_i]
		p_i := real(mis[bus_i]) + real(Sbus[bus_i])
		q_i := imag(mis[bus_i]) + imag(Sbus[bus_i])

		for col_pos, bus_k := range pvpq {
			y_ik := Ybus.At(bus_i, bus_k)
			g_ik := real(y_ik)
			b_ik := imag(y_ik)

			var dp_dva float64
			if bus_i == bus_k {
				dp_dva = -q_i - b_ik*vm_i*vm_i
			} else {
				theta_ik := s.Va[bus_i] - s.Va[bus_k]
				dp_dva = vm_i * s.Vm[bus_k] * (g_ik*math.Sin(theta_ik) - b_ik*math.Cos(theta_ik))
			}
			j.Set(row_pos, col_pos, dp_dva)
		}
		for _, bus_k := range pq {
			y_ik := Ybus.At(bus_i, bus_k)
			g_ik := real(y_ik)
			b_ik := imag(y_ik)
			col_pos := n_pvpq + pq_pos[bus_k]

			var dp_dvm float64
			if bus_i == bus_k {
				dp_dvm = p_i/vm_i + g_ik*vm_i
			} else {
				theta_ik := s.Va[bus_i] - s.Va[bus_k]
				dp_dvm = vm_i * (g_ik*math.Cos(theta_ik) + b_ik*math.Sin(theta_ik))
			}
			j.Set(row_pos, col_pos, dp_dvm)
		}
	}

	for _, bus_i := range pq {
		row_pos := n_pvpq + pq_pos[bus_i]
		vm_i := s.Vm[bus_i]
		p_i := real(mis[bus_i]) + real(Sbus[bus_i])
		q_i := imag(mis[bus_i]) + imag(Sbus[bus_i])

		for col_pos, bus_k := range pvpq {
			y_ik := Ybus.At(bus_i, bus_k)
			g_ik := real(y_ik)
			b_ik := imag(y_ik)

			var dq_dva float64
			if bus_i == bus_k {
				dq_dva = p_i - g_ik*vm_i*vm_i
			} else {
				theta_ik := s.Va[bus_i] - s.Va[bus_k]
				dq_dva = -vm_i * s.Vm[bus_k] * (g_ik*math.Cos(theta_ik) + b_ik*math.Sin(theta_ik))
			}
			j.Set(row_pos, col_pos, dq_dva)
		}
		for _, bus_k := range pq {
			y_ik := Ybus.At(bus_i, bus_k)
			g_ik := real(y_ik)
			b_ik := imag(y_ik)
			col_pos := n_pvpq + pq_pos[bus_k]

			var dq_dvm float64
			if bus_i == bus_k {
				dq_dvm = q_i/vm_i - b_ik*vm_i
			} else {
				theta_ik := s.Va[bus_i] - s.Va[bus_k]
				dq_dvm = vm_i * (g_ik*math.Sin(theta_ik) - b_ik*math.Cos(theta_ik))
			}
			j.Set(row_pos, col_pos, dq_dvm)
		}
	}
	return j
}
