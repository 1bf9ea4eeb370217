package main

import (
	"fmt"
	"math"
	"math/cmplx"
	"time"

	"gonum.org/v1/gonum/mat"
)

// Linearized (dc) powerflow: flat voltage profile, lossless branches,
// small angles, no reactive power. One sparse-structured real solve on
// the susceptance matrix with the slack row and column removed.
type DcSolver struct {
	SolverState
}

/*
Solve the dc approximation.

The slack bus is the single bus of the solver that belongs to neither
pv nor pq. Ybus must have been assembled with the dc stamps (real
susceptance 1/x per branch) so its real part is the dc matrix.

	Args:
		Ybus: dc-stamped admittance matrix, solver ids, [nb_bus, nb_bus]
		V: initial voltage, solver ids, [nb_bus] (angles of the slack
		   bus and pv/slack magnitudes are read from it)
		Sbus: injection target, pu, only the real part is used
		pv, pq: bus classification (solver ids)
		max_iter, tol: unused for dc

	Returns:
		true on success; the voltages are available through the state
*/
func (s *DcSolver) compute_pf(
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

	s.nr_iter = 0
	s.converged = false
	s.last_solve_error = nil

	nb_bus := Ybus.nb()

	// the slack bus is the one missing from pv and pq
	is_pvpq := make([]bool, nb_bus)
	for _, bus := range pv {
		is_pvpq[bus] = true
	}
	for _, bus := range pq {
		is_pvpq[bus] = true
	}
	slack_bus_id_solver := -1
	for bus := 0; bus < nb_bus; bus++ {
		if !is_pvpq[bus] {
			slack_bus_id_solver = bus
			break
		}
	}
	if slack_bus_id_solver < 0 {
		s.last_solve_error = fmt.Errorf("no slack bus in the dc system: %w", ErrDcSingular)
		return false, s.last_solve_error
	}

	// susceptance matrix without the slack row and column
	reduced := func(id int) int {
		if id > slack_bus_id_solver {
			return id - 1
		}
		return id
	}
	dc_y := mat.NewDense(nb_bus-1, nb_bus-1, nil)
	for row := 0; row < nb_bus; row++ {
		if row == slack_bus_id_solver {
			continue
		}
		for col := 0; col < nb_bus; col++ {
			if col == slack_bus_id_solver {
				continue
			}
			dc_y.Set(reduced(row), reduced(col), real(Ybus.At(row, col)))
		}
	}

	// injection vector without the slack entry
	sbus := mat.NewVecDense(nb_bus-1, nil)
	for bus := 0; bus < nb_bus; bus++ {
		if bus == slack_bus_id_solver {
			continue
		}
		sbus.SetVec(reduced(bus), real(Sbus[bus]))
	}

	// solve for the angles: Sbus = dc_y . Va
	var va_dc mat.VecDense
	if err := va_dc.SolveVec(dc_y, sbus); err != nil {
		// the electrical network is probably not a single component
		s.last_solve_error = fmt.Errorf("dc solve: %w", ErrDcSingular)
		return false, s.last_solve_error
	}

	// reinsert the slack angle and shift everything by it
	theta_slack := cmplx.Phase(V[slack_bus_id_solver])
	va := make([]float64, nb_bus)
	for bus := 0; bus < nb_bus; bus++ {
		if bus == slack_bus_id_solver {
			va[bus] = theta_slack
			continue
		}
		va[bus] = va_dc.AtVec(reduced(bus)) + theta_slack
	}

	// magnitudes: 1 pu on pq buses, the initial magnitude (generator
	// setpoint after set_vm) on pv and slack buses
	vm := make([]float64, nb_bus)
	for bus := 0; bus < nb_bus; bus++ {
		vm[bus] = 1.
	}
	for _, bus := range pv {
		vm[bus] = cmplx.Abs(V[bus])
	}
	vm[slack_bus_id_solver] = cmplx.Abs(V[slack_bus_id_solver])

	res := make([]complex128, nb_bus)
	for bus := 0; bus < nb_bus; bus++ {
		res[bus] = complex(vm[bus]*math.Cos(va[bus]), vm[bus]*math.Sin(va[bus]))
	}
	s.set_V(res)
	s.converged = true
	return true, nil
}
