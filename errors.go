package main

import "errors"

// Failure kinds surfaced by the grid model and its solvers. Input
// validation errors leave the model untouched; convergence errors clear
// the results and mark the model for re-assembly on the next solve.
var (
	// length of the initial voltage vector differs from the total
	// number of buses (connected and disconnected)
	ErrInputSizeMismatch = errors.New("size of Vinit should be the total number of buses")

	// the bus carrying the slack generator is deactivated
	ErrSlackDisconnected = errors.New("the slack bus is disconnected")

	// the slack generator id is out of range or the generator is off
	ErrSlackInvalid = errors.New("the slack generator is invalid")

	// an active element points at a deactivated bus
	ErrDisconnectedBusReferenced = errors.New("an element is connected to a disconnected bus")

	// LU factorization of the Jacobian failed (typically an islanded grid)
	ErrJacobianSingular = errors.New("the jacobian matrix is singular")

	// LU factorization of the DC susceptance matrix failed
	ErrDcSingular = errors.New("the dc matrix is singular")

	// the Newton-Raphson iteration did not converge within max_iter
	ErrMaxIterExceeded = errors.New("max iteration exceeded without convergence")
)
