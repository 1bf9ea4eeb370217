package main

import (
	"gonum.org/v1/gonum/mat"
)

// Nodal admittance matrix of the connected part of the grid. It is
// assembled from per-element triplets (duplicate coordinates sum, like
// a sparse setFromTriplets) and kept as a complex matrix sized by the
// number of solver buses.
type YBus struct {
	nb_bus int
	m      *mat.CDense
}

func NewYBus(nb_bus int) *YBus {
	return &YBus{
		nb_bus: nb_bus,
		m:      mat.NewCDense(nb_bus, nb_bus, nil),
	}
}

// sum all the triplets into the matrix
func (y *YBus) set_from_triplets(triplets []triplet) {
	for _, t := range triplets {
		y.m.Set(t.row, t.col, y.m.At(t.row, t.col)+t.val)
	}
}

func (y *YBus) At(i, j int) complex128 {
	return y.m.At(i, j)
}

func (y *YBus) nb() int {
	return y.nb_bus
}

// Y . V
func (y *YBus) mul_vec(v []complex128) []complex128 {
	res := make([]complex128, y.nb_bus)
	for i := 0; i < y.nb_bus; i++ {
		var acc complex128
		for j := 0; j < y.nb_bus; j++ {
			yij := y.m.At(i, j)
			if yij == 0 {
				continue
			}
			acc += yij * v[j]
		}
		res[i] = acc
	}
	return res
}
