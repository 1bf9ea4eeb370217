package main

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineYbusSymmetry(t *testing.T) {
	g := make_two_bus_grid(50., 20., 1.02)
	_, err := g.ac_pf(g.get_flat_start(), 10, 1e-8)
	require.NoError(t, err)

	y := g.get_Ybus()
	assert.Equal(t, y.At(0, 1), y.At(1, 0))

	// off diagonal is -1/(r+jx), diagonal is +1/(r+jx) (no charging)
	ys := 1. / complex(0.01, 0.1)
	assert.InDelta(t, real(-ys), real(y.At(0, 1)), 1e-12)
	assert.InDelta(t, imag(-ys), imag(y.At(0, 1)), 1e-12)
	assert.InDelta(t, real(ys), real(y.At(0, 0)), 1e-12)
	assert.InDelta(t, imag(ys), imag(y.At(0, 0)), 1e-12)
}

func TestLineChargingOnDiagonal(t *testing.T) {
	dl := DataLine{}
	dl.init([]float64{0.01}, []float64{0.1}, []complex128{complex(0., 0.04)}, []int{0}, []int{1})

	y_or_or, y_or_ex, y_ex_or, y_ex_ex := dl._y_terms(0, true)
	ys := 1. / complex(0.01, 0.1)
	assert.Equal(t, ys+complex(0., 0.02), y_or_or)
	assert.Equal(t, y_or_or, y_ex_ex)
	assert.Equal(t, -ys, y_or_ex)
	assert.Equal(t, -ys, y_ex_or)
}

func TestTrafoTapRatio(t *testing.T) {
	dt := DataTrafo{}
	dt.init(
		[]float64{0.}, []float64{0.2}, []complex128{0},
		[]float64{1.25}, []float64{2.}, []float64{0.},
		[]bool{true}, []int{0}, []int{1})

	// N = 1 + 2 * 1.25 / 100
	ratio := dt._ratio(0)
	assert.InDelta(t, 1.025, ratio, 1e-12)

	ys := 1. / complex(0., 0.2)
	y_hv_hv, y_hv_lv, y_lv_hv, y_lv_lv := dt._y_terms(0, true)
	assert.InDelta(t, imag(ys)/(1.025*1.025), imag(y_hv_hv), 1e-12)
	assert.InDelta(t, imag(ys), imag(y_lv_lv), 1e-12)
	// zero shift keeps the matrix symmetric
	assert.Equal(t, y_hv_lv, y_lv_hv)
	assert.InDelta(t, imag(-ys)/1.025, imag(y_hv_lv), 1e-12)
}

func TestTrafoTapOnLvSide(t *testing.T) {
	dt := DataTrafo{}
	dt.init(
		[]float64{0.}, []float64{0.2}, []complex128{0},
		[]float64{1.25}, []float64{2.}, []float64{0.},
		[]bool{false}, []int{0}, []int{1})

	ys := 1. / complex(0., 0.2)
	y_hv_hv, _, _, y_lv_lv := dt._y_terms(0, true)
	// the off-nominal ratio moved to the lv corner
	assert.InDelta(t, imag(ys), imag(y_hv_hv), 1e-12)
	assert.InDelta(t, imag(ys)/(1.025*1.025), imag(y_lv_lv), 1e-12)
}

func TestTrafoShiftMakesYbusAsymmetric(t *testing.T) {
	dt := DataTrafo{}
	dt.init(
		[]float64{0.01}, []float64{0.2}, []complex128{0},
		[]float64{0.}, []float64{0.}, []float64{30.},
		[]bool{true}, []int{0}, []int{1})

	ys := 1. / complex(0.01, 0.2)
	shift := 30. * math.Pi / 180.
	t_ratio := cmplx.Rect(1., shift)
	y_hv_hv, y_hv_lv, y_lv_hv, y_lv_lv := dt._y_terms(0, true)

	assert.NotEqual(t, y_hv_lv, y_lv_hv)
	// the two off diagonal terms are conjugate rotations of -ys
	assert.InDelta(t, cmplx.Abs(y_hv_lv), cmplx.Abs(y_lv_hv), 1e-12)
	assert.InDelta(t, real(-ys/cmplx.Conj(t_ratio)), real(y_hv_lv), 1e-12)
	assert.InDelta(t, real(-ys/t_ratio), real(y_lv_hv), 1e-12)
	// unit ratio: the diagonals are untouched by the shift
	assert.Equal(t, y_hv_hv, y_lv_lv)
}

func TestTrafoDcStamp(t *testing.T) {
	dt := DataTrafo{}
	dt.init(
		[]float64{0.05}, []float64{0.2}, []complex128{complex(0.01, 0.01)},
		[]float64{2.5}, []float64{-2.}, []float64{10.},
		[]bool{true}, []int{0}, []int{1})

	// dc keeps only 1/(x . N), as a real number
	ratio := 1. - 2.*2.5/100.
	y_hv_hv, y_hv_lv, y_lv_hv, y_lv_lv := dt._y_terms(0, false)
	want := 1. / (0.2 * ratio)
	assert.InDelta(t, want, real(y_hv_hv), 1e-12)
	assert.Zero(t, imag(y_hv_hv))
	assert.Equal(t, y_hv_hv, y_lv_lv)
	assert.Equal(t, -y_hv_hv, y_hv_lv)
	assert.Equal(t, y_hv_lv, y_lv_hv)
}

func TestTrafoInPowerflow(t *testing.T) {
	// slack feeding a load through one transformer
	g := NewGridModel()
	g.set_sn_mva(100.)
	g.set_init_vm_pu(1.)
	g.init_bus([]float64{138., 20.})
	g.init_powerlines(nil, nil, nil, nil, nil)
	g.init_trafo(
		[]float64{0.005}, []float64{0.1}, []complex128{0},
		[]float64{1.25}, []float64{0.}, []float64{0.},
		[]bool{true}, []int{0}, []int{1})
	g.init_shunt(nil, nil, nil)
	g.init_loads([]float64{30.}, []float64{10.}, []int{1})
	g.init_generators([]float64{0.}, []float64{1.02}, []float64{-999.}, []float64{999.}, []int{0})
	g.init_sgens(nil, nil, nil, nil, nil, nil, nil)
	g.init_storages(nil, nil, nil)
	require.NoError(t, g.add_gen_slackbus(0))

	v, err := g.ac_pf(g.get_flat_start(), 10, 1e-8)
	require.NoError(t, err)
	assert.True(t, g.is_converged())
	assert.Less(t, cmplx.Abs(v[1]), 1.02)

	// hv side sends what the lv side receives plus the series losses
	p_hv, _, _, _ := g.get_trafohv_res()
	p_lv, _, _, _ := g.get_trafolv_res()
	assert.Greater(t, p_hv[0], 30.)
	assert.InDelta(t, -30., p_lv[0], 1e-5)
}
