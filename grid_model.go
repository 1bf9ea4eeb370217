package main

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// current version of the serialized state layout
const grid_state_version = "0.1.0"

// GridModel owns the whole electrical description of the grid: the
// buses and every element collection, plus the matrices handed to the
// solver. External (ext) bus ids are stable and may include
// deactivated buses; solver ids are dense and cover connected buses
// only. Everything handed to a solver is indexed with solver ids.
//
// A GridModel must not be used from several goroutines at once;
// independent copies can run in parallel.
type GridModel struct {
	need_reset      bool
	compute_results bool
	// default voltage magnitude initialization, pu
	init_vm_pu float64
	// system base power, MVA
	sn_mva float64

	// nominal voltage of each bus, kV, [nb_bus ext]
	bus_vn_kv []float64
	// connection status of each bus, [nb_bus ext]
	bus_status []bool

	// ext id -> solver id (-1 when deactivated), [nb_bus ext]
	id_ext_to_solver []int
	// solver id -> ext id, [nb_bus solver]
	id_solver_to_ext []int

	powerlines DataLine
	shunts     DataShunt
	trafos     DataTrafo
	generators DataGen
	loads      DataLoad
	sgens      DataSGen
	storages   DataStorage

	// designated slack generator and the bus it sits on
	gen_slackbus        int
	slack_bus_id        int
	slack_bus_id_solver int

	Ybus   *YBus
	Sbus   []complex128
	bus_pv []int
	bus_pq []int

	_solver ChooseSolver

	// grid2op specific tables, see grid_updates.go
	n_sub                  int
	load_pos_topo_vect     []int
	gen_pos_topo_vect      []int
	line_or_pos_topo_vect  []int
	line_ex_pos_topo_vect  []int
	trafo_hv_pos_topo_vect []int
	trafo_lv_pos_topo_vect []int
	storage_pos_topo_vect  []int

	load_to_subid     []int
	gen_to_subid      []int
	line_or_to_subid  []int
	line_ex_to_subid  []int
	trafo_hv_to_subid []int
	trafo_lv_to_subid []int
	storage_to_subid  []int
}

func NewGridModel() *GridModel {
	return &GridModel{
		need_reset:      true,
		compute_results: true,
		init_vm_pu:      1.04,
		sn_mva:          1.,
		gen_slackbus:    -1,
	}
}

// deep copy; the copy starts from a clean solver state
func (g *GridModel) copy() *GridModel {
	res := NewGridModel()
	res._solver.change_solver(g._solver.get_type())
	res.compute_results = g.compute_results
	res.init_vm_pu = g.init_vm_pu
	res.sn_mva = g.sn_mva

	res.bus_vn_kv = append([]float64(nil), g.bus_vn_kv...)
	res.bus_status = append([]bool(nil), g.bus_status...)

	res.powerlines.set_state(g.powerlines.get_state())
	res.shunts.set_state(g.shunts.get_state())
	res.trafos.set_state(g.trafos.get_state())
	res.generators.set_state(g.generators.get_state())
	res.loads.set_state(g.loads.get_state())
	res.sgens.set_state(g.sgens.get_state())
	res.storages.set_state(g.storages.get_state())

	res.gen_slackbus = g.gen_slackbus
	res.slack_bus_id = g.slack_bus_id

	res.n_sub = g.n_sub
	res.load_pos_topo_vect = append([]int(nil), g.load_pos_topo_vect...)
	res.gen_pos_topo_vect = append([]int(nil), g.gen_pos_topo_vect...)
	res.line_or_pos_topo_vect = append([]int(nil), g.line_or_pos_topo_vect...)
	res.line_ex_pos_topo_vect = append([]int(nil), g.line_ex_pos_topo_vect...)
	res.trafo_hv_pos_topo_vect = append([]int(nil), g.trafo_hv_pos_topo_vect...)
	res.trafo_lv_pos_topo_vect = append([]int(nil), g.trafo_lv_pos_topo_vect...)
	res.storage_pos_topo_vect = append([]int(nil), g.storage_pos_topo_vect...)
	res.load_to_subid = append([]int(nil), g.load_to_subid...)
	res.gen_to_subid = append([]int(nil), g.gen_to_subid...)
	res.line_or_to_subid = append([]int(nil), g.line_or_to_subid...)
	res.line_ex_to_subid = append([]int(nil), g.line_ex_to_subid...)
	res.trafo_hv_to_subid = append([]int(nil), g.trafo_hv_to_subid...)
	res.trafo_lv_to_subid = append([]int(nil), g.trafo_lv_to_subid...)
	res.storage_to_subid = append([]int(nil), g.storage_to_subid...)
	return res
}

// solver control
func (g *GridModel) change_solver(t SolverType) {
	g.need_reset = true
	g._solver.change_solver(t)
}
func (g *GridModel) get_solver_type() SolverType { return g._solver.get_type() }

func (g *GridModel) deactivate_result_computation() { g.compute_results = false }
func (g *GridModel) reactivate_result_computation() { g.compute_results = true }

// initialization, all per unit where applicable
func (g *GridModel) init_bus(bus_vn_kv []float64) {
	g.bus_vn_kv = append([]float64(nil), bus_vn_kv...)
	g.bus_status = make([]bool, len(bus_vn_kv))
	for i := range g.bus_status {
		g.bus_status[i] = true
	}
}

func (g *GridModel) set_init_vm_pu(init_vm_pu float64) { g.init_vm_pu = init_vm_pu }
func (g *GridModel) get_init_vm_pu() float64           { return g.init_vm_pu }
func (g *GridModel) set_sn_mva(sn_mva float64)         { g.sn_mva = sn_mva }
func (g *GridModel) get_sn_mva() float64               { return g.sn_mva }

func (g *GridModel) init_powerlines(branch_r, branch_x []float64, branch_h []complex128, branch_from_id, branch_to_id []int) {
	g.powerlines.init(branch_r, branch_x, branch_h, branch_from_id, branch_to_id)
}

func (g *GridModel) init_shunt(shunt_p_mw, shunt_q_mvar []float64, shunt_bus_id []int) {
	g.shunts.init(shunt_p_mw, shunt_q_mvar, shunt_bus_id)
}

func (g *GridModel) init_trafo(
	trafo_r, trafo_x []float64,
	trafo_b []complex128,
	trafo_tap_step_pct, trafo_tap_pos, trafo_shift_degree []float64,
	trafo_tap_hv []bool,
	trafo_hv_id, trafo_lv_id []int,
) {
	g.trafos.init(trafo_r, trafo_x, trafo_b, trafo_tap_step_pct, trafo_tap_pos,
		trafo_shift_degree, trafo_tap_hv, trafo_hv_id, trafo_lv_id)
}

func (g *GridModel) init_generators(generators_p, generators_v, generators_min_q, generators_max_q []float64, generators_bus_id []int) {
	g.generators.init(generators_p, generators_v, generators_min_q, generators_max_q, generators_bus_id)
}

func (g *GridModel) init_loads(loads_p, loads_q []float64, loads_bus_id []int) {
	g.loads.init(loads_p, loads_q, loads_bus_id)
}

func (g *GridModel) init_sgens(sgen_p, sgen_q, sgen_pmin, sgen_pmax, sgen_qmin, sgen_qmax []float64, sgen_bus_id []int) {
	g.sgens.init(sgen_p, sgen_q, sgen_pmin, sgen_pmax, sgen_qmin, sgen_qmax, sgen_bus_id)
}

func (g *GridModel) init_storages(storages_p, storages_q []float64, storages_bus_id []int) {
	g.storages.init(storages_p, storages_q, storages_bus_id)
}

func (g *GridModel) add_gen_slackbus(gen_id int) error {
	if gen_id < 0 || gen_id >= g.generators.nb() {
		return fmt.Errorf("slack should be the id of a generator, got %d: %w", gen_id, ErrSlackInvalid)
	}
	g.gen_slackbus = gen_id
	return nil
}

// number of connected buses
func (g *GridModel) nb_bus() int {
	res := 0
	for _, connected := range g.bus_status {
		if connected {
			res++
		}
	}
	return res
}

func (g *GridModel) deactivate_bus(bus_id int) { _deactivate(bus_id, g.bus_status, &g.need_reset) }
func (g *GridModel) reactivate_bus(bus_id int) { _reactivate(bus_id, g.bus_status, &g.need_reset) }

// powerline mutations
func (g *GridModel) deactivate_powerline(id int) { g.powerlines.deactivate(id, &g.need_reset) }
func (g *GridModel) reactivate_powerline(id int) { g.powerlines.reactivate(id, &g.need_reset) }
func (g *GridModel) change_bus_powerline_or(id, new_bus int) {
	g.powerlines.change_bus_or(id, new_bus, &g.need_reset, len(g.bus_vn_kv))
}
func (g *GridModel) change_bus_powerline_ex(id, new_bus int) {
	g.powerlines.change_bus_ex(id, new_bus, &g.need_reset, len(g.bus_vn_kv))
}
func (g *GridModel) get_bus_powerline_or(id int) int { return g.powerlines.get_bus_or(id) }
func (g *GridModel) get_bus_powerline_ex(id int) int { return g.powerlines.get_bus_ex(id) }

// trafo mutations
func (g *GridModel) deactivate_trafo(id int) { g.trafos.deactivate(id, &g.need_reset) }
func (g *GridModel) reactivate_trafo(id int) { g.trafos.reactivate(id, &g.need_reset) }
func (g *GridModel) change_bus_trafo_hv(id, new_bus int) {
	g.trafos.change_bus_hv(id, new_bus, &g.need_reset, len(g.bus_vn_kv))
}
func (g *GridModel) change_bus_trafo_lv(id, new_bus int) {
	g.trafos.change_bus_lv(id, new_bus, &g.need_reset, len(g.bus_vn_kv))
}
func (g *GridModel) get_bus_trafo_hv(id int) int { return g.trafos.get_bus_hv(id) }
func (g *GridModel) get_bus_trafo_lv(id int) int { return g.trafos.get_bus_lv(id) }

// load mutations
func (g *GridModel) deactivate_load(id int) { g.loads.deactivate(id, &g.need_reset) }
func (g *GridModel) reactivate_load(id int) { g.loads.reactivate(id, &g.need_reset) }
func (g *GridModel) change_bus_load(id, new_bus int) {
	g.loads.change_bus(id, new_bus, &g.need_reset, len(g.bus_vn_kv))
}
func (g *GridModel) change_p_load(id int, new_p float64) { g.loads.change_p(id, new_p, &g.need_reset) }
func (g *GridModel) change_q_load(id int, new_q float64) { g.loads.change_q(id, new_q, &g.need_reset) }
func (g *GridModel) get_bus_load(id int) int             { return g.loads.get_bus(id) }

// generator mutations
func (g *GridModel) deactivate_gen(id int) { g.generators.deactivate(id, &g.need_reset) }
func (g *GridModel) reactivate_gen(id int) { g.generators.reactivate(id, &g.need_reset) }
func (g *GridModel) change_bus_gen(id, new_bus int) {
	g.generators.change_bus(id, new_bus, &g.need_reset, len(g.bus_vn_kv))
}
func (g *GridModel) change_p_gen(id int, new_p float64) { g.generators.change_p(id, new_p, &g.need_reset) }
func (g *GridModel) change_v_gen(id int, new_v_pu float64) {
	g.generators.change_v(id, new_v_pu, &g.need_reset)
}
func (g *GridModel) get_bus_gen(id int) int { return g.generators.get_bus(id) }

// shunt mutations
func (g *GridModel) deactivate_shunt(id int) { g.shunts.deactivate(id, &g.need_reset) }
func (g *GridModel) reactivate_shunt(id int) { g.shunts.reactivate(id, &g.need_reset) }
func (g *GridModel) change_bus_shunt(id, new_bus int) {
	g.shunts.change_bus(id, new_bus, &g.need_reset, len(g.bus_vn_kv))
}
func (g *GridModel) change_p_shunt(id int, new_p float64) { g.shunts.change_p(id, new_p, &g.need_reset) }
func (g *GridModel) change_q_shunt(id int, new_q float64) { g.shunts.change_q(id, new_q, &g.need_reset) }
func (g *GridModel) get_bus_shunt(id int) int             { return g.shunts.get_bus(id) }

// static generator mutations
func (g *GridModel) deactivate_sgen(id int) { g.sgens.deactivate(id, &g.need_reset) }
func (g *GridModel) reactivate_sgen(id int) { g.sgens.reactivate(id, &g.need_reset) }
func (g *GridModel) change_bus_sgen(id, new_bus int) {
	g.sgens.change_bus(id, new_bus, &g.need_reset, len(g.bus_vn_kv))
}
func (g *GridModel) change_p_sgen(id int, new_p float64) { g.sgens.change_p(id, new_p, &g.need_reset) }
func (g *GridModel) change_q_sgen(id int, new_q float64) { g.sgens.change_q(id, new_q, &g.need_reset) }
func (g *GridModel) get_bus_sgen(id int) int             { return g.sgens.get_bus(id) }

// storage mutations. A storage at 0 MW stays connected: no implicit
// deactivation on zero power.
func (g *GridModel) deactivate_storage(id int) { g.storages.deactivate(id, &g.need_reset) }
func (g *GridModel) reactivate_storage(id int) { g.storages.reactivate(id, &g.need_reset) }
func (g *GridModel) change_bus_storage(id, new_bus int) {
	g.storages.change_bus(id, new_bus, &g.need_reset, len(g.bus_vn_kv))
}
func (g *GridModel) change_p_storage(id int, new_p float64) {
	g.storages.change_p(id, new_p, &g.need_reset)
}
func (g *GridModel) change_q_storage(id int, new_q float64) {
	g.storages.change_q(id, new_q, &g.need_reset)
}
func (g *GridModel) get_bus_storage(id int) int { return g.storages.get_bus(id) }

// result accessors
func (g *GridModel) get_loads_res() ([]float64, []float64, []float64) { return g.loads.get_res() }
func (g *GridModel) get_loads_status() []bool                         { return g.loads.get_status() }
func (g *GridModel) get_shunts_res() ([]float64, []float64, []float64) {
	return g.shunts.get_res()
}
func (g *GridModel) get_shunts_status() []bool { return g.shunts.get_status() }
func (g *GridModel) get_gen_res() ([]float64, []float64, []float64) {
	return g.generators.get_res()
}
func (g *GridModel) get_gen_q_limited() []bool { return g.generators.get_q_limited() }
func (g *GridModel) get_gen_status() []bool    { return g.generators.get_status() }
func (g *GridModel) get_lineor_res() ([]float64, []float64, []float64, []float64) {
	return g.powerlines.get_lineor_res()
}
func (g *GridModel) get_lineex_res() ([]float64, []float64, []float64, []float64) {
	return g.powerlines.get_lineex_res()
}
func (g *GridModel) get_lines_status() []bool { return g.powerlines.get_status() }
func (g *GridModel) get_trafohv_res() ([]float64, []float64, []float64, []float64) {
	return g.trafos.get_res_hv()
}
func (g *GridModel) get_trafolv_res() ([]float64, []float64, []float64, []float64) {
	return g.trafos.get_res_lv()
}
func (g *GridModel) get_trafo_status() []bool { return g.trafos.get_status() }
func (g *GridModel) get_storages_res() ([]float64, []float64, []float64) {
	return g.storages.get_res()
}
func (g *GridModel) get_storages_status() []bool { return g.storages.get_status() }
func (g *GridModel) get_sgens_res() ([]float64, []float64, []float64) { return g.sgens.get_res() }
func (g *GridModel) get_sgens_status() []bool                         { return g.sgens.get_status() }

// solver internals. The ids of everything here are solver ids, not ext.
func (g *GridModel) get_Ybus() *YBus         { return g.Ybus }
func (g *GridModel) get_Sbus() []complex128  { return g.Sbus }
func (g *GridModel) get_pv() []int           { return g.bus_pv }
func (g *GridModel) get_pq() []int           { return g.bus_pq }
func (g *GridModel) get_Va() []float64       { return g._solver.get_Va() }
func (g *GridModel) get_Vm() []float64       { return g._solver.get_Vm() }
func (g *GridModel) get_V() []complex128     { return g._solver.get_V() }
func (g *GridModel) get_J() *mat.Dense       { return g._solver.get_J() }
func (g *GridModel) get_nb_iter() int        { return g._solver.get_nb_iter() }
func (g *GridModel) is_converged() bool      { return g._solver.is_converged() }
func (g *GridModel) get_computation_time() float64 {
	return g._solver.get_computation_time()
}

// flat start vector sized with the total number of buses
func (g *GridModel) get_flat_start() []complex128 {
	res := make([]complex128, len(g.bus_vn_kv))
	for i := range res {
		res[i] = complex(g.init_vm_pu, 0.)
	}
	return res
}

// state snapshot
func (g *GridModel) get_state() GridState {
	return GridState{
		Version:     grid_state_version,
		InitVmPu:    g.init_vm_pu,
		SnMva:       g.sn_mva,
		BusVnKv:     append([]float64(nil), g.bus_vn_kv...),
		BusStatus:   append([]bool(nil), g.bus_status...),
		Lines:       g.powerlines.get_state(),
		Shunts:      g.shunts.get_state(),
		Trafos:      g.trafos.get_state(),
		Gens:        g.generators.get_state(),
		Loads:       g.loads.get_state(),
		SGens:       g.sgens.get_state(),
		Storages:    g.storages.get_state(),
		GenSlackbus: g.gen_slackbus,
	}
}

func (g *GridModel) set_state(state GridState) {
	g.reset()
	g.need_reset = true
	g.compute_results = true

	g.init_vm_pu = state.InitVmPu
	g.sn_mva = state.SnMva
	g.bus_vn_kv = append([]float64(nil), state.BusVnKv...)
	g.bus_status = append([]bool(nil), state.BusStatus...)

	g.powerlines.set_state(state.Lines)
	g.shunts.set_state(state.Shunts)
	g.trafos.set_state(state.Trafos)
	g.generators.set_state(state.Gens)
	g.loads.set_state(state.Loads)
	g.sgens.set_state(state.SGens)
	g.storages.set_state(state.Storages)

	g.gen_slackbus = state.GenSlackbus
}

// serialized content of the whole grid
type GridState struct {
	Version     string       `json:"version"`
	InitVmPu    float64      `json:"init_vm_pu"`
	SnMva       float64      `json:"sn_mva"`
	BusVnKv     []float64    `json:"bus_vn_kv"`
	BusStatus   []bool       `json:"bus_status"`
	Lines       LineState    `json:"lines"`
	Shunts      ShuntState   `json:"shunts"`
	Trafos      TrafoState   `json:"trafos"`
	Gens        GenState     `json:"gens"`
	Loads       LoadState    `json:"loads"`
	SGens       SGenState    `json:"sgens"`
	Storages    StorageState `json:"storages"`
	GenSlackbus int          `json:"slack_gen_id"`
}

// clear everything the solver consumes; the element collections stay
func (g *GridModel) reset() {
	g.Ybus = nil
	g.Sbus = nil
	g.id_ext_to_solver = nil
	g.id_solver_to_ext = nil
	g.slack_bus_id_solver = _deactivated_bus_id
	g.bus_pv = nil
	g.bus_pq = nil
	g.need_reset = true
	g._solver.reset()
}

/*
Run the ac powerflow.

	Args:
		Vinit: initial complex voltage, ext ids, [nb_bus ext]; entries
		       of deactivated buses are ignored
		max_iter: Newton-Raphson iteration cap
		tol: mismatch tolerance, pu

	Returns:
		the complex voltage at every bus (ext ids, 0 on deactivated
		buses), or an empty vector plus the failure when the powerflow
		diverged. Input or assembly errors leave the grid untouched.
*/
func (g *GridModel) ac_pf(Vinit []complex128, max_iter int, tol float64) ([]complex128, error) {
	nb_bus := len(g.bus_vn_kv)
	if len(Vinit) != nb_bus {
		return nil, fmt.Errorf("Vinit size %d, grid has %d buses: %w",
			len(Vinit), nb_bus, ErrInputSizeMismatch)
	}

	V, err := g.pre_process_solver(Vinit, true)
	if err != nil {
		return nil, err
	}

	conv, solve_err := g._solver.compute_pf(g.Ybus, V, g.Sbus, g.bus_pv, g.bus_pq, max_iter, tol)
	return g.process_results(conv, solve_err, Vinit)
}

/*
Run the dc powerflow. Same contract as ac_pf; max_iter and tol are
accepted for symmetry but unused.
*/
func (g *GridModel) dc_pf(Vinit []complex128, max_iter int, tol float64) ([]complex128, error) {
	nb_bus := len(g.bus_vn_kv)
	if len(Vinit) != nb_bus {
		return nil, fmt.Errorf("Vinit size %d, grid has %d buses: %w",
			len(Vinit), nb_bus, ErrInputSizeMismatch)
	}

	previous_solver := g._solver.get_type()
	g._solver.change_solver(SolverDC)

	V, err := g.pre_process_solver(Vinit, false)
	if err != nil {
		g._solver.change_solver(previous_solver)
		return nil, err
	}

	conv, solve_err := g._solver.compute_pf(g.Ybus, V, g.Sbus, g.bus_pv, g.bus_pq, max_iter, tol)
	res, res_err := g.process_results(conv, solve_err, Vinit)

	g._solver.change_solver(previous_solver)
	return res, res_err
}

// rebuild everything the solver needs: bus maps, Ybus, Sbus, pv/pq and
// the initial voltage in solver ids
func (g *GridModel) pre_process_solver(Vinit []complex128, is_ac bool) ([]complex128, error) {
	g.reset()

	slack_bus_id, err := g.generators.get_slack_bus_id(g.gen_slackbus)
	if err != nil {
		return nil, err
	}
	g.slack_bus_id = slack_bus_id

	if err := g.init_Ybus(); err != nil {
		return nil, err
	}
	if err := g.fillYbus(is_ac); err != nil {
		return nil, err
	}
	g.fillpv_pq()
	g.generators.init_q_vector(len(g.bus_vn_kv))
	if err := g.fillSbus(is_ac); err != nil {
		return nil, err
	}

	nb_bus_solver := len(g.id_solver_to_ext)
	V := make([]complex128, nb_bus_solver)
	for bus_solver_id := 0; bus_solver_id < nb_bus_solver; bus_solver_id++ {
		bus_ext_id := g.id_solver_to_ext[bus_solver_id]
		V[bus_solver_id] = Vinit[bus_ext_id]
	}
	g.generators.set_vm(V, g.id_ext_to_solver)
	return V, nil
}

// build the ext <-> solver bus maps and locate the slack bus in solver
// ids
func (g *GridModel) init_Ybus() error {
	nb_bus_init := len(g.bus_vn_kv)
	g.id_ext_to_solver = make([]int, nb_bus_init)
	for i := range g.id_ext_to_solver {
		g.id_ext_to_solver[i] = _deactivated_bus_id
	}
	g.id_solver_to_ext = make([]int, 0, nb_bus_init)
	bus_id_solver := 0
	for bus_id_ext := 0; bus_id_ext < nb_bus_init; bus_id_ext++ {
		if g.bus_status[bus_id_ext] {
			g.id_solver_to_ext = append(g.id_solver_to_ext, bus_id_ext)
			g.id_ext_to_solver[bus_id_ext] = bus_id_solver
			bus_id_solver++
		}
	}

	g.slack_bus_id_solver = g.id_ext_to_solver[g.slack_bus_id]
	if g.slack_bus_id_solver == _deactivated_bus_id {
		return fmt.Errorf("bus %d: %w", g.slack_bus_id, ErrSlackDisconnected)
	}
	return nil
}

// sum every element contribution into Ybus
func (g *GridModel) fillYbus(ac bool) error {
	nb_bus_solver := len(g.id_solver_to_ext)
	triplets := make([]triplet, 0,
		len(g.bus_vn_kv)+4*g.powerlines.nb()+4*g.trafos.nb()+g.shunts.nb())

	if err := g.powerlines.fillYbus(&triplets, ac, g.id_ext_to_solver); err != nil {
		return err
	}
	if err := g.shunts.fillYbus(&triplets, ac, g.id_ext_to_solver, g.sn_mva); err != nil {
		return err
	}
	if err := g.trafos.fillYbus(&triplets, ac, g.id_ext_to_solver); err != nil {
		return err
	}
	if err := g.loads.fillYbus(&triplets, ac, g.id_ext_to_solver); err != nil {
		return err
	}
	if err := g.generators.fillYbus(&triplets, ac, g.id_ext_to_solver); err != nil {
		return err
	}
	if err := g.sgens.fillYbus(&triplets, ac, g.id_ext_to_solver); err != nil {
		return err
	}
	if err := g.storages.fillYbus(&triplets, ac, g.id_ext_to_solver); err != nil {
		return err
	}

	g.Ybus = NewYBus(nb_bus_solver)
	g.Ybus.set_from_triplets(triplets)
	return nil
}

// sum every element injection into Sbus, then balance the initial
// active power on the slack bus
func (g *GridModel) fillSbus(ac bool) error {
	g.Sbus = make([]complex128, len(g.id_solver_to_ext))

	if err := g.powerlines.fillSbus(g.Sbus, ac, g.id_ext_to_solver, g.sn_mva); err != nil {
		return err
	}
	if err := g.shunts.fillSbus(g.Sbus, ac, g.id_ext_to_solver, g.sn_mva); err != nil {
		return err
	}
	if err := g.trafos.fillSbus(g.Sbus, ac, g.id_ext_to_solver, g.sn_mva); err != nil {
		return err
	}
	if err := g.loads.fillSbus(g.Sbus, ac, g.id_ext_to_solver, g.sn_mva); err != nil {
		return err
	}
	if err := g.generators.fillSbus(g.Sbus, ac, g.id_ext_to_solver, g.sn_mva); err != nil {
		return err
	}
	if err := g.sgens.fillSbus(g.Sbus, ac, g.id_ext_to_solver, g.sn_mva); err != nil {
		return err
	}
	if err := g.storages.fillSbus(g.Sbus, ac, g.id_ext_to_solver, g.sn_mva); err != nil {
		return err
	}

	var sum_active float64
	for _, s := range g.Sbus {
		sum_active += real(s)
	}
	g.Sbus[g.slack_bus_id_solver] -= complex(sum_active, 0.)
	return nil
}

// partition the solver buses into pv (hosting an active generator,
// slack excluded) and pq (every other one)
func (g *GridModel) fillpv_pq() {
	nb_bus := len(g.id_solver_to_ext)
	has_bus_been_added := make([]bool, nb_bus)
	bus_pv := make([]int, 0, nb_bus)
	bus_pq := make([]int, 0, nb_bus)

	g.powerlines.fillpv(&bus_pv, has_bus_been_added, g.slack_bus_id_solver, g.id_ext_to_solver)
	g.shunts.fillpv(&bus_pv, has_bus_been_added, g.slack_bus_id_solver, g.id_ext_to_solver)
	g.trafos.fillpv(&bus_pv, has_bus_been_added, g.slack_bus_id_solver, g.id_ext_to_solver)
	g.loads.fillpv(&bus_pv, has_bus_been_added, g.slack_bus_id_solver, g.id_ext_to_solver)
	g.generators.fillpv(&bus_pv, has_bus_been_added, g.slack_bus_id_solver, g.id_ext_to_solver)
	g.sgens.fillpv(&bus_pv, has_bus_been_added, g.slack_bus_id_solver, g.id_ext_to_solver)
	g.storages.fillpv(&bus_pv, has_bus_been_added, g.slack_bus_id_solver, g.id_ext_to_solver)

	for bus_id := 0; bus_id < nb_bus; bus_id++ {
		if bus_id == g.slack_bus_id_solver {
			continue
		}
		if has_bus_been_added[bus_id] {
			continue
		}
		bus_pq = append(bus_pq, bus_id)
		has_bus_been_added[bus_id] = true
	}
	g.bus_pv = bus_pv
	g.bus_pq = bus_pq
}

// expand the solver voltage back to ext ids, 0 on deactivated buses
func (g *GridModel) _get_results_back_to_orig_nodes(res_tmp []complex128, size int) []complex128 {
	res := make([]complex128, size)
	for bus_id_ext := 0; bus_id_ext < size; bus_id_ext++ {
		if !g.bus_status[bus_id_ext] {
			continue
		}
		res[bus_id_ext] = res_tmp[g.id_ext_to_solver[bus_id_ext]]
	}
	return res
}

// after the solver ran: project the results on success, clear them on
// divergence
func (g *GridModel) process_results(conv bool, solve_err error, Vinit []complex128) ([]complex128, error) {
	if !conv {
		// the powerflow diverged: drop the results and force a full
		// re-assembly on the next solve
		g.reset_results()
		g.need_reset = true
		return []complex128{}, solve_err
	}
	if g.compute_results {
		g.project_results()
	}
	g.need_reset = false
	return g._get_results_back_to_orig_nodes(g._solver.get_V(), len(Vinit)), nil
}

// per-element results from the solved voltage, plus the slack active
// power and the generator reactive outputs
func (g *GridModel) project_results() {
	V := g._solver.get_V()

	g.powerlines.compute_results(V, g.id_ext_to_solver, g.bus_vn_kv, g.sn_mva)
	g.trafos.compute_results(V, g.id_ext_to_solver, g.bus_vn_kv, g.sn_mva)
	g.loads.compute_results(V, g.id_ext_to_solver, g.bus_vn_kv, g.sn_mva)
	g.shunts.compute_results(V, g.id_ext_to_solver, g.bus_vn_kv, g.sn_mva)
	g.sgens.compute_results(V, g.id_ext_to_solver, g.bus_vn_kv, g.sn_mva)
	g.storages.compute_results(V, g.id_ext_to_solver, g.bus_vn_kv, g.sn_mva)
	g.generators.compute_results(V, g.id_ext_to_solver, g.bus_vn_kv, g.sn_mva)

	// the slack generator covers the active residual of its bus
	p_slack := g.powerlines.get_p_slack(g.slack_bus_id)
	p_slack += g.trafos.get_p_slack(g.slack_bus_id)
	p_slack += g.loads.get_p_slack(g.slack_bus_id)
	p_slack += g.shunts.get_p_slack(g.slack_bus_id)
	p_slack += g.sgens.get_p_slack(g.slack_bus_id)
	p_slack += g.storages.get_p_slack(g.slack_bus_id)
	g.generators.set_p_slack(g.gen_slackbus, p_slack)

	// reactive power of the generators: residual per bus
	q_by_bus := make([]float64, len(g.bus_vn_kv))
	g.powerlines.get_q(q_by_bus)
	g.trafos.get_q(q_by_bus)
	g.loads.get_q(q_by_bus)
	g.shunts.get_q(q_by_bus)
	g.sgens.get_q(q_by_bus)
	g.storages.get_q(q_by_bus)
	g.generators.set_q(q_by_bus)
}

func (g *GridModel) reset_results() {
	g.powerlines.reset_results()
	g.shunts.reset_results()
	g.trafos.reset_results()
	g.generators.reset_results()
	g.loads.reset_results()
	g.sgens.reset_results()
	g.storages.reset_results()
}

/*
Kirchhoff residual of a candidate solution.

Computes V . conj(Ybus . V) - Sbus per bus (ext ids, pu, 0 on
deactivated buses). The slack entry is zeroed (the slack absorbs both
residuals). On buses hosting active generators the reactive residual is
covered by them: entirely when check_q_limits is false, up to their
aggregated [min_q, max_q] capability when it is true.
*/
func (g *GridModel) check_solution(V []complex128, check_q_limits bool) ([]complex128, error) {
	nb_bus := len(g.bus_vn_kv)
	if len(V) != nb_bus {
		return nil, fmt.Errorf("V size %d, grid has %d buses: %w",
			len(V), nb_bus, ErrInputSizeMismatch)
	}

	v_solver, err := g.pre_process_solver(V, true)
	if err != nil {
		return nil, err
	}
	// pre_process_solver overwrote the magnitude on generator buses;
	// check the voltages actually given
	for bus_solver_id, bus_ext_id := range g.id_solver_to_ext {
		v_solver[bus_solver_id] = V[bus_ext_id]
	}
	mis := _evaluate_mismatch(g.Ybus, v_solver, g.Sbus)

	q_min_by_bus := make([]float64, nb_bus)
	q_max_by_bus := make([]float64, nb_bus)
	g.generators.get_q_limits(q_min_by_bus, q_max_by_bus)
	gen_per_bus := make([]int, nb_bus)
	for gen_id := 0; gen_id < g.generators.nb(); gen_id++ {
		if g.generators.get_status()[gen_id] {
			gen_per_bus[g.generators.get_bus(gen_id)]++
		}
	}

	for bus_solver_id, bus_ext_id := range g.id_solver_to_ext {
		if bus_solver_id == g.slack_bus_id_solver {
			mis[bus_solver_id] = 0.
			continue
		}
		if gen_per_bus[bus_ext_id] == 0 {
			continue
		}
		q_res := imag(mis[bus_solver_id])
		if !check_q_limits {
			q_res = 0.
		} else {
			// the generators cover what their limits allow; whatever
			// exceeds the aggregated capability stays as residual
			q_min := q_min_by_bus[bus_ext_id] / g.sn_mva
			q_max := q_max_by_bus[bus_ext_id] / g.sn_mva
			if q_res > q_max {
				q_res -= q_max
			} else if q_res < q_min {
				q_res -= q_min
			} else {
				q_res = 0.
			}
		}
		mis[bus_solver_id] = complex(real(mis[bus_solver_id]), q_res)
	}

	res := g._get_results_back_to_orig_nodes(mis, nb_bus)
	// a solve attempt with a user supplied V does not leave reusable
	// solver state behind
	g.need_reset = true
	return res, nil
}
