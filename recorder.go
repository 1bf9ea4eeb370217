package main

import (
	"math/cmplx"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
)

// one row of the bus result table
type BusResultRow struct {
	BusID  int     `csv:"bus_id"`
	Status bool    `csv:"connected"`
	VnKv   float64 `csv:"vn_kv"`
	VmPu   float64 `csv:"vm_pu"`
	VaDeg  float64 `csv:"va_degree"`
}

// one row of the branch (line or trafo) result table
type BranchResultRow struct {
	ID      int     `csv:"id"`
	BusOr   int     `csv:"bus_or"`
	BusEx   int     `csv:"bus_ex"`
	Status  bool    `csv:"connected"`
	POrMw   float64 `csv:"p_or_mw"`
	QOrMvar float64 `csv:"q_or_mvar"`
	AOrKa   float64 `csv:"a_or_ka"`
	PExMw   float64 `csv:"p_ex_mw"`
	QExMvar float64 `csv:"q_ex_mvar"`
	AExKa   float64 `csv:"a_ex_ka"`
}

// one row of an injection (load, gen, ...) result table
type InjectionResultRow struct {
	ID     int     `csv:"id"`
	BusID  int     `csv:"bus_id"`
	Status bool    `csv:"connected"`
	PMw    float64 `csv:"p_mw"`
	QMvar  float64 `csv:"q_mvar"`
	VKv    float64 `csv:"v_kv"`
}

// Recorder gathers the results of one powerflow and exports them as
// CSV tables, one file per element family.
type Recorder struct {
	bus_rows     []*BusResultRow
	line_rows    []*BranchResultRow
	trafo_rows   []*BranchResultRow
	load_rows    []*InjectionResultRow
	gen_rows     []*InjectionResultRow
	sgen_rows    []*InjectionResultRow
	storage_rows []*InjectionResultRow
	shunt_rows   []*InjectionResultRow
}

func NewRecorder(g *GridModel, V []complex128) *Recorder {
	self := new(Recorder)

	const to_deg = 180. / 3.141592653589793
	for bus_id, v := range V {
		self.bus_rows = append(self.bus_rows, &BusResultRow{
			BusID:  bus_id,
			Status: v != 0,
			VnKv:   g.bus_vn_kv[bus_id],
			VmPu:   cmplx.Abs(v),
			VaDeg:  cmplx.Phase(v) * to_deg,
		})
	}

	p_or, q_or, _, a_or := g.get_lineor_res()
	p_ex, q_ex, _, a_ex := g.get_lineex_res()
	for line_id := range p_or {
		self.line_rows = append(self.line_rows, &BranchResultRow{
			ID:      line_id,
			BusOr:   g.get_bus_powerline_or(line_id),
			BusEx:   g.get_bus_powerline_ex(line_id),
			Status:  g.get_lines_status()[line_id],
			POrMw:   p_or[line_id],
			QOrMvar: q_or[line_id],
			AOrKa:   a_or[line_id],
			PExMw:   p_ex[line_id],
			QExMvar: q_ex[line_id],
			AExKa:   a_ex[line_id],
		})
	}

	p_hv, q_hv, _, a_hv := g.get_trafohv_res()
	p_lv, q_lv, _, a_lv := g.get_trafolv_res()
	for trafo_id := range p_hv {
		self.trafo_rows = append(self.trafo_rows, &BranchResultRow{
			ID:      trafo_id,
			BusOr:   g.get_bus_trafo_hv(trafo_id),
			BusEx:   g.get_bus_trafo_lv(trafo_id),
			Status:  g.get_trafo_status()[trafo_id],
			POrMw:   p_hv[trafo_id],
			QOrMvar: q_hv[trafo_id],
			AOrKa:   a_hv[trafo_id],
			PExMw:   p_lv[trafo_id],
			QExMvar: q_lv[trafo_id],
			AExKa:   a_lv[trafo_id],
		})
	}

	_injections := func(p, q, v []float64, status []bool, bus func(int) int) []*InjectionResultRow {
		rows := make([]*InjectionResultRow, len(p))
		for id := range p {
			rows[id] = &InjectionResultRow{
				ID:     id,
				BusID:  bus(id),
				Status: status[id],
				PMw:    p[id],
				QMvar:  q[id],
				VKv:    v[id],
			}
		}
		return rows
	}

	p, q, v := g.get_loads_res()
	self.load_rows = _injections(p, q, v, g.get_loads_status(), g.get_bus_load)
	p, q, v = g.get_gen_res()
	self.gen_rows = _injections(p, q, v, g.get_gen_status(), g.get_bus_gen)
	p, q, v = g.get_sgens_res()
	self.sgen_rows = _injections(p, q, v, g.get_sgens_status(), g.get_bus_sgen)
	p, q, v = g.get_storages_res()
	self.storage_rows = _injections(p, q, v, g.get_storages_status(), g.get_bus_storage)
	p, q, v = g.get_shunts_res()
	self.shunt_rows = _injections(p, q, v, g.get_shunts_status(), g.get_bus_shunt)

	return self
}

// write every table to output_data_dir, one CSV per element family
func (self *Recorder) export_csv(output_data_dir string) error {
	write := func(name string, rows interface{}) error {
		file, err := os.Create(filepath.Join(output_data_dir, name))
		if err != nil {
			return err
		}
		defer file.Close()
		return gocsv.MarshalFile(rows, file)
	}

	if err := write("result_bus.csv", &self.bus_rows); err != nil {
		return err
	}
	if err := write("result_lines.csv", &self.line_rows); err != nil {
		return err
	}
	if err := write("result_trafos.csv", &self.trafo_rows); err != nil {
		return err
	}
	if err := write("result_loads.csv", &self.load_rows); err != nil {
		return err
	}
	if err := write("result_gens.csv", &self.gen_rows); err != nil {
		return err
	}
	if err := write("result_sgens.csv", &self.sgen_rows); err != nil {
		return err
	}
	if err := write("result_storages.csv", &self.storage_rows); err != nil {
		return err
	}
	return write("result_shunts.csv", &self.shunt_rows)
}
