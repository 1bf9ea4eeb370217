package main

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"os"
)

/*
Load a grid case from a JSON file or an http url.

The case layout mirrors the element collections:

	{
	  "sn_mva": 100.0,
	  "init_vm_pu": 1.04,
	  "buses": [{"vn_kv": 138.0}, ...],
	  "lines": [{"from": 0, "to": 1, "r": 0.01, "x": 0.1,
	             "h_re": 0.0, "h_im": 0.0}, ...],
	  "trafos": [{"hv": 0, "lv": 1, "r": 0.0, "x": 0.2,
	              "b_re": 0.0, "b_im": 0.0, "tap_step_pct": 1.25,
	              "tap_pos": 0.0, "shift_degree": 0.0,
	              "tap_hv": true}, ...],
	  "shunts": [{"bus": 8, "p_mw": 0.0, "q_mvar": -19.0}, ...],
	  "loads": [{"bus": 1, "p_mw": 50.0, "q_mvar": 20.0}, ...],
	  "generators": [{"bus": 0, "p_mw": 0.0, "vm_pu": 1.02,
	                  "min_q_mvar": -999.0, "max_q_mvar": 999.0}, ...],
	  "sgens": [...], "storages": [...],
	  "slack_gen_id": 0
	}

Every power is MW / MVAr; line and trafo parameters are pu on sn_mva.
*/
func load_grid_from_file(case_path string) (*GridModel, error) {
	var raw []byte
	if len(case_path) > 4 && case_path[0:4] == "http" {
		resp, err := http.Get(case_path)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		raw, err = ioutil.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
	} else {
		file, err := os.Open(case_path)
		if err != nil {
			return nil, err
		}
		defer file.Close()
		raw, err = ioutil.ReadAll(file)
		if err != nil {
			return nil, err
		}
	}

	var rd map[string]interface{}
	if err := json.Unmarshal(raw, &rd); err != nil {
		return nil, fmt.Errorf("cannot parse the grid case: %w", err)
	}
	return make_grid_model(rd)
}

func make_grid_model(rd map[string]interface{}) (*GridModel, error) {
	g := NewGridModel()

	if v, ok := rd["sn_mva"]; ok {
		g.set_sn_mva(v.(float64))
	}
	if v, ok := rd["init_vm_pu"]; ok {
		g.set_init_vm_pu(v.(float64))
	}

	buses, ok := rd["buses"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("the grid case has no buses")
	}
	bus_vn_kv := make([]float64, len(buses))
	for i, b := range buses {
		bus_vn_kv[i] = b.(map[string]interface{})["vn_kv"].(float64)
	}
	g.init_bus(bus_vn_kv)

	_f := func(row map[string]interface{}, key string) float64 {
		if v, ok := row[key]; ok {
			return v.(float64)
		}
		return 0.
	}
	_i := func(row map[string]interface{}, key string) int {
		return int(row[key].(float64))
	}
	_rows := func(key string) []map[string]interface{} {
		arr, ok := rd[key].([]interface{})
		if !ok {
			return nil
		}
		rows := make([]map[string]interface{}, len(arr))
		for i, el := range arr {
			rows[i] = el.(map[string]interface{})
		}
		return rows
	}

	lines := _rows("lines")
	line_r := make([]float64, len(lines))
	line_x := make([]float64, len(lines))
	line_h := make([]complex128, len(lines))
	line_from := make([]int, len(lines))
	line_to := make([]int, len(lines))
	for i, row := range lines {
		line_r[i] = _f(row, "r")
		line_x[i] = _f(row, "x")
		line_h[i] = complex(_f(row, "h_re"), _f(row, "h_im"))
		line_from[i] = _i(row, "from")
		line_to[i] = _i(row, "to")
	}
	g.init_powerlines(line_r, line_x, line_h, line_from, line_to)

	trafos := _rows("trafos")
	trafo_r := make([]float64, len(trafos))
	trafo_x := make([]float64, len(trafos))
	trafo_b := make([]complex128, len(trafos))
	trafo_tap_step_pct := make([]float64, len(trafos))
	trafo_tap_pos := make([]float64, len(trafos))
	trafo_shift := make([]float64, len(trafos))
	trafo_tap_hv := make([]bool, len(trafos))
	trafo_hv := make([]int, len(trafos))
	trafo_lv := make([]int, len(trafos))
	for i, row := range trafos {
		trafo_r[i] = _f(row, "r")
		trafo_x[i] = _f(row, "x")
		trafo_b[i] = complex(_f(row, "b_re"), _f(row, "b_im"))
		trafo_tap_step_pct[i] = _f(row, "tap_step_pct")
		trafo_tap_pos[i] = _f(row, "tap_pos")
		trafo_shift[i] = _f(row, "shift_degree")
		if v, ok := row["tap_hv"]; ok {
			trafo_tap_hv[i] = v.(bool)
		} else {
			trafo_tap_hv[i] = true
		}
		trafo_hv[i] = _i(row, "hv")
		trafo_lv[i] = _i(row, "lv")
	}
	g.init_trafo(trafo_r, trafo_x, trafo_b, trafo_tap_step_pct, trafo_tap_pos,
		trafo_shift, trafo_tap_hv, trafo_hv, trafo_lv)

	shunts := _rows("shunts")
	shunt_p := make([]float64, len(shunts))
	shunt_q := make([]float64, len(shunts))
	shunt_bus := make([]int, len(shunts))
	for i, row := range shunts {
		shunt_p[i] = _f(row, "p_mw")
		shunt_q[i] = _f(row, "q_mvar")
		shunt_bus[i] = _i(row, "bus")
	}
	g.init_shunt(shunt_p, shunt_q, shunt_bus)

	loads := _rows("loads")
	load_p := make([]float64, len(loads))
	load_q := make([]float64, len(loads))
	load_bus := make([]int, len(loads))
	for i, row := range loads {
		load_p[i] = _f(row, "p_mw")
		load_q[i] = _f(row, "q_mvar")
		load_bus[i] = _i(row, "bus")
	}
	g.init_loads(load_p, load_q, load_bus)

	gens := _rows("generators")
	gen_p := make([]float64, len(gens))
	gen_v := make([]float64, len(gens))
	gen_min_q := make([]float64, len(gens))
	gen_max_q := make([]float64, len(gens))
	gen_bus := make([]int, len(gens))
	for i, row := range gens {
		gen_p[i] = _f(row, "p_mw")
		gen_v[i] = _f(row, "vm_pu")
		gen_min_q[i] = _f(row, "min_q_mvar")
		gen_max_q[i] = _f(row, "max_q_mvar")
		gen_bus[i] = _i(row, "bus")
	}
	g.init_generators(gen_p, gen_v, gen_min_q, gen_max_q, gen_bus)

	sgens := _rows("sgens")
	sgen_p := make([]float64, len(sgens))
	sgen_q := make([]float64, len(sgens))
	sgen_pmin := make([]float64, len(sgens))
	sgen_pmax := make([]float64, len(sgens))
	sgen_qmin := make([]float64, len(sgens))
	sgen_qmax := make([]float64, len(sgens))
	sgen_bus := make([]int, len(sgens))
	for i, row := range sgens {
		sgen_p[i] = _f(row, "p_mw")
		sgen_q[i] = _f(row, "q_mvar")
		sgen_pmin[i] = _f(row, "p_min_mw")
		sgen_pmax[i] = _f(row, "p_max_mw")
		sgen_qmin[i] = _f(row, "q_min_mvar")
		sgen_qmax[i] = _f(row, "q_max_mvar")
		sgen_bus[i] = _i(row, "bus")
	}
	g.init_sgens(sgen_p, sgen_q, sgen_pmin, sgen_pmax, sgen_qmin, sgen_qmax, sgen_bus)

	storages := _rows("storages")
	storage_p := make([]float64, len(storages))
	storage_q := make([]float64, len(storages))
	storage_bus := make([]int, len(storages))
	for i, row := range storages {
		storage_p[i] = _f(row, "p_mw")
		storage_q[i] = _f(row, "q_mvar")
		storage_bus[i] = _i(row, "bus")
	}
	g.init_storages(storage_p, storage_q, storage_bus)

	if v, ok := rd["slack_gen_id"]; ok {
		if err := g.add_gen_slackbus(int(v.(float64))); err != nil {
			return nil, err
		}
	}
	return g, nil
}
