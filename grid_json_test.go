package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const two_bus_case_json = `{
  "sn_mva": 100.0,
  "init_vm_pu": 1.0,
  "buses": [{"vn_kv": 138.0}, {"vn_kv": 138.0}],
  "lines": [{"from": 0, "to": 1, "r": 0.01, "x": 0.1}],
  "trafos": [],
  "shunts": [],
  "loads": [{"bus": 1, "p_mw": 50.0, "q_mvar": 20.0}],
  "generators": [{"bus": 0, "p_mw": 0.0, "vm_pu": 1.02,
                  "min_q_mvar": -999.0, "max_q_mvar": 999.0}],
  "sgens": [],
  "storages": [],
  "slack_gen_id": 0
}`

func TestMakeGridModelFromJson(t *testing.T) {
	var rd map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(two_bus_case_json), &rd))

	g, err := make_grid_model(rd)
	require.NoError(t, err)
	assert.Equal(t, 100., g.get_sn_mva())
	assert.Equal(t, 1., g.get_init_vm_pu())
	assert.Equal(t, 1, g.powerlines.nb())
	assert.Equal(t, 1, g.loads.nb())
	assert.Equal(t, 1, g.generators.nb())

	v, err := g.ac_pf(g.get_flat_start(), 10, 1e-8)
	require.NoError(t, err)
	require.Len(t, v, 2)
	assert.True(t, g.is_converged())
}

func TestLoadGridFromFile(t *testing.T) {
	dir := t.TempDir()
	case_path := filepath.Join(dir, "grid.json")
	require.NoError(t, os.WriteFile(case_path, []byte(two_bus_case_json), 0644))

	g, err := load_grid_from_file(case_path)
	require.NoError(t, err)
	assert.Len(t, g.bus_vn_kv, 2)

	_, err = load_grid_from_file(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestRecorderExportCsv(t *testing.T) {
	g := make_two_bus_grid(50., 20., 1.02)
	v, err := g.ac_pf(g.get_flat_start(), 10, 1e-8)
	require.NoError(t, err)

	dir := t.TempDir()
	rec := NewRecorder(g, v)
	require.NoError(t, rec.export_csv(dir))

	for _, name := range []string{
		"result_bus.csv", "result_lines.csv", "result_trafos.csv",
		"result_loads.csv", "result_gens.csv", "result_sgens.csv",
		"result_storages.csv", "result_shunts.csv",
	} {
		raw, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err, name)
		assert.NotEmpty(t, raw, name)
	}

	// the bus table carries the solved magnitudes
	raw, err := os.ReadFile(filepath.Join(dir, "result_bus.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "vm_pu")
}

func TestConsoleCommands(t *testing.T) {
	g := make_two_bus_grid(50., 20., 1.02)

	handle_console_command("set load 0 p 60", g, 10, 1e-8)
	assert.Equal(t, 60., g.loads.p_mw[0])

	handle_console_command("off line 0", g, 10, 1e-8)
	assert.False(t, g.get_lines_status()[0])
	handle_console_command("on line 0", g, 10, 1e-8)
	assert.True(t, g.get_lines_status()[0])

	// unknown input must not panic
	handle_console_command("bogus", g, 10, 1e-8)
	handle_console_command("set gen 0", g, 10, 1e-8)
}
