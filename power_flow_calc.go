package main

import (
	"flag"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

/*
Run one powerflow.

	Args:
		case_path: path (or url) of the grid case JSON file
		output_data_dir: folder receiving the result CSV tables
		solver: "ac" or "dc"
		max_iter: Newton-Raphson iteration cap
		tol: mismatch tolerance, pu
		interactive: drop into the console after the solve
*/
func run(
	case_path string,
	output_data_dir string,
	solver string,
	max_iter int,
	tol float64,
	interactive bool,
) {
	if _, err := os.Stat(output_data_dir); os.IsNotExist(err) {
		os.Mkdir(output_data_dir, 0755)
	}
	if _, err := os.Stat(output_data_dir); os.IsNotExist(err) {
		log.Fatalf("`%s` is not a directory", output_data_dir)
	}

	log.Printf("reading the grid case from `%s`", case_path)
	g, err := load_grid_from_file(case_path)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("%d buses, %d powerlines, %d trafos, %d loads, %d generators",
		len(g.bus_vn_kv), g.powerlines.nb(), g.trafos.nb(), g.loads.nb(), g.generators.nb())

	v_init := g.get_flat_start()
	var v []complex128
	switch solver {
	case "dc":
		log.Printf("running the dc powerflow")
		v, err = g.dc_pf(v_init, max_iter, tol)
		if err == nil {
			log.Printf("dc solve done")
		}
	default:
		log.Printf("running the ac powerflow (newton-raphson, max_iter=%d, tol=%g)", max_iter, tol)
		v, err = g.ac_pf(v_init, max_iter, tol)
		if err == nil {
			log.Printf("converged in %d iterations (%.3f ms)",
				g.get_nb_iter(), g.get_computation_time()*1000.)
		}
	}
	if err != nil {
		log.Fatalf("powerflow failed: %v", err)
	}

	rec := NewRecorder(g, v)
	if err := rec.export_csv(output_data_dir); err != nil {
		log.Fatal(err)
	}
	log.Printf("results written to `%s`", output_data_dir)

	if interactive {
		run_console(g, max_iter, tol)
	}
}

// environment variable fallback for a string flag
func env_or(key string, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func env_or_float(key string, fallback float64) float64 {
	if v, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func env_or_int(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func main() {
	// optional .env file with PFC_* defaults; flags win
	godotenv.Load()

	case_path := flag.String("case", env_or("PFC_CASE", "grid.json"), "grid case JSON file (path or url)")
	output_dir := flag.String("output", env_or("PFC_OUTPUT", "out"), "output folder for the result CSV tables")
	solver := flag.String("solver", env_or("PFC_SOLVER", "ac"), "powerflow to run: ac or dc")
	max_iter := flag.Int("max-iter", env_or_int("PFC_MAX_ITER", 10), "newton-raphson iteration cap")
	tol := flag.Float64("tol", env_or_float("PFC_TOL", 1e-8), "mismatch tolerance, pu")
	interactive := flag.Bool("interactive", false, "open the console after the solve")
	flag.Parse()

	run(*case_path, *output_dir, *solver, *max_iter, *tol, *interactive)
}
