package main

import (
	"errors"
	"fmt"
	"log"
	"math/cmplx"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
)

// Interactive console over one grid instance: inspect the last solve,
// toggle elements, change setpoints and re-run ac/dc powerflows.

func run_console(g *GridModel, max_iter int, tol float64) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt: "pf> ",
	})
	if err != nil {
		log.Printf("console: readline init failed: %v", err)
		return
	}
	defer rl.Close()

	fmt.Println("powerflow console (type 'help' for commands)")
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			return
		}
		if err != nil {
			return // EOF
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			return
		}
		handle_console_command(line, g, max_iter, tol)
	}
}

func handle_console_command(cmd string, g *GridModel, max_iter int, tol float64) {
	parts := strings.Fields(cmd)

	// element family -> (deactivate, reactivate)
	toggles := map[string][2]func(int){
		"bus":     {g.deactivate_bus, g.reactivate_bus},
		"line":    {g.deactivate_powerline, g.reactivate_powerline},
		"trafo":   {g.deactivate_trafo, g.reactivate_trafo},
		"load":    {g.deactivate_load, g.reactivate_load},
		"gen":     {g.deactivate_gen, g.reactivate_gen},
		"shunt":   {g.deactivate_shunt, g.reactivate_shunt},
		"sgen":    {g.deactivate_sgen, g.reactivate_sgen},
		"storage": {g.deactivate_storage, g.reactivate_storage},
	}
	// "set <family> <id> <field> <value>" setters
	setters := map[string]map[string]func(int, float64){
		"load":    {"p": g.change_p_load, "q": g.change_q_load},
		"gen":     {"p": g.change_p_gen, "v": g.change_v_gen},
		"shunt":   {"p": g.change_p_shunt, "q": g.change_q_shunt},
		"sgen":    {"p": g.change_p_sgen, "q": g.change_q_sgen},
		"storage": {"p": g.change_p_storage, "q": g.change_q_storage},
	}

	switch parts[0] {
	case "ac", "dc":
		v_init := g.get_flat_start()
		var v []complex128
		var err error
		if parts[0] == "ac" {
			v, err = g.ac_pf(v_init, max_iter, tol)
		} else {
			v, err = g.dc_pf(v_init, max_iter, tol)
		}
		if err != nil {
			log.Printf("powerflow failed: %v", err)
			return
		}
		if parts[0] == "ac" {
			fmt.Printf("converged in %d iterations (%.3f ms)\n",
				g.get_nb_iter(), g.get_computation_time()*1000.)
		}
		for bus_id, vi := range v {
			fmt.Printf("  bus %3d  vm %.4f pu\n", bus_id, cmplx.Abs(vi))
		}

	case "off", "on":
		if len(parts) != 3 {
			log.Printf("usage: %s <family> <id>", parts[0])
			return
		}
		fns, ok := toggles[parts[1]]
		if !ok {
			log.Printf("unknown element family: %s", parts[1])
			return
		}
		id, err := strconv.Atoi(parts[2])
		if err != nil {
			log.Printf("bad id: %s", parts[2])
			return
		}
		if parts[0] == "off" {
			fns[0](id)
		} else {
			fns[1](id)
		}
		fmt.Printf("%s %s %d\n", parts[0], parts[1], id)

	case "set":
		if len(parts) != 5 {
			log.Println("usage: set <family> <id> <p|q|v> <value>")
			return
		}
		family, ok := setters[parts[1]]
		if !ok {
			log.Printf("no setters for element family: %s", parts[1])
			return
		}
		fn, ok := family[parts[3]]
		if !ok {
			log.Printf("no field %s on %s", parts[3], parts[1])
			return
		}
		id, err := strconv.Atoi(parts[2])
		if err != nil {
			log.Printf("bad id: %s", parts[2])
			return
		}
		value, err := strconv.ParseFloat(parts[4], 64)
		if err != nil {
			log.Printf("bad value: %s", parts[4])
			return
		}
		fn(id, value)
		fmt.Printf("set %s %d %s = %g\n", parts[1], id, parts[3], value)

	case "status":
		fmt.Printf("%d buses (%d connected), %d lines, %d trafos, %d loads, %d gens, %d sgens, %d storages, %d shunts\n",
			len(g.bus_vn_kv), g.nb_bus(), g.powerlines.nb(), g.trafos.nb(),
			g.loads.nb(), g.generators.nb(), g.sgens.nb(), g.storages.nb(), g.shunts.nb())

	case "gens":
		p, q, v := g.get_gen_res()
		limited := g.get_gen_q_limited()
		for gen_id := range p {
			marker := ""
			if limited[gen_id] {
				marker = " (q limit)"
			}
			fmt.Printf("  gen %3d  p %8.2f MW  q %8.2f MVAr  v %8.2f kV%s\n",
				gen_id, p[gen_id], q[gen_id], v[gen_id], marker)
		}

	case "help":
		fmt.Println("Commands:")
		fmt.Println("  ac | dc                          - run a powerflow from a flat start")
		fmt.Println("  status                           - grid summary")
		fmt.Println("  gens                             - generator results of the last solve")
		fmt.Println("  off <family> <id>                - deactivate an element")
		fmt.Println("  on <family> <id>                 - reactivate an element")
		fmt.Println("  set <family> <id> <p|q|v> <val>  - change a setpoint")
		fmt.Println("  quit                             - leave the console")

	default:
		log.Printf("unknown command: %s (try 'help')", parts[0])
	}
}

