// Command evacsim runs the floor-field evacuation simulation driver
// described by a configuration file against an environment file
// (spec.md §1, §6).
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/danielgoncalves/evacsim/config"
	"github.com/danielgoncalves/evacsim/sim"
)

var (
	configPath = flag.String("config", "", "Path to a YAML configuration file (embedded defaults if empty)")
	logFile    = flag.String("logfile", "", "Write driver progress logs to file instead of stdout")
)

func main() {
	flag.Parse()

	if *logFile != "" {
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "evacsim: opening log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		sim.SetLogWriter(f)
	}

	config.MustInit(*configPath)
	cfg := config.Cfg()

	driver, err := sim.NewDriver(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "evacsim: %v\n", err)
		os.Exit(1)
	}

	if err := driver.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "evacsim: %v\n", err)
		os.Exit(1)
	}
}
