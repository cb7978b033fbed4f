// Command globoid generates globoid worm gear tooth shells.
//
// With no script it builds one worm from the flags:
//
//	globoid -module 0.2 -arc-angle 90 -teeth 5 -ref-radius 1.2 -out build
//
// With -script it builds every (worm ...) declared in a parameter script.
// Closed shells are written as binary STL files, one per worm, and a
// summary of the derived constants is printed.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/chazu/globoid/pkg/engine"
	"github.com/chazu/globoid/pkg/gear"
	"github.com/chazu/globoid/pkg/kernel/sdfx"
	"github.com/chazu/globoid/pkg/report"
)

type config struct {
	params    gear.Parameters
	name      string
	samples   int
	tolerance float64
	equations bool
	plot      bool
	out       string
	scale     float64
	script    string
	json      bool
}

func parseFlags(args []string) (config, error) {
	d := gear.DefaultParameters()
	var cfg config
	fs := flag.NewFlagSet("globoid", flag.ContinueOnError)
	fs.Float64Var(&cfg.params.Module, "module", d.Module, "gear module")
	fs.Float64Var(&cfg.params.ArcAngle, "arc-angle", d.ArcAngle, "arc of the torus covered by the worm, in degrees")
	fs.IntVar(&cfg.params.TeethInArc, "teeth", d.TeethInArc, "teeth in the arc")
	fs.Float64Var(&cfg.params.RefRadius, "ref-radius", d.RefRadius, "worm waist reference radius")
	fs.Float64Var(&cfg.params.FalloffRate, "falloff", d.FalloffRate, "tooth tip falloff rate, 0 or >= 1")
	fs.StringVar(&cfg.name, "name", "worm", "name of the worm built from flags")
	fs.IntVar(&cfg.samples, "samples", 0, "sample steps per curve, even (default 50)")
	fs.Float64Var(&cfg.tolerance, "tolerance", 0, "stitch tolerance (default 0.1)")
	fs.BoolVar(&cfg.equations, "equations", false, "print the curve equations")
	fs.BoolVar(&cfg.plot, "plot", false, "write radius and top view plots")
	fs.StringVar(&cfg.out, "out", "", "output directory for STL and plot files")
	fs.Float64Var(&cfg.scale, "unit-scale", 10, "multiplier from model units to output units")
	fs.StringVar(&cfg.script, "script", "", "worm parameter script")
	fs.BoolVar(&cfg.json, "json", false, "print the result as JSON")
	if err := fs.Parse(args); err != nil {
		return config{}, err
	}
	if fs.NArg() > 0 {
		return config{}, fmt.Errorf("unexpected arguments %v", fs.Args())
	}
	if !(cfg.scale > 0) {
		return config{}, fmt.Errorf("-unit-scale must be positive, got %g", cfg.scale)
	}
	if err := engine.ValidateName(cfg.name); err != nil {
		return config{}, fmt.Errorf("-name: %w", err)
	}
	return cfg, nil
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("globoid: ")

	cfg, err := parseFlags(os.Args[1:])
	if err == flag.ErrHelp {
		return
	}
	if err != nil {
		log.Fatal(err)
	}
	if err := run(cfg, os.Stdout); err != nil {
		log.Fatal(err)
	}
}

// run generates the configured worms and writes their outputs. Text goes
// to stdout.
func run(cfg config, stdout io.Writer) error {
	start := time.Now()
	app := NewApp(cfg.scale)

	eq := stdout
	if cfg.json {
		eq = os.Stderr
	}
	applyOptions := func(j engine.Job) engine.Job {
		if j.Options.Samples == 0 {
			j.Options.Samples = cfg.samples
		}
		if j.Options.Tolerance == 0 {
			j.Options.Tolerance = cfg.tolerance
		}
		if cfg.equations {
			j.Options.Equations = eq
		}
		return j
	}

	app.jobHook = applyOptions

	var result EvalResult
	if cfg.script != "" {
		source, err := os.ReadFile(cfg.script)
		if err != nil {
			return err
		}
		result = app.Evaluate(string(source))
	} else {
		result = app.Run(engine.Job{Name: cfg.name, Params: cfg.params})
	}

	if err := writeOutputs(cfg, result, stdout); err != nil {
		return err
	}
	log.Printf("generated %d of %d worms in %s",
		len(result.Worms), len(result.Worms)+countJobErrors(result), time.Since(start).Round(time.Millisecond))

	if n := len(result.Errors); n > 0 {
		for _, e := range result.Errors {
			log.Print(formatError(e))
		}
		return fmt.Errorf("%d error(s)", n)
	}
	return nil
}

func writeOutputs(cfg config, result EvalResult, stdout io.Writer) error {
	if cfg.out != "" {
		if err := os.MkdirAll(cfg.out, 0o755); err != nil {
			return err
		}
	}
	for _, w := range result.Worms {
		size := sdfx.BoundingBox(w.result.Shell, cfg.scale).Size()
		log.Printf("%s: center distance %.4f, bounds %.3f x %.3f x %.3f",
			w.Name, w.CenterDistance, size.X, size.Y, size.Z)
		if cfg.out != "" {
			path := filepath.Join(cfg.out, w.Name+".stl")
			if err := sdfx.SaveSTL(path, w.result.Shell, cfg.scale); err != nil {
				return err
			}
			log.Printf("%s: wrote %s", w.Name, path)
		}
		if cfg.plot {
			dir := cfg.out
			if dir == "" {
				dir = "."
			}
			if _, err := report.WritePlots(dir, w.Name, w.result); err != nil {
				return err
			}
		}
		if !cfg.json {
			if err := report.WriteSummary(stdout, w.Name, w.result, cfg.scale); err != nil {
				return err
			}
		}
	}
	if cfg.json {
		enc := json.NewEncoder(stdout)
		return enc.Encode(result)
	}
	return nil
}

func countJobErrors(r EvalResult) int {
	n := 0
	for _, e := range r.Errors {
		if e.Worm != "" {
			n++
		}
	}
	return n
}

func formatError(e EvalErrorData) string {
	switch {
	case e.Worm != "":
		return e.Worm + ": " + e.Message
	case e.Line > 0:
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	default:
		return e.Message
	}
}
