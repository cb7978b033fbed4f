package main

import (
	"log"

	"github.com/chazu/globoid/pkg/assemble"
	"github.com/chazu/globoid/pkg/engine"
	"github.com/chazu/globoid/pkg/kernel"
	"github.com/chazu/globoid/pkg/kernel/facet"
	"github.com/chazu/globoid/pkg/kernel/sdfx"
)

// colorPalette is a default palette used to assign distinct colors to worms.
var colorPalette = []string{
	"#4A90D9", "#E67E22", "#2ECC71", "#9B59B6",
	"#E74C3C", "#1ABC9C", "#F39C12", "#3498DB",
}

// sketchPlane is the name of the plane every curve is sketched on.
const sketchPlane = "xy"

// App runs worm jobs through the geometry pipeline.
type App struct {
	engine *engine.Engine

	// newKernel returns the kernel for one job. Each job gets its own
	// kernel so a failed run leaves nothing behind for the next one.
	newKernel func() kernel.Kernel

	// scale multiplies every exported length.
	scale float64

	// jobHook, when set, adjusts each job before it is generated.
	jobHook func(engine.Job) engine.Job
}

// MeshData is the JSON-serializable mesh format.
type MeshData struct {
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals"`
	Indices  []uint32  `json:"indices"`
	PartName string    `json:"partName"`
	Color    string    `json:"color"`
}

// WormData summarizes one generated worm.
type WormData struct {
	Name           string   `json:"name"`
	ToothCount     int      `json:"toothCount"`
	CenterDistance float64  `json:"centerDistance"` // scaled
	Volume         float64  `json:"volume,omitempty"`
	Area           float64  `json:"area,omitempty"`
	Mesh           MeshData `json:"mesh"`

	result *assemble.Result
}

// EvalErrorData is a JSON-serializable error. Line and Col are zero for
// errors raised after the script evaluated.
type EvalErrorData struct {
	Worm    string `json:"worm,omitempty"`
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// EvalResult is the full result of one run.
type EvalResult struct {
	Worms  []WormData      `json:"worms"`
	Errors []EvalErrorData `json:"errors"`
}

// NewApp creates a new App with an engine and the facet kernel.
func NewApp(scale float64) *App {
	return &App{
		engine:    engine.NewEngine(),
		newKernel: func() kernel.Kernel { return facet.New() },
		scale:     scale,
	}
}

// Evaluate takes a worm script and generates every worm it declares.
func (a *App) Evaluate(source string) EvalResult {
	result := EvalResult{
		Worms:  []WormData{},
		Errors: []EvalErrorData{},
	}

	// Step 1: Evaluate the script into jobs.
	jobs, evalErrs, err := a.engine.Evaluate(source)
	if err != nil {
		// Fatal error (panic, timeout, etc.)
		log.Printf("Evaluate fatal error: %v", err)
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return result
	}

	// Step 2: Convert eval errors to the output format.
	if len(evalErrs) > 0 {
		for _, e := range evalErrs {
			result.Errors = append(result.Errors, EvalErrorData{
				Line:    e.Line,
				Col:     e.Col,
				Message: e.Message,
			})
		}
		return result
	}

	// Step 3: Generate the jobs.
	a.run(&result, jobs)
	return result
}

// Run generates jobs that did not come from a script.
func (a *App) Run(jobs ...engine.Job) EvalResult {
	result := EvalResult{
		Worms:  []WormData{},
		Errors: []EvalErrorData{},
	}
	a.run(&result, jobs)
	return result
}

// run generates each job in order. A failed job is reported and does not
// stop the others.
func (a *App) run(result *EvalResult, jobs []engine.Job) {
	for _, job := range jobs {
		if a.jobHook != nil {
			job = a.jobHook(job)
		}
		w, err := a.generate(job)
		if err != nil {
			log.Printf("Generate %s error: %v", job.Name, err)
			result.Errors = append(result.Errors, EvalErrorData{
				Worm:    job.Name,
				Message: "generation failed: " + err.Error(),
			})
			continue
		}
		w.Mesh.Color = colorPalette[len(result.Worms)%len(colorPalette)]
		result.Worms = append(result.Worms, w)
	}
}

// generate builds one worm on a fresh kernel.
func (a *App) generate(job engine.Job) (WormData, error) {
	k := a.newKernel()
	plane, err := k.SketchPlane(sketchPlane)
	if err != nil {
		return WormData{}, err
	}
	res, err := assemble.Generate(k, plane, job.Params, job.Options)
	if err != nil {
		return WormData{}, err
	}

	m := sdfx.ToMesh(sdfx.Triangles(res.Shell, a.scale), job.Name)
	w := WormData{
		Name:           job.Name,
		ToothCount:     res.Constants.ToothCount,
		CenterDistance: res.CenterDistance * a.scale,
		Mesh: MeshData{
			Vertices: m.Vertices,
			Normals:  m.Normals,
			Indices:  m.Indices,
			PartName: m.PartName,
		},
		result: res,
	}
	if m, ok := res.Shell.(interface {
		Volume() float64
		Area() float64
	}); ok {
		w.Volume = m.Volume() * a.scale * a.scale * a.scale
		w.Area = m.Area() * a.scale * a.scale
	}
	return w, nil
}
