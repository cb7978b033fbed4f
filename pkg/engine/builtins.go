package engine

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/chazu/globoid/pkg/assemble"
	"github.com/chazu/globoid/pkg/gear"
	"github.com/chazu/globoid/pkg/spiral"
	zygo "github.com/glycerine/zygomys/zygo"
)

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpWorm is returned by `worm` so scripts can print what they declared.
type sexpWorm struct {
	job Job
}

func (w *sexpWorm) SexpString(ps *zygo.PrintState) string {
	p := w.job.Params
	return fmt.Sprintf("(worm %q :module %g :arc-angle %g :teeth-in-arc %d :ref-radius %g :falloff-rate %g)",
		w.job.Name, p.Module, p.ArcAngle, p.TeethInArc, p.RefRadius, p.FalloffRate)
}
func (w *sexpWorm) Type() *zygo.RegisteredType { return nil }

// sexpPair wraps an assemble.Pair built by `pair`.
type sexpPair struct {
	pair assemble.Pair
}

func (p *sexpPair) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(pair :%s :%s)", p.pair.A, p.pair.B)
}
func (p *sexpPair) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok || !strings.HasPrefix(str.S, kwPrefix) {
		return "", false
	}
	return str.S[len(kwPrefix):], true
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	for i := 0; i < len(args); i++ {
		name, ok := isKW(args[i])
		if !ok {
			result.positional = append(result.positional, args[i])
			continue
		}
		if i+1 < len(args) {
			result.kw[name] = args[i+1]
			i++
		} else {
			// Trailing keyword with no value.
			result.kw[name] = zygo.SexpNull
		}
	}
	return result
}

// unknownKeywords returns the keywords in pa that are not in allowed,
// sorted for stable messages.
func (pa kwArgs) unknownKeywords(allowed ...string) []string {
	var out []string
outer:
	for k := range pa.kw {
		for _, a := range allowed {
			if k == a {
				continue outer
			}
		}
		out = append(out, ":"+k)
	}
	sort.Strings(out)
	return out
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toInt extracts a whole number. Floats are accepted only when integral.
func toInt(s zygo.Sexp) (int, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return int(v.Val), nil
	case *zygo.SexpFloat:
		if v.Val == math.Trunc(v.Val) && !math.IsInf(v.Val, 0) {
			return int(v.Val), nil
		}
		return 0, fmt.Errorf("expected whole number, got %g", v.Val)
	}
	return 0, fmt.Errorf("expected whole number, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString extracts a keyword name or plain string from a Sexp.
// Handles both preprocessed keywords (__kw_tip-top) and plain strings.
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	return strings.TrimPrefix(str.S, kwPrefix), nil
}

// toRole converts a keyword such as :tip-top to a curve role.
func toRole(s zygo.Sexp) (spiral.Role, error) {
	name, err := toKeywordString(s)
	if err != nil {
		return 0, fmt.Errorf("expected role keyword: %w", err)
	}
	r, ok := spiral.ParseRole(name)
	if !ok {
		return 0, fmt.Errorf("invalid role %q, expected tip-top, tip-bottom, root-top or root-bottom", name)
	}
	return r, nil
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// collector accumulates the jobs declared during one evaluation.
// ValidateName checks that a worm name can name its output files: it must
// be a single path element.
func ValidateName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("worm name must not be empty")
	case name == "." || name == "..":
		return fmt.Errorf("worm name %q is not a file name", name)
	case strings.ContainsAny(name, `/\`):
		return fmt.Errorf("worm name %q must not contain path separators", name)
	}
	return nil
}

type collector struct {
	jobs  []Job
	names map[string]bool
}

func (c *collector) add(j Job) error {
	if c.names == nil {
		c.names = make(map[string]bool)
	}
	if j.Name == "" {
		j.Name = fmt.Sprintf("worm-%d", len(c.jobs)+1)
	}
	if err := ValidateName(j.Name); err != nil {
		return err
	}
	if c.names[j.Name] {
		return fmt.Errorf("duplicate worm name %q", j.Name)
	}
	c.names[j.Name] = true
	c.jobs = append(c.jobs, j)
	return nil
}

// wormKeywords lists every keyword `worm` accepts.
var wormKeywords = []string{
	"name", "module", "arc-angle", "teeth-in-arc", "ref-radius",
	"falloff-rate", "samples", "tolerance", "pairs",
}

// parseWorm builds a Job from worm arguments. Omitted gear parameters keep
// their defaults; values are not range-checked here, generation does that.
func parseWorm(args []zygo.Sexp) (Job, error) {
	pa := parseArgs(args)
	if len(pa.positional) > 0 {
		return Job{}, fmt.Errorf("unexpected positional argument %s", pa.positional[0].SexpString(nil))
	}
	if unknown := pa.unknownKeywords(wormKeywords...); len(unknown) > 0 {
		return Job{}, fmt.Errorf("unknown keyword %s", strings.Join(unknown, ", "))
	}

	job := Job{Params: gear.DefaultParameters()}
	floats := []struct {
		kw  string
		dst *float64
	}{
		{"module", &job.Params.Module},
		{"arc-angle", &job.Params.ArcAngle},
		{"ref-radius", &job.Params.RefRadius},
		{"falloff-rate", &job.Params.FalloffRate},
		{"tolerance", &job.Options.Tolerance},
	}
	for _, f := range floats {
		if v, ok := pa.kw[f.kw]; ok {
			x, err := toFloat64(v)
			if err != nil {
				return Job{}, fmt.Errorf("%s: %w", f.kw, err)
			}
			*f.dst = x
		}
	}
	ints := []struct {
		kw  string
		dst *int
	}{
		{"teeth-in-arc", &job.Params.TeethInArc},
		{"samples", &job.Options.Samples},
	}
	for _, f := range ints {
		if v, ok := pa.kw[f.kw]; ok {
			n, err := toInt(v)
			if err != nil {
				return Job{}, fmt.Errorf("%s: %w", f.kw, err)
			}
			*f.dst = n
		}
	}
	if v, ok := pa.kw["name"]; ok {
		s, err := toString(v)
		if err != nil {
			return Job{}, fmt.Errorf("name: %w", err)
		}
		job.Name = s
	}
	if v, ok := pa.kw["pairs"]; ok {
		items, err := sexpListToSlice(v)
		if err != nil {
			return Job{}, fmt.Errorf("pairs: %w", err)
		}
		for _, item := range items {
			p, ok := item.(*sexpPair)
			if !ok {
				return Job{}, fmt.Errorf("pairs: expected (pair ...), got %T (%s)", item, item.SexpString(nil))
			}
			job.Options.Pairs = append(job.Options.Pairs, p.pair)
		}
	}
	return job, nil
}

// registerBuiltins installs the worm script builtins into a zygomys
// environment. Declared worms are appended to c.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, c *collector) {

	// -----------------------------------------------------------------------
	// (worm :name "w" :module 0.2 :arc-angle 90 :teeth-in-arc 5
	//       :ref-radius 1.2 :falloff-rate 0 :samples 50 :tolerance 0.1
	//       :pairs (list (pair :tip-top :tip-bottom) ...))
	// -----------------------------------------------------------------------
	env.AddFunction("worm", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		job, err := parseWorm(args)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("worm: %w", err)
		}
		if err := c.add(job); err != nil {
			return zygo.SexpNull, fmt.Errorf("worm: %w", err)
		}
		return &sexpWorm{job: c.jobs[len(c.jobs)-1]}, nil
	})

	// -----------------------------------------------------------------------
	// (pair :tip-top :tip-bottom)
	// -----------------------------------------------------------------------
	env.AddFunction("pair", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("pair requires exactly 2 roles, got %d", len(args))
		}
		a, err := toRole(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("pair: first: %w", err)
		}
		b, err := toRole(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("pair: second: %w", err)
		}
		return &sexpPair{pair: assemble.Pair{A: a, B: b}}, nil
	})

	// -----------------------------------------------------------------------
	// (total-teeth 90 5) => 20.0, the unrounded (360/arc)*teeth
	// -----------------------------------------------------------------------
	env.AddFunction("total_teeth", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("total-teeth requires an arc angle and a tooth count")
		}
		arc, err := toFloat64(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("total-teeth: arc angle: %w", err)
		}
		teeth, err := toInt(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("total-teeth: teeth: %w", err)
		}
		p := gear.Parameters{ArcAngle: arc, TeethInArc: teeth}
		return &zygo.SexpFloat{Val: p.TotalTeeth()}, nil
	})
}
