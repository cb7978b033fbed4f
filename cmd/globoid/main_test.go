package main

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chazu/globoid/pkg/gear"
)

func readExample(t *testing.T) string {
	t.Helper()
	source, err := os.ReadFile("../../examples/worms.worm")
	if err != nil {
		t.Fatalf("failed to read worms.worm: %v", err)
	}
	return string(source)
}

func TestParseFlagsDefaults(t *testing.T) {
	cfg, err := parseFlags(nil)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.params != gear.DefaultParameters() {
		t.Errorf("params = %+v, want defaults", cfg.params)
	}
	if cfg.scale != 10 || cfg.out != "" || cfg.script != "" || cfg.samples != 0 {
		t.Errorf("unexpected defaults %+v", cfg)
	}
}

func TestParseFlags(t *testing.T) {
	cfg, err := parseFlags([]string{
		"-module", "0.25", "-arc-angle", "60", "-teeth", "3", "-ref-radius", "1.5",
		"-falloff", "2", "-samples", "20", "-tolerance", "0.05", "-equations",
		"-plot", "-out", "build", "-unit-scale", "1", "-name", "w",
	})
	if err != nil {
		t.Fatal(err)
	}
	want := gear.Parameters{Module: 0.25, ArcAngle: 60, TeethInArc: 3, RefRadius: 1.5, FalloffRate: 2}
	if cfg.params != want {
		t.Errorf("params = %+v, want %+v", cfg.params, want)
	}
	if cfg.samples != 20 || cfg.tolerance != 0.05 || !cfg.equations || !cfg.plot ||
		cfg.out != "build" || cfg.scale != 1 || cfg.name != "w" {
		t.Errorf("unexpected config %+v", cfg)
	}
}

func TestParseFlagsErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown flag", []string{"-teeths", "5"}},
		{"bad number", []string{"-module", "big"}},
		{"positional", []string{"worms.worm"}},
		{"zero scale", []string{"-unit-scale", "0"}},
		{"name escapes out", []string{"-name", "../w"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseFlags(tt.args); err == nil {
				t.Errorf("parseFlags(%v) should fail", tt.args)
			}
		})
	}
	if _, err := parseFlags([]string{"-h"}); err != flag.ErrHelp {
		t.Errorf("-h should return flag.ErrHelp, got %v", err)
	}
}

func TestRunFlagsWritesSTL(t *testing.T) {
	dir := t.TempDir()
	cfg, err := parseFlags([]string{"-out", dir, "-name", "ref", "-equations", "-plot"})
	if err != nil {
		t.Fatal(err)
	}
	var stdout bytes.Buffer
	if err := run(cfg, &stdout); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "ref.stl"))
	if err != nil {
		t.Fatal(err)
	}
	if len(data) < 84 {
		t.Fatalf("STL too short: %d bytes", len(data))
	}
	n := binary.LittleEndian.Uint32(data[80:84])
	if n == 0 || len(data) != 84+50*int(n) {
		t.Errorf("STL has %d bytes for %d triangles", len(data), n)
	}
	for _, name := range []string{"ref-radius.png", "ref-top.png"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing plot: %v", err)
		}
	}

	out := stdout.String()
	for _, want := range []string{"radius(u) =", "ref\n", "center distance  32.0000"} {
		if !strings.Contains(out, want) {
			t.Errorf("stdout missing %q:\n%s", want, out)
		}
	}
}

func TestRunInvalidParameters(t *testing.T) {
	dir := t.TempDir()
	cfg, err := parseFlags([]string{"-out", dir, "-arc-angle", "91"})
	if err != nil {
		t.Fatal(err)
	}
	if err := run(cfg, &bytes.Buffer{}); err == nil {
		t.Fatal("expected run to fail")
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("nothing should be written, found %d files", len(entries))
	}
}

func TestRunScriptJSON(t *testing.T) {
	script := filepath.Join(t.TempDir(), "w.worm")
	if err := os.WriteFile(script, []byte(`(worm :name "a") (worm :name "b" :arc-angle 60 :teeth-in-arc 3)`), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := parseFlags([]string{"-script", script, "-json", "-samples", "10"})
	if err != nil {
		t.Fatal(err)
	}
	var stdout bytes.Buffer
	if err := run(cfg, &stdout); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	var got EvalResult
	if err := json.Unmarshal(stdout.Bytes(), &got); err != nil {
		t.Fatalf("stdout is not JSON: %v\n%s", err, stdout.String())
	}
	if len(got.Worms) != 2 || got.Worms[0].Name != "a" || got.Worms[1].Name != "b" {
		t.Fatalf("worms = %+v", got.Worms)
	}
	if got.Worms[1].ToothCount != 18 {
		t.Errorf("b tooth count = %d, want 18", got.Worms[1].ToothCount)
	}
	if len(got.Worms[0].Mesh.Indices) == 0 {
		t.Error("JSON mesh should carry indices")
	}
}

func TestRunScriptNameStaysInOut(t *testing.T) {
	root := t.TempDir()
	out := filepath.Join(root, "out")
	script := filepath.Join(root, "w.worm")
	if err := os.WriteFile(script, []byte(`(worm :name "../escaped" :samples 10)`), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := parseFlags([]string{"-script", script, "-out", out})
	if err != nil {
		t.Fatal(err)
	}
	if err := run(cfg, &bytes.Buffer{}); err == nil {
		t.Fatal("expected run to fail")
	}
	if _, err := os.Stat(filepath.Join(root, "escaped.stl")); !os.IsNotExist(err) {
		t.Errorf("STL written outside -out: %v", err)
	}
	entries, _ := os.ReadDir(out)
	if len(entries) != 0 {
		t.Errorf("nothing should be written, found %d files", len(entries))
	}
}

func TestRunMissingScript(t *testing.T) {
	cfg, err := parseFlags([]string{"-script", filepath.Join(t.TempDir(), "none.worm")})
	if err != nil {
		t.Fatal(err)
	}
	if err := run(cfg, &bytes.Buffer{}); err == nil {
		t.Fatal("expected error for a missing script")
	}
}

func TestFormatError(t *testing.T) {
	tests := []struct {
		in   EvalErrorData
		want string
	}{
		{EvalErrorData{Worm: "w", Message: "failed"}, "w: failed"},
		{EvalErrorData{Line: 3, Message: "bad"}, "line 3: bad"},
		{EvalErrorData{Message: "timeout"}, "timeout"},
	}
	for _, tt := range tests {
		if got := formatError(tt.in); got != tt.want {
			t.Errorf("formatError(%+v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
