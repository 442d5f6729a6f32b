package model

import (
	"context"
	"flag"
	"math/cmplx"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wildstyl3r/sfi/internal/config"
	"github.com/wildstyl3r/sfi/internal/solver"
	"github.com/wildstyl3r/sfi/internal/stage"
)

func parameters(t *testing.T, text string) config.ModelParameters {
	t.Helper()
	c, meta, err := config.DecodeConfig(text)
	if err != nil {
		t.Fatal(err)
	}
	p := c.Models["m"]
	if err := p.CheckAndUnify("m", &c, &meta); err != nil {
		t.Fatal(err)
	}
	return p
}

const flatModel = `
[Models.m]
F = 0.05
Ip = 0.5
Envelope = "constant"
Stages = ["ion"]
LeftBorder = 5.0
RightBorder = 40.0
Frequency = 2
QuadraturePoints = 8
MaxIterations = 20
SweepFrom = 0.0
SweepTo = 10.0
SweepPoints = 2
`

func TestModel_SweepAndCache(t *testing.T) {
	dir := t.TempDir()
	p := parameters(t, flatModel)
	m, err := NewModel("m", p, dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	if m.GridSize() != 4 {
		t.Errorf("want 4 seeds, got %d", m.GridSize())
	}

	var progress []int
	points, err := m.Sweep(context.Background(), func(done, total int) {
		if total != 2 {
			t.Errorf("want 2 points in total, got %d", total)
		}
		progress = append(progress, done)
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(points) != 2 || points[0].Delay != 0 || points[1].Delay != 10 {
		t.Fatalf("unexpected points %+v", points)
	}
	if len(progress) != 2 || progress[1] != 2 {
		t.Errorf("unexpected progress %v", progress)
	}
	found := false
	for _, pt := range points {
		if len(pt.Solutions) > 0 && pt.Value != 0 {
			found = true
		}
		if len(pt.Solutions) == 0 && pt.Value != 0 {
			t.Errorf("no saddle points must give a zero observable, got %v", pt.Value)
		}
		if cmplx.IsNaN(pt.Value) || cmplx.IsInf(pt.Value) {
			t.Errorf("observable should be finite, got %v", pt.Value)
		}
	}
	if !found {
		t.Errorf("want saddle points and a non-zero observable somewhere in the sweep, got %+v", points)
	}

	names, err := stage.NewEquationCache(filepath.Join(dir, "constant"), nil).List()
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(names, ",") != "equation_1,equation_2,ion_stage" {
		t.Errorf("unexpected cached equations %v", names)
	}
	if _, err := NewModel("again", p, dir, nil); err != nil {
		t.Errorf("model from cached equations: %v", err)
	}
}

func TestModel_Errors(t *testing.T) {
	p := parameters(t, flatModel)
	p.Envelope = "square"
	if _, err := NewModel("m", p, t.TempDir(), nil); err == nil {
		t.Error("unknown envelope should fail")
	}

	p = parameters(t, flatModel)
	p.Stages = []string{"tunnel"}
	if _, err := NewModel("m", p, t.TempDir(), nil); err == nil {
		t.Error("unknown stage should fail")
	}

	p = parameters(t, flatModel)
	m, err := NewModel("m", p, t.TempDir(), nil)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := m.Sweep(ctx, nil); err == nil {
		t.Error("cancelled sweep should fail")
	}
}

func TestDataExtractor_Save(t *testing.T) {
	out := t.TempDir()
	p := parameters(t, `
InputUnits = ["fs"]

[Models.m]
F = 0.05
Ip = 0.5
Td = 1.0
`)
	cache := stage.NewEquationCache(filepath.Join(out, "formulas"), nil)
	os.MkdirAll(filepath.Join(out, "formulas"), 0750)
	os.WriteFile(filepath.Join(out, "formulas", "equation_1"), []byte("x - y"), 0644)

	m := &Model{Name: "m", Parameters: p, Cache: cache}
	td := p.Delays()[0]
	points := []Point{
		{Delay: td, Value: 3 + 4i, Solutions: []solver.Solution{{complex(td, 0), 0}, {0, complex(0, td)}}},
	}

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	df := NewDataFlags(fs)
	if err := fs.Parse([]string{"-sol", "-eq", "-png"}); err != nil {
		t.Fatal(err)
	}
	df.SetOutputPath(out)
	if df.GetOutputPath() != out {
		t.Fatalf("want output path %s, got %s", out, df.GetOutputPath())
	}
	if err := NewDataExtractor(m, points).Save(df); err != nil {
		t.Fatal(err)
	}

	obs, _ := os.ReadFile(filepath.Join(out, "m_obs.csv"))
	if string(obs) != "n,T_d,abs,re,im\n0,1,5,3,4\n" {
		t.Errorf("unexpected observable table %q", obs)
	}
	sol, _ := os.ReadFile(filepath.Join(out, "m_sol.csv"))
	if string(sol) != "T_d,re t1,im t1,re t2,im t2\n1,1,0,0,0\n1,0,0,0,1\n" {
		t.Errorf("unexpected saddle point table %q", sol)
	}
	eq, _ := os.ReadFile(filepath.Join(out, "m_eq.txt"))
	if string(eq) != "equation_1 = x - y\n" {
		t.Errorf("unexpected equations %q", eq)
	}
	if _, err := os.Stat(filepath.Join(out, "m_obs.png")); err != nil {
		t.Errorf("chart was not written: %v", err)
	}
}

func TestDataExtractor_ObservableSwitchedOff(t *testing.T) {
	out := t.TempDir()
	p := parameters(t, flatModel)
	m := &Model{Name: "m", Parameters: p, Cache: stage.NewEquationCache(filepath.Join(out, "formulas"), nil)}

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	df := NewDataFlags(fs)
	if err := fs.Parse([]string{"-obs=false"}); err != nil {
		t.Fatal(err)
	}
	df.SetOutputPath(out)
	if err := NewDataExtractor(m, []Point{{Delay: 0, Value: 1}}).Save(df); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(out, "m_obs.csv")); !os.IsNotExist(err) {
		t.Errorf("observable table should not be written, stat: %v", err)
	}
}
