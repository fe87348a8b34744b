package scale

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestComputeDomainStepEscalation(t *testing.T) {
	esc := TemperatureRules.Escalation
	cases := []struct {
		name     string
		values   []float64
		wantMax  float64
		wantStep float64
	}{
		{"exact multiple stays", []float64{900}, 1000, 200},
		{"headroom adds a step", []float64{1150}, 1400, 200},
		{"last threshold wins", []float64{1300}, 1500, 500},
		{"base step", []float64{20, 350}, 400, 100},
		{"touching top edge", []float64{95}, 200, 100},
		{"negatives clamp to zero", []float64{-40}, 100, 100},
	}
	for _, c := range cases {
		d := ComputeDomain(c.values, 100, esc, 100)
		if d.Max != c.wantMax || d.Step != c.wantStep {
			t.Fatalf("%s: got max=%g step=%g, want max=%g step=%g", c.name, d.Max, d.Step, c.wantMax, c.wantStep)
		}
		if d.Ticks[0] != 0 || d.Ticks[len(d.Ticks)-1] != d.Max {
			t.Fatalf("%s: ticks must span [0,max]: %v", c.name, d.Ticks)
		}
	}
}

func TestComputeDomainUnsortedEscalation(t *testing.T) {
	d := ComputeDomain([]float64{1300}, 100, []Escalation{{1200, 500}, {500, 200}}, 0)
	if d.Step != 500 {
		t.Fatalf("escalation must be walked in ascending threshold order, got step %g", d.Step)
	}
}

func TestComputeDomainEmptyNeverFails(t *testing.T) {
	for _, values := range [][]float64{nil, {}, {math.NaN()}, {math.Inf(1)}} {
		d := ComputeDomain(values, 100, nil, 100)
		if d.Max < 100 {
			t.Fatalf("empty domain max %g < minDomain", d.Max)
		}
		if diff := cmp.Diff([]float64{0, 100}, d.Ticks); diff != "" {
			t.Fatalf("ticks mismatch (-want +got):\n%s", diff)
		}
	}
	d := ComputeDomain(nil, 0, nil, 0)
	if d.Max <= 0 || d.Step != 1 {
		t.Fatalf("zero inputs must still produce a usable domain: %+v", d)
	}
}

func TestWithKeysMergesAndDeduplicates(t *testing.T) {
	d := ComputeDomain([]float64{900}, 100, TemperatureRules.Escalation, 100).WithKeys(900, 850, 900, 2000, 400)
	want := []float64{0, 200, 400, 600, 800, 850, 900, 1000}
	if diff := cmp.Diff(want, d.Ticks); diff != "" {
		t.Fatalf("ticks mismatch (-want +got):\n%s", diff)
	}
	if !d.IsKey(850) || !d.IsKey(400) || d.IsKey(200) || d.IsKey(2000) {
		t.Fatalf("key membership wrong: %v", d.Keys)
	}
}

func TestHardnessRulesFloorMin(t *testing.T) {
	d := HardnessRules.Compute([]float64{620, 700, 780})
	if d.Min != 600 || d.Max != 900 || d.Step != 100 {
		t.Fatalf("unexpected hardness domain: %+v", d)
	}
	if diff := cmp.Diff([]float64{600, 700, 800, 900}, d.Ticks); diff != "" {
		t.Fatalf("ticks mismatch (-want +got):\n%s", diff)
	}
}

func TestDistanceTicksHaveNoFloatNoise(t *testing.T) {
	d := DistanceRules.Compute([]float64{0.1, 0.5, 1.9})
	if d.Max != 2.2 {
		t.Fatalf("max: got %g want 2.2", d.Max)
	}
	for i, tick := range d.Ticks {
		want := math.Round(float64(i)*2) / 10
		if tick != want {
			t.Fatalf("tick %d: got %v want %v", i, tick, want)
		}
	}
}

func TestMapper(t *testing.T) {
	m := NewMapper(Domain{Min: 0, Max: 60}, Domain{Min: 0, Max: 1000}, 400, 200)
	if got := m.MapX(30); got != 200 {
		t.Fatalf("MapX(30) = %g", got)
	}
	if got := m.MapY(0); got != 200 {
		t.Fatalf("MapY(0) = %g (value 0 must sit at the bottom)", got)
	}
	if got := m.MapY(1000); got != 0 {
		t.Fatalf("MapY(max) = %g", got)
	}
	p := m.MapPoint(Point{X: 60, Y: 500})
	if p != (Point{X: 400, Y: 100}) {
		t.Fatalf("MapPoint = %+v", p)
	}
}

func TestMapperDegenerateDomain(t *testing.T) {
	m := NewMapper(Domain{Min: 5, Max: 5}, Domain{Min: 7, Max: 7}, 100, 50)
	for _, v := range []float64{m.MapX(5), m.MapX(6), m.MapY(7), m.MapY(8)} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("degenerate domain produced %v", v)
		}
	}
	if m.MapX(6) != 100 || m.MapY(8) != 0 {
		t.Fatalf("minimum span of 1 not applied: x=%g y=%g", m.MapX(6), m.MapY(8))
	}
}
