package chart

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ByLCY/trialreport/curves"
	"github.com/ByLCY/trialreport/scale"
)

func hardnessSpec(runs [][]scale.Point) Spec {
	return Spec{
		Width:   500,
		Height:  200,
		Padding: Padding{Top: 15, Right: 25, Bottom: 40, Left: 50},
		X:       Axis{Title: "Distance (mm)", Domain: scale.DistanceRules.Compute([]float64{0.1, 1.9})},
		Y:       Axis{Title: "HV", Domain: scale.HardnessRules.Compute([]float64{500, 700})},
		Curves:  []Curve{{Name: "Profile 1", Runs: runs, Markers: true}},
		Palette: []string{"#3b82f6", "#ef4444"},
	}
}

func byRole(c Chart, role Role) []Primitive {
	var out []Primitive
	for _, p := range c.Primitives {
		if p.Role == role {
			out = append(out, p)
		}
	}
	return out
}

// 场景 D：全部为空值的曲线不产生图表。
func TestComposeAllNullSeries(t *testing.T) {
	runs := curves.Runs([]curves.Sample{{X: 0.1}, {X: 0.2}, {X: 0.3}})
	if _, ok := Compose(hardnessSpec(runs)); ok {
		t.Fatalf("all-null series must not produce a chart")
	}
	if _, ok := Compose(Spec{Width: 100, Height: 100}); ok {
		t.Fatalf("no curves must not produce a chart")
	}
}

func TestComposeSplitsRunsAtNulls(t *testing.T) {
	v := func(x, y float64) curves.Sample { return curves.Sample{X: x, Y: y, Valid: true} }
	runs := curves.Runs([]curves.Sample{v(0.1, 700), v(0.3, 650), {}, v(0.8, 560), v(1.2, 520)})
	ch, ok := Compose(hardnessSpec(runs))
	if !ok {
		t.Fatalf("expected a chart")
	}
	lines := byRole(ch, RoleCurve)
	if len(lines) != 2 {
		t.Fatalf("expected 2 polylines (one per run), got %d", len(lines))
	}
	if got := len(byRole(ch, RoleMarker)); got != 4 {
		t.Fatalf("expected 4 markers, got %d", got)
	}
	for _, l := range lines {
		for _, p := range l.Points {
			if p.X < 50 || p.X > 475 || p.Y < 15 || p.Y > 160 {
				t.Fatalf("curve point %v escapes the plot area", p)
			}
		}
	}
}

func TestComposeSinglePointGetsMarker(t *testing.T) {
	spec := hardnessSpec([][]scale.Point{{{X: 0.5, Y: 600}}})
	spec.Curves[0].Markers = false
	ch, ok := Compose(spec)
	if !ok {
		t.Fatalf("a single valid point still makes a chart")
	}
	if len(byRole(ch, RoleCurve)) != 0 || len(byRole(ch, RoleMarker)) != 1 {
		t.Fatalf("isolated point must be drawn as a marker only")
	}
}

func TestComposePaletteIsDeterministic(t *testing.T) {
	run := [][]scale.Point{{{X: 0, Y: 1}, {X: 1, Y: 2}}}
	spec := hardnessSpec(run)
	spec.Curves = []Curve{{Name: "a", Runs: run}, {Name: "b", Runs: run}, {Name: "c", Runs: run, Color: "#000001"}, {Name: "d", Runs: run}}
	first, _ := Compose(spec)
	second, _ := Compose(spec)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("compose must be deterministic (-first +second):\n%s", diff)
	}
	var got []string
	for _, p := range byRole(first, RoleCurve) {
		got = append(got, p.Stroke)
	}
	want := []string{"#3b82f6", "#ef4444", "#000001", "#ef4444"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("palette assignment (-want +got):\n%s", diff)
	}
}

func TestComposeKeyTicksAreSolid(t *testing.T) {
	run := [][]scale.Point{{{X: 0, Y: 20}, {X: 60, Y: 900}}}
	spec := Spec{
		Width: 500, Height: 220,
		Padding: Padding{Top: 15, Right: 55, Bottom: 30, Left: 50},
		X:       Axis{Domain: scale.TimeRules.Compute([]float64{60}).WithKeys(45)},
		Y:       Axis{Domain: scale.TemperatureRules.Compute([]float64{900}).WithKeys(850)},
		Curves:  []Curve{{Name: "Temperature", Runs: run}},
	}
	ch, _ := Compose(spec)
	keys := byRole(ch, RoleKeyGrid)
	if len(keys) != 2 {
		t.Fatalf("expected 2 key grid lines, got %d", len(keys))
	}
	for _, k := range keys {
		if len(k.Dash) != 0 {
			t.Fatalf("key grid lines must be solid")
		}
	}
	for _, g := range byRole(ch, RoleGrid) {
		if len(g.Dash) == 0 {
			t.Fatalf("regular grid lines must be dashed")
		}
	}
}

func TestComposeSecondaryAxis(t *testing.T) {
	temp := [][]scale.Point{{{X: 0, Y: 20}, {X: 60, Y: 900}}}
	flow := [][]scale.Point{{{X: 0, Y: 0}, {X: 60, Y: 3000}}}
	y2 := Axis{Title: "Flow (Nl/h)", Domain: scale.GasFlowRules.Compute([]float64{3000})}
	spec := Spec{
		Width: 500, Height: 220,
		Padding: Padding{Top: 15, Right: 55, Bottom: 30, Left: 50},
		X:       Axis{Title: "Time (min)", Domain: scale.TimeRules.Compute([]float64{60})},
		Y:       Axis{Title: "Temp. (°C)", Domain: scale.TemperatureRules.Compute([]float64{900})},
		Y2:      &y2,
		Curves:  []Curve{{Name: "T", Runs: temp}, {Name: "N2", Axis: Secondary, Runs: flow}},
	}
	ch, ok := Compose(spec)
	if !ok {
		t.Fatalf("expected chart")
	}
	if got := len(byRole(ch, RoleArrow)); got != 3 {
		t.Fatalf("dual-axis chart needs 3 arrowheads, got %d", got)
	}
	curvesOut := byRole(ch, RoleCurve)
	// N2 at 3000 on a 0..4000 axis sits below the top of the plot
	top := curvesOut[1].Points[1].Y
	want := 15 + (175 - 3000.0/y2.Domain.Max*175)
	if abs(top-want) > 1e-6 {
		t.Fatalf("secondary mapping: got y=%g want %g", top, want)
	}
}

func TestSpecLineRange(t *testing.T) {
	from, to := 0.6, 0.9
	spec := hardnessSpec([][]scale.Point{{{X: 0.1, Y: 700}, {X: 1.9, Y: 500}}})
	spec.SpecLines = []SpecLine{
		{Value: 550, From: &from, To: &to, Label: "ECD: 0.6-0.9mm @ 550 HV"},
		{Value: 650, Label: "Surface"},
		{Value: 5000, Label: "off scale"},
	}
	ch, _ := Compose(spec)
	lines := byRole(ch, RoleSpec)
	if len(lines) != 2 {
		t.Fatalf("out-of-domain spec line must be skipped, got %d lines", len(lines))
	}
	m := scale.NewMapper(spec.X.Domain, spec.Y.Domain, 425, 145)
	if abs(lines[0].Points[0].X-(50+m.MapX(0.6))) > 1e-9 || abs(lines[0].Points[1].X-(50+m.MapX(0.9))) > 1e-9 {
		t.Fatalf("ranged spec line spans wrong interval: %v", lines[0].Points)
	}
	if lines[1].Points[0].X != 50 || abs(lines[1].Points[1].X-475) > 1e-9 {
		t.Fatalf("unranged spec line must span the plot width: %v", lines[1].Points)
	}

	legend := byRole(ch, RoleLegend)
	var labels []string
	for _, p := range legend {
		if p.Kind == KindText {
			labels = append(labels, p.Text)
		}
	}
	if diff := cmp.Diff([]string{"Profile 1", "ECD: 0.6-0.9mm @ 550 HV", "Surface"}, labels); diff != "" {
		t.Fatalf("legend order (-want +got):\n%s", diff)
	}
	if ch.Height != 200+legendRow {
		t.Fatalf("legend row must extend the chart height, got %g", ch.Height)
	}
}

func TestFormatTick(t *testing.T) {
	cases := []struct {
		v, step float64
		want    string
	}{
		{1000, 500, "1,000"},
		{0, 100, "0"},
		{0.4, 0.2, "0.4"},
		{1.25, 0.5, "1.25"},
		{3500, 250, "3,500"},
	}
	for _, c := range cases {
		if got := FormatTick(c.v, c.step); got != c.want {
			t.Fatalf("FormatTick(%g, %g) = %q want %q", c.v, c.step, got, c.want)
		}
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
