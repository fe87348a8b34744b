package curves

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ByLCY/trialreport/scale"
)

func pts(xy ...float64) []scale.Point {
	out := make([]scale.Point, 0, len(xy)/2)
	for i := 0; i+1 < len(xy); i += 2 {
		out = append(out, scale.Point{X: xy[i], Y: xy[i+1]})
	}
	return out
}

// 场景 A：单个升温步骤。
func TestThermalSingleRamp(t *testing.T) {
	got := Thermal(20, []ThermalStep{{Ramp: RampUp, Setpoint: 900, Duration: 60}})
	want := pts(0, 20, 0, 20, 60, 900, 60, 900)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("thermal path mismatch (-want +got):\n%s", diff)
	}
}

func TestThermalContinueHoldsOwnSetpoint(t *testing.T) {
	steps := []ThermalStep{
		{Ramp: RampUp, Setpoint: 850, Duration: 30},
		{Ramp: RampContinue, Setpoint: 860, Duration: 120},
		{Ramp: RampDown, Setpoint: 200, Duration: 45},
	}
	got := Thermal(20, steps)
	want := pts(
		0, 20,
		0, 20, 30, 850,
		30, 860, 150, 860,
		150, 860, 195, 200,
		195, 200,
	)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("thermal path mismatch (-want +got):\n%s", diff)
	}
	// hold segment is flat at the step's own setpoint
	if got[3].Y != 860 || got[4].Y != 860 {
		t.Fatalf("continue step must hold at 860, got %v %v", got[3], got[4])
	}
}

func TestThermalEmptyAndNegativeDuration(t *testing.T) {
	if got := Thermal(20, nil); got != nil {
		t.Fatalf("empty cycle must produce no path, got %v", got)
	}
	got := Thermal(20, []ThermalStep{{Ramp: RampUp, Setpoint: 500, Duration: -5}})
	want := pts(0, 20, 0, 20, 0, 500, 0, 500)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("negative duration must clamp to 0 (-want +got):\n%s", diff)
	}
}

func TestGasWaitPhaseAndSteps(t *testing.T) {
	wait := Wait{Gas: "N2", Time: 10, Flow: 500}
	steps := []ChemicalStep{
		{Time: 600, Gases: []GasFlow{{Gas: "N2", Debit: 1000}, {Gas: "C2H2", Debit: 200}}},
		{Time: 300, Gases: []GasFlow{{Gas: "N2", Debit: 1000}, {Gas: "C2H2", Debit: 400}}},
		{Time: 600},
	}

	n2 := Gas("N2", wait, steps)
	wantN2 := pts(0, 500, 10, 500, 10, 0, 10, 1000, 20, 1000, 25, 1000, 25, 0, 25, 0, 35, 0)
	if diff := cmp.Diff(wantN2, n2); diff != "" {
		t.Fatalf("N2 path mismatch (-want +got):\n%s", diff)
	}

	c2h2 := Gas("C2H2", wait, steps)
	wantC2H2 := pts(10, 0, 10, 200, 20, 200, 20, 0, 20, 400, 25, 400, 25, 0, 25, 0, 35, 0)
	if diff := cmp.Diff(wantC2H2, c2h2); diff != "" {
		t.Fatalf("C2H2 path mismatch (-want +got):\n%s", diff)
	}
}

func TestGasLastStepFallsBackToZero(t *testing.T) {
	got := Gas("H2", Wait{}, []ChemicalStep{{Time: 600, Gases: []GasFlow{{Gas: "H2", Debit: 300}}}})
	want := pts(0, 0, 0, 300, 10, 300, 10, 0)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("H2 path mismatch (-want +got):\n%s", diff)
	}
	if v := Volume(got); v != 50 {
		t.Fatalf("volume: got %g want 50 Nl", v)
	}
}

func TestGasSetDropsSinglePointCurves(t *testing.T) {
	if got := GasSet([]string{"N2", "", "N2"}, Wait{Gas: "H2"}, nil); got != nil {
		t.Fatalf("curves without steps must be dropped, got %+v", got)
	}
	got := GasSet([]string{"N2"}, Wait{Gas: "H2", Time: 5, Flow: 100}, []ChemicalStep{{Time: 60, Gases: []GasFlow{{Gas: "N2", Debit: 10}}}})
	if len(got) != 2 || got[0].Gas != "N2" || got[1].Gas != "H2" {
		t.Fatalf("wait gas must be appended after the selected gases: %+v", got)
	}
}

func TestRunsSplitAtMissingValues(t *testing.T) {
	v := func(x, y float64) Sample { return Sample{X: x, Y: y, Valid: true} }
	null := Sample{}
	samples := []Sample{v(0.1, 700), null, v(0.3, 680), v(0.4, 650), null, null, v(0.7, 600), v(0.8, 560), v(0.9, 520)}
	runs := Runs(samples)
	if len(runs) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(runs))
	}
	if got := Segments(runs); got != 3 {
		t.Fatalf("segments: got %d want 3", got)
	}
	if diff := cmp.Diff(pts(0.3, 680, 0.4, 650), runs[1]); diff != "" {
		t.Fatalf("run 1 mismatch (-want +got):\n%s", diff)
	}
	if (Series{Samples: samples}).ValidCount() != 6 {
		t.Fatalf("valid count wrong")
	}
}

func TestRunsAllMissing(t *testing.T) {
	if runs := Runs([]Sample{{}, {}, {}}); len(runs) != 0 || Segments(runs) != 0 {
		t.Fatalf("all-null series must yield no runs, got %v", runs)
	}
}

func TestKeyValues(t *testing.T) {
	steps := []ThermalStep{{Setpoint: 850, Duration: 30}, {Setpoint: 860, Duration: 120}}
	if diff := cmp.Diff([]float64{30, 150}, TransitionTimes(steps)); diff != "" {
		t.Fatalf("transition times (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{850, 860}, Setpoints(steps)); diff != "" {
		t.Fatalf("setpoints (-want +got):\n%s", diff)
	}
	if TotalDuration(steps) != 150 {
		t.Fatalf("total duration wrong")
	}
	if got := ChemicalDuration(Wait{Time: 10}, []ChemicalStep{{Time: 600}, {Time: 90}}); got != 21.5 {
		t.Fatalf("chemical duration: got %g", got)
	}
}

func TestProject(t *testing.T) {
	m := scale.NewMapper(scale.Domain{Max: 60}, scale.Domain{Max: 1000}, 120, 100)
	got := Project(pts(0, 0, 60, 1000), m)
	if diff := cmp.Diff(pts(0, 100, 120, 0), got); diff != "" {
		t.Fatalf("projection mismatch (-want +got):\n%s", diff)
	}
}
