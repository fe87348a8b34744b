package curves

import (
	"math"

	"github.com/ByLCY/trialreport/scale"
)

// Sample is one reading of a measurement series; Valid is false for a
// missing reading.
type Sample struct {
	X     float64
	Y     float64
	Valid bool
}

// Series is a named measurement traverse (e.g. hardness vs distance).
type Series struct {
	Name    string
	Samples []Sample
}

// Runs splits samples into contiguous runs of valid readings. Nothing is
// interpolated across a missing reading.
func Runs(samples []Sample) [][]scale.Point {
	var (
		runs [][]scale.Point
		cur  []scale.Point
	)
	for _, s := range samples {
		if !s.Valid || math.IsNaN(s.X) || math.IsNaN(s.Y) || math.IsInf(s.X, 0) || math.IsInf(s.Y, 0) {
			if len(cur) > 0 {
				runs = append(runs, cur)
				cur = nil
			}
			continue
		}
		cur = append(cur, scale.Point{X: s.X, Y: s.Y})
	}
	if len(cur) > 0 {
		runs = append(runs, cur)
	}
	return runs
}

// Segments counts the line segments drawn for runs.
func Segments(runs [][]scale.Point) int {
	n := 0
	for _, r := range runs {
		if len(r) > 1 {
			n += len(r) - 1
		}
	}
	return n
}

// ValidCount returns the number of usable readings.
func (s Series) ValidCount() int {
	n := 0
	for _, r := range Runs(s.Samples) {
		n += len(r)
	}
	return n
}

// TransitionTimes returns the cumulative end time of every thermal step.
func TransitionTimes(steps []ThermalStep) []float64 {
	out := make([]float64, 0, len(steps))
	offset := 0.0
	for _, st := range steps {
		if st.Duration > 0 {
			offset += st.Duration
		}
		out = append(out, offset)
	}
	return out
}

// Setpoints returns the setpoint of every thermal step.
func Setpoints(steps []ThermalStep) []float64 {
	out := make([]float64, 0, len(steps))
	for _, st := range steps {
		out = append(out, st.Setpoint)
	}
	return out
}

// TotalDuration is the thermal cycle length in minutes.
func TotalDuration(steps []ThermalStep) float64 {
	times := TransitionTimes(steps)
	if len(times) == 0 {
		return 0
	}
	return times[len(times)-1]
}

// ChemicalDuration is the time at which the chemical cycle ends, in minutes.
func ChemicalDuration(wait Wait, steps []ChemicalStep) float64 {
	total := math.Max(wait.Time, 0)
	for _, st := range steps {
		total += st.Minutes()
	}
	return total
}

// Volume integrates a stepped flow path (Nl/h over minutes) into Nl.
func Volume(points []scale.Point) float64 {
	v := 0.0
	for i := 1; i < len(points); i++ {
		dt := points[i].X - points[i-1].X
		if dt <= 0 {
			continue
		}
		v += points[i-1].Y * dt / 60
	}
	return v
}
