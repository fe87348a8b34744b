// Package curves turns discrete process steps and sparse measurement series
// into ordered point lists ready for line or stepped rendering.
package curves

import (
	"github.com/ByLCY/trialreport/scale"
)

// Ramp is the kind of a thermal step.
type Ramp string

const (
	RampUp       Ramp = "up"
	RampDown     Ramp = "down"
	RampContinue Ramp = "continue"
)

// ThermalStep moves the furnace to Setpoint over Duration minutes, or holds
// at Setpoint when Ramp is continue.
type ThermalStep struct {
	Step     int
	Ramp     Ramp
	Setpoint float64
	Duration float64
}

// GasFlow is the flow of one gas during a chemical step, in Nl/h.
type GasFlow struct {
	Gas   string
	Debit float64
}

// ChemicalStep lasts Time seconds.
type ChemicalStep struct {
	Step     int
	Time     float64
	Pressure float64
	Turbine  bool
	Gases    []GasFlow
}

// Flow returns the flow of gas in this step, 0 when the gas is not listed.
func (s ChemicalStep) Flow(gas string) float64 {
	for _, g := range s.Gases {
		if g.Gas == gas {
			return g.Debit
		}
	}
	return 0
}

// Minutes 返回步骤时长（分钟）。
func (s ChemicalStep) Minutes() float64 {
	if s.Time <= 0 {
		return 0
	}
	return s.Time / 60
}

// Wait describes the purge phase that precedes the chemical cycle.
type Wait struct {
	Gas  string
	Time float64 // minutes
	Flow float64
}

// GasCurve is the stepped path of one gas.
type GasCurve struct {
	Gas    string
	Points []scale.Point
}

// Thermal builds the ramped temperature path. Up/down steps go from the
// previous setpoint (cellTemp for the first step) to their own setpoint;
// continue steps are flat at their own setpoint. The path ends at the last
// setpoint, without dropping back to zero.
func Thermal(cellTemp float64, steps []ThermalStep) []scale.Point {
	if len(steps) == 0 {
		return nil
	}
	points := make([]scale.Point, 0, 2*len(steps)+2)
	points = append(points, scale.Point{X: 0, Y: cellTemp})

	offset := 0.0
	prev := cellTemp
	for _, st := range steps {
		d := st.Duration
		if d < 0 {
			d = 0
		}
		switch st.Ramp {
		case RampContinue:
			points = append(points,
				scale.Point{X: offset, Y: st.Setpoint},
				scale.Point{X: offset + d, Y: st.Setpoint})
		default:
			points = append(points,
				scale.Point{X: offset, Y: prev},
				scale.Point{X: offset + d, Y: st.Setpoint})
		}
		offset += d
		prev = st.Setpoint
	}
	points = append(points, scale.Point{X: offset, Y: prev})
	return points
}

// Gas builds the zero-order-hold flow path of one gas.
func Gas(gas string, wait Wait, steps []ChemicalStep) []scale.Point {
	waitTime := wait.Time
	if waitTime < 0 {
		waitTime = 0
	}
	var points []scale.Point
	if gas == wait.Gas && waitTime > 0 && wait.Flow > 0 {
		points = append(points,
			scale.Point{X: 0, Y: wait.Flow},
			scale.Point{X: waitTime, Y: wait.Flow},
			scale.Point{X: waitTime, Y: 0})
	} else {
		points = append(points, scale.Point{X: waitTime, Y: 0})
	}

	offset := waitTime
	for i, st := range steps {
		start := offset
		end := offset + st.Minutes()
		flow := st.Flow(gas)
		previous := points[len(points)-1].Y

		if i == 0 || previous != flow {
			// 先回落到 0 再升到新流量，形成竖直边
			if i > 0 && previous > 0 && flow != previous {
				points = append(points, scale.Point{X: start, Y: 0})
			}
			points = append(points, scale.Point{X: start, Y: flow})
		}
		points = append(points, scale.Point{X: end, Y: flow})
		if i == len(steps)-1 && flow > 0 {
			points = append(points, scale.Point{X: end, Y: 0})
		}
		offset = end
	}
	return points
}

// GasSet builds one stepped curve per configured gas. The wait gas is added
// when it is not already selected; curves with a single point are dropped.
func GasSet(selected []string, wait Wait, steps []ChemicalStep) []GasCurve {
	var gases []string
	seen := map[string]bool{}
	for _, g := range selected {
		if g == "" || seen[g] {
			continue
		}
		seen[g] = true
		gases = append(gases, g)
	}
	if wait.Gas != "" && !seen[wait.Gas] {
		gases = append(gases, wait.Gas)
	}

	var out []GasCurve
	for _, g := range gases {
		pts := Gas(g, wait, steps)
		if len(pts) > 1 {
			out = append(out, GasCurve{Gas: g, Points: pts})
		}
	}
	return out
}

// Project maps data points into chart pixels.
func Project(points []scale.Point, m scale.Mapper) []scale.Point {
	out := make([]scale.Point, len(points))
	for i, p := range points {
		out[i] = m.MapPoint(p)
	}
	return out
}
