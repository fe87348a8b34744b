package model

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/ByLCY/trialreport/curves"
	"github.com/ByLCY/trialreport/numeric"
)

// DefaultHardnessUnit is used when no reading carries a unit.
const DefaultHardnessUnit = "HV"

// ResultsData wraps the control results.
type ResultsData struct {
	Results []Result `json:"results"`
}

// Result is one control result (a measurement campaign) with its samples.
type Result struct {
	Step        numeric.Value `json:"step"`
	Description Text          `json:"description"`
	Samples     []Sample      `json:"samples"`
}

// Title 例如 "Result 2 - Surface"，i 为 0 起始的下标。
func (r Result) Title(i int) string {
	n := strconv.Itoa(i + 1)
	if s := r.Step.String(); s != "" {
		n = s
	}
	title := "Result " + n
	if !r.Description.Empty() {
		title += " - " + r.Description.String()
	}
	return title
}

// HardnessUnit returns the unit of the first sample: its first hardness
// reading unit, else its ECD hardness unit, else HV.
func (r Result) HardnessUnit() string {
	if len(r.Samples) == 0 {
		return DefaultHardnessUnit
	}
	s := r.Samples[0]
	if len(s.HardnessPoints) > 0 && !s.HardnessPoints[0].Unit.Empty() {
		return s.HardnessPoints[0].Unit.String()
	}
	return s.ECD.HardnessUnit.Or(DefaultHardnessUnit)
}

// HardnessPoint is one hardness reading at a named position.
type HardnessPoint struct {
	Location Text          `json:"location"`
	Position Text          `json:"position"`
	Value    numeric.Value `json:"value"`
	Unit     Text          `json:"unit"`
}

// Where returns location, falling back to position.
func (p HardnessPoint) Where() string {
	return first(p.Location, p.Position).Or("-")
}

// ECDPosition is the measured case depth at a location.
type ECDPosition struct {
	Location Text          `json:"location"`
	Distance numeric.Value `json:"distance"`
}

// ECD groups the case depth readings of a sample.
type ECD struct {
	HardnessValue numeric.Value `json:"hardness_value"`
	HardnessUnit  Text          `json:"hardness_unit"`
	Positions     []ECDPosition `json:"ecd_positions"`
}

// CurveData is the hardness traverse as sent by the API: one distance
// vector shared by every series.
type CurveData struct {
	Distances []numeric.Value `json:"distances"`
	Series    []CurveSeries   `json:"series"`
}

// CurveSeries 一条硬度曲线。
type CurveSeries struct {
	Name   Text            `json:"name"`
	Values []numeric.Value `json:"values"`
}

// Sample is one measured sample of a result.
type Sample struct {
	Description    Text
	HardnessPoints []HardnessPoint
	ECD            ECD
	Curve          *CurveData
}

// UnmarshalJSON accepts both the camelCase and the snake_case payloads.
func (s *Sample) UnmarshalJSON(data []byte) error {
	var w struct {
		Description         Text            `json:"description"`
		HardnessPoints      []HardnessPoint `json:"hardnessPoints"`
		HardnessPointsSnake []HardnessPoint `json:"hardness_points"`
		ECDPositions        []ECDPosition   `json:"ecdPositions"`
		ECDHardnessValue    numeric.Value   `json:"ecdHardnessValue"`
		ECDHardnessUnit     Text            `json:"ecdHardnessUnit"`
		ECD                 *ECD            `json:"ecd"`
		CurveData           *CurveData      `json:"curveData"`
		CurveDataSnake      *CurveData      `json:"curve_data"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("样品数据无效: %w", err)
	}
	*s = Sample{Description: w.Description, HardnessPoints: w.HardnessPoints, Curve: w.CurveData}
	if len(s.HardnessPoints) == 0 {
		s.HardnessPoints = w.HardnessPointsSnake
	}
	if s.Curve == nil {
		s.Curve = w.CurveDataSnake
	}
	s.ECD = ECD{HardnessValue: w.ECDHardnessValue, HardnessUnit: w.ECDHardnessUnit, Positions: w.ECDPositions}
	if w.ECD != nil {
		if len(s.ECD.Positions) == 0 {
			s.ECD.Positions = w.ECD.Positions
		}
		if !s.ECD.HardnessValue.Present() {
			s.ECD.HardnessValue = w.ECD.HardnessValue
		}
		if s.ECD.HardnessUnit.Empty() {
			s.ECD.HardnessUnit = w.ECD.HardnessUnit
		}
	}
	return nil
}

// Title 例如 "Sample 1 - Core"。
func (s Sample) Title(i int) string {
	title := fmt.Sprintf("Sample %d", i+1)
	if !s.Description.Empty() {
		title += " - " + s.Description.String()
	}
	return title
}

// HasHardness reports at least one readable hardness value.
func (s Sample) HasHardness() bool {
	for _, p := range s.HardnessPoints {
		if p.Value.Valid() {
			return true
		}
	}
	return false
}

// HasECD reports at least one ECD position with a location or a distance.
func (s Sample) HasECD() bool {
	for _, p := range s.ECD.Positions {
		if !p.Location.Empty() || p.Distance.Valid() {
			return true
		}
	}
	return false
}

// HasCurve reports curve data with at least one distance and one series,
// whether or not any reading is usable.
func (s Sample) HasCurve() bool {
	return s.Curve != nil && len(s.Curve.Distances) > 0 && len(s.Curve.Series) > 0
}

// Empty reports a sample with nothing to show; such samples are skipped.
func (s Sample) Empty() bool {
	return !s.HasHardness() && !s.HasECD() && !s.HasCurve()
}

// HardnessValues returns the readable hardness values in order.
func (s Sample) HardnessValues() []float64 {
	var out []float64
	for _, p := range s.HardnessPoints {
		if v, ok := p.Value.Get(); ok {
			out = append(out, v)
		}
	}
	return out
}

// Series converts the curve data into measurement series. A reading that
// is missing, unreadable or not strictly positive becomes a gap, and so
// does any reading whose distance is missing.
func (s Sample) Series() []curves.Series {
	if !s.HasCurve() {
		return nil
	}
	out := make([]curves.Series, 0, len(s.Curve.Series))
	for i, cs := range s.Curve.Series {
		series := curves.Series{Name: cs.Name.Or(fmt.Sprintf("Series %d", i+1))}
		for j, d := range s.Curve.Distances {
			x, okX := d.Get()
			sample := curves.Sample{X: x}
			if j < len(cs.Values) {
				if y, okY := cs.Values[j].Get(); okX && okY && y > 0 {
					sample.Y, sample.Valid = y, true
				}
			}
			series.Samples = append(series.Samples, sample)
		}
		out = append(out, series)
	}
	return out
}
