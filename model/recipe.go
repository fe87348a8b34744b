package model

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/ByLCY/trialreport/curves"
	"github.com/ByLCY/trialreport/numeric"
)

// defaultCellTemp 炉腔初始温度缺省值（°C）。
const defaultCellTemp = 20

// RecipeData is the furnace recipe: preoxidation, thermal cycle and the
// chemical (gas) cycle with its wait phase.
type RecipeData struct {
	Number        Text           `json:"number"`
	CellTemp      numeric.Value  `json:"cell_temp"`
	WaitTime      numeric.Value  `json:"wait_time"`
	WaitGas       Text           `json:"wait_gas"`
	WaitFlow      numeric.Value  `json:"wait_flow"`
	WaitPressure  numeric.Value  `json:"wait_pressure"`
	SelectedGas1  Text           `json:"selected_gas1"`
	SelectedGas2  Text           `json:"selected_gas2"`
	SelectedGas3  Text           `json:"selected_gas3"`
	Preox         *Preox         `json:"preox"`
	ThermalCycle  []ThermalStep  `json:"thermal_cycle"`
	ChemicalCycle []ChemicalStep `json:"chemical_cycle"`
}

// Preox 预氧化参数。
type Preox struct {
	Temperature numeric.Value `json:"temperature"`
	Duration    numeric.Value `json:"duration"`
	Media       Text          `json:"media"`
}

// Empty reports a preoxidation block with nothing to show.
func (p *Preox) Empty() bool {
	return p == nil || (!p.Temperature.Valid() && !p.Duration.Valid() && p.Media.Empty())
}

// ThermalStep is one row of the thermal cycle.
type ThermalStep struct {
	Step     numeric.Value `json:"step"`
	Ramp     Text          `json:"ramp"`
	Setpoint numeric.Value `json:"setpoint"`
	Duration numeric.Value `json:"duration"`
}

// ChemicalStep is one row of the chemical cycle; Time is in seconds.
type ChemicalStep struct {
	Step     numeric.Value `json:"step"`
	Time     numeric.Value `json:"time"`
	Pressure numeric.Value `json:"pressure"`
	Turbine  Flag          `json:"turbine"`
	Gases    []GasFlow     `json:"gases"`
}

// GasFlow 单一气体流量（Nl/h）。
type GasFlow struct {
	Gas   Text          `json:"gas"`
	Debit numeric.Value `json:"debit"`
}

// Flag decodes booleans written as true, "yes", "1" or a non-zero number.
type Flag bool

// UnmarshalJSON never fails; anything unrecognised is false.
func (f *Flag) UnmarshalJSON(data []byte) error {
	*f = false
	var raw any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil
	}
	switch v := raw.(type) {
	case bool:
		*f = Flag(v)
	case json.Number:
		n, err := v.Float64()
		*f = Flag(err == nil && n != 0)
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "yes", "oui", "1", "on":
			*f = true
		}
	}
	return nil
}

// SelectedGases returns the non-empty selected gases in slot order.
func (r *RecipeData) SelectedGases() []string {
	if r == nil {
		return nil
	}
	var out []string
	for _, g := range []Text{r.SelectedGas1, r.SelectedGas2, r.SelectedGas3} {
		if !g.Empty() {
			out = append(out, g.String())
		}
	}
	return out
}

// CellTemperature returns cell_temp; when it is absent or zero the first
// setpoint is used, else 20 °C.
func (r *RecipeData) CellTemperature() float64 {
	if r == nil {
		return defaultCellTemp
	}
	if v, ok := r.CellTemp.Get(); ok && v != 0 {
		return v
	}
	for _, s := range r.ThermalCycle {
		if v, ok := s.Setpoint.Get(); ok && v != 0 {
			return v
		}
	}
	return defaultCellTemp
}

// Thermal converts the thermal cycle. Unknown ramps are treated as holds.
func (r *RecipeData) Thermal() []curves.ThermalStep {
	if r == nil {
		return nil
	}
	out := make([]curves.ThermalStep, 0, len(r.ThermalCycle))
	for i, s := range r.ThermalCycle {
		out = append(out, curves.ThermalStep{
			Step:     int(s.Step.Or(float64(i + 1))),
			Ramp:     ParseRamp(s.Ramp.String()),
			Setpoint: s.Setpoint.Or(0),
			Duration: s.Duration.Or(0),
		})
	}
	return out
}

// ParseRamp maps the payload spellings onto curves.Ramp.
func ParseRamp(s string) curves.Ramp {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up", "montee", "montée", "heat", "heating":
		return curves.RampUp
	case "down", "descente", "cool", "cooling":
		return curves.RampDown
	}
	return curves.RampContinue
}

// RampLabel 返回表格中显示的斜坡名称。
func RampLabel(r curves.Ramp) string {
	switch r {
	case curves.RampUp:
		return "Up"
	case curves.RampDown:
		return "Down"
	}
	return "Hold"
}

// Chemical converts the chemical cycle.
func (r *RecipeData) Chemical() []curves.ChemicalStep {
	if r == nil {
		return nil
	}
	out := make([]curves.ChemicalStep, 0, len(r.ChemicalCycle))
	for i, s := range r.ChemicalCycle {
		step := curves.ChemicalStep{
			Step:     int(s.Step.Or(float64(i + 1))),
			Time:     s.Time.Or(0),
			Pressure: s.Pressure.Or(0),
			Turbine:  bool(s.Turbine),
		}
		for _, g := range s.Gases {
			if g.Gas.Empty() {
				continue
			}
			step.Gases = append(step.Gases, curves.GasFlow{Gas: g.Gas.String(), Debit: g.Debit.Or(0)})
		}
		out = append(out, step)
	}
	return out
}

// Wait returns the purge phase preceding the chemical cycle.
func (r *RecipeData) Wait() curves.Wait {
	if r == nil {
		return curves.Wait{}
	}
	return curves.Wait{Gas: r.WaitGas.String(), Time: r.WaitTime.Or(0), Flow: r.WaitFlow.Or(0)}
}

// Empty reports a recipe with nothing to show.
func (r *RecipeData) Empty() bool {
	return r == nil || (r.Number.Empty() && r.Preox.Empty() && len(r.ThermalCycle) == 0 && len(r.ChemicalCycle) == 0)
}

// MalformedFields lists numeric fields that were present but unreadable.
func (r *RecipeData) MalformedFields() []string {
	if r == nil {
		return nil
	}
	var out []string
	check := func(name string, v numeric.Value) {
		if v.Malformed() {
			out = append(out, name)
		}
	}
	check("cell_temp", r.CellTemp)
	check("wait_time", r.WaitTime)
	check("wait_flow", r.WaitFlow)
	check("wait_pressure", r.WaitPressure)
	for _, s := range r.ThermalCycle {
		check("thermal_cycle.setpoint", s.Setpoint)
		check("thermal_cycle.duration", s.Duration)
	}
	for _, s := range r.ChemicalCycle {
		check("chemical_cycle.time", s.Time)
		check("chemical_cycle.pressure", s.Pressure)
		for _, g := range s.Gases {
			check("chemical_cycle.gases.debit", g.Debit)
		}
	}
	return out
}

// QuenchData holds the gas and oil quench parameters.
type QuenchData struct {
	Gas *GasQuench `json:"gas_quench"`
	Oil *OilQuench `json:"oil_quench"`
}

// QuenchParameter is one row of a speed or pressure table.
type QuenchParameter struct {
	Step     numeric.Value `json:"step"`
	Duration numeric.Value `json:"duration"`
	Speed    numeric.Value `json:"speed"`
	Pressure numeric.Value `json:"pressure"`
}

// GasQuench 气淬参数。
type GasQuench struct {
	InertingDelay      numeric.Value     `json:"inerting_delay"`
	InertingPressure   numeric.Value     `json:"inerting_pressure"`
	SpeedParameters    []QuenchParameter `json:"speed_parameters"`
	PressureParameters []QuenchParameter `json:"pressure_parameters"`
}

// OilQuench 油淬参数。
type OilQuench struct {
	Temperature     numeric.Value     `json:"temperature"`
	InertingDelay   numeric.Value     `json:"inerting_delay"`
	DrippingTime    numeric.Value     `json:"dripping_time"`
	Pressure        numeric.Value     `json:"pressure"`
	SpeedParameters []QuenchParameter `json:"speed_parameters"`
}

func nonZero(v numeric.Value) bool {
	n, ok := v.Get()
	return ok && n != 0
}

// HasData reports whether any gas quench value is worth showing.
func (g *GasQuench) HasData() bool {
	return g != nil && (len(g.SpeedParameters) > 0 || len(g.PressureParameters) > 0 ||
		nonZero(g.InertingDelay) || nonZero(g.InertingPressure))
}

// HasData reports whether any oil quench value is worth showing.
func (o *OilQuench) HasData() bool {
	return o != nil && (len(o.SpeedParameters) > 0 || nonZero(o.Temperature) ||
		nonZero(o.InertingDelay) || nonZero(o.DrippingTime) || nonZero(o.Pressure))
}

// HasData reports whether either quench has data.
func (q *QuenchData) HasData() bool {
	return q != nil && (q.Gas.HasData() || q.Oil.HasData())
}
