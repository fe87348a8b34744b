package report

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/ByLCY/trialreport/chart"
	"github.com/ByLCY/trialreport/curves"
	"github.com/ByLCY/trialreport/model"
	"github.com/ByLCY/trialreport/scale"
	"github.com/ByLCY/trialreport/theme"
)

// recipeCurves holds the converted recipe paths shared by the chart and
// the stats column.
type recipeCurves struct {
	thermal  []curves.ThermalStep
	chemical []curves.ChemicalStep
	wait     curves.Wait
	temp     []scale.Point
	gases    []curves.GasCurve
}

func newRecipeCurves(r *model.RecipeData) recipeCurves {
	rc := recipeCurves{thermal: r.Thermal(), chemical: r.Chemical(), wait: r.Wait()}
	rc.temp = curves.Thermal(r.CellTemperature(), rc.thermal)
	rc.gases = curves.GasSet(r.SelectedGases(), rc.wait, rc.chemical)
	return rc
}

// xValues 返回所有曲线的时间坐标。
func (rc recipeCurves) xValues() []float64 {
	var xs []float64
	for _, p := range rc.temp {
		xs = append(xs, p.X)
	}
	for _, g := range rc.gases {
		for _, p := range g.Points {
			xs = append(xs, p.X)
		}
	}
	return xs
}

// recipeChart composes the temperature (primary axis) and gas flow
// (secondary axis) curves of a recipe. degenerate reports a time axis with
// no extent.
func recipeChart(rc recipeCurves, th theme.Theme, size theme.ChartSize) (c chart.Chart, ok, degenerate bool) {
	xs := rc.xValues()
	keys := curves.TransitionTimes(rc.thermal)
	xDomain := scale.TimeRules.Compute(xs).WithKeys(keys...)

	var temps []float64
	for _, p := range rc.temp {
		temps = append(temps, p.Y)
	}
	yDomain := scale.TemperatureRules.Compute(temps).WithKeys(realSetpoints(rc.thermal)...)

	spec := chart.Spec{
		Width:   size.Width,
		Height:  size.Height,
		Padding: size.Padding,
		X:       chart.Axis{Title: "Time (min)", Unit: "min", Domain: xDomain},
		Y:       chart.Axis{Title: "Temp. (°C)", Unit: "°C", Domain: yDomain, Color: theme.Normalize(th.Temperature)},
		Palette: th.Palette,
		Style:   th.ChartStyle(),
	}
	if len(rc.temp) > 0 {
		spec.Curves = append(spec.Curves, chart.Curve{
			Name:  "Temperature",
			Axis:  chart.Primary,
			Runs:  [][]scale.Point{rc.temp},
			Color: theme.Normalize(th.Temperature),
		})
	}
	if len(rc.gases) > 0 {
		var flows []float64
		for _, g := range rc.gases {
			for _, p := range g.Points {
				flows = append(flows, p.Y)
			}
			spec.Curves = append(spec.Curves, chart.Curve{
				Name:  g.Gas,
				Axis:  chart.Secondary,
				Runs:  [][]scale.Point{g.Points},
				Color: th.GasColor(g.Gas),
			})
		}
		spec.Y2 = &chart.Axis{Title: "Flow (Nl/h)", Unit: "Nl/h", Domain: scale.GasFlowRules.Compute(flows)}
	}
	c, ok = chart.Compose(spec)
	return c, ok, ok && len(xs) > 0 && floats.Max(xs) == floats.Min(xs)
}

// realSetpoints drops the zero placeholders of steps without a setpoint.
func realSetpoints(steps []curves.ThermalStep) []float64 {
	var out []float64
	for _, v := range curves.Setpoints(steps) {
		if v != 0 {
			out = append(out, v)
		}
	}
	return out
}

// recipeStats is the stats column beside the recipe chart.
func recipeStats(rc recipeCurves) [][]string {
	rows := [][]string{
		{"Thermal time", formatFloat(curves.TotalDuration(rc.thermal)) + " min"},
	}
	if sp := realSetpoints(rc.thermal); len(sp) > 0 {
		rows = append(rows, []string{"Peak setpoint", formatFloat(floats.Max(sp)) + " °C"})
	}
	if len(rc.chemical) > 0 {
		rows = append(rows, []string{"Chemical time", formatFloat(curves.ChemicalDuration(rc.wait, rc.chemical)) + " min"})
	}
	rows = append(rows,
		[]string{"Thermal steps", fmt.Sprint(len(rc.thermal))},
		[]string{"Chemical steps", fmt.Sprint(len(rc.chemical))},
	)
	for _, g := range rc.gases {
		rows = append(rows, []string{g.Gas + " volume", formatFloat(curves.Volume(g.Points)) + " Nl"})
	}
	return rows
}

// hardnessChart composes the hardness traverse of a sample with the ECD
// specification lines of the part.
func hardnessChart(series []curves.Series, unit string, specs []model.ECDSpec, th theme.Theme) (chart.Chart, bool) {
	var xs, ys []float64
	var list []chart.Curve
	for _, s := range series {
		runs := curves.Runs(s.Samples)
		for _, run := range runs {
			for _, p := range run {
				xs = append(xs, p.X)
				ys = append(ys, p.Y)
			}
		}
		list = append(list, chart.Curve{
			Name:    fmt.Sprintf("%s (%d pts)", s.Name, s.ValidCount()),
			Runs:    runs,
			Markers: true,
		})
	}
	if len(xs) == 0 {
		return chart.Chart{}, false
	}

	var lines []chart.SpecLine
	for _, sp := range specs {
		v, ok := sp.HardnessValue()
		if !ok {
			continue
		}
		ys = append(ys, v)
		line := chart.SpecLine{Value: v, Label: ecdLabel(sp, v, unit)}
		if from, to, ok := sp.Depth(); ok {
			line.From, line.To = &from, &to
		}
		lines = append(lines, line)
	}

	// X 轴从最小测量距离开始
	xRules := scale.DistanceRules
	xRules.FloorMin = true
	xDomain := xRules.Compute(xs)
	size := th.Charts.Hardness
	return chart.Compose(chart.Spec{
		Width:     size.Width,
		Height:    size.Height,
		Padding:   size.Padding,
		X:         chart.Axis{Title: "Distance (mm)", Unit: "mm", Domain: xDomain},
		Y:         chart.Axis{Title: "Hardness (" + unit + ")", Unit: unit, Domain: scale.HardnessRules.Compute(ys)},
		Curves:    list,
		SpecLines: lines,
		Palette:   th.Palette,
		Style:     th.ChartStyle(),
	})
}

// ecdLabel 例如 "ECD: 0.6-0.9mm @ 550 HV"。
func ecdLabel(sp model.ECDSpec, v float64, unit string) string {
	u := sp.HardnessUnit.Or(unit)
	if from, to, ok := sp.Depth(); ok {
		return fmt.Sprintf("ECD: %s-%smm @ %s %s", plain(from), plain(to), plain(v), u)
	}
	return fmt.Sprintf("ECD @ %s %s", plain(v), u)
}

// hardnessStats 例如 "Min: 520 | Max: 690 | Mean: 611.67 HV"。
func hardnessStats(values []float64, unit string) string {
	if len(values) == 0 {
		return ""
	}
	return fmt.Sprintf("Min: %s | Max: %s | Mean: %s %s",
		formatFloat(floats.Min(values)), formatFloat(floats.Max(values)), formatFloat(stat.Mean(values, nil)), unit)
}
