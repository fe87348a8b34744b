package scale

import (
	"math"
	"slices"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// headroom 数据最大值占据域上限的比例超过该值时，再追加一个步长，避免曲线贴顶。
const headroom = 0.90

// Escalation switches the tick step once the data maximum exceeds Threshold.
type Escalation struct {
	Threshold float64 `yaml:"threshold" json:"threshold"`
	Step      float64 `yaml:"step" json:"step"`
}

// Domain is the computed range of one axis.
type Domain struct {
	Min   float64   `json:"min"`
	Max   float64   `json:"max"`
	Step  float64   `json:"step"`
	Ticks []float64 `json:"ticks"`
	// Keys 是额外合并进刻度的“关键值”（实际设定点、阶段切换时间等）。
	Keys []float64 `json:"keys,omitempty"`
}

// Rules bundles the parameters of ComputeDomain so one routine can serve
// temperature, gas flow, time and hardness axes.
type Rules struct {
	BaseStep   float64      `yaml:"baseStep" json:"baseStep"`
	Escalation []Escalation `yaml:"escalation" json:"escalation"`
	MinDomain  float64      `yaml:"minDomain" json:"minDomain"`
	// FloorMin 为 true 时，下限取不大于最小数据值的步长整数倍，而不是 0。
	FloorMin bool `yaml:"floorMin" json:"floorMin"`
}

var (
	TemperatureRules = Rules{BaseStep: 100, Escalation: []Escalation{{500, 200}, {1200, 500}}, MinDomain: 100}
	GasFlowRules     = Rules{BaseStep: 250, Escalation: []Escalation{{1000, 500}, {2000, 1000}}, MinDomain: 3000}
	TimeRules        = Rules{BaseStep: 10, Escalation: []Escalation{{60, 30}, {180, 60}, {600, 120}}, MinDomain: 10}
	HardnessRules    = Rules{BaseStep: 50, Escalation: []Escalation{{400, 100}, {1000, 200}}, MinDomain: 100, FloorMin: true}
	DistanceRules    = Rules{BaseStep: 0.2, Escalation: []Escalation{{2, 0.5}, {5, 1}}, MinDomain: 0.5}
)

// Compute runs ComputeDomain with r's parameters.
func (r Rules) Compute(values []float64) Domain {
	d := ComputeDomain(values, r.BaseStep, r.Escalation, r.MinDomain)
	if !r.FloorMin {
		return d
	}
	finite := finiteValues(values)
	if len(finite) == 0 {
		return d
	}
	low := math.Floor(floats.Min(finite)/d.Step) * d.Step
	if low < 0 || low >= d.Max {
		return d
	}
	d.Min = round(low)
	d.Ticks = regularTicks(d.Min, d.Max, d.Step)
	return d
}

// ComputeDomain derives a rounded upper bound, a tick step and the tick
// values for a series. It never fails: empty or unusable input yields a
// domain of at least minDomain.
func ComputeDomain(values []float64, baseStep float64, escalation []Escalation, minDomain float64) Domain {
	dataMax := 0.0
	if finite := finiteValues(values); len(finite) > 0 {
		dataMax = math.Max(floats.Max(finite), 0)
	}

	step := selectStep(dataMax, baseStep, escalation)
	domainMax := math.Ceil(dataMax/step-1e-9) * step
	if dataMax > 0 && dataMax/domainMax > headroom {
		domainMax += step
	}
	if math.IsNaN(minDomain) {
		minDomain = 0
	}
	domainMax = round(math.Max(domainMax, minDomain))
	if domainMax <= 0 {
		domainMax = step
	}

	return Domain{
		Min:   0,
		Max:   domainMax,
		Step:  step,
		Ticks: regularTicks(0, domainMax, step),
	}
}

func selectStep(dataMax, baseStep float64, escalation []Escalation) float64 {
	step := baseStep
	if step <= 0 || math.IsNaN(step) || math.IsInf(step, 0) {
		step = 1
	}
	table := slices.Clone(escalation)
	sort.SliceStable(table, func(i, j int) bool { return table[i].Threshold < table[j].Threshold })
	for _, e := range table {
		if dataMax > e.Threshold && e.Step > 0 {
			step = e.Step
		}
	}
	return step
}

// WithKeys returns a copy of d whose ticks also contain the key values that
// fall inside the domain, de-duplicated and sorted ascending.
func (d Domain) WithKeys(keys ...float64) Domain {
	out := d
	out.Keys = nil
	out.Ticks = slices.Clone(d.Ticks)
	for _, k := range append(slices.Clone(d.Keys), keys...) {
		if math.IsNaN(k) || math.IsInf(k, 0) || k < d.Min || k > d.Max {
			continue
		}
		k = round(k)
		out.Keys = append(out.Keys, k)
		out.Ticks = append(out.Ticks, k)
	}
	out.Keys = dedupSorted(out.Keys)
	out.Ticks = dedupSorted(out.Ticks)
	return out
}

// IsKey reports whether v is one of the merged key values.
func (d Domain) IsKey(v float64) bool {
	for _, k := range d.Keys {
		if almostEqual(k, v) {
			return true
		}
	}
	return false
}

// Span returns Max-Min, or 1 for a degenerate domain.
func (d Domain) Span() float64 {
	span := d.Max - d.Min
	if span == 0 || math.IsNaN(span) || math.IsInf(span, 0) {
		return 1
	}
	return span
}

func regularTicks(min, max, step float64) []float64 {
	if step <= 0 {
		return []float64{min, max}
	}
	n := int(math.Floor((max-min)/step + 1e-9))
	ticks := make([]float64, 0, n+1)
	for i := 0; i <= n; i++ {
		ticks = append(ticks, round(min+float64(i)*step))
	}
	return ticks
}

func finiteValues(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out = append(out, v)
	}
	return out
}

func dedupSorted(values []float64) []float64 {
	if len(values) == 0 {
		return values
	}
	sort.Float64s(values)
	out := values[:1]
	for _, v := range values[1:] {
		if !almostEqual(v, out[len(out)-1]) {
			out = append(out, v)
		}
	}
	return out
}

// round 消除 0.2*3 = 0.6000000000000001 之类的浮点噪声。
func round(v float64) float64 {
	return math.Round(v*1e9) / 1e9
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
