// Package chart composes dual-axis line charts into a flat list of drawing
// primitives. Coordinates are in points, origin at the chart's top-left.
package chart

import (
	"math"

	"github.com/ByLCY/trialreport/scale"
)

// Side selects the Y axis a curve or specification line is plotted against.
type Side int

const (
	Primary Side = iota
	Secondary
)

// Padding 为绘图区四周留白（pt）。
type Padding struct {
	Top    float64 `yaml:"top" json:"top"`
	Right  float64 `yaml:"right" json:"right"`
	Bottom float64 `yaml:"bottom" json:"bottom"`
	Left   float64 `yaml:"left" json:"left"`
}

// Axis describes one axis of the chart.
type Axis struct {
	Title  string
	Unit   string
	Domain scale.Domain
	Color  string
}

// Curve is one plotted series, already split into runs of valid points.
type Curve struct {
	Name    string
	Axis    Side
	Runs    [][]scale.Point
	Color   string
	Markers bool
}

// SpecLine is a dashed horizontal reference line. From/To restrict it to an
// X interval; nil means the full plot width.
type SpecLine struct {
	Value float64
	From  *float64
	To    *float64
	Label string
	Axis  Side
	Color string
}

// Spec is the input of Compose.
type Spec struct {
	Width     float64
	Height    float64
	Padding   Padding
	X         Axis
	Y         Axis
	Y2        *Axis
	Curves    []Curve
	SpecLines []SpecLine
	Palette   []string
	Style     Style
}

// Style holds the neutral colours and sizes of a chart.
type Style struct {
	GridColor    string
	KeyGridColor string
	AxisColor    string
	TextColor    string
	SpecColor    string
	FontSize     float64
	StrokeWidth  float64
}

// DefaultStyle 返回默认的中性配色。
func DefaultStyle() Style {
	return Style{
		GridColor:    "#d1d5db",
		KeyGridColor: "#9ca3af",
		AxisColor:    "#374151",
		TextColor:    "#374151",
		SpecColor:    "#e74c3c",
		FontSize:     7,
		StrokeWidth:  1.2,
	}
}

// Kind is the primitive type.
type Kind string

const (
	KindLine     Kind = "line"
	KindPolyline Kind = "polyline"
	KindPolygon  Kind = "polygon"
	KindText     Kind = "text"
	KindRect     Kind = "rect"
	KindCircle   Kind = "circle"
)

// Role tags what a primitive represents in the chart.
type Role string

const (
	RoleGrid      Role = "grid"
	RoleKeyGrid   Role = "keyGrid"
	RoleAxis      Role = "axis"
	RoleArrow     Role = "arrow"
	RoleCurve     Role = "curve"
	RoleMarker    Role = "marker"
	RoleTick      Role = "tick"
	RoleTitle     Role = "title"
	RoleSpec      Role = "spec"
	RoleSpecLabel Role = "specLabel"
	RoleLegend    Role = "legend"
)

// Anchor is the horizontal alignment of a text primitive around its point.
type Anchor string

const (
	AnchorStart  Anchor = "start"
	AnchorMiddle Anchor = "middle"
	AnchorEnd    Anchor = "end"
)

// Primitive is a single drawing instruction.
//
// Lines and polylines use Points in order; polygons are closed and filled;
// text is drawn with its baseline at Points[0]; rect spans Points[0] to
// Points[1]; circle is centred at Points[0] with Radius.
type Primitive struct {
	Kind     Kind          `json:"kind"`
	Role     Role          `json:"role"`
	Points   []scale.Point `json:"points"`
	Stroke   string        `json:"stroke,omitempty"`
	Fill     string        `json:"fill,omitempty"`
	Width    float64       `json:"width,omitempty"`
	Dash     []float64     `json:"dash,omitempty"`
	Radius   float64       `json:"radius,omitempty"`
	Text     string        `json:"text,omitempty"`
	Anchor   Anchor        `json:"anchor,omitempty"`
	FontSize float64       `json:"fontSize,omitempty"`
}

// Chart is the composed result. Height includes the legend row.
type Chart struct {
	Width      float64     `json:"width"`
	Height     float64     `json:"height"`
	Primitives []Primitive `json:"primitives"`
}

const (
	arrowLength   = 5.0
	arrowHalf     = 2.5
	axisOvershoot = 6.0
	markerRadius  = 1.6
	legendRow     = 14.0
	legendSwatch  = 12.0
)

var gridDash = []float64{2, 2}
var specDash = []float64{4, 3}

// Compose lays out the chart. It returns false when no curve has a single
// usable point, so the caller can show an empty-state message instead.
func Compose(spec Spec) (Chart, bool) {
	if usablePoints(spec.Curves) == 0 {
		return Chart{}, false
	}
	st := spec.Style
	if st == (Style{}) {
		st = DefaultStyle()
	}

	plotX := spec.Padding.Left
	plotY := spec.Padding.Top
	plotW := math.Max(spec.Width-spec.Padding.Left-spec.Padding.Right, 1)
	plotH := math.Max(spec.Height-spec.Padding.Top-spec.Padding.Bottom, 1)

	c := &composer{st: st, x0: plotX, y0: plotY, w: plotW, h: plotH}
	primary := scale.NewMapper(spec.X.Domain, spec.Y.Domain, plotW, plotH)
	secondary := primary
	if spec.Y2 != nil {
		secondary = scale.NewMapper(spec.X.Domain, spec.Y2.Domain, plotW, plotH)
	}
	mapperFor := func(s Side) scale.Mapper {
		if s == Secondary && spec.Y2 != nil {
			return secondary
		}
		return primary
	}

	c.grid(spec.X.Domain, spec.Y.Domain, primary)
	c.axes(spec.Y2 != nil)

	colors := curveColors(spec.Curves, spec.Palette)
	for i, cv := range spec.Curves {
		c.curve(cv, colors[i], mapperFor(cv.Axis))
	}

	c.ticks(spec, primary, secondary)
	c.titles(spec)

	for _, sl := range spec.SpecLines {
		c.specLine(sl, spec, mapperFor(sl.Axis))
	}

	height := spec.Height
	if c.legend(spec, colors, spec.Height+legendRow/2) {
		height += legendRow
	}

	return Chart{Width: spec.Width, Height: height, Primitives: c.out}, true
}

func usablePoints(curves []Curve) int {
	n := 0
	for _, cv := range curves {
		for _, run := range cv.Runs {
			for _, p := range run {
				if finite(p.X) && finite(p.Y) {
					n++
				}
			}
		}
	}
	return n
}

// curveColors 按曲线顺序分配调色板颜色，显式颜色优先。
func curveColors(curves []Curve, palette []string) []string {
	out := make([]string, len(curves))
	for i, cv := range curves {
		switch {
		case cv.Color != "":
			out[i] = cv.Color
		case len(palette) > 0:
			out[i] = palette[i%len(palette)]
		default:
			out[i] = "#000000"
		}
	}
	return out
}

type composer struct {
	st    Style
	x0    float64
	y0    float64
	w     float64
	h     float64
	out   []Primitive
	// specs 记录实际绘制的规格线，图例只列出这些
	specs []SpecLine
}

func (c *composer) add(p Primitive) { c.out = append(c.out, p) }

func (c *composer) at(p scale.Point) scale.Point {
	return scale.Point{X: c.x0 + p.X, Y: c.y0 + p.Y}
}

func (c *composer) grid(xd, yd scale.Domain, m scale.Mapper) {
	for _, t := range xd.Ticks {
		x := c.x0 + m.MapX(t)
		c.add(c.gridLine(xd.IsKey(t), scale.Point{X: x, Y: c.y0}, scale.Point{X: x, Y: c.y0 + c.h}))
	}
	for _, t := range yd.Ticks {
		y := c.y0 + m.MapY(t)
		c.add(c.gridLine(yd.IsKey(t), scale.Point{X: c.x0, Y: y}, scale.Point{X: c.x0 + c.w, Y: y}))
	}
}

func (c *composer) gridLine(key bool, a, b scale.Point) Primitive {
	if key {
		return Primitive{Kind: KindLine, Role: RoleKeyGrid, Points: []scale.Point{a, b}, Stroke: c.st.KeyGridColor, Width: 0.6}
	}
	return Primitive{Kind: KindLine, Role: RoleGrid, Points: []scale.Point{a, b}, Stroke: c.st.GridColor, Width: 0.4, Dash: gridDash}
}

func (c *composer) axes(dual bool) {
	bottom := c.y0 + c.h
	right := c.x0 + c.w

	// X 轴向右延伸并带箭头
	xEnd := scale.Point{X: right + axisOvershoot, Y: bottom}
	c.add(Primitive{Kind: KindLine, Role: RoleAxis, Points: []scale.Point{{X: c.x0, Y: bottom}, xEnd}, Stroke: c.st.AxisColor, Width: 0.8})
	c.add(Primitive{Kind: KindPolygon, Role: RoleArrow, Fill: c.st.AxisColor, Points: []scale.Point{
		xEnd, {X: xEnd.X - arrowLength, Y: xEnd.Y - arrowHalf}, {X: xEnd.X - arrowLength, Y: xEnd.Y + arrowHalf},
	}})

	c.verticalAxis(c.x0, bottom)
	if dual {
		c.verticalAxis(right, bottom)
	}
}

func (c *composer) verticalAxis(x, bottom float64) {
	top := scale.Point{X: x, Y: c.y0 - axisOvershoot}
	c.add(Primitive{Kind: KindLine, Role: RoleAxis, Points: []scale.Point{{X: x, Y: bottom}, top}, Stroke: c.st.AxisColor, Width: 0.8})
	c.add(Primitive{Kind: KindPolygon, Role: RoleArrow, Fill: c.st.AxisColor, Points: []scale.Point{
		top, {X: top.X - arrowHalf, Y: top.Y + arrowLength}, {X: top.X + arrowHalf, Y: top.Y + arrowLength},
	}})
}

func (c *composer) curve(cv Curve, color string, m scale.Mapper) {
	for _, run := range cv.Runs {
		pts := make([]scale.Point, 0, len(run))
		for _, p := range run {
			if !finite(p.X) || !finite(p.Y) {
				continue
			}
			pts = append(pts, c.at(m.MapPoint(p)))
		}
		if len(pts) >= 2 {
			c.add(Primitive{Kind: KindPolyline, Role: RoleCurve, Points: pts, Stroke: color, Width: c.st.StrokeWidth})
		}
		// 孤立点没有线段，至少画一个标记
		if cv.Markers || len(pts) == 1 {
			for _, p := range pts {
				c.add(Primitive{Kind: KindCircle, Role: RoleMarker, Points: []scale.Point{p}, Radius: markerRadius, Fill: color, Stroke: color})
			}
		}
	}
}

func (c *composer) ticks(spec Spec, primary, secondary scale.Mapper) {
	fs := c.st.FontSize
	bottom := c.y0 + c.h
	for _, t := range spec.X.Domain.Ticks {
		c.text(RoleTick, FormatTick(t, spec.X.Domain.Step), scale.Point{X: c.x0 + primary.MapX(t), Y: bottom + fs + 3}, AnchorMiddle, c.st.TextColor)
	}
	for _, t := range spec.Y.Domain.Ticks {
		c.text(RoleTick, FormatTick(t, spec.Y.Domain.Step), scale.Point{X: c.x0 - 4, Y: c.y0 + primary.MapY(t) + fs*0.35}, AnchorEnd, axisColor(spec.Y, c.st.TextColor))
	}
	if spec.Y2 != nil {
		for _, t := range spec.Y2.Domain.Ticks {
			c.text(RoleTick, FormatTick(t, spec.Y2.Domain.Step), scale.Point{X: c.x0 + c.w + 4, Y: c.y0 + secondary.MapY(t) + fs*0.35}, AnchorStart, axisColor(*spec.Y2, c.st.TextColor))
		}
	}
}

func (c *composer) titles(spec Spec) {
	fs := c.st.FontSize
	if spec.X.Title != "" {
		c.text(RoleTitle, spec.X.Title, scale.Point{X: c.x0 + c.w/2, Y: c.y0 + c.h + 2*fs + 7}, AnchorMiddle, c.st.TextColor)
	}
	if spec.Y.Title != "" {
		c.text(RoleTitle, spec.Y.Title, scale.Point{X: c.x0 - arrowHalf - 3, Y: c.y0 - axisOvershoot + fs*0.35}, AnchorEnd, axisColor(spec.Y, c.st.TextColor))
	}
	if spec.Y2 != nil && spec.Y2.Title != "" {
		c.text(RoleTitle, spec.Y2.Title, scale.Point{X: c.x0 + c.w + arrowHalf + 3, Y: c.y0 - axisOvershoot + fs*0.35}, AnchorStart, axisColor(*spec.Y2, c.st.TextColor))
	}
}

func (c *composer) specLine(sl SpecLine, spec Spec, m scale.Mapper) {
	yd := m.Y
	if !finite(sl.Value) || sl.Value < yd.Min || sl.Value > yd.Max {
		return
	}
	xd := spec.X.Domain
	from, to := xd.Min, xd.Max
	if sl.From != nil && finite(*sl.From) {
		from = clamp(*sl.From, xd.Min, xd.Max)
	}
	if sl.To != nil && finite(*sl.To) {
		to = clamp(*sl.To, xd.Min, xd.Max)
	}
	if to < from {
		from, to = to, from
	}
	color := sl.Color
	if color == "" {
		color = c.st.SpecColor
	}
	sl.Color = color
	c.specs = append(c.specs, sl)
	y := c.y0 + m.MapY(sl.Value)
	x1 := c.x0 + m.MapX(from)
	x2 := c.x0 + m.MapX(to)
	c.add(Primitive{Kind: KindLine, Role: RoleSpec, Points: []scale.Point{{X: x1, Y: y}, {X: x2, Y: y}}, Stroke: color, Width: 0.9, Dash: specDash})
	if sl.Label != "" {
		c.text(RoleSpecLabel, sl.Label, scale.Point{X: x2 - 2, Y: y - 2}, AnchorEnd, color)
	}
}

// legend 在图表下方绘制一行图例：先曲线，再规格线。
func (c *composer) legend(spec Spec, colors []string, y float64) bool {
	fs := c.st.FontSize
	x := c.x0
	drawn := false
	entry := func(label, color string, dash []float64) {
		c.add(Primitive{Kind: KindLine, Role: RoleLegend, Points: []scale.Point{{X: x, Y: y}, {X: x + legendSwatch, Y: y}}, Stroke: color, Width: 2, Dash: dash})
		c.text(RoleLegend, label, scale.Point{X: x + legendSwatch + 3, Y: y + fs*0.35}, AnchorStart, c.st.TextColor)
		x += legendSwatch + 3 + TextWidth(label, fs) + 10
		drawn = true
	}
	for i, cv := range spec.Curves {
		if cv.Name == "" || usablePoints([]Curve{cv}) == 0 {
			continue
		}
		entry(cv.Name, colors[i], nil)
	}
	for _, sl := range c.specs {
		if sl.Label == "" {
			continue
		}
		entry(sl.Label, sl.Color, specDash)
	}
	return drawn
}

func (c *composer) text(role Role, s string, at scale.Point, anchor Anchor, color string) {
	c.add(Primitive{Kind: KindText, Role: role, Points: []scale.Point{at}, Text: s, Anchor: anchor, Fill: color, FontSize: c.st.FontSize})
}

func axisColor(a Axis, def string) string {
	if a.Color != "" {
		return a.Color
	}
	return def
}

// TextWidth is a rough advance estimate for sans text, used only to space
// legend entries.
func TextWidth(s string, fontSize float64) float64 {
	return float64(len([]rune(s))) * fontSize * 0.52
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
