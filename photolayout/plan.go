// Package photolayout decides how many photos go on a page and how large
// they are drawn. Every function here is deterministic and keeps the input
// order.
package photolayout

// UsableWidth 是 A4 页面去掉内边距后的可用宽度（pt）。
const UsableWidth = 515.0

// Plan is a grid for a given photo count.
type Plan struct {
	Columns    int     `json:"columns"`
	ItemWidth  float64 `json:"itemWidth"`
	ItemHeight float64 `json:"itemHeight"`
}

type breakpoint struct {
	max  int // inclusive upper bound on the photo count, 0 = no bound
	plan Plan
}

// 各策略的断点表，单位 pt。
var breakpoints = map[string][]breakpoint{
	"identification": {
		{1, Plan{1, 200, 150}},
		{2, Plan{2, 150, 110}},
		{4, Plan{2, 120, 90}},
		{6, Plan{3, 100, 75}},
		{9, Plan{3, 80, 60}},
		{0, Plan{4, 70, 50}},
	},
	"micrography": {
		{1, Plan{1, 180, 135}},
		{2, Plan{2, 140, 105}},
		{4, Plan{2, 120, 90}},
		{6, Plan{3, 100, 75}},
		{0, Plan{3, 80, 60}},
	},
	"curves": {
		{1, Plan{1, 220, 165}},
		{2, Plan{2, 160, 120}},
		{4, Plan{2, 140, 105}},
		{0, Plan{3, 120, 90}},
	},
	"load": {
		{1, Plan{1, 240, 180}},
		{2, Plan{2, 180, 135}},
		{4, Plan{2, 150, 112}},
		{6, Plan{3, 120, 90}},
		{0, Plan{3, 100, 75}},
	},
	"default": {
		{1, Plan{1, 200, 150}},
		{2, Plan{2, 150, 110}},
		{4, Plan{2, 120, 90}},
		{6, Plan{3, 100, 75}},
		{0, Plan{3, 80, 60}},
	},
}

// PlanFor returns the grid for count photos under the named strategy.
// Unknown strategies use the default table; zero photos give a zero Plan.
func PlanFor(count int, strategy string) Plan {
	if count <= 0 {
		return Plan{}
	}
	table, ok := breakpoints[strategy]
	if !ok {
		table = breakpoints["default"]
	}
	for _, bp := range table {
		if bp.max == 0 || count <= bp.max {
			return bp.plan
		}
	}
	return table[len(table)-1].plan
}

// Strategies lists the names that have their own breakpoint table.
func Strategies() []string {
	return []string{"identification", "micrography", "curves", "load", "default"}
}
