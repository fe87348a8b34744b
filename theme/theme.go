// Package theme holds the single table of colours, photo sizes, layouts
// and chart dimensions shared by every report section.
package theme

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/ByLCY/trialreport/chart"
	"github.com/ByLCY/trialreport/photolayout"
)

// ErrUnknownSection is returned when a section has no entry in the theme.
var ErrUnknownSection = errors.New("未知的报告分区")

// Brand 品牌主色。
type Brand struct {
	Primary   string `yaml:"primary" json:"primary"`
	Secondary string `yaml:"secondary" json:"secondary"`
	Dark      string `yaml:"dark" json:"dark"`
}

// SectionColors are the colours of one section: the accent used for its
// title bar, and the background/text of its sub-titles.
type SectionColors struct {
	Accent     string `yaml:"accent" json:"accent"`
	Background string `yaml:"background" json:"background"`
	Text       string `yaml:"text" json:"text"`
}

// TextColors 文本颜色。
type TextColors struct {
	Primary   string `yaml:"primary" json:"primary"`
	Secondary string `yaml:"secondary" json:"secondary"`
	Muted     string `yaml:"muted" json:"muted"`
}

// ChartSize fixes the outer size and plot padding of one chart family.
type ChartSize struct {
	Width   float64       `yaml:"width" json:"width"`
	Height  float64       `yaml:"height" json:"height"`
	Padding chart.Padding `yaml:"padding" json:"padding"`
}

// Charts 两类图表的尺寸。
type Charts struct {
	Recipe        ChartSize `yaml:"recipe" json:"recipe"`
	RecipeCompact ChartSize `yaml:"recipeCompact" json:"recipeCompact"`
	Hardness      ChartSize `yaml:"hardness" json:"hardness"`
	GridColor     string    `yaml:"gridColor" json:"gridColor"`
	KeyGridColor  string    `yaml:"keyGridColor" json:"keyGridColor"`
	AxisColor     string    `yaml:"axisColor" json:"axisColor"`
	SpecColor     string    `yaml:"specColor" json:"specColor"`
	FontSize      float64   `yaml:"fontSize" json:"fontSize"`
	StrokeWidth   float64   `yaml:"strokeWidth" json:"strokeWidth"`
}

// Theme is the full presentation table.
type Theme struct {
	Brand       Brand                    `yaml:"brand" json:"brand"`
	Text        TextColors               `yaml:"text" json:"text"`
	Border      string                   `yaml:"border" json:"border"`
	Sections    map[string]SectionColors `yaml:"sections" json:"sections"`
	Palette     []string                 `yaml:"palette" json:"palette"`
	Temperature string                   `yaml:"temperature" json:"temperature"`
	Gases       map[string]string        `yaml:"gases" json:"gases"`
	DefaultGas  string                   `yaml:"defaultGas" json:"defaultGas"`
	Charts      Charts                   `yaml:"charts" json:"charts"`
	Photos      photolayout.Catalog      `yaml:"photos" json:"photos"`
}

// Default 返回内置主题。
func Default() Theme {
	return Theme{
		Brand:  Brand{Primary: "#DC3545", Secondary: "#2c3e50", Dark: "#1a1a2e"},
		Text:   TextColors{Primary: "#1a1a1a", Secondary: "#666666", Muted: "#999999"},
		Border: "#e0e0e0",
		Sections: map[string]SectionColors{
			"identification": {Accent: "#3498db", Background: "#ecf0f1", Text: "#2c3e50"},
			"load":           {Accent: "#16a085", Background: "#e8f6f3", Text: "#117864"},
			"curves":         {Accent: "#f39c12", Background: "#fef9e7", Text: "#d35400"},
			"datapaq":        {Accent: "#e67e22", Background: "#fef5e7", Text: "#ba4a00"},
			"postTreatment":  {Accent: "#8e44ad", Background: "#f5eef8", Text: "#6c3483"},
			"recipe":         {Accent: "#e74c3c", Background: "#fef5e7", Text: "#c0392b"},
			"control":        {Accent: "#27ae60", Background: "#eafaf1", Text: "#1e8449"},
			"micrography":    {Accent: "#9b59b6", Background: "#f4ecf7", Text: "#6c3483"},
		},
		Palette:     []string{"#3b82f6", "#ef4444", "#10b981", "#f59e0b", "#8b5cf6", "#ec4899"},
		Temperature: "#dc3545",
		Gases: map[string]string{
			"C2H2": "rgb(20, 150, 20)",
			"N2":   "rgb(0, 100, 255)",
			"H2":   "rgb(153, 0, 255)",
		},
		DefaultGas: "rgb(255, 100, 0)",
		Charts: Charts{
			Recipe:        ChartSize{Width: 500, Height: 220, Padding: chart.Padding{Top: 15, Right: 55, Bottom: 30, Left: 50}},
			RecipeCompact: ChartSize{Width: 330, Height: 160, Padding: chart.Padding{Top: 15, Right: 55, Bottom: 30, Left: 50}},
			Hardness:      ChartSize{Width: 500, Height: 200, Padding: chart.Padding{Top: 15, Right: 25, Bottom: 40, Left: 50}},
			GridColor:     "#d1d5db",
			KeyGridColor:  "#9ca3af",
			AxisColor:     "#374151",
			SpecColor:     "#e74c3c",
			FontSize:      7,
			StrokeWidth:   1.2,
		},
		Photos: photolayout.DefaultCatalog(),
	}
}

// Load overlays the YAML file at path onto the default theme and validates
// every colour.
func Load(path string) (Theme, error) {
	th := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return th, fmt.Errorf("读取主题文件失败: %w", err)
	}
	if err := yaml.Unmarshal(data, &th); err != nil {
		return th, fmt.Errorf("解析主题 YAML 失败: %w", err)
	}
	if err := th.Validate(); err != nil {
		return th, err
	}
	return th, nil
}

// Validate checks that every colour in the theme parses.
func (t Theme) Validate() error {
	check := func(name, value string) error {
		if value == "" {
			return nil
		}
		if _, err := ParseColor(value); err != nil {
			return fmt.Errorf("主题颜色 %s 无效: %w", name, err)
		}
		return nil
	}
	fixed := []struct{ name, value string }{
		{"brand.primary", t.Brand.Primary},
		{"brand.secondary", t.Brand.Secondary},
		{"brand.dark", t.Brand.Dark},
		{"text.primary", t.Text.Primary},
		{"text.secondary", t.Text.Secondary},
		{"text.muted", t.Text.Muted},
		{"border", t.Border},
		{"temperature", t.Temperature},
		{"defaultGas", t.DefaultGas},
		{"charts.gridColor", t.Charts.GridColor},
		{"charts.keyGridColor", t.Charts.KeyGridColor},
		{"charts.axisColor", t.Charts.AxisColor},
		{"charts.specColor", t.Charts.SpecColor},
	}
	for _, f := range fixed {
		if err := check(f.name, f.value); err != nil {
			return err
		}
	}
	for _, name := range sortedKeys(t.Sections) {
		sc := t.Sections[name]
		for _, f := range []struct{ field, value string }{{"accent", sc.Accent}, {"background", sc.Background}, {"text", sc.Text}} {
			if err := check("sections."+name+"."+f.field, f.value); err != nil {
				return err
			}
		}
	}
	for i, c := range t.Palette {
		if err := check(fmt.Sprintf("palette[%d]", i), c); err != nil {
			return err
		}
	}
	for _, gas := range sortedKeys(t.Gases) {
		if err := check("gases."+gas, t.Gases[gas]); err != nil {
			return err
		}
	}
	return nil
}

// Section returns the colours of section. Missing background/text entries
// are derived from the accent. Unknown sections fall back to the brand
// colour and return ErrUnknownSection.
func (t Theme) Section(section string) (SectionColors, error) {
	sc, ok := t.Sections[section]
	if !ok {
		primary := t.Brand.Primary
		return SectionColors{Accent: primary, Background: Tint(primary, 0.9), Text: t.Text.Secondary},
			fmt.Errorf("%w: %s", ErrUnknownSection, section)
	}
	if sc.Accent == "" {
		sc.Accent = t.Brand.Primary
	}
	if sc.Background == "" {
		sc.Background = Tint(sc.Accent, 0.88)
	}
	if sc.Text == "" {
		sc.Text = Shade(sc.Accent, 0.3)
	}
	return sc, nil
}

// Accent returns the accent colour of section, or the brand colour.
func (t Theme) Accent(section string) string {
	sc, _ := t.Section(section)
	return sc.Accent
}

// GasColor returns the curve colour of gas.
func (t Theme) GasColor(gas string) string {
	if c, ok := t.Gases[gas]; ok && c != "" {
		return Normalize(c)
	}
	return Normalize(t.DefaultGas)
}

// ChartStyle converts the chart colours into a chart.Style.
func (t Theme) ChartStyle() chart.Style {
	st := chart.DefaultStyle()
	if t.Charts.GridColor != "" {
		st.GridColor = t.Charts.GridColor
	}
	if t.Charts.KeyGridColor != "" {
		st.KeyGridColor = t.Charts.KeyGridColor
	}
	if t.Charts.AxisColor != "" {
		st.AxisColor = t.Charts.AxisColor
	}
	if t.Charts.SpecColor != "" {
		st.SpecColor = t.Charts.SpecColor
	}
	if t.Text.Secondary != "" {
		st.TextColor = t.Text.Secondary
	}
	if t.Charts.FontSize > 0 {
		st.FontSize = t.Charts.FontSize
	}
	if t.Charts.StrokeWidth > 0 {
		st.StrokeWidth = t.Charts.StrokeWidth
	}
	return st
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
