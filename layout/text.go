package layout

import (
	"fmt"
	"math"
	"strings"

	"github.com/ByLCY/trialreport/theme"
)

// 内置字体均来自 fonts 包嵌入的 Latin Modern Sans。
const fontFamily = "LatinModernSans"

var defaultTextColor = Color{R: 30, G: 30, B: 30}

// collectResources 从主题生成字体、命名颜色与文本样式。
func collectResources(th theme.Theme) (ResourceSet, error) {
	res := ResourceSet{
		Fonts: map[string]FontResource{
			"Body":   {Name: "Body", Src: "embed:lmsans10-regular", Style: "regular", Family: fontFamily, IsBuiltin: true},
			"Bold":   {Name: "Bold", Src: "embed:lmsans10-bold", Style: "bold", Family: fontFamily, IsBuiltin: true, Fallback: "Body"},
			"Italic": {Name: "Italic", Src: "embed:lmsans10-oblique", Style: "italic", Family: fontFamily, IsBuiltin: true, Fallback: "Body"},
		},
		Colors: map[string]Color{},
	}
	named := map[string]string{
		"primary":       th.Brand.Primary,
		"secondary":     th.Brand.Secondary,
		"dark":          th.Brand.Dark,
		"text":          th.Text.Primary,
		"textSecondary": th.Text.Secondary,
		"muted":         th.Text.Muted,
		"border":        th.Border,
		"headerFill":    theme.Tint(th.Border, 0.6),
		"white":         "#ffffff",
	}
	for name, v := range named {
		if c, ok := colorOf(v); ok {
			res.Colors[name] = c
		}
	}
	styles, err := resolveStyles(defaultStyles())
	if err != nil {
		return ResourceSet{}, err
	}
	res.Styles = styles
	return res, nil
}

// defaultStyles 报告使用的全部文本样式，颜色引用命名颜色。
func defaultStyles() map[string]Style {
	list := []Style{
		{Name: "base", Props: map[string]string{"font": "Body", "size": "9pt", "line-height": "1.3x", "color": "text"}},
		{Name: "title", Extends: "base", Props: map[string]string{"font": "Bold", "size": "11pt", "color": "white"}},
		{Name: "heading", Extends: "base", Props: map[string]string{"font": "Bold", "size": "13pt", "color": "secondary"}},
		{Name: "subheading", Extends: "base", Props: map[string]string{"font": "Bold", "size": "10pt", "color": "secondary"}},
		{Name: "paragraph", Extends: "base"},
		{Name: "fieldLabel", Extends: "base", Props: map[string]string{"size": "7pt", "color": "muted"}},
		{Name: "field", Extends: "base"},
		{Name: "caption", Extends: "base", Props: map[string]string{"font": "Italic", "size": "7pt", "color": "textSecondary", "align": "center"}},
		{Name: "notice", Extends: "base", Props: map[string]string{"font": "Italic", "color": "muted"}},
		{Name: "tableTitle", Extends: "base", Props: map[string]string{"font": "Bold", "size": "8.5pt"}},
		{Name: "tableHeader", Extends: "base", Props: map[string]string{"font": "Bold", "size": "8pt", "line-height": "1.2x"}},
		{Name: "tableCell", Extends: "base", Props: map[string]string{"size": "8pt", "line-height": "1.2x"}},
		{Name: "chartTitle", Extends: "tableTitle"},
		{Name: "photoTitle", Extends: "tableTitle"},
		{Name: "header", Extends: "base", Props: map[string]string{"size": "7.5pt", "color": "muted"}},
		{Name: "footer", Extends: "base", Props: map[string]string{"size": "7pt", "color": "muted", "align": "right"}},
	}
	out := make(map[string]Style, len(list))
	for _, s := range list {
		out[s.Name] = s
	}
	return out
}

func resolveStyles(styles map[string]Style) (map[string]Style, error) {
	resolved := map[string]Style{}
	visiting := map[string]bool{}

	var dfs func(name string) (Style, error)
	dfs = func(name string) (Style, error) {
		if style, ok := resolved[name]; ok {
			return style, nil
		}
		style, ok := styles[name]
		if !ok {
			return Style{}, fmt.Errorf("style %s 未定义", name)
		}
		if visiting[name] {
			return Style{}, fmt.Errorf("style 继承存在循环：%s", name)
		}
		visiting[name] = true

		props := map[string]string{}
		if style.Extends != "" {
			parent, err := dfs(style.Extends)
			if err != nil {
				return Style{}, err
			}
			for k, v := range parent.Props {
				props[k] = v
			}
		}
		for k, v := range style.Props {
			props[k] = v
		}
		style.Props = props
		resolved[name] = style
		delete(visiting, name)
		return style, nil
	}

	for name := range styles {
		if _, err := dfs(name); err != nil {
			return nil, err
		}
	}
	return resolved, nil
}

func mergeStyleAttributes(style string, inline map[string]string, styles map[string]Style) map[string]string {
	out := make(map[string]string)
	if style != "" {
		if s, ok := styles[style]; ok {
			for k, v := range s.Props {
				out[k] = v
			}
		}
	}
	for k, v := range inline {
		if v != "" {
			out[k] = v
		}
	}
	return out
}

func composeTextBox(style string, attrs map[string]string, content string, x, y, width float64, res ResourceSet, ts Typesetter, debug DebugOptions, wrap string) (TextBox, float64, error) {
	attrs = mergeStyleAttributes(style, attrs, res.Styles)
	fontName := attrs["font"]
	if fontName == "" {
		fontName = "Body"
	}

	size := ParseRawLengthStr(attrs["size"])
	if size.Unit == UnitNone || size.Value <= 0 { // default 12pt
		size = Length{Value: 12, Unit: UnitPT}
	}
	fontSize := size.ToMM()
	lhSpec := ParseLineHeight(attrs["line-height"])
	lineHeight := lhSpec.Resolve(size, UnitMM)

	color := resolveColor(attrs["color"], res)
	fontRes, err := resolveFontResource(fontName, res)
	if err != nil {
		return TextBox{}, 0, err
	}

	lines, err := layoutLines(content, width, fontRes, fontSize, lineHeight, ts, wrap)
	if err != nil {
		return TextBox{}, 0, err
	}

	totalHeight := 0.0
	defaultLeading := math.Max(lineHeight-fontSize, 0)
	for i := range lines {
		if lines[i].Height <= 0 {
			lines[i].Height = fontSize
		}
		if i == 0 {
			lines[i].GapBefore = 0
		} else if lines[i].GapBefore <= 0 {
			lines[i].GapBefore = defaultLeading
		}
		totalHeight += lines[i].GapBefore + lines[i].Height
	}
	if len(lines) == 0 {
		totalHeight = 0
	}

	tb := TextBox{
		Content:    content,
		X:          x,
		Y:          y,
		Width:      width,
		LineHeight: lineHeight,
		Font:       fontName,
		FontSize:   fontSize,
		Color:      color,
		Lines:      lines,
		Height:     totalHeight,
		Wrap:       wrap,
	}
	// 对齐属性支持 start/end 别名，默认 left（省略时不写入 JSON）
	if v := strings.ToLower(strings.TrimSpace(attrs["align"])); v != "" {
		if v == "start" {
			v = "left"
		}
		if v == "end" {
			v = "right"
		}
		if v == "left" || v == "center" || v == "right" {
			tb.Align = v
		}
	}
	if debug.RawUnits {
		sizeRaw := RawLengthJSON{Value: size.Value, Unit: UnitToString(size.Unit)}
		lhRaw := lhSpec.JSON()
		tb.Debug = &TextBoxDebug{RawUnits: &RawUnits{FontSize: &sizeRaw, LineHeight: &lhRaw}}
	}
	return tb, totalHeight, nil
}

func resolveFontResource(name string, res ResourceSet) (FontResource, error) {
	if font, ok := res.Fonts[name]; ok {
		return font, nil
	}
	if font, ok := res.Fonts["Body"]; ok {
		return font, nil
	}
	for _, font := range res.Fonts {
		return font, nil
	}
	return FontResource{}, fmt.Errorf("字体 %s 未定义，且没有可用的默认字体", name)
}

func layoutLines(content string, width float64, font FontResource, fontSize, lineHeight float64, ts Typesetter, wrap string) ([]TextLine, error) {
	if ts == nil {
		lines := strings.Split(content, "\n")
		out := make([]TextLine, 0, len(lines))
		textHeight := fontSize
		if textHeight <= 0 {
			textHeight = 12
		}
		leading := math.Max(lineHeight-textHeight, 0)
		for _, l := range lines {
			out = append(out, TextLine{
				Content:   l,
				Width:     width,
				Height:    textHeight,
				GapBefore: leading,
			})
		}
		out[0].GapBefore = 0
		return out, nil
	}
	lines, err := ts.LayoutLines(content, width, font, fontSize, lineHeight, wrap)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		height := fontSize
		if height <= 0 {
			height = lineHeight
		}
		lines = []TextLine{{Content: "", Width: width, Height: height}}
	}
	lines[0].GapBefore = 0
	return lines, nil
}

// resolveColor 先查命名颜色，再按 #hex / rgb() 解析，失败时用默认深灰。
func resolveColor(value string, res ResourceSet) Color {
	if value == "" {
		return defaultTextColor
	}
	if c, ok := res.Colors[value]; ok {
		return c
	}
	if c, ok := colorOf(value); ok {
		return c
	}
	return defaultTextColor
}

func colorOf(value string) (Color, bool) {
	if _, err := theme.ParseColor(value); err != nil {
		return Color{}, false
	}
	r, g, b := theme.RGB255(value)
	return Color{R: int(r), G: int(g), B: int(b)}, true
}
