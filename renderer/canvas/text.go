package canvasrenderer

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/tdewolff/canvas"

	"github.com/ByLCY/trialreport/fonts"
	"github.com/ByLCY/trialreport/layout"
)

// LayoutLines 实现 layout.Typesetter 接口，使用贪心换行算法。
// 约定：fontSize/lineHeight/width 入参均为毫米（mm）。创建字体面时换算为 pt。
func (r *Renderer) LayoutLines(content string, width float64, font layout.FontResource, fontSize, lineHeight float64, wrap string) ([]layout.TextLine, error) {
	face, err := r.fontFace(font, toPt(fontSize), layout.Color{R: 30, G: 30, B: 30})
	if err != nil {
		return nil, err
	}

	lines := greedyWrapTokens(content, width, face, wrap)
	textHeight := face.Metrics().LineHeight
	if textHeight <= 0 {
		textHeight = lineHeight
	}
	leading := math.Max(lineHeight-textHeight, 0)
	if len(lines) == 0 {
		lines = []layout.TextLine{{Height: textHeight}}
	}
	for i := range lines {
		if lines[i].Height <= 0 {
			lines[i].Height = textHeight
		}
		if i > 0 {
			lines[i].GapBefore = leading
		}
	}
	return lines, nil
}

func (r *Renderer) drawTextBoxes(ctx *canvas.Context, boxes []layout.TextBox, set map[string]layout.FontResource) error {
	for _, tb := range boxes {
		if err := r.drawTextBox(ctx, tb, resolveFontResource(tb.Font, set)); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) drawTextBox(ctx *canvas.Context, tb layout.TextBox, fontRes layout.FontResource) error {
	face, err := r.fontFace(fontRes, toPt(tb.FontSize), tb.Color)
	if err != nil {
		return err
	}

	lines := tb.Lines
	if len(lines) == 0 {
		lines = []layout.TextLine{{Content: tb.Content, Width: tb.Width, Height: tb.LineHeight}}
	}

	var textAlign canvas.TextAlign
	var anchorX float64
	switch strings.ToLower(tb.Align) {
	case "center":
		textAlign = canvas.Center
		anchorX = tb.X + tb.Width/2
	case "right", "end":
		textAlign = canvas.Right
		anchorX = tb.X + tb.Width
	default:
		textAlign = canvas.Left
		anchorX = tb.X
	}

	ascent := face.Metrics().Ascent
	cursorY := tb.Y
	for _, line := range lines {
		cursorY += line.GapBefore
		lineHeight := line.Height
		if lineHeight <= 0 {
			lineHeight = tb.LineHeight
		}
		if line.Content != "" {
			// 基线 = 行顶部 + 字体上升部
			ctx.DrawText(anchorX, cursorY+ascent, canvas.NewTextLine(face, line.Content, textAlign))
		}
		cursorY += lineHeight
	}
	return nil
}

// drawLabels 绘制图表标注；Label.Y 已是基线。
func (r *Renderer) drawLabels(ctx *canvas.Context, labels []layout.Label, set map[string]layout.FontResource) error {
	for _, lb := range labels {
		if lb.Content == "" {
			continue
		}
		face, err := r.fontFace(resolveFontResource(lb.Font, set), toPt(lb.FontSize), lb.Color)
		if err != nil {
			return err
		}
		align := canvas.Left
		switch lb.Anchor {
		case "middle":
			align = canvas.Center
		case "end":
			align = canvas.Right
		}
		ctx.DrawText(lb.X, lb.Y, canvas.NewTextLine(face, lb.Content, align))
	}
	return nil
}

func (r *Renderer) fontFace(font layout.FontResource, size float64, col layout.Color) (*canvas.FontFace, error) {
	family, style, err := r.ensureFontFamily(font)
	if err != nil {
		return nil, err
	}
	if size <= 0 {
		size = 9
	}
	return family.Face(size, colorFromLayout(col), style, canvas.FontNormal), nil
}

func (r *Renderer) ensureFontFamily(font layout.FontResource) (*canvas.FontFamily, canvas.FontStyle, error) {
	key := fontCacheKey(font)
	r.fontMu.Lock()
	defer r.fontMu.Unlock()

	if entry, ok := r.fontFamilies[key]; ok {
		return entry.family, entry.style, nil
	}

	style := parseFontStyle(font.Style)
	familyName := font.Family
	if familyName == "" {
		familyName = font.Name
	}
	if familyName == "" {
		familyName = "Body"
	}
	family := canvas.NewFontFamily(familyName)

	data, err := r.loadFontBytes(font)
	if err == nil {
		err = family.LoadFont(data, 0, style)
	}
	if err != nil {
		fallback, fbErr := r.fallback()
		if fbErr != nil {
			return nil, canvas.FontRegular, err
		}
		r.fontFamilies[key] = &fontFamilyEntry{family: fallback, style: canvas.FontRegular}
		return fallback, canvas.FontRegular, nil
	}

	r.fontFamilies[key] = &fontFamilyEntry{family: family, style: style}
	return family, style, nil
}

func (r *Renderer) loadFontBytes(font layout.FontResource) ([]byte, error) {
	src := font.Src
	switch {
	case src == "":
		return nil, fmt.Errorf("字体 %s 缺少 src", font.Name)
	case strings.HasPrefix(src, "built-in:"), strings.HasPrefix(src, "builtin:"):
		name := strings.TrimPrefix(strings.TrimPrefix(src, "built-in:"), "builtin:")
		if blob, ok := r.fontBlobs[name]; ok {
			return blob, nil
		}
		return nil, fmt.Errorf("找不到内置字体资源 built-in:%s", name)
	case strings.HasPrefix(src, "embed:"):
		return fonts.Load(src)
	}
	path := src
	if !filepath.IsAbs(path) {
		if r.baseDir == "" {
			return nil, fmt.Errorf("未指定资源目录时不允许直接使用字体路径：%s（请改用 built-in: 或 embed:）", src)
		}
		path = filepath.Join(r.baseDir, path)
	}
	return os.ReadFile(path)
}

// fallback 调用方需持有 fontMu。
func (r *Renderer) fallback() (*canvas.FontFamily, error) {
	if r.fallbackFamily != nil {
		return r.fallbackFamily, nil
	}
	data, err := fonts.Load(fonts.SansRegular)
	if err != nil {
		return nil, err
	}
	family := canvas.NewFontFamily("trialreport-fallback")
	if err := family.LoadFont(data, 0, canvas.FontRegular); err != nil {
		return nil, err
	}
	r.fallbackFamily = family
	return family, nil
}

func resolveFontResource(name string, set map[string]layout.FontResource) layout.FontResource {
	if font, ok := set[name]; ok {
		return font
	}
	if font, ok := set["Body"]; ok {
		return font
	}
	for _, font := range set {
		return font
	}
	return layout.FontResource{Name: "Body", Src: "embed:" + fonts.SansRegular}
}

func parseFontStyle(style string) canvas.FontStyle {
	s := strings.ToLower(style)
	result := canvas.FontRegular
	switch {
	case strings.Contains(s, "black"):
		result = canvas.FontBlack
	case strings.Contains(s, "extrabold"):
		result = canvas.FontExtraBold
	case strings.Contains(s, "semibold"), strings.Contains(s, "demibold"):
		result = canvas.FontSemiBold
	case strings.Contains(s, "bold"):
		result = canvas.FontBold
	case strings.Contains(s, "medium"):
		result = canvas.FontMedium
	case strings.Contains(s, "light"):
		result = canvas.FontLight
	}
	if strings.Contains(s, "italic") || strings.Contains(s, "oblique") {
		result |= canvas.FontItalic
	}
	return result
}

func fontCacheKey(font layout.FontResource) string {
	return fmt.Sprintf("%s|%s|%s", font.Name, font.Src, font.Style)
}

func colorFromLayout(c layout.Color) color.Color {
	return canvas.RGBA(float64(c.R)/255.0, float64(c.G)/255.0, float64(c.B)/255.0, 1.0)
}

// toPt 将毫米(mm)转换为点(pt)。
func toPt(mm float64) float64 { return mm * layout.MmToPt }

// lineWrapper 累积当前行内容，宽度单位为 mm。
type lineWrapper struct {
	face  *canvas.FontFace
	limit float64
	lines []layout.TextLine
	buf   strings.Builder
	width float64
}

// emit 结束当前行；force 为真时空行也会输出（显式换行）。
func (w *lineWrapper) emit(force bool) {
	if w.buf.Len() == 0 {
		if force {
			w.lines = append(w.lines, layout.TextLine{})
		}
		return
	}
	w.lines = append(w.lines, layout.TextLine{Content: w.buf.String(), Width: w.width})
	w.buf.Reset()
	w.width = 0
}

// add 追加片段，放不下时先换行；追加后恰好溢出也立即换行。
func (w *lineWrapper) add(piece string) {
	pw := w.face.TextWidth(piece)
	if w.width > 0 && w.width+pw > w.limit {
		w.emit(false)
	}
	w.buf.WriteString(piece)
	w.width += pw
	if w.width > w.limit {
		w.emit(false)
	}
}

// greedyWrapTokens 支持三种策略：nowrap 仅按显式换行；break-word 逐字符切分；
// 其余（anywhere 默认）优先在空白处分割，超长单词在词内拆分。
func greedyWrapTokens(content string, width float64, face *canvas.FontFace, wrap string) []layout.TextLine {
	limit := width
	if limit <= 0 {
		limit = math.MaxFloat64
	}

	if wrap == "nowrap" {
		parts := strings.Split(strings.ReplaceAll(content, "\r", ""), "\n")
		lines := make([]layout.TextLine, 0, len(parts))
		for _, p := range parts {
			lines = append(lines, layout.TextLine{Content: p, Width: face.TextWidth(p)})
		}
		return lines
	}

	w := &lineWrapper{face: face, limit: limit}
	if wrap == "break-word" {
		for _, ch := range content {
			switch ch {
			case '\r':
			case '\n':
				w.emit(true)
			default:
				w.add(string(ch))
			}
		}
		w.emit(true)
		return w.lines
	}

	for _, token := range tokenizeContent(content) {
		if token == "\n" {
			w.emit(true)
			continue
		}
		if face.TextWidth(token) <= limit {
			w.add(token)
			continue
		}
		for _, chunk := range splitTokenByWidth(token, limit, face) {
			w.add(chunk)
		}
	}
	w.emit(true)
	return w.lines
}

// tokenizeContent 将文本切成交替的空白/非空白片段，换行单独成为 "\n"。
func tokenizeContent(s string) []string {
	var tokens []string
	var builder strings.Builder
	lastWasSpace := false
	flush := func() {
		if builder.Len() == 0 {
			return
		}
		tokens = append(tokens, builder.String())
		builder.Reset()
	}

	for _, r := range s {
		if r == '\r' {
			continue
		}
		if r == '\n' {
			flush()
			tokens = append(tokens, "\n")
			lastWasSpace = false
			continue
		}
		isSpace := unicode.IsSpace(r)
		if builder.Len() > 0 && lastWasSpace != isSpace {
			flush()
		}
		lastWasSpace = isSpace
		builder.WriteRune(r)
	}
	flush()
	return tokens
}

func splitTokenByWidth(token string, limit float64, face *canvas.FontFace) []string {
	if limit <= 0 || limit == math.MaxFloat64 {
		return []string{token}
	}
	var parts []string
	var current []rune
	for _, r := range token {
		current = append(current, r)
		if len(current) > 1 && face.TextWidth(string(current)) > limit {
			parts = append(parts, string(current[:len(current)-1]))
			current = current[len(current)-1:]
		}
	}
	if len(current) > 0 {
		parts = append(parts, string(current))
	}
	return parts
}
