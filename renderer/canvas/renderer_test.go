package canvasrenderer

import (
	"math"
	"strings"
	"testing"

	"github.com/ByLCY/trialreport/layout"
)

var bodyFont = layout.FontResource{Name: "Body", Src: "embed:lmsans10-regular"}

// 字号、行高与宽度均为 mm
const (
	fontSizeMM   = 9 * layout.PtToMm
	lineHeightMM = fontSizeMM * 1.3
)

func wrapLines(t *testing.T, r *Renderer, content string, width float64, wrap string) []layout.TextLine {
	t.Helper()
	lines, err := r.LayoutLines(content, width, bodyFont, fontSizeMM, lineHeightMM, wrap)
	if err != nil {
		t.Fatalf("LayoutLines(%q) error: %v", content, err)
	}
	return lines
}

func contents(lines []layout.TextLine) []string {
	out := make([]string, len(lines))
	for i, ln := range lines {
		out[i] = ln.Content
	}
	return out
}

func TestWrapModes(t *testing.T) {
	r := NewRenderer(".")
	cases := []struct {
		name    string
		content string
		width   float64
		wrap    string
		check   func([]layout.TextLine) bool
	}{
		{"narrow box wraps at spaces", "Case depth 0.8 mm at 550 HV", 15, "", func(l []layout.TextLine) bool { return len(l) >= 2 }},
		{"blank line kept", "Furnace 3\n\nQuench oil", 100, "", func(l []layout.TextLine) bool {
			return len(l) == 3 && l[0].Content == "Furnace 3" && l[1].Content == "" && l[2].Content == "Quench oil"
		}},
		{"nowrap keeps long line", "Tempering 180 °C / 2 h after gas quench", 5, "nowrap", func(l []layout.TextLine) bool { return len(l) == 1 }},
		{"break-word splits inside words", "HT0042HT0042HT0042", 10, "break-word", func(l []layout.TextLine) bool {
			return len(l) >= 2 && strings.Join(contents(l), "") == "HT0042HT0042HT0042"
		}},
		{"empty content gives one line", "", 50, "", func(l []layout.TextLine) bool { return len(l) == 1 && l[0].Height > 0 }},
	}
	for _, c := range cases {
		if lines := wrapLines(t, r, c.content, c.width, c.wrap); !c.check(lines) {
			t.Fatalf("%s: unexpected lines %q", c.name, contents(lines))
		}
	}
}

// 首行 GapBefore 为 0；其余行 GapBefore = max(lineHeight - textHeight, 0)，Height 统一为字体行高。
func TestLineLeading(t *testing.T) {
	r := NewRenderer(".")
	lines := wrapLines(t, r, strings.Repeat("martensite bainite ", 6), 30, "")
	if len(lines) < 2 {
		t.Fatalf("expected multiple lines, got %d", len(lines))
	}
	textHeight := lines[0].Height
	if textHeight <= 0 {
		t.Fatalf("invalid text height: %g", textHeight)
	}
	if lines[0].GapBefore != 0 {
		t.Fatalf("first line GapBefore must be 0, got %g", lines[0].GapBefore)
	}
	want := math.Max(lineHeightMM-textHeight, 0)
	for i, ln := range lines[1:] {
		if math.Abs(ln.GapBefore-want) > 1e-6 || math.Abs(ln.Height-textHeight) > 1e-6 {
			t.Fatalf("line %d: gap=%g height=%g, want gap=%g height=%g", i+1, ln.GapBefore, ln.Height, want, textHeight)
		}
	}
}

// 超长单词在词内拆分，每行宽度不超过限制。
func TestWrapWidthLimit(t *testing.T) {
	r := NewRenderer(".")
	const limit = 20.0
	lines := wrapLines(t, r, "HT-"+strings.Repeat("0", 60)+"42", limit, "")
	if len(lines) < 2 {
		t.Fatalf("expected the long token to be split, got %d lines", len(lines))
	}
	for i, ln := range lines {
		if ln.Width-limit > 1e-6 {
			t.Fatalf("line %d width %g exceeds limit %g", i, ln.Width, limit)
		}
	}
}

// 首行恰好等宽且紧跟显式换行时，不应产生额外空行。
func TestExactWidthThenNewline(t *testing.T) {
	r := NewRenderer(".")
	measured := wrapLines(t, r, "HT-0042-A", 1e6, "")
	if len(measured) != 1 || measured[0].Width <= 0 {
		t.Fatalf("unexpected measurement: %+v", measured)
	}
	lines := wrapLines(t, r, "HT-0042-A\nHT-0042-B", measured[0].Width, "")
	if got := contents(lines); len(got) != 2 || got[0] != "HT-0042-A" || got[1] != "HT-0042-B" {
		t.Fatalf("expected two lines without blank, got %q", got)
	}
}
