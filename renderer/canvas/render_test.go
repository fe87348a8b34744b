package canvasrenderer

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"math"
	"strings"
	"testing"

	"github.com/ByLCY/trialreport/layout"
)

func samplePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: 180, G: 90, B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestDecodeDataURL(t *testing.T) {
	raw := samplePNG(t, 4, 2)
	src := "data:image/png;base64," + base64.StdEncoding.EncodeToString(raw)
	got, err := decodeDataURL(src)
	if err != nil {
		t.Fatalf("decodeDataURL error: %v", err)
	}
	if !bytes.Equal(got, raw) {
		t.Fatalf("data URL 解码结果不一致")
	}
	if plain, err := decodeDataURL("data:text/plain,HV%20620"); err != nil || string(plain) != "HV 620" {
		t.Fatalf("百分号编码解析错误: %q %v", plain, err)
	}
	if _, err := decodeDataURL("data:image/png;base64"); err == nil {
		t.Fatalf("缺少逗号时应返回错误")
	}
}

func TestFitImageContain(t *testing.T) {
	box := layout.ImageBox{X: 10, Y: 20, Width: 60, Height: 40, Fit: "contain"}
	// 宽图：按宽度缩放，纵向居中
	x, y, w := fitImage(box, 300, 100)
	if math.Abs(w-60) > 1e-9 || math.Abs(x-10) > 1e-9 || math.Abs(y-(20+(40-20)/2.0)) > 1e-9 {
		t.Fatalf("宽图 contain 错误: x=%g y=%g w=%g", x, y, w)
	}
	// 高图：按高度缩放，横向居中
	x, y, w = fitImage(box, 100, 200)
	if math.Abs(w-20) > 1e-9 || math.Abs(x-(10+20)) > 1e-9 || math.Abs(y-20) > 1e-9 {
		t.Fatalf("高图 contain 错误: x=%g y=%g w=%g", x, y, w)
	}
	box.Fit = ""
	if x, y, w = fitImage(box, 100, 200); x != 10 || y != 20 || w != 60 {
		t.Fatalf("未设置 fit 时应按框宽绘制: x=%g y=%g w=%g", x, y, w)
	}
}

func TestRenderProducesPDFWithPlaceholders(t *testing.T) {
	r := NewRendererWithOptions(Options{
		Images: map[string]Resource{"logo": {Bytes: samplePNG(t, 8, 8)}},
	})
	border := layout.Color{R: 200, G: 200, B: 200}
	page := layout.Page{
		Width: 210, Height: 297,
		Texts: []layout.TextBox{{Content: "PART IDENTIFICATION", X: 15, Y: 15, Width: 100, FontSize: 11 * layout.PtToMm, Font: "Bold"}},
		Images: []layout.ImageBox{
			{Path: "built-in:logo", X: 15, Y: 30, Width: 20, Height: 20, Fit: "contain"},
			{Path: "data:image/png;base64," + base64.StdEncoding.EncodeToString(samplePNG(t, 6, 3)), X: 40, Y: 30, Width: 30, Height: 20, Fit: "contain"},
			{Path: "https://example.invalid/micro.jpg", X: 75, Y: 30, Width: 20, Height: 20},
			{Path: "built-in:missing", X: 100, Y: 30, Width: 20, Height: 20},
		},
		Rects:     []layout.Rect{{X: 15, Y: 60, Width: 50, Height: 10, FillColor: &border}},
		Lines:     []layout.Line{{X1: 15, Y1: 75, X2: 100, Y2: 75, Color: border, Dash: []float64{1, 1}}},
		Polylines: []layout.Polyline{{Points: []layout.Point{{X: 15, Y: 80}, {X: 40, Y: 90}, {X: 60, Y: 85}}, Color: border, Width: 0.3}},
		Polygons:  []layout.Polygon{{Points: []layout.Point{{X: 70, Y: 80}, {X: 90, Y: 80}, {X: 80, Y: 95}}, Fill: border}},
		Circles:   []layout.Circle{{CX: 120, CY: 85, R: 2, StrokeColor: border}},
		Labels:    []layout.Label{{Content: "920 °C", X: 100, Y: 100, FontSize: 2.5, Anchor: "middle"}},
		Tables: []layout.TableBox{{
			X: 15, Y: 110, Width: 80, ColumnWidths: []float64{40, 40},
			Rows: []layout.TableRow{
				{Y: 110, Height: 6, IsHeader: true, Cells: []layout.TableCell{{Text: layout.TextBox{Content: "Position", X: 15, Y: 110, Width: 40, FontSize: 3}}, {Text: layout.TextBox{Content: "HV", X: 55, Y: 110, Width: 40, FontSize: 3}}}},
				{Y: 116, Height: 6, Cells: []layout.TableCell{{Text: layout.TextBox{Content: "0.1 mm", X: 15, Y: 116, Width: 40, FontSize: 3}}, {Text: layout.TextBox{Content: "712", X: 55, Y: 116, Width: 40, FontSize: 3}}}},
			},
		}},
		Footer: layout.HeaderFooter{Height: 10, Texts: []layout.TextBox{{Content: "Page 1 / 1", X: 15, Y: 285, Width: 180, Align: "right", FontSize: 2.5}}},
	}
	res := &layout.Result{
		Pages: []layout.Page{page},
		Resources: layout.ResourceSet{Fonts: map[string]layout.FontResource{
			"Body": {Name: "Body", Src: "embed:lmsans10-regular"},
			"Bold": {Name: "Bold", Src: "embed:lmsans10-bold", Style: "bold"},
		}},
		Meta: layout.DocumentMeta{ID: "abc", Title: "HT-0042", Creator: "trialreport"},
	}
	pdf, err := r.Render(res)
	if err != nil {
		t.Fatalf("Render error: %v", err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF")) {
		t.Fatalf("输出不是 PDF: %q", pdf[:min(8, len(pdf))])
	}
	missing := r.MissingImages()
	if len(missing) != 2 {
		t.Fatalf("应有两张图片以占位框代替，实际 %v", missing)
	}
	if !strings.HasPrefix(missing[0], "https://example.invalid/micro.jpg") || !strings.HasPrefix(missing[1], "built-in:missing") {
		t.Fatalf("缺失图片记录顺序错误: %v", missing)
	}
}

func TestRenderRejectsEmptyResult(t *testing.T) {
	r := NewRenderer(".")
	if _, err := r.Render(nil); err == nil {
		t.Fatalf("nil 结果应返回错误")
	}
	if _, err := r.Render(&layout.Result{}); err == nil {
		t.Fatalf("无页面时应返回错误")
	}
}

func TestUnknownFontFallsBackToBuiltin(t *testing.T) {
	r := NewRenderer("")
	lines, err := r.LayoutLines("Quench", 50, layout.FontResource{Name: "Missing", Src: "embed:no-such-font"}, 3, 4, "")
	if err != nil {
		t.Fatalf("未知字体应回退到内置字体: %v", err)
	}
	if len(lines) != 1 || lines[0].Width <= 0 {
		t.Fatalf("回退字体排版结果异常: %+v", lines)
	}
}
