package canvasrenderer

import (
	"bytes"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"

	"github.com/ByLCY/trialreport/layout"
	"github.com/ByLCY/trialreport/renderer"
)

const tableBorderWidth = 0.2

// Renderer draws layout results via github.com/tdewolff/canvas.
type Renderer struct {
	baseDir string
	client  *http.Client

	// injected resources
	fontBlobs  map[string][]byte // by unique name
	imageBlobs map[string][]byte // by unique name

	fontMu         sync.Mutex
	fontFamilies   map[string]*fontFamilyEntry
	fallbackFamily *canvas.FontFamily

	missMu  sync.Mutex
	missing []string
}

var (
	_ renderer.Renderer = (*Renderer)(nil)
	_ layout.Typesetter = (*Renderer)(nil)
)

type fontFamilyEntry struct {
	family *canvas.FontFamily
	style  canvas.FontStyle
}

// Options configures the canvas renderer.
type Options struct {
	BaseDir string
	Fonts   map[string]Resource // built-in fonts accessible via built-in:<name>
	Images  map[string]Resource // built-in images accessible via built-in:<name>
	// HTTPClient 用于拉取远程图片；为空时远程图片以占位框代替。
	HTTPClient *http.Client
}

// Resource can be provided either by Bytes or by Path.
type Resource struct {
	Bytes []byte
	Path  string
}

// NewRenderer creates a canvas-based renderer rooted at baseDir for resolving assets.
func NewRenderer(baseDir string) *Renderer { return NewRendererWithOptions(Options{BaseDir: baseDir}) }

// NewRendererWithOptions creates a renderer with injected resources and optional baseDir.
func NewRendererWithOptions(opts Options) *Renderer {
	return &Renderer{
		baseDir:      opts.BaseDir,
		client:       opts.HTTPClient,
		fontBlobs:    ingest(opts.Fonts),
		imageBlobs:   ingest(opts.Images),
		fontFamilies: map[string]*fontFamilyEntry{},
	}
}

// 读取失败的资源在使用时才报错（字体）或以占位框代替（图片）。
func ingest(in map[string]Resource) map[string][]byte {
	out := make(map[string][]byte, len(in))
	for name, res := range in {
		if name == "" {
			continue
		}
		if len(res.Bytes) > 0 {
			out[name] = res.Bytes
			continue
		}
		if res.Path != "" {
			if data, err := os.ReadFile(res.Path); err == nil && len(data) > 0 {
				out[name] = data
			}
		}
	}
	return out
}

// Render renders the result into a PDF byte slice.
func (r *Renderer) Render(result *layout.Result) ([]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("渲染结果为空")
	}
	if len(result.Pages) == 0 {
		return nil, fmt.Errorf("缺少可渲染的页面")
	}
	r.missMu.Lock()
	r.missing = nil
	r.missMu.Unlock()

	var buf bytes.Buffer
	writer := pdf.New(&buf, result.Pages[0].Width, result.Pages[0].Height, nil)
	applyMeta(writer, result.Meta)
	for i, page := range result.Pages {
		if i > 0 {
			writer.NewPage(page.Width, page.Height)
		}
		c := canvas.New(page.Width, page.Height)
		ctx := canvas.NewContext(c)
		ctx.SetCoordSystem(canvas.CartesianIV) // 使坐标与布局保持左上角为原点

		if err := r.drawPage(ctx, page, result.Resources); err != nil {
			return nil, fmt.Errorf("渲染第 %d 页失败: %w", i+1, err)
		}
		c.RenderTo(writer)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("写入 PDF 失败: %w", err)
	}
	return buf.Bytes(), nil
}

// MissingImages 返回最近一次 Render 中以占位框代替的图片来源。
func (r *Renderer) MissingImages() []string {
	r.missMu.Lock()
	defer r.missMu.Unlock()
	return append([]string(nil), r.missing...)
}

func (r *Renderer) noteMissing(src string, err error) {
	r.missMu.Lock()
	defer r.missMu.Unlock()
	r.missing = append(r.missing, fmt.Sprintf("%s: %v", src, err))
}

// applyMeta 写入 PDF 元信息；报告 ID 已由布局阶段并入关键词。
func applyMeta(writer *pdf.PDF, meta layout.DocumentMeta) {
	if writer == nil {
		return
	}
	writer.SetInfo(meta.Title, meta.Subject, strings.Join(meta.Keywords, ", "), meta.Author, meta.Creator)
}

// drawPage 的绘制顺序：页眉，背景形状，图表，文本，图片，表格，页脚。
func (r *Renderer) drawPage(ctx *canvas.Context, page layout.Page, resources layout.ResourceSet) error {
	drawLines(ctx, page.Header.Lines)
	if err := r.drawTextBoxes(ctx, page.Header.Texts, resources.Fonts); err != nil {
		return err
	}

	drawRects(ctx, page.Rects)
	drawPolygons(ctx, page.Polygons)
	drawLines(ctx, page.Lines)
	drawPolylines(ctx, page.Polylines)
	drawCircles(ctx, page.Circles)
	if err := r.drawLabels(ctx, page.Labels, resources.Fonts); err != nil {
		return err
	}

	if err := r.drawTextBoxes(ctx, page.Texts, resources.Fonts); err != nil {
		return err
	}
	r.drawImages(ctx, page.Images)
	if err := r.drawTables(ctx, page.Tables, resources.Fonts); err != nil {
		return err
	}

	drawLines(ctx, page.Footer.Lines)
	return r.drawTextBoxes(ctx, page.Footer.Texts, resources.Fonts)
}

func (r *Renderer) drawTables(ctx *canvas.Context, tables []layout.TableBox, set map[string]layout.FontResource) error {
	for _, table := range tables {
		if len(table.ColumnWidths) == 0 {
			continue
		}
		headerFill := colorFromLayout(table.HeaderFill)
		if table.HeaderFill == (layout.Color{}) {
			headerFill = canvas.Hex("#f8f8f8")
		}
		for _, row := range table.Rows {
			x := table.X
			for idx, cell := range row.Cells {
				colIdx := min(idx, len(table.ColumnWidths)-1)
				colWidth := table.ColumnWidths[colIdx]
				fill := canvas.White
				if row.IsHeader {
					fill = headerFill
				}
				ctx.SetFillColor(fill)
				ctx.SetStrokeColor(colorFromLayout(table.BorderColor))
				ctx.SetStrokeWidth(tableBorderWidth)
				ctx.DrawPath(x, row.Y, canvas.Rectangle(colWidth, row.Height))

				textBox := cell.Text
				textBox.X += tableBorderWidth
				textBox.Y += tableBorderWidth
				if err := r.drawTextBox(ctx, textBox, resolveFontResource(textBox.Font, set)); err != nil {
					return err
				}
				x += colWidth
			}
		}
	}
	return nil
}
