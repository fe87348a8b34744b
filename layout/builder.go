package layout

import (
	"fmt"
	"strings"

	"github.com/ByLCY/trialreport/report"
	"github.com/ByLCY/trialreport/theme"
)

const (
	blockSpacing       = 3.0
	columnGap          = 4.0
	defaultTableRowGap = 0.0
	cellPadding        = 1.2
	titleBarHeight     = 8.0
	titleBarPadding    = 3.0
	defaultCreator     = "trialreport"
)

// Build 将报告的逻辑页面排成以毫米为单位的物理页面。
// 每个逻辑页从新的一页开始，内容溢出时在续页上重复分区标题栏。
func Build(out report.Output, cfg report.Config, th theme.Theme, opts BuildOptions) (*Result, error) {
	if len(out.Pages) == 0 {
		return nil, report.ErrNoPages
	}
	if opts.Typesetter == nil {
		return nil, fmt.Errorf("layout: 缺少排版后端 Typesetter")
	}

	width, height, err := resolvePageSize(cfg.Page.Size)
	if err != nil {
		return nil, err
	}
	margin := resolveMargin(cfg.Page.Margin)
	res, err := collectResources(th)
	if err != nil {
		return nil, err
	}
	meta := collectMeta(out.Meta, opts)

	b := &builder{res: res, theme: th, opts: opts, collector: newPageCollector(width, height, margin)}
	header, err := b.buildHeader(meta.Title)
	if err != nil {
		return nil, err
	}
	b.collector.header = header
	// 先用占位页码确定页脚高度，页数确定后再逐页生成
	footer, err := b.buildFooter(1, 1)
	if err != nil {
		return nil, err
	}
	b.collector.footer = footer

	for i, lp := range out.Pages {
		if err := b.logicalPage(i, lp); err != nil {
			return nil, fmt.Errorf("第 %d 个逻辑页（%s）排版失败: %w", i+1, lp.Section, err)
		}
	}

	pages := b.collector.pages()
	for i := range pages {
		footer, err := b.buildFooter(i+1, len(pages))
		if err != nil {
			return nil, err
		}
		pages[i].Footer = footer
	}

	return &Result{
		Pages:     pages,
		Resources: res,
		Meta:      meta,
	}, nil
}

type builder struct {
	res       ResourceSet
	theme     theme.Theme
	opts      BuildOptions
	collector *pageCollector
}

// text 用命名样式排版一段文本。
func (b *builder) text(style string, attrs map[string]string, content string, x, y, width float64) (TextBox, float64, error) {
	return composeTextBox(style, attrs, content, x, y, width, b.res, b.opts.Typesetter, b.opts.Debug, "anywhere")
}

func (b *builder) root() *flowContext {
	pc := b.collector
	return &flowContext{
		baseX:          pc.margin.Left,
		baseY:          pc.contentTop(),
		width:          pc.width - pc.margin.Left - pc.margin.Right,
		cursorY:        pc.contentTop(),
		collector:      pc,
		margin:         pc.margin,
		allowPageBreak: true,
	}
}

// logicalPage 排版一个逻辑页：标题栏加上按行排列的内容块。
func (b *builder) logicalPage(idx int, lp report.Page) error {
	if idx > 0 {
		b.collector.newPage()
	}
	ctx := b.root()
	ctx.colors = b.sectionColors(lp)

	bar, barHeight, err := b.titleBar(ctx, lp.SectionTitle, lp.IsContinuation)
	if err != nil {
		return err
	}
	contBar, contHeight := bar, barHeight
	if !lp.IsContinuation {
		if contBar, contHeight, err = b.titleBar(ctx, lp.SectionTitle, true); err != nil {
			return err
		}
	}

	mark := func(acc *pageAccumulator) {
		acc.logical = idx
		acc.section = string(lp.Section)
	}
	first := b.collector.curr()
	mark(first)
	first.merge(bar)
	ctx.cursorY += barHeight + blockSpacing
	ctx.pageTop = ctx.cursorY
	ctx.onNewPage = func(acc *pageAccumulator) {
		mark(acc)
		acc.merge(contBar)
		ctx.cursorY += contHeight + blockSpacing
	}

	for _, row := range splitRows(lp.Blocks) {
		if err := b.placeRow(ctx, row); err != nil {
			return err
		}
	}
	return nil
}

// sectionColors 取分区配色，未知分区退回品牌色；逻辑页自带的 accent 优先。
func (b *builder) sectionColors(lp report.Page) theme.SectionColors {
	colors, err := b.theme.Section(string(lp.Section))
	if err != nil {
		colors = theme.SectionColors{
			Accent:     b.theme.Brand.Primary,
			Background: theme.Tint(b.theme.Brand.Primary, 0.9),
			Text:       b.theme.Brand.Secondary,
		}
	}
	if lp.Accent != "" {
		colors.Accent = lp.Accent
	}
	return colors
}

// titleBar 在内容区顶部画分区标题栏，续页追加 "(cont.)"。
func (b *builder) titleBar(ctx *flowContext, title string, cont bool) (*pageAccumulator, float64, error) {
	frag := &pageAccumulator{}
	if cont {
		title += " (cont.)"
	}
	y := b.collector.contentTop()
	fill := resolveColor(ctx.colors.Accent, b.res)
	tb, h, err := b.text("title", nil, title, ctx.baseX+titleBarPadding, y, ctx.width-2*titleBarPadding)
	if err != nil {
		return nil, 0, err
	}
	height := titleBarHeight
	if h+2 > height {
		height = h + 2
	}
	tb.Y = y + (height-h)/2
	frag.rects = append(frag.rects, Rect{X: ctx.baseX, Y: y, Width: ctx.width, Height: height, FillColor: &fill})
	frag.appendText(tb)
	return frag, height, nil
}

// splitRows 将内容块按 span 分组：span 之和不超过 1 的相邻块并排成一行。
func splitRows(blocks []report.Block) [][]report.Block {
	var rows [][]report.Block
	var cur []report.Block
	used := 0.0
	flush := func() {
		if len(cur) > 0 {
			rows = append(rows, cur)
		}
		cur = nil
		used = 0
	}
	for _, blk := range blocks {
		s := spanOf(blk)
		if s >= 1 {
			flush()
			rows = append(rows, []report.Block{blk})
			continue
		}
		if used+s > 1+1e-6 {
			flush()
		}
		cur = append(cur, blk)
		used += s
	}
	flush()
	return rows
}

func spanOf(blk report.Block) float64 {
	if blk.Span <= 0 || blk.Span >= 1 {
		return 1
	}
	return blk.Span
}

// placeRow 放置一行内容块。放不下时换页；一行在空白页上也放不下时拆成逐块整宽放置。
func (b *builder) placeRow(ctx *flowContext, row []report.Block) error {
	if len(row) == 1 && row[0].Kind == report.BlockTable && row[0].Table != nil {
		return b.placeTable(ctx, row[0].Table)
	}
	frag, height, err := b.composeRow(ctx, row, ctx.cursorY)
	if err != nil {
		return err
	}
	if !ctx.fits(height) {
		if len(row) > 1 && height > ctx.freshHeight() {
			for _, blk := range row {
				blk.Span = 0
				if err := b.placeRow(ctx, []report.Block{blk}); err != nil {
					return err
				}
			}
			return nil
		}
		if ctx.ensureSpace(height) {
			if frag, height, err = b.composeRow(ctx, row, ctx.cursorY); err != nil {
				return err
			}
		}
	}
	ctx.acc().merge(frag)
	ctx.cursorY += height + blockSpacing
	return nil
}

// composeRow 在 y 处排版一行，返回片段与行高。
func (b *builder) composeRow(ctx *flowContext, row []report.Block, y float64) (*pageAccumulator, float64, error) {
	frag := &pageAccumulator{}
	usable := ctx.width
	if len(row) > 1 {
		usable -= columnGap * float64(len(row)-1)
	}
	x := ctx.baseX
	height := 0.0
	for _, blk := range row {
		w := usable * spanOf(blk)
		part, h, err := b.composeBlock(ctx, blk, x, y, w, ctx.freshHeight())
		if err != nil {
			return nil, 0, err
		}
		frag.merge(part)
		if h > height {
			height = h
		}
		x += w + columnGap
	}
	return frag, height, nil
}

func (b *builder) composeBlock(ctx *flowContext, blk report.Block, x, y, width, maxHeight float64) (*pageAccumulator, float64, error) {
	switch blk.Kind {
	case report.BlockText:
		if blk.Text != nil {
			return b.composeText(ctx, blk.Text, x, y, width)
		}
	case report.BlockTable:
		if blk.Table != nil {
			return b.composeTable(blk.Table, x, y, width)
		}
	case report.BlockChart:
		if blk.Chart != nil {
			return b.composeChart(blk.Chart, x, y, width, maxHeight)
		}
	case report.BlockPhotos:
		if blk.Photos != nil {
			return b.composePhotos(blk.Photos, x, y, width, maxHeight)
		}
	}
	return &pageAccumulator{}, 0, nil
}

// buildHeader 页眉：报告标题与一条分隔线，底部对齐到上边距。
func (b *builder) buildHeader(title string) (HeaderFooter, error) {
	pc := b.collector
	hf := HeaderFooter{Height: pc.margin.Top}
	title = strings.TrimSpace(title)
	if title == "" {
		return hf, nil
	}
	width := pc.width - pc.margin.Left - pc.margin.Right
	tb, h, err := b.text("header", nil, title, pc.margin.Left, 0, width)
	if err != nil {
		return hf, err
	}
	if h+4 > hf.Height {
		hf.Height = h + 4
	}
	tb.Y = hf.Height - h - 3
	hf.Texts = append(hf.Texts, tb)
	hf.Lines = append(hf.Lines, Line{
		X1: pc.margin.Left, Y1: hf.Height - 2,
		X2: pc.width - pc.margin.Right, Y2: hf.Height - 2,
		Color: resolveColor("border", b.res), Width: 0.3,
	})
	return hf, nil
}

// buildFooter 页脚：分隔线与右对齐页码。
func (b *builder) buildFooter(page, total int) (HeaderFooter, error) {
	pc := b.collector
	hf := HeaderFooter{Height: pc.margin.Bottom}
	width := pc.width - pc.margin.Left - pc.margin.Right
	tb, h, err := b.text("footer", nil, fmt.Sprintf("Page %d / %d", page, total), pc.margin.Left, 0, width)
	if err != nil {
		return hf, err
	}
	if h+4 > hf.Height {
		hf.Height = h + 4
	}
	top := pc.height - hf.Height
	tb.Y = top + 3
	hf.Texts = append(hf.Texts, tb)
	hf.Lines = append(hf.Lines, Line{
		X1: pc.margin.Left, Y1: top + 1.5,
		X2: pc.width - pc.margin.Right, Y2: top + 1.5,
		Color: resolveColor("border", b.res), Width: 0.3,
	})
	return hf, nil
}

type pageAccumulator struct {
	logical   int
	section   string
	texts     []TextBox
	images    []ImageBox
	tables    []TableBox
	lines     []Line
	rects     []Rect
	circles   []Circle
	polylines []Polyline
	polygons  []Polygon
	labels    []Label
}

func (p *pageAccumulator) appendText(tb TextBox) {
	p.texts = append(p.texts, tb)
}

func (p *pageAccumulator) appendImage(img ImageBox) {
	p.images = append(p.images, img)
}

func (p *pageAccumulator) appendTable(t TableBox) {
	p.tables = append(p.tables, t)
}

// merge 追加另一片段的全部元素。
func (p *pageAccumulator) merge(o *pageAccumulator) {
	if o == nil {
		return
	}
	p.texts = append(p.texts, o.texts...)
	p.images = append(p.images, o.images...)
	p.tables = append(p.tables, o.tables...)
	p.lines = append(p.lines, o.lines...)
	p.rects = append(p.rects, o.rects...)
	p.circles = append(p.circles, o.circles...)
	p.polylines = append(p.polylines, o.polylines...)
	p.polygons = append(p.polygons, o.polygons...)
	p.labels = append(p.labels, o.labels...)
}

type pageCollector struct {
	width   float64
	height  float64
	margin  Margin
	accs    []*pageAccumulator
	current int
	// 页眉/页脚布局结果，应用于所有页面
	header HeaderFooter
	footer HeaderFooter
}

func newPageCollector(width, height float64, margin Margin) *pageCollector {
	pc := &pageCollector{
		width:  width,
		height: height,
		margin: margin,
	}
	pc.newPage()
	return pc
}

func (pc *pageCollector) newPage() *pageAccumulator {
	acc := &pageAccumulator{}
	pc.accs = append(pc.accs, acc)
	pc.current = len(pc.accs) - 1
	return acc
}

func (pc *pageCollector) curr() *pageAccumulator {
	if len(pc.accs) == 0 {
		return pc.newPage()
	}
	return pc.accs[pc.current]
}

func (pc *pageCollector) maxContentY() float64 {
	// 可用内容底部 = 页面高度 - 下边距 - 页脚高度
	return pc.contentBottom()
}

func (pc *pageCollector) contentTop() float64 {
	// Word 逻辑：内容区域顶部 = max(上边距, 页眉高度)
	if pc.header.Height > pc.margin.Top {
		return pc.header.Height
	}
	return pc.margin.Top
}

func (pc *pageCollector) contentBottom() float64 {
	// Word 逻辑：内容区域底部 = 页面高度 - max(下边距, 页脚高度)
	b := pc.margin.Bottom
	if pc.footer.Height > b {
		b = pc.footer.Height
	}
	return pc.height - b
}

func (pc *pageCollector) pages() []Page {
	out := make([]Page, len(pc.accs))
	for i, acc := range pc.accs {
		out[i] = Page{
			Width:     pc.width,
			Height:    pc.height,
			Margin:    pc.margin,
			Logical:   acc.logical,
			Section:   acc.section,
			Texts:     acc.texts,
			Images:    acc.images,
			Tables:    acc.tables,
			Lines:     acc.lines,
			Rects:     acc.rects,
			Circles:   acc.circles,
			Polylines: acc.polylines,
			Polygons:  acc.polygons,
			Labels:    acc.labels,
			Header:    pc.header,
			Footer:    pc.footer,
		}
	}
	return out
}

type flowContext struct {
	baseX          float64
	baseY          float64
	width          float64
	cursorY        float64
	collector      *pageCollector
	margin         Margin
	allowPageBreak bool
	// pageTop 为标题栏之下的首个内容位置
	pageTop   float64
	colors    theme.SectionColors
	onNewPage func(acc *pageAccumulator)
}

func (ctx *flowContext) fits(height float64) bool {
	if ctx.collector == nil {
		return true
	}
	return ctx.cursorY+height <= ctx.collector.maxContentY()+1e-6
}

// atPageTop 当前页尚未放置任何内容块。
func (ctx *flowContext) atPageTop() bool {
	return ctx.cursorY <= ctx.pageTop+1e-6
}

// freshHeight 为一张新页可容纳的内容高度。
func (ctx *flowContext) freshHeight() float64 {
	if ctx.collector == nil {
		return 0
	}
	return ctx.collector.maxContentY() - ctx.pageTop
}

// ensureSpace 剩余空间不足时换页，返回是否换了页。已在页首时不再换页。
func (ctx *flowContext) ensureSpace(height float64) bool {
	if !ctx.allowPageBreak {
		return false
	}
	if ctx.collector == nil {
		return false
	}
	if ctx.fits(height) || ctx.atPageTop() {
		return false
	}
	ctx.pageBreak()
	return true
}

func (ctx *flowContext) pageBreak() {
	if ctx.collector == nil {
		return
	}
	acc := ctx.collector.newPage()
	ctx.baseX = ctx.margin.Left
	// 新页从内容区域顶部开始（考虑页眉高度）
	ctx.baseY = ctx.collector.contentTop()
	ctx.cursorY = ctx.baseY
	if ctx.onNewPage != nil {
		ctx.onNewPage(acc)
	}
	ctx.pageTop = ctx.cursorY
}

func (ctx *flowContext) acc() *pageAccumulator {
	if ctx.collector == nil {
		return nil
	}
	return ctx.collector.curr()
}

func resolvePageSize(size string) (float64, float64, error) {
	if strings.TrimSpace(size) == "" {
		size = "A4"
	}
	base, ok := pagePresets[strings.ToUpper(strings.TrimSpace(size))]
	if !ok {
		return 0, 0, fmt.Errorf("暂不支持的纸张尺寸：%s", size)
	}
	return base[0], base[1], nil
}

var pagePresets = map[string][2]float64{
	"A4":     {210, 297},
	"A5":     {148, 210},
	"LETTER": {215.9, 279.4},
}

// resolveMargin 四边使用同一边距（mm）。
func resolveMargin(v float64) Margin {
	if v < 0 {
		v = 0
	}
	return Margin{Top: v, Right: v, Bottom: v, Left: v}
}

func collectMeta(m report.Meta, opts BuildOptions) DocumentMeta {
	var keywords []string
	for _, k := range strings.Split(m.Keywords, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keywords = append(keywords, k)
		}
	}
	if m.ID != "" {
		keywords = append(keywords, m.ID)
	}
	creator := opts.Creator
	if creator == "" {
		creator = defaultCreator
	}
	return DocumentMeta{
		ID:       m.ID,
		Title:    m.Title,
		Author:   m.Author,
		Subject:  m.Subject,
		Creator:  creator,
		Keywords: keywords,
	}
}
