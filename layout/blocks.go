package layout

import (
	"math"

	"github.com/ByLCY/trialreport/chart"
	"github.com/ByLCY/trialreport/report"
	"github.com/ByLCY/trialreport/scale"
)

const (
	photoGap     = 3.0
	captionGap   = 1.0
	subheadPad   = 1.5
	noticePad    = 2.0
	accentStripe = 1.2
)

// composeText 排版文本块。字段为 label 在上、值在下；子标题与提示带底色或边框。
func (b *builder) composeText(ctx *flowContext, t *report.TextBlock, x, y, width float64) (*pageAccumulator, float64, error) {
	frag := &pageAccumulator{}
	switch t.Style {
	case report.StyleField:
		label, lh, err := b.text("fieldLabel", nil, t.Label, x, y, width)
		if err != nil {
			return nil, 0, err
		}
		content := t.Content
		if content == "" {
			content = "-"
		}
		value, vh, err := b.text("field", nil, content, x, y+lh+0.5, width)
		if err != nil {
			return nil, 0, err
		}
		frag.appendText(label)
		frag.appendText(value)
		return frag, lh + 0.5 + vh, nil

	case report.StyleSubheading:
		inset := subheadPad + accentStripe
		tb, h, err := b.text("subheading", map[string]string{"color": ctx.colors.Text}, t.Content, x+inset, y+subheadPad, width-inset-subheadPad)
		if err != nil {
			return nil, 0, err
		}
		height := h + 2*subheadPad
		bg := resolveColor(ctx.colors.Background, b.res)
		accent := resolveColor(ctx.colors.Accent, b.res)
		frag.rects = append(frag.rects,
			Rect{X: x, Y: y, Width: width, Height: height, FillColor: &bg},
			Rect{X: x, Y: y, Width: accentStripe, Height: height, FillColor: &accent},
		)
		frag.appendText(tb)
		return frag, height, nil

	case report.StyleNotice:
		tb, h, err := b.text("notice", nil, t.Content, x+noticePad, y+noticePad, width-2*noticePad)
		if err != nil {
			return nil, 0, err
		}
		height := h + 2*noticePad
		border := resolveColor("border", b.res)
		frag.rects = append(frag.rects, Rect{X: x, Y: y, Width: width, Height: height, StrokeColor: &border, StrokeWidth: 0.3})
		frag.appendText(tb)
		return frag, height, nil
	}

	style := string(t.Style)
	if _, ok := b.res.Styles[style]; !ok {
		style = string(report.StyleParagraph)
	}
	content := t.Content
	if t.Label != "" {
		content = t.Label + ": " + content
	}
	tb, h, err := b.text(style, nil, content, x, y, width)
	if err != nil {
		return nil, 0, err
	}
	frag.appendText(tb)
	return frag, h, nil
}

// columnWidths 按权重分配列宽，权重缺失或无效时平均分配。
func columnWidths(tb *report.TableBlock, width float64) []float64 {
	cols := len(tb.Header)
	for _, r := range tb.Rows {
		if len(r) > cols {
			cols = len(r)
		}
	}
	if cols == 0 {
		return nil
	}
	out := make([]float64, cols)
	total := 0.0
	valid := len(tb.Weights) == cols
	for _, w := range tb.Weights {
		if w <= 0 {
			valid = false
		}
		total += w
	}
	for i := range out {
		if valid && total > 0 {
			out[i] = width * tb.Weights[i] / total
		} else {
			out[i] = width / float64(cols)
		}
	}
	return out
}

func (b *builder) newTable(x, y, width float64, widths []float64) TableBox {
	return TableBox{
		X:            x,
		Y:            y,
		Width:        width,
		RowGap:       defaultTableRowGap,
		ColumnWidths: widths,
		BorderColor:  resolveColor("border", b.res),
		HeaderFill:   resolveColor("headerFill", b.res),
	}
}

// tableBottom 返回表格最后一行的底部位置。
func tableBottom(t TableBox) float64 {
	if len(t.Rows) == 0 {
		return t.Y
	}
	last := t.Rows[len(t.Rows)-1]
	return last.Y + last.Height + t.RowGap
}

// composeTable 在固定位置排版整张表，不跨页（用于与其他块并排的表格）。
func (b *builder) composeTable(tb *report.TableBlock, x, y, width float64) (*pageAccumulator, float64, error) {
	frag := &pageAccumulator{}
	cursor := y
	if tb.Title != "" {
		title, h, err := b.text("tableTitle", nil, tb.Title, x, cursor, width)
		if err != nil {
			return nil, 0, err
		}
		frag.appendText(title)
		cursor += h + 1
	}
	widths := columnWidths(tb, width)
	if len(widths) == 0 {
		return frag, cursor - y, nil
	}
	table := b.newTable(x, cursor, width, widths)
	if len(tb.Header) > 0 {
		row, err := b.tableRow(tb.Header, widths, x, cursor, true)
		if err != nil {
			return nil, 0, err
		}
		table.Rows = append(table.Rows, row)
		cursor = tableBottom(table)
	}
	for _, cells := range tb.Rows {
		row, err := b.tableRow(cells, widths, x, cursor, false)
		if err != nil {
			return nil, 0, err
		}
		table.Rows = append(table.Rows, row)
		cursor = tableBottom(table)
	}
	frag.appendTable(table)
	return frag, cursor - y, nil
}

// placeTable 以整宽排版表格并在行边界跨页，续页重复表头。
// 标题、表头与首行放不下时整张表移到下一页。
func (b *builder) placeTable(ctx *flowContext, tb *report.TableBlock) error {
	widths := columnWidths(tb, ctx.width)
	if len(widths) == 0 && tb.Title == "" {
		return nil
	}

	var (
		frag  *pageAccumulator
		table TableBox
	)
	start := func(withTitle bool) error {
		frag = &pageAccumulator{}
		y := ctx.cursorY
		if withTitle && tb.Title != "" {
			title, h, err := b.text("tableTitle", nil, tb.Title, ctx.baseX, y, ctx.width)
			if err != nil {
				return err
			}
			frag.appendText(title)
			y += h + 1
		}
		table = b.newTable(ctx.baseX, y, ctx.width, widths)
		if len(tb.Header) > 0 && len(widths) > 0 {
			row, err := b.tableRow(tb.Header, widths, ctx.baseX, y, true)
			if err != nil {
				return err
			}
			table.Rows = append(table.Rows, row)
		}
		return nil
	}
	flush := func() {
		if len(widths) > 0 {
			frag.appendTable(table)
		}
		ctx.acc().merge(frag)
		ctx.cursorY = tableBottom(table) + blockSpacing
	}

	if err := start(true); err != nil {
		return err
	}
	for i, cells := range tb.Rows {
		y := tableBottom(table)
		row, err := b.tableRow(cells, widths, ctx.baseX, y, false)
		if err != nil {
			return err
		}
		if y+row.Height > ctx.collector.maxContentY() && ctx.allowPageBreak {
			switch {
			case i == 0 && !ctx.atPageTop():
				ctx.pageBreak()
				if err := start(true); err != nil {
					return err
				}
			case i > 0:
				flush()
				ctx.pageBreak()
				if err := start(false); err != nil {
					return err
				}
			}
			y = tableBottom(table)
			if row, err = b.tableRow(cells, widths, ctx.baseX, y, false); err != nil {
				return err
			}
		}
		table.Rows = append(table.Rows, row)
	}
	flush()
	return nil
}

// tableRow 排版一行单元格；缺失的单元格留空以保持列对齐。
func (b *builder) tableRow(cells []string, widths []float64, baseX, baseY float64, header bool) (TableRow, error) {
	row := TableRow{Y: baseY, IsHeader: header}
	style := "tableCell"
	if header {
		style = "tableHeader"
	}
	x := baseX
	maxHeight := 0.0
	for i, colWidth := range widths {
		content := ""
		if i < len(cells) {
			content = cells[i]
		}
		cellWidth := colWidth - 2*cellPadding
		if cellWidth <= 0 {
			cellWidth = colWidth
		}
		tb, height, err := b.text(style, nil, content, x+cellPadding, baseY+cellPadding, cellWidth)
		if err != nil {
			return row, err
		}
		row.Cells = append(row.Cells, TableCell{Text: tb})
		if height > maxHeight {
			maxHeight = height
		}
		x += colWidth
	}
	row.Height = maxHeight + 2*cellPadding
	return row, nil
}

// composeChart 把图表图元从 pt 换算到页面 mm，必要时等比缩小以适应宽度与页高。
func (b *builder) composeChart(cb *report.ChartBlock, x, y, width, maxHeight float64) (*pageAccumulator, float64, error) {
	frag := &pageAccumulator{}
	cursor := y
	if cb.Title != "" {
		title, h, err := b.text("chartTitle", nil, cb.Title, x, cursor, width)
		if err != nil {
			return nil, 0, err
		}
		frag.appendText(title)
		cursor += h + 1
	}
	c := cb.Chart
	cw, ch := c.Width*PtToMm, c.Height*PtToMm
	if cw <= 0 || ch <= 0 {
		return frag, cursor - y, nil
	}
	s := math.Min(1, width/cw)
	if avail := maxHeight - (cursor - y); avail > 0 && ch*s > avail {
		s = avail / ch
	}
	ox := x + (width-cw*s)/2
	b.drawChart(frag, c, ox, cursor, s)
	return frag, cursor - y + ch*s, nil
}

// drawChart 将图元平移到 (ox, oy) 并按 s 缩放。
func (b *builder) drawChart(frag *pageAccumulator, c chart.Chart, ox, oy, s float64) {
	k := PtToMm * s
	at := func(p scale.Point) Point { return Point{X: ox + p.X*k, Y: oy + p.Y*k} }
	dash := func(d []float64) []float64 {
		if len(d) == 0 {
			return nil
		}
		out := make([]float64, len(d))
		for i, v := range d {
			out[i] = v * k
		}
		return out
	}
	for _, p := range c.Primitives {
		switch p.Kind {
		case chart.KindLine:
			if len(p.Points) < 2 {
				continue
			}
			a, e := at(p.Points[0]), at(p.Points[1])
			frag.lines = append(frag.lines, Line{X1: a.X, Y1: a.Y, X2: e.X, Y2: e.Y, Color: resolveColor(p.Stroke, b.res), Width: p.Width * k, Dash: dash(p.Dash)})
		case chart.KindPolyline:
			pts := make([]Point, len(p.Points))
			for i, pt := range p.Points {
				pts[i] = at(pt)
			}
			frag.polylines = append(frag.polylines, Polyline{Points: pts, Color: resolveColor(p.Stroke, b.res), Width: p.Width * k, Dash: dash(p.Dash)})
		case chart.KindPolygon:
			pts := make([]Point, len(p.Points))
			for i, pt := range p.Points {
				pts[i] = at(pt)
			}
			frag.polygons = append(frag.polygons, Polygon{Points: pts, Fill: resolveColor(p.Fill, b.res)})
		case chart.KindRect:
			if len(p.Points) < 2 {
				continue
			}
			a, e := at(p.Points[0]), at(p.Points[1])
			rc := Rect{X: math.Min(a.X, e.X), Y: math.Min(a.Y, e.Y), Width: math.Abs(e.X - a.X), Height: math.Abs(e.Y - a.Y), StrokeWidth: p.Width * k}
			if p.Fill != "" {
				fill := resolveColor(p.Fill, b.res)
				rc.FillColor = &fill
			}
			if p.Stroke != "" {
				stroke := resolveColor(p.Stroke, b.res)
				rc.StrokeColor = &stroke
			}
			frag.rects = append(frag.rects, rc)
		case chart.KindCircle:
			if len(p.Points) == 0 {
				continue
			}
			ctr := at(p.Points[0])
			circle := Circle{CX: ctr.X, CY: ctr.Y, R: p.Radius * k, StrokeColor: resolveColor(p.Stroke, b.res), StrokeWidth: 0.1}
			if p.Fill != "" {
				fill := resolveColor(p.Fill, b.res)
				circle.FillColor = &fill
			}
			frag.circles = append(frag.circles, circle)
		case chart.KindText:
			if len(p.Points) == 0 || p.Text == "" {
				continue
			}
			pos := at(p.Points[0])
			frag.labels = append(frag.labels, Label{
				Content:  p.Text,
				X:        pos.X,
				Y:        pos.Y,
				Font:     "Body",
				FontSize: p.FontSize * k,
				Color:    resolveColor(p.Fill, b.res),
				Anchor:   string(p.Anchor),
			})
		}
	}
}

// composePhotos 按列数逐行排列照片，行内居中，说明文字位于图片下方。
// 超出宽度或页高时等比缩小图片，说明文字不缩放。
func (b *builder) composePhotos(g *report.PhotoGroup, x, y, width, maxHeight float64) (*pageAccumulator, float64, error) {
	cols := g.Columns
	if cols <= 0 {
		cols = 1
	}
	var rows [][]report.PhotoItem
	for i := 0; i < len(g.Items); i += cols {
		end := i + cols
		if end > len(g.Items) {
			end = len(g.Items)
		}
		rows = append(rows, g.Items[i:end])
	}

	naturalW := 0.0
	for _, r := range rows {
		rw := photoGap * float64(len(r)-1)
		for _, it := range r {
			rw += it.Width * PtToMm
		}
		naturalW = math.Max(naturalW, rw)
	}
	s := 1.0
	if naturalW > width && naturalW > 0 {
		s = width / naturalW
	}

	frag, height, imagesH, err := b.photoRows(g.Title, rows, x, y, width, s)
	if err != nil {
		return nil, 0, err
	}
	if maxHeight > 0 && height > maxHeight && imagesH > 0 {
		fixed := height - imagesH
		if room := maxHeight - fixed; room > 0 {
			s *= room / imagesH
			if frag, height, _, err = b.photoRows(g.Title, rows, x, y, width, s); err != nil {
				return nil, 0, err
			}
		}
	}
	return frag, height, nil
}

// photoRows 以缩放系数 s 排版照片行，返回片段、总高与图片占用的高度。
func (b *builder) photoRows(title string, rows [][]report.PhotoItem, x, y, width, s float64) (*pageAccumulator, float64, float64, error) {
	frag := &pageAccumulator{}
	cursor := y
	if title != "" {
		tb, h, err := b.text("photoTitle", nil, title, x, cursor, width)
		if err != nil {
			return nil, 0, 0, err
		}
		frag.appendText(tb)
		cursor += h + 1.5
	}
	border := resolveColor("border", b.res)
	imagesH := 0.0
	for ri, r := range rows {
		if ri > 0 {
			cursor += photoGap
		}
		rowW := photoGap * float64(len(r)-1)
		rowImgH := 0.0
		for _, it := range r {
			rowW += it.Width * PtToMm * s
			rowImgH = math.Max(rowImgH, it.Height*PtToMm*s)
		}
		ix := x + math.Max(width-rowW, 0)/2
		captionH := 0.0
		for _, it := range r {
			w, h := it.Width*PtToMm*s, it.Height*PtToMm*s
			frag.appendImage(ImageBox{Path: it.Source, X: ix, Y: cursor, Width: w, Height: h, Fit: "contain", Opacity: 1})
			frag.rects = append(frag.rects, Rect{X: ix, Y: cursor, Width: w, Height: h, StrokeColor: &border, StrokeWidth: 0.2})
			if it.Caption != "" {
				tb, ch, err := b.text("caption", nil, it.Caption, ix, cursor+rowImgH+captionGap, w)
				if err != nil {
					return nil, 0, 0, err
				}
				frag.appendText(tb)
				captionH = math.Max(captionH, ch+captionGap)
			}
			ix += w + photoGap
		}
		cursor += rowImgH + captionH
		imagesH += rowImgH
	}
	return frag, cursor - y, imagesH, nil
}
