package canvasrenderer

import (
	"github.com/tdewolff/canvas"

	"github.com/ByLCY/trialreport/layout"
)

// 基本图形（毫米单位）。路径均以绝对坐标构建，并在 (0,0) 处绘制。

func drawLines(ctx *canvas.Context, lines []layout.Line) {
	for _, ln := range lines {
		w := ln.Width
		if w <= 0 {
			w = tableBorderWidth
		}
		ctx.SetFillColor(canvas.Transparent)
		ctx.SetStrokeColor(colorFromLayout(ln.Color))
		ctx.SetStrokeWidth(w)
		withDashes(ctx, ln.Dash, func() {
			p := &canvas.Path{}
			p.MoveTo(ln.X1, ln.Y1)
			p.LineTo(ln.X2, ln.Y2)
			ctx.DrawPath(0, 0, p)
		})
	}
}

func drawPolylines(ctx *canvas.Context, polylines []layout.Polyline) {
	for _, pl := range polylines {
		if len(pl.Points) < 2 {
			continue
		}
		w := pl.Width
		if w <= 0 {
			w = tableBorderWidth
		}
		ctx.SetFillColor(canvas.Transparent)
		ctx.SetStrokeColor(colorFromLayout(pl.Color))
		ctx.SetStrokeWidth(w)
		withDashes(ctx, pl.Dash, func() {
			ctx.DrawPath(0, 0, pathOf(pl.Points, false))
		})
	}
}

func drawPolygons(ctx *canvas.Context, polygons []layout.Polygon) {
	for _, pg := range polygons {
		if len(pg.Points) < 3 {
			continue
		}
		ctx.SetFillColor(colorFromLayout(pg.Fill))
		ctx.SetStrokeColor(canvas.Transparent)
		ctx.SetStrokeWidth(0)
		ctx.DrawPath(0, 0, pathOf(pg.Points, true))
	}
}

// drawRects 绘制矩形；StrokeColor 为空时不描边。
func drawRects(ctx *canvas.Context, rects []layout.Rect) {
	for _, rc := range rects {
		if rc.FillColor != nil {
			ctx.SetFillColor(colorFromLayout(*rc.FillColor))
		} else {
			ctx.SetFillColor(canvas.Transparent)
		}
		if rc.StrokeColor != nil {
			w := rc.StrokeWidth
			if w <= 0 {
				w = tableBorderWidth
			}
			ctx.SetStrokeColor(colorFromLayout(*rc.StrokeColor))
			ctx.SetStrokeWidth(w)
		} else {
			ctx.SetStrokeColor(canvas.Transparent)
			ctx.SetStrokeWidth(0)
		}
		ctx.DrawPath(rc.X, rc.Y, canvas.Rectangle(rc.Width, rc.Height))
	}
}

func drawCircles(ctx *canvas.Context, circles []layout.Circle) {
	for _, c := range circles {
		w := c.StrokeWidth
		if w <= 0 {
			w = tableBorderWidth
		}
		if c.FillColor != nil {
			ctx.SetFillColor(colorFromLayout(*c.FillColor))
		} else {
			ctx.SetFillColor(canvas.Transparent)
		}
		ctx.SetStrokeColor(colorFromLayout(c.StrokeColor))
		ctx.SetStrokeWidth(w)
		ctx.DrawPath(c.CX, c.CY, canvas.Circle(c.R))
	}
}

func pathOf(points []layout.Point, closed bool) *canvas.Path {
	p := &canvas.Path{}
	for i, pt := range points {
		if i == 0 {
			p.MoveTo(pt.X, pt.Y)
			continue
		}
		p.LineTo(pt.X, pt.Y)
	}
	if closed {
		p.Close()
	}
	return p
}

func withDashes(ctx *canvas.Context, dash []float64, draw func()) {
	if len(dash) == 0 {
		draw()
		return
	}
	ctx.SetDashes(0, dash...)
	draw()
	ctx.SetDashes(0)
}
