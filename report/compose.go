package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ByLCY/trialreport/chart"
	"github.com/ByLCY/trialreport/model"
	"github.com/ByLCY/trialreport/numeric"
	"github.com/ByLCY/trialreport/photolayout"
	"github.com/ByLCY/trialreport/theme"
)

// photoPageHeight 照片分组打包时可用的页面高度（pt）。
const photoPageHeight = 700.0

// sectionContext is what a composer sees: the input, its own section
// configuration and the theme. Composers report recovered problems through
// issue and never mutate the input.
type sectionContext struct {
	in      *model.Input
	cfg     SectionConfig
	theme   theme.Theme
	section SectionType
	colors  theme.SectionColors
	issues  []Issue
}

func (c *sectionContext) issue(kind IssueKind, format string, args ...any) {
	c.issues = append(c.issues, Issue{Kind: kind, Section: c.section, Detail: fmt.Sprintf(format, args...)})
}

func (c *sectionContext) photos() []model.Photo {
	return c.in.Photos.Section(string(c.section))
}

func (c *sectionContext) photosPresent() bool {
	return c.in.Photos.Present(string(c.section))
}

func (c *sectionContext) pages() *pageBuilder {
	return &pageBuilder{section: c.section, accent: c.colors.Accent}
}

// composer builds the pages of one section.
type composer func(c *sectionContext) ([]Page, error)

// pageBuilder accumulates the logical pages of a section. Every page after
// the first is a continuation.
type pageBuilder struct {
	section SectionType
	accent  string
	pages   []Page
}

// page starts a new page.
func (b *pageBuilder) page() {
	b.pages = append(b.pages, Page{
		Section:        b.section,
		SectionTitle:   b.section.Title(),
		IsContinuation: len(b.pages) > 0,
		Accent:         b.accent,
	})
}

// add appends blocks to the current page, starting one if needed.
func (b *pageBuilder) add(blocks ...Block) {
	if len(b.pages) == 0 {
		b.page()
	}
	last := &b.pages[len(b.pages)-1]
	last.Blocks = append(last.Blocks, blocks...)
}

// pageWith starts a page unless the current one is still empty.
func (b *pageBuilder) pageWith(blocks ...Block) {
	if len(b.pages) == 0 || len(b.pages[len(b.pages)-1].Blocks) > 0 {
		b.page()
	}
	b.add(blocks...)
}

func (b *pageBuilder) done() []Page {
	return b.pages
}

func textBlock(style TextStyle, content string) Block {
	return Block{Kind: BlockText, Text: &TextBlock{Style: style, Content: content}}
}

func heading(content string) Block    { return textBlock(StyleHeading, content) }
func subheading(content string) Block { return textBlock(StyleSubheading, content) }
func paragraph(content string) Block  { return textBlock(StyleParagraph, content) }
func notice(content string) Block     { return textBlock(StyleNotice, content) }

func field(label, value string, span float64) Block {
	return Block{Kind: BlockText, Span: span, Text: &TextBlock{Style: StyleField, Label: label, Content: value}}
}

// fields lays label/value pairs out in cols columns.
func fields(list []model.Field, cols int) []Block {
	span := 0.0
	if cols > 1 {
		span = 1 / float64(cols)
	}
	out := make([]Block, 0, len(list))
	for _, f := range list {
		out = append(out, field(f.Label, f.Value, span))
	}
	return out
}

func table(title string, header []string, rows [][]string, span float64) Block {
	return Block{Kind: BlockTable, Span: span, Table: &TableBlock{Title: title, Header: header, Rows: rows}}
}

func chartBlock(title string, c chart.Chart, span float64) Block {
	return Block{Kind: BlockChart, Span: span, Chart: &ChartBlock{Title: title, Chart: c}}
}

// photoGroup turns one arranged page into a photo block.
func photoGroup(title string, photos []model.Photo, pl photolayout.PageLayout) Block {
	g := &PhotoGroup{Title: title, Layout: pl.Layout, Columns: pl.Columns}
	for i := pl.Start; i < pl.End && i < len(photos); i++ {
		slot := pl.Slots[i-pl.Start]
		g.Items = append(g.Items, PhotoItem{
			Source:  photos[i].Source,
			Caption: photos[i].Caption(),
			Width:   slot.Width,
			Height:  slot.Height,
		})
	}
	return Block{Kind: BlockPhotos, Photos: g}
}

// arrangedPhotos adds the photos of the section with its strategy, one
// logical page per arranged page. The first arranged page continues the
// current page when continueFirst is set.
func (c *sectionContext) arrangedPhotos(b *pageBuilder, title string, photos []model.Photo, continueFirst bool) {
	for i, pl := range c.theme.Photos.Arrange(len(photos), string(c.section)) {
		block := photoGroup(title, photos, pl)
		if i == 0 && continueFirst {
			b.add(block)
			continue
		}
		b.pageWith(block)
	}
}

// num formats a value for tables; missing values print "-".
func num(v numeric.Value) string {
	if s := v.String(); s != "" {
		return s
	}
	return "-"
}

// withUnit 例如 "20 °C"；缺失返回 "-"。
func withUnit(v numeric.Value, unit string) string {
	s := v.String()
	if s == "" {
		return "-"
	}
	if u := v.Unit(); u != "" {
		unit = u
	}
	if unit == "" {
		return s
	}
	return s + " " + unit
}

func formatFloat(v float64) string {
	return chart.FormatValue(v)
}

func plain(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func orNotSpecified(s string) string {
	if strings.TrimSpace(s) == "" {
		return model.NotSpecified
	}
	return s
}
