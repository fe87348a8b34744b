// Package report composes the logical pages of a trial report: one
// composer per section, assembled in configured order.
package report

import (
	"errors"

	"github.com/ByLCY/trialreport/chart"
	"github.com/ByLCY/trialreport/model"
)

// ErrNoPages is returned downstream when an output holds no page at all.
var ErrNoPages = errors.New("报告没有任何页面")

// SectionType identifies a report section. Values are the canonical photo
// section keys.
type SectionType string

const (
	SectionIdentification SectionType = model.SectionIdentification
	SectionLoad           SectionType = model.SectionLoad
	SectionRecipe         SectionType = model.SectionRecipe
	SectionCurves         SectionType = model.SectionCurves
	SectionDatapaq        SectionType = model.SectionDatapaq
	SectionMicrography    SectionType = model.SectionMicrography
	SectionControl        SectionType = model.SectionControl
	SectionPostTreatment  SectionType = model.SectionPostTreatment
	SectionObservations   SectionType = model.SectionObservations

	// SectionNone 仅用于 "No section selected." 提示页。
	SectionNone SectionType = "none"
)

// Sections is the canonical section order.
var Sections = []SectionType{
	SectionIdentification,
	SectionLoad,
	SectionRecipe,
	SectionCurves,
	SectionDatapaq,
	SectionMicrography,
	SectionControl,
	SectionPostTreatment,
	SectionObservations,
}

var sectionTitles = map[SectionType]string{
	SectionIdentification: "PART IDENTIFICATION",
	SectionLoad:           "LOAD CONFIGURATION",
	SectionRecipe:         "RECIPE",
	SectionCurves:         "FURNACE CURVES",
	SectionDatapaq:        "DATAPAQ",
	SectionMicrography:    "MICROGRAPHY",
	SectionControl:        "CONTROL",
	SectionPostTreatment:  "POST-TREATMENT",
	SectionObservations:   "OBSERVATIONS",
	SectionNone:           "REPORT",
}

// Title returns the heading printed in the section title bar.
func (s SectionType) Title() string {
	if t, ok := sectionTitles[s]; ok {
		return t
	}
	return string(s)
}

// Known reports whether s is one of the report sections.
func (s SectionType) Known() bool {
	_, ok := sectionTitles[s]
	return ok && s != SectionNone
}

// BlockKind is the content type of a block.
type BlockKind string

const (
	BlockText   BlockKind = "text"
	BlockTable  BlockKind = "table"
	BlockChart  BlockKind = "chart"
	BlockPhotos BlockKind = "photoGroup"
)

// TextStyle selects the typography of a text block.
type TextStyle string

const (
	StyleHeading    TextStyle = "heading"
	StyleSubheading TextStyle = "subheading"
	StyleParagraph  TextStyle = "paragraph"
	StyleField      TextStyle = "field"
	StyleCaption    TextStyle = "caption"
	StyleNotice     TextStyle = "notice"
)

// Page is one logical page. Layout may spread it over several physical
// pages when its blocks do not fit.
type Page struct {
	Section        SectionType `json:"section"`
	SectionTitle   string      `json:"sectionTitle"`
	IsContinuation bool        `json:"isContinuation"`
	Accent         string      `json:"accent"`
	Blocks         []Block     `json:"blocks"`
}

// Block is a unit of content. Consecutive blocks whose spans add up to at
// most 1 share a row; a zero span means full width.
type Block struct {
	Kind   BlockKind   `json:"kind"`
	Span   float64     `json:"span,omitempty"`
	Text   *TextBlock  `json:"text,omitempty"`
	Table  *TableBlock `json:"table,omitempty"`
	Chart  *ChartBlock `json:"chart,omitempty"`
	Photos *PhotoGroup `json:"photos,omitempty"`
}

// TextBlock is a paragraph, heading, notice or label/value field.
type TextBlock struct {
	Style   TextStyle `json:"style"`
	Label   string    `json:"label,omitempty"`
	Content string    `json:"content"`
}

// TableBlock is a titled table. Weights are relative column widths; empty
// means equal columns.
type TableBlock struct {
	Title   string     `json:"title,omitempty"`
	Header  []string   `json:"header"`
	Rows    [][]string `json:"rows"`
	Weights []float64  `json:"weights,omitempty"`
}

// ChartBlock carries a composed chart (sizes in pt).
type ChartBlock struct {
	Title string      `json:"title,omitempty"`
	Chart chart.Chart `json:"chart"`
}

// PhotoGroup is a titled grid of photos.
type PhotoGroup struct {
	Title   string      `json:"title,omitempty"`
	Layout  string      `json:"layout"`
	Columns int         `json:"columns"`
	Items   []PhotoItem `json:"items"`
}

// PhotoItem 照片及其绘制尺寸（pt）。
type PhotoItem struct {
	Source  string  `json:"source"`
	Caption string  `json:"caption,omitempty"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
}

// IssueKind classifies a recovered data problem.
type IssueKind string

const (
	IssueMissingData       IssueKind = "MissingData"
	IssueMalformedNumeric  IssueKind = "MalformedNumeric"
	IssueUnresolvableAsset IssueKind = "UnresolvableAsset"
	IssueDegenerateDomain  IssueKind = "DegenerateDomain"
	IssueSectionFailure    IssueKind = "SectionFailure"
)

// Issue records a problem that was recovered locally.
type Issue struct {
	Kind    IssueKind   `json:"kind"`
	Section SectionType `json:"section"`
	Detail  string      `json:"detail"`
}

// Meta is the document information of the report.
type Meta struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Author   string `json:"author,omitempty"`
	Subject  string `json:"subject,omitempty"`
	Keywords string `json:"keywords,omitempty"`
}

// Output is the assembled report.
type Output struct {
	Meta   Meta    `json:"meta"`
	Pages  []Page  `json:"pages"`
	Issues []Issue `json:"issues,omitempty"`
}

// IssuesOf returns the issues of one kind.
func (o Output) IssuesOf(kind IssueKind) []Issue {
	var out []Issue
	for _, is := range o.Issues {
		if is.Kind == kind {
			out = append(out, is)
		}
	}
	return out
}
