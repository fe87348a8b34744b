package report

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/ByLCY/trialreport/binding"
	"github.com/ByLCY/trialreport/logger"
	"github.com/ByLCY/trialreport/model"
	"github.com/ByLCY/trialreport/theme"
)

// reportNamespace 报告 ID 的 UUIDv5 命名空间。
var reportNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/ByLCY/trialreport"))

// Option configures Assemble.
type Option func(*assembler)

// WithLogger routes section failures and dropped photos to l.
func WithLogger(l *logger.Logger) Option {
	return func(a *assembler) {
		if l != nil {
			a.log = l
		}
	}
}

// withComposer replaces the composer of one section.
func withComposer(t SectionType, fn composer) Option {
	return func(a *assembler) { a.composers[t] = fn }
}

type assembler struct {
	log       *logger.Logger
	composers map[SectionType]composer
}

// Assemble runs the enabled section composers in configured order and
// concatenates their pages. A failing section is recorded as an issue and
// skipped; data problems never abort the report.
func Assemble(ctx context.Context, in *model.Input, cfg Config, th theme.Theme, opts ...Option) Output {
	a := &assembler{log: logger.Default(), composers: make(map[SectionType]composer, len(composers))}
	for k, v := range composers {
		a.composers[k] = v
	}
	for _, opt := range opts {
		opt(a)
	}
	if in == nil {
		in = &model.Input{}
	}

	out := Output{Meta: buildMeta(in, cfg)}
	for _, d := range in.Photos.Dropped() {
		a.log.Debug("丢弃照片 %s/%s: %s", d.Section, d.Name, d.Reason)
		out.Issues = append(out.Issues, Issue{
			Kind:    IssueUnresolvableAsset,
			Section: SectionType(d.Section),
			Detail:  fmt.Sprintf("%s: %s", d.Name, d.Reason),
		})
	}

	enabled := cfg.EnabledSections()
	if len(enabled) == 0 {
		out.Pages = []Page{{
			Section:      SectionNone,
			SectionTitle: SectionNone.Title(),
			Accent:       theme.Normalize(th.Brand.Primary),
			Blocks:       []Block{notice(msgNoSection)},
		}}
		return out
	}

	for _, sc := range enabled {
		if err := ctx.Err(); err != nil {
			out.Issues = append(out.Issues, Issue{Kind: IssueSectionFailure, Section: sc.Type, Detail: err.Error()})
			continue
		}
		pages, issues := a.run(in, sc, th)
		out.Pages = append(out.Pages, pages...)
		out.Issues = append(out.Issues, issues...)
	}
	a.log.Info("报告生成完成: %d 页, %d 个问题", len(out.Pages), len(out.Issues))
	return out
}

// run composes one section, turning a panic or an error into an issue.
func (a *assembler) run(in *model.Input, sc SectionConfig, th theme.Theme) (pages []Page, issues []Issue) {
	c := &sectionContext{in: in, cfg: sc, theme: th, section: sc.Type}
	defer func() {
		if r := recover(); r != nil {
			a.log.Warn("分区 %s 生成失败: %v", sc.Type, r)
			pages = nil
			issues = append(c.issues, Issue{Kind: IssueSectionFailure, Section: sc.Type, Detail: fmt.Sprint(r)})
		}
	}()

	fn, ok := a.composers[sc.Type]
	if !ok {
		a.log.Warn("未知的分区类型: %s", sc.Type)
		return nil, []Issue{{Kind: IssueSectionFailure, Section: sc.Type, Detail: "未知的分区类型"}}
	}
	colors, err := th.Section(string(sc.Type))
	if err != nil {
		a.log.Debug("%v，使用品牌色", err)
	}
	colors.Accent = theme.Normalize(colors.Accent)
	c.colors = colors

	pages, err = fn(c)
	if err != nil {
		a.log.Warn("分区 %s 生成失败: %v", sc.Type, err)
		return nil, append(c.issues, Issue{Kind: IssueSectionFailure, Section: sc.Type, Detail: err.Error()})
	}
	a.log.Debug("分区 %s: %d 页", sc.Type, len(pages))
	return pages, c.issues
}

// buildMeta resolves the title template and derives a stable report ID
// from the trial code and title.
func buildMeta(in *model.Input, cfg Config) Meta {
	tmpl := cfg.Title
	if tmpl == "" {
		tmpl = DefaultTitle
	}
	var raw any
	if in.Raw != nil {
		raw = in.Raw
	}
	title := strings.TrimSpace(binding.Interpolate(tmpl, raw))
	var keywords []string
	for _, k := range []string{in.Client.Name.String(), in.Part.SteelGrade(), in.Trial.Code.String()} {
		if k != "" && k != model.NotSpecified {
			keywords = append(keywords, k)
		}
	}
	return Meta{
		ID:       uuid.NewSHA1(reportNamespace, []byte(in.Trial.Code.String()+"\x00"+title)).String(),
		Title:    title,
		Author:   cfg.Author,
		Subject:  in.Part.Designation.String(),
		Keywords: strings.Join(keywords, ", "),
	}
}
