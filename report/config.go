package report

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ByLCY/trialreport/model"
)

// DefaultTitle 报告标题模板。
const DefaultTitle = "Trial Report ${trial.trial_code|}"

// SectionConfig enables and orders one section. Recipe toggles default to
// on when omitted.
type SectionConfig struct {
	Type              SectionType `yaml:"type" json:"type"`
	Enabled           *bool       `yaml:"enabled,omitempty" json:"enabled,omitempty"`
	Order             int         `yaml:"order" json:"order"`
	ShowRecipeDetails *bool       `yaml:"showRecipeDetails,omitempty" json:"showRecipeDetails,omitempty"`
	ShowRecipeCurve   *bool       `yaml:"showRecipeCurve,omitempty" json:"showRecipeCurve,omitempty"`
}

// IsEnabled reports whether the section is rendered; omitted means yes.
func (s SectionConfig) IsEnabled() bool { return s.Enabled == nil || *s.Enabled }

// RecipeDetails 是否输出配方明细表格。
func (s SectionConfig) RecipeDetails() bool { return s.ShowRecipeDetails == nil || *s.ShowRecipeDetails }

// RecipeCurve 是否输出配方曲线。
func (s SectionConfig) RecipeCurve() bool { return s.ShowRecipeCurve == nil || *s.ShowRecipeCurve }

// PageConfig selects the paper size (A4, A5, Letter) and margin in mm.
type PageConfig struct {
	Size   string  `yaml:"size" json:"size"`
	Margin float64 `yaml:"margin" json:"margin"`
}

// AssetsConfig tells ingestion where photos live.
type AssetsConfig struct {
	BaseDir   string `yaml:"baseDir" json:"baseDir"`
	IDPattern string `yaml:"idPattern" json:"idPattern"`
}

// Config is the report configuration.
type Config struct {
	Title    string          `yaml:"title" json:"title"`
	Author   string          `yaml:"author" json:"author"`
	Sections []SectionConfig `yaml:"sections" json:"sections"`
	Page     PageConfig      `yaml:"page" json:"page"`
	Assets   AssetsConfig    `yaml:"assets" json:"assets"`
}

// PageSizes lists the supported paper sizes.
var PageSizes = []string{"A4", "A5", "Letter"}

// DefaultConfig enables every section in canonical order on A4.
func DefaultConfig() Config {
	cfg := Config{
		Title: DefaultTitle,
		Page:  PageConfig{Size: "A4", Margin: 20},
	}
	for _, s := range Sections {
		cfg.Sections = append(cfg.Sections, SectionConfig{Type: s})
	}
	return cfg
}

// LoadConfig overlays the YAML file at path onto DefaultConfig. A sections
// list in the file replaces the default list.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("读取配置文件失败: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig is LoadConfig over raw YAML.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("解析配置 YAML 失败: %w", err)
	}
	for i := range cfg.Sections {
		cfg.Sections[i].Type = SectionType(model.CanonicalSection(string(cfg.Sections[i].Type)))
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks section types, paper size and margin.
func (c Config) Validate() error {
	for i, s := range c.Sections {
		if !s.Type.Known() {
			return fmt.Errorf("配置 sections[%d] 的类型 %q 未知", i, s.Type)
		}
	}
	if c.Page.Size != "" && c.PageSize() == "" {
		return fmt.Errorf("不支持的纸张尺寸: %s", c.Page.Size)
	}
	if c.Page.Margin < 0 {
		return fmt.Errorf("页边距不能为负: %v", c.Page.Margin)
	}
	return nil
}

// PageSize returns the canonical spelling of the configured paper size,
// A4 when unset and "" when unknown.
func (c Config) PageSize() string {
	if strings.TrimSpace(c.Page.Size) == "" {
		return "A4"
	}
	for _, s := range PageSizes {
		if strings.EqualFold(s, strings.TrimSpace(c.Page.Size)) {
			return s
		}
	}
	return ""
}

// EnabledSections returns the enabled sections sorted by Order, keeping
// list position for equal orders.
func (c Config) EnabledSections() []SectionConfig {
	var out []SectionConfig
	for _, s := range c.Sections {
		if s.IsEnabled() {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// Section returns the configuration of t, if listed.
func (c Config) Section(t SectionType) (SectionConfig, bool) {
	for _, s := range c.Sections {
		if s.Type == t {
			return s, true
		}
	}
	return SectionConfig{}, false
}
