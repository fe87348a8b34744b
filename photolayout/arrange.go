package photolayout

// Size 为照片绘制尺寸（pt）。
type Size struct {
	Width  float64 `yaml:"width" json:"width"`
	Height float64 `yaml:"height" json:"height"`
}

// LayoutConfig is a named page arrangement. Grid layouts set Columns and
// Size; hero layouts set FirstSize and RestSize instead.
type LayoutConfig struct {
	Columns   int    `yaml:"cols" json:"cols"`
	Size      string `yaml:"size" json:"size"`
	FirstSize string `yaml:"firstSize" json:"firstSize,omitempty"`
	RestSize  string `yaml:"restSize" json:"restSize,omitempty"`
	PerPage   int    `yaml:"photosPerPage" json:"photosPerPage"`
}

// IsHero reports whether the layout puts one large photo above a row of
// smaller ones.
func (l LayoutConfig) IsHero() bool { return l.FirstSize != "" }

// SectionStrategy picks layouts for one section by photo count.
type SectionStrategy struct {
	Layouts         map[int]string `yaml:"layouts" json:"layouts"`
	Default         string         `yaml:"default" json:"default"`
	PrioritizeFirst bool           `yaml:"prioritizeFirst" json:"prioritizeFirst"`
	FirstPageMax    int            `yaml:"maxPhotosFirstPage" json:"maxPhotosFirstPage"`
	Subsequent      string         `yaml:"subsequentLayout" json:"subsequentLayout,omitempty"`
	PerPage         int            `yaml:"maxPhotosPerPage" json:"maxPhotosPerPage"`
	GroupBy         string         `yaml:"groupBy" json:"groupBy,omitempty"`
}

// LayoutFor returns the layout name used for count photos.
func (s SectionStrategy) LayoutFor(count int) string {
	if name, ok := s.Layouts[count]; ok {
		return name
	}
	return s.Default
}

// Catalog is the single table of photo sizes, layouts and per-section
// strategies.
type Catalog struct {
	Sizes      map[string]Size            `yaml:"sizes" json:"sizes"`
	Layouts    map[string]LayoutConfig    `yaml:"layouts" json:"layouts"`
	Strategies map[string]SectionStrategy `yaml:"strategies" json:"strategies"`
}

// DefaultCatalog 返回内置的尺寸、布局与各分区策略。
func DefaultCatalog() Catalog {
	return Catalog{
		Sizes: map[string]Size{
			"hero":              {500, 300},
			"fullWidth":         {480, 200},
			"micrographySingle": {480, 165},
			"stackedLarge":      {500, 340},
			"heroLoad":          {500, 280},
			"half":              {235, 176},
			"halfSecondary":     {244, 200},
			"small":             {235, 140},
			"gridItem":          {244, 240},
			"gridCompact":       {244, 155},
			"thumbnail":         {120, 90},
			"fullPage":          {500, 700},
		},
		Layouts: map[string]LayoutConfig{
			"single":        {Columns: 1, Size: "fullWidth", PerPage: 1},
			"fullPage":      {Columns: 1, Size: "fullPage", PerPage: 1},
			"pair":          {Columns: 2, Size: "half", PerPage: 2},
			"stacked":       {Columns: 1, Size: "stackedLarge", PerPage: 2},
			"heroPair":      {Columns: 2, FirstSize: "heroLoad", RestSize: "halfSecondary", PerPage: HeroPairFirstPage},
			"grid2":         {Columns: 2, Size: "half", PerPage: 4},
			"grid2Small":    {Columns: 2, Size: "small", PerPage: 6},
			"gridPaginated": {Columns: 2, Size: "gridItem", PerPage: 4},
			"gridCompact":   {Columns: 2, Size: "gridCompact", PerPage: 6},
			"zoom":          {Columns: 1, Size: "micrographySingle", PerPage: 3},
		},
		Strategies: map[string]SectionStrategy{
			"identification": {
				Layouts:      map[int]string{1: "single", 2: "pair"},
				Default:      "grid2Small",
				FirstPageMax: 6,
			},
			"control": {
				Layouts:      map[int]string{1: "single", 2: "pair"},
				Default:      "grid2Small",
				FirstPageMax: 6,
			},
			"load": {
				Layouts:         map[int]string{1: "fullPage", 2: "stacked"},
				Default:         "heroPair",
				PrioritizeFirst: true,
				Subsequent:      "gridCompact",
				PerPage:         6,
			},
			"observations": {
				Layouts:         map[int]string{1: "fullPage", 2: "stacked"},
				Default:         "heroPair",
				PrioritizeFirst: true,
				Subsequent:      "gridCompact",
				PerPage:         6,
			},
			"postTreatment": {
				Default:         "heroPair",
				PrioritizeFirst: true,
				Subsequent:      "gridPaginated",
				PerPage:         4,
			},
			"curves": {
				Layouts:      map[int]string{1: "single"},
				Default:      "stacked",
				FirstPageMax: 2,
				PerPage:      2,
			},
			"datapaq": {
				Layouts:    map[int]string{2: "pair"},
				Default:    "single",
				Subsequent: "pair",
				PerPage:    2,
			},
			"micrography": {
				Layouts:      map[int]string{1: "single", 2: "pair"},
				Default:      "grid2Small",
				FirstPageMax: 4,
				GroupBy:      "zoom",
			},
			"recipe": {
				Layouts: map[int]string{1: "single", 2: "pair"},
				Default: "grid2",
			},
		},
	}
}

// Size returns the named size, or a zero Size when unknown.
func (c Catalog) Size(name string) Size { return c.Sizes[name] }

// Strategy returns the strategy of section, falling back to a plain
// single/pair/grid2 strategy for unknown sections.
func (c Catalog) Strategy(section string) SectionStrategy {
	if s, ok := c.Strategies[section]; ok {
		return s
	}
	return SectionStrategy{Layouts: map[int]string{1: "single", 2: "pair"}, Default: "grid2"}
}

// PageLayout describes one page of photos: items [Start, End) of the input,
// drawn with Slots[i] for item Start+i.
type PageLayout struct {
	Layout  string `json:"layout"`
	Start   int    `json:"start"`
	End     int    `json:"end"`
	Columns int    `json:"columns"`
	Slots   []Size `json:"slots"`
}

// Count is the number of items on the page.
func (p PageLayout) Count() int { return p.End - p.Start }

// Arrange splits count photos of a section into pages following its
// strategy. Pages cover [0, count) contiguously.
func (c Catalog) Arrange(count int, section string) []PageLayout {
	if count <= 0 {
		return nil
	}
	st := c.Strategy(section)
	name := st.LayoutFor(count)
	lc, ok := c.Layouts[name]
	if !ok {
		name, lc = "single", c.Layouts["single"]
	}

	var pages []PageLayout
	first := 0
	if lc.IsHero() {
		first = min(count, max(lc.PerPage, 1))
		slots := []Size{c.Size(lc.FirstSize)}
		for i := 1; i < first; i++ {
			slots = append(slots, c.Size(lc.RestSize))
		}
		pages = append(pages, PageLayout{Layout: name, Start: 0, End: first, Columns: max(lc.Columns, 1), Slots: slots})
	} else {
		limit := st.FirstPageMax
		if limit <= 0 {
			limit = lc.PerPage
		}
		if limit <= 0 {
			limit = count
		}
		first = min(count, limit)
		pages = append(pages, c.gridPage(name, lc, 0, first))
	}

	if first >= count {
		return pages
	}

	subName := st.Subsequent
	if subName == "" {
		subName = name
	}
	sub, ok := c.Layouts[subName]
	if !ok || sub.IsHero() {
		// 后续页不能再使用主图布局
		subName, sub = "gridPaginated", c.Layouts["gridPaginated"]
	}
	perPage := st.PerPage
	if perPage <= 0 {
		perPage = sub.PerPage
	}
	if perPage <= 0 {
		perPage = count - first
	}
	for start := first; start < count; start += perPage {
		pages = append(pages, c.gridPage(subName, sub, start, min(start+perPage, count)))
	}
	return pages
}

func (c Catalog) gridPage(name string, lc LayoutConfig, start, end int) PageLayout {
	size := c.Size(lc.Size)
	slots := make([]Size, end-start)
	for i := range slots {
		slots[i] = size
	}
	return PageLayout{Layout: name, Start: start, End: end, Columns: max(lc.Columns, 1), Slots: slots}
}
