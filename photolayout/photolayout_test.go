package photolayout

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestPlanForBreakpoints(t *testing.T) {
	cases := []struct {
		strategy string
		count    int
		want     Plan
	}{
		{"identification", 0, Plan{}},
		{"identification", 1, Plan{1, 200, 150}},
		{"identification", 5, Plan{3, 100, 75}},
		{"identification", 9, Plan{3, 80, 60}},
		{"identification", 10, Plan{4, 70, 50}},
		{"micrography", 2, Plan{2, 140, 105}},
		{"micrography", 40, Plan{3, 80, 60}},
		{"curves", 3, Plan{2, 140, 105}},
		{"load", 7, Plan{3, 100, 75}},
		{"unknown", 1, Plan{1, 200, 150}},
	}
	for _, c := range cases {
		if got := PlanFor(c.count, c.strategy); got != c.want {
			t.Fatalf("PlanFor(%d, %s) = %+v want %+v", c.count, c.strategy, got, c.want)
		}
	}
}

// 断点之间瓦片尺寸单调不增，且不超出页宽。
func TestPlanForMonotoneAndFits(t *testing.T) {
	for _, s := range Strategies() {
		prev := PlanFor(1, s)
		for n := 1; n <= 30; n++ {
			p := PlanFor(n, s)
			if p != PlanFor(n, s) {
				t.Fatalf("%s: plan for %d not deterministic", s, n)
			}
			if p.ItemWidth > prev.ItemWidth || p.ItemHeight > prev.ItemHeight {
				t.Fatalf("%s: tile grew from %+v to %+v at n=%d", s, prev, p, n)
			}
			if float64(p.Columns)*p.ItemWidth > UsableWidth {
				t.Fatalf("%s: %d columns of %g overflow the page", s, p.Columns, p.ItemWidth)
			}
			prev = p
		}
	}
}

func TestPaginateCounts(t *testing.T) {
	for n := 0; n <= 20; n++ {
		items := make([]int, n)
		for i := range items {
			items[i] = i
		}
		for k := 1; k <= 7; k++ {
			pages := Paginate(items, k)
			if want := (n + k - 1) / k; len(pages) != want {
				t.Fatalf("Paginate(%d, %d): %d pages, want %d", n, k, len(pages), want)
			}
			next := 0
			for i, p := range pages {
				if len(p) > k || (i < len(pages)-1 && len(p) != k) {
					t.Fatalf("Paginate(%d, %d): page %d has %d items", n, k, i, len(p))
				}
				for _, v := range p {
					if v != next {
						t.Fatalf("Paginate(%d, %d): order broken at %d", n, k, v)
					}
					next++
				}
			}
		}
	}
	if got := Paginate([]int{1, 2, 3}, 0); len(got) != 1 || len(got[0]) != 3 {
		t.Fatalf("non-positive perPage must keep one page: %v", got)
	}
}

func TestPaginateDoesNotAlias(t *testing.T) {
	items := []int{0, 1, 2, 3}
	pages := Paginate(items, 2)
	pages[0] = append(pages[0], 99)
	if items[2] != 2 {
		t.Fatalf("appending to a page must not overwrite the next page")
	}
}

// 场景 C：10 张照片，主图+两张，然后每页 6 张。
func TestHeroPairScenario(t *testing.T) {
	items := []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	want := [][]int{{0, 1, 2}, {3, 4, 5, 6, 7, 8}, {9}}
	if diff := cmp.Diff(want, HeroPair(items, 6)); diff != "" {
		t.Fatalf("hero+pair pages (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([][]int{{0, 1}}, HeroPair([]int{0, 1}, 6)); diff != "" {
		t.Fatalf("short list (-want +got):\n%s", diff)
	}
	if HeroPair([]int{}, 6) != nil {
		t.Fatalf("empty input must give no pages")
	}
}

// 场景 B：identification 5 张照片，两列单页。
func TestArrangeIdentificationFive(t *testing.T) {
	pages := DefaultCatalog().Arrange(5, "identification")
	if len(pages) != 1 {
		t.Fatalf("expected a single page, got %d", len(pages))
	}
	p := pages[0]
	if p.Columns != 2 || p.Layout != "grid2Small" || p.Count() != 5 {
		t.Fatalf("unexpected page: %+v", p)
	}
	for _, s := range p.Slots {
		if s != (Size{235, 140}) {
			t.Fatalf("unexpected slot %+v", s)
		}
	}
}

func TestArrangeStrategies(t *testing.T) {
	cat := DefaultCatalog()
	type page struct {
		Layout     string
		Start, End int
	}
	summarize := func(pages []PageLayout) []page {
		var out []page
		for _, p := range pages {
			out = append(out, page{p.Layout, p.Start, p.End})
		}
		return out
	}
	cases := []struct {
		section string
		count   int
		want    []page
	}{
		{"load", 1, []page{{"fullPage", 0, 1}}},
		{"load", 2, []page{{"stacked", 0, 2}}},
		{"load", 3, []page{{"heroPair", 0, 3}}},
		{"observations", 10, []page{{"heroPair", 0, 3}, {"gridCompact", 3, 9}, {"gridCompact", 9, 10}}},
		{"postTreatment", 8, []page{{"heroPair", 0, 3}, {"gridPaginated", 3, 7}, {"gridPaginated", 7, 8}}},
		{"curves", 5, []page{{"stacked", 0, 2}, {"stacked", 2, 4}, {"stacked", 4, 5}}},
		{"datapaq", 2, []page{{"pair", 0, 2}}},
		{"datapaq", 4, []page{{"single", 0, 1}, {"pair", 1, 3}, {"pair", 3, 4}}},
		{"micrography", 7, []page{{"grid2Small", 0, 4}, {"grid2Small", 4, 7}}},
		{"identification", 8, []page{{"grid2Small", 0, 6}, {"grid2Small", 6, 8}}},
		{"load", 0, nil},
	}
	for _, c := range cases {
		if diff := cmp.Diff(c.want, summarize(cat.Arrange(c.count, c.section))); diff != "" {
			t.Fatalf("Arrange(%d, %s) (-want +got):\n%s", c.count, c.section, diff)
		}
	}
}

func TestArrangeHeroSlots(t *testing.T) {
	pages := DefaultCatalog().Arrange(3, "load")
	want := []Size{{500, 280}, {244, 200}, {244, 200}}
	if diff := cmp.Diff(want, pages[0].Slots); diff != "" {
		t.Fatalf("hero slots (-want +got):\n%s", diff)
	}
}

func TestArrangeCoversAllItems(t *testing.T) {
	cat := DefaultCatalog()
	for section := range cat.Strategies {
		for n := 1; n <= 25; n++ {
			pages := cat.Arrange(n, section)
			next := 0
			for _, p := range pages {
				if p.Start != next || p.End <= p.Start || len(p.Slots) != p.Count() {
					t.Fatalf("%s/%d: bad page %+v", section, n, p)
				}
				next = p.End
			}
			if next != n {
				t.Fatalf("%s/%d: pages cover %d items", section, n, next)
			}
		}
	}
}

func TestPackGroups(t *testing.T) {
	// 视图高度 = 80 + 图片区
	heights := []float64{300, 280, 440, 800, 300, 300, 300, 300}
	got := PackGroups(heights, 700, 3)
	want := [][]int{{0, 1}, {2}, {3}, {4, 5}, {6, 7}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("packing (-want +got):\n%s", diff)
	}
	small := PackGroups([]float64{100, 100, 100, 100}, 700, 3)
	if diff := cmp.Diff([][]int{{0, 1, 2}, {3}}, small); diff != "" {
		t.Fatalf("maxPerPage not honoured (-want +got):\n%s", diff)
	}
	if PackGroups(nil, 700, 3) != nil {
		t.Fatalf("no groups must give no pages")
	}
}
