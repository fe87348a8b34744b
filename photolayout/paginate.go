package photolayout

// HeroPairFirstPage 是“主图 + 两张小图”首页的容量。
const HeroPairFirstPage = 3

// Paginate splits items into pages of at most perPage items, in order.
// perPage <= 0 keeps everything on one page.
func Paginate[T any](items []T, perPage int) [][]T {
	if len(items) == 0 {
		return nil
	}
	if perPage <= 0 {
		return [][]T{items}
	}
	pages := make([][]T, 0, (len(items)+perPage-1)/perPage)
	for start := 0; start < len(items); start += perPage {
		end := min(start+perPage, len(items))
		pages = append(pages, items[start:end:end])
	}
	return pages
}

// HeroPair puts a hero and up to two smaller items on the first page and
// flows the rest into grid pages of gridPerPage.
func HeroPair[T any](items []T, gridPerPage int) [][]T {
	if len(items) == 0 {
		return nil
	}
	first := min(HeroPairFirstPage, len(items))
	pages := [][]T{items[:first:first]}
	return append(pages, Paginate(items[first:], gridPerPage)...)
}

// PackGroups packs consecutive groups of the given heights onto pages of
// pageHeight, with at most maxPerPage groups per page (0 = unlimited).
// A group taller than a page gets a page of its own. The result holds the
// group indexes of each page.
func PackGroups(heights []float64, pageHeight float64, maxPerPage int) [][]int {
	var (
		pages [][]int
		cur   []int
		used  float64
	)
	flush := func() {
		if len(cur) > 0 {
			pages = append(pages, cur)
			cur = nil
			used = 0
		}
	}
	for i, h := range heights {
		if h > pageHeight {
			flush()
			pages = append(pages, []int{i})
			continue
		}
		full := maxPerPage > 0 && len(cur) >= maxPerPage
		if full || used+h > pageHeight {
			flush()
		}
		cur = append(cur, i)
		used += h
	}
	flush()
	return pages
}
