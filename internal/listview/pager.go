package listview

const (
	JobsPageSize         = 7
	ApplicationsPageSize = 10
)

// Page is one slice of a filtered collection plus what a pager control
// needs to render "Showing x to y of z".
type Page[T any] struct {
	Items      []T
	Current    int
	TotalPages int
	PageSize   int
	Total      int
	From       int
	To         int
	HasPrev    bool
	HasNext    bool
	PrevPage   int
	NextPage   int
}

// Paginate clamps requested into [1, TotalPages] and returns that page.
// TotalPages is never below 1, so an empty collection has one empty page.
func Paginate[T any](items []T, pageSize, requested int) Page[T] {
	if pageSize <= 0 {
		pageSize = ApplicationsPageSize
	}
	total := len(items)
	totalPages := 1
	if total > 0 {
		totalPages = (total + pageSize - 1) / pageSize
	}
	page := requested
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	p := Page[T]{
		Items:      items[start:end:end],
		Current:    page,
		TotalPages: totalPages,
		PageSize:   pageSize,
		Total:      total,
		To:         end,
		HasPrev:    page > 1,
		HasNext:    page < totalPages,
		PrevPage:   max(1, page-1),
		NextPage:   min(totalPages, page+1),
	}
	if end > start {
		p.From = start + 1
	}
	return p
}

// Numbers lists every page number, for numbered pager links.
func (p Page[T]) Numbers() []int {
	out := make([]int, p.TotalPages)
	for i := range out {
		out[i] = i + 1
	}
	return out
}
