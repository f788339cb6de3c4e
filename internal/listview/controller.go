package listview

type MatchFunc[T any, C comparable] func(item T, criteria C) bool

// View is everything a list screen renders. It is rebuilt from the full
// snapshot on every call.
type View[T any, C comparable] struct {
	Criteria C
	Filtered []T
	Page     Page[T]
	Stats    Stats
}

// Controller owns the filter criteria and requested page of one list
// screen over an immutable snapshot of the collection.
type Controller[T any, C comparable] struct {
	items    []T
	defaults C
	criteria C
	page     int
	pageSize int
	match    MatchFunc[T, C]
	project  func([]T) Stats
}

func NewController[T any, C comparable](pageSize int, defaults C, match MatchFunc[T, C]) *Controller[T, C] {
	return &Controller[T, C]{
		items:    []T{},
		defaults: defaults,
		criteria: defaults,
		page:     1,
		pageSize: pageSize,
		match:    match,
	}
}

func (c *Controller[T, C]) WithStats(project func([]T) Stats) *Controller[T, C] {
	c.project = project
	return c
}

// Replace swaps in a freshly loaded snapshot. The requested page is kept
// and clamped by View.
func (c *Controller[T, C]) Replace(items []T) {
	if items == nil {
		items = []T{}
	}
	c.items = items
}

func (c *Controller[T, C]) Items() []T { return c.items }

func (c *Controller[T, C]) Criteria() C { return c.criteria }

// SetCriteria applies next. Any change sends the user back to page 1.
func (c *Controller[T, C]) SetCriteria(next C) {
	if next != c.criteria {
		c.page = 1
	}
	c.criteria = next
}

func (c *Controller[T, C]) ClearCriteria() {
	c.criteria = c.defaults
	c.page = 1
}

func (c *Controller[T, C]) SetPage(page int) {
	if page < 1 {
		page = 1
	}
	c.page = page
}

func (c *Controller[T, C]) View() View[T, C] {
	criteria := c.criteria
	filtered := Filter(c.items, func(item T) bool { return c.match(item, criteria) })
	page := Paginate(filtered, c.pageSize, c.page)
	c.page = page.Current

	v := View[T, C]{Criteria: criteria, Filtered: filtered, Page: page}
	if c.project != nil {
		v.Stats = c.project(c.items)
	} else {
		v.Stats = Stats{Total: len(c.items), Counts: map[string]int{}, Unclassified: len(c.items)}
	}
	return v
}
