package listview

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ehanapbuhay/employer-panel/internal/domain"
)

func intPtr(v int) *int { return &v }

func makeJobs(n int) []domain.JobPosting {
	jobs := make([]domain.JobPosting, n)
	for i := range jobs {
		jobs[i] = domain.JobPosting{
			ID:       int64(i + 1),
			Title:    fmt.Sprintf("Job %d", i+1),
			Status:   domain.JobActive,
			PostedAt: time.Date(2026, 2, 1+i, 9, 0, 0, 0, time.UTC),
		}
	}
	return jobs
}

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}

	tests := []struct {
		name      string
		size      int
		requested int
		current   int
		pages     int
		items     []int
		from, to  int
	}{
		{"first page", 7, 1, 1, 2, []int{1, 2, 3, 4, 5, 6, 7}, 1, 7},
		{"last page", 7, 2, 2, 2, []int{8, 9, 10}, 8, 10},
		{"past the end clamps", 7, 9, 2, 2, []int{8, 9, 10}, 8, 10},
		{"zero clamps to one", 7, 0, 1, 2, []int{1, 2, 3, 4, 5, 6, 7}, 1, 7},
		{"exact fit", 5, 2, 2, 2, []int{6, 7, 8, 9, 10}, 6, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Paginate(items, tt.size, tt.requested)
			assert.Equal(t, tt.current, p.Current)
			assert.Equal(t, tt.pages, p.TotalPages)
			assert.Equal(t, tt.items, p.Items)
			assert.Equal(t, tt.from, p.From)
			assert.Equal(t, tt.to, p.To)
			assert.Equal(t, 10, p.Total)
		})
	}
}

func TestPaginateEmptyHasOnePage(t *testing.T) {
	p := Paginate([]string{}, 7, 3)
	assert.Equal(t, 1, p.TotalPages)
	assert.Equal(t, 1, p.Current)
	assert.Empty(t, p.Items)
	assert.Equal(t, 0, p.From)
	assert.False(t, p.HasPrev)
	assert.False(t, p.HasNext)
}

func TestPaginatePageCountProperty(t *testing.T) {
	for length := 0; length <= 30; length++ {
		items := make([]int, length)
		for size := 1; size <= 8; size++ {
			for requested := -1; requested <= 12; requested++ {
				p := Paginate(items, size, requested)
				want := (length + size - 1) / size
				if want < 1 {
					want = 1
				}
				require.Equal(t, want, p.TotalPages, "len=%d size=%d", length, size)
				require.GreaterOrEqual(t, p.Current, 1)
				require.LessOrEqual(t, p.Current, p.TotalPages)
				require.LessOrEqual(t, len(p.Items), size)
			}
		}
	}
}

func TestDateRangeCalendarDays(t *testing.T) {
	feb := DateRange{From: "2026-02-01", To: "2026-02-28"}

	assert.True(t, feb.Contains(time.Date(2026, 2, 15, 10, 0, 0, 0, time.UTC), time.UTC))
	assert.False(t, feb.Contains(time.Date(2026, 1, 31, 23, 59, 0, 0, time.UTC), time.UTC))
	assert.True(t, feb.Contains(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), time.UTC))
	assert.True(t, feb.Contains(time.Date(2026, 2, 28, 23, 59, 59, 0, time.UTC), time.UTC))
	assert.False(t, feb.Contains(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), time.UTC))
}

func TestDateRangeOpenBounds(t *testing.T) {
	ts := time.Date(2026, 2, 15, 10, 0, 0, 0, time.UTC)
	assert.True(t, DateRange{}.Contains(ts, time.UTC))
	assert.True(t, DateRange{From: "2026-02-15"}.Contains(ts, time.UTC))
	assert.False(t, DateRange{To: "2026-02-14"}.Contains(ts, time.UTC))
	assert.True(t, DateRange{From: "not-a-date"}.Contains(ts, time.UTC))
}

func TestDateRangeUsesLocation(t *testing.T) {
	manila := time.FixedZone("PHT", 8*60*60)
	// 2026-02-01 01:00 in Manila is still January 31 in UTC.
	ts := time.Date(2026, 1, 31, 17, 0, 0, 0, time.UTC)
	assert.True(t, DateRange{From: "2026-02-01"}.Contains(ts, manila))
	assert.False(t, DateRange{From: "2026-02-01"}.Contains(ts, time.UTC))
}

func TestTextMatchFallsBackToNextField(t *testing.T) {
	m := TextMatch{Term: "golang"}
	assert.True(t, m.Match("Go, Golang, SQL", "unused"))
	assert.True(t, m.Match("", "Built services in GoLang"))
	assert.False(t, m.Match("Java", "Golang in the description is ignored"))
	assert.False(t, m.Match("", ""))
	assert.True(t, TextMatch{}.Match(""))
}

func TestEnumMatchAnyBypasses(t *testing.T) {
	assert.True(t, EnumMatch{Value: "Any"}.Match("closed"))
	assert.True(t, EnumMatch{}.Match("closed"))
	assert.True(t, EnumMatch{Value: "closed"}.Match("closed"))
	assert.False(t, EnumMatch{Value: "active"}.Match("closed"))
}

func TestExperienceBuckets(t *testing.T) {
	tests := []struct {
		key   string
		years *int
		want  bool
	}{
		{"0-1", intPtr(0), true},
		{"0-1", intPtr(1), true},
		{"1-2", intPtr(1), true},
		{"1-2", intPtr(3), false},
		{"3-5", intPtr(5), true},
		{"5+", intPtr(5), false},
		{"5+", intPtr(6), true},
		{"5+", nil, false},
		{"", nil, true},
		{"bogus", intPtr(4), true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MatchExperience(tt.key, tt.years), "bucket %q", tt.key)
	}
}

func TestFilterIsIdempotent(t *testing.T) {
	jobs := makeJobs(10)
	jobs[2].Status = domain.JobClosed
	jobs[5].Status = domain.JobFilled
	match := MatchJob(time.UTC)
	criteria := JobCriteria{Search: "job 1", Status: "active", Category: AnyValue, Posted: DateRange{From: "2026-02-01"}}

	pred := func(j domain.JobPosting) bool { return match(j, criteria) }
	once := Filter(jobs, pred)
	twice := Filter(once, pred)
	again := Filter(jobs, pred)

	assert.Equal(t, once, twice)
	assert.Equal(t, once, again)
}

func TestJobControllerScenario(t *testing.T) {
	c := NewJobController(JobsPageSize, time.UTC)
	jobs := makeJobs(10)
	for i := range jobs[:3] {
		jobs[i].Title = fmt.Sprintf("Barista %d", i)
	}
	c.Replace(jobs)

	v := c.View()
	assert.Equal(t, 2, v.Page.TotalPages)
	assert.Len(t, v.Page.Items, 7)
	assert.Equal(t, int64(1), v.Page.Items[0].ID)

	c.SetPage(2)
	assert.Len(t, c.View().Page.Items, 3)

	criteria := c.Criteria()
	criteria.Search = "barista"
	c.SetCriteria(criteria)

	v = c.View()
	assert.Equal(t, 1, v.Page.TotalPages)
	assert.Equal(t, 1, v.Page.Current)
	assert.Len(t, v.Page.Items, 3)
	assert.Equal(t, 10, v.Stats.Total)
}

func TestControllerCriteriaChangeResetsPage(t *testing.T) {
	c := NewApplicationController(2, time.UTC)
	apps := make([]domain.Application, 9)
	for i := range apps {
		apps[i] = domain.Application{ID: int64(i), Skills: "Go", Status: domain.ApplicationSubmitted}
	}
	c.Replace(apps)

	c.SetPage(4)
	require.Equal(t, 4, c.View().Page.Current)

	c.SetCriteria(c.Criteria())
	assert.Equal(t, 4, c.View().Page.Current, "identical criteria keep the page")

	next := c.Criteria()
	next.Skills = "go"
	c.SetCriteria(next)
	assert.Equal(t, 1, c.View().Page.Current)
}

func TestControllerClearRestoresEverything(t *testing.T) {
	c := NewJobController(JobsPageSize, time.UTC)
	c.Replace(makeJobs(10))
	c.SetCriteria(JobCriteria{Search: "nothing matches", Status: AnyValue, Category: AnyValue})
	c.SetPage(2)
	require.Empty(t, c.View().Filtered)

	c.ClearCriteria()
	v := c.View()
	assert.Len(t, v.Filtered, 10)
	assert.Equal(t, 1, v.Page.Current)
	assert.Equal(t, DefaultJobCriteria(), v.Criteria)
}

func TestFilledJobLeavesActiveFilter(t *testing.T) {
	c := NewJobController(JobsPageSize, time.UTC)
	jobs := makeJobs(3)
	c.Replace(jobs)
	c.SetCriteria(JobCriteria{Status: string(domain.JobActive), Category: AnyValue})
	require.Len(t, c.View().Filtered, 3)

	reloaded := makeJobs(3)
	reloaded[1].Status = domain.JobFilled
	c.Replace(reloaded)

	v := c.View()
	assert.Len(t, v.Filtered, 2)
	for _, j := range v.Filtered {
		assert.NotEqual(t, int64(2), j.ID)
	}
}

func TestCategoryMatchesNameOrID(t *testing.T) {
	match := MatchJob(time.UTC)
	job := domain.JobPosting{Title: "Cook", CategoryID: 4, CategoryName: "Food Service", Status: domain.JobActive}

	assert.True(t, match(job, JobCriteria{Category: "Food Service"}))
	assert.True(t, match(job, JobCriteria{Category: "4"}))
	assert.False(t, match(job, JobCriteria{Category: "IT"}))
}

func TestStatsTotalsBalance(t *testing.T) {
	jobs := makeJobs(6)
	jobs[0].Status = domain.JobClosed
	jobs[1].Status = domain.JobFilled
	jobs[2].Status = domain.JobExpired
	jobs[3].Status = "archived"

	s := ProjectJobs(jobs)
	assert.Equal(t, 6, s.Total)
	assert.Equal(t, 2, s.Active())
	assert.Equal(t, 1, s.Closed())
	assert.Equal(t, 1, s.Filled())
	assert.Equal(t, 1, s.Expired())
	assert.Equal(t, 1, s.Unclassified)

	sum := s.Unclassified
	for _, n := range s.Counts {
		sum += n
	}
	assert.Equal(t, s.Total, sum)
}

func TestApplicationStatsPending(t *testing.T) {
	apps := []domain.Application{
		{Status: domain.ApplicationSubmitted},
		{Status: domain.ApplicationViewed},
		{Status: domain.ApplicationViewed},
		{Status: domain.ApplicationHired},
		{Status: domain.ApplicationRejected},
	}
	s := ProjectApplications(apps)
	assert.Equal(t, 3, s.Pending())
	assert.Equal(t, 1, s.Hired())
	assert.Equal(t, 0, s.Shortlisted())
	assert.Equal(t, 5, s.Total)
}

func TestFetcherFailureLeavesEmptyCollection(t *testing.T) {
	fail := false
	f := NewFetcher(func(context.Context) ([]int, error) {
		if fail {
			return []int{99}, errors.New("boom")
		}
		return []int{1, 2, 3}, nil
	}, func(error) string { return "Could not load" })

	items, err := f.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, items)
	assert.Equal(t, []int{1, 2, 3}, f.State().Items)

	fail = true
	items, err = f.Load(context.Background())
	require.Error(t, err)
	assert.Empty(t, items)

	state := f.State()
	assert.False(t, state.Loading)
	assert.Equal(t, "Could not load", state.Err)
	assert.NotNil(t, state.Items)
	assert.Empty(t, state.Items)
	assert.Equal(t, 2, f.Loads())
}

func TestFetcherNormalizesNil(t *testing.T) {
	f := NewFetcher(func(context.Context) ([]string, error) { return nil, nil }, nil)
	items, err := f.Load(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, f.State().Err)
}
