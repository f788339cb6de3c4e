package listview

import "github.com/ehanapbuhay/employer-panel/internal/domain"

// Stats tallies a collection by status. Total always equals the sum of
// Counts plus Unclassified.
type Stats struct {
	Total        int
	Counts       map[string]int
	Unclassified int
}

// Project counts items whose status equals one of buckets. Anything else is
// Unclassified.
func Project[T any](items []T, statusOf func(T) string, buckets []string) Stats {
	s := Stats{Total: len(items), Counts: make(map[string]int, len(buckets))}
	for _, b := range buckets {
		s.Counts[b] = 0
	}
	for _, item := range items {
		status := statusOf(item)
		if _, ok := s.Counts[status]; ok {
			s.Counts[status]++
			continue
		}
		s.Unclassified++
	}
	return s
}

func (s Stats) Count(bucket string) int {
	return s.Counts[bucket]
}

type JobStats struct {
	Stats
}

func ProjectJobs(jobs []domain.JobPosting) JobStats {
	buckets := make([]string, len(domain.JobStatuses))
	for i, s := range domain.JobStatuses {
		buckets[i] = string(s)
	}
	return JobStats{Project(jobs, func(j domain.JobPosting) string { return string(j.Status) }, buckets)}
}

func (s JobStats) Active() int  { return s.Count(string(domain.JobActive)) }
func (s JobStats) Closed() int  { return s.Count(string(domain.JobClosed)) }
func (s JobStats) Filled() int  { return s.Count(string(domain.JobFilled)) }
func (s JobStats) Expired() int { return s.Count(string(domain.JobExpired)) }

type ApplicationStats struct {
	Stats
}

func ProjectApplications(apps []domain.Application) ApplicationStats {
	buckets := make([]string, len(domain.ApplicationStatuses))
	for i, s := range domain.ApplicationStatuses {
		buckets[i] = string(s)
	}
	return ApplicationStats{Project(apps, func(a domain.Application) string { return string(a.Status) }, buckets)}
}

func (s ApplicationStats) Submitted() int   { return s.Count(string(domain.ApplicationSubmitted)) }
func (s ApplicationStats) Viewed() int      { return s.Count(string(domain.ApplicationViewed)) }
func (s ApplicationStats) Shortlisted() int { return s.Count(string(domain.ApplicationShortlisted)) }
func (s ApplicationStats) Hired() int       { return s.Count(string(domain.ApplicationHired)) }
func (s ApplicationStats) Rejected() int    { return s.Count(string(domain.ApplicationRejected)) }

// Pending is every application still waiting on a decision.
func (s ApplicationStats) Pending() int { return s.Submitted() + s.Viewed() }
