package reports

import (
	"math"
	"sort"
	"time"

	"github.com/ehanapbuhay/employer-panel/internal/domain"
	"github.com/ehanapbuhay/employer-panel/internal/listview"
)

const (
	ViewHiringSummary    = "Hiring Summary"
	ViewApplicantsPerJob = "Applicants per Job"
	ViewJobsPerLocality  = "Jobs per Locality"
	ViewTimeToFill       = "Time-To-Fill Metrics"
)

var Views = []string{ViewHiringSummary, ViewApplicantsPerJob, ViewJobsPerLocality, ViewTimeToFill}

// Filter narrows a report. Jobs match on posted date and locality;
// applications match on applied date and the locality of their job.
type Filter struct {
	Range      listview.DateRange
	LocalityID int64
}

func (f Filter) IsZero() bool { return f.Range.IsZero() && f.LocalityID == 0 }

type Summary struct {
	TotalPostings   int
	TotalApplicants int
	Hired           int
	// SuccessRate is hired applicants as a percentage of all applicants.
	SuccessRate float64
}

type JobCount struct {
	JobID  int64
	Title  string
	Status domain.JobStatus
	Count  int
}

type ApplicantsPerJob struct {
	Average        float64
	MostApplied    JobCount
	ActivePostings int
	NoApplicants   int
	Rows           []JobCount
}

type LocalityCount struct {
	LocalityID int64
	Name       string
	Count      int
}

type FillRow struct {
	JobID    int64
	Title    string
	PostedAt time.Time
	FilledAt time.Time
	Days     float64
}

type TimeToFill struct {
	Filled      int
	AverageDays float64
	Rows        []FillRow
}

type Report struct {
	Filter           Filter
	GeneratedAt      time.Time
	Summary          Summary
	ApplicantsPerJob ApplicantsPerJob
	Localities       []LocalityCount
	TimeToFill       TimeToFill
}

func Build(jobs []domain.JobPosting, apps []domain.Application, f Filter, loc *time.Location, now time.Time) Report {
	jobs = listview.Filter(jobs, func(j domain.JobPosting) bool {
		return (f.LocalityID == 0 || j.LocalityID == f.LocalityID) && f.Range.Contains(j.PostedAt, loc)
	})

	jobLocality := make(map[int64]int64, len(jobs))
	for _, j := range jobs {
		jobLocality[j.ID] = j.LocalityID
	}
	apps = listview.Filter(apps, func(a domain.Application) bool {
		if f.LocalityID != 0 {
			if l, ok := jobLocality[a.JobID]; !ok || l != f.LocalityID {
				return false
			}
		}
		return f.Range.Contains(a.AppliedAt, loc)
	})

	return Report{
		Filter:           f,
		GeneratedAt:      now,
		Summary:          summarize(jobs, apps),
		ApplicantsPerJob: perJob(jobs, apps),
		Localities:       byLocality(jobs),
		TimeToFill:       timeToFill(jobs),
	}
}

func summarize(jobs []domain.JobPosting, apps []domain.Application) Summary {
	stats := listview.ProjectApplications(apps)
	s := Summary{
		TotalPostings:   len(jobs),
		TotalApplicants: stats.Total,
		Hired:           stats.Hired(),
	}
	if s.TotalApplicants > 0 {
		s.SuccessRate = round1(float64(s.Hired) / float64(s.TotalApplicants) * 100)
	}
	return s
}

func perJob(jobs []domain.JobPosting, apps []domain.Application) ApplicantsPerJob {
	counts := make(map[int64]int, len(jobs))
	for _, a := range apps {
		counts[a.JobID]++
	}

	var out ApplicantsPerJob
	total := 0
	for _, j := range jobs {
		row := JobCount{JobID: j.ID, Title: j.Title, Status: j.Status, Count: counts[j.ID]}
		out.Rows = append(out.Rows, row)
		total += row.Count
		if row.Count == 0 {
			out.NoApplicants++
		}
		if j.Status == domain.JobActive {
			out.ActivePostings++
		}
		if row.Count > out.MostApplied.Count {
			out.MostApplied = row
		}
	}
	sort.SliceStable(out.Rows, func(i, k int) bool { return out.Rows[i].Count > out.Rows[k].Count })
	if len(jobs) > 0 {
		out.Average = round1(float64(total) / float64(len(jobs)))
	}
	return out
}

func byLocality(jobs []domain.JobPosting) []LocalityCount {
	index := map[int64]int{}
	var out []LocalityCount
	for _, j := range jobs {
		i, ok := index[j.LocalityID]
		if !ok {
			name := j.LocalityName
			if name == "" {
				name = "Unspecified"
			}
			index[j.LocalityID] = len(out)
			out = append(out, LocalityCount{LocalityID: j.LocalityID, Name: name})
			i = len(out) - 1
		}
		out[i].Count++
	}
	sort.SliceStable(out, func(i, k int) bool {
		if out[i].Count != out[k].Count {
			return out[i].Count > out[k].Count
		}
		return out[i].Name < out[k].Name
	})
	return out
}

// timeToFill uses the last update of a filled job as its fill date.
func timeToFill(jobs []domain.JobPosting) TimeToFill {
	var out TimeToFill
	var days float64
	for _, j := range jobs {
		if j.Status != domain.JobFilled || j.PostedAt.IsZero() || j.UpdatedAt.Before(j.PostedAt) {
			continue
		}
		d := j.UpdatedAt.Sub(j.PostedAt).Hours() / 24
		out.Rows = append(out.Rows, FillRow{JobID: j.ID, Title: j.Title, PostedAt: j.PostedAt, FilledAt: j.UpdatedAt, Days: round1(d)})
		days += d
	}
	out.Filled = len(out.Rows)
	if out.Filled > 0 {
		out.AverageDays = round1(days / float64(out.Filled))
	}
	return out
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
