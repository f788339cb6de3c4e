package listview

import (
	"strconv"
	"time"

	"github.com/ehanapbuhay/employer-panel/internal/domain"
)

// JobCriteria are the filters of the job vacancy list.
type JobCriteria struct {
	Search   string
	Status   string
	Category string
	Posted   DateRange
}

func DefaultJobCriteria() JobCriteria {
	return JobCriteria{Status: AnyValue, Category: AnyValue}
}

// MatchJob builds the job predicate. Category matches either the id or the
// display name so CLI users can type either.
func MatchJob(loc *time.Location) MatchFunc[domain.JobPosting, JobCriteria] {
	return func(job domain.JobPosting, c JobCriteria) bool {
		if !(TextMatch{Term: c.Search}).Match(job.Title) {
			return false
		}
		if !(EnumMatch{Value: c.Status}).Match(string(job.Status)) {
			return false
		}
		category := EnumMatch{Value: c.Category}
		if !category.Bypass() && !category.Match(job.CategoryName) && !category.Match(strconv.FormatInt(job.CategoryID, 10)) {
			return false
		}
		return c.Posted.Contains(job.PostedAt, loc)
	}
}

func NewJobController(pageSize int, loc *time.Location) *Controller[domain.JobPosting, JobCriteria] {
	return NewController(pageSize, DefaultJobCriteria(), MatchJob(loc)).
		WithStats(func(jobs []domain.JobPosting) Stats { return ProjectJobs(jobs).Stats })
}

// ApplicationCriteria are the filters of the applicant list.
type ApplicationCriteria struct {
	Applied    DateRange
	Skills     string
	Experience string
	Status     string
}

func DefaultApplicationCriteria() ApplicationCriteria {
	return ApplicationCriteria{Status: AnyValue}
}

// MatchApplication searches skills, falling back to the work description
// when an applicant left skills empty.
func MatchApplication(loc *time.Location) MatchFunc[domain.Application, ApplicationCriteria] {
	return func(app domain.Application, c ApplicationCriteria) bool {
		if !c.Applied.Contains(app.AppliedAt, loc) {
			return false
		}
		if !(TextMatch{Term: c.Skills}).Match(app.Skills, app.WorkDescription) {
			return false
		}
		if !MatchExperience(c.Experience, app.ExperienceYears) {
			return false
		}
		return EnumMatch{Value: c.Status}.Match(string(app.Status))
	}
}

func NewApplicationController(pageSize int, loc *time.Location) *Controller[domain.Application, ApplicationCriteria] {
	return NewController(pageSize, DefaultApplicationCriteria(), MatchApplication(loc)).
		WithStats(func(apps []domain.Application) Stats { return ProjectApplications(apps).Stats })
}
