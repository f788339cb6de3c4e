package panel

import (
	"net/http"
	"slices"

	"github.com/ehanapbuhay/employer-panel/internal/domain"
	"github.com/ehanapbuhay/employer-panel/internal/listview"
)

const dashboardRecent = 5

func (s *Server) dashboardPage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	jobs := s.jobFetcher(r)
	apps := s.applicationFetcher(r)
	if _, err := jobs.Load(r.Context()); s.endIfUnauthorized(w, r, err) {
		return
	}
	if _, err := apps.Load(r.Context()); s.endIfUnauthorized(w, r, err) {
		return
	}
	jobState, appState := jobs.State(), apps.State()

	recentApps := slices.Clone(appState.Items)
	slices.SortStableFunc(recentApps, func(a, b domain.Application) int { return b.AppliedAt.Compare(a.AppliedAt) })
	recentJobs := slices.Clone(jobState.Items)
	slices.SortStableFunc(recentJobs, func(a, b domain.JobPosting) int { return b.PostedAt.Compare(a.PostedAt) })

	data := pageData{
		Title:     "Dashboard",
		Active:    "dashboard",
		Notice:    s.takeFlash(r),
		LoadError: firstNonEmpty(jobState.Err, appState.Err),
		JobStats:  listview.ProjectJobs(jobState.Items),
		AppStats:  listview.ProjectApplications(appState.Items),
	}
	for _, app := range recentApps[:min(dashboardRecent, len(recentApps))] {
		data.RecentApps = append(data.RecentApps, s.applicationRow(app))
	}
	for _, job := range recentJobs[:min(dashboardRecent, len(recentJobs))] {
		data.RecentJobs = append(data.RecentJobs, jobRow{JobPosting: job, Posted: s.formatDate(job.PostedAt)})
	}
	s.render(w, r, "dashboard", data)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
