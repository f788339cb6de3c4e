package panel

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/ehanapbuhay/employer-panel/internal/backend"
	"github.com/ehanapbuhay/employer-panel/internal/domain"
	"github.com/ehanapbuhay/employer-panel/internal/listview"
	"github.com/ehanapbuhay/employer-panel/internal/workflow"
)

var applicationActionViews = []actionView{
	{Action: string(domain.ActionShortlist), Label: "Shortlist"},
	{Action: string(domain.ActionHire), Label: "Hire"},
	{Action: string(domain.ActionReject), Label: "Reject"},
}

func applicationCriteriaFrom(q url.Values) listview.ApplicationCriteria {
	c := listview.DefaultApplicationCriteria()
	c.Applied = listview.DateRange{From: strings.TrimSpace(q.Get("from")), To: strings.TrimSpace(q.Get("to"))}
	c.Skills = strings.TrimSpace(q.Get("skills"))
	c.Experience = strings.TrimSpace(q.Get("experience"))
	if v := strings.TrimSpace(q.Get("status")); v != "" {
		c.Status = v
	}
	return c
}

func (s *Server) applicationFetcher(r *http.Request) *listview.Fetcher[domain.Application] {
	return listview.NewFetcher(s.employer(r).ListApplications, backend.UserMessage)
}

func (s *Server) applicationsPage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	fetcher := s.applicationFetcher(r)
	if _, err := fetcher.Load(r.Context()); s.endIfUnauthorized(w, r, err) {
		return
	}
	s.renderApplications(w, r, r.URL.Query(), fetcher, s.takeFlash(r))
}

func (s *Server) renderApplications(w http.ResponseWriter, r *http.Request, query url.Values, fetcher *listview.Fetcher[domain.Application], n *notice) {
	state := fetcher.State()
	ctrl := listview.NewApplicationController(s.cfg.AppsPageSize, s.cfg.Location)
	ctrl.Replace(state.Items)
	if query.Get("clear") != "" {
		ctrl.ClearCriteria()
		query = url.Values{}
	} else {
		ctrl.SetCriteria(applicationCriteriaFrom(query))
	}
	ctrl.SetPage(parsePositiveInt(query.Get("page"), 1))
	view := ctrl.View()

	rows := make([]applicationRow, 0, len(view.Page.Items))
	for _, app := range view.Page.Items {
		rows = append(rows, s.applicationRow(app))
	}

	query.Del("page")
	s.render(w, r, "applications", pageData{
		Title:       "Applications",
		Active:      "applications",
		Notice:      n,
		LoadError:   state.Err,
		Query:       query.Encode(),
		Pager:       buildPager("/applications", query, view.Page),
		AppCriteria: view.Criteria,
		AppRows:     rows,
		AppStats:    listview.ProjectApplications(state.Items),
		AppActions:  applicationActionViews,
		AppStatuses: domain.ApplicationStatuses,
		Experience:  listview.ExperienceBuckets,
		AnyValue:    listview.AnyValue,
	})
}

func (s *Server) applicationRow(app domain.Application) applicationRow {
	return applicationRow{Application: app, Applied: s.formatDateTime(app.AppliedAt)}
}

// applicationStatus records a pipeline decision. It renders the list, or
// the applicant's page when the action was taken from there.
func (s *Server) applicationStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	rec := sessionFromContext(r.Context())
	query, _ := url.ParseQuery(r.FormValue("return"))
	fetcher := s.applicationFetcher(r)
	emp := s.employer(r)

	var n workflow.Notification
	var updateErr error
	target, err := domain.ApplicationAction(r.FormValue("action")).Target()
	appID := parseID(r.FormValue("application_id"))
	switch {
	case err != nil || appID == 0:
		n = workflow.Failure{Title: "Update Failed", Message: "Choose an applicant and a valid action."}
	default:
		transition := workflow.StatusTransition[domain.ApplicationStatus]{
			Name: "application.status",
			Update: func(ctx context.Context, id int64, status domain.ApplicationStatus) error {
				updateErr = emp.UpdateApplicationStatus(ctx, id, status)
				return updateErr
			},
			Reload: func(ctx context.Context) error {
				_, err := fetcher.Load(ctx)
				return err
			},
			Messages:     workflow.ApplicationMessages,
			Describe:     backend.UserMessage,
			FailureTitle: "Update Failed",
			Metrics:      s.metrics,
		}
		action := s.tracker.Get(rec.ID, "application.status")
		var runErr error
		n, runErr = action.Run(func() workflow.Notification {
			return transition.Run(r.Context(), appID, target)
		})
		if runErr == nil {
			defer action.Dismiss()
		}
		if errors.Is(runErr, workflow.ErrPending) {
			n = workflow.Loading{Message: "Another decision is still being saved."}
		}
	}
	if s.endIfUnauthorized(w, r, updateErr) {
		return
	}

	if fetcher.Loads() == 0 {
		if _, err := fetcher.Load(r.Context()); s.endIfUnauthorized(w, r, err) {
			return
		}
	}
	if r.FormValue("from") == "detail" {
		s.renderApplicationDetail(w, r, appID, fetcher.State(), noticeOf(n))
		return
	}
	s.renderApplications(w, r, query, fetcher, noticeOf(n))
}

func (s *Server) applicationDetailPage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	fetcher := s.applicationFetcher(r)
	if _, err := fetcher.Load(r.Context()); s.endIfUnauthorized(w, r, err) {
		return
	}
	s.renderApplicationDetail(w, r, parseID(r.URL.Query().Get("id")), fetcher.State(), s.takeFlash(r))
}

func (s *Server) renderApplicationDetail(w http.ResponseWriter, r *http.Request, id int64, state listview.FetchState[domain.Application], n *notice) {
	data := pageData{
		Title:      "Applicant",
		Active:     "applications",
		Notice:     n,
		LoadError:  state.Err,
		AppActions: applicationActionViews,
	}
	for _, app := range state.Items {
		if app.ID == id {
			row := s.applicationRow(app)
			data.Application = &row
			data.Title = app.ApplicantName
			break
		}
	}
	status := http.StatusOK
	if data.Application == nil && state.Err == "" {
		data.LoadError = "Application not found."
		status = http.StatusNotFound
	}
	s.renderStatus(w, r, status, "application", data)
}
