package panel

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/ehanapbuhay/employer-panel/internal/backend"
	"github.com/ehanapbuhay/employer-panel/internal/domain"
	"github.com/ehanapbuhay/employer-panel/internal/listview"
	"github.com/ehanapbuhay/employer-panel/internal/security"
	"github.com/ehanapbuhay/employer-panel/internal/spreadsheet"
	"github.com/ehanapbuhay/employer-panel/internal/workflow"
)

const maxImportBytes = 10 << 20

var jobActionLabels = map[domain.JobAction]string{
	domain.ActionActivate: "Activate",
	domain.ActionClose:    "Close",
	domain.ActionFill:     "Mark as Filled",
}

// jobActions lists what the employer may do to a posting in status.
func jobActions(status domain.JobStatus) []actionView {
	var actions []domain.JobAction
	switch status {
	case domain.JobActive:
		actions = []domain.JobAction{domain.ActionClose, domain.ActionFill}
	case domain.JobClosed:
		actions = []domain.JobAction{domain.ActionActivate, domain.ActionFill}
	default:
		actions = []domain.JobAction{domain.ActionActivate}
	}
	out := make([]actionView, 0, len(actions))
	for _, a := range actions {
		out = append(out, actionView{Action: string(a), Label: jobActionLabels[a]})
	}
	return out
}

func jobCriteriaFrom(q url.Values) listview.JobCriteria {
	c := listview.DefaultJobCriteria()
	c.Search = strings.TrimSpace(q.Get("search"))
	if v := strings.TrimSpace(q.Get("status")); v != "" {
		c.Status = v
	}
	if v := strings.TrimSpace(q.Get("category")); v != "" {
		c.Category = v
	}
	c.Posted = listview.DateRange{From: strings.TrimSpace(q.Get("from")), To: strings.TrimSpace(q.Get("to"))}
	return c
}

func (s *Server) jobFetcher(r *http.Request) *listview.Fetcher[domain.JobPosting] {
	return listview.NewFetcher(s.employer(r).ListJobs, backend.UserMessage)
}

func (s *Server) jobsPage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	fetcher := s.jobFetcher(r)
	if _, err := fetcher.Load(r.Context()); s.endIfUnauthorized(w, r, err) {
		return
	}
	s.renderJobs(w, r, r.URL.Query(), fetcher, s.takeFlash(r))
}

func (s *Server) renderJobs(w http.ResponseWriter, r *http.Request, query url.Values, fetcher *listview.Fetcher[domain.JobPosting], n *notice) {
	state := fetcher.State()
	ctrl := listview.NewJobController(s.cfg.JobsPageSize, s.cfg.Location)
	ctrl.Replace(state.Items)
	if query.Get("clear") != "" {
		ctrl.ClearCriteria()
		query = url.Values{}
	} else {
		ctrl.SetCriteria(jobCriteriaFrom(query))
	}
	ctrl.SetPage(parsePositiveInt(query.Get("page"), 1))
	view := ctrl.View()

	rows := make([]jobRow, 0, len(view.Page.Items))
	for _, job := range view.Page.Items {
		rows = append(rows, jobRow{JobPosting: job, Posted: s.formatDate(job.PostedAt), Actions: jobActions(job.Status)})
	}

	categories, err := s.employer(r).Categories(r.Context())
	if err != nil {
		log.Printf("categories load failed: %v", err)
	}

	query.Del("page")
	s.render(w, r, "jobs", pageData{
		Title:       "Job Vacancies",
		Active:      "jobs",
		Notice:      n,
		LoadError:   state.Err,
		Query:       query.Encode(),
		Pager:       buildPager("/jobs", query, view.Page),
		JobCriteria: view.Criteria,
		JobRows:     rows,
		JobStats:    listview.ProjectJobs(state.Items),
		JobStatuses: domain.JobStatuses,
		AnyValue:    listview.AnyValue,
		Categories:  categories,
	})
}

// jobStatus runs one status action and renders the refreshed list with
// its outcome.
func (s *Server) jobStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	rec := sessionFromContext(r.Context())
	query, _ := url.ParseQuery(r.FormValue("return"))
	fetcher := s.jobFetcher(r)
	emp := s.employer(r)

	var n workflow.Notification
	var updateErr error
	target, err := domain.JobAction(r.FormValue("action")).Target()
	jobID := parseID(r.FormValue("job_id"))
	switch {
	case err != nil || jobID == 0:
		n = workflow.Failure{Title: "Update Failed", Message: "Choose a job and a valid action."}
	default:
		transition := workflow.StatusTransition[domain.JobStatus]{
			Name: "job.status",
			Update: func(ctx context.Context, id int64, status domain.JobStatus) error {
				updateErr = emp.UpdateJobStatus(ctx, id, status)
				return updateErr
			},
			Reload: func(ctx context.Context) error {
				_, err := fetcher.Load(ctx)
				return err
			},
			Messages:     workflow.JobMessages,
			Describe:     backend.UserMessage,
			FailureTitle: "Update Failed",
			Metrics:      s.metrics,
		}
		action := s.tracker.Get(rec.ID, "job.status")
		var runErr error
		n, runErr = action.Run(func() workflow.Notification {
			return transition.Run(r.Context(), jobID, target)
		})
		if runErr == nil {
			defer action.Dismiss()
		}
		if errors.Is(runErr, workflow.ErrPending) {
			n = workflow.Loading{Message: "Another status change is still in progress."}
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
	s.renderJobs(w, r, query, fetcher, noticeOf(n))
}

func (s *Server) deleteJob(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	rec := sessionFromContext(r.Context())
	jobID := parseID(r.FormValue("job_id"))
	if jobID == 0 {
		s.flashAndRedirect(w, r, "/jobs", workflow.Failure{Title: "Delete Failed", Message: "Job posting not found."})
		return
	}

	var deleteErr error
	action := s.tracker.Get(rec.ID, "job.delete")
	n, err := action.Run(func() workflow.Notification {
		var msg string
		msg, deleteErr = s.employer(r).DeleteJob(r.Context(), jobID)
		if deleteErr != nil {
			log.Printf("job %d delete failed: %v", jobID, deleteErr)
			s.metrics.RecordWorkflow("job.delete", "failure")
			return workflow.Fail("Delete Failed", deleteErr, backend.UserMessage)
		}
		s.metrics.RecordWorkflow("job.delete", "success")
		if msg == "" {
			msg = "The job posting was deleted."
		}
		return workflow.Success{Title: "Job Deleted", Message: msg}
	})
	if err == nil {
		defer action.Dismiss()
	}
	if errors.Is(err, workflow.ErrPending) {
		n = workflow.Loading{Message: "The posting is already being deleted."}
	}
	if s.endIfUnauthorized(w, r, deleteErr) {
		return
	}
	s.flashAndRedirect(w, r, "/jobs", n)
}

// jobFormRoute serves /jobs/new and /jobs/edit?id=.
func (s *Server) jobFormRoute(w http.ResponseWriter, r *http.Request) {
	editing := r.URL.Path == "/jobs/edit"
	switch r.Method {
	case http.MethodGet:
		form := jobForm{JobType: domain.JobTypeFullTime, WorkSetup: domain.WorkSetupOnsite, ExperienceYears: "0"}
		if editing {
			job, ok := s.findJob(w, r, parseID(r.URL.Query().Get("id")))
			if !ok {
				return
			}
			form = formFromJob(job)
		}
		s.renderJobForm(w, r, http.StatusOK, form, "")
	case http.MethodPost:
		s.saveJob(w, r, editing)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) findJob(w http.ResponseWriter, r *http.Request, id int64) (domain.JobPosting, bool) {
	jobs, err := s.employer(r).ListJobs(r.Context())
	if s.endIfUnauthorized(w, r, err) {
		return domain.JobPosting{}, false
	}
	if err != nil {
		s.flashAndRedirect(w, r, "/jobs", workflow.Fail("Could Not Load Job", err, backend.UserMessage))
		return domain.JobPosting{}, false
	}
	for _, job := range jobs {
		if job.ID == id {
			return job, true
		}
	}
	s.flashAndRedirect(w, r, "/jobs", workflow.Failure{Title: "Job Not Found", Message: "Job posting not found."})
	return domain.JobPosting{}, false
}

func (s *Server) saveJob(w http.ResponseWriter, r *http.Request, editing bool) {
	form := jobFormFrom(r)
	if editing && form.ID == 0 {
		s.flashAndRedirect(w, r, "/jobs", workflow.Failure{Title: "Job Not Found", Message: "Job posting not found."})
		return
	}
	draft, err := form.draft()
	if err == nil {
		err = security.ValidateJobDraft(draft)
	}
	if err != nil {
		s.renderJobForm(w, r, http.StatusUnprocessableEntity, form, err.Error())
		return
	}

	emp := s.employer(r)
	var msg string
	if editing {
		msg, err = emp.UpdateJob(r.Context(), form.ID, draft)
	} else {
		msg, err = emp.CreateJob(r.Context(), draft)
	}
	if s.endIfUnauthorized(w, r, err) {
		return
	}
	action := "job.create"
	if editing {
		action = "job.update"
	}
	if err != nil {
		log.Printf("%s failed: %v", action, err)
		s.metrics.RecordWorkflow(action, "failure")
		s.renderJobForm(w, r, http.StatusUnprocessableEntity, form, backend.UserMessage(err))
		return
	}
	s.metrics.RecordWorkflow(action, "success")

	title := "Job Posted"
	if editing {
		title = "Job Updated"
	}
	if msg == "" {
		msg = "Your changes were saved."
	}
	s.flashAndRedirect(w, r, "/jobs", workflow.Success{Title: title, Message: msg})
}

func (s *Server) renderJobForm(w http.ResponseWriter, r *http.Request, status int, form jobForm, errMsg string) {
	emp := s.employer(r)
	categories, err := emp.Categories(r.Context())
	if s.endIfUnauthorized(w, r, err) {
		return
	}
	localities, lerr := emp.Localities(r.Context())
	if err == nil {
		err = lerr
	}
	if err != nil && errMsg == "" {
		errMsg = backend.UserMessage(err)
	}

	title := "Post a Job"
	if form.ID != 0 {
		title = "Edit Job"
	}
	s.renderStatus(w, r, status, "job_form", pageData{
		Title:      title,
		Active:     "jobs",
		Error:      errMsg,
		Form:       form,
		Categories: categories,
		Localities: localities,
		JobTypes:   domain.JobTypes,
		WorkSetups: domain.WorkSetups,
	})
}

func formFromJob(job domain.JobPosting) jobForm {
	return jobForm{
		ID:               job.ID,
		Title:            job.Title,
		CompanyName:      job.CompanyName,
		Description:      job.Description,
		Responsibilities: job.Responsibilities,
		Requirements:     job.Requirements,
		CategoryID:       job.CategoryID,
		LocalityID:       job.LocalityID,
		SalaryMin:        formatAmount(job.SalaryMin),
		SalaryMax:        formatAmount(job.SalaryMax),
		JobType:          job.JobType,
		WorkSetup:        job.WorkSetup,
		ExperienceYears:  strconv.Itoa(job.ExperienceYears),
	}
}

func jobFormFrom(r *http.Request) jobForm {
	return jobForm{
		ID:               parseID(r.FormValue("id")),
		Title:            security.PlainText(r.FormValue("title")),
		CompanyName:      security.PlainText(r.FormValue("company_name")),
		Description:      security.PlainText(r.FormValue("description")),
		Responsibilities: security.PlainText(r.FormValue("responsibilities")),
		Requirements:     security.PlainText(r.FormValue("requirements")),
		CategoryID:       parseID(r.FormValue("category_id")),
		LocalityID:       parseID(r.FormValue("barangay_id")),
		SalaryMin:        strings.TrimSpace(r.FormValue("salary_min")),
		SalaryMax:        strings.TrimSpace(r.FormValue("salary_max")),
		JobType:          strings.TrimSpace(r.FormValue("job_type")),
		WorkSetup:        strings.TrimSpace(r.FormValue("work_setup")),
		ExperienceYears:  strings.TrimSpace(r.FormValue("experience_years")),
	}
}

func (f jobForm) draft() (domain.JobDraft, error) {
	d := domain.JobDraft{
		Title:            f.Title,
		CompanyName:      f.CompanyName,
		Description:      f.Description,
		Responsibilities: f.Responsibilities,
		Requirements:     f.Requirements,
		CategoryID:       f.CategoryID,
		LocalityID:       f.LocalityID,
		JobType:          f.JobType,
		WorkSetup:        f.WorkSetup,
	}
	var err error
	if d.SalaryMin, err = parseAmount(f.SalaryMin, "Minimum salary"); err != nil {
		return d, err
	}
	if d.SalaryMax, err = parseAmount(f.SalaryMax, "Maximum salary"); err != nil {
		return d, err
	}
	if f.ExperienceYears != "" {
		years, convErr := strconv.Atoi(f.ExperienceYears)
		if convErr != nil || years < 0 {
			return d, &security.ValidationError{Field: "experience_years", Message: "Years of experience must be a whole number."}
		}
		d.ExperienceYears = years
	}
	return d, nil
}

func parseAmount(raw, label string) (*float64, error) {
	raw = strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, &security.ValidationError{Field: "salary", Message: label + " must be a number."}
	}
	return &v, nil
}

func formatAmount(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// importRoute serves the bulk upload page and runs an import.
func (s *Server) importRoute(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.render(w, r, "job_import", pageData{Title: "Import Jobs", Active: "jobs", Columns: spreadsheet.Columns})
	case http.MethodPost:
		s.importJobs(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) importJobs(w http.ResponseWriter, r *http.Request) {
	renderErr := func(status int, msg string) {
		s.renderStatus(w, r, status, "job_import", pageData{Title: "Import Jobs", Active: "jobs", Columns: spreadsheet.Columns, Error: msg})
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		renderErr(http.StatusUnprocessableEntity, "Please choose a spreadsheet to import.")
		return
	}
	defer file.Close()
	if header.Size > maxImportBytes {
		renderErr(http.StatusUnprocessableEntity, "The spreadsheet is too large. The limit is 10 MB.")
		return
	}

	emp := s.employer(r)
	categories, err := emp.Categories(r.Context())
	if s.endIfUnauthorized(w, r, err) {
		return
	}
	localities, lerr := emp.Localities(r.Context())
	if err == nil {
		err = lerr
	}
	if err != nil {
		renderErr(http.StatusBadGateway, backend.UserMessage(err))
		return
	}

	rows, err := spreadsheet.ParseJobs(file, header.Filename, spreadsheet.Lookup{Categories: categories, Localities: localities})
	if err != nil {
		renderErr(http.StatusUnprocessableEntity, err.Error())
		return
	}

	results := spreadsheet.Create(r.Context(), rows, emp.CreateJob)
	created, failed := spreadsheet.Summary(results)
	for _, res := range results {
		if res.Err != nil {
			log.Printf("job import line %d failed: %v", res.Line, res.Err)
		}
	}
	outcome := "success"
	if failed > 0 {
		outcome = "partial"
	}
	s.metrics.RecordWorkflow("job.import", outcome)

	var n workflow.Notification = workflow.Success{
		Title:   "Import Complete",
		Message: fmt.Sprintf("%d job(s) posted.", created),
	}
	if failed > 0 {
		n = workflow.Failure{
			Title:   "Import Finished With Errors",
			Message: fmt.Sprintf("%d job(s) posted, %d row(s) need attention.", created, failed),
		}
	}
	s.render(w, r, "job_import", pageData{
		Title:   "Import Jobs",
		Active:  "jobs",
		Columns: spreadsheet.Columns,
		Notice:  noticeOf(n),
		Import:  &importSummary{FileName: header.Filename, Created: created, Failed: failed, Results: results},
	})
}

func (s *Server) importTemplateFile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="job-import-template.xlsx"`)
	if err := spreadsheet.WriteTemplate(w); err != nil {
		log.Printf("import template write failed: %v", err)
	}
}
