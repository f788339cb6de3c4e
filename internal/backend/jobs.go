package backend

import (
	"context"
	"net/http"
	"strconv"

	"github.com/ehanapbuhay/employer-panel/internal/domain"
)

func (e *Employer) ListJobs(ctx context.Context) ([]domain.JobPosting, error) {
	var jobs []domain.JobPosting
	if err := e.get(ctx, "jobs.list", "/jobs/admin/all", &jobs); err != nil {
		return nil, err
	}
	if jobs == nil {
		jobs = []domain.JobPosting{}
	}
	return jobs, nil
}

func (e *Employer) CreateJob(ctx context.Context, draft domain.JobDraft) (string, error) {
	return e.sendJSON(ctx, "jobs.create", http.MethodPost, "/jobs/admin/create", draft, nil)
}

func (e *Employer) UpdateJob(ctx context.Context, id int64, draft domain.JobDraft) (string, error) {
	return e.sendJSON(ctx, "jobs.update", http.MethodPut, "/jobs/admin/"+strconv.FormatInt(id, 10), draft, nil)
}

func (e *Employer) UpdateJobStatus(ctx context.Context, id int64, status domain.JobStatus) error {
	_, err := e.sendJSON(ctx, "jobs.status", http.MethodPatch, "/jobs/admin/"+strconv.FormatInt(id, 10)+"/status",
		map[string]string{"status": string(status)}, nil)
	return err
}

func (e *Employer) DeleteJob(ctx context.Context, id int64) (string, error) {
	return e.c.do(ctx, request{
		endpoint: "jobs.delete",
		method:   http.MethodDelete,
		path:     "/jobs/admin/" + strconv.FormatInt(id, 10),
		token:    e.token,
	}, nil)
}

func (e *Employer) Categories(ctx context.Context) ([]domain.Category, error) {
	var out []domain.Category
	if err := e.get(ctx, "jobs.categories", "/jobs/admin/categories", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (e *Employer) Localities(ctx context.Context) ([]domain.Locality, error) {
	var out []domain.Locality
	if err := e.get(ctx, "jobs.localities", "/jobs/admin/barangays", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (e *Employer) ListApplications(ctx context.Context) ([]domain.Application, error) {
	var apps []domain.Application
	if err := e.get(ctx, "applications.list", "/applications/employer/all", &apps); err != nil {
		return nil, err
	}
	if apps == nil {
		apps = []domain.Application{}
	}
	return apps, nil
}

func (e *Employer) UpdateApplicationStatus(ctx context.Context, id int64, status domain.ApplicationStatus) error {
	_, err := e.sendJSON(ctx, "applications.status", http.MethodPatch, "/applications/"+strconv.FormatInt(id, 10)+"/status",
		map[string]string{"status": string(status)}, nil)
	return err
}
