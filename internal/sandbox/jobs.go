package sandbox

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/ehanapbuhay/employer-panel/internal/domain"
	"github.com/ehanapbuhay/employer-panel/internal/security"
)

type statusRequest struct {
	Status string `json:"status"`
}

// jobsAdminHandler dispatches everything under /jobs/admin/.
func (s *Server) jobsAdminHandler(w http.ResponseWriter, r *http.Request) {
	trimmed := strings.Trim(strings.TrimPrefix(r.URL.Path, "/jobs/admin/"), "/")
	parts := strings.Split(trimmed, "/")

	switch {
	case trimmed == "all":
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.listJobs(w, r)
		return
	case trimmed == "create":
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.saveJob(w, r, 0)
		return
	case trimmed == "categories":
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		categories, _ := s.store.referenceData()
		// Bare array; the real API is inconsistent here too.
		writeJSON(w, http.StatusOK, categories)
		return
	case trimmed == "barangays":
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		_, localities := s.store.referenceData()
		writeOK(w, http.StatusOK, "", localities)
		return
	}

	jobID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || jobID <= 0 {
		http.NotFound(w, r)
		return
	}

	if len(parts) == 1 {
		switch r.Method {
		case http.MethodPut:
			s.saveJob(w, r, jobID)
		case http.MethodDelete:
			s.deleteJob(w, r, jobID)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}
	if len(parts) == 2 && parts[1] == "status" {
		if r.Method != http.MethodPatch {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.updateJobStatus(w, r, jobID)
		return
	}
	http.NotFound(w, r)
}

func (s *Server) listJobs(w http.ResponseWriter, r *http.Request) {
	acct := accountFromContext(r.Context())
	writeOK(w, http.StatusOK, "", s.store.listJobs(acct.User.ID))
}

func (s *Server) saveJob(w http.ResponseWriter, r *http.Request, jobID int64) {
	acct := accountFromContext(r.Context())
	var draft domain.JobDraft
	if err := decodeJSON(w, r, &draft); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	draft.Title = security.PlainText(draft.Title)
	draft.CompanyName = security.PlainText(draft.CompanyName)
	draft.Description = security.PlainText(draft.Description)
	draft.Responsibilities = security.PlainText(draft.Responsibilities)
	draft.Requirements = security.PlainText(draft.Requirements)
	if err := security.ValidateJobDraft(draft); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	posting, err := s.store.saveJob(acct.User.ID, jobID, draft, s.now())
	switch {
	case errors.Is(err, errNotFound):
		writeError(w, http.StatusNotFound, "Job posting not found.")
		return
	case err != nil:
		writeError(w, http.StatusUnprocessableEntity, "Please choose a valid category and barangay.")
		return
	}
	if jobID == 0 {
		writeOK(w, http.StatusCreated, "Job posted successfully.", posting)
		return
	}
	writeOK(w, http.StatusOK, "Job updated successfully.", posting)
}

func (s *Server) deleteJob(w http.ResponseWriter, r *http.Request, jobID int64) {
	acct := accountFromContext(r.Context())
	if err := s.store.deleteJob(acct.User.ID, jobID); err != nil {
		writeError(w, http.StatusNotFound, "Job posting not found.")
		return
	}
	writeOK(w, http.StatusOK, "Job deleted successfully.", nil)
}

// parseJobStatus accepts the statuses an employer may set. "expired" is
// reserved for the server's own clock.
func parseJobStatus(raw string) (domain.JobStatus, int, string) {
	status := domain.JobStatus(strings.ToLower(strings.TrimSpace(raw)))
	switch status {
	case domain.JobActive, domain.JobClosed, domain.JobFilled:
		return status, 0, ""
	case domain.JobExpired:
		return "", http.StatusUnprocessableEntity, "Expired is set automatically and cannot be chosen."
	}
	return "", http.StatusBadRequest, "Unknown job status."
}

func (s *Server) updateJobStatus(w http.ResponseWriter, r *http.Request, jobID int64) {
	acct := accountFromContext(r.Context())
	var req statusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	status, code, msg := parseJobStatus(req.Status)
	if code != 0 {
		writeError(w, code, msg)
		return
	}
	if err := s.store.setJobStatus(acct.User.ID, jobID, status, s.now()); err != nil {
		writeError(w, http.StatusNotFound, "Job posting not found.")
		return
	}
	writeOK(w, http.StatusOK, "Job status updated.", map[string]string{"status": string(status)})
}

// applicationsHandler serves /applications/employer/all and
// /applications/{id}/status.
func (s *Server) applicationsHandler(w http.ResponseWriter, r *http.Request) {
	trimmed := strings.Trim(strings.TrimPrefix(r.URL.Path, "/applications/"), "/")
	if trimmed == "employer/all" {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		acct := accountFromContext(r.Context())
		writeOK(w, http.StatusOK, "", s.store.listApplications(acct.User.ID))
		return
	}

	parts := strings.Split(trimmed, "/")
	if len(parts) != 2 || parts[1] != "status" {
		http.NotFound(w, r)
		return
	}
	appID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || appID <= 0 {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodPatch {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.updateApplicationStatus(w, r, appID)
}

func parseApplicationStatus(raw string) (domain.ApplicationStatus, int, string) {
	status := domain.ApplicationStatus(strings.ToLower(strings.TrimSpace(raw)))
	switch status {
	case domain.ApplicationViewed, domain.ApplicationShortlisted, domain.ApplicationHired, domain.ApplicationRejected:
		return status, 0, ""
	case domain.ApplicationSubmitted:
		return "", http.StatusUnprocessableEntity, "An application cannot be moved back to submitted."
	}
	return "", http.StatusBadRequest, "Unknown application status."
}

func (s *Server) updateApplicationStatus(w http.ResponseWriter, r *http.Request, appID int64) {
	acct := accountFromContext(r.Context())
	var req statusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	status, code, msg := parseApplicationStatus(req.Status)
	if code != 0 {
		writeError(w, code, msg)
		return
	}
	if err := s.store.setApplicationStatus(acct.User.ID, appID, status); err != nil {
		writeError(w, http.StatusNotFound, "Application not found.")
		return
	}
	writeOK(w, http.StatusOK, "Application status updated.", map[string]string{"status": string(status)})
}
