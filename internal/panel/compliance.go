package panel

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path/filepath"

	"github.com/ehanapbuhay/employer-panel/internal/backend"
	"github.com/ehanapbuhay/employer-panel/internal/compliance"
	"github.com/ehanapbuhay/employer-panel/internal/workflow"
)

func (s *Server) compliancePage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.render(w, r, "compliance", pageData{
		Title:      "Compliance",
		Active:     "compliance",
		Notice:     s.takeFlash(r),
		Checklists: compliance.Checklists,
	})
}

func (s *Server) reportViolation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	rec := sessionFromContext(r.Context())

	v := compliance.Violation{Message: r.FormValue("message")}
	attachment, err := s.readAttachment(r)
	if err != nil {
		s.flashAndRedirect(w, r, "/compliance", workflow.Failure{Title: "Report Not Sent", Message: "The attachment could not be read."})
		return
	}
	v.Attachment = attachment

	var submitErr error
	reporter := compliance.Reporter{
		Constraints: s.attachment,
		Submit: func(ctx context.Context, message string, f *backend.File) (string, error) {
			var msg string
			msg, submitErr = s.employer(r).ReportViolation(ctx, message, f)
			return msg, submitErr
		},
		Describe: backend.UserMessage,
		Metrics:  s.metrics,
	}
	action := s.tracker.Get(rec.ID, "violation.report")
	n, err := action.Run(func() workflow.Notification {
		return reporter.Report(r.Context(), v)
	})
	if err == nil {
		defer action.Dismiss()
	}
	if errors.Is(err, workflow.ErrPending) {
		n = workflow.Loading{Message: "Your previous report is still being sent."}
	}
	if s.endIfUnauthorized(w, r, submitErr) {
		return
	}
	s.flashAndRedirect(w, r, "/compliance", n)
}

// readAttachment returns the optional attachment, or nil when none was
// chosen. Oversized files are cut one byte past the limit so validation
// still rejects them.
func (s *Server) readAttachment(r *http.Request) (*backend.File, error) {
	file, header, err := r.FormFile("attachment")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, s.attachment.MaxBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) == 0 && header.Filename == "" {
		return nil, nil
	}
	return &backend.File{
		Name:        filepath.Base(header.Filename),
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}
