package panel

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/ehanapbuhay/employer-panel/internal/backend"
	"github.com/ehanapbuhay/employer-panel/internal/domain"
	"github.com/ehanapbuhay/employer-panel/internal/events"
	"github.com/ehanapbuhay/employer-panel/internal/security"
	"github.com/ehanapbuhay/employer-panel/internal/session"
	"github.com/ehanapbuhay/employer-panel/internal/upload"
	"github.com/ehanapbuhay/employer-panel/internal/workflow"
)

func (s *Server) profilePage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	rec := sessionFromContext(r.Context())
	details, err := s.employer(r).FetchProfile(r.Context(), rec.User.ID)
	if s.endIfUnauthorized(w, r, err) {
		return
	}
	data := pageData{
		Title:        "Profile & Settings",
		Active:       "profile",
		Notice:       s.takeFlash(r),
		Profile:      details,
		CompanySizes: domain.CompanySizes,
		Industries:   domain.Industries,
		IdleMinutes:  session.ClampIdleMinutes(rec.IdleMinutes),
		MinIdle:      session.MinIdleMinutes,
		MaxIdle:      session.MaxIdleMinutes,
	}
	if err != nil {
		data.LoadError = backend.UserMessage(err)
	}
	s.render(w, r, "profile", data)
}

func (s *Server) saveProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	rec := sessionFromContext(r.Context())
	p := domain.Profile{
		FullName:    security.PlainText(r.FormValue("full_name")),
		Email:       strings.TrimSpace(r.FormValue("email")),
		PhoneNumber: security.PlainText(r.FormValue("phone_number")),
		Location:    security.PlainText(r.FormValue("location")),
	}
	if err := security.ValidateProfile(p); err != nil {
		s.flashAndRedirect(w, r, "/profile", workflow.Failure{Title: "Profile Not Saved", Message: err.Error()})
		return
	}

	msg, err := s.employer(r).SaveProfile(r.Context(), rec.User.ID, p)
	if s.endIfUnauthorized(w, r, err) {
		return
	}
	if err != nil {
		log.Printf("profile save failed: %v", err)
		s.metrics.RecordWorkflow("profile.save", "failure")
		s.flashAndRedirect(w, r, "/profile", workflow.Fail("Profile Not Saved", err, backend.UserMessage))
		return
	}
	s.metrics.RecordWorkflow("profile.save", "success")
	s.profiles.Publish(events.ProfileChanged{SessionID: rec.ID, UserID: rec.User.ID, FullName: p.FullName})
	if msg == "" {
		msg = "Your profile was updated."
	}
	s.flashAndRedirect(w, r, "/profile", workflow.Success{Title: "Profile Saved", Message: msg})
}

func (s *Server) saveBusiness(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	rec := sessionFromContext(r.Context())
	b := domain.Business{
		CompanyName:    security.PlainText(r.FormValue("company_name")),
		CompanySize:    strings.TrimSpace(r.FormValue("company_size")),
		Industry:       strings.TrimSpace(r.FormValue("industry")),
		CustomIndustry: security.PlainText(r.FormValue("custom_industry")),
		TINNumber:      strings.TrimSpace(r.FormValue("tin_number")),
		Website:        strings.TrimSpace(r.FormValue("website")),
		Headquarters:   security.PlainText(r.FormValue("headquarters")),
		Description:    security.PlainText(r.FormValue("description")),
	}
	if b.Industry != domain.IndustryOther {
		b.CustomIndustry = ""
	}
	if err := security.ValidateBusiness(b); err != nil {
		s.flashAndRedirect(w, r, "/profile", workflow.Failure{Title: "Business Details Not Saved", Message: err.Error()})
		return
	}

	msg, err := s.employer(r).SaveBusiness(r.Context(), rec.User.ID, b)
	if s.endIfUnauthorized(w, r, err) {
		return
	}
	if err != nil {
		log.Printf("business save failed: %v", err)
		s.metrics.RecordWorkflow("business.save", "failure")
		s.flashAndRedirect(w, r, "/profile", workflow.Fail("Business Details Not Saved", err, backend.UserMessage))
		return
	}
	s.metrics.RecordWorkflow("business.save", "success")
	if msg == "" {
		msg = "Your business details were saved."
	}
	s.flashAndRedirect(w, r, "/profile", workflow.Success{Title: "Business Details Saved", Message: msg})
}

func (s *Server) uploadAvatar(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	rec := sessionFromContext(r.Context())
	emp := s.employer(r)
	s.runUpload(w, r, "avatar", upload.Workflow{
		Constraints: s.avatar,
		Prepare:     upload.ProcessAvatar,
		Submit:      emp.UploadAvatar,
		Uploaded: func(url string) {
			s.profiles.Publish(events.ProfileChanged{SessionID: rec.ID, UserID: rec.User.ID, AvatarURL: url})
		},
		Describe:       backend.UserMessage,
		Metrics:        s.metrics,
		SuccessTitle:   "Profile Picture Updated",
		SuccessMessage: "Your new profile picture is live.",
	})
}

func (s *Server) uploadPermit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	rec := sessionFromContext(r.Context())
	emp := s.employer(r)
	s.runUpload(w, r, "permit", upload.Workflow{
		Constraints: s.permit,
		Submit: func(ctx context.Context, f backend.File) (string, error) {
			return emp.UploadPermit(ctx, rec.User.ID, f)
		},
		Uploaded: func(url string) {
			s.profiles.Publish(events.ProfileChanged{SessionID: rec.ID, UserID: rec.User.ID, PermitURL: url})
		},
		Describe:       backend.UserMessage,
		Metrics:        s.metrics,
		SuccessTitle:   "Permit Uploaded",
		SuccessMessage: "Your business permit was uploaded and is pending verification.",
	})
}

// runUpload reads field, runs wf and redirects back to the profile page
// with the outcome.
func (s *Server) runUpload(w http.ResponseWriter, r *http.Request, field string, wf upload.Workflow) {
	rec := sessionFromContext(r.Context())
	name, contentType, data, err := wf.Constraints.ReadForm(r, field)
	if err != nil {
		var rejected *upload.RejectedError
		if errors.As(err, &rejected) {
			s.metrics.RecordUploadRejected(rejected.Kind, rejected.Reason)
			s.flashAndRedirect(w, r, "/profile", workflow.Failure{Title: "Upload Rejected", Message: rejected.Message})
			return
		}
		log.Printf("%s upload read failed: %v", field, err)
		s.flashAndRedirect(w, r, "/profile", workflow.Failure{Title: "Upload Failed", Message: "The file could not be read. Please try again."})
		return
	}

	var submitErr error
	submit := wf.Submit
	wf.Submit = func(ctx context.Context, f backend.File) (string, error) {
		var url string
		url, submitErr = submit(ctx, f)
		return url, submitErr
	}
	action := s.tracker.Get(rec.ID, field+".upload")
	n, err := action.Run(func() workflow.Notification {
		_, n := wf.Run(r.Context(), name, contentType, data)
		return n
	})
	if err == nil {
		defer action.Dismiss()
	}
	if errors.Is(err, workflow.ErrPending) {
		n = workflow.Loading{Message: "Your previous upload is still in progress."}
	}
	if s.endIfUnauthorized(w, r, submitErr) {
		return
	}
	s.flashAndRedirect(w, r, "/profile", n)
}

func (s *Server) changePassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	current := r.FormValue("current_password")
	next := r.FormValue("new_password")
	if err := security.ValidatePasswordChange(current, next, r.FormValue("confirm_password")); err != nil {
		s.flashAndRedirect(w, r, "/profile", workflow.Failure{Title: "Password Not Changed", Message: err.Error()})
		return
	}

	msg, err := s.employer(r).ChangePassword(r.Context(), current, next)
	if s.endIfUnauthorized(w, r, err) {
		return
	}
	if err != nil {
		s.metrics.RecordWorkflow("password.change", "failure")
		s.flashAndRedirect(w, r, "/profile", workflow.Fail("Password Not Changed", err, backend.UserMessage))
		return
	}
	s.metrics.RecordWorkflow("password.change", "success")
	if msg == "" {
		msg = "Your password was changed."
	}
	s.flashAndRedirect(w, r, "/profile", workflow.Success{Title: "Password Changed", Message: msg})
}

func (s *Server) saveTimeout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	rec := sessionFromContext(r.Context())
	minutes := parsePositiveInt(r.FormValue("idle_minutes"), session.DefaultIdleMinutes)
	applied, err := s.sessions.SetIdleTimeout(r.Context(), rec.ID, minutes)
	if err != nil {
		log.Printf("session %s timeout update failed: %v", rec.ID, err)
		s.flashAndRedirect(w, r, "/profile", workflow.Failure{Title: "Settings Not Saved", Message: "Please try again."})
		return
	}
	s.flashAndRedirect(w, r, "/profile", workflow.Success{
		Title:   "Settings Saved",
		Message: fmt.Sprintf("You will be signed out after %d minutes of inactivity.", applied),
	})
}
