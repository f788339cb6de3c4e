package sandbox

import (
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ehanapbuhay/employer-panel/internal/domain"
	"github.com/ehanapbuhay/employer-panel/internal/security"
	"github.com/ehanapbuhay/employer-panel/internal/upload"
)

const (
	verificationPending  = "pending"
	verificationVerified = "verified"
)

type violationView struct {
	ID            int64     `json:"id"`
	Message       string    `json:"message"`
	AttachmentURL string    `json:"attachment_url,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// userHandler serves /user/profile/{id}, /user/business/{id},
// /user/avatar and /user/permit/{id}.
func (s *Server) userHandler(w http.ResponseWriter, r *http.Request) {
	acct := accountFromContext(r.Context())
	p := r.URL.Path

	switch {
	case p == "/user/avatar":
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.uploadAvatar(w, r, acct)
		return
	case strings.HasPrefix(p, "/user/profile/"):
		if !s.ownPath(w, r, "/user/profile/", acct) {
			return
		}
		switch r.Method {
		case http.MethodGet:
			s.getProfile(w, acct.User.ID)
		case http.MethodPut:
			s.saveProfile(w, r, acct)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
		return
	case strings.HasPrefix(p, "/user/business/"):
		if !s.ownPath(w, r, "/user/business/", acct) {
			return
		}
		if r.Method != http.MethodPut {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.saveBusiness(w, r, acct)
		return
	case strings.HasPrefix(p, "/user/permit/"):
		if !s.ownPath(w, r, "/user/permit/", acct) {
			return
		}
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.uploadPermit(w, r, acct)
		return
	}
	http.NotFound(w, r)
}

// ownPath rejects requests addressed to another user's id.
func (s *Server) ownPath(w http.ResponseWriter, r *http.Request, prefix string, acct *account) bool {
	id, ok := pathID(r.URL.Path, prefix)
	if !ok {
		http.NotFound(w, r)
		return false
	}
	if id != acct.User.ID {
		writeError(w, http.StatusForbidden, "You can only manage your own account.")
		return false
	}
	return true
}

func (s *Server) getProfile(w http.ResponseWriter, userID int64) {
	acct, err := s.store.account(userID)
	if err != nil {
		writeError(w, http.StatusNotFound, "Profile not found.")
		return
	}
	writeOK(w, http.StatusOK, "", domain.ProfileDetails{
		Profile: domain.Profile{
			FullName:    acct.User.FullName,
			Email:       acct.User.Email,
			PhoneNumber: acct.Phone,
			Location:    acct.Location,
			AvatarURL:   acct.User.AvatarURL,
		},
		Business: s.store.business(userID),
	})
}

func (s *Server) saveProfile(w http.ResponseWriter, r *http.Request, acct *account) {
	var p domain.Profile
	if err := decodeJSON(w, r, &p); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	p.FullName = security.PlainText(p.FullName)
	p.PhoneNumber = security.PlainText(p.PhoneNumber)
	p.Location = security.PlainText(p.Location)
	p.Email = strings.TrimSpace(p.Email)
	if err := security.ValidateProfile(p); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if other, err := s.store.accountByEmail(p.Email); err == nil && other.User.ID != acct.User.ID {
		writeError(w, http.StatusConflict, "That email is already used by another account.")
		return
	}

	err := s.store.updateAccount(acct.User.ID, func(a *account) {
		a.User.FullName = p.FullName
		a.User.Email = p.Email
		a.Phone = p.PhoneNumber
		a.Location = p.Location
	})
	if err != nil {
		writeError(w, http.StatusNotFound, "Profile not found.")
		return
	}
	writeOK(w, http.StatusOK, "Profile updated successfully.", nil)
}

func (s *Server) saveBusiness(w http.ResponseWriter, r *http.Request, acct *account) {
	var b domain.Business
	if err := decodeJSON(w, r, &b); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	b.CompanyName = security.PlainText(b.CompanyName)
	b.CustomIndustry = security.PlainText(b.CustomIndustry)
	b.Headquarters = security.PlainText(b.Headquarters)
	b.Description = security.PlainText(b.Description)
	b.Website = strings.TrimSpace(b.Website)
	b.TINNumber = strings.TrimSpace(b.TINNumber)
	if err := security.ValidateBusiness(b); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	// Permit and verification state only change through the permit upload.
	saved := s.store.updateBusiness(acct.User.ID, func(existing *domain.Business) {
		b.PermitURL = existing.PermitURL
		b.VerificationStatus = existing.VerificationStatus
		if b.VerificationStatus == "" {
			b.VerificationStatus = verificationPending
		}
		*existing = b
	})
	writeOK(w, http.StatusOK, "Business information saved.", saved)
}

func (s *Server) uploadAvatar(w http.ResponseWriter, r *http.Request, acct *account) {
	url, ok := s.storeUpload(w, r, upload.Avatar, "avatar", "avatars", acct.User.ID)
	if !ok {
		return
	}
	if err := s.store.updateAccount(acct.User.ID, func(a *account) { a.User.AvatarURL = url }); err != nil {
		writeError(w, http.StatusNotFound, "Profile not found.")
		return
	}
	writeOK(w, http.StatusOK, "Profile picture updated.", map[string]string{"avatar_url": url})
}

func (s *Server) uploadPermit(w http.ResponseWriter, r *http.Request, acct *account) {
	url, ok := s.storeUpload(w, r, upload.Permit, "permit", "permits", acct.User.ID)
	if !ok {
		return
	}
	s.store.updateBusiness(acct.User.ID, func(b *domain.Business) {
		b.PermitURL = url
		b.VerificationStatus = verificationPending
	})
	writeOK(w, http.StatusOK, "Business permit uploaded. Verification is pending.", map[string]string{"permit_url": url})
}

// storeUpload reads and validates field, keeps the bytes under
// /uploads/<dir>/ and returns the public URL.
func (s *Server) storeUpload(w http.ResponseWriter, r *http.Request, c upload.Constraints, field, dir string, userID int64) (string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, c.MaxBytes+(1<<20))
	name, contentType, data, err := c.ReadForm(r, field)
	if err != nil {
		if upload.IsRejected(err) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return "", false
		}
		writeError(w, http.StatusBadRequest, "Invalid upload.")
		return "", false
	}
	key := path.Join("/uploads", dir, fmt.Sprintf("%d-%s%s", userID, uuid.NewString(), path.Ext(name)))
	s.store.putFile(key, storedFile{ContentType: contentType, Data: data})
	return s.publicURL + key, true
}

func (s *Server) violationsHandler(w http.ResponseWriter, r *http.Request) {
	acct := accountFromContext(r.Context())
	switch r.Method {
	case http.MethodGet:
		s.listViolations(w, acct)
	case http.MethodPost:
		s.createViolation(w, r, acct)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) listViolations(w http.ResponseWriter, acct *account) {
	out := []violationView{}
	for _, v := range s.store.violationsFor(acct.User.ID) {
		view := violationView{ID: v.ID, Message: v.Message, CreatedAt: v.CreatedAt}
		if v.Attachment != "" {
			view.AttachmentURL = s.publicURL + v.Attachment
		}
		out = append(out, view)
	}
	writeOK(w, http.StatusOK, "", out)
}

func (s *Server) createViolation(w http.ResponseWriter, r *http.Request, acct *account) {
	r.Body = http.MaxBytesReader(w, r.Body, upload.Attachment.MaxBytes+(1<<20))
	if err := r.ParseMultipartForm(upload.Attachment.MaxBytes + (1 << 20)); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid report form.")
		return
	}
	message := security.PlainText(r.FormValue("message"))
	if message == "" {
		writeError(w, http.StatusUnprocessableEntity, "Please describe the violation.")
		return
	}

	v := violation{UserID: acct.User.ID, Message: message, CreatedAt: s.now()}
	name, contentType, data, err := upload.Attachment.ReadForm(r, "attachment")
	var rejected *upload.RejectedError
	switch {
	case err == nil:
		v.Attachment = path.Join("/uploads/violations", fmt.Sprintf("%d-%s%s", acct.User.ID, uuid.NewString(), path.Ext(name)))
		s.store.putFile(v.Attachment, storedFile{ContentType: contentType, Data: data})
	case errors.As(err, &rejected) && rejected.Reason == upload.ReasonMissing:
	case errors.As(err, &rejected):
		writeError(w, http.StatusUnprocessableEntity, rejected.Message)
		return
	default:
		writeError(w, http.StatusBadRequest, "Invalid attachment.")
		return
	}

	id := s.store.addViolation(v)
	writeOK(w, http.StatusCreated, "Thank you. Our compliance team will review your report.", map[string]int64{"id": id})
}
