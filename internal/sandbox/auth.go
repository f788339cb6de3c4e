package sandbox

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	jwt "github.com/dgrijalva/jwt-go"

	"github.com/ehanapbuhay/employer-panel/internal/domain"
	"github.com/ehanapbuhay/employer-panel/internal/security"
)

const tokenIssuer = "e-hanapbuhay-sandbox"

type tokenClaims struct {
	Role   string `json:"role"`
	RoleID int    `json:"role_id"`
	jwt.StandardClaims
}

type registerRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Location string `json:"location"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type resetRequest struct {
	Email       string `json:"email"`
	NewPassword string `json:"newPassword"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (s *Server) issueToken(u domain.User) (string, error) {
	now := s.now()
	claims := tokenClaims{
		Role:   u.Role,
		RoleID: u.RoleID,
		StandardClaims: jwt.StandardClaims{
			Subject:   strconv.FormatInt(u.ID, 10),
			Issuer:    tokenIssuer,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(s.tokenTTL).Unix(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
}

// verifyToken checks signature and expiry against the sandbox clock and
// returns the user id in the subject.
func (s *Server) verifyToken(raw string) (int64, error) {
	parser := &jwt.Parser{ValidMethods: []string{jwt.SigningMethodHS256.Alg()}, SkipClaimsValidation: true}
	var claims tokenClaims
	if _, err := parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (interface{}, error) {
		return s.key, nil
	}); err != nil {
		return 0, err
	}
	if !claims.VerifyExpiresAt(s.now().Unix(), true) {
		return 0, errors.New("token expired")
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, errors.New("token subject is not a user id")
	}
	return id, nil
}

func (s *Server) requireEmployer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			writeError(w, http.StatusUnauthorized, "Authentication required.")
			return
		}
		userID, err := s.verifyToken(strings.TrimSpace(raw))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Your session has expired. Please log in again.")
			return
		}
		acct, err := s.store.account(userID)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Authentication required.")
			return
		}
		if !acct.User.IsEmployer() {
			writeError(w, http.StatusForbidden, "Employer access required.")
			return
		}
		ctx := context.WithValue(r.Context(), accountContextKey, &acct)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	req.FullName = security.PlainText(req.FullName)
	req.Location = security.PlainText(req.Location)
	req.Email = strings.TrimSpace(req.Email)
	if err := security.ValidateSignup(security.Signup{
		FullName:    req.FullName,
		Email:       req.Email,
		Address:     req.Location,
		Password:    req.Password,
		AgreedTerms: true,
	}); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	hash, err := security.HashPassword(req.Password)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	_, err = s.store.createAccount(account{
		User: domain.User{
			Email:    req.Email,
			FullName: req.FullName,
			Role:     domain.RoleEmployer,
			RoleID:   domain.RoleIDEmployer,
		},
		PasswordHash: hash,
		Location:     req.Location,
	})
	if errors.Is(err, errDuplicate) {
		writeError(w, http.StatusConflict, "An account with this email already exists.")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Registration failed.")
		return
	}
	writeOK(w, http.StatusCreated, "Registration successful. You can now log in.", nil)
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if err := security.ValidateLogin(req.Email, req.Password); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	acct, err := s.store.accountByEmail(req.Email)
	if err != nil || !security.VerifyPassword(req.Password, acct.PasswordHash) {
		writeError(w, http.StatusUnauthorized, "Invalid email or password.")
		return
	}
	token, err := s.issueToken(acct.User)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Login failed.")
		return
	}
	writeOK(w, http.StatusOK, "Login successful.", map[string]any{
		"token": token,
		"user":  acct.User,
	})
}

func (s *Server) resetPasswordDirect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req resetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if err := security.ValidateDirectReset(req.Email, req.NewPassword); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	acct, err := s.store.accountByEmail(req.Email)
	if err != nil || !acct.User.IsEmployer() {
		writeError(w, http.StatusNotFound, "No employer account was found for that email.")
		return
	}
	if !s.setPassword(w, acct.User.ID, req.NewPassword) {
		return
	}
	writeOK(w, http.StatusOK, "Password has been reset. You can now log in.", nil)
}

func (s *Server) changePassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	acct := accountFromContext(r.Context())
	if acct == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required.")
		return
	}
	var req changePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if !security.VerifyPassword(req.CurrentPassword, acct.PasswordHash) {
		writeError(w, http.StatusBadRequest, "Current password is incorrect.")
		return
	}
	if len(req.NewPassword) < security.MinChangePasswordLength {
		writeError(w, http.StatusUnprocessableEntity, "New password must be at least 8 characters.")
		return
	}
	if !s.setPassword(w, acct.User.ID, req.NewPassword) {
		return
	}
	writeOK(w, http.StatusOK, "Password updated successfully.", nil)
}

func (s *Server) setPassword(w http.ResponseWriter, userID int64, password string) bool {
	hash, err := security.HashPassword(password)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return false
	}
	if err := s.store.updateAccount(userID, func(a *account) { a.PasswordHash = hash }); err != nil {
		writeError(w, http.StatusNotFound, "Account not found.")
		return false
	}
	return true
}
