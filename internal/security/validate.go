package security

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/ehanapbuhay/employer-panel/internal/domain"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	tinPattern   = regexp.MustCompile(`^\d{3}-\d{3}-\d{3}(-\d{3})?$`)
)

// ValidationError is a user mistake caught before any request is sent.
// Field names the form input to highlight.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// FieldOf returns the offending field of a validation error, or "".
func FieldOf(err error) string {
	var v *ValidationError
	if errors.As(err, &v) {
		return v.Field
	}
	return ""
}

func ValidateLogin(email, password string) error {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(password) == "" {
		field := "email"
		if strings.TrimSpace(email) != "" {
			field = "password"
		}
		return invalid(field, "Please enter both email and password.")
	}
	if len(password) < MinPasswordLength {
		return invalid("password", "Password must be at least 6 characters long.")
	}
	return nil
}

type Signup struct {
	FullName    string
	Email       string
	Address     string
	Password    string
	AgreedTerms bool
}

func ValidateSignup(s Signup) error {
	for _, f := range []struct{ name, value string }{
		{"full_name", s.FullName},
		{"email", s.Email},
		{"location", s.Address},
		{"password", s.Password},
	} {
		if strings.TrimSpace(f.value) == "" {
			return invalid(f.name, "Please fill in all fields.")
		}
	}
	if !emailPattern.MatchString(strings.TrimSpace(s.Email)) {
		return invalid("email", "Please enter a valid email address.")
	}
	if len(s.Password) < MinPasswordLength {
		return invalid("password", "Password must be at least 6 characters long.")
	}
	if !s.AgreedTerms {
		return invalid("terms", "You must agree to the Terms & Conditions.")
	}
	return nil
}

func ValidateDirectReset(email, newPassword string) error {
	if !emailPattern.MatchString(strings.TrimSpace(email)) {
		return invalid("email", "Please enter the email address of your employer account.")
	}
	if len(newPassword) < MinPasswordLength {
		return invalid("newPassword", "Password must be at least 6 characters.")
	}
	return nil
}

func ValidatePasswordChange(current, next, confirm string) error {
	if current == "" {
		return invalid("currentPassword", "Please enter your current password.")
	}
	if len(next) < MinChangePasswordLength {
		return invalid("newPassword", "New password must be at least 8 characters.")
	}
	if next != confirm {
		return invalid("confirmPassword", "Passwords do not match.")
	}
	return nil
}

func ValidateTIN(value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return invalid("tin_number", "TIN (Tax Identification Number) is required.")
	}
	if !tinPattern.MatchString(value) {
		return invalid("tin_number", "Invalid TIN format. Use XXX-XXX-XXX or XXX-XXX-XXX-XXX (e.g. 123-456-789-000).")
	}
	return nil
}

func ValidateBusiness(b domain.Business) error {
	if strings.TrimSpace(b.CompanyName) == "" {
		return invalid("company_name", "Company name is required.")
	}
	if b.CompanySize != "" && !slices.Contains(domain.CompanySizes, b.CompanySize) {
		return invalid("company_size", "Choose a company size from the list.")
	}
	if b.Industry != "" && !slices.Contains(domain.Industries, b.Industry) {
		return invalid("industry", "Choose an industry from the list.")
	}
	if b.Industry == domain.IndustryOther && strings.TrimSpace(b.CustomIndustry) == "" {
		return invalid("custom_industry", "Please specify your industry.")
	}
	return ValidateTIN(b.TINNumber)
}

func ValidateProfile(p domain.Profile) error {
	if strings.TrimSpace(p.FullName) == "" {
		return invalid("full_name", "Full name is required.")
	}
	if !emailPattern.MatchString(strings.TrimSpace(p.Email)) {
		return invalid("email", "Please enter a valid email address.")
	}
	return nil
}

// ValidateJobDraft checks a create/edit form. Salary bounds are compared
// here as well as on the server so an inverted range never leaves the form.
func ValidateJobDraft(d domain.JobDraft) error {
	if strings.TrimSpace(d.Title) == "" {
		return invalid("title", "Job title is required.")
	}
	if d.CategoryID <= 0 {
		return invalid("category_id", "Please choose a category.")
	}
	if d.LocalityID <= 0 {
		return invalid("barangay_id", "Please choose a barangay.")
	}
	if !slices.Contains(domain.JobTypes, d.JobType) {
		return invalid("job_type", fmt.Sprintf("Job type must be one of %s.", strings.Join(domain.JobTypes, ", ")))
	}
	if !slices.Contains(domain.WorkSetups, d.WorkSetup) {
		return invalid("work_setup", fmt.Sprintf("Work setup must be one of %s.", strings.Join(domain.WorkSetups, ", ")))
	}
	if d.ExperienceYears < 0 {
		return invalid("experience_years", "Experience cannot be negative.")
	}
	if d.SalaryMin != nil && *d.SalaryMin < 0 {
		return invalid("salary_min", "Salary cannot be negative.")
	}
	if d.SalaryMax != nil && *d.SalaryMax < 0 {
		return invalid("salary_max", "Salary cannot be negative.")
	}
	if d.SalaryMin != nil && d.SalaryMax != nil && *d.SalaryMin > *d.SalaryMax {
		return invalid("salary_max", "Maximum salary must not be lower than the minimum.")
	}
	return nil
}
