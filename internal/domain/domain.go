package domain

import (
	"fmt"
	"strings"
	"time"
)

type JobStatus string

const (
	JobActive  JobStatus = "active"
	JobClosed  JobStatus = "closed"
	JobFilled  JobStatus = "filled"
	JobExpired JobStatus = "expired"
)

var JobStatuses = []JobStatus{JobActive, JobClosed, JobFilled, JobExpired}

func (s JobStatus) Label() string {
	switch s {
	case JobActive:
		return "Active"
	case JobClosed:
		return "Closed"
	case JobFilled:
		return "Filled"
	case JobExpired:
		return "Expired"
	}
	if s == "" {
		return "—"
	}
	return string(s)
}

type ApplicationStatus string

const (
	ApplicationSubmitted   ApplicationStatus = "submitted"
	ApplicationViewed      ApplicationStatus = "viewed"
	ApplicationShortlisted ApplicationStatus = "shortlisted"
	ApplicationHired       ApplicationStatus = "hired"
	ApplicationRejected    ApplicationStatus = "rejected"
)

var ApplicationStatuses = []ApplicationStatus{
	ApplicationSubmitted,
	ApplicationViewed,
	ApplicationShortlisted,
	ApplicationHired,
	ApplicationRejected,
}

func (s ApplicationStatus) Label() string {
	if s == "" {
		return "—"
	}
	return strings.ToUpper(string(s[:1])) + string(s[1:])
}

// JobAction is a status change the employer can trigger from the panel.
// "expired" is time-based and only ever set by the server.
type JobAction string

const (
	ActionActivate JobAction = "activate"
	ActionClose    JobAction = "close"
	ActionFill     JobAction = "fill"
)

var jobActionTargets = map[JobAction]JobStatus{
	ActionActivate: JobActive,
	ActionClose:    JobClosed,
	ActionFill:     JobFilled,
}

func (a JobAction) Target() (JobStatus, error) {
	status, ok := jobActionTargets[JobAction(strings.ToLower(strings.TrimSpace(string(a))))]
	if !ok {
		return "", fmt.Errorf("unknown job action %q", a)
	}
	return status, nil
}

// ApplicationAction is a pipeline decision the employer can take.
// submitted and viewed are entry states driven by the applicant.
type ApplicationAction string

const (
	ActionReject    ApplicationAction = "reject"
	ActionHire      ApplicationAction = "hire"
	ActionShortlist ApplicationAction = "shortlist"
)

var applicationActionTargets = map[ApplicationAction]ApplicationStatus{
	ActionReject:    ApplicationRejected,
	ActionHire:      ApplicationHired,
	ActionShortlist: ApplicationShortlisted,
}

func (a ApplicationAction) Target() (ApplicationStatus, error) {
	status, ok := applicationActionTargets[ApplicationAction(strings.ToLower(strings.TrimSpace(string(a))))]
	if !ok {
		return "", fmt.Errorf("unknown application action %q", a)
	}
	return status, nil
}

const (
	JobTypeFullTime  = "Full-Time"
	JobTypePartTime  = "Part-Time"
	JobTypeFreelance = "Freelance"
	JobTypeContract  = "Contract"

	WorkSetupOnsite = "Onsite"
	WorkSetupRemote = "Remote"
	WorkSetupHybrid = "Hybrid"
)

var (
	JobTypes   = []string{JobTypeFullTime, JobTypePartTime, JobTypeFreelance, JobTypeContract}
	WorkSetups = []string{WorkSetupOnsite, WorkSetupRemote, WorkSetupHybrid}
)

type JobPosting struct {
	ID               int64     `json:"id"`
	Title            string    `json:"title"`
	CompanyName      string    `json:"company_name"`
	Description      string    `json:"description"`
	Responsibilities string    `json:"responsibilities"`
	Requirements     string    `json:"requirements"`
	CategoryID       int64     `json:"category_id"`
	CategoryName     string    `json:"category_name"`
	LocalityID       int64     `json:"barangay_id"`
	LocalityName     string    `json:"barangay_name"`
	SalaryMin        *float64  `json:"salary_min"`
	SalaryMax        *float64  `json:"salary_max"`
	JobType          string    `json:"job_type"`
	WorkSetup        string    `json:"work_setup"`
	ExperienceYears  int       `json:"experience_years"`
	Status           JobStatus `json:"status"`
	PostedAt         time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
	ApplicationCount int       `json:"application_count"`
}

// JobDraft is the create/edit payload. Status is never part of it: new
// postings start active on the server and status moves through JobAction.
type JobDraft struct {
	Title            string   `json:"title"`
	CompanyName      string   `json:"company_name"`
	Description      string   `json:"description"`
	Responsibilities string   `json:"responsibilities"`
	Requirements     string   `json:"requirements"`
	CategoryID       int64    `json:"category_id"`
	LocalityID       int64    `json:"barangay_id"`
	SalaryMin        *float64 `json:"salary_min"`
	SalaryMax        *float64 `json:"salary_max"`
	JobType          string   `json:"job_type"`
	WorkSetup        string   `json:"work_setup"`
	ExperienceYears  int      `json:"experience_years"`
}

func (j JobPosting) Draft() JobDraft {
	return JobDraft{
		Title:            j.Title,
		CompanyName:      j.CompanyName,
		Description:      j.Description,
		Responsibilities: j.Responsibilities,
		Requirements:     j.Requirements,
		CategoryID:       j.CategoryID,
		LocalityID:       j.LocalityID,
		SalaryMin:        j.SalaryMin,
		SalaryMax:        j.SalaryMax,
		JobType:          j.JobType,
		WorkSetup:        j.WorkSetup,
		ExperienceYears:  j.ExperienceYears,
	}
}

func (j JobPosting) SalaryRange() string {
	switch {
	case j.SalaryMin != nil && j.SalaryMax != nil:
		return fmt.Sprintf("₱%s – ₱%s", formatAmount(*j.SalaryMin), formatAmount(*j.SalaryMax))
	case j.SalaryMin != nil:
		return fmt.Sprintf("from ₱%s", formatAmount(*j.SalaryMin))
	case j.SalaryMax != nil:
		return fmt.Sprintf("up to ₱%s", formatAmount(*j.SalaryMax))
	default:
		return "Negotiable"
	}
}

func formatAmount(v float64) string {
	whole := fmt.Sprintf("%.0f", v)
	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 && whole[i-1] != '-' {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return b.String()
}

type WorkEntry struct {
	Company     string `json:"company"`
	Position    string `json:"position"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Description string `json:"description"`
}

type EducationEntry struct {
	School string `json:"school"`
	Degree string `json:"degree"`
	Year   string `json:"year"`
}

type Application struct {
	ID              int64             `json:"id"`
	JobID           int64             `json:"job_post_id"`
	JobTitle        string            `json:"job_title"`
	ApplicantName   string            `json:"full_name"`
	Email           string            `json:"email"`
	Phone           string            `json:"phone_number"`
	Address         string            `json:"location"`
	Skills          string            `json:"skills"`
	WorkDescription string            `json:"work_description"`
	ExperienceYears *int              `json:"experience_years"`
	Status          ApplicationStatus `json:"status"`
	AppliedAt       time.Time         `json:"applied_at"`
	ResumeURL       string            `json:"resume_url"`
	WorkHistory     []WorkEntry       `json:"work_history"`
	Education       []EducationEntry  `json:"education"`
}

func (a Application) SkillList() []string {
	var out []string
	for _, s := range strings.Split(a.Skills, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// ExperienceLabel renders "3 yrs", "1 yr" or "—".
func (a Application) ExperienceLabel() string {
	if a.ExperienceYears == nil {
		return "—"
	}
	if *a.ExperienceYears == 1 {
		return "1 yr"
	}
	return fmt.Sprintf("%d yrs", *a.ExperienceYears)
}

type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Locality struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

const (
	RoleEmployer   = "employer"
	RoleIDEmployer = 2
)

type User struct {
	ID        int64  `json:"id" msgpack:"id"`
	Email     string `json:"email" msgpack:"email"`
	FullName  string `json:"full_name" msgpack:"full_name"`
	Role      string `json:"role" msgpack:"role"`
	RoleID    int    `json:"role_id" msgpack:"role_id"`
	AvatarURL string `json:"avatar_url" msgpack:"avatar_url"`
}

// IsEmployer reports whether the record may enter the employer panel.
func (u User) IsEmployer() bool {
	return u.Role == RoleEmployer && u.RoleID == RoleIDEmployer
}

type Profile struct {
	FullName    string `json:"full_name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
	Location    string `json:"location"`
	AvatarURL   string `json:"avatar_url"`
}

const IndustryOther = "Other"

var (
	CompanySizes = []string{
		"1-10 employees",
		"11-50 employees",
		"51-200 employees",
		"201-500 employees",
		"500+ employees",
	}
	Industries = []string{
		"Technology", "Finance", "Healthcare", "Education",
		"Retail", "Manufacturing", "Marketing", IndustryOther,
	}
)

type Business struct {
	CompanyName        string `json:"company_name"`
	CompanySize        string `json:"company_size"`
	Industry           string `json:"industry"`
	CustomIndustry     string `json:"custom_industry,omitempty"`
	TINNumber          string `json:"tin_number"`
	PermitURL          string `json:"permit_url"`
	Website            string `json:"website"`
	Headquarters       string `json:"headquarters"`
	Description        string `json:"description"`
	VerificationStatus string `json:"verification_status"`
}

// EffectiveIndustry resolves the "Other" choice to the free-text value.
func (b Business) EffectiveIndustry() string {
	if b.Industry == IndustryOther && strings.TrimSpace(b.CustomIndustry) != "" {
		return strings.TrimSpace(b.CustomIndustry)
	}
	return b.Industry
}

// ProfileDetails is what GET /user/profile/{id} returns.
type ProfileDetails struct {
	Profile  Profile  `json:"profile"`
	Business Business `json:"business"`
}
