package sandbox

import (
	"time"

	"github.com/ehanapbuhay/employer-panel/internal/domain"
	"github.com/ehanapbuhay/employer-panel/internal/security"
)

var seedCategories = []string{
	"Food Service", "Retail", "Logistics", "Construction",
	"Healthcare", "Information Technology", "Education", "Hospitality",
}

var seedLocalities = []string{
	"Poblacion", "San Roque", "Santo Niño", "Bagong Silang",
	"Malanday", "San Isidro", "Concepcion", "Tumana",
}

type seedJob struct {
	title     string
	category  int
	locality  int
	jobType   string
	setup     string
	years     int
	salaryMin float64
	salaryMax float64
	status    domain.JobStatus
	ageDays   int
	filledIn  int
}

var seedJobs = []seedJob{
	{"Baker", 0, 0, domain.JobTypeFullTime, domain.WorkSetupOnsite, 2, 15000, 20000, domain.JobActive, 3, 0},
	{"Cashier", 1, 1, domain.JobTypePartTime, domain.WorkSetupOnsite, 0, 9000, 12000, domain.JobActive, 10, 0},
	{"Delivery Rider", 2, 2, domain.JobTypeContract, domain.WorkSetupOnsite, 1, 14000, 18000, domain.JobFilled, 40, 12},
	{"Pastry Chef", 0, 0, domain.JobTypeFullTime, domain.WorkSetupOnsite, 5, 25000, 32000, domain.JobFilled, 75, 21},
	{"Social Media Assistant", 5, 3, domain.JobTypeFreelance, domain.WorkSetupRemote, 1, 0, 0, domain.JobActive, 1, 0},
	{"Store Supervisor", 1, 4, domain.JobTypeFullTime, domain.WorkSetupHybrid, 3, 22000, 26000, domain.JobClosed, 60, 0},
	{"Kitchen Helper", 0, 5, domain.JobTypePartTime, domain.WorkSetupOnsite, 0, 8000, 10000, domain.JobExpired, 120, 0},
	{"Bookkeeper", 5, 0, domain.JobTypeContract, domain.WorkSetupRemote, 4, 20000, 0, domain.JobActive, 20, 0},
}

type seedApplicant struct {
	name     string
	email    string
	phone    string
	address  string
	skills   string
	years    int
	job      int
	status   domain.ApplicationStatus
	ageHours int
}

var seedApplicants = []seedApplicant{
	{"Maria Santos", "maria.santos@example.com", "09171234567", "Poblacion", "Baking, Food Safety, Inventory", 3, 0, domain.ApplicationSubmitted, 6},
	{"Jose Reyes", "jose.reyes@example.com", "09181234567", "San Roque", "Baking, Customer Service", 1, 0, domain.ApplicationViewed, 30},
	{"Ana Cruz", "ana.cruz@example.com", "09191234567", "Santo Niño", "Cash Handling, Customer Service", 0, 1, domain.ApplicationShortlisted, 50},
	{"Mark Bautista", "mark.bautista@example.com", "09201234567", "Bagong Silang", "Driving, Navigation", 2, 2, domain.ApplicationHired, 600},
	{"Liza Garcia", "liza.garcia@example.com", "09211234567", "Malanday", "Driving, Motorcycle Maintenance", 6, 2, domain.ApplicationRejected, 620},
	{"Paolo Mendoza", "paolo.mendoza@example.com", "09221234567", "Poblacion", "Pastry, Cake Decorating, Baking", 7, 3, domain.ApplicationHired, 1500},
	{"Grace Villanueva", "grace.v@example.com", "09231234567", "Tumana", "Canva, Copywriting, Social Media", 2, 4, domain.ApplicationSubmitted, 2},
	{"Ramon Aquino", "ramon.aquino@example.com", "09241234567", "San Isidro", "Supervision, Scheduling, Retail", 4, 5, domain.ApplicationRejected, 1200},
	{"Joy Fernandez", "joy.fernandez@example.com", "09251234567", "Concepcion", "Bookkeeping, Excel, QuickBooks", 5, 7, domain.ApplicationViewed, 200},
}

// seed loads reference data, then the configured employer account with a
// demo pipeline unless seed data is disabled.
func (s *Server) seed(cfg Config) error {
	s.store.mu.Lock()
	for i, name := range seedCategories {
		s.store.categories = append(s.store.categories, domain.Category{ID: int64(i + 1), Name: name})
	}
	for i, name := range seedLocalities {
		s.store.localities = append(s.store.localities, domain.Locality{ID: int64(i + 101), Name: name})
	}
	s.store.mu.Unlock()

	if cfg.SeedEmail == "" {
		return nil
	}
	hash, err := security.HashPassword(cfg.SeedPassword)
	if err != nil {
		return err
	}
	employer, err := s.store.createAccount(account{
		User: domain.User{
			Email:    cfg.SeedEmail,
			FullName: "Demo Employer",
			Role:     domain.RoleEmployer,
			RoleID:   domain.RoleIDEmployer,
		},
		PasswordHash: hash,
		Phone:        "09170000000",
		Location:     "Poblacion",
	})
	if err != nil {
		return err
	}
	s.store.updateBusiness(employer.ID, func(b *domain.Business) {
		b.CompanyName = cfg.SeedCompanyName
		b.CompanySize = domain.CompanySizes[1]
		b.Industry = "Retail"
		b.TINNumber = "123-456-789-000"
		b.Headquarters = "Poblacion"
		b.VerificationStatus = verificationVerified
	})
	if cfg.DisableSeedData {
		return nil
	}

	now := s.now()
	jobIDs := make([]int64, len(seedJobs))
	for i, sj := range seedJobs {
		posting, err := s.store.saveJob(employer.ID, 0, seedDraft(sj, cfg.SeedCompanyName), now.AddDate(0, 0, -sj.ageDays))
		if err != nil {
			return err
		}
		updated := posting.PostedAt
		if sj.filledIn > 0 {
			updated = posting.PostedAt.AddDate(0, 0, sj.filledIn)
		}
		if err := s.store.setJobStatus(employer.ID, posting.ID, sj.status, updated); err != nil {
			return err
		}
		jobIDs[i] = posting.ID
	}

	for _, sa := range seedApplicants {
		years := sa.years
		s.store.addApplication(domain.Application{
			JobID:           jobIDs[sa.job],
			ApplicantName:   sa.name,
			Email:           sa.email,
			Phone:           sa.phone,
			Address:         sa.address,
			Skills:          sa.skills,
			WorkDescription: "Looking for a stable role close to home.",
			ExperienceYears: &years,
			Status:          sa.status,
			AppliedAt:       now.Add(-time.Duration(sa.ageHours) * time.Hour),
			WorkHistory: []domain.WorkEntry{{
				Company:   "Previous Employer",
				Position:  seedJobs[sa.job].title,
				StartDate: now.AddDate(-years-1, 0, 0).Format("2006-01"),
				EndDate:   now.AddDate(0, -2, 0).Format("2006-01"),
			}},
			Education: []domain.EducationEntry{{School: "Valenzuela National High School", Degree: "High School Diploma", Year: "2015"}},
		})
	}

	// A second, non-employer account so the role gate can be exercised.
	_, err = s.store.createAccount(account{
		User: domain.User{
			Email:    "jobseeker@example.com",
			FullName: "Demo Jobseeker",
			Role:     "jobseeker",
			RoleID:   3,
		},
		PasswordHash: hash,
	})
	return err
}

func seedDraft(sj seedJob, company string) domain.JobDraft {
	d := domain.JobDraft{
		Title:            sj.title,
		CompanyName:      company,
		Description:      "Join our team as a " + sj.title + ".",
		Responsibilities: "Day to day duties of the role.",
		Requirements:     "Willing to learn; residents of the city preferred.",
		CategoryID:       int64(sj.category + 1),
		LocalityID:       int64(sj.locality + 101),
		JobType:          sj.jobType,
		WorkSetup:        sj.setup,
		ExperienceYears:  sj.years,
	}
	if sj.salaryMin > 0 {
		v := sj.salaryMin
		d.SalaryMin = &v
	}
	if sj.salaryMax > 0 {
		v := sj.salaryMax
		d.SalaryMax = &v
	}
	return d
}
