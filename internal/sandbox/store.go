package sandbox

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ehanapbuhay/employer-panel/internal/domain"
)

var (
	errNotFound  = errors.New("not found")
	errDuplicate = errors.New("duplicate")
)

type account struct {
	User         domain.User
	PasswordHash string
	Phone        string
	Location     string
}

type storedFile struct {
	ContentType string
	Data        []byte
}

type violation struct {
	ID         int64
	UserID     int64
	Message    string
	Attachment string
	CreatedAt  time.Time
}

type job struct {
	domain.JobPosting
	OwnerID int64
}

// memoryStore is the sandbox's whole database.
type memoryStore struct {
	mu sync.RWMutex

	nextID     int64
	accounts   map[int64]*account
	businesses map[int64]domain.Business
	categories []domain.Category
	localities []domain.Locality
	jobs       map[int64]*job
	apps       map[int64]*domain.Application
	files      map[string]storedFile
	violations []violation
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		nextID:     1000,
		accounts:   map[int64]*account{},
		businesses: map[int64]domain.Business{},
		jobs:       map[int64]*job{},
		apps:       map[int64]*domain.Application{},
		files:      map[string]storedFile{},
	}
}

func (s *memoryStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *memoryStore) createAccount(a account) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.accounts {
		if strings.EqualFold(existing.User.Email, a.User.Email) {
			return domain.User{}, errDuplicate
		}
	}
	a.User.ID = s.id()
	s.accounts[a.User.ID] = &a
	return a.User, nil
}

func (s *memoryStore) accountByEmail(email string) (account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.accounts {
		if strings.EqualFold(a.User.Email, strings.TrimSpace(email)) {
			return *a, nil
		}
	}
	return account{}, errNotFound
}

func (s *memoryStore) account(id int64) (account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[id]
	if !ok {
		return account{}, errNotFound
	}
	return *a, nil
}

func (s *memoryStore) updateAccount(id int64, fn func(*account)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return errNotFound
	}
	fn(a)
	return nil
}

func (s *memoryStore) business(userID int64) domain.Business {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.businesses[userID]
}

func (s *memoryStore) updateBusiness(userID int64, fn func(*domain.Business)) domain.Business {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.businesses[userID]
	fn(&b)
	s.businesses[userID] = b
	return b
}

func (s *memoryStore) categoryName(id int64) (string, bool) {
	for _, c := range s.categories {
		if c.ID == id {
			return c.Name, true
		}
	}
	return "", false
}

func (s *memoryStore) localityName(id int64) (string, bool) {
	for _, l := range s.localities {
		if l.ID == id {
			return l.Name, true
		}
	}
	return "", false
}

func (s *memoryStore) referenceData() ([]domain.Category, []domain.Locality) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Category(nil), s.categories...), append([]domain.Locality(nil), s.localities...)
}

// listJobs returns the owner's jobs newest first, with live applicant counts.
func (s *memoryStore) listJobs(ownerID int64) []domain.JobPosting {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := map[int64]int{}
	for _, a := range s.apps {
		counts[a.JobID]++
	}
	out := []domain.JobPosting{}
	for _, j := range s.jobs {
		if j.OwnerID != ownerID {
			continue
		}
		posting := j.JobPosting
		posting.ApplicationCount = counts[j.ID]
		out = append(out, posting)
	}
	sort.Slice(out, func(i, k int) bool {
		if !out[i].PostedAt.Equal(out[k].PostedAt) {
			return out[i].PostedAt.After(out[k].PostedAt)
		}
		return out[i].ID > out[k].ID
	})
	return out
}

func (s *memoryStore) saveJob(ownerID, id int64, d domain.JobDraft, now time.Time) (domain.JobPosting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	category, ok := s.categoryName(d.CategoryID)
	if !ok {
		return domain.JobPosting{}, errors.New("unknown category")
	}
	locality, ok := s.localityName(d.LocalityID)
	if !ok {
		return domain.JobPosting{}, errors.New("unknown barangay")
	}

	var j *job
	if id == 0 {
		j = &job{OwnerID: ownerID}
		j.ID = s.id()
		j.Status = domain.JobActive
		j.PostedAt = now
		s.jobs[j.ID] = j
	} else {
		existing, ok := s.jobs[id]
		if !ok || existing.OwnerID != ownerID {
			return domain.JobPosting{}, errNotFound
		}
		j = existing
	}

	j.Title = d.Title
	j.CompanyName = d.CompanyName
	if j.CompanyName == "" {
		j.CompanyName = s.businesses[ownerID].CompanyName
	}
	j.Description = d.Description
	j.Responsibilities = d.Responsibilities
	j.Requirements = d.Requirements
	j.CategoryID, j.CategoryName = d.CategoryID, category
	j.LocalityID, j.LocalityName = d.LocalityID, locality
	j.SalaryMin, j.SalaryMax = d.SalaryMin, d.SalaryMax
	j.JobType = d.JobType
	j.WorkSetup = d.WorkSetup
	j.ExperienceYears = d.ExperienceYears
	j.UpdatedAt = now
	return j.JobPosting, nil
}

func (s *memoryStore) setJobStatus(ownerID, id int64, status domain.JobStatus, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok || j.OwnerID != ownerID {
		return errNotFound
	}
	j.Status = status
	j.UpdatedAt = now
	return nil
}

func (s *memoryStore) deleteJob(ownerID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok || j.OwnerID != ownerID {
		return errNotFound
	}
	delete(s.jobs, id)
	for appID, a := range s.apps {
		if a.JobID == id {
			delete(s.apps, appID)
		}
	}
	return nil
}

// listApplications returns applications to the owner's jobs, newest first.
func (s *memoryStore) listApplications(ownerID int64) []domain.Application {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []domain.Application{}
	for _, a := range s.apps {
		j, ok := s.jobs[a.JobID]
		if !ok || j.OwnerID != ownerID {
			continue
		}
		app := *a
		app.JobTitle = j.Title
		out = append(out, app)
	}
	sort.Slice(out, func(i, k int) bool {
		if !out[i].AppliedAt.Equal(out[k].AppliedAt) {
			return out[i].AppliedAt.After(out[k].AppliedAt)
		}
		return out[i].ID > out[k].ID
	})
	return out
}

func (s *memoryStore) addApplication(a domain.Application) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = s.id()
	s.apps[a.ID] = &a
	return a.ID
}

func (s *memoryStore) setApplicationStatus(ownerID, id int64, status domain.ApplicationStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.apps[id]
	if !ok {
		return errNotFound
	}
	if j, ok := s.jobs[a.JobID]; !ok || j.OwnerID != ownerID {
		return errNotFound
	}
	a.Status = status
	return nil
}

func (s *memoryStore) putFile(path string, f storedFile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[path] = f
}

func (s *memoryStore) file(path string) (storedFile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.files[path]
	return f, ok
}

func (s *memoryStore) addViolation(v violation) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	v.ID = s.id()
	s.violations = append(s.violations, v)
	return v.ID
}

func (s *memoryStore) violationsFor(userID int64) []violation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []violation
	for _, v := range s.violations {
		if v.UserID == userID {
			out = append(out, v)
		}
	}
	return out
}
