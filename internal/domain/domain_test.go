package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestJobActionTargets(t *testing.T) {
	for action, want := range map[JobAction]JobStatus{
		"activate": JobActive,
		" Close ":  JobClosed,
		"FILL":     JobFilled,
	} {
		got, err := action.Target()
		require.NoError(t, err, action)
		assert.Equal(t, want, got)
	}

	_, err := JobAction("expire").Target()
	assert.Error(t, err)
}

func TestApplicationActionTargets(t *testing.T) {
	got, err := ActionHire.Target()
	require.NoError(t, err)
	assert.Equal(t, ApplicationHired, got)

	got, err = ApplicationAction("Shortlist").Target()
	require.NoError(t, err)
	assert.Equal(t, ApplicationShortlisted, got)

	_, err = ApplicationAction("submit").Target()
	assert.Error(t, err)
}

func TestStatusLabels(t *testing.T) {
	assert.Equal(t, "Filled", JobFilled.Label())
	assert.Equal(t, "—", JobStatus("").Label())
	assert.Equal(t, "archived", JobStatus("archived").Label())
	assert.Equal(t, "Shortlisted", ApplicationShortlisted.Label())
	assert.Equal(t, "—", ApplicationStatus("").Label())
}

func TestSalaryRange(t *testing.T) {
	assert.Equal(t, "₱15,000 – ₱20,000", JobPosting{SalaryMin: ptr(15000.0), SalaryMax: ptr(20000.0)}.SalaryRange())
	assert.Equal(t, "from ₱1,234,567", JobPosting{SalaryMin: ptr(1234567.0)}.SalaryRange())
	assert.Equal(t, "up to ₱900", JobPosting{SalaryMax: ptr(900.0)}.SalaryRange())
	assert.Equal(t, "Negotiable", JobPosting{}.SalaryRange())
}

func TestDraftKeepsEditableFields(t *testing.T) {
	job := JobPosting{
		ID:         7,
		Title:      "Baker",
		CategoryID: 1,
		LocalityID: 101,
		SalaryMin:  ptr(15000.0),
		JobType:    JobTypeFullTime,
		WorkSetup:  WorkSetupOnsite,
		Status:     JobFilled,
	}
	d := job.Draft()
	assert.Equal(t, "Baker", d.Title)
	assert.Equal(t, int64(101), d.LocalityID)
	assert.Equal(t, 15000.0, *d.SalaryMin)
	assert.Nil(t, d.SalaryMax)
}

func TestApplicationHelpers(t *testing.T) {
	app := Application{Skills: " Baking, ,Food Safety,Inventory "}
	assert.Equal(t, []string{"Baking", "Food Safety", "Inventory"}, app.SkillList())
	assert.Empty(t, Application{}.SkillList())

	assert.Equal(t, "—", app.ExperienceLabel())
	assert.Equal(t, "1 yr", Application{ExperienceYears: ptr(1)}.ExperienceLabel())
	assert.Equal(t, "0 yrs", Application{ExperienceYears: ptr(0)}.ExperienceLabel())
	assert.Equal(t, "6 yrs", Application{ExperienceYears: ptr(6)}.ExperienceLabel())
}

func TestIsEmployer(t *testing.T) {
	assert.True(t, User{Role: RoleEmployer, RoleID: RoleIDEmployer}.IsEmployer())
	assert.False(t, User{Role: RoleEmployer, RoleID: 3}.IsEmployer())
	assert.False(t, User{Role: "jobseeker", RoleID: RoleIDEmployer}.IsEmployer())
}

func TestEffectiveIndustry(t *testing.T) {
	assert.Equal(t, "Retail", Business{Industry: "Retail", CustomIndustry: "ignored"}.EffectiveIndustry())
	assert.Equal(t, "Agriculture", Business{Industry: IndustryOther, CustomIndustry: " Agriculture "}.EffectiveIndustry())
	assert.Equal(t, IndustryOther, Business{Industry: IndustryOther}.EffectiveIndustry())
}
