package sandbox

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ehanapbuhay/employer-panel/internal/backend"
	"github.com/ehanapbuhay/employer-panel/internal/domain"
)

const (
	seedEmail    = "employer@example.com"
	seedPassword = "bakery-secret"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newSandbox(t *testing.T) (*backend.Client, *clock, *httptest.Server) {
	t.Helper()
	c := &clock{t: time.Now()}
	s, err := New(Config{
		PublicURL:       "http://files.test",
		SigningKey:      "test-key",
		TokenTTL:        time.Hour,
		SeedEmail:       seedEmail,
		SeedPassword:    seedPassword,
		SeedCompanyName: "Bayan Bakery",
		Now:             c.now,
	})
	require.NoError(t, err)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return backend.New(srv.URL, srv.Client(), nil), c, srv
}

func signIn(t *testing.T, client *backend.Client) (*backend.Employer, domain.User) {
	t.Helper()
	res, err := client.Login(context.Background(), seedEmail, seedPassword)
	require.NoError(t, err)
	return client.As(res.Token), res.User
}

func TestNewRequiresSeedPassword(t *testing.T) {
	_, err := New(Config{SeedEmail: seedEmail})
	assert.ErrorContains(t, err, "SANDBOX_SEED_PASSWORD")
}

func TestLoginAndSeededData(t *testing.T) {
	client, _, _ := newSandbox(t)
	ctx := context.Background()

	_, err := client.Login(ctx, seedEmail, "wrong-password")
	var apiErr *backend.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "Invalid email or password.", apiErr.Message)

	employer, user := signIn(t, client)
	assert.True(t, user.IsEmployer())
	assert.Equal(t, "Demo Employer", user.FullName)

	jobs, err := employer.ListJobs(ctx)
	require.NoError(t, err)
	require.Len(t, jobs, len(seedJobs))
	assert.Equal(t, "Social Media Assistant", jobs[0].Title, "newest first")
	for i := 1; i < len(jobs); i++ {
		assert.False(t, jobs[i].PostedAt.After(jobs[i-1].PostedAt))
	}

	counts := map[string]int{}
	for _, j := range jobs {
		counts[j.Title] = j.ApplicationCount
	}
	assert.Equal(t, 2, counts["Baker"])
	assert.Equal(t, 0, counts["Kitchen Helper"])

	categories, err := employer.Categories(ctx)
	require.NoError(t, err)
	assert.Len(t, categories, len(seedCategories))
	localities, err := employer.Localities(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Poblacion", localities[0].Name)

	apps, err := employer.ListApplications(ctx)
	require.NoError(t, err)
	require.Len(t, apps, len(seedApplicants))
	assert.Equal(t, "Grace Villanueva", apps[0].ApplicantName)
	assert.Equal(t, "Social Media Assistant", apps[0].JobTitle)
}

func TestAuthenticatedRoutesRequireToken(t *testing.T) {
	client, c, srv := newSandbox(t)
	ctx := context.Background()

	_, err := client.As("").ListJobs(ctx)
	assert.True(t, backend.IsUnauthorized(err))
	_, err = client.As("not-a-jwt").ListJobs(ctx)
	assert.True(t, backend.IsUnauthorized(err))

	employer, _ := signIn(t, client)
	c.advance(2 * time.Hour)
	_, err = employer.ListJobs(ctx)
	assert.True(t, backend.IsUnauthorized(err))

	res, err := client.Login(ctx, "jobseeker@example.com", seedPassword)
	require.NoError(t, err)
	assert.False(t, res.User.IsEmployer())
	_, err = client.As(res.Token).ListJobs(ctx)
	var apiErr *backend.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.Status)

	resp, err := srv.Client().Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestJobLifecycle(t *testing.T) {
	client, _, _ := newSandbox(t)
	ctx := context.Background()
	employer, _ := signIn(t, client)

	low, high := 30000.0, 10000.0
	draft := domain.JobDraft{
		Title:      "Barista <script>x</script>",
		CategoryID: 1,
		LocalityID: 102,
		JobType:    domain.JobTypePartTime,
		WorkSetup:  domain.WorkSetupOnsite,
		SalaryMin:  &low,
		SalaryMax:  &high,
	}
	_, err := employer.CreateJob(ctx, draft)
	assert.EqualError(t, err, "Maximum salary must not be lower than the minimum.")

	draft.SalaryMin, draft.SalaryMax = &high, &low
	msg, err := employer.CreateJob(ctx, draft)
	require.NoError(t, err)
	assert.Equal(t, "Job posted successfully.", msg)

	jobs, err := employer.ListJobs(ctx)
	require.NoError(t, err)
	created := jobs[0]
	assert.Equal(t, "Barista", created.Title)
	assert.Equal(t, domain.JobActive, created.Status)
	assert.Equal(t, "San Roque", created.LocalityName)
	assert.Equal(t, "Bayan Bakery", created.CompanyName)

	draft.Title = "Senior Barista"
	_, err = employer.UpdateJob(ctx, created.ID, draft)
	require.NoError(t, err)

	err = employer.UpdateJobStatus(ctx, created.ID, domain.JobExpired)
	assert.EqualError(t, err, "Expired is set automatically and cannot be chosen.")
	require.NoError(t, employer.UpdateJobStatus(ctx, created.ID, domain.JobFilled))

	jobs, err = employer.ListJobs(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Senior Barista", jobs[0].Title)
	assert.Equal(t, domain.JobFilled, jobs[0].Status)

	_, err = employer.DeleteJob(ctx, created.ID)
	require.NoError(t, err)
	_, err = employer.DeleteJob(ctx, created.ID)
	var apiErr *backend.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
}

func TestApplicationStatusRules(t *testing.T) {
	client, _, _ := newSandbox(t)
	ctx := context.Background()
	employer, _ := signIn(t, client)

	apps, err := employer.ListApplications(ctx)
	require.NoError(t, err)
	id := apps[0].ID

	assert.EqualError(t, employer.UpdateApplicationStatus(ctx, id, domain.ApplicationSubmitted),
		"An application cannot be moved back to submitted.")
	require.NoError(t, employer.UpdateApplicationStatus(ctx, id, domain.ApplicationHired))

	apps, err = employer.ListApplications(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.ApplicationHired, apps[0].Status)

	assert.Error(t, employer.UpdateApplicationStatus(ctx, 999999, domain.ApplicationRejected))
}

func TestProfileBusinessAndUploads(t *testing.T) {
	client, _, srv := newSandbox(t)
	ctx := context.Background()
	employer, user := signIn(t, client)

	details, err := employer.FetchProfile(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bayan Bakery", details.Business.CompanyName)
	assert.Equal(t, verificationVerified, details.Business.VerificationStatus)

	_, err = employer.FetchProfile(ctx, user.ID+1)
	var apiErr *backend.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.Status)

	b := details.Business
	b.TINNumber = "123-456"
	_, err = employer.SaveBusiness(ctx, user.ID, b)
	assert.ErrorContains(t, err, "Invalid TIN format")

	b.TINNumber = "111-222-333"
	b.VerificationStatus = "verified-by-me"
	b.PermitURL = "http://evil.test/permit.pdf"
	_, err = employer.SaveBusiness(ctx, user.ID, b)
	require.NoError(t, err)

	permitURL, err := employer.UploadPermit(ctx, user.ID, backend.File{
		Name: "permit.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.4\n%%EOF"),
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(permitURL, "http://files.test/uploads/permits/"))

	details, err = employer.FetchProfile(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "111-222-333", details.Business.TINNumber)
	assert.Equal(t, permitURL, details.Business.PermitURL)
	assert.Equal(t, verificationPending, details.Business.VerificationStatus)

	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 200, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	avatarURL, err := employer.UploadAvatar(ctx, backend.File{Name: "me.png", ContentType: "image/png", Data: buf.Bytes()})
	require.NoError(t, err)

	resp, err := srv.Client().Get(srv.URL + strings.TrimPrefix(avatarURL, "http://files.test"))
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.Equal(t, buf.Bytes(), body)

	_, err = employer.UploadAvatar(ctx, backend.File{Name: "me.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.4")})
	assert.ErrorContains(t, err, "Only a PNG, JPEG, WebP or GIF image is accepted.")

	_, err = employer.SaveProfile(ctx, user.ID, domain.Profile{FullName: "Rosa Dizon", Email: "rosa@example.com", PhoneNumber: "0917"})
	require.NoError(t, err)
	details, err = employer.FetchProfile(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Rosa Dizon", details.Profile.FullName)
	assert.Equal(t, avatarURL, details.Profile.AvatarURL)
}

func TestRegisterResetAndChangePassword(t *testing.T) {
	client, _, _ := newSandbox(t)
	ctx := context.Background()

	reg := backend.Registration{FullName: "Lito Ramos", Email: "lito@example.com", Password: "secret1", Location: "Tumana"}
	_, err := client.Register(ctx, reg)
	require.NoError(t, err)
	_, err = client.Register(ctx, reg)
	assert.EqualError(t, err, "An account with this email already exists.")

	_, err = client.ResetPasswordDirect(ctx, "nobody@example.com", "another1")
	assert.EqualError(t, err, "No employer account was found for that email.")
	_, err = client.ResetPasswordDirect(ctx, "lito@example.com", "another1")
	require.NoError(t, err)

	res, err := client.Login(ctx, "lito@example.com", "another1")
	require.NoError(t, err)
	employer := client.As(res.Token)

	_, err = employer.ChangePassword(ctx, "wrong", "longer-password")
	assert.EqualError(t, err, "Current password is incorrect.")
	_, err = employer.ChangePassword(ctx, "another1", "short")
	assert.EqualError(t, err, "New password must be at least 8 characters.")
	_, err = employer.ChangePassword(ctx, "another1", "longer-password")
	require.NoError(t, err)

	_, err = client.Login(ctx, "lito@example.com", "longer-password")
	assert.NoError(t, err)
}

func TestReportViolation(t *testing.T) {
	client, _, _ := newSandbox(t)
	ctx := context.Background()
	employer, _ := signIn(t, client)

	_, err := employer.ReportViolation(ctx, "<b></b>", nil)
	assert.EqualError(t, err, "Please describe the violation.")

	msg, err := employer.ReportViolation(ctx, "Agency asked for a placement fee", &backend.File{
		Name: "receipt.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.4\n%%EOF"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Thank you. Our compliance team will review your report.", msg)

	_, err = employer.ReportViolation(ctx, "No attachment this time", nil)
	require.NoError(t, err)

	_, err = employer.ReportViolation(ctx, "bad file", &backend.File{Name: "x.exe", ContentType: "application/octet-stream", Data: []byte("MZ\x90\x00")})
	assert.ErrorContains(t, err, "Only a PDF, PNG or JPEG file is accepted.")
}
