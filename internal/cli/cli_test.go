package cli

import (
	"bytes"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ehanapbuhay/employer-panel/internal/sandbox"
)

const testPassword = "bakery-secret"

// cliEnv starts a seeded sandbox and points the command line at it.
func cliEnv(t *testing.T) (configPath, envPath string) {
	t.Helper()
	api, err := sandbox.New(sandbox.Config{
		PublicURL:       "http://files.test",
		SigningKey:      "test-key",
		TokenTTL:        time.Hour,
		SeedEmail:       "employer@example.com",
		SeedPassword:    testPassword,
		SeedCompanyName: "Bayan Bakery",
	})
	require.NoError(t, err)
	srv := httptest.NewServer(api.Handler())
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	configPath = filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("panel:\n  timezone: UTC\n"), 0o600))
	t.Setenv("API_BASE_URL", srv.URL)
	t.Setenv("PANEL_EMAIL", "employer@example.com")
	t.Setenv("PANEL_PASSWORD", testPassword)
	return configPath, filepath.Join(dir, "missing.env")
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := BuildCLI()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func lineWith(t *testing.T, out, text string) []string {
	t.Helper()
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, text) {
			return strings.Fields(line)
		}
	}
	t.Fatalf("no line containing %q in:\n%s", text, out)
	return nil
}

func TestSetupWritesEnvFile(t *testing.T) {
	envPath := filepath.Join(t.TempDir(), ".env")

	_, err := run(t, "setup", "--env-file", envPath)
	require.ErrorIs(t, err, ErrUsage)

	out, err := run(t, "setup", "--env-file", envPath, "--seed-password", testPassword)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote "+envPath)

	values, err := godotenv.Read(envPath)
	require.NoError(t, err)
	assert.Equal(t, testPassword, values["SANDBOX_SEED_PASSWORD"])
	assert.Equal(t, "employer@example.com", values["PANEL_EMAIL"])
	assert.NotEmpty(t, values["SANDBOX_SIGNING_KEY"])

	info, err := os.Stat(envPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	_, err = run(t, "setup", "--env-file", envPath, "--seed-password", testPassword)
	assert.ErrorContains(t, err, "already exists")

	_, err = run(t, "setup", "--env-file", envPath, "--seed-password", testPassword, "--force")
	assert.NoError(t, err)
}

func TestJobsListAndStatus(t *testing.T) {
	cfg, env := cliEnv(t)

	out, err := run(t, "-c", cfg, "--env-file", env, "jobs", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Showing 1 to 7 of 8 (page 1 of 2)")

	out, err = run(t, "-c", cfg, "--env-file", env, "jobs", "list", "--status", "filled")
	require.NoError(t, err)
	assert.Contains(t, out, "Delivery Rider")
	assert.Contains(t, out, "Pastry Chef")
	assert.Contains(t, out, "of 2")

	out, err = run(t, "-c", cfg, "--env-file", env, "jobs", "list", "--search", "baker")
	require.NoError(t, err)
	bakerID := lineWith(t, out, "Baker")[0]

	out, err = run(t, "-c", cfg, "--env-file", env, "jobs", "status", bakerID, "fill")
	require.NoError(t, err)
	assert.Contains(t, out, "Job Marked as Filled")

	out, err = run(t, "-c", cfg, "--env-file", env, "jobs", "list", "--status", "filled")
	require.NoError(t, err)
	assert.Contains(t, out, "Baker")

	_, err = run(t, "-c", cfg, "--env-file", env, "jobs", "status", bakerID, "expire")
	assert.ErrorIs(t, err, ErrUsage)

	_, err = run(t, "-c", cfg, "--env-file", env, "jobs", "status", "999999", "close")
	assert.ErrorContains(t, err, "Job posting not found.")
}

func TestJobsImport(t *testing.T) {
	cfg, env := cliEnv(t)

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for i, row := range [][]any{
		{"Title", "Category", "Barangay", "Job Type", "Work Setup"},
		{"Dishwasher", "Food Service", "Poblacion", "part-time", "Onsite"},
		{"Courier", "Logistics", "Nowhere", "Contract", "Onsite"},
	} {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	path := filepath.Join(t.TempDir(), "jobs.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	out, err := run(t, "-c", cfg, "--env-file", env, "jobs", "import", "-f", path)
	assert.ErrorContains(t, err, "1 row(s) failed")
	assert.Contains(t, out, `line 3: unknown barangay "Nowhere"`)
	assert.Contains(t, out, "1 posted, 1 failed")

	out, err = run(t, "-c", cfg, "--env-file", env, "jobs", "list", "--search", "dishwasher")
	require.NoError(t, err)
	assert.Contains(t, out, "Food Service")
	assert.Contains(t, out, "of 1")
}

func TestApplicationsListAndDecide(t *testing.T) {
	cfg, env := cliEnv(t)

	out, err := run(t, "-c", cfg, "--env-file", env, "applications", "list", "--experience", "5+")
	require.NoError(t, err)
	assert.Contains(t, out, "Paolo Mendoza")
	assert.Contains(t, out, "Liza Garcia")
	assert.Contains(t, out, "of 2")

	id := lineWith(t, out, "Liza Garcia")[0]
	out, err = run(t, "-c", cfg, "--env-file", env, "apps", "status", id, "shortlist")
	require.NoError(t, err)
	assert.Contains(t, out, "Applicant Shortlisted")

	out, err = run(t, "-c", cfg, "--env-file", env, "applications", "list", "--status", "shortlisted")
	require.NoError(t, err)
	assert.Contains(t, out, "Liza Garcia")
	assert.Contains(t, out, "of 2")
}

func TestReportsExportToStdout(t *testing.T) {
	cfg, env := cliEnv(t)

	out, err := run(t, "-c", cfg, "--env-file", env, "reports", "export", "--format", "csv", "-o", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "Barangay,Job Postings")

	dir := t.TempDir()
	target := filepath.Join(dir, "report.xlsx.xz")
	out, err = run(t, "-c", cfg, "--env-file", env, "reports", "export", "--compress", "-o", target)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote "+target)
	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte{0xFD, '7', 'z', 'X', 'Z', 0x00}))

	_, err = run(t, "-c", cfg, "--env-file", env, "reports", "export", "--format", "pdf")
	assert.ErrorIs(t, err, ErrUsage)
}

func TestSignInFailures(t *testing.T) {
	cfg, env := cliEnv(t)

	_, err := run(t, "-c", cfg, "--env-file", env, "jobs", "list", "--password", "wrong-password")
	assert.ErrorContains(t, err, "Invalid email or password.")

	_, err = run(t, "-c", cfg, "--env-file", env, "jobs", "list", "--email", "jobseeker@example.com")
	assert.ErrorContains(t, err, "only employer accounts")
}
