package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ehanapbuhay/employer-panel/internal/backend"
	"github.com/ehanapbuhay/employer-panel/internal/config"
	"github.com/ehanapbuhay/employer-panel/internal/domain"
	"github.com/ehanapbuhay/employer-panel/internal/listview"
	"github.com/ehanapbuhay/employer-panel/internal/reports"
	"github.com/ehanapbuhay/employer-panel/internal/spreadsheet"
	"github.com/ehanapbuhay/employer-panel/internal/workflow"
)

// credentials are shared by every command that acts as the employer.
type credentials struct {
	email    string
	password string
}

func (c *credentials) bind(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&c.email, "email", "", "employer email (default PANEL_EMAIL)")
	cmd.PersistentFlags().StringVar(&c.password, "password", "", "employer password (default PANEL_PASSWORD)")
}

// signIn logs in as the employer and returns the loaded config with it.
func (c *credentials) signIn(ctx context.Context) (config.Config, *backend.Employer, error) {
	cfg, err := loadConfig()
	if err != nil {
		return cfg, nil, err
	}
	email, password := c.email, c.password
	if email == "" {
		email = cfg.CLI.Email
	}
	if password == "" {
		password = cfg.CLI.Password
	}
	if email == "" || password == "" {
		return cfg, nil, fmt.Errorf("%w: set --email and --password or PANEL_EMAIL and PANEL_PASSWORD", ErrUsage)
	}

	client := newBackend(cfg, nil)
	res, err := client.Login(ctx, email, password)
	if err != nil {
		return cfg, nil, fmt.Errorf("login: %s", backend.UserMessage(err))
	}
	if !res.User.IsEmployer() {
		return cfg, nil, errors.New("login: only employer accounts can use this panel")
	}
	return cfg, client.As(res.Token), nil
}

// report prints n and turns a failure into an error.
func report(w io.Writer, n workflow.Notification) error {
	title, message := workflow.Text(n)
	if workflow.Kind(n) == "error" {
		return fmt.Errorf("%s: %s", title, message)
	}
	fmt.Fprintf(w, "%s: %s\n", title, message)
	return nil
}

func parseIDArg(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q is not a valid id", ErrUsage, raw)
	}
	return id, nil
}

func printSummary[T any](w io.Writer, p listview.Page[T]) {
	fmt.Fprintf(w, "Showing %d to %d of %d (page %d of %d)\n", p.From, p.To, p.Total, p.Current, max(p.TotalPages, 1))
}

func buildJobsCommand() *cobra.Command {
	var creds credentials
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List, update and import job postings",
	}
	creds.bind(cmd)
	cmd.AddCommand(buildJobsListCommand(&creds))
	cmd.AddCommand(buildJobsStatusCommand(&creds))
	cmd.AddCommand(buildJobsImportCommand(&creds))
	return cmd
}

func buildJobsListCommand(creds *credentials) *cobra.Command {
	criteria := listview.DefaultJobCriteria()
	var page int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List job postings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, emp, err := creds.signIn(cmd.Context())
			if err != nil {
				return err
			}
			jobs, err := emp.ListJobs(cmd.Context())
			if err != nil {
				return fmt.Errorf("list jobs: %s", backend.UserMessage(err))
			}

			loc := cfg.Location()
			ctrl := listview.NewJobController(cfg.Panel.JobsPageSize, loc)
			ctrl.Replace(jobs)
			ctrl.SetCriteria(criteria)
			ctrl.SetPage(page)
			view := ctrl.View()

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTITLE\tSTATUS\tCATEGORY\tAPPLICANTS\tPOSTED")
			for _, j := range view.Page.Items {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%s\n", j.ID, j.Title, j.Status.Label(), j.CategoryName, j.ApplicationCount, j.PostedAt.In(loc).Format("2006-01-02"))
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			printSummary(cmd.OutOrStdout(), view.Page)
			return nil
		},
	}

	cmd.Flags().StringVar(&criteria.Search, "search", "", "match titles containing this text")
	cmd.Flags().StringVar(&criteria.Status, "status", listview.AnyValue, "active, closed, filled or expired")
	cmd.Flags().StringVar(&criteria.Category, "category", listview.AnyValue, "category name or id")
	cmd.Flags().StringVar(&criteria.Posted.From, "from", "", "posted on or after (YYYY-MM-DD)")
	cmd.Flags().StringVar(&criteria.Posted.To, "to", "", "posted on or before (YYYY-MM-DD)")
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	return cmd
}

func buildJobsStatusCommand(creds *credentials) *cobra.Command {
	return &cobra.Command{
		Use:   "status <job-id> <activate|close|fill>",
		Short: "Change the status of a job posting",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg(args[0])
			if err != nil {
				return err
			}
			target, err := domain.JobAction(args[1]).Target()
			if err != nil {
				return fmt.Errorf("%w: %v", ErrUsage, err)
			}
			_, emp, err := creds.signIn(cmd.Context())
			if err != nil {
				return err
			}
			n := workflow.StatusTransition[domain.JobStatus]{
				Name:     "job.status",
				Update:   emp.UpdateJobStatus,
				Messages: workflow.JobMessages,
				Describe: backend.UserMessage,
			}.Run(cmd.Context(), id, target)
			return report(cmd.OutOrStdout(), n)
		},
	}
}

func buildJobsImportCommand(creds *credentials) *cobra.Command {
	var sheet string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Post every job in an .xlsx or .xls spreadsheet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(sheet)
			if err != nil {
				return err
			}
			defer f.Close()

			_, emp, err := creds.signIn(cmd.Context())
			if err != nil {
				return err
			}
			categories, err := emp.Categories(cmd.Context())
			if err != nil {
				return fmt.Errorf("load categories: %s", backend.UserMessage(err))
			}
			localities, err := emp.Localities(cmd.Context())
			if err != nil {
				return fmt.Errorf("load barangays: %s", backend.UserMessage(err))
			}

			rows, err := spreadsheet.ParseJobs(f, filepath.Base(sheet), spreadsheet.Lookup{Categories: categories, Localities: localities})
			if err != nil {
				return err
			}
			results := spreadsheet.Create(cmd.Context(), rows, emp.CreateJob)
			out := cmd.OutOrStdout()
			for _, res := range results {
				if res.Err != nil {
					fmt.Fprintf(out, "line %d: %v\n", res.Line, res.Err)
				}
			}
			created, failed := spreadsheet.Summary(results)
			fmt.Fprintf(out, "%d posted, %d failed\n", created, failed)
			if failed > 0 {
				return fmt.Errorf("%d row(s) failed", failed)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&sheet, "file", "f", "", "spreadsheet with a header row")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func buildApplicationsCommand() *cobra.Command {
	var creds credentials
	cmd := &cobra.Command{
		Use:     "applications",
		Aliases: []string{"apps"},
		Short:   "Review applicants",
	}
	creds.bind(cmd)
	cmd.AddCommand(buildApplicationsListCommand(&creds))
	cmd.AddCommand(buildApplicationsStatusCommand(&creds))
	return cmd
}

func buildApplicationsListCommand(creds *credentials) *cobra.Command {
	criteria := listview.DefaultApplicationCriteria()
	var page int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List applications",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, emp, err := creds.signIn(cmd.Context())
			if err != nil {
				return err
			}
			apps, err := emp.ListApplications(cmd.Context())
			if err != nil {
				return fmt.Errorf("list applications: %s", backend.UserMessage(err))
			}

			loc := cfg.Location()
			ctrl := listview.NewApplicationController(cfg.Panel.AppsPageSize, loc)
			ctrl.Replace(apps)
			ctrl.SetCriteria(criteria)
			ctrl.SetPage(page)
			view := ctrl.View()

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tAPPLICANT\tJOB\tSTATUS\tEXPERIENCE\tAPPLIED")
			for _, a := range view.Page.Items {
				years := "-"
				if a.ExperienceYears != nil {
					years = strconv.Itoa(*a.ExperienceYears)
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", a.ID, a.ApplicantName, a.JobTitle, a.Status.Label(), years, a.AppliedAt.In(loc).Format("2006-01-02"))
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			printSummary(cmd.OutOrStdout(), view.Page)
			return nil
		},
	}

	cmd.Flags().StringVar(&criteria.Status, "status", listview.AnyValue, "submitted, viewed, shortlisted, hired or rejected")
	cmd.Flags().StringVar(&criteria.Skills, "skills", "", "match skills containing this text")
	cmd.Flags().StringVar(&criteria.Experience, "experience", "", "experience bucket: 0-1, 1-2, 3-5 or 5+")
	cmd.Flags().StringVar(&criteria.Applied.From, "from", "", "applied on or after (YYYY-MM-DD)")
	cmd.Flags().StringVar(&criteria.Applied.To, "to", "", "applied on or before (YYYY-MM-DD)")
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	return cmd
}

func buildApplicationsStatusCommand(creds *credentials) *cobra.Command {
	return &cobra.Command{
		Use:   "status <application-id> <shortlist|hire|reject>",
		Short: "Record a hiring decision",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg(args[0])
			if err != nil {
				return err
			}
			target, err := domain.ApplicationAction(args[1]).Target()
			if err != nil {
				return fmt.Errorf("%w: %v", ErrUsage, err)
			}
			_, emp, err := creds.signIn(cmd.Context())
			if err != nil {
				return err
			}
			n := workflow.StatusTransition[domain.ApplicationStatus]{
				Name:     "application.status",
				Update:   emp.UpdateApplicationStatus,
				Messages: workflow.ApplicationMessages,
				Describe: backend.UserMessage,
			}.Run(cmd.Context(), id, target)
			return report(cmd.OutOrStdout(), n)
		},
	}
}

func buildReportsCommand() *cobra.Command {
	var creds credentials
	cmd := &cobra.Command{
		Use:   "reports",
		Short: "Hiring reports",
	}
	creds.bind(cmd)
	cmd.AddCommand(buildReportsExportCommand(&creds))
	return cmd
}

func buildReportsExportCommand(creds *credentials) *cobra.Command {
	var (
		format   string
		compress bool
		out      string
		filter   reports.Filter
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the hiring report as xlsx or csv",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := reports.ParseFormat(format)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrUsage, err)
			}
			cfg, emp, err := creds.signIn(cmd.Context())
			if err != nil {
				return err
			}
			jobs, err := emp.ListJobs(cmd.Context())
			if err != nil {
				return fmt.Errorf("list jobs: %s", backend.UserMessage(err))
			}
			apps, err := emp.ListApplications(cmd.Context())
			if err != nil {
				return fmt.Errorf("list applications: %s", backend.UserMessage(err))
			}

			now := time.Now().In(cfg.Location())
			report := reports.Build(jobs, apps, filter, cfg.Location(), now)
			if out == "" {
				out = reports.FileName(f, compress, now)
			}
			if out == "-" {
				return reports.Export(cmd.OutOrStdout(), report, f, compress)
			}

			file, err := os.Create(out)
			if err != nil {
				return err
			}
			if err := reports.Export(file, report, f, compress); err != nil {
				_ = file.Close()
				return err
			}
			if err := file.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", out)
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "xlsx", "xlsx or csv")
	cmd.Flags().BoolVar(&compress, "compress", false, "xz-compress the file")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output path, - for stdout (default hiring-report-<date>.<format>)")
	cmd.Flags().StringVar(&filter.Range.From, "from", "", "posted on or after (YYYY-MM-DD)")
	cmd.Flags().StringVar(&filter.Range.To, "to", "", "posted on or before (YYYY-MM-DD)")
	cmd.Flags().Int64Var(&filter.LocalityID, "locality", 0, "barangay id")
	return cmd
}
