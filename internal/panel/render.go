package panel

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ehanapbuhay/employer-panel/internal/compliance"
	"github.com/ehanapbuhay/employer-panel/internal/domain"
	"github.com/ehanapbuhay/employer-panel/internal/listview"
	"github.com/ehanapbuhay/employer-panel/internal/reports"
	"github.com/ehanapbuhay/employer-panel/internal/spreadsheet"
	"github.com/ehanapbuhay/employer-panel/internal/workflow"
)

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed assets/app.css
var assetsFS embed.FS

var pageNames = []string{
	"login", "signup", "forgot_password",
	"dashboard", "jobs", "job_form", "job_import",
	"applications", "application",
	"reports", "compliance", "profile",
}

type templates struct {
	byName map[string]*template.Template
}

func parseTemplates() *templates {
	t := &templates{byName: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		t.byName[name] = template.Must(template.New("layout.html").Funcs(templateFuncs).
			ParseFS(templatesFS, "templates/layout.html", "templates/"+name+".html"))
	}
	return t
}

var templateFuncs = template.FuncMap{
	"jobStatusClass": func(s domain.JobStatus) string { return "status status-" + string(s) },
	"appStatusClass": func(s domain.ApplicationStatus) string { return "status status-" + string(s) },
	"initial": func(name string) string {
		name = strings.TrimSpace(name)
		if name == "" {
			return "?"
		}
		return strings.ToUpper(string([]rune(name)[:1]))
	},
	"percent": func(v float64) string { return fmt.Sprintf("%.1f%%", v) },
	"days":    func(v float64) string { return fmt.Sprintf("%.1f", v) },
}

type notice struct {
	Kind    string
	Title   string
	Message string
}

func noticeOf(n workflow.Notification) *notice {
	if n == nil {
		return nil
	}
	title, message := workflow.Text(n)
	return &notice{Kind: workflow.Kind(n), Title: title, Message: message}
}

type pageLink struct {
	Number  int
	URL     string
	Current bool
}

type pager struct {
	From, To, Total int
	PrevURL         string
	NextURL         string
	Links           []pageLink
}

// buildPager renders page links that keep the active filters in query.
func buildPager[T any](path string, query url.Values, p listview.Page[T]) pager {
	link := func(n int) string {
		q := url.Values{}
		for k, v := range query {
			q[k] = v
		}
		q.Del("clear")
		q.Set("page", strconv.Itoa(n))
		return path + "?" + q.Encode()
	}
	out := pager{From: p.From, To: p.To, Total: p.Total}
	if p.HasPrev {
		out.PrevURL = link(p.PrevPage)
	}
	if p.HasNext {
		out.NextURL = link(p.NextPage)
	}
	for _, n := range p.Numbers() {
		out.Links = append(out.Links, pageLink{Number: n, URL: link(n), Current: n == p.Current})
	}
	return out
}

type jobRow struct {
	domain.JobPosting
	Posted  string
	Actions []actionView
}

type actionView struct {
	Action string
	Label  string
}

type applicationRow struct {
	domain.Application
	Applied string
}

type jobForm struct {
	ID               int64
	Title            string
	CompanyName      string
	Description      string
	Responsibilities string
	Requirements     string
	CategoryID       int64
	LocalityID       int64
	SalaryMin        string
	SalaryMax        string
	JobType          string
	WorkSetup        string
	ExperienceYears  string
}

type reportForm struct {
	From       string
	To         string
	LocalityID int64
	Query      string
	Exports    []exportLink
}

type exportLink struct {
	Label string
	URL   string
}

type importSummary struct {
	FileName string
	Created  int
	Failed   int
	Results  []spreadsheet.Result
}

type pageData struct {
	Title   string
	Active  string
	Error   string
	Message string
	Notice  *notice
	CSRF    string
	User    domain.User
	Auth    authForm

	// list screens
	LoadError    string
	Query        string
	Pager        pager
	JobCriteria  listview.JobCriteria
	JobRows      []jobRow
	JobStats     listview.JobStats
	AppCriteria  listview.ApplicationCriteria
	AppRows      []applicationRow
	AppStats     listview.ApplicationStats
	RecentApps   []applicationRow
	RecentJobs   []jobRow
	Experience   []listview.ExperienceBucket
	JobStatuses  []domain.JobStatus
	AppStatuses  []domain.ApplicationStatus
	AnyValue     string
	Categories   []domain.Category
	Localities   []domain.Locality
	JobTypes     []string
	WorkSetups   []string
	Form         jobForm
	Import       *importSummary
	Columns      []string

	Application *applicationRow
	AppActions  []actionView

	Report     *reports.Report
	ReportForm reportForm

	Checklists []compliance.Section

	Profile      domain.ProfileDetails
	CompanySizes []string
	Industries   []string
	IdleMinutes  int
	MinIdle      int
	MaxIdle      int
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data pageData) {
	s.renderStatus(w, r, http.StatusOK, name, data)
}

func (s *Server) renderStatus(w http.ResponseWriter, r *http.Request, status int, name string, data pageData) {
	rec := sessionFromContext(r.Context())
	if data.CSRF == "" {
		data.CSRF = rec.CSRF
	}
	if data.User.ID == 0 {
		data.User = rec.User
	}
	if data.Error == "" {
		data.Error = strings.TrimSpace(r.URL.Query().Get("error"))
	}
	if data.Message == "" {
		data.Message = strings.TrimSpace(r.URL.Query().Get("message"))
	}

	tmpl, ok := s.pages.byName[name]
	if !ok {
		http.Error(w, "page not found", http.StatusNotFound)
		return
	}
	if err := renderHTMLTemplate(w, tmpl, status, data); err != nil {
		log.Printf("%s template render failed: %v", name, err)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
	}
}

func renderHTMLTemplate(w http.ResponseWriter, tmpl *template.Template, status int, data pageData) error {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := w.Write(buf.Bytes())
	return err
}

func parsePositiveInt(raw string, fallback int) int {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

func parseID(raw string) int64 {
	value, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || value <= 0 {
		return 0
	}
	return value
}

func (s *Server) formatDate(t time.Time) string {
	if t.IsZero() {
		return "—"
	}
	return t.In(s.cfg.Location).Format("Jan 2, 2006")
}

func (s *Server) formatDateTime(t time.Time) string {
	if t.IsZero() {
		return "—"
	}
	return t.In(s.cfg.Location).Format("Jan 2, 2006 3:04 PM")
}
