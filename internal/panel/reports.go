package panel

import (
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/ehanapbuhay/employer-panel/internal/backend"
	"github.com/ehanapbuhay/employer-panel/internal/domain"
	"github.com/ehanapbuhay/employer-panel/internal/listview"
	"github.com/ehanapbuhay/employer-panel/internal/reports"
)

func reportFilterFrom(q url.Values) (reports.Filter, reportForm) {
	form := reportForm{
		From:       strings.TrimSpace(q.Get("from")),
		To:         strings.TrimSpace(q.Get("to")),
		LocalityID: parseID(q.Get("locality")),
	}
	query := url.Values{}
	if form.From != "" {
		query.Set("from", form.From)
	}
	if form.To != "" {
		query.Set("to", form.To)
	}
	if form.LocalityID != 0 {
		query.Set("locality", strconv.FormatInt(form.LocalityID, 10))
	}
	form.Query = query.Encode()
	for _, e := range []struct {
		label, format, compress string
	}{
		{"Excel (.xlsx)", "xlsx", ""},
		{"CSV", "csv", ""},
		{"Excel, compressed (.xlsx.xz)", "xlsx", "1"},
	} {
		q := url.Values{}
		for k, v := range query {
			q[k] = v
		}
		q.Set("format", e.format)
		if e.compress != "" {
			q.Set("compress", e.compress)
		}
		form.Exports = append(form.Exports, exportLink{Label: e.label, URL: "/reports/export?" + q.Encode()})
	}
	return reports.Filter{Range: listview.DateRange{From: form.From, To: form.To}, LocalityID: form.LocalityID}, form
}

// loadReport fetches both collections and builds the report. It reports
// false when the response has already been written.
func (s *Server) loadReport(w http.ResponseWriter, r *http.Request, f reports.Filter) (reports.Report, string, bool) {
	emp := s.employer(r)
	jobs, err := emp.ListJobs(r.Context())
	if s.endIfUnauthorized(w, r, err) {
		return reports.Report{}, "", false
	}
	if err != nil {
		return reports.Report{}, backend.UserMessage(err), true
	}
	apps, err := emp.ListApplications(r.Context())
	if s.endIfUnauthorized(w, r, err) {
		return reports.Report{}, "", false
	}
	if err != nil {
		return reports.Report{}, backend.UserMessage(err), true
	}
	return reports.Build(jobs, apps, f, s.cfg.Location, s.now()), "", true
}

func (s *Server) reportsPage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	filter, form := reportFilterFrom(r.URL.Query())
	report, loadErr, ok := s.loadReport(w, r, filter)
	if !ok {
		return
	}

	localities, err := s.employer(r).Localities(r.Context())
	if err != nil {
		log.Printf("localities load failed: %v", err)
		localities = []domain.Locality{}
	}
	data := pageData{
		Title:      "Reports",
		Active:     "reports",
		LoadError:  loadErr,
		ReportForm: form,
		Localities: localities,
	}
	if loadErr == "" {
		data.Report = &report
	}
	s.render(w, r, "reports", data)
}

// reportsExport streams the filtered report as xlsx or csv, xz compressed
// when compress=1.
func (s *Server) reportsExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	q := r.URL.Query()
	format, err := reports.ParseFormat(q.Get("format"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	compress := q.Get("compress") == "1" || strings.EqualFold(q.Get("compress"), "true")

	filter, form := reportFilterFrom(q)
	report, loadErr, ok := s.loadReport(w, r, filter)
	if !ok {
		return
	}
	if loadErr != "" {
		http.Redirect(w, r, "/reports?"+form.Query+"&error="+url.QueryEscape(loadErr), http.StatusFound)
		return
	}

	w.Header().Set("Content-Type", format.ContentType(compress))
	w.Header().Set("Content-Disposition", `attachment; filename="`+reports.FileName(format, compress, s.now().In(s.cfg.Location))+`"`)
	if err := reports.Export(w, report, format, compress); err != nil {
		log.Printf("report export failed: %v", err)
		s.metrics.RecordWorkflow("report.export", "failure")
		return
	}
	s.metrics.RecordWorkflow("report.export", "success")
}
