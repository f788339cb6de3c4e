package reports

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/ulikunitz/xz"
	"github.com/xuri/excelize/v2"
)

type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

func ParseFormat(raw string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(raw))) {
	case FormatXLSX, "":
		return FormatXLSX, nil
	case FormatCSV:
		return FormatCSV, nil
	}
	return "", fmt.Errorf("unsupported export format %q", raw)
}

func (f Format) ContentType(compressed bool) string {
	if compressed {
		return "application/x-xz"
	}
	if f == FormatCSV {
		return "text/csv; charset=utf-8"
	}
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// FileName is e.g. hiring-report-2025-03-01.xlsx.xz.
func FileName(f Format, compressed bool, at time.Time) string {
	name := "hiring-report-" + at.Format("2006-01-02") + "." + string(f)
	if compressed {
		name += ".xz"
	}
	return name
}

type table struct {
	name string
	rows [][]any
}

func (r Report) tables() []table {
	s := r.Summary
	summary := table{name: ViewHiringSummary, rows: [][]any{
		{"Metric", "Value"},
		{"Total Job Postings", s.TotalPostings},
		{"Total Applicants", s.TotalApplicants},
		{"Hired Candidates", s.Hired},
		{"Success Rate (%)", s.SuccessRate},
	}}

	p := r.ApplicantsPerJob
	perJob := table{name: ViewApplicantsPerJob, rows: [][]any{
		{"Average Applicants per Job", p.Average},
		{"Most Applied Position", p.MostApplied.Title, p.MostApplied.Count},
		{"Active Job Postings", p.ActivePostings},
		{"Jobs with no Applicants", p.NoApplicants},
		{},
		{"Job ID", "Title", "Status", "Applicants"},
	}}
	for _, row := range p.Rows {
		perJob.rows = append(perJob.rows, []any{row.JobID, row.Title, row.Status.Label(), row.Count})
	}

	localities := table{name: ViewJobsPerLocality, rows: [][]any{{"Barangay", "Job Postings"}}}
	for _, l := range r.Localities {
		localities.rows = append(localities.rows, []any{l.Name, l.Count})
	}

	t := r.TimeToFill
	fill := table{name: ViewTimeToFill, rows: [][]any{
		{"Filled Jobs", t.Filled},
		{"Average Days to Fill", t.AverageDays},
		{},
		{"Job ID", "Title", "Posted", "Filled", "Days"},
	}}
	for _, row := range t.Rows {
		fill.rows = append(fill.rows, []any{row.JobID, row.Title, row.PostedAt.Format("2006-01-02"), row.FilledAt.Format("2006-01-02"), row.Days})
	}

	return []table{summary, perJob, localities, fill}
}

// Export writes the report in format f, xz-compressed when compress is set.
func Export(w io.Writer, r Report, f Format, compress bool) error {
	if !compress {
		return write(w, r, f)
	}
	zw, err := xz.NewWriter(w)
	if err != nil {
		return fmt.Errorf("create xz writer: %w", err)
	}
	if err := write(zw, r, f); err != nil {
		_ = zw.Close()
		return err
	}
	return zw.Close()
}

func write(w io.Writer, r Report, f Format) error {
	if f == FormatCSV {
		return WriteCSV(w, r)
	}
	return WriteXLSX(w, r)
}

func WriteXLSX(w io.Writer, r Report) error {
	file := excelize.NewFile()
	defer func() { _ = file.Close() }()

	for i, t := range r.tables() {
		if i == 0 {
			if err := file.SetSheetName(file.GetSheetName(0), t.name); err != nil {
				return fmt.Errorf("name sheet: %w", err)
			}
		} else if _, err := file.NewSheet(t.name); err != nil {
			return fmt.Errorf("add sheet %s: %w", t.name, err)
		}
		for n, row := range t.rows {
			if len(row) == 0 {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(1, n+1)
			if err != nil {
				return err
			}
			if err := file.SetSheetRow(t.name, cell, &row); err != nil {
				return fmt.Errorf("write %s row %d: %w", t.name, n+1, err)
			}
		}
	}
	file.SetActiveSheet(0)

	if err := file.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// WriteCSV writes every view into one file, each under a title row and
// separated by a blank line.
func WriteCSV(w io.Writer, r Report) error {
	cw := csv.NewWriter(w)
	for i, t := range r.tables() {
		if i > 0 {
			_ = cw.Write([]string{})
		}
		_ = cw.Write([]string{t.name})
		for _, row := range t.rows {
			record := make([]string, len(row))
			for k, v := range row {
				record[k] = cellText(v)
			}
			_ = cw.Write(record)
		}
	}
	cw.Flush()
	return cw.Error()
}

func cellText(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}
