// Package spreadsheet turns an .xlsx or .xls sheet of job postings into
// drafts and creates them one row at a time.
package spreadsheet

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"

	"github.com/ehanapbuhay/employer-panel/internal/domain"
	"github.com/ehanapbuhay/employer-panel/internal/security"
)

const maxRows = 100000

// Columns lists the header names the importer understands. Only title,
// category, barangay, job type and work setup are required.
var Columns = []string{
	"title", "company name", "category", "barangay", "job type", "work setup",
	"experience years", "salary min", "salary max",
	"description", "responsibilities", "requirements",
}

var requiredColumns = []string{"title", "category", "barangay", "job type", "work setup"}

// Row is one parsed data row. Line is the 1-based sheet row number.
type Row struct {
	Line  int
	Draft domain.JobDraft
	Err   error
}

// Lookup resolves category and barangay cells, given as a name or an id.
type Lookup struct {
	Categories []domain.Category
	Localities []domain.Locality
}

func (l Lookup) category(cell string) (int64, bool) {
	for _, c := range l.Categories {
		if strings.EqualFold(c.Name, cell) || strconv.FormatInt(c.ID, 10) == cell {
			return c.ID, true
		}
	}
	return 0, false
}

func (l Lookup) locality(cell string) (int64, bool) {
	for _, b := range l.Localities {
		if strings.EqualFold(b.Name, cell) || strconv.FormatInt(b.ID, 10) == cell {
			return b.ID, true
		}
	}
	return 0, false
}

// ParseJobs reads the first sheet of the upload and maps each data row to
// a validated draft. Blank rows are skipped; invalid rows carry Err.
func ParseJobs(reader io.Reader, filename string, lookup Lookup) ([]Row, error) {
	rows, err := readRowsFromSpreadsheet(reader, filename)
	if err != nil {
		return nil, err
	}

	headerIndex := map[string]int{}
	for i, header := range rows[0] {
		headerIndex[normalizeHeader(header)] = i
	}
	for _, col := range requiredColumns {
		if _, ok := headerIndex[col]; !ok {
			return nil, fmt.Errorf("missing required column: %s", col)
		}
	}
	col := func(row []string, name string) string {
		idx, ok := headerIndex[name]
		if !ok {
			return ""
		}
		return cellValue(row, idx)
	}

	var out []Row
	for i, row := range rows[1:] {
		if blank(row) {
			continue
		}
		parsed := Row{Line: i + 2}
		parsed.Draft, parsed.Err = draftFromRow(row, col, lookup)
		out = append(out, parsed)
	}
	return out, nil
}

func draftFromRow(row []string, col func([]string, string) string, lookup Lookup) (domain.JobDraft, error) {
	d := domain.JobDraft{
		Title:            security.PlainText(col(row, "title")),
		CompanyName:      security.PlainText(col(row, "company name")),
		Description:      security.PlainText(col(row, "description")),
		Responsibilities: security.PlainText(col(row, "responsibilities")),
		Requirements:     security.PlainText(col(row, "requirements")),
		JobType:          canonical(col(row, "job type"), domain.JobTypes),
		WorkSetup:        canonical(col(row, "work setup"), domain.WorkSetups),
	}

	if cell := col(row, "category"); cell != "" {
		id, ok := lookup.category(cell)
		if !ok {
			return d, fmt.Errorf("unknown category %q", cell)
		}
		d.CategoryID = id
	}
	if cell := col(row, "barangay"); cell != "" {
		id, ok := lookup.locality(cell)
		if !ok {
			return d, fmt.Errorf("unknown barangay %q", cell)
		}
		d.LocalityID = id
	}
	if cell := col(row, "experience years"); cell != "" {
		years, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return d, fmt.Errorf("experience years %q is not a number", cell)
		}
		d.ExperienceYears = int(years)
	}

	var err error
	if d.SalaryMin, err = amount(col(row, "salary min")); err != nil {
		return d, fmt.Errorf("salary min: %w", err)
	}
	if d.SalaryMax, err = amount(col(row, "salary max")); err != nil {
		return d, fmt.Errorf("salary max: %w", err)
	}

	if err := security.ValidateJobDraft(d); err != nil {
		return d, err
	}
	return d, nil
}

// canonical maps "full-time" to "Full-Time" and leaves unknown values alone
// so validation can reject them.
func canonical(value string, allowed []string) string {
	for _, a := range allowed {
		if strings.EqualFold(a, value) || strings.EqualFold(strings.ReplaceAll(a, "-", " "), value) {
			return a
		}
	}
	return value
}

func amount(cell string) (*float64, error) {
	cell = strings.NewReplacer(",", "", "₱", "", "PHP", "", " ", "").Replace(cell)
	if cell == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return nil, fmt.Errorf("%q is not a number", cell)
	}
	return &v, nil
}

func blank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func readRowsFromSpreadsheet(reader io.Reader, filename string) ([][]string, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".xls":
		workbook, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
		if err != nil {
			return nil, err
		}
		if workbook.NumSheets() == 0 {
			return nil, fmt.Errorf("no worksheet found")
		}
		rows := workbook.ReadAllCells(maxRows)
		if len(rows) == 0 {
			return nil, fmt.Errorf("worksheet is empty")
		}
		return rows, nil
	case ".xlsx", ".xlsm":
		file, err := excelize.OpenReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer func() { _ = file.Close() }()

		sheetName := file.GetSheetName(0)
		if sheetName == "" {
			return nil, fmt.Errorf("no worksheet found")
		}

		rows, err := file.GetRows(sheetName)
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			return nil, fmt.Errorf("worksheet is empty")
		}
		return rows, nil
	default:
		return nil, fmt.Errorf("unsupported file type %q: upload an .xlsx or .xls file", ext)
	}
}

func normalizeHeader(header string) string {
	return strings.ToLower(strings.Join(strings.Fields(strings.ReplaceAll(header, "_", " ")), " "))
}

func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

type Result struct {
	Line    int
	Title   string
	Message string
	Err     error
}

func Summary(results []Result) (created, failed int) {
	for _, r := range results {
		if r.Err != nil {
			failed++
		} else {
			created++
		}
	}
	return created, failed
}

// CreateFunc submits one draft, e.g. (*backend.Employer).CreateJob.
type CreateFunc func(ctx context.Context, d domain.JobDraft) (string, error)

// Create submits valid rows in sheet order and stops early only when ctx
// is cancelled. Invalid rows are reported without a request.
func Create(ctx context.Context, rows []Row, create CreateFunc) []Result {
	results := make([]Result, 0, len(rows))
	for _, row := range rows {
		res := Result{Line: row.Line, Title: row.Draft.Title, Err: row.Err}
		if res.Err == nil {
			if err := ctx.Err(); err != nil {
				res.Err = err
			} else {
				res.Message, res.Err = create(ctx, row.Draft)
			}
		}
		results = append(results, res)
	}
	return results
}

func WriteTemplate(w io.Writer) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	header := make([]any, len(Columns))
	for i, c := range Columns {
		header[i] = headerLabel(c)
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	return f.Write(w)
}

func headerLabel(col string) string {
	words := strings.Fields(col)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
