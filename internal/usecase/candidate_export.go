package usecase

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"time"

	"candidate-tracker-backend/internal/domain"
	"candidate-tracker-backend/pkg/apperror"
	"candidate-tracker-backend/pkg/filter"

	"github.com/xuri/excelize/v2"
)

// ExportableColumns lists the columns an export may contain, in default order.
var ExportableColumns = []string{
	"full_name", "email", "status", "position", "experience",
	"interview_date", "notes", "resume_filename", "created_at", "created_by",
}

var exportHeaders = map[string]string{
	"full_name":       "FULL NAME",
	"email":           "EMAIL",
	"status":          "STATUS",
	"position":        "POSITION",
	"experience":      "EXPERIENCE (YEARS)",
	"interview_date":  "INTERVIEW DATE",
	"notes":           "NOTES",
	"resume_filename": "RESUME",
	"created_at":      "CREATED AT",
	"created_by":      "CREATED BY",
}

func (u *candidateUsecase) Export(ctx context.Context, req domain.ExportRequest) ([]byte, string, error) {
	actor := domain.ActorFromContext(ctx)
	if actor.Role != u.privilegedRole {
		return nil, "", apperror.Forbidden("Only admins can export candidates")
	}

	q, err := filter.Parse(req.Params, domain.CandidateSchema)
	if err != nil {
		return nil, "", filterError(err)
	}

	columns, err := exportColumns(req.Columns)
	if err != nil {
		return nil, "", err
	}

	candidates, err := u.repo.Find(ctx, domain.CandidateListQuery{
		Clauses: q.Clauses,
		Sort:    q.Sort,
		Limit:   maxExportRows,
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch candidates for export: %w", err)
	}

	var (
		data     []byte
		filename string
	)
	format := req.Format
	if format == "" {
		format = "xlsx"
	}
	switch format {
	case "csv":
		data, filename, err = exportCSV(candidates, columns)
	case "xlsx":
		data, filename, err = exportExcel(candidates, columns)
	default:
		return nil, "", apperror.BadRequest(fmt.Sprintf("Unsupported export format: %s", req.Format))
	}
	if err != nil {
		return nil, "", err
	}

	u.secLog.LogDataExport(ctx, actor.UserID, format, len(candidates))
	return data, filename, nil
}

// exportColumns validates requested columns and drops duplicates, keeping order.
func exportColumns(requested []string) ([]string, error) {
	if len(requested) == 0 {
		return ExportableColumns, nil
	}
	seen := make(map[string]bool, len(requested))
	columns := make([]string, 0, len(requested))
	for _, col := range requested {
		if _, ok := exportHeaders[col]; !ok {
			return nil, apperror.BadRequest(fmt.Sprintf("Invalid export column: %s", col))
		}
		if !seen[col] {
			seen[col] = true
			columns = append(columns, col)
		}
	}
	return columns, nil
}

// exportExcel generates an Excel workbook from candidate data
func exportExcel(candidates []domain.Candidate, columns []string) ([]byte, string, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Candidates"
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, "", fmt.Errorf("failed to name sheet: %w", err)
	}

	for i, col := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, exportHeaders[col])
	}

	// Dark blue header with white text
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#1E3A5F"}},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	endCell, _ := excelize.CoordinatesToCellName(len(columns), 1)
	f.SetCellStyle(sheetName, "A1", endCell, headerStyle)

	for rowIdx, c := range candidates {
		for colIdx, col := range columns {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			f.SetCellValue(sheetName, cell, exportValue(c, col))
		}
	}

	for i := range columns {
		colName, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetName, colName, colName, 22)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, "", fmt.Errorf("failed to write Excel file: %w", err)
	}

	filename := fmt.Sprintf("candidates_%s.xlsx", time.Now().Format("20060102_150405"))
	return buf.Bytes(), filename, nil
}

// exportCSV generates a CSV file from candidate data
func exportCSV(candidates []domain.Candidate, columns []string) ([]byte, string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(columns); err != nil {
		return nil, "", err
	}
	row := make([]string, len(columns))
	for _, c := range candidates {
		for i, col := range columns {
			row[i] = fmt.Sprintf("%v", exportValue(c, col))
		}
		if err := w.Write(row); err != nil {
			return nil, "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, "", fmt.Errorf("failed to write CSV file: %w", err)
	}

	filename := fmt.Sprintf("candidates_%s.csv", time.Now().Format("20060102_150405"))
	return buf.Bytes(), filename, nil
}

// exportValue extracts a cell value from a candidate
func exportValue(c domain.Candidate, field string) interface{} {
	switch field {
	case "full_name":
		return c.FullName
	case "email":
		return c.Email
	case "status":
		return c.Status
	case "position":
		return c.Position
	case "experience":
		return c.Experience
	case "interview_date":
		if c.InterviewDate != nil {
			return c.InterviewDate.Format("2006-01-02")
		}
		return ""
	case "notes":
		if c.Notes != nil {
			return *c.Notes
		}
		return ""
	case "resume_filename":
		if c.ResumeFilename != nil {
			return *c.ResumeFilename
		}
		return ""
	case "created_at":
		return c.CreatedAt.Format(time.RFC3339)
	case "created_by":
		if c.CreatedBy.Email != "" {
			return c.CreatedBy.Email
		}
		return c.CreatedBy.ID
	default:
		return ""
	}
}
