// Package export serializes a list of student records for download.
package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/aanand-mishra/xgrade/internal/types"
)

const (
	FileName     = "students.csv"
	XLSXFileName = "students.xlsx"

	ContentTypeCSV  = "text/csv"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	sheetName = "Students"
)

// Header is the fixed column order.
var Header = []string{"Name", "Roll", "Class", "DOB", "Section", "Subjects"}

// CSV renders records as comma-separated text: one header row, then one
// row per record in the given order, rows separated by "\n".
//
// Field values are written as-is. A value containing a comma or a newline
// will shift or split its row; callers that need strict CSV should use XLSX.
func CSV(records []types.Student) string {
	lines := make([]string, 0, len(records)+1)
	lines = append(lines, strings.Join(Header, ","))

	for _, s := range records {
		lines = append(lines, strings.Join(row(s), ","))
	}

	return strings.Join(lines, "\n")
}

// SubjectsCell renders subjects as name:marks pairs joined by "|".
func SubjectsCell(subjects []types.Subject) string {
	parts := make([]string, 0, len(subjects))
	for _, sub := range subjects {
		parts = append(parts, sub.Name+":"+strconv.Itoa(sub.Marks))
	}
	return strings.Join(parts, "|")
}

// XLSX writes the same table as a single-sheet workbook to w.
func XLSX(w io.Writer, records []types.Student) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("XLSX: rename sheet: %w", err)
	}

	for i, h := range Header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return fmt.Errorf("XLSX: header: %w", err)
		}
	}

	for i, s := range records {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		values := row(s)
		cells := make([]any, len(values))
		for j, v := range values {
			cells[j] = v
		}
		if err := f.SetSheetRow(sheetName, cell, &cells); err != nil {
			return fmt.Errorf("XLSX: row %d: %w", i+2, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("XLSX: write: %w", err)
	}
	return nil
}

func row(s types.Student) []string {
	return []string{s.Name, s.Roll, s.Class, s.DOB, s.Section, SubjectsCell(s.Subjects)}
}
