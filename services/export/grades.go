package export

import (
	"io"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/masomo-parents/core/parent"
)

const (
	GradesSheet = "Grades"
	XLSXMIME    = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var gradesHeader = []interface{}{"Child", "Subject", "Grade"}

// GradesXLSX writes the overview as a single sheet workbook: a header row then one row per entry.
func GradesXLSX(overview []parent.GradeOverview) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), GradesSheet); err != nil {
		return nil, errors.Wrap(err, "naming sheet")
	}
	if err := f.SetSheetRow(GradesSheet, "A1", &gradesHeader); err != nil {
		return nil, errors.Wrap(err, "writing header")
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, errors.Wrap(err, "creating header style")
	}
	if err = f.SetCellStyle(GradesSheet, "A1", "C1", bold); err != nil {
		return nil, errors.Wrap(err, "styling header")
	}
	if err = f.SetColWidth(GradesSheet, "A", "C", 24); err != nil {
		return nil, errors.Wrap(err, "sizing columns")
	}

	for i, g := range overview {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, errors.Wrap(err, "locating row")
		}
		row := []interface{}{g.ChildName, g.Subject, string(g.Grade)}
		if err = f.SetSheetRow(GradesSheet, cell, &row); err != nil {
			return nil, errors.Wrapf(err, "writing row %d", i+2)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, errors.Wrap(err, "writing workbook")
	}
	return buf.Bytes(), nil
}

// ReadGradesXLSX reads back a workbook written by GradesXLSX. Rows missing a child or subject are skipped.
func ReadGradesXLSX(r io.Reader) ([]parent.GradeOverview, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "opening workbook")
	}
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(GradesSheet)
	if err != nil {
		return nil, errors.Wrap(err, "reading rows")
	}

	overview := make([]parent.GradeOverview, 0, len(rows))
	for i, row := range rows {
		if i == 0 || len(row) < 2 || row[0] == "" || row[1] == "" {
			continue
		}
		g := parent.GradeOverview{ChildName: row[0], Subject: row[1]}
		if len(row) > 2 {
			g.Grade = parent.FlexString(row[2])
		}
		overview = append(overview, g)
	}
	return overview, nil
}
