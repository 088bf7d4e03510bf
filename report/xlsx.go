package report

import (
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/warp/timeclock/timeclock"
)

// WorkbookFilename is the XLSX name for week.
func WorkbookFilename(week timeclock.Week) string {
	return week.Key() + "_LaborerTimeReport.xlsx"
}

// WriteWeeklyXLSX writes the weekly table as a single-sheet workbook.
// Hour cells are numeric so totals can be recomputed in the spreadsheet.
func WriteWeeklyXLSX(w io.Writer, week timeclock.Week, rows []timeclock.WeeklyReportRow) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := week.Key()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}

	header := make([]any, len(WeeklyHeader))
	for i, h := range WeeklyHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return err
	}
	if err := f.SetRowStyle(sheet, 1, 1, bold); err != nil {
		return err
	}

	for i, r := range rows {
		total, _ := r.TotalHours.Round(timeclock.HoursPrecision).Float64()
		values := []any{int(r.EmployeeID), total}
		for _, h := range r.Hours {
			v, _ := h.Round(timeclock.HoursPrecision).Float64()
			values = append(values, v)
		}
		values = append(values, r.CheckInComment, r.CheckOutComment)

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
	}

	return f.Write(w)
}
