package export

import (
	"io"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/worktime/pkg/domain/model"
	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet holding the monthly table
const SheetName = "Monthly"

var headers = []string{"Year", "Month", "Feature hours", "Bug hours", "Bug %"}

func cellName(col, row int) string {
	columnName, err := excelize.ColumnNumberToName(col)
	if err != nil {
		return ""
	}
	name, err := excelize.JoinCellName(columnName, row)
	if err != nil {
		return ""
	}
	return name
}

// WriteMonthlyXlsx writes report as a spreadsheet with a title row, a header
// row and one row per month
func WriteMonthlyXlsx(w io.Writer, title string, report *model.MonthlyReport, bugPercent func(feature, bug float64) int) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return goerr.Wrap(err, "failed to name sheet")
	}
	_ = f.SetColWidth(SheetName, "A", "B", 12)
	_ = f.SetColWidth(SheetName, "C", "E", 16)

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold: true,
			Size: 14,
		},
	})
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold: true,
		},
	})
	hoursStyle, _ := f.NewStyle(&excelize.Style{
		NumFmt: 2, // 0.00
	})

	row := 1
	_ = f.SetCellValue(SheetName, cellName(1, row), title)
	_ = f.SetCellStyle(SheetName, cellName(1, row), cellName(1, row), titleStyle)
	row += 2

	for col, header := range headers {
		_ = f.SetCellValue(SheetName, cellName(col+1, row), header)
	}
	_ = f.SetCellStyle(SheetName, cellName(1, row), cellName(len(headers), row), headerStyle)
	row++

	if report != nil {
		for _, m := range report.Months {
			values := []any{
				m.Year,
				m.Month,
				m.FeatureSeconds / 3600,
				m.BugSeconds / 3600,
				bugPercent(m.FeatureSeconds, m.BugSeconds),
			}
			for col, value := range values {
				if err := f.SetCellValue(SheetName, cellName(col+1, row), value); err != nil {
					return goerr.Wrap(err, "failed to set cell", goerr.V("row", row), goerr.V("col", col+1))
				}
			}
			_ = f.SetCellStyle(SheetName, cellName(3, row), cellName(4, row), hoursStyle)
			row++
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return goerr.Wrap(err, "failed to write xlsx")
	}
	return nil
}
