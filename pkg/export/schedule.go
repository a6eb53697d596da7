// Package export renders amortization schedules as downloadable files.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/segyhp/property-engine/pkg/amortization"
)

const (
	ContentTypeCSV  = "text/csv"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	sheetName = "Schedule"
)

// Header is the column layout shared by every format.
var Header = []string{"Month", "Payment", "Interest", "Principal", "Balance"}

// WriteCSV writes rows as CSV with amounts fixed to two places.
func WriteCSV(w io.Writer, rows []amortization.Row) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(Header); err != nil {
		return err
	}

	for _, row := range rows {
		record := []string{
			strconv.Itoa(row.Period),
			row.Payment.StringFixed(2),
			row.Interest.StringFixed(2),
			row.Principal.StringFixed(2),
			row.Balance.StringFixed(2),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteXLSX writes rows as a single-sheet workbook with numeric cells.
func WriteXLSX(w io.Writer, rows []amortization.Row) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return err
	}

	for i, header := range Header {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			return err
		}
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := []interface{}{
			row.Period,
			row.Payment.Round(2).InexactFloat64(),
			row.Interest.Round(2).InexactFloat64(),
			row.Principal.Round(2).InexactFloat64(),
			row.Balance.Round(2).InexactFloat64(),
		}
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", row.Period, err)
		}
	}

	return f.Write(w)
}
