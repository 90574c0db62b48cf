package spreadsheet

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"park-ops/internal/models"

	"github.com/xuri/excelize/v2"
)

// WriteCSV writes header and rows with RFC 4180 quoting.
func WriteCSV(w io.Writer, header []string, rows [][]string) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(header); err != nil {
		return err
	}
	if err := writer.WriteAll(rows); err != nil {
		return err
	}
	return writer.Error()
}

// WriteXLSX writes a single-sheet workbook with a bold header row.
func WriteXLSX(w io.Writer, sheet string, header []string, rows [][]string) error {
	file := excelize.NewFile()
	defer func() { _ = file.Close() }()

	if sheet == "" {
		sheet = "Sheet1"
	}
	if err := file.SetSheetName(file.GetSheetName(0), sheet); err != nil {
		return err
	}

	bold, err := file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	if err := setRow(file, sheet, 1, header); err != nil {
		return err
	}
	if len(header) > 0 {
		last, err := excelize.CoordinatesToCellName(len(header), 1)
		if err != nil {
			return err
		}
		if err := file.SetCellStyle(sheet, "A1", last, bold); err != nil {
			return err
		}
	}
	for i, row := range rows {
		if err := setRow(file, sheet, i+2, row); err != nil {
			return err
		}
	}

	_, err = file.WriteTo(w)
	return err
}

func setRow(file *excelize.File, sheet string, rowNum int, values []string) error {
	start, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	if err := file.SetSheetRow(sheet, start, &cells); err != nil {
		return fmt.Errorf("write row %d: %w", rowNum, err)
	}
	return nil
}

var (
	StaffHeader   = []string{"ID", "Name"}
	RideHeader    = []string{"ID", "Name", "Floor"}
	CounterHeader = []string{"ID", "Name", "Location"}
)

func StaffRows(staff []models.Staff) [][]string {
	out := make([][]string, 0, len(staff))
	for _, s := range staff {
		out = append(out, []string{strconv.Itoa(s.ID), s.Name})
	}
	return out
}

func RideRows(rides []models.Ride) [][]string {
	out := make([][]string, 0, len(rides))
	for _, r := range rides {
		out = append(out, []string{strconv.Itoa(r.ID), r.Name, r.Floor})
	}
	return out
}

func CounterRows(counters []models.Counter) [][]string {
	out := make([][]string, 0, len(counters))
	for _, c := range counters {
		out = append(out, []string{strconv.Itoa(c.ID), c.Name, c.Location})
	}
	return out
}
