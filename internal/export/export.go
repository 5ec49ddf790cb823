// Package export renders admin spreadsheets.
package export

import (
	"fmt"
	"io"

	"velorent/internal/models"

	"github.com/xuri/excelize/v2"
)

const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var bookingHeaders = []string{"ID", "Product", "Renter", "Email", "Start", "End", "Days", "Total", "Status", "Created"}

// Bookings writes the booking ledger as an XLSX workbook.
func Bookings(w io.Writer, bookings []*models.Booking) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Bookings"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeHeader(f, sheet, bookingHeaders); err != nil {
		return err
	}

	for i, b := range bookings {
		row := []interface{}{
			b.ID,
			b.ProductName,
			b.UserName,
			b.UserEmail,
			b.StartDate.Format(models.DateLayout),
			b.EndDate.Format(models.DateLayout),
			b.Days(),
			b.TotalPrice.InexactFloat64(),
			b.Status,
			b.CreatedAt.Format("2006-01-02 15:04"),
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write booking %d: %w", b.ID, err)
		}
		if style, ok := statusStyle(f, b.Status); ok {
			statusCell, _ := excelize.CoordinatesToCellName(9, i+2)
			_ = f.SetCellStyle(sheet, statusCell, statusCell, style)
		}
	}

	_ = f.SetColWidth(sheet, "B", "D", 24)
	_ = f.SetColWidth(sheet, "E", "J", 14)

	return f.Write(w)
}

// FSN writes the turnover report, one sheet per movement class.
func FSN(w io.Writer, report *models.FSNReport) error {
	f := excelize.NewFile()
	defer f.Close()

	groups := []struct {
		sheet   string
		entries []models.FSNEntry
	}{
		{"Fast", report.Fast},
		{"Slow", report.Slow},
		{"Non-moving", report.NonMoving},
	}

	for i, g := range groups {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", g.sheet); err != nil {
				return fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(g.sheet); err != nil {
			return fmt.Errorf("create sheet %s: %w", g.sheet, err)
		}

		if err := writeHeader(f, g.sheet, []string{"Product ID", "Name", "Category", "Confirmed bookings", "Last booked"}); err != nil {
			return err
		}
		for j, e := range g.entries {
			last := ""
			if e.BookingCount > 0 {
				last = e.LastBookedAt.Format(models.DateLayout)
			}
			row := []interface{}{e.ProductID, e.Name, e.Category, e.BookingCount, last}
			cell, _ := excelize.CoordinatesToCellName(1, j+2)
			if err := f.SetSheetRow(g.sheet, cell, &row); err != nil {
				return fmt.Errorf("write fsn row: %w", err)
			}
		}
		_ = f.SetColWidth(g.sheet, "B", "C", 24)
		_ = f.SetColWidth(g.sheet, "D", "E", 18)
	}

	f.SetActiveSheet(0)
	return f.Write(w)
}

func writeHeader(f *excelize.File, sheet string, headers []string) error {
	row := make([]interface{}, len(headers))
	for i, h := range headers {
		row[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &row); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	style, err := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	return f.SetCellStyle(sheet, "A1", last, style)
}

func statusStyle(f *excelize.File, status string) (int, bool) {
	var color string
	switch status {
	case models.StatusConfirmed, models.StatusCompleted:
		color = "#C6EFCE"
	case models.StatusPending:
		color = "#FFEB9C"
	case models.StatusCancelled:
		color = "#FFC7CE"
	default:
		return 0, false
	}
	style, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
	})
	return style, err == nil
}
