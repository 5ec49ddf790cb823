// Package document renders rental agreement PDFs.
package document

import (
	"fmt"
	"time"

	"velorent/internal/models"

	"github.com/go-pdf/fpdf"
)

// AgreementRenderer lays out an agreement on a single A4 page.
type AgreementRenderer struct {
	Company string
	now     func() time.Time
}

func NewAgreementRenderer(company string) *AgreementRenderer {
	if company == "" {
		company = "velorent"
	}
	return &AgreementRenderer{Company: company, now: time.Now}
}

func (r *AgreementRenderer) Render(a *models.RentalAgreement, path string) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Rental agreement #%d", a.BookingID), true)
	pdf.SetAuthor(r.Company, true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 12, "Bike Rental Agreement", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Booking #%d, issued %s", a.BookingID, r.now().UTC().Format(models.DateLayout)), "", 1, "C", false, 0, "")
	pdf.Ln(6)

	section := func(title string) {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(0, 8, title, "B", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		pdf.Ln(1)
	}
	field := func(label, value string) {
		pdf.CellFormat(45, 7, label, "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 7, value, "", 1, "L", false, 0, "")
	}

	section("Customer")
	field("Name", a.CustomerName)
	field("Email", a.CustomerEmail)
	pdf.Ln(3)

	section("Bike")
	field("Model", a.ProductName)
	field("Brand", a.ProductBrand)
	pdf.Ln(3)

	section("Term")
	field("Start date", a.StartDate.Format(models.DateLayout))
	field("Return date", a.EndDate.Format(models.DateLayout))
	field("Billable weeks", fmt.Sprintf("%d", a.Weeks))
	field("Weekly rate", a.WeeklyRate.StringFixed(2))
	field("Rental total", a.TotalPrice.StringFixed(2))
	pdf.Ln(5)

	section("Terms and conditions")
	pdf.MultiCell(0, 6, "The customer returns the bike on the return date in the condition it was received. "+
		"Every started week is charged in full. Loss or damage beyond normal wear is charged at repair cost.", "", "L", false)
	pdf.Ln(12)

	pdf.CellFormat(90, 7, "Customer signature: ____________________", "", 0, "L", false, 0, "")
	pdf.CellFormat(0, 7, r.Company+": ____________________", "", 1, "L", false, 0, "")

	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("write agreement pdf: %w", err)
	}
	return nil
}
