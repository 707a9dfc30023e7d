// Package pdf renders invoices with gofpdf.
package pdf

import (
	"fmt"
	"io"
	"strings"

	"freelancer-hub/internal/domain/clients"
	"freelancer-hub/internal/domain/invoices"
	"freelancer-hub/internal/domain/users"

	"github.com/jung-kurt/gofpdf/v2"
	"github.com/shopspring/decimal"
)

const dateLayout = "02 Jan 2006"

// RenderInvoice writes an A4 invoice to w.
func RenderInvoice(w io.Writer, inv invoices.Invoice, from users.User, to clients.Client) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetTitle("Invoice "+inv.Number, true)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Arial", "B", 20)
	pdf.CellFormat(120, 10, tr(from.DisplayName()), "", 0, "L", false, 0, "")
	pdf.CellFormat(60, 10, "INVOICE", "", 1, "R", false, 0, "")

	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(120, 6, tr(from.Email), "", 0, "L", false, 0, "")
	pdf.CellFormat(60, 6, inv.Number, "", 1, "R", false, 0, "")
	pdf.CellFormat(120, 6, "", "", 0, "L", false, 0, "")
	pdf.CellFormat(60, 6, "Issued "+inv.IssueDate.Format(dateLayout), "", 1, "R", false, 0, "")
	pdf.CellFormat(120, 6, "", "", 0, "L", false, 0, "")
	pdf.CellFormat(60, 6, "Due "+inv.DueDate.Format(dateLayout), "", 1, "R", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(180, 7, "Bill to", "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	for _, line := range []string{to.Name, to.Company, to.Email, to.Address} {
		if strings.TrimSpace(line) != "" {
			pdf.CellFormat(180, 5, tr(line), "", 1, "L", false, 0, "")
		}
	}
	pdf.Ln(6)

	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(95, 8, "Description", "1", 0, "L", true, 0, "")
	pdf.CellFormat(25, 8, "Qty", "1", 0, "R", true, 0, "")
	pdf.CellFormat(30, 8, "Unit price", "1", 0, "R", true, 0, "")
	pdf.CellFormat(30, 8, "Amount", "1", 1, "R", true, 0, "")

	pdf.SetFont("Arial", "", 10)
	for _, it := range inv.LineItems {
		pdf.CellFormat(95, 7, tr(it.Description), "1", 0, "L", false, 0, "")
		pdf.CellFormat(25, 7, it.Quantity.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 7, money(it.UnitPrice, inv.Currency), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 7, money(it.Amount, inv.Currency), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(4)

	summary := [][2]string{
		{"Subtotal", money(inv.Subtotal, inv.Currency)},
		{fmt.Sprintf("Tax (%s%%)", inv.TaxRate.StringFixed(2)), money(inv.Tax, inv.Currency)},
		{"Total", money(inv.Total, inv.Currency)},
		{"Paid", money(inv.AmountPaid, inv.Currency)},
		{"Balance due", money(inv.BalanceDue(), inv.Currency)},
	}
	for i, row := range summary {
		style := ""
		if i == len(summary)-1 {
			style = "B"
		}
		pdf.SetFont("Arial", style, 10)
		pdf.CellFormat(150, 7, row[0], "", 0, "R", false, 0, "")
		pdf.CellFormat(30, 7, row[1], "", 1, "R", false, 0, "")
	}

	if inv.Notes != "" {
		pdf.Ln(8)
		pdf.SetFont("Arial", "I", 9)
		pdf.MultiCell(180, 5, tr(inv.Notes), "", "L", false)
	}

	if err := pdf.Error(); err != nil {
		return err
	}
	return pdf.Output(w)
}

func money(d decimal.Decimal, currency string) string {
	return strings.ToUpper(currency) + " " + d.StringFixed(2)
}
