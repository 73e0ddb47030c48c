package bankcore

import (
	"io"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

// renderStatement writes a PDF statement for the account: one row per
// transaction, ascending by date, with a running balance column.
func renderStatement(w io.Writer, acct *Account) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.Cell(0, 10, "Account Statement")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 8, acct.Name())
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(35, 7, "Date", "1", 0, "L", false, 0, "")
	pdf.CellFormat(35, 7, "Type", "1", 0, "L", false, 0, "")
	pdf.CellFormat(45, 7, "Amount", "1", 0, "R", false, 0, "")
	pdf.CellFormat(45, 7, "Balance", "1", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	running := decimal.Zero
	for _, t := range acct.Transactions() {
		running = running.Add(t.Amount)
		pdf.CellFormat(35, 7, t.Date.Format(dateLayout), "1", 0, "L", false, 0, "")
		pdf.CellFormat(35, 7, string(t.Kind), "1", 0, "L", false, 0, "")
		pdf.CellFormat(45, 7, FormatAmount(t.Amount), "1", 0, "R", false, 0, "")
		pdf.CellFormat(45, 7, FormatAmount(running), "1", 1, "R", false, 0, "")
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.Cell(0, 8, "Current balance: "+FormatAmount(acct.Balance()))

	return pdf.Output(w)
}
