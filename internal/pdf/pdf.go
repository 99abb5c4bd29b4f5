// Package pdf renders an invoice value object into a paged PDF document and
// writes the structured JSON sidecar next to it. Callers never inspect the
// rendered bytes; they get back the final file path or an error.
package pdf

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	marotocfg "github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/diewo77/invoicer/internal/billing"
	"github.com/diewo77/invoicer/internal/config"
	"github.com/diewo77/invoicer/internal/models"
)

var (
	headerColor = props.Color{Red: 46, Green: 134, Blue: 171}
	accentColor = props.Color{Red: 162, Green: 59, Blue: 114}
	stripeColor = props.Color{Red: 248, Green: 249, Blue: 250}
)

// Renderer turns invoices into PDF files under the configured invoices root.
type Renderer struct {
	cfg config.Settings
}

func NewRenderer(cfg config.Settings) *Renderer {
	return &Renderer{cfg: cfg}
}

// Render writes the PDF and its JSON sidecar to
// <invoices>/<year>/<client code>/ and returns the PDF path.
func (r *Renderer) Render(inv *models.Invoice) (string, error) {
	if err := inv.Validate(); err != nil {
		return "", err
	}

	path := billing.InvoicePath(r.cfg.InvoicesDir, inv.ClientInfo.ClientCode, inv.InvoiceNumber, inv.InvoiceDate)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create invoice dir: %w", err)
	}

	m := maroto.New(marotocfg.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(15).
		WithTopMargin(15).
		WithRightMargin(15).
		Build())

	r.buildHeader(m, inv)
	r.buildBillTo(m, inv)
	r.buildLineItems(m, inv)
	r.buildTotals(m, inv)
	r.buildFooter(m, inv)

	doc, err := m.Generate()
	if err != nil {
		return "", fmt.Errorf("render invoice %s: %w", inv.InvoiceNumber, err)
	}
	if err := doc.Save(path); err != nil {
		return "", fmt.Errorf("save invoice %s: %w", inv.InvoiceNumber, err)
	}

	if err := r.writeSidecar(path, inv); err != nil {
		return "", err
	}
	return path, nil
}

// writeSidecar mirrors the rendered invoice as structured JSON next to the
// PDF, so invoice data stays machine-readable without parsing the document.
func (r *Renderer) writeSidecar(pdfPath string, inv *models.Invoice) error {
	sidecar := strings.TrimSuffix(pdfPath, ".pdf") + ".json"
	data, err := json.MarshalIndent(inv, "", "  ")
	if err != nil {
		return fmt.Errorf("encode invoice sidecar: %w", err)
	}
	if err := os.WriteFile(sidecar, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write invoice sidecar: %w", err)
	}
	return nil
}

func (r *Renderer) money(v float64) string {
	return fmt.Sprintf("%s%.2f", r.cfg.CurrencySymbol, v)
}

func (r *Renderer) buildHeader(m core.Maroto, inv *models.Invoice) {
	m.AddRow(12,
		text.NewCol(7, r.cfg.CompanyName, props.Text{
			Size: 20, Style: fontstyle.Bold, Color: &headerColor,
		}),
		text.NewCol(5, "INVOICE", props.Text{
			Size: 24, Style: fontstyle.Bold, Align: align.Right, Color: &accentColor,
		}),
	)
	addressRows := strings.Split(r.cfg.CompanyAddress, "\n")
	meta := []string{
		"Invoice #: " + inv.InvoiceNumber,
		"Date: " + inv.InvoiceDate.Format("January 2, 2006"),
		"Due Date: " + inv.DueDate,
	}
	lines := len(addressRows)
	if len(meta) > lines {
		lines = len(meta)
	}
	for i := 0; i < lines; i++ {
		left, right := "", ""
		if i < len(addressRows) {
			left = addressRows[i]
		}
		if i < len(meta) {
			right = meta[i]
		}
		m.AddRow(5,
			text.NewCol(7, left, props.Text{Size: 9}),
			text.NewCol(5, right, props.Text{Size: 9, Align: align.Right}),
		)
	}
	m.AddRows(line.NewRow(4, props.Line{Color: &headerColor, Thickness: 0.8, SizePercent: 100}))
}

func (r *Renderer) buildBillTo(m core.Maroto, inv *models.Invoice) {
	m.AddRows(text.NewRow(8, "Bill To:", props.Text{Size: 10, Style: fontstyle.Bold, Top: 2}))
	m.AddRows(text.NewRow(5, inv.ClientInfo.Name, props.Text{Size: 9}))
	for _, l := range strings.Split(inv.ClientInfo.Address, "\n") {
		if l == "" {
			continue
		}
		m.AddRows(text.NewRow(5, l, props.Text{Size: 9}))
	}
	m.AddRows(text.NewRow(5, "Email: "+inv.ClientInfo.Email, props.Text{Size: 9}))
}

func (r *Renderer) buildLineItems(m core.Maroto, inv *models.Invoice) {
	white := props.Color{Red: 255, Green: 255, Blue: 255}
	header := row.New(8).Add(
		text.NewCol(4, "Description", props.Text{Size: 9, Style: fontstyle.Bold, Color: &white, Align: align.Center}),
		text.NewCol(1, "Days", props.Text{Size: 9, Style: fontstyle.Bold, Color: &white, Align: align.Center}),
		text.NewCol(2, "Hours/Day", props.Text{Size: 9, Style: fontstyle.Bold, Color: &white, Align: align.Center}),
		text.NewCol(2, "Rate/Hour", props.Text{Size: 9, Style: fontstyle.Bold, Color: &white, Align: align.Center}),
		text.NewCol(1, "Hours", props.Text{Size: 9, Style: fontstyle.Bold, Color: &white, Align: align.Center}),
		text.NewCol(2, "Amount", props.Text{Size: 9, Style: fontstyle.Bold, Color: &white, Align: align.Center}),
	).WithStyle(&props.Cell{BackgroundColor: &headerColor})
	rows := []core.Row{header}

	// Rates come from the invoice snapshot, not the live settings, so the
	// rendered document always agrees with its own amounts.
	for i, li := range inv.LineItems {
		totalHours := li.Quantity * inv.HoursPerDay
		item := row.New(7).Add(
			text.NewCol(4, li.Description, props.Text{Size: 8}),
			text.NewCol(1, fmt.Sprintf("%.0f", li.Quantity), props.Text{Size: 8, Align: align.Center}),
			text.NewCol(2, fmt.Sprintf("%.1f", inv.HoursPerDay), props.Text{Size: 8, Align: align.Center}),
			text.NewCol(2, r.money(inv.HourlyRate), props.Text{Size: 8, Align: align.Center}),
			text.NewCol(1, fmt.Sprintf("%.1f", totalHours), props.Text{Size: 8, Align: align.Center}),
			text.NewCol(2, r.money(li.Amount), props.Text{Size: 8, Align: align.Right}),
		)
		if i%2 == 1 {
			item.WithStyle(&props.Cell{BackgroundColor: &stripeColor})
		}
		rows = append(rows, item)
	}
	m.AddRows(rows...)
}

func (r *Renderer) buildTotals(m core.Maroto, inv *models.Invoice) {
	m.AddRow(8,
		col.New(7),
		text.NewCol(3, "Subtotal:", props.Text{Size: 10, Style: fontstyle.Bold, Align: align.Right, Top: 2}),
		text.NewCol(2, r.money(inv.Subtotal), props.Text{Size: 10, Align: align.Right, Top: 2}),
	)
	if inv.TaxRate > 0 {
		m.AddRow(7,
			col.New(7),
			text.NewCol(3, fmt.Sprintf("Tax (%.1f%%):", inv.TaxRate*100), props.Text{Size: 10, Style: fontstyle.Bold, Align: align.Right}),
			text.NewCol(2, r.money(inv.TaxAmount), props.Text{Size: 10, Align: align.Right}),
		)
	}
	m.AddRow(9,
		col.New(7),
		text.NewCol(3, "Total Amount Due:", props.Text{Size: 11, Style: fontstyle.Bold, Align: align.Right, Color: &accentColor}),
		text.NewCol(2, r.money(inv.TotalAmount), props.Text{Size: 11, Style: fontstyle.Bold, Align: align.Right, Color: &accentColor}),
	)
}

func (r *Renderer) buildFooter(m core.Maroto, inv *models.Invoice) {
	m.AddRows(text.NewRow(8, "Payment Terms:", props.Text{Size: 10, Style: fontstyle.Bold, Top: 4}))
	m.AddRows(text.NewRow(8, inv.PaymentTerms, props.Text{Size: 9}))
	if inv.ThankYouNote != "" {
		m.AddRows(text.NewRow(10, inv.ThankYouNote, props.Text{Size: 9, Top: 4}))
	}
}
