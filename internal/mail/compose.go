package mail

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/diewo77/invoicer/internal/config"
	"github.com/diewo77/invoicer/internal/models"
)

var invoiceBodyTmpl = template.Must(template.New("invoice_email").Parse(`
<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <h2 style="color: #2E86AB;">Invoice for {{.Period}} Services</h2>

    <p>Dear {{.ClientName}},</p>

    <p>I hope this email finds you well. Please find attached the invoice for the consulting services provided during <strong>{{.Period}}</strong>.</p>

    <div style="background-color: #f8f9fa; padding: 15px; border-left: 4px solid #2E86AB; margin: 20px 0;">
      <p style="margin: 0;"><strong>Invoice Details:</strong></p>
      <ul style="margin: 10px 0;">
        <li>Invoice Number: <strong>{{.InvoiceNumber}}</strong></li>
        <li>Total Amount Due: <strong>{{.TotalAmount}}</strong></li>
        <li>Payment Terms: Net 30 days</li>
      </ul>
    </div>

    <p>The invoice includes detailed information about the days worked, hours, and rates. Payment can be made via your preferred method, and please reference the invoice number when making payment.</p>

    <p>If you have any questions about this invoice or need any clarification, please don't hesitate to reach out to me.</p>

    <p>Thank you for your continued business and trust in my services.</p>

    <p>Best regards,<br>
    <strong>{{.CompanyName}}</strong><br>
    {{.CompanyEmail}}<br>
    {{.CompanyPhone}}</p>
  </div>
</body>
</html>
`))

// ComposeInvoiceBody renders the HTML email body for an invoice.
func ComposeInvoiceBody(cfg config.Settings, inv *models.Invoice) (string, error) {
	var b strings.Builder
	err := invoiceBodyTmpl.Execute(&b, map[string]string{
		"ClientName":    inv.ClientInfo.Name,
		"InvoiceNumber": inv.InvoiceNumber,
		"TotalAmount":   fmt.Sprintf("%s%.2f", cfg.CurrencySymbol, inv.TotalAmount),
		"Period":        inv.Period,
		"CompanyName":   cfg.CompanyName,
		"CompanyEmail":  cfg.CompanyEmail,
		"CompanyPhone":  cfg.CompanyPhone,
	})
	if err != nil {
		return "", fmt.Errorf("render email body: %w", err)
	}
	return b.String(), nil
}

// InvoiceSubject builds the subject line for an invoice email.
func InvoiceSubject(inv *models.Invoice) string {
	return fmt.Sprintf("Invoice %s - %s Services", inv.InvoiceNumber, inv.Period)
}
