// Package billing holds the pure invoice computations: number templating,
// financial totals and construction of the validated invoice value object.
// Nothing here touches the client store; the only state it reads is the
// rendered-invoice directory used as the duplicate-number oracle.
package billing

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/diewo77/invoicer/internal/config"
	"github.com/diewo77/invoicer/internal/models"
)

// Calculator computes invoice numbers and amounts from the active settings.
// It is stateless per call.
type Calculator struct {
	cfg config.Settings
}

func NewCalculator(cfg config.Settings) *Calculator {
	return &Calculator{cfg: cfg}
}

// Round2 rounds a money amount to two decimal places.
func Round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

// Totals is the financial breakdown of an invoice.
type Totals struct {
	Subtotal  float64
	TaxAmount float64
	Total     float64
}

// ComputeTotals turns days worked into subtotal, tax and total using the
// given rates. Each figure is rounded to two decimals.
func ComputeTotals(daysWorked int, hoursPerDay, hourlyRate, taxRate float64) Totals {
	subtotal := Round2(float64(daysWorked) * hoursPerDay * hourlyRate)
	tax := Round2(subtotal * taxRate)
	return Totals{
		Subtotal:  subtotal,
		TaxAmount: tax,
		Total:     Round2(subtotal + tax),
	}
}

// Totals applies the configured rates to days worked.
func (c *Calculator) Totals(daysWorked int, taxRate float64) Totals {
	return ComputeTotals(daysWorked, c.cfg.HoursPerDay, c.cfg.HourlyRate, taxRate)
}

// DailyRate is the configured rate for one working day.
func (c *Calculator) DailyRate() float64 {
	return c.cfg.HoursPerDay * c.cfg.HourlyRate
}

// GenerateInvoiceNumber substitutes the recognized placeholders into the
// template. The sequential {invoice_number} placeholder always renders 001;
// uniqueness on disk is handled by the duplicate-avoidance scan instead of a
// persisted counter. A template with an unrecognized placeholder falls back
// to INV-<yyyymm>-<clientCode>.
func GenerateInvoiceNumber(template, clientCode string, date time.Time) string {
	r := strings.NewReplacer(
		"{year}", strconv.Itoa(date.Year()),
		"{month:02d}", fmt.Sprintf("%02d", int(date.Month())),
		"{month}", strconv.Itoa(int(date.Month())),
		"{day:02d}", fmt.Sprintf("%02d", date.Day()),
		"{day}", strconv.Itoa(date.Day()),
		"{client_code}", clientCode,
		"{invoice_number}", "001",
	)
	number := r.Replace(template)
	if strings.ContainsAny(number, "{}") {
		return fmt.Sprintf("INV-%s-%s", date.Format("200601"), clientCode)
	}
	return number
}

// InvoiceNumber renders the configured template for a client and date.
func (c *Calculator) InvoiceNumber(clientCode string, date time.Time) string {
	return GenerateInvoiceNumber(c.cfg.InvoiceNumberTemplate, clientCode, date)
}

// InvoiceParams is the input to BuildInvoice.
type InvoiceParams struct {
	Client             *models.Client
	InvoiceNumber      string
	InvoiceDate        time.Time
	DaysWorked         int
	Period             string
	ProjectDescription string
	TaxRate            float64
}

// BuildInvoice assembles and validates the full invoice value object. The
// client fields are copied in, not referenced. When days were worked a single
// line item describes the period at the configured daily rate.
func (c *Calculator) BuildInvoice(p InvoiceParams) (*models.Invoice, error) {
	if p.Client == nil {
		return nil, fmt.Errorf("%w: client is required", models.ErrValidation)
	}
	if p.InvoiceDate.IsZero() {
		p.InvoiceDate = time.Now()
	}
	if p.Period == "" {
		p.Period = p.InvoiceDate.Format("January 2006")
	}
	if p.ProjectDescription == "" {
		p.ProjectDescription = "Consulting services for " + p.Period
	}
	if p.InvoiceNumber == "" {
		p.InvoiceNumber = c.InvoiceNumber(p.Client.ClientCode, p.InvoiceDate)
	}

	totals := c.Totals(p.DaysWorked, p.TaxRate)

	var items []models.LineItem
	if p.DaysWorked > 0 {
		items = append(items, models.LineItem{
			Description: p.ProjectDescription,
			Quantity:    float64(p.DaysWorked),
			UnitType:    "days",
			Rate:        Round2(c.DailyRate()),
			Amount:      totals.Subtotal,
		})
	}

	inv := &models.Invoice{
		InvoiceNumber: p.InvoiceNumber,
		InvoiceDate:   p.InvoiceDate,
		ClientInfo: models.InvoiceClientInfo{
			Name:       p.Client.Name,
			Email:      p.Client.Email,
			ClientCode: p.Client.ClientCode,
			Address:    p.Client.Address,
			ClientID:   p.Client.ID,
		},
		LineItems:          items,
		DaysWorked:         p.DaysWorked,
		HoursPerDay:        c.cfg.HoursPerDay,
		HourlyRate:         c.cfg.HourlyRate,
		ProjectDescription: p.ProjectDescription,
		Period:             p.Period,
		Subtotal:           totals.Subtotal,
		TaxRate:            p.TaxRate,
		TaxAmount:          totals.TaxAmount,
		TotalAmount:        totals.Total,
		ThankYouNote: fmt.Sprintf(
			"Thank you for your business! For questions about this invoice, please contact us at %s or %s.",
			c.cfg.CompanyEmail, c.cfg.CompanyPhone),
	}
	if err := inv.Validate(); err != nil {
		return nil, err
	}
	return inv, nil
}
