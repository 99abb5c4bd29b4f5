package models

import (
	"fmt"
	"math"
	"time"
)

// amountTolerance absorbs float rounding when cross-checking money fields.
const amountTolerance = 0.01

// LineItem is a single billed line on an invoice.
type LineItem struct {
	Description string  `json:"description" validate:"required"`
	Quantity    float64 `json:"quantity" validate:"gt=0"`
	UnitType    string  `json:"unit_type"`
	Rate        float64 `json:"rate" validate:"gt=0"`
	Amount      float64 `json:"amount" validate:"min=0"`
}

// Validate checks the amount against quantity times rate.
func (li *LineItem) Validate() error {
	if li.UnitType == "" {
		li.UnitType = "days"
	}
	if err := validate.Struct(li); err != nil {
		return wrapFieldErrors(err)
	}
	expected := li.Quantity * li.Rate
	if math.Abs(li.Amount-expected) > amountTolerance {
		return fmt.Errorf("%w: amount %.2f doesn't match quantity %.2f * rate %.2f = %.2f",
			ErrValidation, li.Amount, li.Quantity, li.Rate, expected)
	}
	return nil
}

// InvoiceClientInfo is the client snapshot embedded in an invoice. It is a
// copy of the client record at generation time, never a live reference, so a
// historical invoice stays stable when the client record changes.
type InvoiceClientInfo struct {
	Name       string `json:"name" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	ClientCode string `json:"client_code" validate:"required,min=1,max=10"`
	Address    string `json:"address,omitempty"`
	ClientID   string `json:"client_id,omitempty"`
}

// DefaultPaymentTerms is used when the caller supplies none.
const DefaultPaymentTerms = "Payment is due within 30 days of invoice date. Late payments may incur additional charges."

// Invoice is the validated value object produced once per generation request.
// It is persisted as a rendered document plus a JSON sidecar and never flows
// back through the client store's mutation path.
type Invoice struct {
	InvoiceNumber string            `json:"invoice_number" validate:"required"`
	InvoiceDate   time.Time         `json:"invoice_date"`
	DueDate       string            `json:"due_date"`
	ClientInfo    InvoiceClientInfo `json:"client_info"`
	LineItems     []LineItem        `json:"line_items"`

	DaysWorked         int     `json:"days_worked,omitempty"`
	HoursPerDay        float64 `json:"hours_per_day,omitempty"`
	HourlyRate         float64 `json:"hourly_rate,omitempty"`
	ProjectDescription string  `json:"project_description,omitempty"`
	Period             string  `json:"period,omitempty"`

	Subtotal    float64 `json:"subtotal" validate:"min=0"`
	TaxRate     float64 `json:"tax_rate" validate:"min=0,max=1"`
	TaxAmount   float64 `json:"tax_amount" validate:"min=0"`
	TotalAmount float64 `json:"total_amount" validate:"min=0"`

	PaymentTerms string `json:"payment_terms"`
	ThankYouNote string `json:"thank_you_note,omitempty"`
}

// Validate enforces the invoice invariants. These are construction gates, not
// computed-on-read properties: a violated invariant fails the whole invoice.
func (inv *Invoice) Validate() error {
	if inv.DueDate == "" {
		inv.DueDate = "Net 30 days"
	}
	if inv.PaymentTerms == "" {
		inv.PaymentTerms = DefaultPaymentTerms
	}
	if err := validate.Struct(inv); err != nil {
		return wrapFieldErrors(err)
	}
	for i := range inv.LineItems {
		if err := inv.LineItems[i].Validate(); err != nil {
			return fmt.Errorf("line item %d: %w", i+1, err)
		}
	}
	if len(inv.LineItems) > 0 {
		var sum float64
		for _, li := range inv.LineItems {
			sum += li.Amount
		}
		if math.Abs(inv.Subtotal-sum) > amountTolerance {
			return fmt.Errorf("%w: subtotal %.2f doesn't match sum of line items %.2f",
				ErrValidation, inv.Subtotal, sum)
		}
	}
	if expected := inv.Subtotal * inv.TaxRate; math.Abs(inv.TaxAmount-expected) > amountTolerance {
		return fmt.Errorf("%w: tax amount %.2f doesn't match subtotal %.2f * tax rate %.2f = %.2f",
			ErrValidation, inv.TaxAmount, inv.Subtotal, inv.TaxRate, expected)
	}
	if expected := inv.Subtotal + inv.TaxAmount; math.Abs(inv.TotalAmount-expected) > amountTolerance {
		return fmt.Errorf("%w: total %.2f doesn't match subtotal %.2f + tax %.2f",
			ErrValidation, inv.TotalAmount, inv.Subtotal, inv.TaxAmount)
	}
	return nil
}

// InvoiceSummary is the subset of invoice fields shown in listings.
type InvoiceSummary struct {
	InvoiceNumber string    `json:"invoice_number"`
	InvoiceDate   time.Time `json:"invoice_date"`
	ClientName    string    `json:"client_name"`
	ClientID      string    `json:"client_id,omitempty"`
	TotalAmount   float64   `json:"total_amount"`
	DueDate       string    `json:"due_date"`
}

// Summary projects the listing fields out of a full invoice.
func (inv *Invoice) Summary() InvoiceSummary {
	return InvoiceSummary{
		InvoiceNumber: inv.InvoiceNumber,
		InvoiceDate:   inv.InvoiceDate,
		ClientName:    inv.ClientInfo.Name,
		ClientID:      inv.ClientInfo.ClientID,
		TotalAmount:   inv.TotalAmount,
		DueDate:       inv.DueDate,
	}
}
