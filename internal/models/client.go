package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// ErrValidation marks input that failed a construction-time check. Callers can
// test for it with errors.Is to distinguish bad input from a missing record.
var ErrValidation = errors.New("validation failed")

var validate = validator.New(validator.WithRequiredStructEnabled())

// Client is a billing party. ID and CreatedDate are immutable after creation;
// the invoice counters only ever grow.
type Client struct {
	ID              string     `json:"id" validate:"required"`
	Name            string     `json:"name" validate:"required"`
	Email           string     `json:"email" validate:"required,email"`
	ClientCode      string     `json:"client_code" validate:"required,min=1,max=10"`
	Address         string     `json:"address,omitempty"`
	Phone           string     `json:"phone,omitempty"`
	VATNumber       string     `json:"vat_number,omitempty"`
	Notes           string     `json:"notes,omitempty"`
	CreatedDate     time.Time  `json:"created_date"`
	LastInvoiceDate *time.Time `json:"last_invoice_date"`
	TotalInvoices   int        `json:"total_invoices" validate:"min=0"`
	TotalAmount     float64    `json:"total_amount" validate:"min=0"`
}

// Normalize trims the name and forces the client code to uppercase.
// The code is stored uppercase regardless of input case.
func (c *Client) Normalize() {
	c.Name = strings.TrimSpace(c.Name)
	c.ClientCode = strings.ToUpper(strings.TrimSpace(c.ClientCode))
}

// Validate normalizes the record and checks required fields and bounds.
func (c *Client) Validate() error {
	c.Normalize()
	if err := validate.Struct(c); err != nil {
		return wrapFieldErrors(err)
	}
	return nil
}

// DefaultClientCode derives the default code from a client name: the first
// three characters, uppercased. Characters, not bytes, so multibyte names
// yield a full three-letter code.
func DefaultClientCode(name string) string {
	r := []rune(strings.TrimSpace(name))
	if len(r) > 3 {
		r = r[:3]
	}
	return strings.ToUpper(string(r))
}

// ClientSummary is the slice of Client used for listings and search. It is
// rebuilt from the authoritative record files on every index rebuild and is
// never persisted on its own.
type ClientSummary struct {
	ID              string     `json:"id" validate:"required"`
	Name            string     `json:"name" validate:"required"`
	Email           string     `json:"email" validate:"required,email"`
	ClientCode      string     `json:"client_code" validate:"required"`
	CreatedDate     time.Time  `json:"created_date"`
	LastInvoiceDate *time.Time `json:"last_invoice_date"`
	TotalInvoices   int        `json:"total_invoices"`
}

// Validate reports whether the summary carries everything a listing needs.
func (s *ClientSummary) Validate() error {
	if err := validate.Struct(s); err != nil {
		return wrapFieldErrors(err)
	}
	return nil
}

// Summary projects the listing fields out of a full client record.
func (c *Client) Summary() ClientSummary {
	return ClientSummary{
		ID:              c.ID,
		Name:            c.Name,
		Email:           c.Email,
		ClientCode:      c.ClientCode,
		CreatedDate:     c.CreatedDate,
		LastInvoiceDate: c.LastInvoiceDate,
		TotalInvoices:   c.TotalInvoices,
	}
}

// Project is a unit of work under exactly one client. Its ID always starts
// with the owning client's ID followed by an underscore, and its record file
// lives inside the client's storage subtree.
type Project struct {
	ID          string    `json:"id" validate:"required"`
	Name        string    `json:"name" validate:"required"`
	ClientID    string    `json:"client_id" validate:"required"`
	CreatedDate time.Time `json:"created_date"`
}

func (p *Project) Validate() error {
	if err := validate.Struct(p); err != nil {
		return wrapFieldErrors(err)
	}
	if !strings.HasPrefix(p.ID, p.ClientID+"_") {
		return fmt.Errorf("%w: project id %q does not start with client id %q", ErrValidation, p.ID, p.ClientID)
	}
	return nil
}

func wrapFieldErrors(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fmt.Sprintf("%s: %s", strings.ToLower(fe.Field()), fe.Tag()))
		}
		return fmt.Errorf("%w: %s", ErrValidation, strings.Join(fields, ", "))
	}
	return fmt.Errorf("%w: %v", ErrValidation, err)
}
