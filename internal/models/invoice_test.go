package models

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func validInvoice() Invoice {
	return Invoice{
		InvoiceNumber: "INV-202410-ACM",
		InvoiceDate:   time.Date(2024, time.October, 5, 0, 0, 0, 0, time.UTC),
		ClientInfo: InvoiceClientInfo{
			Name:       "Acme Corporation",
			Email:      "billing@acme-corp.com",
			ClientCode: "ACM",
		},
		LineItems: []LineItem{{
			Description: "Consulting services for October 2024",
			Quantity:    20,
			UnitType:    "days",
			Rate:        600,
			Amount:      12000,
		}},
		Subtotal:    12000,
		TaxRate:     0.21,
		TaxAmount:   2520,
		TotalAmount: 14520,
	}
}

func TestInvoiceValidateDefaults(t *testing.T) {
	inv := validInvoice()
	if err := inv.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if inv.DueDate != "Net 30 days" {
		t.Errorf("due date = %q, want default", inv.DueDate)
	}
	if inv.PaymentTerms != DefaultPaymentTerms {
		t.Errorf("payment terms = %q, want default", inv.PaymentTerms)
	}
}

func TestInvoiceValidateRejectsBrokenMath(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Invoice)
	}{
		{"tax amount off", func(inv *Invoice) { inv.TaxAmount = 2000 }},
		{"total off", func(inv *Invoice) { inv.TotalAmount = 15000 }},
		{"subtotal off line items", func(inv *Invoice) {
			inv.Subtotal = 10000
			inv.TaxAmount = 2100
			inv.TotalAmount = 12100
		}},
		{"line item amount off", func(inv *Invoice) { inv.LineItems[0].Amount = 11000 }},
		{"missing number", func(inv *Invoice) { inv.InvoiceNumber = "" }},
		{"negative tax rate", func(inv *Invoice) { inv.TaxRate = -0.1 }},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			inv := validInvoice()
			c.mutate(&inv)
			if err := inv.Validate(); !errors.Is(err, ErrValidation) {
				t.Errorf("err = %v, want ErrValidation", err)
			}
		})
	}
}

func TestInvoiceValidateTolerance(t *testing.T) {
	inv := validInvoice()
	inv.TaxAmount = 2520.005
	inv.TotalAmount = 14520.005
	if err := inv.Validate(); err != nil {
		t.Errorf("sub-cent drift rejected: %v", err)
	}
}

func TestLineItemValidate(t *testing.T) {
	li := LineItem{Description: "Work", Quantity: 3, Rate: 100, Amount: 300}
	if err := li.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if li.UnitType != "days" {
		t.Errorf("unit type = %q, want default days", li.UnitType)
	}

	li.Amount = 299.995
	if err := li.Validate(); err != nil {
		t.Errorf("within tolerance rejected: %v", err)
	}
	li.Amount = 299
	if err := li.Validate(); !errors.Is(err, ErrValidation) {
		t.Errorf("out of tolerance: err = %v, want ErrValidation", err)
	}
	li = LineItem{Description: "Free", Quantity: 1, Rate: 0, Amount: 0}
	if err := li.Validate(); !errors.Is(err, ErrValidation) {
		t.Errorf("zero rate: err = %v, want ErrValidation", err)
	}
}

func TestInvoiceSummary(t *testing.T) {
	inv := validInvoice()
	inv.ClientInfo.ClientID = "acme_corporation"
	if err := inv.Validate(); err != nil {
		t.Fatal(err)
	}
	sum := inv.Summary()
	if sum.InvoiceNumber != inv.InvoiceNumber || sum.ClientName != "Acme Corporation" ||
		sum.ClientID != "acme_corporation" || sum.TotalAmount != 14520 {
		t.Errorf("summary = %+v", sum)
	}
	if !strings.Contains(sum.DueDate, "30") {
		t.Errorf("summary due date = %q", sum.DueDate)
	}
}
