package pdf

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/diewo77/invoicer/internal/config"
	"github.com/diewo77/invoicer/internal/models"
)

func renderable() *models.Invoice {
	return &models.Invoice{
		InvoiceNumber: "INV-202410-ACM",
		InvoiceDate:   time.Date(2024, time.October, 5, 0, 0, 0, 0, time.UTC),
		ClientInfo: models.InvoiceClientInfo{
			Name:       "Acme Corporation",
			Email:      "billing@acme-corp.com",
			ClientCode: "ACM",
			Address:    "123 Business Ave\nNew York, NY 10001",
		},
		LineItems: []models.LineItem{{
			Description: "Consulting services for October 2024",
			Quantity:    20,
			UnitType:    "days",
			Rate:        600,
			Amount:      12000,
		}},
		HoursPerDay: 8,
		HourlyRate:  75,
		Subtotal:    12000,
		TaxRate:     0.21,
		TaxAmount:   2520,
		TotalAmount: 14520,
	}
}

func TestRenderWritesPDFAndSidecar(t *testing.T) {
	cfg := config.Defaults()
	cfg.InvoicesDir = t.TempDir()
	// Settings rates diverging from the invoice must not leak into the output.
	cfg.HourlyRate = 999
	cfg.HoursPerDay = 1

	path, err := NewRenderer(cfg).Render(renderable())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if want := "Invoice_INV-202410-ACM.pdf"; !strings.HasSuffix(path, want) {
		t.Errorf("path = %q, want suffix %q", path, want)
	}
	if !strings.Contains(path, "2024") || !strings.Contains(path, "ACM") {
		t.Errorf("path = %q, want year/code directories", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read rendered file: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Error("rendered file is not a PDF")
	}

	sidecar := strings.TrimSuffix(path, ".pdf") + ".json"
	raw, err := os.ReadFile(sidecar)
	if err != nil {
		t.Fatalf("read sidecar: %v", err)
	}
	var got models.Invoice
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("parse sidecar: %v", err)
	}
	if got.InvoiceNumber != "INV-202410-ACM" || got.TotalAmount != 14520 {
		t.Errorf("sidecar = %+v", got)
	}
	if got.HoursPerDay != 8 || got.HourlyRate != 75 {
		t.Errorf("sidecar rates = %.1f/%.2f, want the invoice snapshot 8/75", got.HoursPerDay, got.HourlyRate)
	}
}

func TestRenderRejectsInvalidInvoice(t *testing.T) {
	cfg := config.Defaults()
	cfg.InvoicesDir = t.TempDir()

	inv := renderable()
	inv.TotalAmount = 99999
	if _, err := NewRenderer(cfg).Render(inv); !errors.Is(err, models.ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}

	if entries, _ := os.ReadDir(cfg.InvoicesDir); len(entries) != 0 {
		t.Error("invalid invoice left files behind")
	}
}
