package billing

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/diewo77/invoicer/internal/config"
	"github.com/diewo77/invoicer/internal/models"
)

var october = time.Date(2024, time.October, 5, 12, 0, 0, 0, time.UTC)

func TestGenerateInvoiceNumber(t *testing.T) {
	cases := []struct {
		name     string
		template string
		want     string
	}{
		{"default template", "INV-{year}{month:02d}-{client_code}", "INV-202410-ACM"},
		{"unpadded month", "{year}-{month}-{client_code}", "2024-10-ACM"},
		{"padded day", "{year}{month:02d}{day:02d}", "20241005"},
		{"unpadded day", "D{day}", "D5"},
		{"sequential placeholder", "INV-{invoice_number}", "INV-001"},
		{"no placeholders", "FIXED", "FIXED"},
		{"unknown placeholder falls back", "INV-{quarter}-{client_code}", "INV-202410-ACM"},
		{"unbalanced braces fall back", "INV-{year", "INV-202410-ACM"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := GenerateInvoiceNumber(c.template, "ACM", october); got != c.want {
				t.Errorf("GenerateInvoiceNumber(%q) = %q, want %q", c.template, got, c.want)
			}
		})
	}
}

func TestComputeTotals(t *testing.T) {
	got := ComputeTotals(20, 8, 75, 0.21)
	if got.Subtotal != 12000.00 {
		t.Errorf("subtotal = %.2f, want 12000.00", got.Subtotal)
	}
	if got.TaxAmount != 2520.00 {
		t.Errorf("tax = %.2f, want 2520.00", got.TaxAmount)
	}
	if got.Total != 14520.00 {
		t.Errorf("total = %.2f, want 14520.00", got.Total)
	}
}

func TestTotalsConsistency(t *testing.T) {
	cases := []struct {
		days             int
		hours, rate, tax float64
	}{
		{1, 8, 75, 0},
		{20, 8, 75, 0.21},
		{3, 7.5, 92.33, 0.19},
		{15, 6, 110.10, 1},
	}
	for _, c := range cases {
		got := ComputeTotals(c.days, c.hours, c.rate, c.tax)
		if math.Abs(got.Total-(got.Subtotal+got.TaxAmount)) > 0.01 {
			t.Errorf("ComputeTotals(%+v): total %.2f != subtotal %.2f + tax %.2f",
				c, got.Total, got.Subtotal, got.TaxAmount)
		}
		if math.Abs(got.TaxAmount-got.Subtotal*c.tax) > 0.01 {
			t.Errorf("ComputeTotals(%+v): tax %.2f != subtotal %.2f * rate %.2f",
				c, got.TaxAmount, got.Subtotal, c.tax)
		}
	}
}

func TestRound2(t *testing.T) {
	cases := []struct{ in, want float64 }{
		{12000.004, 12000.00},
		{12000.005, 12000.01},
		{-1.005, -1.01},
		{0, 0},
	}
	for _, c := range cases {
		if got := Round2(c.in); got != c.want {
			t.Errorf("Round2(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func testClient() *models.Client {
	return &models.Client{
		ID:         "acme_corporation",
		Name:       "Acme Corporation",
		Email:      "billing@acme-corp.com",
		ClientCode: "ACM",
		Address:    "123 Business Ave",
	}
}

func TestBuildInvoice(t *testing.T) {
	calc := NewCalculator(config.Defaults())
	inv, err := calc.BuildInvoice(InvoiceParams{
		Client:      testClient(),
		InvoiceDate: october,
		DaysWorked:  20,
	})
	if err != nil {
		t.Fatalf("BuildInvoice: %v", err)
	}
	if inv.InvoiceNumber != "INV-202410-ACM" {
		t.Errorf("number = %q, want INV-202410-ACM", inv.InvoiceNumber)
	}
	if inv.Period != "October 2024" {
		t.Errorf("period = %q, want October 2024", inv.Period)
	}
	if !strings.Contains(inv.ProjectDescription, "October 2024") {
		t.Errorf("description = %q, want default mentioning the period", inv.ProjectDescription)
	}
	if len(inv.LineItems) != 1 {
		t.Fatalf("line items = %d, want 1", len(inv.LineItems))
	}
	li := inv.LineItems[0]
	if li.Quantity != 20 || li.UnitType != "days" || li.Rate != 600 {
		t.Errorf("line item = %+v, want 20 days at 600", li)
	}
	if inv.Subtotal != 12000 || inv.TotalAmount != 12000 {
		t.Errorf("subtotal/total = %.2f/%.2f, want 12000 each", inv.Subtotal, inv.TotalAmount)
	}
	if inv.ClientInfo.Name != "Acme Corporation" || inv.ClientInfo.ClientID != "acme_corporation" {
		t.Errorf("client snapshot = %+v", inv.ClientInfo)
	}
	if inv.HoursPerDay != 8 || inv.HourlyRate != 75 {
		t.Errorf("rate snapshot = %.1f/%.2f, want 8/75", inv.HoursPerDay, inv.HourlyRate)
	}
	if inv.DueDate == "" || inv.PaymentTerms == "" {
		t.Error("due date / payment terms defaults not applied")
	}
}

func TestBuildInvoiceZeroDays(t *testing.T) {
	calc := NewCalculator(config.Defaults())
	inv, err := calc.BuildInvoice(InvoiceParams{
		Client:      testClient(),
		InvoiceDate: october,
	})
	if err != nil {
		t.Fatalf("BuildInvoice: %v", err)
	}
	if len(inv.LineItems) != 0 {
		t.Errorf("line items = %d, want none for zero days", len(inv.LineItems))
	}
	if inv.TotalAmount != 0 {
		t.Errorf("total = %.2f, want 0", inv.TotalAmount)
	}
}

func TestBuildInvoiceWithTax(t *testing.T) {
	calc := NewCalculator(config.Defaults())
	inv, err := calc.BuildInvoice(InvoiceParams{
		Client:      testClient(),
		InvoiceDate: october,
		DaysWorked:  10,
		TaxRate:     0.21,
	})
	if err != nil {
		t.Fatalf("BuildInvoice: %v", err)
	}
	if inv.TaxAmount != 1260 || inv.TotalAmount != 7260 {
		t.Errorf("tax/total = %.2f/%.2f, want 1260/7260", inv.TaxAmount, inv.TotalAmount)
	}
}

func TestBuildInvoiceNilClient(t *testing.T) {
	calc := NewCalculator(config.Defaults())
	if _, err := calc.BuildInvoice(InvoiceParams{}); !errors.Is(err, models.ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
}

func TestInvoicePath(t *testing.T) {
	got := InvoicePath("/inv", "ACM", "INV-202410-ACM", october)
	want := filepath.Join("/inv", "2024", "ACM", "Invoice_INV-202410-ACM.pdf")
	if got != want {
		t.Errorf("InvoicePath = %q, want %q", got, want)
	}
}

func touchInvoice(t *testing.T, root, code, number string, date time.Time) {
	t.Helper()
	path := InvoicePath(root, code, number, date)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("pdf"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestAlternativeNumber(t *testing.T) {
	root := t.TempDir()
	number := "INV-202410-ACM"

	if InvoiceExists(root, "ACM", number, october) {
		t.Fatal("fresh root reports an existing invoice")
	}

	touchInvoice(t, root, "ACM", number, october)
	if !InvoiceExists(root, "ACM", number, october) {
		t.Fatal("written invoice not detected")
	}

	if got := AlternativeNumber(root, "ACM", number, october); got != number+"-001" {
		t.Errorf("first alternative = %q, want %s-001", got, number)
	}
	touchInvoice(t, root, "ACM", number+"-001", october)
	if got := AlternativeNumber(root, "ACM", number, october); got != number+"-002" {
		t.Errorf("second alternative = %q, want %s-002", got, number)
	}
}
