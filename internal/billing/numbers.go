package billing

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// maxSuffixAttempts bounds the duplicate-number suffix scan before the
// time-of-day fallback takes over.
const maxSuffixAttempts = 999

// InvoicePath is the location the renderer will write an invoice to:
// <root>/<year>/<clientCode>/Invoice_<number>.pdf.
func InvoicePath(invoicesRoot, clientCode, number string, date time.Time) string {
	return filepath.Join(invoicesRoot, strconv.Itoa(date.Year()), clientCode,
		"Invoice_"+number+".pdf")
}

// InvoiceExists reports whether a rendered document already occupies the path
// the given number would produce.
func InvoiceExists(invoicesRoot, clientCode, number string, date time.Time) bool {
	_, err := os.Stat(InvoicePath(invoicesRoot, clientCode, number, date))
	return err == nil
}

// AlternativeNumber proposes a free invoice number when the original is
// taken, scanning -001, -002, ... upward. After 999 attempts it falls back to
// a time-of-day suffix so the search always terminates.
func AlternativeNumber(invoicesRoot, clientCode, number string, date time.Time) string {
	for i := 1; i <= maxSuffixAttempts; i++ {
		candidate := fmt.Sprintf("%s-%03d", number, i)
		if !InvoiceExists(invoicesRoot, clientCode, candidate, date) {
			return candidate
		}
	}
	return fmt.Sprintf("%s-%s", number, time.Now().Format("150405"))
}
