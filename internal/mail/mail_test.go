package mail

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"github.com/diewo77/invoicer/internal/config"
	"github.com/diewo77/invoicer/internal/models"
)

func testInvoice() *models.Invoice {
	return &models.Invoice{
		InvoiceNumber: "INV-202410-ACM",
		Period:        "October 2024",
		TotalAmount:   14520,
		ClientInfo: models.InvoiceClientInfo{
			Name:  "Acme Corporation",
			Email: "billing@acme-corp.com",
		},
	}
}

func TestComposeInvoiceBody(t *testing.T) {
	cfg := config.Defaults()
	cfg.CompanyName = "Freelance Co"
	body, err := ComposeInvoiceBody(cfg, testInvoice())
	if err != nil {
		t.Fatalf("ComposeInvoiceBody: %v", err)
	}
	for _, want := range []string{
		"Dear Acme Corporation",
		"INV-202410-ACM",
		"October 2024",
		"€14520.00",
		"Freelance Co",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q", want)
		}
	}
}

func TestInvoiceSubject(t *testing.T) {
	got := InvoiceSubject(testInvoice())
	want := "Invoice INV-202410-ACM - October 2024 Services"
	if got != want {
		t.Errorf("subject = %q, want %q", got, want)
	}
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestConfigured(t *testing.T) {
	cfg := config.Defaults()
	s := NewSender(cfg, quietLogger())
	if s.Configured() {
		t.Error("empty credentials reported configured")
	}

	cfg.MicrosoftClientID = "id"
	cfg.MicrosoftClientSecret = "secret"
	cfg.MicrosoftTenantID = "tenant"
	if !NewSender(cfg, quietLogger()).Configured() {
		t.Error("full credentials reported unconfigured")
	}
}

func TestSendRequiresAuthentication(t *testing.T) {
	s := NewSender(config.Defaults(), quietLogger())
	err := s.Send(context.Background(), "a@b.com", "subj", "<p>body</p>", "")
	if !errors.Is(err, ErrNotAuthenticated) {
		t.Errorf("err = %v, want ErrNotAuthenticated", err)
	}
}

func TestAuthenticateUnconfigured(t *testing.T) {
	s := NewSender(config.Defaults(), quietLogger())
	if err := s.Authenticate(context.Background()); !errors.Is(err, ErrNotAuthenticated) {
		t.Errorf("err = %v, want ErrNotAuthenticated", err)
	}
}

func TestSendPostsGraphPayload(t *testing.T) {
	var got graphMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	attachment := filepath.Join(t.TempDir(), "Invoice_X.pdf")
	if err := os.WriteFile(attachment, []byte("%PDF-1.4"), 0o644); err != nil {
		t.Fatal(err)
	}

	s := NewSender(config.Defaults(), quietLogger())
	s.endpoint = srv.URL
	s.token = &oauth2.Token{AccessToken: "test-token"}

	if err := s.Send(context.Background(), "billing@acme-corp.com", "Invoice", "<p>hi</p>", attachment); err != nil {
		t.Fatalf("Send: %v", err)
	}

	m := got.Message
	if m.Subject != "Invoice" {
		t.Errorf("subject = %q", m.Subject)
	}
	if len(m.ToRecipients) != 1 || m.ToRecipients[0].EmailAddress.Address != "billing@acme-corp.com" {
		t.Errorf("recipients = %+v", m.ToRecipients)
	}
	if m.Body.ContentType != "HTML" {
		t.Errorf("body content type = %q", m.Body.ContentType)
	}
	if len(m.Attachments) != 1 {
		t.Fatalf("attachments = %d, want 1", len(m.Attachments))
	}
	att := m.Attachments[0]
	if att.ODataType != "#microsoft.graph.fileAttachment" || att.ContentType != "application/pdf" {
		t.Errorf("attachment = %+v", att)
	}
	if att.Name != "Invoice_X.pdf" || att.Size != int64(len("%PDF-1.4")) {
		t.Errorf("attachment name/size = %s/%d", att.Name, att.Size)
	}
}

func TestSendReportsDeliveryFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"InvalidAuthenticationToken"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	s := NewSender(config.Defaults(), quietLogger())
	s.endpoint = srv.URL
	s.token = &oauth2.Token{AccessToken: "stale"}

	err := s.Send(context.Background(), "a@b.com", "subj", "body", "")
	if !errors.Is(err, ErrDelivery) {
		t.Fatalf("err = %v, want ErrDelivery", err)
	}
	if !strings.Contains(err.Error(), "401") {
		t.Errorf("error %q does not name the status", err)
	}
}

func TestAttachmentContentType(t *testing.T) {
	cases := []struct{ path, want string }{
		{"invoice.pdf", "application/pdf"},
		{"INVOICE.PDF", "application/pdf"},
		{"notes.txt", "text/plain"},
		{"page.html", "text/html"},
		{"data.bin", "application/octet-stream"},
	}
	for _, c := range cases {
		if got := attachmentContentType(c.path); got != c.want {
			t.Errorf("attachmentContentType(%q) = %q, want %q", c.path, got, c.want)
		}
	}
}
