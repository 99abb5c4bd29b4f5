package models

import (
	"errors"
	"testing"
	"time"
)

func TestDefaultClientCode(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Acme Corporation", "ACM"},
		{"ab", "AB"},
		{"  techstart  ", "TEC"},
		{"Ökostrom AG", "ÖKO"},
		{"日本商事株式会社", "日本商"},
		{"", ""},
	}
	for _, c := range cases {
		if got := DefaultClientCode(c.in); got != c.want {
			t.Errorf("DefaultClientCode(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestClientNormalize(t *testing.T) {
	c := Client{Name: "  Acme  ", ClientCode: " acm "}
	c.Normalize()
	if c.Name != "Acme" || c.ClientCode != "ACM" {
		t.Errorf("normalized = %q/%q, want Acme/ACM", c.Name, c.ClientCode)
	}
}

func TestClientValidate(t *testing.T) {
	valid := Client{
		ID:          "acme",
		Name:        "Acme",
		Email:       "a@acme.com",
		ClientCode:  "ACM",
		CreatedDate: time.Now(),
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Client)
	}{
		{"bad email", func(c *Client) { c.Email = "not-an-email" }},
		{"code too long", func(c *Client) { c.ClientCode = "ABCDEFGHIJK" }},
		{"negative invoices", func(c *Client) { c.TotalInvoices = -1 }},
		{"negative amount", func(c *Client) { c.TotalAmount = -0.5 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := valid
			tc.mutate(&c)
			if err := c.Validate(); !errors.Is(err, ErrValidation) {
				t.Errorf("err = %v, want ErrValidation", err)
			}
		})
	}
}

func TestProjectValidateIDPrefix(t *testing.T) {
	p := Project{
		ID:          "acme_website",
		Name:        "Website",
		ClientID:    "acme",
		CreatedDate: time.Now(),
	}
	if err := p.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	p.ClientID = "other"
	if err := p.Validate(); !errors.Is(err, ErrValidation) {
		t.Errorf("mismatched client id: err = %v, want ErrValidation", err)
	}
}

func TestMigrateLegacyClient(t *testing.T) {
	c := Client{Email: "a@b.com"}
	MigrateLegacyClient(map[string]any{"company": "Old Name"}, &c)
	if c.Name != "Old Name" {
		t.Errorf("name = %q, want legacy company value", c.Name)
	}

	// An explicit name wins over the legacy field.
	c = Client{Name: "New Name"}
	MigrateLegacyClient(map[string]any{"company": "Old Name"}, &c)
	if c.Name != "New Name" {
		t.Errorf("name = %q, want New Name", c.Name)
	}
}
