package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// envMap flattens the settings into the key=value form persisted to .env.
func (s *Settings) envMap() map[string]string {
	return map[string]string{
		"COMPANY_NAME":            s.CompanyName,
		"COMPANY_ADDRESS":         s.CompanyAddress,
		"COMPANY_EMAIL":           s.CompanyEmail,
		"COMPANY_PHONE":           s.CompanyPhone,
		"HOURLY_RATE":             strconv.FormatFloat(s.HourlyRate, 'f', -1, 64),
		"HOURS_PER_DAY":           strconv.FormatFloat(s.HoursPerDay, 'f', -1, 64),
		"CURRENCY":                s.Currency,
		"CURRENCY_SYMBOL":         s.CurrencySymbol,
		"VAT_RATE":                strconv.FormatFloat(s.VATRate, 'f', -1, 64),
		"INVOICE_NUMBER_TEMPLATE": s.InvoiceNumberTemplate,
		"MICROSOFT_CLIENT_ID":     s.MicrosoftClientID,
		"MICROSOFT_CLIENT_SECRET": s.MicrosoftClientSecret,
		"MICROSOFT_TENANT_ID":     s.MicrosoftTenantID,
		"MICROSOFT_REDIRECT_URI":  s.MicrosoftRedirectURI,
		"MICROSOFT_SCOPES":        strings.Join(s.MicrosoftScopes, ","),
		"INVOICES_DIR":            s.InvoicesDir,
		"CLIENTS_DIR":             s.ClientsDir,
	}
}

// Save validates the settings and writes them back to the .env file.
func (s *Settings) Save(path string) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if err := godotenv.Write(s.envMap(), path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// settableKeys maps the user-facing config keys onto setters. Each setter
// validates before mutating so a bad value never lands in the struct.
var settableKeys = map[string]func(*Settings, string) error{
	"company_name": func(s *Settings, v string) error {
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("%w: company_name cannot be empty", ErrInvalid)
		}
		s.CompanyName = strings.TrimSpace(v)
		return nil
	},
	"company_address": func(s *Settings, v string) error {
		s.CompanyAddress = v
		return nil
	},
	"company_email": func(s *Settings, v string) error {
		probe := *s
		probe.CompanyEmail = v
		if err := probe.Validate(); err != nil {
			return err
		}
		s.CompanyEmail = v
		return nil
	},
	"company_phone": func(s *Settings, v string) error {
		if err := ValidatePhone(v); err != nil {
			return err
		}
		s.CompanyPhone = v
		return nil
	},
	"hourly_rate": func(s *Settings, v string) error {
		f, err := parsePositiveFloat(v, "hourly_rate")
		if err != nil {
			return err
		}
		s.HourlyRate = f
		return nil
	},
	"hours_per_day": func(s *Settings, v string) error {
		f, err := parsePositiveFloat(v, "hours_per_day")
		if err != nil {
			return err
		}
		s.HoursPerDay = f
		return nil
	},
	"currency": func(s *Settings, v string) error {
		v = strings.ToUpper(strings.TrimSpace(v))
		if len(v) != 3 || strings.IndexFunc(v, func(r rune) bool { return r < 'A' || r > 'Z' }) >= 0 {
			return fmt.Errorf("%w: currency must be a 3-letter code", ErrInvalid)
		}
		s.Currency = v
		return nil
	},
	"currency_symbol": func(s *Settings, v string) error {
		if v == "" {
			return fmt.Errorf("%w: currency_symbol cannot be empty", ErrInvalid)
		}
		s.CurrencySymbol = v
		return nil
	},
	"vat_rate": func(s *Settings, v string) error {
		f, err := ValidateVATRate(v)
		if err != nil {
			return err
		}
		s.VATRate = f
		return nil
	},
	"invoice_number_template": func(s *Settings, v string) error {
		if err := ValidateTemplate(v); err != nil {
			return err
		}
		s.InvoiceNumberTemplate = v
		return nil
	},
	"microsoft_client_id": func(s *Settings, v string) error {
		s.MicrosoftClientID = v
		return nil
	},
	"microsoft_client_secret": func(s *Settings, v string) error {
		s.MicrosoftClientSecret = v
		return nil
	},
	"microsoft_tenant_id": func(s *Settings, v string) error {
		s.MicrosoftTenantID = v
		return nil
	},
	"microsoft_redirect_uri": func(s *Settings, v string) error {
		probe := *s
		probe.MicrosoftRedirectURI = v
		if err := probe.Validate(); err != nil {
			return err
		}
		s.MicrosoftRedirectURI = v
		return nil
	},
	"invoices_dir": func(s *Settings, v string) error {
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("%w: invoices_dir cannot be empty", ErrInvalid)
		}
		s.InvoicesDir = v
		return nil
	},
	"clients_dir": func(s *Settings, v string) error {
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("%w: clients_dir cannot be empty", ErrInvalid)
		}
		s.ClientsDir = v
		return nil
	},
}

func parsePositiveFloat(v, field string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a valid number", ErrInvalid, field)
	}
	if f <= 0 {
		return 0, fmt.Errorf("%w: %s must be greater than 0", ErrInvalid, field)
	}
	return f, nil
}

// Set applies one user-facing key with validation.
func (s *Settings) Set(key, value string) error {
	setter, ok := settableKeys[strings.ToLower(key)]
	if !ok {
		return fmt.Errorf("%w: unknown key %q (known: %s)", ErrInvalid, key, strings.Join(SettableKeys(), ", "))
	}
	return setter(s, value)
}

// SettableKeys lists the keys Set accepts, sorted.
func SettableKeys() []string {
	keys := make([]string, 0, len(settableKeys))
	for k := range settableKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
