package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/ttacon/libphonenumber"
)

// ErrInvalid marks a setting that failed validation.
var ErrInvalid = errors.New("invalid setting")

var validate = validator.New(validator.WithRequiredStructEnabled())

// Settings carries every knob the application reads. A Settings value is
// passed explicitly into the store, the billing calculator, the renderer and
// the mail sender; there is no process-wide singleton, so tests can run with
// isolated configurations.
type Settings struct {
	// Company identity printed on invoices and used in email signatures.
	CompanyName    string `env:"COMPANY_NAME" validate:"required"`
	CompanyAddress string `env:"COMPANY_ADDRESS"`
	CompanyEmail   string `env:"COMPANY_EMAIL" validate:"required,email"`
	CompanyPhone   string `env:"COMPANY_PHONE"`

	// Billing defaults.
	HourlyRate            float64 `env:"HOURLY_RATE" validate:"gt=0"`
	HoursPerDay           float64 `env:"HOURS_PER_DAY" validate:"gt=0"`
	Currency              string  `env:"CURRENCY" validate:"len=3,alpha"`
	CurrencySymbol        string  `env:"CURRENCY_SYMBOL" validate:"required"`
	VATRate               float64 `env:"VAT_RATE" validate:"min=0,max=1"`
	InvoiceNumberTemplate string  `env:"INVOICE_NUMBER_TEMPLATE" validate:"required"`

	// Microsoft Graph delegated-auth credentials. Empty means email delivery
	// is unconfigured; everything else still works.
	MicrosoftClientID     string   `env:"MICROSOFT_CLIENT_ID"`
	MicrosoftClientSecret string   `env:"MICROSOFT_CLIENT_SECRET"`
	MicrosoftTenantID     string   `env:"MICROSOFT_TENANT_ID"`
	MicrosoftRedirectURI  string   `env:"MICROSOFT_REDIRECT_URI" validate:"required,url"`
	MicrosoftScopes       []string `env:"MICROSOFT_SCOPES"`

	// Storage roots.
	InvoicesDir string `env:"INVOICES_DIR" validate:"required"`
	ClientsDir  string `env:"CLIENTS_DIR" validate:"required"`
}

// Defaults returns the settings used when nothing is configured.
func Defaults() Settings {
	cwd, _ := os.Getwd()
	return Settings{
		CompanyName:           "Your Company Name",
		CompanyAddress:        "Your Address\nCity, State ZIP\nCountry",
		CompanyEmail:          "your.email@example.com",
		CompanyPhone:          "+1 (555) 123-4567",
		HourlyRate:            75.0,
		HoursPerDay:           8.0,
		Currency:              "EUR",
		CurrencySymbol:        "€",
		VATRate:               0.21,
		InvoiceNumberTemplate: "INV-{year}{month:02d}-{client_code}",
		MicrosoftRedirectURI:  "http://localhost:8080/callback",
		MicrosoftScopes: []string{
			"https://graph.microsoft.com/Mail.Send",
			"https://graph.microsoft.com/User.Read",
		},
		InvoicesDir: filepath.Join(cwd, "invoices"),
		ClientsDir:  filepath.Join(cwd, "clients"),
	}
}

// Load reads settings from the environment, merging an optional .env file
// beneath it. Precedence: explicit env var > .env entry > default. The loaded
// settings are validated before being returned.
func Load(envFile string) (Settings, error) {
	if envFile != "" {
		// Missing file is fine: defaults plus the process environment apply.
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return Settings{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	s := Defaults()
	setString(&s.CompanyName, "COMPANY_NAME")
	setString(&s.CompanyAddress, "COMPANY_ADDRESS")
	setString(&s.CompanyEmail, "COMPANY_EMAIL")
	setString(&s.CompanyPhone, "COMPANY_PHONE")
	if err := setFloat(&s.HourlyRate, "HOURLY_RATE"); err != nil {
		return Settings{}, err
	}
	if err := setFloat(&s.HoursPerDay, "HOURS_PER_DAY"); err != nil {
		return Settings{}, err
	}
	setString(&s.Currency, "CURRENCY")
	setString(&s.CurrencySymbol, "CURRENCY_SYMBOL")
	if err := setFloat(&s.VATRate, "VAT_RATE"); err != nil {
		return Settings{}, err
	}
	setString(&s.InvoiceNumberTemplate, "INVOICE_NUMBER_TEMPLATE")
	setString(&s.MicrosoftClientID, "MICROSOFT_CLIENT_ID")
	setString(&s.MicrosoftClientSecret, "MICROSOFT_CLIENT_SECRET")
	setString(&s.MicrosoftTenantID, "MICROSOFT_TENANT_ID")
	setString(&s.MicrosoftRedirectURI, "MICROSOFT_REDIRECT_URI")
	if v := os.Getenv("MICROSOFT_SCOPES"); v != "" {
		s.MicrosoftScopes = strings.Split(v, ",")
	}
	setString(&s.InvoicesDir, "INVOICES_DIR")
	setString(&s.ClientsDir, "CLIENTS_DIR")

	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setFloat(dst *float64, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("%w: %s: %q is not a number", ErrInvalid, key, v)
	}
	*dst = f
	return nil
}

// Validate checks the whole settings value: struct tags first, then the
// cross-field checks tags cannot express.
func (s *Settings) Validate() error {
	s.Currency = strings.ToUpper(strings.TrimSpace(s.Currency))
	if err := validate.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%w: %s: %s", ErrInvalid, fe.Field(), fe.Tag())
		}
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := ValidateTemplate(s.InvoiceNumberTemplate); err != nil {
		return err
	}
	if err := ValidatePhone(s.CompanyPhone); err != nil {
		return err
	}
	return nil
}

// templatePlaceholders is the whitelist of variables an invoice number
// template may reference.
var templatePlaceholders = map[string]bool{
	"year":           true,
	"month":          true,
	"month:02d":      true,
	"day":            true,
	"day:02d":        true,
	"client_code":    true,
	"invoice_number": true,
}

var placeholderRe = regexp.MustCompile(`\{([^{}]*)\}`)

// ValidateTemplate checks that every {placeholder} in the template is known.
func ValidateTemplate(tpl string) error {
	if strings.TrimSpace(tpl) == "" {
		return fmt.Errorf("%w: invoice number template is empty", ErrInvalid)
	}
	for _, m := range placeholderRe.FindAllStringSubmatch(tpl, -1) {
		if !templatePlaceholders[m[1]] {
			return fmt.Errorf("%w: unknown template placeholder {%s}", ErrInvalid, m[1])
		}
	}
	return nil
}

// ValidatePhone checks the company phone for plausibility. Possibility, not
// strict validity: placeholder numbers like the 555 exchange still pass.
func ValidatePhone(phone string) error {
	if strings.TrimSpace(phone) == "" {
		return nil
	}
	p, err := libphonenumber.Parse(phone, "US")
	if err != nil {
		return fmt.Errorf("%w: phone %q: %v", ErrInvalid, phone, err)
	}
	if !libphonenumber.IsPossibleNumber(p) {
		return fmt.Errorf("%w: phone %q is not a possible number", ErrInvalid, phone)
	}
	return nil
}

// ValidateVATRate accepts both percentage (0-100) and decimal (0.0-1.0) input
// and returns the decimal form.
func ValidateVATRate(raw string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: VAT rate %q is not a number", ErrInvalid, raw)
	}
	if f > 1 && f <= 100 {
		f /= 100
	}
	if f < 0 || f > 1 {
		return 0, fmt.Errorf("%w: VAT rate must be between 0-100%% or 0.0-1.0", ErrInvalid)
	}
	return f, nil
}
