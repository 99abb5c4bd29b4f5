package main

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/diewo77/invoicer/internal/config"
)

func configCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Configuration management commands",
		Subcommands: []*cli.Command{
			configShowCommand(),
			configSetCommand(),
			configCheckCommand(),
		},
	}
}

func mask(secret string) string {
	if secret == "" {
		return "(not set)"
	}
	if len(secret) <= 4 {
		return "****"
	}
	return secret[:4] + strings.Repeat("*", len(secret)-4)
}

func configShowCommand() *cli.Command {
	return &cli.Command{
		Name:  "show",
		Usage: "Print the effective settings (secrets masked)",
		Action: func(c *cli.Context) error {
			cfg, err := loadSettings(c)
			if err != nil {
				return err
			}
			fmt.Println("Company")
			fmt.Printf("  company_name:            %s\n", cfg.CompanyName)
			fmt.Printf("  company_address:         %s\n", strings.ReplaceAll(cfg.CompanyAddress, "\n", " / "))
			fmt.Printf("  company_email:           %s\n", cfg.CompanyEmail)
			fmt.Printf("  company_phone:           %s\n", cfg.CompanyPhone)
			fmt.Println("Billing")
			fmt.Printf("  hourly_rate:             %.2f\n", cfg.HourlyRate)
			fmt.Printf("  hours_per_day:           %.1f\n", cfg.HoursPerDay)
			fmt.Printf("  currency:                %s (%s)\n", cfg.Currency, cfg.CurrencySymbol)
			fmt.Printf("  vat_rate:                %.2f\n", cfg.VATRate)
			fmt.Printf("  invoice_number_template: %s\n", cfg.InvoiceNumberTemplate)
			fmt.Println("Email delivery")
			fmt.Printf("  microsoft_client_id:     %s\n", mask(cfg.MicrosoftClientID))
			fmt.Printf("  microsoft_client_secret: %s\n", mask(cfg.MicrosoftClientSecret))
			fmt.Printf("  microsoft_tenant_id:     %s\n", mask(cfg.MicrosoftTenantID))
			fmt.Printf("  microsoft_redirect_uri:  %s\n", cfg.MicrosoftRedirectURI)
			fmt.Println("Storage")
			fmt.Printf("  invoices_dir:            %s\n", cfg.InvoicesDir)
			fmt.Printf("  clients_dir:             %s\n", cfg.ClientsDir)
			return nil
		},
	}
}

func configSetCommand() *cli.Command {
	return &cli.Command{
		Name:        "set",
		Usage:       "Set one configuration key and persist it to the .env file",
		ArgsUsage:   "<key> <value>",
		Description: "Known keys: " + strings.Join(config.SettableKeys(), ", "),
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				return fmt.Errorf("usage: config set <key> <value>")
			}
			cfg, err := loadSettings(c)
			if err != nil {
				return err
			}
			key, value := c.Args().Get(0), c.Args().Get(1)
			if err := cfg.Set(key, value); err != nil {
				return err
			}
			if err := cfg.Save(c.String("env")); err != nil {
				return err
			}
			fmt.Printf("Set %s and saved %s\n", key, c.String("env"))
			return nil
		},
	}
}

func configCheckCommand() *cli.Command {
	return &cli.Command{
		Name:  "check",
		Usage: "Validate the configuration file",
		Action: func(c *cli.Context) error {
			cfg, err := loadSettings(c)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			fmt.Println("Configuration is valid.")
			if cfg.MicrosoftClientID == "" || cfg.MicrosoftClientSecret == "" || cfg.MicrosoftTenantID == "" {
				fmt.Println("Note: Microsoft Graph credentials are not set; email delivery is disabled.")
			}
			return nil
		},
	}
}
