package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/diewo77/invoicer/internal/billing"
	"github.com/diewo77/invoicer/internal/config"
	"github.com/diewo77/invoicer/internal/mail"
	"github.com/diewo77/invoicer/internal/models"
	"github.com/diewo77/invoicer/internal/pdf"
	"github.com/diewo77/invoicer/internal/store"
)

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Interactive invoice generation",
		Action: func(c *cli.Context) error {
			cfg, err := loadSettings(c)
			if err != nil {
				return err
			}
			log := newLogger(c)
			s, err := store.New(cfg, log)
			if err != nil {
				return err
			}

			fmt.Println("=== Invoice Generator ===")
			fmt.Println("Creates and sends professional PDF invoices")
			fmt.Println()

			p := newPrompter()
			client, err := selectOrCreateClient(p, s)
			if err != nil {
				return err
			}
			if client == nil {
				fmt.Println("Invoice creation cancelled.")
				return nil
			}

			description := selectProjectDescription(p, s, client.ID)

			days, ok := p.positiveInt("Number of days worked this month: ")
			if !ok {
				fmt.Println("Invoice creation cancelled.")
				return nil
			}
			period := p.lineDefault("Month/Year", time.Now().Format("January 2006"))
			if description == "" {
				description = p.lineDefault("Project description", "Consulting services for "+period)
			}

			calc := billing.NewCalculator(cfg)
			totals := calc.Totals(days, 0)

			fmt.Println("\nInvoice Summary:")
			fmt.Printf("  Client:        %s <%s>\n", client.Name, client.Email)
			fmt.Printf("  Period:        %s\n", period)
			fmt.Printf("  Days worked:   %d\n", days)
			fmt.Printf("  Hours per day: %.1f\n", cfg.HoursPerDay)
			fmt.Printf("  Hourly rate:   %s%.2f\n", cfg.CurrencySymbol, cfg.HourlyRate)
			fmt.Printf("  Total amount:  %s%.2f\n", cfg.CurrencySymbol, totals.Total)

			if !p.confirm("\nProceed with invoice creation?") {
				fmt.Println("Invoice creation cancelled.")
				return nil
			}

			now := time.Now()
			number := calc.InvoiceNumber(client.ClientCode, now)
			if billing.InvoiceExists(cfg.InvoicesDir, client.ClientCode, number, now) {
				alt := billing.AlternativeNumber(cfg.InvoicesDir, client.ClientCode, number, now)
				fmt.Printf("An invoice numbered %s already exists.\n", number)
				if !p.confirm(fmt.Sprintf("Use %s instead?", alt)) {
					fmt.Println("Invoice creation cancelled.")
					return nil
				}
				number = alt
			}

			inv, err := calc.BuildInvoice(billing.InvoiceParams{
				Client:             client,
				InvoiceNumber:      number,
				InvoiceDate:        now,
				DaysWorked:         days,
				Period:             period,
				ProjectDescription: description,
			})
			if err != nil {
				return err
			}

			fmt.Println("\nGenerating PDF invoice...")
			path, err := pdf.NewRenderer(cfg).Render(inv)
			if err != nil {
				return err
			}
			fmt.Printf("Invoice created: %s\n", path)

			s.RecordInvoice(client.ID, days)

			if p.confirm("\nSend this invoice via email?") {
				if err := sendInvoice(c, cfg, inv, path); err != nil {
					fmt.Printf("Failed to send invoice: %v\n", err)
					fmt.Printf("The invoice remains at %s; you can send it manually.\n", path)
					return nil
				}
				fmt.Println("Invoice sent successfully!")
			} else {
				fmt.Println("You can send it manually when ready.")
			}
			return nil
		},
	}
}

// selectOrCreateClient shows the stored clients and lets the user pick by
// number or id, search, or create a new one. A nil client means the user
// backed out.
func selectOrCreateClient(p *prompter, s *store.ClientStore) (*models.Client, error) {
	clients := s.ListClients()
	if len(clients) > 0 {
		fmt.Println("Clients:")
		for i, cl := range clients {
			fmt.Printf("  %d. %s (%s)\n", i+1, cl.Name, cl.ClientCode)
		}
	}
	choice := p.line("Select a client by number or id, 'n' for new, or type to search: ")
	switch {
	case choice == "":
		return nil, nil
	case choice == "n":
		return createClientInteractive(p, s)
	}
	if n, err := strconv.Atoi(choice); err == nil && n >= 1 && n <= len(clients) {
		return s.GetClientStrict(clients[n-1].ID)
	}
	if c, ok := s.GetClient(choice); ok {
		return c, nil
	}
	matches := s.SearchClients(choice)
	if len(matches) == 0 {
		fmt.Printf("No clients matching %q.\n", choice)
		if p.confirm("Create a new client?") {
			return createClientInteractive(p, s)
		}
		return nil, nil
	}
	if len(matches) == 1 {
		return s.GetClientStrict(matches[0].ID)
	}
	fmt.Println("Matches:")
	for i, cl := range matches {
		fmt.Printf("  %d. %s (%s)\n", i+1, cl.Name, cl.ClientCode)
	}
	if n, ok := p.positiveInt("Select a match: "); ok && n <= len(matches) {
		return s.GetClientStrict(matches[n-1].ID)
	}
	return nil, nil
}

func createClientInteractive(p *prompter, s *store.ClientStore) (*models.Client, error) {
	fmt.Println("Create New Client")
	fmt.Println("-----------------")
	name := p.line("Client/Company name: ")
	if name == "" {
		fmt.Println("Client name is required.")
		return nil, nil
	}
	email := p.line("Email address: ")
	if email == "" {
		fmt.Println("Email address is required.")
		return nil, nil
	}
	client := models.Client{
		Name:       name,
		Email:      email,
		ClientCode: p.lineDefault("Client code", models.DefaultClientCode(name)),
		Address:    p.line("Address (optional): "),
		Phone:      p.line("Phone (optional): "),
		Notes:      p.line("Notes (optional): "),
	}
	id, err := s.AddClient(client)
	if err != nil {
		return nil, err
	}
	if project := p.line("Initial project name (optional): "); project != "" {
		if _, err := s.AddProject(id, project); err != nil {
			return nil, err
		}
	}
	fmt.Printf("Client %q created.\n", name)
	return s.GetClientStrict(id)
}

// selectProjectDescription offers the client's projects as the invoice
// description; typing a new name records it as a project first. Empty means
// the user wants a free-form description.
func selectProjectDescription(p *prompter, s *store.ClientStore, clientID string) string {
	projects := s.ListProjects(clientID)
	if len(projects) > 0 {
		fmt.Println("Projects:")
		for i, pr := range projects {
			fmt.Printf("  %d. %s\n", i+1, pr.Name)
		}
	}
	choice := p.line("Select a project by number or type a new project name (enter to skip): ")
	if choice == "" {
		return ""
	}
	if n, err := strconv.Atoi(choice); err == nil && n >= 1 && n <= len(projects) {
		return projects[n-1].Name
	}
	if _, err := s.AddProject(clientID, choice); err != nil {
		fmt.Printf("Could not record project %q: %v\n", choice, err)
	}
	return choice
}

func sendInvoice(c *cli.Context, cfg config.Settings, inv *models.Invoice, path string) error {
	sender := mail.NewSender(cfg, newLogger(c))
	if !sender.Configured() {
		return fmt.Errorf("microsoft graph credentials are not configured; run 'invoicer config set microsoft_client_id ...'")
	}
	fmt.Println("Authenticating with Microsoft...")
	if err := sender.Authenticate(c.Context); err != nil {
		return err
	}
	body, err := mail.ComposeInvoiceBody(cfg, inv)
	if err != nil {
		return err
	}
	fmt.Printf("Sending invoice to %s...\n", inv.ClientInfo.Email)
	return sender.Send(c.Context, inv.ClientInfo.Email, mail.InvoiceSubject(inv), body, path)
}

func initCommand() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Initialize a new invoicer workspace",
		Action: func(c *cli.Context) error {
			cfg := config.Defaults()
			for _, dir := range []string{cfg.InvoicesDir, cfg.ClientsDir} {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return err
				}
				fmt.Printf("Created %s\n", dir)
			}

			envPath := c.String("env")
			if _, err := os.Stat(envPath); os.IsNotExist(err) {
				if err := cfg.Save(envPath); err != nil {
					return err
				}
				fmt.Printf("Created %s - please edit it with your company details.\n", envPath)
			} else {
				fmt.Printf("%s already exists, leaving it untouched.\n", envPath)
			}

			s, err := store.New(cfg, newLogger(c))
			if err != nil {
				return err
			}
			seedSampleClients(s)
			fmt.Println("\nWorkspace initialized. Next steps:")
			fmt.Printf("  1. Edit %s with your company details\n", envPath)
			fmt.Println("  2. Run 'invoicer demo' to test PDF generation")
			fmt.Println("  3. Run 'invoicer client list' to see the sample clients")
			fmt.Println("  4. Run 'invoicer run' for the full application")
			return nil
		},
	}
}

// seedSampleClients creates demonstration clients; existing ids keep their
// data (the add simply generates a suffixed id, so seeding twice is visible
// but harmless).
func seedSampleClients(s *store.ClientStore) {
	samples := []models.Client{
		{
			Name:       "Acme Corporation",
			Email:      "billing@acme-corp.com",
			Address:    "123 Business Ave\nNew York, NY 10001",
			Phone:      "+1 (555) 123-4567",
			ClientCode: "ACM",
			Notes:      "Long-term client, payment terms NET 30",
		},
		{
			Name:       "TechStart Solutions",
			Email:      "finance@techstart.io",
			Address:    "456 Innovation Drive\nSan Francisco, CA 94107",
			Phone:      "+1 (555) 987-6543",
			ClientCode: "TSS",
			Notes:      "Startup client, prefers electronic invoices",
		},
		{
			Name:       "Global Dynamics Inc",
			Email:      "accounts@globaldynamics.com",
			Address:    "789 Corporate Blvd\nChicago, IL 60601",
			Phone:      "+1 (555) 246-8135",
			ClientCode: "GDI",
			Notes:      "Enterprise client, requires detailed project descriptions",
		},
	}
	for _, sample := range samples {
		if _, ok := s.GetClient(store.Slugify(sample.Name)); ok {
			continue
		}
		if _, err := s.AddClient(sample); err != nil {
			fmt.Printf("Could not create sample client %q: %v\n", sample.Name, err)
		}
	}
}

func statusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show workspace status",
		Action: func(c *cli.Context) error {
			cfg, err := loadSettings(c)
			if err != nil {
				return err
			}
			fmt.Println("Invoice Generator Status")
			fmt.Println("========================")
			cwd, _ := os.Getwd()
			fmt.Printf("Working directory:   %s\n", cwd)
			fmt.Printf("Invoices directory:  %s\n", presence(cfg.InvoicesDir))
			fmt.Printf("Clients directory:   %s\n", presence(cfg.ClientsDir))
			fmt.Printf("Generated invoices:  %d\n", countByExt(cfg.InvoicesDir, ".pdf"))

			s, err := store.New(cfg, newLogger(c))
			if err != nil {
				return err
			}
			fmt.Printf("Stored clients:      %d\n", len(s.ListClients()))
			fmt.Printf("Config file:         %s\n", presence(c.String("env")))
			return nil
		},
	}
}

func presence(path string) string {
	if _, err := os.Stat(path); err != nil {
		return "missing (" + path + ")"
	}
	return "present (" + path + ")"
}

func countByExt(root, ext string) int {
	count := 0
	_ = filepath.WalkDir(root, func(_ string, d fs.DirEntry, err error) error {
		if err == nil && !d.IsDir() && strings.EqualFold(filepath.Ext(d.Name()), ext) {
			count++
		}
		return nil
	})
	return count
}

func demoCommand() *cli.Command {
	return &cli.Command{
		Name:  "demo",
		Usage: "Generate a sample invoice without touching the client store",
		Action: func(c *cli.Context) error {
			cfg, err := loadSettings(c)
			if err != nil {
				return err
			}
			client := &models.Client{
				ID:         "sample_client",
				Name:       "Sample Client",
				Email:      "client@example.com",
				ClientCode: "SAM",
				Address:    "Client Company\n123 Business Ave\nCity, State 12345",
			}
			calc := billing.NewCalculator(cfg)
			now := time.Now()
			number := calc.InvoiceNumber(client.ClientCode, now)
			if billing.InvoiceExists(cfg.InvoicesDir, client.ClientCode, number, now) {
				number = billing.AlternativeNumber(cfg.InvoicesDir, client.ClientCode, number, now)
			}
			inv, err := calc.BuildInvoice(billing.InvoiceParams{
				Client:        client,
				InvoiceNumber: number,
				InvoiceDate:   now,
				DaysWorked:    20,
			})
			if err != nil {
				return err
			}
			path, err := pdf.NewRenderer(cfg).Render(inv)
			if err != nil {
				return err
			}
			fmt.Printf("Demo invoice created: %s\n", path)
			return nil
		},
	}
}
