package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/diewo77/invoicer/internal/models"
	"github.com/diewo77/invoicer/internal/store"
)

func openStore(c *cli.Context) (*store.ClientStore, error) {
	cfg, err := loadSettings(c)
	if err != nil {
		return nil, err
	}
	return store.New(cfg, newLogger(c))
}

func clientCommand() *cli.Command {
	return &cli.Command{
		Name:  "client",
		Usage: "Client management commands",
		Subcommands: []*cli.Command{
			clientAddCommand(),
			clientListCommand(),
			clientShowCommand(),
			clientUpdateCommand(),
			clientDeleteCommand(),
			clientSearchCommand(),
			projectCommand(),
		},
	}
}

func clientAddCommand() *cli.Command {
	return &cli.Command{
		Name:  "add",
		Usage: "Add a new client (interactive unless --name and --email are given)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name"},
			&cli.StringFlag{Name: "email"},
			&cli.StringFlag{Name: "code", Usage: "client code (default: first 3 letters of name, uppercased)"},
			&cli.StringFlag{Name: "address"},
			&cli.StringFlag{Name: "phone"},
			&cli.StringFlag{Name: "vat"},
			&cli.StringFlag{Name: "notes"},
			&cli.StringFlag{Name: "project", Usage: "initial project name"},
		},
		Action: func(c *cli.Context) error {
			s, err := openStore(c)
			if err != nil {
				return err
			}

			client := models.Client{
				Name:       c.String("name"),
				Email:      c.String("email"),
				ClientCode: c.String("code"),
				Address:    c.String("address"),
				Phone:      c.String("phone"),
				VATNumber:  c.String("vat"),
				Notes:      c.String("notes"),
			}
			project := c.String("project")

			if client.Name == "" || client.Email == "" {
				p := newPrompter()
				fmt.Println("Create New Client")
				fmt.Println("-----------------")
				if client.Name == "" {
					client.Name = p.line("Client/Company name: ")
				}
				if client.Email == "" {
					client.Email = p.line("Email address: ")
				}
				if client.ClientCode == "" {
					client.ClientCode = p.lineDefault("Client code", models.DefaultClientCode(client.Name))
				}
				if client.Address == "" {
					client.Address = p.line("Address (optional): ")
				}
				if client.Phone == "" {
					client.Phone = p.line("Phone (optional): ")
				}
				if client.Notes == "" {
					client.Notes = p.line("Notes (optional): ")
				}
				if project == "" {
					project = p.line("Initial project name (optional): ")
				}
			}

			id, err := s.AddClient(client)
			if err != nil {
				return err
			}
			fmt.Printf("Client %q created with id %s\n", client.Name, id)

			if project != "" {
				projectID, err := s.AddProject(id, project)
				if err != nil {
					return err
				}
				fmt.Printf("Project %q added with id %s\n", project, projectID)
			}
			return nil
		},
	}
}

func clientListCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List all clients",
		Action: func(c *cli.Context) error {
			s, err := openStore(c)
			if err != nil {
				return err
			}
			printClientList(s.ListClients())
			return nil
		},
	}
}

func printClientList(clients []models.ClientSummary) {
	if len(clients) == 0 {
		fmt.Println("No clients found.")
		return
	}
	fmt.Printf("%-28s %-6s %-30s %-10s\n", "ID", "CODE", "EMAIL", "INVOICES")
	for _, cl := range clients {
		fmt.Printf("%-28s %-6s %-30s %-10d\n", cl.ID, cl.ClientCode, cl.Email, cl.TotalInvoices)
	}
}

func clientShowCommand() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show one client in full",
		ArgsUsage: "<client-id>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("usage: client show <client-id>")
			}
			s, err := openStore(c)
			if err != nil {
				return err
			}
			client, err := s.GetClientStrict(c.Args().First())
			if err != nil {
				return err
			}
			fmt.Printf("ID:            %s\n", client.ID)
			fmt.Printf("Name:          %s\n", client.Name)
			fmt.Printf("Email:         %s\n", client.Email)
			fmt.Printf("Client code:   %s\n", client.ClientCode)
			if client.Address != "" {
				fmt.Printf("Address:       %s\n", client.Address)
			}
			if client.Phone != "" {
				fmt.Printf("Phone:         %s\n", client.Phone)
			}
			if client.VATNumber != "" {
				fmt.Printf("VAT number:    %s\n", client.VATNumber)
			}
			if client.Notes != "" {
				fmt.Printf("Notes:         %s\n", client.Notes)
			}
			fmt.Printf("Created:       %s\n", client.CreatedDate.Format("2006-01-02"))
			if client.LastInvoiceDate != nil {
				fmt.Printf("Last invoice:  %s\n", client.LastInvoiceDate.Format("2006-01-02"))
			}
			fmt.Printf("Invoices:      %d\n", client.TotalInvoices)
			fmt.Printf("Total amount:  %.2f\n", client.TotalAmount)
			return nil
		},
	}
}

func clientUpdateCommand() *cli.Command {
	flagToField := map[string]string{
		"name":    "name",
		"email":   "email",
		"code":    "client_code",
		"address": "address",
		"phone":   "phone",
		"vat":     "vat_number",
		"notes":   "notes",
	}
	return &cli.Command{
		Name:      "update",
		Usage:     "Update fields on an existing client",
		ArgsUsage: "<client-id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name"},
			&cli.StringFlag{Name: "email"},
			&cli.StringFlag{Name: "code"},
			&cli.StringFlag{Name: "address"},
			&cli.StringFlag{Name: "phone"},
			&cli.StringFlag{Name: "vat"},
			&cli.StringFlag{Name: "notes"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("usage: client update <client-id> [--name ...] [--email ...]")
			}
			updates := make(map[string]any)
			for flag, field := range flagToField {
				if c.IsSet(flag) {
					updates[field] = c.String(flag)
				}
			}
			if len(updates) == 0 {
				return fmt.Errorf("nothing to update: pass at least one field flag")
			}
			s, err := openStore(c)
			if err != nil {
				return err
			}
			if err := s.UpdateClient(c.Args().First(), updates); err != nil {
				return err
			}
			fmt.Println("Client updated.")
			return nil
		},
	}
}

func clientDeleteCommand() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete a client and all of its projects",
		ArgsUsage: "<client-id>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "yes", Usage: "skip the confirmation prompt"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("usage: client delete <client-id>")
			}
			id := c.Args().First()
			if !c.Bool("yes") && !newPrompter().confirm(fmt.Sprintf("Delete client %q and all of its projects?", id)) {
				fmt.Println("Cancelled.")
				return nil
			}
			s, err := openStore(c)
			if err != nil {
				return err
			}
			if !s.DeleteClient(id) {
				return fmt.Errorf("client %q: %w", id, store.ErrNotFound)
			}
			fmt.Println("Client deleted.")
			return nil
		},
	}
}

func clientSearchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search clients by name or email",
		ArgsUsage: "<query>",
		Action: func(c *cli.Context) error {
			s, err := openStore(c)
			if err != nil {
				return err
			}
			printClientList(s.SearchClients(c.Args().First()))
			return nil
		},
	}
}

func projectCommand() *cli.Command {
	return &cli.Command{
		Name:  "project",
		Usage: "Project management commands",
		Subcommands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Add a project to an existing client",
				ArgsUsage: "<client-id> <project-name>",
				Action: func(c *cli.Context) error {
					if c.NArg() != 2 {
						return fmt.Errorf("usage: client project add <client-id> <project-name>")
					}
					s, err := openStore(c)
					if err != nil {
						return err
					}
					id, err := s.AddProject(c.Args().Get(0), c.Args().Get(1))
					if err != nil {
						return err
					}
					fmt.Printf("Project created with id %s\n", id)
					return nil
				},
			},
			{
				Name:      "list",
				Usage:     "List a client's projects, newest first",
				ArgsUsage: "<client-id>",
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return fmt.Errorf("usage: client project list <client-id>")
					}
					s, err := openStore(c)
					if err != nil {
						return err
					}
					projects := s.ListProjects(c.Args().First())
					if len(projects) == 0 {
						fmt.Println("No projects found.")
						return nil
					}
					for _, p := range projects {
						fmt.Printf("%-45s %s (%s)\n", p.ID, p.Name, p.CreatedDate.Format("2006-01-02"))
					}
					return nil
				},
			},
			{
				Name:      "delete",
				Usage:     "Delete a single project",
				ArgsUsage: "<project-id>",
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return fmt.Errorf("usage: client project delete <project-id>")
					}
					s, err := openStore(c)
					if err != nil {
						return err
					}
					if !s.DeleteProject(c.Args().First()) {
						return fmt.Errorf("project %q: %w", c.Args().First(), store.ErrNotFound)
					}
					fmt.Println("Project deleted.")
					return nil
				},
			},
		},
	}
}
