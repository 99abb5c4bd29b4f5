package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/diewo77/invoicer/internal/config"
)

func main() {
	app := &cli.App{
		Name:  "invoicer",
		Usage: "Professional invoice generator - create and send PDF invoices",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "env",
				Value: ".env",
				Usage: "path to the .env configuration file",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "enable debug logging",
			},
		},
		Commands: []*cli.Command{
			runCommand(),
			initCommand(),
			statusCommand(),
			demoCommand(),
			clientCommand(),
			configCommand(),
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newLogger builds the diagnostic logger. User-facing output goes to stdout
// via fmt; logrus carries warnings and store diagnostics on stderr.
func newLogger(c *cli.Context) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetLevel(logrus.WarnLevel)
	if c.Bool("verbose") {
		log.SetLevel(logrus.DebugLevel)
	}
	return log
}

func loadSettings(c *cli.Context) (config.Settings, error) {
	return config.Load(c.String("env"))
}
