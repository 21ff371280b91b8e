// Package main provides the autoflow command: an API server that stores and tests
// automations, and a runner for YAML automation manifests.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dukex/autoflow/pkg/log"
	cli "github.com/urfave/cli/v3"
)

func main() {
	cmd := &cli.Command{
		Name:                  "autoflow",
		Usage:                 "Build, store and test automations",
		EnableShellCompletion: true,
		Commands: []*cli.Command{
			ServeCommand(),
			RunCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func logLevelFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "log-level",
		Usage:   "Log level (debug, info, warn, error)",
		Value:   "info",
		Sources: cli.EnvVars("LOG_LEVEL"),
	}
}

func logFormatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "log-format",
		Usage:   "Log format (text, json)",
		Value:   log.FormatText,
		Sources: cli.EnvVars("LOG_FORMAT"),
	}
}

func databaseURLFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "database-url",
		Usage:   "Database connection URL for persistence (file://, postgres://, redis://)",
		Value:   "file://./data",
		Sources: cli.EnvVars("DATABASE_URL"),
	}
}
