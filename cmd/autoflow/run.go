package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dukex/autoflow/pkg/builder"
	"github.com/dukex/autoflow/pkg/cmd"
	"github.com/dukex/autoflow/pkg/harness"
	"github.com/dukex/autoflow/pkg/log"
	"github.com/dukex/autoflow/pkg/manifest"
	"github.com/dukex/autoflow/pkg/services"
	"github.com/urfave/cli/v3"
	"go.opentelemetry.io/otel"
)

// ErrManifestRequired is returned when run is not given exactly one manifest file.
var ErrManifestRequired = errors.New("expected exactly one manifest file")

func RunCommand() *cli.Command {
	return &cli.Command{
		Name:      "run",
		Aliases:   []string{"r"},
		Usage:     "Build and test the automation described by a manifest",
		ArgsUsage: "<manifest.yaml>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server-url",
				Usage:   "Autoflow API to run against; runs in process when empty",
				Sources: cli.EnvVars("AUTOFLOW_SERVER_URL"),
			},
			&cli.StringFlag{
				Name:    "app-id",
				Usage:   "Application owning the automation",
				Value:   "app_local",
				Sources: cli.EnvVars("APP_ID"),
			},
			databaseURLFlag(),
			logLevelFlag(),
			logFormatFlag(),
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			if command.Args().Len() != 1 {
				return ErrManifestRequired
			}

			log.Setup(command.String("log-level"), command.String("log-format"))

			m, err := manifest.Load(command.Args().First())
			if err != nil {
				return err
			}

			cfg, h, closeFn, err := newHarness(ctx, command)
			if err != nil {
				return err
			}
			defer closeFn()

			b, err := m.Build(cfg, h)
			if err != nil {
				return err
			}

			results, err := b.Run(ctx)
			if err != nil {
				return err
			}

			return printJSON(command.Root().Writer, results)
		},
	}
}

// newHarness returns the HTTP client when a server URL is given, and an in-process
// harness over the configured persistence otherwise.
func newHarness(ctx context.Context, command *cli.Command) (builder.Config, builder.Harness, func(), error) {
	appID := command.String("app-id")

	if serverURL := command.String("server-url"); serverURL != "" {
		client := harness.NewClient(serverURL, appID)

		return client, client, func() {}, nil
	}

	logger := log.WithModule("run")

	persistence, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
	if err != nil {
		return nil, nil, nil, err
	}

	eng, _ := cmd.NewEngine(logger, otel.Tracer("autoflow"))
	service := services.NewAutomation(persistence, eng, nil, logger)

	closeFn := func() {
		if err := persistence.Close(ctx); err != nil {
			logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
		}
	}

	return harness.NewTestConfig(appID, service), harness.NewLocal(service), closeFn, nil
}

func printJSON(w io.Writer, v any) error {
	if w == nil {
		w = os.Stdout
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}

	return nil
}
