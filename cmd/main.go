package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ethereum/go-ethereum/log"
	"github.com/honeycombio/otel-config-go/otelconfig"
	"github.com/urfave/cli/v2"

	smokehouse "github.com/auditlab/smokehouse"
	"github.com/auditlab/smokehouse/flags"
	"github.com/auditlab/smokehouse/service"
)

var (
	Version   = "v0.1.0"
	GitCommit = ""
	GitDate   = ""
)

func main() {
	app := cli.NewApp()
	app.Version = fmt.Sprintf("%s-%s-%s", Version, GitCommit, GitDate)
	app.Name = "smokehouse"
	app.Usage = "Smoke Test Orchestrator"
	app.Description = "smokehouse runs batches of smoke tests against backing servers"
	app.ArgsUsage = "[batch...]"
	app.Flags = flags.Flags
	app.Action = run
	app.ExitErrHandler = func(c *cli.Context, err error) {
		var exitErr cli.ExitCoder
		if errors.As(err, &exitErr) {
			cli.HandleExitCoder(exitErr)
		} else if err != nil {
			if smokehouse.IsRuntimeError(err) {
				// Structural problems exit with code 2
				cli.HandleExitCoder(cli.Exit(err.Error(), 2))
			} else if smokehouse.IsTestFailureError(err) {
				// Failing smoke verdicts exit with code 1
				cli.HandleExitCoder(cli.Exit(err.Error(), 1))
			} else {
				cli.HandleExitCoder(cli.Exit(err.Error(), 1))
			}
		}
	}

	// Start telemetry
	otelShutdown, err := otelconfig.ConfigureOpenTelemetry(
		otelconfig.WithServiceName(app.Name),
		otelconfig.WithServiceVersion(app.Version),
	)
	if err != nil {
		log.Crit("Failed to setup open telemetry", "message", err)
	}
	defer otelShutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start healthz and metrics servers
	svc := service.New()
	svc.Start(ctx)
	defer svc.Shutdown()

	if err := app.RunContext(ctx, os.Args); err != nil {
		log.Crit("Application failed", "message", err)
	}
}

func run(ctx *cli.Context) error {
	logger, err := setupLogging(ctx)
	if err != nil {
		return smokehouse.NewRuntimeError(err)
	}

	cfg, err := smokehouse.NewConfig(ctx, logger)
	if err != nil {
		return smokehouse.NewRuntimeError(fmt.Errorf("failed to create config: %w", err))
	}

	sh, err := smokehouse.New(ctx.Context, cfg, Version)
	if err != nil {
		return smokehouse.NewRuntimeError(fmt.Errorf("failed to create smokehouse: %w", err))
	}

	return sh.Run(ctx.Context)
}

func setupLogging(ctx *cli.Context) (log.Logger, error) {
	lvl, err := parseLogLevel(ctx.String(flags.LogLevel.Name))
	if err != nil {
		return nil, err
	}
	handler := log.NewTerminalHandlerWithLevel(os.Stderr, lvl, true)
	logger := log.NewLogger(handler)
	log.SetDefault(logger)
	return logger, nil
}

func parseLogLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "trace":
		return log.LevelTrace, nil
	case "debug":
		return log.LevelDebug, nil
	case "info":
		return log.LevelInfo, nil
	case "warn":
		return log.LevelWarn, nil
	case "error":
		return log.LevelError, nil
	case "crit":
		return log.LevelCrit, nil
	default:
		return log.LevelInfo, fmt.Errorf("unknown log level: %q", name)
	}
}
