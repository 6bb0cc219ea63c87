package flags

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/auditlab/smokehouse/runner"
)

const EnvVarPrefix = "SMOKEHOUSE"

func prefixEnvVars(name string) []string {
	return []string{EnvVarPrefix + "_" + name}
}

var (
	Manifest = &cli.StringFlag{
		Name:     "manifest",
		Value:    "",
		Required: true,
		EnvVars:  prefixEnvVars("MANIFEST"),
		Usage:    "Path to the smoke manifest file (eg. 'smoke.yaml')",
	}
	RunnerBinary = &cli.StringFlag{
		Name:    "runner-binary",
		Value:   "smoke-runner",
		EnvVars: prefixEnvVars("RUNNER_BINARY"),
		Usage:   "Path to the binary spawned for each smoke test",
	}
	OnlyAudits = &cli.StringSliceFlag{
		Name:    "only-audits",
		EnvVars: prefixEnvVars("ONLY_AUDITS"),
		Usage:   "Restrict every test to the named audits",
	}
	OnlyURLs = &cli.StringSliceFlag{
		Name:    "only-urls",
		EnvVars: prefixEnvVars("ONLY_URLS"),
		Usage:   "Restrict every test to the named URLs",
	}
	Serial = &cli.BoolFlag{
		Name:    "serial",
		Value:   false,
		EnvVars: prefixEnvVars("SERIAL"),
		Usage:   "Run each batch's tests one at a time instead of concurrently",
	}
	Retry = &cli.BoolFlag{
		Name:    "retry",
		Value:   false,
		EnvVars: []string{EnvVarPrefix + "_RETRY", "CI"},
		Usage:   "Re-run each failing test once and keep the second verdict",
	}
	Timeout = &cli.DurationFlag{
		Name:    "timeout",
		Value:   runner.DefaultTimeout,
		EnvVars: prefixEnvVars("TIMEOUT"),
		Usage:   "Per-test timeout for spawned runner processes",
	}
	LogLevel = &cli.StringFlag{
		Name:    "log.level",
		Value:   "info",
		EnvVars: prefixEnvVars("LOG_LEVEL"),
		Usage:   "Log level (trace, debug, info, warn, error, crit)",
	}
)

var requiredFlags = []cli.Flag{
	Manifest,
}

var optionalFlags = []cli.Flag{
	RunnerBinary,
	OnlyAudits,
	OnlyURLs,
	Serial,
	Retry,
	Timeout,
	LogLevel,
}

var Flags []cli.Flag

func init() {
	Flags = append(requiredFlags, optionalFlags...)
}

func CheckRequired(ctx *cli.Context) error {
	for _, f := range requiredFlags {
		if !ctx.IsSet(f.Names()[0]) {
			return fmt.Errorf("flag %s is required", f.Names()[0])
		}
	}
	return nil
}
