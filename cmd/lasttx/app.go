package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/brojonat/lasttx/service/config"
	"github.com/brojonat/lasttx/service/metrics"
	"github.com/brojonat/lasttx/service/output"
	"github.com/brojonat/lasttx/service/solana"
	"github.com/fatih/color"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/urfave/cli/v2"
)

const appName = "lasttx"

// dependencies are the process-level collaborators of one run, swapped out
// in tests.
type dependencies struct {
	stdout io.Writer
	stderr io.Writer
	env    config.Source
	newRPC func(cfg *config.Config) solana.RPCClient
}

// UsageError reports a malformed command line. An empty Message means the
// wrong number of positional arguments was given.
type UsageError struct {
	Message string
}

func (e *UsageError) Error() string {
	if e.Message == "" {
		return "expected exactly one argument: <WALLET_ADDRESS>"
	}
	return e.Message
}

// run executes the command and returns the process exit code.
func run(args []string, deps dependencies) int {
	printer := &output.Printer{
		Out:     deps.stdout,
		Err:     deps.stderr,
		NoColor: colorDisabled(args, deps.env),
	}

	err := newApp(deps, printer).Run(args)
	if err == nil {
		return 0
	}

	var usageErr *UsageError
	if errors.As(err, &usageErr) {
		if usageErr.Message != "" {
			printer.Error(usageErr)
		}
		printer.Usage(appName)
		return 1
	}

	printer.Error(err)
	return 1
}

func newApp(deps dependencies, printer *output.Printer) *cli.App {
	return &cli.App{
		Name:      appName,
		Usage:     "Print the latest transaction of a Solana wallet",
		ArgsUsage: "<WALLET_ADDRESS>",
		Description: `Looks up the most recent transaction signature for WALLET_ADDRESS and
prints the full transaction for it.

The RPC endpoint is read from RPC_URL, first from --rpc-url, then from the
env file (default .env), then from the process environment.`,
		Version:         fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		HideHelpCommand: true,
		Writer:          deps.stdout,
		ErrWriter:       deps.stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "rpc-url",
				Usage: "Solana JSON-RPC endpoint (overrides RPC_URL)",
			},
			&cli.StringFlag{
				Name:  "env-file",
				Value: ".env",
				Usage: "Env file read before the process environment (empty to disable)",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Bound on the whole lookup (overrides RPC_TIMEOUT, default 30s)",
			},
			&cli.StringFlag{
				Name:  "commitment",
				Usage: "Commitment level: processed, confirmed or finalized (overrides SOLANA_COMMITMENT)",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level: debug, info, warn or error (overrides LOG_LEVEL)",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Value:   output.FormatText,
				Usage:   "Output format: text, json, yaml or summary",
			},
			&cli.StringFlag{
				Name:  "jq",
				Usage: "jq expression applied to the JSON result before printing",
			},
			&cli.BoolFlag{
				Name:  "no-color",
				Usage: "Disable colored output (also NO_COLOR)",
			},
			&cli.StringFlag{
				Name:  "metrics-file",
				Usage: "Write RPC metrics in Prometheus text format to this file on exit",
			},
		},
		OnUsageError: func(c *cli.Context, err error, isSubcommand bool) error {
			return &UsageError{Message: err.Error()}
		},
		ExitErrHandler: func(c *cli.Context, err error) {},
		Action: func(c *cli.Context) error {
			return latestAction(c, deps, printer)
		},
	}
}

func latestAction(c *cli.Context, deps dependencies, printer *output.Printer) error {
	if c.NArg() != 1 {
		return &UsageError{}
	}
	address := c.Args().First()

	if c.Bool("no-color") {
		printer.NoColor = true
	}

	format := c.String("format")
	if !output.ValidFormat(format) {
		return &UsageError{Message: fmt.Sprintf("unknown format %q (want one of %v)", format, output.Formats)}
	}
	printer.Format = format

	if expr := c.String("jq"); expr != "" {
		code, err := output.CompileFilter(expr)
		if err != nil {
			return &UsageError{Message: err.Error()}
		}
		printer.Filter = code
	}

	fileSrc, err := config.LoadEnvFile(c.String("env-file"))
	if err != nil {
		return err
	}
	cfg, err := config.Load(config.Chain(flagSource(c), fileSrc, deps.env))
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.LogLevel, deps.stderr)
	m := metrics.NewMetrics(nil)
	if path := c.String("metrics-file"); path != "" {
		defer func() {
			if err := m.WriteTextfile(path); err != nil {
				logger.Error("failed to write metrics", "error", err)
			}
		}()
	}

	client := solana.NewClient(deps.newRPC(cfg), cfg.Endpoint(), m, logger).
		WithCommitment(rpc.CommitmentType(cfg.Commitment))

	ctx, cancel := context.WithTimeout(c.Context, cfg.Timeout)
	defer cancel()

	logger.InfoContext(ctx, "looking up latest transaction",
		"wallet", address,
		"endpoint", cfg.Endpoint(),
		"timeout", cfg.Timeout,
	)

	res, err := client.GetLatestTransaction(ctx, address)
	if err != nil {
		return err
	}

	printer.Result(res)
	return nil
}

// flagSource exposes explicitly set flags under their environment keys so
// they take precedence in config.Load.
func flagSource(c *cli.Context) config.MapSource {
	src := config.MapSource{
		config.KeyRPCURL:     c.String("rpc-url"),
		config.KeyCommitment: c.String("commitment"),
		config.KeyLogLevel:   c.String("log-level"),
	}
	if c.IsSet("timeout") {
		src[config.KeyRPCTimeout] = c.Duration("timeout").String()
	}
	return src
}

// colorDisabled resolves colour before flag parsing so that usage errors
// honour --no-color and NO_COLOR too.
func colorDisabled(args []string, env config.Source) bool {
	if color.NoColor {
		return true
	}
	if v, ok := lookup(env, "NO_COLOR"); ok && v != "" {
		return true
	}
	for _, arg := range args {
		if arg == "--" {
			break
		}
		if arg == "--no-color" || arg == "-no-color" || arg == "--no-color=true" {
			return true
		}
	}
	return false
}

func lookup(src config.Source, key string) (string, bool) {
	if src == nil {
		return "", false
	}
	return src.Lookup(key)
}

// setupLogger creates a structured logger with the given log level.
func setupLogger(levelStr string, w io.Writer) *slog.Logger {
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	return slog.New(slog.NewJSONHandler(w, opts))
}
