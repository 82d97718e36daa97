package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"imgres/commands"
	"imgres/config"
	"imgres/misc"
	"imgres/state"
)

// initializeAppContext prepares application context before command execution but
// after command line has been parsed
func initializeAppContext(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	var err error

	if cmd.NArg() == 0 {
		// nothing to do, just return
		return ctx, nil
	}

	env := state.EnvFromContext(ctx)

	configFile := cmd.String("config")
	if env.Cfg, err = config.LoadConfiguration(configFile); err != nil {
		return ctx, fmt.Errorf("unable to prepare configuration: %w", err)
	}
	if cmd.Bool("debug") {
		if env.Rpt, err = env.Cfg.Reporting.Prepare(); err != nil {
			return ctx, fmt.Errorf("unable to prepare debug reporter: %w", err)
		}
		// save complete processed configuration if external configuration was provided
		if len(configFile) > 0 {
			// we do not want any of your secrets!
			if data, err := config.Dump(env.Cfg); err == nil {
				env.Rpt.StoreData(fmt.Sprintf("config/%s", filepath.Base(configFile)), data)
			}
		}
	}
	if env.Log, err = env.Cfg.Logging.Prepare(env.Rpt); err != nil {
		return ctx, fmt.Errorf("unable to prepare logs: %w", err)
	}
	env.RedirectStdLog()

	if err = env.PrepareMetrics(); err != nil {
		return ctx, fmt.Errorf("unable to prepare metrics: %w", err)
	}

	env.Log.Debug("Program started", zap.Strings("args", os.Args), zap.String("ver", misc.GetVersion()), zap.String("runtime", runtime.Version()), zap.String("hash", misc.GetGitHash()))

	if env.Rpt != nil {
		env.Log.Info("Creating debug report", zap.String("location", env.Rpt.Name()))
	}
	if len(configFile) == 0 && env.Log != nil {
		env.Log.Info("Using defaults (no configuration file)")
	}
	return ctx, nil
}

func destroyAppContext(ctx context.Context, cmd *cli.Command) (err error) {
	env := state.EnvFromContext(ctx)

	if fname := cmd.String("metrics"); len(fname) > 0 && env.Registry != nil {
		if er := prometheus.WriteToTextfile(fname, env.Registry); er != nil {
			err = multierr.Append(err, fmt.Errorf("unable to write metrics: %w", er))
		} else if env.Rpt != nil {
			env.Rpt.Store("metrics.prom", fname)
		}
	}

	if env.Log != nil {
		env.Log.Debug("Program ended", zap.Duration("elapsed", env.Uptime()), zap.Strings("parsed args", cmd.Args().Slice()))
	}

	// close logging
	env.RestoreStdLog()

	// log is synced now and result can be used in report if necessary, errors
	// must be reported directly to stderr from now on
	if env.Rpt != nil {
		if er := env.Rpt.Close(); er != nil {
			err = multierr.Append(err, fmt.Errorf("unable to close debug report: %w", er))
		}
	}
	// reporting is closed now - remove empty panic file if any
	if env.Cfg != nil && len(env.Cfg.Logging.FileLogger.Destination) > 0 {
		debug.SetCrashOutput(nil, debug.CrashOptions{})
		fname := config.PanicLogName(env.Cfg.Logging.FileLogger.Destination)
		if fi, er := os.Stat(fname); er == nil && fi.Size() == 0 {
			if er := os.Remove(fname); er != nil {
				err = multierr.Append(err, fmt.Errorf("unable to remove empty panic log file '%s': %w", fname, er))
			}
		}
	}
	return
}

// Ignore urfave/cli default error handling, subcommands return regular
// errors.
var errWasHandled bool

// this is called before appContext is destroyed, so we have a chance to
// properly log any error from subcommand
func exitErrHandler(ctx context.Context, _ *cli.Command, err error) {

	env := state.EnvFromContext(ctx)

	if env.Log != nil {
		env.Log.Error("Program ended with error", zap.Error(err))
		errWasHandled = true
	}
}

func usageErrorHandler(_ context.Context, _ *cli.Command, err error, _ bool) error {
	// do nothing special, error is reported either by exitErrHandler or on
	// exit directly to stderr.
	return err
}

func subcommandNotFoundHandler(ctx context.Context, _ *cli.Command, name string) {
	state.EnvFromContext(ctx).Log.Warn("Unknown command, nothing to do", zap.String("command", name))
}

func withScope(flags ...cli.Flag) []cli.Flag {
	return append(append([]cli.Flag{}, commands.ScopeFlags...), flags...)
}

const scopeHelp = `
SCOPE:
    --character selects character asset library, --persona selects persona one.
    When both are given character assets take priority during resolution.
    Mutating commands work on character library when it is specified.
`

func main() {

	// allow graceful shutdown on interrupt, render --watch runs until stopped
	ctx, stop := signal.NotifyContext(state.ContextWithEnv(context.Background()), os.Interrupt, syscall.SIGTERM)

	app := &cli.Command{
		Name:            misc.GetAppName(),
		Usage:           "resolves image placeholders in chat text using character and persona asset libraries",
		Version:         misc.GetVersion() + " (" + runtime.Version() + ") : " + misc.GetGitHash(),
		HideHelpCommand: true,
		Before:          initializeAppContext,
		After:           destroyAppContext,
		OnUsageError:    usageErrorHandler,
		ExitErrHandler:  exitErrHandler,
		CommandNotFound: subcommandNotFoundHandler,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, DefaultText: "", Usage: "load configuration from `FILE` (YAML)"},
			&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Usage: "changes program behavior to help troubleshooting, produces report archive"},
			&cli.StringFlag{Name: "metrics", Usage: "write collected metrics to `FILE` (Prometheus text format) on exit"},
		},
		Commands: []*cli.Command{
			{
				Name:               "resolve",
				Usage:              "Substitutes %%img:NAME%% placeholders in text",
				OnUsageError:       usageErrorHandler,
				Action:             commands.Resolve,
				Flags:              withScope(),
				ArgsUsage:          "[TEXT...]",
				CustomHelpTemplate: cli.CommandHelpTemplate + scopeHelp + "\nTEXT:\n    text to process, if absent - STDIN\n",
			},
			{
				Name:         "render",
				Usage:        "Resolves placeholders in text containers of HTML document",
				OnUsageError: usageErrorHandler,
				Action:       commands.Render,
				Flags: withScope(
					&cli.BoolFlag{Name: "watch", Aliases: []string{"w"}, Usage: "render again whenever registry or storage changes"},
					&cli.DurationFlag{Name: "debounce", Value: 500 * time.Millisecond, Usage: "wait `DURATION` for changes to settle before rendering again"},
				),
				ArgsUsage: "SOURCE [DESTINATION]",
				CustomHelpTemplate: fmt.Sprintf(`%s%s
SOURCE:
    HTML document, elements with configured container class are processed

DESTINATION:
    file name to write resulting document to, if absent - STDOUT
`, cli.CommandHelpTemplate, scopeHelp),
			},
			{
				Name:         "compress",
				Usage:        "Prints compact summary of asset names",
				OnUsageError: usageErrorHandler,
				Action:       commands.Compress,
				Flags: withScope(
					&cli.BoolFlag{Name: "summary", Usage: "print one line per group"},
				),
				ArgsUsage:          "[NAME...]",
				CustomHelpTemplate: cli.CommandHelpTemplate + scopeHelp + "\nNAME:\n    names to compress, if absent - names of assets of selected scopes\n",
			},
			{
				Name:         "list",
				Usage:        "Lists merged asset records",
				OnUsageError: usageErrorHandler,
				Action:       commands.List,
				Flags: withScope(
					&cli.BoolFlag{Name: "dump", Usage: "dump resolution index instead"},
				),
			},
			{
				Name:         "add",
				Usage:        "Registers asset stored elsewhere",
				OnUsageError: usageErrorHandler,
				Action:       commands.Add,
				Flags: withScope(
					&cli.StringFlag{Name: "url", Usage: "`URL` of asset image"},
					&cli.StringSliceFlag{Name: "tag", Usage: "asset `TAG`, may be repeated"},
				),
				ArgsUsage: "NAME",
			},
			{
				Name:         "remove",
				Usage:        "Forgets assets, files are kept",
				OnUsageError: usageErrorHandler,
				Action:       commands.Remove,
				Flags:        withScope(),
				ArgsUsage:    "NAME...",
			},
			{
				Name:         "rename",
				Usage:        "Renames asset",
				OnUsageError: usageErrorHandler,
				Action:       commands.Rename,
				Flags:        withScope(),
				ArgsUsage:    "OLD NEW",
			},
			{
				Name:         "tags",
				Usage:        "Replaces asset tags",
				OnUsageError: usageErrorHandler,
				Action:       commands.Tags,
				Flags:        withScope(),
				ArgsUsage:    "NAME [TAG...]",
			},
			{
				Name:         "upload",
				Usage:        "Stores image files and registers them as assets",
				OnUsageError: usageErrorHandler,
				Action:       commands.Upload,
				Flags: withScope(
					&cli.StringSliceFlag{Name: "tag", Usage: "`TAG` for all uploaded assets, may be repeated"},
					&cli.StringFlag{Name: "prefix", Usage: "only take zip entries under `PATH`"},
					&cli.Int64Flag{Name: "limit", Value: 16 << 20, Usage: "refuse zip entries larger than `BYTES`"},
				),
				ArgsUsage: "FILE...",
				CustomHelpTemplate: fmt.Sprintf(`%s%s
FILE:
    image file or zip archive of images, archive entries become assets
    named after entry file names
`, cli.CommandHelpTemplate, scopeHelp),
			},
			{
				Name:         "delete",
				Usage:        "Deletes assets together with their files",
				OnUsageError: usageErrorHandler,
				Action:       commands.Delete,
				Flags:        withScope(),
				ArgsUsage:    "NAME...",
			},
			{
				Name:  "dumpconfig",
				Usage: "Dumps either default or actual configuration (YAML)",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "default", Usage: "output default embedded configuration"},
				},
				OnUsageError: usageErrorHandler,
				Action:       outputConfiguration,
				ArgsUsage:    "DESTINATION",
				CustomHelpTemplate: fmt.Sprintf(`%s

DESTINATION:
    file name to write configuration to, if absent - STDOUT

Produces file with actual "active" configuration values wich is composition of
default values and values specified in configuration file. To see default
configuration embedded into the program use --default flag.
`, cli.CommandHelpTemplate),
			},
		},
	}

	var err error
	// NOTE: os.Exit is called at the end of main to set exit code, make sure
	// there are no other deffered functions after that
	defer func() {
		stop()
		if err != nil {
			// It may happen that log is either not set yet (argument parsing) or already closed,
			// report errors to stderr directly
			if !errWasHandled {
				fmt.Fprintf(os.Stderr, "Program ended with error: %v\n", err)
			}
			os.Exit(1)
		}
	}()
	err = app.Run(ctx, os.Args)
}

func outputConfiguration(ctx context.Context, cmd *cli.Command) error {

	env := state.EnvFromContext(ctx)
	if cmd.Args().Len() > 1 {
		env.Log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[1:]))
	}

	fname := cmd.Args().Get(0)

	var (
		err   error
		data  []byte
		state string
	)

	out := os.Stdout
	if len(fname) > 0 {
		out, err = os.Create(fname)
		if err != nil {
			return fmt.Errorf("unable to create destination file '%s': %w", fname, err)
		}
		defer out.Close()
	}

	if cmd.Bool("default") {
		state = "default"
		data, err = config.Prepare()
	} else {
		state = "actual"
		data, err = config.Dump(env.Cfg)
	}
	if err != nil {
		return fmt.Errorf("unable to get configuration: %w", err)
	}

	if len(fname) == 0 {
		fname = "STDOUT"
	}
	env.Log.Info("Outputing configuration", zap.String("state", state), zap.String("file", fname))

	_, err = out.Write(data)
	if err != nil {
		return fmt.Errorf("unable to write configuration: %w", err)
	}
	return nil
}
