package main

/*
 * ydecode
 *
 *    decodes yEnc articles back into files:
 *     single article files, multi-part article sets
 *     and whole NZBs from an NZBreX article cache.
 *
 * Foreign Includes:
 *     github.com/Tensai75/nzbparser   (MIT License)
 *     github.com/Tensai75/cmpb        (MIT License)
 *     github.com/fatih/color          (MIT License)
 *
 */

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"
)

var (
	appName    = "ydecode"
	appVersion = "-" // Github tag or built date
	runID      = uuid.New().String()
)

func init() {
	setupSigusr1Dump()
} // end func init

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		// exitErrHandler already exited for cli.ExitCoder errors
		os.Exit(1)
	}
} // end func main

func newApp() *cli.App {
	return &cli.App{
		Name:           appName,
		Usage:          "decode yEnc encoded articles",
		Version:        appVersion,
		ExitErrHandler: exitErrHandler,
		Commands: []*cli.Command{
			{
				Name:      "decode",
				Usage:     "decode article files as one file and store it",
				ArgsUsage: "FILE...",
				Flags:     commonFlags(),
				Action:    decodeAction,
			},
			{
				Name:   "nzb",
				Usage:  "decode every file of an NZB from the article cache",
				Flags:  nzbFlags(),
				Action: nzbAction,
			},
			{
				Name:      "info",
				Usage:     "decode article files and print their metadata",
				ArgsUsage: "FILE...",
				Flags:     commonFlags(),
				Action:    infoAction,
			},
			{
				Name:      "report",
				Usage:     "print a run report written with --report",
				ArgsUsage: "FILE",
				Action:    reportAction,
			},
			{
				Name:   "version",
				Usage:  "prints app version",
				Action: versionAction,
			},
		},
	}
} // end func newApp

// setup loads the config and installs the process logger.
func setup(c *cli.Context) (*Config, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	l, err := newLogger(cfg.Log, runID, c.App.ErrWriter)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errConfig, err)
	}
	setLogger(l)
	setColors(cfg.Colors)
	dlog(debugOn(), "Settings: '%#v'", *cfg)
	return cfg, nil
} // end func setup

func newRunnerFor(c *cli.Context, cfg *Config) (*Runner, error) {
	sink, err := newSink(c.Context, cfg)
	if err != nil {
		return nil, err
	}
	return NewRunner(cfg, sink, logger, c.App.Writer)
}

func decodeAction(c *cli.Context) error {
	if c.NArg() == 0 {
		return exitError(fmt.Errorf("%w: decode needs at least one FILE", errConfig))
	}
	cfg, err := setup(c)
	if err != nil {
		return exitError(err)
	}
	runner, err := newRunnerFor(c, cfg)
	if err != nil {
		return exitError(err)
	}
	return finishRun(c, cfg, runner.DecodeArticles(c.Context, c.Args().Slice()))
} // end func decodeAction

func nzbAction(c *cli.Context) error {
	if c.String("nzb") == "" {
		return exitError(fmt.Errorf("%w: nzb needs --nzb /path/file.nzb", errConfig))
	}
	cfg, err := setup(c)
	if err != nil {
		return exitError(err)
	}
	runner, err := newRunnerFor(c, cfg)
	if err != nil {
		return exitError(err)
	}
	rep, err := runner.DecodeNZB(c.Context, c.String("nzb"))
	if err != nil {
		return exitError(err)
	}
	return finishRun(c, cfg, rep)
} // end func nzbAction

func infoAction(c *cli.Context) error {
	if c.NArg() == 0 {
		return exitError(fmt.Errorf("%w: info needs at least one FILE", errConfig))
	}
	cfg, err := setup(c)
	if err != nil {
		return exitError(err)
	}
	runner, err := NewRunner(cfg, nil, logger, c.App.Writer)
	if err != nil {
		return exitError(err)
	}
	return exitError(runner.Info(c.Context, c.Args().Slice(), c.App.Writer))
} // end func infoAction

func reportAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return exitError(fmt.Errorf("%w: report needs exactly one FILE", errConfig))
	}
	rep, err := readReport(c.Args().First())
	if err != nil {
		return exitError(err)
	}
	fmt.Fprintln(c.App.Writer, Results(rep))
	return nil
} // end func reportAction

func versionAction(c *cli.Context) error {
	fmt.Fprintf(c.App.Writer, "%s version: [%s]\n", appName, appVersion)
	return nil
}

// finishRun prints the summary, writes the report and sets the exit code.
func finishRun(c *cli.Context, cfg *Config, rep *Report) error {
	fmt.Fprintln(c.App.Writer, Results(rep))
	if cfg.Report != "" {
		if err := writeReport(cfg.Report, rep); err != nil {
			return exitError(fmt.Errorf("write report: %w", err))
		}
	}
	if failed := rep.Failed(); failed > 0 {
		return exitError(fmt.Errorf("%d of %d files failed", failed, len(rep.Files)))
	}
	return nil
} // end func finishRun

// exitError maps err to an exit code: 2 for config and usage errors, 1 for
// everything else.
func exitError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, errConfig) {
		return cli.Exit(err.Error(), 2)
	}
	return cli.Exit(err.Error(), 1)
} // end func exitError

// exitErrHandler preserves exit codes from cli.Exit.
func exitErrHandler(c *cli.Context, err error) {
	if err == nil {
		return
	}
	var errWriter io.Writer = os.Stderr
	if c != nil && c.App != nil && c.App.ErrWriter != nil {
		errWriter = c.App.ErrWriter
	}
	var exitCoder cli.ExitCoder
	if errors.As(err, &exitCoder) {
		code := exitCoder.ExitCode()
		msg := exitCoder.Error()
		if msg != "" && msg != fmt.Sprintf("exit status %d", code) {
			fmt.Fprintln(errWriter, msg)
		}
		os.Exit(code)
	}
	fmt.Fprintf(errWriter, "Error: %v\n", err)
	os.Exit(1)
} // end func exitErrHandler
