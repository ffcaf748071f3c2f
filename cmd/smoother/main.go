// Package main is the smoother command line tool. It filters recorded transforms offline and
// serves live filtering driven by a config file.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"go.viam.com/smoother/logging"
	"go.viam.com/smoother/smoother"
)

const (
	// Flags.
	generalFlagDebug    = "debug"
	generalFlagLogLevel = "log-level"
	generalFlagLogFile  = "log-file"

	filterFlagCutoff  = "cutoff"
	filterFlagDT      = "dt"
	filterFlagBypass  = "bypass"
	filterFlagSummary = "summary"
	filterFlagPlot    = "plot"

	serveFlagConfig = "config"
)

// logFileMaxSizeMB and logFileMaxBackups bound the disk used by --log-file.
const (
	logFileMaxSizeMB  = 10
	logFileMaxBackups = 3
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func newApp() *cli.App {
	// Logs go to stderr; stdout carries transforms.
	var (
		logger       logging.Logger
		fileAppender *logging.FileAppender
	)

	return &cli.App{
		Name:  "smoother",
		Usage: "low-pass filter rigid transforms from pose trackers",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    generalFlagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
			&cli.StringFlag{
				Name:  generalFlagLogLevel,
				Usage: "minimum level logged: debug, info, warn or error",
				Value: "info",
			},
			&cli.PathFlag{
				Name:  generalFlagLogFile,
				Usage: "also write logs to `FILE`, rotated by size",
			},
		},
		Before: func(c *cli.Context) error {
			level, err := logging.LevelFromString(c.String(generalFlagLogLevel))
			if err != nil {
				return err
			}
			if c.Bool(generalFlagDebug) {
				level = logging.DEBUG
			}
			appenders := []logging.Appender{logging.NewWriterAppender(c.App.ErrWriter)}
			if path := c.Path(generalFlagLogFile); path != "" {
				fileAppender = logging.NewFileAppender(path, logFileMaxSizeMB, logFileMaxBackups)
				appenders = append(appenders, fileAppender)
			}
			logger = logging.NewLogger("smoother", level, appenders...)
			return nil
		},
		After: func(c *cli.Context) error {
			if logger != nil {
				//nolint:errcheck
				logger.Sync()
			}
			if fileAppender != nil {
				return fileAppender.Close()
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "filter",
				Usage:     "filter one recorded stream of transforms",
				UsageText: "smoother filter [options] < raw.jsonl > smoothed.jsonl",
				Description: `Reads one transform per line as {"matrix": [16 row major values]} from stdin
and writes the filtered transform for each line to stdout in the same format.`,
				Flags: []cli.Flag{
					&cli.Float64Flag{
						Name:  filterFlagCutoff,
						Usage: "cutoff frequency in Hz",
						Value: smoother.DefaultCutoffHz,
					},
					&cli.DurationFlag{
						Name:  filterFlagDT,
						Usage: "time between consecutive samples",
						Value: smoother.DefaultTickInterval,
					},
					&cli.BoolFlag{
						Name:  filterFlagBypass,
						Usage: "pass samples through unfiltered",
					},
					&cli.BoolFlag{
						Name:  filterFlagSummary,
						Usage: "print jitter statistics of the raw and filtered streams to stderr",
					},
					&cli.PathFlag{
						Name:  filterFlagPlot,
						Usage: "save a plot of the raw and filtered rotation to `FILE` (.png, .svg, .pdf)",
					},
				},
				Action: func(c *cli.Context) error {
					return filterAction(c, logger)
				},
			},
			{
				Name:      "serve",
				Usage:     "filter live transforms according to a config file",
				UsageText: "smoother serve --config smoother.json",
				Description: `Reads samples as {"name": "...", "matrix": [16 values]} from stdin into the named
inputs, steps every configured channel each poll interval and writes each output as the
same kind of line to stdout. The config file is reloaded when it changes.`,
				Flags: []cli.Flag{
					&cli.PathFlag{
						Name:     serveFlagConfig,
						Aliases:  []string{"c"},
						Usage:    "load configuration from `FILE`",
						Required: true,
					},
				},
				Action: func(c *cli.Context) error {
					return serveAction(c, logger)
				},
			},
			{
				Name:  "schema",
				Usage: "print the JSON schema of the config file",
				Action: func(c *cli.Context) error {
					return schemaAction(c)
				},
			},
		},
	}
}
