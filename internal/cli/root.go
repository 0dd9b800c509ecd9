// Package cli implements the reel command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/zsiec/reel/internal/config"
	"github.com/zsiec/reel/internal/logging"
)

// app is the state shared by the commands of one invocation.
type app struct {
	version        string
	stdout, stderr io.Writer

	configFile string
	config     *config.Manager
	log        *slog.Logger
	logCloser  io.Closer
}

// Execute runs reel with args and returns the process exit code. Failures
// are reported as a single log record.
func Execute(ctx context.Context, version string, args []string, stdout, stderr io.Writer) int {
	root, a := newRootCommand(version, stdout, stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	defer a.close()
	if err != nil {
		a.logger().Error("reel failed", "error", err)
		return 1
	}
	return 0
}

// NewRootCommand returns the reel command tree writing to stdout and stderr.
func NewRootCommand(version string, stdout, stderr io.Writer) *cobra.Command {
	root, _ := newRootCommand(version, stdout, stderr)
	return root
}

func newRootCommand(version string, stdout, stderr io.Writer) (*cobra.Command, *app) {
	a := &app{version: version, stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "reel [flags] <path>",
		Short: "Play video frames from a file or SRT stream",
		Long: `reel decodes a video stream and shows it in the terminal, or renders it
offscreen with --display headless.

Sources:
  clip.y4m                          YUV4MPEG2 raw video
  clip.ts                           MPEG transport stream
  srt://host:port?streamid=live/x   MPEG-TS pulled from an SRT listener
  srt://:port?mode=listener         MPEG-TS pushed by an SRT caller

Only raw video can be decoded; other codecs are listed by 'reel probe'.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			switch cmd.Name() {
			case "help", "completion", "version":
				return nil
			}
			return a.init(cmd.Root())
		},
		RunE: a.runPlay,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&a.configFile, "config", "", "config file (default $XDG_CONFIG_HOME/reel/config.yaml or ./reel.yaml)")
	pf.String("log-level", "info", "log level: debug, info, warn or error")
	pf.String("log-format", config.LogText, "log format: text or json")
	pf.String("log-file", "", "write logs to this file instead of stderr")

	addPlayFlags(root)

	root.AddCommand(
		newProbeCommand(a),
		newGenCommand(a),
		newPushCommand(a),
		newConfigCommand(a),
		newVersionCommand(a),
	)
	return root, a
}

// flagKeys maps command line flags to configuration keys.
var flagKeys = []struct {
	flag, key string
	local     bool
}{
	{"log-level", "logging.level", false},
	{"log-format", "logging.format", false},
	{"log-file", "logging.file", false},
	{"display", "display.mode", true},
	{"width", "display.width", true},
	{"height", "display.height", true},
	{"background", "display.background", true},
	{"snapshot", "display.snapshot", true},
	{"convert", "pipeline.convert", true},
	{"queue-size", "pipeline.packet_queue_size", true},
}

// init loads the configuration and builds the logger.
func (a *app) init(root *cobra.Command) error {
	a.config = config.NewManager(a.bootstrapLogger())
	if a.configFile != "" {
		a.config.SetConfigFile(a.configFile)
	}
	for _, fk := range flagKeys {
		fs := root.PersistentFlags()
		if fk.local {
			fs = root.Flags()
		}
		if err := a.config.BindFlag(fk.key, fs.Lookup(fk.flag)); err != nil {
			return err
		}
	}
	if err := a.config.Load(); err != nil {
		return err
	}

	log, closer, err := logging.Open(a.config.Config().Logging, a.stderr)
	if err != nil {
		return err
	}
	a.log, a.logCloser = log, closer
	return nil
}

// bootstrapLogger logs until the configured logger exists.
func (a *app) bootstrapLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func (a *app) logger() *slog.Logger {
	if a.log != nil {
		return a.log
	}
	return a.bootstrapLogger()
}

func (a *app) close() {
	if a.logCloser != nil {
		a.logCloser.Close()
	}
}

func newVersionCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the reel version",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			_, err := fmt.Fprintf(a.stdout, "reel %s\n", a.version)
			return err
		},
	}
}

var errMissingPath = errors.New("missing media path: usage: reel [flags] <path>")
