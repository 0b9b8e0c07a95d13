// Command liveedit serves the recording-target admin panel and offers the
// same entry operations on the command line.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/farwmarth/liveedit/internal/config"
	"github.com/farwmarth/liveedit/internal/linestore"
	"github.com/farwmarth/liveedit/internal/recordings"
)

const version = "0.3.0"

// app carries what every subcommand needs once flags are parsed.
type app struct {
	cfg    *config.Config
	logger *slog.Logger

	configDir   string
	journalPath string
	logDir      string
	port        int
	host        string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:          "liveedit",
		Short:        "Manage livestream recording targets",
		Long:         "liveedit edits the recorder's target list (one \"target, note\" per line, '#' disables a line) and shows what the recorder is capturing. With no subcommand it serves the web panel.",
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.load(cmd)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd)
		},
	}
	root.SetVersionTemplate("liveedit {{.Version}}\n")

	pf := root.PersistentFlags()
	pf.StringVar(&a.configDir, "config-dir", "", "directory searched first for the entries and startup files")
	pf.StringVar(&a.journalPath, "journal", "", "SQLite change journal path")
	pf.StringVar(&a.logDir, "log-dir", "", "directory for the rotated log file")
	addServeFlags(root, a)

	root.AddCommand(
		newServeCmd(a),
		newListCmd(a),
		newAddCmd(a),
		newToggleCmd(a),
		newToggleTargetCmd(a),
		newRemoveCmd(a),
		newModifyCmd(a),
		newRecordingsCmd(a),
		newHistoryCmd(a),
		newVersionCmd(),
	)
	return root
}

// load reads the environment and applies any flags the user set.
func (a *app) load(cmd *cobra.Command) {
	cfg := config.Load()
	flags := cmd.Flags()
	if flags.Changed("config-dir") {
		cfg.ConfigDir = a.configDir
	}
	if flags.Changed("journal") {
		cfg.JournalPath = a.journalPath
	}
	if flags.Changed("log-dir") {
		cfg.LogDir = a.logDir
	}
	if flags.Lookup("port") != nil && flags.Changed("port") {
		cfg.Port = a.port
	}
	if flags.Lookup("host") != nil && flags.Changed("host") {
		cfg.Host = a.host
	}
	a.cfg = cfg

	// Subcommands print their results on stdout, so their logs stay on
	// stderr and only warnings get through.
	if cmd.Name() == "serve" || cmd == cmd.Root() {
		a.logger = newLogger(cfg, os.Stdout, slog.LevelInfo)
	} else {
		a.logger = newLogger(cfg, cmd.ErrOrStderr(), slog.LevelWarn)
	}
}

// newLogger builds the process logger. With a log directory set, every line
// is also written to a rotating file.
func newLogger(cfg *config.Config, out io.Writer, level slog.Level) *slog.Logger {
	w := out
	if cfg.LogDir != "" {
		rotator := &lumberjack.Logger{
			Filename:   filepath.Join(cfg.LogDir, "liveedit.log"),
			MaxSize:    100, // MB
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		}
		w = io.MultiWriter(out, rotator)
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// openStore locates the entries file. A missing file is fatal for every
// command: there is nothing to edit.
func (a *app) openStore() (*linestore.Store, error) {
	path, err := config.Locate(a.cfg.EntriesFile, a.cfg.SearchDirs()...)
	if err != nil {
		a.logger.Error("entries file not found", "file", a.cfg.EntriesFile, "error", err)
		return nil, err
	}
	return linestore.New(path, a.logger), nil
}

// openProxy loads the startup file. Without one the proxy still exists and
// answers every request with "URL not found in config".
func (a *app) openProxy() *recordings.Proxy {
	startup := config.EmptyStartup()
	path, err := config.Locate(a.cfg.StartupFile, a.cfg.SearchDirs()...)
	if err != nil {
		a.logger.Warn("startup file not found, recordings disabled", "file", a.cfg.StartupFile, "error", err)
	} else if s, err := config.LoadStartup(path); err != nil {
		a.logger.Warn("startup file unreadable, recordings disabled", "path", path, "error", err)
	} else {
		startup = s
	}
	if startup.RecorderURL == "" {
		a.logger.Warn("recorder URL not configured", "key", "url")
	}
	return recordings.New(startup, a.logger)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "liveedit %s\n", version)
			return err
		},
	}
}
