// Package main is the entry point for the revlauncher command.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dshills/revlauncher/internal/config"
	"github.com/dshills/revlauncher/internal/logging"
	"github.com/dshills/revlauncher/internal/settings/notify"
	"github.com/dshills/revlauncher/internal/settings/registry"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	a := &app{stdout: stdout, stderr: stderr}
	defer a.close()

	root := newRootCmd(a)
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// app holds the state shared by every subcommand of one invocation.
type app struct {
	stdout io.Writer
	stderr io.Writer

	// Global flags
	configDir   string
	logLevel    string
	javaCommand string
	verbose     bool
	showMetrics bool

	configOpts []config.Option

	cfg      *config.Config
	logger   *zap.Logger
	notifier *notify.Notifier
	metrics  *prometheus.Registry
	reg      *registry.Registry
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "revlauncher",
		Short: "Inspect and change launcher settings",
		Long: `revlauncher manages the launcher's settings.

Settings live in a global store inside the config directory. Each registered
workspace scope may override individual items; an item it has never changed
follows the global value. Scope "global" (or -1 after "--") addresses the
global store.`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	flags := root.PersistentFlags()
	flags.StringVar(&a.configDir, "config-dir", "", "directory holding setting.json and id_setting.json")
	flags.StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.StringVar(&a.javaCommand, "java", "", "java command used for first-run detection")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")
	flags.BoolVar(&a.showMetrics, "metrics", false, "print operation counters to stderr on exit")
	_ = flags.MarkHidden("metrics")

	root.AddCommand(
		newGetCmd(a),
		newSetCmd(a),
		newResetCmd(a),
		newScopesCmd(a),
		newRegisterCmd(a),
		newLaunchArgsCmd(a),
		newParseVersionCmd(a),
		newConfigCmd(a),
	)
	return root
}

// setup resolves configuration and builds the logger.
func (a *app) setup(cmd *cobra.Command) error {
	flags := make(map[string]any)
	if cmd.Flags().Changed("config-dir") {
		flags[config.KeyConfigDir] = a.configDir
	}
	if cmd.Flags().Changed("log-level") {
		flags[config.KeyLogLevel] = a.logLevel
	}
	if a.verbose {
		flags[config.KeyLogLevel] = "debug"
	}
	if cmd.Flags().Changed("java") {
		flags[config.KeyJavaCommand] = a.javaCommand
	}

	cfg, err := config.Load(append(a.configOpts, config.WithFlags(flags))...)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	a.cfg = cfg

	logger, err := logging.New(cfg.Logging.Level, logging.WithConsole(), logging.WithOutput(a.stderr))
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.logger = logger
	a.logger.Debug("configuration loaded",
		zap.String("config_dir", cfg.Paths.ConfigDir),
		zap.String("file", cfg.File))
	return nil
}

// open constructs the settings registry on first use.
func (a *app) open() (*registry.Registry, error) {
	if a.reg != nil {
		return a.reg, nil
	}
	logger := logging.OrNop(a.logger)

	a.notifier = notify.New()
	a.notifier.Subscribe(func(c notify.Change) {
		logger.Info("setting changed",
			zap.String("id", c.ID),
			zap.Int("scope", c.Scope),
			zap.String("item", c.Item),
			zap.Stringer("type", c.Type))
	})

	a.metrics = prometheus.NewRegistry()
	metrics, err := registry.NewMetrics(a.metrics)
	if err != nil {
		return nil, err
	}

	reg, err := registry.Open(a.cfg.Paths.ConfigDir,
		registry.WithSchema(registry.DefaultSchema(a.cfg.Detector())),
		registry.WithLogger(logger.Named("settings")),
		registry.WithNotifier(a.notifier),
		registry.WithMetrics(metrics),
	)
	if err != nil {
		return nil, err
	}
	a.reg = reg
	return reg, nil
}

// close flushes metrics and the logger.
func (a *app) close() {
	if a.showMetrics && a.metrics != nil {
		a.printMetrics()
	}
	if a.notifier != nil {
		a.notifier.Close()
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

func (a *app) printMetrics() {
	families, err := a.metrics.Gather()
	if err != nil {
		fmt.Fprintf(a.stderr, "gather metrics: %v\n", err)
		return
	}
	enc := expfmt.NewEncoder(a.stderr, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			fmt.Fprintf(a.stderr, "encode metrics: %v\n", err)
			return
		}
	}
	if closer, ok := enc.(expfmt.Closer); ok {
		_ = closer.Close()
	}
}
