// Package app wires configuration, logging and the port pipeline into the
// portman command line.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pranshuparmar/portman/internal/config"
	"github.com/pranshuparmar/portman/internal/control"
	"github.com/pranshuparmar/portman/internal/executor"
	"github.com/pranshuparmar/portman/internal/logging"
	"github.com/pranshuparmar/portman/internal/output"
	"github.com/pranshuparmar/portman/internal/pipeline"
	"github.com/pranshuparmar/portman/internal/proc"
	"github.com/pranshuparmar/portman/internal/scan"
	"github.com/pranshuparmar/portman/internal/scheduler"
	"github.com/pranshuparmar/portman/internal/snapshot"
	"github.com/pranshuparmar/portman/internal/source"
)

var (
	version   = "dev"
	commit    = ""
	buildDate = ""
)

// SetVersionBuildCommitString records the values injected by -ldflags.
func SetVersionBuildCommitString(v, c, d string) {
	if v != "" {
		version = v
	}
	commit = c
	buildDate = d
}

// Version is the version string reported by the binary.
func Version() string { return version }

type appContext struct {
	configPath string
	logLevel   string
	jsonOut    bool
	yamlOut    bool
	noColor    bool

	// runner overrides the OS command runner; tests script it.
	runner executor.Runner

	cfg     *config.Config
	logger  *zap.Logger
	manager *pipeline.Manager
}

func NewRootCmd() *cobra.Command {
	root, _ := newRootCommand(nil)
	return root
}

func newRootCommand(runner executor.Runner) (*cobra.Command, *appContext) {
	ctx := &appContext{runner: runner}

	root := &cobra.Command{
		Use:   "portman",
		Short: "Inspect listening ports and control the processes behind them",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if ctx.jsonOut && ctx.yamlOut {
				return fmt.Errorf("--json and --yaml are mutually exclusive")
			}
			return ctx.load()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if ctx.logger != nil {
				_ = ctx.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVarP(&ctx.configPath, "config", "c", "", "Path to config file (default $HOME/.config/portman/config.yaml)")
	root.PersistentFlags().StringVar(&ctx.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	root.PersistentFlags().BoolVar(&ctx.jsonOut, "json", false, "Print output as JSON")
	root.PersistentFlags().BoolVar(&ctx.yamlOut, "yaml", false, "Print output as YAML")
	root.PersistentFlags().BoolVar(&ctx.noColor, "no-color", false, "Disable colored output")

	root.AddCommand(newScanCmd(ctx))
	root.AddCommand(newListCmd(ctx))
	root.AddCommand(newGetCmd(ctx))
	root.AddCommand(newSearchCmd(ctx))
	root.AddCommand(newStatsCmd(ctx))
	root.AddCommand(newInfoCmd(ctx))
	root.AddCommand(newAliveCmd(ctx))
	root.AddCommand(newKillCmd(ctx))
	root.AddCommand(newServeCmd(ctx))
	root.AddCommand(newTuiCmd(ctx))
	root.AddCommand(newVersionCmd())

	root.SilenceUsage = true
	root.SilenceErrors = true

	return root, ctx
}

// Execute runs the CLI entrypoint.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := NewRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func (c *appContext) load() error {
	cfg, err := config.Load(config.New(), c.configPath)
	if err != nil {
		return err
	}
	if c.logLevel != "" {
		cfg.Log.Level = c.logLevel
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	c.cfg = cfg
	c.logger = logger
	return nil
}

// getManager builds the pipeline on first use.
func (c *appContext) getManager() *pipeline.Manager {
	if c.manager != nil {
		return c.manager
	}

	runner := c.runner
	if runner == nil {
		runner = executor.NewExecRunner(c.cfg.Scan.CommandTimeout, c.logger)
	}
	platform := proc.Current()
	keywords := c.cfg.Scan.Keywords()

	var inspector proc.Inspector
	if c.cfg.Scan.Enrich {
		inspector = proc.GopsutilInspector{}
	}

	strategy := scan.New(scan.Config{
		Platform:    platform,
		Runner:      runner,
		DevKeywords: keywords,
		Inspector:   inspector,
		Logger:      c.logger,
	})
	cache := snapshot.New()
	c.manager = pipeline.New(pipeline.Config{
		Strategy:  strategy,
		Cache:     cache,
		Scheduler: scheduler.New(strategy, cache, c.cfg.Scan.Interval, c.logger),
		Controller: control.New(control.Config{
			Platform:        platform,
			Runner:          runner,
			Labels:          source.LabelTableFromMap(c.cfg.Control.ServiceLabels),
			LaunchAgentsDir: c.cfg.Control.LaunchAgentsDir,
			DevKeywords:     keywords,
			Inspector:       inspector,
			Logger:          c.logger,
		}),
		BatchConcurrency: c.cfg.Control.BatchConcurrency,
		Logger:           c.logger,
	})
	return c.manager
}

func (c *appContext) color() bool {
	return !c.noColor && os.Getenv("NO_COLOR") == ""
}

// render prints v as JSON or YAML when requested and falls back to text.
func (c *appContext) render(w io.Writer, v any, text func(io.Writer)) error {
	switch {
	case c.jsonOut:
		s, err := output.ToJSON(v)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, s)
	case c.yamlOut:
		s, err := output.ToYAML(v)
		if err != nil {
			return err
		}
		fmt.Fprint(w, s)
	default:
		text(w)
	}
	return nil
}
