package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"agristat/internal/config"
	"agristat/internal/engine"
	"agristat/internal/logging"
)

// app carries global flags and the loaded configuration to subcommands
type app struct {
	cfgFile  string
	dataPath string
	logLevel string

	cfg    *config.Config
	logger *slog.Logger
}

// NewRootCommand builds the agristat command tree
func NewRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "agristat",
		Short: "AgriStat: crop area, production and yield dashboards",
		Long: `AgriStat loads a state-by-year agricultural dataset and serves two chart views:
area and production by state for one crop and year, and yield comparison over
years for one state.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.loadConfig(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd)
		},
	}

	// Persistent global flags available to all subcommands
	f := root.PersistentFlags()
	f.StringVar(&a.cfgFile, "config", "", "config file (default is ./agristat.yaml)")
	f.StringVar(&a.dataPath, "data", "", "dataset path, .csv or .xlsx (overrides config)")
	f.StringVar(&a.logLevel, "log-level", "", "debug, info, warn or error (overrides config)")

	root.AddCommand(
		a.serveCommand(),
		a.chartCommand(),
		a.cropsCommand(),
		a.configCommand(),
	)
	return root
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := NewRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		if engine.IsDataSourceError(err) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func (a *app) loadConfig(cmd *cobra.Command) error {
	c, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}

	// Apply CLI overrides if provided
	f := cmd.Flags()
	if f.Changed("data") && a.dataPath != "" {
		c.Data.Path = a.dataPath
	}
	if f.Changed("log-level") && a.logLevel != "" {
		c.Log.Level = a.logLevel
	}
	a.cfg = c
	a.logger = logging.New(c.Log, cmd.ErrOrStderr())
	return nil
}

// loadDashboard reads the dataset synchronously for one-shot commands
func (a *app) loadDashboard() (*engine.Dashboard, error) {
	loader := engine.NewLoader(engine.LoaderOptions{MissingValues: a.cfg.Data.MissingValues}, a.logger)
	table, err := loader.Load(a.cfg.Data.Path)
	if err != nil {
		return nil, err
	}
	return engine.NewDashboard(table, engine.DashboardOptions{ColorMap: a.cfg.Charts.ColorMapping()}), nil
}

// out returns where command results go
func out(cmd *cobra.Command) io.Writer {
	return cmd.OutOrStdout()
}
