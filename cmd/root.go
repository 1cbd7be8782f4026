// Package cmd implements the mggraph command line.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentic-research/mggraph/internal/collection"
	"github.com/agentic-research/mggraph/internal/config"
	"github.com/agentic-research/mggraph/internal/decomp"
	"github.com/agentic-research/mggraph/internal/diag"
	"github.com/agentic-research/mggraph/internal/logging"
	"github.com/agentic-research/mggraph/internal/workspace"
)

var (
	configPath string
	storeFlag  string
	dataDir    string
	logLevel   string
	logFormat  string

	similarity decomp.Options
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to settings file (default ./"+config.DefaultFile+" if present)")
	rootCmd.PersistentFlags().StringVar(&storeFlag, "store", "", "Graph store backend: memory, sqlite or neo4j")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Directory for the graph database and example collection")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: text or json")
}

var rootCmd = &cobra.Command{
	Use:           "mggraph",
	Short:         "Minimalist Grammar derivation graphs, affix decomposition and MDL",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// app is everything a command needs once settings are resolved.
type app struct {
	cfg  config.Config
	log  *slog.Logger
	ws   *workspace.Workspace
	coll *collection.Store
}

func (a *app) Close() {
	if err := a.ws.Close(); err != nil {
		a.log.Warn("closing graph store", "error", err)
	}
}

// loadConfig reads the settings file and applies command-line overrides.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, err
	}
	if storeFlag != "" {
		cfg.Store.Backend = storeFlag
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if logFormat != "" {
		cfg.Log.Format = logFormat
	}
	return cfg, cfg.Validate()
}

func openApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	log := logging.New(logging.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Writer: cmd.ErrOrStderr(),
	})

	coll, err := collection.Open(cfg.ResolvedDataDir())
	if err != nil {
		return nil, fmt.Errorf("open example collection: %w", err)
	}
	store, err := workspace.OpenStore(cmd.Context(), cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Store.Backend, err)
	}
	ws := workspace.New(store, workspace.Options{
		AlphabetSize: cfg.MDL.AlphabetSize,
		FeatureTypes: cfg.MDL.FeatureTypes,
		Similarity:   similarity,
		Collection:   coll,
		Logger:       log,
	})
	log.Debug("workspace ready", "store", cfg.Store.Backend, "data_dir", cfg.ResolvedDataDir())
	return &app{cfg: cfg, log: log, ws: ws, coll: coll}, nil
}

// loadFile opens the app and builds the grammar in path.
func loadFile(cmd *cobra.Command, path string) (*app, error) {
	src, err := readFile(path)
	if err != nil {
		return nil, err
	}
	a, err := openApp(cmd)
	if err != nil {
		return nil, err
	}
	err = a.ws.With(cmd.Context(), func(s *workspace.Session) error {
		report, err := s.Load(cmd.Context(), src)
		printReport(cmd, report)
		return err
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func readFile(path string) (string, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read grammar: %w", err)
	}
	return string(src), nil
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}

func printReport(cmd *cobra.Command, report *diag.Report) {
	if report == nil {
		return
	}
	for _, m := range report.Messages() {
		_, _ = fmt.Fprintln(cmd.ErrOrStderr(), m)
	}
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
