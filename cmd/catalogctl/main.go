// Package main provides the catalog administration CLI.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	appconfig "github.com/zakupnik/backend/config"
	"github.com/zakupnik/backend/internal/infrastructure/catalog"
	"github.com/zakupnik/backend/internal/observability"
	"github.com/zakupnik/backend/internal/search"
	"github.com/zakupnik/backend/internal/usecase"
)

var (
	// Global flags
	catalogPath string
	outputJSON  bool
	verbose     bool
	noColor     bool

	// Configuration and logger
	cfg    *appconfig.Config
	logger zerolog.Logger
)

// rootCmd represents the base command.
var rootCmd = &cobra.Command{
	Use:   "catalogctl",
	Short: "Catalog administration for the best-price matching engine",
	Long: `catalogctl manages the supplier catalog behind the matching engine.

Use this tool to:
- Import supplier and offer data from JSON exports
- Reclassify the catalog after rule changes and review the drift
- Lint rule files before deploying them

All commands support --json for automation.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()

		var err error
		cfg, err = appconfig.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		level := cfg.Log.Level
		if verbose {
			level = "debug"
		}
		logger = observability.NewLogger(observability.LogConfig{
			Level:   level,
			Format:  "console",
			Service: "catalogctl",
		})

		color.NoColor = color.NoColor || noColor
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&catalogPath, "catalog", "", "catalog database path (default: from config)")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(newImportCmd())
	rootCmd.AddCommand(newReclassifyCmd())
	rootCmd.AddCommand(newRulesCmd())
	rootCmd.AddCommand(newVersionCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newVersionCmd creates the version subcommand.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("catalogctl v1.0.0")
		},
	}
}

// openCatalog opens the catalog store the commands operate on.
func openCatalog() (*catalog.Store, error) {
	path := catalogPath
	if path == "" {
		path = cfg.Catalog.Path
	}
	store, err := catalog.Open(path, logger)
	if err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", path, err)
	}
	return store, nil
}

// loadRules compiles the rule snapshot the commands classify with.
func loadRules(path string) (*usecase.Rules, error) {
	if path == "" {
		path = cfg.Rules.Path
	}
	provider, err := usecase.NewRuleProvider(path, search.DefaultOptions(), logger)
	if err != nil {
		return nil, err
	}
	return provider.Current(), nil
}

func success(format string, args ...interface{}) {
	color.New(color.FgGreen).Printf("✓ "+format+"\n", args...)
}

func warn(format string, args ...interface{}) {
	color.New(color.FgYellow).Printf("⚠ "+format+"\n", args...)
}
