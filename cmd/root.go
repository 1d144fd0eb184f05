// =============================================================================
// Order Reconciler - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. Every other command
// is attached to it.
//
// COBRA CLI STRUCTURE:
//   rootCmd (reconciler)
//   ├── generateCmd (reconciler generate)
//   ├── previewCmd  (reconciler preview)
//   ├── validateCmd (reconciler validate)
//   ├── columnsCmd  (reconciler columns)
//   └── versionCmd  (reconciler version)
//
// CONFIGURATION:
//   The root command is responsible for:
//   1. Setting up global flags (--config, --verbose)
//   2. Loading config.yaml, .env and environment overrides
//   3. Setting up logging
//
// =============================================================================

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/xlsx-order-reconciler/internal/config"
	"github.com/ginjaninja78/xlsx-order-reconciler/internal/logging"
	"github.com/ginjaninja78/xlsx-order-reconciler/internal/supplierstore"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
// This can be overridden using the --config flag.
var cfgFile string

// verbose enables debug logging when set to true.
var verbose bool

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "reconciler",
	Short: "Order Reconciler - Fill a supplier price list from warehouse and preorder spreadsheets",

	Long: `Order Reconciler reads a warehouse order and a preorder list, sums the
requested quantities per product code, and writes them into a copy of the
supplier's price list. Line sums and order totals are filled in where the
price list has room for them. Everything else in the workbook is left as it
was: styles, merged cells, formulas and other sheets.

Key Features:
  - Per-supplier column layouts in YAML or a shared Postgres table
  - Multi-sheet source documents with a configurable row cap
  - Byte-preserving write-back of the price list sheet
  - Troubleshooting report when the order looks empty

Example Usage:
  reconciler generate --supplier acme --price prices.xlsx --warehouse wh.xlsx --preorders pre.xlsx
  reconciler preview --supplier acme --warehouse wh.xlsx
  reconciler validate`,

	SilenceUsage: true,

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the root command. It is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	// --config flag: path to config.yaml. A missing default file is not an
	// error; built-in defaults are used instead.
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the main configuration file",
	)

	// --verbose flag: forces debug logging.
	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable verbose output for debugging",
	)
}

// =============================================================================
// SHARED RUNTIME
// =============================================================================

// session bundles what every working command needs.
type session struct {
	config   *config.MainConfig
	logger   *logrus.Logger
	store    supplierstore.Store
	closeLog func() error
}

// openSession loads the configuration, opens the log and the supplier store.
// The caller must call close.
func openSession(ctx context.Context, cmd *cobra.Command) (*session, error) {
	path := cfgFile
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) && !cmd.Flags().Changed("config") {
		path = ""
	}

	mainConfig, err := config.LoadMainConfig(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load main config: %w", err)
	}

	logger, closeLog, err := logging.New(logging.Options{
		Level:   mainConfig.LogLevel,
		File:    mainConfig.LogFile,
		Verbose: verbose,
	})
	if err != nil {
		return nil, err
	}

	store, err := supplierstore.Open(ctx, mainConfig)
	if err != nil {
		closeLog()
		return nil, err
	}

	logger.Debugf("config loaded (source=%s, reader=%s, strategy=%s)",
		mainConfig.SupplierSource, mainConfig.Reader, mainConfig.PatchStrategy)

	return &session{config: mainConfig, logger: logger, store: store, closeLog: closeLog}, nil
}

func (r *session) close() {
	r.store.Close()
	if err := r.closeLog(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to close log file: %v\n", err)
	}
}
