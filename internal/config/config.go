// =============================================================================
// Order Reconciler - Configuration Module
// =============================================================================
//
// This module is responsible for loading and managing all configuration files.
// It handles both the main application configuration and the per-supplier
// layout configurations.
//
// CONFIGURATION FILES:
//   1. Main Config (config.yaml): Global application settings
//   2. Supplier Configs (suppliers/*.yaml): Where each supplier keeps its
//      codes, prices and quantities
//   3. Environment (.env and process environment): Secrets and overrides
//
// DISPLAY CONVENTION:
//   Supplier files are written by operators, so they use spreadsheet letters
//   for columns and 1-based row numbers. They are converted to the engine's
//   0-based layout.Config here and nowhere else.
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ginjaninja78/xlsx-order-reconciler/internal/aggregate"
	"github.com/ginjaninja78/xlsx-order-reconciler/internal/logging"
	"github.com/ginjaninja78/xlsx-order-reconciler/internal/patch"
	"github.com/ginjaninja78/xlsx-order-reconciler/internal/types"
	"github.com/ginjaninja78/xlsx-order-reconciler/internal/xlsxparser"
)

// Supplier sources.
const (
	SourceFiles    = "files"
	SourcePostgres = "postgres"
)

// Environment variables that override the YAML file.
const (
	EnvDatabaseURL       = "RECONCILER_DATABASE_URL"
	EnvDatabaseURLShared = "DATABASE_URL"
	EnvLogLevel          = "RECONCILER_LOG_LEVEL"
)

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
// This is loaded from the main config.yaml file.
type MainConfig struct {
	// =========================================================================
	// DIRECTORY SETTINGS
	// =========================================================================

	// OutputDir is the directory where generated orders are placed.
	// Default: "./output"
	OutputDir string `yaml:"output_dir"`

	// SuppliersDir holds one YAML layout file per supplier.
	// Default: "./suppliers"
	SuppliersDir string `yaml:"suppliers_dir"`

	// TemplatesDir is where supplier templates named in a supplier file are
	// looked up.
	// Default: "./templates"
	TemplatesDir string `yaml:"templates_dir"`

	// InputArchiveDir receives the warehouse and preorder files after a
	// successful run with archiving enabled.
	// Default: "./input_archive"
	InputArchiveDir string `yaml:"input_archive_dir"`

	// ArchiveByDate files archived inputs under YYYY/MM/DD subdirectories.
	ArchiveByDate bool `yaml:"archive_by_date"`

	// ArchiveRetentionDays removes archived inputs older than this many days
	// after each archiving run. Zero keeps everything.
	ArchiveRetentionDays int `yaml:"archive_retention_days"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogFile is an optional file that receives a copy of the log.
	LogFile string `yaml:"log_file"`

	// LogLevel controls the verbosity of logging.
	// Valid values: "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// =========================================================================
	// OUTPUT SETTINGS
	// =========================================================================

	// OutputNameFormat defines the file name of generated orders.
	// Placeholders:
	//   {supplier}  - Supplier name
	//   {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
	//   {date}      - Current date (YYYYMMDD)
	//   {uuid}      - A random UUID
	// Default: "{supplier}_order_{timestamp}.xlsx"
	OutputNameFormat string `yaml:"output_name_format"`

	// =========================================================================
	// PROCESSING SETTINGS
	// =========================================================================

	// MaxRowsPerSheet caps rows read from each source sheet.
	// Default: 1000
	MaxRowsPerSheet int `yaml:"max_rows_per_sheet"`

	// FailOnTruncation fails a run when a source sheet had rows past the cap,
	// instead of only warning.
	FailOnTruncation bool `yaml:"fail_on_truncation"`

	// CaseInsensitiveCodes matches product codes regardless of letter case.
	// Default: false
	CaseInsensitiveCodes bool `yaml:"case_insensitive_codes"`

	// PatchStrategy is "xml" (splice values, keep every other byte) or
	// "excelize" (set cells through excelize and re-save).
	// Default: "xml"
	PatchStrategy string `yaml:"patch_strategy"`

	// Reader is "excelize" or "stream" for the source documents.
	// Default: "excelize"
	Reader string `yaml:"reader"`

	// =========================================================================
	// SUPPLIER SOURCE
	// =========================================================================

	// SupplierSource is "files" (SuppliersDir) or "postgres" (DatabaseURL).
	// Default: "files"
	SupplierSource string `yaml:"supplier_source"`

	// DatabaseURL is the Postgres connection string for the suppliers table.
	// Usually set through RECONCILER_DATABASE_URL or DATABASE_URL.
	DatabaseURL string `yaml:"database_url"`
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// LoadMainConfig loads the main configuration from a YAML file.
//
// PARAMETERS:
//   - configPath: The path to the main configuration file. An empty path
//     means defaults only.
//
// RETURNS:
//   - A pointer to the MainConfig struct.
//   - An error if the file cannot be read or parsed, or holds invalid values.
//
// Values from .env and the environment are applied after the file and
// before validation.
func LoadMainConfig(configPath string) (*MainConfig, error) {
	var config MainConfig

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// A missing .env is normal; a broken one is not.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, types.ConfigurationError("load .env", "%v", err)
	}
	applyEnvOverrides(&config)

	applyMainConfigDefaults(&config)

	if err := validateMainConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// applyEnvOverrides copies set environment variables over file values.
func applyEnvOverrides(config *MainConfig) {
	for _, key := range []string{EnvDatabaseURL, EnvDatabaseURLShared} {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			config.DatabaseURL = v
			break
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		config.LogLevel = v
	}
}

// applyMainConfigDefaults sets default values for any unset configuration options.
func applyMainConfigDefaults(config *MainConfig) {
	if config.OutputDir == "" {
		config.OutputDir = "./output"
	}
	if config.SuppliersDir == "" {
		config.SuppliersDir = "./suppliers"
	}
	if config.TemplatesDir == "" {
		config.TemplatesDir = "./templates"
	}
	if config.InputArchiveDir == "" {
		config.InputArchiveDir = "./input_archive"
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	if config.OutputNameFormat == "" {
		config.OutputNameFormat = "{supplier}_order_{timestamp}.xlsx"
	}
	if config.MaxRowsPerSheet == 0 {
		config.MaxRowsPerSheet = aggregate.DefaultMaxRowsPerSheet
	}
	if config.PatchStrategy == "" {
		config.PatchStrategy = string(patch.StrategyXML)
	}
	if config.Reader == "" {
		config.Reader = string(xlsxparser.KindExcelize)
	}
	if config.SupplierSource == "" {
		config.SupplierSource = SourceFiles
	}
}

// validateMainConfig validates the main configuration and creates the output
// directory.
func validateMainConfig(config *MainConfig) error {
	if config.MaxRowsPerSheet < 0 {
		return types.ConfigurationError("config", "max_rows_per_sheet must not be negative (%d)", config.MaxRowsPerSheet)
	}
	if config.ArchiveRetentionDays < 0 {
		return types.ConfigurationError("config", "archive_retention_days must not be negative (%d)", config.ArchiveRetentionDays)
	}
	if _, err := logging.ParseLevel(config.LogLevel); err != nil {
		return types.ConfigurationError("config", "%v", err)
	}
	if _, err := patch.ParseStrategy(config.PatchStrategy); err != nil {
		return err
	}
	if _, err := xlsxparser.ParseKind(config.Reader); err != nil {
		return types.ConfigurationError("config", "%v", err)
	}

	switch config.SupplierSource {
	case SourceFiles:
	case SourcePostgres:
		if config.DatabaseURL == "" {
			return types.ConfigurationError("config", "supplier_source %q needs database_url or %s", SourcePostgres, EnvDatabaseURL)
		}
	default:
		return types.ConfigurationError("config", "unknown supplier_source %q (want %q or %q)",
			config.SupplierSource, SourceFiles, SourcePostgres)
	}

	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", config.OutputDir, err)
	}
	return nil
}

// StrategyKind returns the parsed patch strategy. LoadMainConfig has already
// validated it.
func (c *MainConfig) StrategyKind() patch.Strategy {
	s, _ := patch.ParseStrategy(c.PatchStrategy)
	return s
}

// ReaderKind returns the parsed reader kind.
func (c *MainConfig) ReaderKind() xlsxparser.Kind {
	k, _ := xlsxparser.ParseKind(c.Reader)
	return k
}
