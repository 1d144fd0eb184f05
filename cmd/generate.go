// =============================================================================
// Order Reconciler - Generate Command
// =============================================================================
//
// This file defines the 'generate' command, the main command of the tool. It
// runs one reconciliation for one supplier.
//
// COMMAND USAGE:
//   reconciler generate --supplier acme --price prices.xlsx \
//       --warehouse warehouse.xlsx --preorders preorders.xlsx [flags]
//
// FLAGS:
//   --supplier   : Supplier whose layouts are used ("default" if omitted)
//   --price      : Price list workbook (required)
//   --warehouse  : Warehouse order workbook (required)
//   --preorders  : Preorder workbook (required)
//   --template   : Workbook to copy instead of the supplier template
//   --out        : Output path instead of output_dir/output_name_format
//   --strategy   : Write-back strategy, "xml" or "excelize"
//   --archive    : Move the warehouse and preorder files to the archive
//
// PROCESSING PIPELINE:
//   1. Load configuration and the supplier layouts
//   2. Resolve template and output paths
//   3. Run the reconciliation
//   4. Print the summary, or a troubleshooting report and preview
//   5. Archive the source documents when asked
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/xlsx-order-reconciler/internal/aggregate"
	"github.com/ginjaninja78/xlsx-order-reconciler/internal/config"
	"github.com/ginjaninja78/xlsx-order-reconciler/internal/converter"
	"github.com/ginjaninja78/xlsx-order-reconciler/internal/layout"
	"github.com/ginjaninja78/xlsx-order-reconciler/internal/normalize"
	"github.com/ginjaninja78/xlsx-order-reconciler/internal/patch"
	"github.com/ginjaninja78/xlsx-order-reconciler/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// generateFlags holds the flags of the generate command.
type generateFlags struct {
	supplier  string
	priceList string
	warehouse string
	preorders string
	template  string
	output    string
	strategy  string
	archive   bool
}

var genFlags generateFlags

// troubleshootPreviewRows is how many warehouse rows are shown when an order
// looks empty.
const troubleshootPreviewRows = 10

// =============================================================================
// GENERATE COMMAND DEFINITION
// =============================================================================

// generateCmd represents the 'generate' command.
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate an order from a price list, a warehouse order and preorders",
	Long: `The generate command sums the quantities of the warehouse order and the
preorder list per product code and writes them into a copy of the price list.

On success:
  - The order is placed in the output directory
  - Line sums and totals are written where the layout allows it
  - With --archive, the source documents are moved to the input archive

When nothing was ordered or the warehouse order yielded no codes:
  - A report is written next to the order
  - The first warehouse rows are printed as the reader saw them`,

	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return runGenerate(ctx, cmd, genFlags)
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)

	f := generateCmd.Flags()
	f.StringVar(&genFlags.supplier, "supplier", "default", "Supplier whose layouts are used")
	f.StringVar(&genFlags.priceList, "price", "", "Price list workbook")
	f.StringVar(&genFlags.warehouse, "warehouse", "", "Warehouse order workbook")
	f.StringVar(&genFlags.preorders, "preorders", "", "Preorder workbook")
	f.StringVar(&genFlags.template, "template", "", "Workbook to copy instead of the supplier template")
	f.StringVar(&genFlags.output, "out", "", "Output path (default: output_dir/output_name_format)")
	f.StringVar(&genFlags.strategy, "strategy", "", `Write-back strategy, "xml" or "excelize" (default from config)`)
	f.BoolVar(&genFlags.archive, "archive", false, "Move the warehouse and preorder files to the input archive on success")

	for _, name := range []string{"price", "warehouse", "preorders"} {
		_ = generateCmd.MarkFlagRequired(name)
	}
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

func runGenerate(ctx context.Context, cmd *cobra.Command, flags generateFlags) error {
	out := cmd.OutOrStdout()

	// =========================================================================
	// STEP 1: LOAD CONFIGURATION
	// =========================================================================

	s, err := openSession(ctx, cmd)
	if err != nil {
		return err
	}
	defer s.close()

	supplier, err := s.store.Get(ctx, flags.supplier)
	if err != nil {
		return fmt.Errorf("failed to load supplier: %w", err)
	}
	set, err := supplier.Layouts()
	if err != nil {
		return err
	}

	strategy := s.config.StrategyKind()
	if flags.strategy != "" {
		if strategy, err = patch.ParseStrategy(flags.strategy); err != nil {
			return err
		}
	}

	// =========================================================================
	// STEP 2: RESOLVE PATHS
	// =========================================================================

	templatePath := resolveTemplate(flags, supplier, s.config.TemplatesDir)
	outputPath := flags.output
	if outputPath == "" {
		name := utils.GenerateOutputFileName(s.config.OutputNameFormat, map[string]string{
			"supplier": supplier.Name,
			"original": strings.TrimSuffix(filepath.Base(flags.priceList), filepath.Ext(flags.priceList)),
		}, ".xlsx")
		outputPath = filepath.Join(s.config.OutputDir, name)
	}

	// =========================================================================
	// STEP 3: RUN
	// =========================================================================

	conv := converter.New(converter.Options{
		MaxRowsPerSheet:  s.config.MaxRowsPerSheet,
		FailOnTruncation: s.config.FailOnTruncation,
		Reader:           s.config.ReaderKind(),
		Strategy:         strategy,
		Normalizer:       normalize.New(normalize.Options{CaseInsensitive: s.config.CaseInsensitiveCodes}),
		Logger:           s.logger,
	})

	result, err := conv.GenerateOrder(converter.Request{
		PriceListPath: flags.priceList,
		WarehousePath: flags.warehouse,
		PreorderPath:  flags.preorders,
		TemplatePath:  templatePath,
		OutputPath:    outputPath,
		Layouts:       set,
	})
	if err != nil {
		return err
	}

	// =========================================================================
	// STEP 4: PRINT SUMMARY
	// =========================================================================

	fmt.Fprintln(out, "=== Order Generated ===")
	for _, line := range result.Report() {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintf(out, "Time elapsed:   %s\n", result.Elapsed.Round(time.Millisecond))

	if result.NeedsTroubleshooting() {
		if err := troubleshoot(out, s.logger, conv, result, flags.warehouse, set.WarehouseOrder); err != nil {
			return err
		}
	}

	// =========================================================================
	// STEP 5: ARCHIVE
	// =========================================================================

	if flags.archive {
		return archiveInputs(out, s.logger, s.config, flags.warehouse, flags.preorders)
	}
	return nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// resolveTemplate picks the workbook to copy: the --template flag, then the
// supplier template under the templates directory, then the price list.
func resolveTemplate(flags generateFlags, supplier *config.SupplierConfig, templatesDir string) string {
	switch {
	case flags.template != "":
		return flags.template
	case supplier.Template == "":
		return ""
	case filepath.IsAbs(supplier.Template):
		return supplier.Template
	default:
		return filepath.Join(templatesDir, supplier.Template)
	}
}

// troubleshoot writes the run report next to the order and prints the first
// warehouse rows as they were read.
func troubleshoot(out io.Writer, logger *logrus.Logger, conv *converter.Converter, result *converter.Result, warehouse string, cfg layout.Config) error {
	logger.Warnf("order %s looks empty; writing troubleshooting report", result.RunID)

	reportPath, err := utils.WriteReport(result.Report(), filepath.Dir(result.OutputFile), filepath.Base(result.OutputFile))
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "\nTroubleshooting report: %s\n", reportPath)

	rows, err := conv.Preview(warehouse, cfg, troubleshootPreviewRows)
	if err != nil {
		logger.Warnf("warehouse preview failed: %v", err)
		return nil
	}
	fmt.Fprintf(out, "First %d warehouse rows (code column %s):\n", len(rows), columnName(cfg.CodeColumn))
	for _, line := range aggregate.PreviewLines(rows) {
		fmt.Fprintln(out, "  "+line)
	}
	return nil
}

// archiveInputs moves the source documents to the input archive and prunes
// old archives.
func archiveInputs(out io.Writer, logger *logrus.Logger, cfg *config.MainConfig, paths ...string) error {
	fm := utils.NewFileManager(cfg.OutputDir, cfg.InputArchiveDir)
	fm.UseTimestampSubdirs = cfg.ArchiveByDate
	if err := fm.EnsureDirectories(); err != nil {
		return err
	}

	for _, p := range paths {
		dst, err := fm.ArchiveInputFile(p)
		if err != nil {
			return fmt.Errorf("failed to archive %s: %w", p, err)
		}
		fmt.Fprintf(out, "Archived %s -> %s\n", filepath.Base(p), dst)
	}

	if cfg.ArchiveRetentionDays > 0 {
		removed, err := fm.CleanOldArchives(time.Duration(cfg.ArchiveRetentionDays) * 24 * time.Hour)
		if err != nil {
			logger.Warnf("archive cleanup failed: %v", err)
		} else if removed > 0 {
			logger.Infof("removed %d archived file(s) older than %d days", removed, cfg.ArchiveRetentionDays)
		}
	}
	return nil
}
