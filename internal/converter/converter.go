// =============================================================================
// Order Reconciler - Converter Module
// =============================================================================
//
// This module contains the order generation pipeline. It orchestrates one
// reconciliation run, from reading the three input workbooks to writing the
// patched order.
//
// GENERATION PIPELINE:
//   1. Validate the supplier layouts
//   2. Read the price list rows
//   3. Aggregate the warehouse order across all sheets
//   4. Aggregate the preorders across all sheets
//   5. Merge both demand maps into final quantities
//   6. Patch the final quantities into a copy of the template
//
// CONCURRENCY:
//   A run is synchronous. Distinct runs on one Converter are safe as long as
//   they target distinct output paths. Only the last-run diagnostics are
//   shared, behind a mutex.
//
// =============================================================================

package converter

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ginjaninja78/xlsx-order-reconciler/internal/aggregate"
	"github.com/ginjaninja78/xlsx-order-reconciler/internal/layout"
	"github.com/ginjaninja78/xlsx-order-reconciler/internal/logging"
	"github.com/ginjaninja78/xlsx-order-reconciler/internal/normalize"
	"github.com/ginjaninja78/xlsx-order-reconciler/internal/patch"
	"github.com/ginjaninja78/xlsx-order-reconciler/internal/reconcile"
	"github.com/ginjaninja78/xlsx-order-reconciler/internal/types"
	"github.com/ginjaninja78/xlsx-order-reconciler/internal/xlsxparser"
)

// =============================================================================
// OPTIONS AND REQUEST
// =============================================================================

// Options configure a Converter. The zero value is usable.
type Options struct {
	// MaxRowsPerSheet caps rows read per source sheet.
	// Default: 1000
	MaxRowsPerSheet int

	// FailOnTruncation aborts the run when a source sheet was cut by the cap.
	FailOnTruncation bool

	// Reader selects the workbook reader for the source documents.
	// Default: excelize
	Reader xlsxparser.Kind

	// Strategy selects the write-back strategy.
	// Default: xml
	Strategy patch.Strategy

	// Normalizer controls code matching. Nil means case-sensitive.
	Normalizer *normalize.Normalizer

	// Logger receives progress and troubleshooting output. Nil discards.
	Logger logging.Logger
}

// Request names the files of one run.
type Request struct {
	PriceListPath string
	WarehousePath string
	PreorderPath  string

	// TemplatePath is the workbook that is copied and patched. It defaults
	// to PriceListPath.
	TemplatePath string

	// OutputPath is where the order is written. Required.
	OutputPath string

	Layouts layout.Set
}

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result represents the outcome of one run.
type Result struct {
	// RunID identifies the run in logs and reports.
	RunID string

	// OutputFile is the path of the generated order.
	OutputFile string

	// FinalQuantities holds every reconciled code, including codes the price
	// list does not list.
	FinalQuantities types.QuantityMap

	// Sources tells, per final code, which document asked for it.
	Sources map[string]reconcile.Source

	Warehouse types.Diagnostics
	Preorders types.Diagnostics

	// Patch is the write-back summary.
	Patch *patch.Summary

	Elapsed time.Duration
}

// NeedsTroubleshooting is true when the order looks wrong: nothing was
// written, the total quantity is zero, or the warehouse order yielded no
// codes at all.
func (r *Result) NeedsTroubleshooting() bool {
	if r.Patch == nil || r.Patch.Items == 0 || r.Patch.Quantity == 0 {
		return true
	}
	return r.Warehouse.DistinctCodes == 0
}

// Unmatched returns the final codes that received no quantity on the price
// list, sorted.
func (r *Result) Unmatched() []string {
	written := make(map[string]bool)
	if r.Patch != nil {
		for _, u := range r.Patch.Applied {
			if u.Kind == types.UpdateQuantity {
				written[u.Code] = true
			}
		}
	}

	var out []string
	for code := range r.FinalQuantities {
		if !written[code] {
			out = append(out, code)
		}
	}
	sort.Strings(out)
	return out
}

// Report renders the operator-facing summary of the run.
func (r *Result) Report() []string {
	lines := []string{
		fmt.Sprintf("Run:            %s", r.RunID),
		fmt.Sprintf("Output:         %s", r.OutputFile),
	}
	if r.Patch != nil {
		lines = append(lines,
			fmt.Sprintf("Items found:    %d", r.Patch.Items),
			fmt.Sprintf("Total quantity: %s", types.FormatNumber(r.Patch.Quantity)),
			fmt.Sprintf("Total sum:      %s", types.FormatNumber(r.Patch.Sum)),
			fmt.Sprintf("Cells written:  %d (%d skipped)", len(r.Patch.Applied), len(r.Patch.Skipped)),
		)
	}
	lines = append(lines,
		"Warehouse:      "+r.Warehouse.Summary(),
		"Preorders:      "+r.Preorders.Summary(),
	)

	if unmatched := r.Unmatched(); len(unmatched) > 0 {
		lines = append(lines, fmt.Sprintf("Not on the price list (%d):", len(unmatched)))
		for _, code := range unmatched {
			lines = append(lines, fmt.Sprintf("  %s x %s (%s)", code, types.FormatNumber(r.FinalQuantities[code]), r.Sources[code]))
		}
	}
	if r.Patch != nil && len(r.Patch.Skipped) > 0 {
		lines = append(lines, "Skipped cells:")
		for _, s := range r.Patch.Skipped {
			lines = append(lines, fmt.Sprintf("  %s (%s %s): %s", s.Update.Ref(), s.Update.Kind, s.Update.Code, s.Reason))
		}
	}
	for _, name := range r.Warehouse.TruncatedSheets {
		lines = append(lines, fmt.Sprintf("Warning: warehouse sheet %q was cut at the row cap", name))
	}
	for _, name := range r.Preorders.TruncatedSheets {
		lines = append(lines, fmt.Sprintf("Warning: preorder sheet %q was cut at the row cap", name))
	}
	return lines
}

// RunDiagnostics is what LastDiagnostics keeps between runs.
type RunDiagnostics struct {
	RunID     string
	Warehouse types.Diagnostics
	Preorders types.Diagnostics
}

// =============================================================================
// CONVERTER STRUCTURE
// =============================================================================

// Converter runs order generation.
type Converter struct {
	opts       Options
	aggregator *aggregate.Aggregator
	logger     logging.Logger

	mu   sync.Mutex
	last *RunDiagnostics
}

// New creates a Converter.
func New(opts Options) *Converter {
	if opts.Normalizer == nil {
		opts.Normalizer = normalize.Default()
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	return &Converter{
		opts:       opts,
		aggregator: aggregate.New(opts.Normalizer, opts.Logger),
		logger:     opts.Logger,
	}
}

// LastDiagnostics returns the diagnostics of the most recent run that got
// through aggregation. It is advisory only.
func (c *Converter) LastDiagnostics() (RunDiagnostics, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.last == nil {
		return RunDiagnostics{}, false
	}
	return *c.last, true
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// GenerateOrder executes the pipeline for one supplier order.
//
// RETURNS:
//   - The run result.
//   - A ConfigurationError, UnsupportedFormat or IOError. Bad cells never
//     fail a run; they are counted in the diagnostics.
func (c *Converter) GenerateOrder(req Request) (*Result, error) {
	start := time.Now()
	result := &Result{RunID: uuid.New().String(), OutputFile: req.OutputPath}

	if req.TemplatePath == "" {
		req.TemplatePath = req.PriceListPath
	}

	// =========================================================================
	// STEP 1: VALIDATE LAYOUTS
	// =========================================================================

	validation := layout.ValidateSet(req.Layouts)
	for _, w := range validation.Warnings {
		c.logger.Warnf("Layout: %s", w.Error())
	}
	if err := validation.Err(); err != nil {
		return nil, err
	}
	if req.OutputPath == "" {
		return nil, types.ConfigurationError("generate order", "output path is required")
	}

	c.logger.Infof("Run %s: price list %s, warehouse %s, preorders %s",
		result.RunID, req.PriceListPath, req.WarehousePath, req.PreorderPath)

	// =========================================================================
	// STEP 2: READ PRICE LIST
	// =========================================================================

	priceRows, err := c.readPriceList(req.PriceListPath, req.Layouts.PriceList)
	if err != nil {
		return nil, fmt.Errorf("reading price list: %w", err)
	}
	c.logger.Debugf("Price list sheet %q has %d rows", priceRows.Name, len(priceRows.Rows))

	// =========================================================================
	// STEP 3-4: AGGREGATE SOURCES
	// =========================================================================

	warehouse, err := c.aggregate(req.WarehousePath, req.Layouts.WarehouseOrder, &result.Warehouse)
	if err != nil {
		return nil, fmt.Errorf("reading warehouse order: %w", err)
	}
	preorders, err := c.aggregate(req.PreorderPath, req.Layouts.Preorders, &result.Preorders)
	if err != nil {
		return nil, fmt.Errorf("reading preorders: %w", err)
	}
	c.remember(result)

	// =========================================================================
	// STEP 5: MERGE
	// =========================================================================

	result.FinalQuantities = reconcile.Merge(warehouse, preorders)
	result.Sources = reconcile.Sources(warehouse, preorders)
	c.logger.Infof("Reconciled %d codes (%d from warehouse, %d from preorders)",
		len(result.FinalQuantities), len(warehouse), len(preorders))

	// =========================================================================
	// STEP 6: PATCH TEMPLATE
	// =========================================================================

	summary, err := patch.Generate(patch.Request{
		Rows:         priceRows,
		Quantities:   result.FinalQuantities,
		Layout:       req.Layouts.PriceList,
		TemplatePath: req.TemplatePath,
		OutputPath:   req.OutputPath,
		Strategy:     c.opts.Strategy,
		Normalizer:   c.opts.Normalizer,
		Logger:       c.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("writing order: %w", err)
	}
	result.Patch = summary
	result.Elapsed = time.Since(start)

	if result.NeedsTroubleshooting() {
		c.logger.Warnf("Run %s needs attention: %d items, total quantity %s",
			result.RunID, summary.Items, types.FormatNumber(summary.Quantity))
	} else {
		c.logger.Infof("Run %s wrote %d items, total quantity %s, in %s",
			result.RunID, summary.Items, types.FormatNumber(summary.Quantity), result.Elapsed)
	}
	return result, nil
}

// Preview returns the first rows of a source document as the engine sees
// them, for troubleshooting an empty order.
func (c *Converter) Preview(path string, cfg layout.Config, limit int) ([]aggregate.PreviewRow, error) {
	r, err := xlsxparser.Open(path, c.opts.Reader)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return c.aggregator.Preview(r, aggregate.OptionsFor(cfg, c.opts.MaxRowsPerSheet, false), limit)
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func (c *Converter) readPriceList(path string, cfg layout.Config) (*xlsxparser.Sheet, error) {
	r, err := xlsxparser.Open(path, c.opts.Reader)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return xlsxparser.ReadSheetAt(r, cfg.SheetIndex, xlsxparser.ReadOptions{Columns: cfg.Columns()})
}

func (c *Converter) aggregate(path string, cfg layout.Config, diag *types.Diagnostics) (types.QuantityMap, error) {
	opts := aggregate.OptionsFor(cfg, c.opts.MaxRowsPerSheet, c.opts.FailOnTruncation)
	quantities, d, err := c.aggregator.AggregateFile(path, c.opts.Reader, opts)
	*diag = d
	if err != nil {
		return nil, err
	}
	c.logger.Infof("%s: %s", path, d.Summary())
	return quantities, nil
}

func (c *Converter) remember(r *Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last = &RunDiagnostics{RunID: r.RunID, Warehouse: r.Warehouse, Preorders: r.Preorders}
}
