// =============================================================================
// Order Reconciler - Format-Preserving Patch Engine
// =============================================================================
//
// The patch engine writes final quantities (and line sums) into a copy of the
// price-list template while leaving everything else in the workbook as it was.
//
// PROCESS:
//   1. Validate the price-list layout and inspect the template
//   2. Plan line updates from the price-list rows
//   3. Check every update against the worksheet part: only existing numeric
//      cells without a formula are written
//   4. Plan and check the total-row updates from what was applied
//   5. Copy the template byte for byte to the output path
//   6. Write the result over the copy with the selected strategy
//
// STRATEGIES:
//   xml      - splice <v> values into the worksheet part and rewrite the zip,
//              copying every other part unchanged (default)
//   excelize - set the same cells through excelize and save the workbook;
//              excelize re-serializes the package, so byte equality of other
//              parts is not kept
//
// =============================================================================

package patch

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/xlsx-order-reconciler/internal/layout"
	"github.com/ginjaninja78/xlsx-order-reconciler/internal/logging"
	"github.com/ginjaninja78/xlsx-order-reconciler/internal/normalize"
	"github.com/ginjaninja78/xlsx-order-reconciler/internal/types"
	"github.com/ginjaninja78/xlsx-order-reconciler/internal/xlsxparser"
	"github.com/ginjaninja78/xlsx-order-reconciler/internal/xmlwriter"
	"github.com/ginjaninja78/xlsx-order-reconciler/pkg/utils"
)

// =============================================================================
// STRATEGY
// =============================================================================

// Strategy selects how updates reach the output workbook.
type Strategy string

const (
	StrategyXML      Strategy = "xml"
	StrategyExcelize Strategy = "excelize"
)

// ParseStrategy maps a config value to a Strategy. Empty means StrategyXML.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case "", StrategyXML:
		return StrategyXML, nil
	case StrategyExcelize:
		return StrategyExcelize, nil
	}
	return "", types.ConfigurationError("patch strategy", "unknown strategy %q (want %q or %q)", s, StrategyXML, StrategyExcelize)
}

// =============================================================================
// REQUEST AND SUMMARY
// =============================================================================

// Request describes one write-back.
type Request struct {
	// Rows is the price-list sheet the updates are planned from. When nil the
	// sheet at Layout.SheetIndex is read from TemplatePath.
	Rows *xlsxparser.Sheet

	// Quantities are the final quantities per normalized code.
	Quantities types.QuantityMap

	// Layout is the price-list layout.
	Layout layout.Config

	TemplatePath string
	OutputPath   string

	// Strategy defaults to StrategyXML.
	Strategy Strategy

	Normalizer *normalize.Normalizer
	Logger     logging.Logger
}

// Summary reports what a write-back did.
type Summary struct {
	OutputPath string
	SheetName  string
	Strategy   Strategy

	// Applied and Skipped cover line and total updates, in planning order.
	Applied []types.CellUpdate
	Skipped []types.SkippedUpdate

	Totals
}

// =============================================================================
// GENERATE
// =============================================================================

// Generate copies the template to the output path and writes the planned
// updates into the copy.
//
// RETURNS:
//   - The write-back summary.
//   - A ConfigurationError for a bad layout, UnsupportedFormat for a template
//     that is not a spreadsheet package, or IOError when the output cannot be
//     written. Template problems are found before the output path is touched;
//     a later failure leaves the unchanged template copy, never a partial
//     archive.
func Generate(req Request) (*Summary, error) {
	if req.Logger == nil {
		req.Logger = logging.Discard()
	}
	if req.Normalizer == nil {
		req.Normalizer = normalize.Default()
	}
	if req.Strategy == "" {
		req.Strategy = StrategyXML
	}
	if _, err := ParseStrategy(string(req.Strategy)); err != nil {
		return nil, err
	}

	if err := layout.Validate(layout.RolePriceList, req.Layout).Err(); err != nil {
		return nil, err
	}
	if err := xlsxparser.CheckPackage(req.TemplatePath); err != nil {
		return nil, err
	}

	rows := req.Rows
	if rows == nil {
		var err error
		if rows, err = readPriceList(req.TemplatePath, req.Layout.SheetIndex); err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(req.TemplatePath)
	if err != nil {
		return nil, types.IOError("read template", req.TemplatePath, err)
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, types.UnsupportedFormat("open template", req.TemplatePath, err)
	}
	part, err := sheetPart(zr, req.Layout.SheetIndex)
	if err != nil {
		return nil, err
	}
	sheetXML, err := xlsxparser.ReadPart(zr, part.Path)
	if err != nil {
		return nil, types.UnsupportedFormat("read worksheet", req.TemplatePath, err)
	}

	summary := &Summary{OutputPath: req.OutputPath, SheetName: part.Name, Strategy: req.Strategy}

	// Line updates first, totals from what actually landed.
	patched, res, err := xmlwriter.PatchCells(sheetXML, Plan(rows, req.Quantities, req.Layout, req.Normalizer, req.Logger))
	if err != nil {
		return nil, types.UnsupportedFormat("patch worksheet", part.Path, err)
	}
	summary.collect(res)
	summary.Totals = TotalsOf(summary.Applied)

	if len(summary.Applied) > 0 {
		if totals := TotalUpdates(summary.Totals, req.Layout); len(totals) > 0 {
			patched, res, err = xmlwriter.PatchCells(patched, totals)
			if err != nil {
				return nil, types.UnsupportedFormat("patch worksheet", part.Path, err)
			}
			summary.collect(res)
		}
	}

	// Nothing is written before this point.
	if err := utils.CopyFileAtomic(req.TemplatePath, req.OutputPath); err != nil {
		return nil, types.IOError("copy template", req.OutputPath, err)
	}

	for _, s := range summary.Skipped {
		req.Logger.Debugf("Skipped %s update at %s (%s): %s", s.Update.Kind, s.Update.Ref(), s.Update.Code, s.Reason)
	}
	if len(summary.Applied) == 0 {
		req.Logger.Warnf("No cells were updated in %s; the output is an unchanged copy of the template", req.OutputPath)
		return summary, nil
	}

	switch req.Strategy {
	case StrategyExcelize:
		err = writeWithExcelize(data, part.Name, summary.Applied, req.OutputPath)
	default:
		err = writeArchive(zr, part.Path, patched, req.OutputPath)
	}
	if err != nil {
		return nil, types.IOError("write output", req.OutputPath, err)
	}

	req.Logger.Infof("Patched %d cells in sheet %q of %s (%d skipped)",
		len(summary.Applied), part.Name, req.OutputPath, len(summary.Skipped))
	return summary, nil
}

func (s *Summary) collect(res *xmlwriter.Result) {
	s.Applied = append(s.Applied, res.Applied...)
	s.Skipped = append(s.Skipped, res.Skipped...)
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func readPriceList(path string, sheetIndex int) (*xlsxparser.Sheet, error) {
	r, err := xlsxparser.Open(path, xlsxparser.KindExcelize)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return xlsxparser.ReadSheetAt(r, sheetIndex, xlsxparser.ReadOptions{})
}

func sheetPart(zr *zip.Reader, sheetIndex int) (xlsxparser.SheetPart, error) {
	parts, err := xlsxparser.SheetParts(zr)
	if err != nil {
		return xlsxparser.SheetPart{}, types.UnsupportedFormat("resolve sheets", "", err)
	}
	if sheetIndex < 0 || sheetIndex >= len(parts) {
		return xlsxparser.SheetPart{}, types.ConfigurationError("resolve sheets",
			"sheet index %d out of range (workbook has %d sheets)", sheetIndex, len(parts))
	}
	return parts[sheetIndex], nil
}

// writeArchive rebuilds the package with one replaced part. Every other entry
// is copied without recompression.
func writeArchive(zr *zip.Reader, partPath string, partData []byte, outputPath string) error {
	return utils.WriteFileAtomic(outputPath, func(w io.Writer) error {
		zw := zip.NewWriter(w)
		for _, f := range zr.File {
			if f.Name != partPath {
				if err := zw.Copy(f); err != nil {
					return fmt.Errorf("copying %s: %w", f.Name, err)
				}
				continue
			}
			if err := writeEntry(zw, f.FileHeader, partData); err != nil {
				return fmt.Errorf("writing %s: %w", f.Name, err)
			}
		}
		return zw.Close()
	})
}

// writeEntry writes data under a copy of the original header so the entry
// keeps its name, method and timestamps.
func writeEntry(zw *zip.Writer, header zip.FileHeader, data []byte) error {
	header.CRC32 = 0
	header.CompressedSize = 0
	header.UncompressedSize = 0
	header.CompressedSize64 = 0
	header.UncompressedSize64 = 0

	entry, err := zw.CreateHeader(&header)
	if err != nil {
		return err
	}
	_, err = entry.Write(data)
	return err
}

func writeWithExcelize(data []byte, sheet string, applied []types.CellUpdate, outputPath string) error {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return err
	}
	defer f.Close()

	for _, u := range applied {
		if err := f.SetCellFloat(sheet, u.Ref(), u.Value, -1, 64); err != nil {
			return fmt.Errorf("setting %s: %w", u.Ref(), err)
		}
	}
	return utils.WriteFileAtomic(outputPath, func(w io.Writer) error {
		_, err := f.WriteTo(w)
		return err
	})
}
