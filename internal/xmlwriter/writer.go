// =============================================================================
// Order Reconciler - Worksheet Cell Patcher
// =============================================================================
//
// This module writes numeric values into existing cells of a worksheet part
// (xl/worksheets/sheetN.xml) without re-serializing the document. The
// worksheet is scanned token by token and only the byte spans of the targeted
// <v> elements are replaced. Everything else, including styles, merged
// ranges, formulas, conditional formatting and unknown extension elements, is
// copied through byte for byte.
//
// WORKSHEET STRUCTURE:
//
//   <worksheet>
//     <sheetData>
//       <row r="6">
//         <c r="A6" t="s"><v>12</v></c>          <!-- shared string: left alone -->
//         <c r="J6" s="3"><v>4</v></c>           <!-- numeric: <v> replaced -->
//         <c r="K6" s="3"/>                       <!-- numeric, empty: <v> added -->
//         <c r="L6"><f>J6*E6</f><v>0</v></c>     <!-- formula: left alone -->
//       </row>
//     </sheetData>
//   </worksheet>
//
// RULES:
//   - Only cells without a type, or with t="n", are written
//   - Cells holding <f> are never written
//   - Cells and rows are never created; a missing target is reported as
//     skipped
//
// =============================================================================

package xmlwriter

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/ginjaninja78/xlsx-order-reconciler/internal/address"
	"github.com/ginjaninja78/xlsx-order-reconciler/internal/types"
)

// =============================================================================
// RESULT
// =============================================================================

// Result reports what PatchCells did with each requested update.
type Result struct {
	// Applied lists the updates written into the worksheet, in request order.
	Applied []types.CellUpdate

	// Skipped lists the updates that could not be written, in request order.
	Skipped []types.SkippedUpdate
}

// =============================================================================
// PATCHING
// =============================================================================

type cellKey struct{ col, row int }

type edit struct {
	start, end int
	text       string
}

// cellScan is the state of the <c> element currently being read.
type cellScan struct {
	key        cellKey
	cellType   string
	prefix     string
	tagEnd     int
	selfClosed bool
	hasFormula bool
	vStart     int
	vEnd       int
}

// PatchCells returns a copy of sheetXML with the given numeric updates
// applied.
//
// PARAMETERS:
//   - sheetXML: The raw worksheet part.
//   - updates: The values to write. A later update for the same cell replaces
//     an earlier one.
//
// RETURNS:
//   - The patched worksheet. When nothing applies it is equal to sheetXML.
//   - The per-update outcome.
//   - An error if the worksheet is not well-formed XML.
func PatchCells(sheetXML []byte, updates []types.CellUpdate) ([]byte, *Result, error) {
	targets := make(map[cellKey]int, len(updates))
	for i, u := range updates {
		targets[cellKey{u.Column, u.Row}] = i
	}

	outcome := make(map[int]types.SkipReason, len(updates))
	applied := make(map[int]bool, len(updates))
	rowsSeen := make(map[int]bool)
	var edits []edit

	decoder := xml.NewDecoder(bytes.NewReader(sheetXML))
	var (
		inSheetData bool
		depth       int
		rowIndex    = -1
		nextCol     int
		cell        *cellScan
	)

	for {
		start := int(decoder.InputOffset())
		token, err := decoder.RawToken()
		if errors.Is(err, io.EOF) {
			if depth != 0 {
				return nil, nil, fmt.Errorf("scanning worksheet: %w", io.ErrUnexpectedEOF)
			}
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("scanning worksheet: %w", err)
		}
		end := int(decoder.InputOffset())

		switch t := token.(type) {
		case xml.StartElement:
			depth++
			switch {
			case t.Name.Local == "sheetData":
				inSheetData = true

			case inSheetData && t.Name.Local == "row":
				rowIndex = rowIndexOf(t, rowIndex)
				rowsSeen[rowIndex] = true
				nextCol = 0

			case inSheetData && t.Name.Local == "c" && cell == nil:
				col := columnOf(t, nextCol)
				nextCol = col + 1
				cell = &cellScan{
					key:        cellKey{col, rowIndex},
					cellType:   attr(t, "t"),
					prefix:     t.Name.Space,
					tagEnd:     end,
					selfClosed: bytes.HasSuffix(sheetXML[start:end], []byte("/>")),
					vStart:     -1,
				}

			case cell != nil && t.Name.Local == "f":
				cell.hasFormula = true

			case cell != nil && t.Name.Local == "v":
				cell.vStart = start
				cell.vEnd = end
			}

		case xml.EndElement:
			depth--
			switch {
			case t.Name.Local == "sheetData":
				inSheetData = false

			case cell != nil && t.Name.Local == "v":
				cell.vEnd = end

			case cell != nil && t.Name.Local == "c":
				if i, ok := targets[cell.key]; ok {
					reason, e := planEdit(cell, start, updates[i].Value)
					if reason != "" {
						outcome[i] = reason
					} else {
						applied[i] = true
						edits = append(edits, e)
					}
				}
				cell = nil
			}
		}
	}

	result := &Result{}
	for i, u := range updates {
		if targets[cellKey{u.Column, u.Row}] != i {
			continue
		}
		switch {
		case applied[i]:
			result.Applied = append(result.Applied, u)
		case outcome[i] != "":
			result.Skipped = append(result.Skipped, types.SkippedUpdate{Update: u, Reason: outcome[i]})
		case rowsSeen[u.Row]:
			result.Skipped = append(result.Skipped, types.SkippedUpdate{Update: u, Reason: types.SkipCellMissing})
		default:
			result.Skipped = append(result.Skipped, types.SkippedUpdate{Update: u, Reason: types.SkipRowMissing})
		}
	}

	return applyEdits(sheetXML, edits), result, nil
}

// planEdit decides how a scanned cell receives value. closeStart is the
// offset of the cell's closing tag.
func planEdit(c *cellScan, closeStart int, value float64) (types.SkipReason, edit) {
	if c.hasFormula {
		return types.SkipFormula, edit{}
	}
	if c.cellType != "" && c.cellType != "n" {
		return types.SkipNotNumeric, edit{}
	}

	v := qualified(c.prefix, "v")
	text := "<" + v + ">" + types.FormatNumber(value) + "</" + v + ">"

	switch {
	case c.vStart >= 0:
		return "", edit{start: c.vStart, end: c.vEnd, text: text}
	case c.selfClosed:
		// <c r="J6"/> becomes <c r="J6"><v>4</v></c>
		return "", edit{start: c.tagEnd - 2, end: c.tagEnd, text: ">" + text + "</" + qualified(c.prefix, "c") + ">"}
	default:
		return "", edit{start: closeStart, end: closeStart, text: text}
	}
}

func applyEdits(src []byte, edits []edit) []byte {
	if len(edits) == 0 {
		return append([]byte(nil), src...)
	}
	sort.Slice(edits, func(i, j int) bool { return edits[i].start < edits[j].start })

	var out bytes.Buffer
	out.Grow(len(src) + 16*len(edits))
	pos := 0
	for _, e := range edits {
		out.Write(src[pos:e.start])
		out.WriteString(e.text)
		pos = e.end
	}
	out.Write(src[pos:])
	return out.Bytes()
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func attr(t xml.StartElement, local string) string {
	for _, a := range t.Attr {
		if a.Name.Local == local && a.Name.Space == "" {
			return a.Value
		}
	}
	return ""
}

// rowIndexOf reads the r attribute of a <row>. Rows without one follow the
// previous row.
func rowIndexOf(t xml.StartElement, previous int) int {
	n, err := strconv.Atoi(attr(t, "r"))
	if err != nil || n < 1 {
		return previous + 1
	}
	return address.RowNumberToIndex(n)
}

// columnOf reads the r attribute of a <c>. Cells without one follow the
// previous cell of the row.
func columnOf(t xml.StartElement, next int) int {
	col, _, err := address.SplitCellRef(attr(t, "r"))
	if err != nil {
		return next
	}
	return col
}

func qualified(prefix, local string) string {
	if prefix == "" {
		return local
	}
	return prefix + ":" + local
}
