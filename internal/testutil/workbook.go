// Package testutil builds small workbooks for tests.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// Sheet describes one worksheet of a fixture workbook. Keys are A1 references.
type Sheet struct {
	Name string

	// Values are written with SetCellValue.
	Values map[string]interface{}

	// RichText cells are written as one run per string, alternating bold.
	RichText map[string][]string

	// Formulas are written with SetCellFormula. The cached value, if any, is
	// taken from Values.
	Formulas map[string]string

	// Styled cells get a fill style; a styled cell without a value stays
	// empty but exists in the sheet XML.
	Styled []string

	// Merged ranges such as "A1:C1".
	Merged []string
}

// WriteWorkbook saves a workbook with the given sheets under dir and returns
// its path.
func WriteWorkbook(t testing.TB, dir, name string, sheets ...Sheet) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for i, s := range sheets {
		if i == 0 {
			require.NoError(t, f.SetSheetName(f.GetSheetName(0), s.Name))
		} else {
			_, err := f.NewSheet(s.Name)
			require.NoError(t, err)
		}
		writeSheet(t, f, s)
	}

	path := filepath.Join(dir, name)
	require.NoError(t, f.SaveAs(path))
	return path
}

func writeSheet(t testing.TB, f *excelize.File, s Sheet) {
	t.Helper()

	for ref, v := range s.Values {
		require.NoError(t, f.SetCellValue(s.Name, ref, v))
	}
	for ref, runs := range s.RichText {
		rich := make([]excelize.RichTextRun, len(runs))
		for i, text := range runs {
			rich[i] = excelize.RichTextRun{Text: text, Font: &excelize.Font{Bold: i%2 == 1}}
		}
		require.NoError(t, f.SetCellRichText(s.Name, ref, rich))
	}
	for ref, formula := range s.Formulas {
		require.NoError(t, f.SetCellFormula(s.Name, ref, formula))
	}
	if len(s.Styled) > 0 {
		style, err := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"FFF2CC"}},
		})
		require.NoError(t, err)
		for _, ref := range s.Styled {
			require.NoError(t, f.SetCellStyle(s.Name, ref, ref, style))
		}
	}
	for _, r := range s.Merged {
		from, to := splitRange(r)
		require.NoError(t, f.MergeCell(s.Name, from, to))
	}
}

func splitRange(r string) (string, string) {
	for i := 0; i < len(r); i++ {
		if r[i] == ':' {
			return r[:i], r[i+1:]
		}
	}
	return r, r
}
