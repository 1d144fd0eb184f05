// =============================================================================
// Order Reconciler - Code Normalizer & Numeric Coercer
// =============================================================================
//
// Human-authored sheets disagree on whitespace, decimal separators and
// sometimes letter case. This package turns raw cell values into:
//   - a normalized product code, the join key across all three documents
//   - a quantity or price, or "absent" when the cell cannot be read
//
// Both operations are total: they never fail and never panic. A value that
// cannot be interpreted becomes "" (code) or absent (number).
//
// CASE HANDLING:
//   Codes are compared case-sensitively unless the normalizer is built with
//   CaseInsensitive, in which case they are Unicode case-folded.
//
// =============================================================================

package normalize

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"

	"github.com/ginjaninja78/xlsx-order-reconciler/internal/types"
)

// =============================================================================
// NORMALIZER
// =============================================================================

// Options controls how codes are normalized.
type Options struct {
	// CaseInsensitive folds codes so "ab-100" and "AB-100" match.
	// Default: false
	CaseInsensitive bool
}

// Normalizer applies one set of Options to every value of a run.
type Normalizer struct {
	opts Options
}

// New creates a Normalizer.
func New(opts Options) *Normalizer {
	return &Normalizer{opts: opts}
}

// Default returns a case-sensitive Normalizer.
func Default() *Normalizer {
	return New(Options{})
}

// CaseInsensitive reports whether codes are case-folded.
func (n *Normalizer) CaseInsensitive() bool {
	return n.opts.CaseInsensitive
}

// Code returns the normalized product code for a cell value. Numeric cells
// are formatted without exponent or trailing ".0", so a code typed as 12345
// matches the text "12345".
func (n *Normalizer) Code(v types.CellValue) string {
	if v == nil {
		return ""
	}
	return n.Text(v.String())
}

// Text normalizes a code that is already a string.
//
// STEPS:
//   1. Non-breaking and narrow non-breaking spaces become ordinary spaces
//   2. Leading and trailing space is trimmed
//   3. Every remaining whitespace rune is removed, along with zero-width
//      space and byte-order marks
//   4. The result is case-folded when CaseInsensitive is set
func (n *Normalizer) Text(s string) string {
	s = strings.TrimSpace(replaceExoticSpaces(s))

	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '\u200b' || r == '\ufeff' {
			return -1
		}
		return r
	}, s)

	// A Caser carries state, so each call gets its own.
	if n.opts.CaseInsensitive && s != "" {
		s = cases.Fold().String(s)
	}
	return s
}

// Number coerces a cell value to a number. See CoerceNumber.
func (n *Normalizer) Number(v types.CellValue) (float64, bool) {
	return CoerceNumber(v)
}

// =============================================================================
// NUMERIC COERCION
// =============================================================================

// plainNumber is what remains after separators have been resolved. It keeps
// strconv.ParseFloat from accepting hex, "inf", "nan" or exponents typed into
// a quantity cell.
var plainNumber = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)$`)

// CoerceNumber reads a quantity or price.
//
// RULES:
//   - Number cells are returned as-is; NaN and infinities are absent
//   - Empty and blank text cells are absent
//   - In text, the rightmost of ',' and '.' is the decimal separator; the
//     other symbol and all spaces are thousands separators and are removed
//   - When only one kind of separator occurs and it occurs more than once, it
//     is a thousands separator ("1,234,567")
//   - Anything else that does not parse is absent
//
// EXAMPLES:
//   "1 234,50"  -> 1234.5
//   "1,234.50"  -> 1234.5
//   "1.234.567" -> 1234567
//   "abc"       -> absent
func CoerceNumber(v types.CellValue) (float64, bool) {
	switch val := v.(type) {
	case nil, types.Empty:
		return 0, false
	case types.Number:
		f := float64(val)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return parseText(val.String())
	}
}

func parseText(raw string) (float64, bool) {
	s := strings.TrimSpace(replaceExoticSpaces(raw))
	if s == "" {
		return 0, false
	}

	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")

	if lastComma >= 0 || lastDot >= 0 {
		decimal, other := ",", "."
		if lastDot > lastComma {
			decimal, other = ".", ","
		}

		if !strings.Contains(s, other) && strings.Count(s, decimal) > 1 {
			s = strings.ReplaceAll(s, decimal, "")
		} else {
			s = strings.ReplaceAll(s, other, "")
			s = strings.ReplaceAll(s, decimal, ".")
		}
	}

	s = strings.ReplaceAll(s, " ", "")
	if !plainNumber.MatchString(s) {
		return 0, false
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// =============================================================================
// HELPERS
// =============================================================================

var exoticSpaces = strings.NewReplacer(
	"\u00a0", " ", // no-break space
	"\u202f", " ", // narrow no-break space
	"\u2007", " ", // figure space
	"\u2009", " ", // thin space
	"\t", " ",
)

func replaceExoticSpaces(s string) string {
	return exoticSpaces.Replace(s)
}
