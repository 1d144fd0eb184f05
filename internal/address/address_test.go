package address

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColumnLetterToIndex(t *testing.T) {
	cases := map[string]int{
		"A":   0,
		"a":   0,
		" J ": 9,
		"Z":   25,
		"AA":  26,
		"AZ":  51,
		"BA":  52,
		"ZZ":  701,
		"AAA": 702,
	}
	for in, want := range cases {
		got, err := ColumnLetterToIndex(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestColumnLetterToIndexRejectsNonLetters(t *testing.T) {
	for _, in := range []string{"", "  ", "A1", "1", "Ä", "A-B"} {
		_, err := ColumnLetterToIndex(in)
		assert.ErrorIs(t, err, ErrInvalidFormat, in)
	}
}

func TestIndexToColumnLetterRoundTrip(t *testing.T) {
	for i := 0; i < 2000; i++ {
		letters, err := IndexToColumnLetter(i)
		require.NoError(t, err)
		back, err := ColumnLetterToIndex(letters)
		require.NoError(t, err)
		assert.Equal(t, i, back, letters)
	}

	_, err := IndexToColumnLetter(-1)
	assert.ErrorIs(t, err, ErrInvalidFormat)
}

func TestRowConversions(t *testing.T) {
	assert.Equal(t, 0, RowNumberToIndex(1))
	assert.Equal(t, 1, IndexToRowNumber(0))
	assert.Equal(t, 41, IndexToRowNumber(RowNumberToIndex(41)))
}

func TestCellRef(t *testing.T) {
	assert.Equal(t, "A1", CellRef(0, 0))
	assert.Equal(t, "J6", CellRef(9, 5))
	assert.Equal(t, "AA10", CellRef(26, 9))
	assert.Equal(t, "", CellRef(-1, 0))
	assert.Equal(t, "", CellRef(0, -1))
}

func TestSplitCellRef(t *testing.T) {
	col, row, err := SplitCellRef("J6")
	require.NoError(t, err)
	assert.Equal(t, 9, col)
	assert.Equal(t, 5, row)

	col, row, err = SplitCellRef("$AA$10")
	require.NoError(t, err)
	assert.Equal(t, 26, col)
	assert.Equal(t, 9, row)

	for _, bad := range []string{"", "6", "J", "J0", "6J", "J6x"} {
		_, _, err := SplitCellRef(bad)
		assert.ErrorIs(t, err, ErrInvalidFormat, bad)
	}
}

func TestSheetLimits(t *testing.T) {
	last, err := IndexToColumnLetter(16383)
	require.NoError(t, err)
	assert.Equal(t, "XFD", last)

	_, err = IndexToColumnLetter(16384)
	assert.ErrorIs(t, err, ErrInvalidFormat)

	_, err = ColumnLetterToIndex("XFE")
	assert.ErrorIs(t, err, ErrInvalidFormat)

	assert.Equal(t, "", CellRef(16384, 0))
}
