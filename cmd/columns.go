package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/xlsx-order-reconciler/internal/address"
)

// columnsCmd converts between column letters and numbers, for people setting
// up a supplier file from a 0-based layout or the other way round.
var columnsCmd = &cobra.Command{
	Use:   "columns LETTER|INDEX...",
	Short: "Convert column letters to 0-based indices and back",
	Example: `  reconciler columns J K AA
  reconciler columns 9 10`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		for _, arg := range args {
			if idx, err := strconv.Atoi(arg); err == nil {
				letter, err := address.IndexToColumnLetter(idx)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%d -> %s\n", idx, letter)
				continue
			}
			idx, err := address.ColumnLetterToIndex(arg)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s -> %d\n", arg, idx)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(columnsCmd)
}

// columnName renders a 0-based column for operator output.
func columnName(idx int) string {
	letter, err := address.IndexToColumnLetter(idx)
	if err != nil {
		return "?"
	}
	return letter
}
