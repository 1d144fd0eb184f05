// =============================================================================
// Order Reconciler - Preview Command
// =============================================================================
//
// Shows the first rows of a source document the way the reconciler reads
// them, so a wrong column or start row is visible before an order is made.
//
// COMMAND USAGE:
//   reconciler preview --supplier acme --warehouse warehouse.xlsx
//   reconciler preview --supplier acme --preorders preorders.xlsx --rows 20
//
// =============================================================================

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/xlsx-order-reconciler/internal/address"
	"github.com/ginjaninja78/xlsx-order-reconciler/internal/aggregate"
	"github.com/ginjaninja78/xlsx-order-reconciler/internal/converter"
	"github.com/ginjaninja78/xlsx-order-reconciler/internal/layout"
	"github.com/ginjaninja78/xlsx-order-reconciler/internal/normalize"
	"github.com/ginjaninja78/xlsx-order-reconciler/internal/types"
)

var previewFlags struct {
	supplier  string
	warehouse string
	preorders string
	rows      int
}

// previewCmd represents the 'preview' command.
var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Show how the first rows of a source document are read",
	RunE: func(cmd *cobra.Command, args []string) error {
		if (previewFlags.warehouse == "") == (previewFlags.preorders == "") {
			return types.ConfigurationError("preview", "give exactly one of --warehouse or --preorders")
		}

		s, err := openSession(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer s.close()

		supplier, err := s.store.Get(cmd.Context(), previewFlags.supplier)
		if err != nil {
			return fmt.Errorf("failed to load supplier: %w", err)
		}
		set, err := supplier.Layouts()
		if err != nil {
			return err
		}

		role, path := layout.RoleWarehouseOrder, previewFlags.warehouse
		if previewFlags.preorders != "" {
			role, path = layout.RolePreorders, previewFlags.preorders
		}
		cfg, _ := set.Get(role)
		if err := layout.Validate(role, cfg).Err(); err != nil {
			return err
		}

		conv := converter.New(converter.Options{
			Reader:     s.config.ReaderKind(),
			Normalizer: normalize.New(normalize.Options{CaseInsensitive: s.config.CaseInsensitiveCodes}),
			Logger:     s.logger,
		})
		rows, err := conv.Preview(path, cfg, previewFlags.rows)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s (%s), data from row %d, code %s, quantity %s\n",
			path, role, address.IndexToRowNumber(cfg.StartRowIndex), columnName(cfg.CodeColumn), columnName(cfg.QuantityColumn))
		for _, line := range aggregate.PreviewLines(rows) {
			fmt.Fprintln(out, "  "+line)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(previewCmd)

	f := previewCmd.Flags()
	f.StringVar(&previewFlags.supplier, "supplier", "default", "Supplier whose layouts are used")
	f.StringVar(&previewFlags.warehouse, "warehouse", "", "Warehouse order workbook")
	f.StringVar(&previewFlags.preorders, "preorders", "", "Preorder workbook")
	f.IntVar(&previewFlags.rows, "rows", aggregate.DefaultPreviewRows, "Number of rows to show")
}
